package report

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Locale holds every user-facing string of a report.
type Locale struct {
	Tag language.Tag

	monthsGenitive   [12]string
	monthsNominative [12]string
	titleMonths      bool
	longDate         func(l *Locale, day, month, year int) string
	monthYear        string // fmt pattern: month, year
	shortDate        string // fmt pattern: day, month, year

	TitlePrefix   string
	DailyTitle    string // %s: day
	RangeTitle    string // %s, %s: start, end
	WeeklyTitle   string
	MonthlyTitle  string
	Header        string // %s: period title
	CardLabel     string
	CashLabel     string
	BlikLabel     string
	TotalLabel    string
	CountLabel    string
	PopularLabel  string
	NoPopular     string
	NoDataMessage string
	SentMessage   string

	InvalidPeriodError string
	NoRecipientsError  string
	InternalError      string
}

var ukrainian = &Locale{
	Tag: language.Ukrainian,
	monthsGenitive: [12]string{"січня", "лютого", "березня", "квітня", "травня", "червня",
		"липня", "серпня", "вересня", "жовтня", "листопада", "грудня"},
	monthsNominative: [12]string{"січень", "лютий", "березень", "квітень", "травень", "червень",
		"липень", "серпень", "вересень", "жовтень", "листопад", "грудень"},
	longDate: func(l *Locale, day, month, year int) string {
		return fmt.Sprintf("%d %s %d р.", day, l.genitive(month), year)
	},
	monthYear:     "%s %d р.",
	shortDate:     "%02d.%02d.%d",
	TitlePrefix:   "🔔 Звіт",
	DailyTitle:    "за %s",
	RangeTitle:    "з %s по %s",
	WeeklyTitle:   "за тиждень %s - %s",
	MonthlyTitle:  "за %s",
	Header:        "Загальна статистика %s:",
	CardLabel:     "💳 Карткою",
	CashLabel:     "💵 Готівкою",
	BlikLabel:     "📱 Blik",
	TotalLabel:    "📊 Разом",
	CountLabel:    "Послуг надано",
	PopularLabel:  "Найпопулярніше",
	NoPopular:     "Немає",
	NoDataMessage: "За обраний період немає оплачених записів.",
	SentMessage:   "Звіт успішно сформовано та відправлено!",

	InvalidPeriodError: "Некоректний період звіту.",
	NoRecipientsError:  "Не вказано жодного отримувача звіту в налаштуваннях.",
	InternalError:      "Внутрішня помилка сервера.",
}

var english = &Locale{
	Tag: language.English,
	monthsGenitive: [12]string{"january", "february", "march", "april", "may", "june",
		"july", "august", "september", "october", "november", "december"},
	titleMonths: true,
	longDate: func(l *Locale, day, month, year int) string {
		return fmt.Sprintf("%s %d, %d", l.genitive(month), day, year)
	},
	monthYear:     "%s %d",
	shortDate:     "%02d/%02d/%d",
	TitlePrefix:   "🔔 Report",
	DailyTitle:    "for %s",
	RangeTitle:    "from %s to %s",
	WeeklyTitle:   "for the week %s - %s",
	MonthlyTitle:  "for %s",
	Header:        "Summary %s:",
	CardLabel:     "💳 Card",
	CashLabel:     "💵 Cash",
	BlikLabel:     "📱 Blik",
	TotalLabel:    "📊 Total",
	CountLabel:    "Services delivered",
	PopularLabel:  "Most popular",
	NoPopular:     "None",
	NoDataMessage: "No paid appointments for the selected period.",
	SentMessage:   "Report generated and sent successfully!",

	InvalidPeriodError: "Invalid report period.",
	NoRecipientsError:  "No report recipients are configured.",
	InternalError:      "Internal server error.",
}

func init() {
	english.monthsNominative = english.monthsGenitive
}

var (
	supported = []language.Tag{language.Ukrainian, language.English}
	matcher   = language.NewMatcher(supported)
)

// LookupLocale resolves a BCP 47 tag such as "uk", "uk-UA" or "en-GB" to a
// supported locale.
func LookupLocale(name string) (*Locale, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ukrainian, nil
	}
	tag, err := language.Parse(name)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", name, err)
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return nil, fmt.Errorf("unsupported locale %q", name)
	}
	if idx == 1 {
		return english, nil
	}
	return ukrainian, nil
}

// LongDate formats a day as "14 березня 2024 р." / "March 14, 2024".
func (l *Locale) LongDate(day, month, year int) string {
	return l.longDate(l, day, month, year)
}

// DayMonth is the long date without the year.
func (l *Locale) DayMonth(day, month int) string {
	if l.Tag == language.English {
		return fmt.Sprintf("%s %d", l.genitive(month), day)
	}
	return fmt.Sprintf("%d %s", day, l.genitive(month))
}

func (l *Locale) ShortDate(day, month, year int) string {
	return fmt.Sprintf(l.shortDate, day, month, year)
}

// MonthYear renders the standalone month name with its year
// ("березень 2024 р.", "March 2024").
func (l *Locale) MonthYear(month, year int) string {
	return fmt.Sprintf(l.monthYear, l.monthName(l.monthsNominative[month-1]), year)
}

func (l *Locale) genitive(month int) string {
	return l.monthName(l.monthsGenitive[month-1])
}

// monthName applies the locale's capitalization rule to a month name.
func (l *Locale) monthName(name string) string {
	if !l.titleMonths {
		return name
	}
	return cases.Title(l.Tag).String(name)
}
