package report

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/Kavalar/by-kalancha/internal/core"
	"github.com/shopspring/decimal"
)

const separator = "----------------------------"

const bodyTemplate = `{{.Header}}
{{.Separator}}
{{.L.CardLabel}}: {{money .Card}}
{{.L.CashLabel}}: {{money .Cash}}
{{.L.BlikLabel}}: {{money .Blik}}
{{.L.TotalLabel}}: {{money .Total}}

{{.L.CountLabel}}: {{.Count}}
{{.L.PopularLabel}}: {{.Popular}}
{{.Separator}}`

// Renderer turns period statistics into a report title and body.
//
// Amounts are rounded to whole units, half away from zero, each line on its
// own. The total line rounds the exact total, so it can differ by one from
// the sum of the rounded bucket lines.
type Renderer struct {
	locale   *Locale
	currency string
	body     *template.Template
}

type bodyData struct {
	L         *Locale
	Header    string
	Separator string
	Card      decimal.Decimal
	Cash      decimal.Decimal
	Blik      decimal.Decimal
	Total     decimal.Decimal
	Count     int
	Popular   string
}

func NewRenderer(localeName, currency string) (*Renderer, error) {
	locale, err := LookupLocale(localeName)
	if err != nil {
		return nil, err
	}
	r := &Renderer{locale: locale, currency: strings.TrimSpace(currency)}
	if r.currency == "" {
		r.currency = "zł"
	}
	r.body, err = template.New("body").Funcs(template.FuncMap{
		"money": r.money,
	}).Parse(bodyTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	return r, nil
}

func (r *Renderer) Locale() *Locale { return r.locale }

func (r *Renderer) money(d decimal.Decimal) string {
	return core.FormatWhole(d) + " " + r.currency
}

// PeriodTitle implements core.PeriodTitler.
func (r *Renderer) PeriodTitle(p core.ReportPeriod) string {
	l := r.locale
	s, e := p.Start, p.End
	switch p.Kind {
	case core.PeriodDaily:
		return fmt.Sprintf(l.DailyTitle, l.DayMonth(s.Day(), int(s.Month())))
	case core.PeriodWeekly:
		return fmt.Sprintf(l.WeeklyTitle,
			l.ShortDate(s.Day(), int(s.Month()), s.Year()),
			l.ShortDate(e.Day(), int(e.Month()), e.Year()))
	case core.PeriodMonthly:
		return fmt.Sprintf(l.MonthlyTitle, l.MonthYear(int(s.Month()), s.Year()))
	default:
		return fmt.Sprintf(l.RangeTitle,
			l.LongDate(s.Day(), int(s.Month()), s.Year()),
			l.LongDate(e.Day(), int(e.Month()), e.Year()))
	}
}

// Render builds the report. popular may be nil when nothing was tallied; a
// pick whose name is unknown to the catalog renders as the placeholder too.
func (r *Renderer) Render(p core.ReportPeriod, agg core.AggregateResult, popular *core.PopularService) (core.RenderedReport, error) {
	periodTitle := p.Title
	if periodTitle == "" {
		periodTitle = r.PeriodTitle(p)
	}

	popularLine := r.locale.NoPopular
	if popular != nil && strings.TrimSpace(popular.Name) != "" {
		popularLine = fmt.Sprintf("%s (%d)", popular.Name, popular.Count)
	}

	var buf bytes.Buffer
	err := r.body.Execute(&buf, bodyData{
		L:         r.locale,
		Header:    fmt.Sprintf(r.locale.Header, periodTitle),
		Separator: separator,
		Card:      agg.Card,
		Cash:      agg.Cash,
		Blik:      agg.Blik,
		Total:     agg.Total(),
		Count:     agg.ServicesCount,
		Popular:   popularLine,
	})
	if err != nil {
		return core.RenderedReport{}, fmt.Errorf("render report body: %w", err)
	}

	return core.RenderedReport{
		Title: r.locale.TitlePrefix + " " + periodTitle,
		Body:  buf.String(),
	}, nil
}

// NoDataMessage is the success message returned when nothing matched.
func (r *Renderer) NoDataMessage() string { return r.locale.NoDataMessage }

// SentMessage is the success message returned after dispatch.
func (r *Renderer) SentMessage() string { return r.locale.SentMessage }
