package core

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Card PaymentType = "card"
	Cash PaymentType = "cash"
	Blik PaymentType = "blik"
)

const (
	StatusCompleted = "completed"
)

type (
	PaymentType string

	Appointment struct {
		ID          string
		Status      string
		CompletedAt time.Time
		PaymentType PaymentType
		FinalPrice  decimal.Decimal
		ServiceID   string
	}

	Service struct {
		ID   string
		Name string
	}

	// Message is what a delivery channel sends: one call, every recipient.
	Message struct {
		From    string
		To      []string
		Subject string
		Body    string
	}

	RenderedReport struct {
		Title string
		Body  string
	}
)

// PaymentTypes lists the accepted payment methods in report order.
var PaymentTypes = []PaymentType{Card, Cash, Blik}

// ParsePaymentType normalizes raw store values. Unknown values are returned
// as-is and simply never match a revenue bucket.
func ParsePaymentType(s string) PaymentType {
	return PaymentType(strings.ToLower(strings.TrimSpace(s)))
}

func (p PaymentType) IsValid() bool {
	switch p {
	case Card, Cash, Blik:
		return true
	}
	return false
}

// IsCompleted reports whether the appointment counts toward revenue reports.
func (a Appointment) IsCompleted() bool {
	return a.Status == StatusCompleted && !a.CompletedAt.IsZero()
}

// ServiceNames indexes a service catalog by id.
func ServiceNames(services []Service) map[string]string {
	names := make(map[string]string, len(services))
	for _, s := range services {
		names[s.ID] = s.Name
	}
	return names
}

// SortByCompletion orders appointments by completion time, then id.
func SortByCompletion(appts []Appointment) {
	sort.SliceStable(appts, func(i, j int) bool {
		if !appts[i].CompletedAt.Equal(appts[j].CompletedAt) {
			return appts[i].CompletedAt.Before(appts[j].CompletedAt)
		}
		return appts[i].ID < appts[j].ID
	})
}
