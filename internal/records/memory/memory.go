package memory

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kavalar/by-kalancha/internal/core"
)

type Store struct {
	mu           sync.Mutex
	appointments []core.Appointment
	services     []core.Service
	recipients   []string
	hasSettings  bool
}

func New() *Store {
	return &Store{}
}

// appointmentRecord is the JSON shape of seed_appointments.json.
type appointmentRecord struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	CompletedAt time.Time `json:"completedAt"`
	PaymentType string    `json:"paymentType"`
	FinalPrice  seedPrice `json:"finalPrice"`
	ServiceID   string    `json:"serviceId"`
}

// seedPrice accepts a JSON number (120.5) or a string ("120,50 zł").
type seedPrice struct {
	amount decimal.Decimal
	set    bool
}

func (p *seedPrice) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = s
	}
	amount, err := core.ParseAmount(raw)
	if err != nil {
		return fmt.Errorf("final price %s: %w", string(data), err)
	}
	p.amount, p.set = amount, true
	return nil
}

// NewFromFiles loads seed_appointments.json, seed_services.txt ("id;name"
// per line) and seed_recipients.txt from base. Missing files are treated as
// empty; a missing recipients file means no settings record.
func NewFromFiles(base string) (*Store, error) {
	s := New()

	for _, line := range readLines(filepath.Join(base, "seed_services.txt")) {
		id, name, ok := strings.Cut(line, ";")
		if !ok {
			return nil, fmt.Errorf("seed_services.txt: malformed line %q", line)
		}
		s.AddService(core.Service{ID: strings.TrimSpace(id), Name: strings.TrimSpace(name)})
	}

	if path := filepath.Join(base, "seed_recipients.txt"); fileExists(path) {
		s.SetRecipients(readLines(path))
	}

	raw, err := os.ReadFile(filepath.Join(base, "seed_appointments.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read appointments seed: %w", err)
	}
	var recs []appointmentRecord
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("decode appointments seed: %w", err)
	}
	for _, r := range recs {
		if !r.FinalPrice.set {
			return nil, fmt.Errorf("appointment %s: missing final price: %w", r.ID, core.ErrInvalidAmount)
		}
		s.AddAppointment(core.Appointment{
			ID:          r.ID,
			Status:      r.Status,
			CompletedAt: r.CompletedAt,
			PaymentType: core.ParsePaymentType(r.PaymentType),
			FinalPrice:  r.FinalPrice.amount,
			ServiceID:   r.ServiceID,
		})
	}
	return s, nil
}

func (s *Store) AddAppointment(a core.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments = append(s.appointments, a)
}

func (s *Store) AddService(svc core.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.services {
		if s.services[i].ID == svc.ID {
			s.services[i] = svc
			return
		}
	}
	s.services = append(s.services, svc)
}

// SetRecipients creates the settings record. An empty list keeps the record
// but leaves it without recipients.
func (s *Store) SetRecipients(recipients []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipients = append([]string(nil), recipients...)
	s.hasSettings = true
}

func (s *Store) CompletedBetween(_ context.Context, start, end time.Time) ([]core.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Appointment
	for _, a := range s.appointments {
		if a.Status != core.StatusCompleted {
			continue
		}
		if a.CompletedAt.Before(start) || a.CompletedAt.After(end) {
			continue
		}
		out = append(out, a)
	}
	core.SortByCompletion(out)
	return out, nil
}

func (s *Store) ListServices(_ context.Context) ([]core.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Service(nil), s.services...), nil
}

func (s *Store) Recipients(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasSettings {
		return nil, core.ErrSettingsNotFound
	}
	return append([]string(nil), s.recipients...), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }
