package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ReportMessage carries a fully rendered report to a downstream mailer.
type ReportMessage struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        []string  `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// NewReportMessage stamps a rendered report with a fresh id and timestamp.
func NewReportMessage(from string, to []string, subject, body string) *ReportMessage {
	return &ReportMessage{
		ID:        uuid.NewString(),
		From:      from,
		To:        append([]string(nil), to...),
		Subject:   subject,
		Body:      body,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportMessageFromJSON creates a message from JSON bytes
func ReportMessageFromJSON(data []byte) (*ReportMessage, error) {
	var msg ReportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
