package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidPeriod    = errors.New("invalid period")
	ErrNoRecipients     = errors.New("no report recipients configured")
	ErrSettingsNotFound = errors.New("report settings not found")
	ErrDeliveryFailed   = errors.New("report delivery failed")
)

// DeliveryError carries the diagnostic payload a delivery channel returned.
type DeliveryError struct {
	Channel    string
	Diagnostic string
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.Diagnostic != "" {
		return fmt.Sprintf("delivery via %s failed: %v (%s)", e.Channel, e.Err, e.Diagnostic)
	}
	return fmt.Sprintf("delivery via %s failed: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func (e *DeliveryError) Is(target error) bool { return target == ErrDeliveryFailed }
