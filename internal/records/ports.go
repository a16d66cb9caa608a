package records

import (
	"context"
	"time"

	"github.com/Kavalar/by-kalancha/internal/core"
)

// Ports for outbound adapters.
type (
	// AppointmentReader returns completed appointments whose completion time
	// lies inside [start, end], ordered by completion time then id.
	AppointmentReader interface {
		CompletedBetween(ctx context.Context, start, end time.Time) ([]core.Appointment, error)
	}

	ServiceCatalog interface {
		ListServices(ctx context.Context) ([]core.Service, error)
	}

	// RecipientSource returns the ordered report recipients. It returns
	// core.ErrSettingsNotFound when no settings record exists.
	RecipientSource interface {
		Recipients(ctx context.Context) ([]string, error)
	}

	// Store bundles every port a report run needs.
	Store interface {
		AppointmentReader
		ServiceCatalog
		RecipientSource
	}
)
