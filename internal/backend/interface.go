package backend

import (
	"context"

	"github.com/Kavalar/by-kalancha/internal/records"
)

// Backend is a records store that can also report its readiness.
type Backend interface {
	records.Store
	Ping(ctx context.Context) error
}

type CleanupFunc func() error

func noCleanup() error { return nil }

// BackendResult pairs an opened backend with the function that releases it.
// Cleanup is never nil.
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}
