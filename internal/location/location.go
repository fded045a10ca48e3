// Package location supplies one-shot position fixes for "use my location" lookups.
package location

import (
	"context"
	"errors"
	"fmt"

	"github.com/i474232898/weather-lookup/internal/weather"
)

var (
	// ErrUnavailable means the source produced no fix at all (GPS off, nothing configured).
	ErrUnavailable = fmt.Errorf("%w: no position fix", weather.ErrLocation)
	// ErrPermissionDenied means the user has not granted access to the position.
	ErrPermissionDenied = fmt.Errorf("%w: permission denied", weather.ErrLocation)
)

// Fix is a single latitude/longitude reading.
type Fix struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// Provider acquires a single position fix.
type Provider interface {
	CurrentFix(ctx context.Context) (Fix, error)
}

// Static returns a fixed position, or ErrUnavailable when none is configured.
type Static struct {
	fix *Fix
}

// NewStatic returns a Static source. A nil fix means no position is known.
func NewStatic(fix *Fix) Static {
	return Static{fix: fix}
}

func (s Static) CurrentFix(ctx context.Context) (Fix, error) {
	if err := ctx.Err(); err != nil {
		return Fix{}, fmt.Errorf("%w: %w", weather.ErrLocation, err)
	}
	if s.fix == nil {
		return Fix{}, ErrUnavailable
	}
	return *s.fix, nil
}

// Denied models a device on which location access was refused.
type Denied struct{}

func (Denied) CurrentFix(context.Context) (Fix, error) {
	return Fix{}, ErrPermissionDenied
}

// IsUnavailable reports whether err means no fix was produced, as opposed to a
// failing or refused position request.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
