package domain

import (
	"context"
	"errors"

	"ride-hail/shared/ride"
	"ride-hail/shared/types"
)

var (
	ErrNotFound = errors.New("ride request not found")

	// ErrConflict means the persisted status no longer matched the caller's
	// expected status. The losing side of an accept race sees this.
	ErrConflict = errors.New("ride request status conflict")

	ErrInvalidTransition = errors.New("invalid ride request status transition")
	ErrValidation        = errors.New("invalid ride request input")
)

type RideRequestRepository interface {
	Create(ctx context.Context, req *ride.Request) (*ride.Request, error)
	GetByID(ctx context.Context, id string) (*ride.Request, error)

	// UpdateStatus applies one lifecycle transition. When expected is
	// non-nil the update is conditional: it succeeds only while the
	// persisted status still equals *expected, otherwise ErrConflict.
	// driverID is written only on the PENDING->ACCEPTED transition and is
	// never overwritten afterwards.
	UpdateStatus(ctx context.Context, id string, expected *ride.Status, next ride.Status, driverID string) (*ride.Request, error)

	// GetActiveByUser returns the PENDING or ACCEPTED request the user is
	// involved in, as rider or assigned driver. ErrNotFound when idle.
	GetActiveByUser(ctx context.Context, userID string) (*ride.Request, error)
}

type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*ride.RiderProfile, error)
}

type RideRequestService interface {
	Create(ctx context.Context, riderID string, source, destination types.Coordinate) (*ride.Request, error)
	GetByID(ctx context.Context, id string) (*ride.RequestDetail, error)
	UpdateStatus(ctx context.Context, id string, expected *ride.Status, next ride.Status, driverID string) (*ride.Request, error)
	ActiveForUser(ctx context.Context, userID string) (*ride.Request, error)
}

// EventPublisher announces committed state changes on the event channel.
// Announcements happen strictly after the mutation is persisted.
type EventPublisher interface {
	PublishRideRequestCreated(ctx context.Context, req *ride.Request) error
	PublishRideAccepted(ctx context.Context, req *ride.Request) error
	PublishRideCanceled(ctx context.Context, req *ride.Request, byDriver bool) error
}
