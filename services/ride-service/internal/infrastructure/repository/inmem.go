package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"ride-hail/services/ride-service/internal/domain"
	"ride-hail/shared/ride"
)

// InmemRepository keeps ride requests in a mutex-guarded map. The conditional
// status update runs entirely under the lock, which is what serializes
// concurrent accept attempts into exactly one winner.
type InmemRepository struct {
	mu       sync.RWMutex
	requests map[string]*ride.Request
}

func NewInmemRepository() *InmemRepository {
	return &InmemRepository{
		requests: make(map[string]*ride.Request),
	}
}

func (r *InmemRepository) Create(ctx context.Context, req *ride.Request) (*ride.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *req
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	stored.Status = ride.StatusPending
	r.requests[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (r *InmemRepository) GetByID(ctx context.Context, id string) (*ride.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *req
	return &out, nil
}

func (r *InmemRepository) UpdateStatus(ctx context.Context, id string, expected *ride.Status, next ride.Status, driverID string) (*ride.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if expected != nil && req.Status != *expected {
		return nil, domain.ErrConflict
	}
	if !req.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, req.Status, next)
	}

	req.Status = next
	if next == ride.StatusAccepted {
		// driverID is written here and nowhere else
		req.DriverID = driverID
	}

	out := *req
	return &out, nil
}

func (r *InmemRepository) GetActiveByUser(ctx context.Context, userID string) (*ride.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, req := range r.requests {
		if !req.Active() {
			continue
		}
		if req.RiderID == userID || req.DriverID == userID {
			out := *req
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}
