package repository

import (
	"context"
	"fmt"
	"sync"

	"ride-hail/shared/ride"
)

// InmemProfileStore holds rider display profiles. Real identity lives in an
// external auth system; a user we have no profile for still gets a usable
// placeholder so a ride request fetch never fails on presentation data.
type InmemProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]*ride.RiderProfile
}

func NewInmemProfileStore() *InmemProfileStore {
	return &InmemProfileStore{
		profiles: make(map[string]*ride.RiderProfile),
	}
}

func (s *InmemProfileStore) Put(profile *ride.RiderProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *profile
	s.profiles[p.ID] = &p
}

func (s *InmemProfileStore) GetProfile(ctx context.Context, userID string) (*ride.RiderProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.profiles[userID]; ok {
		out := *p
		return &out, nil
	}
	return &ride.RiderProfile{
		ID:             userID,
		Name:           userID,
		ProfilePicture: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", userID),
	}, nil
}
