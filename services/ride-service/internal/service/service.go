package service

import (
	"context"
	"fmt"

	"ride-hail/services/ride-service/internal/domain"
	"ride-hail/shared/ride"
	"ride-hail/shared/types"
)

type service struct {
	repo      domain.RideRequestRepository
	profiles  domain.ProfileStore
	publisher domain.EventPublisher
}

func NewRideRequestService(repo domain.RideRequestRepository, profiles domain.ProfileStore, publisher domain.EventPublisher) *service {
	return &service{
		repo:      repo,
		profiles:  profiles,
		publisher: publisher,
	}
}

func (s *service) Create(ctx context.Context, riderID string, source, destination types.Coordinate) (*ride.Request, error) {
	if riderID == "" {
		return nil, fmt.Errorf("%w: missing rider id", domain.ErrValidation)
	}
	if source.IsZero() {
		return nil, fmt.Errorf("%w: missing source", domain.ErrValidation)
	}
	if destination.IsZero() {
		return nil, fmt.Errorf("%w: missing destination", domain.ErrValidation)
	}

	req, err := s.repo.Create(ctx, &ride.Request{
		RiderID:     riderID,
		Source:      source,
		Destination: destination,
	})
	if err != nil {
		return nil, err
	}

	if err := s.publisher.PublishRideRequestCreated(ctx, req); err != nil {
		return nil, fmt.Errorf("ride request %s persisted but not announced: %v", req.ID, err)
	}
	return req, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*ride.RequestDetail, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rider, err := s.profiles.GetProfile(ctx, req.RiderID)
	if err != nil {
		return nil, err
	}
	return &ride.RequestDetail{RideRequest: req, Rider: rider}, nil
}

// UpdateStatus persists one lifecycle transition and then announces it.
// For ACCEPTED, driverID is the accepting driver and is written to the
// record. For CANCELED, a non-empty driverID marks the cancellation as
// coming from the driver side, which picks the event the rider receives.
func (s *service) UpdateStatus(ctx context.Context, id string, expected *ride.Status, next ride.Status, driverID string) (*ride.Request, error) {
	if next == ride.StatusAccepted && driverID == "" {
		return nil, fmt.Errorf("%w: accept requires a driver id", domain.ErrValidation)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, expected, next, driverID)
	if err != nil {
		return nil, err
	}

	switch next {
	case ride.StatusAccepted:
		err = s.publisher.PublishRideAccepted(ctx, updated)
	case ride.StatusCanceled:
		err = s.publisher.PublishRideCanceled(ctx, updated, driverID != "")
	}
	if err != nil {
		return nil, fmt.Errorf("ride request %s updated but not announced: %v", id, err)
	}
	return updated, nil
}

func (s *service) ActiveForUser(ctx context.Context, userID string) (*ride.Request, error) {
	return s.repo.GetActiveByUser(ctx, userID)
}
