package main

import (
	"context"
	"encoding/json"
	"testing"

	"ride-hail/clients/rideapi"
	"ride-hail/shared/contracts"
	"ride-hail/shared/messaging"
	"ride-hail/shared/ride"
)

type fakeRideFetcher struct {
	details map[string]*ride.RequestDetail
}

func (f *fakeRideFetcher) GetRideRequest(ctx context.Context, id string) (*ride.RequestDetail, error) {
	detail, ok := f.details[id]
	if !ok {
		return nil, rideapi.ErrNotFound
	}
	return detail, nil
}

type publishedOffer struct {
	routingKey string
	msg        contracts.AmqpMessage
}

type fakeOfferPublisher struct {
	offers []publishedOffer
}

func (f *fakeOfferPublisher) PublishMessage(ctx context.Context, routingKey string, msg contracts.AmqpMessage) error {
	f.offers = append(f.offers, publishedOffer{routingKey: routingKey, msg: msg})
	return nil
}

func pendingRequestDetail(id string) *ride.RequestDetail {
	return &ride.RequestDetail{
		RideRequest: &ride.Request{
			ID:      id,
			RiderID: "rider-1",
			Status:  ride.StatusPending,
			Source:  tashkentCenter,
		},
		Rider: &ride.RiderProfile{ID: "rider-1"},
	}
}

func TestRideCreatedFansOutToEligibleDrivers(t *testing.T) {
	svc := NewService(GeohashPolicy{Precision: 4})
	svc.RegisterDriver("near-1", tashkentCenter)
	svc.RegisterDriver("near-2", tashkentNorth)
	svc.RegisterDriver("far-1", samarkand)

	fetcher := &fakeRideFetcher{details: map[string]*ride.RequestDetail{
		"req-1": pendingRequestDetail("req-1"),
	}}
	publisher := &fakeOfferPublisher{}
	consumer := &RideConsumer{service: svc, rides: fetcher, publisher: publisher}

	payload := messaging.RideRequestEventData{RideRequestID: "req-1", RiderID: "rider-1"}
	if err := consumer.handleFindAndNotifyDrivers(context.Background(), payload); err != nil {
		t.Fatalf("handleFindAndNotifyDrivers: %v", err)
	}

	if len(publisher.offers) != 2 {
		t.Fatalf("got %d offers, want one per eligible driver (2)", len(publisher.offers))
	}

	seen := map[string]bool{}
	for _, offer := range publisher.offers {
		if offer.routingKey != contracts.DriverCmdRideRequest {
			t.Errorf("routing key = %s, want %s", offer.routingKey, contracts.DriverCmdRideRequest)
		}
		if offer.msg.OwnerID == "" {
			t.Error("each offer must be addressed to one driver")
		}
		seen[offer.msg.OwnerID] = true

		var data messaging.RideRequestEventData
		if err := json.Unmarshal(offer.msg.Data, &data); err != nil {
			t.Fatalf("offer payload: %v", err)
		}
		if data.RideRequestID != "req-1" || data.RiderID != "rider-1" {
			t.Errorf("offer payload = %+v, want the request and rider ids", data)
		}
	}
	if !seen["near-1"] || !seen["near-2"] || seen["far-1"] {
		t.Errorf("offers went to %v, want near-1 and near-2 only", seen)
	}
}

func TestRideCreatedNoEligibleDrivers(t *testing.T) {
	svc := NewService(GeohashPolicy{Precision: 4})
	svc.RegisterDriver("far-1", samarkand)

	fetcher := &fakeRideFetcher{details: map[string]*ride.RequestDetail{
		"req-1": pendingRequestDetail("req-1"),
	}}
	publisher := &fakeOfferPublisher{}
	consumer := &RideConsumer{service: svc, rides: fetcher, publisher: publisher}

	payload := messaging.RideRequestEventData{RideRequestID: "req-1", RiderID: "rider-1"}
	if err := consumer.handleFindAndNotifyDrivers(context.Background(), payload); err != nil {
		t.Fatalf("no eligible drivers must not fail the event: %v", err)
	}
	if len(publisher.offers) != 0 {
		t.Errorf("got %d offers, want none", len(publisher.offers))
	}
}

func TestRideCreatedRequestAlreadyGone(t *testing.T) {
	svc := NewService(GeohashPolicy{Precision: 4})
	svc.RegisterDriver("near-1", tashkentCenter)

	fetcher := &fakeRideFetcher{details: map[string]*ride.RequestDetail{}}
	publisher := &fakeOfferPublisher{}
	consumer := &RideConsumer{service: svc, rides: fetcher, publisher: publisher}

	payload := messaging.RideRequestEventData{RideRequestID: "req-gone", RiderID: "rider-1"}
	if err := consumer.handleFindAndNotifyDrivers(context.Background(), payload); err == nil {
		t.Fatal("expected an error for a vanished request")
	}
	if len(publisher.offers) != 0 {
		t.Errorf("got %d offers, want none", len(publisher.offers))
	}
}
