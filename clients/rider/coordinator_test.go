package rider

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"ride-hail/clients/rideapi"
	"ride-hail/shared/contracts"
	"ride-hail/shared/messaging"
	"ride-hail/shared/ride"
	"ride-hail/shared/types"
)

var (
	source      = types.Coordinate{Latitude: 41.31, Longitude: 69.24}
	destination = types.Coordinate{Latitude: 41.33, Longitude: 69.28}
)

type fakeAPI struct {
	createErr error
	updateErr error
	active    *ride.Request

	lastUpdateID       string
	lastUpdateNext     ride.Status
	lastUpdateDriverID string
	updateCalls        int
}

func (f *fakeAPI) CreateRideRequest(ctx context.Context, riderID string, src, dst types.Coordinate) (*ride.Request, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &ride.Request{
		ID:          "req-1",
		RiderID:     riderID,
		Status:      ride.StatusPending,
		Source:      src,
		Destination: dst,
	}, nil
}

func (f *fakeAPI) UpdateStatus(ctx context.Context, id string, expected *ride.Status, next ride.Status, driverID string) (*ride.Request, error) {
	f.updateCalls++
	f.lastUpdateID = id
	f.lastUpdateNext = next
	f.lastUpdateDriverID = driverID
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &ride.Request{ID: id, Status: next}, nil
}

func (f *fakeAPI) ActiveRideRequest(ctx context.Context, userID string) (*ride.Request, error) {
	if f.active == nil {
		return nil, rideapi.ErrNotFound
	}
	return f.active, nil
}

type fakeNotifier struct {
	titles []string
}

func (n *fakeNotifier) Notify(title, detail string) {
	n.titles = append(n.titles, title)
}

func acceptedMsg(t *testing.T, id, driverID string) contracts.WSMessage {
	t.Helper()
	data, err := json.Marshal(messaging.RideAcceptedEventData{RideRequestID: id, DriverID: driverID})
	if err != nil {
		t.Fatal(err)
	}
	return contracts.WSMessage{Type: contracts.RideEventAccepted, Data: data}
}

func canceledByDriverMsg(t *testing.T, id string) contracts.WSMessage {
	t.Helper()
	data, err := json.Marshal(messaging.RideCanceledEventData{RideRequestID: id, DriverID: "driver-1"})
	if err != nil {
		t.Fatal(err)
	}
	return contracts.WSMessage{Type: contracts.RideEventCanceledByDriver, Data: data}
}

func TestRequestOpensSession(t *testing.T) {
	c := NewCoordinator("rider-1", &fakeAPI{}, &fakeNotifier{})

	req, err := c.Request(context.Background(), source, destination)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if req.Status != ride.StatusPending {
		t.Errorf("status = %s, want PENDING", req.Status)
	}
	if got := c.Session(); got == nil || got.ID != req.ID {
		t.Error("expected the new request as the session")
	}
}

func TestRequestValidatesPlaces(t *testing.T) {
	c := NewCoordinator("rider-1", &fakeAPI{}, &fakeNotifier{})

	if _, err := c.Request(context.Background(), types.Coordinate{}, destination); !errors.Is(err, ErrMissingPlaces) {
		t.Errorf("missing source: err = %v, want ErrMissingPlaces", err)
	}
	if _, err := c.Request(context.Background(), source, types.Coordinate{}); !errors.Is(err, ErrMissingPlaces) {
		t.Errorf("missing destination: err = %v, want ErrMissingPlaces", err)
	}
	if c.Session() != nil {
		t.Error("a rejected request must leave no session")
	}
}

func TestRequestWhileOneIsOpen(t *testing.T) {
	c := NewCoordinator("rider-1", &fakeAPI{}, &fakeNotifier{})

	if _, err := c.Request(context.Background(), source, destination); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Request(context.Background(), source, destination); !errors.Is(err, ErrActiveRide) {
		t.Errorf("second request: err = %v, want ErrActiveRide", err)
	}
}

func TestRequestCreateFailureLeavesIdle(t *testing.T) {
	api := &fakeAPI{createErr: errors.New("connection refused")}
	c := NewCoordinator("rider-1", api, &fakeNotifier{})

	if _, err := c.Request(context.Background(), source, destination); err == nil {
		t.Fatal("expected a creation error")
	}
	if c.Session() != nil {
		t.Error("a failed creation must leave no session")
	}
	if _, err := c.Request(context.Background(), source, destination); errors.Is(err, ErrActiveRide) || errors.Is(err, ErrBusy) {
		t.Errorf("coordinator must be usable after a failure, got %v", err)
	}
}

func TestCancelResetsImmediately(t *testing.T) {
	api := &fakeAPI{}
	c := NewCoordinator("rider-1", api, &fakeNotifier{})

	if _, err := c.Request(context.Background(), source, destination); err != nil {
		t.Fatal(err)
	}
	if err := c.Cancel(context.Background()); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if api.lastUpdateNext != ride.StatusCanceled {
		t.Errorf("sent status %s, want CANCELED", api.lastUpdateNext)
	}
	if api.lastUpdateDriverID != "" {
		t.Error("a rider cancellation must not name a driver")
	}
	if c.Session() != nil {
		t.Error("cancel must reset the session without waiting for any echo")
	}
}

func TestCancelAlreadyTerminalStillResets(t *testing.T) {
	api := &fakeAPI{updateErr: rideapi.ErrConflict}
	c := NewCoordinator("rider-1", api, &fakeNotifier{})

	if _, err := c.Request(context.Background(), source, destination); err != nil {
		t.Fatal(err)
	}
	if err := c.Cancel(context.Background()); err != nil {
		t.Fatalf("Cancel on a terminal request should succeed locally, got %v", err)
	}
	if c.Session() != nil {
		t.Error("the rider is done with the request either way")
	}
}

func TestCancelTransportErrorKeepsSession(t *testing.T) {
	api := &fakeAPI{updateErr: errors.New("connection refused")}
	c := NewCoordinator("rider-1", api, &fakeNotifier{})

	if _, err := c.Request(context.Background(), source, destination); err != nil {
		t.Fatal(err)
	}
	if err := c.Cancel(context.Background()); err == nil {
		t.Fatal("expected a transport error")
	}
	if c.Session() == nil {
		t.Error("the request may still be live; keep showing it")
	}
}

func TestCancelWithoutSession(t *testing.T) {
	c := NewCoordinator("rider-1", &fakeAPI{}, &fakeNotifier{})
	if err := c.Cancel(context.Background()); !errors.Is(err, ErrNoActiveRide) {
		t.Errorf("Cancel error = %v, want ErrNoActiveRide", err)
	}
}

func TestAcceptedUpdatesSession(t *testing.T) {
	notifier := &fakeNotifier{}
	c := NewCoordinator("rider-1", &fakeAPI{}, notifier)

	if _, err := c.Request(context.Background(), source, destination); err != nil {
		t.Fatal(err)
	}
	if err := c.HandleMessage(context.Background(), acceptedMsg(t, "req-1", "driver-1")); err != nil {
		t.Fatal(err)
	}

	session := c.Session()
	if session.Status != ride.StatusAccepted {
		t.Errorf("status = %s, want ACCEPTED", session.Status)
	}
	if session.DriverID != "driver-1" {
		t.Errorf("driverID = %q, want driver-1", session.DriverID)
	}
	if len(notifier.titles) != 1 {
		t.Errorf("got %d notices, want 1", len(notifier.titles))
	}
}

func TestAcceptedForStaleRequestIgnored(t *testing.T) {
	notifier := &fakeNotifier{}
	c := NewCoordinator("rider-1", &fakeAPI{}, notifier)

	if _, err := c.Request(context.Background(), source, destination); err != nil {
		t.Fatal(err)
	}
	if err := c.HandleMessage(context.Background(), acceptedMsg(t, "req-OLD", "driver-1")); err != nil {
		t.Fatal(err)
	}

	session := c.Session()
	if session.Status != ride.StatusPending {
		t.Error("an acceptance for another request must not touch the session")
	}
	if len(notifier.titles) != 0 {
		t.Error("no notice for a stale acceptance")
	}
}

func TestAcceptedAfterCancelIgnored(t *testing.T) {
	c := NewCoordinator("rider-1", &fakeAPI{}, &fakeNotifier{})

	if _, err := c.Request(context.Background(), source, destination); err != nil {
		t.Fatal(err)
	}
	if err := c.Cancel(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.HandleMessage(context.Background(), acceptedMsg(t, "req-1", "driver-1")); err != nil {
		t.Fatal(err)
	}
	if c.Session() != nil {
		t.Error("an acceptance arriving after the cancel must not revive the session")
	}
}

func TestCanceledByDriverResets(t *testing.T) {
	notifier := &fakeNotifier{}
	c := NewCoordinator("rider-1", &fakeAPI{}, notifier)

	if _, err := c.Request(context.Background(), source, destination); err != nil {
		t.Fatal(err)
	}
	if err := c.HandleMessage(context.Background(), acceptedMsg(t, "req-1", "driver-1")); err != nil {
		t.Fatal(err)
	}
	if err := c.HandleMessage(context.Background(), canceledByDriverMsg(t, "req-1")); err != nil {
		t.Fatal(err)
	}
	if c.Session() != nil {
		t.Error("a driver cancellation must reset the session")
	}
	if len(notifier.titles) != 2 {
		t.Errorf("got %d notices, want acceptance plus cancellation", len(notifier.titles))
	}
}

func TestResyncRestoresActiveRide(t *testing.T) {
	active := &ride.Request{ID: "req-9", RiderID: "rider-1", Status: ride.StatusAccepted, DriverID: "driver-1"}
	c := NewCoordinator("rider-1", &fakeAPI{active: active}, &fakeNotifier{})

	if err := c.Resync(context.Background()); err != nil {
		t.Fatalf("Resync: %v", err)
	}
	if got := c.Session(); got == nil || got.ID != "req-9" {
		t.Error("expected the active ride back after resync")
	}
}

func TestResyncNoActiveRideClearsSession(t *testing.T) {
	c := NewCoordinator("rider-1", &fakeAPI{}, &fakeNotifier{})

	if _, err := c.Request(context.Background(), source, destination); err != nil {
		t.Fatal(err)
	}
	if err := c.Resync(context.Background()); err != nil {
		t.Fatalf("Resync: %v", err)
	}
	if c.Session() != nil {
		t.Error("resync with no active ride must clear the stale session")
	}
}
