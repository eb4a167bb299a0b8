package rider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"ride-hail/clients/rideapi"
	"ride-hail/shared/contracts"
	"ride-hail/shared/messaging"
	"ride-hail/shared/ride"
	"ride-hail/shared/types"
)

var (
	ErrBusy          = errors.New("another action is still in progress")
	ErrNoActiveRide  = errors.New("no ride request is currently open")
	ErrActiveRide    = errors.New("a ride request is already open")
	ErrMissingPlaces = errors.New("source and destination are required")
)

// DataAccess is the slice of the ride service API the coordinator needs.
// *rideapi.Client satisfies it.
type DataAccess interface {
	CreateRideRequest(ctx context.Context, riderID string, source, destination types.Coordinate) (*ride.Request, error)
	UpdateStatus(ctx context.Context, id string, expected *ride.Status, next ride.Status, driverID string) (*ride.Request, error)
	ActiveRideRequest(ctx context.Context, userID string) (*ride.Request, error)
}

type Notifier interface {
	Notify(title, detail string)
}

type LogNotifier struct{}

func (LogNotifier) Notify(title, detail string) {
	log.Printf("notice: %s - %s", title, detail)
}

// Coordinator owns a rider's local view of their one open ride request.
// Same discipline as the driver side: one mutex serializes handlers and
// actions, the busy flag blocks reentrant submissions, and the session is
// replaced wholesale.
type Coordinator struct {
	riderID  string
	api      DataAccess
	notifier Notifier

	mu      sync.Mutex
	session *ride.Request
	busy    bool
}

func NewCoordinator(riderID string, api DataAccess, notifier Notifier) *Coordinator {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Coordinator{
		riderID:  riderID,
		api:      api,
		notifier: notifier,
	}
}

// Session returns the current request snapshot, nil when idle.
func (c *Coordinator) Session() *ride.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Coordinator) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Request opens a new ride request. Input is checked before anything is
// sent, so a malformed request never creates partial state.
func (c *Coordinator) Request(ctx context.Context, source, destination types.Coordinate) (*ride.Request, error) {
	if source.IsZero() || destination.IsZero() {
		return nil, ErrMissingPlaces
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	if c.session != nil {
		c.mu.Unlock()
		return nil, ErrActiveRide
	}
	c.busy = true
	c.mu.Unlock()

	req, err := c.api.CreateRideRequest(ctx, c.riderID, source, destination)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if err != nil {
		return nil, err
	}
	c.session = req
	return req, nil
}

// Cancel withdraws the open request. The local session resets as soon as
// the cancellation is persisted; the driver side learns about it from the
// broadcast, not from us.
func (c *Coordinator) Cancel(ctx context.Context) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.session == nil {
		c.mu.Unlock()
		return ErrNoActiveRide
	}
	requestID := c.session.ID
	c.busy = true
	c.mu.Unlock()

	_, err := c.api.UpdateStatus(ctx, requestID, nil, ride.StatusCanceled, "")

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false

	if err != nil && !errors.Is(err, rideapi.ErrNotFound) && !errors.Is(err, rideapi.ErrConflict) {
		// transport trouble: the request may still be live, keep showing it
		return err
	}
	if c.session != nil && c.session.ID == requestID {
		c.session = nil
	}
	return nil
}

// HandleMessage dispatches one pushed event.
func (c *Coordinator) HandleMessage(ctx context.Context, msg contracts.WSMessage) error {
	switch msg.Type {
	case contracts.RideEventAccepted:
		var data messaging.RideAcceptedEventData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return fmt.Errorf("bad acceptance payload: %v", err)
		}
		c.handleAccepted(data)
		return nil
	case contracts.RideEventCanceledByDriver:
		var data messaging.RideCanceledEventData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return fmt.Errorf("bad cancellation payload: %v", err)
		}
		c.handleCanceledByDriver(data)
		return nil
	default:
		return nil
	}
}

func (c *Coordinator) handleAccepted(data messaging.RideAcceptedEventData) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || c.session.ID != data.RideRequestID {
		// stale or duplicate; the session moved on
		return
	}

	updated := *c.session
	updated.Status = ride.StatusAccepted
	updated.DriverID = data.DriverID
	c.session = &updated

	c.notifier.Notify("Ride accepted", fmt.Sprintf("Driver %s is on the way", data.DriverID))
}

func (c *Coordinator) handleCanceledByDriver(data messaging.RideCanceledEventData) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || c.session.ID != data.RideRequestID {
		return
	}
	c.session = nil
	c.notifier.Notify("Ride canceled", "The ride was canceled by the driver")
}

// Resync rebuilds the session from the ride service after a reconnect.
func (c *Coordinator) Resync(ctx context.Context) error {
	active, err := c.api.ActiveRideRequest(ctx, c.riderID)
	if err != nil {
		if errors.Is(err, rideapi.ErrNotFound) {
			c.mu.Lock()
			c.session = nil
			c.mu.Unlock()
			return nil
		}
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = active
	return nil
}
