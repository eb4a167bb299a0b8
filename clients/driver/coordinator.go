package driver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"ride-hail/clients/rideapi"
	"ride-hail/clients/routing"
	"ride-hail/shared/contracts"
	"ride-hail/shared/messaging"
	"ride-hail/shared/ride"
)

var (
	// ErrBusy is returned while a previous mutation is still in flight.
	ErrBusy = errors.New("another action is still in progress")

	ErrNoActiveRequest = errors.New("no ride request is currently held")
)

// DataAccess is the slice of the ride service API the coordinator needs.
// *rideapi.Client satisfies it.
type DataAccess interface {
	GetRideRequest(ctx context.Context, id string) (*ride.RequestDetail, error)
	UpdateStatus(ctx context.Context, id string, expected *ride.Status, next ride.Status, driverID string) (*ride.Request, error)
	ActiveRideRequest(ctx context.Context, userID string) (*ride.Request, error)
}

// Notifier surfaces user-facing notices. The UI layer provides a real one;
// LogNotifier is the default.
type Notifier interface {
	Notify(title, detail string)
}

type LogNotifier struct{}

func (LogNotifier) Notify(title, detail string) {
	log.Printf("notice: %s - %s", title, detail)
}

// Session is the driver's local view of the one request it may hold.
// It is replaced wholesale, never mutated in place.
type Session struct {
	Request *ride.Request
	Rider   *ride.RiderProfile
	Route   *routing.Route
}

// Coordinator owns a driver's local ride-request state. Every event handler
// and action runs through one mutex, and the busy flag keeps a second
// mutation from starting while one is awaiting the ride service. The local
// session filter is a convenience for the driver's screen; the conditional
// update at the ride service is what actually decides races.
type Coordinator struct {
	driverID string
	api      DataAccess
	planner  routing.Planner
	notifier Notifier

	mu      sync.Mutex
	session *Session
	busy    bool
}

func NewCoordinator(driverID string, api DataAccess, planner routing.Planner, notifier Notifier) *Coordinator {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Coordinator{
		driverID: driverID,
		api:      api,
		planner:  planner,
		notifier: notifier,
	}
}

// Session returns the current snapshot, nil when idle.
func (c *Coordinator) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Coordinator) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// HandleMessage dispatches one pushed event. Unknown types are ignored so
// protocol additions do not break older clients.
func (c *Coordinator) HandleMessage(ctx context.Context, msg contracts.WSMessage) error {
	switch msg.Type {
	case contracts.DriverCmdRideRequest:
		var data messaging.RideRequestEventData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return fmt.Errorf("bad ride request payload: %v", err)
		}
		return c.handleRideRequest(ctx, data.RideRequestID)
	case contracts.RideEventCanceledByRider:
		var data messaging.RideCanceledEventData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return fmt.Errorf("bad cancellation payload: %v", err)
		}
		c.handleCanceledByRider(data.RideRequestID)
		return nil
	default:
		return nil
	}
}

// handleRideRequest fetches and surfaces a new offer, unless one is already
// held. Duplicate notifications during a race are dropped here, which makes
// redelivery harmless.
func (c *Coordinator) handleRideRequest(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.session != nil || c.busy {
		c.mu.Unlock()
		return nil
	}
	c.busy = true
	c.mu.Unlock()

	detail, err := c.api.GetRideRequest(ctx, id)

	var route *routing.Route
	if err == nil && c.planner != nil {
		route, _ = c.planner.PreviewRoute(ctx, detail.RideRequest.Source, detail.RideRequest.Destination)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false

	if err != nil {
		if errors.Is(err, rideapi.ErrNotFound) {
			// already canceled or taken, nothing to show
			return nil
		}
		return err
	}
	if !detail.RideRequest.Active() {
		return nil
	}

	c.session = &Session{
		Request: detail.RideRequest,
		Rider:   detail.Rider,
		Route:   route,
	}
	c.notifier.Notify("New ride request", "There's a new ride request")
	return nil
}

// handleCanceledByRider reconciles a rider-side cancellation. An empty
// session still gets an informative notice; a session holding a different,
// newer request is left untouched.
func (c *Coordinator) handleCanceledByRider(requestID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		c.notifier.Notify("Ride request canceled", "The ride was canceled by rider")
		return
	}
	if c.session.Request.ID != requestID {
		return
	}
	c.session = nil
	c.notifier.Notify("Ride request canceled", "The ride was canceled by rider")
}

// Accept attempts the PENDING -> ACCEPTED transition for the held request.
// Losing the race resets the session to idle instead of showing a false
// acceptance.
func (c *Coordinator) Accept(ctx context.Context) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.session == nil {
		c.mu.Unlock()
		return ErrNoActiveRequest
	}
	requestID := c.session.Request.ID
	c.busy = true
	c.mu.Unlock()

	expected := ride.StatusPending
	updated, err := c.api.UpdateStatus(ctx, requestID, &expected, ride.StatusAccepted, c.driverID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false

	if err != nil {
		if errors.Is(err, rideapi.ErrConflict) || errors.Is(err, rideapi.ErrNotFound) {
			if c.session != nil && c.session.Request.ID == requestID {
				c.session = nil
			}
			c.notifier.Notify("Ride no longer available", "Another driver took it or the rider canceled")
			return err
		}
		// transport trouble: keep showing what was confirmed before
		return err
	}

	if c.session != nil && c.session.Request.ID == requestID {
		c.session = &Session{
			Request: updated,
			Rider:   c.session.Rider,
			Route:   c.session.Route,
		}
	}
	return nil
}

// CancelAccepted cancels the ride the driver previously accepted and resets
// the session.
func (c *Coordinator) CancelAccepted(ctx context.Context) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.session == nil {
		c.mu.Unlock()
		return ErrNoActiveRequest
	}
	requestID := c.session.Request.ID
	c.busy = true
	c.mu.Unlock()

	_, err := c.api.UpdateStatus(ctx, requestID, nil, ride.StatusCanceled, c.driverID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false

	if err != nil && !errors.Is(err, rideapi.ErrNotFound) && !errors.Is(err, rideapi.ErrConflict) {
		return err
	}
	// success, or the request was already terminal elsewhere: either way
	// the driver is done with it
	if c.session != nil && c.session.Request.ID == requestID {
		c.session = nil
	}
	return nil
}

// Ignore drops the held request locally. The record stays PENDING for
// other drivers; nothing is persisted or announced.
func (c *Coordinator) Ignore() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	c.session = nil
	return nil
}

// Resync rebuilds the session from the ride service after a reconnect.
// Pushed events missed while offline are gone for good, so this read is the
// only recovery path.
func (c *Coordinator) Resync(ctx context.Context) error {
	active, err := c.api.ActiveRideRequest(ctx, c.driverID)
	if err != nil {
		if errors.Is(err, rideapi.ErrNotFound) {
			c.mu.Lock()
			c.session = nil
			c.mu.Unlock()
			return nil
		}
		return err
	}

	detail, err := c.api.GetRideRequest(ctx, active.ID)
	if err != nil {
		return err
	}

	var route *routing.Route
	if c.planner != nil {
		route, _ = c.planner.PreviewRoute(ctx, detail.RideRequest.Source, detail.RideRequest.Destination)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = &Session{
		Request: detail.RideRequest,
		Rider:   detail.Rider,
		Route:   route,
	}
	return nil
}
