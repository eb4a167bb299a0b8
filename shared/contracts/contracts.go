package contracts

import "encoding/json"

// Routing keys on the ride topic exchange. The gateway forwards each one to
// websocket clients with the routing key as the message type, so these double
// as the wire-level event names.
const (
	// RideEventCreated announces a freshly persisted ride request. Consumed
	// by the dispatch service, never delivered to clients directly.
	RideEventCreated = "ride.event.created"

	// DriverCmdRideRequest offers a ride request to one driver. OwnerID is
	// the driver the offer is addressed to.
	DriverCmdRideRequest = "driver.cmd.ride_request"

	// RideEventAccepted tells the requesting rider a driver took the ride.
	RideEventAccepted = "ride.event.accepted"

	// RideEventCanceledByDriver tells the requesting rider the assigned
	// driver backed out.
	RideEventCanceledByDriver = "ride.event.canceled_by_driver"

	// RideEventCanceledByRider tells drivers the rider withdrew the request.
	// Delivered to every connected driver; each driver decides locally
	// whether it concerns them.
	RideEventCanceledByRider = "ride.event.canceled_by_rider"

	// DriverCmdRegister confirms a driver's registration right after their
	// websocket comes up.
	DriverCmdRegister = "driver.cmd.register"
)

// AmqpMessage is the envelope for every message on the exchange. OwnerID is
// the identity the message is addressed to; empty means role-wide delivery.
type AmqpMessage struct {
	OwnerID string          `json:"ownerId,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// WSMessage is a frame on a client websocket, both directions. Type carries
// the routing key for server-pushed events and a command name for
// client-sent messages.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// APIResponse wraps HTTP payloads so clients always unwrap one level.
type APIResponse struct {
	Data any `json:"data"`
}
