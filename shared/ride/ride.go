package ride

import (
	"time"

	"ride-hail/shared/types"
)

// Status is the lifecycle state of a ride request. The same machine is
// enforced by the ride service on every mutation and mirrored by the
// coordinators when they interpret pushed events.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusCanceled Status = "CANCELED"
)

// validTransitions is the whole lifecycle: a request only moves forward,
// CANCELED is terminal, and nothing ever returns to PENDING.
var validTransitions = map[Status][]Status{
	StatusPending:  {StatusAccepted, StatusCanceled},
	StatusAccepted: {StatusCanceled},
	StatusCanceled: {},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return len(validTransitions[s]) == 0
}

type Request struct {
	ID          string           `json:"id" bson:"_id,omitempty"`
	RiderID     string           `json:"riderId" bson:"riderId"`
	DriverID    string           `json:"driverId,omitempty" bson:"driverId,omitempty"`
	Status      Status           `json:"status" bson:"status"`
	Source      types.Coordinate `json:"source" bson:"source"`
	Destination types.Coordinate `json:"destination" bson:"destination"`
	CreatedAt   time.Time        `json:"createdAt" bson:"createdAt"`
}

// Active reports whether the request still occupies its rider and, once
// accepted, its driver.
func (r *Request) Active() bool {
	return r.Status == StatusPending || r.Status == StatusAccepted
}

// RiderProfile is the display data handed to a driver together with a ride
// request. Identity and auth live elsewhere; this is presentation only.
type RiderProfile struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// RequestDetail is what GET /rides/{id} returns.
type RequestDetail struct {
	RideRequest *Request      `json:"rideRequest"`
	Rider       *RiderProfile `json:"rider"`
}
