package messaging

const (
	FindEligibleDriversQueue       = "find_eligible_drivers"
	NotifyDriverRideRequestQueue   = "notify_driver_ride_request"
	NotifyRiderRideAcceptedQueue   = "notify_rider_ride_accepted"
	NotifyRiderRideCanceledQueue   = "notify_rider_ride_canceled"
	NotifyDriversRideCanceledQueue = "notify_drivers_ride_canceled"
	DriverAvailabilityQueue        = "driver_availability"
)

// RideRequestEventData is the payload of ride.event.created and
// driver.cmd.ride_request. Only the id travels on the wire; recipients fetch
// the full record from the ride service before acting on it.
type RideRequestEventData struct {
	RideRequestID string `json:"rideRequestId"`
	RiderID       string `json:"riderId,omitempty"`
}

// RideAcceptedEventData is the payload of ride.event.accepted.
type RideAcceptedEventData struct {
	RideRequestID string `json:"rideRequestId"`
	DriverID      string `json:"driverId"`
}

// RideCanceledEventData is the payload of both cancel events. RideRequestID
// names the request the cancellation concerns: the rider-side cancel reaches
// every driver, and a driver holding a different request must be able to
// tell the broadcast is not about theirs. DriverID is set only when a driver
// had been assigned before the cancellation.
type RideCanceledEventData struct {
	RideRequestID string `json:"rideRequestId"`
	DriverID      string `json:"driverId,omitempty"`
}
