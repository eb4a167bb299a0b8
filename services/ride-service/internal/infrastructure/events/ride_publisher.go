package events

import (
	"context"
	"encoding/json"

	"ride-hail/shared/contracts"
	"ride-hail/shared/messaging"
	"ride-hail/shared/ride"
)

type RideEventPublisher struct {
	rabbitmq *messaging.RabbitMQ
}

func NewRideEventPublisher(rabbitmq *messaging.RabbitMQ) *RideEventPublisher {
	return &RideEventPublisher{rabbitmq}
}

func (p *RideEventPublisher) PublishRideRequestCreated(ctx context.Context, req *ride.Request) error {
	data, err := json.Marshal(messaging.RideRequestEventData{
		RideRequestID: req.ID,
		RiderID:       req.RiderID,
	})
	if err != nil {
		return err
	}
	return p.rabbitmq.PublishMessage(ctx, contracts.RideEventCreated, contracts.AmqpMessage{
		OwnerID: req.RiderID,
		Data:    data,
	})
}

func (p *RideEventPublisher) PublishRideAccepted(ctx context.Context, req *ride.Request) error {
	data, err := json.Marshal(messaging.RideAcceptedEventData{
		RideRequestID: req.ID,
		DriverID:      req.DriverID,
	})
	if err != nil {
		return err
	}
	// directed at the rider who opened the request
	return p.rabbitmq.PublishMessage(ctx, contracts.RideEventAccepted, contracts.AmqpMessage{
		OwnerID: req.RiderID,
		Data:    data,
	})
}

func (p *RideEventPublisher) PublishRideCanceled(ctx context.Context, req *ride.Request, byDriver bool) error {
	data, err := json.Marshal(messaging.RideCanceledEventData{
		RideRequestID: req.ID,
		DriverID:      req.DriverID,
	})
	if err != nil {
		return err
	}

	if byDriver {
		// directed at the rider; the driver already reset locally
		return p.rabbitmq.PublishMessage(ctx, contracts.RideEventCanceledByDriver, contracts.AmqpMessage{
			OwnerID: req.RiderID,
			Data:    data,
		})
	}

	// no OwnerID: the gateway fans this out to every connected driver
	return p.rabbitmq.PublishMessage(ctx, contracts.RideEventCanceledByRider, contracts.AmqpMessage{
		Data: data,
	})
}
