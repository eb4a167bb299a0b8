package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"ride-hail/clients/rideapi"
	"ride-hail/shared/contracts"
	messaging "ride-hail/shared/messaging"
	"ride-hail/shared/ride"
)

// rideFetcher is the slice of the ride service API the consumer needs.
// *rideapi.Client satisfies it.
type rideFetcher interface {
	GetRideRequest(ctx context.Context, id string) (*ride.RequestDetail, error)
}

// offerPublisher puts messages on the ride exchange. *messaging.RabbitMQ
// satisfies it.
type offerPublisher interface {
	PublishMessage(ctx context.Context, routingKey string, message contracts.AmqpMessage) error
}

// RideConsumer turns each newly created ride request into directed offers
// for the drivers the eligibility policy picks out.
type RideConsumer struct {
	rabbitmq  *messaging.RabbitMQ
	service   *Service
	rides     rideFetcher
	publisher offerPublisher
}

func NewRideConsumer(rabbitmq *messaging.RabbitMQ, service *Service, rides *rideapi.Client) *RideConsumer {
	return &RideConsumer{
		rabbitmq:  rabbitmq,
		service:   service,
		rides:     rides,
		publisher: rabbitmq,
	}
}

func (c *RideConsumer) Listen() error {
	return c.rabbitmq.ConsumeMessages(messaging.FindEligibleDriversQueue, func(ctx context.Context, msg amqp.Delivery) error {
		var event contracts.AmqpMessage
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			return fmt.Errorf("event unmarshalling failed: %v", err)
		}

		var payload messaging.RideRequestEventData
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return fmt.Errorf("event unmarshalling failed: %v", err)
		}

		switch msg.RoutingKey {
		case contracts.RideEventCreated:
			return c.handleFindAndNotifyDrivers(ctx, payload)
		}

		log.Printf("unknown ride event: %s", msg.RoutingKey)
		return nil
	})
}

func (c *RideConsumer) handleFindAndNotifyDrivers(ctx context.Context, payload messaging.RideRequestEventData) error {
	// the event carries only the id; pull the pickup point from the source
	// of truth before matching
	detail, err := c.rides.GetRideRequest(ctx, payload.RideRequestID)
	if err != nil {
		return fmt.Errorf("failed to fetch ride request %s: %v", payload.RideRequestID, err)
	}

	eligibleIDs := c.service.FindEligibleDrivers(detail.RideRequest.Source)
	log.Printf("ride request %s: %d eligible drivers", payload.RideRequestID, len(eligibleIDs))
	if len(eligibleIDs) == 0 {
		// the request stays PENDING; a driver registering later can still
		// pick it up through a new request cycle
		return nil
	}

	data, err := json.Marshal(messaging.RideRequestEventData{
		RideRequestID: detail.RideRequest.ID,
		RiderID:       detail.RideRequest.RiderID,
	})
	if err != nil {
		return err
	}

	for _, driverID := range eligibleIDs {
		if err := c.publisher.PublishMessage(ctx, contracts.DriverCmdRideRequest, contracts.AmqpMessage{
			OwnerID: driverID,
			Data:    data,
		}); err != nil {
			log.Printf("failed to notify driver %s: %v", driverID, err)
		}
	}
	return nil
}
