package main

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"ride-hail/shared/contracts"
	messaging "ride-hail/shared/messaging"
)

// AvailabilityConsumer keeps the registry's idle/occupied flags in step with
// ride outcomes: an accepted driver stops receiving offers until the ride is
// canceled.
type AvailabilityConsumer struct {
	rabbitmq *messaging.RabbitMQ
	service  *Service
}

func NewAvailabilityConsumer(rabbitmq *messaging.RabbitMQ, service *Service) *AvailabilityConsumer {
	return &AvailabilityConsumer{
		rabbitmq: rabbitmq,
		service:  service,
	}
}

func (c *AvailabilityConsumer) Listen() error {
	return c.rabbitmq.ConsumeMessages(messaging.DriverAvailabilityQueue, func(ctx context.Context, msg amqp.Delivery) error {
		var event contracts.AmqpMessage
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			return fmt.Errorf("event unmarshalling failed: %v", err)
		}

		switch msg.RoutingKey {
		case contracts.RideEventAccepted:
			var payload messaging.RideAcceptedEventData
			if err := json.Unmarshal(event.Data, &payload); err != nil {
				return fmt.Errorf("event unmarshalling failed: %v", err)
			}
			c.service.SetAvailability(payload.DriverID, false)
		case contracts.RideEventCanceledByDriver, contracts.RideEventCanceledByRider:
			var payload messaging.RideCanceledEventData
			if err := json.Unmarshal(event.Data, &payload); err != nil {
				return fmt.Errorf("event unmarshalling failed: %v", err)
			}
			if payload.DriverID != "" {
				c.service.SetAvailability(payload.DriverID, true)
			}
		}
		return nil
	})
}
