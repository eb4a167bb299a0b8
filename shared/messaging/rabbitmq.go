package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"ride-hail/shared/contracts"
)

const (
	RideExchange = "ride"
)

type RabbitMQ struct {
	connection *amqp.Connection
	Channel    *amqp.Channel
}

func NewRabbitMQ(uri string) (*RabbitMQ, error) {
	// Retry to allow the broker to come up and avoid startup races
	var conn *amqp.Connection
	var ch *amqp.Channel
	var err error
	for attempt := 1; attempt <= 30; attempt++ { // ~60s with 2s sleep
		conn, err = amqp.Dial(uri)
		if err == nil {
			ch, err = conn.Channel()
			if err == nil {
				break
			}
			_ = conn.Close()
		}
		log.Printf("RabbitMQ not ready (attempt %d/30): %v", attempt, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq after retries: %v", err)
	}

	rmq := &RabbitMQ{
		connection: conn,
		Channel:    ch,
	}

	// log returned (unroutable) messages when publishing with mandatory=true
	returns := rmq.Channel.NotifyReturn(make(chan amqp.Return, 1))
	go func() {
		for ret := range returns {
			log.Printf("RabbitMQ returned message: replyCode=%d replyText=%s exchange=%s routingKey=%s", ret.ReplyCode, ret.ReplyText, ret.Exchange, ret.RoutingKey)
		}
	}()

	if err := rmq.setupExchangesAndQueues(); err != nil {
		rmq.Close()
		return nil, fmt.Errorf("failed to set up RabbitMQ: %v", err)
	}
	return rmq, nil
}

func (r *RabbitMQ) PublishMessage(ctx context.Context, routingKey string, message contracts.AmqpMessage) error {
	log.Printf("publishing message with routing key %s", routingKey)

	jsonMsg, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %v", err)
	}

	return r.Channel.PublishWithContext(ctx,
		RideExchange, // exchange
		routingKey,   // routing key
		true,         // mandatory - log returned if unroutable
		false,        // immediate (deprecated)
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         jsonMsg,
			DeliveryMode: amqp.Persistent,
		})
}

type MessageHandler func(context.Context, amqp.Delivery) error

// ConsumeMessages runs handler for every delivery on the queue, one message
// in flight at a time. The message is Acked only after the handler returns
// nil; a handler error Nacks without requeue so a poison message cannot loop.
func (r *RabbitMQ) ConsumeMessages(qName string, handler MessageHandler) error {
	err := r.Channel.Qos(1, 0, false)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %v", err)
	}

	msgs, err := r.Channel.Consume(
		qName, // queue
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return err
	}
	go handleDeliveries(msgs, handler)
	return nil
}

// handleDeliveries runs until the delivery channel closes. Each delivery
// gets a fresh, live context; the handler's outcome decides Ack or Nack.
func handleDeliveries(msgs <-chan amqp.Delivery, handler MessageHandler) {
	for msg := range msgs {
		if err := handler(context.Background(), msg); err != nil {
			log.Printf("ERROR: Failed to handle message: %v. Message body: %s", err, msg.Body)
			if nackErr := msg.Nack(false, false); nackErr != nil {
				log.Printf("ERROR: Failed to Nack message: %v", nackErr)
			}
			continue
		}

		if ackErr := msg.Ack(false); ackErr != nil {
			log.Printf("ERROR: Failed to Ack message: %v. Message body: %s", ackErr, msg.Body)
		}
	}
}

func (r *RabbitMQ) setupExchangesAndQueues() error {
	err := r.Channel.ExchangeDeclare(
		RideExchange, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)

	if err != nil {
		return fmt.Errorf("failed to set Exchange declare: %v", err)
	}

	// Queue: find_eligible_drivers -> ride.event.created (consumed by Dispatch Service)
	if err := r.declareAndBindQueue(
		FindEligibleDriversQueue,
		[]string{
			contracts.RideEventCreated,
		},
		RideExchange,
	); err != nil {
		return fmt.Errorf("failed to declare and bind queue: %v", err)
	}

	// Queue: notify_driver_ride_request -> driver.cmd.ride_request (consumed by Gateway/Drivers)
	if err := r.declareAndBindQueue(
		NotifyDriverRideRequestQueue,
		[]string{
			contracts.DriverCmdRideRequest,
		},
		RideExchange,
	); err != nil {
		return fmt.Errorf("failed to declare and bind queue: %v", err)
	}

	// Queue: notify_rider_ride_accepted -> ride.event.accepted (consumed by Gateway/Riders)
	if err := r.declareAndBindQueue(
		NotifyRiderRideAcceptedQueue,
		[]string{
			contracts.RideEventAccepted,
		},
		RideExchange,
	); err != nil {
		return fmt.Errorf("failed to declare and bind queue: %v", err)
	}

	// Queue: notify_rider_ride_canceled -> ride.event.canceled_by_driver (consumed by Gateway/Riders)
	if err := r.declareAndBindQueue(
		NotifyRiderRideCanceledQueue,
		[]string{
			contracts.RideEventCanceledByDriver,
		},
		RideExchange,
	); err != nil {
		return fmt.Errorf("failed to declare and bind queue: %v", err)
	}

	// Queue: notify_drivers_ride_canceled -> ride.event.canceled_by_rider (consumed by Gateway, broadcast to all drivers)
	if err := r.declareAndBindQueue(
		NotifyDriversRideCanceledQueue,
		[]string{
			contracts.RideEventCanceledByRider,
		},
		RideExchange,
	); err != nil {
		return fmt.Errorf("failed to declare and bind queue: %v", err)
	}

	// Queue: driver_availability -> accept/cancel outcomes (consumed by Dispatch Service)
	if err := r.declareAndBindQueue(
		DriverAvailabilityQueue,
		[]string{
			contracts.RideEventAccepted,
			contracts.RideEventCanceledByDriver,
			contracts.RideEventCanceledByRider,
		},
		RideExchange,
	); err != nil {
		return fmt.Errorf("failed to declare and bind queue: %v", err)
	}

	return nil
}

func (r *RabbitMQ) declareAndBindQueue(queueName string, messageTypes []string, exchange string) error {
	q, err := r.Channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %v", err)
	}

	for _, routingKey := range messageTypes {
		if err = r.Channel.QueueBind(
			q.Name,     // queue
			routingKey, // routing key
			exchange,   // exchange
			false,      // no-wait
			nil,        // arguments
		); err != nil {
			return fmt.Errorf("failed to bind queue: %v", err)
		}
	}

	return nil
}

func (r *RabbitMQ) Close() {
	if r.connection != nil {
		r.connection.Close()
	}
	if r.Channel != nil {
		r.Channel.Close()
	}
}
