package messaging

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

type fakeAcknowledger struct {
	acks  int
	nacks int

	lastRequeue bool
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.acks++
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.nacks++
	a.lastRequeue = requeue
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return errors.New("unexpected Reject")
}

func deliveryChan(ack amqp.Acknowledger, bodies ...string) <-chan amqp.Delivery {
	ch := make(chan amqp.Delivery, len(bodies))
	for i, body := range bodies {
		ch <- amqp.Delivery{
			Acknowledger: ack,
			DeliveryTag:  uint64(i + 1),
			Body:         []byte(body),
		}
	}
	close(ch)
	return ch
}

func TestHandleDeliveriesContextIsLive(t *testing.T) {
	ack := &fakeAcknowledger{}

	var handlerCtxErr error
	handleDeliveries(deliveryChan(ack, `{}`), func(ctx context.Context, msg amqp.Delivery) error {
		handlerCtxErr = ctx.Err()
		return nil
	})

	if handlerCtxErr != nil {
		t.Fatalf("handler received a dead context: %v", handlerCtxErr)
	}
	if ack.acks != 1 {
		t.Errorf("got %d acks, want 1", ack.acks)
	}
}

func TestHandleDeliveriesAcksEachSuccess(t *testing.T) {
	ack := &fakeAcknowledger{}

	handled := 0
	handleDeliveries(deliveryChan(ack, `{}`, `{}`, `{}`), func(ctx context.Context, msg amqp.Delivery) error {
		handled++
		return nil
	})

	if handled != 3 {
		t.Errorf("handled %d deliveries, want 3", handled)
	}
	if ack.acks != 3 || ack.nacks != 0 {
		t.Errorf("got %d acks and %d nacks, want 3 and 0", ack.acks, ack.nacks)
	}
}

func TestHandleDeliveriesNacksWithoutRequeue(t *testing.T) {
	ack := &fakeAcknowledger{}

	handleDeliveries(deliveryChan(ack, `{}`), func(ctx context.Context, msg amqp.Delivery) error {
		return errors.New("poison message")
	})

	if ack.nacks != 1 || ack.acks != 0 {
		t.Errorf("got %d nacks and %d acks, want 1 and 0", ack.nacks, ack.acks)
	}
	if ack.lastRequeue {
		t.Error("a failed delivery must not be requeued")
	}
}
