package messaging

import (
	"encoding/json"
	"log"

	"ride-hail/shared/contracts"
)

// QueueConsumer bridges one broker queue onto live websocket connections.
// Messages with an OwnerID go to exactly that user; messages without one are
// broadcast to every connection holding broadcastRole.
type QueueConsumer struct {
	rb            *RabbitMQ
	connMgr       *ConnectionManager
	queueName     string
	broadcastRole Role
}

func NewQueueConsumer(rb *RabbitMQ, connMgr *ConnectionManager, queueName string) *QueueConsumer {
	return &QueueConsumer{
		rb:        rb,
		connMgr:   connMgr,
		queueName: queueName,
	}
}

// NewBroadcastQueueConsumer returns a consumer that fans queue messages out
// to every connection with the given role instead of addressing one user.
func NewBroadcastQueueConsumer(rb *RabbitMQ, connMgr *ConnectionManager, queueName string, role Role) *QueueConsumer {
	return &QueueConsumer{
		rb:            rb,
		connMgr:       connMgr,
		queueName:     queueName,
		broadcastRole: role,
	}
}

func (qc *QueueConsumer) Start() error {
	msgs, err := qc.rb.Channel.Consume(
		qc.queueName,
		"",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			var msgBody contracts.AmqpMessage
			if err := json.Unmarshal(msg.Body, &msgBody); err != nil {
				log.Println("Failed to unmarshal message:", err)
				continue
			}

			clientMsg := contracts.WSMessage{
				Type: msg.RoutingKey,
				Data: msgBody.Data,
			}

			if qc.broadcastRole != "" {
				qc.connMgr.BroadcastRole(qc.broadcastRole, clientMsg)
				continue
			}

			if err := qc.connMgr.SendMessage(msgBody.OwnerID, clientMsg); err != nil {
				log.Printf("QueueConsumer: failed to send type=%s to user=%s via queue=%s: %v", msg.RoutingKey, msgBody.OwnerID, qc.queueName, err)
			}
		}
	}()

	return nil
}
