package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"ride-hail/shared/contracts"
	"ride-hail/shared/types"
)

// Run keeps a websocket session with the gateway alive, feeding pushed
// events into the coordinator. Every (re)connect starts with a Resync;
// events missed while disconnected are never replayed.
func (c *Coordinator) Run(ctx context.Context, gatewayURL string, location types.Coordinate) error {
	for {
		if err := c.runOnce(ctx, gatewayURL, location); err != nil {
			log.Printf("driver ws session ended: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func (c *Coordinator) runOnce(ctx context.Context, gatewayURL string, location types.Coordinate) error {
	wsURL := fmt.Sprintf("%s/ws/drivers?userID=%s&latitude=%f&longitude=%f",
		gatewayURL, url.QueryEscape(c.driverID), location.Latitude, location.Longitude)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to dial gateway: %v", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := c.Resync(ctx); err != nil {
		log.Printf("resync failed: %v", err)
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg contracts.WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("bad websocket frame: %v", err)
			continue
		}
		if err := c.HandleMessage(ctx, msg); err != nil {
			log.Printf("failed to handle %s: %v", msg.Type, err)
		}
	}
}
