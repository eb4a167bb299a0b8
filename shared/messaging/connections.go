package messaging

import (
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"ride-hail/shared/contracts"
)

// Role tags a websocket connection so events can be fanned out to one side
// of the marketplace without touching the other.
type Role string

const (
	RoleRider  Role = "rider"
	RoleDriver Role = "driver"
)

type wsClient struct {
	conn *websocket.Conn
	role Role
	mu   sync.Mutex // serializes writes; gorilla allows one concurrent writer
}

func (c *wsClient) send(msg contracts.WSMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(msg)
}

// ConnectionManager tracks live websocket connections by user id. Delivery is
// at-most-once: a user without a connection simply misses the message and is
// expected to resynchronize on reconnect.
type ConnectionManager struct {
	mu       sync.RWMutex
	clients  map[string]*wsClient
	upgrader websocket.Upgrader
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		clients: make(map[string]*wsClient),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (cm *ConnectionManager) Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return cm.upgrader.Upgrade(w, r, nil)
}

func (cm *ConnectionManager) Add(userID string, role Role, conn *websocket.Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.clients[userID] = &wsClient{conn: conn, role: role}
}

func (cm *ConnectionManager) Remove(userID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	delete(cm.clients, userID)
}

// SendMessage delivers a message to exactly one connected user.
func (cm *ConnectionManager) SendMessage(userID string, msg contracts.WSMessage) error {
	cm.mu.RLock()
	client, ok := cm.clients[userID]
	cm.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no active connection for user %s", userID)
	}
	return client.send(msg)
}

// BroadcastRole delivers a message to every connection tagged with role.
// Best effort: a failed write is logged and skipped, not retried.
func (cm *ConnectionManager) BroadcastRole(role Role, msg contracts.WSMessage) {
	cm.mu.RLock()
	targets := make([]*wsClient, 0, len(cm.clients))
	ids := make([]string, 0, len(cm.clients))
	for id, client := range cm.clients {
		if client.role == role {
			targets = append(targets, client)
			ids = append(ids, id)
		}
	}
	cm.mu.RUnlock()

	for i, client := range targets {
		if err := client.send(msg); err != nil {
			log.Printf("broadcast to %s failed: %v", ids[i], err)
		}
	}
}
