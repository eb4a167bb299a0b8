package main

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"ride-hail/shared/contracts"
	"ride-hail/shared/messaging"
	"ride-hail/shared/types"
)

// Rider WebSocket handler
func handleRidersWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := connManager.Upgrade(w, r)
	if err != nil {
		log.Printf("Failed to set websocket upgrade: %+v", err)
		return
	}
	defer conn.Close()

	userID := r.URL.Query().Get("userID")
	if userID == "" {
		log.Println("WebSocket error: missing userID query parameter")
		return
	}

	connManager.Add(userID, messaging.RoleRider, conn)
	defer connManager.Remove(userID)

	log.Printf("Rider connected: %s", userID)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Printf("WebSocket read error: %v", err)
			break
		}
		log.Printf("Rider message from %s: %s", userID, message)
	}
}

// Driver WebSocket handler
func handleDriversWebSocket(w http.ResponseWriter, r *http.Request, dispatch *dispatchClient) {
	conn, err := connManager.Upgrade(w, r)
	if err != nil {
		log.Printf("Failed to set websocket upgrade: %+v", err)
		return
	}
	defer conn.Close()

	userID := r.URL.Query().Get("userID")
	if userID == "" {
		log.Println("WebSocket error: missing userID")
		return
	}

	latitude, err := strconv.ParseFloat(r.URL.Query().Get("latitude"), 64)
	if err != nil {
		log.Println("WebSocket error: missing or invalid latitude")
		return
	}
	longitude, err := strconv.ParseFloat(r.URL.Query().Get("longitude"), 64)
	if err != nil {
		log.Println("WebSocket error: missing or invalid longitude")
		return
	}

	connManager.Add(userID, messaging.RoleDriver, conn)

	ctx := r.Context()

	// ensure driver unregisters on exit
	defer func() {
		connManager.Remove(userID)

		// the request context is gone once the socket closes
		unregCtx := context.Background()
		if err := dispatch.UnregisterDriver(unregCtx, userID); err != nil {
			log.Printf("UnregisterDriver error for %s: %v", userID, err)
		} else {
			log.Printf("Driver unregistered: %s", userID)
		}
	}()

	driverData, err := dispatch.RegisterDriver(ctx, userID, types.Coordinate{
		Latitude:  latitude,
		Longitude: longitude,
	})
	if err != nil {
		log.Printf("RegisterDriver error: %v", err)
		return
	}

	if err := connManager.SendMessage(userID, contracts.WSMessage{
		Type: contracts.DriverCmdRegister,
		Data: driverData,
	}); err != nil {
		log.Printf("WebSocket write error: %v", err)
		return
	}

	log.Printf("Driver connected: %s", userID)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Printf("WebSocket read error: %v", err)
			break
		}
		log.Printf("Driver message from %s: %s", userID, message)
	}
}
