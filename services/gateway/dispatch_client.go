package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ride-hail/shared/env"
	"ride-hail/shared/types"
)

// dispatchClient talks to the dispatch service's driver registry over HTTP.
type dispatchClient struct {
	baseURL string
	http    *http.Client
}

func newDispatchClient() *dispatchClient {
	return &dispatchClient{
		baseURL: env.GetString("DISPATCH_SERVICE_URL", "http://dispatch-service:8084"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *dispatchClient) RegisterDriver(ctx context.Context, driverID string, location types.Coordinate) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]any{
		"driverId": driverID,
		"location": location,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/drivers/register", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dispatch service returned status %d", resp.StatusCode)
	}

	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wrapper); err != nil {
		return nil, err
	}
	return wrapper.Data, nil
}

func (c *dispatchClient) UnregisterDriver(ctx context.Context, driverID string) error {
	body, err := json.Marshal(map[string]string{"driverId": driverID})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/drivers/unregister", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dispatch service returned status %d", resp.StatusCode)
	}
	return nil
}
