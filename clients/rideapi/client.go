package rideapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"ride-hail/shared/env"
	"ride-hail/shared/ride"
	"ride-hail/shared/types"
)

// Sentinels mirror the ride service's error taxonomy across the HTTP
// boundary so callers can branch on the outcome of a mutation.
var (
	ErrNotFound = errors.New("ride request not found")
	ErrConflict = errors.New("ride request status conflict")
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = env.GetString("RIDE_SERVICE_URL", "http://ride-service:8083")
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type createRideRequest struct {
	RiderID     string           `json:"riderId"`
	Source      types.Coordinate `json:"source"`
	Destination types.Coordinate `json:"destination"`
}

type updateStatusRequest struct {
	ExpectedStatus *ride.Status `json:"expectedStatus,omitempty"`
	Status         ride.Status  `json:"status"`
	DriverID       string       `json:"driverId,omitempty"`
}

func (c *Client) CreateRideRequest(ctx context.Context, riderID string, source, destination types.Coordinate) (*ride.Request, error) {
	var out struct {
		Data *ride.Request `json:"data"`
	}
	err := c.do(ctx, http.MethodPost, "/rides", createRideRequest{
		RiderID:     riderID,
		Source:      source,
		Destination: destination,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) GetRideRequest(ctx context.Context, id string) (*ride.RequestDetail, error) {
	var out struct {
		Data *ride.RequestDetail `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/rides/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// UpdateStatus performs the conditional transition. ErrConflict means the
// expected-status precondition no longer held when the service applied it.
func (c *Client) UpdateStatus(ctx context.Context, id string, expected *ride.Status, next ride.Status, driverID string) (*ride.Request, error) {
	var out struct {
		Data *ride.Request `json:"data"`
	}
	err := c.do(ctx, http.MethodPatch, "/rides/"+url.PathEscape(id)+"/status", updateStatusRequest{
		ExpectedStatus: expected,
		Status:         next,
		DriverID:       driverID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

// ActiveRideRequest is the resynchronization read: the PENDING or ACCEPTED
// request the user is currently part of, or ErrNotFound when idle.
func (c *Client) ActiveRideRequest(ctx context.Context, userID string) (*ride.Request, error) {
	var out struct {
		Data *ride.Request `json:"data"`
	}
	path := "/rides/active?userID=" + url.QueryEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ride service request failed: %v", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return json.NewDecoder(resp.Body).Decode(out)
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return ErrConflict
	default:
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ride service returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
}
