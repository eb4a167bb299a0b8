package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ride-hail/shared/types"
)

// Route is a drivable path between two points, enough to draw a preview on
// a map next to an incoming ride request.
type Route struct {
	Distance float64            `json:"distance"`
	Duration float64            `json:"duration"`
	Points   []types.Coordinate `json:"points"`
}

type Planner interface {
	PreviewRoute(ctx context.Context, from, to types.Coordinate) (*Route, error)
}

// OSRMPlanner fetches routes from a public OSRM instance.
type OSRMPlanner struct {
	baseURL string
	http    *http.Client
}

func NewOSRMPlanner(baseURL string) *OSRMPlanner {
	if baseURL == "" {
		baseURL = "http://router.project-osrm.org"
	}
	return &OSRMPlanner{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type osrmApiResponse struct {
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

func (p *OSRMPlanner) PreviewRoute(ctx context.Context, from, to types.Coordinate) (*Route, error) {
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=geojson",
		p.baseURL, from.Longitude, from.Latitude, to.Longitude, to.Latitude)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch route from OSRM API: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read route response: %v", err)
	}

	var routeResp osrmApiResponse
	if err := json.Unmarshal(body, &routeResp); err != nil {
		return nil, fmt.Errorf("failed to parse route response: %v", err)
	}
	if len(routeResp.Routes) == 0 {
		return nil, fmt.Errorf("no route found")
	}

	r := routeResp.Routes[0]
	points := make([]types.Coordinate, len(r.Geometry.Coordinates))
	for i, coord := range r.Geometry.Coordinates {
		// OSRM coordinates are [lon, lat]
		points[i] = types.Coordinate{Latitude: coord[1], Longitude: coord[0]}
	}

	return &Route{
		Distance: r.Distance,
		Duration: r.Duration,
		Points:   points,
	}, nil
}
