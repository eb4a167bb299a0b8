package main

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/mmcloughlin/geohash"

	"ride-hail/shared/types"
)

type Driver struct {
	ID        string           `json:"id"`
	CarPlate  string           `json:"carPlate"`
	Location  types.Coordinate `json:"location"`
	Geohash   string           `json:"geohash"`
	Available bool             `json:"available"`
}

// EligibilityPolicy decides which registered drivers are offered a ride
// request picked up at the given point. The selection mechanism is
// deliberately pluggable; the registry only supplies the candidates.
type EligibilityPolicy interface {
	EligibleDrivers(drivers []*Driver, pickup types.Coordinate) []string
}

// GeohashPolicy selects available drivers whose geohash shares a prefix with
// the pickup geohash. Precision 4 is a cell of roughly 40x20km, generous
// enough for a city.
type GeohashPolicy struct {
	Precision uint
}

func (p GeohashPolicy) EligibleDrivers(drivers []*Driver, pickup types.Coordinate) []string {
	precision := p.Precision
	if precision == 0 {
		precision = 4
	}
	pickupHash := geohash.EncodeWithPrecision(pickup.Latitude, pickup.Longitude, precision)

	var eligible []string
	for _, d := range drivers {
		if !d.Available {
			continue
		}
		if strings.HasPrefix(d.Geohash, pickupHash) {
			eligible = append(eligible, d.ID)
		}
	}
	return eligible
}

type Service struct {
	mu      sync.Mutex
	drivers map[string]*Driver
	policy  EligibilityPolicy
}

func NewService(policy EligibilityPolicy) *Service {
	return &Service{
		drivers: make(map[string]*Driver),
		policy:  policy,
	}
}

func (s *Service) RegisterDriver(driverID string, location types.Coordinate) (*Driver, error) {
	if driverID == "" {
		return nil, fmt.Errorf("driver id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	driver := &Driver{
		ID:        driverID,
		CarPlate:  generateRandomPlate(),
		Location:  location,
		Geohash:   geohash.Encode(location.Latitude, location.Longitude),
		Available: true,
	}
	s.drivers[driverID] = driver

	out := *driver
	return &out, nil
}

func (s *Service) UnregisterDriver(driverID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drivers, driverID)
}

// SetAvailability flips a driver between idle and occupied. Unknown drivers
// are ignored; the availability feed may outlive a disconnect.
func (s *Service) SetAvailability(driverID string, available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.drivers[driverID]; ok {
		d.Available = available
	}
}

func (s *Service) FindEligibleDrivers(pickup types.Coordinate) []string {
	return s.policy.EligibleDrivers(s.snapshot(), pickup)
}

func (s *Service) ListDrivers() []*Driver {
	return s.snapshot()
}

func (s *Service) snapshot() []*Driver {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Driver, 0, len(s.drivers))
	for _, d := range s.drivers {
		c := *d
		out = append(out, &c)
	}
	return out
}

func generateRandomPlate() string {
	letters := []rune("ABCDEFGHJKLMNPRSTUVWXYZ")
	return fmt.Sprintf("%02d%c%03d%c%c",
		rand.Intn(100),
		letters[rand.Intn(len(letters))],
		rand.Intn(1000),
		letters[rand.Intn(len(letters))],
		letters[rand.Intn(len(letters))],
	)
}
