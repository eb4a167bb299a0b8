package main

import (
	"testing"

	"ride-hail/shared/types"
)

var (
	tashkentCenter = types.Coordinate{Latitude: 41.311, Longitude: 69.279}
	tashkentNorth  = types.Coordinate{Latitude: 41.35, Longitude: 69.28}
	samarkand      = types.Coordinate{Latitude: 39.654, Longitude: 66.959}
)

func TestRegisterAndUnregisterDriver(t *testing.T) {
	svc := NewService(GeohashPolicy{})

	d, err := svc.RegisterDriver("driver-1", tashkentCenter)
	if err != nil {
		t.Fatalf("RegisterDriver failed: %v", err)
	}
	if d.Geohash == "" || d.CarPlate == "" {
		t.Errorf("expected geohash and plate to be set, got %+v", d)
	}
	if !d.Available {
		t.Error("new driver should start available")
	}

	if _, err := svc.RegisterDriver("", tashkentCenter); err == nil {
		t.Error("expected error for empty driver id")
	}

	svc.UnregisterDriver("driver-1")
	if got := len(svc.ListDrivers()); got != 0 {
		t.Errorf("expected empty registry, got %d drivers", got)
	}
}

func TestFindEligibleDriversByProximity(t *testing.T) {
	svc := NewService(GeohashPolicy{Precision: 4})

	svc.RegisterDriver("near-1", tashkentCenter)
	svc.RegisterDriver("near-2", tashkentNorth)
	svc.RegisterDriver("far-1", samarkand)

	eligible := svc.FindEligibleDrivers(tashkentCenter)
	if len(eligible) != 2 {
		t.Fatalf("expected 2 eligible drivers, got %v", eligible)
	}
	for _, id := range eligible {
		if id == "far-1" {
			t.Error("driver in another city should not be eligible")
		}
	}
}

func TestOccupiedDriverNotEligible(t *testing.T) {
	svc := NewService(GeohashPolicy{Precision: 4})
	svc.RegisterDriver("driver-1", tashkentCenter)

	svc.SetAvailability("driver-1", false)
	if eligible := svc.FindEligibleDrivers(tashkentCenter); len(eligible) != 0 {
		t.Errorf("occupied driver should not be offered rides, got %v", eligible)
	}

	svc.SetAvailability("driver-1", true)
	if eligible := svc.FindEligibleDrivers(tashkentCenter); len(eligible) != 1 {
		t.Errorf("freed driver should be eligible again, got %v", eligible)
	}

	// availability updates for unknown drivers are ignored
	svc.SetAvailability("ghost", false)
}
