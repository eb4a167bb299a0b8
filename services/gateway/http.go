package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"ride-hail/shared/types"
)

type rideRequestBody struct {
	RiderID     string           `json:"riderId"`
	Source      types.Coordinate `json:"source"`
	Destination types.Coordinate `json:"destination"`
}

type rideCancelBody struct {
	RideRequestID string `json:"rideRequestId"`
}

func handleRideRequest(w http.ResponseWriter, r *http.Request) {
	var reqBody rideRequestBody

	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		http.Error(w, "failed to parse JSON data", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if reqBody.RiderID == "" {
		http.Error(w, "riderId is required", http.StatusBadRequest)
		return
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		http.Error(w, "failed to encode JSON", http.StatusInternalServerError)
		return
	}

	resp, err := http.Post(rideServiceURL+"/rides", "application/json", bytes.NewReader(jsonBody))
	if err != nil {
		http.Error(w, "failed to make request", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	forwardResponse(w, resp)
}

func handleRideCancel(w http.ResponseWriter, r *http.Request) {
	var reqBody rideCancelBody

	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		http.Error(w, "failed to parse JSON data", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if reqBody.RideRequestID == "" {
		http.Error(w, "rideRequestId is required", http.StatusBadRequest)
		return
	}

	jsonBody, err := json.Marshal(map[string]string{"status": "CANCELED"})
	if err != nil {
		http.Error(w, "failed to encode JSON", http.StatusInternalServerError)
		return
	}

	url := fmt.Sprintf("%s/rides/%s/status", rideServiceURL, reqBody.RideRequestID)
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPatch, url, bytes.NewReader(jsonBody))
	if err != nil {
		http.Error(w, "failed to make request", http.StatusInternalServerError)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		http.Error(w, "failed to make request", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	forwardResponse(w, resp)
}

func forwardResponse(w http.ResponseWriter, resp *http.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}

func enableCors(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h(w, r)
	}
}
