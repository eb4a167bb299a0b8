package main

import (
	"encoding/json"
	"net/http"

	"ride-hail/shared/contracts"
	"ride-hail/shared/types"
)

type registerDriverRequest struct {
	DriverID string           `json:"driverId"`
	Location types.Coordinate `json:"location"`
}

type unregisterDriverRequest struct {
	DriverID string `json:"driverId"`
}

func registerRoutes(mux *http.ServeMux, service *Service) {
	mux.HandleFunc("POST /drivers/register", func(w http.ResponseWriter, r *http.Request) {
		var reqBody registerDriverRequest
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			http.Error(w, "failed to parse JSON data", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		driver, err := service.RegisterDriver(reqBody.DriverID, reqBody.Location)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, contracts.APIResponse{Data: driver})
	})

	mux.HandleFunc("POST /drivers/unregister", func(w http.ResponseWriter, r *http.Request) {
		var reqBody unregisterDriverRequest
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			http.Error(w, "failed to parse JSON data", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		service.UnregisterDriver(reqBody.DriverID)
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /drivers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, contracts.APIResponse{Data: service.ListDrivers()})
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}
