package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"ride-hail/services/ride-service/internal/domain"
	"ride-hail/shared/contracts"
	"ride-hail/shared/ride"
	"ride-hail/shared/types"
)

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

type HttpHandler struct {
	Service domain.RideRequestService
}

func (h *HttpHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /rides", h.HandleCreateRideRequest)
	mux.HandleFunc("GET /rides/active", h.HandleActiveRideRequest)
	mux.HandleFunc("GET /rides/{id}", h.HandleGetRideRequest)
	mux.HandleFunc("PATCH /rides/{id}/status", h.HandleUpdateStatus)
}

func (h *HttpHandler) HandleCreateRideRequest(w http.ResponseWriter, r *http.Request) {
	var reqBody createRideRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		http.Error(w, "failed to parse JSON data", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	req, err := h.Service.Create(r.Context(), reqBody.RiderID, reqBody.Source, reqBody.Destination)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contracts.APIResponse{Data: req})
}

func (h *HttpHandler) HandleGetRideRequest(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Service.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contracts.APIResponse{Data: detail})
}

func (h *HttpHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var reqBody updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		http.Error(w, "failed to parse JSON data", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	req, err := h.Service.UpdateStatus(r.Context(), r.PathValue("id"), reqBody.ExpectedStatus, reqBody.Status, reqBody.DriverID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contracts.APIResponse{Data: req})
}

func (h *HttpHandler) HandleActiveRideRequest(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userID")
	if userID == "" {
		http.Error(w, "userID is required", http.StatusBadRequest)
		return
	}

	req, err := h.Service.ActiveForUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contracts.APIResponse{Data: req})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.Println(err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}
