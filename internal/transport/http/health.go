package http

import (
	"encoding/json"
	"net/http"
)

// HealthHandler reports basic liveness for the service.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status:  "ok",
		Service: "bookstore-api",
	})
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
