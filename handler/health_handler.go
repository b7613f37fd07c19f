package handler

import (
	"encoding/json"
	"go-medstore-api/common"
	"go-medstore-api/service"
	"net/http"
)

// HealthCheck godoc
// @Summary      Show the status of server
// @Description  get the status of server
// @Tags         health
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "API is healthy and running"})
}

// Welcome godoc
// @Summary      API root
// @Description  Greets the client and issues a csrf token for the session.
// @Tags         health
// @Produce      json
// @Success      200  {object}  common.Envelope
// @Router       / [get]
func Welcome(cookies CookieConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		csrfToken := service.NewCSRFToken()
		cookies.setCSRF(w, csrfToken)
		common.SuccessWithMeta(w, http.StatusOK, "Welcome to the MedStore API", nil, csrfMeta{CSRFToken: csrfToken})
	}
}
