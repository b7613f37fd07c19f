package common

import (
	"encoding/json"
	"go-medstore-api/logger"
	"net/http"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the body shape shared by every JSON response.
type Envelope struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

func WriteJSON(w http.ResponseWriter, code int, body Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.WithError(err).Error("Failed to encode response body")
	}
}

// Success writes a success envelope with the given status code.
func Success(w http.ResponseWriter, code int, message string, data interface{}) {
	WriteJSON(w, code, Envelope{
		Status:  StatusSuccess,
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// SuccessWithMeta is Success with a meta section, e.g. a fresh csrf token.
func SuccessWithMeta(w http.ResponseWriter, code int, message string, data, meta interface{}) {
	WriteJSON(w, code, Envelope{
		Status:  StatusSuccess,
		Code:    code,
		Message: message,
		Data:    data,
		Meta:    meta,
	})
}
