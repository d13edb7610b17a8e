package handlers

import (
	"encoding/json"
	"net/http"

	"autobahn/internal/logging"
	"autobahn/internal/middleware"
	"autobahn/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.L.Errorw("encode response", "error", err)
	}
}

// writeSuccess wraps data in the standard envelope with code 0.
func writeSuccess(w http.ResponseWriter, r *http.Request, data any) {
	writeJSON(w, http.StatusOK, models.StandardResponse{
		Code:    0,
		Message: "success",
		Data:    data,
		TraceID: middleware.TraceID(r.Context()),
	})
}

// writeError emits the error envelope. status is the HTTP status; code
// is the business code carried in the body (often the same).
func writeError(w http.ResponseWriter, r *http.Request, status, code int, message string, detail any) {
	traceID := middleware.TraceID(r.Context())
	logging.L.Errorw("request failed",
		"status", status, "code", code, "path", r.URL.Path,
		"message", message, "trace_id", traceID)
	writeJSON(w, status, models.ErrorResponse{
		Code:    code,
		Message: message,
		Detail:  detail,
		TraceID: traceID,
	})
}

// decodeBody parses a JSON request body, answering 422 in the envelope
// format on validation failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, 422,
			"request body validation failed", err.Error())
		return false
	}
	return true
}
