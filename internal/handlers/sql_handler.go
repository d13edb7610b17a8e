package handlers

import (
	"net/http"

	"autobahn/internal/doris"
	"autobahn/internal/logging"
	"autobahn/internal/middleware"
	"autobahn/internal/models"
	"autobahn/internal/serialize"
)

type SQLHandler struct {
	db  *doris.Connector
	ser *serialize.Serializer
}

func NewSQLHandler(db *doris.Connector, ser *serialize.Serializer) *SQLHandler {
	return &SQLHandler{db: db, ser: ser}
}

type sqlQueryRequest struct {
	SQL string `json:"sql"`
}

// Query runs an ad-hoc statement against Doris and serializes the rows
// (JSON columns decoded, media columns presigned).
func (h *SQLHandler) Query(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeError(w, r, http.StatusServiceUnavailable, 503,
			"doris is not configured", nil)
		return
	}

	var body sqlQueryRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.SQL == "" {
		writeError(w, r, http.StatusUnprocessableEntity, 422,
			"request body validation failed", "sql must not be empty")
		return
	}

	logging.L.Infow("sql_query", "trace_id", middleware.TraceID(r.Context()))
	res := h.db.Query(r.Context(), body.SQL)

	rows := res.Data
	if h.ser != nil {
		rows = h.ser.Rows(r.Context(), rows)
	}

	// The envelope stays code 0 even for empty or failed queries; the
	// connector's message tells the caller what happened.
	message := "success"
	traceID := ""
	if res.Errcode != doris.CodeOK {
		message = res.Message
		traceID = middleware.TraceID(r.Context())
	}

	writeJSON(w, http.StatusOK, models.StandardResponse{
		Code:    0,
		Message: message,
		Data:    map[string]any{"result": rows},
		TraceID: traceID,
	})
}
