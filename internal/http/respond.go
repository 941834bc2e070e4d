package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"moneta/internal/core"
)

// dataEnvelope wraps every successful response body.
type dataEnvelope struct {
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// pageEnvelope wraps paginated list responses.
type pageEnvelope struct {
	Data  any `json:"data"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, dataEnvelope{Data: data})
}

func writeMessage(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, dataEnvelope{Data: data, Message: message})
}

func writePage(w http.ResponseWriter, data any, page, limit, total int) {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	writeJSON(w, http.StatusOK, pageEnvelope{
		Data:  data,
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: pages,
	})
}

// writeError maps any error to the wire envelope. Typed service errors keep
// their status and code; everything else is logged and rendered as a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := core.AsError(err)
	if appErr.Status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "url", r.URL.Path, "error", err)
	}
	writeJSON(w, appErr.Status, errorEnvelope{Error: errorBody{
		Message: appErr.Message,
		Code:    appErr.Code,
	}})
}
