package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"volintel/internal/engine"
	"volintel/models"
)

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Handlers holds the HTTP endpoint handlers and their dependencies.
type Handlers struct {
	engine *engine.Engine
	logger zerolog.Logger
	now    func() time.Time
}

// NewHandlers creates a new handlers instance
func NewHandlers(eng *engine.Engine, logger zerolog.Logger) *Handlers {
	return &Handlers{
		engine: eng,
		logger: logger.With().Str("component", "httpapi").Logger(),
		now:    time.Now,
	}
}

// Intelligence serves GET /intel/{pair}. Scheduled event labels come
// in as a comma-separated `events` query parameter; `debug=true`
// attaches the raw intermediate numbers.
func (h *Handlers) Intelligence(w http.ResponseWriter, r *http.Request) {
	pair := mux.Vars(r)["pair"]
	query := r.URL.Query()

	var eventLabels []string
	if raw := query.Get("events"); raw != "" {
		for _, label := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(label); trimmed != "" {
				eventLabels = append(eventLabels, trimmed)
			}
		}
	}
	debug := query.Get("debug") == "true" || query.Get("debug") == "1"

	intel, err := h.engine.GenerateIntelligence(r.Context(), pair, h.now().UTC(), eventLabels, debug)
	if err != nil {
		var invalid *models.InvalidPairError
		if errors.As(err, &invalid) {
			h.writeError(w, r, http.StatusBadRequest, "invalid_pair", err.Error())
			return
		}
		h.logger.Error().Err(err).Str("pair", pair).Msg("intelligence request failed")
		h.writeError(w, r, http.StatusInternalServerError, "intelligence_failed", "could not produce a verdict")
		return
	}

	h.writeJSON(w, http.StatusOK, intel)
}

// Health serves GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"service":   "volintel",
		"timestamp": h.now().UTC(),
	})
}

// NotFound handles 404 responses
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	h.writeError(w, r, http.StatusNotFound, "endpoint_not_found",
		"The requested endpoint does not exist")
}

// writeJSON writes JSON response with proper error handling
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"json_encoding_failed"}`, http.StatusInternalServerError)
	}
}

// writeError writes standardized error response
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	h.writeJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      code,
		RequestID: requestIDFrom(r.Context()),
		Timestamp: h.now().UTC(),
	})
}
