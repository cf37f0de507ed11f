// Package handlers provides HTTP request handlers for the antibiogram API
// endpoints: culture report analysis and health checks, with request
// validation and consistent JSON error responses.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/aura-cds/antibiogram-api/entities"
	"github.com/aura-cds/antibiogram-api/interfaces"
	"github.com/aura-cds/antibiogram-api/logging"
	"github.com/aura-cds/antibiogram-api/pipeline"
)

// HTTPHandlerImpl holds the handler dependencies, injected at startup
type HTTPHandlerImpl struct {
	pipeline      *pipeline.Pipeline
	dataStore     interfaces.DataStore
	validator     interfaces.RequestValidator
	healthChecker interfaces.HealthChecker
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(p *pipeline.Pipeline, dataStore interfaces.DataStore, validator interfaces.RequestValidator, healthChecker interfaces.HealthChecker) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		pipeline:      p,
		dataStore:     dataStore,
		validator:     validator,
		healthChecker: healthChecker,
	}
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]interface{}{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, code, errorResponse)
}

// AnalyzeReport handles POST /analyze: decodes the request, validates it
// and runs the full parse/rank/dose pipeline. Unknown JSON fields are
// rejected so typos in clinical payloads fail loudly instead of being
// silently dropped.
func (h *HTTPHandlerImpl) AnalyzeReport(w http.ResponseWriter, r *http.Request) {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req entities.AnalyzeRequest
	if err := decoder.Decode(&req); err != nil {
		logging.Warn("Malformed analyze request", "error", err)
		h.RespondWithError(w, http.StatusBadRequest, decodeErrorMessage(err))
		return
	}

	// A request body with trailing garbage after the JSON object is malformed
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		h.RespondWithError(w, http.StatusBadRequest, "Request body must contain a single JSON object")
		return
	}

	if err := h.validator.ValidateAnalyzeRequest(&req); err != nil {
		h.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	response := h.pipeline.Analyze(r.Context(), req)
	h.RespondWithJSON(w, http.StatusOK, response)
}

// decodeErrorMessage maps json decoding errors to stable client messages
func decodeErrorMessage(err error) string {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.Is(err, io.EOF):
		return "Request body is empty"
	case errors.As(err, &syntaxErr):
		return fmt.Sprintf("Malformed JSON at offset %d", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		return fmt.Sprintf("Invalid value for field %q", typeErr.Field)
	case strings.Contains(err.Error(), "unknown field"):
		return err.Error()
	default:
		return "Invalid request body"
	}
}

// HealthResponseImpl defines the structure for consistent JSON ordering
type HealthResponseImpl struct {
	Status        string                 `json:"status"`
	UptimeSeconds float64                `json:"uptime_seconds"`
	UptimeHuman   string                 `json:"uptime_human"`
	Data          map[string]interface{} `json:"data"`
	System        map[string]interface{} `json:"system"`
}

// HealthCheck handles GET /health using the injected health checker
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, data, httpStatus := h.healthChecker.HealthCheck()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(h.dataStore.GetServerStartTime())

	response := HealthResponseImpl{
		Status:        status,
		UptimeSeconds: uptime.Seconds(),
		UptimeHuman:   formatUptimeHuman(uptime),
		Data:          data,
		System: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc_mb": int(m.Alloc / 1024 / 1024),
				"sys_mb":   int(m.Sys / 1024 / 1024),
				"num_gc":   m.NumGC,
			},
		},
	}

	h.RespondWithJSON(w, httpStatus, response)
}

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}
