// Package health provides health checking functionality for the antibiogram API.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/aura-cds/antibiogram-api/interfaces"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore interfaces.DataStore
}

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(dataStore interfaces.DataStore) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		dataStore: dataStore,
	}
}

// HealthCheck returns HTTP-specific health data for the /health endpoint.
// An empty dosing catalog makes every analysis end in no_safe_option, so
// it reports unhealthy. A missing model does not: the rule ranker covers
// that case by design of the strategy selection.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	catalog := h.dataStore.GetCatalog()
	model := h.dataStore.GetModel()
	lastUpdate := h.dataStore.GetLastUpdated()
	isUpdating := h.dataStore.IsUpdating()

	dataAge := time.Since(lastUpdate)

	switch {
	case len(catalog) == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 48*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case isUpdating && dataAge > 6*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"last_update":    lastUpdate.Format(time.RFC3339),
		"data_age_hours": math.Round(dataAge.Hours()*10) / 10,
		"catalog_rows":   len(catalog),
		"model_loaded":   model != nil,
		"ranker":         rankerStrategy(model != nil),
		"is_updating":    isUpdating,
	}

	return status, data, httpStatus
}

func rankerStrategy(modelLoaded bool) string {
	if modelLoaded {
		return "ml"
	}
	return "rules"
}
