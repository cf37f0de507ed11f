// Package data provides thread-safe storage for the clinical knowledge
// the pipeline reads on every request: the dosing catalog rows and the
// optional trained susceptibility model. Both are loaded once, swapped
// atomically on refresh, and treated as immutable in between, so
// concurrent requests never observe a partially populated catalog.
package data

import (
	"sync/atomic"
	"time"

	"github.com/aura-cds/antibiogram-api/dosing"
	"github.com/aura-cds/antibiogram-api/logging"
	"github.com/aura-cds/antibiogram-api/ranking"
)

// ClinicalDataContainer holds the catalog and model behind atomic
// pointers for zero-downtime refreshes.
type ClinicalDataContainer struct {
	catalog         atomic.Value // []dosing.CatalogRow
	model           atomic.Value // *ranking.SusceptibilityModel, nil when absent
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewClinicalDataContainer creates a container with empty data.
func NewClinicalDataContainer() *ClinicalDataContainer {
	dc := &ClinicalDataContainer{}
	dc.catalog.Store([]dosing.CatalogRow{})
	dc.model.Store((*ranking.SusceptibilityModel)(nil))
	dc.lastUpdated.Store(time.Time{})
	dc.serverStartTime.Store(time.Time{})
	return dc
}

// Thread-safe getters with type check

// GetCatalog returns the dosing catalog rows in file order.
func (dc *ClinicalDataContainer) GetCatalog() []dosing.CatalogRow {
	if v := dc.catalog.Load(); v != nil {
		if rows, ok := v.([]dosing.CatalogRow); ok {
			return rows
		}
	}

	logging.Warn("Dosing catalog is empty or invalid")
	return []dosing.CatalogRow{}
}

// GetModel returns the trained susceptibility model, or nil when no
// artifact is loaded (which selects the rule ranking strategy).
func (dc *ClinicalDataContainer) GetModel() *ranking.SusceptibilityModel {
	if v := dc.model.Load(); v != nil {
		if model, ok := v.(*ranking.SusceptibilityModel); ok {
			return model
		}
	}
	return nil
}

// GetLastUpdated returns the timestamp of the last knowledge reload.
func (dc *ClinicalDataContainer) GetLastUpdated() time.Time {
	if v := dc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true while a knowledge reload is in progress.
func (dc *ClinicalDataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// SetServerStartTime sets the server start time.
func (dc *ClinicalDataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time.
func (dc *ClinicalDataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateData atomically replaces the catalog and model.
func (dc *ClinicalDataContainer) UpdateData(catalog []dosing.CatalogRow, model *ranking.SusceptibilityModel) {
	dc.catalog.Store(catalog)
	dc.model.Store(model)
	dc.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a reload. Returns false when another
// reload is already in progress.
func (dc *ClinicalDataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a reload.
func (dc *ClinicalDataContainer) EndUpdate() {
	dc.updating.Store(false)
}
