// Package scheduler provides automated knowledge reloads and staleness
// monitoring for the antibiogram API. It coordinates catalog and model
// refreshes with the data container using dependency injection.
package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/aura-cds/antibiogram-api/interfaces"
	"github.com/aura-cds/antibiogram-api/logging"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles knowledge reloads and staleness monitoring
type Scheduler struct {
	dataStore interfaces.DataStore
	source    interfaces.KnowledgeSource
	scheduler *gocron.Scheduler
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(dataStore interfaces.DataStore, source interfaces.KnowledgeSource) *Scheduler {
	return &Scheduler{
		dataStore: dataStore,
		source:    source,
		scheduler: gocron.NewScheduler(time.Local),
	}
}

// Start performs the initial knowledge load and schedules daily reloads.
// A failed initial load is fatal for the caller: the service must not
// come up without a dosing catalog.
func (s *Scheduler) Start() error {
	if err := s.updateData(); err != nil {
		logging.Error("Failed to perform initial knowledge load", "error", err)
		return fmt.Errorf("initial knowledge load failed: %w", err)
	}

	// Reload at 06:00 daily so catalog edits land without a restart
	_, err := s.scheduler.Every(1).Days().At("06:00").Do(func() {
		if err := s.updateData(); err != nil {
			logging.Error("Failed to reload knowledge", "error", err)
		}
	})

	if err != nil {
		logging.Error("Failed to schedule reloads", "error", err)
		return fmt.Errorf("failed to schedule reloads: %w", err)
	}

	s.scheduler.StartAsync()

	s.startStalenessMonitoring()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// updateData reloads the catalog and model and swaps them in atomically.
// Scheduled reload failures keep the previous knowledge in place.
func (s *Scheduler) updateData() error {
	// Prevent concurrent updates
	if !s.dataStore.BeginUpdate() {
		logging.Info("Knowledge reload already in progress, skipping...")
		return nil
	}
	defer s.dataStore.EndUpdate()

	logging.Info(fmt.Sprintf("Starting knowledge reload at: %s", time.Now().Format(time.RFC3339)))
	start := time.Now()

	newCatalog, err := s.source.LoadCatalog()
	if err != nil {
		logging.Error("Failed to load dosing catalog", "error", err)
		return fmt.Errorf("failed to load dosing catalog: %w", err)
	}

	newModel, err := s.source.LoadModel()
	if err != nil {
		// A present but corrupt artifact must not silently degrade to rules
		logging.Error("Failed to load susceptibility model", "error", err)
		return fmt.Errorf("failed to load susceptibility model: %w", err)
	}

	if newModel == nil {
		logging.Info("No susceptibility model artifact found, rule ranking stays active")
	}

	s.dataStore.UpdateData(newCatalog, newModel)

	elapsed := time.Since(start)
	logging.Info("Knowledge reload completed",
		"duration", elapsed.String(),
		"catalog_rows", len(newCatalog),
		"model_loaded", newModel != nil,
	)

	return nil
}

// startStalenessMonitoring warns when the knowledge has not been
// refreshed for more than a day past the reload schedule
func (s *Scheduler) startStalenessMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			lastUpdate := s.dataStore.GetLastUpdated()
			if time.Since(lastUpdate) > 25*time.Hour {
				logging.Warn("Knowledge hasn't been reloaded in over 25 hours")
			}
		}
	}()
}
