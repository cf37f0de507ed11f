package health

import (
	"net/http"
	"testing"
	"time"

	"github.com/aura-cds/antibiogram-api/dosing"
	"github.com/aura-cds/antibiogram-api/ranking"
)

// MockHealthDataStore for testing
type MockHealthDataStore struct {
	catalog     []dosing.CatalogRow
	model       *ranking.SusceptibilityModel
	lastUpdated time.Time
	isUpdating  bool
}

func (m *MockHealthDataStore) GetCatalog() []dosing.CatalogRow {
	return m.catalog
}

func (m *MockHealthDataStore) GetModel() *ranking.SusceptibilityModel {
	return m.model
}

func (m *MockHealthDataStore) GetLastUpdated() time.Time {
	return m.lastUpdated
}

func (m *MockHealthDataStore) IsUpdating() bool {
	return m.isUpdating
}

func (m *MockHealthDataStore) GetServerStartTime() time.Time {
	return time.Time{}
}

func (m *MockHealthDataStore) UpdateData(catalog []dosing.CatalogRow, model *ranking.SusceptibilityModel) {
}

func (m *MockHealthDataStore) BeginUpdate() bool {
	return true
}

func (m *MockHealthDataStore) EndUpdate() {
}

func sampleCatalog() []dosing.CatalogRow {
	return []dosing.CatalogRow{
		{Drug: "Amikacin", Indication: "gn_bacteremia", Route: "IV", StandardDose: "15 mg/kg", Frequency: "q24h", TypicalDuration: "7-10 days", Source: "Guideline"},
	}
}

func TestNewHealthChecker(t *testing.T) {
	mockDataStore := &MockHealthDataStore{}

	healthChecker := NewHealthChecker(mockDataStore)

	if healthChecker == nil {
		t.Fatal("NewHealthChecker returned nil")
	}

	if _, ok := healthChecker.(*HealthCheckerImpl); !ok {
		t.Error("NewHealthChecker should return *HealthCheckerImpl")
	}
}

func TestHealthCheckHealthy(t *testing.T) {
	mockDataStore := &MockHealthDataStore{
		catalog:     sampleCatalog(),
		lastUpdated: time.Now().Add(-1 * time.Hour),
		isUpdating:  false,
	}

	checker := NewHealthChecker(mockDataStore)
	status, data, httpStatus := checker.HealthCheck()

	if status != "healthy" {
		t.Errorf("expected healthy, got %s", status)
	}
	if httpStatus != http.StatusOK {
		t.Errorf("expected 200, got %d", httpStatus)
	}
	if data["catalog_rows"] != 1 {
		t.Errorf("expected catalog_rows 1, got %v", data["catalog_rows"])
	}
	if data["model_loaded"] != false {
		t.Errorf("expected model_loaded false, got %v", data["model_loaded"])
	}
	if data["ranker"] != "rules" {
		t.Errorf("expected ranker rules without model, got %v", data["ranker"])
	}
}

func TestHealthCheckEmptyCatalog(t *testing.T) {
	mockDataStore := &MockHealthDataStore{
		catalog:     []dosing.CatalogRow{},
		lastUpdated: time.Now(),
	}

	checker := NewHealthChecker(mockDataStore)
	status, _, httpStatus := checker.HealthCheck()

	if status != "unhealthy" {
		t.Errorf("expected unhealthy with empty catalog, got %s", status)
	}
	if httpStatus != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", httpStatus)
	}
}

func TestHealthCheckStaleData(t *testing.T) {
	mockDataStore := &MockHealthDataStore{
		catalog:     sampleCatalog(),
		lastUpdated: time.Now().Add(-72 * time.Hour),
	}

	checker := NewHealthChecker(mockDataStore)
	status, _, httpStatus := checker.HealthCheck()

	if status != "degraded" {
		t.Errorf("expected degraded with 72h old data, got %s", status)
	}
	if httpStatus != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", httpStatus)
	}
}

func TestHealthCheckStuckUpdate(t *testing.T) {
	mockDataStore := &MockHealthDataStore{
		catalog:     sampleCatalog(),
		lastUpdated: time.Now().Add(-7 * time.Hour),
		isUpdating:  true,
	}

	checker := NewHealthChecker(mockDataStore)
	status, _, _ := checker.HealthCheck()

	if status != "degraded" {
		t.Errorf("expected degraded while update is stuck, got %s", status)
	}
}

func TestHealthCheckModelLoaded(t *testing.T) {
	model := ranking.NewSusceptibilityModel(map[ranking.FeatureRow]float64{
		{Organism: "E. coli", Drug: "Amikacin"}: 0.9,
	}, nil)

	mockDataStore := &MockHealthDataStore{
		catalog:     sampleCatalog(),
		model:       model,
		lastUpdated: time.Now(),
	}

	checker := NewHealthChecker(mockDataStore)
	status, data, _ := checker.HealthCheck()

	if status != "healthy" {
		t.Errorf("expected healthy, got %s", status)
	}
	if data["model_loaded"] != true {
		t.Errorf("expected model_loaded true, got %v", data["model_loaded"])
	}
	if data["ranker"] != "ml" {
		t.Errorf("expected ranker ml with model, got %v", data["ranker"])
	}
}
