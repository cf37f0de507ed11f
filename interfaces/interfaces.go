// Package interfaces defines the core abstractions of the antibiogram
// API so components stay testable and replaceable.
package interfaces

import (
	"context"
	"time"

	"github.com/aura-cds/antibiogram-api/dosing"
	"github.com/aura-cds/antibiogram-api/entities"
	"github.com/aura-cds/antibiogram-api/ranking"
)

// DataStore is the contract for thread-safe access to the loaded
// clinical knowledge, with atomic swap semantics on reload.
type DataStore interface {
	GetCatalog() []dosing.CatalogRow
	GetModel() *ranking.SusceptibilityModel
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	UpdateData(catalog []dosing.CatalogRow, model *ranking.SusceptibilityModel)
	BeginUpdate() bool
	EndUpdate()
}

// KnowledgeSource loads the external knowledge artifacts: the dosing
// catalog (required, fatal when missing or malformed) and the trained
// susceptibility model (optional; nil without error when absent).
type KnowledgeSource interface {
	LoadCatalog() ([]dosing.CatalogRow, error)
	LoadModel() (*ranking.SusceptibilityModel, error)
}

// Ranker is the single ranking capability with two interchangeable
// implementations (rules, trained model), chosen per request by model
// availability. Implementations must never rank resistant drugs.
type Ranker interface {
	Rank(parsed entities.ParsedReport, patient entities.Patient) []entities.RankedOption

	// Name identifies the strategy for debug payloads and metrics.
	Name() string
}

// Narrator produces a free-text explanation of an already-finalized
// recommendation. It is append-only enrichment: callers may add the
// returned text to the rationale but never let it change primary,
// alternatives or status. Implementations must honor ctx cancellation.
type Narrator interface {
	Explain(ctx context.Context, parsed entities.ParsedReport, ranked []entities.RankedOption, rec entities.RecommendationPackage) (string, error)
}

// Scheduler manages the periodic knowledge reload and health
// monitoring.
type Scheduler interface {
	Start() error
	Stop()
}

// HealthChecker reports system health for the /health endpoint.
type HealthChecker interface {
	HealthCheck() (status string, details map[string]any, httpStatus int)
}

// RequestValidator validates inbound analyze requests before the
// pipeline runs.
type RequestValidator interface {
	ValidateAnalyzeRequest(req *entities.AnalyzeRequest) error
}
