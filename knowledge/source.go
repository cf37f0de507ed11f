// Package knowledge wires the on-disk knowledge artifacts (dosing
// catalog CSV, optional model JSON) to the scheduler as a single
// loadable source.
package knowledge

import (
	"github.com/aura-cds/antibiogram-api/dosing"
	"github.com/aura-cds/antibiogram-api/interfaces"
	"github.com/aura-cds/antibiogram-api/ranking"
)

// Compile-time check to ensure FileSource implements KnowledgeSource
var _ interfaces.KnowledgeSource = (*FileSource)(nil)

// FileSource loads knowledge artifacts from configured file paths.
type FileSource struct {
	catalogPath string
	modelPath   string
}

// NewFileSource creates a file-backed knowledge source.
func NewFileSource(catalogPath, modelPath string) *FileSource {
	return &FileSource{
		catalogPath: catalogPath,
		modelPath:   modelPath,
	}
}

// LoadCatalog reads the dosing catalog. Errors are fatal to the caller:
// no safe default dosing exists.
func (s *FileSource) LoadCatalog() ([]dosing.CatalogRow, error) {
	return dosing.LoadCatalog(s.catalogPath)
}

// LoadModel reads the trained model artifact. An absent file yields
// (nil, nil), selecting the rule ranking strategy.
func (s *FileSource) LoadModel() (*ranking.SusceptibilityModel, error) {
	if s.modelPath == "" {
		return nil, nil
	}
	return ranking.LoadModel(s.modelPath)
}
