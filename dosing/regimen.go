package dosing

import (
	"strings"

	"github.com/aura-cds/antibiogram-api/entities"
	"github.com/aura-cds/antibiogram-api/logging"
)

// PickRegimen returns the catalog regimen for a single drug, or nil
// when no row matches. Ties break on catalog file order: the first
// matching row wins. Severity and renal bucket are collected but do not
// score rows in this version.
func PickRegimen(rows []CatalogRow, drug string, patient entities.Patient) *entities.Regimen {
	// Syndrome is gated upstream; re-checked here so a direct caller
	// can never dose without it.
	if patient.Syndrome == "" {
		return nil
	}

	matches := matchRowsForDrug(rows, drug, patient.Syndrome)
	if len(matches) == 0 {
		logging.Debug("No dosing catalog match",
			"drug", drug,
			"syndrome", patient.Syndrome)
		return nil
	}
	chosen := matches[0]

	var notes []string
	if chosen.Notes != "" {
		notes = []string{chosen.Notes}
	}

	return &entities.Regimen{
		Drug:      chosen.Drug,
		Route:     chosen.Route,
		Dose:      chosen.StandardDose,
		Frequency: chosen.Frequency,
		Duration:  chosen.TypicalDuration,
		Source:    chosen.Source,
		Notes:     notes,
	}
}

// BuildRegimenPackage walks the ranked drug list in order: the first
// drug with a catalog entry becomes primary, the next two become
// alternatives. Drugs without catalog coverage are skipped, not errors.
func BuildRegimenPackage(rows []CatalogRow, rankedDrugs []string, patient entities.Patient) (*entities.Regimen, []entities.Regimen) {
	var primary *entities.Regimen
	alternatives := []entities.Regimen{}

	for _, drug := range rankedDrugs {
		regimen := PickRegimen(rows, drug, patient)
		if regimen == nil {
			continue
		}

		if primary == nil {
			primary = regimen
		} else if len(alternatives) < 2 && !strings.EqualFold(regimen.Drug, primary.Drug) {
			alternatives = append(alternatives, *regimen)
		}
	}

	return primary, alternatives
}
