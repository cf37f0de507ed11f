package dosing

import "github.com/aura-cds/antibiogram-api/entities"

// MissingDosingInfo returns the mandatory clinical inputs still missing
// before any dosing may proceed, in a fixed order: syndrome, then
// beta-lactam allergy, then renal function. Renal function is satisfied
// by either a numeric eGFR or a renal bucket other than unknown.
// A non-empty result is a hard gate.
func MissingDosingInfo(patient entities.Patient) []string {
	var missing []string

	if patient.Syndrome == "" {
		missing = append(missing, "syndrome (clinical source/category for bacteremia)")
	}

	if patient.BetaLactamAllergy == nil {
		missing = append(missing, "beta_lactam_allergy (true/false)")
	}

	if patient.EGFRMlMin == nil && (patient.RenalBucket == "" || patient.RenalBucket == entities.RenalUnknown) {
		missing = append(missing, "egfr_ml_min or renal_bucket")
	}

	return missing
}
