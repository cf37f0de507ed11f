// Package validation provides inbound request validation for the antibiogram API.
package validation

import (
	"fmt"
	"strings"

	"github.com/aura-cds/antibiogram-api/entities"
	"github.com/aura-cds/antibiogram-api/interfaces"
)

const (
	minReportLength = 10
	maxReportLength = 100_000
	minAdultAge     = 18
	maxAge          = 120
)

var validSeverities = map[entities.Severity]bool{
	entities.SeverityStable:      true,
	entities.SeveritySepsis:      true,
	entities.SeveritySepticShock: true,
	entities.SeverityUnknown:     true,
}

var validRenalBuckets = map[entities.RenalBucket]bool{
	entities.RenalNormal:   true,
	entities.RenalMild:     true,
	entities.RenalModerate: true,
	entities.RenalSevere:   true,
	entities.RenalUnknown:  true,
}

var validSpecimenHints = map[entities.SpecimenType]bool{
	entities.SpecimenBlood:  true,
	entities.SpecimenUrine:  true,
	entities.SpecimenSputum: true,
	entities.SpecimenWound:  true,
	entities.SpecimenOther:  true,
}

// RequestValidatorImpl implements the interfaces.RequestValidator interface
type RequestValidatorImpl struct{}

// Compile-time interface check
var _ interfaces.RequestValidator = (*RequestValidatorImpl)(nil)

// NewRequestValidator creates a new request validator
func NewRequestValidator() interfaces.RequestValidator {
	return &RequestValidatorImpl{}
}

// ValidateAnalyzeRequest checks an inbound analyze request before the
// pipeline runs. Clinical completeness (allergy, renal function,
// syndrome) is the safety gate's job, not validation: an incomplete but
// well-formed request must reach the pipeline so it can answer
// needs_more_info with the exact missing fields.
func (v *RequestValidatorImpl) ValidateAnalyzeRequest(req *entities.AnalyzeRequest) error {
	if req == nil {
		return fmt.Errorf("request is nil")
	}

	if err := v.validateReportText(req.ReportText); err != nil {
		return err
	}

	if req.SpecimenHint != "" && !validSpecimenHints[req.SpecimenHint] {
		return fmt.Errorf("invalid specimen_hint: %q", req.SpecimenHint)
	}

	return v.validatePatient(&req.Patient)
}

func (v *RequestValidatorImpl) validateReportText(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fmt.Errorf("report_text cannot be empty")
	}

	if len(trimmed) < minReportLength {
		return fmt.Errorf("report_text too short: minimum %d characters", minReportLength)
	}

	if len(text) > maxReportLength {
		return fmt.Errorf("report_text too long: maximum %d characters", maxReportLength)
	}

	if hasExcessiveRepetition(text) {
		return fmt.Errorf("report_text contains excessive character repetition")
	}

	return nil
}

func (v *RequestValidatorImpl) validatePatient(p *entities.Patient) error {
	if p.AgeYears < minAdultAge {
		return fmt.Errorf("age_years must be at least %d: adult patients only", minAdultAge)
	}
	if p.AgeYears > maxAge {
		return fmt.Errorf("age_years out of range: %d", p.AgeYears)
	}

	if p.Severity != "" && !validSeverities[p.Severity] {
		return fmt.Errorf("invalid severity: %q", p.Severity)
	}

	if p.RenalBucket != "" && !validRenalBuckets[p.RenalBucket] {
		return fmt.Errorf("invalid renal_bucket: %q", p.RenalBucket)
	}

	if p.EGFRMlMin != nil {
		if *p.EGFRMlMin < 0 || *p.EGFRMlMin > 300 {
			return fmt.Errorf("egfr_ml_min out of range: %g", *p.EGFRMlMin)
		}
	}

	return nil
}

// hasExcessiveRepetition checks for the same character repeated more
// than 200 times consecutively, which no real lab report contains
func hasExcessiveRepetition(input string) bool {
	const limit = 200
	run := 1
	for i := 1; i < len(input); i++ {
		if input[i] == input[i-1] {
			run++
			if run > limit {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}
