// Package entities defines the data model shared by the report parser,
// ranking engine, dosing catalog and recommendation pipeline.
package entities

// SpecimenType is the specimen category derived from the labeled
// "Specimen Desc" line of a culture report. Body text is never used
// for specimen inference; reports without that line are "other".
type SpecimenType string

const (
	SpecimenBlood  SpecimenType = "blood"
	SpecimenUrine  SpecimenType = "urine"
	SpecimenSputum SpecimenType = "sputum"
	SpecimenWound  SpecimenType = "wound"
	SpecimenOther  SpecimenType = "other"
)

// SIR is the standard susceptibility category reported per drug.
type SIR string

const (
	Susceptible  SIR = "S"
	Intermediate SIR = "I"
	Resistant    SIR = "R"
	UnknownSIR   SIR = "U"
)

// Severity is the clinical severity bucket supplied with the patient.
type Severity string

const (
	SeverityStable      Severity = "stable"
	SeveritySepsis      Severity = "sepsis"
	SeveritySepticShock Severity = "septic_shock"
	SeverityUnknown     Severity = "unknown"
)

// RenalBucket is the coarse renal function category used when a numeric
// eGFR is not available.
type RenalBucket string

const (
	RenalNormal   RenalBucket = "normal"
	RenalMild     RenalBucket = "mild"
	RenalModerate RenalBucket = "moderate"
	RenalSevere   RenalBucket = "severe"
	RenalUnknown  RenalBucket = "unknown"
)

// AnalyzeStatus is the terminal state of one pipeline run.
type AnalyzeStatus string

const (
	StatusRecommendationReady AnalyzeStatus = "recommendation_ready"
	StatusNeedsMoreInfo       AnalyzeStatus = "needs_more_info"
	StatusNeedsReview         AnalyzeStatus = "needs_review"
	StatusNoSafeOption        AnalyzeStatus = "no_safe_option"
)

// ASTResult is one antibiotic susceptibility testing row extracted from
// a report: normalized drug name, S/I/R category, optional raw MIC and
// the source line it was read from. Immutable once parsed.
type ASTResult struct {
	Drug         string `json:"drug"`
	SIR          SIR    `json:"sir"`
	MIC          string `json:"mic,omitempty"`
	EvidenceLine string `json:"evidence_line,omitempty"`
}

// OrganismFinding groups the susceptibility rows attributed to one
// detected organism. Drug names within AST are unique.
type OrganismFinding struct {
	Organism string      `json:"organism"`
	AST      []ASTResult `json:"ast"`
	Notes    []string    `json:"notes,omitempty"`
}

// ParsedReport is the structured form of one culture report. A report
// with no detectable organism still yields a single "Unknown" finding.
type ParsedReport struct {
	Specimen     SpecimenType      `json:"specimen"`
	Organisms    []OrganismFinding `json:"organisms"`
	OverallNotes []string          `json:"overall_notes,omitempty"`
}

// Patient carries the clinical attributes that gate and inform dosing.
// Adults only. Pointer fields are tri-state: nil means "not provided",
// which the safety gate treats differently from an explicit false.
type Patient struct {
	AgeYears int    `json:"age_years"`
	Sex      string `json:"sex,omitempty"`

	// Syndrome is the clinical source category (e.g. gn_bacteremia);
	// empty means unknown and blocks dosing.
	Syndrome string   `json:"syndrome,omitempty"`
	Severity Severity `json:"severity"`

	EGFRMlMin   *float64    `json:"egfr_ml_min,omitempty"`
	RenalBucket RenalBucket `json:"renal_bucket"`

	BetaLactamAllergy *bool    `json:"beta_lactam_allergy,omitempty"`
	OtherAllergies    []string `json:"other_allergies,omitempty"`

	Pregnancy         *bool    `json:"pregnancy,omitempty"`
	HepaticImpairment *bool    `json:"hepatic_impairment,omitempty"`
	Interactions      []string `json:"interactions,omitempty"`
}

// RankedOption is one candidate drug produced by a ranking strategy.
// Resistant drugs never appear as ranked options.
type RankedOption struct {
	Drug  string   `json:"drug"`
	Score float64  `json:"score"`
	Why   []string `json:"why"`

	SIRSummary string `json:"sir_summary,omitempty"`
	MICSummary string `json:"mic_summary,omitempty"`

	Warnings []string `json:"warnings"`
}

// Regimen is one dosing catalog row surfaced verbatim: the pipeline
// never synthesizes or edits dose, route, frequency or duration.
type Regimen struct {
	Drug      string `json:"drug"`
	Route     string `json:"route"`
	Dose      string `json:"dose"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`

	// Source names the guideline or reference row this came from.
	Source string   `json:"source"`
	Notes  []string `json:"notes,omitempty"`
}

// RecommendationPackage is the terminal result of one analysis.
// Primary is nil in every status except recommendation_ready.
type RecommendationPackage struct {
	Primary      *Regimen  `json:"primary"`
	Alternatives []Regimen `json:"alternatives"`

	Rationale []string `json:"rationale"`
	Warnings  []string `json:"warnings"`

	// MissingInfo lists the mandatory clinical inputs still required,
	// in the fixed order the safety gate reports them.
	MissingInfo []string `json:"missing_info"`
}

// AnalyzeRequest is the inbound contract of the /analyze endpoint.
type AnalyzeRequest struct {
	ReportText   string       `json:"report_text"`
	SpecimenHint SpecimenType `json:"specimen_hint,omitempty"`
	Patient      Patient      `json:"patient"`
	Debug        bool         `json:"debug"`
}

// AnalyzeResponse is the outbound contract of the /analyze endpoint.
type AnalyzeResponse struct {
	Status         AnalyzeStatus         `json:"status"`
	ParsedReport   ParsedReport          `json:"parsed_report"`
	RankedOptions  []RankedOption        `json:"ranked_options"`
	Recommendation RecommendationPackage `json:"recommendation"`
	SafetyNote     string                `json:"safety_note,omitempty"`
	Debug          map[string]any        `json:"debug,omitempty"`
}
