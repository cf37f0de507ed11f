package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aura-cds/antibiogram-api/data"
	"github.com/aura-cds/antibiogram-api/dosing"
	"github.com/aura-cds/antibiogram-api/entities"
	"github.com/aura-cds/antibiogram-api/ranking"
)

const bloodCultureReport = `MICROBIOLOGY
Specimen Desc: Blood Culture
Result:
1: ESCHERICHIA COLI
ANTIBIOTIC
1 AMIKACIN S
2 GENTAMICIN S
3 MEROPENEM S
4 AMPICILLIN R
`

const polymicrobialReport = `MICROBIOLOGY
Specimen Desc: Blood Culture
Result:
1: ESCHERICHIA COLI
2: KLEBSIELLA PNEUMONIAE
ANTIBIOTIC
1 AMIKACIN S
`

func testStore(t *testing.T, model *ranking.SusceptibilityModel) *data.ClinicalDataContainer {
	t.Helper()
	dc := data.NewClinicalDataContainer()
	dc.UpdateData([]dosing.CatalogRow{
		{Drug: "Amikacin", Indication: "gn_bacteremia", Route: "IV", StandardDose: "15 mg/kg", Frequency: "q24h", TypicalDuration: "7 days", Source: "IDSA"},
		{Drug: "Gentamicin", Indication: "gn_bacteremia", Route: "IV", StandardDose: "5 mg/kg", Frequency: "q24h", TypicalDuration: "7 days", Source: "IDSA"},
	}, model)
	return dc
}

func completePatient() entities.Patient {
	allergy := false
	egfr := 82.0
	return entities.Patient{
		AgeYears:          67,
		Syndrome:          "gn_bacteremia",
		Severity:          entities.Severity("moderate"),
		BetaLactamAllergy: &allergy,
		EGFRMlMin:         &egfr,
	}
}

type stubNarrator struct {
	text   string
	err    error
	called int
}

func (s *stubNarrator) Explain(ctx context.Context, parsed entities.ParsedReport, ranked []entities.RankedOption, rec entities.RecommendationPackage) (string, error) {
	s.called++
	return s.text, s.err
}

func TestAnalyzeRecommendationReady(t *testing.T) {
	p := New(testStore(t, nil), nil)

	resp := p.Analyze(context.Background(), entities.AnalyzeRequest{
		ReportText: bloodCultureReport,
		Patient:    completePatient(),
	})

	if resp.Status != entities.StatusRecommendationReady {
		t.Fatalf("expected recommendation_ready, got %s", resp.Status)
	}
	if resp.Recommendation.Primary == nil || resp.Recommendation.Primary.Drug != "Amikacin" {
		t.Errorf("expected Amikacin primary, got %+v", resp.Recommendation.Primary)
	}
	if len(resp.Recommendation.Alternatives) != 1 || resp.Recommendation.Alternatives[0].Drug != "Gentamicin" {
		t.Errorf("expected Gentamicin alternative, got %+v", resp.Recommendation.Alternatives)
	}
	if len(resp.RankedOptions) == 0 {
		t.Error("expected ranked options alongside the recommendation")
	}
	if resp.SafetyNote != SafetyNote {
		t.Errorf("expected the safety note on every response, got %q", resp.SafetyNote)
	}
	if resp.Debug != nil {
		t.Error("debug payload must be absent unless requested")
	}
}

func TestAnalyzeResistantNeverRecommended(t *testing.T) {
	p := New(testStore(t, nil), nil)

	resp := p.Analyze(context.Background(), entities.AnalyzeRequest{
		ReportText: bloodCultureReport,
		Patient:    completePatient(),
	})

	for _, opt := range resp.RankedOptions {
		if opt.Drug == "Ampicillin" {
			t.Error("resistant drug appeared in ranked options")
		}
	}
}

func TestAnalyzeNeedsMoreInfo(t *testing.T) {
	p := New(testStore(t, nil), nil)

	resp := p.Analyze(context.Background(), entities.AnalyzeRequest{
		ReportText: bloodCultureReport,
		Patient:    entities.Patient{AgeYears: 67},
	})

	if resp.Status != entities.StatusNeedsMoreInfo {
		t.Fatalf("expected needs_more_info, got %s", resp.Status)
	}
	if resp.Recommendation.Primary != nil {
		t.Error("no primary regimen may be issued while gated")
	}

	want := []string{
		"syndrome (clinical source/category for bacteremia)",
		"beta_lactam_allergy (true/false)",
		"egfr_ml_min or renal_bucket",
	}
	if len(resp.Recommendation.MissingInfo) != len(want) {
		t.Fatalf("expected %d missing items, got %v", len(want), resp.Recommendation.MissingInfo)
	}
	for i, m := range want {
		if resp.Recommendation.MissingInfo[i] != m {
			t.Errorf("missing item %d: expected %q, got %q", i, m, resp.Recommendation.MissingInfo[i])
		}
	}
	if len(resp.RankedOptions) != 0 {
		t.Error("no options are ranked while gated")
	}
}

func TestAnalyzeNeedsMoreInfoRenalOnly(t *testing.T) {
	p := New(testStore(t, nil), nil)

	patient := completePatient()
	patient.EGFRMlMin = nil
	patient.RenalBucket = entities.RenalUnknown

	resp := p.Analyze(context.Background(), entities.AnalyzeRequest{
		ReportText: bloodCultureReport,
		Patient:    patient,
	})

	if resp.Status != entities.StatusNeedsMoreInfo {
		t.Fatalf("expected needs_more_info, got %s", resp.Status)
	}
	if len(resp.Recommendation.MissingInfo) != 1 ||
		resp.Recommendation.MissingInfo[0] != "egfr_ml_min or renal_bucket" {
		t.Errorf("expected only the renal item, got %v", resp.Recommendation.MissingInfo)
	}
}

func TestAnalyzePolymicrobialNeedsReview(t *testing.T) {
	p := New(testStore(t, nil), nil)

	resp := p.Analyze(context.Background(), entities.AnalyzeRequest{
		ReportText: polymicrobialReport,
		Patient:    completePatient(),
	})

	if resp.Status != entities.StatusNeedsReview {
		t.Fatalf("expected needs_review, got %s", resp.Status)
	}
	if resp.Recommendation.Primary != nil {
		t.Error("polymicrobial cultures must not produce a regimen")
	}
	if len(resp.Recommendation.Warnings) == 0 ||
		resp.Recommendation.Warnings[0] != "Polymicrobial cultures require clinician review." {
		t.Errorf("unexpected warnings: %v", resp.Recommendation.Warnings)
	}
	if len(resp.ParsedReport.Organisms) != 2 {
		t.Errorf("expected both organisms in the parsed report, got %d", len(resp.ParsedReport.Organisms))
	}
}

func TestAnalyzeNoSafeOption(t *testing.T) {
	dc := data.NewClinicalDataContainer()
	dc.UpdateData([]dosing.CatalogRow{
		{Drug: "Colistin", Indication: "gn_bacteremia", Route: "IV", StandardDose: "9 MU load", Frequency: "q12h", TypicalDuration: "7 days", Source: "Local"},
	}, nil)
	p := New(dc, nil)

	resp := p.Analyze(context.Background(), entities.AnalyzeRequest{
		ReportText: bloodCultureReport,
		Patient:    completePatient(),
	})

	if resp.Status != entities.StatusNoSafeOption {
		t.Fatalf("expected no_safe_option, got %s", resp.Status)
	}
	if resp.Recommendation.Primary != nil {
		t.Error("no primary regimen exists without catalog coverage")
	}
	if len(resp.RankedOptions) == 0 {
		t.Error("ranked options are still reported when dosing coverage is missing")
	}
}

func TestAnalyzeDebugPayload(t *testing.T) {
	p := New(testStore(t, nil), nil)

	resp := p.Analyze(context.Background(), entities.AnalyzeRequest{
		ReportText: bloodCultureReport,
		Patient:    completePatient(),
		Debug:      true,
	})

	if resp.Debug == nil {
		t.Fatal("expected debug payload")
	}
	for _, key := range []string{"extract", "rank", "dose"} {
		if _, ok := resp.Debug[key]; !ok {
			t.Errorf("expected debug key %q", key)
		}
	}

	rank, ok := resp.Debug["rank"].(map[string]any)
	if !ok {
		t.Fatal("expected rank debug section")
	}
	if rank["strategy"] != "rules" {
		t.Errorf("expected rules strategy without a model, got %v", rank["strategy"])
	}
}

func TestAnalyzeModelStrategy(t *testing.T) {
	model := ranking.NewSusceptibilityModel(map[ranking.FeatureRow]float64{
		{Organism: "e. coli", Drug: "gentamicin"}: 0.95,
		{Organism: "e. coli", Drug: "amikacin"}:   0.6,
	}, nil)
	p := New(testStore(t, model), nil)

	resp := p.Analyze(context.Background(), entities.AnalyzeRequest{
		ReportText: bloodCultureReport,
		Patient:    completePatient(),
		Debug:      true,
	})

	rank, ok := resp.Debug["rank"].(map[string]any)
	if !ok {
		t.Fatal("expected rank debug section")
	}
	if rank["strategy"] != "ml" {
		t.Errorf("expected ml strategy with a loaded model, got %v", rank["strategy"])
	}
	if resp.Recommendation.Primary == nil || resp.Recommendation.Primary.Drug != "Gentamicin" {
		t.Errorf("expected the model to reorder the candidates, got %+v", resp.Recommendation.Primary)
	}
}

func TestAnalyzeNarration(t *testing.T) {
	narrator := &stubNarrator{text: "Amikacin covers this isolate with once-daily dosing."}
	p := New(testStore(t, nil), narrator)

	resp := p.Analyze(context.Background(), entities.AnalyzeRequest{
		ReportText: bloodCultureReport,
		Patient:    completePatient(),
	})

	if narrator.called != 1 {
		t.Fatalf("expected one narration call, got %d", narrator.called)
	}
	last := resp.Recommendation.Rationale[len(resp.Recommendation.Rationale)-1]
	if last != narrator.text {
		t.Errorf("expected narration appended to rationale, got %q", last)
	}
}

func TestAnalyzeNarrationFailureIsNonFatal(t *testing.T) {
	narrator := &stubNarrator{err: errors.New("endpoint unreachable")}
	p := New(testStore(t, nil), narrator)

	resp := p.Analyze(context.Background(), entities.AnalyzeRequest{
		ReportText: bloodCultureReport,
		Patient:    completePatient(),
	})

	if resp.Status != entities.StatusRecommendationReady {
		t.Fatalf("narration failure must not change the status, got %s", resp.Status)
	}
	for _, r := range resp.Recommendation.Rationale {
		if strings.Contains(r, "unreachable") {
			t.Error("narrator error text must not leak into the rationale")
		}
	}
}

func TestAnalyzeNarratorSkippedWhenGated(t *testing.T) {
	narrator := &stubNarrator{text: "should not appear"}
	p := New(testStore(t, nil), narrator)

	p.Analyze(context.Background(), entities.AnalyzeRequest{
		ReportText: bloodCultureReport,
		Patient:    entities.Patient{AgeYears: 67},
	})

	if narrator.called != 0 {
		t.Errorf("narrator must not run without a primary regimen, called %d times", narrator.called)
	}
}
