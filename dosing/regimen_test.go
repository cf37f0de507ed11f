package dosing

import (
	"testing"

	"github.com/aura-cds/antibiogram-api/entities"
)

func testCatalog() []CatalogRow {
	return []CatalogRow{
		{Drug: "Amikacin", Indication: "gn_bacteremia", Route: "IV", StandardDose: "15 mg/kg", Frequency: "q24h", TypicalDuration: "7 days", Source: "IDSA", Notes: "Monitor levels"},
		{Drug: "Amikacin", Indication: "gn_bacteremia", Route: "IV", StandardDose: "20 mg/kg", Frequency: "q24h", TypicalDuration: "7 days", Source: "Local"},
		{Drug: "Ciprofloxacin", Indication: "urinary_source_bacteremia", Route: "PO", StandardDose: "500 mg", Frequency: "q12h", TypicalDuration: "7 days", Source: "IDSA"},
		{Drug: "Ciprofloxacin", Indication: "", Route: "IV", StandardDose: "400 mg", Frequency: "q12h", TypicalDuration: "7 days", Source: "IDSA"},
		{Drug: "Vancomycin", Indication: "", Route: "IV", StandardDose: "15-20 mg/kg", Frequency: "q12h", TypicalDuration: "14 days", Source: "IDSA"},
	}
}

func gnBacteremiaPatient() entities.Patient {
	allergy := false
	egfr := 82.0
	return entities.Patient{
		AgeYears:          67,
		Syndrome:          "gn_bacteremia",
		BetaLactamAllergy: &allergy,
		EGFRMlMin:         &egfr,
	}
}

func TestPickRegimenFirstRowWins(t *testing.T) {
	regimen := PickRegimen(testCatalog(), "Amikacin", gnBacteremiaPatient())
	if regimen == nil {
		t.Fatal("expected a regimen")
	}
	if regimen.Dose != "15 mg/kg" || regimen.Source != "IDSA" {
		t.Errorf("expected the first matching catalog row, got %+v", regimen)
	}
	if len(regimen.Notes) != 1 || regimen.Notes[0] != "Monitor levels" {
		t.Errorf("expected catalog notes carried over, got %v", regimen.Notes)
	}
}

func TestPickRegimenExactIndicationPreferred(t *testing.T) {
	patient := gnBacteremiaPatient()
	patient.Syndrome = "urinary_source_bacteremia"

	regimen := PickRegimen(testCatalog(), "Ciprofloxacin", patient)
	if regimen == nil {
		t.Fatal("expected a regimen")
	}
	if regimen.Route != "PO" || regimen.Dose != "500 mg" {
		t.Errorf("expected the indication-specific row over the generic one, got %+v", regimen)
	}
}

func TestPickRegimenGenericFallback(t *testing.T) {
	regimen := PickRegimen(testCatalog(), "Ciprofloxacin", gnBacteremiaPatient())
	if regimen == nil {
		t.Fatal("expected a regimen")
	}
	if regimen.Route != "IV" || regimen.Dose != "400 mg" {
		t.Errorf("expected the empty-indication fallback row, got %+v", regimen)
	}
}

func TestPickRegimenCanonicalDrugMatch(t *testing.T) {
	rows := []CatalogRow{
		{Drug: "Piperacillin-Tazobactam", Indication: "gn_bacteremia", Route: "IV", StandardDose: "4.5 g", Frequency: "q6h", TypicalDuration: "7 days", Source: "IDSA"},
	}

	regimen := PickRegimen(rows, "PIPERACILLIN - TAZOBACTAM", gnBacteremiaPatient())
	if regimen == nil {
		t.Fatal("expected punctuation-insensitive drug matching")
	}
	if regimen.Drug != "Piperacillin-Tazobactam" {
		t.Errorf("regimen must surface the catalog spelling, got %q", regimen.Drug)
	}
}

func TestPickRegimenNoMatch(t *testing.T) {
	if regimen := PickRegimen(testCatalog(), "Colistin", gnBacteremiaPatient()); regimen != nil {
		t.Errorf("expected nil for an uncovered drug, got %+v", regimen)
	}
}

func TestPickRegimenRequiresSyndrome(t *testing.T) {
	patient := gnBacteremiaPatient()
	patient.Syndrome = ""

	if regimen := PickRegimen(testCatalog(), "Amikacin", patient); regimen != nil {
		t.Errorf("expected nil without a syndrome, got %+v", regimen)
	}
}

func TestBuildRegimenPackage(t *testing.T) {
	primary, alternatives := BuildRegimenPackage(testCatalog(),
		[]string{"Amikacin", "Colistin", "Ciprofloxacin", "Vancomycin"},
		gnBacteremiaPatient())

	if primary == nil || primary.Drug != "Amikacin" {
		t.Fatalf("expected Amikacin primary, got %+v", primary)
	}
	if len(alternatives) != 2 {
		t.Fatalf("expected 2 alternatives, got %d", len(alternatives))
	}
	if alternatives[0].Drug != "Ciprofloxacin" || alternatives[1].Drug != "Vancomycin" {
		t.Errorf("unexpected alternatives: %+v", alternatives)
	}
}

func TestBuildRegimenPackageCapsAlternatives(t *testing.T) {
	rows := testCatalog()
	rows = append(rows,
		CatalogRow{Drug: "Gentamicin", Indication: "gn_bacteremia", Route: "IV", StandardDose: "5 mg/kg", Frequency: "q24h", TypicalDuration: "7 days", Source: "IDSA"},
	)

	primary, alternatives := BuildRegimenPackage(rows,
		[]string{"Amikacin", "Ciprofloxacin", "Vancomycin", "Gentamicin"},
		gnBacteremiaPatient())

	if primary == nil {
		t.Fatal("expected a primary regimen")
	}
	if len(alternatives) != 2 {
		t.Errorf("alternatives must cap at 2, got %d", len(alternatives))
	}
}

func TestBuildRegimenPackageNoCoverage(t *testing.T) {
	primary, alternatives := BuildRegimenPackage(testCatalog(),
		[]string{"Colistin", "Tigecycline"},
		gnBacteremiaPatient())

	if primary != nil {
		t.Errorf("expected nil primary, got %+v", primary)
	}
	if len(alternatives) != 0 {
		t.Errorf("expected no alternatives, got %+v", alternatives)
	}
}

func TestBuildRegimenPackageSkipsDuplicatePrimary(t *testing.T) {
	primary, alternatives := BuildRegimenPackage(testCatalog(),
		[]string{"Amikacin", "AMIKACIN", "Vancomycin"},
		gnBacteremiaPatient())

	if primary == nil || primary.Drug != "Amikacin" {
		t.Fatalf("expected Amikacin primary, got %+v", primary)
	}
	if len(alternatives) != 1 || alternatives[0].Drug != "Vancomycin" {
		t.Errorf("a repeat of the primary must not become an alternative, got %+v", alternatives)
	}
}
