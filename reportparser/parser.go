// Package reportparser turns raw microbiology culture report text into
// a structured ParsedReport. Parsing is best effort and never fails:
// malformed sections degrade to defaults ("other" specimen, "Unknown"
// organism, empty antibiogram) instead of returning errors.
//
// Known limitation: when a report lists several organisms but carries a
// single antibiogram table, the table is attached to every finding. The
// pipeline routes polymicrobial reports to clinician review before any
// ranking, so the shared table never reaches a recommendation.
package reportparser

import (
	"regexp"
	"strings"

	"github.com/aura-cds/antibiogram-api/entities"
)

var (
	// "Specimen Desc. : BLOOD C/S" / "Specimen Desc : BLOOD C/S"
	specimenDescRx = regexp.MustCompile(`(?i)Specimen\s*Desc\.?\s*:\s*(.+)`)

	// "1: E. COLI" / "1 : E COLI" / "2: KLEBSIELLA PNEUMONIAE"
	organismLineRx = regexp.MustCompile(`(?im)^[ \t]*\d+[ \t]*:[ \t]*([^\n\r]+?)[ \t]*$`)

	ecoliRx = regexp.MustCompile(`(?i)^(E\.?\s*COLI|ESCHERICHIA\s+COLI)\b`)

	// Free-text block between the Result label and the antibiogram header.
	resultBlockRx  = regexp.MustCompile(`(?is)Result\s*:\s*(.+?)\n[ \t]*ANTIBIOTIC`)
	numberedLineRx = regexp.MustCompile(`(?m)^[ \t]*\d+[ \t]*:[ \t]*.+$`)

	// Antibiogram row patterns, tried in priority order.
	// A: "1    AMIKACIN    S"
	antibiogramRowARx = regexp.MustCompile(`(?m)^[ \t]*(\d{1,3})[ \t]+([A-Z][A-Z0-9 +/().-]{2,}?)[ \t]+([SRI])[ \t]*$`)
	// B: "AMIKACIN S" (no index)
	antibiogramRowBRx = regexp.MustCompile(`(?m)^[ \t]*([A-Z][A-Z0-9 +/().-]{2,}?)[ \t]+([SRI])[ \t]*$`)
)

// specimenKeywords is scanned in order against the Specimen Desc value;
// the first keyword found wins.
var specimenKeywords = []struct {
	rx       *regexp.Regexp
	specimen entities.SpecimenType
}{
	{regexp.MustCompile(`(?i)\bblood\b`), entities.SpecimenBlood},
	{regexp.MustCompile(`(?i)\burine\b`), entities.SpecimenUrine},
	{regexp.MustCompile(`(?i)\bsputum\b`), entities.SpecimenSputum},
	{regexp.MustCompile(`(?i)\bwound\b`), entities.SpecimenWound},
}

// organismStopTokens truncate an organism line that got merged with a
// following section header.
var organismStopTokens = []string{
	"SENSITIVITIES",
	"SINGLE BLOOD CULTURE",
	"ANTIBIOTIC SUSCEPTIBILITY",
	"ANTIBIOTIC",
	"LEGEND",
	"MICROBIOLOGY",
	"REPORT",
}

// headerDrugNames are rejected as drug candidates by the fallback row
// pattern, which would otherwise match section headers.
var headerDrugNames = map[string]bool{
	"RESULT":       true,
	"LEGEND":       true,
	"MICROBIOLOGY": true,
	"ANTIBIOTIC":   true,
	"S.#":          true,
}

// ParseReport parses raw culture report text into a ParsedReport.
// Specimen classification is strict: only the labeled Specimen Desc
// line counts, never the report body.
func ParseReport(reportText string) entities.ParsedReport {
	text := normalizeLineEndings(reportText)

	specimen := mapSpecimen(extractSpecimenDesc(text))
	organisms := extractOrganisms(text)
	overallNotes := extractOverallNotes(text)
	antibiogram := extractAntibiogram(text)

	var findings []entities.OrganismFinding
	if len(organisms) > 0 {
		// The same antibiogram is attached to every organism; basic
		// reports carry one shared table.
		for _, org := range organisms {
			findings = append(findings, entities.OrganismFinding{
				Organism: org,
				AST:      antibiogram,
			})
		}
	} else {
		findings = append(findings, entities.OrganismFinding{
			Organism: "Unknown",
			AST:      antibiogram,
			Notes:    []string{"Organism not detected by parser"},
		})
	}

	return entities.ParsedReport{
		Specimen:     specimen,
		Organisms:    findings,
		OverallNotes: overallNotes,
	}
}

// extractSpecimenDesc returns the value of the first Specimen Desc
// line, or "" when the report has none.
func extractSpecimenDesc(text string) string {
	m := specimenDescRx.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	line, _, _ := strings.Cut(m[1], "\n")
	return strings.TrimSpace(line)
}

func mapSpecimen(specimenDesc string) entities.SpecimenType {
	if specimenDesc == "" {
		return entities.SpecimenOther
	}
	for _, kw := range specimenKeywords {
		if kw.rx.MatchString(specimenDesc) {
			return kw.specimen
		}
	}
	return entities.SpecimenOther
}

// extractOrganisms collects organism names from numbered list lines,
// deduplicated case-insensitively in first-seen order.
func extractOrganisms(text string) []string {
	var organisms []string

	for _, m := range organismLineRx.FindAllStringSubmatch(text, -1) {
		raw := strings.TrimSpace(m[1])

		// A line merged with a later section keeps only the name part.
		up := strings.ToUpper(raw)
		for _, tok := range organismStopTokens {
			if idx := strings.Index(up, tok); idx > 0 {
				raw = strings.TrimSpace(raw[:idx])
				break
			}
		}

		raw = normalizeSpaces(raw)

		// E. coli variants collapse to one canonical form before the
		// general title-casing, which would mangle the abbreviation.
		if ecoliRx.MatchString(raw) {
			organisms = append(organisms, "E. coli")
			continue
		}

		org := normalizeOrganismName(titleCaser.String(strings.ToLower(raw)))
		if org != "" {
			organisms = append(organisms, org)
		}
	}

	seen := make(map[string]bool)
	var out []string
	for _, o := range organisms {
		key := strings.ToLower(o)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, o)
	}

	return out
}

// extractOverallNotes captures the free text between "Result :" and the
// ANTIBIOTIC header, minus numbered organism lines and obvious headers.
func extractOverallNotes(text string) []string {
	m := resultBlockRx.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	block := numberedLineRx.ReplaceAllString(m[1], "")

	var notes []string
	for _, line := range strings.Split(block, "\n") {
		line = normalizeSpaces(line)
		if line == "" {
			continue
		}
		switch strings.ToLower(line) {
		case "microbiology", "result":
			continue
		}
		notes = append(notes, line)
	}

	return notes
}

// extractAntibiogram extracts susceptibility rows, trying the indexed
// row pattern first and falling back to the unindexed one only when the
// indexed pattern matched nothing. Rows are deduplicated by normalized
// drug name, first occurrence wins.
func extractAntibiogram(text string) []entities.ASTResult {
	var rows []entities.ASTResult

	addRow := func(drugRaw, sirRaw, evidence string) {
		rows = append(rows, entities.ASTResult{
			Drug:         normalizeDrugName(drugRaw),
			SIR:          mapSIR(sirRaw),
			EvidenceLine: strings.TrimSpace(evidence),
		})
	}

	for _, m := range antibiogramRowARx.FindAllStringSubmatch(text, -1) {
		addRow(m[2], m[3], m[0])
	}

	if len(rows) == 0 {
		for _, m := range antibiogramRowBRx.FindAllStringSubmatch(text, -1) {
			if headerDrugNames[strings.ToUpper(strings.TrimSpace(m[1]))] {
				continue
			}
			addRow(m[1], m[2], m[0])
		}
	}

	seen := make(map[string]bool)
	var deduped []entities.ASTResult
	for _, row := range rows {
		key := strings.ToLower(row.Drug)
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, row)
	}

	return deduped
}

func mapSIR(raw string) entities.SIR {
	switch strings.ToUpper(raw) {
	case "S":
		return entities.Susceptible
	case "R":
		return entities.Resistant
	default:
		return entities.Intermediate
	}
}
