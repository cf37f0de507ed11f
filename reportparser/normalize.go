package reportparser

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	spaceRx  = regexp.MustCompile(`\s+`)
	plusRx   = regexp.MustCompile(`\s*\+\s*`)
	hyphenRx = regexp.MustCompile(`\s*-\s*`)

	titleCaser = cases.Title(language.English)
)

// normalizeSpaces collapses runs of whitespace and trims the ends.
func normalizeSpaces(s string) string {
	return strings.TrimSpace(spaceRx.ReplaceAllString(s, " "))
}

// normalizeDrugName is conservative on purpose: collapse extra spaces,
// pad '+' combinations, keep hyphenated combinations tight
// (piperacillin-tazobactam), then title-case.
func normalizeDrugName(drug string) string {
	drug = normalizeSpaces(drug)
	drug = plusRx.ReplaceAllString(drug, " + ")
	drug = hyphenRx.ReplaceAllString(drug, "-")
	return titleCaser.String(strings.ToLower(drug))
}

// normalizeOrganismName fixes the casing of genus-species names the
// title caser gets wrong. More rules get added as new reports surface
// new variants.
func normalizeOrganismName(org string) string {
	org = normalizeSpaces(org)
	org = strings.ReplaceAll(org, "E. Coli", "E. coli")
	org = strings.ReplaceAll(org, "Staphylococcus Aureus", "Staphylococcus aureus")
	return org
}

// normalizeLineEndings converts literal escaped newline sequences (as
// arrive when report text is pasted into a JSON string) and CR/LF
// variants into plain newlines so the line-anchored patterns work.
func normalizeLineEndings(text string) string {
	text = strings.ReplaceAll(text, `\r\n`, "\n")
	text = strings.ReplaceAll(text, `\n`, "\n")
	text = strings.ReplaceAll(text, `\r`, "\n")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return text
}
