// Package dosing loads the dosing catalog and selects regimens for
// ranked drugs, gated by mandatory patient attributes. The catalog is
// an external read-only data source: rows are surfaced verbatim and a
// missing or schema-violating file is a fatal load error, since no safe
// default dose exists.
package dosing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/aura-cds/antibiogram-api/logging"
)

// CatalogRow is one regimen entry of the dosing catalog file.
type CatalogRow struct {
	Drug            string
	Indication      string
	Route           string
	StandardDose    string
	Frequency       string
	TypicalDuration string
	Source          string
	Notes           string
}

// requiredColumns must all be present in the catalog header row.
var requiredColumns = []string{
	"drug",
	"indication",
	"route",
	"standard_dose",
	"frequency",
	"typical_duration",
	"source",
}

// LoadCatalog reads the dosing catalog CSV. File order is preserved
// because row selection ties break on first match.
func LoadCatalog(path string) ([]CatalogRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dosing catalog %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("Failed to close dosing catalog file", "error", err)
		}
	}()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read dosing catalog header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("dosing catalog %s is missing required column %q", path, name)
		}
	}

	field := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var rows []CatalogRow
	skippedShortRows := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read dosing catalog row: %w", err)
		}

		row := CatalogRow{
			Drug:            field(record, "drug"),
			Indication:      field(record, "indication"),
			Route:           field(record, "route"),
			StandardDose:    field(record, "standard_dose"),
			Frequency:       field(record, "frequency"),
			TypicalDuration: field(record, "typical_duration"),
			Source:          field(record, "source"),
			Notes:           field(record, "notes"),
		}
		if row.Drug == "" {
			skippedShortRows++
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("dosing catalog %s contains no usable rows", path)
	}
	if skippedShortRows > 0 {
		logging.Info("Dosing catalog skip statistics",
			"rows_without_drug", skippedShortRows,
			"rows_loaded", len(rows))
	}

	logging.Info("Dosing catalog loaded", "rows", len(rows), "path", path)
	return rows, nil
}

var nonAlnumRx = regexp.MustCompile(`[^a-z0-9\s]`)

// Canon canonicalizes a drug or syndrome string so formatting
// differences don't break matching. Transformation order matters and is
// shared by every matching path: lowercase, then map '+', '/', '-' to
// spaces, then strip remaining non-alphanumerics, then collapse
// whitespace.
func Canon(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "+", " ")
	s = strings.ReplaceAll(s, "/", " ")
	s = strings.ReplaceAll(s, "-", " ")
	s = nonAlnumRx.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// matchRowsForDrug filters catalog rows to the given drug and partitions
// by indication: rows whose indication matches the syndrome (equal,
// substring either way) are preferred; rows with no indication at all
// serve as the generic fallback.
func matchRowsForDrug(rows []CatalogRow, drug, syndrome string) []CatalogRow {
	drugKey := Canon(drug)
	syndromeKey := Canon(syndrome)

	var exact, generic []CatalogRow
	for _, row := range rows {
		if Canon(row.Drug) != drugKey {
			continue
		}

		indication := Canon(row.Indication)
		switch {
		case indication == "":
			generic = append(generic, row)
		case indication == syndromeKey ||
			strings.Contains(indication, syndromeKey) ||
			strings.Contains(syndromeKey, indication):
			exact = append(exact, row)
		}
	}

	if len(exact) > 0 {
		return exact
	}
	return generic
}
