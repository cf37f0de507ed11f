// Package ranking scores parsed susceptibility records into an ordered
// candidate list. Two interchangeable strategies exist behind one
// contract: a deterministic rule ranker and a trained-probability
// ranker. Both exclude resistant drugs unconditionally, sort descending
// by score with stable ties, and cap output at five candidates.
package ranking

import (
	"sort"
	"strings"

	"github.com/aura-cds/antibiogram-api/entities"
)

// maxRankedOptions caps how many candidates either strategy returns.
const maxRankedOptions = 5

// broadSpectrumPenalty is the stewardship penalty subtracted from the
// base score of broad-spectrum agents, keyed by canonical lowercase
// drug name. Drugs not listed carry no penalty.
var broadSpectrumPenalty = map[string]float64{
	"meropenem":               0.15,
	"imipenem-cilastatin":     0.15,
	"piperacillin-tazobactam": 0.08,
	"vancomycin":              0.05,
}

// RuleRanker is the deterministic fallback strategy used when no
// trained model artifact is available.
type RuleRanker struct{}

// Rank scores the first organism's susceptibility records: 0.8 base for
// susceptible, 0.55 for intermediate, minus the stewardship penalty,
// clamped to [0,1]. Resistant records never produce a candidate.
func (RuleRanker) Rank(parsed entities.ParsedReport, patient entities.Patient) []entities.RankedOption {
	if len(parsed.Organisms) == 0 || len(parsed.Organisms[0].AST) == 0 {
		return nil
	}

	var ranked []entities.RankedOption
	for _, r := range parsed.Organisms[0].AST {
		if r.SIR == entities.Resistant {
			continue
		}

		base := 0.55
		if r.SIR == entities.Susceptible {
			base = 0.8
		}
		penalty := broadSpectrumPenalty[strings.ToLower(r.Drug)]
		score := clamp01(base - penalty)

		var why []string
		switch r.SIR {
		case entities.Susceptible:
			why = append(why, "Reported susceptible (S) on culture report.")
		case entities.Intermediate:
			why = append(why, "Reported intermediate (I); consider only if limited options.")
		}
		if penalty > 0 {
			why = append(why, "Spectrum stewardship penalty applied (broader agent).")
		}

		ranked = append(ranked, entities.RankedOption{
			Drug:       r.Drug,
			Score:      score,
			Why:        why,
			SIRSummary: string(r.SIR),
			MICSummary: r.MIC,
			Warnings:   []string{},
		})
	}

	return sortAndTruncate(ranked)
}

// Name identifies the strategy in debug output and metrics.
func (RuleRanker) Name() string { return "rules" }

// sortAndTruncate orders candidates by score descending, keeping the
// original encounter order on ties, and caps the list.
func sortAndTruncate(ranked []entities.RankedOption) []entities.RankedOption {
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > maxRankedOptions {
		ranked = ranked[:maxRankedOptions]
	}
	return ranked
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
