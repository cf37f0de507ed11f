// Package pipeline sequences one analyze request through parsing,
// safety gating, ranking and regimen selection, producing exactly one
// terminal status. Clinical ambiguity (missing inputs, polymicrobial
// cultures, catalog gaps) is modeled as explicit terminal states, never
// as errors: every run yields an inspectable RecommendationPackage.
package pipeline

import (
	"context"
	"fmt"

	"github.com/aura-cds/antibiogram-api/dosing"
	"github.com/aura-cds/antibiogram-api/entities"
	"github.com/aura-cds/antibiogram-api/interfaces"
	"github.com/aura-cds/antibiogram-api/logging"
	"github.com/aura-cds/antibiogram-api/metrics"
	"github.com/aura-cds/antibiogram-api/ranking"
	"github.com/aura-cds/antibiogram-api/reportparser"
)

// SafetyNote accompanies every response.
const SafetyNote = "Decision support only. Confirm diagnosis, source control, allergies and renal function with the treating clinician before prescribing."

// Pipeline runs the report-to-recommendation sequence against the
// loaded clinical knowledge. Narrator is optional; nil disables the
// post-assembly explanation step.
type Pipeline struct {
	store    interfaces.DataStore
	narrator interfaces.Narrator
}

// New creates a pipeline over the given data store.
func New(store interfaces.DataStore, narrator interfaces.Narrator) *Pipeline {
	return &Pipeline{store: store, narrator: narrator}
}

// Analyze runs one request through the state machine:
// Parsing → Gating → (needs_review | needs_more_info) or
// Ranking → Dosing → (recommendation_ready | no_safe_option).
func (p *Pipeline) Analyze(ctx context.Context, req entities.AnalyzeRequest) entities.AnalyzeResponse {
	debug := map[string]any{}

	parsed := reportparser.ParseReport(req.ReportText)
	if req.Debug {
		debug["extract"] = map[string]any{
			"specimen":            parsed.Specimen,
			"specimen_hint":       req.SpecimenHint,
			"organism_count":      len(parsed.Organisms),
			"overall_notes_count": len(parsed.OverallNotes),
		}
	}

	missing := dosing.MissingDosingInfo(req.Patient)

	// Polymicrobial cultures always go to clinician review; no ranking
	// or dosing is attempted.
	if len(parsed.Organisms) > 1 {
		rec := entities.RecommendationPackage{
			Alternatives: []entities.Regimen{},
			Rationale: []string{
				"Multiple organisms detected in culture; regimen depends on coverage strategy and clinical context.",
			},
			Warnings:    []string{"Polymicrobial cultures require clinician review."},
			MissingInfo: append(missing, "confirm source control and clinical syndrome"),
		}
		return p.finish(req, entities.StatusNeedsReview, parsed, nil, rec, debug)
	}

	if len(missing) > 0 {
		rec := entities.RecommendationPackage{
			Alternatives: []entities.Regimen{},
			Rationale: []string{
				"Antibiotic options can be ranked from susceptibility, but dosing/route/duration needs missing clinical inputs.",
			},
			Warnings: []string{
				"Do not finalize antibiotic dosing without allergy + renal function + syndrome/source.",
			},
			MissingInfo: missing,
		}
		return p.finish(req, entities.StatusNeedsMoreInfo, parsed, nil, rec, debug)
	}

	ranker := p.selectRanker()
	metrics.RankerRequestsTotal.WithLabelValues(ranker.Name()).Inc()

	ranked := ranker.Rank(parsed, req.Patient)
	if req.Debug {
		rankDebug := map[string]any{
			"strategy":     ranker.Name(),
			"ranked_drugs": rankedDrugNames(ranked),
		}
		if len(ranked) > 0 {
			rankDebug["top_score"] = ranked[0].Score
		}
		debug["rank"] = rankDebug
	}

	primary, alternatives := dosing.BuildRegimenPackage(p.store.GetCatalog(), rankedDrugNames(ranked), req.Patient)
	if req.Debug {
		debug["dose"] = map[string]any{
			"primary_found":      primary != nil,
			"alternatives_count": len(alternatives),
		}
	}

	if primary == nil {
		rec := entities.RecommendationPackage{
			Alternatives: []entities.Regimen{},
			Rationale: []string{
				"No dosing catalog entry found for ranked options. Add rows for these drugs/indications.",
			},
			Warnings:    []string{"Expand dosing catalog coverage."},
			MissingInfo: []string{},
		}
		return p.finish(req, entities.StatusNoSafeOption, parsed, ranked, rec, debug)
	}

	rec := entities.RecommendationPackage{
		Primary:      primary,
		Alternatives: alternatives,
		Rationale: []string{
			fmt.Sprintf("Primary regimen selected from susceptibility-ranked options: %s.", primary.Drug),
			"Dose/route/duration derived from the dosing catalog.",
		},
		Warnings: []string{
			"Clinical decision support only; confirm diagnosis/source and monitor response.",
		},
		MissingInfo: []string{},
	}

	rec = p.narrate(ctx, parsed, ranked, rec)

	return p.finish(req, entities.StatusRecommendationReady, parsed, ranked, rec, debug)
}

// selectRanker picks the strategy for this request: the trained model
// when an artifact is loaded, the deterministic rules otherwise. The
// two are mutually exclusive per call.
func (p *Pipeline) selectRanker() interfaces.Ranker {
	if model := p.store.GetModel(); model != nil {
		return ranking.NewModelRanker(model)
	}
	return ranking.RuleRanker{}
}

// narrate appends an optional free-text explanation to the rationale.
// The narrator can only ever add rationale text: failures leave the
// package exactly as assembled.
func (p *Pipeline) narrate(ctx context.Context, parsed entities.ParsedReport, ranked []entities.RankedOption, rec entities.RecommendationPackage) entities.RecommendationPackage {
	if p.narrator == nil || rec.Primary == nil {
		return rec
	}

	text, err := p.narrator.Explain(ctx, parsed, ranked, rec)
	if err != nil {
		logging.Warn("Narration failed, returning recommendation without explanation", "error", err)
		return rec
	}
	if text != "" {
		rec.Rationale = append(rec.Rationale, text)
	}
	return rec
}

func (p *Pipeline) finish(req entities.AnalyzeRequest, status entities.AnalyzeStatus, parsed entities.ParsedReport, ranked []entities.RankedOption, rec entities.RecommendationPackage, debug map[string]any) entities.AnalyzeResponse {
	metrics.AnalyzeStatusTotal.WithLabelValues(string(status)).Inc()

	if ranked == nil {
		ranked = []entities.RankedOption{}
	}

	resp := entities.AnalyzeResponse{
		Status:         status,
		ParsedReport:   parsed,
		RankedOptions:  ranked,
		Recommendation: rec,
		SafetyNote:     SafetyNote,
	}
	if req.Debug {
		resp.Debug = debug
	}
	return resp
}

func rankedDrugNames(ranked []entities.RankedOption) []string {
	names := make([]string, 0, len(ranked))
	for _, r := range ranked {
		names = append(names, r.Drug)
	}
	return names
}
