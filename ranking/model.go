package ranking

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aura-cds/antibiogram-api/entities"
)

// SusceptibilityModel is the trained probability artifact produced by
// the offline training job: a table of P(susceptible) per
// (organism, drug) pair, with optional per-drug priors for pairs the
// training data never saw. The ranking engine treats it as an opaque
// handle with one batch-predict operation.
type SusceptibilityModel struct {
	pairs      map[string]float64
	drugPriors map[string]float64
}

// modelFile is the on-disk JSON layout of the artifact.
type modelFile struct {
	Pairs []struct {
		Organism    string  `json:"organism"`
		Drug        string  `json:"drug"`
		Probability float64 `json:"probability"`
	} `json:"pairs"`
	DrugPriors map[string]float64 `json:"drug_priors,omitempty"`
}

// FeatureRow is one (organism, drug) pair submitted for prediction.
// Both fields are expected in canonical lowercase form.
type FeatureRow struct {
	Organism string
	Drug     string
}

// NewSusceptibilityModel builds a model directly from in-memory
// probability tables. Keys are canonicalized the same way LoadModel
// canonicalizes the artifact.
func NewSusceptibilityModel(pairs map[FeatureRow]float64, drugPriors map[string]float64) *SusceptibilityModel {
	m := &SusceptibilityModel{
		pairs:      make(map[string]float64, len(pairs)),
		drugPriors: make(map[string]float64, len(drugPriors)),
	}
	for row, prob := range pairs {
		m.pairs[pairKey(row.Organism, row.Drug)] = prob
	}
	for drug, prob := range drugPriors {
		m.drugPriors[canonField(drug)] = prob
	}
	return m
}

// LoadModel reads a model artifact from path. A missing file is not an
// error: it returns (nil, nil), signalling the rule strategy. A present
// but unreadable or empty artifact is a resource fault.
func LoadModel(path string) (*SusceptibilityModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read model artifact %s: %w", path, err)
	}

	var mf modelFile
	if err := json.Unmarshal(raw, &mf); err != nil {
		return nil, fmt.Errorf("malformed model artifact %s: %w", path, err)
	}
	if len(mf.Pairs) == 0 {
		return nil, fmt.Errorf("model artifact %s contains no probability pairs", path)
	}

	m := &SusceptibilityModel{
		pairs:      make(map[string]float64, len(mf.Pairs)),
		drugPriors: make(map[string]float64, len(mf.DrugPriors)),
	}
	for _, p := range mf.Pairs {
		m.pairs[pairKey(p.Organism, p.Drug)] = p.Probability
	}
	for drug, prob := range mf.DrugPriors {
		m.drugPriors[canonField(drug)] = prob
	}

	return m, nil
}

// PredictBatch returns P(susceptible) for each feature row. Pairs
// absent from the table fall back to the drug prior, then to 0.5.
func (m *SusceptibilityModel) PredictBatch(rows []FeatureRow) []float64 {
	probs := make([]float64, len(rows))
	for i, row := range rows {
		org := canonField(row.Organism)
		drug := canonField(row.Drug)

		if p, ok := m.pairs[pairKey(org, drug)]; ok {
			probs[i] = p
		} else if p, ok := m.drugPriors[drug]; ok {
			probs[i] = p
		} else {
			probs[i] = 0.5
		}
	}
	return probs
}

func pairKey(organism, drug string) string {
	return canonField(organism) + "|" + canonField(drug)
}

func canonField(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ModelRanker ranks by predicted probability of susceptibility.
type ModelRanker struct {
	model *SusceptibilityModel
}

// NewModelRanker wraps a loaded model artifact as a ranking strategy.
func NewModelRanker(model *SusceptibilityModel) *ModelRanker {
	return &ModelRanker{model: model}
}

// Rank builds one feature row per non-resistant record of the first
// organism, scores each by predicted probability clamped to [0,1], and
// keeps the reported S/I value in the rationale for transparency.
func (mr *ModelRanker) Rank(parsed entities.ParsedReport, patient entities.Patient) []entities.RankedOption {
	if len(parsed.Organisms) == 0 || len(parsed.Organisms[0].AST) == 0 {
		return nil
	}

	organism := canonField(parsed.Organisms[0].Organism)

	var rows []FeatureRow
	var keep []entities.ASTResult
	for _, r := range parsed.Organisms[0].AST {
		if r.SIR == entities.Resistant {
			continue
		}
		rows = append(rows, FeatureRow{Organism: organism, Drug: canonField(r.Drug)})
		keep = append(keep, r)
	}
	if len(rows) == 0 {
		return nil
	}

	probs := mr.model.PredictBatch(rows)

	var ranked []entities.RankedOption
	for i, r := range keep {
		p := clamp01(probs[i])

		why := []string{fmt.Sprintf("ML predicted susceptibility probability: %.2f.", p)}
		switch r.SIR {
		case entities.Susceptible:
			why = append(why, "Culture report shows Sensitive (S).")
		case entities.Intermediate:
			why = append(why, "Culture report shows Intermediate (I).")
		}

		ranked = append(ranked, entities.RankedOption{
			Drug:       r.Drug,
			Score:      p,
			Why:        why,
			SIRSummary: string(r.SIR),
			MICSummary: r.MIC,
			Warnings:   []string{},
		})
	}

	return sortAndTruncate(ranked)
}

// Name identifies the strategy in debug output and metrics.
func (*ModelRanker) Name() string { return "ml" }
