package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aura-cds/antibiogram-api/entities"
	"github.com/aura-cds/antibiogram-api/interfaces"
)

// Compile-time check to ensure ChatNarrator implements Narrator
var _ interfaces.Narrator = (*ChatNarrator)(nil)

const narratorSystemPrompt = `You are a medical expert specializing in antibiotic recommendations and resistance patterns.
Provide a clear, evidence-based explanation of the recommended antibiotic regimen, including:
1. Why this drug was selected based on susceptibility
2. How the dosing and route are appropriate
3. Why alternatives were not chosen
4. Any important considerations or monitoring needed

Keep the explanation concise and clinically focused.`

// ChatNarrator calls an OpenAI-compatible chat completion endpoint to
// narrate a finalized recommendation. Every call is bounded by the
// configured timeout so narration latency never blocks the pipeline
// beyond it.
type ChatNarrator struct {
	url    string
	apiKey string
	model  string
	client *http.Client
}

// NewChatNarrator creates a narrator against the given endpoint.
func NewChatNarrator(url, apiKey, model string, timeout time.Duration) *ChatNarrator {
	return &ChatNarrator{
		url:    url,
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Explain narrates the recommendation. The input is built from the
// already-assembled package; the response text is returned as-is and
// the caller decides whether to append it.
func (n *ChatNarrator) Explain(ctx context.Context, parsed entities.ParsedReport, ranked []entities.RankedOption, rec entities.RecommendationPackage) (string, error) {
	if rec.Primary == nil || len(parsed.Organisms) == 0 {
		return "", nil
	}

	body, err := json.Marshal(chatRequest{
		Model:       n.model,
		Temperature: 0.2,
		Messages: []chatMessage{
			{Role: "system", Content: narratorSystemPrompt},
			{Role: "user", Content: buildNarrationInput(parsed, ranked, rec)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode narration request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build narration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("narration request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("narration endpoint returned status %d", resp.StatusCode)
	}

	var parsedResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsedResp); err != nil {
		return "", fmt.Errorf("failed to decode narration response: %w", err)
	}
	if len(parsedResp.Choices) == 0 {
		return "", fmt.Errorf("narration response contained no choices")
	}

	return strings.TrimSpace(parsedResp.Choices[0].Message.Content), nil
}

// buildNarrationInput lays out the structured context the narrator
// explains from.
func buildNarrationInput(parsed entities.ParsedReport, ranked []entities.RankedOption, rec entities.RecommendationPackage) string {
	var alternatives []string
	for _, a := range rec.Alternatives {
		alternatives = append(alternatives, a.Drug)
	}
	altText := strings.Join(alternatives, ", ")
	if altText == "" {
		altText = "None"
	}

	var susceptibility []string
	for _, r := range ranked {
		susceptibility = append(susceptibility, fmt.Sprintf("%s: %s", r.Drug, r.SIRSummary))
	}

	return fmt.Sprintf(`Organism: %s
Specimen: %s

Primary regimen:
- Drug: %s
- Route: %s
- Dose: %s
- Frequency: %s
- Duration: %s

Alternatives:
%s

Susceptibility summary:
%s
`,
		parsed.Organisms[0].Organism,
		parsed.Specimen,
		rec.Primary.Drug,
		rec.Primary.Route,
		rec.Primary.Dose,
		rec.Primary.Frequency,
		rec.Primary.Duration,
		altText,
		strings.Join(susceptibility, ", "),
	)
}
