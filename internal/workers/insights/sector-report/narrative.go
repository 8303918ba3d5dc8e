package sectorreport

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"sector-insights/internal/pipeline/sampler"
)

// NarrativeRequestor turns a sample into summary text.
type NarrativeRequestor struct {
	generator NarrativeGenerator
	modelID   string
	maxTokens int
}

func NewNarrativeRequestor(generator NarrativeGenerator, modelID string, maxTokens int) *NarrativeRequestor {
	return &NarrativeRequestor{generator: generator, modelID: modelID, maxTokens: maxTokens}
}

// Request returns the generated narrative and true, or the fallback text and
// false when items is empty. The generator is never called for an empty sample.
func (n *NarrativeRequestor) Request(ctx context.Context, items []sampler.SampleItem, q sampler.Query) (string, bool, error) {
	if len(items) == 0 {
		return FallbackNarrative(q), false, nil
	}

	prompt, err := buildPrompt(items, q)
	if err != nil {
		return "", false, err
	}

	text, err := n.generator.Generate(ctx, n.modelID, prompt, n.maxTokens)
	if err != nil {
		return "", true, err
	}
	return text, true, nil
}

// FallbackNarrative is used when no records matched.
func FallbackNarrative(q sampler.Query) string {
	return fmt.Sprintf("No records found for sector '%s' in '%s'.", q.Sector, q.State)
}

func buildPrompt(items []sampler.SampleItem, q sampler.Query) (string, error) {
	sample, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode sample: %w", err)
	}

	var parts []string
	parts = append(parts, "You are a SPM Consultant.")
	parts = append(parts, fmt.Sprintf("Target sector: %s. Target state: %s.", q.Sector, q.State))
	parts = append(parts, fmt.Sprintf("Analyze these companies: %s.", sample))
	parts = append(parts, "Provide a 2-paragraph executive summary in English about why this specific "+
		"sector needs automated sales incentive solutions. Professional tone.")

	return strings.Join(parts, "\n"), nil
}
