package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"hindsight/internal/domain"
)

const systemPrompt = `You are a cognitive psychologist and decision scientist analyzing a personal decision log.
Identify repeating patterns in the user's decision-making logic, common cognitive biases (such as overconfidence, sunk cost, or confirmation bias), and generate reflective questions.
Do not tell the user what to decide next.
Highlight if they frequently get assumptions wrong.
Identify if their confidence level correlates with success or failure.
Respond with a single JSON object: {"patterns": [...], "cognitive_biases": [...], "suggested_reflections": [...]} where each field is an array of strings.`

// loggedDecision is the trimmed view of a decision sent to the provider.
type loggedDecision struct {
	Title       string              `json:"title"`
	Context     string              `json:"context"`
	Confidence  int                 `json:"confidence"`
	Outcome     string              `json:"outcome"`
	Assumptions []domain.Assumption `json:"assumptions,omitempty"`
	Lessons     string              `json:"lessons,omitempty"`
}

// Analyzer asks an LLM provider for patterns across reviewed decisions.
// It never fails: any provider or parse problem degrades to a placeholder
// result so journaling keeps working without analysis.
type Analyzer struct {
	Provider  Provider
	Threshold int
	Timeout   time.Duration
	Logger    *log.Logger
}

func (a Analyzer) Analyze(ctx context.Context, decisions []domain.Decision) domain.Insight {
	if len(decisions) == 0 {
		return domain.Insight{
			Patterns:             []string{},
			CognitiveBiases:      []string{},
			SuggestedReflections: []string{"Start tracking decisions to see patterns."},
		}
	}
	var reviewed []loggedDecision
	for _, d := range decisions {
		if d.Review == nil {
			continue
		}
		reviewed = append(reviewed, loggedDecision{
			Title:       d.Title,
			Context:     d.Context,
			Confidence:  d.Confidence,
			Outcome:     d.Review.Outcome,
			Assumptions: d.Assumptions,
			Lessons:     d.Review.Lessons,
		})
	}
	threshold := a.Threshold
	if threshold <= 0 {
		threshold = 1
	}
	if a.Provider == nil || len(reviewed) < threshold {
		return fallback()
	}

	payload, err := json.Marshal(reviewed)
	if err != nil {
		a.logf("insight: marshal decision log: %v", err)
		return fallback()
	}
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}
	resp, err := a.Provider.Complete(ctx, &Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   fmt.Sprintf("User decision log:\n%s", payload),
	})
	if err != nil {
		a.logf("insight: provider call failed: %v", err)
		return fallback()
	}
	result, err := parseInsight(resp.Content)
	if err != nil {
		a.logf("insight: %v", err)
		return fallback()
	}
	return result
}

func (a Analyzer) logf(format string, args ...any) {
	if a.Logger != nil {
		a.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

func fallback() domain.Insight {
	return domain.Insight{
		Patterns:             []string{"Unable to analyze patterns at this time."},
		CognitiveBiases:      []string{},
		SuggestedReflections: []string{"Take some time to manually review your failed assumptions."},
	}
}

// parseInsight extracts the JSON object from the provider output, tolerating
// surrounding prose or markdown fences.
func parseInsight(content string) (domain.Insight, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return domain.Insight{}, fmt.Errorf("no JSON object in provider output: %s", truncate(content, 200))
	}
	var in domain.Insight
	if err := json.Unmarshal([]byte(content[start:end+1]), &in); err != nil {
		return domain.Insight{}, fmt.Errorf("parse provider output: %w", err)
	}
	if in.Patterns == nil {
		in.Patterns = []string{}
	}
	if in.CognitiveBiases == nil {
		in.CognitiveBiases = []string{}
	}
	if in.SuggestedReflections == nil {
		in.SuggestedReflections = []string{}
	}
	return in, nil
}
