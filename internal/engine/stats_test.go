package engine_test

import (
	"reflect"
	"testing"

	"hindsight/internal/domain"
	"hindsight/internal/engine"
)

func reviewedDecision(ctx, outcome string, confidence int) domain.Decision {
	return domain.Decision{
		Context:    ctx,
		Confidence: confidence,
		Review:     &domain.Review{Outcome: outcome},
	}
}

func TestComputeStats(t *testing.T) {
	decisions := []domain.Decision{
		reviewedDecision("career", "success", 8),
		reviewedDecision("career", "success", 6),
		reviewedDecision("personal", "failure", 9),
		reviewedDecision("business", "partial_success", 5),
		{Context: "study", Confidence: 7}, // still pending
	}
	s := engine.ComputeStats(decisions)
	if s.Total != 5 || s.ReviewedCount != 4 {
		t.Fatalf("counts: %+v", s)
	}
	if s.SuccessCount != 2 || s.PartialCount != 1 || s.FailureCount != 1 {
		t.Fatalf("outcome counts: %+v", s)
	}
	if s.FailureRate != 0.25 {
		t.Fatalf("failure rate: %v", s.FailureRate)
	}
	if s.AvgConfidence != 7 {
		t.Fatalf("avg confidence: %v", s.AvgConfidence)
	}
	wantOutcomes := map[string]int{
		"pending":         1,
		"success":         2,
		"partial_success": 1,
		"failure":         1,
	}
	if !reflect.DeepEqual(s.ByOutcome, wantOutcomes) {
		t.Fatalf("by outcome: %v", s.ByOutcome)
	}
	if s.ByContext["career"] != 2 || s.ByContext["study"] != 1 {
		t.Fatalf("by context: %v", s.ByContext)
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	s := engine.ComputeStats(nil)
	if s.Total != 0 || s.ReviewedCount != 0 {
		t.Fatalf("expected zero counts: %+v", s)
	}
	// no reviews means rate 0, not NaN
	if s.FailureRate != 0 || s.AvgConfidence != 0 {
		t.Fatalf("expected zero rates: %+v", s)
	}
	for _, outcome := range []string{"pending", "success", "partial_success", "failure"} {
		if _, ok := s.ByOutcome[outcome]; !ok {
			t.Fatalf("histogram missing bucket %s", outcome)
		}
	}
}

func TestComputeStatsPure(t *testing.T) {
	decisions := []domain.Decision{
		reviewedDecision("career", "failure", 3),
		{Context: "other", Confidence: 4},
	}
	first := engine.ComputeStats(decisions)
	second := engine.ComputeStats(decisions)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("stats not deterministic: %+v vs %+v", first, second)
	}
}
