package engine

import (
	"context"

	"hindsight/internal/domain"
	"hindsight/internal/repo"
)

// ComputeStats aggregates a set of decisions. It reads nothing and writes
// nothing; the same input always yields the same Stats. With no reviewed
// decisions the failure rate is 0, not NaN.
func ComputeStats(decisions []domain.Decision) domain.Stats {
	s := domain.Stats{
		ByOutcome: map[string]int{
			domain.OutcomePending:        0,
			domain.OutcomeSuccess:        0,
			domain.OutcomePartialSuccess: 0,
			domain.OutcomeFailure:        0,
		},
		ByContext: map[string]int{},
	}
	confidence := 0
	for _, d := range decisions {
		s.Total++
		confidence += d.Confidence
		s.ByContext[d.Context]++
		outcome := d.Outcome()
		s.ByOutcome[outcome]++
		switch outcome {
		case domain.OutcomeSuccess:
			s.SuccessCount++
		case domain.OutcomePartialSuccess:
			s.PartialCount++
		case domain.OutcomeFailure:
			s.FailureCount++
		}
	}
	s.ReviewedCount = s.SuccessCount + s.PartialCount + s.FailureCount
	if s.ReviewedCount > 0 {
		s.FailureRate = float64(s.FailureCount) / float64(s.ReviewedCount)
	}
	if s.Total > 0 {
		s.AvgConfidence = float64(confidence) / float64(s.Total)
	}
	return s
}

// Stats aggregates over everything the owner has recorded.
func (e Engine) Stats(ctx context.Context, ownerID string) (domain.Stats, error) {
	decisions, err := e.Repo.ListDecisions(ctx, ownerID, repo.DecisionFilters{})
	if err != nil {
		return domain.Stats{}, err
	}
	return ComputeStats(decisions), nil
}
