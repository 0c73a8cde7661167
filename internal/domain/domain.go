package domain

import "fmt"

const (
	ContextPersonal = "personal"
	ContextCareer   = "career"
	ContextBusiness = "business"
	ContextStudy    = "study"
	ContextOther    = "other"
)

const (
	OutcomePending        = "pending"
	OutcomeSuccess        = "success"
	OutcomePartialSuccess = "partial_success"
	OutcomeFailure        = "failure"
)

type Option struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Pros []string `json:"pros,omitempty"`
	Cons []string `json:"cons,omitempty"`
}

type Assumption struct {
	ID         string `json:"id"`
	Statement  string `json:"statement"`
	WasCorrect *bool  `json:"was_correct,omitempty"`
}

type Review struct {
	Outcome      string `json:"outcome" enum:"success,partial_success,failure"`
	WhatHappened string `json:"what_happened"`
	Lessons      string `json:"lessons,omitempty"`
	ReviewedAt   string `json:"reviewed_at" format:"date-time"`
}

type Decision struct {
	ID             string       `json:"id"`
	OwnerID        string       `json:"owner_id"`
	Title          string       `json:"title"`
	Context        string       `json:"context" enum:"personal,career,business,study,other"`
	Options        []Option     `json:"options"`
	ChosenOptionID string       `json:"chosen_option_id"`
	Reasoning      string       `json:"reasoning,omitempty"`
	Confidence     int          `json:"confidence" minimum:"1" maximum:"10"`
	Assumptions    []Assumption `json:"assumptions,omitempty"`
	TargetDate     string       `json:"target_date" format:"date"`
	Review         *Review      `json:"review,omitempty"`
	CreatedAt      string       `json:"created_at" format:"date-time"`
	UpdatedAt      string       `json:"updated_at" format:"date-time"`
}

// Outcome reports the decision's histogram bucket. Unreviewed decisions
// count as pending.
func (d Decision) Outcome() string {
	if d.Review == nil {
		return OutcomePending
	}
	return d.Review.Outcome
}

type Stats struct {
	Total         int            `json:"total"`
	ReviewedCount int            `json:"reviewed_count"`
	SuccessCount  int            `json:"success_count"`
	PartialCount  int            `json:"partial_count"`
	FailureCount  int            `json:"failure_count"`
	FailureRate   float64        `json:"failure_rate"`
	AvgConfidence float64        `json:"avg_confidence"`
	ByOutcome     map[string]int `json:"by_outcome"`
	ByContext     map[string]int `json:"by_context"`
}

type Insight struct {
	Patterns             []string `json:"patterns"`
	CognitiveBiases      []string `json:"cognitive_biases"`
	SuggestedReflections []string `json:"suggested_reflections"`
}

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email" format:"email"`
	Name         string `json:"name,omitempty"`
	PasswordHash string `json:"-"`
	CreatedAt    string `json:"created_at" format:"date-time"`
}

type APIKey struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	OwnerID    string `json:"owner_id"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	Payload    string `json:"payload_json"`
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func ValidContext(c string) bool {
	switch c {
	case ContextPersonal, ContextCareer, ContextBusiness, ContextStudy, ContextOther:
		return true
	}
	return false
}

func ValidReviewOutcome(o string) bool {
	switch o {
	case OutcomeSuccess, OutcomePartialSuccess, OutcomeFailure:
		return true
	}
	return false
}
