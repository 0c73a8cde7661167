package server

import (
	"time"

	"hindsight/internal/domain"
	"hindsight/internal/engine"
)

// Request payloads

type RegisterRequest struct {
	Email    string `json:"email" format:"email"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email" format:"email"`
	Password string `json:"password"`
}

type OptionRequest struct {
	Name string   `json:"name"`
	Pros []string `json:"pros,omitempty"`
	Cons []string `json:"cons,omitempty"`
}

type AssumptionRequest struct {
	Statement string `json:"statement"`
}

type CreateDecisionRequest struct {
	Title          string              `json:"title"`
	Context        string              `json:"context" enum:"personal,career,business,study,other"`
	Options        []OptionRequest     `json:"options"`
	ChosenOptionID *string             `json:"chosen_option_id,omitempty"`
	Reasoning      *string             `json:"reasoning,omitempty"`
	Confidence     int                 `json:"confidence" minimum:"1" maximum:"10"`
	Assumptions    []AssumptionRequest `json:"assumptions,omitempty"`
	TargetDate     string              `json:"target_date" format:"date"`
}

type ReviewDecisionRequest struct {
	Outcome      string          `json:"outcome" enum:"success,partial_success,failure"`
	WhatHappened string          `json:"what_happened"`
	Lessons      string          `json:"lessons"`
	Assumptions  map[string]bool `json:"assumptions,omitempty"`
}

type CreateKeyRequest struct {
	Name string `json:"name,omitempty"`
}

// Response payloads

type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email" format:"email"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type TokenResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type OptionResponse struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Pros []string `json:"pros"`
	Cons []string `json:"cons"`
}

type AssumptionResponse struct {
	ID         string `json:"id"`
	Statement  string `json:"statement"`
	WasCorrect *bool  `json:"was_correct,omitempty"`
}

type ReviewResponse struct {
	Outcome      string `json:"outcome" enum:"success,partial_success,failure"`
	WhatHappened string `json:"what_happened"`
	Lessons      string `json:"lessons,omitempty"`
	ReviewedAt   string `json:"reviewed_at" format:"date-time"`
}

type DecisionResponse struct {
	ID             string               `json:"id"`
	Title          string               `json:"title"`
	Context        string               `json:"context" enum:"personal,career,business,study,other"`
	Options        []OptionResponse     `json:"options"`
	ChosenOptionID string               `json:"chosen_option_id"`
	Reasoning      string               `json:"reasoning,omitempty"`
	Confidence     int                  `json:"confidence" minimum:"1" maximum:"10"`
	Assumptions    []AssumptionResponse `json:"assumptions"`
	TargetDate     string               `json:"target_date" format:"date"`
	Outcome        string               `json:"outcome" enum:"pending,success,partial_success,failure"`
	Due            bool                 `json:"due"`
	Review         *ReviewResponse      `json:"review,omitempty"`
	CreatedAt      string               `json:"created_at" format:"date-time"`
	UpdatedAt      string               `json:"updated_at" format:"date-time"`
}

type StatsResponse struct {
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

type InsightResponse struct {
	Patterns             []string `json:"patterns"`
	CognitiveBiases      []string `json:"cognitive_biases"`
	SuggestedReflections []string `json:"suggested_reflections"`
}

type DashboardResponse struct {
	Stats  StatsResponse      `json:"stats"`
	Due    []DecisionResponse `json:"due"`
	Recent []DecisionResponse `json:"recent"`
}

type APIKeyResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type CreateKeyResponse struct {
	APIKeyResponse
	// Key is the plaintext secret, shown once at creation.
	Key string `json:"key"`
}

type EventResponse struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	Payload    string `json:"payload_json,omitempty"`
}

type paginatedDecisions struct {
	Items      []DecisionResponse `json:"items"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

type paginatedEvents struct {
	Items      []EventResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// Conversion helpers

func userResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}

func decisionResponse(d domain.Decision, now time.Time) DecisionResponse {
	options := make([]OptionResponse, 0, len(d.Options))
	for _, o := range d.Options {
		options = append(options, OptionResponse{
			ID:   o.ID,
			Name: o.Name,
			Pros: nonNilSlice(o.Pros),
			Cons: nonNilSlice(o.Cons),
		})
	}
	assumptions := make([]AssumptionResponse, 0, len(d.Assumptions))
	for _, a := range d.Assumptions {
		assumptions = append(assumptions, AssumptionResponse(a))
	}
	resp := DecisionResponse{
		ID:             d.ID,
		Title:          d.Title,
		Context:        d.Context,
		Options:        options,
		ChosenOptionID: d.ChosenOptionID,
		Reasoning:      d.Reasoning,
		Confidence:     d.Confidence,
		Assumptions:    assumptions,
		TargetDate:     d.TargetDate,
		Outcome:        d.Outcome(),
		Due:            engine.Due(d, now),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	if d.Review != nil {
		r := ReviewResponse(*d.Review)
		resp.Review = &r
	}
	return resp
}

func mapDecisions(items []domain.Decision, now time.Time) []DecisionResponse {
	res := make([]DecisionResponse, 0, len(items))
	for _, d := range items {
		res = append(res, decisionResponse(d, now))
	}
	return res
}

func statsResponse(s domain.Stats) StatsResponse {
	return StatsResponse(s)
}

func insightResponse(in domain.Insight) InsightResponse {
	return InsightResponse(in)
}

func keyResponse(k domain.APIKey) APIKeyResponse {
	return APIKeyResponse{
		ID:        k.ID,
		Name:      k.Name,
		CreatedAt: k.CreatedAt,
	}
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		Payload:    e.Payload,
	}
}

func nonNilSlice(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
