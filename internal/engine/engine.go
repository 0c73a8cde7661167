package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"hindsight/internal/config"
	"hindsight/internal/domain"
	"hindsight/internal/events"
	"hindsight/internal/repo"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// InvalidStateError indicates a lifecycle transition the decision does not allow.
type InvalidStateError struct {
	DecisionID string
	State      string
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("invalid decision transition %s -> reviewed: decision is already %s", e.DecisionID, e.State)
}

// DecisionCreateOptions are parameters for recording a decision.
type DecisionCreateOptions struct {
	ID             string
	OwnerID        string
	Title          string
	Context        string
	Options        []domain.Option
	ChosenOptionID string
	Reasoning      string
	Confidence     int
	Assumptions    []domain.Assumption
	TargetDate     string
}

func (e Engine) CreateDecision(ctx context.Context, opts DecisionCreateOptions) (domain.Decision, error) {
	if strings.TrimSpace(opts.OwnerID) == "" {
		return domain.Decision{}, domain.ValidationError{Field: "owner_id", Reason: "required"}
	}
	if strings.TrimSpace(opts.Title) == "" {
		return domain.Decision{}, domain.ValidationError{Field: "title", Reason: "required"}
	}
	if !domain.ValidContext(opts.Context) {
		return domain.Decision{}, domain.ValidationError{Field: "context", Reason: fmt.Sprintf("unknown context %q", opts.Context)}
	}
	if len(opts.Options) == 0 {
		return domain.Decision{}, domain.ValidationError{Field: "options", Reason: "at least one option required"}
	}
	for i := range opts.Options {
		if strings.TrimSpace(opts.Options[i].Name) == "" {
			return domain.Decision{}, domain.ValidationError{Field: "options", Reason: fmt.Sprintf("option %d has no name", i)}
		}
		if opts.Options[i].ID == "" {
			opts.Options[i].ID = uuid.New().String()
		}
	}
	if opts.ChosenOptionID == "" {
		opts.ChosenOptionID = opts.Options[0].ID
	} else if !hasOption(opts.Options, opts.ChosenOptionID) {
		return domain.Decision{}, domain.ValidationError{Field: "chosen_option_id", Reason: "does not match any option"}
	}
	if opts.Confidence < 1 || opts.Confidence > 10 {
		return domain.Decision{}, domain.ValidationError{Field: "confidence", Reason: "must be between 1 and 10"}
	}
	for i := range opts.Assumptions {
		if strings.TrimSpace(opts.Assumptions[i].Statement) == "" {
			return domain.Decision{}, domain.ValidationError{Field: "assumptions", Reason: fmt.Sprintf("assumption %d has no statement", i)}
		}
		if opts.Assumptions[i].ID == "" {
			opts.Assumptions[i].ID = uuid.New().String()
		}
	}
	if _, err := time.Parse("2006-01-02", opts.TargetDate); err != nil {
		return domain.Decision{}, domain.ValidationError{Field: "target_date", Reason: "must be a YYYY-MM-DD date"}
	}

	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := e.now().UTC().Format(time.RFC3339)
	d := domain.Decision{
		ID:             id,
		OwnerID:        opts.OwnerID,
		Title:          opts.Title,
		Context:        opts.Context,
		Options:        opts.Options,
		ChosenOptionID: opts.ChosenOptionID,
		Reasoning:      opts.Reasoning,
		Confidence:     opts.Confidence,
		Assumptions:    opts.Assumptions,
		TargetDate:     opts.TargetDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Decision{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.InsertDecisionTx(ctx, tx, d); err != nil {
		return domain.Decision{}, err
	}
	if err := e.Events.Append(ctx, tx, "decision.created", d.OwnerID, "decision", d.ID, events.EventPayload{
		"title":   d.Title,
		"context": d.Context,
	}); err != nil {
		return domain.Decision{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Decision{}, err
	}
	return d, nil
}

func hasOption(options []domain.Option, id string) bool {
	for _, o := range options {
		if o.ID == id {
			return true
		}
	}
	return false
}

// ReviewOptions are parameters for closing a decision's review.
type ReviewOptions struct {
	ID           string
	OwnerID      string
	Outcome      string
	WhatHappened string
	Lessons      string
	// Assumptions maps assumption IDs to whether they held. IDs that do not
	// belong to the decision are ignored.
	Assumptions map[string]bool
}

// CloseReview moves a pending decision to its reviewed state. The transition
// happens at most once; a second close fails with InvalidStateError no matter
// what the new review says.
func (e Engine) CloseReview(ctx context.Context, opts ReviewOptions) (domain.Decision, error) {
	if !domain.ValidReviewOutcome(opts.Outcome) {
		return domain.Decision{}, domain.ValidationError{Field: "outcome", Reason: fmt.Sprintf("unknown outcome %q", opts.Outcome)}
	}
	if strings.TrimSpace(opts.WhatHappened) == "" {
		return domain.Decision{}, domain.ValidationError{Field: "what_happened", Reason: "required"}
	}
	if strings.TrimSpace(opts.Lessons) == "" {
		return domain.Decision{}, domain.ValidationError{Field: "lessons", Reason: "required"}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Decision{}, err
	}
	defer tx.Rollback()

	d, err := e.Repo.GetDecisionTx(ctx, tx, opts.ID, opts.OwnerID)
	if err != nil {
		return domain.Decision{}, err
	}
	if d.Review != nil {
		return domain.Decision{}, InvalidStateError{DecisionID: d.ID, State: d.Review.Outcome}
	}
	for i := range d.Assumptions {
		if held, ok := opts.Assumptions[d.Assumptions[i].ID]; ok {
			v := held
			d.Assumptions[i].WasCorrect = &v
		}
	}
	now := e.now().UTC().Format(time.RFC3339)
	d.Review = &domain.Review{
		Outcome:      opts.Outcome,
		WhatHappened: opts.WhatHappened,
		Lessons:      opts.Lessons,
		ReviewedAt:   now,
	}
	d.UpdatedAt = now
	if err := e.Repo.UpdateDecisionReviewTx(ctx, tx, d); err != nil {
		return domain.Decision{}, err
	}
	if err := e.Events.Append(ctx, tx, "decision.reviewed", d.OwnerID, "decision", d.ID, events.EventPayload{
		"outcome": d.Review.Outcome,
	}); err != nil {
		return domain.Decision{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Decision{}, err
	}
	return d, nil
}

func (e Engine) GetDecision(ctx context.Context, id, ownerID string) (domain.Decision, error) {
	return e.Repo.GetDecision(ctx, id, ownerID)
}

func (e Engine) ListDecisions(ctx context.Context, ownerID string, f repo.DecisionFilters) ([]domain.Decision, error) {
	return e.Repo.ListDecisions(ctx, ownerID, f)
}

func (e Engine) DeleteDecision(ctx context.Context, id, ownerID string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteDecisionTx(ctx, tx, id, ownerID); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "decision.deleted", ownerID, "decision", id, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// Due reports whether the decision is waiting for its review: no review
// recorded and the target date is today or earlier. The answer is derived
// from the clock, never stored.
func Due(d domain.Decision, now time.Time) bool {
	if d.Review != nil {
		return false
	}
	return d.TargetDate <= now.UTC().Format("2006-01-02")
}

// DueForReview returns the owner's decisions whose review is overdue,
// oldest target date first.
func (e Engine) DueForReview(ctx context.Context, ownerID string) ([]domain.Decision, error) {
	unreviewed, err := e.Repo.ListUnreviewed(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	now := e.now()
	var due []domain.Decision
	for _, d := range unreviewed {
		if Due(d, now) {
			due = append(due, d)
		}
	}
	return due, nil
}
