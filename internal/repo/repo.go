package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"hindsight/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const decisionColumns = `id,owner_id,title,context,options_json,chosen_option_id,reasoning,confidence,assumptions_json,target_date,review_outcome,review_what,review_lessons,reviewed_at,created_at,updated_at`

type decisionScanner interface {
	Scan(dest ...any) error
}

func scanDecision(row decisionScanner) (domain.Decision, error) {
	var d domain.Decision
	var reasoning, optionsJSON, assumptionsJSON sql.NullString
	var reviewOutcome, reviewWhat, reviewLessons, reviewedAt sql.NullString
	err := row.Scan(&d.ID, &d.OwnerID, &d.Title, &d.Context, &optionsJSON, &d.ChosenOptionID, &reasoning, &d.Confidence,
		&assumptionsJSON, &d.TargetDate, &reviewOutcome, &reviewWhat, &reviewLessons, &reviewedAt, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return d, ErrNotFound
	}
	if err != nil {
		return d, err
	}
	if reasoning.Valid {
		d.Reasoning = reasoning.String
	}
	if optionsJSON.Valid && optionsJSON.String != "" {
		if err := json.Unmarshal([]byte(optionsJSON.String), &d.Options); err != nil {
			return d, err
		}
	}
	if assumptionsJSON.Valid && assumptionsJSON.String != "" {
		if err := json.Unmarshal([]byte(assumptionsJSON.String), &d.Assumptions); err != nil {
			return d, err
		}
	}
	if reviewOutcome.Valid {
		d.Review = &domain.Review{
			Outcome:      reviewOutcome.String,
			WhatHappened: reviewWhat.String,
			Lessons:      reviewLessons.String,
			ReviewedAt:   reviewedAt.String,
		}
	}
	return d, nil
}

func (r Repo) InsertDecisionTx(ctx context.Context, tx *sql.Tx, d domain.Decision) error {
	options, err := json.Marshal(d.Options)
	if err != nil {
		return err
	}
	var assumptions any
	if len(d.Assumptions) > 0 {
		data, err := json.Marshal(d.Assumptions)
		if err != nil {
			return err
		}
		assumptions = string(data)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO decisions(`+decisionColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		d.ID, d.OwnerID, d.Title, d.Context, string(options), d.ChosenOptionID, nullable(d.Reasoning), d.Confidence,
		assumptions, d.TargetDate, nil, nil, nil, nil, d.CreatedAt, d.UpdatedAt)
	return err
}

// GetDecision looks a decision up by (id, owner). A decision belonging to a
// different owner is reported as ErrNotFound, never as a permission error.
func (r Repo) GetDecision(ctx context.Context, id, ownerID string) (domain.Decision, error) {
	return scanDecision(r.DB.QueryRowContext(ctx, `SELECT `+decisionColumns+` FROM decisions WHERE id=? AND owner_id=?`, id, ownerID))
}

func (r Repo) GetDecisionTx(ctx context.Context, tx *sql.Tx, id, ownerID string) (domain.Decision, error) {
	return scanDecision(tx.QueryRowContext(ctx, `SELECT `+decisionColumns+` FROM decisions WHERE id=? AND owner_id=?`, id, ownerID))
}

type DecisionFilters struct {
	Context         string
	Outcome         string
	Limit           int
	CursorCreatedAt string
	CursorID        string
}

func (r Repo) ListDecisions(ctx context.Context, ownerID string, f DecisionFilters) ([]domain.Decision, error) {
	clauses := []string{"owner_id=?"}
	args := []any{ownerID}
	if f.Context != "" {
		clauses = append(clauses, "context=?")
		args = append(args, f.Context)
	}
	switch f.Outcome {
	case "":
	case domain.OutcomePending:
		clauses = append(clauses, "review_outcome IS NULL")
	default:
		clauses = append(clauses, "review_outcome=?")
		args = append(args, f.Outcome)
	}
	if f.CursorCreatedAt != "" && f.CursorID != "" {
		clauses = append(clauses, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, f.CursorCreatedAt, f.CursorCreatedAt, f.CursorID)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := `SELECT ` + decisionColumns + ` FROM decisions ` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

// ListUnreviewed returns the owner's decisions with no review, oldest target first.
func (r Repo) ListUnreviewed(ctx context.Context, ownerID string) ([]domain.Decision, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+decisionColumns+` FROM decisions WHERE owner_id=? AND review_outcome IS NULL ORDER BY target_date ASC, id ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

func (r Repo) UpdateDecisionReviewTx(ctx context.Context, tx *sql.Tx, d domain.Decision) error {
	if d.Review == nil {
		return errors.New("review required")
	}
	var assumptions any
	if len(d.Assumptions) > 0 {
		data, err := json.Marshal(d.Assumptions)
		if err != nil {
			return err
		}
		assumptions = string(data)
	}
	res, err := tx.ExecContext(ctx, `UPDATE decisions SET assumptions_json=?, review_outcome=?, review_what=?, review_lessons=?, reviewed_at=?, updated_at=? WHERE id=? AND owner_id=?`,
		assumptions, d.Review.Outcome, d.Review.WhatHappened, nullable(d.Review.Lessons), d.Review.ReviewedAt, d.UpdatedAt, d.ID, d.OwnerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteDecisionTx(ctx context.Context, tx *sql.Tx, id, ownerID string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM decisions WHERE id=? AND owner_id=?`, id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) LatestEvents(ctx context.Context, limit int, cursor int64, ownerID, evtType string) ([]domain.Event, error) {
	clauses := []string{"owner_id=?"}
	args := []any{ownerID}
	if evtType != "" {
		clauses = append(clauses, "type=?")
		args = append(args, evtType)
	}
	if cursor > 0 {
		clauses = append(clauses, "id<?")
		args = append(args, cursor)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := `SELECT id,ts,type,owner_id,entity_kind,entity_id,payload_json FROM events ` + where + ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		var entityID, payload sql.NullString
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.OwnerID, &e.EntityKind, &entityID, &payload); err != nil {
			return nil, err
		}
		if entityID.Valid {
			e.EntityID = entityID.String
		}
		if payload.Valid {
			e.Payload = payload.String
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
