// Package writer persists terminal decisions to Postgres. Decisions are
// append-only: a re-analysis inserts a new row and the dashboard reads the
// latest per event.
package writer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/XavierBriggs/sharpedge/pkg/models"
)

// DecisionWriter writes and reads the decision history.
type DecisionWriter struct {
	db *sql.DB
}

// NewDecisionWriter creates a decision writer.
func NewDecisionWriter(db *sql.DB) *DecisionWriter {
	return &DecisionWriter{
		db: db,
	}
}

// WriteDecision inserts a decision and its chosen side in one transaction.
// Returns the decision ID on success.
func (w *DecisionWriter) WriteDecision(ctx context.Context, decision models.Decision) (int64, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if commit doesn't happen

	decisionQuery := `
		INSERT INTO decisions (
			event_id, sport_key, matchup, verdict, reason_code, reason,
			selection, price, win_probability, book_key,
			floor_line, floor_price, narrative, analyzed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`

	var decisionID int64
	err = tx.QueryRowContext(
		ctx,
		decisionQuery,
		decision.EventID,
		decision.SportKey,
		decision.Matchup,
		string(decision.Verdict),
		nullString(string(decision.ReasonCode)),
		nullString(decision.Reason),
		nullString(decision.Selection),
		nullString(decision.Price),
		decision.WinProbability,
		nullString(decision.BookKey),
		decision.FloorLine,
		decision.FloorPrice,
		nullString(decision.Narrative),
		decision.AnalyzedAt,
	).Scan(&decisionID)

	if err != nil {
		return 0, fmt.Errorf("failed to insert decision: %w", err)
	}

	if decision.Pick != nil {
		pickQuery := `
			INSERT INTO decision_picks (
				decision_id, outcome, book_key, line, price,
				ref_line, ref_price, line_diff, cents_diff,
				has_positive_value, supporting_books
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`

		pick := decision.Pick
		_, err = tx.ExecContext(
			ctx,
			pickQuery,
			decisionID,
			string(pick.Outcome),
			pick.BookKey,
			pick.Line,
			pick.Price,
			pick.RefLine,
			pick.RefPrice,
			pick.LineDiff,
			pick.CentsDiff,
			pick.HasPositiveValue,
			pick.SupportingBooks,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert decision pick: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return decisionID, nil
}

// GetRecentDecisions retrieves the latest decisions, newest first, optionally
// filtered by sport.
func (w *DecisionWriter) GetRecentDecisions(ctx context.Context, sportKey string, limit int) ([]models.Decision, error) {
	query := `
		SELECT d.id, d.event_id, d.sport_key, d.matchup, d.verdict,
		       COALESCE(d.reason_code, ''), COALESCE(d.reason, ''),
		       COALESCE(d.selection, ''), COALESCE(d.price, ''),
		       d.win_probability, COALESCE(d.book_key, ''),
		       d.floor_line, d.floor_price, COALESCE(d.narrative, ''), d.analyzed_at
		FROM decisions d
		WHERE ($1 = '' OR d.sport_key = $1)
		ORDER BY d.analyzed_at DESC
		LIMIT $2
	`

	rows, err := w.db.QueryContext(ctx, query, sportKey, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	decisions := make([]models.Decision, 0, limit)
	for rows.Next() {
		var d models.Decision
		var reasonCode string

		err := rows.Scan(
			&d.ID,
			&d.EventID,
			&d.SportKey,
			&d.Matchup,
			&d.Verdict,
			&reasonCode,
			&d.Reason,
			&d.Selection,
			&d.Price,
			&d.WinProbability,
			&d.BookKey,
			&d.FloorLine,
			&d.FloorPrice,
			&d.Narrative,
			&d.AnalyzedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision row: %w", err)
		}

		d.ReasonCode = models.ReasonCode(reasonCode)
		decisions = append(decisions, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decision rows: %w", err)
	}

	return decisions, nil
}

// GetLatestForEvent returns the most recent decision for one event, or nil.
func (w *DecisionWriter) GetLatestForEvent(ctx context.Context, eventID string) (*models.Decision, error) {
	query := `
		SELECT d.id, d.event_id, d.sport_key, d.matchup, d.verdict,
		       COALESCE(d.reason_code, ''), COALESCE(d.reason, ''),
		       COALESCE(d.selection, ''), COALESCE(d.price, ''),
		       d.win_probability, COALESCE(d.book_key, ''),
		       d.floor_line, d.floor_price, COALESCE(d.narrative, ''), d.analyzed_at
		FROM decisions d
		WHERE d.event_id = $1
		ORDER BY d.analyzed_at DESC
		LIMIT 1
	`

	var d models.Decision
	var reasonCode string

	err := w.db.QueryRowContext(ctx, query, eventID).Scan(
		&d.ID,
		&d.EventID,
		&d.SportKey,
		&d.Matchup,
		&d.Verdict,
		&reasonCode,
		&d.Reason,
		&d.Selection,
		&d.Price,
		&d.WinProbability,
		&d.BookKey,
		&d.FloorLine,
		&d.FloorPrice,
		&d.Narrative,
		&d.AnalyzedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest decision: %w", err)
	}

	d.ReasonCode = models.ReasonCode(reasonCode)
	return &d, nil
}

// nullString maps "" to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
