package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/culture-marketplace/internal/fraud"
	"github.com/iliyamo/culture-marketplace/internal/model"
)

// FraudRepo persists fraud evaluation results, one row per user.
type FraudRepo struct{ DB *sql.DB }

func NewFraudRepo(db *sql.DB) *FraudRepo { return &FraudRepo{DB: db} }

// UpsertResult inserts the aggregate result for the user or updates the
// existing row in place.  user_id carries a unique index, so re-running
// the pipeline never grows the table.
func (r *FraudRepo) UpsertResult(ctx context.Context, userID int64, status fraud.Status, reason string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO fraud_results (user_id, status, reason) VALUES (?,?,?)
		 ON DUPLICATE KEY UPDATE status=VALUES(status), reason=VALUES(reason), updated_at=UTC_TIMESTAMP()`,
		userID, string(status), reason)
	return err
}

// GetByUser returns the stored result for a user, ErrNotFound when the
// user was never evaluated.
func (r *FraudRepo) GetByUser(ctx context.Context, userID int64) (model.FraudResult, error) {
	var fr model.FraudResult
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, status, reason, created_at, updated_at
		 FROM fraud_results WHERE user_id = ?`, userID).
		Scan(&fr.ID, &fr.UserID, &fr.Status, &fr.Reason, &fr.CreatedAt, &fr.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FraudResult{}, ErrNotFound
	}
	return fr, err
}
