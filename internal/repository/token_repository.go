package repository

import (
	"context"
	"database/sql"
	"time"
)

// TokenRepo stores refresh token hashes.  Only the SHA-256 of the raw
// token ever reaches the database; rotation and revocation both work on
// that hash.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh records a freshly issued refresh token for the user.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, expiresAt)
	return err
}

// ValidateRefresh resolves a token hash to its owner.  Revoked and
// expired tokens are filtered in the query, so both cases surface as
// sql.ErrNoRows and stay indistinguishable to the caller.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (int64, error) {
	var userID int64
	err := r.DB.QueryRowContext(ctx,
		`SELECT user_id FROM refresh_tokens
		 WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > UTC_TIMESTAMP()
		 LIMIT 1`,
		tokenHash).Scan(&userID)
	if err != nil {
		return 0, err
	}
	return userID, nil
}

// RevokeByHash invalidates one refresh token.  Already revoked tokens
// are left untouched so revoked_at keeps the first revocation instant.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}
