package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Two roles exist: PRO actors manage venues and publish offers,
// BENEFICIARY users hold a public-subsidy wallet and book offers.
// Beneficiary accounts start inactive and are activated only once the
// fraud pipeline yields an OK aggregate result.
//
// Fields:
//  ID            – primary key identifier of the user.
//  Email         – unique email address.
//  PasswordHash  – bcrypt hashed password.
//  Role          – PRO or BENEFICIARY.
//  IsActive      – whether the account is active (fraud-gated for beneficiaries).
//  FirstName     – given name, used by the duplicate-user fraud check.
//  LastName      – family name, used by the duplicate-user fraud check.
//  BirthDate     – date of birth (nullable for pro users).
//  IDPieceNumber – identity document number (nullable; fraud-checked).
//  DepositCents  – wallet granted to the beneficiary, in cents.
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last update.
type User struct {
	ID            int64      // users.id
	Email         string     // users.email
	PasswordHash  string     // users.password_hash
	Role          string     // users.role (PRO | BENEFICIARY)
	IsActive      bool       // users.is_active
	FirstName     string     // users.first_name
	LastName      string     // users.last_name
	BirthDate     *time.Time // users.birth_date (nullable)
	IDPieceNumber *string    // users.id_piece_number (nullable)
	DepositCents  int64      // users.deposit_cents
	CreatedAt     time.Time  // users.created_at
	UpdatedAt     time.Time  // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user; only the SHA-256 hash of the raw
// token is stored.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        int64      // refresh_tokens.id
	UserID    int64      // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
