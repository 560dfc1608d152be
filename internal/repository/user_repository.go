package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/culture-marketplace/internal/model"
	"github.com/iliyamo/culture-marketplace/internal/utils"
)

// UserRepo persists user accounts.  It also implements the read surface
// of the fraud checks (duplicate user, duplicate id piece) and the
// activation write the pipeline performs on an OK result.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,password_hash,role,is_active,first_name,last_name,birth_date,id_piece_number,deposit_cents,created_at,updated_at"

// Create inserts a user and returns its id.  Beneficiaries start
// inactive: activation is gated by the fraud pipeline.
func (r *UserRepo) Create(ctx context.Context, u model.User, password string, cost int) (int64, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, role, is_active, first_name, last_name, birth_date, id_piece_number, deposit_cents)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		email, hash, u.Role, u.IsActive, u.FirstName, u.LastName, u.BirthDate, u.IDPieceNumber, u.DepositCents)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	return res.LastInsertId()
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// Activate flips the account active.  Called by the fraud pipeline when
// the aggregate result is OK.
func (r *UserRepo) Activate(ctx context.Context, userID int64) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET is_active=1 WHERE id=?", userID)
	return err
}

// CountActiveDuplicates counts active users sharing first name, last
// name and birth date with the candidate, excluding the candidate
// itself.  Name comparison is case-insensitive.
func (r *UserRepo) CountActiveDuplicates(ctx context.Context, firstName, lastName, birthDateISO string, excludeUserID int64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users
		 WHERE LOWER(first_name)=LOWER(?) AND LOWER(last_name)=LOWER(?)
		   AND birth_date=? AND is_active=1 AND id<>?`,
		firstName, lastName, birthDateISO, excludeUserID).Scan(&n)
	return n, err
}

// CountByIDPieceNumber counts users already carrying this identity
// document number, excluding the candidate itself.
func (r *UserRepo) CountByIDPieceNumber(ctx context.Context, idPieceNumber string, excludeUserID int64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE id_piece_number=? AND id<>?",
		idPieceNumber, excludeUserID).Scan(&n)
	return n, err
}

func scanUser(row *sql.Row) (model.User, error) {
	var (
		u         model.User
		birthDate sql.NullTime
		idPiece   sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive,
		&u.FirstName, &u.LastName, &birthDate, &idPiece, &u.DepositCents,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if birthDate.Valid {
		t := birthDate.Time.UTC()
		u.BirthDate = &t
	}
	if idPiece.Valid {
		s := idPiece.String
		u.IDPieceNumber = &s
	}
	return u, nil
}
