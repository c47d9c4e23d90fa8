package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/crestfall-io/auth/internal/auth/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, email, verification_code, verified_at, password_salt, password_key, created_at, updated_at`

func (r *usersRepo) scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	var code sql.NullString
	var verifiedAt sql.NullTime
	err := row.Scan(
		&u.ID,
		&u.Email,
		&code,
		&verifiedAt,
		&u.PasswordSalt,
		&u.PasswordKey,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.VerificationCode = mapNullStringPtr(code)
	u.VerifiedAt = mapNullTimePtr(verifiedAt)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return r.scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return r.scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, verification_code, verified_at, password_salt, password_key)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID,
		u.Email,
		mapOptionalString(u.VerificationCode),
		optionalTime(u.VerifiedAt),
		u.PasswordSalt,
		u.PasswordKey,
	)
	return mapConstraint(err)
}

func (r *usersRepo) MarkVerified(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET verification_code = NULL,
		    verified_at = CURRENT_TIMESTAMP,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) UpdatePasswordKey(ctx context.Context, userID, salt, key string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_salt = ?,
		    password_key = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, salt, key, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	return err
}

func optionalTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// requireRow maps a zero-row UPDATE to store.ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}
