package store

import (
	"context"
	"errors"

	"github.com/crestfall-io/auth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. Sub-repositories keep concerns tidy and let tests fake a
// single repo without standing up the whole store.
type Store interface {
	Users() Users
	Scopes() Scopes

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks up a user by its normalized email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// MarkVerified clears the verification code and stamps verified_at.
	MarkVerified(ctx context.Context, userID string) error

	// UpdatePasswordKey replaces the stored salt and derived key and bumps
	// updated_at.
	UpdatePasswordKey(ctx context.Context, userID, salt, key string) error

	// DeleteUser cascades to user_scopes (per schema).
	DeleteUser(ctx context.Context, userID string) error
}

type Scopes interface {
	// GetUserScopes returns the scopes granted to a user, sorted.
	GetUserScopes(ctx context.Context, userID string) ([]string, error)

	// GrantScopes adds scopes to a user, ignoring ones already granted.
	GrantScopes(ctx context.Context, userID string, scopes []string) error

	// RevokeScope removes a single scope grant.
	RevokeScope(ctx context.Context, userID, scope string) error
}
