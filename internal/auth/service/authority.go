package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/crestfall-io/auth/internal/auth/domain"
	"github.com/crestfall-io/auth/internal/auth/store"
	"github.com/crestfall-io/auth/pkg/cryptox"
	"github.com/crestfall-io/auth/pkg/hs256"
	"github.com/crestfall-io/auth/pkg/idx"
	"github.com/crestfall-io/auth/pkg/normx"
	"github.com/crestfall-io/auth/pkg/slogx"
)

// DefaultAccessTTL is how long issued user tokens stay valid.
const DefaultAccessTTL = 15 * time.Minute

// Authority is the session authority: it registers and authenticates users
// against the record store, mints signed tokens and rotates refresh token
// ids through the in-process registry.
type Authority struct {
	Store    store.Store
	Registry *RefreshRegistry
	Secret   string // base64 (std) encoded HMAC secret
	Issuer   string // also used as the audience claim
	TokenTTL time.Duration
}

func (a *Authority) ttl() time.Duration {
	if a.TokenTTL > 0 {
		return a.TokenTTL
	}
	return DefaultAccessTTL
}

// IssueOptions selects the claims of a minted token.
type IssueOptions struct {
	Subject *string
	Role    string
	Email   *string
	Scopes  []string

	// NonExpiring leaves exp null. Used for service role tokens.
	NonExpiring bool
}

// Issue mints a signed token and registers its refresh token id.
func (a *Authority) Issue(opts IssueOptions) (string, hs256.Payload, error) {
	now := time.Now()

	refreshID, err := cryptox.GenerateToken(cryptox.RefreshTokenSize)
	if err != nil {
		return "", hs256.Payload{}, err
	}
	payload := hs256.Payload{
		IssuedAt:     now.Unix(),
		NotBefore:    now.Unix(),
		Issuer:       a.Issuer,
		Audience:     a.Issuer,
		Subject:      opts.Subject,
		Role:         opts.Role,
		Email:        opts.Email,
		Scopes:       opts.Scopes,
		RefreshToken: &refreshID,
	}
	if !opts.NonExpiring {
		exp := now.Add(a.ttl()).Unix()
		payload.ExpiresAt = &exp
	}

	token, err := hs256.Encode(hs256.NewHeader(), payload, a.Secret)
	if err != nil {
		return "", hs256.Payload{}, fmt.Errorf("issue token: %w", err)
	}

	a.Registry.Insert(refreshID)
	return token, payload, nil
}

// AnonToken mints the non-expiring anonymous token clients bootstrap with.
func (a *Authority) AnonToken() (string, error) {
	token, _, err := a.Issue(IssueOptions{
		Role:        domain.RoleAnon,
		NonExpiring: true,
	})
	return token, err
}

// VerifyBearer checks a presented token's signature and validity window.
func (a *Authority) VerifyBearer(token string, now time.Time) (hs256.Payload, error) {
	_, payload, err := hs256.Verify(token, a.Secret)
	if err != nil {
		return hs256.Payload{}, err
	}
	if !payload.WithinValidityWindow(now) {
		return hs256.Payload{}, ErrTokenExpired
	}
	return payload, nil
}

// Register creates a new user and signs them in. The email and password are
// normalized before hashing so visually identical credentials entered on
// different platforms authenticate the same user.
func (a *Authority) Register(ctx context.Context, email, password string) (domain.User, string, error) {
	l := slogx.FromContext(ctx)

	email = normx.Email(email)
	password = normx.Password(password)

	salt, err := cryptox.GenerateSalt()
	if err != nil {
		return domain.User{}, "", err
	}
	key, err := cryptox.DeriveKey(password, salt)
	if err != nil {
		return domain.User{}, "", err
	}

	code, err := cryptox.GenerateToken(cryptox.VerificationCodeSize)
	if err != nil {
		return domain.User{}, "", err
	}
	user := domain.User{
		ID:               idx.New().String(),
		Email:            email,
		VerificationCode: &code,
		PasswordSalt:     salt,
		PasswordKey:      key,
	}

	if err := a.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			l.Info("sign-up rejected, email taken", slog.String("email", email))
			return domain.User{}, "", ErrEmailAlreadyUsed
		}
		return domain.User{}, "", err
	}

	// Re-read so timestamps come from the database.
	user, err = a.Store.Users().GetUserByID(ctx, user.ID)
	if err != nil {
		return domain.User{}, "", err
	}

	token, _, err := a.Issue(IssueOptions{
		Subject: &user.ID,
		Role:    domain.RolePublicUser,
		Email:   &user.Email,
	})
	if err != nil {
		return domain.User{}, "", err
	}

	l.Info("user registered", slog.String("user_id", user.ID))
	return user, token, nil
}

// Authenticate verifies a user's credentials and signs them in. Unknown
// emails and wrong passwords collapse into the same error so callers cannot
// probe which accounts exist.
func (a *Authority) Authenticate(ctx context.Context, email, password string) (domain.User, string, error) {
	l := slogx.FromContext(ctx)

	email = normx.Email(email)
	password = normx.Password(password)

	user, err := a.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, "", ErrInvalidCredentials
		}
		return domain.User{}, "", err
	}

	ok, err := cryptox.VerifyKey(password, user.PasswordSalt, user.PasswordKey)
	if err != nil {
		return domain.User{}, "", err
	}
	if !ok {
		l.Info("sign-in rejected, bad password", slog.String("user_id", user.ID))
		return domain.User{}, "", ErrInvalidCredentials
	}

	scopes, err := a.Store.Scopes().GetUserScopes(ctx, user.ID)
	if err != nil {
		return domain.User{}, "", err
	}

	token, _, err := a.Issue(IssueOptions{
		Subject: &user.ID,
		Role:    domain.RolePublicUser,
		Email:   &user.Email,
		Scopes:  scopes,
	})
	if err != nil {
		return domain.User{}, "", err
	}

	l.Info("user authenticated", slog.String("user_id", user.ID))
	return user, token, nil
}

// Refresh redeems the refresh token id inside a still-valid token and mints
// a replacement with the same identity claims. Each id redeems at most once,
// so concurrent refreshes of one token produce exactly one new token. Scopes
// are re-read from the record store so grants and revocations take effect at
// the next rotation.
func (a *Authority) Refresh(ctx context.Context, token string) (string, error) {
	now := time.Now()

	payload, err := a.VerifyBearer(token, now)
	if err != nil {
		return "", err
	}
	if payload.RefreshToken == nil {
		return "", ErrRefreshTokenInvalid
	}
	if !a.Registry.Redeem(*payload.RefreshToken) {
		return "", ErrRefreshTokenInvalid
	}

	scopes := payload.Scopes
	if payload.Subject != nil {
		if _, err := a.Store.Users().GetUserByID(ctx, *payload.Subject); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return "", ErrRefreshTokenInvalid
			}
			return "", err
		}
		scopes, err = a.Store.Scopes().GetUserScopes(ctx, *payload.Subject)
		if err != nil {
			return "", err
		}
	}

	next, _, err := a.Issue(IssueOptions{
		Subject:     payload.Subject,
		Role:        payload.Role,
		Email:       payload.Email,
		Scopes:      scopes,
		NonExpiring: payload.ExpiresAt == nil,
	})
	return next, err
}
