package service

import (
	"context"
	"encoding/base64"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/crestfall-io/auth/internal/auth/domain"
	"github.com/crestfall-io/auth/internal/auth/store/drivers/sqlite"
	"github.com/crestfall-io/auth/pkg/hs256"
	"github.com/stretchr/testify/require"
)

const testSecret = "dGhpcy1pcy1hLXRlc3Qtc2VjcmV0LXZhbHVlLTMyYg==" // base64("this-is-a-test-secret-value-32b")

func newTestAuthority(t *testing.T) *Authority {
	t.Helper()

	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth_test.db"))
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })

	return &Authority{
		Store:    s,
		Registry: NewRefreshRegistry(),
		Secret:   testSecret,
		Issuer:   "crestfall",
		TokenTTL: 15 * time.Minute,
	}
}

func TestRegisterIssuesVerifiableToken(t *testing.T) {
	t.Parallel()

	a := newTestAuthority(t)
	ctx := context.Background()

	user, token, err := a.Register(ctx, "Alice@Example.com", "hunter22")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", user.Email)
	require.NotNil(t, user.VerificationCode)
	require.Nil(t, user.VerifiedAt)

	_, payload, err := hs256.Verify(token, testSecret)
	require.NoError(t, err)
	require.Equal(t, "crestfall", payload.Issuer)
	require.Equal(t, "crestfall", payload.Audience)
	require.Equal(t, domain.RolePublicUser, payload.Role)
	require.NotNil(t, payload.Subject)
	require.Equal(t, user.ID, *payload.Subject)
	require.NotNil(t, payload.Email)
	require.Equal(t, user.Email, *payload.Email)
	require.NotNil(t, payload.ExpiresAt)
	require.NotNil(t, payload.RefreshToken)
	require.True(t, a.Registry.Contains(*payload.RefreshToken))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	a := newTestAuthority(t)
	ctx := context.Background()

	_, _, err := a.Register(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)

	// Same address in different casing is still a duplicate.
	_, _, err = a.Register(ctx, "ALICE@example.com", "other-password")
	require.ErrorIs(t, err, ErrEmailAlreadyUsed)
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	a := newTestAuthority(t)
	ctx := context.Background()

	registered, _, err := a.Register(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)

	t.Run("correct password", func(t *testing.T) {
		user, token, err := a.Authenticate(ctx, "alice@example.com", "hunter22")
		require.NoError(t, err)
		require.Equal(t, registered.ID, user.ID)
		require.NotEmpty(t, token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := a.Authenticate(ctx, "alice@example.com", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := a.Authenticate(ctx, "bob@example.com", "hunter22")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestRefreshRotatesToken(t *testing.T) {
	t.Parallel()

	a := newTestAuthority(t)
	ctx := context.Background()

	_, token, err := a.Register(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	_, before, err := hs256.Verify(token, testSecret)
	require.NoError(t, err)

	next, err := a.Refresh(ctx, token)
	require.NoError(t, err)
	_, after, err := hs256.Verify(next, testSecret)
	require.NoError(t, err)

	require.Equal(t, before.Subject, after.Subject)
	require.Equal(t, before.Role, after.Role)
	require.NotEqual(t, *before.RefreshToken, *after.RefreshToken)

	// The old id is spent; the new one is live.
	require.False(t, a.Registry.Contains(*before.RefreshToken))
	require.True(t, a.Registry.Contains(*after.RefreshToken))

	// Replaying the old token fails.
	_, err = a.Refresh(ctx, token)
	require.ErrorIs(t, err, ErrRefreshTokenInvalid)
}

func TestRefreshRejectsForgedAndExpired(t *testing.T) {
	t.Parallel()

	a := newTestAuthority(t)
	ctx := context.Background()

	t.Run("bad signature", func(t *testing.T) {
		otherSecret := base64.StdEncoding.EncodeToString([]byte("another-secret-entirely-0123456789"))
		forged, _, err := (&Authority{
			Registry: NewRefreshRegistry(),
			Secret:   otherSecret,
			Issuer:   "crestfall",
		}).Issue(IssueOptions{Role: domain.RoleAnon})
		require.NoError(t, err)

		_, err = a.Refresh(ctx, forged)
		require.ErrorIs(t, err, hs256.ErrSignatureMismatch)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := &Authority{
			Store:    a.Store,
			Registry: a.Registry,
			Secret:   a.Secret,
			Issuer:   a.Issuer,
			TokenTTL: -time.Minute,
		}
		token, _, err := expired.Issue(IssueOptions{Role: domain.RoleAnon})
		require.NoError(t, err)

		_, err = a.Refresh(ctx, token)
		require.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("unknown refresh id", func(t *testing.T) {
		foreign := &Authority{
			Store:    a.Store,
			Registry: NewRefreshRegistry(),
			Secret:   a.Secret,
			Issuer:   a.Issuer,
		}
		token, _, err := foreign.Issue(IssueOptions{Role: domain.RoleAnon})
		require.NoError(t, err)

		// The id lives in the foreign registry, not ours.
		_, err = a.Refresh(ctx, token)
		require.ErrorIs(t, err, ErrRefreshTokenInvalid)
	})
}

func TestConcurrentRefreshHasOneWinner(t *testing.T) {
	t.Parallel()

	a := newTestAuthority(t)
	ctx := context.Background()

	_, token, err := a.Register(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)

	const attempts = 16
	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[i] = a.Refresh(ctx, token)
		}()
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, ErrRefreshTokenInvalid)
		}
	}
	require.Equal(t, 1, wins)
}

func TestRefreshRereadsScopes(t *testing.T) {
	t.Parallel()

	a := newTestAuthority(t)
	ctx := context.Background()

	user, token, err := a.Register(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)

	require.NoError(t, a.Store.Scopes().GrantScopes(ctx, user.ID, []string{"billing:read"}))

	next, err := a.Refresh(ctx, token)
	require.NoError(t, err)
	_, payload, err := hs256.Verify(next, testSecret)
	require.NoError(t, err)
	require.Equal(t, []string{"billing:read"}, payload.Scopes)
}

func TestAnonToken(t *testing.T) {
	t.Parallel()

	a := newTestAuthority(t)

	token, err := a.AnonToken()
	require.NoError(t, err)

	_, payload, err := hs256.Verify(token, testSecret)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAnon, payload.Role)
	require.Nil(t, payload.Subject)
	require.Nil(t, payload.ExpiresAt)
	require.False(t, payload.Expired(time.Now().Add(24*365*time.Hour)))
}

func TestVerifyBearerWindow(t *testing.T) {
	t.Parallel()

	a := newTestAuthority(t)

	token, _, err := a.Issue(IssueOptions{Role: domain.RoleAnon})
	require.NoError(t, err)

	_, err = a.VerifyBearer(token, time.Now())
	require.NoError(t, err)

	_, err = a.VerifyBearer(token, time.Now().Add(16*time.Minute))
	require.ErrorIs(t, err, ErrTokenExpired)
}
