package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/crestfall-io/auth/internal/auth/domain"
	"github.com/crestfall-io/auth/internal/auth/service"
	"github.com/crestfall-io/auth/internal/auth/store/drivers/sqlite"
	"github.com/crestfall-io/auth/pkg/hs256"
	"github.com/stretchr/testify/require"
)

const testSecret = "dGhpcy1pcy1hLXRlc3Qtc2VjcmV0LXZhbHVlLTMyYg=="

type testEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestServer(t *testing.T) (*httptest.Server, *service.Authority, string) {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth_test.db"))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	authority := &service.Authority{
		Store:    st,
		Registry: service.NewRefreshRegistry(),
		Secret:   testSecret,
		Issuer:   "crestfall",
		TokenTTL: 15 * time.Minute,
	}

	anonToken, err := authority.AnonToken()
	require.NoError(t, err)

	router := NewRouter("test", st, authority, anonToken, slog.Default())
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, authority, anonToken
}

func doJSON(t *testing.T, srv *httptest.Server, method, path, bearer string, body any) (*http.Response, testEnvelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env testEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func TestSignUpFlow(t *testing.T) {
	t.Parallel()

	srv, _, anon := newTestServer(t)

	resp, env := doJSON(t, srv, http.MethodPost, "/sign-up", anon, map[string]string{
		"email":    "Alice@Example.com",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Nil(t, env.Error)

	var data struct {
		User  domain.PublicUser `json:"user"`
		Token string            `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, "alice@example.com", data.User.Email)
	require.False(t, data.User.Verified)

	// The sanitized user must not leak credential material.
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &raw))
	var userRaw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw["user"], &userRaw))
	require.NotContains(t, userRaw, "password_salt")
	require.NotContains(t, userRaw, "password_key")
	require.NotContains(t, userRaw, "verification_code")

	_, payload, err := hs256.Verify(data.Token, testSecret)
	require.NoError(t, err)
	require.Equal(t, domain.RolePublicUser, payload.Role)
}

func TestSignUpRequiresAnonBearer(t *testing.T) {
	t.Parallel()

	srv, authority, _ := newTestServer(t)

	t.Run("missing bearer", func(t *testing.T) {
		resp, env := doJSON(t, srv, http.MethodPost, "/sign-up", "", map[string]string{
			"email": "a@b.c", "password": "pw",
		})
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.NotNil(t, env.Error)
		require.Equal(t, "InvalidToken", env.Error.Name)
	})

	t.Run("authenticated bearer rejected", func(t *testing.T) {
		_, userToken, err := authority.Register(context.Background(), "existing@example.com", "hunter22")
		require.NoError(t, err)

		resp, env := doJSON(t, srv, http.MethodPost, "/sign-up", userToken, map[string]string{
			"email": "new@example.com", "password": "pw123456",
		})
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.NotNil(t, env.Error)
		require.Equal(t, "InvalidToken", env.Error.Name)
	})
}

func TestSignUpDuplicateEmail(t *testing.T) {
	t.Parallel()

	srv, _, anon := newTestServer(t)

	body := map[string]string{"email": "alice@example.com", "password": "hunter22"}
	resp, _ := doJSON(t, srv, http.MethodPost, "/sign-up", anon, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env := doJSON(t, srv, http.MethodPost, "/sign-up", anon, body)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.NotNil(t, env.Error)
	require.Equal(t, "EmailAlreadyUsed", env.Error.Name)
}

func TestSignInWrongPassword(t *testing.T) {
	t.Parallel()

	srv, authority, anon := newTestServer(t)

	_, _, err := authority.Register(context.Background(), "alice@example.com", "hunter22")
	require.NoError(t, err)

	resp, env := doJSON(t, srv, http.MethodPost, "/sign-in", anon, map[string]string{
		"email": "alice@example.com", "password": "wrong",
	})
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.NotNil(t, env.Error)
	require.Equal(t, "InvalidCredentials", env.Error.Name)
}

func TestSignInRejectsNonJSON(t *testing.T) {
	t.Parallel()

	srv, _, anon := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/sign-in", bytes.NewBufferString("email=a"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+anon)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestRefreshRotation(t *testing.T) {
	t.Parallel()

	srv, authority, _ := newTestServer(t)

	_, token, err := authority.Register(context.Background(), "alice@example.com", "hunter22")
	require.NoError(t, err)

	resp, env := doJSON(t, srv, http.MethodPost, "/refresh", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Nil(t, env.Error)

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEqual(t, token, data.Token)

	_, payload, err := hs256.Verify(data.Token, testSecret)
	require.NoError(t, err)
	require.Equal(t, domain.RolePublicUser, payload.Role)

	// The old token's refresh id is spent.
	resp, env = doJSON(t, srv, http.MethodPost, "/refresh", token, nil)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.NotNil(t, env.Error)
	require.Equal(t, "InvalidRefreshToken", env.Error.Name)
}

func TestAnonTokenEndpoint(t *testing.T) {
	t.Parallel()

	srv, _, anon := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/tokens/anon")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, anon, string(body))

	_, payload, err := hs256.Verify(string(body), testSecret)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAnon, payload.Role)
	require.Nil(t, payload.ExpiresAt)
}

func TestLivez(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/livez")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "test", health.Version)
}
