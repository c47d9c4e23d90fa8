package authsdk

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/crestfall-io/auth/pkg/hs256"
)

const (
	// DefaultCheckInterval is how often the session inspects its token.
	DefaultCheckInterval = 5 * time.Second

	// DefaultRefreshWindow is how far ahead of expiry the session refreshes.
	DefaultRefreshWindow = 3 * time.Minute
)

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithCheckInterval overrides how often the background check runs.
func WithCheckInterval(d time.Duration) SessionOption {
	return func(s *Session) { s.checkInterval = d }
}

// WithRefreshWindow overrides how far ahead of expiry refresh triggers.
func WithRefreshWindow(d time.Duration) SessionOption {
	return func(s *Session) { s.refreshWindow = d }
}

// WithLogger sets the logger used for background failures.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// Session is a client-side auth session. It is either anonymous (no token)
// or authenticated, persists its token through a TokenStore, and keeps the
// token fresh by refreshing it shortly before expiry. Subscribers are
// notified on every transition with the current token, empty on sign-out.
type Session struct {
	client *SDKClient
	store  TokenStore
	logger *slog.Logger

	checkInterval time.Duration
	refreshWindow time.Duration

	mu        sync.Mutex
	token     string
	payload   hs256.Payload
	anonToken string

	subMu       sync.Mutex
	subscribers map[int]func(token string)
	nextSubID   int

	stop     chan struct{}
	stopOnce sync.Once
}

// NewSession builds a session, restores any persisted token and starts the
// background expiry check. A persisted token that no longer parses or has
// expired is discarded. Callers must Close the session when done.
func NewSession(client *SDKClient, store TokenStore, opts ...SessionOption) (*Session, error) {
	s := &Session{
		client:        client,
		store:         store,
		logger:        slog.Default(),
		checkInterval: DefaultCheckInterval,
		refreshWindow: DefaultRefreshWindow,
		subscribers:   make(map[int]func(token string)),
		stop:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	token, err := store.Load()
	if err != nil {
		return nil, err
	}
	if token != "" {
		_, payload, err := hs256.DecodeUnverified(token)
		if err != nil || payload.Expired(time.Now()) {
			if clearErr := store.Clear(); clearErr != nil {
				s.logger.Warn("failed to clear stale session token", "error", clearErr)
			}
		} else {
			s.token = token
			s.payload = payload
		}
	}

	go s.watch()
	return s, nil
}

// Close stops the background check. The session state stays readable.
func (s *Session) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Token returns the current token, empty when anonymous.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Authenticated reports whether the session currently holds a token.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Claims returns the decoded payload of the current token.
func (s *Session) Claims() (hs256.Payload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return hs256.Payload{}, false
	}
	return s.payload, true
}

// Subscribe registers fn to run on every session transition and delivers
// the current token to it right away, so late subscribers are not blind to
// existing session state. The initial delivery runs on its own goroutine,
// outside the locks, so fn may call back into the session. The returned
// disposer unregisters fn.
func (s *Session) Subscribe(fn func(token string)) func() {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.subMu.Unlock()

	current := s.Token()
	go fn(current)

	return func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

// notify runs the subscribers outside the state lock so callbacks may call
// back into the session.
func (s *Session) notify(token string) {
	s.subMu.Lock()
	fns := make([]func(string), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(token)
	}
}

// ensureAnonToken lazily fetches the anonymous bootstrap token that gates
// sign-up and sign-in.
func (s *Session) ensureAnonToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	anon := s.anonToken
	s.mu.Unlock()
	if anon != "" {
		return anon, nil
	}

	anon, err := s.client.AnonToken(ctx)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.anonToken = anon
	s.mu.Unlock()
	return anon, nil
}

// SignUp registers a new account and signs the session in.
func (s *Session) SignUp(ctx context.Context, email, password string) (*User, error) {
	if s.Authenticated() {
		return nil, ErrAlreadySignedIn
	}

	anon, err := s.ensureAnonToken(ctx)
	if err != nil {
		return nil, err
	}
	result, err := s.client.SignUp(ctx, anon, email, password)
	if err != nil {
		return nil, err
	}

	s.adopt(result.Token)
	return &result.User, nil
}

// SignIn authenticates and signs the session in.
func (s *Session) SignIn(ctx context.Context, email, password string) (*User, error) {
	if s.Authenticated() {
		return nil, ErrAlreadySignedIn
	}

	anon, err := s.ensureAnonToken(ctx)
	if err != nil {
		return nil, err
	}
	result, err := s.client.SignIn(ctx, anon, email, password)
	if err != nil {
		return nil, err
	}

	s.adopt(result.Token)
	return &result.User, nil
}

// SignOut drops the token and clears persistence.
func (s *Session) SignOut() error {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return ErrAlreadySignedOut
	}
	s.token = ""
	s.payload = hs256.Payload{}
	s.mu.Unlock()

	if err := s.store.Clear(); err != nil {
		s.logger.Warn("failed to clear persisted session token", "error", err)
	}
	s.notify("")
	return nil
}

// Refresh rotates the current token immediately.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	current := s.token
	s.mu.Unlock()
	if current == "" {
		return ErrAlreadySignedOut
	}

	next, err := s.client.Refresh(ctx, current)
	if err != nil {
		return err
	}
	s.adoptIf(current, next)
	return nil
}

// adopt installs a freshly issued token, persists it and notifies.
func (s *Session) adopt(token string) {
	_, payload, err := hs256.DecodeUnverified(token)
	if err != nil {
		s.logger.Warn("received undecodable token", "error", err)
		return
	}

	s.mu.Lock()
	s.token = token
	s.payload = payload
	s.mu.Unlock()

	if err := s.store.Save(token); err != nil {
		s.logger.Warn("failed to persist session token", "error", err)
	}
	s.notify(token)
}

// adoptIf installs next only if prev is still the current token, so a
// refresh that raced a sign-out cannot resurrect the session.
func (s *Session) adoptIf(prev, next string) {
	s.mu.Lock()
	if s.token != prev {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.adopt(next)
}

func (s *Session) watch() {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.check()
		}
	}
}

// check is the periodic token inspection: expired tokens sign the session
// out, tokens inside the refresh window get rotated. A failed rotation
// leaves the session untouched; the next tick retries until expiry wins.
func (s *Session) check() {
	s.mu.Lock()
	token := s.token
	payload := s.payload
	s.mu.Unlock()
	if token == "" {
		return
	}

	now := time.Now()
	if payload.Expired(now) {
		s.mu.Lock()
		if s.token != token {
			s.mu.Unlock()
			return
		}
		s.token = ""
		s.payload = hs256.Payload{}
		s.mu.Unlock()

		if err := s.store.Clear(); err != nil {
			s.logger.Warn("failed to clear persisted session token", "error", err)
		}
		s.notify("")
		return
	}

	if payload.ExpiresAt == nil {
		return
	}
	expiresAt := time.Unix(*payload.ExpiresAt, 0)
	if now.Add(s.refreshWindow).Before(expiresAt) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.checkInterval)
	defer cancel()

	next, err := s.client.Refresh(ctx, token)
	if err != nil {
		s.logger.Warn("session token refresh failed", "error", err)
		return
	}
	s.adoptIf(token, next)
}
