package client

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/frahmantamala/expense-tracker/internal/auth"
	"github.com/frahmantamala/expense-tracker/internal/tracker"
	"github.com/frahmantamala/expense-tracker/internal/user"
)

// refreshSkew is how long before expiry an access token is replaced.
const refreshSkew = 30 * time.Second

type tokenSet struct {
	access    string
	refresh   string
	expiresAt time.Time
}

type subscriber struct {
	id int
	fn func(*tracker.Session)
}

// Identity is the backend-backed identity provider. The identity is unknown
// until Resolve has run; subscribers are called synchronously, in the order
// they subscribed.
type Identity struct {
	api    *Client
	creds  CredentialStore
	logger *slog.Logger
	now    func() time.Time

	refreshMu sync.Mutex

	mu       sync.Mutex
	tokens   *tokenSet
	session  *tracker.Session
	resolved bool
	subs     []subscriber
	nextID   int
}

func NewIdentity(api *Client, creds CredentialStore, logger *slog.Logger) *Identity {
	return &Identity{
		api:    api,
		creds:  creds,
		logger: logger,
		now:    time.Now,
	}
}

// Subscribe registers fn for identity changes. When the identity is already
// resolved fn is called once right away.
func (i *Identity) Subscribe(fn func(*tracker.Session)) func() {
	i.mu.Lock()
	id := i.nextID
	i.nextID++
	i.subs = append(i.subs, subscriber{id: id, fn: fn})
	resolved, current := i.resolved, copySession(i.session)
	i.mu.Unlock()

	if resolved {
		fn(current)
	}

	return func() {
		i.mu.Lock()
		defer i.mu.Unlock()
		for n, s := range i.subs {
			if s.id == id {
				i.subs = append(i.subs[:n], i.subs[n+1:]...)
				return
			}
		}
	}
}

func (i *Identity) CurrentUser() (*tracker.Session, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return copySession(i.session), i.resolved
}

// Resolve settles the identity at startup: a stored refresh token is traded
// for a fresh session, otherwise the user is signed out. Either way
// subscribers hear about it.
func (i *Identity) Resolve(ctx context.Context) error {
	creds, err := i.creds.Load()
	if err != nil || creds == nil {
		i.set(nil, nil)
		return err
	}

	tokens, session, err := i.exchange(ctx, creds.RefreshToken)
	if err != nil {
		if isUnauthorized(err) {
			_ = i.creds.Clear()
		}
		i.logger.Info("stored session could not be resumed", "error", err)
		i.set(nil, nil)
		return &AuthError{Op: "resume", Err: err}
	}

	i.persist(tokens, session)
	i.set(tokens, session)
	return nil
}

func (i *Identity) SignIn(ctx context.Context, email, password string) error {
	var resp auth.AuthTokens
	if err := i.api.do(ctx, http.MethodPost, "/auth/login", "", auth.LoginDTO{Email: email, Password: password}, &resp); err != nil {
		return &AuthError{Op: "sign-in", Err: err}
	}

	tokens := i.tokenSet(resp)
	session, err := i.me(ctx, tokens.access)
	if err != nil {
		return &AuthError{Op: "sign-in", Err: err}
	}

	i.persist(tokens, session)
	i.set(tokens, session)
	return nil
}

// SignUp creates the account. It does not sign in.
func (i *Identity) SignUp(ctx context.Context, email, password string) error {
	var resp auth.SignUpResponse
	if err := i.api.do(ctx, http.MethodPost, "/auth/signup", "", auth.SignUpDTO{Email: email, Password: password}, &resp); err != nil {
		return &AuthError{Op: "sign-up", Err: err}
	}
	return nil
}

// SignOut ends the session locally even when the backend cannot be reached.
func (i *Identity) SignOut(ctx context.Context) error {
	i.mu.Lock()
	tokens := i.tokens
	i.mu.Unlock()

	if tokens != nil {
		if err := i.api.do(ctx, http.MethodPost, "/auth/logout", tokens.access, nil, nil); err != nil {
			i.logger.Warn("logout request failed", "error", err)
		}
	}

	// Token persists under the same lock
	i.mu.Lock()
	err := i.creds.Clear()
	subs := i.setLocked(nil, nil)
	i.mu.Unlock()

	notify(subs, nil)
	return err
}

// Token returns a usable access token and the user it belongs to, refreshing
// it first when it is about to expire.
func (i *Identity) Token(ctx context.Context) (string, string, error) {
	i.refreshMu.Lock()
	defer i.refreshMu.Unlock()

	i.mu.Lock()
	tokens, session := i.tokens, copySession(i.session)
	i.mu.Unlock()

	if tokens == nil || session == nil {
		return "", "", ErrNotSignedIn
	}
	if i.now().Add(refreshSkew).Before(tokens.expiresAt) {
		return tokens.access, session.UserID, nil
	}

	fresh, err := i.refresh(ctx, tokens.refresh)
	if err != nil {
		return "", "", &AuthError{Op: "refresh", Err: err}
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.tokens != tokens || i.session == nil || i.session.UserID != session.UserID {
		i.logger.Debug("session changed during token refresh", "user_id", session.UserID)
		return "", "", ErrNotSignedIn
	}
	i.tokens = fresh
	i.persist(fresh, session)
	return fresh.access, session.UserID, nil
}

func (i *Identity) Profile(ctx context.Context) (*user.Profile, error) {
	token, _, err := i.Token(ctx)
	if err != nil {
		return nil, err
	}
	var profile user.Profile
	if err := i.api.do(ctx, http.MethodGet, "/users/me", token, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (i *Identity) UpdateProfile(ctx context.Context, dto user.UpdateProfileDTO) (*user.Profile, error) {
	token, _, err := i.Token(ctx)
	if err != nil {
		return nil, err
	}
	var profile user.Profile
	if err := i.api.do(ctx, http.MethodPatch, "/users/me", token, dto, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (i *Identity) exchange(ctx context.Context, refreshToken string) (*tokenSet, *tracker.Session, error) {
	tokens, err := i.refresh(ctx, refreshToken)
	if err != nil {
		return nil, nil, err
	}
	session, err := i.me(ctx, tokens.access)
	if err != nil {
		return nil, nil, err
	}
	return tokens, session, nil
}

func (i *Identity) refresh(ctx context.Context, refreshToken string) (*tokenSet, error) {
	var resp auth.AuthTokens
	if err := i.api.do(ctx, http.MethodPost, "/auth/refresh", "", auth.RefreshTokenDTO{RefreshToken: refreshToken}, &resp); err != nil {
		return nil, err
	}
	return i.tokenSet(resp), nil
}

func (i *Identity) me(ctx context.Context, accessToken string) (*tracker.Session, error) {
	var profile user.Profile
	if err := i.api.do(ctx, http.MethodGet, "/users/me", accessToken, nil, &profile); err != nil {
		return nil, err
	}
	return &tracker.Session{UserID: profile.ID, Email: profile.Email}, nil
}

func (i *Identity) tokenSet(resp auth.AuthTokens) *tokenSet {
	return &tokenSet{
		access:    resp.AccessToken,
		refresh:   resp.RefreshToken,
		expiresAt: i.now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}
}

func (i *Identity) persist(tokens *tokenSet, session *tracker.Session) {
	err := i.creds.Save(&Credentials{
		UserID:       session.UserID,
		Email:        session.Email,
		RefreshToken: tokens.refresh,
	})
	if err != nil {
		i.logger.Warn("could not store credentials", "error", err)
	}
}

// set records the new identity and tells every subscriber, outside the lock.
func (i *Identity) set(tokens *tokenSet, session *tracker.Session) {
	i.mu.Lock()
	subs := i.setLocked(tokens, session)
	i.mu.Unlock()

	notify(subs, session)
}

func (i *Identity) setLocked(tokens *tokenSet, session *tracker.Session) []subscriber {
	i.tokens = tokens
	i.session = copySession(session)
	i.resolved = true
	return append([]subscriber(nil), i.subs...)
}

func notify(subs []subscriber, session *tracker.Session) {
	for _, s := range subs {
		s.fn(copySession(session))
	}
}

func copySession(s *tracker.Session) *tracker.Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

func isUnauthorized(err error) bool {
	return statusOf(err) == http.StatusUnauthorized
}
