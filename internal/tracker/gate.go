package tracker

import (
	"context"
	"sync"
)

// LoginPath is where a signed-out user is sent.
const LoginPath = "/login"

type State int

const (
	Pending State = iota
	SignedOut
	SignedIn
)

func (s State) String() string {
	switch s {
	case SignedOut:
		return "signed-out"
	case SignedIn:
		return "signed-in"
	default:
		return "pending"
	}
}

// Outcome is what Guard decided to do.
type Outcome int

const (
	Loading Outcome = iota
	Redirect
	Rendered
)

func (o Outcome) String() string {
	switch o {
	case Redirect:
		return "redirect"
	case Rendered:
		return "rendered"
	default:
		return "loading"
	}
}

// Gate keeps protected content behind a resolved identity. It holds a single
// subscription to the identity provider between Start and Stop.
type Gate struct {
	idp IdentityProvider

	mu          sync.Mutex
	state       State
	session     Session
	unsubscribe func()
	resolved    chan struct{}
	resolveOnce sync.Once
}

func NewGate(idp IdentityProvider) *Gate {
	return &Gate{idp: idp, resolved: make(chan struct{})}
}

// Start subscribes to identity changes. Calling it twice is a no-op.
func (g *Gate) Start() {
	g.mu.Lock()
	if g.unsubscribe != nil {
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()

	unsubscribe := g.idp.Subscribe(g.apply)

	g.mu.Lock()
	g.unsubscribe = unsubscribe
	g.mu.Unlock()

	if s, ok := g.idp.CurrentUser(); ok {
		g.apply(s)
	}
}

// Stop drops the subscription. The last known state is kept.
func (g *Gate) Stop() {
	g.mu.Lock()
	unsubscribe := g.unsubscribe
	g.unsubscribe = nil
	g.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (g *Gate) apply(s *Session) {
	g.mu.Lock()
	if s == nil || s.UserID == "" {
		g.state = SignedOut
		g.session = Session{}
	} else {
		g.state = SignedIn
		g.session = *s
	}
	g.mu.Unlock()

	g.resolveOnce.Do(func() { close(g.resolved) })
}

// State returns the current state and, when signed in, the session.
func (g *Gate) State() (State, Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state, g.session
}

// Guard runs protected only when an identity is present. While the identity
// is still unresolved it reports Loading rather than redirecting.
func (g *Gate) Guard(protected func(Session)) Outcome {
	state, session := g.State()
	switch state {
	case SignedIn:
		protected(session)
		return Rendered
	case SignedOut:
		return Redirect
	default:
		return Loading
	}
}

// Wait blocks until the identity is first resolved.
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.resolved:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
