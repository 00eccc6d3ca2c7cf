// Package console is the terminal front end of the tracker: a line-oriented
// command loop over the tracker core.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/frahmantamala/expense-tracker/internal/category"
	"github.com/frahmantamala/expense-tracker/internal/tracker"
	"github.com/frahmantamala/expense-tracker/internal/user"
)

// Account is the identity provider plus the profile endpoints.
type Account interface {
	tracker.IdentityProvider
	Profile(ctx context.Context) (*user.Profile, error)
	UpdateProfile(ctx context.Context, dto user.UpdateProfileDTO) (*user.Profile, error)
}

// Store is the document store plus category suggestions.
type Store interface {
	tracker.DocumentStore
	Categories(ctx context.Context, userID string) ([]category.CategoryResponse, error)
}

type Console struct {
	account Account
	store   Store
	gate    *tracker.Gate
	logger  *slog.Logger

	in     *bufio.Scanner
	out    io.Writer
	loc    *time.Location
	hidden bool
	fd     int

	ctrl *tracker.Controller
	rows []tracker.Row
}

type Option func(*Console)

// WithLocation sets the zone timestamps are shown in.
func WithLocation(loc *time.Location) Option {
	return func(c *Console) { c.loc = loc }
}

func New(account Account, store Store, in io.Reader, out io.Writer, logger *slog.Logger, opts ...Option) *Console {
	c := &Console{
		account: account,
		store:   store,
		gate:    tracker.NewGate(account),
		logger:  logger,
		in:      bufio.NewScanner(in),
		out:     out,
		loc:     time.Local,
	}
	c.fd, c.hidden = terminalFD(in)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Notify prints a one-shot notification.
func (c *Console) Notify(n tracker.Notification) {
	if n.Message == "" {
		fmt.Fprintf(c.out, "[%s] %s\n", n.Kind, n.Title)
		return
	}
	fmt.Fprintf(c.out, "[%s] %s: %s\n", n.Kind, n.Title, n.Message)
}

// Run reads commands until EOF, quit or ctx is done. Command failures are
// reported and the loop goes on.
func (c *Console) Run(ctx context.Context) error {
	c.gate.Start()
	defer c.gate.Stop()

	fmt.Fprintln(c.out, "Loading...")
	if err := c.gate.Wait(ctx); err != nil {
		return err
	}
	c.home(ctx)

	for {
		fmt.Fprint(c.out, c.prompt())
		if !c.in.Scan() {
			fmt.Fprintln(c.out)
			return c.in.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		name, rest := splitCommand(c.in.Text())
		if name == "" {
			continue
		}
		if name == "quit" || name == "exit" {
			return nil
		}

		cmd, ok := commands[name]
		if !ok {
			fmt.Fprintf(c.out, "unknown command %q, try help\n", name)
			continue
		}
		if err := cmd.run(ctx, c, rest); err != nil {
			c.report(err)
		}
	}
}

// home is the root route: the list when signed in, the login hint otherwise.
func (c *Console) home(ctx context.Context) {
	switch c.gate.Guard(func(s tracker.Session) { c.enter(ctx, s) }) {
	case tracker.Rendered:
		c.render()
	case tracker.Redirect:
		c.redirect()
	default:
		fmt.Fprintln(c.out, "Loading...")
	}
}

// protected runs fn only with a signed-in session and a controller bound to
// it.
func (c *Console) protected(ctx context.Context, fn func(*tracker.Controller) error) error {
	var err error
	switch c.gate.Guard(func(s tracker.Session) {
		c.enter(ctx, s)
		err = fn(c.ctrl)
	}) {
	case tracker.Loading:
		fmt.Fprintln(c.out, "Loading...")
	case tracker.Redirect:
		c.redirect()
	}
	return err
}

// enter binds a controller to s, replacing one bound to another account.
func (c *Console) enter(ctx context.Context, s tracker.Session) {
	if c.ctrl != nil && c.ctrl.Session() == s {
		return
	}
	c.ctrl = tracker.NewController(c.store, s, c)
	c.rows = nil
	c.logger.Debug("session bound", "user_id", s.UserID)
	_ = c.ctrl.Refresh(ctx)
}

func (c *Console) redirect() {
	c.ctrl = nil
	c.rows = nil
	fmt.Fprintf(c.out, "Not signed in (%s). Use: login <email>, or signup <email>.\n", tracker.LoginPath)
}

func (c *Console) prompt() string {
	state, session := c.gate.State()
	if state != tracker.SignedIn {
		return "> "
	}
	if c.ctrl != nil {
		if form := c.ctrl.Form(); form.Open() {
			return fmt.Sprintf("%s [%s]> ", session.Email, form.Mode)
		}
	}
	return session.Email + "> "
}

func (c *Console) report(err error) {
	var usage usageError
	if errors.As(err, &usage) {
		fmt.Fprintf(c.out, "usage: %s\n", usage.text)
		return
	}
	switch {
	case errors.Is(err, tracker.ErrEditorOpen):
		fmt.Fprintln(c.out, "an expense is already being edited; submit or cancel it first")
	case errors.Is(err, tracker.ErrEditorClosed):
		fmt.Fprintln(c.out, "no expense is being edited; use add or edit")
	case errors.Is(err, tracker.ErrNoSuchRecord), errors.Is(err, tracker.ErrUnknownField):
		fmt.Fprintf(c.out, "%v\n", err)
	default:
		fmt.Fprintf(c.out, "error: %v\n", err)
	}
}

// readPassword prompts for a secret. Terminal input is read without echo;
// anything else is read as one more line.
func (c *Console) readPassword(label string) (string, bool) {
	fmt.Fprint(c.out, label)
	if !c.hidden {
		if !c.in.Scan() {
			return "", false
		}
		return strings.TrimSpace(c.in.Text()), true
	}

	raw, err := term.ReadPassword(c.fd)
	fmt.Fprintln(c.out)
	if err != nil {
		c.logger.Debug("password not read", "error", err)
		return "", false
	}
	return strings.TrimSpace(string(raw)), true
}

// terminalFD returns the descriptor of in and whether it is an interactive
// terminal.
func terminalFD(in io.Reader) (int, bool) {
	f, ok := in.(*os.File)
	if !ok {
		return -1, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	name, rest, _ := strings.Cut(line, " ")
	return strings.ToLower(name), strings.TrimSpace(rest)
}

type usageError struct {
	text string
}

func (u usageError) Error() string {
	return "usage: " + u.text
}
