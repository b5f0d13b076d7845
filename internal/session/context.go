// Package session holds the authenticated session and the selected branch
// for the lifetime of the program.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nutriplan/nutriplan/internal/models"
	"github.com/nutriplan/nutriplan/internal/repository"
	"github.com/nutriplan/nutriplan/internal/util"
)

// Persisted keys. token and username duplicate the session payload for
// older clients reading the same store.
const (
	KeySession    = "session"
	KeyToken      = "token"
	KeyUsername   = "username"
	KeyBranchID   = "sucursalId"
	KeyBranchName = "sucursalNombre"
)

// Keys lists every key cleared on logout.
var Keys = []string{KeySession, KeyToken, KeyUsername, KeyBranchID, KeyBranchName}

// ErrNoSession is returned by operations that need a logged-in user.
var ErrNoSession = errors.New("not logged in")

// Store persists session state.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	SetMany(ctx context.Context, values map[string]string) error
	DeleteKeys(ctx context.Context, keys ...string) error
}

// Context is the application session. Create it once in main and pass it
// down; it is safe for concurrent use.
type Context struct {
	mu      sync.RWMutex
	store   Store
	clock   util.Clock
	parent  context.Context
	session *models.Session
	branch  models.Branch
	epoch   uint64

	branchCtx    context.Context
	cancelBranch context.CancelFunc

	unauthorized bool
	onUnauth     func()
}

// New creates an empty context. Call Hydrate to restore a previous session.
func New(parent context.Context, store Store, clock util.Clock) *Context {
	if clock == nil {
		clock = util.SystemClock{}
	}
	c := &Context{store: store, clock: clock, parent: parent}
	c.branchCtx, c.cancelBranch = context.WithCancel(parent)
	return c
}

// Hydrate restores the session from the store. A missing session is not an
// error; an expired or unreadable one is cleared.
func (c *Context) Hydrate(ctx context.Context) error {
	raw, err := c.store.Get(ctx, KeySession)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading session: %w", err)
	}

	var s models.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil || models.Validate(s) != nil {
		slog.Warn("discarding unreadable session")
		return c.Teardown(ctx)
	}
	if s.Expired(c.clock.Now()) {
		slog.Info("stored session expired", "username", s.Username)
		return c.Teardown(ctx)
	}

	branch, ok := c.storedBranch(ctx, s)
	if !ok {
		branch, _ = s.DefaultBranch()
	}

	c.mu.Lock()
	c.session = &s
	c.unauthorized = false
	c.mu.Unlock()

	c.setBranch(branch)
	slog.Info("session restored", "username", s.Username, "branch_id", branch.ID)
	return nil
}

func (c *Context) storedBranch(ctx context.Context, s models.Session) (models.Branch, bool) {
	idStr, err := c.store.Get(ctx, KeyBranchID)
	if err != nil {
		return models.Branch{}, false
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return models.Branch{}, false
	}
	for _, b := range s.Branches {
		if b.ID == id {
			return b, true
		}
	}
	name, _ := c.store.Get(ctx, KeyBranchName)
	if len(s.Branches) == 0 && name != "" {
		return models.Branch{ID: id, Name: name}, true
	}
	return models.Branch{}, false
}

// Begin starts a session after a successful login and selects the default
// branch.
func (c *Context) Begin(ctx context.Context, s models.Session) error {
	if err := models.Validate(s); err != nil {
		return err
	}
	if s.ExpiresAt.IsZero() {
		s.ExpiresAt = TokenExpiry(s.Token)
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	branch, _ := s.DefaultBranch()
	values := map[string]string{
		KeySession:  string(raw),
		KeyToken:    s.Token,
		KeyUsername: s.Username,
	}
	if branch.ID != 0 {
		values[KeyBranchID] = strconv.FormatInt(branch.ID, 10)
		values[KeyBranchName] = branch.Name
	}
	if err := c.store.SetMany(ctx, values); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	c.mu.Lock()
	c.session = &s
	c.unauthorized = false
	c.mu.Unlock()

	c.setBranch(branch)
	slog.Info("session started", "username", s.Username, "branch_id", branch.ID)
	return nil
}

// SelectBranch switches the branch scope. Requests scoped to the previous
// branch are cancelled and their responses discarded.
func (c *Context) SelectBranch(ctx context.Context, b models.Branch) error {
	c.mu.RLock()
	s := c.session
	c.mu.RUnlock()
	if s == nil {
		return ErrNoSession
	}

	allowed := len(s.Branches) == 0
	for _, sb := range s.Branches {
		if sb.ID == b.ID {
			allowed = true
			b = sb
			break
		}
	}
	if !allowed {
		return fmt.Errorf("branch %d is not assigned to %s", b.ID, s.Username)
	}

	err := c.store.SetMany(ctx, map[string]string{
		KeyBranchID:   strconv.FormatInt(b.ID, 10),
		KeyBranchName: b.Name,
	})
	if err != nil {
		return fmt.Errorf("saving branch: %w", err)
	}

	c.setBranch(b)
	slog.Info("branch selected", "branch_id", b.ID, "branch", b.Name)
	return nil
}

// setBranch installs b, bumps the epoch and replaces the branch context.
func (c *Context) setBranch(b models.Branch) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.branch = b
	c.epoch++
	c.cancelBranch()
	c.branchCtx, c.cancelBranch = context.WithCancel(c.parent)
}

// Teardown clears the persisted keys and resets the context.
func (c *Context) Teardown(ctx context.Context) error {
	err := c.store.DeleteKeys(ctx, Keys...)

	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	c.setBranch(models.Branch{})

	if err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	slog.Info("session cleared")
	return nil
}

// OnUnauthorized registers fn to run when the backend rejects the token.
func (c *Context) OnUnauthorized(fn func()) {
	c.mu.Lock()
	c.onUnauth = fn
	c.mu.Unlock()
}

// Unauthorized records a 401 from the backend.
func (c *Context) Unauthorized() {
	c.mu.Lock()
	c.unauthorized = true
	fn := c.onUnauth
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// WasUnauthorized reports whether a 401 arrived since the session began.
func (c *Context) WasUnauthorized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.unauthorized
}

// Token returns the bearer token, empty when logged out.
func (c *Context) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.Token
}

// BranchID returns the selected branch id, 0 when none.
func (c *Context) BranchID() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.branch.ID
}

// Epoch identifies the current branch selection.
func (c *Context) Epoch() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epoch
}

// BranchContext is cancelled when the branch changes or the session ends.
func (c *Context) BranchContext() context.Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.branchCtx
}

// Session returns a copy of the current session.
func (c *Context) Session() (models.Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return models.Session{}, false
	}
	return *c.session, true
}

// Branch returns the selected branch.
func (c *Context) Branch() (models.Branch, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.branch, c.branch.ID != 0
}

// LoggedIn reports whether a session is active.
func (c *Context) LoggedIn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session != nil
}

// TokenExpiry reads the exp claim of a JWT without verifying it. The
// backend owns verification; the client only needs to know when to stop
// using the token. Returns the zero time when the token carries no expiry.
func TokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
