// Package session implements the guard placed in front of every protected
// view. The guard reads the credential store, re-derives the account's
// activation status from a fresh profile fetch, and redirects when the user
// is not allowed in.
package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atinyakov/donorlink/internal/client/api"
	"github.com/atinyakov/donorlink/internal/models"
)

// Messages shown by the guard.
const (
	MsgCompleteVerification = "please complete verification"
	MsgLoadFailed           = "failed to load profile"
)

var errEmptyProfile = errors.New("profile source returned no profile")

// State is the guard's position in its state machine:
// Unchecked -> Checking -> Authorized | Unauthenticated | Unverified | Errored.
type State int

const (
	Unchecked State = iota
	Checking
	Authorized
	Unauthenticated
	Unverified
	Errored
)

func (s State) String() string {
	switch s {
	case Unchecked:
		return "unchecked"
	case Checking:
		return "checking"
	case Authorized:
		return "authorized"
	case Unauthenticated:
		return "unauthenticated"
	case Unverified:
		return "unverified"
	case Errored:
		return "errored"
	}
	return "unknown"
}

// Route is a navigation target.
type Route string

const (
	// RouteLogin is the login entry point.
	RouteLogin Route = "/login"
	// RouteVerify is the OTP verification entry point.
	RouteVerify Route = "/verify-otp"
	// RouteDashboard is the authenticated landing view.
	RouteDashboard Route = "/dashboard"
)

// Navigator performs redirects.
type Navigator interface {
	Navigate(Route)
}

// TokenStore is the part of the credential store the guard needs.
type TokenStore interface {
	Get() (string, bool)
	Clear() error
}

// ProfileSource fetches what a protected view displays.
type ProfileSource interface {
	Profile(ctx context.Context) (*models.Profile, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

// View is the resolved outcome of a guard check.
type View struct {
	State State
	// Profile is set only when State is Authorized.
	Profile *models.Profile
	// Stats is set when the guard was built WithStats and State is Authorized.
	Stats *models.Stats
	// DisplayName is the profile's full name.
	DisplayName string
	// RoleLabel is the formatted role set, e.g. "Donor & Patient".
	RoleLabel string
	// Message is the user-facing error for Unverified and Errored.
	Message string
	// Redirect is where the guard navigated, empty when it did not.
	Redirect Route
	// Err is the failure that produced a non-authorized state.
	Err error
}

// Guard gates a protected view.
type Guard struct {
	store     TokenStore
	source    ProfileSource
	nav       Navigator
	log       *zap.Logger
	withStats bool

	mu     sync.Mutex
	view   View
	cancel context.CancelFunc
	gen    uint64
}

// Option configures a Guard.
type Option func(*Guard)

// WithStats makes Mount load statistics in parallel with the profile. A
// failure of either aborts the combined load.
func WithStats() Option {
	return func(g *Guard) {
		g.withStats = true
	}
}

// WithLogger sets the guard logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Guard) {
		g.log = l
	}
}

// NewGuard builds a guard in the Unchecked state.
func NewGuard(store TokenStore, source ProfileSource, nav Navigator, opts ...Option) *Guard {
	g := &Guard{
		store:  store,
		source: source,
		nav:    nav,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// State returns the current state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.view.State
}

// View returns the last resolved view.
func (g *Guard) View() View {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.view
}

// Mount runs the guard check. In-flight requests are tied to the mount and
// are cancelled by Unmount or by a later Mount. Without a token it resolves
// Unauthenticated immediately and issues no request.
func (g *Guard) Mount(ctx context.Context) View {
	g.Unmount()

	if _, ok := g.store.Get(); !ok {
		g.log.Debug("no session token, redirecting to login")
		return g.resolve(View{State: Unauthenticated, Redirect: RouteLogin})
	}

	runCtx, cancel := context.WithCancel(ctx)
	g.mu.Lock()
	g.gen++
	gen := g.gen
	g.cancel = cancel
	g.view = View{State: Checking}
	g.mu.Unlock()
	defer g.release(gen, cancel)

	profile, stats, err := g.load(runCtx)
	if err != nil && runCtx.Err() != nil {
		g.log.Debug("guard check aborted", zap.Error(err))
		g.mu.Lock()
		if g.gen == gen {
			g.view = View{State: Unchecked}
		}
		g.mu.Unlock()
		return View{State: Unchecked, Err: err}
	}
	if err == nil && profile == nil {
		err = &api.Error{Kind: api.KindTransport, Message: api.MsgTransport, Err: errEmptyProfile}
	}

	var v View
	clearToken := false
	switch api.KindOf(err) {
	case api.KindNone:
		if !profile.Status.Completed() {
			g.log.Info("account not verified", zap.String("status", string(profile.Status)))
			v = View{State: Unverified, Message: MsgCompleteVerification, Redirect: RouteVerify}
			break
		}
		v = View{
			State:       Authorized,
			Profile:     profile,
			Stats:       stats,
			DisplayName: profile.FullName(),
			RoleLabel:   FormatRoles(profile.UserType),
		}
	case api.KindUnauthenticated:
		clearToken = true
		v = View{State: Unauthenticated, Redirect: RouteLogin, Err: err}
	case api.KindUnverified:
		v = View{State: Unverified, Message: MsgCompleteVerification, Redirect: RouteVerify, Err: err}
	default:
		g.log.Warn("failed to load profile", zap.Error(err))
		v = View{State: Errored, Message: MsgLoadFailed, Err: err}
	}

	if !g.settle(gen, v, clearToken) {
		g.log.Debug("stale guard check dropped", zap.Stringer("state", v.State))
		return View{State: Unchecked, Err: context.Canceled}
	}
	return g.navigate(v)
}

// Retry re-runs the check; it is the manual way out of Errored.
func (g *Guard) Retry(ctx context.Context) View {
	return g.Mount(ctx)
}

// Unmount cancels any in-flight request started by Mount. Results of that
// request are discarded even if it completes anyway.
func (g *Guard) Unmount() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	if g.view.State == Checking {
		g.view = View{State: Unchecked}
	}
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}

// Logout clears the credential store, then redirects to login.
func (g *Guard) Logout() error {
	g.Unmount()
	if err := g.store.Clear(); err != nil {
		return err
	}
	g.resolve(View{State: Unauthenticated, Redirect: RouteLogin})
	return nil
}

// HandleAuthError applies the session policy to a failure from any
// authenticated call: a 401 clears the store and redirects to login, a 403
// redirects to verification and keeps the token. It reports whether err was
// handled.
func (g *Guard) HandleAuthError(err error) bool {
	switch api.KindOf(err) {
	case api.KindUnauthenticated:
		g.Unmount()
		if cerr := g.store.Clear(); cerr != nil {
			g.log.Error("failed to clear session token", zap.Error(cerr))
		}
		g.resolve(View{State: Unauthenticated, Redirect: RouteLogin, Err: err})
		return true
	case api.KindUnverified:
		g.Unmount()
		g.resolve(View{State: Unverified, Message: MsgCompleteVerification, Redirect: RouteVerify, Err: err})
		return true
	}
	return false
}

func (g *Guard) load(ctx context.Context) (*models.Profile, *models.Stats, error) {
	if !g.withStats {
		p, err := g.source.Profile(ctx)
		return p, nil, err
	}

	var (
		profile *models.Profile
		stats   *models.Stats
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		p, err := g.source.Profile(egCtx)
		profile = p
		return err
	})
	eg.Go(func() error {
		s, err := g.source.Stats(egCtx)
		stats = s
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	return profile, stats, nil
}

// resolve records the terminal view and performs its redirect. The redirect
// is always the last action.
func (g *Guard) resolve(v View) View {
	g.mu.Lock()
	g.view = v
	g.mu.Unlock()
	return g.navigate(v)
}

// settle records v only if gen is still the current check, clearing the
// token first when asked. It reports whether v was applied.
func (g *Guard) settle(gen uint64, v View, clearToken bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gen != gen {
		return false
	}
	if clearToken {
		if err := g.store.Clear(); err != nil {
			g.log.Error("failed to clear session token", zap.Error(err))
		}
	}
	g.view = v
	return true
}

func (g *Guard) navigate(v View) View {
	g.log.Debug("guard resolved", zap.Stringer("state", v.State), zap.String("redirect", string(v.Redirect)))
	if v.Redirect != "" && g.nav != nil {
		g.nav.Navigate(v.Redirect)
	}
	return v
}

func (g *Guard) release(gen uint64, cancel context.CancelFunc) {
	cancel()
	g.mu.Lock()
	if g.gen == gen {
		g.cancel = nil
	}
	g.mu.Unlock()
}
