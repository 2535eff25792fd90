package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atinyakov/donorlink/internal/client/api"
	"github.com/atinyakov/donorlink/internal/client/donations"
	"github.com/atinyakov/donorlink/internal/client/prompt"
	"github.com/atinyakov/donorlink/internal/client/session"
	"github.com/atinyakov/donorlink/internal/client/storage"
	"github.com/atinyakov/donorlink/internal/config"
	"github.com/atinyakov/donorlink/internal/logger"
)

// app holds the collaborators shared by every command. It is built once,
// before the first command runs.
type app struct {
	opts   *config.ClientOptions
	log    *zap.Logger
	store  *storage.FileStore
	client *api.Client
	nav    *hintNavigator
	prompt *prompt.Prompter
	out    io.Writer
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.client != nil {
		return nil
	}
	opts, err := config.LoadClient(cmd.Flags())
	if err != nil {
		return err
	}
	a.opts = opts

	l := logger.New()
	if err := l.Init(opts.LogLevel); err != nil {
		return err
	}
	a.log = l.Log

	var storeOpts []storage.FileOption
	storeOpts = append(storeOpts, storage.WithLogger(a.log))
	if opts.TokenSecret != "" {
		aead, err := storage.NewAEADFromSecret([]byte(opts.TokenSecret))
		if err != nil {
			return fmt.Errorf("token secret: %w", err)
		}
		storeOpts = append(storeOpts, storage.WithCipher(aead))
	}
	a.store = storage.NewFileStore(opts.TokenFile, storeOpts...)
	if err := a.store.Load(); err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	hc, err := storage.NewHTTPClient(opts.CAFile, opts.Timeout)
	if err != nil {
		return err
	}
	a.client = api.NewClient(opts.APIURL,
		api.WithHTTPClient(hc),
		api.WithTimeout(opts.Timeout),
		api.WithTokenSource(a.store),
		api.WithLogger(a.log),
	)
	a.nav = &hintNavigator{out: a.out}
	return nil
}

// guard returns a fresh guard over the persisted session.
func (a *app) guard(opts ...session.Option) *session.Guard {
	opts = append(opts, session.WithLogger(a.log))
	return session.NewGuard(a.store, a.client, a.nav, opts...)
}

// authorized runs the guard check and reports whether the protected command
// may proceed. The navigator has already printed what to do otherwise.
func (a *app) authorized(ctx context.Context, g *session.Guard) (session.View, bool) {
	v := g.Mount(ctx)
	switch v.State {
	case session.Authorized:
		return v, true
	case session.Unverified, session.Errored:
		fmt.Fprintln(a.out, v.Message)
	}
	return v, false
}

func (a *app) tracker(g *session.Guard) *donations.Tracker {
	return donations.NewTracker(a.client, donations.WithAuthHandler(g), donations.WithLogger(a.log))
}

// hintNavigator turns redirects into hints for the next command to run.
type hintNavigator struct {
	out io.Writer
}

func (n *hintNavigator) Navigate(r session.Route) {
	switch r {
	case session.RouteLogin:
		fmt.Fprintln(n.out, "You are signed out. Run `donorlink login` to continue.")
	case session.RouteVerify:
		fmt.Fprintln(n.out, "Your account is not verified yet. Run `donorlink verify` with the code from your email.")
	case session.RouteDashboard:
		fmt.Fprintln(n.out, "You are signed in. Run `donorlink profile` to see your dashboard.")
	}
}

func newApp() *app {
	return &app{
		prompt: prompt.New(os.Stdin, os.Stdout),
		out:    os.Stdout,
	}
}
