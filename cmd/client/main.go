// Package main is the donorlink command-line client: signup, login, the
// profile dashboard, account changes confirmed by one-time codes, and
// donation tracking.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/atinyakov/donorlink/internal/client/api"
	"github.com/atinyakov/donorlink/internal/client/prompt"
	"github.com/atinyakov/donorlink/internal/config"
)

var (
	version   string
	buildDate string
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "donorlink",
		Short: "Coordinate blood and organ donations from the terminal",
		Long: `donorlink talks to the donation coordination API.

Examples:
  donorlink signup
  donorlink login --email ada@example.org
  donorlink profile
  donorlink watch 6f1c...
  donorlink shell`,
		Version:       fmt.Sprintf("%s (built %s)", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A")),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	config.ClientFlags(root.PersistentFlags())

	root.AddCommand(
		newSignupCmd(a),
		newLoginCmd(a),
		newVerifyCmd(a),
		newResendCmd(a),
		newLogoutCmd(a),
		newProfileCmd(a),
		newHistoryCmd(a),
		newTrackCmd(a),
		newWatchCmd(a),
		newUpdateEmailCmd(a),
		newUpdatePhoneCmd(a),
		newUpdatePasswordCmd(a),
		newUploadAvatarCmd(a),
		newShellCmd(a),
	)
	return root
}

// message is what the user sees for err.
func message(err error) string {
	if errors.Is(err, prompt.ErrClosed) || errors.Is(err, context.Canceled) {
		return "aborted"
	}
	return api.MessageOf(err, err.Error())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp()
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", message(err))
		os.Exit(1)
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}
