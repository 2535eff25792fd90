package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/atinyakov/donorlink/internal/client/api"
	"github.com/atinyakov/donorlink/internal/client/challenge"
	"github.com/atinyakov/donorlink/internal/client/session"
)

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func printDashboard(a *app, v session.View) {
	p := v.Profile
	fmt.Fprintf(a.out, "%s · %s\n", v.DisplayName, v.RoleLabel)
	fmt.Fprintf(a.out, "  Email:    %s (verified: %s)\n", p.Email, yesNo(p.EmailVerified))
	if p.Phone != "" {
		fmt.Fprintf(a.out, "  Phone:    %s (verified: %s)\n", p.Phone, yesNo(p.PhoneVerified))
	}
	fmt.Fprintf(a.out, "  KYC:      %s\n", yesNo(p.KYCVerified))
	if p.ProfilePicture != "" {
		fmt.Fprintf(a.out, "  Picture:  %s%s\n", a.client.BaseURL(), p.ProfilePicture)
	}
	for _, c := range p.Certificates {
		fmt.Fprintf(a.out, "  Certificate: %s (%s)\n", c.Title, c.IssuedAt.Format("2006-01-02"))
	}
	if s := v.Stats; s != nil {
		fmt.Fprintf(a.out, "  Lives helped:    %d\n", s.LivesHelped)
		fmt.Fprintf(a.out, "  Trust score:     %.1f\n", s.TrustScore)
		fmt.Fprintf(a.out, "  Total donations: %d\n", s.TotalDonations)
	}
}

func newProfileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "profile",
		Aliases: []string{"dashboard"},
		Short:   "Show your profile and donation statistics",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, ok := a.authorized(cmd.Context(), a.guard(session.WithStats()))
			if ok {
				printDashboard(a, v)
			}
			return nil
		},
	}
}

// authFailure reports whether err was a session failure; the navigator has
// already told the user what to do.
func authFailure(err error) bool {
	k := api.KindOf(err)
	return k == api.KindUnauthenticated || k == api.KindUnverified
}

// runFieldChange drives the two-phase change: ask for the new value until a
// code is sent, then for the code until it is accepted. An empty code
// cancels.
func runFieldChange(ctx context.Context, a *app, c *challenge.FieldChallenge, label, value string) error {
	c.Edit()
	for c.Mode() != challenge.AwaitingOTP {
		if value == "" {
			var err error
			if value, err = a.prompt.Line(label); err != nil {
				c.Cancel()
				return err
			}
		}
		err := c.Request(ctx, value)
		fmt.Fprintln(a.out, c.Feedback().Text)
		if authFailure(err) {
			return nil
		}
		value = ""
	}

	for c.Mode() == challenge.AwaitingOTP {
		code, err := a.prompt.Code(fmt.Sprintf("Code sent to %s (leave empty to cancel)", c.Pending()))
		if err != nil {
			c.Cancel()
			return err
		}
		if code == "" {
			c.Cancel()
			fmt.Fprintln(a.out, "Change cancelled.")
			return nil
		}
		err = c.Confirm(ctx, code)
		fmt.Fprintln(a.out, c.Feedback().Text)
		if authFailure(err) {
			return nil
		}
	}
	return nil
}

func newUpdateEmailCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update-email [new-email]",
		Short: "Change your email, confirmed by a code sent to the new address",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g := a.guard()
			v, ok := a.authorized(cmd.Context(), g)
			if !ok {
				return nil
			}
			c := challenge.NewEmail(a.client, v.Profile.Email,
				challenge.WithAuthHandler(g), challenge.WithLogger(a.log))
			fmt.Fprintf(a.out, "Current email: %s\n", c.Current())
			return runFieldChange(cmd.Context(), a, c, "New email", firstArg(args))
		},
	}
}

func newUpdatePhoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update-phone [new-phone]",
		Short: "Change your phone number, confirmed by a code sent to it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g := a.guard()
			v, ok := a.authorized(cmd.Context(), g)
			if !ok {
				return nil
			}
			c := challenge.NewPhone(a.client, v.Profile.Phone,
				challenge.WithAuthHandler(g), challenge.WithLogger(a.log))
			if c.Current() != "" {
				fmt.Fprintf(a.out, "Current phone: %s\n", c.Current())
			}
			return runFieldChange(cmd.Context(), a, c, "New phone (e.g. +14155550100)", firstArg(args))
		},
	}
}

func newUpdatePasswordCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update-password",
		Short: "Change your password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g := a.guard()
			if _, ok := a.authorized(cmd.Context(), g); !ok {
				return nil
			}
			pc := challenge.NewPassword(a.client, challenge.WithAuthHandler(g), challenge.WithLogger(a.log))
			pc.Edit()
			for pc.Mode() == challenge.Editing {
				current, err := a.prompt.Secret("Current password")
				if err != nil {
					return err
				}
				next, err := a.prompt.Secret("New password")
				if err != nil {
					return err
				}
				confirm, err := a.prompt.Secret("Confirm new password")
				if err != nil {
					return err
				}
				err = pc.Submit(cmd.Context(), current, next, confirm)
				fmt.Fprintln(a.out, pc.Feedback().Text)
				if authFailure(err) {
					return nil
				}
			}
			return nil
		},
	}
}

func newUploadAvatarCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upload-avatar <image>",
		Short: "Upload a profile picture (jpeg, png, gif or webp, up to 5 MB)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g := a.guard()
			if _, ok := a.authorized(cmd.Context(), g); !ok {
				return nil
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			url, err := a.client.UploadAvatar(cmd.Context(), args[0], f)
			if err != nil {
				g.HandleAuthError(err)
				return err
			}
			fmt.Fprintf(a.out, "Profile picture updated: %s%s\n", a.client.BaseURL(), url)
			return nil
		},
	}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
