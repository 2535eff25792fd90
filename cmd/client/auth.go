package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atinyakov/donorlink/internal/client/api"
	"github.com/atinyakov/donorlink/internal/client/prompt"
	"github.com/atinyakov/donorlink/internal/client/session"
	"github.com/atinyakov/donorlink/internal/client/signup"
	"github.com/atinyakov/donorlink/internal/models"
)

var roleChoices = []string{string(models.RoleDonor), string(models.RoleHospital), string(models.RolePatient)}

func newSignupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Long: `Create an account in three steps: personal details, credentials, then
role and terms. The account is created once the last step is complete,
and a verification code is sent to your email.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSignup(cmd.Context(), a)
		},
	}
}

// ask prompts with the current value as default, if there is one.
func ask(p *prompt.Prompter, label, current string) (string, error) {
	if current == "" {
		return p.Line(label)
	}
	return p.Default(label, current)
}

func askPersonal(p *prompt.Prompter, w *signup.Wizard) error {
	d := w.Draft()
	first, err := ask(p, "First name", d.FirstName)
	if err != nil {
		return err
	}
	last, err := ask(p, "Last name", d.LastName)
	if err != nil {
		return err
	}
	age, err := p.Int("Age")
	if err != nil {
		return err
	}
	w.Update(func(d *signup.Draft) {
		d.FirstName, d.LastName, d.Age = first, last, age
	})
	return nil
}

func askCredentials(p *prompt.Prompter, w *signup.Wizard) error {
	email, err := ask(p, "Email", w.Draft().Email)
	if err != nil {
		return err
	}
	password, err := p.Secret("Password (at least 6 characters)")
	if err != nil {
		return err
	}
	confirm, err := p.Secret("Confirm password")
	if err != nil {
		return err
	}
	w.Update(func(d *signup.Draft) {
		d.Email, d.Password, d.ConfirmPassword = email, password, confirm
	})
	return nil
}

func askRoleAndTerms(p *prompt.Prompter, w *signup.Wizard) error {
	role, err := p.Choice("Role", roleChoices, string(w.Draft().Role))
	if err != nil {
		return err
	}
	terms, err := p.Confirm("Do you accept the terms and conditions?")
	if err != nil {
		return err
	}
	w.Update(func(d *signup.Draft) {
		d.Role, d.AgreeTerms = models.Role(role), terms
	})
	return nil
}

func runSignup(ctx context.Context, a *app) error {
	p := a.prompt
	w := signup.New(a.client, a.store, a.nav, signup.WithLogger(a.log))

	for !w.Created() {
		fmt.Fprintf(a.out, "\nStep %d of %d (%.0f%% complete)\n", w.Step(), signup.TotalSteps, w.Progress())
		switch w.Step() {
		case signup.StepPersonal, signup.StepCredentials:
			fill := askPersonal
			if w.Step() == signup.StepCredentials {
				fill = askCredentials
			}
			if err := fill(p, w); err != nil {
				w.Abandon()
				return err
			}
			if err := w.Next(); err != nil {
				fmt.Fprintln(a.out, w.Error())
			}
		case signup.StepVerification:
			if err := askRoleAndTerms(p, w); err != nil {
				w.Abandon()
				return err
			}
			err := w.CreateAccount(ctx)
			switch api.KindOf(err) {
			case api.KindNone:
			case api.KindValidation:
				fmt.Fprintln(a.out, w.Error())
			case api.KindRemote:
				// Most likely the email is taken; go back to credentials.
				fmt.Fprintln(a.out, w.Error())
				w.Back()
			default:
				return err
			}
		}
	}

	fmt.Fprintln(a.out, w.Notice())
	for {
		code, err := p.Code("Verification code (leave empty to resend)")
		if err != nil {
			return err
		}
		if code == "" {
			if err := w.ResendOTP(ctx); err != nil {
				fmt.Fprintln(a.out, w.Error())
			} else {
				fmt.Fprintln(a.out, w.Notice())
			}
			continue
		}
		w.Update(func(d *signup.Draft) { d.OTP = code })
		err = w.Finalize(ctx)
		if err == nil {
			return nil
		}
		if api.KindOf(err) == api.KindTransport {
			return err
		}
		fmt.Fprintln(a.out, w.Error())
	}
}

func newLoginCmd(a *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var err error
			if email == "" {
				if email, err = a.prompt.Line("Email"); err != nil {
					return err
				}
			}
			password, err := a.prompt.Secret("Password")
			if err != nil {
				return err
			}
			resp, err := a.client.Login(ctx, email, password)
			if err != nil {
				return err
			}
			if err := a.store.Set(resp.Token); err != nil {
				return err
			}
			if v, ok := a.authorized(ctx, a.guard()); ok {
				fmt.Fprintf(a.out, "Welcome back, %s (%s).\n", v.DisplayName, v.RoleLabel)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}

func newVerifyCmd(a *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a new account with the emailed code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email == "" {
				if email, err = a.prompt.Line("Email"); err != nil {
					return err
				}
			}
			code, err := a.prompt.Code("Verification code")
			if err != nil {
				return err
			}
			resp, err := a.client.VerifyOTP(cmd.Context(), email, code)
			if err != nil {
				return err
			}
			if err := a.store.Set(resp.Token); err != nil {
				return err
			}
			a.nav.Navigate(session.RouteDashboard)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}

func newResendCmd(a *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "resend-otp",
		Short: "Send a new verification code for an unverified account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email == "" {
				if email, err = a.prompt.Line("Email"); err != nil {
					return err
				}
			}
			resp, err := a.client.ResendOTP(cmd.Context(), email)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, resp.Message)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return a.guard().Logout()
		},
	}
}
