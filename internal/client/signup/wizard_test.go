package signup

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/donorlink/internal/client/api"
	"github.com/atinyakov/donorlink/internal/client/session"
	"github.com/atinyakov/donorlink/internal/client/storage"
	"github.com/atinyakov/donorlink/internal/models"
)

type fakeRemote struct {
	signups   []api.SignupRequest
	verifies  []string
	resends   []string
	signupErr error
	verifyErr error
	resendErr error
}

func (f *fakeRemote) Signup(_ context.Context, req api.SignupRequest) (*api.MessageResponse, error) {
	f.signups = append(f.signups, req)
	if f.signupErr != nil {
		return nil, f.signupErr
	}
	return &api.MessageResponse{Message: "otp sent"}, nil
}

func (f *fakeRemote) VerifyOTP(_ context.Context, email, otp string) (*api.TokenResponse, error) {
	f.verifies = append(f.verifies, email+"/"+otp)
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return &api.TokenResponse{Message: "verified", Token: "jwt-token"}, nil
}

func (f *fakeRemote) ResendOTP(_ context.Context, email string) (*api.MessageResponse, error) {
	f.resends = append(f.resends, email)
	if f.resendErr != nil {
		return nil, f.resendErr
	}
	return &api.MessageResponse{}, nil
}

type fakeNav struct {
	routes []session.Route
}

func (n *fakeNav) Navigate(r session.Route) { n.routes = append(n.routes, r) }

func fillValid(d *Draft) {
	d.FirstName = "Grace"
	d.LastName = "Hopper"
	d.Age = 30
	d.Email = "grace@example.org"
	d.Password = "cobol1"
	d.ConfirmPassword = "cobol1"
	d.AgreeTerms = true
	d.OTP = "123456"
}

func readyWizard(t *testing.T, remote *fakeRemote, opts ...Option) (*Wizard, *storage.MemoryStore, *fakeNav) {
	t.Helper()
	store := storage.NewMemoryStore()
	nav := &fakeNav{}
	w := New(remote, store, nav, opts...)
	w.Update(fillValid)
	require.NoError(t, w.Next())
	require.NoError(t, w.Next())
	require.Equal(t, StepVerification, w.Step())
	return w, store, nav
}

func TestWizard_Defaults(t *testing.T) {
	w := New(&fakeRemote{}, storage.NewMemoryStore(), &fakeNav{})

	assert.Equal(t, StepPersonal, w.Step())
	assert.Equal(t, models.RoleDonor, w.Draft().Role)
	assert.InDelta(t, 0, w.Progress(), 0.001)
	assert.False(t, w.Created())
}

func TestWizard_UnderageBlocksAdvance(t *testing.T) {
	w := New(&fakeRemote{}, storage.NewMemoryStore(), &fakeNav{})
	w.Update(func(d *Draft) {
		d.FirstName = "Tim"
		d.LastName = "Young"
		d.Age = 17
	})

	err := w.Next()

	require.Error(t, err)
	assert.Equal(t, api.KindValidation, api.KindOf(err))
	assert.Equal(t, StepPersonal, w.Step())
	assert.Equal(t, "you must be at least 18 years old", w.Error())
	assert.Equal(t, "Tim", w.Draft().FirstName, "fields are not cleared")
	assert.Equal(t, 17, w.Draft().Age)
}

func TestWizard_StepValidation(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Draft)
		step Step
		want string
	}{
		{"blank first name", func(d *Draft) { d.FirstName = "  " }, StepPersonal, "first name is required"},
		{"missing last name", func(d *Draft) { d.LastName = "" }, StepPersonal, "last name is required"},
		{"bad email", func(d *Draft) { d.Email = "grace@" }, StepCredentials, "please enter a valid email address"},
		{"short password", func(d *Draft) { d.Password, d.ConfirmPassword = "abc", "abc" }, StepCredentials, "password must be at least 6 characters"},
		{"mismatch", func(d *Draft) { d.ConfirmPassword = "cobol2" }, StepCredentials, "passwords do not match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New(&fakeRemote{}, storage.NewMemoryStore(), &fakeNav{})
			w.Update(fillValid)
			w.Update(tt.edit)

			for w.Step() < tt.step {
				require.NoError(t, w.Next())
			}

			require.Error(t, w.Next())
			assert.Equal(t, tt.step, w.Step())
			assert.Equal(t, tt.want, w.Error())
		})
	}
}

func TestWizard_ProgressAndBounds(t *testing.T) {
	w := New(&fakeRemote{}, storage.NewMemoryStore(), &fakeNav{})
	w.Update(fillValid)

	w.Back()
	assert.Equal(t, StepPersonal, w.Step(), "never below step 1")

	require.NoError(t, w.Next())
	assert.InDelta(t, 50, w.Progress(), 0.001)
	require.NoError(t, w.Next())
	assert.InDelta(t, 100, w.Progress(), 0.001)
	require.NoError(t, w.Next())
	assert.Equal(t, StepVerification, w.Step(), "never past the last step")

	w.Back()
	w.Back()
	assert.Equal(t, StepPersonal, w.Step())
	assert.Equal(t, "Grace", w.Draft().FirstName, "back keeps the draft")
}

func TestWizard_VerificationStepChecks(t *testing.T) {
	remote := &fakeRemote{}
	w, _, _ := readyWizard(t, remote)

	w.Update(func(d *Draft) { d.AgreeTerms = false })
	require.Error(t, w.Finalize(context.Background()))
	assert.Equal(t, "you must accept the terms and conditions", w.Error())

	w.Update(func(d *Draft) {
		d.AgreeTerms = true
		d.Role = "admin"
	})
	require.Error(t, w.Finalize(context.Background()))
	assert.Equal(t, "please select a role", w.Error())

	w.Update(func(d *Draft) {
		d.Role = models.RolePatient
		d.OTP = "12a456"
	})
	require.Error(t, w.Finalize(context.Background()))
	assert.Equal(t, "please enter a valid 6-digit code", w.Error())

	assert.Empty(t, remote.signups, "no call until the step validates")
}

func TestWizard_FinalizeSuccess(t *testing.T) {
	remote := &fakeRemote{}
	w, store, nav := readyWizard(t, remote)

	require.NoError(t, w.Finalize(context.Background()))

	require.Len(t, remote.signups, 1)
	assert.Equal(t, api.SignupRequest{
		FirstName:       "Grace",
		LastName:        "Hopper",
		Age:             30,
		Email:           "grace@example.org",
		Password:        "cobol1",
		ConfirmPassword: "cobol1",
		UserType:        "donor",
		AgreeTerms:      true,
	}, remote.signups[0])
	assert.Equal(t, []string{"grace@example.org/123456"}, remote.verifies)

	tok, ok := store.Get()
	assert.True(t, ok)
	assert.Equal(t, "jwt-token", tok)
	assert.Equal(t, []session.Route{session.RouteDashboard}, nav.routes)
	assert.Empty(t, w.Error())

	// Completion discards the draft, secrets included, and keeps the notice.
	d := w.Draft()
	assert.Empty(t, d.Password)
	assert.Empty(t, d.ConfirmPassword)
	assert.Empty(t, d.OTP)
	assert.Equal(t, Draft{Role: models.RoleDonor}, d)
	assert.Equal(t, StepPersonal, w.Step())
	assert.False(t, w.Created())
	assert.Equal(t, "verified", w.Notice())
}

func TestWizard_VerifyFailureDoesNotRecreate(t *testing.T) {
	remote := &fakeRemote{verifyErr: &api.Error{Kind: api.KindRemote, StatusCode: http.StatusBadRequest, Message: "invalid OTP"}}
	w, store, nav := readyWizard(t, remote)

	require.Error(t, w.Finalize(context.Background()))
	assert.Equal(t, StepVerification, w.Step())
	assert.Equal(t, "invalid OTP", w.Error())
	assert.True(t, w.Created())
	_, ok := store.Get()
	assert.False(t, ok)
	assert.Empty(t, nav.routes)

	remote.verifyErr = nil
	w.Update(func(d *Draft) { d.OTP = "654321" })
	require.NoError(t, w.Finalize(context.Background()))

	assert.Len(t, remote.signups, 1, "account creation is not retried")
	assert.Equal(t, []string{"grace@example.org/123456", "grace@example.org/654321"}, remote.verifies)
}

func TestWizard_SignupFailure(t *testing.T) {
	remote := &fakeRemote{signupErr: &api.Error{Kind: api.KindRemote, StatusCode: http.StatusConflict, Message: "email already registered"}}
	w, _, _ := readyWizard(t, remote)

	require.Error(t, w.Finalize(context.Background()))

	assert.Equal(t, "email already registered", w.Error())
	assert.Empty(t, remote.verifies, "verify is never attempted after a failed signup")
	assert.False(t, w.Created())
}

func TestWizard_TransportFailureMessage(t *testing.T) {
	remote := &fakeRemote{signupErr: &api.Error{Kind: api.KindTransport}}
	w, _, _ := readyWizard(t, remote)

	require.Error(t, w.Finalize(context.Background()))
	assert.Equal(t, msgSignupFailed, w.Error())
}

func TestWizard_ResendOTP(t *testing.T) {
	remote := &fakeRemote{verifyErr: &api.Error{Kind: api.KindRemote, Message: "expired"}}
	w, _, _ := readyWizard(t, remote, WithResendInterval(time.Hour))

	err := w.ResendOTP(context.Background())
	require.Error(t, err, "nothing to resend before the account exists")
	assert.Empty(t, remote.resends)

	require.Error(t, w.Finalize(context.Background()))

	require.NoError(t, w.ResendOTP(context.Background()))
	assert.Equal(t, []string{"grace@example.org"}, remote.resends)
	assert.Equal(t, msgCodeSent, w.Notice())

	err = w.ResendOTP(context.Background())
	require.Error(t, err)
	assert.Equal(t, api.KindValidation, api.KindOf(err))
	assert.Len(t, remote.resends, 1, "throttled")
}

func TestWizard_Abandon(t *testing.T) {
	remote := &fakeRemote{verifyErr: &api.Error{Kind: api.KindRemote}}
	w, _, _ := readyWizard(t, remote)
	require.Error(t, w.Finalize(context.Background()))

	w.Abandon()

	assert.Equal(t, StepPersonal, w.Step())
	assert.Equal(t, Draft{Role: models.RoleDonor}, w.Draft())
	assert.Empty(t, w.Error())
	assert.False(t, w.Created())
}

func TestWizard_CreateAccountBeforeCode(t *testing.T) {
	remote := &fakeRemote{}
	w, store, _ := readyWizard(t, remote)
	w.Update(func(d *Draft) { d.OTP = "" })
	ctx := context.Background()

	require.NoError(t, w.CreateAccount(ctx))
	assert.True(t, w.Created())
	assert.Equal(t, "otp sent", w.Notice())
	assert.Empty(t, remote.verifies)

	require.NoError(t, w.CreateAccount(ctx))
	assert.Len(t, remote.signups, 1, "an existing account is not created again")

	err := w.Finalize(ctx)
	require.Error(t, err)
	assert.Equal(t, api.KindValidation, api.KindOf(err))

	w.Update(func(d *Draft) { d.OTP = "123456" })
	require.NoError(t, w.Finalize(ctx))
	assert.Len(t, remote.signups, 1)
	_, ok := store.Get()
	assert.True(t, ok)
}

func TestWizard_CreateAccountChecksTerms(t *testing.T) {
	remote := &fakeRemote{}
	w, _, _ := readyWizard(t, remote)
	w.Update(func(d *Draft) { d.AgreeTerms, d.OTP = false, "" })

	err := w.CreateAccount(context.Background())
	require.Error(t, err)
	assert.Equal(t, "you must accept the terms and conditions", w.Error())
	assert.Empty(t, remote.signups)

	w2 := New(remote, storage.NewMemoryStore(), &fakeNav{})
	require.Error(t, w2.CreateAccount(context.Background()))
	assert.Empty(t, remote.signups)
}
