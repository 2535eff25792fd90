// Package signup implements the three-step registration wizard: personal
// details, credentials, then role, terms and the emailed code. Finalizing
// creates the account, verifies the code and stores the session token.
package signup

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/atinyakov/donorlink/internal/client/api"
	"github.com/atinyakov/donorlink/internal/client/session"
	"github.com/atinyakov/donorlink/internal/models"
	"github.com/atinyakov/donorlink/internal/validate"
)

// Step is a wizard step, starting at 1.
type Step int

const (
	StepPersonal Step = iota + 1
	StepCredentials
	StepVerification
)

// TotalSteps is the number of wizard steps.
const TotalSteps = 3

// DefaultResendInterval is the minimum time between two resend requests.
const DefaultResendInterval = 30 * time.Second

const (
	msgSignupFailed = "failed to create account"
	msgVerifyFailed = "failed to verify code"
	msgResendFailed = "failed to resend code"
	msgCodeSent     = "a new code has been sent to your email"
)

// Draft holds everything the user typed so far.
type Draft struct {
	FirstName       string
	LastName        string
	Age             int
	Email           string
	Password        string
	ConfirmPassword string
	Role            models.Role
	AgreeTerms      bool
	OTP             string
}

type personalStep struct {
	FirstName string `json:"firstName" validate:"required" msg:"first name is required"`
	LastName  string `json:"lastName" validate:"required" msg:"last name is required"`
	Age       int    `json:"age" validate:"gte=18" msg:"you must be at least 18 years old"`
}

type credentialsStep struct {
	Email           string `json:"email" validate:"loose_email"`
	Password        string `json:"password" validate:"min=6" msg:"password must be at least 6 characters"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password" msg:"passwords do not match"`
}

type verificationStep struct {
	Role       models.Role `json:"userType" validate:"oneof=donor hospital patient" msg:"please select a role"`
	AgreeTerms bool        `json:"agreeTerms" validate:"eq=true" msg:"you must accept the terms and conditions"`
	OTP        string      `json:"otp" validate:"otp"`
}

func (d Draft) check(step Step) error {
	switch step {
	case StepPersonal:
		return validate.Struct(personalStep{
			FirstName: strings.TrimSpace(d.FirstName),
			LastName:  strings.TrimSpace(d.LastName),
			Age:       d.Age,
		})
	case StepCredentials:
		return validate.Struct(credentialsStep{
			Email:           strings.TrimSpace(d.Email),
			Password:        d.Password,
			ConfirmPassword: d.ConfirmPassword,
		})
	case StepVerification:
		return validate.Struct(verificationStep{
			Role:       d.Role,
			AgreeTerms: d.AgreeTerms,
			OTP:        strings.TrimSpace(d.OTP),
		})
	}
	return nil
}

// checkBeforeCode validates every step except the code.
func (d Draft) checkBeforeCode() error {
	for _, s := range []Step{StepPersonal, StepCredentials} {
		if err := d.check(s); err != nil {
			return err
		}
	}
	return validate.StructExcept(verificationStep{
		Role:       d.Role,
		AgreeTerms: d.AgreeTerms,
	}, "OTP")
}

func (d Draft) request() api.SignupRequest {
	return api.SignupRequest{
		FirstName:       strings.TrimSpace(d.FirstName),
		LastName:        strings.TrimSpace(d.LastName),
		Age:             d.Age,
		Email:           strings.TrimSpace(d.Email),
		Password:        d.Password,
		ConfirmPassword: d.ConfirmPassword,
		UserType:        string(d.Role),
		AgreeTerms:      d.AgreeTerms,
	}
}

// Remote is the subset of the API client used by the wizard.
type Remote interface {
	Signup(ctx context.Context, req api.SignupRequest) (*api.MessageResponse, error)
	VerifyOTP(ctx context.Context, email, otp string) (*api.TokenResponse, error)
	ResendOTP(ctx context.Context, email string) (*api.MessageResponse, error)
}

// TokenSetter receives the session token on success.
type TokenSetter interface {
	Set(token string) error
}

// Wizard is the signup state machine.
type Wizard struct {
	remote         Remote
	store          TokenSetter
	nav            session.Navigator
	log            *zap.Logger
	resendInterval time.Duration

	mu      sync.Mutex
	step    Step
	draft   Draft
	errMsg  string
	notice  string
	created string // email of the account already created, if any
	resend  *rate.Limiter
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithLogger sets the wizard logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Wizard) {
		w.log = l
	}
}

// WithResendInterval overrides DefaultResendInterval.
func WithResendInterval(d time.Duration) Option {
	return func(w *Wizard) {
		w.resendInterval = d
	}
}

// New returns a wizard on step 1 with the donor role preselected.
func New(remote Remote, store TokenSetter, nav session.Navigator, opts ...Option) *Wizard {
	w := &Wizard{
		remote:         remote,
		store:          store,
		nav:            nav,
		log:            zap.NewNop(),
		resendInterval: DefaultResendInterval,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.reset()
	return w
}

func (w *Wizard) reset() {
	w.step = StepPersonal
	w.draft = Draft{Role: models.RoleDonor}
	w.errMsg = ""
	w.notice = ""
	w.created = ""
	w.resend = rate.NewLimiter(rate.Every(w.resendInterval), 1)
}

// Step returns the current step.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Progress is the completion percentage derived from the step.
func (w *Wizard) Progress() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return float64(w.step-1) / float64(TotalSteps-1) * 100
}

// Draft returns a copy of the entered data.
func (w *Wizard) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// Update edits the draft in place.
func (w *Wizard) Update(fn func(*Draft)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(&w.draft)
}

// Error returns the step-scoped error, empty when there is none.
func (w *Wizard) Error() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.errMsg
}

// Notice returns the last informational message.
func (w *Wizard) Notice() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.notice
}

// Created reports whether the account was already created.
func (w *Wizard) Created() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.created != ""
}

// Next validates the current step and advances. A failing check sets the
// step error and keeps every entered field. On the last step Next only
// validates; Finalize submits.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.draft.check(w.step); err != nil {
		w.errMsg = err.Error()
		return err
	}
	w.errMsg = ""
	if w.step < TotalSteps {
		w.step++
	}
	return nil
}

// Back returns to the previous step without validation.
func (w *Wizard) Back() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step > StepPersonal {
		w.step--
	}
	w.errMsg = ""
}

// Finalize runs from the last step: it creates the account unless that
// already succeeded for this email, then verifies the OTP. On success the
// token is stored and the user lands on the dashboard. On failure the
// wizard stays on the last step with an error.
func (w *Wizard) Finalize(ctx context.Context) error {
	w.mu.Lock()
	if w.step != StepVerification {
		verr := validate.Newf("complete the previous steps first")
		w.errMsg = verr.Error()
		w.mu.Unlock()
		return verr
	}
	for s := StepPersonal; s <= StepVerification; s++ {
		if err := w.draft.check(s); err != nil {
			w.errMsg = err.Error()
			w.mu.Unlock()
			return err
		}
	}
	req := w.draft.request()
	otp := strings.TrimSpace(w.draft.OTP)
	needCreate := w.created != req.Email
	w.errMsg = ""
	w.mu.Unlock()

	if needCreate {
		if err := w.create(ctx, req); err != nil {
			return err
		}
	}

	resp, err := w.remote.VerifyOTP(ctx, req.Email, otp)
	if err != nil {
		w.log.Warn("otp verification failed", zap.Error(err))
		return w.fail(err, msgVerifyFailed)
	}
	if err := w.store.Set(resp.Token); err != nil {
		w.log.Error("failed to store session token", zap.Error(err))
		return w.fail(err, api.MsgTransport)
	}

	w.mu.Lock()
	w.reset()
	w.notice = resp.Message
	w.mu.Unlock()
	w.log.Info("signup completed")
	if w.nav != nil {
		w.nav.Navigate(session.RouteDashboard)
	}
	return nil
}

// CreateAccount runs only the first leg of finalization so the server
// sends the code before the user is asked for it. Every step except the code
// must be valid. It does nothing once the account exists for this email.
func (w *Wizard) CreateAccount(ctx context.Context) error {
	w.mu.Lock()
	if w.step != StepVerification {
		verr := validate.Newf("complete the previous steps first")
		w.errMsg = verr.Error()
		w.mu.Unlock()
		return verr
	}
	if err := w.draft.checkBeforeCode(); err != nil {
		w.errMsg = err.Error()
		w.mu.Unlock()
		return err
	}
	req := w.draft.request()
	if w.created == req.Email {
		w.mu.Unlock()
		return nil
	}
	w.errMsg = ""
	w.mu.Unlock()

	return w.create(ctx, req)
}

func (w *Wizard) create(ctx context.Context, req api.SignupRequest) error {
	resp, err := w.remote.Signup(ctx, req)
	if err != nil {
		w.log.Warn("signup failed", zap.Error(err))
		return w.fail(err, msgSignupFailed)
	}
	w.mu.Lock()
	w.created = req.Email
	if resp != nil && resp.Message != "" {
		w.notice = resp.Message
	}
	w.mu.Unlock()
	w.log.Info("account created")
	return nil
}

// ResendOTP asks the server for a fresh code for the created account. It is
// throttled to one request per resend interval.
func (w *Wizard) ResendOTP(ctx context.Context) error {
	w.mu.Lock()
	email := w.created
	if email == "" {
		verr := validate.Newf("create your account before requesting a new code")
		w.errMsg = verr.Error()
		w.mu.Unlock()
		return verr
	}
	if !w.resend.Allow() {
		verr := validate.Newf("please wait before requesting another code")
		w.errMsg = verr.Error()
		w.mu.Unlock()
		return verr
	}
	w.mu.Unlock()

	resp, err := w.remote.ResendOTP(ctx, email)
	if err != nil {
		w.log.Warn("otp resend failed", zap.Error(err))
		return w.fail(err, msgResendFailed)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.errMsg = ""
	w.notice = msgCodeSent
	if resp != nil && resp.Message != "" {
		w.notice = resp.Message
	}
	return nil
}

// Abandon discards the draft and returns to step 1.
func (w *Wizard) Abandon() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reset()
}

func (w *Wizard) fail(err error, fallback string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errMsg = api.MessageOf(err, fallback)
	w.notice = ""
	return err
}
