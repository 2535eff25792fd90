package challenge

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/atinyakov/donorlink/internal/client/api"
	"github.com/atinyakov/donorlink/internal/validate"
)

// Field names a two-phase field.
type Field string

const (
	FieldEmail Field = "email"
	FieldPhone Field = "phone"
)

const (
	msgRequestFailed = "failed to send verification code"
	msgConfirmFailed = "failed to verify code"
)

type fieldOps struct {
	check      func(string) bool
	invalid    string
	requested  string
	confirmed  string
	request    func(ctx context.Context, value string) (*api.MessageResponse, error)
	confirmOTP func(ctx context.Context, value, otp string) (*api.MessageResponse, error)
}

// FieldChallenge drives the change of one email or phone field:
// Idle -> Editing -> AwaitingOTP -> Idle.
type FieldChallenge struct {
	field Field
	ops   fieldOps
	opts  options

	mu       sync.Mutex
	mode     Mode
	current  string
	pending  string
	feedback Feedback
}

// NewEmail builds the email change challenge. current is the address on file.
func NewEmail(remote Remote, current string, opts ...Option) *FieldChallenge {
	return &FieldChallenge{
		field:   FieldEmail,
		current: current,
		opts:    buildOptions(opts),
		ops: fieldOps{
			check:      validate.Email,
			invalid:    "please enter a valid email address",
			requested:  "verification code sent to your new email",
			confirmed:  "email updated",
			request:    remote.RequestEmailChange,
			confirmOTP: remote.ConfirmEmailChange,
		},
	}
}

// NewPhone builds the phone change challenge. current is the number on file.
func NewPhone(remote Remote, current string, opts ...Option) *FieldChallenge {
	return &FieldChallenge{
		field:   FieldPhone,
		current: current,
		opts:    buildOptions(opts),
		ops: fieldOps{
			check:      validate.Phone,
			invalid:    "please enter a valid phone number",
			requested:  "verification code sent to your new phone",
			confirmed:  "phone updated",
			request:    remote.RequestPhoneChange,
			confirmOTP: remote.ConfirmPhoneChange,
		},
	}
}

// Field returns which field the challenge changes.
func (c *FieldChallenge) Field() Field { return c.field }

// Mode returns the edit mode.
func (c *FieldChallenge) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Current returns the confirmed value.
func (c *FieldChallenge) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Pending returns the value awaiting confirmation.
func (c *FieldChallenge) Pending() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Feedback returns the current message.
func (c *FieldChallenge) Feedback() Feedback {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.feedback
}

// Edit opens edit mode.
func (c *FieldChallenge) Edit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = Editing
	c.pending = ""
	c.feedback = Feedback{}
}

// Cancel leaves edit mode from any phase, dropping the pending value. The
// server is not contacted.
func (c *FieldChallenge) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = Idle
	c.pending = ""
	c.feedback = Feedback{}
}

// Request validates value and asks the server to send a code to it. On
// success the challenge awaits the OTP.
func (c *FieldChallenge) Request(ctx context.Context, value string) error {
	value = strings.TrimSpace(value)

	c.mu.Lock()
	if c.mode == Idle {
		c.mode = Editing
	}
	if !c.ops.check(value) {
		verr := validate.Newf("%s", c.ops.invalid)
		c.feedback = failure(verr.Error())
		c.mu.Unlock()
		return verr
	}
	c.mu.Unlock()

	resp, err := c.ops.request(ctx, value)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.opts.log.Warn("field change request failed", zap.String("field", string(c.field)), zap.Error(err))
		c.feedback = c.opts.remoteFailure(err, msgRequestFailed)
		return err
	}
	c.pending = value
	c.mode = AwaitingOTP
	c.feedback = success(messageOr(resp, c.ops.requested))
	return nil
}

// Confirm submits the OTP for the pending value. A malformed code is
// rejected before any request is made.
func (c *FieldChallenge) Confirm(ctx context.Context, otp string) error {
	otp = strings.TrimSpace(otp)

	c.mu.Lock()
	if c.mode != AwaitingOTP {
		verr := validate.Newf("request a verification code first")
		c.feedback = failure(verr.Error())
		c.mu.Unlock()
		return verr
	}
	if !validate.OTP(otp) {
		verr := validate.Newf("please enter a valid 6-digit code")
		c.feedback = failure(verr.Error())
		c.mu.Unlock()
		return verr
	}
	pending := c.pending
	c.mu.Unlock()

	resp, err := c.ops.confirmOTP(ctx, pending, otp)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.opts.log.Warn("field change confirmation failed", zap.String("field", string(c.field)), zap.Error(err))
		c.feedback = c.opts.remoteFailure(err, msgConfirmFailed)
		return err
	}
	c.current = pending
	c.pending = ""
	c.mode = Idle
	c.feedback = success(messageOr(resp, c.ops.confirmed))
	return nil
}
