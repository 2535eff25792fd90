// Package challenge implements the flows that change sensitive account
// fields while signed in. Email and phone use a two-phase request/confirm
// protocol with an OTP; the password change is a single call.
package challenge

import (
	"context"

	"go.uber.org/zap"

	"github.com/atinyakov/donorlink/internal/client/api"
)

// Mode is a field's edit mode.
type Mode int

const (
	// Idle shows the current value.
	Idle Mode = iota
	// Editing collects the new value.
	Editing
	// AwaitingOTP waits for the code sent to the new value.
	AwaitingOTP
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Editing:
		return "editing"
	case AwaitingOTP:
		return "awaiting-otp"
	}
	return "unknown"
}

// FeedbackKind tells success from error feedback.
type FeedbackKind int

const (
	NoFeedback FeedbackKind = iota
	SuccessFeedback
	ErrorFeedback
)

// Feedback is the single message slot of a flow. Setting a new message
// replaces the previous one, so success and error never show together.
type Feedback struct {
	Kind FeedbackKind
	Text string
}

// Empty reports whether there is nothing to show.
func (f Feedback) Empty() bool { return f.Kind == NoFeedback }

func success(text string) Feedback { return Feedback{Kind: SuccessFeedback, Text: text} }

func failure(text string) Feedback { return Feedback{Kind: ErrorFeedback, Text: text} }

// AuthHandler applies the shared 401/403 session policy. *session.Guard
// satisfies it.
type AuthHandler interface {
	HandleAuthError(err error) bool
}

// Remote is the subset of the API client used by the challenges.
type Remote interface {
	RequestEmailChange(ctx context.Context, newEmail string) (*api.MessageResponse, error)
	ConfirmEmailChange(ctx context.Context, newEmail, otp string) (*api.MessageResponse, error)
	RequestPhoneChange(ctx context.Context, newPhone string) (*api.MessageResponse, error)
	ConfirmPhoneChange(ctx context.Context, newPhone, otp string) (*api.MessageResponse, error)
	UpdatePassword(ctx context.Context, req api.PasswordChange) (*api.MessageResponse, error)
}

// Option configures a challenge.
type Option func(*options)

type options struct {
	auth AuthHandler
	log  *zap.Logger
}

// WithAuthHandler routes 401/403 failures to h.
func WithAuthHandler(h AuthHandler) Option {
	return func(o *options) {
		o.auth = h
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

func buildOptions(opts []Option) options {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// remoteFailure converts a failed call into feedback and hands auth
// failures to the session policy.
func (o options) remoteFailure(err error, fallback string) Feedback {
	if o.auth != nil {
		o.auth.HandleAuthError(err)
	}
	return failure(api.MessageOf(err, fallback))
}

func messageOr(resp *api.MessageResponse, def string) string {
	if resp != nil && resp.Message != "" {
		return resp.Message
	}
	return def
}
