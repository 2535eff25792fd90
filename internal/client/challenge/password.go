package challenge

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/atinyakov/donorlink/internal/client/api"
	"github.com/atinyakov/donorlink/internal/validate"
)

const (
	msgPasswordUpdated = "password updated"
	msgPasswordFailed  = "failed to update password"
)

type passwordForm struct {
	CurrentPassword    string `json:"currentPassword" validate:"required" msg:"current password is required"`
	NewPassword        string `json:"newPassword" validate:"min=6" msg:"new password must be at least 6 characters"`
	ConfirmNewPassword string `json:"confirmNewPassword" validate:"eqfield=NewPassword" msg:"passwords do not match"`
}

// PasswordChange is the single-phase password flow.
type PasswordChange struct {
	remote Remote
	opts   options

	mu       sync.Mutex
	mode     Mode
	form     passwordForm
	feedback Feedback
}

// NewPassword builds the password flow.
func NewPassword(remote Remote, opts ...Option) *PasswordChange {
	return &PasswordChange{remote: remote, opts: buildOptions(opts)}
}

// Mode returns Idle or Editing.
func (p *PasswordChange) Mode() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

// Feedback returns the current message.
func (p *PasswordChange) Feedback() Feedback {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.feedback
}

// Fields returns the entered values.
func (p *PasswordChange) Fields() api.PasswordChange {
	p.mu.Lock()
	defer p.mu.Unlock()
	return api.PasswordChange(p.form)
}

// Edit opens edit mode with empty fields.
func (p *PasswordChange) Edit() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mode = Editing
	p.form = passwordForm{}
	p.feedback = Feedback{}
}

// Cancel discards the entered values without contacting the server.
func (p *PasswordChange) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mode = Idle
	p.form = passwordForm{}
	p.feedback = Feedback{}
}

// Submit validates and sends the change. On success the fields are cleared
// and edit mode closes; on failure they are kept for correction.
func (p *PasswordChange) Submit(ctx context.Context, current, next, confirm string) error {
	p.mu.Lock()
	p.mode = Editing
	p.form = passwordForm{CurrentPassword: current, NewPassword: next, ConfirmNewPassword: confirm}
	p.feedback = Feedback{}
	form := p.form
	if err := validate.Struct(form); err != nil {
		p.feedback = failure(err.Error())
		p.mu.Unlock()
		return err
	}
	p.mu.Unlock()

	resp, err := p.remote.UpdatePassword(ctx, api.PasswordChange(form))

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.opts.log.Warn("password change failed", zap.Error(err))
		p.feedback = p.opts.remoteFailure(err, msgPasswordFailed)
		return err
	}
	p.form = passwordForm{}
	p.mode = Idle
	p.feedback = success(messageOr(resp, msgPasswordUpdated))
	return nil
}
