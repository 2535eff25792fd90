package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/donorlink/internal/models"
	"github.com/atinyakov/donorlink/internal/repository"
	"github.com/atinyakov/donorlink/internal/validate"
)

// MaxAvatarSize is the largest accepted profile picture.
const MaxAvatarSize = 5 << 20

// AvatarPath prefixes the URLs of uploaded pictures.
const AvatarPath = "/uploads/"

var avatarExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// AvatarRepository stores uploaded pictures.
type AvatarRepository interface {
	Put(ctx context.Context, name string, a repository.Avatar) error
	Get(ctx context.Context, name string) (repository.Avatar, error)
}

// PasswordInput is the password change request body.
type PasswordInput struct {
	CurrentPassword    string `json:"currentPassword" validate:"required" msg:"current password is required"`
	NewPassword        string `json:"newPassword" validate:"min=6" msg:"new password must be at least 6 characters"`
	ConfirmNewPassword string `json:"confirmNewPassword" validate:"eqfield=NewPassword" msg:"passwords do not match"`
}

// AccountService implements the authenticated profile operations.
type AccountService struct {
	users      UserRepository
	avatars    AvatarRepository
	otp        *OTPIssuer
	log        *zap.Logger
	bcryptCost int
}

// NewAccountService constructs a new AccountService.
func NewAccountService(users UserRepository, avatars AvatarRepository, otp *OTPIssuer, log *zap.Logger) *AccountService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountService{users: users, avatars: avatars, otp: otp, log: log, bcryptCost: bcrypt.DefaultCost}
}

// SetBcryptCost overrides bcrypt.DefaultCost for new password hashes.
func (s *AccountService) SetBcryptCost(cost int) { s.bcryptCost = cost }

func (s *AccountService) user(ctx context.Context, id string) (*repository.User, error) {
	u, err := s.users.ByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnknownAccount
	}
	return u, err
}

// Profile returns the account's profile.
func (s *AccountService) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &u.Profile, nil
}

// Stats returns the dashboard counters.
func (s *AccountService) Stats(ctx context.Context, userID string) (*models.Stats, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &u.Stats, nil
}

func changeKey(p repository.Purpose, userID string) repository.OTPKey {
	return repository.OTPKey{Purpose: p, Subject: userID}
}

// RequestEmailChange sends a code to newEmail.
func (s *AccountService) RequestEmailChange(ctx context.Context, userID, newEmail string) error {
	newEmail = strings.TrimSpace(newEmail)
	if !validate.Email(newEmail) {
		return validate.Newf("please enter a valid email address")
	}
	if _, err := s.user(ctx, userID); err != nil {
		return err
	}
	taken, err := s.users.EmailTaken(ctx, newEmail)
	if err != nil {
		return err
	}
	if taken {
		return ErrEmailTaken
	}
	return s.otp.Issue(ctx, changeKey(repository.PurposeEmailChange, userID), newEmail)
}

// ConfirmEmailChange applies newEmail if code matches.
func (s *AccountService) ConfirmEmailChange(ctx context.Context, userID, newEmail, code string) error {
	newEmail = strings.TrimSpace(newEmail)
	if err := s.otp.Consume(ctx, changeKey(repository.PurposeEmailChange, userID), newEmail, code); err != nil {
		return err
	}
	_, err := s.users.Update(ctx, userID, func(u *repository.User) error {
		u.Profile.Email = newEmail
		u.Profile.EmailVerified = true
		return nil
	})
	if errors.Is(err, repository.ErrExists) {
		return ErrEmailTaken
	}
	if err == nil {
		s.log.Info("email changed", zap.String("user_id", userID))
	}
	return err
}

// RequestPhoneChange sends a code to newPhone.
func (s *AccountService) RequestPhoneChange(ctx context.Context, userID, newPhone string) error {
	newPhone = strings.TrimSpace(newPhone)
	if !validate.Phone(newPhone) {
		return validate.Newf("please enter a valid phone number")
	}
	if _, err := s.user(ctx, userID); err != nil {
		return err
	}
	return s.otp.Issue(ctx, changeKey(repository.PurposePhoneChange, userID), newPhone)
}

// ConfirmPhoneChange applies newPhone if code matches.
func (s *AccountService) ConfirmPhoneChange(ctx context.Context, userID, newPhone, code string) error {
	newPhone = strings.TrimSpace(newPhone)
	if err := s.otp.Consume(ctx, changeKey(repository.PurposePhoneChange, userID), newPhone, code); err != nil {
		return err
	}
	_, err := s.users.Update(ctx, userID, func(u *repository.User) error {
		u.Profile.Phone = newPhone
		u.Profile.PhoneVerified = true
		return nil
	})
	if err == nil {
		s.log.Info("phone changed", zap.String("user_id", userID))
	}
	return err
}

// ChangePassword replaces the password after checking the current one.
func (s *AccountService) ChangePassword(ctx context.Context, userID string, in PasswordInput) error {
	if err := validate.Struct(in); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = s.users.Update(ctx, userID, func(u *repository.User) error {
		if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(in.CurrentPassword)) != nil {
			return ErrWrongPassword
		}
		u.PasswordHash = hash
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUnknownAccount
	}
	return err
}

// SetAvatar stores an uploaded picture and returns its URL path.
func (s *AccountService) SetAvatar(ctx context.Context, userID string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", validate.Newf("profile picture is required")
	}
	if len(data) > MaxAvatarSize {
		return "", validate.Newf("profile picture must be 5 MB or smaller")
	}
	contentType := http.DetectContentType(data)
	ext, ok := avatarExt[contentType]
	if !ok {
		return "", ErrUnsupportedImage
	}
	name := uuid.NewString() + ext
	if err := s.avatars.Put(ctx, name, repository.Avatar{ContentType: contentType, Data: data}); err != nil {
		return "", fmt.Errorf("store avatar: %w", err)
	}
	url := AvatarPath + name
	if _, err := s.users.Update(ctx, userID, func(u *repository.User) error {
		u.Profile.ProfilePicture = url
		return nil
	}); err != nil {
		return "", err
	}
	return url, nil
}

// Avatar returns a stored picture by file name.
func (s *AccountService) Avatar(ctx context.Context, name string) (repository.Avatar, error) {
	return s.avatars.Get(ctx, name)
}
