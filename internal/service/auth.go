package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/donorlink/internal/models"
	"github.com/atinyakov/donorlink/internal/repository"
	"github.com/atinyakov/donorlink/internal/validate"
)

// UserRepository defines the persistence operations on accounts.
type UserRepository interface {
	Create(ctx context.Context, u *repository.User) error
	ByID(ctx context.Context, id string) (*repository.User, error)
	ByEmail(ctx context.Context, email string) (*repository.User, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, id string, fn func(*repository.User) error) (*repository.User, error)
}

// SignupInput is the signup request body.
type SignupInput struct {
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Age             int    `json:"age" validate:"gte=18" msg:"you must be at least 18 years old"`
	Email           string `json:"email" validate:"loose_email"`
	Password        string `json:"password" validate:"min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password" msg:"passwords do not match"`
	UserType        string `json:"userType" validate:"oneof=donor hospital patient"`
	AgreeTerms      bool   `json:"agreeTerms" validate:"eq=true" msg:"you must accept the terms and conditions"`
}

// AuthService implements account creation, verification and login.
type AuthService struct {
	users      UserRepository
	otp        *OTPIssuer
	tokens     *Tokens
	log        *zap.Logger
	bcryptCost int
	now        func() time.Time
}

// AuthOption configures an AuthService.
type AuthOption func(*AuthService)

// WithBcryptCost overrides bcrypt.DefaultCost.
func WithBcryptCost(cost int) AuthOption {
	return func(s *AuthService) {
		s.bcryptCost = cost
	}
}

// WithAuthLogger sets the logger.
func WithAuthLogger(l *zap.Logger) AuthOption {
	return func(s *AuthService) {
		s.log = l
	}
}

// NewAuthService constructs a new AuthService.
func NewAuthService(users UserRepository, otp *OTPIssuer, tokens *Tokens, opts ...AuthOption) *AuthService {
	s := &AuthService{
		users:      users,
		otp:        otp,
		tokens:     tokens,
		log:        zap.NewNop(),
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func signupKey(email string) repository.OTPKey {
	return repository.OTPKey{Purpose: repository.PurposeSignup, Subject: strings.ToLower(strings.TrimSpace(email))}
}

// Signup creates a pending account and sends it a verification code.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) error {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	in.UserType = strings.ToLower(strings.TrimSpace(in.UserType))
	if err := validate.Struct(in); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	now := s.now()
	donations := seedDonations(now)
	u := &repository.User{
		ID: uuid.NewString(),
		Profile: models.Profile{
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Email:     in.Email,
			UserType:  in.UserType,
			Status:    models.StatusPending,
			CreatedAt: now,
		},
		PasswordHash: hash,
		Donations:    donations,
		Stats:        statsFor(donations),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrExists) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	s.log.Info("account created", zap.String("user_id", u.ID), zap.String("role", in.UserType))
	return s.otp.Issue(ctx, signupKey(in.Email), in.Email)
}

// VerifySignup activates the account if code matches and returns a session token.
func (s *AuthService) VerifySignup(ctx context.Context, email, code string) (string, error) {
	if !validate.Email(strings.TrimSpace(email)) || !validate.OTP(strings.TrimSpace(code)) {
		return "", ErrInvalidOTP
	}
	u, err := s.users.ByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidOTP
	}
	if err != nil {
		return "", err
	}
	if err := s.otp.Consume(ctx, signupKey(email), u.Profile.Email, code); err != nil {
		return "", err
	}
	if _, err := s.users.Update(ctx, u.ID, func(u *repository.User) error {
		u.Profile.Status = models.StatusCompleted
		u.Profile.EmailVerified = true
		return nil
	}); err != nil {
		return "", fmt.Errorf("activate user: %w", err)
	}
	s.log.Info("account verified", zap.String("user_id", u.ID))
	return s.tokens.Issue(u.ID)
}

// ResendSignup issues a fresh code for a pending account.
func (s *AuthService) ResendSignup(ctx context.Context, email string) error {
	u, err := s.users.ByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUnknownAccount
	}
	if err != nil {
		return err
	}
	if u.Profile.Status.Completed() {
		return ErrAlreadyVerified
	}
	return s.otp.Issue(ctx, signupKey(email), u.Profile.Email)
}

// Login checks the credentials and returns a session token. Pending
// accounts get a token too; protected endpoints answer them with 403.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.ByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	return s.tokens.Issue(u.ID)
}

// Authenticate resolves a session token to its account.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*repository.User, error) {
	id, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	u, err := s.users.ByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	return u, err
}
