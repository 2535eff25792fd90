// Package service provides the business logic of the mock API: accounts,
// one-time codes, session tokens, profile changes and donations. Persistence
// is delegated to repository interfaces.
package service

import "errors"

var (
	// ErrEmailTaken is returned when an email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned by Login for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidOTP is returned for a wrong, expired or missing code.
	ErrInvalidOTP = errors.New("invalid or expired code")
	// ErrAlreadyVerified is returned when a verified account asks for a signup code.
	ErrAlreadyVerified = errors.New("account already verified")
	// ErrUnknownAccount is returned when no account matches.
	ErrUnknownAccount = errors.New("account not found")
	// ErrWrongPassword is returned when the current password does not match.
	ErrWrongPassword = errors.New("current password is incorrect")
	// ErrInvalidToken is returned for a missing, malformed or expired session token.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrNotVerified is returned when a pending account calls a protected endpoint.
	ErrNotVerified = errors.New("please complete verification")
	// ErrDonationNotFound is returned when the donation does not belong to the user.
	ErrDonationNotFound = errors.New("donation not found")
	// ErrUnsupportedImage is returned for avatar uploads that are not images.
	ErrUnsupportedImage = errors.New("profile picture must be a jpeg, png, gif or webp image")
)
