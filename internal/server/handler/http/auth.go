// Package http provides the HTTP handlers and routing of the mock API:
// signup with OTP verification, login, profile changes and donations.
package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/donorlink/internal/service"
)

// AuthService defines the interface for authentication operations
// required by the HTTP handlers.
type AuthService interface {
	// Signup creates a pending account and sends it a code.
	Signup(ctx context.Context, in service.SignupInput) error
	// VerifySignup activates the account and returns a session token.
	VerifySignup(ctx context.Context, email, code string) (string, error)
	// ResendSignup sends a fresh code to a pending account.
	ResendSignup(ctx context.Context, email string) error
	// Login checks the credentials and returns a session token.
	Login(ctx context.Context, email, password string) (string, error)
}

// AuthHandler handles HTTP requests for signup, verification and login.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	// Log receives unexpected failures. May be nil.
	Log *zap.Logger
}

// OTPRequest is the JSON payload of the verification endpoints.
type OTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// LoginRequest is the JSON payload of the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles POST /api/signup. It answers 201 once the pending
// account exists and a code was sent to its email.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupInput
	if !decode(w, r, &req) {
		return
	}
	if err := h.AuthService.Signup(r.Context(), req); err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeMessage(w, http.StatusCreated, "account created, check your email for the verification code")
}

// VerifyOTP handles POST /api/otp/verify and returns the session token.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req OTPRequest
	if !decode(w, r, &req) {
		return
	}
	token, err := h.AuthService.VerifySignup(r.Context(), req.Email, req.OTP)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "account verified",
		"token":   token,
	})
}

// ResendOTP handles POST /api/otp/resend.
func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req OTPRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	if err := h.AuthService.ResendSignup(r.Context(), req.Email); err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeMessage(w, http.StatusOK, "verification code sent")
}

// Login handles POST /api/login. Pending accounts get a token too.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	token, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "login successful",
		"token":   token,
	})
}
