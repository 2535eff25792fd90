package api

import (
	"context"
)

// SignupRequest is the signup draft as posted to the server. The OTP is
// deliberately absent; it is sent separately to VerifyOTP.
type SignupRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Age             int    `json:"age"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	UserType        string `json:"userType"`
	AgreeTerms      bool   `json:"agreeTerms"`
}

// MessageResponse is the generic {message} success body.
type MessageResponse struct {
	Message string `json:"message"`
}

// TokenResponse is returned by calls that establish a session.
type TokenResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// Signup creates the account. The server dispatches an OTP to the email as a side effect.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.post(ctx, "/api/signup", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyOTP confirms the signup code and returns the new session token.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (*TokenResponse, error) {
	body := map[string]string{"email": email, "otp": otp}
	var resp TokenResponse
	if err := c.post(ctx, "/api/otp/verify", body, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, &Error{Kind: KindTransport, Message: MsgTransport, Err: errMissingToken}
	}
	return &resp, nil
}

// ResendOTP asks the server to send a fresh signup code to email.
func (c *Client) ResendOTP(ctx context.Context, email string) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.post(ctx, "/api/otp/resend", map[string]string{"email": email}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var resp TokenResponse
	if err := c.post(ctx, "/api/login", body, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, &Error{Kind: KindTransport, Message: MsgTransport, Err: errMissingToken}
	}
	return &resp, nil
}
