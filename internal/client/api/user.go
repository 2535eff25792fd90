package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/atinyakov/donorlink/internal/models"
)

// MaxAvatarSize is the largest profile picture accepted for upload.
const MaxAvatarSize = 5 << 20

var (
	errMissingToken     = errors.New("response carried no token")
	errMalformedProfile = errors.New("malformed response: profile without status")

	avatarTypes = map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/gif":  true,
		"image/webp": true,
	}
)

// PasswordChange is the body of the password update call.
type PasswordChange struct {
	CurrentPassword    string `json:"currentPassword"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

// Profile fetches the authenticated user's profile. A body without an
// activation status (null, {} and the like) is a malformed response.
func (c *Client) Profile(ctx context.Context) (*models.Profile, error) {
	var p *models.Profile
	if err := c.get(ctx, "/api/user/profile", &p); err != nil {
		return nil, err
	}
	if p == nil || strings.TrimSpace(string(p.Status)) == "" {
		return nil, &Error{Kind: KindTransport, StatusCode: http.StatusOK, Message: MsgTransport, Err: errMalformedProfile}
	}
	return p, nil
}

// Stats fetches the dashboard statistics.
func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	var s models.Stats
	if err := c.get(ctx, "/api/user/stats", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// RequestEmailChange starts the email change; the server sends an OTP to newEmail.
func (c *Client) RequestEmailChange(ctx context.Context, newEmail string) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.post(ctx, "/api/user/update-email", map[string]string{"newEmail": newEmail}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfirmEmailChange completes the email change with the received OTP.
func (c *Client) ConfirmEmailChange(ctx context.Context, newEmail, otp string) (*MessageResponse, error) {
	body := map[string]string{"newEmail": newEmail, "otp": otp}
	var resp MessageResponse
	if err := c.post(ctx, "/api/user/verify-update-email", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RequestPhoneChange starts the phone change; the server sends an OTP to newPhone.
func (c *Client) RequestPhoneChange(ctx context.Context, newPhone string) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.post(ctx, "/api/user/update-phone", map[string]string{"newPhone": newPhone}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfirmPhoneChange completes the phone change with the received OTP.
func (c *Client) ConfirmPhoneChange(ctx context.Context, newPhone, otp string) (*MessageResponse, error) {
	body := map[string]string{"newPhone": newPhone, "otp": otp}
	var resp MessageResponse
	if err := c.post(ctx, "/api/user/verify-update-phone", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdatePassword changes the password; no OTP is involved.
func (c *Client) UpdatePassword(ctx context.Context, req PasswordChange) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.post(ctx, "/api/user/update-password", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadAvatar uploads an image as the profile picture and returns its URL.
// Non-image payloads and files over MaxAvatarSize are rejected locally.
func (c *Client) UploadAvatar(ctx context.Context, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxAvatarSize+1))
	if err != nil {
		return "", &Error{Kind: KindValidation, Message: "could not read the selected file", Err: err}
	}
	if len(data) == 0 {
		return "", &Error{Kind: KindValidation, Message: "the selected file is empty"}
	}
	if len(data) > MaxAvatarSize {
		return "", &Error{Kind: KindValidation, Message: "profile picture must be 5 MB or smaller"}
	}
	contentType := http.DetectContentType(data)
	if !avatarTypes[contentType] {
		return "", &Error{Kind: KindValidation, Message: "profile picture must be an image"}
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="profilePicture"; filename=%q`, filepath.Base(filename)))
	h.Set(headerContentType, contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", &Error{Kind: KindTransport, Message: MsgTransport, Err: fmt.Errorf("create form part: %w", err)}
	}
	if _, err := part.Write(data); err != nil {
		return "", &Error{Kind: KindTransport, Message: MsgTransport, Err: fmt.Errorf("write form part: %w", err)}
	}
	if err := mw.Close(); err != nil {
		return "", &Error{Kind: KindTransport, Message: MsgTransport, Err: fmt.Errorf("close form: %w", err)}
	}

	var resp struct {
		ProfilePicture string `json:"profilePicture"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/user/upload-profile-picture", mw.FormDataContentType(), &buf, &resp); err != nil {
		return "", err
	}
	return resp.ProfilePicture, nil
}
