package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/donorlink/internal/middleware"
	"github.com/atinyakov/donorlink/internal/models"
	"github.com/atinyakov/donorlink/internal/repository"
	"github.com/atinyakov/donorlink/internal/service"
)

// avatarFormField is the multipart field carrying the uploaded picture.
const avatarFormField = "profilePicture"

// AccountService defines the profile operations required by AccountHandler.
type AccountService interface {
	Profile(ctx context.Context, userID string) (*models.Profile, error)
	Stats(ctx context.Context, userID string) (*models.Stats, error)
	RequestEmailChange(ctx context.Context, userID, newEmail string) error
	ConfirmEmailChange(ctx context.Context, userID, newEmail, code string) error
	RequestPhoneChange(ctx context.Context, userID, newPhone string) error
	ConfirmPhoneChange(ctx context.Context, userID, newPhone, code string) error
	ChangePassword(ctx context.Context, userID string, in service.PasswordInput) error
	SetAvatar(ctx context.Context, userID string, data []byte) (string, error)
	Avatar(ctx context.Context, name string) (repository.Avatar, error)
}

// AccountHandler serves the authenticated /api/user endpoints.
type AccountHandler struct {
	AccountService AccountService
	Log            *zap.Logger
}

type fieldChange struct {
	NewEmail string `json:"newEmail"`
	NewPhone string `json:"newPhone"`
	OTP      string `json:"otp"`
}

// Profile handles GET /api/user/profile. It also answers pending accounts,
// so clients can tell an unverified account from an invalid session.
func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	p, err := h.AccountService.Profile(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Stats handles GET /api/user/stats.
func (h *AccountHandler) Stats(w http.ResponseWriter, r *http.Request) {
	s, err := h.AccountService.Stats(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// UpdateEmail handles POST /api/user/update-email.
func (h *AccountHandler) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	var req fieldChange
	if !decode(w, r, &req) {
		return
	}
	if err := h.AccountService.RequestEmailChange(r.Context(), middleware.GetUserIDFromContext(r.Context()), req.NewEmail); err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeMessage(w, http.StatusOK, "verification code sent to your new email")
}

// VerifyUpdateEmail handles POST /api/user/verify-update-email.
func (h *AccountHandler) VerifyUpdateEmail(w http.ResponseWriter, r *http.Request) {
	var req fieldChange
	if !decode(w, r, &req) {
		return
	}
	if err := h.AccountService.ConfirmEmailChange(r.Context(), middleware.GetUserIDFromContext(r.Context()), req.NewEmail, req.OTP); err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeMessage(w, http.StatusOK, "email updated")
}

// UpdatePhone handles POST /api/user/update-phone.
func (h *AccountHandler) UpdatePhone(w http.ResponseWriter, r *http.Request) {
	var req fieldChange
	if !decode(w, r, &req) {
		return
	}
	if err := h.AccountService.RequestPhoneChange(r.Context(), middleware.GetUserIDFromContext(r.Context()), req.NewPhone); err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeMessage(w, http.StatusOK, "verification code sent to your new phone")
}

// VerifyUpdatePhone handles POST /api/user/verify-update-phone.
func (h *AccountHandler) VerifyUpdatePhone(w http.ResponseWriter, r *http.Request) {
	var req fieldChange
	if !decode(w, r, &req) {
		return
	}
	if err := h.AccountService.ConfirmPhoneChange(r.Context(), middleware.GetUserIDFromContext(r.Context()), req.NewPhone, req.OTP); err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeMessage(w, http.StatusOK, "phone updated")
}

// UpdatePassword handles POST /api/user/update-password.
func (h *AccountHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req service.PasswordInput
	if !decode(w, r, &req) {
		return
	}
	if err := h.AccountService.ChangePassword(r.Context(), middleware.GetUserIDFromContext(r.Context()), req); err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeMessage(w, http.StatusOK, "password updated")
}

// UploadProfilePicture handles the multipart POST
// /api/user/upload-profile-picture and returns the new picture URL.
func (h *AccountHandler) UploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxAvatarSize+1<<20)
	if err := r.ParseMultipartForm(service.MaxAvatarSize); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusBadRequest, "profile picture must be 5 MB or smaller")
			return
		}
		writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	f, _, err := r.FormFile(avatarFormField)
	if err != nil {
		writeError(w, http.StatusBadRequest, "profile picture is required")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, service.MaxAvatarSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	url, err := h.AccountService.SetAvatar(r.Context(), middleware.GetUserIDFromContext(r.Context()), data)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":        "profile picture updated",
		"profilePicture": url,
	})
}

// Avatar handles GET /uploads/{name}.
func (h *AccountHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	a, err := h.AccountService.Avatar(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(a.Data)
}
