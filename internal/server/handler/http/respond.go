package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/donorlink/internal/repository"
	"github.com/atinyakov/donorlink/internal/service"
)

const msgInvalidRequest = "invalid request"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decode reads a JSON body into v. It answers 400 and returns false when
// the body is not valid JSON.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return false
	}
	return true
}

// statusFor maps a service error onto a status code and a message safe to
// return. Wrong credentials are 400, not 401: clients drop their session
// on 401.
func statusFor(err error) (int, string) {
	var v interface{ Validation() bool }
	switch {
	case errors.As(err, &v) && v.Validation():
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrAlreadyVerified):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidOTP),
		errors.Is(err, service.ErrWrongPassword),
		errors.Is(err, service.ErrUnsupportedImage):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrUnknownAccount),
		errors.Is(err, service.ErrDonationNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrNotVerified):
		return http.StatusForbidden, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

func respondError(w http.ResponseWriter, log *zap.Logger, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed", zap.Error(err))
	}
	writeError(w, status, msg)
}
