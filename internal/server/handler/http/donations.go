package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/donorlink/internal/middleware"
	"github.com/atinyakov/donorlink/internal/models"
)

// DonationService defines the donation operations required by DonationHandler.
type DonationService interface {
	History(ctx context.Context, userID string) ([]models.Donation, error)
	Track(ctx context.Context, userID, donationID string) (models.DonationStatus, error)
}

// DonationHandler serves the /api/donations endpoints.
type DonationHandler struct {
	DonationService DonationService
	Log             *zap.Logger
}

// History handles GET /api/donations/history.
func (h *DonationHandler) History(w http.ResponseWriter, r *http.Request) {
	list, err := h.DonationService.History(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Track handles GET /api/donations/track/{id}.
func (h *DonationHandler) Track(w http.ResponseWriter, r *http.Request) {
	status, err := h.DonationService.Track(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, models.TrackStatus{Status: status})
}
