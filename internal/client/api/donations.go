package api

import (
	"context"
	"net/url"

	"github.com/atinyakov/donorlink/internal/models"
)

// DonationHistory lists the user's donations, newest first.
func (c *Client) DonationHistory(ctx context.Context) ([]models.Donation, error) {
	var out []models.Donation
	if err := c.get(ctx, "/api/donations/history", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TrackDonation returns the current status of one donation.
func (c *Client) TrackDonation(ctx context.Context, id string) (*models.TrackStatus, error) {
	var out models.TrackStatus
	if err := c.get(ctx, "/api/donations/track/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
