package models

import (
	"strings"
	"time"
)

// DonationStatus is the lifecycle state of a donation.
type DonationStatus string

const (
	DonationPending   DonationStatus = "pending"
	DonationScheduled DonationStatus = "scheduled"
	DonationInTransit DonationStatus = "in_transit"
	DonationCompleted DonationStatus = "completed"
	DonationCancelled DonationStatus = "cancelled"
	DonationRejected  DonationStatus = "rejected"
)

// Terminal reports whether no further status change is expected.
func (s DonationStatus) Terminal() bool {
	switch DonationStatus(strings.ToLower(string(s))) {
	case DonationCompleted, DonationCancelled, DonationRejected:
		return true
	}
	return false
}

// Donation is one record of the user's donation history.
type Donation struct {
	// ID is the donation identifier used by the track endpoint.
	ID string `json:"id"`
	// Type is the donated resource, e.g. "blood" or "plasma".
	Type string `json:"type"`
	// Recipient is the patient or hospital receiving the donation.
	Recipient string `json:"recipient"`
	// Hospital is where the donation is handled.
	Hospital string `json:"hospital"`
	// Units is the donated quantity.
	Units int `json:"units"`
	// Status is the latest known status.
	Status DonationStatus `json:"status"`
	// CreatedAt is when the donation was registered.
	CreatedAt time.Time `json:"createdAt"`
}

// TrackStatus is the response of the donation tracking endpoint.
type TrackStatus struct {
	Status DonationStatus `json:"status"`
}
