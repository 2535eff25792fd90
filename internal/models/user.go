// Package models defines the data structures shared by the donorlink client
// and the development mock API: profiles, statistics and donation records.
package models

import (
	"strings"
	"time"
)

// ActivationStatus is the server-tracked account activation flag.
type ActivationStatus string

const (
	// StatusPending marks an account whose OTP has not been verified yet.
	StatusPending ActivationStatus = "pending"
	// StatusCompleted marks an account that finished OTP verification.
	StatusCompleted ActivationStatus = "completed"
)

// Completed reports whether the status is "completed". The comparison is
// case-insensitive and ignores surrounding whitespace; any other value,
// including an empty one, is treated as not completed.
func (s ActivationStatus) Completed() bool {
	return strings.EqualFold(strings.TrimSpace(string(s)), string(StatusCompleted))
}

// Role identifies what kind of participant an account represents.
type Role string

const (
	// RoleDonor is a blood or organ donor.
	RoleDonor Role = "donor"
	// RolePatient is a recipient in need of a donation.
	RolePatient Role = "patient"
	// RoleHospital is an institution coordinating donations.
	RoleHospital Role = "hospital"
)

// Roles lists every role a user may pick at signup.
var Roles = []Role{RoleDonor, RoleHospital, RolePatient}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Certificate is a document attached to a profile, such as a donor card.
type Certificate struct {
	// ID is the certificate identifier.
	ID string `json:"id"`
	// Title is the human readable certificate name.
	Title string `json:"title"`
	// URL points at the stored document.
	URL string `json:"url"`
	// IssuedAt is when the certificate was issued.
	IssuedAt time.Time `json:"issuedAt"`
}

// Profile is the authenticated user's account as returned by the profile endpoint.
type Profile struct {
	// FirstName is the user's given name.
	FirstName string `json:"firstName"`
	// LastName is the user's family name.
	LastName string `json:"lastName"`
	// Email is the primary contact address, also the login.
	Email string `json:"email"`
	// Phone is the optional E.164-like phone number.
	Phone string `json:"phone"`
	// UserType is a comma-joined set of raw role tokens, e.g. "donor,patient".
	UserType string `json:"userType"`
	// Status is the activation status; only completed accounts may use protected views.
	Status ActivationStatus `json:"status"`
	// KYCVerified reports whether identity documents were verified.
	KYCVerified bool `json:"kycVerified"`
	// EmailVerified reports whether the current email was confirmed by OTP.
	EmailVerified bool `json:"emailVerified"`
	// PhoneVerified reports whether the current phone was confirmed by OTP.
	PhoneVerified bool `json:"phoneVerified"`
	// ProfilePicture is the avatar URL, empty when none was uploaded.
	ProfilePicture string `json:"profilePicture"`
	// Certificates holds documents attached to the account.
	Certificates []Certificate `json:"certificates"`
	// CreatedAt is the account creation time.
	CreatedAt time.Time `json:"createdAt"`
}

// FullName joins first and last name, skipping empty parts.
func (p Profile) FullName() string {
	return strings.TrimSpace(strings.Join([]string{p.FirstName, p.LastName}, " "))
}

// Stats holds the dashboard counters for the authenticated user.
type Stats struct {
	LivesHelped          int     `json:"livesHelped"`
	TrustScore           float64 `json:"trustScore"`
	TotalDonations       int     `json:"totalDonations"`
	LivesHelpedChange    float64 `json:"livesHelpedChange"`
	TrustScoreChange     float64 `json:"trustScoreChange"`
	TotalDonationsChange float64 `json:"totalDonationsChange"`
}
