package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/donorlink/internal/models"
	"github.com/atinyakov/donorlink/internal/repository"
)

// livesPerUnit is how many lives one completed unit counts for.
const livesPerUnit = 3

// progression is the simulated status flow of an open donation.
var progression = map[models.DonationStatus]models.DonationStatus{
	models.DonationPending:   models.DonationScheduled,
	models.DonationScheduled: models.DonationInTransit,
	models.DonationInTransit: models.DonationCompleted,
}

// seedDonations gives a new account some history so the client has
// something to list and track.
func seedDonations(now time.Time) []models.Donation {
	return []models.Donation{
		{
			ID:        uuid.NewString(),
			Type:      "blood",
			Recipient: "City General patient",
			Hospital:  "City General Hospital",
			Units:     1,
			Status:    models.DonationCompleted,
			CreatedAt: now.AddDate(0, -2, 0),
		},
		{
			ID:        uuid.NewString(),
			Type:      "plasma",
			Recipient: "St. Mary trauma unit",
			Hospital:  "St. Mary Medical Center",
			Units:     2,
			Status:    models.DonationPending,
			CreatedAt: now,
		},
	}
}

func statsFor(donations []models.Donation) models.Stats {
	completed := 0
	for _, d := range donations {
		if d.Status == models.DonationCompleted {
			completed += d.Units
		}
	}
	trust := math.Min(5, 4+0.2*float64(completed))
	return models.Stats{
		LivesHelped:    completed * livesPerUnit,
		TrustScore:     math.Round(trust*10) / 10,
		TotalDonations: len(donations),
	}
}

// DonationService serves the donation endpoints. Every Track call moves an
// open donation one status forward, which lets clients watch a donation
// complete.
type DonationService struct {
	users UserRepository
}

// NewDonationService constructs a new DonationService.
func NewDonationService(users UserRepository) *DonationService {
	return &DonationService{users: users}
}

// History returns the user's donations, newest first.
func (s *DonationService) History(ctx context.Context, userID string) ([]models.Donation, error) {
	u, err := s.users.ByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnknownAccount
	}
	if err != nil {
		return nil, err
	}
	list := u.Donations
	if list == nil {
		list = []models.Donation{}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

// Track returns the donation's status after advancing it.
func (s *DonationService) Track(ctx context.Context, userID, donationID string) (models.DonationStatus, error) {
	var status models.DonationStatus
	_, err := s.users.Update(ctx, userID, func(u *repository.User) error {
		for i := range u.Donations {
			d := &u.Donations[i]
			if d.ID != donationID {
				continue
			}
			if n, ok := progression[d.Status]; ok {
				d.Status = n
			}
			status = d.Status
			u.Stats = statsFor(u.Donations)
			return nil
		}
		return ErrDonationNotFound
	})
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrUnknownAccount
	}
	return status, err
}
