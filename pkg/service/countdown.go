package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/models"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/storage"
)

// Countdown is the state of a user's sprint clock.
type Countdown struct {
	Started       bool       `json:"started"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	EndsAt        *time.Time `json:"ends_at,omitempty"`
	DaysRemaining int        `json:"days_remaining"`
	Expired       bool       `json:"expired"`
}

// StartSprint starts ownerID's sprint clock. A clock that already runs is
// left alone.
func (s *SprintService) StartSprint(ctx context.Context, viewerID, ownerID string) error {
	if err := s.authorize(viewerID, ownerID, models.EditAccessLevel); err != nil {
		return err
	}
	err := inTx(s.store, s.logger, func(tx storage.Store) error {
		return tx.StartSprint(ownerID)
	})
	if err != nil {
		s.logger.Errorf("Failed to start sprint of %s: %v", ownerID, err)
		return err
	}
	s.logger.Infof("Sprint of %s started", ownerID)
	return nil
}

// Countdown reports how much of ownerID's sprint is left at now.
func (s *SprintService) Countdown(ctx context.Context, viewerID, ownerID string, now time.Time) (Countdown, error) {
	if err := s.authorize(viewerID, ownerID, models.ViewAccessLevel); err != nil {
		return Countdown{}, err
	}
	sp, err := s.store.GetProfile(ownerID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return Countdown{}, errors.Wrapf(err, "get profile of %s", ownerID)
	}
	return countdownAt(sp.SprintStartedAt, s.sprintLength, now), nil
}

func countdownAt(startedAt *time.Time, length time.Duration, now time.Time) Countdown {
	if startedAt == nil {
		return Countdown{}
	}
	endsAt := startedAt.Add(length)
	c := Countdown{Started: true, StartedAt: startedAt, EndsAt: &endsAt}
	remaining := endsAt.Sub(now)
	if remaining <= 0 {
		c.Expired = true
		return c
	}
	const day = 24 * time.Hour
	c.DaysRemaining = int((remaining + day - 1) / day)
	return c
}
