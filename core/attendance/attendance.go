package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/enghaven/portal/core"
)

// Attendance is a daily check-in.
type Attendance struct {
	Key    string    `json:"key"` // {userId}-{day start, unix ms}
	UserID string    `json:"userId"`
	At     time.Time `json:"at"`
}

type (
	// Repository persists the "attendance" collection.
	Repository interface {
		ListAll(ctx context.Context) ([]Attendance, error)
		Update(ctx context.Context, fn func([]Attendance) ([]Attendance, error)) error
	}

	Service struct {
		repo Repository
		now  func() time.Time
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: core.NowFunc}
}

// DayKey identifies the User's check-in for the local calendar day of t.
func DayKey(userID string, t time.Time) string {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return fmt.Sprintf("%s-%d", userID, midnight.UnixMilli())
}

// MarkToday checks the User in for today. It is a no-op if they already are.
func (svc *Service) MarkToday(ctx context.Context, userID string) (created bool, err error) {
	now := svc.now()
	key := DayKey(userID, now)

	err = svc.repo.Update(ctx, func(records []Attendance) ([]Attendance, error) {
		for _, a := range records {
			if a.Key == key {
				return records, nil
			}
		}
		created = true
		return append(records, Attendance{Key: key, UserID: userID, At: now}), nil
	})
	if err != nil {
		return false, errors.Wrap(err, "marking attendance")
	}
	return created, nil
}

func (svc *Service) HasMarkedToday(ctx context.Context, userID string) (bool, error) {
	records, err := svc.repo.ListAll(ctx)
	if err != nil {
		return false, errors.Wrap(err, "listing attendance")
	}
	key := DayKey(userID, svc.now())
	for _, a := range records {
		if a.Key == key {
			return true, nil
		}
	}
	return false, nil
}

// ForUser returns the User's check-ins, oldest first.
func (svc *Service) ForUser(ctx context.Context, userID string) ([]Attendance, error) {
	records, err := svc.repo.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing attendance")
	}
	mine := make([]Attendance, 0)
	for _, a := range records {
		if a.UserID == userID {
			mine = append(mine, a)
		}
	}
	return mine, nil
}
