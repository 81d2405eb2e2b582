package schedule

import (
	"errors"
	"time"
)

// Schedule is one PT session slot between a trainer and a member.
type Schedule struct {
	ID         string     `json:"id"`
	ShopID     string     `json:"shopId"`
	TrainerID  string     `json:"trainerId"`
	MemberID   string     `json:"memberId"`
	StartsAt   time.Time  `json:"startsAt"`
	EndsAt     time.Time  `json:"endsAt"`
	Status     Status     `json:"status"`
	AttendedAt *time.Time `json:"attendedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusAttended  Status = "attended"
)

var (
	ErrNotFound        = errors.New("schedule: not found")
	ErrInvalidArgument = errors.New("schedule: invalid argument")
	ErrAlreadyAttended = errors.New("schedule: already attended")
	// ErrNotAssigned means a trainer acted on a member not assigned to them.
	ErrNotAssigned = errors.New("schedule: member not assigned to trainer")
)
