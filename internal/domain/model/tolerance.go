package model

import (
	"time"

	"foodflow-pickup/internal/domain"
)

// TolerancePolicy is the grace period around a pickup window during which
// confirmation is still accepted.
type TolerancePolicy struct {
	EarlyToleranceMinutes int       `json:"earlyToleranceMinutes"`
	LateToleranceMinutes  int       `json:"lateToleranceMinutes"`
	UpdatedAt             time.Time `json:"updatedAt,omitempty"`
}

func NewTolerancePolicy(early, late int) (*TolerancePolicy, error) {
	if early < 0 || late < 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &TolerancePolicy{
		EarlyToleranceMinutes: early,
		LateToleranceMinutes:  late,
		UpdatedAt:             time.Now(),
	}, nil
}

func (p *TolerancePolicy) Early() time.Duration {
	return time.Duration(p.EarlyToleranceMinutes) * time.Minute
}

func (p *TolerancePolicy) Late() time.Duration {
	return time.Duration(p.LateToleranceMinutes) * time.Minute
}
