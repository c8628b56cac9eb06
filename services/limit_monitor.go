package services

import (
	"time"

	"github.com/Erebuzzz/tea-tracker/models"
	"gorm.io/gorm"
)

// LimitStatus is the result of evaluating a user's consumption against
// their current plan step.
type LimitStatus struct {
	Week       int  `json:"week"`
	MinCups    int  `json:"minCups"`
	MaxCups    int  `json:"maxCups"`
	TotalToday int  `json:"totalToday"`
	Exceeded   bool `json:"exceeded"`
}

// LimitMonitor composes the plan clock and the consumption ledger.
// The same CheckLimit runs after every append and for the UI's advisory
// pre-check, so the two can never disagree.
type LimitMonitor struct {
	config *models.Config
	users  *UserManager
	teas   *TeaManager
}

// NewLimitMonitor creates an instance of LimitMonitor and sets its DB handle
func NewLimitMonitor(db *gorm.DB, config *models.Config) *LimitMonitor {
	return &LimitMonitor{
		config: config,
		users:  NewUserManager(db, config),
		teas:   NewTeaManager(db, config),
	}
}

// CheckLimit recomputes the user's plan step and today's total.
// Being exactly at the allowance is not exceeding it; only a strictly
// greater total is.
func (l *LimitMonitor) CheckLimit(user *models.User, now time.Time) (*LimitStatus, error) {
	planStart, err := l.users.EnsurePlanStart(user, now)
	if err != nil {
		return nil, err
	}
	allowance := StepAllowance(CurrentStep(planStart, now))
	teas, err := l.teas.ListForDay(user.ID, now)
	if err != nil {
		return nil, err
	}
	total := TotalQuantity(teas)
	return &LimitStatus{
		Week:       allowance.Week,
		MinCups:    allowance.MinCups,
		MaxCups:    allowance.MaxCups,
		TotalToday: total,
		Exceeded:   total > allowance.MaxCups,
	}, nil
}
