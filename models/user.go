package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// User is an account created on first successful authentication
// against the external identity provider.
type User struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email         string    `gorm:"unique"`
	DisplayName   string
	PhotoURL      string
	PlanStartDate *time.Time // nil until the plan clock is first consulted
	Notifications NotificationPreferences `gorm:"embedded;embeddedPrefix:notify_"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Subscriptions []UserSubscription
}

// NotificationPreferences controls which nudges a user receives.
// Everything is opt-out: a fresh account gets all of them.
type NotificationPreferences struct {
	Email     bool `json:"email"`
	Push      bool `json:"push"`
	Reminders bool `json:"reminders"`
}

// BeforeCreate ensures the model has an ID before saving it
func (user *User) BeforeCreate(scope *gorm.DB) error {
	if user.ID != uuid.Nil {
		return nil
	}
	uuid, err := uuid.NewV4()
	if err != nil {
		return err
	}
	user.ID = uuid
	return nil
}
