package services

import (
	"errors"
	"log"
	"time"

	"github.com/Erebuzzz/tea-tracker/models"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserManager struct {
	db     *gorm.DB
	config *models.Config
}

// NewUserManager creates an instance of UserManager and sets its DB handle
func NewUserManager(db *gorm.DB, config *models.Config) *UserManager {
	return &UserManager{db: db, config: config}
}

func (m *UserManager) Get(email string) (*models.User, error) {
	var user models.User

	result := m.db.Where("email = ?", email).First(&user)
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

func (m *UserManager) GetByID(id uuid.UUID) (*models.User, error) {
	var user models.User

	result := m.db.Where("id = ?", id).First(&user)
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

// CheckOrCreate fetches the user matching an identity-provider email,
// creating the account on first authentication with all notification
// preferences enabled.
func (m *UserManager) CheckOrCreate(email string, displayName string, photoURL string) (*models.User, error) {
	var user models.User

	result := m.db.Where("email = ?", email).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			user = models.User{
				Email:       email,
				DisplayName: displayName,
				PhotoURL:    photoURL,
				Notifications: models.NotificationPreferences{
					Email:     true,
					Push:      true,
					Reminders: true,
				},
			}
			if result := m.db.Create(&user); result.Error != nil {
				return nil, result.Error
			}
			log.Printf("UserManager: Created new user %s", user.Email)
		} else {
			return nil, result.Error
		}
	}

	return &user, nil
}

// EnsurePlanStart returns the user's plan start date, initializing it to
// `now` the first time the plan clock is consulted. The write happens at
// most once per account; if two checks race, either one's "now" is fine
// since both are the same instant for plan purposes.
func (m *UserManager) EnsurePlanStart(user *models.User, now time.Time) (time.Time, error) {
	if user.PlanStartDate != nil {
		return *user.PlanStartDate, nil
	}
	result := m.db.Model(&models.User{}).
		Where("id = ? AND plan_start_date IS NULL", user.ID).
		Update("plan_start_date", now)
	if result.Error != nil {
		return now, result.Error
	}
	if result.RowsAffected == 0 {
		// Lost the race to a concurrent check; use the stored value.
		if fresh, err := m.GetByID(user.ID); err == nil && fresh.PlanStartDate != nil {
			user.PlanStartDate = fresh.PlanStartDate
			return *fresh.PlanStartDate, nil
		}
		return now, nil
	}
	user.PlanStartDate = &now
	log.Printf("UserManager: Started reduction plan for %s", user.Email)
	return now, nil
}

// UpdateNotifications replaces the user's notification preferences.
func (m *UserManager) UpdateNotifications(user *models.User, prefs models.NotificationPreferences) error {
	user.Notifications = prefs
	result := m.db.Model(user).Select("notify_email", "notify_push", "notify_reminders").Updates(map[string]interface{}{
		"notify_email":     prefs.Email,
		"notify_push":      prefs.Push,
		"notify_reminders": prefs.Reminders,
	})
	if result.Error != nil {
		return result.Error
	}
	log.Printf("UserManager: Updated notification preferences for %s", user.Email)
	return nil
}

// ListAll returns every account, for the scheduled reminder sweep.
func (m *UserManager) ListAll() ([]models.User, error) {
	var users []models.User
	if result := m.db.Find(&users); result.Error != nil {
		return nil, result.Error
	}
	return users, nil
}

func (m *UserManager) AddUserSubscription(user *models.User, subscription *models.UserSubscription) (*models.UserSubscription, error) {
	subscription.LastUsedAt = time.Now()
	if subscription.Data != "" {
		dp := NewDataProtector(m.config)
		encryptedData, err := dp.Encrypt(subscription.Data)
		if err != nil {
			return nil, err
		}
		subscription.Data = encryptedData
	}

	// Every time a Service worker is activated, we will try to register a subscription
	// so duplicates are expected
	// In that case we want to update the LastUsedAt field to be able to detect
	// old => inactive subscriptions
	result := m.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "hash"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_used_at"}),
	}).Create(&subscription)
	if result.Error != nil {
		return nil, result.Error
	}
	log.Printf("UserManager: Created Web push subscription for %s", user.Email)

	return subscription, nil
}

func (m *UserManager) DeleteUserSubscription(subscription *models.UserSubscription) error {
	result := m.db.Delete(&models.UserSubscription{}, "hash = ?", subscription.Hash)
	return result.Error
}
