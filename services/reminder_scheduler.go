package services

import (
	"fmt"
	"log"
	"time"

	"github.com/Erebuzzz/tea-tracker/models"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// ReminderScheduler fires the "log your tea" nudges at the configured local
// times every day.
type ReminderScheduler struct {
	config *models.Config
	sender Sender
	users  *UserManager
	cron   *cron.Cron
}

// NewReminderScheduler creates an instance of ReminderScheduler and sets its DB handle
func NewReminderScheduler(db *gorm.DB, config *models.Config, sender Sender) *ReminderScheduler {
	return &ReminderScheduler{
		config: config,
		sender: sender,
		users:  NewUserManager(db, config),
	}
}

// Start schedules a sweep for each configured reminder time.
func (s *ReminderScheduler) Start() error {
	location, err := time.LoadLocation(s.config.ReminderTimezone)
	if err != nil {
		return err
	}
	s.cron = cron.New(cron.WithLocation(location))
	for _, at := range s.config.ReminderTimes {
		t, err := time.Parse("15:04", at)
		if err != nil {
			return err
		}
		if _, err := s.cron.AddFunc(fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour()), s.Sweep); err != nil {
			return err
		}
	}
	s.cron.Start()
	log.Printf("ReminderScheduler: Scheduled daily reminders at %v (%s)", s.config.ReminderTimes, s.config.ReminderTimezone)
	return nil
}

// Stop halts the schedule; an in-flight sweep finishes on its own.
func (s *ReminderScheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Sweep emails every user who still has reminders enabled. Each recipient is
// handled independently: one broken mailbox must not abort the rest of the
// sweep.
func (s *ReminderScheduler) Sweep() {
	users, err := s.users.ListAll()
	if err != nil {
		log.Printf("ReminderScheduler: Could not list users: %s", err.Error())
		return
	}

	sent := 0
	for _, user := range users {
		if !user.Notifications.Reminders || user.Email == "" {
			continue
		}
		if err := s.sender.Send(user.Email, "Remember to Log Your Tea Consumption", ReminderEmailBody(s.config.DashboardURL)); err != nil {
			log.Printf("ReminderScheduler: Failed to remind %s: %s", user.Email, err.Error())
			continue
		}
		sent++
	}
	log.Printf("ReminderScheduler: Sent %d daily reminder(s)", sent)
}
