package services

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Erebuzzz/tea-tracker/models"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/asaskevich/EventBus"
	"gorm.io/gorm"
)

// TeaCreatedTopic is the bus topic published after a ledger append commits.
const TeaCreatedTopic = "teas:created"

// Alert is a notification intent, computed before any delivery is attempted.
type Alert struct {
	To       string
	Subject  string
	HTMLBody string
}

type NotificationsManager struct {
	db     *gorm.DB
	config *models.Config
	sender Sender
	users  *UserManager
	limits *LimitMonitor

	mu           sync.Mutex
	lastNotified map[string]time.Time
}

// NewNotificationsManager creates an instance of the manager and sets its DB handle
func NewNotificationsManager(db *gorm.DB, config *models.Config, sender Sender) *NotificationsManager {
	return &NotificationsManager{
		db:           db,
		config:       config,
		sender:       sender,
		users:        NewUserManager(db, config),
		limits:       NewLimitMonitor(db, config),
		lastNotified: make(map[string]time.Time),
	}
}

// Subscribe registers the append-triggered limit check on the event bus.
func (n *NotificationsManager) Subscribe(bus EventBus.Bus) error {
	return bus.SubscribeAsync(TeaCreatedTopic, n.HandleTeaCreated, false)
}

// HandleTeaCreated re-evaluates the consuming user's limit after an append
// and sends the over-limit alerts when it is exceeded. Any inner failure is
// logged and swallowed: the trigger never escalates.
func (n *NotificationsManager) HandleTeaCreated(tea *models.Tea) {
	user, err := n.users.GetByID(tea.UserID)
	if err != nil {
		// Includes the event racing a deleted account: nothing to do.
		log.Printf("NotificationsManager: No user for event %s: %s", tea.ID, err.Error())
		return
	}

	status, err := n.limits.CheckLimit(user, time.Now())
	if err != nil {
		log.Printf("NotificationsManager: Limit check failed for %s: %s", user.Email, err.Error())
		return
	}
	log.Printf("NotificationsManager: User %s has consumed %d cups today. Limit is %d", user.Email, status.TotalToday, status.MaxCups)
	if !status.Exceeded {
		return
	}
	if n.inCooldown(user) {
		log.Printf("NotificationsManager: Skipping alert for %s, still in cooldown", user.Email)
		return
	}

	delivered := false
	for _, alert := range BuildLimitAlerts(user, status, n.config.AdminEmail) {
		if err := n.sender.Send(alert.To, alert.Subject, alert.HTMLBody); err != nil {
			log.Printf("NotificationsManager: Failed to email %s: %s", alert.To, err.Error())
		} else {
			log.Printf("NotificationsManager: Alert email sent to %s", alert.To)
			delivered = true
		}
	}
	if delivered {
		n.markNotified(user)
	}

	if user.Notifications.Push {
		if err := n.pushLimitAlert(user, status); err != nil {
			log.Printf("NotificationsManager: Web push to %s failed: %s", user.Email, err.Error())
		}
	}
}

// BuildLimitAlerts computes the notification intents for an exceeded limit:
// one to the user unless they opted out of email alerts, and one to the
// operator unconditionally. There is no de-duplication here: every
// exceeding append produces fresh intents.
func BuildLimitAlerts(user *models.User, status *LimitStatus, adminEmail string) []Alert {
	var alerts []Alert
	if user.Notifications.Email {
		alerts = append(alerts, Alert{
			To:       user.Email,
			Subject:  "Tea Consumption Reminder",
			HTMLBody: UserLimitEmailBody(status),
		})
	}
	alerts = append(alerts, Alert{
		To:       adminEmail,
		Subject:  "Alert: " + user.Email + " has exceeded tea limit",
		HTMLBody: AdminLimitEmailBody(user, status),
	})
	return alerts
}

// inCooldown reports whether an alert for this user was delivered within the
// configured cooldown window. The window defaults to zero, which preserves
// the original re-notify-on-every-exceeding-append behavior.
func (n *NotificationsManager) inCooldown(user *models.User) bool {
	if n.config.NotificationCooldown <= 0 {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	last, ok := n.lastNotified[user.ID.String()]
	return ok && time.Since(last) < n.config.NotificationCooldown
}

// markNotified arms the cooldown. Only called after at least one alert was
// actually delivered, so a dead relay never suppresses the next attempt.
func (n *NotificationsManager) markNotified(user *models.User) {
	if n.config.NotificationCooldown <= 0 {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lastNotified[user.ID.String()] = time.Now()
}

type pushMessage struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// pushLimitAlert delivers the over-limit alert to every active push
// subscription of the user, pruning subscriptions the push provider reports
// as gone.
func (n *NotificationsManager) pushLimitAlert(user *models.User, status *LimitStatus) error {
	var subscriptions []models.UserSubscription
	minUsedAt := time.Now().AddDate(0, -3, 0)
	if result := n.db.Where("user_id = ? AND last_used_at > ?", user.ID.String(), minUsedAt).Find(&subscriptions); result.Error != nil {
		return result.Error
	}

	payload, err := json.Marshal(pushMessage{
		Title: "Tea Consumption Alert",
		Body:  UserLimitPushText(status),
	})
	if err != nil {
		return err
	}

	dp := NewDataProtector(n.config)
	deletedCount := 0
	for i, subscription := range subscriptions {
		pushSubscriptionRaw, err := dp.Decrypt(subscription.Data)
		if err != nil {
			return err
		}
		pushSubscription := &webpush.Subscription{}
		if err := json.Unmarshal([]byte(pushSubscriptionRaw), &pushSubscription); err != nil {
			return err
		}

		resp, err := webpush.SendNotification(payload, pushSubscription, &webpush.Options{
			Subscriber:      n.config.AdminEmail,
			VAPIDPublicKey:  n.config.VapidPublicKey,
			VAPIDPrivateKey: n.config.VapidPrivateKey,
			TTL:             60,
		})
		if err != nil {
			return err
		}
		resp.Body.Close()

		// The push provider signals that the subscription is no longer active, so delete it.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			if err := n.users.DeleteUserSubscription(&subscriptions[i]); err != nil {
				return err
			}
			deletedCount++
		}
	}
	if deletedCount > 0 {
		log.Printf("NotificationsManager: Deleted %d inactive push subscriptions for %s", deletedCount, user.Email)
	}
	return nil
}

// UserLimitPushText is the short form of the over-limit nudge for push.
func UserLimitPushText(status *LimitStatus) string {
	return fmt.Sprintf("You have consumed %d cups of tea today, over your week %d limit of %d.",
		status.TotalToday, status.Week, status.MaxCups)
}
