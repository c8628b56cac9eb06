package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Erebuzzz/tea-tracker/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestController(t *testing.T) (*UserController, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	for _, model := range []interface{}{&models.User{}, &models.Tea{}, &models.UserSubscription{}} {
		if err := db.AutoMigrate(model); err != nil {
			t.Fatalf("migrate: %v", err)
		}
	}
	var config models.Config
	config = config.New()
	config.VapidPublicKey = "test-public-key"
	return New(db, &config), db
}

func newTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email: email,
		Notifications: models.NotificationPreferences{
			Email:     true,
			Push:      true,
			Reminders: true,
		},
	}
	if result := db.Create(user); result.Error != nil {
		t.Fatalf("create user: %v", result.Error)
	}
	return user
}

func asUser(req *http.Request, email string) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), "identity", email))
}

func TestGetProfile(t *testing.T) {
	controller, db := newTestController(t)
	newTestUser(t, db, "drinker@example.test")

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/user", nil), "drinker@example.test")
	rec := httptest.NewRecorder()

	controller.GetProfile(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got models.User
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Email != "drinker@example.test" {
		t.Fatalf("profile email = %q, want the session user", got.Email)
	}
	if !got.Notifications.Email || !got.Notifications.Push || !got.Notifications.Reminders {
		t.Fatalf("fresh account should have all preferences enabled, got %+v", got.Notifications)
	}
}

func TestGetProfileUnknownUser(t *testing.T) {
	controller, _ := newTestController(t)

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/user", nil), "nobody@example.test")
	rec := httptest.NewRecorder()

	controller.GetProfile(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestUpdateNotificationsRoundTrip(t *testing.T) {
	controller, db := newTestController(t)
	user := newTestUser(t, db, "drinker@example.test")

	req := asUser(httptest.NewRequest(http.MethodPut, "/api/user/notifications",
		strings.NewReader(`{"email":false,"push":true,"reminders":false}`)), "drinker@example.test")
	rec := httptest.NewRecorder()

	controller.UpdateNotifications(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var got models.NotificationPreferences
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Email || !got.Push || got.Reminders {
		t.Fatalf("response prefs = %+v, want email=false push=true reminders=false", got)
	}

	var stored models.User
	if result := db.First(&stored, "id = ?", user.ID); result.Error != nil {
		t.Fatalf("reload user: %v", result.Error)
	}
	if stored.Notifications.Email || !stored.Notifications.Push || stored.Notifications.Reminders {
		t.Fatalf("stored prefs = %+v, want email=false push=true reminders=false", stored.Notifications)
	}
}

func TestUpdateNotificationsRejectsBadBody(t *testing.T) {
	controller, db := newTestController(t)
	newTestUser(t, db, "drinker@example.test")

	req := asUser(httptest.NewRequest(http.MethodPut, "/api/user/notifications",
		strings.NewReader(`not json`)), "drinker@example.test")
	rec := httptest.NewRecorder()

	controller.UpdateNotifications(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetPushSubscriptionKey(t *testing.T) {
	controller, _ := newTestController(t)

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/user/pushkey", nil), "drinker@example.test")
	rec := httptest.NewRecorder()

	controller.GetPushSubscriptionKey(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got VapidKeys
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.PublicKey != "test-public-key" {
		t.Fatalf("public key = %q, want the configured VAPID key", got.PublicKey)
	}
}
