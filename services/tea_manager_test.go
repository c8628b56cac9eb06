package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Erebuzzz/tea-tracker/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
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
	return db
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

func testConfig() *models.Config {
	var config models.Config
	config = config.New()
	config.AdminEmail = "operator@example.test"
	return &config
}

func TestAppendListTotal(t *testing.T) {
	db := newTestDB(t)
	config := testConfig()
	user := newTestUser(t, db, "drinker@example.test")
	teas := NewTeaManager(db, config)

	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.Local)
	for i, quantity := range []int{1, 2, 1} {
		if _, err := teas.Append(user, "Assam", "black", quantity, day.Add(time.Duration(i+8)*time.Hour)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	got, err := teas.ListForDay(user.ID, day)
	if err != nil {
		t.Fatalf("ListForDay: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListForDay returned %d events, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].ConsumptionDate.Before(got[i-1].ConsumptionDate) {
			t.Fatalf("events not ordered ascending: %v before %v", got[i].ConsumptionDate, got[i-1].ConsumptionDate)
		}
	}
	if total := TotalQuantity(got); total != 4 {
		t.Fatalf("TotalQuantity = %d, want 4", total)
	}
	if TotalQuantity(nil) != 0 {
		t.Fatalf("TotalQuantity(nil) should be 0")
	}
}

func TestDayWindowBoundaries(t *testing.T) {
	db := newTestDB(t)
	config := testConfig()
	user := newTestUser(t, db, "boundary@example.test")
	teas := NewTeaManager(db, config)

	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.Local)
	lastMillisecond := day.Add(24*time.Hour - time.Millisecond) // 23:59:59.999
	nextMidnight := day.Add(24 * time.Hour)

	if _, err := teas.Append(user, "Darjeeling", "black", 1, lastMillisecond); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := teas.Append(user, "Darjeeling", "black", 1, nextMidnight); err != nil {
		t.Fatalf("append: %v", err)
	}

	today, err := teas.ListForDay(user.ID, day)
	if err != nil {
		t.Fatalf("ListForDay: %v", err)
	}
	if len(today) != 1 || !today[0].ConsumptionDate.Equal(lastMillisecond) {
		t.Fatalf("day window should contain only the 23:59:59.999 event, got %d events", len(today))
	}

	tomorrow, err := teas.ListForDay(user.ID, nextMidnight)
	if err != nil {
		t.Fatalf("ListForDay: %v", err)
	}
	if len(tomorrow) != 1 || !tomorrow[0].ConsumptionDate.Equal(nextMidnight) {
		t.Fatalf("next day window should contain only the midnight event, got %d events", len(tomorrow))
	}
}

func TestDayWindowOnDSTChangeDays(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	db := newTestDB(t)
	config := testConfig()
	user := newTestUser(t, db, "dst@example.test")
	teas := NewTeaManager(db, config)

	// 2024-11-03 is a 25-hour day in this zone: clocks fall back at 02:00.
	fallBack := time.Date(2024, 11, 3, 0, 0, 0, 0, loc)
	if end := EndOfDay(fallBack); end.Day() != 3 || end.Hour() != 23 || end.Minute() != 59 {
		t.Fatalf("EndOfDay on a 25-hour day = %v, want 23:59:59.999 on the same day", end)
	}
	lateEvening := time.Date(2024, 11, 3, 23, 30, 0, 0, loc)
	if _, err := teas.Append(user, "Chai", "black", 1, lateEvening); err != nil {
		t.Fatalf("append: %v", err)
	}
	got, err := teas.ListForDay(user.ID, fallBack)
	if err != nil {
		t.Fatalf("ListForDay: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("the last local hour of a fall-back day must count toward that day, got %d events", len(got))
	}

	// 2024-03-10 is a 23-hour day: the window must still stop at its own midnight.
	springForward := time.Date(2024, 3, 10, 0, 0, 0, 0, loc)
	nextDay := time.Date(2024, 3, 11, 0, 30, 0, 0, loc)
	if _, err := teas.Append(user, "Chai", "black", 1, nextDay); err != nil {
		t.Fatalf("append: %v", err)
	}
	got, err = teas.ListForDay(user.ID, springForward)
	if err != nil {
		t.Fatalf("ListForDay: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("a 23-hour day window must not bleed into the next morning, got %d events", len(got))
	}
}

func TestListForWeekWindow(t *testing.T) {
	db := newTestDB(t)
	config := testConfig()
	user := newTestUser(t, db, "weekly@example.test")
	teas := NewTeaManager(db, config)

	start := time.Date(2024, 5, 6, 0, 0, 0, 0, time.Local)
	inside := []time.Time{
		start.Add(9 * time.Hour),
		start.AddDate(0, 0, 6).Add(24*time.Hour - time.Millisecond),
	}
	outside := start.AddDate(0, 0, 7)

	for _, at := range inside {
		if _, err := teas.Append(user, "Sencha", "green", 1, at); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if _, err := teas.Append(user, "Sencha", "green", 1, outside); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := teas.ListForWeek(user.ID, start)
	if err != nil {
		t.Fatalf("ListForWeek: %v", err)
	}
	if len(got) != len(inside) {
		t.Fatalf("ListForWeek returned %d events, want %d", len(got), len(inside))
	}
}

func TestRemove(t *testing.T) {
	db := newTestDB(t)
	config := testConfig()
	user := newTestUser(t, db, "deleter@example.test")
	other := newTestUser(t, db, "other@example.test")
	teas := NewTeaManager(db, config)

	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.Local)
	kept, err := teas.Append(user, "Oolong", "oolong", 2, day.Add(8*time.Hour))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	doomed, err := teas.Append(user, "Oolong", "oolong", 3, day.Add(9*time.Hour))
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := teas.Remove(user.ID, doomed.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	got, err := teas.ListForDay(user.ID, day)
	if err != nil {
		t.Fatalf("ListForDay: %v", err)
	}
	if len(got) != 1 || got[0].ID != kept.ID {
		t.Fatalf("expected only the kept event after delete, got %d events", len(got))
	}
	if total := TotalQuantity(got); total != 2 {
		t.Fatalf("total after delete = %d, want 2", total)
	}

	// Best-effort: deleting again, or a foreign user's id, is not an error.
	if err := teas.Remove(user.ID, doomed.ID); err != nil {
		t.Fatalf("Remove of missing id: %v", err)
	}
	if err := teas.Remove(other.ID, kept.ID); err != nil {
		t.Fatalf("Remove scoped to other user: %v", err)
	}
	got, err = teas.ListForDay(user.ID, day)
	if err != nil {
		t.Fatalf("ListForDay: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("another user's delete should not remove the event")
	}
}

func TestListIdempotent(t *testing.T) {
	db := newTestDB(t)
	config := testConfig()
	user := newTestUser(t, db, "reader@example.test")
	teas := NewTeaManager(db, config)

	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.Local)
	for i := 0; i < 3; i++ {
		if _, err := teas.Append(user, "Chai", "black", 1, day.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	first, err := teas.ListForDay(user.ID, day)
	if err != nil {
		t.Fatalf("ListForDay: %v", err)
	}
	second, err := teas.ListForDay(user.ID, day)
	if err != nil {
		t.Fatalf("ListForDay: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("repeated reads differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("repeated reads differ at index %d", i)
		}
	}
}
