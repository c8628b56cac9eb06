package services

import (
	"log"
	"time"

	"github.com/Erebuzzz/tea-tracker/models"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// TeaManager is the append-only consumption ledger. There is no in-process
// caching: every read goes back to the store, which is cheap since all
// queries are indexed point or range reads.
type TeaManager struct {
	db     *gorm.DB
	config *models.Config
}

// NewTeaManager creates an instance of TeaManager and sets its DB handle
func NewTeaManager(db *gorm.DB, config *models.Config) *TeaManager {
	return &TeaManager{db: db, config: config}
}

// Append records a new consumption event. Entries are immutable once written.
func (m *TeaManager) Append(user *models.User, name string, teaType string, quantity int, consumedAt time.Time) (*models.Tea, error) {
	tea := models.Tea{
		UserID:          user.ID,
		Name:            name,
		Type:            teaType,
		Quantity:        quantity,
		ConsumptionDate: consumedAt,
	}
	if result := m.db.Create(&tea); result.Error != nil {
		return nil, result.Error
	}
	log.Printf("TeaManager: User %s logged %d cup(s)", user.Email, quantity)
	return &tea, nil
}

// ListForDay returns the user's events whose consumption timestamp falls
// within the calendar day of `day`, ordered by timestamp ascending.
// The window is the closed interval [00:00:00.000, 23:59:59.999]: an event
// on the last millisecond of the day is included, midnight of the next day
// is not.
func (m *TeaManager) ListForDay(userID uuid.UUID, day time.Time) ([]models.Tea, error) {
	start := StartOfDay(day)
	return m.listRange(userID, start, EndOfDay(day))
}

// ListForWeek returns the user's events over the 7 calendar days starting at
// startDay, same closed-interval rule as ListForDay.
func (m *TeaManager) ListForWeek(userID uuid.UUID, startDay time.Time) ([]models.Tea, error) {
	start := StartOfDay(startDay)
	return m.listRange(userID, start, EndOfDay(start.AddDate(0, 0, 6)))
}

func (m *TeaManager) listRange(userID uuid.UUID, from time.Time, to time.Time) ([]models.Tea, error) {
	var teas []models.Tea
	result := m.db.
		Where("user_id = ? AND consumption_date >= ? AND consumption_date <= ?", userID, from, to).
		Order("consumption_date asc").
		Find(&teas)
	if result.Error != nil {
		return nil, result.Error
	}
	return teas, nil
}

// Remove hard-deletes one of the user's events. Deleting an id that no
// longer exists is not an error: the entry is gone either way.
func (m *TeaManager) Remove(userID uuid.UUID, id uuid.UUID) error {
	result := m.db.Delete(&models.Tea{}, "id = ? AND user_id = ?", id, userID)
	return result.Error
}

// TotalQuantity sums the cups over a list of events.
func TotalQuantity(teas []models.Tea) int {
	total := 0
	for _, tea := range teas {
		total += tea.Quantity
	}
	return total
}

// StartOfDay truncates a timestamp to local midnight.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 on the day of t. The bound is built from
// calendar fields, not by adding 24h to midnight: DST-change days are 23 or
// 25 hours long and an offset-based bound would land in the wrong hour.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}
