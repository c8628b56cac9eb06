package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// Tea is a single recorded instance of tea consumption.
// Entries are immutable once written: they are only ever created or hard-deleted.
type Tea struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;index:idx_teas_user_date" json:"userId"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	Quantity        int       `json:"quantity"`
	ConsumptionDate time.Time `gorm:"index:idx_teas_user_date" json:"consumptionDate"`
	CreatedAt       time.Time `json:"createdAt"`
	User            User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// BeforeCreate ensures the model has an ID before saving it
func (tea *Tea) BeforeCreate(scope *gorm.DB) error {
	if tea.ID != uuid.Nil {
		return nil
	}
	uuid, err := uuid.NewV4()
	if err != nil {
		return err
	}
	tea.ID = uuid
	return nil
}
