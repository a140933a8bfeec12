package models

import "time"

// Supplier entity
type Supplier struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"not null;index" json:"name"`
	Email            string    `gorm:"index" json:"email"`
	Phone            string    `json:"phone"`
	Street           string    `json:"street"`
	City             string    `json:"city"`
	Province         string    `json:"province"`
	ZipCode          string    `json:"zipCode"`
	Country          string    `gorm:"default:'Argentina'" json:"country"`
	BusinessName     string    `json:"businessName"`
	TaxCategory      string    `json:"taxCategory"` // ex: Responsable Inscripto, Monotributo
	CUIT             string    `gorm:"size:20;index" json:"cuit"`
	PaymentTermsDays int       `gorm:"not null;default:30" json:"paymentTermsDays"`
	Status           string    `gorm:"not null;default:'active'" json:"status"` // active, inactive, blocked
	Notes            string    `json:"notes,omitempty"`
	CreatedByID      uint      `gorm:"not null" json:"-"`
	CreatedBy        User      `gorm:"foreignKey:CreatedByID" json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
