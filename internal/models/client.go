package models

import "time"

const (
	PartyStatusActive   = "active"
	PartyStatusInactive = "inactive"
	PartyStatusBlocked  = "blocked"
)

// Client entity
type Client struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"not null;index" json:"name"`
	DocumentType string `gorm:"size:20;not null;index:idx_doc,unique,priority:1" json:"documentType"` // DNI, CUIT, CUIL
	// Numéro de document unique par type (contrainte composite via les index ci-dessus)
	DocumentNumber   string    `gorm:"size:20;not null;index:idx_doc,unique,priority:2" json:"documentNumber"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	Address          string    `json:"address"`
	City             string    `json:"city"`
	Province         string    `json:"province"`
	CreditLimit      float64   `gorm:"not null;default:0" json:"creditLimit"`
	PaymentTermsDays int       `gorm:"not null;default:30" json:"paymentTermsDays"`
	Status           string    `gorm:"not null;default:'active'" json:"status"` // active, inactive, blocked
	Notes            string    `json:"notes,omitempty"`
	CreatedByID      uint      `gorm:"not null" json:"-"`
	CreatedBy        User      `gorm:"foreignKey:CreatedByID" json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
