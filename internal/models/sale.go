package models

import "time"

const (
	SaleStatusPending   = "pending"
	SaleStatusCompleted = "completed"
	SaleStatusCancelled = "cancelled"

	PaymentCash   = "cash"
	PaymentCredit = "credit"
	PaymentOther  = "other"
)

// Sale and its line items. A sale owns its items; client and products are
// weak references with independent lifecycles.
type Sale struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Number        string     `gorm:"size:40;not null;uniqueIndex" json:"number"`
	ClientID      uint       `gorm:"not null;index" json:"-"`
	Client        Client     `gorm:"foreignKey:ClientID" json:"client"`
	Items         []SaleItem `gorm:"foreignKey:SaleID" json:"items"`
	TotalAmount   float64    `gorm:"not null" json:"totalAmount"` // figé à la création, jamais recalculé
	Currency      string     `gorm:"not null;default:'ARS'" json:"currency"`
	PaymentMethod string     `gorm:"not null" json:"paymentMethod"` // cash, credit, other
	Status        string     `gorm:"not null;default:'pending'" json:"status"`
	Notes         string     `json:"notes,omitempty"`
	CreatedByID   uint       `gorm:"not null" json:"-"`
	CreatedBy     User       `gorm:"foreignKey:CreatedByID" json:"createdBy"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type SaleItem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	SaleID    uint    `gorm:"not null;index" json:"-"`
	ProductID uint    `gorm:"not null" json:"-"`
	Product   Product `gorm:"foreignKey:ProductID" json:"product"`
	Quantity  float64 `gorm:"not null" json:"quantity"`
	UnitPrice float64 `gorm:"not null" json:"unitPrice"`
	Currency  string  `gorm:"not null;default:'ARS'" json:"currency"`
}
