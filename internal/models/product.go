package models

import "time"

// Product domain models
type Product struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Name     string  `gorm:"not null;index" json:"name"`
	Category string  `gorm:"index" json:"category"` // ex: semillas, fertilizantes, agroquímicos
	SKU      string  `gorm:"size:40;not null;uniqueIndex" json:"sku"`
	Stock    float64 `gorm:"not null;default:0" json:"stock"`
	Unit     string  `gorm:"not null;default:'kg'" json:"unit"` // kg, ton, litro, unidad
	// Current price with its currency and the moment it was last changed.
	Price          float64   `gorm:"not null" json:"price"`
	Currency       string    `gorm:"not null;default:'ARS'" json:"currency"`
	PriceUpdatedAt time.Time `json:"priceUpdatedAt"`
	Active         bool      `gorm:"not null;default:true" json:"active"`
	MinStock       float64   `gorm:"not null;default:0" json:"minStock"`
	SupplierID     *uint     `json:"supplierId,omitempty"` // clé étrangère vers Supplier (faible)
	Supplier       *Supplier `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	CreatedByID    uint      `gorm:"not null" json:"-"`
	CreatedBy      User      `gorm:"foreignKey:CreatedByID" json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// LowOnStock reports whether current stock sits at or under the alert threshold.
func (p *Product) LowOnStock() bool { return p.MinStock > 0 && p.Stock <= p.MinStock }
