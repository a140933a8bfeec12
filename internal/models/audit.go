package models

import "time"

// Audit logging
type AuditLog struct {
	ID         uint      `gorm:"primaryKey"`
	UserID     uint      // qui a fait la modification
	EntityType string    // ex: "Sale", "Product", "Client"
	EntityID   uint      // ID de l'entité modifiée
	Action     string    // ex: "create", "status_change", "delete"
	Detail     string    // contexte libre (ex: nouveau statut)
	CreatedAt  time.Time // quand
}
