package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateInvoice = "CREATE_INVOICE"
	ActionUpdateInvoice = "UPDATE_INVOICE"
	ActionDeleteInvoice = "DELETE_INVOICE"
	ActionMarkPaid      = "MARK_INVOICE_PAID"
	ActionRegisterUser  = "REGISTER_USER"
)

// AuditLog tracks Who, What, and When for invoice changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nil for automated changes
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // invoice number or username
	Details    string     `gorm:"type:jsonb" json:"details"`                      // serialized request payload
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
