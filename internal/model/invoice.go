package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Invoice status values. Overdue is derived from the due date and never stored.
const (
	InvoiceStatusPaid    = "paid"
	InvoiceStatusUnpaid  = "unpaid"
	InvoiceStatusPending = "pending"
	InvoiceStatusOverdue = "overdue"
)

// LineItem is one billed line of an invoice, stored inside the line_items jsonb column
type LineItem struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// BankDetails are the payment instructions printed on an invoice
type BankDetails struct {
	BankName      string `json:"bank_name"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	SortCode      string `json:"sort_code,omitempty"`
	IBAN          string `json:"iban,omitempty"`
	SwiftCode     string `json:"swift_code,omitempty"`
}

// Invoice is a document billed to a client. Dates are calendar dates stored at UTC midnight.
type Invoice struct {
	ID              uuid.UUID                        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceNumber   string                           `gorm:"type:varchar(30);uniqueIndex;not null" json:"invoice_number"`
	InvoiceDate     time.Time                        `gorm:"type:date;not null;index" json:"invoice_date"`
	DueDate         *time.Time                       `gorm:"type:date" json:"due_date"`
	PaidDate        *time.Time                       `gorm:"type:date" json:"paid_date"`
	ClientName      string                           `gorm:"type:varchar(255);not null;index" json:"client_name"`
	ClientRegNumber string                           `gorm:"type:varchar(100)" json:"client_reg_number"`
	ClientVATNumber string                           `gorm:"type:varchar(100)" json:"client_vat_number"`
	LineItems       datatypes.JSONSlice[LineItem]    `gorm:"type:jsonb;not null" json:"line_items"`
	BankDetails     *datatypes.JSONType[BankDetails] `gorm:"type:jsonb" json:"bank_details,omitempty"`
	Subtotal        decimal.Decimal                  `gorm:"type:decimal(18,2);not null" json:"subtotal"`
	VAT             decimal.Decimal                  `gorm:"type:decimal(18,2);not null;default:0" json:"vat"`
	Total           decimal.Decimal                  `gorm:"type:decimal(18,2);not null" json:"total"`
	Status          string                           `gorm:"type:varchar(20);not null;default:'unpaid';index" json:"status"`
	CreatedBy       *uuid.UUID                       `gorm:"type:uuid" json:"created_by"`
	CreatedAt       time.Time                        `json:"created_at"`
	UpdatedAt       time.Time                        `json:"updated_at"`
}
