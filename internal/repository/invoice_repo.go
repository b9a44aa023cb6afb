package repository

import (
	"context"
	"fmt"
	"time"

	"invoicer/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvoiceListFilter narrows List. Status "overdue" selects unpaid invoices past their due date.
type InvoiceListFilter struct {
	Status     string
	ClientName string // partial, case-insensitive
	Page       int
	Limit      int
	Today      time.Time
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	List(ctx context.Context, filter InvoiceListFilter) ([]model.Invoice, int64, error)
	ListAll(ctx context.Context) ([]model.Invoice, error)
	Update(ctx context.Context, invoice *model.Invoice) error
	Delete(ctx context.Context, id uuid.UUID) error
	// MaxSequence returns the highest numeric suffix among invoice numbers starting with prefix, 0 when none
	MaxSequence(ctx context.Context, prefix string) (int64, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Create(invoice).Error
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) applyFilter(query *gorm.DB, filter InvoiceListFilter) *gorm.DB {
	switch filter.Status {
	case "":
	case model.InvoiceStatusOverdue:
		query = query.Where("status = ? AND due_date IS NOT NULL AND due_date < ?", model.InvoiceStatusUnpaid, filter.Today)
	default:
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ClientName != "" {
		query = query.Where("client_name ILIKE ?", "%"+filter.ClientName+"%")
	}
	return query
}

func (r *invoiceRepository) List(ctx context.Context, filter InvoiceListFilter) ([]model.Invoice, int64, error) {
	var invoices []model.Invoice
	var total int64

	db := GetDB(ctx, r.db)
	if err := r.applyFilter(db.Model(&model.Invoice{}), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := r.applyFilter(db, filter).
		Order("invoice_date desc, created_at desc").
		Offset(offset).Limit(filter.Limit).
		Find(&invoices).Error; err != nil {
		return nil, 0, err
	}

	return invoices, total, nil
}

// ListAll returns every invoice in issue order, the snapshot the insights engine works on
func (r *invoiceRepository) ListAll(ctx context.Context) ([]model.Invoice, error) {
	var invoices []model.Invoice
	if err := GetDB(ctx, r.db).Order("invoice_date asc, created_at asc").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Save(invoice).Error
}

func (r *invoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := GetDB(ctx, r.db).Delete(&model.Invoice{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *invoiceRepository) MaxSequence(ctx context.Context, prefix string) (int64, error) {
	query := `
		SELECT COALESCE(MAX(CAST(SUBSTRING(invoice_number FROM ?) AS BIGINT)), 0)
		FROM invoices
		WHERE invoice_number LIKE ?
		  AND SUBSTRING(invoice_number FROM ?) ~ '^[0-9]{1,18}$'
	`
	start := len(prefix) + 1

	var seq int64
	if err := GetDB(ctx, r.db).Raw(query, start, prefix+"%", start).Scan(&seq).Error; err != nil {
		return 0, fmt.Errorf("failed to read invoice sequence: %w", err)
	}
	return seq, nil
}
