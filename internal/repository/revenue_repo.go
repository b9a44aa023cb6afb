package repository

import (
	"context"
	"fmt"
	"time"

	"invoicer/internal/model"

	"gorm.io/gorm"
)

type RevenueDataRow struct {
	Period         string  `gorm:"column:period"`
	InvoiceCount   int     `gorm:"column:invoice_count"`
	TotalBilled    float64 `gorm:"column:total_billed"`
	TotalCollected float64 `gorm:"column:total_collected"`
	TotalVAT       float64 `gorm:"column:total_vat"`
}

// RevenueRepository groups invoice totals into calendar periods
type RevenueRepository interface {
	GetRevenueStatistics(ctx context.Context, groupBy string, startDate, endDate time.Time) ([]RevenueDataRow, error)
}

type revenueRepository struct {
	db *gorm.DB
}

func NewRevenueRepository(db *gorm.DB) RevenueRepository {
	return &revenueRepository{db: db}
}

// GetRevenueStatistics buckets invoices dated within [startDate, endDate] by
// DATE_TRUNC(groupBy, invoice_date). groupBy must be a valid postgres field.
func (r *revenueRepository) GetRevenueStatistics(ctx context.Context, groupBy string, startDate, endDate time.Time) ([]RevenueDataRow, error) {
	query := `
		SELECT
			TO_CHAR(DATE_TRUNC($1, i.invoice_date), 'YYYY-MM-DD') AS period,
			COUNT(*) AS invoice_count,
			COALESCE(SUM(i.total), 0) AS total_billed,
			COALESCE(SUM(CASE WHEN i.status = $4 THEN i.total ELSE 0 END), 0) AS total_collected,
			COALESCE(SUM(i.vat), 0) AS total_vat
		FROM invoices i
		WHERE i.invoice_date >= $2::date
		  AND i.invoice_date <= $3::date
		GROUP BY DATE_TRUNC($1, i.invoice_date)
		ORDER BY period
	`

	var rows []RevenueDataRow
	if err := GetDB(ctx, r.db).Raw(query,
		groupBy, startDate, endDate, model.InvoiceStatusPaid,
	).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query revenue statistics: %w", err)
	}

	return rows, nil
}
