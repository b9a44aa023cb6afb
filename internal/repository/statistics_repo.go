package repository

import (
	"context"
	"fmt"

	"invoicer/internal/model"

	"gorm.io/gorm"
)

// StatisticsRepository runs the dashboard aggregations inside postgres
type StatisticsRepository interface {
	StatusBreakdown(ctx context.Context) ([]model.StatusCount, error)
	RevenueByMonth(ctx context.Context) ([]model.MonthlyRevenue, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) StatusBreakdown(ctx context.Context) ([]model.StatusCount, error) {
	var counts []model.StatusCount
	if err := GetDB(ctx, r.db).Model(&model.Invoice{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Order("status").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to query status breakdown: %w", err)
	}
	return counts, nil
}

// RevenueByMonth sums paid totals per invoice month. Months with invoices but no
// paid revenue are reported with zero revenue.
func (r *statisticsRepository) RevenueByMonth(ctx context.Context) ([]model.MonthlyRevenue, error) {
	var rows []model.MonthlyRevenue
	if err := GetDB(ctx, r.db).Model(&model.Invoice{}).
		Select("to_char(invoice_date, 'YYYY-MM') as month, COALESCE(SUM(CASE WHEN status = ? THEN total ELSE 0 END), 0) as revenue", model.InvoiceStatusPaid).
		Group("month").
		Order("month").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query revenue by month: %w", err)
	}
	return rows, nil
}
