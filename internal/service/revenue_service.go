package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invoicer/internal/repository"
)

var ErrInvalidFilter = errors.New("invalid filter")

// --- DTOs ---

type RevenueDataPoint struct {
	Period         string `json:"period"` // first day of the period
	InvoiceCount   int    `json:"invoice_count"`
	TotalBilled    string `json:"total_billed"`
	TotalCollected string `json:"total_collected"`
	Outstanding    string `json:"outstanding"`
	TotalVAT       string `json:"total_vat"`
}

type RevenueFilter struct {
	GroupBy   string // week, month, quarter, year
	StartDate string // YYYY-MM-DD, default first day of the month eleven months ago
	EndDate   string // YYYY-MM-DD, default today
}

// --- Interface ---

type RevenueService interface {
	GetRevenueStatistics(ctx context.Context, filter RevenueFilter) ([]RevenueDataPoint, error)
}

type revenueService struct {
	repo repository.RevenueRepository
	now  func() time.Time
}

func NewRevenueService(repo repository.RevenueRepository) RevenueService {
	return &revenueService{repo: repo, now: time.Now}
}

// --- Implementation ---

func (s *revenueService) GetRevenueStatistics(ctx context.Context, filter RevenueFilter) ([]RevenueDataPoint, error) {
	// Validate group_by
	groupBy := filter.GroupBy
	switch groupBy {
	case "week", "month", "quarter", "year":
		// valid
	default:
		groupBy = "month" // default
	}

	today := civilDate(s.now())
	startDate := time.Date(today.Year(), today.Month()-11, 1, 0, 0, 0, 0, time.UTC)
	endDate := today
	if filter.StartDate != "" {
		d, err := time.Parse(dateLayout, filter.StartDate)
		if err != nil {
			return nil, fmt.Errorf("%w: start_date must be YYYY-MM-DD", ErrInvalidFilter)
		}
		startDate = d
	}
	if filter.EndDate != "" {
		d, err := time.Parse(dateLayout, filter.EndDate)
		if err != nil {
			return nil, fmt.Errorf("%w: end_date must be YYYY-MM-DD", ErrInvalidFilter)
		}
		endDate = d
	}
	if endDate.Before(startDate) {
		return nil, fmt.Errorf("%w: end_date is before start_date", ErrInvalidFilter)
	}

	rows, err := s.repo.GetRevenueStatistics(ctx, groupBy, startDate, endDate)
	if err != nil {
		return nil, err
	}

	result := make([]RevenueDataPoint, 0, len(rows))
	for _, r := range rows {
		result = append(result, RevenueDataPoint{
			Period:         r.Period,
			InvoiceCount:   r.InvoiceCount,
			TotalBilled:    fmt.Sprintf("%.2f", r.TotalBilled),
			TotalCollected: fmt.Sprintf("%.2f", r.TotalCollected),
			Outstanding:    fmt.Sprintf("%.2f", r.TotalBilled-r.TotalCollected),
			TotalVAT:       fmt.Sprintf("%.2f", r.TotalVAT),
		})
	}

	return result, nil
}
