package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"invoicer/internal/repository"
)

type fakeRevenueRepo struct {
	groupBy    string
	start, end time.Time
	rows       []repository.RevenueDataRow
}

func (r *fakeRevenueRepo) GetRevenueStatistics(_ context.Context, groupBy string, start, end time.Time) ([]repository.RevenueDataRow, error) {
	r.groupBy, r.start, r.end = groupBy, start, end
	return r.rows, nil
}

func newTestRevenueService(repo *fakeRevenueRepo) *revenueService {
	svc := NewRevenueService(repo).(*revenueService)
	svc.now = fixedNow
	return svc
}

func TestRevenueStatisticsDefaults(t *testing.T) {
	repo := &fakeRevenueRepo{}
	svc := newTestRevenueService(repo)

	got, err := svc.GetRevenueStatistics(context.Background(), RevenueFilter{GroupBy: "decade"})
	if err != nil {
		t.Fatalf("GetRevenueStatistics() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("result = %v, want empty slice", got)
	}
	if repo.groupBy != "month" {
		t.Errorf("groupBy = %q, want month fallback", repo.groupBy)
	}
	if !repo.start.Equal(day("2023-07-01")) || !repo.end.Equal(day("2024-06-30")) {
		t.Errorf("range = %s..%s, want 2023-07-01..2024-06-30", repo.start.Format(dateLayout), repo.end.Format(dateLayout))
	}
}

func TestRevenueStatisticsFormatsRows(t *testing.T) {
	repo := &fakeRevenueRepo{rows: []repository.RevenueDataRow{
		{Period: "2024-04-01", InvoiceCount: 3, TotalBilled: 1150, TotalCollected: 460, TotalVAT: 150},
	}}
	svc := newTestRevenueService(repo)

	got, err := svc.GetRevenueStatistics(context.Background(), RevenueFilter{GroupBy: "quarter", StartDate: "2024-01-01", EndDate: "2024-06-30"})
	if err != nil {
		t.Fatalf("GetRevenueStatistics() error = %v", err)
	}
	want := RevenueDataPoint{Period: "2024-04-01", InvoiceCount: 3, TotalBilled: "1150.00", TotalCollected: "460.00", Outstanding: "690.00", TotalVAT: "150.00"}
	if len(got) != 1 || got[0] != want {
		t.Errorf("result = %+v, want %+v", got, want)
	}
	if repo.groupBy != "quarter" || !repo.start.Equal(day("2024-01-01")) {
		t.Errorf("query = %s from %s", repo.groupBy, repo.start)
	}
}

func TestRevenueStatisticsRejectsBadDates(t *testing.T) {
	svc := newTestRevenueService(&fakeRevenueRepo{})
	for _, f := range []RevenueFilter{
		{StartDate: "2024/01/01"},
		{EndDate: "tomorrow"},
		{StartDate: "2024-06-01", EndDate: "2024-05-01"},
	} {
		if _, err := svc.GetRevenueStatistics(context.Background(), f); !errors.Is(err, ErrInvalidFilter) {
			t.Errorf("%+v: error = %v, want ErrInvalidFilter", f, err)
		}
	}
}
