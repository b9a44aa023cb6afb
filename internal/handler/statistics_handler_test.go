package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"invoicer/internal/model"
	"invoicer/internal/service"
)

type stubStatisticsService struct {
	err error
}

func (s *stubStatisticsService) Overview(context.Context) (model.StatisticsOverview, error) {
	return model.StatisticsOverview{TotalRevenue: 3000, TotalInvoices: 5, PaymentRate: 40}, s.err
}

func (s *stubStatisticsService) RevenueByMonth(context.Context) ([]model.MonthlyRevenue, error) {
	return []model.MonthlyRevenue{{Month: "2024-05", Revenue: 2500}}, s.err
}

func (s *stubStatisticsService) StatusBreakdown(context.Context) ([]model.StatusCount, error) {
	return []model.StatusCount{{Status: "paid", Count: 2}}, s.err
}

func (s *stubStatisticsService) ClientPerformance(context.Context) ([]model.ClientPerformance, error) {
	return []model.ClientPerformance{{ClientName: "Acme"}}, s.err
}

func (s *stubStatisticsService) AmountDistribution(context.Context) ([]model.AmountBucket, error) {
	return []model.AmountBucket{{Range: "R0 - R1,000", Max: 1000, Count: 1}}, s.err
}

func (s *stubStatisticsService) ExportAnalyticsCSV(_ context.Context, w io.Writer) error {
	if s.err != nil {
		return s.err
	}
	_, err := io.WriteString(w, "Metric,Value\n")
	return err
}

func (s *stubStatisticsService) ExportClientsCSV(_ context.Context, w io.Writer) error {
	if s.err != nil {
		return s.err
	}
	_, err := io.WriteString(w, "Client Name\nAcme\n")
	return err
}

type stubRevenueService struct {
	filter service.RevenueFilter
	err    error
}

func (s *stubRevenueService) GetRevenueStatistics(_ context.Context, filter service.RevenueFilter) ([]service.RevenueDataPoint, error) {
	s.filter = filter
	if s.err != nil {
		return nil, s.err
	}
	return []service.RevenueDataPoint{{Period: "2024-04-01", InvoiceCount: 2, TotalBilled: "1150.00"}}, nil
}

func TestStatisticsRoutes(t *testing.T) {
	r := newRouter(NewStatisticsHandler(&stubStatisticsService{}, &stubRevenueService{}).RegisterRoutes)

	w := doJSON(t, r, http.MethodGet, "/api/analytics/overview", nil)
	var overview model.StatisticsOverview
	decode(t, w, &overview)
	if w.Code != http.StatusOK || overview.TotalInvoices != 5 || overview.PaymentRate != 40 {
		t.Errorf("overview = %d %+v", w.Code, overview)
	}

	for _, path := range []string{
		"/api/analytics/revenue-by-month",
		"/api/analytics/status-breakdown",
		"/api/analytics/client-performance",
		"/api/analytics/amount-distribution",
		"/api/analytics/revenue",
	} {
		w := doJSON(t, r, http.MethodGet, path, nil)
		var rows []map[string]any
		decode(t, w, &rows)
		if w.Code != http.StatusOK || len(rows) != 1 {
			t.Errorf("GET %s = %d %v", path, w.Code, rows)
		}
	}

	for path, body := range map[string]string{
		"/api/export/analytics.csv": "Metric,Value\n",
		"/api/export/clients.csv":   "Client Name\nAcme\n",
	} {
		w := doJSON(t, r, http.MethodGet, path, nil)
		if w.Code != http.StatusOK || w.Body.String() != body || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv") {
			t.Errorf("GET %s = %d %q %q", path, w.Code, w.Header().Get("Content-Type"), w.Body.String())
		}
	}
}

func TestStatisticsHandlerErrors(t *testing.T) {
	r := newRouter(NewStatisticsHandler(&stubStatisticsService{err: errors.New("db down")}, &stubRevenueService{err: errors.New("db down")}).RegisterRoutes)

	for _, path := range []string{"/api/analytics/overview", "/api/analytics/revenue", "/api/export/clients.csv"} {
		w := doJSON(t, r, http.MethodGet, path, nil)
		if w.Code != http.StatusInternalServerError {
			t.Errorf("GET %s status = %d, want 500", path, w.Code)
		}
	}
}

func TestRevenueByPeriod(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		err        error
		wantStatus int
		wantFilter service.RevenueFilter
	}{
		{"defaults to month", "", nil, http.StatusOK, service.RevenueFilter{GroupBy: "month"}},
		{"passes range", "?group_by=quarter&start_date=2024-01-01&end_date=2024-06-30", nil, http.StatusOK,
			service.RevenueFilter{GroupBy: "quarter", StartDate: "2024-01-01", EndDate: "2024-06-30"}},
		{"bad filter", "?start_date=yesterday", service.ErrInvalidFilter, http.StatusBadRequest,
			service.RevenueFilter{GroupBy: "month", StartDate: "yesterday"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubRevenueService{err: tt.err}
			r := newRouter(NewStatisticsHandler(&stubStatisticsService{}, svc).RegisterRoutes)

			w := doJSON(t, r, http.MethodGet, "/api/analytics/revenue"+tt.query, nil)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if svc.filter != tt.wantFilter {
				t.Errorf("filter = %+v, want %+v", svc.filter, tt.wantFilter)
			}
		})
	}
}

type stubAuditService struct {
	filter service.AuditLogFilter
}

func (s *stubAuditService) GetAuditLogs(_ context.Context, filter service.AuditLogFilter) ([]service.AuditLogResponse, int64, error) {
	s.filter = filter
	return []service.AuditLogResponse{{Action: model.ActionCreateInvoice}}, 1, nil
}

func TestAuditHandlerRequiresAdmin(t *testing.T) {
	svc := &stubAuditService{}

	w := doJSON(t, newRouter(NewAuditHandler(svc).RegisterRoutes, asUser("u", model.RoleUser)), http.MethodGet, "/api/audit-logs", nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("user status = %d, want 403", w.Code)
	}

	w = doJSON(t, newRouter(NewAuditHandler(svc).RegisterRoutes, asUser("a", model.RoleAdmin)), http.MethodGet, "/api/audit-logs?page=3&limit=5&entity_id=inv-1&action=DELETE_INVOICE", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin status = %d", w.Code)
	}
	want := service.AuditLogFilter{EntityID: "inv-1", Action: "DELETE_INVOICE", Page: 3, Limit: 5}
	if svc.filter != want {
		t.Errorf("filter = %+v, want %+v", svc.filter, want)
	}
	var page struct {
		Logs       []service.AuditLogResponse `json:"logs"`
		Total      int64                      `json:"total"`
		TotalPages int                        `json:"total_pages"`
	}
	decode(t, w, &page)
	if len(page.Logs) != 1 || page.Total != 1 || page.TotalPages != 1 {
		t.Errorf("page = %+v", page)
	}
}
