package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	"invoicer/internal/model"
	"invoicer/internal/repository"
)

// amountBuckets are the invoice total ranges of the amount distribution; Max 0 is unbounded
var amountBuckets = []model.AmountBucket{
	{Range: "R0 - R1,000", Min: 0, Max: 1000},
	{Range: "R1,000 - R5,000", Min: 1000, Max: 5000},
	{Range: "R5,000 - R10,000", Min: 5000, Max: 10000},
	{Range: "R10,000 - R50,000", Min: 10000, Max: 50000},
	{Range: "R50,000+", Min: 50000},
}

type StatisticsService interface {
	Overview(ctx context.Context) (model.StatisticsOverview, error)
	RevenueByMonth(ctx context.Context) ([]model.MonthlyRevenue, error)
	StatusBreakdown(ctx context.Context) ([]model.StatusCount, error)
	ClientPerformance(ctx context.Context) ([]model.ClientPerformance, error)
	AmountDistribution(ctx context.Context) ([]model.AmountBucket, error)
	ExportAnalyticsCSV(ctx context.Context, w io.Writer) error
	ExportClientsCSV(ctx context.Context, w io.Writer) error
}

type statisticsService struct {
	invoiceRepo repository.InvoiceRepository
	statsRepo   repository.StatisticsRepository
	now         func() time.Time
}

func NewStatisticsService(invoiceRepo repository.InvoiceRepository, statsRepo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{invoiceRepo: invoiceRepo, statsRepo: statsRepo, now: time.Now}
}

func (s *statisticsService) all(ctx context.Context) ([]model.Invoice, error) {
	invoices, err := s.invoiceRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch invoices: %w", err)
	}
	return invoices, nil
}

// Overview counts invoices by effective status. Revenue is the sum of paid totals.
func (s *statisticsService) Overview(ctx context.Context) (model.StatisticsOverview, error) {
	invoices, err := s.all(ctx)
	if err != nil {
		return model.StatisticsOverview{}, err
	}

	var overview model.StatisticsOverview
	var billed float64
	now := s.now()
	for _, inv := range invoices {
		total := inv.Total.InexactFloat64()
		billed += total
		switch effectiveStatus(inv, now) {
		case model.InvoiceStatusPaid:
			overview.PaidInvoices++
			overview.TotalRevenue += total
		case model.InvoiceStatusOverdue:
			overview.OverdueInvoices++
			overview.UnpaidInvoices++
		case model.InvoiceStatusUnpaid:
			overview.UnpaidInvoices++
		}
	}

	overview.TotalInvoices = len(invoices)
	if overview.TotalInvoices > 0 {
		overview.AverageInvoiceValue = round2(billed / float64(overview.TotalInvoices))
		overview.PaymentRate = round2(float64(overview.PaidInvoices) / float64(overview.TotalInvoices) * 100)
	}
	overview.TotalRevenue = round2(overview.TotalRevenue)
	return overview, nil
}

func (s *statisticsService) RevenueByMonth(ctx context.Context) ([]model.MonthlyRevenue, error) {
	rows, err := s.statsRepo.RevenueByMonth(ctx)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []model.MonthlyRevenue{}
	}
	return rows, nil
}

func (s *statisticsService) StatusBreakdown(ctx context.Context) ([]model.StatusCount, error) {
	rows, err := s.statsRepo.StatusBreakdown(ctx)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []model.StatusCount{}
	}
	return rows, nil
}

// ClientPerformance aggregates per client, highest billed total first
func (s *statisticsService) ClientPerformance(ctx context.Context) ([]model.ClientPerformance, error) {
	invoices, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	return clientPerformance(invoices), nil
}

func clientPerformance(invoices []model.Invoice) []model.ClientPerformance {
	byClient := make(map[string]*model.ClientPerformance)
	latest := make(map[string]time.Time)
	var order []string
	for _, inv := range invoices {
		cp, ok := byClient[inv.ClientName]
		if !ok {
			cp = &model.ClientPerformance{ClientName: inv.ClientName}
			byClient[inv.ClientName] = cp
			order = append(order, inv.ClientName)
		}
		if inv.ClientRegNumber != "" {
			cp.ClientRegNumber = inv.ClientRegNumber
		}
		if inv.ClientVATNumber != "" {
			cp.ClientVATNumber = inv.ClientVATNumber
		}

		total := inv.Total.InexactFloat64()
		cp.TotalAmount += total
		cp.InvoiceCount++
		if inv.Status == model.InvoiceStatusPaid {
			cp.PaidAmount += total
			cp.PaidCount++
		}
		if inv.InvoiceDate.After(latest[inv.ClientName]) {
			latest[inv.ClientName] = inv.InvoiceDate
		}
	}

	result := make([]model.ClientPerformance, 0, len(order))
	for _, name := range order {
		cp := byClient[name]
		cp.TotalAmount = round2(cp.TotalAmount)
		cp.PaidAmount = round2(cp.PaidAmount)
		cp.AverageInvoice = round2(cp.TotalAmount / float64(cp.InvoiceCount))
		cp.PaymentRate = round2(float64(cp.PaidCount) / float64(cp.InvoiceCount) * 100)
		cp.LastInvoiceDate = latest[name].Format(dateLayout)
		result = append(result, *cp)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].TotalAmount > result[j].TotalAmount })
	return result
}

// AmountDistribution counts invoices per total range, omitting empty ranges
func (s *statisticsService) AmountDistribution(ctx context.Context) ([]model.AmountBucket, error) {
	invoices, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	return amountDistribution(invoices), nil
}

func amountDistribution(invoices []model.Invoice) []model.AmountBucket {
	buckets := make([]model.AmountBucket, len(amountBuckets))
	copy(buckets, amountBuckets)
	for _, inv := range invoices {
		total := inv.Total.InexactFloat64()
		for i := range buckets {
			if total >= buckets[i].Min && (buckets[i].Max == 0 || total < buckets[i].Max) {
				buckets[i].Count++
				break
			}
		}
	}

	result := []model.AmountBucket{}
	for _, b := range buckets {
		if b.Count > 0 {
			result = append(result, b)
		}
	}
	return result
}

// ExportAnalyticsCSV writes the overview followed by the monthly revenue series
func (s *statisticsService) ExportAnalyticsCSV(ctx context.Context, w io.Writer) error {
	overview, err := s.Overview(ctx)
	if err != nil {
		return err
	}
	months, err := s.RevenueByMonth(ctx)
	if err != nil {
		return err
	}

	records := [][]string{
		{"Metric", "Value"},
		{"Total Revenue (R)", money(overview.TotalRevenue)},
		{"Total Invoices", strconv.Itoa(overview.TotalInvoices)},
		{"Paid Invoices", strconv.Itoa(overview.PaidInvoices)},
		{"Unpaid Invoices", strconv.Itoa(overview.UnpaidInvoices)},
		{"Overdue Invoices", strconv.Itoa(overview.OverdueInvoices)},
		{"Average Invoice Value (R)", money(overview.AverageInvoiceValue)},
		{"Payment Rate (%)", money(overview.PaymentRate)},
		{},
		{"Month", "Revenue (R)"},
	}
	for _, m := range months {
		records = append(records, []string{m.Month, money(m.Revenue)})
	}
	return writeCSV(w, records)
}

// ExportClientsCSV writes one row per client of the performance table
func (s *statisticsService) ExportClientsCSV(ctx context.Context, w io.Writer) error {
	clients, err := s.ClientPerformance(ctx)
	if err != nil {
		return err
	}

	records := [][]string{{
		"Client Name", "Client Reg Number", "Client VAT Number", "Total Amount (R)",
		"Invoice Count", "Paid Amount (R)", "Paid Count", "Average Invoice (R)",
		"Payment Rate (%)", "Last Invoice Date",
	}}
	for _, c := range clients {
		records = append(records, []string{
			c.ClientName, c.ClientRegNumber, c.ClientVATNumber, money(c.TotalAmount),
			strconv.Itoa(c.InvoiceCount), money(c.PaidAmount), strconv.Itoa(c.PaidCount),
			money(c.AverageInvoice), money(c.PaymentRate), c.LastInvoiceDate,
		})
	}
	return writeCSV(w, records)
}

func writeCSV(w io.Writer, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
