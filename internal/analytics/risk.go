package analytics

import (
	"math"
	"time"
)

// Risk categories of a client
const (
	CategoryLow        = "low"
	CategoryMedium     = "medium"
	CategoryMediumHigh = "medium-high"
	CategoryHigh       = "high"
	CategoryUnknown    = "unknown"
)

// Factor names reported in RiskScore.Factors
const (
	FactorPaymentRate   = "paymentRate"
	FactorInvoiceCount  = "invoiceCount"
	FactorAverageAmount = "averageAmount"
	FactorRecency       = "recency"
	FactorConsistency   = "consistency"
)

// averageAmountCeiling is the average invoice amount that earns the full amount factor
const averageAmountCeiling = 10000

// RiskScore is the weighted reliability score of one client; higher is safer.
// Every factor is capped, so Score always lies in [0,100].
type RiskScore struct {
	ClientName     string             `json:"client_name"`
	Score          float64            `json:"score"`
	Category       string             `json:"category"`
	Factors        map[string]float64 `json:"factors"`
	Recommendation string             `json:"recommendation"`
}

// RiskScorer computes client risk scores relative to a clock
type RiskScorer struct {
	now func() time.Time
}

// NewRiskScorer returns a scorer using now for recency
func NewRiskScorer(now func() time.Time) *RiskScorer {
	if now == nil {
		now = time.Now
	}
	return &RiskScorer{now: now}
}

// Score calculates the risk score of clientName from its invoices in the snapshot
func (s *RiskScorer) Score(clientName string, invoices []Invoice) RiskScore {
	own := clientInvoices(invoices, clientName)
	if len(own) == 0 {
		return RiskScore{
			ClientName:     clientName,
			Score:          50,
			Category:       CategoryUnknown,
			Factors:        map[string]float64{},
			Recommendation: "No payment history available",
		}
	}

	n := float64(len(own))
	paid := 0
	var revenue float64
	latest, earliest := own[0].InvoiceDate, own[0].InvoiceDate
	for _, inv := range own {
		if inv.IsPaid() {
			paid++
		}
		revenue += inv.Total
		if inv.InvoiceDate.After(latest) {
			latest = inv.InvoiceDate
		}
		if inv.InvoiceDate.Before(earliest) {
			earliest = inv.InvoiceDate
		}
	}

	factors := map[string]float64{
		FactorPaymentRate:   float64(paid) / n * 40,
		FactorInvoiceCount:  math.Min(20, n*2),
		FactorAverageAmount: math.Min(20, revenue/n/averageAmountCeiling*20),
		FactorRecency:       math.Max(0, 10-daysBetween(latest, s.now())/30),
		FactorConsistency:   consistencyFactor(earliest, latest, len(own)),
	}

	var total float64
	for _, name := range []string{FactorPaymentRate, FactorInvoiceCount, FactorAverageAmount, FactorRecency, FactorConsistency} {
		total += factors[name]
	}

	// Categories use the exact total; the reported score is rounded to a whole point.
	category, recommendation := riskCategory(total)
	return RiskScore{
		ClientName:     clientName,
		Score:          math.Round(total),
		Category:       category,
		Factors:        factors,
		Recommendation: recommendation,
	}
}

// consistencyFactor rewards an average invoicing interval close to a month
func consistencyFactor(earliest, latest time.Time, count int) float64 {
	if count < 2 {
		return 0
	}
	avgIntervalDays := latest.Sub(earliest).Hours() / 24 / float64(count-1)
	if avgIntervalDays <= 0 {
		return 0
	}
	return math.Min(10, 30/avgIntervalDays*10)
}

func riskCategory(score float64) (string, string) {
	switch {
	case score >= 80:
		return CategoryLow, "Excellent client - consider offering discounts for early payment"
	case score >= 60:
		return CategoryMedium, "Reliable client - maintain current payment terms"
	case score >= 40:
		return CategoryMediumHigh, "Monitor closely - consider requiring deposits for new invoices"
	default:
		return CategoryHigh, "High risk - require advance payment or implement strict payment terms"
	}
}
