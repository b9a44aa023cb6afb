package analytics

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MinAnomalySample is the fewest invoices anomaly detection runs on
const MinAnomalySample = 10

// ExpectedVATRate is the VAT rate invoices are checked against
const ExpectedVATRate = 0.15

// zEpsilon absorbs rounding in z-scores so values that are exactly on a
// threshold in exact arithmetic land on the same side.
const zEpsilon = 1e-9

// Anomaly types
const (
	AnomalyAmountExtreme      = "amount_extreme"
	AnomalyAmountUnusual      = "amount_unusual"
	AnomalyLineItemsExcessive = "line_items_excessive"
	AnomalyClientDeviation    = "client_pattern_deviation"
	AnomalyVATCalculation     = "vat_calculation"
)

// Severity levels
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Anomaly is the highest-scoring rule violation found on one invoice
type Anomaly struct {
	Invoice     Invoice `json:"invoice"`
	Type        string  `json:"anomaly_type"`
	Severity    string  `json:"severity"`
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// AnomalySummary tallies reported anomalies by severity
type AnomalySummary struct {
	TotalAnomalies int `json:"total_anomalies"`
	HighSeverity   int `json:"high_severity"`
	MediumSeverity int `json:"medium_severity"`
	LowSeverity    int `json:"low_severity"`
}

// AnomalyReport is the result of DetectAnomalies
type AnomalyReport struct {
	Anomalies []Anomaly      `json:"anomalies"`
	Summary   AnomalySummary `json:"summary"`
}

type candidate struct {
	kind        string
	severity    string
	description string
	score       float64
}

var currencyPrinter = message.NewPrinter(language.English)

// FormatCurrency renders an amount in rand with thousands separators
func FormatCurrency(amount float64) string {
	return currencyPrinter.Sprintf("R %.2f", amount)
}

// DetectAnomalies flags statistically or structurally unusual invoices.
// Snapshots smaller than MinAnomalySample yield an empty report.
func DetectAnomalies(invoices []Invoice) AnomalyReport {
	report := AnomalyReport{Anomalies: []Anomaly{}}
	if len(invoices) < MinAnomalySample {
		return report
	}

	n := float64(len(invoices))
	var sum float64
	for _, inv := range invoices {
		sum += inv.Total
	}
	mean := sum / n
	var sq float64
	for _, inv := range invoices {
		d := inv.Total - mean
		sq += d * d
	}
	stdDev := math.Sqrt(sq / n)

	clientTotals := make(map[string]float64)
	clientCounts := make(map[string]int)
	for _, inv := range invoices {
		clientTotals[inv.ClientName] += inv.Total
		clientCounts[inv.ClientName]++
	}

	for _, inv := range invoices {
		var candidates []candidate

		zScore := 0.0
		if stdDev > 0 {
			zScore = math.Abs(inv.Total-mean) / stdDev
		}
		switch {
		case zScore >= 3-zEpsilon:
			candidates = append(candidates, candidate{
				kind:        AnomalyAmountExtreme,
				severity:    SeverityHigh,
				description: fmt.Sprintf("Invoice amount (%s) is %.1f standard deviations from average", FormatCurrency(inv.Total), zScore),
				score:       math.Min(100, zScore*20),
			})
		case zScore > 2+zEpsilon:
			candidates = append(candidates, candidate{
				kind:        AnomalyAmountUnusual,
				severity:    SeverityMedium,
				description: fmt.Sprintf("Invoice amount (%s) is unusually high/low", FormatCurrency(inv.Total)),
				score:       zScore * 15,
			})
		}

		if items := len(inv.LineItems); items > 20 {
			candidates = append(candidates, candidate{
				kind:        AnomalyLineItemsExcessive,
				severity:    SeverityMedium,
				description: fmt.Sprintf("Unusually high number of line items (%d)", items),
				score:       math.Min(100, float64(items)*2),
			})
		}

		count := clientCounts[inv.ClientName]
		clientAvg := clientTotals[inv.ClientName] / float64(count)
		if count > 3 && clientAvg > 0 {
			if deviation := math.Abs(inv.Total-clientAvg) / clientAvg; deviation > 3 {
				candidates = append(candidates, candidate{
					kind:        AnomalyClientDeviation,
					severity:    SeverityMedium,
					description: "Amount deviates significantly from client's typical invoices",
					score:       math.Min(100, deviation*25),
				})
			}
		}

		if expectedVAT := inv.Subtotal * ExpectedVATRate; expectedVAT > 0 {
			if deviation := math.Abs(inv.VAT-expectedVAT) / expectedVAT; deviation > 0.1 {
				candidates = append(candidates, candidate{
					kind:        AnomalyVATCalculation,
					severity:    SeverityLow,
					description: "VAT calculation may be incorrect",
					score:       deviation * 50,
				})
			}
		}

		if len(candidates) == 0 {
			continue
		}
		top := candidates[0]
		for _, c := range candidates[1:] {
			if c.score > top.score {
				top = c
			}
		}

		report.Anomalies = append(report.Anomalies, Anomaly{
			Invoice:     inv,
			Type:        top.kind,
			Severity:    top.severity,
			Description: top.description,
			Score:       top.score,
		})
		report.Summary.TotalAnomalies++
		switch top.severity {
		case SeverityHigh:
			report.Summary.HighSeverity++
		case SeverityMedium:
			report.Summary.MediumSeverity++
		case SeverityLow:
			report.Summary.LowSeverity++
		}
	}

	return report
}
