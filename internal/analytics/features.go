package analytics

import (
	"math"
	"sort"
)

// estimatedPaymentDays stands in for the payment date of paid invoices that do not record one
const estimatedPaymentDays = 30

// Feature names as exposed in feature maps
const (
	FeatureAmount                   = "amount"
	FeatureAmountLog                = "amountLog"
	FeatureLineItemCount            = "lineItemCount"
	FeatureHasVAT                   = "hasVat"
	FeatureClientInvoiceCount       = "clientInvoiceCount"
	FeatureClientTotalRevenue       = "clientTotalRevenue"
	FeatureClientAverageAmount      = "clientAverageAmount"
	FeatureClientPaymentRate        = "clientPaymentRate"
	FeatureClientPaymentVelocity    = "clientPaymentVelocity"
	FeatureMonthOfYear              = "monthOfYear"
	FeatureDayOfWeek                = "dayOfWeek"
	FeatureQuarterOfYear            = "quarterOfYear"
	FeatureAmountPercentileInClient = "amountPercentileForClient"
)

// FeatureVector holds the numeric features derived for one invoice.
// Client aggregates only look at the client's invoices dated strictly
// before the invoice itself.
type FeatureVector struct {
	Amount                    float64 `json:"amount"`
	AmountLog                 float64 `json:"amountLog"`
	LineItemCount             float64 `json:"lineItemCount"`
	HasVAT                    float64 `json:"hasVat"`
	ClientInvoiceCount        float64 `json:"clientInvoiceCount"`
	ClientTotalRevenue        float64 `json:"clientTotalRevenue"`
	ClientAverageAmount       float64 `json:"clientAverageAmount"`
	ClientPaymentRate         float64 `json:"clientPaymentRate"`
	ClientPaymentVelocity     float64 `json:"clientPaymentVelocity"`
	MonthOfYear               float64 `json:"monthOfYear"`
	DayOfWeek                 float64 `json:"dayOfWeek"`
	QuarterOfYear             float64 `json:"quarterOfYear"`
	AmountPercentileForClient float64 `json:"amountPercentileForClient"`
}

// Map returns the features keyed by name
func (f FeatureVector) Map() map[string]float64 {
	return map[string]float64{
		FeatureAmount:                   f.Amount,
		FeatureAmountLog:                f.AmountLog,
		FeatureLineItemCount:            f.LineItemCount,
		FeatureHasVAT:                   f.HasVAT,
		FeatureClientInvoiceCount:       f.ClientInvoiceCount,
		FeatureClientTotalRevenue:       f.ClientTotalRevenue,
		FeatureClientAverageAmount:      f.ClientAverageAmount,
		FeatureClientPaymentRate:        f.ClientPaymentRate,
		FeatureClientPaymentVelocity:    f.ClientPaymentVelocity,
		FeatureMonthOfYear:              f.MonthOfYear,
		FeatureDayOfWeek:                f.DayOfWeek,
		FeatureQuarterOfYear:            f.QuarterOfYear,
		FeatureAmountPercentileInClient: f.AmountPercentileForClient,
	}
}

// ExtractFeatures derives the feature vector of inv against the full snapshot.
// It never fails; empty history yields defaults.
func ExtractFeatures(inv Invoice, all []Invoice) FeatureVector {
	var history []Invoice
	for _, other := range clientInvoices(all, inv.ClientName) {
		if other.InvoiceDate.Before(inv.InvoiceDate) {
			history = append(history, other)
		}
	}

	f := FeatureVector{
		Amount:                    inv.Total,
		AmountLog:                 math.Log(inv.Total + 1),
		LineItemCount:             float64(len(inv.LineItems)),
		ClientInvoiceCount:        float64(len(history)),
		ClientPaymentVelocity:     PaymentVelocity(all, inv.ClientName),
		MonthOfYear:               float64(inv.InvoiceDate.Month()),
		DayOfWeek:                 float64(inv.InvoiceDate.Weekday()),
		QuarterOfYear:             float64((int(inv.InvoiceDate.Month())-1)/3 + 1),
		AmountPercentileForClient: 50,
	}
	if inv.VAT > 0 {
		f.HasVAT = 1
	}

	if len(history) > 0 {
		amounts := make([]float64, 0, len(history))
		paid := 0
		for _, h := range history {
			f.ClientTotalRevenue += h.Total
			amounts = append(amounts, h.Total)
			if h.IsPaid() {
				paid++
			}
		}
		n := float64(len(history))
		f.ClientAverageAmount = f.ClientTotalRevenue / n
		f.ClientPaymentRate = float64(paid) / n

		sort.Float64s(amounts)
		f.AmountPercentileForClient = percentileOf(amounts, inv.Total)
	}

	return f
}

// PaymentVelocity is the mean number of days between invoicing and payment
// over all of a client's paid invoices, or 0 when none are paid.
func PaymentVelocity(all []Invoice, clientName string) float64 {
	var sum float64
	count := 0
	for _, inv := range all {
		if inv.ClientName != clientName || !inv.IsPaid() {
			continue
		}
		sum += paymentDays(inv)
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// paymentDays uses the recorded paid date, falling back to the fixed estimate
func paymentDays(inv Invoice) float64 {
	paidOn := inv.InvoiceDate.AddDate(0, 0, estimatedPaymentDays)
	if inv.PaidDate != nil {
		paidOn = *inv.PaidDate
	}
	return daysBetween(inv.InvoiceDate, paidOn)
}

// percentileOf returns the insertion point of value in sorted as a percentage of its length
func percentileOf(sorted []float64, value float64) float64 {
	if len(sorted) == 0 {
		return 50
	}
	idx := sort.SearchFloat64s(sorted, value)
	return float64(idx) / float64(len(sorted)) * 100
}

// Bounds is the observed range of a feature across a training sample
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// CalculateFeatureBounds returns per-feature min/max across the vectors, ignoring NaN values
func CalculateFeatureBounds(vectors []map[string]float64) map[string]Bounds {
	bounds := make(map[string]Bounds)
	for _, vec := range vectors {
		for key, val := range vec {
			if math.IsNaN(val) {
				continue
			}
			b, ok := bounds[key]
			if !ok {
				bounds[key] = Bounds{Min: val, Max: val}
				continue
			}
			b.Min = math.Min(b.Min, val)
			b.Max = math.Max(b.Max, val)
			bounds[key] = b
		}
	}
	return bounds
}

// NormalizeFeatures rescales each bounded feature into [0,1]; a feature with
// an empty range maps to 0 and an unbounded one passes through unchanged.
func NormalizeFeatures(features map[string]float64, bounds map[string]Bounds) map[string]float64 {
	out := make(map[string]float64, len(features))
	for key, val := range features {
		b, ok := bounds[key]
		switch {
		case !ok:
			out[key] = val
		case b.Max > b.Min:
			out[key] = (val - b.Min) / (b.Max - b.Min)
		default:
			out[key] = 0
		}
	}
	return out
}
