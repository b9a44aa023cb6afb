package analytics

import (
	"math"
	"testing"
)

func TestExtractFeatures_ClientHistoryIsStrictlyEarlier(t *testing.T) {
	all := []Invoice{
		invoice(t, "1", "Acme", "2024-01-10", StatusPaid, 100),
		invoice(t, "2", "Acme", "2024-02-10", StatusUnpaid, 300),
		invoice(t, "3", "Acme", "2024-03-15", StatusUnpaid, 250),
		invoice(t, "4", "Acme", "2024-03-15", StatusPaid, 999),
		invoice(t, "5", "Acme", "2024-04-01", StatusPaid, 5000),
		invoice(t, "6", "Other", "2024-01-01", StatusPaid, 7000),
	}

	f := ExtractFeatures(all[2], all)

	if f.ClientInvoiceCount != 2 {
		t.Errorf("clientInvoiceCount = %v, want 2", f.ClientInvoiceCount)
	}
	if f.ClientTotalRevenue != 400 {
		t.Errorf("clientTotalRevenue = %v, want 400", f.ClientTotalRevenue)
	}
	if f.ClientAverageAmount != 200 {
		t.Errorf("clientAverageAmount = %v, want 200", f.ClientAverageAmount)
	}
	if f.ClientPaymentRate != 0.5 {
		t.Errorf("clientPaymentRate = %v, want 0.5", f.ClientPaymentRate)
	}
	if f.AmountPercentileForClient != 50 {
		t.Errorf("amountPercentileForClient = %v, want 50", f.AmountPercentileForClient)
	}
}

func TestExtractFeatures_InvoiceAndTemporalFeatures(t *testing.T) {
	inv := invoice(t, "1", "Acme", "2024-03-15", StatusUnpaid, 1150)
	inv.LineItems = append(inv.LineItems, LineItem{Description: "Travel", Amount: 0})

	f := ExtractFeatures(inv, []Invoice{inv})

	if f.Amount != 1150 {
		t.Errorf("amount = %v", f.Amount)
	}
	if math.Abs(f.AmountLog-math.Log(1151)) > 1e-12 {
		t.Errorf("amountLog = %v", f.AmountLog)
	}
	if f.LineItemCount != 2 || f.HasVAT != 1 {
		t.Errorf("lineItemCount=%v hasVat=%v", f.LineItemCount, f.HasVAT)
	}
	if f.MonthOfYear != 3 || f.DayOfWeek != 5 || f.QuarterOfYear != 1 {
		t.Errorf("month=%v weekday=%v quarter=%v", f.MonthOfYear, f.DayOfWeek, f.QuarterOfYear)
	}
}

func TestExtractFeatures_EmptyHistoryDefaults(t *testing.T) {
	inv := invoice(t, "1", "Solo", "2024-11-02", StatusUnpaid, 0)
	inv.VAT = 0

	f := ExtractFeatures(inv, []Invoice{inv})

	if f.AmountLog != 0 {
		t.Errorf("amountLog of zero amount = %v, want 0", f.AmountLog)
	}
	if f.HasVAT != 0 {
		t.Errorf("hasVat = %v, want 0", f.HasVAT)
	}
	if f.ClientInvoiceCount != 0 || f.ClientAverageAmount != 0 || f.ClientPaymentRate != 0 {
		t.Errorf("expected zero client aggregates, got %+v", f)
	}
	if f.AmountPercentileForClient != 50 {
		t.Errorf("percentile = %v, want 50", f.AmountPercentileForClient)
	}
	if f.QuarterOfYear != 4 {
		t.Errorf("quarter = %v, want 4", f.QuarterOfYear)
	}
}

func TestPercentileOf(t *testing.T) {
	sorted := []float64{100, 200, 300, 400}
	cases := []struct {
		value float64
		want  float64
	}{
		{50, 0},
		{100, 0},
		{250, 50},
		{400, 75},
		{500, 100},
	}
	for _, tc := range cases {
		if got := percentileOf(sorted, tc.value); got != tc.want {
			t.Errorf("percentileOf(%v) = %v, want %v", tc.value, got, tc.want)
		}
	}
	if got := percentileOf(nil, 10); got != 50 {
		t.Errorf("empty history percentile = %v, want 50", got)
	}
}

func TestPaymentVelocity(t *testing.T) {
	paidLate := invoice(t, "2", "Acme", "2024-02-01", StatusPaid, 100)
	paidOn := date(t, "2024-02-11")
	paidLate.PaidDate = &paidOn

	all := []Invoice{
		invoice(t, "1", "Acme", "2024-01-01", StatusPaid, 100),
		paidLate,
		invoice(t, "3", "Acme", "2024-03-01", StatusUnpaid, 100),
	}

	if got := PaymentVelocity(all, "Acme"); got != 20 {
		t.Errorf("velocity = %v, want 20", got)
	}
	if got := PaymentVelocity(all, "Nobody"); got != 0 {
		t.Errorf("velocity without paid invoices = %v, want 0", got)
	}
}

func TestFeatureBoundsAndNormalization(t *testing.T) {
	vectors := []map[string]float64{
		{"amount": 100, "flag": 1},
		{"amount": 300, "flag": 1},
		{"amount": math.NaN(), "flag": 1},
	}
	bounds := CalculateFeatureBounds(vectors)

	if b := bounds["amount"]; b.Min != 100 || b.Max != 300 {
		t.Fatalf("amount bounds = %+v", b)
	}

	got := NormalizeFeatures(map[string]float64{"amount": 200, "flag": 1, "extra": 42}, bounds)
	if got["amount"] != 0.5 {
		t.Errorf("normalized amount = %v, want 0.5", got["amount"])
	}
	if got["flag"] != 0 {
		t.Errorf("constant feature normalizes to %v, want 0", got["flag"])
	}
	if got["extra"] != 42 {
		t.Errorf("unbounded feature = %v, want passthrough", got["extra"])
	}
}
