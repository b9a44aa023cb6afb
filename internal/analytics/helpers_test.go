package analytics

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

// invoice builds an invoice whose VAT is exactly the expected rate of its subtotal
func invoice(t *testing.T, id, client, day, status string, total float64) Invoice {
	t.Helper()
	subtotal := total / (1 + ExpectedVATRate)
	return Invoice{
		ID:          id,
		Number:      "INV-" + id,
		ClientName:  client,
		InvoiceDate: date(t, day),
		Status:      status,
		LineItems:   []LineItem{{Description: "Consulting", Amount: subtotal}},
		Subtotal:    subtotal,
		VAT:         subtotal * ExpectedVATRate,
		Total:       total,
	}
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%d", i+1)
	}
	return out
}
