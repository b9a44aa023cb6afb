package analytics

import (
	"math"
	"time"
)

// Invoice status values as stored; overdue is derived from due date.
const (
	StatusPaid    = "paid"
	StatusUnpaid  = "unpaid"
	StatusPending = "pending"
	StatusOverdue = "overdue"
)

const dateLayout = "2006-01-02"

// LineItem is a single billed line of an invoice
type LineItem struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// Invoice is the read-only snapshot of an invoice the analytics operate on.
// Amounts share one currency unit across a snapshot.
type Invoice struct {
	ID          string     `json:"id"`
	Number      string     `json:"invoice_number"`
	ClientName  string     `json:"client_name"`
	InvoiceDate time.Time  `json:"invoice_date"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	PaidDate    *time.Time `json:"paid_date,omitempty"`
	Status      string     `json:"status"`
	LineItems   []LineItem `json:"line_items"`
	Subtotal    float64    `json:"subtotal"`
	VAT         float64    `json:"vat"`
	Total       float64    `json:"total"`
}

// IsPaid reports whether the invoice has been settled
func (inv Invoice) IsPaid() bool {
	return inv.Status == StatusPaid
}

// EffectiveStatus returns the stored status, or overdue for an unpaid
// invoice whose due date lies before the day of now.
func (inv Invoice) EffectiveStatus(now time.Time) string {
	if inv.Status == StatusUnpaid && inv.DueDate != nil && inv.DueDate.Before(civilDate(now)) {
		return StatusOverdue
	}
	return inv.Status
}

// ParseDate parses a YYYY-MM-DD calendar date as UTC midnight
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// FormatDate renders a calendar date as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween is the absolute distance between two calendar dates, rounded up to whole days
func daysBetween(a, b time.Time) float64 {
	diff := civilDate(b).Sub(civilDate(a))
	if diff < 0 {
		diff = -diff
	}
	return math.Ceil(diff.Hours() / 24)
}

// clientInvoices filters the snapshot to one client, preserving order
func clientInvoices(invoices []Invoice, clientName string) []Invoice {
	var out []Invoice
	for _, inv := range invoices {
		if inv.ClientName == clientName {
			out = append(out, inv)
		}
	}
	return out
}

// distinctClients lists client names in order of first appearance
func distinctClients(invoices []Invoice) []string {
	seen := make(map[string]bool)
	var names []string
	for _, inv := range invoices {
		if !seen[inv.ClientName] {
			seen[inv.ClientName] = true
			names = append(names, inv.ClientName)
		}
	}
	return names
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
