package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"invoicer/internal/analytics"
	"invoicer/internal/database"
	"invoicer/internal/repository"
	"invoicer/internal/service"

	"github.com/shopspring/decimal"
)

type fileLineItem struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// fileInvoice is the invoice shape the API returns; amounts may be strings or numbers
type fileInvoice struct {
	ID            string          `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	InvoiceDate   string          `json:"invoice_date"`
	DueDate       *string         `json:"due_date"`
	PaidDate      *string         `json:"paid_date"`
	ClientName    string          `json:"client_name"`
	LineItems     []fileLineItem  `json:"line_items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	VAT           decimal.Decimal `json:"vat"`
	Total         decimal.Decimal `json:"total"`
	Status        string          `json:"status"`
}

func (o *options) load(ctx context.Context) ([]analytics.Invoice, error) {
	if o.file != "" {
		f, err := os.Open(o.file)
		if err != nil {
			return nil, fmt.Errorf("failed to open invoice file: %w", err)
		}
		defer f.Close()
		return readInvoices(f)
	}

	db, err := database.NewConnection(database.DSN(o.cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	rows, err := repository.NewInvoiceRepository(db).ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}
	return service.ToAnalyticsInvoices(rows), nil
}

// readInvoices decodes a JSON array of invoices
func readInvoices(r io.Reader) ([]analytics.Invoice, error) {
	var raw []fileInvoice
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode invoices: %w", err)
	}

	invoices := make([]analytics.Invoice, 0, len(raw))
	for i, fi := range raw {
		inv, err := fi.toAnalytics()
		if err != nil {
			return nil, fmt.Errorf("invoice %d (%s): %w", i+1, fi.InvoiceNumber, err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

func (fi fileInvoice) toAnalytics() (analytics.Invoice, error) {
	if fi.ClientName == "" {
		return analytics.Invoice{}, fmt.Errorf("client_name is required")
	}
	issued, err := analytics.ParseDate(fi.InvoiceDate)
	if err != nil {
		return analytics.Invoice{}, fmt.Errorf("invalid invoice_date: %w", err)
	}
	due, err := optionalDate(fi.DueDate)
	if err != nil {
		return analytics.Invoice{}, fmt.Errorf("invalid due_date: %w", err)
	}
	paid, err := optionalDate(fi.PaidDate)
	if err != nil {
		return analytics.Invoice{}, fmt.Errorf("invalid paid_date: %w", err)
	}

	id := fi.ID
	if id == "" {
		id = fi.InvoiceNumber
	}
	status := fi.Status
	if status == "" {
		status = analytics.StatusUnpaid
	}

	items := make([]analytics.LineItem, 0, len(fi.LineItems))
	for _, li := range fi.LineItems {
		items = append(items, analytics.LineItem{Description: li.Description, Amount: li.Amount.InexactFloat64()})
	}

	return analytics.Invoice{
		ID:          id,
		Number:      fi.InvoiceNumber,
		ClientName:  fi.ClientName,
		InvoiceDate: issued,
		DueDate:     due,
		PaidDate:    paid,
		Status:      status,
		LineItems:   items,
		Subtotal:    fi.Subtotal.InexactFloat64(),
		VAT:         fi.VAT.InexactFloat64(),
		Total:       fi.Total.InexactFloat64(),
	}, nil
}

func optionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := analytics.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
