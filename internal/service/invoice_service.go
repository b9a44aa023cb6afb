package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"invoicer/internal/model"
	"invoicer/internal/repository"
	ws "invoicer/internal/websocket"
	"invoicer/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrInvalidInvoice  = errors.New("invalid invoice")
)

// EventPublisher pushes change notifications to connected clients
type EventPublisher interface {
	Publish(eventType string, data any)
}

// --- DTOs ---

type LineItemRequest struct {
	Description string          `json:"description" binding:"required"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"number"`
}

type CreateInvoiceRequest struct {
	InvoiceNumber   string             `json:"invoice_number"` // generated when empty
	InvoiceDate     string             `json:"invoice_date" binding:"required"`
	DueDate         string             `json:"due_date"`
	PaidDate        string             `json:"paid_date"`
	ClientName      string             `json:"client_name" binding:"required"`
	ClientRegNumber string             `json:"client_reg_number"`
	ClientVATNumber string             `json:"client_vat_number"`
	LineItems       []LineItemRequest  `json:"line_items" binding:"required,min=1,dive"`
	BankDetails     *model.BankDetails `json:"bank_details"`
	IncludeVAT      *bool              `json:"include_vat"` // defaults to true
	Status          string             `json:"status" binding:"omitempty,oneof=paid unpaid pending"`
}

// UpdateInvoiceRequest is a partial update; nil fields are left unchanged
type UpdateInvoiceRequest struct {
	InvoiceDate     *string            `json:"invoice_date"`
	DueDate         *string            `json:"due_date"` // "" clears the due date
	PaidDate        *string            `json:"paid_date"`
	ClientName      *string            `json:"client_name"`
	ClientRegNumber *string            `json:"client_reg_number"`
	ClientVATNumber *string            `json:"client_vat_number"`
	LineItems       []LineItemRequest  `json:"line_items" binding:"omitempty,min=1,dive"`
	BankDetails     *model.BankDetails `json:"bank_details"`
	IncludeVAT      *bool              `json:"include_vat"`
	Status          *string            `json:"status" binding:"omitempty,oneof=paid unpaid pending"`
}

type InvoiceFilter struct {
	Status     string // paid, unpaid, pending, overdue or empty for all
	ClientName string
	Page       int
	Limit      int
}

type LineItemResponse struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

type InvoiceResponse struct {
	ID              string             `json:"id"`
	InvoiceNumber   string             `json:"invoice_number"`
	InvoiceDate     string             `json:"invoice_date"`
	DueDate         *string            `json:"due_date"`
	PaidDate        *string            `json:"paid_date"`
	ClientName      string             `json:"client_name"`
	ClientRegNumber string             `json:"client_reg_number"`
	ClientVATNumber string             `json:"client_vat_number"`
	LineItems       []LineItemResponse `json:"line_items"`
	BankDetails     *model.BankDetails `json:"bank_details"`
	Subtotal        string             `json:"subtotal"`
	VAT             string             `json:"vat"`
	Total           string             `json:"total"`
	Status          string             `json:"status"`
	EffectiveStatus string             `json:"effective_status"` // overdue when unpaid past the due date
	CreatedAt       string             `json:"created_at"`
}

// --- Interface ---

type InvoiceService interface {
	CreateInvoice(ctx context.Context, userID string, req CreateInvoiceRequest) (InvoiceResponse, error)
	GetInvoice(ctx context.Context, id string) (InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]InvoiceResponse, int64, error)
	UpdateInvoice(ctx context.Context, userID, id string, req UpdateInvoiceRequest) (InvoiceResponse, error)
	DeleteInvoice(ctx context.Context, userID, id string) error
	ExportCSV(ctx context.Context, w io.Writer) error
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	events      EventPublisher
	vatRate     decimal.Decimal
	now         func() time.Time
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	events EventPublisher,
	vatRate float64,
) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		events:      events,
		vatRate:     decimal.NewFromFloat(vatRate),
		now:         time.Now,
	}
}

// --- Implementation ---

func (s *invoiceService) CreateInvoice(ctx context.Context, userID string, req CreateInvoiceRequest) (InvoiceResponse, error) {
	invoiceDate, err := parseDate("invoice_date", req.InvoiceDate)
	if err != nil {
		return InvoiceResponse{}, err
	}
	dueDate, err := parseOptionalDate("due_date", req.DueDate)
	if err != nil {
		return InvoiceResponse{}, err
	}
	paidDate, err := parseOptionalDate("paid_date", req.PaidDate)
	if err != nil {
		return InvoiceResponse{}, err
	}

	status := req.Status
	if status == "" {
		status = model.InvoiceStatusUnpaid
	}
	if status != model.InvoiceStatusPaid {
		paidDate = nil
	}
	if paidDate != nil && paidDate.Before(invoiceDate) {
		return InvoiceResponse{}, fmt.Errorf("%w: paid_date is before invoice_date", ErrInvalidInvoice)
	}

	invoice := model.Invoice{
		InvoiceNumber:   req.InvoiceNumber,
		InvoiceDate:     invoiceDate,
		DueDate:         dueDate,
		PaidDate:        paidDate,
		ClientName:      req.ClientName,
		ClientRegNumber: req.ClientRegNumber,
		ClientVATNumber: req.ClientVATNumber,
		Status:          status,
		CreatedBy:       parseUserID(userID),
	}
	if req.BankDetails != nil {
		bank := datatypesBank(*req.BankDetails)
		invoice.BankDetails = &bank
	}
	if err := s.applyLineItems(&invoice, req.LineItems, includeVAT(req.IncludeVAT)); err != nil {
		return InvoiceResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if invoice.InvoiceNumber == "" {
			number, genErr := s.generateInvoiceNumber(txCtx)
			if genErr != nil {
				return fmt.Errorf("failed to generate invoice number: %w", genErr)
			}
			invoice.InvoiceNumber = number
		}

		if createErr := s.invoiceRepo.Create(txCtx, &invoice); createErr != nil {
			return fmt.Errorf("failed to create invoice: %w", createErr)
		}
		return s.audit(txCtx, userID, model.ActionCreateInvoice, &invoice, req)
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	logger.Info("Invoice created",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("client", invoice.ClientName),
		zap.String("total", invoice.Total.StringFixed(2)),
	)
	resp := s.toInvoiceResponse(invoice)
	s.publish(ws.EventInvoiceCreated, resp)
	return resp, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (InvoiceResponse, error) {
	invoice, err := s.find(ctx, id)
	if err != nil {
		return InvoiceResponse{}, err
	}
	return s.toInvoiceResponse(*invoice), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]InvoiceResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	invoices, total, err := s.invoiceRepo.List(ctx, repository.InvoiceListFilter{
		Status:     filter.Status,
		ClientName: filter.ClientName,
		Page:       filter.Page,
		Limit:      filter.Limit,
		Today:      civilDate(s.now()),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch invoices: %w", err)
	}

	result := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		result = append(result, s.toInvoiceResponse(inv))
	}
	return result, total, nil
}

func (s *invoiceService) UpdateInvoice(ctx context.Context, userID, id string, req UpdateInvoiceRequest) (InvoiceResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("%w: malformed id %q", ErrInvoiceNotFound, id)
	}

	var invoice *model.Invoice
	var becamePaid bool
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		invoice, findErr = s.invoiceRepo.FindByID(txCtx, invoiceID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return ErrInvoiceNotFound
			}
			return fmt.Errorf("failed to load invoice: %w", findErr)
		}

		wasPaid := invoice.Status == model.InvoiceStatusPaid
		if applyErr := s.applyUpdate(invoice, req); applyErr != nil {
			return applyErr
		}
		becamePaid = !wasPaid && invoice.Status == model.InvoiceStatusPaid

		if updateErr := s.invoiceRepo.Update(txCtx, invoice); updateErr != nil {
			return fmt.Errorf("failed to update invoice: %w", updateErr)
		}

		action := model.ActionUpdateInvoice
		if becamePaid {
			action = model.ActionMarkPaid
		}
		return s.audit(txCtx, userID, action, invoice, req)
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	resp := s.toInvoiceResponse(*invoice)
	if becamePaid {
		s.publish(ws.EventInvoicePaid, resp)
	} else {
		s.publish(ws.EventInvoiceUpdated, resp)
	}
	return resp, nil
}

func (s *invoiceService) DeleteInvoice(ctx context.Context, userID, id string) error {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: malformed id %q", ErrInvoiceNotFound, id)
	}

	var invoice *model.Invoice
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		invoice, findErr = s.invoiceRepo.FindByID(txCtx, invoiceID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return ErrInvoiceNotFound
			}
			return fmt.Errorf("failed to load invoice: %w", findErr)
		}

		if delErr := s.invoiceRepo.Delete(txCtx, invoiceID); delErr != nil {
			return fmt.Errorf("failed to delete invoice: %w", delErr)
		}
		return s.audit(txCtx, userID, model.ActionDeleteInvoice, invoice, nil)
	})
	if err != nil {
		return err
	}

	s.publish(ws.EventInvoiceDeleted, map[string]string{
		"id":             invoice.ID.String(),
		"invoice_number": invoice.InvoiceNumber,
	})
	return nil
}

var csvHeader = []string{
	"Invoice Number", "Invoice Date", "Due Date", "Paid Date", "Client Name",
	"Client Reg Number", "Client VAT Number", "Subtotal (R)", "VAT (R)", "Total (R)",
	"Status", "Created At", "Line Items",
	"Bank Name", "Account Name", "Account Number", "Sort Code", "IBAN", "Swift Code",
}

// ExportCSV writes every invoice, oldest first, as CSV
func (s *invoiceService) ExportCSV(ctx context.Context, w io.Writer) error {
	invoices, err := s.invoiceRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch invoices: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, inv := range invoices {
		items, err := json.Marshal(inv.LineItems)
		if err != nil {
			return fmt.Errorf("failed to encode line items of %s: %w", inv.InvoiceNumber, err)
		}
		var bank model.BankDetails
		if inv.BankDetails != nil {
			bank = inv.BankDetails.Data()
		}

		record := []string{
			inv.InvoiceNumber,
			inv.InvoiceDate.Format(dateLayout),
			formatOptionalDate(inv.DueDate),
			formatOptionalDate(inv.PaidDate),
			inv.ClientName,
			inv.ClientRegNumber,
			inv.ClientVATNumber,
			inv.Subtotal.StringFixed(2),
			inv.VAT.StringFixed(2),
			inv.Total.StringFixed(2),
			effectiveStatus(inv, s.now()),
			inv.CreatedAt.UTC().Format(time.RFC3339),
			string(items),
			bank.BankName, bank.AccountName, bank.AccountNumber, bank.SortCode, bank.IBAN, bank.SwiftCode,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// --- Helpers ---

func (s *invoiceService) find(ctx context.Context, id string) (*model.Invoice, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed id %q", ErrInvoiceNotFound, id)
	}
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	return invoice, nil
}

// applyLineItems replaces the line items and recomputes subtotal, VAT and total
func (s *invoiceService) applyLineItems(invoice *model.Invoice, items []LineItemRequest, withVAT bool) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: at least one line item is required", ErrInvalidInvoice)
	}

	lines := make([]model.LineItem, 0, len(items))
	subtotal := decimal.Zero
	for i, item := range items {
		if item.Description == "" {
			return fmt.Errorf("%w: line item %d has no description", ErrInvalidInvoice, i+1)
		}
		if item.Amount.IsNegative() {
			return fmt.Errorf("%w: line item %d has a negative amount", ErrInvalidInvoice, i+1)
		}
		amount := item.Amount.Round(2)
		lines = append(lines, model.LineItem{Description: item.Description, Amount: amount})
		subtotal = subtotal.Add(amount)
	}

	vat := decimal.Zero
	if withVAT {
		vat = subtotal.Mul(s.vatRate).Round(2)
	}

	invoice.LineItems = lines
	invoice.Subtotal = subtotal
	invoice.VAT = vat
	invoice.Total = subtotal.Add(vat)
	return nil
}

func (s *invoiceService) applyUpdate(invoice *model.Invoice, req UpdateInvoiceRequest) error {
	if req.InvoiceDate != nil {
		d, err := parseDate("invoice_date", *req.InvoiceDate)
		if err != nil {
			return err
		}
		invoice.InvoiceDate = d
	}
	if req.DueDate != nil {
		d, err := parseOptionalDate("due_date", *req.DueDate)
		if err != nil {
			return err
		}
		invoice.DueDate = d
	}
	if req.ClientName != nil {
		if *req.ClientName == "" {
			return fmt.Errorf("%w: client_name cannot be empty", ErrInvalidInvoice)
		}
		invoice.ClientName = *req.ClientName
	}
	if req.ClientRegNumber != nil {
		invoice.ClientRegNumber = *req.ClientRegNumber
	}
	if req.ClientVATNumber != nil {
		invoice.ClientVATNumber = *req.ClientVATNumber
	}
	if req.BankDetails != nil {
		bank := datatypesBank(*req.BankDetails)
		invoice.BankDetails = &bank
	}

	if req.LineItems != nil || req.IncludeVAT != nil {
		items := req.LineItems
		if items == nil {
			for _, li := range invoice.LineItems {
				items = append(items, LineItemRequest{Description: li.Description, Amount: li.Amount})
			}
		}
		withVAT := !invoice.VAT.IsZero() || invoice.Subtotal.IsZero()
		if req.IncludeVAT != nil {
			withVAT = *req.IncludeVAT
		}
		if err := s.applyLineItems(invoice, items, withVAT); err != nil {
			return err
		}
	}

	if req.Status != nil && *req.Status != invoice.Status {
		invoice.Status = *req.Status
		if invoice.Status == model.InvoiceStatusPaid {
			paidOn := civilDate(s.now())
			invoice.PaidDate = &paidOn
		} else {
			invoice.PaidDate = nil
		}
	}
	if req.PaidDate != nil && invoice.Status == model.InvoiceStatusPaid {
		d, err := parseOptionalDate("paid_date", *req.PaidDate)
		if err != nil {
			return err
		}
		invoice.PaidDate = d
	}
	if invoice.PaidDate != nil && invoice.PaidDate.Before(invoice.InvoiceDate) {
		return fmt.Errorf("%w: paid_date is before invoice_date", ErrInvalidInvoice)
	}
	return nil
}

func (s *invoiceService) generateInvoiceNumber(ctx context.Context) (string, error) {
	prefix := "INV-" + s.now().Format("20060102") + "-"

	// Numbers of deleted invoices are not reused, and gaps are never filled.
	seq, err := s.invoiceRepo.MaxSequence(ctx, prefix)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%05d", prefix, seq+1), nil
}

func (s *invoiceService) audit(ctx context.Context, userID, action string, invoice *model.Invoice, payload any) error {
	details := "{}"
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			details = string(b)
		}
	}
	entry := &model.AuditLog{
		UserID:     parseUserID(userID),
		Action:     action,
		EntityID:   invoice.ID.String(),
		EntityName: invoice.InvoiceNumber,
		Details:    details,
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *invoiceService) publish(eventType string, data any) {
	if s.events != nil {
		s.events.Publish(eventType, data)
	}
}

// --- Mapping ---

func (s *invoiceService) toInvoiceResponse(inv model.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:              inv.ID.String(),
		InvoiceNumber:   inv.InvoiceNumber,
		InvoiceDate:     inv.InvoiceDate.Format(dateLayout),
		ClientName:      inv.ClientName,
		ClientRegNumber: inv.ClientRegNumber,
		ClientVATNumber: inv.ClientVATNumber,
		LineItems:       make([]LineItemResponse, 0, len(inv.LineItems)),
		Subtotal:        inv.Subtotal.StringFixed(2),
		VAT:             inv.VAT.StringFixed(2),
		Total:           inv.Total.StringFixed(2),
		Status:          inv.Status,
		EffectiveStatus: effectiveStatus(inv, s.now()),
		CreatedAt:       inv.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, li := range inv.LineItems {
		resp.LineItems = append(resp.LineItems, LineItemResponse{Description: li.Description, Amount: li.Amount.StringFixed(2)})
	}
	if inv.DueDate != nil {
		d := inv.DueDate.Format(dateLayout)
		resp.DueDate = &d
	}
	if inv.PaidDate != nil {
		d := inv.PaidDate.Format(dateLayout)
		resp.PaidDate = &d
	}
	if inv.BankDetails != nil {
		bank := inv.BankDetails.Data()
		resp.BankDetails = &bank
	}
	return resp
}
