package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"invoicer/internal/model"
	"invoicer/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeInvoiceRepo struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]model.Invoice
	listErr  error
}

func newFakeInvoiceRepo(seed ...model.Invoice) *fakeInvoiceRepo {
	r := &fakeInvoiceRepo{invoices: make(map[uuid.UUID]model.Invoice)}
	for _, inv := range seed {
		if inv.ID == uuid.Nil {
			inv.ID = uuid.New()
		}
		r.invoices[inv.ID] = inv
	}
	return r
}

func (r *fakeInvoiceRepo) Create(_ context.Context, invoice *model.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	invoice.CreatedAt = time.Date(2024, 6, 30, 9, 0, 0, 0, time.UTC)
	r.invoices[invoice.ID] = *invoice
	return nil
}

func (r *fakeInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &inv, nil
}

func (r *fakeInvoiceRepo) List(ctx context.Context, filter repository.InvoiceListFilter) ([]model.Invoice, int64, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	var matched []model.Invoice
	for _, inv := range all {
		if filter.Status != "" && effectiveStatus(inv, filter.Today) != filter.Status {
			continue
		}
		if filter.ClientName != "" && !strings.Contains(strings.ToLower(inv.ClientName), strings.ToLower(filter.ClientName)) {
			continue
		}
		matched = append(matched, inv)
	}
	total := int64(len(matched))
	start := min((filter.Page-1)*filter.Limit, len(matched))
	end := min(start+filter.Limit, len(matched))
	return matched[start:end], total, nil
}

func (r *fakeInvoiceRepo) ListAll(_ context.Context) ([]model.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]model.Invoice, 0, len(r.invoices))
	for _, inv := range r.invoices {
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].InvoiceDate.Equal(out[j].InvoiceDate) {
			return out[i].InvoiceDate.Before(out[j].InvoiceDate)
		}
		return out[i].InvoiceNumber < out[j].InvoiceNumber
	})
	return out, nil
}

func (r *fakeInvoiceRepo) Update(_ context.Context, invoice *model.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invoices[invoice.ID] = *invoice
	return nil
}

func (r *fakeInvoiceRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invoices[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.invoices, id)
	return nil
}

func (r *fakeInvoiceRepo) MaxSequence(_ context.Context, prefix string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var highest int64
	for _, inv := range r.invoices {
		suffix, ok := strings.CutPrefix(inv.InvoiceNumber, prefix)
		if !ok {
			continue
		}
		if n, err := strconv.ParseInt(suffix, 10, 64); err == nil && n > highest {
			highest = n
		}
	}
	return highest, nil
}

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	entry.ID = uuid.New()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, filter repository.AuditFilter) ([]model.AuditLog, int64, error) {
	var matched []model.AuditLog
	for _, e := range r.entries {
		if (filter.EntityID == "" || e.EntityID == filter.EntityID) && (filter.Action == "" || e.Action == filter.Action) {
			matched = append(matched, e)
		}
	}
	start := min(filter.Offset, len(matched))
	end := min(start+filter.Limit, len(matched))
	return matched[start:end], int64(len(matched)), nil
}

func (r *fakeAuditRepo) actions() []string {
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

// fakeTx runs fn directly; the fakes have no rollback
type fakeTx struct{}

func (fakeTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type publishedEvent struct {
	Type string
	Data any
}

type fakePublisher struct {
	events []publishedEvent
}

func (p *fakePublisher) Publish(eventType string, data any) {
	p.events = append(p.events, publishedEvent{Type: eventType, Data: data})
}

type fakeUserRepo struct {
	users map[string]model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	user.ID = uuid.New()
	user.CreatedAt = time.Date(2024, 6, 30, 9, 0, 0, 0, time.UTC)
	r.users[user.Username] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	for _, u := range r.users {
		if u.ID.String() == id {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

type fakeStatsRepo struct {
	months   []model.MonthlyRevenue
	statuses []model.StatusCount
}

func (r *fakeStatsRepo) StatusBreakdown(context.Context) ([]model.StatusCount, error) {
	return r.statuses, nil
}

func (r *fakeStatsRepo) RevenueByMonth(context.Context) ([]model.MonthlyRevenue, error) {
	return r.months, nil
}

func fixedNow() time.Time {
	return time.Date(2024, 6, 30, 15, 4, 5, 0, time.UTC)
}

func day(s string) time.Time {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func dayPtr(s string) *time.Time {
	d := day(s)
	return &d
}
