package model

// StatisticsOverview aggregates headline invoice totals
type StatisticsOverview struct {
	TotalRevenue        float64 `json:"total_revenue"`
	TotalInvoices       int     `json:"total_invoices"`
	PaidInvoices        int     `json:"paid_invoices"`
	UnpaidInvoices      int     `json:"unpaid_invoices"`
	OverdueInvoices     int     `json:"overdue_invoices"`
	AverageInvoiceValue float64 `json:"average_invoice_value"`
	PaymentRate         float64 `json:"payment_rate"` // percent
}

// MonthlyRevenue is the paid revenue of one YYYY-MM month
type MonthlyRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

// StatusCount is the number of stored invoices with one status
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// ClientPerformance summarises the invoicing history of one client
type ClientPerformance struct {
	ClientName      string  `json:"client_name"`
	ClientRegNumber string  `json:"client_reg_number"`
	ClientVATNumber string  `json:"client_vat_number"`
	TotalAmount     float64 `json:"total_amount"`
	InvoiceCount    int     `json:"invoice_count"`
	PaidAmount      float64 `json:"paid_amount"`
	PaidCount       int     `json:"paid_count"`
	AverageInvoice  float64 `json:"average_invoice"`
	PaymentRate     float64 `json:"payment_rate"` // percent
	LastInvoiceDate string  `json:"last_invoice_date"`
}

// AmountBucket counts invoices whose total falls in [Min, Max)
type AmountBucket struct {
	Range string  `json:"range"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max,omitempty"` // 0 means unbounded
	Count int     `json:"count"`
}
