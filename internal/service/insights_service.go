package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invoicer/internal/analytics"
	"invoicer/internal/metrics"
	"invoicer/internal/model"
	"invoicer/internal/repository"
	"invoicer/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PaymentPredictionsResponse carries the predictions with the training outcome they depend on
type PaymentPredictionsResponse struct {
	Predictions []analytics.InvoicePrediction `json:"predictions"`
	Training    analytics.TrainResult         `json:"training"`
}

// InsightsService runs the analytics engine over the current invoice snapshot.
// Every call reloads the invoices and recomputes from scratch.
type InsightsService interface {
	PaymentPredictions(ctx context.Context) (PaymentPredictionsResponse, error)
	ClientRiskScores(ctx context.Context) ([]analytics.RiskScore, error)
	DetectAnomalies(ctx context.Context) (analytics.AnomalyReport, error)
	SegmentClients(ctx context.Context) (analytics.SegmentationResult, error)
	PredictSingle(ctx context.Context, invoiceID string) (analytics.SingleInsight, error)
	Summary(ctx context.Context) (analytics.InsightsSummary, error)
}

type insightsService struct {
	invoiceRepo repository.InvoiceRepository
	engine      *analytics.Engine
}

func NewInsightsService(invoiceRepo repository.InvoiceRepository, engine *analytics.Engine) InsightsService {
	return &insightsService{invoiceRepo: invoiceRepo, engine: engine}
}

func (s *insightsService) snapshot(ctx context.Context) ([]analytics.Invoice, error) {
	rows, err := s.invoiceRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}
	return ToAnalyticsInvoices(rows), nil
}

func (s *insightsService) PaymentPredictions(ctx context.Context) (PaymentPredictionsResponse, error) {
	invoices, err := s.snapshot(ctx)
	if err != nil {
		return PaymentPredictionsResponse{}, err
	}

	defer metrics.ObserveComputation("payment_predictions", time.Now())
	predictions, training := s.engine.PaymentPredictions(invoices)
	recordTraining(training)

	return PaymentPredictionsResponse{Predictions: predictions, Training: training}, nil
}

func (s *insightsService) ClientRiskScores(ctx context.Context) ([]analytics.RiskScore, error) {
	invoices, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	defer metrics.ObserveComputation("risk_scores", time.Now())
	return s.engine.RiskScores(invoices), nil
}

func (s *insightsService) DetectAnomalies(ctx context.Context) (analytics.AnomalyReport, error) {
	invoices, err := s.snapshot(ctx)
	if err != nil {
		return analytics.AnomalyReport{}, err
	}

	defer metrics.ObserveComputation("anomalies", time.Now())
	report := s.engine.Anomalies(invoices)
	recordAnomalies(report.Summary)
	return report, nil
}

func (s *insightsService) SegmentClients(ctx context.Context) (analytics.SegmentationResult, error) {
	invoices, err := s.snapshot(ctx)
	if err != nil {
		return analytics.SegmentationResult{}, err
	}

	defer metrics.ObserveComputation("segmentation", time.Now())
	return s.engine.Segments(invoices), nil
}

func (s *insightsService) PredictSingle(ctx context.Context, invoiceID string) (analytics.SingleInsight, error) {
	id, err := uuid.Parse(invoiceID)
	if err != nil {
		return analytics.SingleInsight{}, fmt.Errorf("%w: malformed id %q", ErrInvoiceNotFound, invoiceID)
	}
	target, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return analytics.SingleInsight{}, ErrInvoiceNotFound
		}
		return analytics.SingleInsight{}, fmt.Errorf("failed to load invoice: %w", err)
	}

	invoices, err := s.snapshot(ctx)
	if err != nil {
		return analytics.SingleInsight{}, err
	}

	defer metrics.ObserveComputation("predict_single", time.Now())
	insight := s.engine.PredictSingle(toAnalyticsInvoice(*target), invoices)
	recordTraining(insight.Training)
	return insight, nil
}

func (s *insightsService) Summary(ctx context.Context) (analytics.InsightsSummary, error) {
	invoices, err := s.snapshot(ctx)
	if err != nil {
		return analytics.InsightsSummary{}, err
	}

	defer metrics.ObserveComputation("summary", time.Now())
	summary := s.engine.Summary(invoices)
	recordTraining(summary.Training)
	recordAnomalies(summary.AnomalySummary)

	logger.Info("Insights summary computed",
		zap.Int("invoices", summary.Summary.TotalInvoices),
		zap.Int("unpaid", summary.Summary.UnpaidInvoices),
		zap.Int("high_risk_clients", summary.Summary.HighRiskClients),
		zap.Int("anomalies", summary.Summary.TotalAnomalies),
		zap.Bool("model_trained", summary.Summary.ModelTrained),
	)
	return summary, nil
}

func recordTraining(training analytics.TrainResult) {
	metrics.RecordTraining(training.Success)
	if !training.Success {
		logger.Warn("Payment delay model not trained",
			zap.String("reason", training.Message),
			zap.Int("sample_size", training.SampleSize),
		)
		return
	}
	if training.SyntheticLabels > 0 {
		logger.Debug("Payment delay model trained on synthetic labels",
			zap.Int("synthetic", training.SyntheticLabels),
			zap.Int("sample_size", training.SampleSize),
		)
	}
}

func recordAnomalies(summary analytics.AnomalySummary) {
	metrics.SetAnomalies(summary.HighSeverity, summary.MediumSeverity, summary.LowSeverity)
	if summary.TotalAnomalies > 0 {
		logger.Info("Invoice anomalies detected",
			zap.Int("total", summary.TotalAnomalies),
			zap.Int("high", summary.HighSeverity),
		)
	}
}

// ToAnalyticsInvoices converts stored invoices into the engine's snapshot type
func ToAnalyticsInvoices(rows []model.Invoice) []analytics.Invoice {
	out := make([]analytics.Invoice, 0, len(rows))
	for _, row := range rows {
		out = append(out, toAnalyticsInvoice(row))
	}
	return out
}

func toAnalyticsInvoice(row model.Invoice) analytics.Invoice {
	items := make([]analytics.LineItem, 0, len(row.LineItems))
	for _, li := range row.LineItems {
		items = append(items, analytics.LineItem{Description: li.Description, Amount: li.Amount.InexactFloat64()})
	}
	return analytics.Invoice{
		ID:          row.ID.String(),
		Number:      row.InvoiceNumber,
		ClientName:  row.ClientName,
		InvoiceDate: civilDate(row.InvoiceDate),
		DueDate:     civilDatePtr(row.DueDate),
		PaidDate:    civilDatePtr(row.PaidDate),
		Status:      row.Status,
		LineItems:   items,
		Subtotal:    row.Subtotal.InexactFloat64(),
		VAT:         row.VAT.InexactFloat64(),
		Total:       row.Total.InexactFloat64(),
	}
}

func civilDatePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := civilDate(*t)
	return &d
}
