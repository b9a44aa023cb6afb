package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"invoicer/internal/analytics"
	"invoicer/internal/service"
)

type stubInsightsService struct {
	err       error
	predicted string
}

func (s *stubInsightsService) PaymentPredictions(context.Context) (service.PaymentPredictionsResponse, error) {
	return service.PaymentPredictionsResponse{
		Predictions: []analytics.InvoicePrediction{{InvoiceID: "u1", Prediction: analytics.Prediction{DelayDays: 12, Confidence: 0.7, RiskLevel: analytics.RiskLow}}},
		Training:    analytics.TrainResult{Success: true, SampleSize: 6},
	}, s.err
}

func (s *stubInsightsService) ClientRiskScores(context.Context) ([]analytics.RiskScore, error) {
	return []analytics.RiskScore{{ClientName: "Acme", Score: 83, Category: analytics.CategoryLow}}, s.err
}

func (s *stubInsightsService) DetectAnomalies(context.Context) (analytics.AnomalyReport, error) {
	return analytics.AnomalyReport{Anomalies: []analytics.Anomaly{}}, s.err
}

func (s *stubInsightsService) SegmentClients(context.Context) (analytics.SegmentationResult, error) {
	return analytics.SegmentationResult{Segments: []analytics.ClientSegment{}, SegmentSummary: []analytics.SegmentSummary{}}, s.err
}

func (s *stubInsightsService) PredictSingle(_ context.Context, invoiceID string) (analytics.SingleInsight, error) {
	s.predicted = invoiceID
	if s.err != nil {
		return analytics.SingleInsight{}, s.err
	}
	return analytics.SingleInsight{Invoice: analytics.Invoice{ID: invoiceID}, Prediction: analytics.DefaultPrediction}, nil
}

func (s *stubInsightsService) Summary(context.Context) (analytics.InsightsSummary, error) {
	return analytics.InsightsSummary{Summary: analytics.SummaryCounts{TotalInvoices: 9, HighRiskClients: 3}}, s.err
}

func TestInsightsRoutes(t *testing.T) {
	r := newRouter(NewInsightsHandler(&stubInsightsService{}).RegisterRoutes)

	for _, path := range []string{
		"/api/ml/payment-predictions",
		"/api/ml/client-risk-scores",
		"/api/ml/anomaly-detection",
		"/api/ml/client-segmentation",
		"/api/ml/insights-summary",
	} {
		w := doJSON(t, r, http.MethodGet, path, nil)
		if w.Code != http.StatusOK {
			t.Errorf("GET %s status = %d", path, w.Code)
		}
	}

	w := doJSON(t, r, http.MethodGet, "/api/ml/payment-predictions", nil)
	var got service.PaymentPredictionsResponse
	decode(t, w, &got)
	if len(got.Predictions) != 1 || got.Predictions[0].DelayDays != 12 || !got.Training.Success {
		t.Errorf("predictions = %+v", got)
	}

	w = doJSON(t, r, http.MethodGet, "/api/ml/insights-summary", nil)
	var summary analytics.InsightsSummary
	decode(t, w, &summary)
	if summary.Summary.TotalInvoices != 9 || summary.Summary.HighRiskClients != 3 {
		t.Errorf("summary = %+v", summary.Summary)
	}
}

func TestPredictSingleHandler(t *testing.T) {
	tests := []struct {
		name string
		body any
		err  error
		want int
	}{
		{"ok", map[string]string{"invoice_id": "abc"}, nil, http.StatusOK},
		{"missing id", map[string]string{}, nil, http.StatusBadRequest},
		{"no body", "", nil, http.StatusBadRequest},
		{"unknown invoice", map[string]string{"invoice_id": "abc"}, service.ErrInvoiceNotFound, http.StatusNotFound},
		{"failure", map[string]string{"invoice_id": "abc"}, errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubInsightsService{err: tt.err}
			r := newRouter(NewInsightsHandler(svc).RegisterRoutes)

			w := doJSON(t, r, http.MethodPost, "/api/ml/predict-single", tt.body)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d; body %s", w.Code, tt.want, w.Body.String())
			}
			if tt.want == http.StatusOK {
				var insight analytics.SingleInsight
				decode(t, w, &insight)
				if insight.Invoice.ID != "abc" || insight.Prediction != analytics.DefaultPrediction {
					t.Errorf("insight = %+v", insight)
				}
			}
			if tt.want == http.StatusBadRequest && svc.predicted != "" {
				t.Error("service called without an invoice id")
			}
		})
	}
}

func TestInsightsHandlerError(t *testing.T) {
	r := newRouter(NewInsightsHandler(&stubInsightsService{err: errors.New("db down")}).RegisterRoutes)

	w := doJSON(t, r, http.MethodGet, "/api/ml/client-risk-scores", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if env := decode(t, w, nil); env.Error != "Internal server error" {
		t.Errorf("error = %q", env.Error)
	}
}
