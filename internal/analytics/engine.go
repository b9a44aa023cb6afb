package analytics

import (
	"math"
	"math/rand/v2"
	"sort"
	"time"
)

const summaryTopN = 5

// Options configure an Engine
type Options struct {
	// Seed fixes the random source of synthetic labels and k-means
	// initialisation; 0 draws a fresh seed per computation.
	Seed uint64
	// Now is the clock used for recency and overdue status
	Now func() time.Time
}

// Engine runs the analytics components over invoice snapshots. It keeps no
// state between calls: every method builds its models from scratch, so an
// Engine is safe for concurrent use.
type Engine struct {
	opts Options
}

// NewEngine returns an Engine with the given options
func NewEngine(opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{opts: opts}
}

// InvoicePrediction pairs a prediction with the invoice it was made for
type InvoicePrediction struct {
	InvoiceID     string  `json:"invoice_id"`
	InvoiceNumber string  `json:"invoice_number"`
	ClientName    string  `json:"client_name"`
	Amount        float64 `json:"amount"`
	Prediction
}

// PaymentPredictions trains a fresh predictor on the snapshot and predicts every unpaid invoice
func (e *Engine) PaymentPredictions(invoices []Invoice) ([]InvoicePrediction, TrainResult) {
	predictor := NewPaymentDelayPredictor(e.rng())
	training := predictor.Train(invoices)

	predictions := []InvoicePrediction{}
	for _, inv := range invoices {
		if inv.Status != StatusUnpaid {
			continue
		}
		predictions = append(predictions, InvoicePrediction{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.Number,
			ClientName:    inv.ClientName,
			Amount:        inv.Total,
			Prediction:    predictor.Predict(inv, invoices),
		})
	}
	return predictions, training
}

// RiskScores scores every distinct client of the snapshot
func (e *Engine) RiskScores(invoices []Invoice) []RiskScore {
	scorer := NewRiskScorer(e.opts.Now)
	scores := []RiskScore{}
	for _, name := range distinctClients(invoices) {
		scores = append(scores, scorer.Score(name, invoices))
	}
	return scores
}

// ClientRisk scores a single client
func (e *Engine) ClientRisk(clientName string, invoices []Invoice) RiskScore {
	return NewRiskScorer(e.opts.Now).Score(clientName, invoices)
}

// Anomalies runs anomaly detection over the snapshot
func (e *Engine) Anomalies(invoices []Invoice) AnomalyReport {
	return DetectAnomalies(invoices)
}

// Segments clusters the clients of the snapshot
func (e *Engine) Segments(invoices []Invoice) SegmentationResult {
	return NewSegmenter(e.rng()).SegmentClients(invoices)
}

// SingleInsight explains the prediction of one invoice
type SingleInsight struct {
	Invoice            Invoice            `json:"invoice"`
	Prediction         Prediction         `json:"prediction"`
	RiskScore          RiskScore          `json:"risk_score"`
	Training           TrainResult        `json:"training"`
	Features           FeatureVector      `json:"features"`
	NormalizedFeatures map[string]float64 `json:"normalized_features"`
}

// PredictSingle trains on the snapshot and explains the prediction for target
func (e *Engine) PredictSingle(target Invoice, invoices []Invoice) SingleInsight {
	predictor := NewPaymentDelayPredictor(e.rng())
	training := predictor.Train(invoices)
	features := ExtractFeatures(target, invoices)

	return SingleInsight{
		Invoice:            target,
		Prediction:         predictor.Predict(target, invoices),
		RiskScore:          e.ClientRisk(target.ClientName, invoices),
		Training:           training,
		Features:           features,
		NormalizedFeatures: NormalizeFeatures(features.Map(), predictor.FeatureBounds()),
	}
}

// SummaryCounts are the headline numbers of the insights dashboard
type SummaryCounts struct {
	TotalInvoices     int     `json:"total_invoices"`
	UnpaidInvoices    int     `json:"unpaid_invoices"`
	OverdueInvoices   int     `json:"overdue_invoices"`
	AvgPredictedDelay int     `json:"avg_predicted_delay"`
	HighRiskClients   int     `json:"high_risk_clients"`
	AtRiskRevenue     float64 `json:"at_risk_revenue"`
	TotalAnomalies    int     `json:"total_anomalies"`
	ClientSegments    int     `json:"client_segments"`
	ModelTrained      bool    `json:"model_trained"`
	SyntheticLabels   int     `json:"synthetic_labels"`
}

// InsightsSummary aggregates every component over one snapshot
type InsightsSummary struct {
	Summary           SummaryCounts       `json:"summary"`
	RecentPredictions []InvoicePrediction `json:"recent_predictions"`
	TopRiskClients    []RiskScore         `json:"top_risk_clients"`
	RecentAnomalies   []Anomaly           `json:"recent_anomalies"`
	Training          TrainResult         `json:"training"`
	AnomalySummary    AnomalySummary      `json:"anomaly_summary"`
}

// Summary trains the predictor once and composes predictions, risk scores,
// anomalies and segments into dashboard figures.
func (e *Engine) Summary(invoices []Invoice) InsightsSummary {
	predictions, training := e.PaymentPredictions(invoices)
	scores := e.RiskScores(invoices)
	anomalies := e.Anomalies(invoices)
	segments := e.Segments(invoices)

	counts := SummaryCounts{
		TotalInvoices:   len(invoices),
		UnpaidInvoices:  len(predictions),
		TotalAnomalies:  anomalies.Summary.TotalAnomalies,
		ClientSegments:  len(segments.SegmentSummary),
		ModelTrained:    training.Success,
		SyntheticLabels: training.SyntheticLabels,
	}

	now := e.opts.Now()
	for _, inv := range invoices {
		if inv.EffectiveStatus(now) == StatusOverdue {
			counts.OverdueInvoices++
		}
	}

	if len(predictions) > 0 {
		var delaySum float64
		for _, p := range predictions {
			delaySum += float64(p.DelayDays)
			if p.RiskLevel == RiskHigh {
				counts.AtRiskRevenue += p.Amount
			}
		}
		counts.AvgPredictedDelay = int(math.Round(delaySum / float64(len(predictions))))
	}

	for _, s := range scores {
		if s.Category == CategoryHigh {
			counts.HighRiskClients++
		}
	}

	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	ranked := append([]Anomaly(nil), anomalies.Anomalies...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	return InsightsSummary{
		Summary:           counts,
		RecentPredictions: firstN(predictions, summaryTopN),
		TopRiskClients:    firstN(scores, summaryTopN),
		RecentAnomalies:   firstN(ranked, summaryTopN),
		Training:          training,
		AnomalySummary:    anomalies.Summary,
	}
}

func (e *Engine) rng() *rand.Rand {
	return newRand(e.opts.Seed)
}

func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		items = items[:n]
	}
	if items == nil {
		return []T{}
	}
	return items
}

// newRand returns a PCG source seeded with seed, or with random state when seed is 0
func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed))
}
