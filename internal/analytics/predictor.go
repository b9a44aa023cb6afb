package analytics

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// MinTrainingSamples is the fewest paid invoices the delay model trains on
const MinTrainingSamples = 5

// Synthetic delay labels are drawn uniformly from [syntheticDelayMin, syntheticDelayMin+syntheticDelaySpan)
const (
	syntheticDelayMin  = 15
	syntheticDelaySpan = 45
)

// Risk levels of a payment prediction
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// TrainResult reports the outcome of PaymentDelayPredictor.Train
type TrainResult struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	SampleSize      int    `json:"sample_size"`
	SyntheticLabels int    `json:"synthetic_labels"`
}

// Prediction is the expected payment delay of one invoice
type Prediction struct {
	DelayDays  int     `json:"delay_days"`
	Confidence float64 `json:"confidence"`
	RiskLevel  string  `json:"risk_level"`
}

// DefaultPrediction is returned while the predictor is untrained
var DefaultPrediction = Prediction{DelayDays: 30, Confidence: 0.5, RiskLevel: RiskMedium}

// PaymentDelayPredictor regresses payment delay on invoice amount.
// Training mutates the instance, so build one per computation.
type PaymentDelayPredictor struct {
	model   *LinearRegression
	bounds  map[string]Bounds
	trained bool
	rng     *rand.Rand
}

// NewPaymentDelayPredictor returns an untrained predictor drawing synthetic labels from rng
func NewPaymentDelayPredictor(rng *rand.Rand) *PaymentDelayPredictor {
	if rng == nil {
		rng = newRand(0)
	}
	return &PaymentDelayPredictor{
		model:  NewLinearRegression(),
		bounds: map[string]Bounds{},
		rng:    rng,
	}
}

// Train fits the model on the paid invoices of the snapshot. Invoices with a
// recorded paid date are labelled with their real delay; the rest get a
// synthetic delay, counted in the result so callers can flag predictions as
// illustrative.
func (p *PaymentDelayPredictor) Train(invoices []Invoice) TrainResult {
	p.trained = false

	var paid []Invoice
	for _, inv := range invoices {
		if inv.IsPaid() {
			paid = append(paid, inv)
		}
	}
	if len(paid) < MinTrainingSamples {
		return TrainResult{
			Message:    "Insufficient paid invoices for training",
			SampleSize: len(paid),
		}
	}

	vectors := make([]map[string]float64, 0, len(paid))
	amounts := make([]float64, 0, len(paid))
	delays := make([]float64, 0, len(paid))
	synthetic := 0
	for _, inv := range paid {
		f := ExtractFeatures(inv, invoices)
		vectors = append(vectors, f.Map())
		amounts = append(amounts, f.Amount)

		if inv.PaidDate != nil {
			delays = append(delays, daysBetween(inv.InvoiceDate, *inv.PaidDate))
		} else {
			delays = append(delays, p.rng.Float64()*syntheticDelaySpan+syntheticDelayMin)
			synthetic++
		}
	}

	p.bounds = CalculateFeatureBounds(vectors)

	if err := p.model.Train(amounts, delays); err != nil {
		return TrainResult{
			Message:         fmt.Sprintf("Training failed: %v", err),
			SampleSize:      len(paid),
			SyntheticLabels: synthetic,
		}
	}

	p.trained = true
	return TrainResult{
		Success:         true,
		Message:         "Model trained successfully",
		SampleSize:      len(paid),
		SyntheticLabels: synthetic,
	}
}

// Predict estimates the payment delay of inv. An untrained predictor returns DefaultPrediction.
func (p *PaymentDelayPredictor) Predict(inv Invoice, all []Invoice) Prediction {
	if !p.trained {
		return DefaultPrediction
	}

	f := ExtractFeatures(inv, all)
	raw, err := p.model.Predict(f.Amount)
	if err != nil {
		return DefaultPrediction
	}
	delay := math.Max(0, raw)

	confidence := 0.7
	if f.ClientInvoiceCount > 0 {
		confidence = math.Min(0.95, 0.5+f.ClientPaymentRate*0.4+f.ClientInvoiceCount*0.01)
	}

	return Prediction{
		DelayDays:  int(math.Round(delay)),
		Confidence: roundTo(confidence, 2),
		RiskLevel:  delayRiskLevel(delay),
	}
}

// Trained reports whether the last Train succeeded
func (p *PaymentDelayPredictor) Trained() bool {
	return p.trained
}

// FeatureBounds returns the per-feature ranges of the last training sample
func (p *PaymentDelayPredictor) FeatureBounds() map[string]Bounds {
	return p.bounds
}

func delayRiskLevel(delay float64) string {
	switch {
	case delay > 45:
		return RiskHigh
	case delay > 30:
		return RiskMedium
	default:
		return RiskLow
	}
}
