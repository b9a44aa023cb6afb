package analytics

import "errors"

var (
	// ErrSampleMismatch is returned when training inputs are empty or of unequal length
	ErrSampleMismatch = errors.New("x and y must have the same non-zero length")
	// ErrZeroVariance is returned when every x is identical and no slope exists
	ErrZeroVariance = errors.New("x values have zero variance")
	// ErrNotTrained is returned by Predict before a successful Train
	ErrNotTrained = errors.New("model must be trained before making predictions")
)

// LinearRegression is an ordinary least squares fit of y on a single predictor x
type LinearRegression struct {
	slope     float64
	intercept float64
	trained   bool
}

// NewLinearRegression returns an untrained model
func NewLinearRegression() *LinearRegression {
	return &LinearRegression{}
}

// Train fits slope and intercept to the sample, replacing any previous fit.
// A failed Train leaves the model untrained.
func (m *LinearRegression) Train(xs, ys []float64) error {
	m.trained = false
	if len(xs) == 0 || len(xs) != len(ys) {
		return ErrSampleMismatch
	}

	n := float64(len(xs))
	var sumX, sumY, sumXY, sumXX float64
	for i, x := range xs {
		sumX += x
		sumY += ys[i]
		sumXY += x * ys[i]
		sumXX += x * x
	}
	meanX := sumX / n
	meanY := sumY / n

	denom := sumXX - n*meanX*meanX
	if denom == 0 {
		return ErrZeroVariance
	}

	m.slope = (sumXY - n*meanX*meanY) / denom
	m.intercept = meanY - m.slope*meanX
	m.trained = true
	return nil
}

// Predict evaluates the fitted line at x
func (m *LinearRegression) Predict(x float64) (float64, error) {
	if !m.trained {
		return 0, ErrNotTrained
	}
	return m.slope*x + m.intercept, nil
}

func (m *LinearRegression) Trained() bool      { return m.trained }
func (m *LinearRegression) Slope() float64     { return m.slope }
func (m *LinearRegression) Intercept() float64 { return m.intercept }
