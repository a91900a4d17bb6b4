package service

import "context"

// FeatureRow is a single model input row: the ten engineered features
// derived from a candle window, in fixed column order.
type FeatureRow []float64

// Predictor scores a feature row and returns the model probability that
// the next candle closes up.
type Predictor interface {
	PredictUp(ctx context.Context, row FeatureRow) (float64, error)
	Health(ctx context.Context) error
}

// PredictorFunc adapts a plain function to the Predictor interface.
// Useful in tests and for wiring fixed-probability baselines.
type PredictorFunc func(ctx context.Context, row FeatureRow) (float64, error)

func (f PredictorFunc) PredictUp(ctx context.Context, row FeatureRow) (float64, error) {
	return f(ctx, row)
}

func (f PredictorFunc) Health(ctx context.Context) error { return nil }
