package predictor

import (
	"context"
	"fmt"

	domsvc "BtcEdge/internal/domain/service"
	"BtcEdge/internal/services/features"
	"BtcEdge/pkg/config"
)

// HTTPPredictor scores feature rows against an external model-serving
// process over HTTP. The model owns its scaler; this client sends raw
// feature values.
type HTTPPredictor struct {
	base    *HTTPServiceBase
	names   []string
	retries int
}

func NewHTTPPredictor(cfg *config.Config, feats features.Params) *HTTPPredictor {
	retries := cfg.Model.Retries
	if retries <= 0 {
		retries = 1
	}
	return &HTTPPredictor{
		base:    NewHTTPServiceBase(cfg),
		names:   feats.Names(),
		retries: retries,
	}
}

type predictReq struct {
	Features map[string]float64 `json:"features"`
}

type predictResp struct {
	ProbaUp float64 `json:"proba_up"`
}

type healthResp struct {
	Status string `json:"status"`
}

func (p *HTTPPredictor) PredictUp(ctx context.Context, row domsvc.FeatureRow) (float64, error) {
	if len(row) != len(p.names) {
		return 0, fmt.Errorf("feature row width %d, want %d", len(row), len(p.names))
	}
	feats := make(map[string]float64, len(p.names))
	for i, name := range p.names {
		feats[name] = row[i]
	}
	var resp predictResp
	if err := p.base.PostJSONWithRetry(ctx, "/predict", predictReq{Features: feats}, &resp, p.retries); err != nil {
		return 0, fmt.Errorf("predict: %w", err)
	}
	return resp.ProbaUp, nil
}

func (p *HTTPPredictor) Health(ctx context.Context) error {
	var resp healthResp
	if err := p.base.GetJSON(ctx, "/health", &resp); err != nil {
		return fmt.Errorf("model health: %w", err)
	}
	if resp.Status != "ok" {
		return fmt.Errorf("model unhealthy: %s", resp.Status)
	}
	return nil
}

var _ domsvc.Predictor = (*HTTPPredictor)(nil)
