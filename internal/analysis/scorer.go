package analysis

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Detector names produced by the default scoring surface.
const (
	DetectorPump = "pump_prob"
	DetectorRug  = "rug_prob"
)

// Scorer maps a feature vector to named anomaly scores. Lower means more
// anomalous, following isolation-forest score conventions. Implementations
// are stateless from the pipeline's perspective; retries and model
// lifecycle are theirs to manage.
type Scorer interface {
	Score(ctx context.Context, features FeatureVector) (map[string]float64, error)
}

// HTTPScorer scores against a remote model service.
type HTTPScorer struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPScorer creates a scorer client for the given service URL.
func NewHTTPScorer(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPScorer {
	return &HTTPScorer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type scoreRequest struct {
	Features FeatureVector `json:"features"`
}

type scoreResponse struct {
	Scores map[string]float64 `json:"scores"`
}

// Score posts the feature vector to the scoring service.
func (s *HTTPScorer) Score(ctx context.Context, features FeatureVector) (map[string]float64, error) {
	body, err := json.Marshal(scoreRequest{Features: features})
	if err != nil {
		return nil, fmt.Errorf("marshal score request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/score", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("score request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("score request: unexpected status %d", resp.StatusCode)
	}

	var decoded scoreResponse
	err = json.NewDecoder(resp.Body).Decode(&decoded)
	if err != nil {
		return nil, fmt.Errorf("decode score response: %w", err)
	}
	if len(decoded.Scores) == 0 {
		return nil, fmt.Errorf("score response contained no detectors")
	}

	return decoded.Scores, nil
}

// LocalScorer is a deterministic heuristic scorer for dry-run deployments
// and tests, mirroring the detector names of the model service. It scores
// sharp price moves on thin young pairs as anomalous.
type LocalScorer struct{}

// NewLocalScorer creates a heuristic scorer.
func NewLocalScorer() *LocalScorer {
	return &LocalScorer{}
}

// Score computes pump/rug scores from the raw features. Outputs sit in
// [-1, 0], lower meaning more anomalous, matching the remote convention.
func (s *LocalScorer) Score(_ context.Context, features FeatureVector) (map[string]float64, error) {
	if len(features) != FeatureCount {
		return nil, fmt.Errorf("expected %d features, got %d", FeatureCount, len(features))
	}

	liquidity := features[1]
	volume := features[2]
	change := features[3]
	age := features[5]

	// Volume far above liquidity on a young pair smells like a pump;
	// a steep negative move on thin liquidity smells like a rug.
	turnover := 0.0
	if liquidity > 0 {
		turnover = volume / liquidity
	}
	youth := 1.0 / (1.0 + age/24.0)

	pump := -math.Tanh(turnover*youth/10.0) * math.Tanh(math.Max(change, 0)/100.0)
	rug := -math.Tanh(math.Max(-change, 0)/50.0) * youth

	return map[string]float64{
		DetectorPump: pump,
		DetectorRug:  rug,
	}, nil
}
