package regression

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Denno-Labs/Logistria/internal/core"
	"github.com/Denno-Labs/Logistria/internal/resilience"
)

// Client scores suppliers against a remote regression service and falls back
// to the local baseline when the service is unconfigured, unreachable or the
// circuit is open. Ranking must keep working through scoring outages.
type Client struct {
	baseURL  string
	http     *http.Client
	retry    resilience.RetryConfig
	breaker  *gobreaker.CircuitBreaker
	fallback Baseline
	logger   *slog.Logger
}

// NewClient builds a scorer for the given service URL. An empty baseURL
// yields a scorer that always uses the baseline.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		retry:   resilience.DefaultRetryConfig(),
		breaker: resilience.NewBreaker("regression-scorer", logger),
		logger:  logger,
	}
}

type scoreRequest struct {
	Features []core.SupplierFeatures `json:"features"`
}

type scoreResponse struct {
	Predictions []core.ScorePrediction `json:"predictions"`
}

// Score implements core.RegressionScorer.
func (c *Client) Score(ctx context.Context, features []core.SupplierFeatures) ([]core.ScorePrediction, error) {
	if c.baseURL == "" {
		return c.fallback.Score(ctx, features)
	}

	predictions, err := c.scoreRemote(ctx, features)
	if err != nil {
		c.logger.Warn("remote scoring unavailable, using baseline scorer", "error", err)
		return c.fallback.Score(ctx, features)
	}
	return predictions, nil
}

func (c *Client) scoreRemote(ctx context.Context, features []core.SupplierFeatures) ([]core.ScorePrediction, error) {
	body, err := json.Marshal(scoreRequest{Features: features})
	if err != nil {
		return nil, fmt.Errorf("marshal score request: %w", err)
	}

	var predictions []core.ScorePrediction
	err = resilience.Do(ctx, c.retry, c.logger, "regression score", func(ctx context.Context) error {
		result, err := c.breaker.Execute(func() (any, error) {
			return c.post(ctx, body)
		})
		if err != nil {
			return err
		}
		predictions = result.([]core.ScorePrediction)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(predictions) != len(features) {
		return nil, fmt.Errorf("scoring service returned %d predictions for %d suppliers",
			len(predictions), len(features))
	}
	return predictions, nil
}

func (c *Client) post(ctx context.Context, body []byte) ([]core.ScorePrediction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/score", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call scoring service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("scoring service returned %d: %s", resp.StatusCode, payload)
	}

	var parsed scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode score response: %w", err)
	}
	return parsed.Predictions, nil
}
