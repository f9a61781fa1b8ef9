// Package embedder turns node text into vectors via a configurable HTTP
// embedding endpoint, with bounded retry and outbound rate limiting.
package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/time/rate"

	"github.com/gotn-ai/gotn/internal/gotnerr"
)

// Engine turns text into a fixed-dimension embedding.
type Engine interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// HTTPEngine calls a configurable embedding HTTP endpoint.
type HTTPEngine struct {
	endpoint   string
	dimensions int
	client     *http.Client
	limiter    *rate.Limiter
	backoff    backoffPolicy
}

// Config configures an HTTPEngine.
type Config struct {
	Endpoint        string
	Dimensions      int
	RequestsPerSec  float64
	Burst           int
	Timeout         time.Duration
}

// NewHTTPEngine builds an HTTPEngine from cfg, applying sane defaults for
// zero-valued fields.
func NewHTTPEngine(cfg Config) *HTTPEngine {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSec == 0 {
		cfg.RequestsPerSec = 5
	}
	if cfg.Burst == 0 {
		cfg.Burst = 2
	}
	return &HTTPEngine{
		endpoint:   cfg.Endpoint,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		backoff:    defaultBackoff,
	}
}

func (e *HTTPEngine) Dimensions() int { return e.dimensions }

type embedRequest struct {
	Input string `json:"input"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed normalizes text to NFC, then POSTs it to the configured endpoint.
// A non-200 status other than 429 or 5xx is returned at once as a
// validation error; every other failure (429, 5xx, transport or decode
// error) is retried with exponential backoff, for at most
// backoff.MaxAttempts attempts in all.
func (e *HTTPEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	normalized := norm.NFC.String(text)

	var lastErr error
	for attempt := 0; attempt < e.backoff.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(computeBackoff(e.backoff, attempt)):
			}
		}
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		vec, err := e.doRequest(ctx, normalized)
		if err == nil {
			return vec, nil
		}
		lastErr = err
		if gotnerr.Is(err, gotnerr.KindValidation) {
			return nil, err
		}
	}
	return nil, gotnerr.Wrap(gotnerr.KindBackendUnavail, "embedder exhausted retries", lastErr)
}

func (e *HTTPEngine) doRequest(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Input: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("embedder endpoint returned %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, gotnerr.New(gotnerr.KindValidation, fmt.Sprintf("embedder endpoint %d: %s", resp.StatusCode, string(data)))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Embedding, nil
}
