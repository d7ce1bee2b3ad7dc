package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	selfHostedTimeout  = 60 * time.Second
	selfHostedAttempts = 3
	selfHostedBackoff  = 2 * time.Second
)

// SelfHostedProvider talks to a local generation endpoint. Calls are retried
// up to three times with a fixed delay; the delay respects context
// cancellation instead of blocking.
type SelfHostedProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
	backoff    time.Duration
	log        zerolog.Logger
}

func NewSelfHostedProvider(baseURL, model string, log zerolog.Logger) *SelfHostedProvider {
	return &SelfHostedProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: selfHostedTimeout},
		backoff:    selfHostedBackoff,
		log:        log,
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func (p *SelfHostedProvider) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	payload := generateRequest{
		Model:  model,
		Prompt: req.System + "\n\n" + req.Prompt,
		Stream: false,
	}
	if req.JSONMode {
		payload.Format = "json"
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 1; attempt <= selfHostedAttempts; attempt++ {
		result, err := p.attempt(ctx, body)
		if err == nil {
			return result, nil
		}
		lastErr = err
		p.log.Error().Err(err).Int("attempt", attempt).Msg("self-hosted provider call failed")

		if attempt < selfHostedAttempts {
			select {
			case <-time.After(p.backoff):
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
			}
		}
	}

	if errors.Is(lastErr, ErrTimeout) {
		return "", lastErr
	}
	return "", fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (p *SelfHostedProvider) attempt(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		p.log.Error().Int("status", resp.StatusCode).Str("body", string(raw)).Msg("self-hosted provider error")
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", err
	}
	return parsed.Response, nil
}
