// Package oracle is the client for the external research model. The model is
// a black box that receives the matchup context and returns a structured
// judgement; everything here is about calling it safely and decoding its
// output without trusting it.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/XavierBriggs/sharpedge/pkg/models"
)

// maxAttempts is the initial call plus one retry.
const maxAttempts = 2

// Client calls the research service over HTTP.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	retryBackoff time.Duration
}

// NewClient creates a research oracle client. The timeout bounds each
// individual attempt; retryBackoff is the wait before the single retry.
func NewClient(baseURL string, timeout, retryBackoff time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retryBackoff: retryBackoff,
	}
}

// Judge submits the research prompt and returns the parsed judgement. One
// retry with backoff; after that the error surfaces and the caller converts
// it into an AI_ERROR pass.
func (c *Client) Judge(ctx context.Context, req models.JudgementRequest) (models.Judgement, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return models.Judgement{}, ctx.Err()
			case <-time.After(c.retryBackoff):
			}
			fmt.Printf("retrying oracle call for event %s (attempt %d)\n", req.EventID, attempt)
		}

		judgement, err := c.judgeOnce(ctx, req)
		if err == nil {
			return judgement, nil
		}
		lastErr = err
	}

	return models.Judgement{}, fmt.Errorf("oracle call failed after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) judgeOnce(ctx context.Context, req models.JudgementRequest) (models.Judgement, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return models.Judgement{}, fmt.Errorf("failed to marshal judgement request: %w", err)
	}

	url := c.baseURL + "/api/v1/research"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return models.Judgement{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return models.Judgement{}, fmt.Errorf("oracle request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Judgement{}, fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Judgement{}, fmt.Errorf("failed to read oracle response: %w", err)
	}

	return ParseJudgement(data)
}

// judgementWire is the JSON shape the research model is asked to produce.
type judgementWire struct {
	Verdict        string `json:"verdict"`
	FavoredOutcome string `json:"favored_outcome"`
	Findings       string `json:"findings"`
}

// ParseJudgement decodes the oracle's output. The model does not always
// return clean JSON: a strict decode is attempted first, then the outermost
// JSON object is cut out of the surrounding free text and decoded. Anything
// still unparseable is an error; the pipeline maps that to an AI_ERROR pass.
func ParseJudgement(data []byte) (models.Judgement, error) {
	var wire judgementWire

	if err := json.Unmarshal(data, &wire); err != nil || wire.Verdict == "" {
		extracted, ok := extractObject(data)
		if !ok {
			return models.Judgement{}, fmt.Errorf("no JSON object in oracle output")
		}
		if err := json.Unmarshal(extracted, &wire); err != nil {
			return models.Judgement{}, fmt.Errorf("failed to parse oracle output: %w", err)
		}
	}

	verdict, err := normalizeVerdict(wire.Verdict)
	if err != nil {
		return models.Judgement{}, err
	}

	return models.Judgement{
		Verdict:        verdict,
		FavoredOutcome: normalizeOutcome(wire.FavoredOutcome),
		Findings:       strings.TrimSpace(wire.Findings),
	}, nil
}

// extractObject cuts the outermost {...} span out of free text.
func extractObject(data []byte) ([]byte, bool) {
	start := bytes.IndexByte(data, '{')
	end := bytes.LastIndexByte(data, '}')
	if start < 0 || end <= start {
		return nil, false
	}
	return data[start : end+1], true
}

func normalizeVerdict(raw string) (models.Verdict, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "playable", "play", "bet":
		return models.VerdictPlayable, nil
	case "lean":
		return models.VerdictLean, nil
	case "pass", "no bet", "no-bet":
		return models.VerdictPass, nil
	}
	return "", fmt.Errorf("unrecognized oracle verdict %q", raw)
}

// normalizeOutcome maps the oracle's side naming onto a scanned outcome. An
// unknown or absent side means no identifiable edge direction.
func normalizeOutcome(raw string) models.Outcome {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")

	switch models.Outcome(normalized) {
	case models.OutcomeAwaySpread, models.OutcomeHomeSpread,
		models.OutcomeAwayMoneyline, models.OutcomeHomeMoneyline,
		models.OutcomeOver, models.OutcomeUnder:
		return models.Outcome(normalized)
	}

	return models.OutcomeNone
}
