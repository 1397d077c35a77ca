// Package quizclient is the HTTP binding between the session engine and
// the quiz backend. It implements the engine's collaborator interfaces
// against the /api/v1/quiz endpoints, attaching the JWT and the
// per-attempt quiz token to every request.
package quizclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/smartquiz/quizrun-backend/internal/engine"
	"github.com/smartquiz/quizrun-backend/internal/middleware"
)

// QuizTokenHeader aliases the server-side header name so the client and
// the middleware cannot drift apart.
const QuizTokenHeader = middleware.QuizTokenHeader

const defaultTimeout = 10 * time.Second

// Client talks to the quiz backend on behalf of one participant session.
// It satisfies engine.AnswerStore, engine.ViolationReporter, and
// engine.SubmissionService.
type Client struct {
	baseURL   string
	authToken string
	quizToken string
	http      *http.Client
	log       zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log.With().Str("component", "quizclient").Logger() }
}

// New creates a Client for one authenticated session.
func New(baseURL, authToken, quizToken string, opts ...Option) *Client {
	c := &Client{
		baseURL:   baseURL,
		authToken: authToken,
		quizToken: quizToken,
		http:      &http.Client{Timeout: defaultTimeout},
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope matches the server's response wrapper.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SaveAnswers posts the full answer snapshot.
func (c *Client) SaveAnswers(ctx context.Context, answers map[string]string) error {
	body := map[string]interface{}{"answers": answers}
	_, err := c.post(ctx, "/api/v1/quiz/answers", body)
	return err
}

// violationOutcome matches the server's violation verdict payload.
type violationOutcome struct {
	Count      int  `json:"count"`
	Max        int  `json:"max"`
	AutoSubmit bool `json:"auto_submit"`
}

// Report sends a violation and returns the server's auto-submit verdict.
func (c *Client) Report(ctx context.Context, v engine.Violation) (bool, error) {
	body := map[string]string{
		"type":   string(v.Type),
		"device": v.Device,
	}
	data, err := c.post(ctx, "/api/v1/quiz/violations", body)
	if err != nil {
		return false, err
	}

	var outcome violationOutcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		return false, fmt.Errorf("decode violation outcome: %w", err)
	}
	c.log.Debug().Int("count", outcome.Count).Int("max", outcome.Max).Bool("auto_submit", outcome.AutoSubmit).Msg("Violation recorded")
	return outcome.AutoSubmit, nil
}

// submitResult matches the server's submission response payload.
type submitResult struct {
	Score         int    `json:"score"`
	TotalMarks    int    `json:"total_marks"`
	AutoSubmitted bool   `json:"auto_submitted"`
	Redirect      string `json:"redirect"`
}

// Submit posts the final submission and returns the redirect target.
func (c *Client) Submit(ctx context.Context, sub engine.Submission) (string, error) {
	body := map[string]interface{}{
		"answers":        sub.Answers,
		"time_taken":     sub.TimeTaken,
		"auto_submitted": sub.AutoSubmitted,
		"reason":         sub.Reason,
	}
	data, err := c.post(ctx, "/api/v1/quiz/submit", body)
	if err != nil {
		return "", err
	}

	var result submitResult
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("decode submit result: %w", err)
	}
	return result.Redirect, nil
}

// post sends a JSON body and unwraps the response envelope.
func (c *Client) post(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.authToken)
	req.Header.Set(QuizTokenHeader, c.quizToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode response (%d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode >= 400 {
		if env.Error != nil {
			return nil, fmt.Errorf("%s: %s (%d)", env.Error.Code, env.Error.Message, resp.StatusCode)
		}
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return env.Data, nil
}
