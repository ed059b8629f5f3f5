package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Ander2716/rag-voice-client/internal/version"
)

const (
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = time.Second
	DefaultTimeout        = 30 * time.Second

	backoffMultiplier = 2
	maxBodyBytes      = 4 << 20
	tracerName        = "github.com/Ander2716/rag-voice-client/internal/answer"
)

// Config controls submission transport and retry policy.
type Config struct {
	URL            string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	HTTPClient     *http.Client
}

// Client posts queries to the answering endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
}

type request struct {
	Query string `json:"query"`
}

// New builds a Client. Zero-valued Config fields take the defaults.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	cfg.URL = strings.TrimSpace(cfg.URL)
	if cfg.URL == "" {
		return nil, errors.New("answering endpoint url is empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
	}, nil
}

// newBackOff returns the wait schedule between attempts: InitialBackoff,
// then doubling, without jitter.
func (c *Client) newBackOff() *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     c.cfg.InitialBackoff,
		RandomizationFactor: 0,
		Multiplier:          backoffMultiplier,
		MaxInterval:         c.cfg.InitialBackoff << uint(c.cfg.MaxAttempts),
	}
	b.Reset()
	return b
}

// Submit posts query and returns the parsed answer.
//
// Transport errors, non-2xx statuses, and non-JSON bodies are retried up to
// MaxAttempts times. Exhaustion returns *UnreachableError; cancellation of ctx
// returns the context error.
func (c *Client) Submit(ctx context.Context, query string) (Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Answer{}, ErrEmptyQuery
	}

	requestID := uuid.NewString()
	ctx, span := c.tracer.Start(ctx, "answer.submit", trace.WithAttributes(
		attribute.String("request_id", requestID),
		attribute.Int("query.length", len(query)),
	))
	defer span.End()

	payload, err := json.Marshal(request{Query: query})
	if err != nil {
		return Answer{}, fmt.Errorf("encode request: %w", err)
	}

	attempts := 0
	operation := func() (Answer, error) {
		attempts++
		return c.attempt(ctx, payload, requestID, attempts)
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(uint(c.cfg.MaxAttempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			c.logger.Warn("answer attempt failed",
				"request_id", requestID,
				"attempt", attempts,
				"retry_in_ms", wait.Milliseconds(),
				"error", err.Error(),
			)
		}),
	)
	span.SetAttributes(attribute.Int("attempts", attempts))

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			span.SetStatus(codes.Error, "cancelled")
			return Answer{}, ctxErr
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "unreachable")
		c.logger.Error("answering endpoint unreachable", "request_id", requestID, "attempts", attempts, "error", err.Error())
		return Answer{}, &UnreachableError{Attempts: attempts, Cause: err}
	}

	result.RequestID = requestID
	c.logger.Info("answer received",
		"request_id", requestID,
		"attempts", attempts,
		"malformed", result.Malformed,
		"status", result.Status,
	)
	return result, nil
}

func (c *Client) attempt(ctx context.Context, payload []byte, requestID string, n int) (Answer, error) {
	ctx, span := c.tracer.Start(ctx, "answer.attempt", trace.WithAttributes(attribute.Int("attempt", n)))
	defer span.End()

	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return Answer{}, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Answer{}, backoff.Permanent(ctxErr)
		}
		span.RecordError(err)
		return Answer{}, fmt.Errorf("post query: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Answer{}, backoff.Permanent(ctxErr)
		}
		return Answer{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		span.SetStatus(codes.Error, err.Error())
		return Answer{}, err
	}

	parsed, err := parseAnswer(body)
	if err != nil {
		span.SetStatus(codes.Error, "invalid body")
		return Answer{}, err
	}
	return parsed, nil
}
