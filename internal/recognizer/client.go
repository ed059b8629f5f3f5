// Package recognizer talks to an OpenAI-compatible speech-to-text REST service.
package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Ander2716/rag-voice-client/internal/version"
)

const transcriptionPath = "/v1/audio/transcriptions"

var (
	// ErrNetwork reports that the speech service could not be reached.
	ErrNetwork = errors.New("speech service unreachable")
	// ErrService reports a speech service response that was not a transcript.
	ErrService = errors.New("speech service failed")
)

// Config controls transcription requests.
type Config struct {
	BaseURL               string
	Model                 string
	Language              string
	HealthPath            string
	SampleRate            int
	Channels              int
	Timeout               time.Duration
	DebugResponseSinkJSON io.Writer
}

// Client uploads captured audio and returns recognized text.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// New validates cfg and builds a Client.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, errors.New("speech service url is empty")
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if strings.TrimSpace(cfg.HealthPath) == "" {
		cfg.HealthPath = "/health"
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

// Health checks the configured health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+c.cfg.HealthPath, nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health returned status %d", ErrService, resp.StatusCode)
	}
	return nil
}

// Recognize transcribes PCM audio. An empty string means no speech was found.
func (c *Client) Recognize(ctx context.Context, pcm []byte) (string, error) {
	if len(pcm) == 0 {
		return "", errors.New("empty audio data")
	}

	started := time.Now()
	wavPath, err := c.writeTempWAV(pcm)
	if err != nil {
		return "", err
	}
	defer os.Remove(wavPath)

	body, contentType, err := c.buildForm(wavPath)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+transcriptionPath, body)
	if err != nil {
		return "", fmt.Errorf("build transcription request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: read response: %w", ErrNetwork, err)
	}
	c.writeDebug(raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d: %s", ErrService, resp.StatusCode, snippet(raw))
	}

	var parsed transcriptionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: parse response: %w", ErrService, err)
	}

	c.logger.Debug("transcription completed",
		"latency_ms", time.Since(started).Milliseconds(),
		"bytes", len(pcm),
		"text_length", len(parsed.Text),
	)
	return strings.TrimSpace(parsed.Text), nil
}

func (c *Client) writeTempWAV(pcm []byte) (string, error) {
	path := filepath.Join(os.TempDir(), "ragvoice-"+uuid.NewString()+".wav")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("create temp wav: %w", err)
	}
	if err := WriteWAV(file, pcm, c.cfg.SampleRate, c.cfg.Channels); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close temp wav: %w", err)
	}
	return path, nil
}

func (c *Client) buildForm(wavPath string) (*bytes.Buffer, string, error) {
	audioFile, err := os.Open(wavPath)
	if err != nil {
		return nil, "", fmt.Errorf("open temp wav: %w", err)
	}
	defer audioFile.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, audioFile); err != nil {
		return nil, "", fmt.Errorf("write audio data: %w", err)
	}

	if model := strings.TrimSpace(c.cfg.Model); model != "" {
		_ = writer.WriteField("model", model)
	}
	if language := LanguageParam(c.cfg.Language); language != "" {
		_ = writer.WriteField("language", language)
	}
	_ = writer.WriteField("response_format", "json")

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &body, writer.FormDataContentType(), nil
}

func (c *Client) writeDebug(raw []byte) {
	sink := c.cfg.DebugResponseSinkJSON
	if sink == nil {
		return
	}
	line := bytes.TrimSpace(raw)
	_, _ = sink.Write(append(append([]byte(nil), line...), '\n'))
}

// LanguageParam maps a locale tag like "es-ES" to the ISO-639-1 code "es".
func LanguageParam(locale string) string {
	locale = strings.TrimSpace(locale)
	if i := strings.IndexAny(locale, "-_"); i >= 0 {
		locale = locale[:i]
	}
	return strings.ToLower(locale)
}

func snippet(raw []byte) string {
	const limit = 200
	text := strings.TrimSpace(string(raw))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
