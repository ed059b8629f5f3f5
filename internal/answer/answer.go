// Package answer submits finalized queries to the remote answering endpoint.
package answer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyQuery rejects submissions whose trimmed query is empty.
	ErrEmptyQuery = errors.New("query is empty")
	// ErrUnreachable matches *UnreachableError.
	ErrUnreachable = errors.New("answering endpoint unreachable")
)

// StatusError is the application-level failure marker in a response body.
const StatusError = "error"

// Answer is one successful submission result.
type Answer struct {
	Text      string `json:"text"`
	Source    string `json:"source,omitempty"`
	Section   string `json:"section,omitempty"`
	Context   string `json:"context,omitempty"`
	Status    string `json:"status,omitempty"`
	Malformed bool   `json:"malformed,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ApplicationError reports whether the service answered with status "error".
func (a Answer) ApplicationError() bool {
	return strings.EqualFold(strings.TrimSpace(a.Status), StatusError)
}

// UnreachableError is returned after every attempt failed.
type UnreachableError struct {
	Attempts int
	Cause    error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("answering endpoint unreachable after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *UnreachableError) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is(err, ErrUnreachable) match.
func (e *UnreachableError) Is(target error) bool {
	return target == ErrUnreachable
}

// IsUnreachable reports whether err is an exhausted submission.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

// parseAnswer decodes a response body. Only invalid JSON is an error. Any
// valid body without a non-empty string "answer" yields Malformed.
func parseAnswer(body []byte) (Answer, error) {
	if !json.Valid(body) {
		return Answer{}, errors.New("decode response: body is not valid JSON")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return Answer{Malformed: true}, nil
	}

	var out Answer
	text, ok := stringField(fields, "answer")
	out.Text = text
	out.Malformed = !ok || strings.TrimSpace(text) == ""
	out.Source, _ = stringField(fields, "source")
	if section, ok := stringField(fields, "seccion"); ok {
		out.Section = section
	} else {
		out.Section, _ = stringField(fields, "section")
	}
	out.Context, _ = stringField(fields, "context")
	out.Status, _ = stringField(fields, "status")

	if out.ApplicationError() && out.Text == "" {
		for _, key := range []string{"error", "message", "detail"} {
			if msg, ok := stringField(fields, key); ok && msg != "" {
				out.Text = msg
				break
			}
		}
	}
	return out, nil
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false
	}
	return value, true
}
