package config

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	structValid  *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		structValid = validator.New(validator.WithRequiredStructEnabled())
		structValid.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.TrimSpace(field.Tag.Get("key"))
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})
	})
	return structValid
}

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if err := structValidator().Struct(cfg); err != nil {
		return nil, describeValidationError(err)
	}

	if strings.TrimSpace(cfg.Output.Clipboard.Raw) != "" && len(cfg.Output.Clipboard.Argv) == 0 {
		return nil, fmt.Errorf("output.clipboard_cmd is configured but empty")
	}

	if cfg.Output.CopyAnswer && len(cfg.Output.Clipboard.Argv) == 0 {
		warnings = append(warnings, Warning{Message: "output.clipboard_cmd is unset; using the system clipboard"})
	}

	return warnings, nil
}

func describeValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	key := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Errorf("%s must not be empty", key)
	case "url":
		return fmt.Errorf("%s must be a valid URL", key)
	case "gte":
		return fmt.Errorf("%s must be >= %s", key, fe.Param())
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", key, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "startswith":
		return fmt.Errorf("%s must start with '%s'", key, fe.Param())
	default:
		return fmt.Errorf("%s failed %q validation", key, fe.Tag())
	}
}

// placeholderLabel is the tunnel host label used by sample configs.
const placeholderLabel = "tu-url-de-cloudflare"

var placeholderHosts = []string{
	"example.com",
	"example.invalid",
	"localhost.invalid",
}

// ErrEndpointNotConfigured reports a missing or placeholder answering endpoint.
var ErrEndpointNotConfigured = errors.New("answering endpoint is not configured")

// ValidateEndpoint checks that raw is a usable answering endpoint URL.
//
// Empty values, well-known placeholders, and non-http(s) URLs are rejected.
func ValidateEndpoint(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: set endpoint.url or RAGVOICE_ENDPOINT_URL", ErrEndpointNotConfigured)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid endpoint.url %q: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid endpoint.url %q: scheme must be http or https", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("invalid endpoint.url %q: missing host", raw)
	}
	if isPlaceholderHost(parsed.Hostname()) {
		return fmt.Errorf("%w: %q is a placeholder", ErrEndpointNotConfigured, raw)
	}
	return nil
}

// isPlaceholderHost matches a placeholder domain or any of its subdomains,
// and hosts whose first label is the sample tunnel name.
func isPlaceholderHost(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if first, _, _ := strings.Cut(host, "."); first == placeholderLabel {
		return true
	}
	for _, placeholder := range placeholderHosts {
		if host == placeholder || strings.HasSuffix(host, "."+placeholder) {
			return true
		}
	}
	return false
}
