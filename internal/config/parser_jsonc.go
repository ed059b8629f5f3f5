package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tailscale/hujson"
)

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	standard, err := standardizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(bytes.NewReader(standard))
	decoder.DisallowUnknownFields()

	var payload filePayload
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, describeDecodeError(standard, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, describeDecodeError(standard, err)
	}

	cfg := base
	warnings, err := payload.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, append(warnings, validatedWarnings...), nil
}

// standardizeJSONC blanks comments and trailing commas. Byte offsets are
// preserved, so decode errors still point into the original file.
func standardizeJSONC(content string) ([]byte, error) {
	standard, err := hujson.Standardize([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("jsonc: %w", err)
	}
	return standard, nil
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra json.RawMessage
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return errors.New("multiple JSON values are not allowed")
	}
	return err
}

// describeDecodeError names the config key and position of a decode failure.
func describeDecodeError(content []byte, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Errorf("%s: %w", position(content, syntaxErr.Offset), err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		where := position(content, typeErr.Offset)
		if typeErr.Field != "" {
			return fmt.Errorf("%s: %s: expected %s, got %s", where, typeErr.Field, typeErr.Type, typeErr.Value)
		}
		return fmt.Errorf("%s: %w", where, err)
	}
	return err
}

func position(content []byte, offset int64) string {
	line, col := offsetToLineCol(content, offset)
	return fmt.Sprintf("line %d column %d", line, col)
}

// offsetToLineCol maps a decoder offset, which points just past the offending
// byte, to a 1-based line and column.
func offsetToLineCol(content []byte, offset int64) (int, int) {
	limit := min(int(offset), len(content)) - 1
	if limit <= 0 {
		return 1, 1
	}
	before := content[:limit]
	line := bytes.Count(before, []byte{'\n'}) + 1
	col := limit - bytes.LastIndexByte(before, '\n')
	return line, col
}
