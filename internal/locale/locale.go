// Package locale resolves the user-facing message language from the environment.
package locale

import (
	"os"
	"strings"
)

type Tag string

const (
	English Tag = "en"
	Spanish Tag = "es"
)

// FromEnv resolves LC_ALL, LC_MESSAGES, then LANG.
func FromEnv() Tag {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
			return Resolve(raw)
		}
	}
	return English
}

// Resolve maps a POSIX locale string such as "es_ES.UTF-8" to a supported tag.
func Resolve(raw string) Tag {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(raw, "es") {
		return Spanish
	}
	return English
}
