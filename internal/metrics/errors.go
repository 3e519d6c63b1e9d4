package metrics

import (
	"strings"
	"unicode"
)

var friendlyAliases = map[string]string{
	"timeout":            "Request timeout",
	"dns":                "DNS lookup failed",
	"connection_refused": "Connection refused",
	"connection_reset":   "Connection reset",
	"tls":                "TLS handshake failed",
	"canceled":           "Canceled",
	"protocol":           "Protocol error",
	"other":              "Other transport error",
}

// FriendlyErrorName returns a human-friendly label for a transport error kind.
func FriendlyErrorName(kind string) string {
	cleaned := strings.TrimSpace(kind)
	if cleaned == "" {
		return "Unknown error"
	}
	if alias, ok := friendlyAliases[strings.ToLower(cleaned)]; ok {
		return alias
	}
	return humanizeKind(cleaned)
}

// humanizeKind turns snake_case or kebab-case into a capitalized phrase.
func humanizeKind(kind string) string {
	words := strings.FieldsFunc(kind, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	if len(words) == 0 {
		return kind
	}
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	words[0] = capitalize(words[0])
	return strings.Join(words, " ")
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
