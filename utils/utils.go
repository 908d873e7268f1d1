package utils

import (
	"math/rand"
	"os"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9]+`)
	separatorTrimRe   = regexp.MustCompile(`^-+|-+$`)
)

// Slugify derives a URL-safe identifier from a display name: lowercase,
// diacritics stripped, every non-alphanumeric run collapsed into a single
// "-", leading and trailing separators trimmed.
func Slugify(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, strings.ToLower(name))
	if err != nil {
		stripped = strings.ToLower(name)
	}
	slug := nonAlphanumericRe.ReplaceAllString(stripped, "-")
	return separatorTrimRe.ReplaceAllString(slug, "")
}

const alphabet = "abcdefghijklmnopqrstuvwxyz"

// RandomAlphabetString generates a random lowercase string of length N.
func RandomAlphabetString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}

func IsProdEnv() bool {
	return GetEnv() == "prod"
}

func GetEnv() string {
	return EnvOrDefault("RIVALDECK_ENV", "dev")
}

// EnvOrDefault reads an environment variable, falling back to def when the
// variable is unset or empty.
func EnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
