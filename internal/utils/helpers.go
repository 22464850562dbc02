// Package utils provides shared helper functions for plugins.
package utils

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"regexp"
	"strings"
)

// EnsureDir ensures a directory exists, creating it if necessary.
func EnsureDir(path string) (string, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", err
	}
	return path, nil
}

// FormatTime renders a duration in seconds as "1d 2h 30m" / "5m 30s" style.
func FormatTime(seconds int64) string {
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, secs)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}

// FormatBytes renders a byte count as a human-readable size ("1.46 MB").
func FormatBytes(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	sizes := []string{"B", "KB", "MB", "GB", "TB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizes) {
		i = len(sizes) - 1
	}
	value := float64(bytes) / math.Pow(1024, float64(i))
	return strings.TrimSuffix(fmt.Sprintf("%.2f", value), ".00") + " " + sizes[i]
}

var (
	urlStartRe = regexp.MustCompile(`(?i)^https?://`)
	urlRe      = regexp.MustCompile(`(?i)https?://[^\s]+`)
)

// IsURL reports whether text is a single http(s) URL.
func IsURL(text string) bool {
	return urlStartRe.MatchString(text)
}

// ExtractURLs returns all http(s) URLs found in text.
func ExtractURLs(text string) []string {
	return urlRe.FindAllString(text, -1)
}

const randomChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RandomString generates a random alphanumeric string of the given length.
func RandomString(length int) string {
	if length <= 0 {
		length = 10
	}
	b := make([]byte, length)
	for i := range b {
		b[i] = randomChars[rand.Intn(len(randomChars))]
	}
	return string(b)
}

// PickRandom returns a random element of list, or the zero value for an
// empty list.
func PickRandom[T any](list []T) T {
	var zero T
	if len(list) == 0 {
		return zero
	}
	return list[rand.Intn(len(list))]
}

// Chunk splits a slice into chunks of at most size elements.
func Chunk[T any](list []T, size int) [][]T {
	if size <= 0 {
		return [][]T{list}
	}
	var chunks [][]T
	for i := 0; i < len(list); i += size {
		end := i + size
		if end > len(list) {
			end = len(list)
		}
		chunks = append(chunks, list[i:end])
	}
	return chunks
}
