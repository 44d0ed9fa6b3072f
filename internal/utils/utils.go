package utils

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// GenerateUUID returns a new random UUID string
func GenerateUUID() string {
	return uuid.New().String()
}

// Round2 rounds to 2 decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatDate formats a time.Time as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatTimestamp formats a time.Time as an ISO 8601 timestamp
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
