package utils

import (
	"math"
	"regexp"
	"strings"
	"time"

	models "github.com/phillip/bhandara-tracker-go/models"
)

// IsBhandaraLocked reports whether a bhandara no longer accepts writes.
// Locked iff the lock feature is enabled and the bhandara date
// (day granularity) is strictly before today. Same-day is never locked.
func IsBhandaraLocked(date time.Time, enabled bool) bool {
	if !enabled {
		return false
	}
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, now.Location())
	return day.Before(today)
}

// CanModifyLocked decides whether an actor may edit or delete a record
// carrying the per-record lock flag. Every mutation path goes through
// this; the event-level date lock is checked separately.
func CanModifyLocked(recordLocked bool, role string) bool {
	if !recordLocked {
		return true
	}
	return role == models.RoleSuperAdmin
}

// ValidAmount accepts finite amounts strictly greater than zero.
func ValidAmount(amount float64) bool {
	return amount > 0 && !math.IsInf(amount, 0) && !math.IsNaN(amount)
}

var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

func IsValidObjectID(id string) bool {
	return objectIDPattern.MatchString(id)
}

var whitespacePattern = regexp.MustCompile(`\s+`)

// SanitizeString trims and collapses internal whitespace.
func SanitizeString(s string) string {
	return whitespacePattern.ReplaceAllString(strings.TrimSpace(s), " ")
}
