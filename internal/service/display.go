package service

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf16"
)

// AccentCount is the number of avatar accent colors pages cycle through.
const AccentCount = 5

// Initials returns the uppercased initials of the first and last word of
// name, one letter for a single word, or "?" when name is blank.
func Initials(name string) string {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "?"
	case 1:
		return string(unicode.ToUpper(firstRune(parts[0])))
	default:
		return string(unicode.ToUpper(firstRune(parts[0]))) +
			string(unicode.ToUpper(firstRune(parts[len(parts)-1])))
	}
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return '?'
}

// AccentIndex maps name to a stable accent in [0, AccentCount). It hashes
// UTF-16 code units; only the shifted term wraps to 32 bits, the running sum
// does not.
func AccentIndex(name string) int {
	var hash int64
	for _, u := range utf16.Encode([]rune(name)) {
		hash = int64(u) + (int64(int32(hash)<<5) - hash)
	}
	if hash < 0 {
		hash = -hash
	}
	return int(hash % AccentCount)
}

// TimeAgo renders the age of t relative to now in a short form such as
// "5m ago" or "2w ago".
func TimeAgo(t, now time.Time) string {
	seconds := int(now.Sub(t).Seconds())
	if seconds < 60 {
		return "just now"
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm ago", minutes)
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%dh ago", hours)
	}
	days := hours / 24
	if days < 7 {
		return fmt.Sprintf("%dd ago", days)
	}
	if weeks := days / 7; weeks < 5 {
		return fmt.Sprintf("%dw ago", weeks)
	}
	return fmt.Sprintf("%dmo ago", days/30)
}
