package pages

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDate is returned for date cells the app rendered as invalid.
var ErrInvalidDate = errors.New("invalid date")

// dateLayouts are the renderings the panel uses for backup timestamps:
// ISO forms from the API and the browser's en-US locale strings.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006, 3:04:05 PM",
	"1/2/2006, 3:04 PM",
	"1/2/2006 3:04:05 PM",
	"1/2/2006",
	"Jan 2, 2006, 3:04:05 PM",
	"Jan 2, 2006, 3:04 PM",
	"Jan 2, 2006 3:04 PM",
	"January 2, 2006 at 3:04 PM",
	"January 2, 2006, 3:04 PM",
	"January 2, 2006",
	"Jan 2, 2006",
	"Mon Jan 2 2006 15:04:05",
	"Mon, 02 Jan 2006 15:04:05",
	"20060102_150405",
}

// ParseDate reads a date cell. Text containing "invalid" in any case is
// rejected with ErrInvalidDate.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(strings.ToLower(s), "invalid") {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	// Date.prototype.toString appends " GMT+0000 (Coordinated Universal Time)"
	if i := strings.Index(s, " GMT"); i > 0 {
		s = s[:i]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// LatestFirst checks that first is not older than second.
func LatestFirst(first, second string) error {
	a, err := ParseDate(first)
	if err != nil {
		return err
	}
	b, err := ParseDate(second)
	if err != nil {
		return err
	}
	if a.Before(b) {
		return fmt.Errorf("backups out of order: %q is older than %q", first, second)
	}
	return nil
}
