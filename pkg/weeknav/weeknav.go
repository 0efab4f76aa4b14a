// Package weeknav builds the navigation target behind the leaderboard's
// week selector.
package weeknav

import (
	"fmt"
	"net/url"
	"time"
)

const (
	// Format is the layout of week_start values.
	Format = "2006-01-02"

	WeekPath = "/week"
)

// Path returns the relative URL of the leaderboard filtered to the week
// starting on weekStart. The value is passed through as given, only
// query-escaped.
func Path(weekStart string) string {
	q := url.Values{}
	q.Set("week_start", weekStart)
	return WeekPath + "?" + q.Encode()
}

// Parse validates a week_start value.
func Parse(weekStart string) (time.Time, error) {
	t, err := time.Parse(Format, weekStart)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing week start %q: %w", weekStart, err)
	}
	return t, nil
}

// WeekStart returns the Monday of the week containing t, at midnight in t's
// location.
func WeekStart(t time.Time) time.Time {
	// time.Weekday has Sunday as 0; shift so Monday is 0.
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}
