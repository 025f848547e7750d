package printer

import (
	"fmt"
	"time"
)

// TimeAgo returns a human-readable relative time string in UTC, e.g.
// "5 seconds ago (UTC)" or "2 hours ago (UTC)".
func TimeAgo(t time.Time) string {
	diff := time.Now().UTC().Sub(t.UTC())
	if diff < 0 {
		return "in the future (UTC)"
	}

	units := []struct {
		d        time.Duration
		singular string
	}{
		{time.Minute, "second"},
		{time.Hour, "minute"},
		{24 * time.Hour, "hour"},
	}

	div := time.Second
	name := "day"
	for _, u := range units {
		if diff < u.d {
			name = u.singular
			break
		}
		div = u.d
	}
	if name == "day" {
		div = 24 * time.Hour
	}

	n := int(diff / div)
	if n == 1 {
		return fmt.Sprintf("1 %s ago (UTC)", name)
	}
	return fmt.Sprintf("%d %ss ago (UTC)", n, name)
}

// FormatTimestamp returns a formatted timestamp string in UTC.
// Format: "2006-01-02 15:04:05 UTC".
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}
