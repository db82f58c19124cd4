package termemu

import (
	"fmt"
	"time"
)

// FormatDuration formats a duration into a compact human-readable age
// string (e.g. "42s", "3m", "2h", "1d"), used by diagnostic/status output
// like the CLI's session listing.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		secs := int(d.Seconds())
		if secs < 1 {
			secs = 1
		}
		return fmt.Sprintf("%ds", secs)
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}
