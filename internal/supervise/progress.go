package supervise

import (
	"regexp"
	"strconv"
)

// progressPattern matches the elapsed-time markers ffmpeg writes on its
// diagnostic stream, e.g. "frame= 120 fps= 30 ... time=00:00:30.00 ...".
var progressPattern = regexp.MustCompile(`time=(\d+):(\d+):(\d+\.\d+)`)

// parseElapsed extracts the elapsed seconds from a diagnostic line. The
// second return value is false when the line carries no time marker.
func parseElapsed(line string) (float64, bool) {
	m := progressPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}

	hours, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0, false
	}

	return float64(hours)*3600 + float64(minutes)*60 + seconds, true
}

// Percent converts elapsed seconds into a completion percentage, clamped
// to [0,100]. A non-positive duration yields Indeterminate.
func Percent(elapsed, duration float64) float64 {
	if duration <= 0 {
		return Indeterminate
	}
	pct := elapsed / duration * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
