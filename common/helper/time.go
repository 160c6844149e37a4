package helper

import (
	"fmt"
	"time"
)

// GetTimestamp get current timestamp in seconds
func GetTimestamp() int64 {
	return time.Now().Unix()
}

// GetTimeString returns a sortable, high-resolution time string used as a request id prefix.
func GetTimeString() string {
	now := time.Now()
	return fmt.Sprintf("%s%d", now.Format("20060102150405"), now.UnixNano()%1e9)
}

// CalcElapsedTime return the elapsed time in milliseconds (ms)
func CalcElapsedTime(start time.Time) int64 {
	elapsed := time.Since(start)
	ms := elapsed.Milliseconds()
	if ms == 0 && elapsed > 0 {
		// keep sub-millisecond runs visible as 1ms
		return 1
	}
	return ms
}

// FormatDuration renders a run duration with millisecond precision, e.g. "1m2.345s".
func FormatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
