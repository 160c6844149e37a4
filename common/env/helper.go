package env

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Bool reads a boolean environment variable. Unset or unparsable values fall back to defaultValue.
func Bool(env string, defaultValue bool) bool {
	raw := strings.TrimSpace(os.Getenv(env))
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

// Int reads an integer environment variable. Unset or unparsable values fall back to defaultValue.
func Int(env string, defaultValue int) int {
	raw := strings.TrimSpace(os.Getenv(env))
	if raw == "" {
		return defaultValue
	}
	num, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return num
}

// Float64 reads a float environment variable. Unset or unparsable values fall back to defaultValue.
func Float64(env string, defaultValue float64) float64 {
	raw := strings.TrimSpace(os.Getenv(env))
	if raw == "" {
		return defaultValue
	}
	num, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultValue
	}
	return num
}

// String reads a string environment variable, returning defaultValue when unset or empty.
func String(env string, defaultValue string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return defaultValue
}

// Duration reads a duration environment variable. Both Go duration strings ("90s", "2m")
// and bare integers (interpreted as seconds) are accepted.
func Duration(env string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(env))
	if raw == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return d
}

// Strings reads a comma separated list, dropping blank entries.
func Strings(env string, defaultValue []string) []string {
	raw := strings.TrimSpace(os.Getenv(env))
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
