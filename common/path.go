package common

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves a leading "~" and $VAR / ${VAR} placeholders. It is applied to the
// --log-dir flag and to local dataset locations so both behave the same way inside the
// container and on a workshop laptop.
func ExpandPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}

	return os.ExpandEnv(path)
}
