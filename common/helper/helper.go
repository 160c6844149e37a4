package helper

import (
	"github.com/songquanpeng/prompt-studio/common/random"
)

// RequestIdKey is both the gin context key and the response header carrying the request id.
const RequestIdKey = "X-Prompt-Studio-Request-Id"

func GenRequestID() string {
	return GetTimeString() + random.GetRandomString(8)
}

// Snippet shortens b to at most n bytes for log fields and error messages.
func Snippet(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// MessageWithRequestId appends the request id so users can quote it when reporting failures.
func MessageWithRequestId(message string, id string) string {
	if id == "" {
		return message
	}
	return message + " (request id: " + id + ")"
}
