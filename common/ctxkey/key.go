package ctxkey

const (
	// RequestId is the per-request identifier.
	// Set in: middleware.RequestId. Read in: controllers for log fields.
	RequestId = "X-Prompt-Studio-Request-Id"

	// SessionId identifies the caller's isolated state (dataset, run history).
	// Set in: middleware.SessionState from the signed session cookie.
	SessionId = "session_id"

	// Session holds the resolved *model.Session for the request.
	// Set in: middleware.SessionState. Read in: every dataset/evaluation handler.
	Session = "session"

	// Username is the authenticated Cognito user name, empty when auth is disabled.
	// Set in: middleware.UserAuth.
	Username = "username"
)

// Cookie session keys.
const (
	CookieSessionId = "sid"
	CookieUsername  = "username"
)
