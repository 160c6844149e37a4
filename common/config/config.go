package config

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"time"

	"github.com/songquanpeng/prompt-studio/common/env"
)

var (
	// SessionSecretEnvValue keeps the raw SESSION_SECRET input so other packages can warn about placeholder values.
	SessionSecretEnvValue = strings.TrimSpace(env.String("SESSION_SECRET", ""))
	// SessionSecret stores the effective cookie signing secret. Absent secrets are replaced with a random
	// 32-byte token in init(), which invalidates sessions on restart.
	SessionSecret = SessionSecretEnvValue
	// SessionIdleTTL evicts per-session state (dataset, run history) after this long without a request.
	SessionIdleTTL = env.Duration("SESSION_IDLE_TTL", 12*time.Hour)
	// CookieMaxAgeHours controls how long session cookies stay valid.
	CookieMaxAgeHours = env.Int("COOKIE_MAXAGE_HOURS", 168)
	// EnableCookieSecure forces the browser to send session cookies only over HTTPS when set to true.
	EnableCookieSecure = env.Bool("ENABLE_COOKIE_SECURE", false)

	// ServerPort overrides the --port flag when running inside a container.
	ServerPort = strings.TrimSpace(env.String("PORT", ""))
	// GinMode allows forcing Gin into release mode (or other modes) without recompiling.
	GinMode = strings.TrimSpace(env.String("GIN_MODE", ""))
	// CORSAllowedOrigins lists browser origins allowed to call the API. Empty disables CORS handling.
	CORSAllowedOrigins = env.Strings("CORS_ALLOWED_ORIGINS", nil)

	// DebugEnabled toggles verbose structured logging when DEBUG=true.
	DebugEnabled = env.Bool("DEBUG", false)
	// OnlyOneLogFile writes every day into the same file under the log dir.
	OnlyOneLogFile = env.Bool("ONLY_ONE_LOG_FILE", false)

	// ShutdownTimeoutSec bounds how long the server waits for in-flight evaluations on shutdown.
	ShutdownTimeoutSec = env.Int("SHUTDOWN_TIMEOUT", 360)
	// EnablePrometheusMetrics exposes the /metrics endpoint for Prometheus scrapers when true.
	EnablePrometheusMetrics = env.Bool("ENABLE_PROMETHEUS_METRICS", true)

	// CognitoSecretName names the secret holding {pool_id, app_client_id, app_client_secret}.
	// When empty the app runs without user authentication.
	CognitoSecretName = strings.TrimSpace(env.String("COGNITO_SECRET_NAME", ""))

	// AWSRegion is the region used for Bedrock, S3, Secrets Manager and Cognito clients.
	// Empty defers to the SDK default chain (AWS_REGION / shared config).
	AWSRegion = strings.TrimSpace(env.String("AWS_REGION", env.String("AWS_DEFAULT_REGION", "")))
	// AWSAccessKeyID and AWSSecretAccessKey pin static credentials. Leave empty to use the task role.
	AWSAccessKeyID     = strings.TrimSpace(env.String("AWS_ACCESS_KEY_ID", ""))
	AWSSecretAccessKey = strings.TrimSpace(env.String("AWS_SECRET_ACCESS_KEY", ""))
	AWSSessionToken    = strings.TrimSpace(env.String("AWS_SESSION_TOKEN", ""))

	// VendorTimeout bounds each model invocation and each secret lookup.
	VendorTimeout = env.Duration("VENDOR_TIMEOUT", 60*time.Second)
	// VendorMaxAttempts is the total attempts (first call plus retries) for transient vendor failures.
	VendorMaxAttempts = env.Int("VENDOR_MAX_ATTEMPTS", 2)
	// SecretCacheTTL controls how long resolved secrets stay in memory.
	SecretCacheTTL = env.Duration("SECRET_CACHE_TTL", 15*time.Minute)

	// MaxEvalsInMemory caps the per-session run history; the oldest record is evicted beyond it.
	MaxEvalsInMemory = env.Int("MAX_EVALS_IN_MEMORY", 5)
	// DisplayMaxQuestions bounds dataset preview rows and per-run detail samples returned to the UI.
	DisplayMaxQuestions = env.Int("DISPLAY_MAX_QUESTIONS", 10)
	// DefaultRefAnswerField is the dataset field holding reference answers until the user changes it.
	DefaultRefAnswerField = env.String("DEFAULT_REF_ANSWER_FIELD", "answers")
	// DefaultDatasetID names uploaded datasets; it ends up in detail file names.
	DefaultDatasetID = env.String("DEFAULT_DATASET_ID", "squad")
	// DatasetDir is the only local directory the HTTP API reads {"uri"} datasets from. Empty
	// limits the API to uploads and s3:// locations. The CLI is not restricted.
	DatasetDir = strings.TrimSpace(env.String("DATASET_DIR", ""))
	// MaxDatasetSizeMB rejects uploads and remote datasets larger than this.
	MaxDatasetSizeMB = env.Int("MAX_DATASET_SIZE_MB", 64)

	// EvalConcurrency bounds parallel model invocations inside one evaluation run.
	EvalConcurrency = env.Int("EVAL_CONCURRENCY", 4)
	// EvalDefaultNumRecords is used when a run does not specify num_records.
	EvalDefaultNumRecords = env.Int("EVAL_DEFAULT_NUM_RECORDS", 100)
)

func init() {
	if SessionSecret == "" || SessionSecret == "random_string" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			panic("failed to generate session secret: " + err.Error())
		}
		SessionSecret = base64.StdEncoding.EncodeToString(buf)
		return
	}

	// cookie store keys must be 16, 24 or 32 bytes for the encryption half
	switch len(SessionSecret) {
	case 16, 24, 32:
	default:
		sum := sha256.Sum256([]byte(SessionSecret))
		SessionSecret = base64.StdEncoding.EncodeToString(sum[:])
	}
}

// MaxDatasetBytes returns the dataset size limit in bytes.
func MaxDatasetBytes() int64 {
	return int64(MaxDatasetSizeMB) << 20
}
