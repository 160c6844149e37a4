package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/songquanpeng/prompt-studio/common/client"
	"github.com/songquanpeng/prompt-studio/common/config"
	"github.com/songquanpeng/prompt-studio/common/logger"
	"github.com/songquanpeng/prompt-studio/common/secret"
	"github.com/songquanpeng/prompt-studio/monitor"
	"github.com/songquanpeng/prompt-studio/relay/adaptor"
	"github.com/songquanpeng/prompt-studio/relay/channeltype"
	"github.com/songquanpeng/prompt-studio/relay/meta"
)

var _ adaptor.Runner = new(Runner)

// Runner posts single-turn chat completions.
type Runner struct {
	modelID    string
	url        string
	cfg        *InferenceConfig
	httpClient *http.Client

	store      secret.Store
	secretName string
	keyMu      sync.RWMutex
	apiKey     string
}

// NewRunner resolves the API key from the secret store. A lookup failure aborts construction
// and is returned as *secret.SecretRetrievalError naming the secret.
func NewRunner(ctx context.Context, store secret.Store, modelCfg meta.ModelConfig, cfg *InferenceConfig, httpClient *http.Client) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("openai inference config is nil")
	}
	if modelCfg.APIKeySecret == "" {
		return nil, errors.Errorf("model %s has no api_key_secret", modelCfg.ModelID)
	}

	key, err := store.GetSecretString(ctx, modelCfg.APIKeySecret)
	if err != nil {
		logger.Logger.Error("failed to retrieve API key, check the secret exists and this app may read it",
			zap.String("secret", modelCfg.APIKeySecret),
			zap.Error(err))
		var serr *secret.SecretRetrievalError
		if errors.As(err, &serr) {
			return nil, err
		}
		return nil, &secret.SecretRetrievalError{Name: modelCfg.APIKeySecret, Err: err}
	}

	r := &Runner{
		modelID:    modelCfg.ModelID,
		url:        modelCfg.URL,
		cfg:        cfg,
		httpClient: httpClient,
		store:      store,
		secretName: modelCfg.APIKeySecret,
		apiKey:     strings.TrimSpace(key),
	}
	if r.modelID == "" {
		r.modelID = DefaultModelID
	}
	if r.url == "" {
		r.url = DefaultURL
	}
	return r, nil
}

func (r *Runner) ModelID() string { return r.modelID }

// Predict sends prompt as one user turn and returns choices[0].message.content.
func (r *Runner) Predict(ctx context.Context, prompt string) (text string, logProb *float64, err error) {
	body, err := json.Marshal(ChatRequest{
		Model:            r.modelID,
		Messages:         []Message{{Role: "user", Content: prompt}},
		Temperature:      r.cfg.Temperature,
		TopP:             r.cfg.TopP,
		N:                1,
		Stream:           false,
		PresencePenalty:  r.cfg.PresencePenalty,
		FrequencyPenalty: r.cfg.FrequencyPenalty,
		MaxTokens:        r.cfg.MaxTokens,
	})
	if err != nil {
		return "", nil, errors.Wrap(err, "marshal chat request")
	}

	start := time.Now()
	defer func() {
		monitor.ObserveInvocation(string(channeltype.OpenAI), r.modelID, monitor.Outcome(err), time.Since(start))
	}()

	key := r.key()
	resp, err := r.post(ctx, body, key)
	if err != nil {
		return "", nil, &adaptor.VendorInvocationError{ModelID: r.modelID, Err: err}
	}
	if resp.StatusCode == http.StatusUnauthorized {
		if fresh, ok := r.refreshKey(ctx, key); ok {
			resp, err = r.post(ctx, body, fresh)
			if err != nil {
				return "", nil, &adaptor.VendorInvocationError{ModelID: r.modelID, Err: err}
			}
		}
	}

	var parsed ChatResponse
	if uerr := json.Unmarshal(resp.Body, &parsed); uerr != nil {
		return "", nil, &adaptor.VendorInvocationError{
			ModelID:    r.modelID,
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
			Err:        errors.Wrap(uerr, "decode chat response"),
		}
	}
	if resp.StatusCode != http.StatusOK {
		cause := errors.New("unexpected status")
		if parsed.Error != nil && parsed.Error.Message != "" {
			cause = errors.New(parsed.Error.Message)
		}
		return "", nil, &adaptor.VendorInvocationError{ModelID: r.modelID, StatusCode: resp.StatusCode, Err: cause}
	}
	if len(parsed.Choices) == 0 {
		return "", nil, &adaptor.VendorInvocationError{
			ModelID:    r.modelID,
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
			Err:        errors.New("response has no choices"),
		}
	}
	return parsed.Choices[0].Message.Content, nil, nil
}

func (r *Runner) post(ctx context.Context, body []byte, key string) (*client.Response, error) {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/json")
	header.Set("Authorization", "Bearer "+key)
	return client.PostJSON(ctx, r.httpClient, r.url, header, body, config.VendorMaxAttempts)
}

func (r *Runner) key() string {
	r.keyMu.RLock()
	defer r.keyMu.RUnlock()
	return r.apiKey
}

// refreshKey drops the cached API key after the vendor refused it and reloads it. It reports
// whether a different key is now available.
func (r *Runner) refreshKey(ctx context.Context, rejected string) (string, bool) {
	r.keyMu.Lock()
	defer r.keyMu.Unlock()
	if r.apiKey != rejected {
		// another prediction already rotated it
		return r.apiKey, true
	}

	inv, ok := r.store.(secret.Invalidator)
	if !ok {
		return "", false
	}
	inv.Invalidate(r.secretName)
	key, err := r.store.GetSecretString(ctx, r.secretName)
	if err != nil {
		logger.Logger.Warn("reload API key after 401",
			zap.String("secret", r.secretName),
			zap.Error(err))
		return "", false
	}
	key = strings.TrimSpace(key)
	if key == rejected {
		return "", false
	}
	logger.Logger.Info("API key rotated, retrying", zap.String("model", r.modelID))
	r.apiKey = key
	return key, true
}
