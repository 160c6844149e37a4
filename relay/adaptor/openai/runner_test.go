package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songquanpeng/prompt-studio/common/secret"
	"github.com/songquanpeng/prompt-studio/relay/adaptor"
	"github.com/songquanpeng/prompt-studio/relay/channeltype"
	"github.com/songquanpeng/prompt-studio/relay/meta"
)

func TestNewRunnerSecretFailure(t *testing.T) {
	_, err := NewRunner(context.Background(), secret.StaticStore{},
		meta.ModelConfig{Type: channeltype.OpenAI, ModelID: "gpt-4o", APIKeySecret: "openai_key"},
		DefaultConfig("o"), nil)

	var serr *secret.SecretRetrievalError
	require.True(t, errors.As(err, &serr))
	require.Equal(t, "openai_key", serr.Name)
}

func TestPredict(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		assert.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, "gpt-4o", body["model"])
		assert.Equal(t, false, body["stream"])
		assert.EqualValues(t, 1, body["n"])
		assert.EqualValues(t, 1, body["temperature"])
		assert.EqualValues(t, 64, body["max_tokens"])
		msgs := body["messages"].([]any)
		assert.Len(t, msgs, 1)
		assert.Equal(t, "user", msgs[0].(map[string]any)["role"])
		assert.Equal(t, "hello", msgs[0].(map[string]any)["content"])

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hi there"}}]}`))
	}))
	defer srv.Close()

	cfg := DefaultConfig("o")
	maxTokens := 64
	cfg.MaxTokens = &maxTokens

	runner, err := NewRunner(context.Background(), secret.StaticStore{"openai_key": "sk-test\n"},
		meta.ModelConfig{Type: channeltype.OpenAI, ModelID: "gpt-4o", APIKeySecret: "openai_key", URL: srv.URL},
		cfg, srv.Client())
	require.NoError(t, err)

	text, logProb, err := runner.Predict(context.Background(), "hello")
	require.NoError(t, err)
	require.Nil(t, logProb)
	require.Equal(t, "hi there", text)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestPredictOmitsUnsetMaxTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		assert.NoError(t, json.Unmarshal(raw, &body))
		_, has := body["max_tokens"]
		assert.False(t, has)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	runner, err := NewRunner(context.Background(), secret.StaticStore{"k": "sk"},
		meta.ModelConfig{Type: channeltype.OpenAI, APIKeySecret: "k", URL: srv.URL}, DefaultConfig("o"), srv.Client())
	require.NoError(t, err)
	require.Equal(t, DefaultModelID, runner.ModelID())

	_, _, err = runner.Predict(context.Background(), "x")
	require.NoError(t, err)
}

func TestPredictVendorErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	runner, err := NewRunner(context.Background(), secret.StaticStore{"k": "sk"},
		meta.ModelConfig{Type: channeltype.OpenAI, ModelID: "gpt-4", APIKeySecret: "k", URL: srv.URL}, DefaultConfig("o"), srv.Client())
	require.NoError(t, err)

	_, _, err = runner.Predict(context.Background(), "x")
	var verr *adaptor.VendorInvocationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, http.StatusUnauthorized, verr.StatusCode)
	require.Contains(t, verr.Error(), "bad key")
}

// rotatingStore is an upstream secret store whose value can change underneath a cache.
type rotatingStore struct {
	mu    sync.Mutex
	value string
	reads int
}

func (s *rotatingStore) GetSecretString(context.Context, string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	return s.value, nil
}

func (s *rotatingStore) set(v string) {
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
}

func TestPredictReloadsRotatedKey(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Header.Get("Authorization") != "Bearer sk-new" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	upstream := &rotatingStore{value: "sk-old"}
	store := secret.NewCachedStore(upstream, time.Hour)
	modelCfg := meta.ModelConfig{Type: channeltype.OpenAI, ModelID: "gpt-4o", APIKeySecret: "k", URL: srv.URL}

	runner, err := NewRunner(context.Background(), store, modelCfg, DefaultConfig("o"), srv.Client())
	require.NoError(t, err)

	upstream.set("sk-new")
	text, _, err := runner.Predict(context.Background(), "x")
	require.NoError(t, err)
	require.Equal(t, "ok", text)
	require.EqualValues(t, 2, atomic.LoadInt32(&calls))
	require.Equal(t, 2, upstream.reads)

	// the cache now holds the new key
	fresh, err := store.GetSecretString(context.Background(), "k")
	require.NoError(t, err)
	require.Equal(t, "sk-new", fresh)
}

func TestPredictUnchangedKeyIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	upstream := &rotatingStore{value: "sk-old"}
	runner, err := NewRunner(context.Background(), secret.NewCachedStore(upstream, time.Hour),
		meta.ModelConfig{Type: channeltype.OpenAI, ModelID: "gpt-4o", APIKeySecret: "k", URL: srv.URL},
		DefaultConfig("o"), srv.Client())
	require.NoError(t, err)

	_, _, err = runner.Predict(context.Background(), "x")
	var verr *adaptor.VendorInvocationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, http.StatusUnauthorized, verr.StatusCode)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
	require.Equal(t, 2, upstream.reads)
}
