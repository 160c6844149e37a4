package client

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/songquanpeng/prompt-studio/common/config"
	"github.com/songquanpeng/prompt-studio/common/logger"
)

// HTTPClient is used for third-party model APIs. Each attempt is bounded by config.VendorTimeout.
var HTTPClient = &http.Client{Timeout: 60 * time.Second}

// retryBackoff is the pause before the retry attempt.
var retryBackoff = 500 * time.Millisecond

func Init() {
	HTTPClient = &http.Client{
		Timeout: config.VendorTimeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConnsPerHost: 16,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
	logger.Logger.Info("http client initialized",
		zap.Duration("timeout", config.VendorTimeout),
		zap.Int("max_attempts", config.VendorMaxAttempts))
}

// Response is a fully read upstream response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// PostJSON sends body to url and reads the whole response. Transient failures (network errors,
// 429 and 5xx statuses) are retried until maxAttempts is reached; the last outcome is returned.
// Non-transient HTTP statuses are returned as a Response, not an error.
func PostJSON(ctx context.Context, c *http.Client, url string, header http.Header, body []byte, maxAttempts int) (*Response, error) {
	if c == nil {
		c = HTTPClient
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var (
		resp    *Response
		lastErr error
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, lastErr = postOnce(ctx, c, url, header, body)
		if !shouldRetry(resp, lastErr) || attempt == maxAttempts {
			break
		}

		fields := []zap.Field{zap.String("url", url), zap.Int("attempt", attempt)}
		if lastErr != nil {
			fields = append(fields, zap.Error(lastErr))
		} else {
			fields = append(fields, zap.Int("status", resp.StatusCode))
		}
		logger.Logger.Warn("transient upstream failure, retrying", fields...)

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "wait for retry")
		case <-time.After(retryBackoff):
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return resp, nil
}

func postOnce(ctx context.Context, c *http.Client, url string, header http.Header, body []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	httpResp, err := c.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "post %s", url)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}

func shouldRetry(resp *Response, err error) bool {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return false
		}
		var netErr net.Error
		if errors.As(err, &netErr) {
			return true
		}
		return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, context.DeadlineExceeded)
	}

	switch {
	case resp == nil:
		return false
	case resp.StatusCode == http.StatusTooManyRequests:
		return true
	case resp.StatusCode >= 500:
		return true
	default:
		return false
	}
}
