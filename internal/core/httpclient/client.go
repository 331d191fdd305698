package httpclient

import (
	"net/http"
	"time"

	"order-tracker/internal/core/logger"

	"go.uber.org/zap"
)

// LoggingRoundTripper captures request details for debugging.
type LoggingRoundTripper struct {
	// Proxied is the underlying RoundTripper to execute the request.
	Proxied http.RoundTripper
}

// RoundTrip executes the request and logs details.
func (lrt *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	logger.Get().Debug("HTTP Request Started",
		zap.String("method", req.Method),
		zap.String("url", req.URL.Redacted()),
	)

	resp, err := lrt.Proxied.RoundTrip(req)

	duration := time.Since(start)

	if err != nil {
		logger.Get().Error("HTTP Request Failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL.Redacted()),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Get().Debug("HTTP Request Completed",
		zap.String("method", req.Method),
		zap.String("url", req.URL.Redacted()),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", duration),
	)

	return resp, nil
}

// BearerRoundTripper adds an Authorization header to every request that lacks one.
type BearerRoundTripper struct {
	Token   string
	Proxied http.RoundTripper
}

// RoundTrip sets the bearer token on a copy of the request.
func (brt *BearerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if brt.Token != "" && req.Header.Get("Authorization") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+brt.Token)
	}
	return brt.Proxied.RoundTrip(req)
}

// Option customizes the client built by NewClient.
type Option func(*http.Client)

// WithBearerToken authenticates every request with token.
func WithBearerToken(token string) Option {
	return func(c *http.Client) {
		c.Transport = &BearerRoundTripper{Token: token, Proxied: c.Transport}
	}
}

// NewClient returns an http.Client with logging middleware.
// A zero timeout leaves long-lived streams open.
func NewClient(timeout time.Duration, opts ...Option) *http.Client {
	client := &http.Client{
		Transport: &LoggingRoundTripper{
			Proxied: http.DefaultTransport,
		},
		Timeout: timeout,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}
