package utils

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPClient embeds *resty.Client so the adapter can use the full resty API.
type HTTPClient struct {
	*resty.Client
}

// HTTPClientOptions configures NewHTTPClient. Zero values keep resty's
// defaults.
type HTTPClientOptions struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
}

// NewHTTPClient returns an independent client for the sync server. Retries,
// when enabled, only fire on transport errors and 5xx responses.
func NewHTTPClient(opts HTTPClientOptions) *HTTPClient {
	client := resty.New().
		SetHeader("Accept", "application/json")

	if opts.BaseURL != "" {
		client.SetBaseURL(opts.BaseURL)
	}
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.RetryCount > 0 {
		client.SetRetryCount(opts.RetryCount).
			SetRetryWaitTime(500 * time.Millisecond).
			SetRetryMaxWaitTime(5 * time.Second).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				return err != nil || r.StatusCode() >= 500
			})
	}

	return &HTTPClient{Client: client}
}
