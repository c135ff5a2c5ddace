package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/MKhiriev/field-sync/internal/config"
	"github.com/MKhiriev/field-sync/internal/logger"
	"github.com/MKhiriev/field-sync/internal/utils"
	"github.com/MKhiriev/field-sync/models"
	"github.com/go-resty/resty/v2"
)

const syncBatchPath = "/sync/batch"

type httpSyncAdapter struct {
	client *utils.HTTPClient

	mu    sync.RWMutex
	token string

	logger *logger.Logger
}

// NewHTTPSyncAdapter constructs the HTTP/JSON implementation of [SyncAdapter].
// The base URL is normalised from adapterCfg.HTTPAddress; request timeout and
// retry count are taken from adapterCfg as well.
//
// Returns an error if adapterCfg.HTTPAddress is empty or cannot be parsed as a
// valid URL.
func NewHTTPSyncAdapter(adapterCfg config.Adapter, log *logger.Logger) (SyncAdapter, error) {
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}

	client := utils.NewHTTPClient(utils.HTTPClientOptions{
		BaseURL:    baseURL,
		Timeout:    adapterCfg.RequestTimeout,
		RetryCount: adapterCfg.RetryCount,
	})

	return &httpSyncAdapter{client: client, logger: log}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetToken implements [SyncAdapter]. Surrounding whitespace is trimmed.
func (h *httpSyncAdapter) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

// Token implements [SyncAdapter].
func (h *httpSyncAdapter) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// PushBatch implements [SyncAdapter]. It POSTs req to /sync/batch and decodes
// the JSON response.
func (h *httpSyncAdapter) PushBatch(ctx context.Context, req models.SyncBatchRequest) (models.SyncBatchResponse, error) {
	if req.Operations == nil {
		req.Operations = []models.BatchOperation{}
	}

	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(syncBatchPath)
	if err != nil {
		return models.SyncBatchResponse{}, fmt.Errorf("%w: sync batch request: %w", ErrTransport, err)
	}
	if err = mapHTTPError(resp); err != nil {
		h.logger.Warn().
			Str("func", "httpSyncAdapter.PushBatch").
			Int("status", resp.StatusCode()).
			Err(err).
			Msg("sync batch rejected")
		return models.SyncBatchResponse{}, err
	}

	var out models.SyncBatchResponse
	body := resp.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return out, nil
	}
	if err = json.Unmarshal(body, &out); err != nil {
		return models.SyncBatchResponse{}, fmt.Errorf("decode sync batch response: %w", err)
	}

	h.logger.Debug().
		Str("func", "httpSyncAdapter.PushBatch").
		Int("operations", len(req.Operations)).
		Int("results", len(out.Results)).
		Int("server_changes", len(out.ServerChanges)).
		Msg("sync batch exchanged")

	return out, nil
}

func (h *httpSyncAdapter) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}
