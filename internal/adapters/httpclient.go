package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/mmsearch-dev/mmsearch/internal/apierr"
	"github.com/mmsearch-dev/mmsearch/internal/platform/httpx"
)

const maxRetries = 3

// httpClient is the shared transport every HTTP-based adapter uses: a
// hardened client, an optional outbound rate limiter, and a small retry
// loop with growing backoff around transient failures.
type httpClient struct {
	client  *http.Client
	limiter *rate.Limiter
	name    string
}

// authHeaders builds the bearer-auth header map for an adapter call, empty
// when no API key is configured.
func authHeaders(apiKey string) map[string]string {
	if apiKey == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + apiKey}
}

func newHTTPClient(name string, timeout time.Duration, rps float64) *httpClient {
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &httpClient{
		client:  httpx.NewClient(timeout),
		limiter: limiter,
		name:    name,
	}
}

// postJSON sends a JSON-encoded request body and decodes a JSON response
// into out. Requests are retried up to maxRetries times, with a backoff of
// attempt² × 200ms (200ms, 800ms, 1.8s), on transport errors and 5xx
// responses; 4xx responses are returned immediately as a
// Validation-kind error since retrying will not help.
//
// unreachableKind classifies the error returned once retries are exhausted
// without ever receiving an HTTP response (connection refused, timeout, DNS
// failure) — a different failure mode than a vendor that responded with a
// server error, which is always reported as MediaProcessing. Call sites
// that have no reason to distinguish the two (most adapters) pass
// apierr.MediaProcessing for both.
func (h *httpClient) postJSON(ctx context.Context, url string, headers map[string]string, payload, out any, unreachableKind apierr.Kind) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return apierr.Wrap(apierr.Service, "failed to encode adapter request", err)
	}

	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return apierr.Wrap(apierr.Service, "adapter rate limiter wait failed", err)
		}
	}

	var lastErr error
	connected := false
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt*200) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return apierr.Wrap(apierr.Service, "adapter call canceled", ctx.Err())
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return apierr.Wrap(apierr.Service, "failed to build adapter request", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		res, err := h.client.Do(req)
		if err != nil {
			lastErr = err
			connected = false
			continue
		}
		connected = true

		respBody, readErr := io.ReadAll(res.Body)
		res.Body.Close()
		if readErr != nil {
			lastErr = readErr
			connected = false
			continue
		}

		switch {
		case res.StatusCode >= 500:
			lastErr = fmt.Errorf("%s: server error %d: %s", h.name, res.StatusCode, string(respBody))
			continue
		case res.StatusCode >= 400:
			return apierr.New(apierr.Validation, fmt.Sprintf("%s: rejected request: %d: %s", h.name, res.StatusCode, string(respBody)))
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return apierr.Wrap(apierr.Service, fmt.Sprintf("%s: failed to decode response", h.name), err)
		}
		return nil
	}

	kind := apierr.MediaProcessing
	if !connected {
		kind = unreachableKind
	}
	return apierr.Wrap(kind, fmt.Sprintf("%s: request failed after %d retries", h.name, maxRetries), lastErr)
}
