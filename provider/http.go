// Copyright 2025 R5 Labs
// This file is part of the R5 Core library.
//
// This software is provided "as is", without warranty of any kind,
// express or implied, including but not limited to the warranties
// of merchantability, fitness for a particular purpose and
// noninfringement. In no event shall the authors or copyright
// holders be liable for any claim, damages, or other liability,
// whether in an action of contract, tort or otherwise, arising
// from, out of or in connection with the software or the use or
// other dealings in the software.

package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// httpBodyCap is the growable-buffer cap from spec.md §4.1: ~5 MiB.
const httpBodyCap = 5 * 1024 * 1024

// httpTransport is the HTTP/S driver. Connection pooling is internal to
// http.Client, the way the teacher's websocket driver leaves buffer pooling
// to a shared sync.Pool (rpc/websocket.go's wsBufferPool).
type httpTransport struct {
	url     string
	client  *http.Client
	retries uint
	headers http.Header
}

func newHTTPTransport(cfg NetworkConfig) (*httpTransport, error) {
	if err := cfg.Endpoint.kindFor(KindHTTP); err != nil {
		return nil, err
	}
	return &httpTransport{
		url:     cfg.Endpoint.URI().String(),
		client:  &http.Client{Timeout: 0},
		retries: cfg.Retries,
		headers: make(http.Header),
	}, nil
}

func (t *httpTransport) kind() Kind { return KindHTTP }

func (t *httpTransport) subscribe() (*router, bool) { return nil, false }

func (t *httpTransport) close() error { return nil }

// sendRPCRequest POSTs body and retries on HTTP 429 with the shared backoff
// (spec.md §4.1). Any other non-200 status is a fatal UnexpectedServerResponse.
func (t *httpTransport) sendRPCRequest(ctx context.Context, body []byte) ([]byte, error) {
	return withRetry(t.retries, func(attempt uint) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
		if err != nil {
			return nil, Wrap(UnexpectedServerResponse, "failed to build request", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, vs := range t.headers {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		resp, err := t.client.Do(req)
		if err != nil {
			return nil, Wrap(FailedToConnect, "HTTP request failed", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, Wrap(TooManyRequestError, fmt.Sprintf("HTTP 429 on attempt %d", attempt), nil)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, Wrap(UnexpectedServerResponse, fmt.Sprintf("unexpected HTTP status %d", resp.StatusCode), nil)
		}

		limited := io.LimitReader(resp.Body, httpBodyCap+1)
		data, err := io.ReadAll(limited)
		if err != nil {
			return nil, Wrap(UnexpectedServerResponse, "failed to read response body", err)
		}
		if len(data) > httpBodyCap {
			return nil, Wrap(UnexpectedServerResponse, "response body exceeded 5 MiB cap", nil)
		}
		return data, nil
	})
}

// pollDelay returns the backoff delay withRetry sleeps after the given
// attempt, 200ms · 2^attempt, without sleeping.
func pollDelay(attempt uint) time.Duration {
	return retryBaseDelay * time.Duration(1<<attempt)
}
