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

// Package provider implements the transport-interchangeable JSON-RPC
// client described in spec.md §3-§6: a single Provider abstraction fronting
// HTTP/S, WebSocket, and Unix-domain IPC transports, with unified request
// framing, retry/backoff, subscription dispatch, and a typed method
// surface.
package provider

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
)

// Provider is process-wide state: one NetworkConfig and one transport,
// user-managed for its whole lifecycle (spec.md §3). It is safe for
// concurrent use by multiple goroutines for the HTTP kind; for WS/IPC, see
// the ordering note on router in subscription.go.
type Provider struct {
	cfg       NetworkConfig
	transport transport
}

// Dial opens a Provider against cfg.Endpoint, selecting the transport by
// the endpoint's shape: a URI with ws/wss dials WebSocket, a URI with
// http/https dials HTTP, and a filesystem path dials IPC. Mismatched
// endpoint/transport combinations are rejected by the individual
// newXTransport constructors with InvalidEndpointConfig.
func Dial(ctx context.Context, cfg NetworkConfig) (*Provider, error) {
	if cfg.Endpoint.IsPath() {
		t, err := newIPCTransport(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Provider{cfg: cfg, transport: t}, nil
	}
	if !cfg.Endpoint.IsURI() {
		return nil, Wrap(InvalidEndpointConfig, "endpoint carries neither a URI nor a path", nil)
	}
	switch cfg.Endpoint.URI().Scheme {
	case "ws", "wss":
		t, err := newWSTransport(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Provider{cfg: cfg, transport: t}, nil
	case "http", "https":
		t, err := newHTTPTransport(cfg)
		if err != nil {
			return nil, err
		}
		return &Provider{cfg: cfg, transport: t}, nil
	default:
		return nil, Wrap(UnsupportedSchema, cfg.Endpoint.URI().Scheme, nil)
	}
}

// Config returns the Provider's immutable NetworkConfig.
func (p *Provider) Config() NetworkConfig { return p.cfg }

// Kind reports which transport this Provider is driving.
func (p *Provider) Kind() Kind { return p.transport.kind() }

// Close tears down the underlying transport. For WS/IPC this stops the
// read-loop goroutine and wakes any blocked queue consumers.
func (p *Provider) Close() error {
	log.Debug("Closing provider", "kind", p.Kind())
	return p.transport.close()
}

// call is the shared path every typed method wrapper in methods_*.go uses:
// build the envelope, send it, split result/error, decode into out.
func (p *Provider) call(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	body, err := newRequest(p.cfg.ChainID, method, params...)
	if err != nil {
		return Wrap(InvalidParams, "failed to encode request", err)
	}
	raw, err := p.transport.sendRPCRequest(ctx, body)
	if err != nil {
		return err
	}
	resp, err := parseResponse(raw)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if resp.isNull() {
		return Err(notFoundKindFor(method))
	}
	if err := resp.decodeResult(out); err != nil {
		return Wrap(UnexpectedServerResponse, fmt.Sprintf("failed to decode result of %s", method), err)
	}
	return nil
}

// callOptional behaves like call but treats a null result as a legitimate
// "not found" outcome (found=false) rather than an error, for methods whose
// result is expected to be absent in ordinary operation (e.g. polling a
// receipt before it is mined).
func (p *Provider) callOptional(ctx context.Context, out interface{}, method string, params ...interface{}) (found bool, err error) {
	body, err := newRequest(p.cfg.ChainID, method, params...)
	if err != nil {
		return false, Wrap(InvalidParams, "failed to encode request", err)
	}
	raw, err := p.transport.sendRPCRequest(ctx, body)
	if err != nil {
		return false, err
	}
	resp, err := parseResponse(raw)
	if err != nil {
		return false, err
	}
	if resp.isNull() {
		return false, nil
	}
	if err := resp.decodeResult(out); err != nil {
		return false, Wrap(UnexpectedServerResponse, fmt.Sprintf("failed to decode result of %s", method), err)
	}
	return true, nil
}

// callRawResult behaves like callOptional but returns the still-encoded
// result bytes, for callers that need to decode the same payload twice
// (e.g. a typed transaction plus its enclosing-block metadata).
func (p *Provider) callRawResult(ctx context.Context, method string, params ...interface{}) (raw []byte, found bool, err error) {
	body, err := newRequest(p.cfg.ChainID, method, params...)
	if err != nil {
		return nil, false, Wrap(InvalidParams, "failed to encode request", err)
	}
	respBody, err := p.transport.sendRPCRequest(ctx, body)
	if err != nil {
		return nil, false, err
	}
	resp, err := parseResponse(respBody)
	if err != nil {
		return nil, false, err
	}
	if resp.isNull() {
		return nil, false, nil
	}
	return resp.Result, true, nil
}

// notFoundKindFor maps a method name onto the distinct "not found" error
// kind spec.md §4.2 requires for null-result-on-lookup methods.
func notFoundKindFor(method string) ErrorKind {
	switch method {
	case "eth_getTransactionByHash", "eth_getTransactionByBlockHashAndIndex", "eth_getTransactionByBlockNumberAndIndex":
		return TransactionNotFound
	case "eth_getTransactionReceipt":
		return TransactionReceiptNotFound
	case "eth_getBlockByHash":
		return InvalidBlockHash
	case "eth_getBlockByNumber":
		return InvalidBlockNumber
	case "eth_getUncleByBlockHashAndIndex":
		return InvalidBlockHashOrIndex
	case "eth_getUncleByBlockNumberAndIndex":
		return InvalidBlockNumberOrIndex
	case "eth_getFilterChanges", "eth_getFilterLogs", "eth_uninstallFilter":
		return InvalidFilterId
	default:
		return ResourceNotFound
	}
}

// Subscribe opens an eth_subscribe channel (WS/IPC only); the HTTP
// transport returns MethodNotSupported, matching spec.md §4.2.
func (p *Provider) Subscribe(ctx context.Context, subType string, args ...interface{}) (*Subscription, error) {
	r, ok := p.transport.subscribe()
	if !ok {
		return nil, Wrap(MethodNotSupported, "eth_subscribe requires a persistent transport", nil)
	}
	params := append([]interface{}{subType}, args...)
	var subID string
	if err := p.call(ctx, &subID, "eth_subscribe", params...); err != nil {
		return nil, err
	}
	r.registerSubscription(subID)
	return &Subscription{id: subID, r: r, p: p}, nil
}

// Subscription is a handle onto a live eth_subscribe stream.
type Subscription struct {
	id string
	r  *router
	p  *Provider
}

// ID returns the server-assigned subscription id.
func (s *Subscription) ID() string { return s.id }

// Next blocks until a notification for this subscription arrives, or the
// provider is closed. Multiple subscriptions share one subQueue, so Next
// scans past entries belonging to other ids rather than popping the head;
// scanning under the same lock that dispatch and notEmpty.Broadcast use
// means an unrelated id sitting at the head never causes a busy spin —
// Next just waits again until a new notification (for any id) arrives.
func (s *Subscription) Next() ([]byte, error) {
	r := s.r
	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		for i, note := range r.subQueue {
			if note.Params.Subscription == s.id {
				r.subQueue = append(r.subQueue[:i:i], r.subQueue[i+1:]...)
				return note.Params.Result, nil
			}
		}
		if r.closed {
			err := r.closeErr
			if err == nil {
				err = Wrap(Disconnected, "provider closed", nil)
			}
			return nil, err
		}
		r.notEmpty.Wait()
	}
}

// Unsubscribe calls eth_unsubscribe for this subscription.
func (s *Subscription) Unsubscribe(ctx context.Context) error {
	var ok bool
	err := s.p.call(ctx, &ok, "eth_unsubscribe", s.id)
	s.r.unregisterSubscription(s.id)
	return err
}
