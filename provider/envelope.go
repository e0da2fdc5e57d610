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
	"encoding/json"
	"fmt"
)

// request is the wire shape of a JSON-RPC 2.0 request (spec.md §6). The id
// is the configured chain id, per spec.md §3's RPC envelope definition.
type request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// newRequest serializes a method call with json.Marshal. The output buffer
// is whatever json.Marshal allocates; no per-method buffer sizing is done.
func newRequest(chainID uint64, method string, params ...interface{}) ([]byte, error) {
	if params == nil {
		params = []interface{}{}
	}
	req := request{JSONRPC: "2.0", ID: int64(chainID), Method: method, Params: params}
	return json.Marshal(req)
}

// rpcError is the `error` branch of a JSON-RPC response.
type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// response is the discriminated union described in spec.md §3: a parsed
// frame carries either `result` or `error`, never both.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.Number     `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

// parseResponse performs the two-stage decode from the design notes (§9):
// discriminator fields (id/result/error) eagerly, method-specific result
// parsing deferred to the caller via decodeResult.
func parseResponse(raw []byte) (*response, error) {
	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, Wrap(UnexpectedServerResponse, "malformed JSON-RPC frame", err)
	}
	if resp.Error != nil {
		kind := rpcErrorCode(resp.Error.Code, resp.Error.Message)
		return &resp, Wrap(kind, resp.Error.Message, nil)
	}
	return &resp, nil
}

// decodeResult unmarshals the deferred `result` field into v.
func (r *response) decodeResult(v interface{}) error {
	if len(r.Result) == 0 || string(r.Result) == "null" {
		return fmt.Errorf("null result")
	}
	return json.Unmarshal(r.Result, v)
}

// isNull reports whether the result field is JSON null, the "not found"
// signal spec.md §4.2 maps onto a distinct error kind per method family.
func (r *response) isNull() bool {
	return len(r.Result) == 0 || string(r.Result) == "null"
}

// isSubscriptionNotification implements spec.md §3's subscription router
// classification rule: a parsed top-level object carrying a "params" key is
// a server-initiated notification, not a reply to a pending request.
func isSubscriptionNotification(raw []byte) bool {
	var probe struct {
		Params json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	return len(probe.Params) > 0
}

// subscriptionNotification is the shape of a server push on a WS/IPC
// transport: `{"method":"eth_subscription","params":{"subscription":id,"result":...}}`.
type subscriptionNotification struct {
	Method string `json:"method"`
	Params struct {
		Subscription string          `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	} `json:"params"`
}
