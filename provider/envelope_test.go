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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewRequestShape covers spec.md §6's request wire format: the chain id
// as a numeric id, method and params passed through verbatim.
func TestNewRequestShape(t *testing.T) {
	body, err := newRequest(1, "eth_getBalance", "0xabc", "latest")
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "2.0", decoded["jsonrpc"])
	assert.Equal(t, float64(1), decoded["id"])
	assert.Equal(t, "eth_getBalance", decoded["method"])
	assert.Equal(t, []interface{}{"0xabc", "latest"}, decoded["params"])
}

// TestParseResponseChainIDRoundTrip covers spec.md §8 scenario 1: a chain-id
// reply decodes to its numeric value.
func TestParseResponseChainIDRoundTrip(t *testing.T) {
	resp, err := parseResponse([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x1"}`))
	require.NoError(t, err)
	var hexStr string
	require.NoError(t, resp.decodeResult(&hexStr))
	assert.Equal(t, "0x1", hexStr)
}

// TestParseResponseError confirms an error-branch response surfaces the
// mapped ErrorKind rather than a decodable result.
func TestParseResponseError(t *testing.T) {
	_, err := parseResponse([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"bad param"}}`))
	require.Error(t, err)
	assert.True(t, isKind(err, InvalidParams))
}

// TestResponseIsNull covers the null-result-on-lookup shape spec.md §4.2
// requires distinct "not found" handling for.
func TestResponseIsNull(t *testing.T) {
	resp, err := parseResponse([]byte(`{"jsonrpc":"2.0","id":1,"result":null}`))
	require.NoError(t, err)
	assert.True(t, resp.isNull())
}

// TestIsSubscriptionNotification covers spec.md §3's classification rule:
// presence of a top-level "params" key marks a frame
// as a server-initiated notification rather than an RPC response.
func TestIsSubscriptionNotification(t *testing.T) {
	notification := `{"jsonrpc":"2.0","method":"eth_subscription","params":{"subscription":"0x1","result":{}}}`
	response := `{"jsonrpc":"2.0","id":1,"result":"0x1"}`

	assert.True(t, isSubscriptionNotification([]byte(notification)))
	assert.False(t, isSubscriptionNotification([]byte(response)))
}
