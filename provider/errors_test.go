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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRpcErrorCodeMapping(t *testing.T) {
	cases := []struct {
		code int
		want ErrorKind
	}{
		{-32700, ParseError},
		{-32600, InvalidRequest},
		{-32601, MethodNotFound},
		{-32602, InvalidParams},
		{-32603, UnexpectedErrorFound},
		{-32000, InvalidInput},
		{-32005, TooManyRequestError},
		{4001, UserRejectedRequest},
		{3, EvmFailedToExecute},
		{-999999, UnexpectedRpcErrorCode},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, rpcErrorCode(c.code, "msg"))
	}
}

func TestIsTooManyRequests(t *testing.T) {
	assert.True(t, isTooManyRequests(TooManyRequestError))
	assert.False(t, isTooManyRequests(InvalidParams))
}

// TestErrorIsMatchesByKindOnly confirms errors.Is compares ErrorKind alone,
// so callers can write errors.Is(err, Err(TransactionNotFound)) regardless
// of the message/cause the concrete error carries.
func TestErrorIsMatchesByKindOnly(t *testing.T) {
	err := Wrap(TransactionNotFound, "looked up 0xdead", errors.New("boom"))
	assert.True(t, errors.Is(err, Err(TransactionNotFound)))
	assert.False(t, errors.Is(err, Err(TransactionReceiptNotFound)))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("network reset")
	err := Wrap(Disconnected, "lost connection", cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}
