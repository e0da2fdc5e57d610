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

package multicall

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

const balanceOfABI = `[{
	"constant": true,
	"inputs": [{"name":"owner","type":"address"}],
	"name": "balanceOf",
	"outputs": [{"name":"","type":"uint256"}],
	"stateMutability": "view",
	"type": "function"
}]`

// TestAggregate3MethodHasFourByteSelector confirms the parsed aggregate3
// method carries its name and a 4-byte selector, the prefix Aggregate3's
// calldata is built with.
func TestAggregate3MethodHasFourByteSelector(t *testing.T) {
	require.Len(t, aggregate3Method.ID, 4)
	require.Equal(t, "aggregate3", aggregate3Method.Name)
}

// TestBatchAddPacksMethodCalldata covers the Batch builder's per-call
// encoding path, independent of any network round-trip.
func TestBatchAddPacksMethodCalldata(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(balanceOfABI))
	require.NoError(t, err)
	method := parsed.Methods["balanceOf"]

	agg := &Aggregator{address: common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")}
	b := NewBatch(agg)

	target := common.HexToAddress("0x000000000000000000000000000000000000ff")
	owner := common.HexToAddress("0x00000000000000000000000000000000000abc")
	_, err = b.Add(target, &method, owner)
	require.NoError(t, err)

	require.Equal(t, 1, b.Len())
	require.Equal(t, target, b.calls[0].Target)
	require.True(t, strings.HasPrefix(
		common.Bytes2Hex(b.calls[0].Data),
		common.Bytes2Hex(method.ID),
	))
}

// TestBatchAddRejectsArgumentArityMismatch covers the encode-time failure
// path: a caller passing the wrong number of arguments never reaches the
// network.
func TestBatchAddRejectsArgumentArityMismatch(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(balanceOfABI))
	require.NoError(t, err)
	method := parsed.Methods["balanceOf"]

	agg := &Aggregator{address: common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")}
	b := NewBatch(agg)

	target := common.HexToAddress("0x000000000000000000000000000000000000ff")
	_, err = b.Add(target, &method)
	require.Error(t, err)
}
