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

package wallet

import (
	"context"
	"errors"
	"math/big"
	"net"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/r5-labs/ethrpc/provider"
)

// dialLoopbackProvider dials a Provider against a throwaway Unix socket
// listener, giving Assert tests a real *provider.Provider (Assert only
// reads its NetworkConfig, never the network) without any live node.
func dialLoopbackProvider(t *testing.T, chainID uint64) *provider.Provider {
	t.Helper()
	sockPath := filepath.Join(t.TempDir(), "wallet-test.sock")
	ln, err := net.Listen("unix", sockPath)
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() { _ = conn }()
		}
	}()

	cfg := provider.DefaultNetworkConfig(provider.NewIPCEndpoint(sockPath), chainID)
	p, err := provider.Dial(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func newTestWallet(t *testing.T, chainID uint64) (*Wallet, Signer) {
	t.Helper()
	key, err := crypto.HexToECDSA(testPrivateKeyHex)
	require.NoError(t, err)
	signer := NewPrivateKeySigner(key)
	p := dialLoopbackProvider(t, chainID)
	return New(p, signer), signer
}

// testPrivateKeyHex is an arbitrary well-formed secp256k1 key used only to
// derive a stable sending address for these tests; it secures no funds.
const testPrivateKeyHex = "4646464646464646464646464646464646464646464646464646464646464646"

func TestAssertRejectsChainIDMismatch(t *testing.T) {
	w, _ := newTestWallet(t, 1)
	env := &TransactionEnvelope{Kind: London, ChainID: 5, MaxFeePerGas: big.NewInt(10), MaxPriorityFeePerGas: big.NewInt(1)}
	err := w.Assert(env)
	require.Error(t, err)
	require.True(t, errors.Is(err, provider.Err(provider.InvalidChainId)))
}

// TestAssertPermitsLegacyZeroChainID covers the pre-EIP-155 exception: a
// legacy envelope with chain_id==0 is allowed regardless of network.chain_id.
func TestAssertPermitsLegacyZeroChainID(t *testing.T) {
	w, _ := newTestWallet(t, 1)
	env := &TransactionEnvelope{Kind: Legacy, ChainID: 0, GasPrice: big.NewInt(1)}
	require.NoError(t, w.Assert(env))
}

func TestAssertAcceptsMatchingChainID(t *testing.T) {
	w, _ := newTestWallet(t, 1)
	env := &TransactionEnvelope{Kind: Legacy, ChainID: 1, GasPrice: big.NewInt(1)}
	require.NoError(t, w.Assert(env))
}

func TestAssertRejectsPriorityFeeAboveMaxFee(t *testing.T) {
	w, _ := newTestWallet(t, 1)
	env := &TransactionEnvelope{
		Kind: London, ChainID: 1,
		MaxFeePerGas:         big.NewInt(100),
		MaxPriorityFeePerGas: big.NewInt(200),
	}
	err := w.Assert(env)
	require.Error(t, err)
	require.True(t, errors.Is(err, provider.Err(provider.TransactionTipToHigh)))
}

// TestAssertRejectsBlobTransactionWithoutTo covers the literal end-to-end
// scenario: a cancun envelope with a nil To (contract creation) is rejected
// as CreateBlobTransaction, since blob transactions may never create.
func TestAssertRejectsBlobTransactionWithoutTo(t *testing.T) {
	w, _ := newTestWallet(t, 1)
	env := &TransactionEnvelope{
		Kind: Cancun, ChainID: 1,
		To:                  nil,
		BlobVersionedHashes: []common.Hash{{0x01}},
	}
	err := w.Assert(env)
	require.Error(t, err)
	require.True(t, errors.Is(err, provider.Err(provider.CreateBlobTransaction)))
}

func TestAssertRejectsEmptyBlobs(t *testing.T) {
	w, _ := newTestWallet(t, 1)
	to := common.HexToAddress("0x000000000000000000000000000000000000ff")
	env := &TransactionEnvelope{
		Kind: Cancun, ChainID: 1,
		To:                  &to,
		BlobVersionedHashes: nil,
	}
	err := w.Assert(env)
	require.Error(t, err)
	require.True(t, errors.Is(err, provider.Err(provider.EmptyBlobs)))
}

func TestAssertRejectsTooManyBlobs(t *testing.T) {
	w, _ := newTestWallet(t, 1)
	to := common.HexToAddress("0x000000000000000000000000000000000000ff")
	hashes := make([]common.Hash, MaxBlobNumberPerBlock+1)
	for i := range hashes {
		hashes[i][0] = blobCommitmentVersion
	}
	env := &TransactionEnvelope{
		Kind: Cancun, ChainID: 1,
		To:                  &to,
		BlobVersionedHashes: hashes,
	}
	err := w.Assert(env)
	require.Error(t, err)
	require.True(t, errors.Is(err, provider.Err(provider.TooManyBlobs)))
}

func TestAssertRejectsBadBlobVersionByte(t *testing.T) {
	w, _ := newTestWallet(t, 1)
	to := common.HexToAddress("0x000000000000000000000000000000000000ff")
	var bad common.Hash
	bad[0] = 0x02
	env := &TransactionEnvelope{
		Kind: Cancun, ChainID: 1,
		To:                  &to,
		BlobVersionedHashes: []common.Hash{bad},
	}
	err := w.Assert(env)
	require.Error(t, err)
	require.True(t, errors.Is(err, provider.Err(provider.BlobVersionNotSupported)))
}
