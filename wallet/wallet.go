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
	"math/big"

	gokzg "github.com/crate-crypto/go-eth-kzg"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/r5-labs/ethrpc/provider"
)

// Wallet is the transaction pipeline from spec.md §4.5: it holds a
// reference to a Provider (owned or borrowed), and exclusively owns its
// NonceManager and envelope pool. A Wallet is bound to a single signer and
// hence a single sending address.
type Wallet struct {
	p      *provider.Provider
	signer Signer
	nonce  *NonceManager
	pool   *pool

	trustedSetup *gokzg.Context // loaded lazily, only needed by SendBlob
}

// New builds a Wallet sending from signer's address over p.
func New(p *provider.Provider, signer Signer) *Wallet {
	return &Wallet{
		p:      p,
		signer: signer,
		nonce:  NewNonceManager(signer.Address()),
		pool:   newPool(),
	}
}

// Address returns the wallet's sending address.
func (w *Wallet) Address() common.Address { return w.signer.Address() }

// PoolLen reports how many prepared-and-asserted envelopes currently sit in
// the envelope pool.
func (w *Wallet) PoolLen() int { return w.pool.Len() }

// Prepare implements spec.md §4.5's prepare(unprepared) -> TransactionEnvelope:
// every missing field is filled from chain state, and the caller's Kind
// discriminant is matched exhaustively — an unrecognized kind (or the
// out-of-scope "deposit" type) is UnsupportedTransactionType.
func (w *Wallet) Prepare(ctx context.Context, u *UnpreparedTransactionEnvelope) (*TransactionEnvelope, error) {
	switch u.Kind {
	case Legacy, Berlin, London, Cancun, EIP7702:
	default:
		return nil, provider.Err(provider.UnsupportedTransactionType)
	}

	cfg := w.p.Config()
	e := &TransactionEnvelope{
		Kind:  u.Kind,
		To:    u.To,
		Data:  u.Data,
		Value: valueOrZero(u.Value),
	}

	if u.ChainID != nil {
		e.ChainID = *u.ChainID
	} else {
		e.ChainID = cfg.ChainID
	}

	if u.Nonce != nil {
		e.Nonce = *u.Nonce
	} else {
		n, err := w.nonce.Update(ctx, w.p)
		if err != nil {
			return nil, err
		}
		e.Nonce = n
	}

	if u.Kind.hasAccessList() {
		e.AccessList = u.AccessList
		if e.AccessList == nil {
			e.AccessList = types.AccessList{}
		}
	}
	if u.Kind == EIP7702 {
		e.AuthorizationList = u.AuthorizationList
		if e.AuthorizationList == nil {
			e.AuthorizationList = []AuthorizationPayload{}
		}
	}
	if u.Kind == Cancun {
		e.BlobVersionedHashes = u.BlobVersionedHashes
		if e.BlobVersionedHashes == nil {
			e.BlobVersionedHashes = []common.Hash{}
		}
		e.Blobs = u.Blobs
	}

	if err := w.prepareFees(ctx, u, e); err != nil {
		return nil, err
	}

	gas, err := w.p.EstimateGas(ctx, w.callShape(e))
	if err != nil {
		return nil, err
	}
	e.Gas = gas
	if u.Gas != nil {
		e.Gas = *u.Gas
	}

	return e, nil
}

// prepareFees fills e's fee fields per spec.md §4.3, delegated to
// provider.EstimateFeesPerGas against the current base fee, and (for
// cancun) the blob max fee per gas.
func (w *Wallet) prepareFees(ctx context.Context, u *UnpreparedTransactionEnvelope, e *TransactionEnvelope) error {
	kind := provider.LegacyFees
	if u.Kind.isLondonFeeShape() {
		kind = provider.LondonFees
	}
	est, err := w.p.EstimateFeesPerGas(ctx, kind, nil, provider.FeeOverrides{
		GasPrice:             u.GasPrice,
		MaxPriorityFeePerGas: u.MaxPriorityFeePerGas,
		MaxFeePerGas:         u.MaxFeePerGas,
	})
	if err != nil {
		return err
	}
	switch est.Kind {
	case provider.LegacyFees:
		e.GasPrice = est.GasPrice
	case provider.LondonFees:
		e.MaxPriorityFeePerGas = est.MaxPriorityFeePerGas
		e.MaxFeePerGas = est.MaxFeePerGas
	}

	if u.Kind == Cancun {
		if u.MaxFeePerBlobGas != nil {
			e.MaxFeePerBlobGas = u.MaxFeePerBlobGas
			return nil
		}
		gasPrice, err := w.p.GasPrice(ctx)
		if err != nil {
			return err
		}
		block, err := w.p.BlockByNumber(ctx, provider.Latest)
		if err != nil {
			return err
		}
		blobBaseFee := block.BaseFee()
		if blobBaseFee == nil {
			blobBaseFee = big.NewInt(0)
		}
		e.MaxFeePerBlobGas = provider.EstimateBlobMaxFeePerGas(gasPrice, blobBaseFee)
	}
	return nil
}

// callShape projects e onto the shape eth_estimateGas expects.
func (w *Wallet) callShape(e *TransactionEnvelope) provider.CallMsg {
	msg := provider.CallMsg{
		From:  w.signer.Address(),
		To:    e.To,
		Data:  e.Data,
		Value: e.Value,
	}
	if e.GasPrice != nil {
		msg.GasPrice = e.GasPrice
	}
	if e.MaxFeePerGas != nil {
		msg.GasFeeCap = e.MaxFeePerGas
		msg.GasTipCap = e.MaxPriorityFeePerGas
	}
	return msg
}

// Assert implements spec.md §4.5's assert(envelope): the closed set of
// pre-send rejections. A legacy envelope with chain_id==0 is permitted (the
// pre-EIP-155 shape); every other variant must match network.chain_id.
func (w *Wallet) Assert(e *TransactionEnvelope) error {
	cfg := w.p.Config()
	if !(e.Kind == Legacy && e.ChainID == 0) && e.ChainID != cfg.ChainID {
		return provider.Err(provider.InvalidChainId)
	}
	if e.Kind.isLondonFeeShape() {
		if e.MaxPriorityFeePerGas != nil && e.MaxFeePerGas != nil &&
			e.MaxPriorityFeePerGas.Cmp(e.MaxFeePerGas) > 0 {
			return provider.Err(provider.TransactionTipToHigh)
		}
	}
	if e.Kind == Cancun {
		if e.To == nil {
			return provider.Err(provider.CreateBlobTransaction)
		}
		if len(e.BlobVersionedHashes) == 0 {
			return provider.Err(provider.EmptyBlobs)
		}
		if len(e.BlobVersionedHashes) > MaxBlobNumberPerBlock {
			return provider.Err(provider.TooManyBlobs)
		}
		for _, h := range e.BlobVersionedHashes {
			if h[0] != blobCommitmentVersion {
				return provider.Err(provider.BlobVersionNotSupported)
			}
		}
	}
	return nil
}

// Send implements spec.md §4.5's send(unprepared): reuse a pooled envelope
// if one is available, else prepare, assert, sign, and submit.
func (w *Wallet) Send(ctx context.Context, u *UnpreparedTransactionEnvelope) (common.Hash, error) {
	e := w.pool.PopLast()
	if e == nil {
		var err error
		e, err = w.Prepare(ctx, u)
		if err != nil {
			return common.Hash{}, err
		}
	}
	return w.sendEnvelope(ctx, e)
}

func (w *Wallet) sendEnvelope(ctx context.Context, e *TransactionEnvelope) (common.Hash, error) {
	if err := w.Assert(e); err != nil {
		return common.Hash{}, err
	}
	raw, err := e.Sign(w.signer)
	if err != nil {
		return common.Hash{}, err
	}
	return w.p.SendRawTransaction(ctx, raw)
}

// LoadTrustedSetup installs the KZG trusted setup SendBlob needs. Callers
// load it once at startup (spec.md §1 treats the trusted setup itself as an
// external collaborator referenced only by capability).
func (w *Wallet) LoadTrustedSetup(ctx *gokzg.Context) {
	w.trustedSetup = ctx
}

// SendBlob implements spec.md §4.5's send_blob(blobs, unprepared, trusted_setup):
// identical to Send, but requires a cancun envelope and a loaded KZG trusted
// setup, and additionally encodes the blob sidecar alongside the envelope.
func (w *Wallet) SendBlob(ctx context.Context, blobs [][]byte, u *UnpreparedTransactionEnvelope) (common.Hash, error) {
	if u.Kind != Cancun {
		return common.Hash{}, provider.Err(provider.UnsupportedTransactionType)
	}
	if w.trustedSetup == nil {
		return common.Hash{}, provider.Wrap(provider.CreateBlobTransaction, "no KZG trusted setup loaded", nil)
	}
	sidecar, err := kzgBlobSidecar(w.trustedSetup, blobs)
	if err != nil {
		return common.Hash{}, err
	}
	u.BlobVersionedHashes = blobVersionedHashes(sidecar)
	u.Blobs = blobs

	e, err := w.Prepare(ctx, u)
	if err != nil {
		return common.Hash{}, err
	}
	e.blobSidecar = sidecar
	return w.sendEnvelope(ctx, e)
}

// SearchPoolAndSend implements spec.md §4.5's search_pool_and_send: a
// tail-to-head scan of the pool for an envelope matching (kind, nonce);
// first match wins. A miss is TransactionNotFoundInPool.
func (w *Wallet) SearchPoolAndSend(ctx context.Context, kind Kind, nonce uint64) (common.Hash, error) {
	e := w.pool.Find(kind, nonce)
	if e == nil {
		return common.Hash{}, provider.Err(provider.TransactionNotFoundInPool)
	}
	return w.sendEnvelope(ctx, e)
}

// PreparePooled runs Prepare and Assert, then pushes the result onto the
// envelope pool without submitting it — the pool invariant from spec.md §3
// that every pooled element already satisfies Assert at insertion time.
func (w *Wallet) PreparePooled(ctx context.Context, u *UnpreparedTransactionEnvelope) error {
	e, err := w.Prepare(ctx, u)
	if err != nil {
		return err
	}
	if err := w.Assert(e); err != nil {
		return err
	}
	w.pool.Push(e)
	return nil
}

// WaitForReceipt delegates to the Provider's receipt-wait loop
// (spec.md §4.5's wait_for_receipt), the shared implementation also used
// directly by Provider callers that never go through a Wallet.
func (w *Wallet) WaitForReceipt(ctx context.Context, hash common.Hash, confirmations uint64) (*types.Receipt, error) {
	return w.p.WaitForReceipt(ctx, hash, confirmations)
}
