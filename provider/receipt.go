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
	"context"
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
)

// pendingTx is the subset of eth_getTransactionByHash's wire shape that a
// canonical types.Transaction drops: the sender, supplied by the node
// rather than recovered from the signature.
type pendingTx struct {
	tx   *types.Transaction
	from common.Address
}

func (p *Provider) pendingTransaction(ctx context.Context, hash common.Hash) (*pendingTx, error) {
	raw, found, err := p.callRawResult(ctx, "eth_getTransactionByHash", hash)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, Err(TransactionNotFound)
	}
	var tx types.Transaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, Wrap(UnexpectedServerResponse, "failed to decode transaction", err)
	}
	var meta struct {
		From common.Address `json:"from"`
	}
	_ = json.Unmarshal(raw, &meta)
	return &pendingTx{tx: &tx, from: meta.From}, nil
}

// WaitForReceipt implements spec.md §4.5's wait_for_receipt, bounded by
// Retries+1 polls spaced PoolingIntervalMS apart. A TransactionReceiptNotFound
// on any single poll is not fatal; exceeding the retry bound is
// FailedToGetReceipt.
func (p *Provider) WaitForReceipt(ctx context.Context, hash common.Hash, confirmations uint64) (*types.Receipt, error) {
	var (
		receipt      *types.Receipt
		validConfirm uint64
		interval     = time.Duration(p.cfg.PoolingIntervalMS) * time.Millisecond
		original     *pendingTx
	)

	for attempt := uint(0); attempt <= p.cfg.Retries; attempt++ {
		r, err := p.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			receipt = r
		case isKind(err, TransactionReceiptNotFound):
			// Not fatal; continue polling.
		default:
			return nil, err
		}

		if receipt == nil {
			if replaced := p.pollForReplacement(ctx, hash, &original); replaced != nil {
				receipt = replaced
			}
		}

		if receipt != nil {
			if confirmations == 0 {
				return receipt, nil
			}
			validConfirm++
			head, herr := p.BlockNumber(ctx)
			gapKnown := herr == nil && receipt.BlockNumber != nil
			var gap uint64
			if gapKnown {
				gap = head - receipt.BlockNumber.Uint64()
			}
			if validConfirm > confirmations && (receipt.BlockNumber != nil || (gapKnown && gap < confirmations)) {
				return receipt, nil
			}
		}

		if attempt == p.cfg.Retries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, Wrap(Disconnected, "context cancelled while waiting for receipt", ctx.Err())
		case <-time.After(interval):
		}
	}
	return nil, Err(FailedToGetReceipt)
}

// pollForReplacement implements spec.md §4.5's replacement detection: if
// the original transaction's receipt stays missing, fetch the latest block
// with transaction objects and look for a pending transaction from the same
// sender/nonce; treat it as the replacement and log whether it was a
// reprice (same value) or a cancel (self-send with zero value).
func (p *Provider) pollForReplacement(ctx context.Context, hash common.Hash, original **pendingTx) *types.Receipt {
	if *original == nil {
		tx, err := p.pendingTransaction(ctx, hash)
		if err != nil {
			return nil
		}
		*original = tx
	}
	block, err := p.blockWithSenders(ctx)
	if err != nil {
		return nil
	}
	for _, candidate := range block {
		if candidate.tx.Hash() == hash {
			continue
		}
		if candidate.tx.Nonce() != (*original).tx.Nonce() || candidate.from != (*original).from {
			continue
		}
		candidateTx := candidate.tx
		rr, rerr := p.TransactionReceipt(ctx, candidateTx.Hash())
		if rerr != nil {
			continue
		}
		if candidateTx.Value().Cmp((*original).tx.Value()) == 0 {
			log.Debug("original transaction was repriced", "hash", hash, "replacement", candidateTx.Hash())
		} else if candidateTx.Value().Sign() == 0 && candidateTx.To() != nil && *candidateTx.To() == candidate.from {
			log.Debug("original transaction was cancelled", "hash", hash, "replacement", candidateTx.Hash())
		}
		return rr
	}
	return nil
}

// blockWithSenders fetches the latest block with full transaction objects,
// preserving each transaction's sender. rpcBlock.toBlock's []*types.Transaction
// decode drops it, since go-ethereum's canonical transaction JSON shape has
// no "from" field — the node supplies it as a sibling field alongside the
// tx, the same way pendingTransaction reads it for a single-hash lookup.
func (p *Provider) blockWithSenders(ctx context.Context) ([]pendingTx, error) {
	raw, found, err := p.callRawResult(ctx, "eth_getBlockByNumber", Latest.param(), true)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, Err(InvalidBlockNumber)
	}
	var rb struct {
		Transactions []json.RawMessage `json:"transactions"`
	}
	if err := json.Unmarshal(raw, &rb); err != nil {
		return nil, Wrap(UnexpectedServerResponse, "failed to decode block", err)
	}
	txs := make([]pendingTx, 0, len(rb.Transactions))
	for _, rawTx := range rb.Transactions {
		var tx types.Transaction
		if err := json.Unmarshal(rawTx, &tx); err != nil {
			continue
		}
		var meta struct {
			From common.Address `json:"from"`
		}
		_ = json.Unmarshal(rawTx, &meta)
		txs = append(txs, pendingTx{tx: &tx, from: meta.From})
	}
	return txs, nil
}

func isKind(err error, kind ErrorKind) bool {
	pe, ok := err.(*Error)
	return ok && pe.Kind == kind
}
