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
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// BlockTag is either a named tag ("latest", "pending", "earliest",
// "safe", "finalized") or a specific block number.
type BlockTag struct {
	tag    string
	number *big.Int
}

var (
	Latest    = BlockTag{tag: "latest"}
	Pending   = BlockTag{tag: "pending"}
	Earliest  = BlockTag{tag: "earliest"}
	Safe      = BlockTag{tag: "safe"}
	Finalized = BlockTag{tag: "finalized"}
)

// AtBlock pins a BlockTag to a specific block number.
func AtBlock(number uint64) BlockTag {
	return BlockTag{number: new(big.Int).SetUint64(number)}
}

func (t BlockTag) param() string {
	if t.number != nil {
		return hexutil.EncodeBig(t.number)
	}
	if t.tag == "" {
		return "latest"
	}
	return t.tag
}

// CallMsg mirrors ethereum.CallMsg, the shape eth_call/eth_estimateGas take.
type CallMsg = ethereum.CallMsg

// --- Block and transaction lookups ---

// Block is a decoded eth_getBlockBy* result. It wraps the standard header
// plus, when requested with fullTx, the block's transaction objects. A
// dedicated type (rather than go-ethereum's own types.Block, whose
// constructors are RLP/consensus-oriented) keeps this package decoupled
// from the exact shape of block-body construction helpers upstream.
type Block struct {
	Header       *types.Header
	Hash         common.Hash
	Transactions []*types.Transaction
}

// Number returns the block's number.
func (b *Block) Number() *big.Int { return b.Header.Number }

// BaseFee returns the block's EIP-1559 base fee, or nil pre-London.
func (b *Block) BaseFee() *big.Int { return b.Header.BaseFee }

func (p *Provider) BlockByHash(ctx context.Context, hash common.Hash, fullTx bool) (*Block, error) {
	return p.blockCall(ctx, "eth_getBlockByHash", hash, fullTx, InvalidBlockHash)
}

func (p *Provider) BlockByNumber(ctx context.Context, tag BlockTag) (*Block, error) {
	return p.blockCall(ctx, "eth_getBlockByNumber", tag.param(), true, InvalidBlockNumber)
}

func (p *Provider) blockCall(ctx context.Context, method string, ref interface{}, fullTx bool, notFound ErrorKind) (*Block, error) {
	raw, found, err := p.callRawResult(ctx, method, ref, fullTx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, Err(notFound)
	}
	var rb rpcBlock
	if err := json.Unmarshal(raw, &rb); err != nil {
		return nil, Wrap(UnexpectedServerResponse, "failed to decode block", err)
	}
	return rb.toBlock(fullTx), nil
}

// rpcBlock is the wire shape of eth_getBlockBy* results, decoded field by
// field rather than through types.Block's RLP-oriented JSON tag set.
// Transactions is left as raw JSON because its shape (hashes vs full
// objects) depends on the fullTx argument the caller passed.
type rpcBlock struct {
	Hash          common.Hash     `json:"hash"`
	Number        *hexutil.Big    `json:"number"`
	ParentHash    common.Hash     `json:"parentHash"`
	Timestamp     hexutil.Uint64  `json:"timestamp"`
	GasLimit      hexutil.Uint64  `json:"gasLimit"`
	GasUsed       hexutil.Uint64  `json:"gasUsed"`
	BaseFeePerGas *hexutil.Big    `json:"baseFeePerGas"`
	Miner         common.Address  `json:"miner"`
	Transactions  json.RawMessage `json:"transactions"`
}

func (b *rpcBlock) toBlock(fullTx bool) *Block {
	h := &types.Header{
		ParentHash: b.ParentHash,
		Number:     b.Number.ToInt(),
		GasLimit:   uint64(b.GasLimit),
		GasUsed:    uint64(b.GasUsed),
		Time:       uint64(b.Timestamp),
		Coinbase:   b.Miner,
	}
	if b.BaseFeePerGas != nil {
		h.BaseFee = b.BaseFeePerGas.ToInt()
	}
	block := &Block{Header: h, Hash: b.Hash}
	if !fullTx {
		return block
	}
	var txs []*types.Transaction
	if err := json.Unmarshal(b.Transactions, &txs); err == nil {
		block.Transactions = txs
	}
	return block
}

func (p *Provider) TransactionByHash(ctx context.Context, hash common.Hash) (tx *types.Transaction, pending bool, err error) {
	raw, found, err := p.callRawResult(ctx, "eth_getTransactionByHash", hash)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, Err(TransactionNotFound)
	}
	var decoded types.Transaction
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, false, Wrap(UnexpectedServerResponse, "failed to decode transaction", err)
	}
	var meta struct {
		BlockNumber *hexutil.Big `json:"blockNumber"`
	}
	_ = json.Unmarshal(raw, &meta)
	return &decoded, meta.BlockNumber == nil, nil
}

func (p *Provider) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	var r types.Receipt
	found, err := p.callOptional(ctx, &r, "eth_getTransactionReceipt", hash)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, Err(TransactionReceiptNotFound)
	}
	return &r, nil
}

// --- Balance / nonce / storage / code reads ---

func (p *Provider) BalanceAt(ctx context.Context, addr common.Address, tag BlockTag) (*big.Int, error) {
	var result hexutil.Big
	if err := p.call(ctx, &result, "eth_getBalance", addr, tag.param()); err != nil {
		return nil, err
	}
	return (*big.Int)(&result), nil
}

func (p *Provider) NonceAt(ctx context.Context, addr common.Address, tag BlockTag) (uint64, error) {
	var result hexutil.Uint64
	if err := p.call(ctx, &result, "eth_getTransactionCount", addr, tag.param()); err != nil {
		return 0, err
	}
	return uint64(result), nil
}

func (p *Provider) StorageAt(ctx context.Context, addr common.Address, key common.Hash, tag BlockTag) ([]byte, error) {
	var result hexutil.Bytes
	if err := p.call(ctx, &result, "eth_getStorageAt", addr, key, tag.param()); err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Provider) CodeAt(ctx context.Context, addr common.Address, tag BlockTag) ([]byte, error) {
	var result hexutil.Bytes
	if err := p.call(ctx, &result, "eth_getCode", addr, tag.param()); err != nil {
		return nil, err
	}
	return result, nil
}

// --- Logs ---

func (p *Provider) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	arg, err := toFilterArg(q)
	if err != nil {
		return nil, Wrap(InvalidParams, "invalid filter query", err)
	}
	var logs []types.Log
	if err := p.call(ctx, &logs, "eth_getLogs", arg); err != nil {
		return nil, err
	}
	return logs, nil
}

func toFilterArg(q ethereum.FilterQuery) (interface{}, error) {
	arg := map[string]interface{}{
		"address": q.Addresses,
		"topics":  q.Topics,
	}
	if q.BlockHash != nil {
		arg["blockHash"] = *q.BlockHash
	} else {
		if q.FromBlock == nil {
			arg["fromBlock"] = "0x0"
		} else {
			arg["fromBlock"] = hexutil.EncodeBig(q.FromBlock)
		}
		if q.ToBlock == nil {
			arg["toBlock"] = "latest"
		} else {
			arg["toBlock"] = hexutil.EncodeBig(q.ToBlock)
		}
	}
	return arg, nil
}

// --- Filters ---

func (p *Provider) NewFilter(ctx context.Context, q ethereum.FilterQuery) (string, error) {
	arg, err := toFilterArg(q)
	if err != nil {
		return "", Wrap(InvalidParams, "invalid filter query", err)
	}
	var id string
	if err := p.call(ctx, &id, "eth_newFilter", arg); err != nil {
		return "", err
	}
	return id, nil
}

func (p *Provider) NewBlockFilter(ctx context.Context) (string, error) {
	var id string
	if err := p.call(ctx, &id, "eth_newBlockFilter"); err != nil {
		return "", err
	}
	return id, nil
}

func (p *Provider) FilterChanges(ctx context.Context, id string) ([]interface{}, error) {
	var result []interface{}
	found, err := p.callOptional(ctx, &result, "eth_getFilterChanges", id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, Err(InvalidFilterId)
	}
	return result, nil
}

func (p *Provider) UninstallFilter(ctx context.Context, id string) (bool, error) {
	var ok bool
	if err := p.call(ctx, &ok, "eth_uninstallFilter", id); err != nil {
		return false, err
	}
	return ok, nil
}

// --- Fee history / gas-price family ---

type FeeHistory struct {
	OldestBlock   *big.Int
	BaseFeePerGas []*big.Int
	GasUsedRatio  []float64
	Reward        [][]*big.Int
}

func (p *Provider) FeeHistory(ctx context.Context, blockCount uint64, newestBlock BlockTag, rewardPercentiles []float64) (*FeeHistory, error) {
	var raw struct {
		OldestBlock   *hexutil.Big   `json:"oldestBlock"`
		BaseFeePerGas []*hexutil.Big `json:"baseFeePerGas"`
		GasUsedRatio  []float64      `json:"gasUsedRatio"`
		Reward        [][]*hexutil.Big `json:"reward"`
	}
	if err := p.call(ctx, &raw, "eth_feeHistory", hexutil.Uint64(blockCount), newestBlock.param(), rewardPercentiles); err != nil {
		return nil, err
	}
	out := &FeeHistory{OldestBlock: raw.OldestBlock.ToInt(), GasUsedRatio: raw.GasUsedRatio}
	for _, b := range raw.BaseFeePerGas {
		out.BaseFeePerGas = append(out.BaseFeePerGas, b.ToInt())
	}
	for _, row := range raw.Reward {
		var r []*big.Int
		for _, v := range row {
			r = append(r, v.ToInt())
		}
		out.Reward = append(out.Reward, r)
	}
	return out, nil
}

func (p *Provider) GasPrice(ctx context.Context) (*big.Int, error) {
	var result hexutil.Big
	if err := p.call(ctx, &result, "eth_gasPrice"); err != nil {
		return nil, err
	}
	return (*big.Int)(&result), nil
}

func (p *Provider) MaxPriorityFeePerGas(ctx context.Context) (*big.Int, error) {
	var result hexutil.Big
	if err := p.call(ctx, &result, "eth_maxPriorityFeePerGas"); err != nil {
		return nil, err
	}
	return (*big.Int)(&result), nil
}

func (p *Provider) EstimateGas(ctx context.Context, msg CallMsg) (uint64, error) {
	var result hexutil.Uint64
	arg := toCallArg(msg)
	if err := p.call(ctx, &result, "eth_estimateGas", arg); err != nil {
		return 0, err
	}
	return uint64(result), nil
}

func (p *Provider) CreateAccessList(ctx context.Context, msg CallMsg) (*types.AccessList, uint64, error) {
	var raw struct {
		AccessList types.AccessList `json:"accessList"`
		GasUsed    hexutil.Uint64   `json:"gasUsed"`
		Error      string           `json:"error"`
	}
	if err := p.call(ctx, &raw, "eth_createAccessList", toCallArg(msg)); err != nil {
		return nil, 0, err
	}
	if raw.Error != "" {
		return nil, 0, Wrap(EvmFailedToExecute, raw.Error, nil)
	}
	return &raw.AccessList, uint64(raw.GasUsed), nil
}

func (p *Provider) Call(ctx context.Context, msg CallMsg, tag BlockTag) ([]byte, error) {
	var result hexutil.Bytes
	if err := p.call(ctx, &result, "eth_call", toCallArg(msg), tag.param()); err != nil {
		return nil, err
	}
	return result, nil
}

func toCallArg(msg CallMsg) map[string]interface{} {
	arg := map[string]interface{}{"to": msg.To}
	if msg.From != (common.Address{}) {
		arg["from"] = msg.From
	}
	if len(msg.Data) > 0 {
		arg["data"] = hexutil.Bytes(msg.Data)
	}
	if msg.Value != nil {
		arg["value"] = (*hexutil.Big)(msg.Value)
	}
	if msg.Gas != 0 {
		arg["gas"] = hexutil.Uint64(msg.Gas)
	}
	if msg.GasPrice != nil {
		arg["gasPrice"] = (*hexutil.Big)(msg.GasPrice)
	}
	if msg.GasFeeCap != nil {
		arg["maxFeePerGas"] = (*hexutil.Big)(msg.GasFeeCap)
	}
	if msg.GasTipCap != nil {
		arg["maxPriorityFeePerGas"] = (*hexutil.Big)(msg.GasTipCap)
	}
	return arg
}

// --- Raw transaction submit ---

func (p *Provider) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	var hash common.Hash
	if err := p.call(ctx, &hash, "eth_sendRawTransaction", hexutil.Encode(raw)); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// --- Generic node metadata ---

func (p *Provider) ChainID(ctx context.Context) (uint64, error) {
	var result hexutil.Uint64
	if err := p.call(ctx, &result, "eth_chainId"); err != nil {
		return 0, err
	}
	return uint64(result), nil
}

func (p *Provider) BlockNumber(ctx context.Context) (uint64, error) {
	var result hexutil.Uint64
	if err := p.call(ctx, &result, "eth_blockNumber"); err != nil {
		return 0, err
	}
	return uint64(result), nil
}

func (p *Provider) Accounts(ctx context.Context) ([]common.Address, error) {
	var addrs []common.Address
	if err := p.call(ctx, &addrs, "eth_accounts"); err != nil {
		return nil, err
	}
	return addrs, nil
}

func (p *Provider) ClientVersion(ctx context.Context) (string, error) {
	var v string
	if err := p.call(ctx, &v, "web3_clientVersion"); err != nil {
		return "", err
	}
	return v, nil
}

func (p *Provider) ProtocolVersion(ctx context.Context) (string, error) {
	var v string
	if err := p.call(ctx, &v, "eth_protocolVersion"); err != nil {
		return "", err
	}
	return v, nil
}

func (p *Provider) NetVersion(ctx context.Context) (string, error) {
	var v string
	if err := p.call(ctx, &v, "net_version"); err != nil {
		return "", err
	}
	return v, nil
}

func (p *Provider) NetPeerCount(ctx context.Context) (uint64, error) {
	var result hexutil.Uint64
	if err := p.call(ctx, &result, "net_peerCount"); err != nil {
		return 0, err
	}
	return uint64(result), nil
}

func (p *Provider) NetListening(ctx context.Context) (bool, error) {
	var ok bool
	if err := p.call(ctx, &ok, "net_listening"); err != nil {
		return false, err
	}
	return ok, nil
}

// --- txpool_* ---

type TxPoolStatus struct {
	Pending uint64
	Queued  uint64
}

func (p *Provider) TxPoolStatus(ctx context.Context) (*TxPoolStatus, error) {
	var raw struct {
		Pending hexutil.Uint64 `json:"pending"`
		Queued  hexutil.Uint64 `json:"queued"`
	}
	if err := p.call(ctx, &raw, "txpool_status"); err != nil {
		return nil, err
	}
	return &TxPoolStatus{Pending: uint64(raw.Pending), Queued: uint64(raw.Queued)}, nil
}

// TxPoolContent is keyed by sender address, then by nonce (decimal string),
// matching the txpool_content wire shape.
type TxPoolContent struct {
	Pending map[common.Address]map[string]*types.Transaction
	Queued  map[common.Address]map[string]*types.Transaction
}

func (p *Provider) TxPoolContent(ctx context.Context) (*TxPoolContent, error) {
	var raw struct {
		Pending map[common.Address]map[string]*types.Transaction `json:"pending"`
		Queued  map[common.Address]map[string]*types.Transaction `json:"queued"`
	}
	if err := p.call(ctx, &raw, "txpool_content"); err != nil {
		return nil, err
	}
	return &TxPoolContent{Pending: raw.Pending, Queued: raw.Queued}, nil
}

// TxPoolInspectResult mirrors txpool_inspect's wire shape: per sender
// address, per nonce, a human-readable "to: value wei + gasLimit × gasPrice"
// summary string.
type TxPoolInspectResult struct {
	Pending map[string]map[string]string `json:"pending"`
	Queued  map[string]map[string]string `json:"queued"`
}

func (p *Provider) TxPoolInspect(ctx context.Context) (*TxPoolInspectResult, error) {
	var raw TxPoolInspectResult
	if err := p.call(ctx, &raw, "txpool_inspect"); err != nil {
		return nil, err
	}
	return &raw, nil
}

// --- WS-only subscriptions ---

func (p *Provider) SubscribeNewHeads(ctx context.Context) (*Subscription, error) {
	return p.Subscribe(ctx, "newHeads")
}

func (p *Provider) SubscribeLogs(ctx context.Context, q ethereum.FilterQuery) (*Subscription, error) {
	arg, err := toFilterArg(q)
	if err != nil {
		return nil, Wrap(InvalidParams, "invalid filter query", err)
	}
	return p.Subscribe(ctx, "logs", arg)
}

func (p *Provider) SubscribeNewPendingTransactions(ctx context.Context) (*Subscription, error) {
	return p.Subscribe(ctx, "newPendingTransactions")
}

// SubscribeMethod opens an arbitrary method-string subscription, for
// extensions beyond the standard three (spec.md §4.2).
func (p *Provider) SubscribeMethod(ctx context.Context, method string, args ...interface{}) (*Subscription, error) {
	return p.Subscribe(ctx, method, args...)
}
