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

// Package multicall implements spec.md §4.4's aggregator: a heterogeneous
// list of (target, calldata) pairs compiled into a single multicall3
// aggregate3(Call3[]) call, submitted as one eth_call, decoded back into an
// order-preserving slice of results.
package multicall

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/r5-labs/ethrpc/provider"
)

// aggregate3ABI is the minimal multicall3 interface this package drives.
// allow_failure is uniform across every element by design (spec.md §4.4):
// multicall3 itself exposes a per-call variant (aggregate3), but this
// package pins allowFailure to a single value for the whole batch rather
// than expose per-element control.
const aggregate3ABI = `[{
	"inputs": [{
		"components": [
			{"internalType":"address","name":"target","type":"address"},
			{"internalType":"bool","name":"allowFailure","type":"bool"},
			{"internalType":"bytes","name":"callData","type":"bytes"}
		],
		"internalType": "struct Multicall3.Call3[]",
		"name": "calls",
		"type": "tuple[]"
	}],
	"name": "aggregate3",
	"outputs": [{
		"components": [
			{"internalType":"bool","name":"success","type":"bool"},
			{"internalType":"bytes","name":"returnData","type":"bytes"}
		],
		"internalType": "struct Multicall3.Result[]",
		"name": "returnData",
		"type": "tuple[]"
	}],
	"stateMutability": "view",
	"type": "function"
}]`

var aggregate3Method abi.Method

func init() {
	parsed, err := abi.JSON(strings.NewReader(aggregate3ABI))
	if err != nil {
		panic(err)
	}
	aggregate3Method = parsed.Methods["aggregate3"]
}

// call3 mirrors Multicall3.Call3's tuple layout; field order (not name)
// drives go-ethereum's abi encoder when packing a struct into a tuple
// component, per the teacher's accounts/abi.Method.Inputs.Pack pattern.
type call3 struct {
	Target       common.Address
	AllowFailure bool
	CallData     []byte
}

// result mirrors Multicall3.Result's tuple layout, the decode-side twin of
// call3.
type result struct {
	Success    bool
	ReturnData []byte
}

// Call is one element of a batch: the target contract and the calldata to
// run against it.
type Call struct {
	Target common.Address
	Data   []byte
}

// Result is the decoded outcome of one Call, positionally aligned with the
// input slice.
type Result struct {
	Success    bool
	ReturnData []byte
}

// Aggregator drives multicall3 over p against the configured contract
// address.
type Aggregator struct {
	p       *provider.Provider
	address common.Address
}

// New builds an Aggregator targeting contract on p.
func New(p *provider.Provider, contract common.Address) *Aggregator {
	return &Aggregator{p: p, address: contract}
}

// Aggregate3 packs calls into a single aggregate3 calldata blob, submits it
// via eth_call, and decodes the order-preserving Result slice. allowFailure
// applies uniformly to every call; when false, the multicall contract
// itself reverts the whole batch on the first failing sub-call.
func (a *Aggregator) Aggregate3(ctx context.Context, calls []Call, allowFailure bool) ([]Result, error) {
	packed := make([]call3, len(calls))
	for i, c := range calls {
		packed[i] = call3{Target: c.Target, AllowFailure: allowFailure, CallData: c.Data}
	}

	calldata, err := aggregate3Method.Inputs.Pack(packed)
	if err != nil {
		return nil, provider.Wrap(provider.FailedToDecodeResponse, "failed to encode aggregate3 calldata", err)
	}
	calldata = append(append([]byte{}, aggregate3Method.ID...), calldata...)

	raw, err := a.p.Call(ctx, provider.CallMsg{To: &a.address, Data: calldata}, provider.Latest)
	if err != nil {
		return nil, err
	}

	decoded, err := aggregate3Method.Outputs.Unpack(raw)
	if err != nil || len(decoded) != 1 {
		return nil, provider.Wrap(provider.FailedToDecodeResponse, "failed to decode aggregate3 response", err)
	}
	rawResults, ok := decoded[0].([]struct {
		Success    bool
		ReturnData []byte
	})
	if !ok {
		return nil, provider.Wrap(provider.FailedToDecodeResponse, "unexpected aggregate3 result shape", nil)
	}

	out := make([]Result, len(rawResults))
	for i, r := range rawResults {
		out[i] = Result{Success: r.Success, ReturnData: r.ReturnData}
	}
	return out, nil
}
