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
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/r5-labs/ethrpc/provider"
)

// Batch is a fluent builder sitting in front of Aggregator.Aggregate3: each
// Add call encodes one method invocation via the teacher's
// accounts/abi.Method.Inputs.Pack pattern, deferring the actual network
// round-trip to a single Call.
type Batch struct {
	agg     *Aggregator
	calls   []Call
	methods []*abi.Method // positionally aligned with calls, for decode
}

// NewBatch starts an empty batch against agg.
func NewBatch(agg *Aggregator) *Batch {
	return &Batch{agg: agg}
}

// Add packs method(args...) as calldata against target and appends it to
// the batch.
func (b *Batch) Add(target common.Address, method *abi.Method, args ...interface{}) (*Batch, error) {
	packedArgs, err := method.Inputs.Pack(args...)
	if err != nil {
		return nil, provider.Wrap(provider.FailedToDecodeResponse, "failed to encode batch call "+method.Name, err)
	}
	data := append(append([]byte{}, method.ID...), packedArgs...)
	b.calls = append(b.calls, Call{Target: target, Data: data})
	b.methods = append(b.methods, method)
	return b, nil
}

// BatchResult is one decoded outcome: Success/ReturnData from the
// aggregate3 call, plus the caller's method decoded into Values when the
// sub-call succeeded.
type BatchResult struct {
	Success    bool
	ReturnData []byte
	Values     []interface{} // nil when Success is false
}

// Call submits the accumulated batch as a single aggregate3 eth_call and
// decodes each element's return data through its own method's Outputs.
func (b *Batch) Call(ctx context.Context, allowFailure bool) ([]BatchResult, error) {
	results, err := b.agg.Aggregate3(ctx, b.calls, allowFailure)
	if err != nil {
		return nil, err
	}

	out := make([]BatchResult, len(results))
	for i, r := range results {
		out[i] = BatchResult{Success: r.Success, ReturnData: r.ReturnData}
		if !r.Success || len(r.ReturnData) == 0 {
			continue
		}
		values, err := b.methods[i].Outputs.Unpack(r.ReturnData)
		if err != nil {
			return nil, provider.Wrap(provider.FailedToDecodeResponse, "failed to decode batch result "+b.methods[i].Name, err)
		}
		out[i].Values = values
	}
	return out, nil
}

// Len reports how many calls are queued in the batch.
func (b *Batch) Len() int { return len(b.calls) }
