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
	"math"
	"math/big"
)

// FeeKind selects which EIP-2718 fee shape a FeeEstimate describes.
type FeeKind int

const (
	LegacyFees FeeKind = iota
	LondonFees
)

// FeeEstimate is the result of EstimateFeesPerGas (spec.md §4.3): either a
// legacy gasPrice, or a london-shaped priority/max fee pair.
type FeeEstimate struct {
	Kind                  FeeKind
	GasPrice              *big.Int
	MaxPriorityFeePerGas  *big.Int
	MaxFeePerGas          *big.Int
}

// FeeOverrides lets a caller pin any subset of the fee fields; unset fields
// are computed per spec.md §4.3.
type FeeOverrides struct {
	GasPrice             *big.Int
	MaxPriorityFeePerGas *big.Int
	MaxFeePerGas         *big.Int
}

// EstimateFeesPerGas implements spec.md §4.3's estimate_fees_per_gas. If
// baseFee is nil, the latest block's baseFeePerGas is fetched; a nil
// baseFeePerGas there is UnableToFetchFeeInfoFromBlock.
func (p *Provider) EstimateFeesPerGas(ctx context.Context, kind FeeKind, baseFee *big.Int, overrides FeeOverrides) (*FeeEstimate, error) {
	if kind == LondonFees && baseFee == nil {
		block, err := p.BlockByNumber(ctx, Latest)
		if err != nil {
			return nil, err
		}
		if block.BaseFee() == nil {
			return nil, Err(UnableToFetchFeeInfoFromBlock)
		}
		baseFee = block.BaseFee()
	}

	if kind == LegacyFees {
		gasPrice := overrides.GasPrice
		if gasPrice == nil {
			fetched, err := p.GasPrice(ctx)
			if err != nil {
				return nil, err
			}
			gasPrice = ceilMul(fetched, p.cfg.BaseFeeMultiplier)
		}
		return &FeeEstimate{Kind: LegacyFees, GasPrice: gasPrice}, nil
	}

	priority := overrides.MaxPriorityFeePerGas
	if priority == nil {
		gasPrice, err := p.GasPrice(ctx)
		if err != nil {
			return nil, err
		}
		priority = EstimateMaxPriorityFeeManual(gasPrice, baseFee)
	}
	maxFee := overrides.MaxFeePerGas
	if maxFee == nil {
		maxFee = new(big.Int).Add(ceilMul(baseFee, p.cfg.BaseFeeMultiplier), priority)
	}
	if maxFee.Cmp(priority) < 0 {
		return nil, Err(MaxFeePerGasUnderflow)
	}
	return &FeeEstimate{Kind: LondonFees, MaxPriorityFeePerGas: priority, MaxFeePerGas: maxFee}, nil
}

// EstimateMaxPriorityFeeManual implements spec.md §4.3's
// estimate_max_priority_fee_manual: max(0, gasPrice - baseFee).
func EstimateMaxPriorityFeeManual(gasPrice, baseFee *big.Int) *big.Int {
	diff := new(big.Int).Sub(gasPrice, baseFee)
	if diff.Sign() < 0 {
		return big.NewInt(0)
	}
	return diff
}

// EstimateBlobMaxFeePerGas implements spec.md §4.3's
// estimate_blob_max_fee_per_gas: max(0, gasPrice - blobBaseFee).
func EstimateBlobMaxFeePerGas(gasPrice, blobBaseFee *big.Int) *big.Int {
	diff := new(big.Int).Sub(gasPrice, blobBaseFee)
	if diff.Sign() < 0 {
		return big.NewInt(0)
	}
	return diff
}

// ceilMul computes ceil(x * multiplier) for a float multiplier, the shape
// spec.md §4.3 applies to both base fee (london) and gas price (legacy).
func ceilMul(x *big.Int, multiplier float64) *big.Int {
	f := new(big.Float).SetInt(x)
	f.Mul(f, big.NewFloat(multiplier))
	rounded, _ := f.Float64()
	return big.NewInt(int64(math.Ceil(rounded)))
}
