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
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestEstimateMaxPriorityFeeManual covers spec.md §8 scenario 5: base_fee=100,
// gas_price=120 => priority=20.
func TestEstimateMaxPriorityFeeManual(t *testing.T) {
	got := EstimateMaxPriorityFeeManual(big.NewInt(120), big.NewInt(100))
	assert.Equal(t, big.NewInt(20), got)
}

// TestEstimateMaxPriorityFeeManualUnderflow confirms the max(0, ...) guard:
// a gas price below base fee must not go negative.
func TestEstimateMaxPriorityFeeManualUnderflow(t *testing.T) {
	got := EstimateMaxPriorityFeeManual(big.NewInt(50), big.NewInt(100))
	assert.Equal(t, big.NewInt(0), got)
}

// TestCeilMul covers the ceil(base_fee * base_fee_multiplier) + priority
// computation from spec.md §8 scenario 5: ceil(100*1.2)+20=140.
func TestCeilMul(t *testing.T) {
	maxFee := new(big.Int).Add(ceilMul(big.NewInt(100), 1.2), big.NewInt(20))
	assert.Equal(t, big.NewInt(140), maxFee)
}

// TestEstimateBlobMaxFeePerGas mirrors the EIP-1559 priority-fee underflow
// guard for EIP-4844's blob gas market.
func TestEstimateBlobMaxFeePerGas(t *testing.T) {
	assert.Equal(t, big.NewInt(30), EstimateBlobMaxFeePerGas(big.NewInt(130), big.NewInt(100)))
	assert.Equal(t, big.NewInt(0), EstimateBlobMaxFeePerGas(big.NewInt(80), big.NewInt(100)))
}
