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

package opstack

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithdrawalHashIsDeterministic(t *testing.T) {
	wtx := WithdrawalTransaction{
		Nonce:    big.NewInt(1),
		Sender:   common.HexToAddress("0x00000000000000000000000000000000000001"),
		Target:   common.HexToAddress("0x00000000000000000000000000000000000002"),
		Value:    big.NewInt(0),
		GasLimit: big.NewInt(100000),
		Data:     []byte{0xde, 0xad, 0xbe, 0xef},
	}

	h1, err := WithdrawalHash(wtx)
	require.NoError(t, err)
	h2, err := WithdrawalHash(wtx)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, common.Hash{}, h1)
}

func TestWithdrawalHashChangesWithNonce(t *testing.T) {
	base := WithdrawalTransaction{
		Nonce:    big.NewInt(1),
		Sender:   common.HexToAddress("0x00000000000000000000000000000000000001"),
		Target:   common.HexToAddress("0x00000000000000000000000000000000000002"),
		Value:    big.NewInt(0),
		GasLimit: big.NewInt(100000),
	}
	h1, err := WithdrawalHash(base)
	require.NoError(t, err)

	bumped := base
	bumped.Nonce = big.NewInt(2)
	h2, err := WithdrawalHash(bumped)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestWithdrawalHashRejectsMissingFields(t *testing.T) {
	_, err := WithdrawalHash(WithdrawalTransaction{})
	require.Error(t, err)
}
