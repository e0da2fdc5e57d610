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

// Package wallet implements the transaction preparation, assertion, signing
// and send pipeline described in spec.md §4.5-§4.6: a tagged-variant
// envelope over five EIP-2718 transaction kinds, a nonce manager with a
// local-cache-vs-network reconciliation rule, and a mutex-protected envelope
// pool consumed LIFO.
package wallet

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Kind discriminates the five transaction envelope variants spec.md §3
// names. Exhaustive switches on Kind should always carry a default branch
// that returns UnsupportedTransactionType (prepare) or panics (serialize) so
// a sixth variant can never silently fall through.
type Kind int

const (
	Legacy Kind = iota
	Berlin
	London
	Cancun
	EIP7702
)

func (k Kind) String() string {
	switch k {
	case Legacy:
		return "legacy"
	case Berlin:
		return "berlin"
	case London:
		return "london"
	case Cancun:
		return "cancun"
	case EIP7702:
		return "eip7702"
	default:
		return "unknown"
	}
}

// MaxBlobNumberPerBlock is EIP-4844's MAX_BLOB_NUMBER_PER_BLOCK-equivalent
// ceiling enforced at assert time (spec.md §4.5).
const MaxBlobNumberPerBlock = 6

// blobCommitmentVersion is the single-byte KZG commitment-version tag every
// versioned blob hash must carry (EIP-4844 §"Helpers").
const blobCommitmentVersion = 0x01

// AuthorizationPayload is the EIP-7702 authorization tuple from spec.md §3.
// The signed preimage is 0x05 ‖ rlp([chain_id, address, nonce]), hashed with
// Keccak-256 and signed with the authorizing EOA's key (spec.md §6).
type AuthorizationPayload struct {
	ChainID uint64
	Address common.Address
	Nonce   uint64
	YParity uint8
	R       *big.Int
	S       *big.Int
}

// TransactionEnvelope is the tagged variant described in spec.md §3: every
// field the union of all five kinds could need, with Kind selecting which
// subset is meaningful. Unlike go-ethereum's types.TxData family (whose
// concrete structs this package builds at serialize time), this type is the
// wallet's own in-flight representation, carried through prepare → assert →
// pool → sign.
type TransactionEnvelope struct {
	Kind Kind

	ChainID uint64
	Nonce   uint64
	To      *common.Address
	Value   *big.Int
	Data    []byte
	Gas     uint64

	// Legacy / Berlin fee shape.
	GasPrice *big.Int

	// London / Cancun / EIP7702 fee shape.
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int

	// Berlin / London / Cancun / EIP7702.
	AccessList types.AccessList

	// Cancun only.
	MaxFeePerBlobGas    *big.Int
	BlobVersionedHashes []common.Hash
	Blobs               [][]byte // raw blob data, only populated for SendBlob
	blobSidecar         *types.BlobTxSidecar

	// EIP7702 only.
	AuthorizationList []AuthorizationPayload

	// Set once Sign has run.
	V, R, S *big.Int
}

// UnpreparedTransactionEnvelope is the same shape with every field optional
// except Kind (spec.md §3); Wallet.Prepare fills the rest from chain state.
type UnpreparedTransactionEnvelope struct {
	Kind Kind

	ChainID *uint64
	Nonce   *uint64
	To      *common.Address
	Value   *big.Int
	Data    []byte
	Gas     *uint64

	GasPrice *big.Int

	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int

	AccessList types.AccessList

	MaxFeePerBlobGas    *big.Int
	BlobVersionedHashes []common.Hash
	Blobs               [][]byte

	AuthorizationList []AuthorizationPayload
}

// hasAccessList reports whether k's variant carries an access_list field.
func (k Kind) hasAccessList() bool {
	return k == Berlin || k == London || k == Cancun || k == EIP7702
}

// isLondonFeeShape reports whether k prices itself with max fee / priority
// fee rather than a flat gas price.
func (k Kind) isLondonFeeShape() bool {
	return k == London || k == Cancun || k == EIP7702
}
