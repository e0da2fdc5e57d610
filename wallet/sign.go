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
	"math/big"

	gokzg "github.com/crate-crypto/go-eth-kzg"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/crypto/kzg4844"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/r5-labs/ethrpc/provider"
)

// eip7702AuthorizationTag is the 0x05 magic byte spec.md §6 prefixes onto
// an authorization payload's RLP preimage before hashing.
const eip7702AuthorizationTag = 0x05

// authorizationDigest computes the Keccak-256 digest an EIP-7702
// authorization is signed over: keccak256(0x05 ‖ rlp([chain_id, address, nonce])).
func authorizationDigest(chainID uint64, address common.Address, nonce uint64) ([32]byte, error) {
	payload, err := rlp.EncodeToBytes([]interface{}{chainID, address, nonce})
	if err != nil {
		return [32]byte{}, err
	}
	preimage := append([]byte{eip7702AuthorizationTag}, payload...)
	return crypto.Keccak256Hash(preimage), nil
}

// SignAuthorization signs an EIP-7702 authorization tuple with signer's
// key, returning the populated AuthorizationPayload.
func SignAuthorization(signer Signer, chainID uint64, address common.Address, nonce uint64) (AuthorizationPayload, error) {
	digest, err := authorizationDigest(chainID, address, nonce)
	if err != nil {
		return AuthorizationPayload{}, provider.Wrap(provider.InvalidInput, "failed to encode authorization preimage", err)
	}
	sig, err := signer.SignHash(digest)
	if err != nil {
		return AuthorizationPayload{}, provider.Wrap(provider.InvalidInput, "failed to sign authorization", err)
	}
	return AuthorizationPayload{
		ChainID: chainID,
		Address: address,
		Nonce:   nonce,
		YParity: sig[64],
		R:       new(big.Int).SetBytes(sig[:32]),
		S:       new(big.Int).SetBytes(sig[32:64]),
	}, nil
}

// authorizationRLPItem is the six-item list an eip7702 envelope's
// authorization_list serializes each entry as: [chain_id, address, nonce,
// y_parity, r, s].
func authorizationRLPItem(a AuthorizationPayload) []interface{} {
	return []interface{}{a.ChainID, a.Address, a.Nonce, a.YParity, a.R, a.S}
}

// toTypedData builds the go-ethereum TxData this envelope's kind maps onto.
// Legacy/Berlin/London/Cancun reduce directly to go-ethereum's own tx
// types, so signing and RLP serialization are fully delegated to the
// upstream library (spec.md §1 scopes the RLP serializer as an external
// collaborator). EIP7702 has no upstream TxData counterpart in this
// library's go-ethereum version, so it is serialized by hand below.
func (e *TransactionEnvelope) toTypedData() types.TxData {
	switch e.Kind {
	case Legacy:
		return &types.LegacyTx{
			Nonce:    e.Nonce,
			GasPrice: e.GasPrice,
			Gas:      e.Gas,
			To:       e.To,
			Value:    valueOrZero(e.Value),
			Data:     e.Data,
		}
	case Berlin:
		return &types.AccessListTx{
			ChainID:    new(big.Int).SetUint64(e.ChainID),
			Nonce:      e.Nonce,
			GasPrice:   e.GasPrice,
			Gas:        e.Gas,
			To:         e.To,
			Value:      valueOrZero(e.Value),
			Data:       e.Data,
			AccessList: e.AccessList,
		}
	case London:
		return &types.DynamicFeeTx{
			ChainID:    new(big.Int).SetUint64(e.ChainID),
			Nonce:      e.Nonce,
			GasTipCap:  e.MaxPriorityFeePerGas,
			GasFeeCap:  e.MaxFeePerGas,
			Gas:        e.Gas,
			To:         e.To,
			Value:      valueOrZero(e.Value),
			Data:       e.Data,
			AccessList: e.AccessList,
		}
	case Cancun:
		blobHashes := make([]common.Hash, len(e.BlobVersionedHashes))
		copy(blobHashes, e.BlobVersionedHashes)
		data := &types.BlobTx{
			ChainID:    uint256.NewInt(e.ChainID),
			Nonce:      e.Nonce,
			GasTipCap:  uint256.MustFromBig(e.MaxPriorityFeePerGas),
			GasFeeCap:  uint256.MustFromBig(e.MaxFeePerGas),
			Gas:        e.Gas,
			To:         *e.To,
			Value:      uint256.MustFromBig(valueOrZero(e.Value)),
			Data:       e.Data,
			AccessList: e.AccessList,
			BlobFeeCap: uint256.MustFromBig(e.MaxFeePerBlobGas),
			BlobHashes: blobHashes,
		}
		if e.blobSidecar != nil {
			data.Sidecar = e.blobSidecar
		}
		return data
	default:
		return nil
	}
}

// Sign serializes e per its kind, hashes it with Keccak-256, and signs with
// signer's key, returning the RLP-encoded signed envelope ready for
// eth_sendRawTransaction (spec.md §4.5 step 3). The pluggable Signer
// abstraction (in-memory key or keystore account) means go-ethereum's own
// types.SignTx/SignNewTx helpers — which take a raw *ecdsa.PrivateKey — are
// bypassed in favor of hashing with the tx type's own Signer and calling
// WithSignature directly, which accepts any (v, r, s) however produced.
func (e *TransactionEnvelope) Sign(signer Signer) ([]byte, error) {
	if e.Kind == EIP7702 {
		return e.signEIP7702(signer)
	}
	tx := types.NewTx(e.toTypedData())
	ethSigner := signerFor(e.Kind, e.ChainID)
	digest := ethSigner.Hash(tx)
	sig, err := signer.SignHash(digest)
	if err != nil {
		return nil, provider.Wrap(provider.InvalidInput, "failed to sign transaction", err)
	}
	signedTx, err := tx.WithSignature(ethSigner, sig)
	if err != nil {
		return nil, provider.Wrap(provider.InvalidInput, "failed to attach signature", err)
	}
	raw, err := signedTx.MarshalBinary()
	if err != nil {
		return nil, provider.Wrap(provider.InvalidInput, "failed to encode signed transaction", err)
	}
	e.V, e.R, e.S = signedTx.RawSignatureValues()
	return raw, nil
}

// signEIP7702 hand-serializes the EIP-2718 type-0x04 envelope: this
// library's go-ethereum version predates upstream SetCodeTx support, so the
// wire format is built directly from the RLP primitives spec.md §6 names
// rather than delegated to a types.TxData variant.
func (e *TransactionEnvelope) signEIP7702(signer Signer) ([]byte, error) {
	authList := make([][]interface{}, len(e.AuthorizationList))
	for i, a := range e.AuthorizationList {
		authList[i] = authorizationRLPItem(a)
	}
	fields := []interface{}{
		e.ChainID,
		e.Nonce,
		e.MaxPriorityFeePerGas,
		e.MaxFeePerGas,
		e.Gas,
		e.To,
		valueOrZero(e.Value),
		e.Data,
		e.AccessList,
		authList,
	}
	unsigned, err := rlp.EncodeToBytes(fields)
	if err != nil {
		return nil, provider.Wrap(provider.InvalidInput, "failed to encode eip7702 envelope", err)
	}
	payload := append([]byte{0x04}, unsigned...)
	digest := crypto.Keccak256Hash(payload)
	sig, err := signer.SignHash(digest)
	if err != nil {
		return nil, provider.Wrap(provider.InvalidInput, "failed to sign eip7702 transaction", err)
	}
	yParity := uint64(sig[64])
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	e.V, e.R, e.S = new(big.Int).SetUint64(yParity), r, s

	signedFields := append(fields, yParity, r, s)
	signedBody, err := rlp.EncodeToBytes(signedFields)
	if err != nil {
		return nil, provider.Wrap(provider.InvalidInput, "failed to encode signed eip7702 envelope", err)
	}
	return append([]byte{0x04}, signedBody...), nil
}

// signerFor returns the go-ethereum Signer matching e's fee shape and
// chain id, the hashing/encoding rulebook types.SignTx/WithSignature apply.
func signerFor(kind Kind, chainID uint64) types.Signer {
	id := new(big.Int).SetUint64(chainID)
	switch kind {
	case Legacy:
		if chainID == 0 {
			return types.HomesteadSigner{}
		}
		return types.NewEIP155Signer(id)
	case Berlin:
		return types.NewEIP2930Signer(id)
	case London:
		return types.NewLondonSigner(id)
	case Cancun:
		return types.NewCancunSigner(id)
	default:
		return types.NewLondonSigner(id)
	}
}

func valueOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

// kzgBlobSidecar builds the KZG commitments/proofs sidecar for SendBlob.
// spec.md §1 scopes "KZG trusted-setup blob commitments" as an external
// collaborator referenced only by capability; the actual field arithmetic
// is delegated to go-eth-kzg's context (trustedSetup), with go-ethereum's
// own kzg4844 struct types used purely as the wire/sidecar representation
// types.BlobTxSidecar expects.
func kzgBlobSidecar(trustedSetup *gokzg.Context, blobs [][]byte) (*types.BlobTxSidecar, error) {
	if len(blobs) == 0 {
		return nil, provider.Err(provider.EmptyBlobs)
	}
	if len(blobs) > MaxBlobNumberPerBlock {
		return nil, provider.Err(provider.TooManyBlobs)
	}
	sidecar := &types.BlobTxSidecar{}
	for _, raw := range blobs {
		if len(raw) != len(kzg4844.Blob{}) {
			return nil, provider.Wrap(provider.CreateBlobTransaction, "blob has the wrong size", nil)
		}
		var crateBlob gokzg.Blob
		copy(crateBlob[:], raw)

		commitment, err := trustedSetup.BlobToKZGCommitment(&crateBlob, 0)
		if err != nil {
			return nil, provider.Wrap(provider.CreateBlobTransaction, "failed to compute blob commitment", err)
		}
		proof, err := trustedSetup.ComputeBlobKZGProof(&crateBlob, commitment, 0)
		if err != nil {
			return nil, provider.Wrap(provider.CreateBlobTransaction, "failed to compute blob proof", err)
		}

		var gethBlob kzg4844.Blob
		var gethCommitment kzg4844.Commitment
		var gethProof kzg4844.Proof
		copy(gethBlob[:], raw)
		copy(gethCommitment[:], commitment[:])
		copy(gethProof[:], proof[:])

		sidecar.Blobs = append(sidecar.Blobs, gethBlob)
		sidecar.Commitments = append(sidecar.Commitments, gethCommitment)
		sidecar.Proofs = append(sidecar.Proofs, gethProof)
	}
	if err := sidecar.ToV1(); err != nil {
		return nil, provider.Wrap(provider.CreateBlobTransaction, "failed to build v1 blob sidecar", err)
	}
	return sidecar, nil
}

// blobVersionedHashes derives the EIP-4844 versioned hashes a signed
// sidecar implies, the form TransactionEnvelope.BlobVersionedHashes and
// assert's KZG-version-byte check expect.
func blobVersionedHashes(sidecar *types.BlobTxSidecar) []common.Hash {
	return sidecar.BlobHashes()
}
