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
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/r5-labs/ethrpc/provider"
	"github.com/r5-labs/ethrpc/wallet"
)

// withdrawalTupleArgs lists wtx's fields in the order of proveMethod/
// finalizeMethod's first tuple argument. Only WithdrawalHash packs with it;
// the prove/finalize calldata builders pack through those methods' own ABI.
var withdrawalTupleArgs = abi.Arguments{
	{Type: mustType("uint256")},
	{Type: mustType("address")},
	{Type: mustType("address")},
	{Type: mustType("uint256")},
	{Type: mustType("uint256")},
	{Type: mustType("bytes")},
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// WithdrawalHash computes the keccak256 hash OptimismPortal indexes proven
// withdrawals by: keccak256(abi.encode(nonce, sender, target, value,
// gasLimit, data)), the same preimage Hashing.hashWithdrawal uses on L1.
func WithdrawalHash(wtx WithdrawalTransaction) (common.Hash, error) {
	if wtx.Nonce == nil || wtx.Value == nil || wtx.GasLimit == nil {
		return common.Hash{}, provider.Err(provider.InvalidWithdrawalHash)
	}
	encoded, err := withdrawalTupleArgs.Pack(wtx.Nonce, wtx.Sender, wtx.Target, wtx.Value, wtx.GasLimit, wtx.Data)
	if err != nil {
		return common.Hash{}, provider.Wrap(provider.InvalidWithdrawalHash, "failed to encode withdrawal tuple", err)
	}
	return crypto.Keccak256Hash(encoded), nil
}

// WithdrawalTransaction mirrors the OptimismPortal's WithdrawalTransaction
// tuple: the L2ToL1MessagePasser-originated message being proved or
// finalized on L1.
type WithdrawalTransaction struct {
	Nonce    *big.Int
	Sender   common.Address
	Target   common.Address
	Value    *big.Int
	GasLimit *big.Int
	Data     []byte
}

// OutputRootProof mirrors the OptimismPortal's OutputRootProof tuple.
type OutputRootProof struct {
	Version                  [32]byte
	StateRoot                [32]byte
	MessagePasserStorageRoot [32]byte
	LatestBlockhash          [32]byte
}

// Prover submits withdrawal proof/finalization transactions against the
// configured OptimismPortal through a Wallet, once GetSecondsToNextGame (or
// an equivalent external check) says the withdrawal's dispute game is
// proved/finalizable. Named in spec.md §2's component table but left
// unspecified by the distillation (SPEC_FULL.md §7).
type Prover struct {
	client *Client
	wallet *wallet.Wallet
}

// NewProver builds a Prover against the same OP-Stack contracts c already
// resolved, submitting transactions through w.
func NewProver(c *Client, w *wallet.Wallet) *Prover {
	return &Prover{client: c, wallet: w}
}

// ProveWithdrawal submits proveWithdrawalTransaction against the portal for
// the given withdrawal, dispute game, and Merkle proof.
func (pr *Prover) ProveWithdrawal(
	ctx context.Context,
	wtx WithdrawalTransaction,
	disputeGameIndex *big.Int,
	outputRootProof OutputRootProof,
	withdrawalProof [][]byte,
) (common.Hash, error) {
	packed, err := proveMethod.Inputs.Pack(
		struct {
			Nonce    *big.Int
			Sender   common.Address
			Target   common.Address
			Value    *big.Int
			GasLimit *big.Int
			Data     []byte
		}{wtx.Nonce, wtx.Sender, wtx.Target, wtx.Value, wtx.GasLimit, wtx.Data},
		disputeGameIndex,
		struct {
			Version                  [32]byte
			StateRoot                [32]byte
			MessagePasserStorageRoot [32]byte
			LatestBlockhash          [32]byte
		}{outputRootProof.Version, outputRootProof.StateRoot, outputRootProof.MessagePasserStorageRoot, outputRootProof.LatestBlockhash},
		withdrawalProof,
	)
	if err != nil {
		return common.Hash{}, provider.Wrap(provider.FailedToDecodeResponse, "failed to encode proveWithdrawalTransaction", err)
	}
	calldata := append(append([]byte{}, proveMethod.ID...), packed...)
	return pr.send(ctx, calldata)
}

// isProven checks the portal's provenWithdrawals mapping, returning
// WithdrawalNotProved when no prove call has landed for wtx yet.
func (pr *Prover) isProven(ctx context.Context, wtx WithdrawalTransaction) error {
	hash, err := WithdrawalHash(wtx)
	if err != nil {
		return err
	}
	packed, err := provenWithdrawalsMethod.Inputs.Pack(hash, pr.wallet.Address())
	if err != nil {
		return provider.Wrap(provider.FailedToDecodeResponse, "failed to encode provenWithdrawals", err)
	}
	calldata := append(append([]byte{}, provenWithdrawalsMethod.ID...), packed...)
	raw, err := pr.client.call(ctx, pr.client.contracts.OptimismPortal, calldata)
	if err != nil {
		return err
	}
	values, err := provenWithdrawalsMethod.Outputs.Unpack(raw)
	if err != nil || len(values) != 2 {
		return provider.Wrap(provider.FailedToDecodeResponse, "failed to decode provenWithdrawals", err)
	}
	timestamp, ok := values[1].(uint64)
	if !ok {
		return provider.Err(provider.FailedToDecodeResponse)
	}
	if timestamp == 0 {
		return provider.Err(provider.WithdrawalNotProved)
	}
	return nil
}

// FinalizeWithdrawal submits finalizeWithdrawalTransaction against the
// portal once the withdrawal's challenge period has elapsed. It first
// confirms a prove call has already landed for wtx.
func (pr *Prover) FinalizeWithdrawal(ctx context.Context, wtx WithdrawalTransaction) (common.Hash, error) {
	if err := pr.isProven(ctx, wtx); err != nil {
		return common.Hash{}, err
	}
	packed, err := finalizeMethod.Inputs.Pack(struct {
		Nonce    *big.Int
		Sender   common.Address
		Target   common.Address
		Value    *big.Int
		GasLimit *big.Int
		Data     []byte
	}{wtx.Nonce, wtx.Sender, wtx.Target, wtx.Value, wtx.GasLimit, wtx.Data})
	if err != nil {
		return common.Hash{}, provider.Wrap(provider.FailedToDecodeResponse, "failed to encode finalizeWithdrawalTransaction", err)
	}
	calldata := append(append([]byte{}, finalizeMethod.ID...), packed...)
	return pr.send(ctx, calldata)
}

func (pr *Prover) send(ctx context.Context, calldata []byte) (common.Hash, error) {
	portal := pr.client.contracts.OptimismPortal
	return pr.wallet.Send(ctx, &wallet.UnpreparedTransactionEnvelope{
		Kind: wallet.London,
		To:   &portal,
		Data: calldata,
	})
}
