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
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer abstracts over the two key-custody modes this package supports: an
// in-memory private key, and a keystore-backed account unlocked by
// passphrase. Both reduce to "produce a secp256k1 signature over this
// Keccak-256 digest" (spec.md §6).
type Signer interface {
	Address() common.Address
	SignHash(digest [32]byte) (sig []byte, err error)
}

// privateKeySigner signs directly with an in-memory ECDSA key. It is the
// simplest Signer and the one Wallet's tests exercise.
type privateKeySigner struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

// NewPrivateKeySigner wraps an ECDSA private key as a Signer.
func NewPrivateKeySigner(key *ecdsa.PrivateKey) Signer {
	return &privateKeySigner{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

func (s *privateKeySigner) Address() common.Address { return s.addr }

func (s *privateKeySigner) SignHash(digest [32]byte) ([]byte, error) {
	return crypto.Sign(digest[:], s.key)
}

// keystoreSigner signs via a go-ethereum accounts/keystore-managed account,
// the custody mode the teacher's accounts/ tree is built around.
type keystoreSigner struct {
	ks      *keystore.KeyStore
	account accounts.Account
}

// NewKeystoreSigner wraps an unlocked keystore account as a Signer. The
// account must already be unlocked in ks (keystore.Unlock) before signing.
func NewKeystoreSigner(ks *keystore.KeyStore, account accounts.Account) Signer {
	return &keystoreSigner{ks: ks, account: account}
}

func (s *keystoreSigner) Address() common.Address { return s.account.Address }

func (s *keystoreSigner) SignHash(digest [32]byte) ([]byte, error) {
	return s.ks.SignHash(s.account, digest[:])
}
