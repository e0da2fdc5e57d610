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

// Package ens implements spec.md §4.7's three ENS operations
// (get_ens_address, get_ens_text, get_ens_name) plus the content-hash
// lookup that rounds out the universal resolver's general
// resolve(name, data) dispatch, all routed through a configured
// ens_universal_resolver contract.
package ens

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var errLabelTooLong = errors.New("ens: label exceeds 63 bytes")

// namehash implements EIP-137's recursive namehash algorithm: an empty name
// hashes to the zero hash, and each label is folded in from the right,
// keccak256(parent ‖ keccak256(label)).
func namehash(name string) common.Hash {
	node := common.Hash{}
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		labelHash := crypto.Keccak256Hash([]byte(labels[i]))
		node = crypto.Keccak256Hash(node[:], labelHash[:])
	}
	return node
}

// dnsEncode implements the DNS wire-format length-prefixed label encoding
// ENSIP-10 / the universal resolver's resolve(bytes,bytes) expects: each
// label prefixed by its single-byte length, terminated by a zero byte.
func dnsEncode(name string) ([]byte, error) {
	if name == "" {
		return []byte{0}, nil
	}
	labels := strings.Split(name, ".")
	var out []byte
	for _, label := range labels {
		if len(label) > 63 {
			return nil, errLabelTooLong
		}
		out = append(out, byte(len(label)))
		out = append(out, []byte(label)...)
	}
	out = append(out, 0)
	return out, nil
}

// reverseName builds the "<40-hex-lowercase>.addr.reverse" name ENS reverse
// resolution looks up, per spec.md §4.7's get_ens_name.
func reverseName(addr common.Address) string {
	hex := strings.ToLower(strings.TrimPrefix(addr.Hex(), "0x"))
	return hex + ".addr.reverse"
}
