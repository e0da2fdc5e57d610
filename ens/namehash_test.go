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

package ens

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNamehashKnownVectors checks namehash against the well-known EIP-137
// reference vectors: the empty name, "eth" itself, and "foo.eth".
func TestNamehashKnownVectors(t *testing.T) {
	assert.Equal(t, common.Hash{}, namehash(""))
	assert.Equal(t,
		common.HexToHash("0x93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae"),
		namehash("eth"),
	)
	assert.Equal(t,
		common.HexToHash("0xde9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f"),
		namehash("foo.eth"),
	)
}

func TestDNSEncodePrefixesLabelLengths(t *testing.T) {
	encoded, err := dnsEncode("foo.eth")
	require.NoError(t, err)

	// \x03foo\x03eth\x00
	require.Equal(t, []byte{3, 'f', 'o', 'o', 3, 'e', 't', 'h', 0}, encoded)
}

func TestDNSEncodeEmptyName(t *testing.T) {
	encoded, err := dnsEncode("")
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, encoded)
}

func TestDNSEncodeRejectsOverlongLabel(t *testing.T) {
	_, err := dnsEncode(strings.Repeat("a", 64) + ".eth")
	require.Error(t, err)
}

func TestReverseNameLowercasesAddress(t *testing.T) {
	addr := common.HexToAddress("0xAbCdEf0123456789aBcDEF0123456789ABCDEF01")
	got := reverseName(addr)
	assert.Equal(t, "abcdef0123456789abcdef0123456789abcdef01.addr.reverse", got)
}
