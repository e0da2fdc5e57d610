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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolPopLastIsLIFO(t *testing.T) {
	p := newPool()
	e1 := &TransactionEnvelope{Kind: Legacy, Nonce: 1}
	e2 := &TransactionEnvelope{Kind: Legacy, Nonce: 2}
	e3 := &TransactionEnvelope{Kind: Legacy, Nonce: 3}
	p.Push(e1)
	p.Push(e2)
	p.Push(e3)

	require.Equal(t, 3, p.Len())
	assert.Same(t, e3, p.PopLast())
	assert.Same(t, e2, p.PopLast())
	assert.Same(t, e1, p.PopLast())
	assert.Nil(t, p.PopLast())
}

func TestPoolFindMatchesByKindAndNonce(t *testing.T) {
	p := newPool()
	legacy5 := &TransactionEnvelope{Kind: Legacy, Nonce: 5}
	london5 := &TransactionEnvelope{Kind: London, Nonce: 5}
	legacy6 := &TransactionEnvelope{Kind: Legacy, Nonce: 6}
	p.Push(legacy5)
	p.Push(london5)
	p.Push(legacy6)

	found := p.Find(London, 5)
	require.NotNil(t, found)
	assert.Same(t, london5, found)
	assert.Equal(t, 2, p.Len(), "matched element must be removed from the pool")

	assert.Nil(t, p.Find(London, 5), "second lookup for the same (kind, nonce) must miss")
}

// TestPoolFindTiesResolveLIFO covers the "first match wins" rule from
// spec.md §4.5: when two envelopes share the same (kind, nonce), the scan
// starts at the tail, so the most recently pushed duplicate is returned.
func TestPoolFindTiesResolveLIFO(t *testing.T) {
	p := newPool()
	older := &TransactionEnvelope{Kind: Legacy, Nonce: 9}
	newer := &TransactionEnvelope{Kind: Legacy, Nonce: 9}
	p.Push(older)
	p.Push(newer)

	found := p.Find(Legacy, 9)
	require.NotNil(t, found)
	assert.Same(t, newer, found)
	assert.Equal(t, 1, p.Len())

	assert.Same(t, older, p.Find(Legacy, 9))
}

func TestPoolFindMissReturnsNil(t *testing.T) {
	p := newPool()
	p.Push(&TransactionEnvelope{Kind: Legacy, Nonce: 1})
	assert.Nil(t, p.Find(Cancun, 1))
	assert.Nil(t, p.Find(Legacy, 2))
}
