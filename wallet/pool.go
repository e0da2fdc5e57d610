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
	"container/list"
	"sync"
)

// pool is the mutex-protected doubly-linked list of prepared-and-asserted
// envelopes from spec.md §3: insertion at the tail, LIFO consumption
// (PopLast), and a directed linear search by (Kind, Nonce). Every element
// satisfies Wallet.Assert at insertion time — the pool never holds a
// partially-prepared envelope.
type pool struct {
	mu sync.Mutex
	l  *list.List // element type: *TransactionEnvelope
}

func newPool() *pool {
	return &pool{l: list.New()}
}

// Push inserts env at the tail.
func (p *pool) Push(env *TransactionEnvelope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.l.PushBack(env)
}

// PopLast removes and returns the most recently inserted envelope, or nil
// if the pool is empty.
func (p *pool) PopLast() *TransactionEnvelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	back := p.l.Back()
	if back == nil {
		return nil
	}
	p.l.Remove(back)
	return back.Value.(*TransactionEnvelope)
}

// Find performs spec.md §4.5's search_pool_and_send lookup: a tail-to-head
// linear scan for an envelope matching (kind, nonce), first match wins
// (ties resolved LIFO since the scan starts at the tail). The matched
// element is removed from the pool.
func (p *pool) Find(kind Kind, nonce uint64) *TransactionEnvelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	for e := p.l.Back(); e != nil; e = e.Prev() {
		env := e.Value.(*TransactionEnvelope)
		if env.Kind == kind && env.Nonce == nonce {
			p.l.Remove(e)
			return env
		}
	}
	return nil
}

// Len reports the current pool size.
func (p *pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.l.Len()
}
