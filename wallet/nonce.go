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
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/r5-labs/ethrpc/provider"
)

// NonceManager implements spec.md §4.6's local-cache-vs-network
// reconciliation rule. Its lifecycle is tied to the owning Wallet. Update
// and Reset take the manager's own mutex, so no external synchronization is
// needed when it is shared across goroutines.
type NonceManager struct {
	mu      sync.Mutex
	address common.Address
	managed uint64
	cache   uint64
}

// NewNonceManager builds a manager for addr with both counters zeroed.
func NewNonceManager(addr common.Address) *NonceManager {
	return &NonceManager{address: addr}
}

// pendingNonceSource is the single capability Update needs from a Provider:
// the network's pending nonce for an address. Narrowing to an interface
// (rather than depending on *provider.Provider directly) lets tests drive
// the reconciliation algorithm against a mock chain, per spec.md §8's
// monotonic-nonce invariant.
type pendingNonceSource interface {
	NonceAt(ctx context.Context, addr common.Address, tag provider.BlockTag) (uint64, error)
}

// Update runs the four-step algorithm from spec.md §4.6:
//  1. managed += 1.
//  2. fetch the network's pending nonce n.
//  3. if cache > 0 and n <= cache: return cache+1, then reset cache=0, managed=0.
//  4. else: cache=n, managed=0, return n.
func (m *NonceManager) Update(ctx context.Context, p pendingNonceSource) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.managed++
	n, err := p.NonceAt(ctx, m.address, provider.Pending)
	if err != nil {
		return 0, err
	}
	if m.cache > 0 && n <= m.cache {
		next := m.cache + 1
		m.cache = 0
		m.managed = 0
		return next, nil
	}
	m.cache = n
	m.managed = 0
	return n, nil
}

// Reset clears both counters, for callers that want to force a fresh
// network read on the next Update (e.g. after a long idle period).
func (m *NonceManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = 0
	m.managed = 0
}
