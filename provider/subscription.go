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

package provider

import (
	"encoding/json"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// router implements the subscription router state from spec.md §3: a LIFO
// rpcStack of parsed responses awaiting synchronous pickup, and a FIFO
// subQueue of subscription notifications. Exactly one reader goroutine (the
// transport's read loop) ever pushes into either; send_rpc_request callers
// and subscription callers are the only poppers (spec.md §5).
//
// Open question (spec.md §9): rpcStack is a stack, not a map keyed by
// request id, because the source assumes at most one request in flight per
// writer at a time. We preserve that assumption rather than silently adding
// correlation; callers sharing a transport across goroutines must serialize
// their own sends.
type router struct {
	mu       sync.Mutex
	notEmpty *sync.Cond

	rpcStack []json.RawMessage
	subQueue []subscriptionNotification

	// activeSubs tracks subscription ids a caller has not yet unsubscribed
	// from. A notification for an id no longer in this set is dropped at
	// dispatch time rather than queued forever: eth_unsubscribe races the
	// server's own in-flight notifications, and without this an id that
	// Unsubscribe already removed from Provider bookkeeping would otherwise
	// leak its stray trailing notifications into subQueue indefinitely.
	activeSubs mapset.Set[string]

	closed   bool
	closeErr error
}

func newRouter() *router {
	r := &router{activeSubs: mapset.NewSet[string]()}
	r.notEmpty = sync.NewCond(&r.mu)
	return r
}

// registerSubscription marks id as active, called once a successful
// eth_subscribe response has assigned it.
func (r *router) registerSubscription(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeSubs.Add(id)
}

// unregisterSubscription marks id inactive; any notification for it
// arriving afterward is dropped rather than queued.
func (r *router) unregisterSubscription(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeSubs.Remove(id)
}

// dispatch classifies one parsed frame per spec.md §3's classification
// rule and pushes it onto the appropriate structure.
func (r *router) dispatch(raw json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if isSubscriptionNotification(raw) {
		var note subscriptionNotification
		if err := json.Unmarshal(raw, &note); err == nil {
			if !r.activeSubs.Contains(note.Params.Subscription) {
				return
			}
			r.subQueue = append(r.subQueue, note)
			r.notEmpty.Broadcast()
			return
		}
	}
	r.rpcStack = append(r.rpcStack, raw)
	r.notEmpty.Broadcast()
}

// popResponse blocks until a parsed RPC response is available, the queue is
// closed, or the done channel fires. It pops the most recently pushed value
// (LIFO), treating that pop as completion of the last send (spec.md §5).
func (r *router) popResponse(done <-chan struct{}) (json.RawMessage, error) {
	r.mu.Lock()
	for len(r.rpcStack) == 0 && !r.closed {
		if done == nil {
			r.notEmpty.Wait()
			continue
		}
		// Cooperative wait: release the lock briefly so a cancellation
		// on done can be observed without a busy loop.
		r.mu.Unlock()
		select {
		case <-done:
			return nil, Wrap(Disconnected, "request cancelled", nil)
		default:
		}
		r.mu.Lock()
		if len(r.rpcStack) == 0 && !r.closed {
			r.notEmpty.Wait()
		}
	}
	if len(r.rpcStack) == 0 && r.closed {
		err := r.closeErr
		r.mu.Unlock()
		if err == nil {
			err = Wrap(Disconnected, "provider closed", nil)
		}
		return nil, err
	}
	last := len(r.rpcStack) - 1
	v := r.rpcStack[last]
	r.rpcStack = r.rpcStack[:last]
	r.mu.Unlock()
	return v, nil
}

// popNotification blocks until a subscription notification is available or
// the router is closed (FIFO order).
func (r *router) popNotification() (subscriptionNotification, error) {
	r.mu.Lock()
	for len(r.subQueue) == 0 && !r.closed {
		r.notEmpty.Wait()
	}
	if len(r.subQueue) == 0 {
		err := r.closeErr
		r.mu.Unlock()
		if err == nil {
			err = Wrap(Disconnected, "provider closed", nil)
		}
		return subscriptionNotification{}, err
	}
	note := r.subQueue[0]
	r.subQueue = r.subQueue[1:]
	r.mu.Unlock()
	return note, nil
}

// close marks the router closed, draining and waking every blocked
// consumer with a closed-queue signal (design notes §9).
func (r *router) close(cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.closeErr = cause
	r.notEmpty.Broadcast()
}
