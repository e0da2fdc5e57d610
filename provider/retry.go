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
	"time"

	"github.com/ethereum/go-ethereum/log"
)

// retryBaseDelay is the base of spec.md §7's backoff formula, doubled per
// attempt: 200ms · 2^attempt.
const retryBaseDelay = 200 * time.Millisecond

// withRetry wraps a single request attempt with bounded exponential backoff.
// Only the "too many requests" signal is retried (spec.md §7); every other
// error surfaces immediately. attempt runs over [0, retries], so retries+1
// attempts are made in total, each followed by its own backoff sleep before
// the next attempt (or before ReachedMaxRetryLimit on the last one) — total
// sleep is 200ms · (2^(retries+1) - 1).
func withRetry(retries uint, do func(attempt uint) ([]byte, error)) ([]byte, error) {
	var lastErr error
	for attempt := uint(0); attempt <= retries; attempt++ {
		out, err := do(attempt)
		if err == nil {
			return out, nil
		}
		kind, ok := errorKind(err)
		if !ok || !isTooManyRequests(kind) {
			return nil, err
		}
		lastErr = err
		delay := retryBaseDelay * time.Duration(1<<attempt)
		log.Debug("RPC request rate-limited, backing off", "attempt", attempt, "delay", delay)
		time.Sleep(delay)
	}
	return nil, Wrap(ReachedMaxRetryLimit, "exceeded request retries", lastErr)
}

// errorKind extracts the ErrorKind from err, if any.
func errorKind(err error) (ErrorKind, bool) {
	pe, ok := err.(*Error)
	if !ok {
		return 0, false
	}
	return pe.Kind, true
}
