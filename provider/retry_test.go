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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWithRetryExhaustsOnTooManyRequests exercises spec.md §8's retry
// invariant: a request that fails with TooManyRequestError on every attempt
// is retried exactly retries+1 times, with delays summing to
// 200 · (2^(retries+1) - 1) ms.
func TestWithRetryExhaustsOnTooManyRequests(t *testing.T) {
	var retries uint = 2
	var attempts int

	start := time.Now()
	_, err := withRetry(retries, func(attempt uint) ([]byte, error) {
		attempts++
		return nil, Err(TooManyRequestError)
	})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, isKind(err, ReachedMaxRetryLimit))
	assert.Equal(t, int(retries)+1, attempts)

	expected := retryBaseDelay * time.Duration((1<<(retries+1))-1)
	assert.GreaterOrEqual(t, elapsed, expected)
}

// TestWithRetrySurfacesOtherErrorsWithoutRetrying confirms a non-rate-limited
// error surfaces immediately, with no retry loop entered.
func TestWithRetrySurfacesOtherErrorsWithoutRetrying(t *testing.T) {
	var attempts int
	_, err := withRetry(5, func(attempt uint) ([]byte, error) {
		attempts++
		return nil, Err(InvalidParams)
	})
	require.Error(t, err)
	assert.True(t, isKind(err, InvalidParams))
	assert.Equal(t, 1, attempts)
}

// TestWithRetrySucceedsOnFirstAttempt confirms the happy path makes exactly
// one attempt and returns the payload unchanged.
func TestWithRetrySucceedsOnFirstAttempt(t *testing.T) {
	var attempts int
	out, err := withRetry(5, func(attempt uint) ([]byte, error) {
		attempts++
		return []byte("ok"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, []byte("ok"), out)
}
