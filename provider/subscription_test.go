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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notification(subID string) []byte {
	return []byte(`{"jsonrpc":"2.0","method":"eth_subscription","params":{"subscription":"` + subID + `","result":{}}}`)
}

func TestRouterDispatchDropsInactiveSubscription(t *testing.T) {
	r := newRouter()
	r.dispatch(notification("0x1"))

	r.mu.Lock()
	queued := len(r.subQueue)
	r.mu.Unlock()
	assert.Equal(t, 0, queued, "notification for a never-registered subscription must be dropped")
}

func TestRouterDispatchQueuesActiveSubscription(t *testing.T) {
	r := newRouter()
	r.registerSubscription("0x1")
	r.dispatch(notification("0x1"))

	note, err := r.popNotification()
	require.NoError(t, err)
	assert.Equal(t, "0x1", note.Params.Subscription)
}

func TestRouterDropsNotificationAfterUnregister(t *testing.T) {
	r := newRouter()
	r.registerSubscription("0x1")
	r.unregisterSubscription("0x1")
	r.dispatch(notification("0x1"))

	r.mu.Lock()
	queued := len(r.subQueue)
	r.mu.Unlock()
	assert.Equal(t, 0, queued)
}
