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
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// newPipeIPCTransport wires an ipcTransport to one end of an in-memory
// net.Pipe, leaving the caller the other end to write raw bytes on —
// exercising readLoop's brace-balanced framing without a real socket.
func newPipeIPCTransport(t *testing.T) (*ipcTransport, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	tr := &ipcTransport{conn: server, r: newRouter(), retries: 0}
	tr.wg.Add(1)
	go tr.readLoop()
	t.Cleanup(func() { client.Close() })
	return tr, client
}

// TestIPCFramingSplitAcrossReads covers spec.md §8's IPC framing invariant:
// the first complete top-level JSON object's closing brace delimits exactly
// one message, even when the bytes arrive across multiple reads and a
// brace character appears inside a quoted string.
func TestIPCFramingSplitAcrossReads(t *testing.T) {
	tr, client := newPipeIPCTransport(t)

	msg := `{"jsonrpc":"2.0","id":1,"result":{"note":"a } b"}}`
	half := len(msg) / 2

	done := make(chan struct{})
	go func() {
		client.Write([]byte(msg[:half]))
		time.Sleep(5 * time.Millisecond)
		client.Write([]byte(msg[half:]))
		close(done)
	}()

	raw, err := tr.r.popResponse(nil)
	require.NoError(t, err)
	require.JSONEq(t, msg, string(raw))
	<-done
}

// TestIPCFramingTwoMessagesOneRead covers the reverse boundary case: two
// complete messages arriving in a single Read must be dispatched as two
// distinct values, neither crossing into the other.
func TestIPCFramingTwoMessagesOneRead(t *testing.T) {
	tr, client := newPipeIPCTransport(t)

	m1 := `{"jsonrpc":"2.0","id":1,"result":"0x1"}`
	m2 := `{"jsonrpc":"2.0","id":2,"result":"0x2"}`

	go client.Write([]byte(m1 + m2))

	first, err := tr.r.popResponse(nil)
	require.NoError(t, err)
	require.JSONEq(t, m1, string(first))

	second, err := tr.r.popResponse(nil)
	require.NoError(t, err)
	require.JSONEq(t, m2, string(second))
}
