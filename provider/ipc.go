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
	"context"
	"net"
	"sync"

	"github.com/ethereum/go-ethereum/log"
)

// ipcChunkSize is the default linear buffer growth chunk from spec.md §4.1.
const ipcChunkSize = 64 * 1024

// ipcTransport is the Unix-domain-socket driver. Framing is JSON-object
// brace-balance: the reader scans bytes maintaining a `{...}` depth counter
// and emits one message each time depth returns to zero (spec.md §4.1/§6).
type ipcTransport struct {
	conn    net.Conn
	r       *router
	retries uint

	writeMu sync.Mutex
	wg      sync.WaitGroup
}

func newIPCTransport(ctx context.Context, cfg NetworkConfig) (*ipcTransport, error) {
	if err := cfg.Endpoint.kindFor(KindIPC); err != nil {
		return nil, err
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", cfg.Endpoint.Path())
	if err != nil {
		return nil, Wrap(FailedToConnect, "failed to dial IPC socket", err)
	}
	t := &ipcTransport{
		conn:    conn,
		r:       newRouter(),
		retries: cfg.Retries,
	}
	t.wg.Add(1)
	go t.readLoop()
	return t, nil
}

func (t *ipcTransport) kind() Kind { return KindIPC }

func (t *ipcTransport) subscribe() (*router, bool) { return t.r, true }

// readLoop reads raw bytes off the socket and hands complete brace-balanced
// JSON objects to the router, exactly one message per depth-zero crossing
// (spec.md §8's IPC framing invariant).
func (t *ipcTransport) readLoop() {
	defer t.wg.Done()
	defer t.r.close(nil)

	var (
		buf      []byte // unprocessed bytes, message boundaries already extracted
		depth    int
		inString bool
		escaped  bool
		start    = -1 // offset of the current top-level '{' within buf, or -1
		scanned  int  // bytes of buf already fed through the brace scanner
	)
	chunk := make([]byte, ipcChunkSize)

	for {
		n, err := t.conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			processed := 0
			for i := scanned; i < len(buf); i++ {
				c := buf[i]
				if inString {
					switch {
					case escaped:
						escaped = false
					case c == '\\':
						escaped = true
					case c == '"':
						inString = false
					}
					continue
				}
				switch c {
				case '"':
					inString = true
				case '{':
					if depth == 0 {
						start = i
					}
					depth++
				case '}':
					depth--
					if depth == 0 && start >= 0 {
						t.r.dispatch(append([]byte(nil), buf[start:i+1]...))
						processed = i + 1
						start = -1
					}
				}
			}
			scanned = len(buf)
			if processed > 0 {
				buf = append([]byte(nil), buf[processed:]...)
				scanned -= processed
				if start >= 0 {
					start -= processed
				}
			}
		}
		if err != nil {
			log.Debug("IPC read loop terminating", "err", err)
			t.r.close(Wrap(Disconnected, "IPC connection closed", err))
			return
		}
	}
}

func (t *ipcTransport) sendRPCRequest(ctx context.Context, body []byte) ([]byte, error) {
	return withRetry(t.retries, func(attempt uint) ([]byte, error) {
		t.writeMu.Lock()
		_, err := t.conn.Write(body)
		t.writeMu.Unlock()
		if err != nil {
			return nil, Wrap(Disconnected, "failed to write IPC message", err)
		}
		raw, err := t.r.popResponse(ctx.Done())
		if err != nil {
			return nil, err
		}
		_, perr := parseResponse(raw)
		if perr != nil {
			if kind, ok := errorKind(perr); ok && isTooManyRequests(kind) {
				return nil, perr
			}
			return raw, nil
		}
		return raw, nil
	})
}

func (t *ipcTransport) close() error {
	err := t.conn.Close()
	t.wg.Wait()
	return err
}
