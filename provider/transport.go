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

import "context"

// transport is the uniform contract every driver satisfies (spec.md §4.1):
// send one request, get one parsed JSON value back. Everything above this
// line (retry, envelope framing, typed methods) is transport-agnostic.
type transport interface {
	// sendRPCRequest submits a raw JSON-RPC request body and returns the
	// raw JSON-RPC response body (still framed, not yet split into
	// result/error), or an error of ErrorKind.
	sendRPCRequest(ctx context.Context, body []byte) ([]byte, error)

	// subscribe is only meaningful on persistent transports (WS/IPC); the
	// HTTP driver returns MethodNotSupported.
	subscribe() (*router, bool)

	// close tears down the transport and, for persistent transports,
	// stops the read loop.
	close() error

	kind() Kind
}
