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
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Kind discriminates the three transports a Provider can speak.
type Kind int

const (
	KindHTTP Kind = iota
	KindWebsocket
	KindIPC
)

func (k Kind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindWebsocket:
		return "websocket"
	case KindIPC:
		return "ipc"
	default:
		return "unknown"
	}
}

// Endpoint is the tagged variant from spec.md §3: either a parsed URI (for
// the HTTP/WS transports) or a filesystem path (for the IPC transport).
// Exactly one of the two branches is populated.
type Endpoint struct {
	uri  *url.URL
	path string
}

// NewURIEndpoint parses raw as a URI endpoint. Only http/https/ws/wss
// schemes are accepted.
func NewURIEndpoint(raw string) (Endpoint, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, Wrap(InvalidEndpointConfig, "malformed endpoint URI", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "ws", "wss":
	default:
		return Endpoint{}, Wrap(UnsupportedSchema, u.Scheme, nil)
	}
	if u.Port() == "" {
		switch strings.ToLower(u.Scheme) {
		case "http", "ws":
			u.Host = u.Hostname() + ":80"
		case "https", "wss":
			u.Host = u.Hostname() + ":443"
		}
	}
	return Endpoint{uri: u}, nil
}

// NewIPCEndpoint builds a filesystem-path endpoint for the IPC transport.
func NewIPCEndpoint(path string) Endpoint {
	return Endpoint{path: path}
}

// IsURI reports whether this endpoint carries a parsed URI.
func (e Endpoint) IsURI() bool { return e.uri != nil }

// IsPath reports whether this endpoint carries a filesystem path.
func (e Endpoint) IsPath() bool { return e.uri == nil && e.path != "" }

// URI returns the parsed URI branch. Only valid when IsURI is true.
func (e Endpoint) URI() *url.URL { return e.uri }

// Path returns the filesystem-path branch. Only valid when IsPath is true.
func (e Endpoint) Path() string { return e.path }

// kindFor validates endpoint shape against the requested transport kind,
// surfacing InvalidEndpointConfig on mismatch as spec.md §3/§6 requires.
func (e Endpoint) kindFor(want Kind) error {
	switch want {
	case KindIPC:
		if !e.IsPath() {
			return Wrap(InvalidEndpointConfig, "IPC provider requires a filesystem path", nil)
		}
	case KindHTTP, KindWebsocket:
		if !e.IsURI() {
			return Wrap(InvalidEndpointConfig, "HTTP/WS provider requires a URI", nil)
		}
	}
	return nil
}

// NetworkConfig carries the immutable-after-init settings from spec.md §3.
type NetworkConfig struct {
	Endpoint                 Endpoint
	ChainID                  uint64
	PoolingIntervalMS        uint64
	Retries                  uint
	BaseFeeMultiplier        float64
	MulticallContractAddress common.Address
	OpStackContracts         *OpStackContractSet
	EnsContracts             *EnsContractSet
}

// OpStackContractSet names the OP-Stack-specific contracts a NetworkConfig
// may carry, used by the opstack package.
type OpStackContractSet struct {
	DisputeGameFactory common.Address
	L2OutputOracle     common.Address
	OptimismPortal     common.Address
}

// EnsContractSet names the ENS-specific contracts a NetworkConfig may
// carry, used by the ens package.
type EnsContractSet struct {
	UniversalResolver common.Address
}

// DefaultNetworkConfig returns a NetworkConfig with every spec.md §3 default
// applied, mirroring the teacher's ethconfig.Defaults pattern.
func DefaultNetworkConfig(endpoint Endpoint, chainID uint64) NetworkConfig {
	return NetworkConfig{
		Endpoint:          endpoint,
		ChainID:           chainID,
		PoolingIntervalMS: 2000,
		Retries:           5,
		BaseFeeMultiplier: 1.2,
	}
}
