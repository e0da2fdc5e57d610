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

package ens

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/r5-labs/ethrpc/provider"
)

// universalResolverABI is the single entry point every lookup in this
// package dispatches through: resolve(name, data) returns the inner
// resolver's raw return bytes alongside the resolver address that answered.
const universalResolverABI = `[{
	"inputs": [
		{"internalType":"bytes","name":"name","type":"bytes"},
		{"internalType":"bytes","name":"data","type":"bytes"}
	],
	"name": "resolve",
	"outputs": [
		{"internalType":"bytes","name":"","type":"bytes"},
		{"internalType":"address","name":"","type":"address"}
	],
	"stateMutability": "view",
	"type": "function"
}]`

// innerResolverABI covers the four resolver profile methods this package
// dispatches via resolve's inner calldata: addr, text, name (reverse), and
// contenthash.
const innerResolverABI = `[
	{"constant":true,"inputs":[{"name":"node","type":"bytes32"}],"name":"addr","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"node","type":"bytes32"},{"name":"key","type":"string"}],"name":"text","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"node","type":"bytes32"}],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"node","type":"bytes32"}],"name":"contenthash","outputs":[{"name":"","type":"bytes"}],"stateMutability":"view","type":"function"}
]`

var (
	resolveMethod abi.Method
	addrMethod    abi.Method
	textMethod    abi.Method
	nameMethod    abi.Method
	contentMethod abi.Method
)

func init() {
	outer, err := abi.JSON(strings.NewReader(universalResolverABI))
	if err != nil {
		panic(err)
	}
	resolveMethod = outer.Methods["resolve"]

	inner, err := abi.JSON(strings.NewReader(innerResolverABI))
	if err != nil {
		panic(err)
	}
	addrMethod = inner.Methods["addr"]
	textMethod = inner.Methods["text"]
	nameMethod = inner.Methods["name"]
	contentMethod = inner.Methods["contenthash"]
}

// Resolver drives the three spec.md §4.7 lookups plus content-hash
// resolution through a configured ens_universal_resolver contract.
type Resolver struct {
	p                 *provider.Provider
	universalResolver common.Address
}

// New builds a Resolver against the given universal resolver contract.
func New(p *provider.Provider, universalResolver common.Address) *Resolver {
	return &Resolver{p: p, universalResolver: universalResolver}
}

// resolve packs innerCalldata behind name's DNS-wire encoding, submits one
// eth_call against the universal resolver, and returns the inner resolver's
// raw return bytes.
func (r *Resolver) resolve(ctx context.Context, name string, innerCalldata []byte) ([]byte, error) {
	wireName, err := dnsEncode(name)
	if err != nil {
		return nil, provider.Wrap(provider.FailedToDecodeResponse, "failed to DNS-encode ens name", err)
	}
	packed, err := resolveMethod.Inputs.Pack(wireName, innerCalldata)
	if err != nil {
		return nil, provider.Wrap(provider.FailedToDecodeResponse, "failed to encode resolve() calldata", err)
	}
	calldata := append(append([]byte{}, resolveMethod.ID...), packed...)

	raw, err := r.p.Call(ctx, provider.CallMsg{To: &r.universalResolver, Data: calldata}, provider.Latest)
	if err != nil {
		return nil, err
	}
	decoded, err := resolveMethod.Outputs.Unpack(raw)
	if err != nil || len(decoded) != 2 {
		return nil, provider.Wrap(provider.FailedToDecodeResponse, "failed to decode resolve() response", err)
	}
	innerReturn, ok := decoded[0].([]byte)
	if !ok || len(innerReturn) == 0 {
		return nil, provider.Err(provider.FailedToDecodeResponse)
	}
	return innerReturn, nil
}

// GetAddress implements get_ens_address(name): resolve's inner call is
// addr(namehash), decoded as an address.
func (r *Resolver) GetAddress(ctx context.Context, name string) (common.Address, error) {
	node := namehash(name)
	inner, err := addrMethod.Inputs.Pack(node)
	if err != nil {
		return common.Address{}, provider.Wrap(provider.FailedToDecodeResponse, "failed to encode addr() calldata", err)
	}
	calldata := append(append([]byte{}, addrMethod.ID...), inner...)

	raw, err := r.resolve(ctx, name, calldata)
	if err != nil {
		return common.Address{}, err
	}
	values, err := addrMethod.Outputs.Unpack(raw)
	if err != nil || len(values) != 1 {
		return common.Address{}, provider.Wrap(provider.FailedToDecodeResponse, "failed to decode addr() response", err)
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, provider.Err(provider.FailedToDecodeResponse)
	}
	return addr, nil
}

// GetText implements get_ens_text(name, key): resolve's inner call is
// text(namehash, key), decoded as a string.
func (r *Resolver) GetText(ctx context.Context, name, key string) (string, error) {
	node := namehash(name)
	inner, err := textMethod.Inputs.Pack(node, key)
	if err != nil {
		return "", provider.Wrap(provider.FailedToDecodeResponse, "failed to encode text() calldata", err)
	}
	calldata := append(append([]byte{}, textMethod.ID...), inner...)

	raw, err := r.resolve(ctx, name, calldata)
	if err != nil {
		return "", err
	}
	values, err := textMethod.Outputs.Unpack(raw)
	if err != nil || len(values) != 1 {
		return "", provider.Wrap(provider.FailedToDecodeResponse, "failed to decode text() response", err)
	}
	text, ok := values[0].(string)
	if !ok {
		return "", provider.Err(provider.FailedToDecodeResponse)
	}
	return text, nil
}

// GetName implements get_ens_name(address): the reverse-resolution lookup
// against "<40-hex-lowercase>.addr.reverse".
func (r *Resolver) GetName(ctx context.Context, addr common.Address) (string, error) {
	reverse := reverseName(addr)
	node := namehash(reverse)
	inner, err := nameMethod.Inputs.Pack(node)
	if err != nil {
		return "", provider.Wrap(provider.FailedToDecodeResponse, "failed to encode name() calldata", err)
	}
	calldata := append(append([]byte{}, nameMethod.ID...), inner...)

	raw, err := r.resolve(ctx, reverse, calldata)
	if err != nil {
		return "", err
	}
	values, err := nameMethod.Outputs.Unpack(raw)
	if err != nil || len(values) != 1 {
		return "", provider.Wrap(provider.FailedToDecodeResponse, "failed to decode name() response", err)
	}
	resolved, ok := values[0].(string)
	if !ok {
		return "", provider.Err(provider.FailedToDecodeResponse)
	}
	return resolved, nil
}

// GetContentHash implements the fourth universal-resolver profile method
// alongside addr/text/reverse (spec.md §4.7's resolve(name, data) dispatch
// generalizes naturally to it): contenthash(namehash), decoded as bytes.
func (r *Resolver) GetContentHash(ctx context.Context, name string) ([]byte, error) {
	node := namehash(name)
	inner, err := contentMethod.Inputs.Pack(node)
	if err != nil {
		return nil, provider.Wrap(provider.FailedToDecodeResponse, "failed to encode contenthash() calldata", err)
	}
	calldata := append(append([]byte{}, contentMethod.ID...), inner...)

	raw, err := r.resolve(ctx, name, calldata)
	if err != nil {
		return nil, err
	}
	values, err := contentMethod.Outputs.Unpack(raw)
	if err != nil || len(values) != 1 {
		return nil, provider.Wrap(provider.FailedToDecodeResponse, "failed to decode contenthash() response", err)
	}
	hash, ok := values[0].([]byte)
	if !ok {
		return nil, provider.Err(provider.FailedToDecodeResponse)
	}
	return hash, nil
}
