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

// Package opstack implements spec.md §4.8's OP-Stack helpers: portal
// version / fault-proof detection, dispute-game listing and selection,
// L2 output lookup, and a statistical next-game-timing projection — plus
// the withdrawal prove/finalize calls the component table names but the
// distilled spec leaves unspecified (SPEC_FULL.md §7).
package opstack

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const optimismPortalABI = `[
	{"constant":true,"inputs":[],"name":"version","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"inputs":[
		{"components":[
			{"name":"nonce","type":"uint256"},
			{"name":"sender","type":"address"},
			{"name":"target","type":"address"},
			{"name":"value","type":"uint256"},
			{"name":"gasLimit","type":"uint256"},
			{"name":"data","type":"bytes"}
		],"name":"_tx","type":"tuple"},
		{"name":"_disputeGameIndex","type":"uint256"},
		{"components":[
			{"name":"version","type":"bytes32"},
			{"name":"stateRoot","type":"bytes32"},
			{"name":"messagePasserStorageRoot","type":"bytes32"},
			{"name":"latestBlockhash","type":"bytes32"}
		],"name":"_outputRootProof","type":"tuple"},
		{"name":"_withdrawalProof","type":"bytes[]"}
	],"name":"proveWithdrawalTransaction","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[
		{"components":[
			{"name":"nonce","type":"uint256"},
			{"name":"sender","type":"address"},
			{"name":"target","type":"address"},
			{"name":"value","type":"uint256"},
			{"name":"gasLimit","type":"uint256"},
			{"name":"data","type":"bytes"}
		],"name":"_tx","type":"tuple"}
	],"name":"finalizeWithdrawalTransaction","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"constant":true,"inputs":[
		{"name":"","type":"bytes32"},
		{"name":"","type":"address"}
	],"name":"provenWithdrawals","outputs":[
		{"name":"disputeGameProxy","type":"address"},
		{"name":"timestamp","type":"uint64"}
	],"stateMutability":"view","type":"function"}
]`

const disputeGameFactoryABI = `[
	{"constant":true,"inputs":[],"name":"gameCount","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"_index","type":"uint256"}],"name":"gameAtIndex","outputs":[
		{"name":"gameType","type":"uint32"},
		{"name":"timestamp","type":"uint64"},
		{"name":"proxy","type":"address"}
	],"stateMutability":"view","type":"function"}
]`

const faultDisputeGameABI = `[
	{"constant":true,"inputs":[],"name":"l2BlockNumber","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"rootClaim","outputs":[{"name":"","type":"bytes32"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"createdAt","outputs":[{"name":"","type":"uint64"}],"stateMutability":"view","type":"function"}
]`

const l2OutputOracleABI = `[
	{"constant":true,"inputs":[{"name":"_l2BlockNumber","type":"uint256"}],"name":"getL2OutputIndexAfter","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"_index","type":"uint256"}],"name":"getL2Output","outputs":[
		{"components":[
			{"name":"outputRoot","type":"bytes32"},
			{"name":"timestamp","type":"uint128"},
			{"name":"l2BlockNumber","type":"uint128"}
		],"name":"","type":"tuple"}
	],"stateMutability":"view","type":"function"}
]`

var (
	portalVersionMethod     abi.Method
	proveMethod             abi.Method
	finalizeMethod          abi.Method
	provenWithdrawalsMethod abi.Method
	gameCountMethod         abi.Method
	gameAtIndexMethod       abi.Method
	l2BlockNumberMethod     abi.Method
	rootClaimMethod         abi.Method
	createdAtMethod         abi.Method
	indexAfterMethod        abi.Method
	getL2OutputMethod       abi.Method
)

func init() {
	portal, err := abi.JSON(strings.NewReader(optimismPortalABI))
	if err != nil {
		panic(err)
	}
	portalVersionMethod = portal.Methods["version"]
	proveMethod = portal.Methods["proveWithdrawalTransaction"]
	finalizeMethod = portal.Methods["finalizeWithdrawalTransaction"]
	provenWithdrawalsMethod = portal.Methods["provenWithdrawals"]

	factory, err := abi.JSON(strings.NewReader(disputeGameFactoryABI))
	if err != nil {
		panic(err)
	}
	gameCountMethod = factory.Methods["gameCount"]
	gameAtIndexMethod = factory.Methods["gameAtIndex"]

	game, err := abi.JSON(strings.NewReader(faultDisputeGameABI))
	if err != nil {
		panic(err)
	}
	l2BlockNumberMethod = game.Methods["l2BlockNumber"]
	rootClaimMethod = game.Methods["rootClaim"]
	createdAtMethod = game.Methods["createdAt"]

	oracle, err := abi.JSON(strings.NewReader(l2OutputOracleABI))
	if err != nil {
		panic(err)
	}
	indexAfterMethod = oracle.Methods["getL2OutputIndexAfter"]
	getL2OutputMethod = oracle.Methods["getL2Output"]
}
