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

package opstack

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/r5-labs/ethrpc/provider"
)

// Client drives the OP-Stack dispute-game / output-oracle / portal contract
// trio configured on a NetworkConfig's OpStackContracts.
type Client struct {
	p         *provider.Provider
	contracts provider.OpStackContractSet
}

// New builds a Client, failing ExpectedOpStackContracts if p's NetworkConfig
// never set OpStackContracts.
func New(p *provider.Provider) (*Client, error) {
	cfg := p.Config()
	if cfg.OpStackContracts == nil {
		return nil, provider.Err(provider.ExpectedOpStackContracts)
	}
	return &Client{p: p, contracts: *cfg.OpStackContracts}, nil
}

func (c *Client) call(ctx context.Context, to common.Address, calldata []byte) ([]byte, error) {
	return c.p.Call(ctx, provider.CallMsg{To: &to, Data: calldata}, provider.Latest)
}

// GetPortalVersion implements get_portal_version(): fault proofs are
// enabled iff the portal's SemVer major component is >= 3.
func (c *Client) GetPortalVersion(ctx context.Context) (version string, faultProofsEnabled bool, err error) {
	calldata := append(append([]byte{}, portalVersionMethod.ID...))
	raw, err := c.call(ctx, c.contracts.OptimismPortal, calldata)
	if err != nil {
		return "", false, err
	}
	values, err := portalVersionMethod.Outputs.Unpack(raw)
	if err != nil || len(values) != 1 {
		return "", false, provider.Wrap(provider.FailedToDecodeResponse, "failed to decode portal version", err)
	}
	version, ok := values[0].(string)
	if !ok {
		return "", false, provider.Err(provider.FailedToDecodeResponse)
	}
	major, err := parseSemVerMajor(version)
	if err != nil {
		return version, false, provider.Wrap(provider.FailedToDecodeResponse, "failed to parse portal version", err)
	}
	return version, major >= 3, nil
}

func parseSemVerMajor(version string) (int, error) {
	parts := strings.SplitN(strings.TrimPrefix(version, "v"), ".", 2)
	if len(parts) == 0 {
		return 0, fmt.Errorf("empty version string")
	}
	return strconv.Atoi(parts[0])
}

// Game is one dispute-game factory entry, enriched with the underlying
// FaultDisputeGame's own l2BlockNumber/rootClaim so callers never need a
// second round-trip through the factory to use a selection.
type Game struct {
	Index         uint64
	GameType      uint32
	Timestamp     uint64
	Proxy         common.Address
	L2BlockNumber uint64
	RootClaim     common.Hash
	CreatedAt     uint64
}

// GetGames implements get_games(limit, block_number_filter?): the most
// recent `limit` dispute games, newer than blockNumberFilter when one is
// given, sorted by timestamp descending.
func (c *Client) GetGames(ctx context.Context, limit uint64, blockNumberFilter *uint64) ([]Game, error) {
	countRaw, err := c.call(ctx, c.contracts.DisputeGameFactory, gameCountMethod.ID)
	if err != nil {
		return nil, err
	}
	countValues, err := gameCountMethod.Outputs.Unpack(countRaw)
	if err != nil || len(countValues) != 1 {
		return nil, provider.Wrap(provider.FailedToDecodeResponse, "failed to decode gameCount", err)
	}
	count, ok := countValues[0].(*big.Int)
	if !ok {
		return nil, provider.Err(provider.FailedToDecodeResponse)
	}

	var games []Game
	for i := count.Uint64(); i > 0 && uint64(len(games)) < limit*4; i-- {
		idx := i - 1
		g, err := c.gameAtIndex(ctx, idx)
		if err != nil {
			return nil, err
		}
		if blockNumberFilter != nil && g.L2BlockNumber <= *blockNumberFilter {
			continue
		}
		games = append(games, g)
		if uint64(len(games)) >= limit {
			break
		}
	}

	sort.Slice(games, func(i, j int) bool { return games[i].Timestamp > games[j].Timestamp })
	if uint64(len(games)) > limit {
		games = games[:limit]
	}
	return games, nil
}

func (c *Client) gameAtIndex(ctx context.Context, index uint64) (Game, error) {
	packed, err := gameAtIndexMethod.Inputs.Pack(new(big.Int).SetUint64(index))
	if err != nil {
		return Game{}, provider.Wrap(provider.FailedToDecodeResponse, "failed to encode gameAtIndex", err)
	}
	calldata := append(append([]byte{}, gameAtIndexMethod.ID...), packed...)
	raw, err := c.call(ctx, c.contracts.DisputeGameFactory, calldata)
	if err != nil {
		return Game{}, err
	}
	values, err := gameAtIndexMethod.Outputs.Unpack(raw)
	if err != nil || len(values) != 3 {
		return Game{}, provider.Wrap(provider.FailedToDecodeResponse, "failed to decode gameAtIndex", err)
	}
	gameType, _ := values[0].(uint32)
	timestamp, _ := values[1].(uint64)
	proxy, ok := values[2].(common.Address)
	if !ok {
		return Game{}, provider.Err(provider.FailedToDecodeResponse)
	}

	l2Block, root, createdAt, err := c.gameDetails(ctx, proxy)
	if err != nil {
		return Game{}, err
	}
	return Game{
		Index: index, GameType: gameType, Timestamp: timestamp, Proxy: proxy,
		L2BlockNumber: l2Block, RootClaim: root, CreatedAt: createdAt,
	}, nil
}

// gameDetails reads a FaultDisputeGame proxy's own state directly, rather
// than trusting only the factory's cached (gameType, timestamp) pair:
// l2BlockNumber/rootClaim are the values a dispute resolves around, and
// createdAt is queried independently of the factory's own timestamp field
// as a cross-check against factory bugs or reorgs.
func (c *Client) gameDetails(ctx context.Context, proxy common.Address) (uint64, common.Hash, uint64, error) {
	blockRaw, err := c.call(ctx, proxy, l2BlockNumberMethod.ID)
	if err != nil {
		return 0, common.Hash{}, 0, err
	}
	blockValues, err := l2BlockNumberMethod.Outputs.Unpack(blockRaw)
	if err != nil || len(blockValues) != 1 {
		return 0, common.Hash{}, 0, provider.Wrap(provider.FailedToDecodeResponse, "failed to decode l2BlockNumber", err)
	}
	blockNum, ok := blockValues[0].(*big.Int)
	if !ok {
		return 0, common.Hash{}, 0, provider.Err(provider.FailedToDecodeResponse)
	}

	rootRaw, err := c.call(ctx, proxy, rootClaimMethod.ID)
	if err != nil {
		return 0, common.Hash{}, 0, err
	}
	rootValues, err := rootClaimMethod.Outputs.Unpack(rootRaw)
	if err != nil || len(rootValues) != 1 {
		return 0, common.Hash{}, 0, provider.Wrap(provider.FailedToDecodeResponse, "failed to decode rootClaim", err)
	}
	root, ok := rootValues[0].([32]byte)
	if !ok {
		return 0, common.Hash{}, 0, provider.Err(provider.FailedToDecodeResponse)
	}

	createdAtRaw, err := c.call(ctx, proxy, createdAtMethod.ID)
	if err != nil {
		return 0, common.Hash{}, 0, err
	}
	createdAtValues, err := createdAtMethod.Outputs.Unpack(createdAtRaw)
	if err != nil || len(createdAtValues) != 1 {
		return 0, common.Hash{}, 0, provider.Wrap(provider.FailedToDecodeResponse, "failed to decode createdAt", err)
	}
	createdAt, ok := createdAtValues[0].(uint64)
	if !ok {
		return 0, common.Hash{}, 0, provider.Err(provider.FailedToDecodeResponse)
	}
	return blockNum.Uint64(), common.Hash(root), createdAt, nil
}

// GetGame implements get_game(limit, block_number, strategy): selects one
// entry from GetGames(limit, &block_number) per the named strategy.
// "random" uses a deterministic seed of block_number*limit so repeated
// calls with the same inputs always pick the same game.
func (c *Client) GetGame(ctx context.Context, limit, blockNumber uint64, strategy Strategy) (*Game, error) {
	games, err := c.GetGames(ctx, limit, &blockNumber)
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, provider.Err(provider.GameNotFound)
	}
	switch strategy {
	case StrategyLatest:
		return &games[0], nil
	case StrategyOldest:
		return &games[len(games)-1], nil
	case StrategyRandom:
		seed := blockNumber * limit
		return &games[seed%uint64(len(games))], nil
	default:
		return nil, provider.Err(provider.GameNotFound)
	}
}

// Strategy discriminates get_game's selection rule.
type Strategy int

const (
	StrategyLatest Strategy = iota
	StrategyOldest
	StrategyRandom
)
