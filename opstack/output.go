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
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/r5-labs/ethrpc/provider"
)

// L2Output is the output-root tuple from either the dispute-game factory
// (post fault-proofs) or the legacy L2OutputOracle.
type L2Output struct {
	OutputRoot    [32]byte
	Timestamp     uint64
	L2BlockNumber uint64
}

// GetL2Output implements get_l2_output(block_number): when fault proofs are
// enabled, it reads the output from the most relevant dispute game;
// otherwise it reads the L2OutputOracle directly at the derived index.
func (c *Client) GetL2Output(ctx context.Context, blockNumber uint64) (*L2Output, error) {
	_, faultProofsEnabled, err := c.GetPortalVersion(ctx)
	if err != nil {
		return nil, err
	}
	if faultProofsEnabled {
		return c.l2OutputFromGame(ctx, blockNumber)
	}
	return c.l2OutputFromOracle(ctx, blockNumber)
}

func (c *Client) l2OutputFromGame(ctx context.Context, blockNumber uint64) (*L2Output, error) {
	game, err := c.GetGame(ctx, 10, blockNumber, StrategyLatest)
	if err != nil {
		return nil, err
	}
	return &L2Output{OutputRoot: game.RootClaim, Timestamp: game.Timestamp, L2BlockNumber: game.L2BlockNumber}, nil
}

func (c *Client) l2OutputFromOracle(ctx context.Context, blockNumber uint64) (*L2Output, error) {
	if c.contracts.L2OutputOracle == (common.Address{}) {
		return nil, provider.Err(provider.FaultProofsNotEnabled)
	}
	packed, err := indexAfterMethod.Inputs.Pack(new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return nil, provider.Wrap(provider.FailedToDecodeResponse, "failed to encode getL2OutputIndexAfter", err)
	}
	calldata := append(append([]byte{}, indexAfterMethod.ID...), packed...)
	raw, err := c.call(ctx, c.contracts.L2OutputOracle, calldata)
	if err != nil {
		return nil, err
	}
	values, err := indexAfterMethod.Outputs.Unpack(raw)
	if err != nil || len(values) != 1 {
		return nil, provider.Wrap(provider.FailedToDecodeResponse, "failed to decode getL2OutputIndexAfter", err)
	}
	index, ok := values[0].(*big.Int)
	if !ok {
		return nil, provider.Err(provider.FailedToDecodeResponse)
	}

	packedOut, err := getL2OutputMethod.Inputs.Pack(index)
	if err != nil {
		return nil, provider.Wrap(provider.FailedToDecodeResponse, "failed to encode getL2Output", err)
	}
	calldataOut := append(append([]byte{}, getL2OutputMethod.ID...), packedOut...)
	rawOut, err := c.call(ctx, c.contracts.L2OutputOracle, calldataOut)
	if err != nil {
		return nil, err
	}
	outValues, err := getL2OutputMethod.Outputs.Unpack(rawOut)
	if err != nil || len(outValues) != 1 {
		return nil, provider.Wrap(provider.FailedToDecodeResponse, "failed to decode getL2Output", err)
	}
	tuple, ok := outValues[0].(struct {
		OutputRoot    [32]byte
		Timestamp     *big.Int
		L2BlockNumber *big.Int
	})
	if !ok {
		return nil, provider.Err(provider.FailedToDecodeResponse)
	}
	return &L2Output{
		OutputRoot:    tuple.OutputRoot,
		Timestamp:     tuple.Timestamp.Uint64(),
		L2BlockNumber: tuple.L2BlockNumber.Uint64(),
	}, nil
}

// GetSecondsToNextGame implements get_seconds_to_next_game(interval_buffer,
// l2_block): fits the average inter-game interval over the last <=10 games,
// scales by interval_buffer, and projects the time until a game covering
// l2_block is expected to land.
//
// Open question resolved here: when fewer than two games exist (no interval
// is fittable), this returns FaultProofsNotEnabled rather than a synthetic
// zero duration — a projection with no historical basis is not a timing
// estimate.
func (c *Client) GetSecondsToNextGame(ctx context.Context, intervalBuffer float64, l2Block uint64) (time.Duration, error) {
	games, err := c.GetGames(ctx, 10, nil)
	if err != nil {
		return 0, err
	}
	if len(games) < 2 {
		return 0, provider.Err(provider.FaultProofsNotEnabled)
	}

	// games is sorted timestamp-descending; compute the mean gap between
	// consecutive entries.
	var totalGap uint64
	for i := 0; i+1 < len(games); i++ {
		totalGap += games[i].Timestamp - games[i+1].Timestamp
	}
	avgGap := float64(totalGap) / float64(len(games)-1)
	scaledGap := avgGap * intervalBuffer

	latest := games[0]
	if l2Block <= latest.L2BlockNumber {
		return 0, provider.Err(provider.InvalidBlockNumber)
	}
	blocksAhead := l2Block - latest.L2BlockNumber
	gamesAhead := float64(blocksAhead) / blocksPerGameEstimate(latest, games[len(games)-1])
	if gamesAhead < 1 {
		gamesAhead = 1
	}
	return time.Duration(gamesAhead*scaledGap) * time.Second, nil
}

// blocksPerGameEstimate derives an average L2-blocks-per-game figure from
// the same window GetSecondsToNextGame fits its interval over, so the two
// projections stay consistent with each other.
func blocksPerGameEstimate(newest, oldest Game) float64 {
	if newest.Index == oldest.Index {
		return 1
	}
	blockSpan := float64(newest.L2BlockNumber) - float64(oldest.L2BlockNumber)
	gameSpan := float64(newest.Index) - float64(oldest.Index)
	if gameSpan == 0 || blockSpan <= 0 {
		return 1
	}
	return blockSpan / gameSpan
}
