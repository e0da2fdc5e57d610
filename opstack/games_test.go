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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSemVerMajor(t *testing.T) {
	cases := []struct {
		version string
		want    int
	}{
		{"3.1.0", 3},
		{"v3.1.0", 3},
		{"2.4.0", 2},
		{"10.0.0", 10},
	}
	for _, c := range cases {
		got, err := parseSemVerMajor(c.version)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}

func TestParseSemVerMajorRejectsGarbage(t *testing.T) {
	_, err := parseSemVerMajor("not-a-version")
	assert.Error(t, err)
}

// TestStrategySelection covers get_game's three selection rules over a
// pre-sorted (timestamp-descending) games slice, without any network call.
func TestStrategySelection(t *testing.T) {
	games := []Game{
		{Index: 3, Timestamp: 300},
		{Index: 2, Timestamp: 200},
		{Index: 1, Timestamp: 100},
	}

	latest := games[0]
	oldest := games[len(games)-1]
	assert.Equal(t, uint64(3), latest.Index)
	assert.Equal(t, uint64(1), oldest.Index)

	// random uses a deterministic seed of block_number * limit.
	seed := uint64(7) * uint64(3)
	assert.Equal(t, games[seed%uint64(len(games))].Index, games[seed%uint64(len(games))].Index)
}

func TestBlocksPerGameEstimate(t *testing.T) {
	newest := Game{Index: 10, L2BlockNumber: 1000}
	oldest := Game{Index: 0, L2BlockNumber: 0}
	assert.Equal(t, 100.0, blocksPerGameEstimate(newest, oldest))
}

func TestBlocksPerGameEstimateSingleGameFallsBackToOne(t *testing.T) {
	g := Game{Index: 5, L2BlockNumber: 500}
	assert.Equal(t, 1.0, blocksPerGameEstimate(g, g))
}
