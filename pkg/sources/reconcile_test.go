// GameShelf Core
// Copyright (c) 2026 The GameShelf Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of GameShelf Core.
//
// GameShelf Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// GameShelf Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with GameShelf Core.  If not, see <http://www.gnu.org/licenses/>.

package sources

import (
	"testing"

	"github.com/GameShelfProject/gameshelf-core/pkg/library"
	"github.com/GameShelfProject/gameshelf-core/pkg/taxonomy"
	"github.com/GameShelfProject/gameshelf-core/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func savedGame(t *testing.T, handler *mocks.MockDataHandler) *library.Game {
	t.Helper()
	game := &library.Game{Title: "Bloodborne", Source: "src1"}
	require.True(t, handler.SaveGame(game, false))
	return game
}

func TestApplyStatsRaisesOnly(t *testing.T) {
	t.Parallel()

	handler := mocks.NewMockDataHandler(t.TempDir())
	game := savedGame(t, handler)

	require.True(t, ApplyStats(handler, game, Stats{
		PlayTime:    9000,
		PlayCount:   3,
		FirstPlayed: 1000,
		LastPlayed:  2000,
		Completion:  taxonomy.CompletionPlayed,
	}))

	assert.Equal(t, int64(9000), game.PlayTime)
	assert.Equal(t, 3, game.PlayCount)
	assert.Equal(t, int64(1000), game.FirstPlayed)
	assert.Equal(t, int64(2000), game.LastPlayed)
	assert.Equal(t, taxonomy.CompletionPlayed, game.CompletionStatus)

	// A stale read reporting lower values changes nothing.
	changed := ApplyStats(handler, game, Stats{
		PlayTime:    100,
		PlayCount:   1,
		FirstPlayed: 5000,
		LastPlayed:  1500,
		Completion:  taxonomy.CompletionNotPlayed,
	})
	assert.False(t, changed)
	assert.Equal(t, int64(9000), game.PlayTime)
	assert.Equal(t, 3, game.PlayCount)
	assert.Equal(t, int64(1000), game.FirstPlayed)
	assert.Equal(t, int64(2000), game.LastPlayed)
	assert.Equal(t, taxonomy.CompletionPlayed, game.CompletionStatus)
}

func TestApplyStatsEscalatesCompletion(t *testing.T) {
	t.Parallel()

	handler := mocks.NewMockDataHandler(t.TempDir())
	game := savedGame(t, handler)

	require.True(t, ApplyStats(handler, game, Stats{Completion: taxonomy.CompletionPlayed}))
	require.True(t, ApplyStats(handler, game, Stats{Completion: taxonomy.CompletionCompleted}))
	assert.Equal(t, taxonomy.CompletionCompleted, game.CompletionStatus)

	assert.False(t, ApplyStats(handler, game, Stats{Completion: taxonomy.CompletionPlayed}))
	assert.Equal(t, taxonomy.CompletionCompleted, game.CompletionStatus)
}

func TestApplyStatsFirstPlayedSetOnce(t *testing.T) {
	t.Parallel()

	handler := mocks.NewMockDataHandler(t.TempDir())
	game := savedGame(t, handler)

	require.True(t, ApplyStats(handler, game, Stats{FirstPlayed: 1000}))
	assert.False(t, ApplyStats(handler, game, Stats{FirstPlayed: 500}))
	assert.Equal(t, int64(1000), game.FirstPlayed)
}

func TestApplyStatsIdempotent(t *testing.T) {
	t.Parallel()

	handler := mocks.NewMockDataHandler(t.TempDir())
	game := savedGame(t, handler)

	stats := Stats{PlayTime: 100, PlayCount: 2, LastPlayed: 99,
		Completion: taxonomy.CompletionPlayed}
	require.True(t, ApplyStats(handler, game, stats))
	assert.False(t, ApplyStats(handler, game, stats))
}

func TestSaveNewPersistsStatsIndependently(t *testing.T) {
	t.Parallel()

	handler := mocks.NewMockDataHandler(t.TempDir())
	game := &library.Game{Title: "Hades", Source: "src1"}

	require.True(t, SaveNew(handler, game, Stats{
		PlayTime:   600,
		PlayCount:  1,
		Completion: taxonomy.CompletionPlayed,
	}))
	require.NotEmpty(t, game.ID)

	stored := handler.Games()
	require.Len(t, stored, 1)
	assert.Equal(t, int64(600), stored[0].PlayTime)
	assert.Equal(t, taxonomy.CompletionPlayed, stored[0].CompletionStatus)
}

func TestSaveNewFailedStatWriteDoesNotBlockBase(t *testing.T) {
	t.Parallel()

	handler := mocks.NewMockDataHandler(t.TempDir())
	handler.FailStats = true
	game := &library.Game{Title: "Hades", Source: "src1"}

	// The base record still saves even though every stat write fails.
	require.True(t, SaveNew(handler, game, Stats{PlayTime: 600}))
	require.Len(t, handler.Games(), 1)
}

func TestSaveNewBaseFailure(t *testing.T) {
	t.Parallel()

	handler := mocks.NewMockDataHandler(t.TempDir())
	handler.FailSaveTitles = map[string]bool{"Hades": true}

	game := &library.Game{Title: "Hades", Source: "src1"}
	assert.False(t, SaveNew(handler, game, Stats{}))
	assert.Empty(t, handler.Games())
}
