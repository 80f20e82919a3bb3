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
	"github.com/GameShelfProject/gameshelf-core/pkg/library"
	"github.com/GameShelfProject/gameshelf-core/pkg/taxonomy"
	"github.com/rs/zerolog/log"
)

// Stats carries the play statistics a provider reports for one title.
// Zero values mean "not reported".
type Stats struct {
	PlayTime    int64
	PlayCount   int
	FirstPlayed int64
	LastPlayed  int64
	Completion  taxonomy.CompletionStatus
}

// ApplyStats persists incoming stats onto an existing game, moving every
// field only monotonically forward: play time and count are raised, never
// lowered; completion only escalates; last-played only advances;
// first-played is set once and never overwritten. Stat writes are
// independent, so one failure never blocks the others. Returns true when
// any field changed.
func ApplyStats(handler library.DataHandler, game *library.Game, incoming Stats) bool {
	changed := false

	if incoming.PlayTime > game.PlayTime {
		if handler.UpdatePlayTime(game, incoming.PlayTime) {
			game.PlayTime = incoming.PlayTime
			changed = true
		} else {
			log.Warn().Str("title", game.Title).Msg("failed to update play time")
		}
	}

	if incoming.PlayCount > game.PlayCount {
		if handler.UpdatePlayCount(game, incoming.PlayCount) {
			game.PlayCount = incoming.PlayCount
			changed = true
		} else {
			log.Warn().Str("title", game.Title).Msg("failed to update play count")
		}
	}

	if incoming.Completion != "" &&
		taxonomy.MaxCompletion(game.CompletionStatus, incoming.Completion) != game.CompletionStatus {
		if handler.UpdateCompletionStatus(game, string(incoming.Completion)) {
			game.CompletionStatus = incoming.Completion
			changed = true
		} else {
			log.Warn().Str("title", game.Title).Msg("failed to update completion status")
		}
	}

	if incoming.FirstPlayed > 0 && game.FirstPlayed == 0 {
		if handler.SetFirstPlayedTime(game, incoming.FirstPlayed) {
			game.FirstPlayed = incoming.FirstPlayed
			changed = true
		} else {
			log.Warn().Str("title", game.Title).Msg("failed to set first played time")
		}
	}

	if incoming.LastPlayed > game.LastPlayed {
		if handler.SetLastPlayedTime(game, incoming.LastPlayed) {
			game.LastPlayed = incoming.LastPlayed
			changed = true
		} else {
			log.Warn().Str("title", game.Title).Msg("failed to set last played time")
		}
	}

	return changed
}

// SaveNew persists a freshly scanned game and then its stats via the
// independent update calls. Returns false when the base save failed.
func SaveNew(handler library.DataHandler, game *library.Game, stats Stats) bool {
	if !handler.SaveGame(game, false) {
		return false
	}

	if stats.PlayTime > 0 {
		if handler.UpdatePlayTime(game, stats.PlayTime) {
			game.PlayTime = stats.PlayTime
		} else {
			log.Warn().Str("title", game.Title).Msg("failed to persist play time")
		}
	}
	if stats.PlayCount > 0 {
		if handler.UpdatePlayCount(game, stats.PlayCount) {
			game.PlayCount = stats.PlayCount
		} else {
			log.Warn().Str("title", game.Title).Msg("failed to persist play count")
		}
	}
	if stats.Completion != "" {
		if handler.UpdateCompletionStatus(game, string(stats.Completion)) {
			game.CompletionStatus = stats.Completion
		} else {
			log.Warn().Str("title", game.Title).Msg("failed to persist completion status")
		}
	}
	if stats.FirstPlayed > 0 {
		if handler.SetFirstPlayedTime(game, stats.FirstPlayed) {
			game.FirstPlayed = stats.FirstPlayed
		} else {
			log.Warn().Str("title", game.Title).Msg("failed to persist first played time")
		}
	}
	if stats.LastPlayed > 0 {
		if handler.SetLastPlayedTime(game, stats.LastPlayed) {
			game.LastPlayed = stats.LastPlayed
		} else {
			log.Warn().Str("title", game.Title).Msg("failed to persist last played time")
		}
	}

	return true
}
