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

package library

// DataHandler is the persistent catalog the engine writes into. The engine
// treats it as a single-writer external dependency: stat updates are separate
// calls from SaveGame so one failed stat write never blocks the base record.
type DataHandler interface {
	// LoadGames returns every catalog entry across all sources.
	LoadGames() ([]*Game, error)

	// SaveGame persists a new or updated entry. On first save it assigns
	// game.ID. preserveCreatedTime keeps the original creation timestamp
	// when overwriting an existing record.
	SaveGame(game *Game, preserveCreatedTime bool) bool

	UpdatePlayTime(game *Game, seconds int64) bool
	UpdatePlayCount(game *Game, count int) bool
	UpdateCompletionStatus(game *Game, status string) bool
	SetFirstPlayedTime(game *Game, unix int64) bool
	SetLastPlayedTime(game *Game, unix int64) bool
	UpdateGameDescription(game *Game, text string) bool

	// GetNextSourceID allocates a fresh lowercase source id.
	GetNextSourceID() (string, error)
	SaveSource(source *Source) bool

	// EnsureSecureTokenStorage returns a per-source directory with
	// owner-only permissions for token files, creating it if needed.
	EnsureSecureTokenStorage(sourceID string) (string, error)
}
