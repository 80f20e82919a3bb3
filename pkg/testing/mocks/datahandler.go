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

// Package mocks provides in-memory test doubles for the external
// contracts the engine consumes.
package mocks

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/GameShelfProject/gameshelf-core/pkg/library"
	"github.com/GameShelfProject/gameshelf-core/pkg/taxonomy"
)

// MockDataHandler is an in-memory catalog. Optional Fail* hooks make
// individual operations report failure for error-path tests.
type MockDataHandler struct {
	FailSaveTitles map[string]bool
	FailStats      bool

	games      []*library.Game
	sources    []*library.Source
	tokenRoot  string
	nextGameID int
	nextSrcID  int
	mu         sync.Mutex
}

// NewMockDataHandler creates an empty catalog. Token storage directories
// are created under tokenRoot, typically t.TempDir().
func NewMockDataHandler(tokenRoot string) *MockDataHandler {
	return &MockDataHandler{tokenRoot: tokenRoot}
}

// Games returns a snapshot of the stored games.
func (m *MockDataHandler) Games() []*library.Game {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*library.Game, len(m.games))
	copy(out, m.games)
	return out
}

func (m *MockDataHandler) LoadGames() ([]*library.Game, error) {
	return m.Games(), nil
}

func (m *MockDataHandler) SaveGame(game *library.Game, _ bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailSaveTitles[game.Title] {
		return false
	}

	if game.ID == "" {
		m.nextGameID++
		game.ID = fmt.Sprintf("game_%d", m.nextGameID)
		m.games = append(m.games, game)
		return true
	}

	for i, existing := range m.games {
		if existing.ID == game.ID {
			m.games[i] = game
			return true
		}
	}
	m.games = append(m.games, game)
	return true
}

func (m *MockDataHandler) UpdatePlayTime(game *library.Game, seconds int64) bool {
	return m.updateStat(game, func(g *library.Game) { g.PlayTime = seconds })
}

func (m *MockDataHandler) UpdatePlayCount(game *library.Game, count int) bool {
	return m.updateStat(game, func(g *library.Game) { g.PlayCount = count })
}

func (m *MockDataHandler) UpdateCompletionStatus(game *library.Game, status string) bool {
	return m.updateStat(game, func(g *library.Game) {
		g.CompletionStatus = taxonomy.CompletionStatus(status)
	})
}

func (m *MockDataHandler) SetFirstPlayedTime(game *library.Game, unix int64) bool {
	return m.updateStat(game, func(g *library.Game) { g.FirstPlayed = unix })
}

func (m *MockDataHandler) SetLastPlayedTime(game *library.Game, unix int64) bool {
	return m.updateStat(game, func(g *library.Game) { g.LastPlayed = unix })
}

func (m *MockDataHandler) UpdateGameDescription(game *library.Game, text string) bool {
	return m.updateStat(game, func(g *library.Game) { g.Description = text })
}

func (m *MockDataHandler) updateStat(game *library.Game, apply func(*library.Game)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailStats {
		return false
	}

	for _, existing := range m.games {
		if existing.ID == game.ID {
			apply(existing)
			return true
		}
	}
	return false
}

func (m *MockDataHandler) GetNextSourceID() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSrcID++
	return fmt.Sprintf("src_%d", m.nextSrcID), nil
}

func (m *MockDataHandler) SaveSource(source *library.Source) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.sources {
		if existing.ID == source.ID {
			m.sources[i] = source
			return true
		}
	}
	m.sources = append(m.sources, source)
	return true
}

func (m *MockDataHandler) EnsureSecureTokenStorage(sourceID string) (string, error) {
	dir := filepath.Join(m.tokenRoot, sourceID)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create token storage: %w", err)
	}
	return dir, nil
}
