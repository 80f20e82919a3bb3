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

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/GameShelfProject/gameshelf-core/pkg/helpers/syncutil"
	"github.com/GameShelfProject/gameshelf-core/pkg/library"
	"github.com/GameShelfProject/gameshelf-core/pkg/taxonomy"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const catalogFile = "catalog.json"

// fileStore is a JSON file backed DataHandler for the standalone CLI. It
// keeps the whole catalog in memory and rewrites the file on every change.
type fileStore struct {
	dir  string
	data catalogData
	mu   syncutil.Mutex
}

type catalogData struct {
	NextSourceID int               `json:"next_source_id"`
	Games        []*library.Game   `json:"games"`
	Sources      []*library.Source `json:"sources"`
}

func openFileStore(dir string) (*fileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store := &fileStore{dir: dir}
	path := filepath.Join(dir, catalogFile)
	payload, err := os.ReadFile(path) // #nosec G304
	if os.IsNotExist(err) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	if err := json.Unmarshal(payload, &store.data); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return store, nil
}

// persist must be called with the mutex held.
func (s *fileStore) persist() bool {
	payload, err := json.MarshalIndent(&s.data, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal catalog")
		return false
	}

	path := filepath.Join(s.dir, catalogFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		log.Error().Err(err).Msg("failed to write catalog")
		return false
	}
	if err := os.Rename(tmp, path); err != nil {
		log.Error().Err(err).Msg("failed to replace catalog")
		_ = os.Remove(tmp)
		return false
	}
	return true
}

func (s *fileStore) LoadGames() ([]*library.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*library.Game, len(s.data.Games))
	copy(out, s.data.Games)
	return out, nil
}

func (s *fileStore) SaveGame(game *library.Game, _ bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if game.ID == "" {
		game.ID = uuid.NewString()
		s.data.Games = append(s.data.Games, game)
		return s.persist()
	}

	for i, existing := range s.data.Games {
		if existing.ID == game.ID {
			s.data.Games[i] = game
			return s.persist()
		}
	}
	s.data.Games = append(s.data.Games, game)
	return s.persist()
}

func (s *fileStore) update(game *library.Game, apply func(*library.Game)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.data.Games {
		if existing.ID == game.ID {
			apply(existing)
			return s.persist()
		}
	}
	return false
}

func (s *fileStore) UpdatePlayTime(game *library.Game, seconds int64) bool {
	return s.update(game, func(g *library.Game) { g.PlayTime = seconds })
}

func (s *fileStore) UpdatePlayCount(game *library.Game, count int) bool {
	return s.update(game, func(g *library.Game) { g.PlayCount = count })
}

func (s *fileStore) UpdateCompletionStatus(game *library.Game, status string) bool {
	return s.update(game, func(g *library.Game) {
		g.CompletionStatus = taxonomy.CompletionStatus(status)
	})
}

func (s *fileStore) SetFirstPlayedTime(game *library.Game, unix int64) bool {
	return s.update(game, func(g *library.Game) { g.FirstPlayed = unix })
}

func (s *fileStore) SetLastPlayedTime(game *library.Game, unix int64) bool {
	return s.update(game, func(g *library.Game) { g.LastPlayed = unix })
}

func (s *fileStore) UpdateGameDescription(game *library.Game, text string) bool {
	return s.update(game, func(g *library.Game) { g.Description = text })
}

func (s *fileStore) GetNextSourceID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.NextSourceID++
	if !s.persist() {
		return "", fmt.Errorf("failed to persist source id counter")
	}
	return fmt.Sprintf("source%d", s.data.NextSourceID), nil
}

func (s *fileStore) SaveSource(source *library.Source) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.data.Sources {
		if existing.ID == source.ID {
			s.data.Sources[i] = source
			return s.persist()
		}
	}
	s.data.Sources = append(s.data.Sources, source)
	return s.persist()
}

func (s *fileStore) EnsureSecureTokenStorage(sourceID string) (string, error) {
	dir := filepath.Join(s.dir, "tokens", sourceID)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create token storage: %w", err)
	}
	return dir, nil
}

// Sources returns a snapshot of the configured sources.
func (s *fileStore) Sources() []*library.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*library.Source, len(s.data.Sources))
	copy(out, s.data.Sources)
	return out
}
