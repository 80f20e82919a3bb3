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

// Package library defines the catalog model shared by every scanner and the
// persistence contract the engine consumes.
package library

import (
	"github.com/GameShelfProject/gameshelf-core/pkg/taxonomy"
)

// SourceType identifies which scanner owns a source.
type SourceType string

const (
	SourceRomDirectory SourceType = "rom_directory"
	SourceSteam        SourceType = "steam"
	SourcePSN          SourceType = "playstation"
	SourceXbox         SourceType = "xbox"
	SourceEpic         SourceType = "epic"
	SourceGOG          SourceType = "gog"
)

// RomPath is one scan root of a ROM directory source.
type RomPath struct {
	Path string `json:"path"`
	// Extensions are matched case-insensitively, without the leading dot.
	Extensions []string `json:"extensions"`
	// NameRegex extracts the display title from a file or folder name via
	// its first capture group. Empty means "strip the trailing extension".
	NameRegex string `json:"name_regex,omitempty"`
}

// Source is a configured game provider. ID is lowercase and immutable once
// assigned by the DataHandler.
type Source struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	SourceType SourceType        `json:"source_type"`
	Active     bool              `json:"active"`
	Config     map[string]string `json:"config,omitempty"`
	// RomPaths is only populated for SourceRomDirectory.
	RomPaths []RomPath `json:"rom_paths,omitempty"`
}

// DownloadImages reports whether cover fetching is enabled for this source.
func (s *Source) DownloadImages() bool {
	return s.Config["download_images"] == "true"
}

// Platform returns the configured platform hint, used by the ROM scanner for
// Wii U structure detection and metadata lookups.
func (s *Source) Platform() (taxonomy.Platform, bool) {
	raw, ok := s.Config["platform"]
	if !ok {
		return "", false
	}
	return taxonomy.TryResolvePlatform(raw)
}

// Game is one catalog entry. ID is assigned by the DataHandler on first save
// and must be treated as opaque by scanners.
type Game struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Source string `json:"source"`

	Platforms  []taxonomy.Platform  `json:"platforms,omitempty"`
	Genres     []taxonomy.Genre     `json:"genres,omitempty"`
	AgeRatings []taxonomy.AgeRating `json:"age_ratings,omitempty"`
	Features   []taxonomy.Feature   `json:"features,omitempty"`
	Regions    []taxonomy.Region    `json:"regions,omitempty"`

	CompletionStatus taxonomy.CompletionStatus `json:"completion_status,omitempty"`

	// PlayTime is total play time in seconds.
	PlayTime    int64 `json:"play_time,omitempty"`
	PlayCount   int   `json:"play_count,omitempty"`
	FirstPlayed int64 `json:"first_played,omitempty"`
	LastPlayed  int64 `json:"last_played,omitempty"`

	// LauncherType/LauncherID tie an entry back to its provider, e.g.
	// ("steam", "620") for Portal 2.
	LauncherType string `json:"launcher_type,omitempty"`
	LauncherID   string `json:"launcher_id,omitempty"`

	// InstallationDirectory and Files describe on-disk installs. Files are
	// relative to the directory for multi-disc ROM entries.
	InstallationDirectory string   `json:"installation_directory,omitempty"`
	Files                 []string `json:"files,omitempty"`
	InstallationSize      int64    `json:"installation_size,omitempty"`

	Hidden      bool   `json:"hidden,omitempty"`
	Description string `json:"description,omitempty"`
}

// HasPlatform reports whether p is already in the game's platform set.
func (g *Game) HasPlatform(p taxonomy.Platform) bool {
	for _, existing := range g.Platforms {
		if existing == p {
			return true
		}
	}
	return false
}

// AddPlatform appends p if not already present.
func (g *Game) AddPlatform(p taxonomy.Platform) {
	if !g.HasPlatform(p) {
		g.Platforms = append(g.Platforms, p)
	}
}

// AddGenre appends ge if not already present.
func (g *Game) AddGenre(ge taxonomy.Genre) {
	for _, existing := range g.Genres {
		if existing == ge {
			return
		}
	}
	g.Genres = append(g.Genres, ge)
}
