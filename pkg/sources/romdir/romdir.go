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

// Package romdir scans local ROM directories. Files matching the
// configured extensions at a root become single-file games; files one
// directory deep are grouped into a multi-disc game keyed by their parent
// folder. For the Wii U platform, games are detected by directory
// structure instead and extension matching is disabled.
package romdir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/GameShelfProject/gameshelf-core/pkg/covers"
	"github.com/GameShelfProject/gameshelf-core/pkg/library"
	"github.com/GameShelfProject/gameshelf-core/pkg/metadata"
	"github.com/GameShelfProject/gameshelf-core/pkg/progress"
	"github.com/GameShelfProject/gameshelf-core/pkg/sources"
	"github.com/GameShelfProject/gameshelf-core/pkg/taxonomy"
	"github.com/rs/zerolog/log"
)

// defaultNameRegex strips a trailing extension from a file name.
var defaultNameRegex = regexp.MustCompile(`^(.+)\.[^.]+$`)

// wiiUMarkers are the subdirectories that identify an extracted Wii U
// title.
var wiiUMarkers = [3]string{"content", "meta", "code"}

// Scanner imports ROM directory sources.
type Scanner struct {
	handler  library.DataHandler
	metadata metadata.Provider
	covers   *covers.Fetcher
}

// NewScanner creates a ROM scanner. metadata and covers may be nil to
// disable enrichment and cover fetching.
func NewScanner(handler library.DataHandler, meta metadata.Provider, fetcher *covers.Fetcher) *Scanner {
	return &Scanner{handler: handler, metadata: meta, covers: fetcher}
}

func (*Scanner) Type() library.SourceType { return library.SourceRomDirectory }

// candidate is one discovered game before enrichment.
type candidate struct {
	title     string
	directory string
	files     []string
	size      int64
}

// Scan walks every configured root and imports newly found games.
func (s *Scanner) Scan(ctx context.Context, source *library.Source, cb *progress.Callback) (int, []string) {
	existing, err := s.handler.LoadGames()
	if err != nil {
		return 0, []string{fmt.Sprintf("failed to load catalog: %v", err)}
	}
	index := library.IndexBySource(existing, source.ID)

	platform, hasPlatform := source.Platform()
	isWiiU := hasPlatform && platform == taxonomy.PlatformWiiU

	var candidates []candidate
	var errs []string
	for _, romPath := range source.RomPaths {
		found, walkErrs := s.walkRoot(romPath, isWiiU)
		candidates = append(candidates, found...)
		errs = append(errs, walkErrs...)
	}

	added := 0
	for i, c := range candidates {
		if cb != nil {
			if cb.Cancelled() {
				log.Info().Str("source", source.ID).Msg("rom scan cancelled")
				break
			}
			cb.Update(i+1, len(candidates), fmt.Sprintf("Processing %s", c.title))
		}

		if _, exists := index[library.RomKey(c.directory, c.files)]; exists {
			continue
		}

		game := &library.Game{
			Title:                 c.title,
			Source:                source.ID,
			InstallationDirectory: c.directory,
			Files:                 c.files,
			InstallationSize:      c.size,
		}
		if hasPlatform {
			game.AddPlatform(platform)
		}

		coverURL, itemErr := s.enrich(ctx, game, platform, hasPlatform)
		if itemErr != nil {
			errs = append(errs, sources.ItemError(c.title, itemErr))
			continue
		}

		if !s.handler.SaveGame(game, false) {
			errs = append(errs, sources.SaveError(c.title))
			continue
		}
		added++

		if s.covers != nil && source.DownloadImages() && coverURL != "" {
			if ok, msg := s.covers.FetchAndSaveForGame(ctx, game.ID, coverURL, "metadata"); !ok {
				errs = append(errs, msg)
			}
		}
	}

	return added, errs
}

// enrich fills in description, genres and age ratings from the metadata
// provider, returning the cover URL when the record has one. A missing
// record is not an error.
func (s *Scanner) enrich(ctx context.Context, game *library.Game, platform taxonomy.Platform, hasPlatform bool) (string, error) {
	if s.metadata == nil || !hasPlatform {
		return "", nil
	}

	details, err := s.metadata.SearchByTitleAndPlatform(ctx, game.Title, platform)
	if err != nil {
		return "", fmt.Errorf("metadata lookup failed: %w", err)
	}
	if details == nil {
		return "", nil
	}

	game.Description = details.Description
	for _, raw := range details.Genres {
		if genre, ok := taxonomy.TryResolveGenre(raw); ok {
			game.AddGenre(genre)
		} else {
			log.Debug().Str("genre", raw).Msg("dropping unmappable genre")
		}
	}
	game.AgeRatings = details.AgeRatings()
	if len(details.ImageURLs) > 0 {
		return details.ImageURLs[0], nil
	}
	return "", nil
}

// walkRoot enumerates one configured root.
func (s *Scanner) walkRoot(romPath library.RomPath, isWiiU bool) ([]candidate, []string) {
	entries, err := os.ReadDir(romPath.Path)
	if err != nil {
		return nil, []string{fmt.Sprintf("failed to read rom path %s: %v", romPath.Path, err)}
	}

	nameRe := defaultNameRegex
	if romPath.NameRegex != "" {
		compiled, reErr := regexp.Compile(romPath.NameRegex)
		if reErr != nil {
			log.Warn().Err(reErr).Str("regex", romPath.NameRegex).
				Msg("invalid name regex, using default")
		} else {
			nameRe = compiled
		}
	}

	var found []candidate
	var errs []string
	for _, entry := range entries {
		if entry.IsDir() {
			sub := filepath.Join(romPath.Path, entry.Name())
			if isWiiU {
				if c, ok := wiiUCandidate(sub, entry.Name(), nameRe); ok {
					found = append(found, c)
				}
				continue
			}
			c, ok, subErrs := multiDiscCandidate(sub, entry.Name(), romPath.Extensions, nameRe)
			errs = append(errs, subErrs...)
			if ok {
				found = append(found, c)
			}
			continue
		}

		if isWiiU || !matchesExtension(entry.Name(), romPath.Extensions) {
			continue
		}

		path := filepath.Join(romPath.Path, entry.Name())
		info, statErr := os.Stat(path)
		if statErr != nil {
			errs = append(errs, fmt.Sprintf("failed to stat %s: %v", path, statErr))
			continue
		}
		found = append(found, candidate{
			title:     extractTitle(nameRe, entry.Name()),
			directory: romPath.Path,
			files:     []string{entry.Name()},
			size:      info.Size(),
		})
	}
	return found, errs
}

// wiiUCandidate treats a subdirectory with content/, meta/ and code/ as
// one extracted Wii U title.
func wiiUCandidate(dir, name string, nameRe *regexp.Regexp) (candidate, bool) {
	for _, marker := range wiiUMarkers {
		info, err := os.Stat(filepath.Join(dir, marker))
		if err != nil || !info.IsDir() {
			return candidate{}, false
		}
	}
	return candidate{
		title:     extractTitle(nameRe, name),
		directory: dir,
		files:     []string{wiiUMarkers[0], wiiUMarkers[1], wiiUMarkers[2]},
	}, true
}

// multiDiscCandidate groups matching files one level deep into a single
// game keyed by the parent folder.
func multiDiscCandidate(dir, name string, extensions []string, nameRe *regexp.Regexp) (candidate, bool, []string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return candidate{}, false, []string{fmt.Sprintf("failed to read %s: %v", dir, err)}
	}

	var files []string
	var size int64
	var errs []string
	for _, entry := range entries {
		if entry.IsDir() || !matchesExtension(entry.Name(), extensions) {
			continue
		}
		info, statErr := entry.Info()
		if statErr != nil {
			errs = append(errs, fmt.Sprintf("failed to stat %s: %v",
				filepath.Join(dir, entry.Name()), statErr))
			continue
		}
		files = append(files, entry.Name())
		size += info.Size()
	}

	if len(files) == 0 {
		return candidate{}, false, errs
	}
	return candidate{
		title:     extractTitle(nameRe, name),
		directory: dir,
		files:     files,
		size:      size,
	}, true, errs
}

func matchesExtension(name string, extensions []string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return false
	}
	for _, allowed := range extensions {
		if strings.EqualFold(strings.TrimPrefix(allowed, "."), ext) {
			return true
		}
	}
	return false
}

// extractTitle applies the name regex, falling back to the raw name when
// it does not match.
func extractTitle(re *regexp.Regexp, name string) string {
	m := re.FindStringSubmatch(name)
	if len(m) > 1 && m[1] != "" {
		return m[1]
	}
	return name
}
