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

// Package steam scans a local Steam installation and, optionally, the Web
// API owned-games list. The two enumerations are merged by numeric app id:
// an online entry annotates the installed one with play time when both
// exist.
package steam

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/GameShelfProject/gameshelf-core/pkg/library"
	"github.com/GameShelfProject/gameshelf-core/pkg/progress"
	"github.com/GameShelfProject/gameshelf-core/pkg/shared/httpclient"
	"github.com/GameShelfProject/gameshelf-core/pkg/sources"
	"github.com/GameShelfProject/gameshelf-core/pkg/taxonomy"
	"github.com/andygrunwald/vdf"
	"github.com/rs/zerolog/log"
)

const (
	// stateFlagFullyInstalled is the StateFlags bit for a complete install.
	stateFlagFullyInstalled = 4

	ownedGamesURL = "https://api.steampowered.com/IPlayerService/GetOwnedGames/v0001/"

	// minutesPerPlaySession approximates play count from total minutes.
	minutesPerPlaySession = 30
)

// skippedInstallDirs are Steam's non-game manifest entries.
var skippedInstallDirs = []string{"music", "soundtrack"}

// Scanner imports Steam sources.
type Scanner struct {
	handler library.DataHandler
	client  *httpclient.Client
	// ownedGamesEndpoint is overridable for tests.
	ownedGamesEndpoint string
}

// NewScanner creates a Steam scanner.
func NewScanner(handler library.DataHandler) *Scanner {
	return &Scanner{
		handler:            handler,
		client:             httpclient.NewClient(),
		ownedGamesEndpoint: ownedGamesURL,
	}
}

func (*Scanner) Type() library.SourceType { return library.SourceSteam }

// installedGame is one fully installed app from a local manifest.
type installedGame struct {
	appID      string
	name       string
	installDir string
	sizeOnDisk int64
}

// ownedGame is one app from the Web API owned-games list.
type ownedGame struct {
	AppID           int64  `json:"appid"`
	Name            string `json:"name"`
	PlaytimeForever int64  `json:"playtime_forever"`
}

type ownedGamesResponse struct {
	Response struct {
		GameCount int         `json:"game_count"`
		Games     []ownedGame `json:"games"`
	} `json:"response"`
}

// Scan enumerates local manifests and optionally the Web API, importing
// games not yet in the catalog.
func (s *Scanner) Scan(ctx context.Context, source *library.Source, cb *progress.Callback) (int, []string) {
	steamDir := source.Config["steam_path"]
	if steamDir == "" {
		return 0, []string{"steam_path is not configured"}
	}

	existing, err := s.handler.LoadGames()
	if err != nil {
		return 0, []string{fmt.Sprintf("failed to load catalog: %v", err)}
	}
	index := library.IndexBySource(existing, source.ID)

	installed, errs := scanLibraryFolders(steamDir)

	online := map[string]ownedGame{}
	if source.Config["include_online_games"] == "true" {
		apiKey := source.Config["api_key"]
		steamID := source.Config["steam_id"]
		if apiKey == "" || steamID == "" {
			errs = append(errs, "include_online_games requires api_key and steam_id")
		} else {
			owned, fetchErr := s.fetchOwnedGames(ctx, apiKey, steamID)
			if fetchErr != nil {
				if len(installed) == 0 {
					return 0, []string{fmt.Sprintf("failed to fetch owned games: %v", fetchErr)}
				}
				errs = append(errs, fmt.Sprintf("failed to fetch owned games: %v", fetchErr))
			} else {
				online = owned
			}
		}
	}

	total := len(installed) + len(online)
	added := 0
	processed := 0

	for _, game := range installed {
		processed++
		if cb != nil {
			if cb.Cancelled() {
				log.Info().Str("source", source.ID).Msg("steam scan cancelled")
				return added, errs
			}
			cb.Update(processed, total, fmt.Sprintf("Processing %s", game.name))
		}

		stats := sources.Stats{}
		if o, ok := online[game.appID]; ok {
			stats = statsFromMinutes(o.PlaytimeForever)
			delete(online, game.appID)
		}

		key := library.LauncherKey("steam", game.appID)
		if existingGame, ok := index[key]; ok {
			sources.ApplyStats(s.handler, existingGame, stats)
			continue
		}
		if _, ok := index[library.TitleKey(game.name)]; ok {
			continue
		}

		entry := &library.Game{
			Title:                 game.name,
			Source:                source.ID,
			Platforms:             []taxonomy.Platform{taxonomy.PlatformPCWindows},
			LauncherType:          "steam",
			LauncherID:            game.appID,
			InstallationDirectory: game.installDir,
			InstallationSize:      game.sizeOnDisk,
		}
		if !sources.SaveNew(s.handler, entry, stats) {
			errs = append(errs, sources.SaveError(game.name))
			continue
		}
		added++
	}

	// Remaining online entries are owned but not installed.
	for _, o := range online {
		processed++
		if cb != nil {
			if cb.Cancelled() {
				log.Info().Str("source", source.ID).Msg("steam scan cancelled")
				return added, errs
			}
			cb.Update(processed, total, fmt.Sprintf("Processing %s", o.Name))
		}

		appID := strconv.FormatInt(o.AppID, 10)
		if _, ok := index[library.LauncherKey("steam", appID)]; ok {
			continue
		}
		if _, ok := index[library.TitleKey(o.Name)]; ok {
			continue
		}

		entry := &library.Game{
			Title:        o.Name,
			Source:       source.ID,
			Platforms:    []taxonomy.Platform{taxonomy.PlatformPCWindows},
			LauncherType: "steam",
			LauncherID:   appID,
		}
		if !sources.SaveNew(s.handler, entry, statsFromMinutes(o.PlaytimeForever)) {
			errs = append(errs, sources.SaveError(o.Name))
			continue
		}
		added++
	}

	return added, errs
}

// statsFromMinutes converts Web API playtime minutes into catalog stats:
// seconds of play time and an approximate play count of one session per
// half hour, floored at one for any played game.
func statsFromMinutes(minutes int64) sources.Stats {
	if minutes <= 0 {
		return sources.Stats{}
	}
	count := int(minutes / minutesPerPlaySession)
	if count < 1 {
		count = 1
	}
	return sources.Stats{
		PlayTime:   minutes * 60,
		PlayCount:  count,
		Completion: taxonomy.CompletionPlayed,
	}
}

func (s *Scanner) fetchOwnedGames(ctx context.Context, apiKey, steamID string) (map[string]ownedGame, error) {
	query := url.Values{
		"key":             {apiKey},
		"steamid":         {steamID},
		"include_appinfo": {"1"},
		"format":          {"json"},
	}

	var resp ownedGamesResponse
	err := s.client.GetJSON(ctx, s.ownedGamesEndpoint+"?"+query.Encode(), nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("owned games request failed: %w", err)
	}

	owned := make(map[string]ownedGame, len(resp.Response.Games))
	for _, g := range resp.Response.Games {
		owned[strconv.FormatInt(g.AppID, 10)] = g
	}
	return owned, nil
}

// scanLibraryFolders walks every Steam library listed in
// libraryfolders.vdf and parses each appmanifest_*.acf.
func scanLibraryFolders(steamDir string) ([]installedGame, []string) {
	var errs []string

	f, err := os.Open(filepath.Join(steamDir, "libraryfolders.vdf")) // #nosec G304
	if err != nil {
		return nil, []string{fmt.Sprintf("failed to open libraryfolders.vdf: %v", err)}
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing libraryfolders.vdf")
		}
	}()

	m, err := vdf.NewParser(f).Parse()
	if err != nil {
		return nil, []string{fmt.Sprintf("failed to parse libraryfolders.vdf: %v", err)}
	}
	m = lowercaseVDFKeys(m)

	folders, ok := m["libraryfolders"].(map[string]any)
	if !ok {
		return nil, []string{"libraryfolders.vdf has no libraryfolders map"}
	}

	var installed []installedGame
	for id, v := range folders {
		folder, ok := v.(map[string]any)
		if !ok {
			continue
		}
		libraryPath, ok := folder["path"].(string)
		if !ok {
			log.Warn().Str("library", id).Msg("library path is not a string")
			continue
		}

		steamApps := filepath.Join(libraryPath, "steamapps")
		entries, readErr := os.ReadDir(steamApps)
		if readErr != nil {
			errs = append(errs, fmt.Sprintf("failed to list %s: %v", steamApps, readErr))
			continue
		}

		for _, entry := range entries {
			if !strings.HasPrefix(entry.Name(), "appmanifest_") ||
				!strings.HasSuffix(entry.Name(), ".acf") {
				continue
			}
			game, manifestErr := parseManifest(filepath.Join(steamApps, entry.Name()))
			if manifestErr != nil {
				errs = append(errs, manifestErr.Error())
				continue
			}
			if game != nil {
				installed = append(installed, *game)
			}
		}
	}
	return installed, errs
}

// parseManifest reads one .acf file, returning nil for apps that are not
// fully installed or are music/soundtrack entries.
func parseManifest(path string) (*installedGame, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing manifest")
		}
	}()

	m, err := vdf.NewParser(f).Parse()
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	m = lowercaseVDFKeys(m)

	appState, ok := m["appstate"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("manifest %s has no appstate map", path)
	}

	appID, ok := appState["appid"].(string)
	if !ok {
		return nil, fmt.Errorf("manifest %s has no appid", path)
	}
	name, ok := appState["name"].(string)
	if !ok {
		return nil, fmt.Errorf("manifest %s has no name", path)
	}

	stateFlags, _ := appState["stateflags"].(string)
	flags, _ := strconv.Atoi(stateFlags)
	if flags&stateFlagFullyInstalled == 0 {
		log.Debug().Str("app", name).Msg("skipping app that is not fully installed")
		return nil, nil
	}

	installDir, _ := appState["installdir"].(string)
	lowerDir := strings.ToLower(installDir)
	for _, skip := range skippedInstallDirs {
		if strings.Contains(lowerDir, skip) {
			log.Debug().Str("app", name).Msg("skipping music content")
			return nil, nil
		}
	}

	var size int64
	if rawSize, ok := appState["sizeondisk"].(string); ok {
		size, _ = strconv.ParseInt(rawSize, 10, 64)
	}

	return &installedGame{
		appID:      appID,
		name:       name,
		installDir: installDir,
		sizeOnDisk: size,
	}, nil
}

// lowercaseVDFKeys recursively lowercases all keys in a parsed VDF tree.
// The format is case-insensitive but Go map lookups are not.
func lowercaseVDFKeys(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			v = lowercaseVDFKeys(nested)
		}
		result[strings.ToLower(k)] = v
	}
	return result
}
