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

package steam

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/GameShelfProject/gameshelf-core/pkg/library"
	"github.com/GameShelfProject/gameshelf-core/pkg/taxonomy"
	"github.com/GameShelfProject/gameshelf-core/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLibraryFolders(t *testing.T, steamDir string, libraryPaths ...string) {
	t.Helper()
	content := "\"libraryfolders\"\n{\n"
	for i, p := range libraryPaths {
		content += fmt.Sprintf("\t\"%d\"\n\t{\n\t\t\"path\"\t\t\"%s\"\n\t}\n", i, p)
	}
	content += "}\n"
	err := os.WriteFile(filepath.Join(steamDir, "libraryfolders.vdf"), []byte(content), 0o600)
	require.NoError(t, err)
}

func writeManifest(t *testing.T, libraryPath, appID, name, stateFlags, installDir, sizeOnDisk string) {
	t.Helper()
	steamApps := filepath.Join(libraryPath, "steamapps")
	require.NoError(t, os.MkdirAll(steamApps, 0o755))
	content := fmt.Sprintf("\"AppState\"\n{\n"+
		"\t\"appid\"\t\t\"%s\"\n"+
		"\t\"name\"\t\t\"%s\"\n"+
		"\t\"StateFlags\"\t\t\"%s\"\n"+
		"\t\"installdir\"\t\t\"%s\"\n"+
		"\t\"SizeOnDisk\"\t\t\"%s\"\n"+
		"}\n", appID, name, stateFlags, installDir, sizeOnDisk)
	path := filepath.Join(steamApps, "appmanifest_"+appID+".acf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func newTestSource(steamDir string) *library.Source {
	return &library.Source{
		ID:         "source_1",
		Name:       "Steam",
		SourceType: library.SourceSteam,
		Active:     true,
		Config:     map[string]string{"steam_path": steamDir},
	}
}

func TestScanInstalledGames(t *testing.T) {
	t.Parallel()

	steamDir := t.TempDir()
	libraryDir := t.TempDir()
	writeLibraryFolders(t, steamDir, libraryDir)
	writeManifest(t, libraryDir, "620", "Portal 2", "4", "Portal 2", "10485760")
	writeManifest(t, libraryDir, "220", "Half-Life 2", "2", "Half-Life 2", "0")
	writeManifest(t, libraryDir, "1290", "Celeste Soundtrack", "4", "Celeste Soundtrack", "0")

	handler := mocks.NewMockDataHandler(t.TempDir())
	scanner := NewScanner(handler)

	added, errs := scanner.Scan(context.Background(), newTestSource(steamDir), nil)

	require.Empty(t, errs)
	assert.Equal(t, 1, added)

	games := handler.Games()
	require.Len(t, games, 1)
	game := games[0]
	assert.Equal(t, "Portal 2", game.Title)
	assert.Equal(t, "steam", game.LauncherType)
	assert.Equal(t, "620", game.LauncherID)
	assert.Equal(t, "Portal 2", game.InstallationDirectory)
	assert.Equal(t, int64(10485760), game.InstallationSize)
	assert.Equal(t, []taxonomy.Platform{taxonomy.PlatformPCWindows}, game.Platforms)
}

func TestScanMultipleLibraries(t *testing.T) {
	t.Parallel()

	steamDir := t.TempDir()
	libA := t.TempDir()
	libB := t.TempDir()
	writeLibraryFolders(t, steamDir, libA, libB)
	writeManifest(t, libA, "620", "Portal 2", "4", "Portal 2", "100")
	writeManifest(t, libB, "413150", "Stardew Valley", "4", "Stardew Valley", "200")

	handler := mocks.NewMockDataHandler(t.TempDir())
	scanner := NewScanner(handler)

	added, errs := scanner.Scan(context.Background(), newTestSource(steamDir), nil)

	require.Empty(t, errs)
	assert.Equal(t, 2, added)
}

func TestScanIdempotent(t *testing.T) {
	t.Parallel()

	steamDir := t.TempDir()
	libraryDir := t.TempDir()
	writeLibraryFolders(t, steamDir, libraryDir)
	writeManifest(t, libraryDir, "620", "Portal 2", "4", "Portal 2", "100")

	handler := mocks.NewMockDataHandler(t.TempDir())
	scanner := NewScanner(handler)
	source := newTestSource(steamDir)

	added, errs := scanner.Scan(context.Background(), source, nil)
	require.Empty(t, errs)
	require.Equal(t, 1, added)

	added, errs = scanner.Scan(context.Background(), source, nil)
	require.Empty(t, errs)
	assert.Equal(t, 0, added)
	assert.Len(t, handler.Games(), 1)
}

func TestScanMergesOnlinePlaytime(t *testing.T) {
	t.Parallel()

	steamDir := t.TempDir()
	libraryDir := t.TempDir()
	writeLibraryFolders(t, steamDir, libraryDir)
	writeManifest(t, libraryDir, "620", "Portal 2", "4", "Portal 2", "100")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "765000", r.URL.Query().Get("steamid"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":{"game_count":2,"games":[
			{"appid":620,"name":"Portal 2","playtime_forever":90},
			{"appid":413150,"name":"Stardew Valley","playtime_forever":10}
		]}}`))
	}))
	defer server.Close()

	handler := mocks.NewMockDataHandler(t.TempDir())
	scanner := NewScanner(handler)
	scanner.ownedGamesEndpoint = server.URL

	source := newTestSource(steamDir)
	source.Config["include_online_games"] = "true"
	source.Config["api_key"] = "test-key"
	source.Config["steam_id"] = "765000"

	added, errs := scanner.Scan(context.Background(), source, nil)

	require.Empty(t, errs)
	assert.Equal(t, 2, added)

	byTitle := map[string]*library.Game{}
	for _, g := range handler.Games() {
		byTitle[g.Title] = g
	}
	require.Contains(t, byTitle, "Portal 2")
	require.Contains(t, byTitle, "Stardew Valley")

	portal := byTitle["Portal 2"]
	assert.Equal(t, int64(90*60), portal.PlayTime)
	assert.Equal(t, 3, portal.PlayCount)
	assert.Equal(t, taxonomy.CompletionPlayed, portal.CompletionStatus)
	assert.Equal(t, "Portal 2", portal.InstallationDirectory)

	stardew := byTitle["Stardew Valley"]
	assert.Equal(t, int64(10*60), stardew.PlayTime)
	assert.Equal(t, 1, stardew.PlayCount)
	assert.Empty(t, stardew.InstallationDirectory)
}

func TestRescanRaisesPlaytime(t *testing.T) {
	t.Parallel()

	steamDir := t.TempDir()
	libraryDir := t.TempDir()
	writeLibraryFolders(t, steamDir, libraryDir)
	writeManifest(t, libraryDir, "620", "Portal 2", "4", "Portal 2", "100")

	minutes := int64(60)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"response":{"game_count":1,"games":[
			{"appid":620,"name":"Portal 2","playtime_forever":%d}]}}`, minutes)
	}))
	defer server.Close()

	handler := mocks.NewMockDataHandler(t.TempDir())
	scanner := NewScanner(handler)
	scanner.ownedGamesEndpoint = server.URL

	source := newTestSource(steamDir)
	source.Config["include_online_games"] = "true"
	source.Config["api_key"] = "k"
	source.Config["steam_id"] = "s"

	added, errs := scanner.Scan(context.Background(), source, nil)
	require.Empty(t, errs)
	require.Equal(t, 1, added)

	minutes = 120
	added, errs = scanner.Scan(context.Background(), source, nil)
	require.Empty(t, errs)
	assert.Equal(t, 0, added)

	games := handler.Games()
	require.Len(t, games, 1)
	assert.Equal(t, int64(120*60), games[0].PlayTime)
	assert.Equal(t, 4, games[0].PlayCount)
}

func TestScanMissingSteamPath(t *testing.T) {
	t.Parallel()

	handler := mocks.NewMockDataHandler(t.TempDir())
	scanner := NewScanner(handler)

	source := newTestSource("")
	added, errs := scanner.Scan(context.Background(), source, nil)
	assert.Equal(t, 0, added)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "steam_path")
}

func TestScanMissingLibraryFolders(t *testing.T) {
	t.Parallel()

	handler := mocks.NewMockDataHandler(t.TempDir())
	scanner := NewScanner(handler)

	added, errs := scanner.Scan(context.Background(), newTestSource(t.TempDir()), nil)
	assert.Equal(t, 0, added)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "libraryfolders.vdf")
}

func TestOwnedGamesFetchFailure(t *testing.T) {
	t.Parallel()

	steamDir := t.TempDir()
	writeLibraryFolders(t, steamDir)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	handler := mocks.NewMockDataHandler(t.TempDir())
	scanner := NewScanner(handler)
	scanner.ownedGamesEndpoint = server.URL

	source := newTestSource(steamDir)
	source.Config["include_online_games"] = "true"
	source.Config["api_key"] = "k"
	source.Config["steam_id"] = "s"

	added, errs := scanner.Scan(context.Background(), source, nil)
	assert.Equal(t, 0, added)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "owned games")
}

func TestStatsFromMinutes(t *testing.T) {
	t.Parallel()

	assert.Zero(t, statsFromMinutes(0).PlayCount)
	assert.Equal(t, 1, statsFromMinutes(5).PlayCount)
	assert.Equal(t, 1, statsFromMinutes(30).PlayCount)
	assert.Equal(t, 3, statsFromMinutes(95).PlayCount)
	assert.Equal(t, int64(95*60), statsFromMinutes(95).PlayTime)
}
