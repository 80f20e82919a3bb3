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

package gog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GameShelfProject/gameshelf-core/pkg/auth"
	"github.com/GameShelfProject/gameshelf-core/pkg/credentials"
	"github.com/GameShelfProject/gameshelf-core/pkg/library"
	"github.com/GameShelfProject/gameshelf-core/pkg/taxonomy"
	"github.com/GameShelfProject/gameshelf-core/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExchanger struct{}

func (stubExchanger) ExchangeCode(_ context.Context, _ string) (*credentials.Token, error) {
	return &credentials.Token{
		AccessToken:  "gog-at",
		RefreshToken: "gog-rt",
		TokenType:    "Bearer",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
	}, nil
}

func (stubExchanger) RefreshToken(_ context.Context, _ string) (*credentials.Token, error) {
	return nil, fmt.Errorf("refresh not expected")
}

func newAuthedStore(t *testing.T) *credentials.Store {
	t.Helper()
	store := credentials.NewStore(t.TempDir(), stubExchanger{})
	require.True(t, store.CompleteAuthWithCode(context.Background(), "auth-code"))
	return store
}

func TestExchangeCode(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, clientID, r.PostForm.Get("client_id"))
		assert.Equal(t, clientSecret, r.PostForm.Get("client_secret"))
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, redirectURI, r.PostForm.Get("redirect_uri"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt",
			"token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	exchanger := NewExchanger()
	exchanger.tokenEndpoint = server.URL

	tok, err := exchanger.ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "at", tok.AccessToken)
	assert.Equal(t, "rt", tok.RefreshToken)
	assert.Greater(t, tok.ExpiresAt, time.Now().Unix())
}

// newLibraryServer serves two product pages, v2 details for the real game,
// a 404 for the bonus content product, and gameplay sessions. timeSum is
// read per request so tests can mutate it between scans.
func newLibraryServer(t *testing.T, timeSum *int64) *httptest.Server {
	t.Helper()
	var mux http.ServeMux
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gog-at", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "1" {
			_, _ = w.Write([]byte(`{"products":[{"id":10,"title":"The Witcher 3"}],"totalPages":2}`))
			return
		}
		_, _ = w.Write([]byte(`{"products":[{"id":20,"title":"Bonus Soundtrack"}],"totalPages":2}`))
	})
	mux.HandleFunc("/v2/games/10", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"description":"Monster hunting.<br><br>Open world.",
			"_embedded":{
				"supportedOperatingSystems":[
					{"operatingSystem":{"name":"windows"}},
					{"operatingSystem":{"name":"mac"}}
				],
				"tags":[{"name":"Role-Playing"},{"name":"Adventure"},{"name":"Open World"}],
				"developers":[{"name":"CD PROJEKT RED"}],
				"publisher":{"name":"CD PROJEKT RED"}
			},
			"_links":{"boxArtImage":{"href":"https://img.example/witcher3.jpg"}}
		}`))
	})
	mux.HandleFunc("/v2/games/20", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/userData.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"galaxyUserId":"galaxy-1"}`))
	})
	mux.HandleFunc("/games/10/users/galaxy-1/sessions", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"time_sum":%d}`, *timeSum)
	})
	return httptest.NewServer(&mux)
}

func newTestScanner(t *testing.T, server *httptest.Server) (*Scanner, *mocks.MockDataHandler) {
	t.Helper()
	handler := mocks.NewMockDataHandler(t.TempDir())
	scanner := NewScanner(handler, newAuthedStore(t), nil)
	scanner.productsEndpoint = server.URL + "/products"
	scanner.detailsEndpoint = server.URL + "/v2/games/%s"
	scanner.userDataEndpoint = server.URL + "/userData.json"
	scanner.sessionsEndpoint = server.URL + "/games/%s/users/%s/sessions"
	return scanner, handler
}

func newTestSource() *library.Source {
	return &library.Source{
		ID:         "gog1",
		Name:       "GOG",
		SourceType: library.SourceGOG,
		Active:     true,
	}
}

func TestScanAddsGames(t *testing.T) {
	t.Parallel()

	timeSum := int64(0)
	server := newLibraryServer(t, &timeSum)
	defer server.Close()

	scanner, handler := newTestScanner(t, server)
	added, errs := scanner.Scan(context.Background(), newTestSource(), nil)
	require.Empty(t, errs)
	assert.Equal(t, 1, added, "bonus content without v2 details should be skipped")

	games := handler.Games()
	require.Len(t, games, 1)
	game := games[0]
	assert.Equal(t, "The Witcher 3", game.Title)
	assert.Equal(t, "gog", game.LauncherType)
	assert.Equal(t, "10", game.LauncherID)
	assert.ElementsMatch(t,
		[]taxonomy.Platform{taxonomy.PlatformPCWindows, taxonomy.PlatformPCMac},
		game.Platforms)
	assert.ElementsMatch(t,
		[]taxonomy.Genre{taxonomy.GenreRolePlayingRPG, taxonomy.GenreAdventure, taxonomy.GenreSandbox},
		game.Genres)
	assert.Contains(t, game.Description, "Developer: CD PROJEKT RED")
	assert.Contains(t, game.Description, "Monster hunting.\n\nOpen world.")
	assert.Zero(t, game.PlayTime, "scan should not fetch playtime")
}

func TestScanSkipsExistingOnRescan(t *testing.T) {
	t.Parallel()

	timeSum := int64(0)
	server := newLibraryServer(t, &timeSum)
	defer server.Close()

	scanner, handler := newTestScanner(t, server)
	source := newTestSource()

	added, errs := scanner.Scan(context.Background(), source, nil)
	require.Empty(t, errs)
	require.Equal(t, 1, added)

	added, errs = scanner.Scan(context.Background(), source, nil)
	require.Empty(t, errs)
	assert.Equal(t, 0, added)
	assert.Len(t, handler.Games(), 1)
}

func TestUpdatePlaytimeForGames(t *testing.T) {
	t.Parallel()

	timeSum := int64(90)
	server := newLibraryServer(t, &timeSum)
	defer server.Close()

	scanner, handler := newTestScanner(t, server)
	source := newTestSource()

	_, errs := scanner.Scan(context.Background(), source, nil)
	require.Empty(t, errs)

	updated, errs := scanner.UpdatePlaytimeForGames(context.Background(), source, nil)
	require.Empty(t, errs)
	assert.Equal(t, 1, updated)

	games := handler.Games()
	require.Len(t, games, 1)
	assert.Equal(t, int64(90*60), games[0].PlayTime)
	assert.Equal(t, taxonomy.CompletionPlayed, games[0].CompletionStatus)

	// A later session report with less total time never regresses.
	timeSum = 30
	updated, errs = scanner.UpdatePlaytimeForGames(context.Background(), source, nil)
	require.Empty(t, errs)
	assert.Equal(t, 0, updated)
	assert.Equal(t, int64(90*60), handler.Games()[0].PlayTime)
}

func TestUpdatePlaytimeNoGames(t *testing.T) {
	t.Parallel()

	timeSum := int64(0)
	server := newLibraryServer(t, &timeSum)
	defer server.Close()

	scanner, _ := newTestScanner(t, server)
	updated, errs := scanner.UpdatePlaytimeForGames(context.Background(), newTestSource(), nil)
	assert.Zero(t, updated)
	assert.Empty(t, errs)
}

func TestScanNotAuthenticated(t *testing.T) {
	t.Parallel()

	handler := mocks.NewMockDataHandler(t.TempDir())
	store := credentials.NewStore(t.TempDir(), stubExchanger{})
	scanner := NewScanner(handler, store, nil)
	scanner.waiter = auth.NewWaiter(auth.WithTimeout(10 * time.Millisecond))

	added, errs := scanner.Scan(context.Background(), newTestSource(), nil)
	assert.Zero(t, added)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "GOG authentication required")
}

func TestDescribeDetails(t *testing.T) {
	t.Parallel()

	var details gameDetails
	details.Description = "Line one.<br>Line two."
	details.Embedded.Publisher.Name = "Devolver"
	got := describeDetails(details)
	assert.Equal(t, "Publisher: Devolver\n\nLine one.\nLine two.", got)

	assert.Empty(t, describeDetails(gameDetails{}))
}

func TestPlatformsFromDetailsDefaultsToWindows(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		[]taxonomy.Platform{taxonomy.PlatformPCWindows},
		platformsFromDetails(gameDetails{}))
}
