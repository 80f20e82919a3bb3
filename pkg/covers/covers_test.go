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

package covers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchAndSaveForGame(t *testing.T) {
	t.Parallel()

	var downloads atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		downloads.Add(1)
		_, _ = w.Write([]byte("jpeg bytes"))
	}))
	defer srv.Close()

	mediaDir := t.TempDir()
	gamesDir := t.TempDir()
	f := NewFetcher(mediaDir, gamesDir)

	ok, errMsg := f.FetchAndSaveForGame(context.Background(), "game1", srv.URL+"/cover.jpg", "steam")
	require.True(t, ok, errMsg)
	assert.Equal(t, int32(1), downloads.Load())

	data, err := os.ReadFile(f.CoverPath("game1"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))

	// Same URL for a second game: no new download, just a new link.
	ok, errMsg = f.FetchAndSaveForGame(context.Background(), "game2", srv.URL+"/cover.jpg", "steam")
	require.True(t, ok, errMsg)
	assert.Equal(t, int32(1), downloads.Load())

	data, err = os.ReadFile(f.CoverPath("game2"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))
}

func TestFetchIdempotentForSameGame(t *testing.T) {
	t.Parallel()

	var downloads atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		downloads.Add(1)
		_, _ = w.Write([]byte("img"))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), t.TempDir())

	for i := 0; i < 3; i++ {
		ok, errMsg := f.FetchAndSaveForGame(context.Background(), "g", srv.URL, "gog")
		require.True(t, ok, errMsg)
	}
	assert.Equal(t, int32(1), downloads.Load())
}

func TestFetchFailureReturnsMessage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	mediaDir := t.TempDir()
	f := NewFetcher(mediaDir, t.TempDir())

	ok, errMsg := f.FetchAndSaveForGame(context.Background(), "g", srv.URL, "psn")
	assert.False(t, ok)
	assert.Contains(t, errMsg, "psn")

	// No stray temp files left in the media store.
	entries, err := os.ReadDir(mediaDir)
	require.NoError(t, err)
	for _, e := range entries {
		sub, err := os.ReadDir(mediaDir + "/" + e.Name())
		require.NoError(t, err)
		assert.Empty(t, sub)
	}
}

func TestFetchEmptyURL(t *testing.T) {
	t.Parallel()

	f := NewFetcher(t.TempDir(), t.TempDir())
	ok, errMsg := f.FetchAndSaveForGame(context.Background(), "g", "", "xbox")
	assert.False(t, ok)
	assert.Equal(t, "no cover URL", errMsg)
}
