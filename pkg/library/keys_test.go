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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRomKeyOrderIndependent(t *testing.T) {
	t.Parallel()

	a := RomKey("/roms/gc/Zelda", []string{"disc1.iso", "disc2.iso"})
	b := RomKey("/roms/gc/Zelda", []string{"disc2.iso", "disc1.iso"})
	assert.Equal(t, a, b)
}

func TestRomKeyStableAcrossTitleChange(t *testing.T) {
	t.Parallel()

	// A different regex-derived title must not change the key as long as
	// the directory and file set are unchanged.
	g1 := &Game{
		Title:                 "Zelda",
		InstallationDirectory: "/roms/gc/Zelda",
		Files:                 []string{"disc1.iso", "disc2.iso"},
	}
	g2 := &Game{
		Title:                 "The Legend of Zelda",
		InstallationDirectory: "/roms/gc/Zelda",
		Files:                 []string{"disc1.iso", "disc2.iso"},
	}
	assert.Equal(t, GameKey(g1), GameKey(g2))
}

func TestGameKeyPrefersLauncherID(t *testing.T) {
	t.Parallel()

	g := &Game{
		Title:        "Portal 2",
		LauncherType: "steam",
		LauncherID:   "620",
	}
	assert.Equal(t, "launcher|steam|620", GameKey(g))
}

func TestIndexBySource(t *testing.T) {
	t.Parallel()

	games := []*Game{
		{Title: "Portal 2", Source: "src1", LauncherType: "steam", LauncherID: "620"},
		{Title: "Hades", Source: "src1"},
		{Title: "Celeste", Source: "src2"},
	}

	index := IndexBySource(games, "src1")
	require.Len(t, index, 3)

	// Launcher-keyed entries remain reachable by lowercase title too.
	assert.Same(t, games[0], index["launcher|steam|620"])
	assert.Same(t, games[0], index["portal 2"])
	assert.Same(t, games[1], index["hades"])
	assert.NotContains(t, index, "celeste")
}
