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
	"sort"
	"strings"
)

// RomKey builds the reconciliation key for a ROM entry from its installation
// directory and file set. Files are sorted so the key is independent of
// enumeration order; a title or regex change alone never changes the key.
func RomKey(installationDirectory string, files []string) string {
	sorted := make([]string, len(files))
	copy(sorted, files)
	sort.Strings(sorted)

	var b strings.Builder
	b.WriteString(installationDirectory)
	for _, f := range sorted {
		b.WriteByte('|')
		b.WriteString(f)
	}
	return b.String()
}

// TitleKey builds the reconciliation key for an online-source entry. Keys are
// scoped per source id by the caller, so lowercase title suffices.
func TitleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// LauncherKey builds the reconciliation key for a provider-assigned id.
func LauncherKey(launcherType, launcherID string) string {
	return "launcher|" + launcherType + "|" + launcherID
}

// GameKey returns the reconciliation key for an existing catalog entry:
// launcher id when the provider assigned one, directory+files for on-disk
// entries, lowercase title otherwise.
func GameKey(g *Game) string {
	if g.LauncherID != "" {
		return LauncherKey(g.LauncherType, g.LauncherID)
	}
	if g.InstallationDirectory != "" {
		return RomKey(g.InstallationDirectory, g.Files)
	}
	return TitleKey(g.Title)
}

// IndexBySource builds the per-source reconciliation index used by scanners.
// Launcher-keyed entries are additionally indexed by lowercase title so
// records saved before launcher ids were tracked still match.
func IndexBySource(games []*Game, sourceID string) map[string]*Game {
	index := make(map[string]*Game)
	for _, g := range games {
		if g.Source != sourceID {
			continue
		}
		index[GameKey(g)] = g
		if g.LauncherID != "" {
			key := TitleKey(g.Title)
			if _, taken := index[key]; !taken {
				index[key] = g
			}
		}
	}
	return index
}
