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

package taxonomy

import (
	"regexp"
	"strings"
)

// Genre is a canonical game genre.
type Genre string

const (
	GenreAction         Genre = "Action"
	GenreAdventure      Genre = "Adventure"
	GenreArcade         Genre = "Arcade"
	GenreBoardGame      Genre = "Board Game"
	GenreEducational    Genre = "Educational"
	GenreFighting       Genre = "Fighting"
	GenreHorror         Genre = "Horror"
	GenreMMO            Genre = "Massively Multiplayer Online (MMO)"
	GenreMusic          Genre = "Music"
	GenrePlatformer     Genre = "Platform"
	GenrePuzzle         Genre = "Puzzle"
	GenreRacing         Genre = "Racing"
	GenreRolePlayingRPG Genre = "Role-Playing (RPG)"
	GenreSandbox        Genre = "Sandbox"
	GenreShooter        Genre = "Shooter"
	GenreSimulator      Genre = "Simulator"
	GenreSports         Genre = "Sports"
	GenreStealth        Genre = "Stealth"
	GenreStrategy       Genre = "Strategy"
	GenreSurvival       Genre = "Survival"
	GenreTrivia         Genre = "Trivia"
	GenreVisualNovel    Genre = "Visual Novel"
)

// Genres lists every canonical genre in display order.
var Genres = []Genre{
	GenreAction, GenreAdventure, GenreArcade, GenreBoardGame,
	GenreEducational, GenreFighting, GenreHorror, GenreMMO, GenreMusic,
	GenrePlatformer, GenrePuzzle, GenreRacing, GenreRolePlayingRPG,
	GenreSandbox, GenreShooter, GenreSimulator, GenreSports, GenreStealth,
	GenreStrategy, GenreSurvival, GenreTrivia, GenreVisualNovel,
}

var genreAliases = map[string]Genre{
	"rpg":                   GenreRolePlayingRPG,
	"role playing":          GenreRolePlayingRPG,
	"role-playing":          GenreRolePlayingRPG,
	"roleplaying":           GenreRolePlayingRPG,
	"jrpg":                  GenreRolePlayingRPG,
	"crpg":                  GenreRolePlayingRPG,
	"fps":                   GenreShooter,
	"shmup":                 GenreShooter,
	"shoot em up":           GenreShooter,
	"shoot'em up":           GenreShooter,
	"first-person shooter":  GenreShooter,
	"third-person shooter":  GenreShooter,
	"platformer":            GenrePlatformer,
	"side scroller":         GenrePlatformer,
	"sidescroller":          GenrePlatformer,
	"sim":                   GenreSimulator,
	"simulation":            GenreSimulator,
	"management":            GenreSimulator,
	"rts":                   GenreStrategy,
	"tbs":                   GenreStrategy,
	"tactics":               GenreStrategy,
	"tower defense":         GenreStrategy,
	"4x":                    GenreStrategy,
	"driving":               GenreRacing,
	"beat em up":            GenreFighting,
	"beat'em up":            GenreFighting,
	"brawler":               GenreFighting,
	"versus":                GenreFighting,
	"survival horror":       GenreHorror,
	"terror":                GenreHorror,
	"roguelike":             GenreAction,
	"roguelite":             GenreAction,
	"hack and slash":        GenreAction,
	"mmorpg":                GenreMMO,
	"massively multiplayer": GenreMMO,
	"rhythm":                GenreMusic,
	"musical":               GenreMusic,
	"point and click":       GenreAdventure,
	"point-and-click":       GenreAdventure,
	"interactive fiction":   GenreAdventure,
	"quiz":                  GenreTrivia,
	"cards":                 GenreBoardGame,
	"card game":             GenreBoardGame,
	"chess":                 GenreBoardGame,
	"pinball":               GenreArcade,
	"open world":            GenreSandbox,
	"football":              GenreSports,
	"soccer":                GenreSports,
	"basketball":            GenreSports,
	"golf":                  GenreSports,
	"hockey":                GenreSports,
	"wrestling":             GenreSports,
	"vn":                    GenreVisualNovel,
}

var genreAliasKeys = sortedAliasKeys(genreAliases)

// genreDelimiters splits compound provider genres such as "Action & Adventure"
// or "Racing/Sports" into individual candidate tokens.
var genreDelimiters = regexp.MustCompile(`[&/,]+|\s+`)

// ResolveGenre maps a raw provider string to a canonical Genre. Beyond the
// shared resolution ladder, compound strings are split on "&", "/", ",",
// whitespace and the word "and", and the first token that resolves wins.
func ResolveGenre(raw string) (Genre, error) {
	if g, ok := TryResolveGenre(raw); ok {
		return g, nil
	}
	return "", ErrNotFound
}

// TryResolveGenre is the fail-soft variant used by scanners.
func TryResolveGenre(raw string) (Genre, bool) {
	if g, ok := resolve(raw, Genres, genreAliases, genreAliasKeys); ok {
		return g, true
	}

	for _, token := range genreDelimiters.Split(raw, -1) {
		token = strings.TrimSpace(token)
		if token == "" || strings.EqualFold(token, "and") {
			continue
		}
		if g, ok := resolve(token, Genres, genreAliases, genreAliasKeys); ok {
			return g, true
		}
	}

	return "", false
}
