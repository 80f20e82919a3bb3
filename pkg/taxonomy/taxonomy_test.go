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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePlatform(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    Platform
		wantErr bool
	}{
		{
			name: "canonical exact",
			raw:  "PlayStation 5",
			want: PlatformPlayStation5,
		},
		{
			name: "case insensitive",
			raw:  "playstation 5",
			want: PlatformPlayStation5,
		},
		{
			name: "alias abbreviation",
			raw:  "ps5",
			want: PlatformPlayStation5,
		},
		{
			name: "alias with surrounding whitespace",
			raw:  "  PSX  ",
			want: PlatformPlayStation,
		},
		{
			name: "alias containment",
			raw:  "Sega Megadrive (PAL)",
			want: PlatformGenesis,
		},
		{
			name:    "unknown",
			raw:     "ZX Quantum",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ResolvePlatform(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTryResolvePlatformNeverErrors(t *testing.T) {
	t.Parallel()

	_, ok := TryResolvePlatform("not a platform at all")
	assert.False(t, ok)

	got, ok := TryResolvePlatform("wiiu")
	require.True(t, ok)
	assert.Equal(t, PlatformWiiU, got)
}

func TestResolveGenre(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    Genre
		wantErr bool
	}{
		{
			name: "canonical",
			raw:  "Role-Playing (RPG)",
			want: GenreRolePlayingRPG,
		},
		{
			name: "alias",
			raw:  "rpg",
			want: GenreRolePlayingRPG,
		},
		{
			name: "compound ampersand picks first token",
			raw:  "Action & Adventure",
			want: GenreAction,
		},
		{
			name: "compound slash",
			raw:  "Sports/Racing",
			want: GenreSports,
		},
		{
			name: "compound with the word and",
			raw:  "Puzzle and Strategy",
			want: GenrePuzzle,
		},
		{
			name: "compound skips unresolvable tokens",
			raw:  "Experimental, Fighting",
			want: GenreFighting,
		},
		{
			name: "keyword only matches whole words",
			raw:  "sim racing",
			want: GenreSimulator,
		},
		{
			name:    "no mid-word keyword hits",
			raw:     "Mixed Martial Arts",
			wantErr: true,
		},
		{
			name:    "unknown",
			raw:     "Walking",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ResolveGenre(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAgeRatingsFromMinAge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		minAge int
		want   []AgeRating
	}{
		{
			name:   "unrated",
			minAge: 0,
			want:   []AgeRating{AgeRatingESRBEveryone, AgeRatingPEGI3, AgeRatingCEROA},
		},
		{
			name:   "young children",
			minAge: 7,
			want:   []AgeRating{AgeRatingESRBEveryone, AgeRatingPEGI7, AgeRatingCEROA},
		},
		{
			name:   "preteen",
			minAge: 12,
			want:   []AgeRating{AgeRatingESRBEveryone10, AgeRatingPEGI12, AgeRatingCEROB},
		},
		{
			name:   "teen",
			minAge: 13,
			want:   []AgeRating{AgeRatingESRBTeen, AgeRatingPEGI12, AgeRatingCEROC},
		},
		{
			name:   "sixteen",
			minAge: 16,
			want:   []AgeRating{AgeRatingESRBTeen, AgeRatingPEGI16, AgeRatingCEROC},
		},
		{
			name:   "mature",
			minAge: 17,
			want:   []AgeRating{AgeRatingESRBMature, AgeRatingPEGI18, AgeRatingCEROD},
		},
		{
			name:   "adults only",
			minAge: 18,
			want:   []AgeRating{AgeRatingESRBAdultsOnly, AgeRatingPEGI18, AgeRatingCEROZ},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, AgeRatingsFromMinAge(tt.minAge))
		})
	}
}

func TestCompletionFromString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    CompletionStatus
		wantErr bool
	}{
		{
			name: "empty defaults to not played",
			raw:  "",
			want: CompletionNotPlayed,
		},
		{
			name: "whitespace only defaults to not played",
			raw:  "   ",
			want: CompletionNotPlayed,
		},
		{
			name: "canonical",
			raw:  "Playing",
			want: CompletionPlaying,
		},
		{
			name: "alias",
			raw:  "backlog",
			want: CompletionPlanToPlay,
		},
		{
			name: "platinum maps to completed",
			raw:  "platinum",
			want: CompletionCompleted,
		},
		{
			name:    "unknown",
			raw:     "somewhere",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := CompletionFromString(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMaxCompletionNeverRegresses(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CompletionBeaten, MaxCompletion(CompletionBeaten, CompletionPlayed))
	assert.Equal(t, CompletionBeaten, MaxCompletion(CompletionPlayed, CompletionBeaten))
	assert.Equal(t, CompletionCompleted, MaxCompletion(CompletionCompleted, CompletionNotPlayed))
	assert.Equal(t, CompletionNotPlayed, MaxCompletion(CompletionNotPlayed, CompletionNotPlayed))
}

func TestEveryCanonicalValueRoundTrips(t *testing.T) {
	t.Parallel()

	for _, p := range Platforms {
		got, err := ResolvePlatform(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	for _, g := range Genres {
		got, err := ResolveGenre(string(g))
		require.NoError(t, err)
		assert.Equal(t, g, got)
	}
	for _, r := range AgeRatings {
		got, err := ResolveAgeRating(string(r))
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}
	for _, f := range Features {
		got, err := ResolveFeature(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	for _, re := range Regions {
		got, err := ResolveRegion(string(re))
		require.NoError(t, err)
		assert.Equal(t, re, got)
	}
	for _, c := range CompletionStatuses {
		got, err := CompletionFromString(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
}
