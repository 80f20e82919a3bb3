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

// Package metadata looks up game details in a local metadata database.
// Matching deliberately prefers "not found" over a wrong guess: a fuzzy
// result is only accepted when it clears the confidence gate.
package metadata

import (
	"context"

	"github.com/GameShelfProject/gameshelf-core/pkg/taxonomy"
)

// SearchResultItem is one hit from a title search.
type SearchResultItem struct {
	ID   string
	Name string
}

// Details is the full metadata record for one game.
type Details struct {
	ID          string
	Name        string
	Description string
	Genres      []string
	Platforms   []string
	Companies   []string
	ImageURLs   []string
	// MinimumAge is the provider's numeric age floor, converted to rating
	// labels via taxonomy.AgeRatingsFromMinAge. Zero means unrated.
	MinimumAge int
}

// AgeRatings derives rating labels from the record's minimum age.
func (d *Details) AgeRatings() []taxonomy.AgeRating {
	if d.MinimumAge <= 0 {
		return nil
	}
	return taxonomy.AgeRatingsFromMinAge(d.MinimumAge)
}

// Provider is the metadata lookup contract consumed by scanners.
type Provider interface {
	// Search returns all title matches for a free-form query.
	Search(ctx context.Context, query string) ([]SearchResultItem, error)

	// GetDetails loads the full record for a search hit. Returns
	// (nil, nil) when the id is unknown.
	GetDetails(ctx context.Context, id string) (*Details, error)

	// SearchByTitleAndPlatform runs the tiered fallback search scoped to
	// one platform. Returns (nil, nil) when no confident match exists.
	SearchByTitleAndPlatform(ctx context.Context, title string, platform taxonomy.Platform) (*Details, error)
}
