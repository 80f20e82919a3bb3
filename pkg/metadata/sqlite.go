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

package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/GameShelfProject/gameshelf-core/pkg/taxonomy"
	"github.com/hbollon/go-edlib"
	_ "github.com/mattn/go-sqlite3" // sqlite driver
	"github.com/rs/zerolog/log"
)

// fuzzyAcceptThreshold is the Jaro-Winkler floor for accepting a wildcard
// hit that fails the structural checks.
const fuzzyAcceptThreshold = 0.9

// SQLiteProvider implements Provider against a local metadata database.
type SQLiteProvider struct {
	db *sql.DB
}

// NewSQLiteProvider opens (creating if needed) the metadata database at
// path and brings its schema up to date.
func NewSQLiteProvider(path string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata database: %w", err)
	}

	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate metadata database: %w", err)
	}

	return &SQLiteProvider{db: db}, nil
}

// Close releases the database handle.
func (p *SQLiteProvider) Close() error {
	if err := p.db.Close(); err != nil {
		return fmt.Errorf("failed to close metadata database: %w", err)
	}
	return nil
}

// Search returns title matches for a free-form query, walking the tiers
// without a platform filter.
func (p *SQLiteProvider) Search(ctx context.Context, query string) ([]SearchResultItem, error) {
	items, _, err := p.tieredSearch(ctx, query, "")
	return items, err
}

// GetDetails loads the full record for an id. Returns (nil, nil) when the
// id is unknown.
func (p *SQLiteProvider) GetDetails(ctx context.Context, id string) (*Details, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT id, name, platform, description, minimum_age FROM games WHERE id = ?`, id)

	var d Details
	var platform string
	err := row.Scan(&d.ID, &d.Name, &platform, &d.Description, &d.MinimumAge)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game record: %w", err)
	}
	d.Platforms = []string{platform}

	if d.Genres, err = p.readStrings(ctx,
		`SELECT genre FROM game_genres WHERE game_id = ?`, id); err != nil {
		return nil, err
	}
	if d.Companies, err = p.readStrings(ctx,
		`SELECT name FROM game_companies WHERE game_id = ?`, id); err != nil {
		return nil, err
	}
	if d.ImageURLs, err = p.readStrings(ctx,
		`SELECT url FROM game_images WHERE game_id = ?`, id); err != nil {
		return nil, err
	}

	return &d, nil
}

// SearchByTitleAndPlatform runs the tiered fallback scoped to one platform
// and applies the confidence gate before returning details.
func (p *SQLiteProvider) SearchByTitleAndPlatform(
	ctx context.Context, title string, platform taxonomy.Platform,
) (*Details, error) {
	items, trusted, err := p.tieredSearch(ctx, title, string(platform))
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	top := items[0]
	if !trusted && !confidentMatch(title, top.Name) {
		log.Debug().
			Str("query", title).
			Str("top_hit", top.Name).
			Msg("metadata: rejecting unreliable match")
		return nil, nil
	}

	return p.GetDetails(ctx, top.ID)
}

// tieredSearch walks the five fallback tiers, returning the first tier
// that produces any results. The trusted flag marks hits from the exact
// tiers, which skip the confidence gate. An empty platform disables
// platform scoping.
func (p *SQLiteProvider) tieredSearch(ctx context.Context, query, platform string) ([]SearchResultItem, bool, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, false, nil
	}

	type tier struct {
		name    string
		run     func() ([]SearchResultItem, error)
		trusted bool
	}

	tiers := []tier{
		{"exact", func() ([]SearchResultItem, error) {
			return p.queryItems(ctx, platform,
				`SELECT id, name FROM games WHERE name = ?`, trimmed)
		}, true},
		{"alternate", func() ([]SearchResultItem, error) {
			return p.queryAltItems(ctx, platform, trimmed)
		}, true},
		{"prefix", func() ([]SearchResultItem, error) {
			return p.queryItems(ctx, platform,
				`SELECT id, name FROM games WHERE name LIKE ?`, trimmed+"%")
		}, false},
		{"word wildcards", func() ([]SearchResultItem, error) {
			pattern := strings.ReplaceAll(trimmed, " ", "%") + "%"
			return p.queryItems(ctx, platform,
				`SELECT id, name FROM games WHERE name LIKE ?`, pattern)
		}, false},
		{"full wildcard", func() ([]SearchResultItem, error) {
			return p.queryItems(ctx, platform,
				`SELECT id, name FROM games WHERE name LIKE ?`, "%"+trimmed+"%")
		}, false},
	}

	for _, t := range tiers {
		items, err := t.run()
		if err != nil {
			return nil, false, err
		}
		if len(items) > 0 {
			log.Debug().
				Str("query", trimmed).
				Str("tier", t.name).
				Int("hits", len(items)).
				Msg("metadata: search tier matched")
			return items, t.trusted, nil
		}
	}
	return nil, false, nil
}

func (p *SQLiteProvider) queryItems(ctx context.Context, platform, query string, arg string) ([]SearchResultItem, error) {
	args := []any{arg}
	if platform != "" {
		query += ` AND platform = ?`
		args = append(args, platform)
	}
	query += ` ORDER BY name`

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("metadata search failed: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("metadata: failed to close rows")
		}
	}()

	var items []SearchResultItem
	for rows.Next() {
		var it SearchResultItem
		if err := rows.Scan(&it.ID, &it.Name); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("metadata search failed: %w", err)
	}
	return items, nil
}

func (p *SQLiteProvider) queryAltItems(ctx context.Context, platform, name string) ([]SearchResultItem, error) {
	query := `SELECT g.id, g.name FROM games g
		JOIN alternate_names a ON a.game_id = g.id
		WHERE a.name = ?`
	args := []any{name}
	if platform != "" {
		query += ` AND g.platform = ?`
		args = append(args, platform)
	}
	query += ` ORDER BY g.name`

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("metadata alternate-name search failed: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("metadata: failed to close rows")
		}
	}()

	var items []SearchResultItem
	for rows.Next() {
		var it SearchResultItem
		if err := rows.Scan(&it.ID, &it.Name); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("metadata alternate-name search failed: %w", err)
	}
	return items, nil
}

func (p *SQLiteProvider) readStrings(ctx context.Context, query, id string) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("metadata detail query failed: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("metadata: failed to close rows")
		}
	}()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan detail row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("metadata detail query failed: %w", err)
	}
	return out, nil
}

// confidentMatch gates fuzzy results: the hit must start with the query,
// contain every query word in order, or clear the Jaro-Winkler threshold.
// Jaro-Winkler heavily weights matching prefixes, which suits game titles
// where the start of the name is usually typed correctly.
func confidentMatch(query, hit string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	h := strings.ToLower(hit)

	if strings.HasPrefix(h, q) {
		return true
	}
	if containsWordsInOrder(h, q) {
		return true
	}
	return edlib.JaroWinklerSimilarity(q, h) >= fuzzyAcceptThreshold
}

func containsWordsInOrder(name, query string) bool {
	pos := 0
	for _, word := range strings.Fields(query) {
		idx := strings.Index(name[pos:], word)
		if idx < 0 {
			return false
		}
		pos += idx + len(word)
	}
	return true
}
