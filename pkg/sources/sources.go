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

// Package sources defines the scanner contract and the reconciliation
// helpers shared by every provider.
package sources

import (
	"context"
	"fmt"

	"github.com/GameShelfProject/gameshelf-core/pkg/library"
	"github.com/GameShelfProject/gameshelf-core/pkg/progress"
	"github.com/rs/zerolog/log"
)

// Scanner imports one source type into the catalog. Scan returns the
// number of added or updated games together with per-item error strings;
// it only fails outright, as (0, one error), when authentication or the
// top-level remote fetch fails.
type Scanner interface {
	Type() library.SourceType
	Scan(ctx context.Context, source *library.Source, cb *progress.Callback) (int, []string)
}

// Registry resolves scanners by source type.
type Registry struct {
	scanners map[library.SourceType]Scanner
}

// NewRegistry builds a registry from the given scanners.
func NewRegistry(scanners ...Scanner) *Registry {
	r := &Registry{scanners: make(map[library.SourceType]Scanner)}
	for _, s := range scanners {
		if _, dup := r.scanners[s.Type()]; dup {
			log.Warn().Str("type", string(s.Type())).Msg("duplicate scanner registered")
		}
		r.scanners[s.Type()] = s
	}
	return r
}

// Lookup returns the scanner for a source type.
func (r *Registry) Lookup(t library.SourceType) (Scanner, error) {
	s, ok := r.scanners[t]
	if !ok {
		return nil, fmt.Errorf("no scanner registered for source type %q", t)
	}
	return s, nil
}

// ItemError formats a per-item failure with enough context to act on.
func ItemError(title string, err error) string {
	return fmt.Sprintf("failed to process %q: %v", title, err)
}

// SaveError formats a failed persistence call.
func SaveError(title string) string {
	return fmt.Sprintf("Failed to save game '%s'", title)
}
