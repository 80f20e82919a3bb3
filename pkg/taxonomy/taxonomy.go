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

// Package taxonomy defines the closed set of internal enums that all
// provider-specific metadata strings are normalized into: platforms, genres,
// age ratings, features, regions and completion statuses.
//
// Each category resolves raw third-party strings in the same order: exact
// display-string match, case-insensitive match, then a static alias table
// (exact key, then keyword containment). Alias tables are built once at
// package init and never rebuilt per call. The Try* variants return a boolean
// instead of an error and are what scanners use, so a single unmappable tag
// never aborts an import.
package taxonomy

import (
	"errors"
	"sort"
	"strings"
)

// ErrNotFound is returned when a raw string cannot be resolved to any value
// in the requested category.
var ErrNotFound = errors.New("taxonomy: no matching value")

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// sortedAliasKeys returns alias keys ordered longest first (ties broken
// lexically) so keyword containment prefers the most specific alias and is
// deterministic across runs.
func sortedAliasKeys[T ~string](aliases map[string]T) []string {
	keys := make([]string, 0, len(aliases))
	for k := range aliases {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

// isWordChar reports whether a byte continues a word in a lowered string.
func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

// containsWord reports whether key occurs in s bounded by non-word
// characters or the string edges, so "rts" never matches inside "sports".
func containsWord(s, key string) bool {
	for start := 0; ; start++ {
		i := strings.Index(s[start:], key)
		if i < 0 {
			return false
		}
		start += i
		end := start + len(key)
		if (start == 0 || !isWordChar(s[start-1])) &&
			(end == len(s) || !isWordChar(s[end])) {
			return true
		}
	}
}

// resolve runs the shared resolution ladder over a category's canonical
// values and alias table. Alias keys are lowercase and trimmed; containment
// is whole-word only and only attempted for keys of three or more
// characters to keep short abbreviations like "e" or "ao" from matching
// everything.
func resolve[T ~string](raw string, values []T, aliases map[string]T, aliasKeys []string) (T, bool) {
	var zero T
	if raw == "" {
		return zero, false
	}

	for _, v := range values {
		if string(v) == raw {
			return v, true
		}
	}

	lowered := lowerTrim(raw)
	for _, v := range values {
		if lowerTrim(string(v)) == lowered {
			return v, true
		}
	}

	if v, ok := aliases[lowered]; ok {
		return v, true
	}

	for _, key := range aliasKeys {
		if len(key) < 3 {
			continue
		}
		if containsWord(lowered, key) {
			return aliases[key], true
		}
	}

	return zero, false
}
