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

package mocks

import (
	"context"
	"strings"

	"github.com/GameShelfProject/gameshelf-core/pkg/metadata"
	"github.com/GameShelfProject/gameshelf-core/pkg/taxonomy"
)

// MockMetadataProvider serves canned details keyed by lowercase title.
type MockMetadataProvider struct {
	// Records maps lowercase title to details.
	Records map[string]*metadata.Details
	// Err, when set, is returned by every lookup.
	Err error
}

func (m *MockMetadataProvider) Search(_ context.Context, query string) ([]metadata.SearchResultItem, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var items []metadata.SearchResultItem
	for _, d := range m.Records {
		if strings.Contains(strings.ToLower(d.Name), strings.ToLower(query)) {
			items = append(items, metadata.SearchResultItem{ID: d.ID, Name: d.Name})
		}
	}
	return items, nil
}

func (m *MockMetadataProvider) GetDetails(_ context.Context, id string) (*metadata.Details, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, d := range m.Records {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, nil
}

func (m *MockMetadataProvider) SearchByTitleAndPlatform(
	_ context.Context, title string, _ taxonomy.Platform,
) (*metadata.Details, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if d, ok := m.Records[strings.ToLower(title)]; ok {
		return d, nil
	}
	return nil, nil
}
