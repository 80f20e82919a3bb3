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

// Package syncer orchestrates source scans. Each scan runs in its own
// worker goroutine behind a recover envelope, so a panicking provider can
// never take down the process; failures surface as error strings in the
// Result.
package syncer

import (
	"context"
	"fmt"

	"github.com/GameShelfProject/gameshelf-core/pkg/library"
	"github.com/GameShelfProject/gameshelf-core/pkg/progress"
	"github.com/GameShelfProject/gameshelf-core/pkg/sources"
	"github.com/rs/zerolog/log"
)

// Result is the outcome of scanning one source.
type Result struct {
	SourceID string
	Added    int
	Errors   []string
}

// Syncer runs scans against a scanner registry and reports through a
// progress coordinator.
type Syncer struct {
	registry    *sources.Registry
	coordinator *progress.Coordinator
}

// New creates a Syncer.
func New(registry *sources.Registry, coordinator *progress.Coordinator) *Syncer {
	return &Syncer{registry: registry, coordinator: coordinator}
}

// ScanSource scans one source in a worker goroutine. The returned channel
// yields exactly one Result and is then closed.
func (s *Syncer) ScanSource(ctx context.Context, source *library.Source) <-chan Result {
	results := make(chan Result, 1)
	go func() {
		defer close(results)
		results <- s.scan(ctx, source)
	}()
	return results
}

// ScanAll scans every active source sequentially, yielding one Result per
// scanned source. Inactive sources are skipped.
func (s *Syncer) ScanAll(ctx context.Context, srcs []*library.Source) <-chan Result {
	results := make(chan Result, len(srcs))
	go func() {
		defer close(results)
		for _, src := range srcs {
			if !src.Active {
				log.Debug().Str("source", src.ID).Msg("skipping inactive source")
				continue
			}
			results <- s.scan(ctx, src)
		}
	}()
	return results
}

func (s *Syncer) scan(ctx context.Context, source *library.Source) (result Result) {
	result.SourceID = source.ID

	opID := progress.OperationID(string(source.SourceType), source.ID)
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("source", source.ID).Interface("panic", r).
				Msg("scanner panicked")
			msg := fmt.Sprintf("scan of source %s failed: %v", source.ID, r)
			result.Errors = append(result.Errors, msg)
			s.coordinator.Error(opID, msg)
		}
	}()

	scanner, err := s.registry.Lookup(source.SourceType)
	if err != nil {
		result.Errors = []string{err.Error()}
		return result
	}

	cb := s.coordinator.StartOperation(opID, fmt.Sprintf("Scanning %s", source.Name), true)
	if cb == nil {
		result.Errors = []string{fmt.Sprintf("a scan of source %s is already running", source.ID)}
		return result
	}

	result.Added, result.Errors = scanner.Scan(ctx, source, cb)

	switch {
	case len(result.Errors) > 0:
		s.coordinator.Complete(opID,
			fmt.Sprintf("Scan completed with %d errors", len(result.Errors)))
	default:
		s.coordinator.Complete(opID,
			fmt.Sprintf("Scan complete: %d games added or updated", result.Added))
	}
	return result
}
