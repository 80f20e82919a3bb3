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

// shelfsync is the standalone command line front end for the sync engine.
// It keeps its catalog in a JSON file under the data directory; richer
// persistence belongs to embedding applications.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/GameShelfProject/gameshelf-core/pkg/config"
	"github.com/GameShelfProject/gameshelf-core/pkg/covers"
	"github.com/GameShelfProject/gameshelf-core/pkg/credentials"
	"github.com/GameShelfProject/gameshelf-core/pkg/library"
	"github.com/GameShelfProject/gameshelf-core/pkg/metadata"
	"github.com/GameShelfProject/gameshelf-core/pkg/progress"
	"github.com/GameShelfProject/gameshelf-core/pkg/sources"
	"github.com/GameShelfProject/gameshelf-core/pkg/sources/epic"
	"github.com/GameShelfProject/gameshelf-core/pkg/sources/gog"
	"github.com/GameShelfProject/gameshelf-core/pkg/sources/psn"
	"github.com/GameShelfProject/gameshelf-core/pkg/sources/romdir"
	"github.com/GameShelfProject/gameshelf-core/pkg/sources/steam"
	"github.com/GameShelfProject/gameshelf-core/pkg/sources/xbox"
	"github.com/GameShelfProject/gameshelf-core/pkg/syncer"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

type app struct {
	cfg      *config.Instance
	store    *fileStore
	covers   *covers.Fetcher
	metadata metadata.Provider
}

func run() error {
	scanFlag := flag.String("scan", "", "scan a source by id, or \"all\" for every active source")
	listFlag := flag.Bool("list-sources", false, "list configured sources")
	configFlag := flag.String("config", "", "config directory (default: XDG config dir)")
	authFlag := flag.String("auth", "", "complete sign-in for a source id (requires -code)")
	codeFlag := flag.String("code", "", "authorization code or token for -auth")
	playtimeFlag := flag.String("update-playtime", "", "refresh play time for an already scanned GOG source id")
	debugFlag := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	configDir := *configFlag
	if configDir == "" {
		configDir = config.ConfigDir()
	}
	cfg, err := config.NewConfig(configDir, config.BaseDefaults)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *debugFlag || cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	store, err := openFileStore(config.DataDir())
	if err != nil {
		return err
	}

	a := &app{
		cfg:    cfg,
		store:  store,
		covers: covers.NewFetcher(cfg.MediaDir(), cfg.GamesDir()),
	}
	if _, statErr := os.Stat(cfg.MetadataDBPath()); statErr == nil {
		provider, openErr := metadata.NewSQLiteProvider(cfg.MetadataDBPath())
		if openErr != nil {
			log.Warn().Err(openErr).Msg("metadata database unavailable, continuing without enrichment")
		} else {
			defer func() { _ = provider.Close() }()
			a.metadata = provider
		}
	}

	ctx := context.Background()

	switch {
	case *listFlag:
		return a.listSources()
	case *authFlag != "":
		return a.completeAuth(ctx, *authFlag, *codeFlag)
	case *playtimeFlag != "":
		return a.updatePlaytime(ctx, *playtimeFlag)
	case *scanFlag != "":
		return a.scan(ctx, *scanFlag)
	default:
		flag.Usage()
		return nil
	}
}

func (a *app) listSources() error {
	srcs := a.store.Sources()
	if len(srcs) == 0 {
		fmt.Println("no sources configured")
		return nil
	}
	for _, src := range srcs {
		state := "inactive"
		if src.Active {
			state = "active"
		}
		fmt.Printf("%-12s %-14s %-8s %s\n", src.ID, src.SourceType, state, src.Name)
	}
	return nil
}

func (a *app) findSource(id string) (*library.Source, error) {
	for _, src := range a.store.Sources() {
		if src.ID == id {
			return src, nil
		}
	}
	return nil, fmt.Errorf("no source with id %q", id)
}

// exchangerFor returns the OAuth flow for a remote source type.
func exchangerFor(t library.SourceType) (credentials.TokenExchanger, error) {
	switch t {
	case library.SourcePSN:
		return psn.NewExchanger(), nil
	case library.SourceXbox:
		return xbox.NewExchanger(), nil
	case library.SourceEpic:
		return epic.NewExchanger(), nil
	case library.SourceGOG:
		return gog.NewExchanger(), nil
	default:
		return nil, fmt.Errorf("source type %q does not use token sign-in", t)
	}
}

func (a *app) credentialStore(src *library.Source) (*credentials.Store, error) {
	exchanger, err := exchangerFor(src.SourceType)
	if err != nil {
		return nil, err
	}
	dir, err := a.store.EnsureSecureTokenStorage(src.ID)
	if err != nil {
		return nil, err
	}
	return credentials.NewStore(dir, exchanger), nil
}

func (a *app) completeAuth(ctx context.Context, sourceID, code string) error {
	if code == "" {
		return fmt.Errorf("-auth requires -code")
	}
	src, err := a.findSource(sourceID)
	if err != nil {
		return err
	}
	store, err := a.credentialStore(src)
	if err != nil {
		return err
	}
	if !store.CompleteAuthWithCode(ctx, code) {
		return fmt.Errorf("sign-in failed for source %s", sourceID)
	}
	fmt.Printf("source %s authenticated\n", sourceID)
	return nil
}

func (a *app) scannerFor(src *library.Source) (sources.Scanner, error) {
	switch src.SourceType {
	case library.SourceRomDirectory:
		return romdir.NewScanner(a.store, a.metadata, a.covers), nil
	case library.SourceSteam:
		return steam.NewScanner(a.store), nil
	case library.SourcePSN, library.SourceXbox, library.SourceEpic, library.SourceGOG:
		store, err := a.credentialStore(src)
		if err != nil {
			return nil, err
		}
		switch src.SourceType {
		case library.SourcePSN:
			return psn.NewScanner(a.store, store, a.covers), nil
		case library.SourceXbox:
			return xbox.NewScanner(a.store, store, a.covers), nil
		case library.SourceEpic:
			return epic.NewScanner(a.store, store, a.covers), nil
		default:
			return gog.NewScanner(a.store, store, a.covers), nil
		}
	default:
		return nil, fmt.Errorf("unknown source type %q", src.SourceType)
	}
}

func (a *app) scan(ctx context.Context, target string) error {
	var targets []*library.Source
	if target == "all" {
		for _, src := range a.store.Sources() {
			if src.Active {
				targets = append(targets, src)
			}
		}
		if len(targets) == 0 {
			fmt.Println("no active sources to scan")
			return nil
		}
	} else {
		src, err := a.findSource(target)
		if err != nil {
			return err
		}
		targets = append(targets, src)
	}

	// One scanner per source type; later sources of the same type share it.
	var scanners []sources.Scanner
	seen := map[library.SourceType]bool{}
	for _, src := range targets {
		if seen[src.SourceType] {
			continue
		}
		scanner, err := a.scannerFor(src)
		if err != nil {
			return err
		}
		scanners = append(scanners, scanner)
		seen[src.SourceType] = true
	}

	coordinator := progress.NewCoordinator()
	go printEvents(coordinator.Events())

	s := syncer.New(sources.NewRegistry(scanners...), coordinator)

	failures := 0
	for result := range s.ScanAll(ctx, targets) {
		if len(result.Errors) > 0 {
			failures++
			fmt.Printf("source %s: scan completed with %d errors\n",
				result.SourceID, len(result.Errors))
			for _, msg := range result.Errors {
				log.Warn().Str("source", result.SourceID).Msg(msg)
			}
		} else {
			fmt.Printf("source %s: %d games added or updated\n",
				result.SourceID, result.Added)
		}
	}

	if failures == len(targets) && failures > 0 {
		return fmt.Errorf("all scans failed")
	}
	return nil
}

func (a *app) updatePlaytime(ctx context.Context, sourceID string) error {
	src, err := a.findSource(sourceID)
	if err != nil {
		return err
	}
	if src.SourceType != library.SourceGOG {
		return fmt.Errorf("update-playtime only applies to GOG sources")
	}
	store, err := a.credentialStore(src)
	if err != nil {
		return err
	}

	scanner := gog.NewScanner(a.store, store, a.covers)
	updated, errs := scanner.UpdatePlaytimeForGames(ctx, src, nil)
	for _, msg := range errs {
		log.Warn().Str("source", sourceID).Msg(msg)
	}
	fmt.Printf("source %s: play time updated for %d games\n", sourceID, updated)
	return nil
}

// printEvents renders progress notifications until the process exits.
func printEvents(events <-chan progress.Event) {
	for evt := range events {
		switch evt.Kind {
		case progress.EventStarted:
			fmt.Printf("==> %s\n", evt.Message)
		case progress.EventUpdated:
			if evt.Total > 0 {
				fmt.Printf("\r    [%d/%d] %-60s", evt.Current, evt.Total, evt.Message)
			}
		case progress.EventCompleted:
			fmt.Printf("\n    %s\n", evt.Message)
		case progress.EventErrored:
			fmt.Printf("\n    error: %s\n", evt.Message)
		case progress.EventCancelled:
			fmt.Printf("\n    cancelled: %s\n", evt.Message)
		}
	}
}
