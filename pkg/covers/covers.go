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

// Package covers downloads cover art into a content-addressed media store.
// Media paths derive from a hash of the source URL, so two games sharing
// an upstream image are stored once and only linked twice. The pipeline is
// idempotent and never lets an error escape its boundary.
package covers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/GameShelfProject/gameshelf-core/pkg/shared/httpclient"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// downloadTimeout bounds a single image download.
	downloadTimeout = 10 * time.Second

	coverFileName = "cover.jpg"
)

// Fetcher downloads covers into the media store and links them into
// per-game directories.
type Fetcher struct {
	client   *httpclient.Client
	mediaDir string
	gamesDir string
}

// NewFetcher creates a Fetcher storing media under mediaDir and linking
// covers into per-game directories under gamesDir.
func NewFetcher(mediaDir, gamesDir string) *Fetcher {
	return &Fetcher{
		client:   httpclient.NewClientWithTimeout(downloadTimeout),
		mediaDir: mediaDir,
		gamesDir: gamesDir,
	}
}

// mediaPath returns the content-addressed location for a URL, sharded by
// the first two hash characters to keep directories small.
func (f *Fetcher) mediaPath(url string) string {
	sum := sha256.Sum256([]byte(url))
	hash := hex.EncodeToString(sum[:])
	return filepath.Join(f.mediaDir, hash[:2], hash+".jpg")
}

// CoverPath returns where a game's cover link lives.
func (f *Fetcher) CoverPath(gameID string) string {
	return filepath.Join(f.gamesDir, gameID, coverFileName)
}

// FetchAndSaveForGame downloads (or reuses) the cover at url and links it
// into the game's directory. Returns (false, message) on failure; it never
// panics past this boundary.
func (f *Fetcher) FetchAndSaveForGame(ctx context.Context, gameID, url, sourceLabel string) (ok bool, errMsg string) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			errMsg = fmt.Sprintf("cover fetch panicked for %q: %v", gameID, r)
			log.Error().Str("source", sourceLabel).Msg(errMsg)
		}
	}()

	if url == "" {
		return false, "no cover URL"
	}

	mediaFile := f.mediaPath(url)

	if _, err := os.Stat(mediaFile); os.IsNotExist(err) {
		if err := f.download(ctx, url, mediaFile); err != nil {
			msg := fmt.Sprintf("failed to fetch cover from %s: %v", sourceLabel, err)
			log.Warn().Err(err).Str("game", gameID).Str("source", sourceLabel).
				Msg("cover download failed")
			return false, msg
		}
	}

	if err := f.link(mediaFile, gameID); err != nil {
		msg := fmt.Sprintf("failed to link cover for %q: %v", gameID, err)
		log.Warn().Err(err).Str("game", gameID).Msg("cover link failed")
		return false, msg
	}
	return true, ""
}

// download streams the image to a uuid-named temp file, then atomically
// renames it into the store. Any failure removes the temp file.
func (f *Fetcher) download(ctx context.Context, url, mediaFile string) error {
	if err := os.MkdirAll(filepath.Dir(mediaFile), 0o750); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}

	tempPath := filepath.Join(filepath.Dir(mediaFile), uuid.New().String()+".tmp")

	err := f.client.DownloadFile(ctx, httpclient.DownloadFileArgs{
		URL:        url,
		OutputPath: mediaFile,
		TempPath:   tempPath,
	})
	if err != nil {
		// DownloadFile cleans its own partial writes; make sure the
		// temp file is gone regardless.
		if removeErr := os.Remove(tempPath); removeErr != nil && !os.IsNotExist(removeErr) {
			log.Warn().Err(removeErr).Msg("failed to remove temp cover file")
		}
		return fmt.Errorf("download failed: %w", err)
	}
	return nil
}

// link places cover.jpg in the game directory, preferring a symlink into
// the media store with a copy fallback for filesystems without symlinks.
func (f *Fetcher) link(mediaFile, gameID string) error {
	gameDir := filepath.Join(f.gamesDir, gameID)
	if err := os.MkdirAll(gameDir, 0o750); err != nil {
		return fmt.Errorf("failed to create game directory: %w", err)
	}

	coverPath := filepath.Join(gameDir, coverFileName)

	// Already linked to the right target: nothing to do.
	if existing, err := os.Readlink(coverPath); err == nil && existing == mediaFile {
		return nil
	}

	if err := os.Remove(coverPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove old cover: %w", err)
	}

	if err := os.Symlink(mediaFile, coverPath); err == nil {
		return nil
	}

	src, err := os.Open(mediaFile) // #nosec G304 - path is store-internal
	if err != nil {
		return fmt.Errorf("failed to open media file: %w", err)
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close media file")
		}
	}()

	dst, err := os.OpenFile(coverPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create cover file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(coverPath)
		return fmt.Errorf("failed to copy cover: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("failed to close cover file: %w", err)
	}
	return nil
}
