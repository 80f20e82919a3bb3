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

// Package credentials persists per-source OAuth tokens. Writes are atomic
// (backup, temp file, fsync, rename, chmod 0600) and guarded by advisory
// file locking so a reader never observes a half-written token. A corrupt
// primary file is self-healed from its .backup sibling. Token values are
// never logged.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/flock"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	// ExpiryBufferSeconds is subtracted from expires_at when deciding
	// whether a token still counts as valid.
	ExpiryBufferSeconds = 300

	maxRefreshAttempts = 3

	backupSuffix = ".backup"
)

var errNoToken = errors.New("no token stored")

// Token is the persisted credential for one source. All four core fields
// are structurally required; a file missing any of them is corrupt.
type Token struct {
	AccessToken  string `json:"access_token"  validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
	TokenType    string `json:"token_type"    validate:"required"`
	ExpiresAt    int64  `json:"expires_at"    validate:"required"`

	// RefreshCount audits how many refreshes this credential survived.
	RefreshCount int `json:"refresh_count,omitempty"`

	// Extra holds provider claims outside the OAuth core, e.g. the XSTS
	// userhash or the GOG scope.
	Extra map[string]string `json:"extra,omitempty"`
}

// TokenExchanger talks to one provider's token endpoint.
type TokenExchanger interface {
	// ExchangeCode trades an authorization code for a fresh token.
	ExchangeCode(ctx context.Context, code string) (*Token, error)
	// RefreshToken trades a refresh token for a fresh token. Providers
	// that rotate refresh tokens return the replacement; providers that
	// do not may leave RefreshToken empty.
	RefreshToken(ctx context.Context, refreshToken string) (*Token, error)
}

// Store manages the token file for a single source.
type Store struct {
	clock         clockwork.Clock
	validate      *validator.Validate
	exchanger     TokenExchanger
	dir           string
	file          string
	retryInterval time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithClock injects a clock, used by expiry tests.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithRetryInterval overrides the base refresh backoff interval.
func WithRetryInterval(d time.Duration) Option {
	return func(s *Store) { s.retryInterval = d }
}

// NewStore creates a credential store rooted at dir. The directory should
// come from DataHandler.EnsureSecureTokenStorage so permissions are already
// owner-only.
func NewStore(dir string, exchanger TokenExchanger, opts ...Option) *Store {
	s := &Store{
		clock:         clockwork.NewRealClock(),
		validate:      validator.New(),
		exchanger:     exchanger,
		dir:           dir,
		file:          "token.json",
		retryInterval: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) tokenPath() string  { return filepath.Join(s.dir, s.file) }
func (s *Store) backupPath() string { return s.tokenPath() + backupSuffix }
func (s *Store) lockPath() string   { return s.tokenPath() + ".lock" }

// Dir returns the store's storage directory, used by scanners that keep
// snapshots alongside the token file.
func (s *Store) Dir() string { return s.dir }

// IsAuthenticated loads the persisted token, validates it structurally and
// refreshes it when inside the expiry buffer. All failure paths return
// false; this method never returns an error.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	tok, err := s.load()
	if err != nil {
		log.Debug().Err(err).Msg("credentials: no usable token")
		return false
	}

	if !s.expired(tok) {
		return true
	}

	log.Info().Msg("credentials: token inside expiry buffer, refreshing")
	return s.Refresh(ctx)
}

// Token returns the current token for API calls, without triggering a
// refresh. Callers should have checked IsAuthenticated first.
func (s *Store) Token() (*Token, error) {
	return s.load()
}

// CompleteAuthWithCode exchanges an authorization code for tokens and
// persists them. Returns false on any failure.
func (s *Store) CompleteAuthWithCode(ctx context.Context, code string) bool {
	if s.exchanger == nil {
		log.Error().Msg("credentials: no token exchanger configured")
		return false
	}

	tok, err := s.exchanger.ExchangeCode(ctx, code)
	if err != nil {
		log.Error().Err(err).Msg("credentials: code exchange failed")
		return false
	}

	if err := s.validate.Struct(tok); err != nil {
		log.Error().Err(err).Msg("credentials: exchanged token failed validation")
		return false
	}

	if err := s.save(tok); err != nil {
		log.Error().Err(err).Msg("credentials: failed to persist token")
		return false
	}
	return true
}

// Refresh obtains a fresh access token using the stored refresh token, with
// up to three attempts and exponential backoff between them. A refresh
// token returned by the provider replaces the stored one; otherwise the
// old refresh token is carried forward. Returns false once retries are
// exhausted.
func (s *Store) Refresh(ctx context.Context) bool {
	if s.exchanger == nil {
		log.Error().Msg("credentials: no token exchanger configured")
		return false
	}

	current, err := s.load()
	if err != nil {
		log.Debug().Err(err).Msg("credentials: nothing to refresh")
		return false
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.retryInterval
	bo.Multiplier = 2

	fresh, err := backoff.Retry(ctx, func() (*Token, error) {
		tok, refreshErr := s.exchanger.RefreshToken(ctx, current.RefreshToken)
		if refreshErr != nil {
			log.Warn().Err(refreshErr).Msg("credentials: refresh attempt failed")
			return nil, refreshErr
		}
		return tok, nil
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(maxRefreshAttempts))
	if err != nil {
		log.Error().Err(err).Msg("credentials: refresh failed after retries")
		return false
	}

	// Token rotation: keep the old refresh token unless the provider
	// issued a replacement.
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = current.RefreshToken
	}
	fresh.RefreshCount = current.RefreshCount + 1
	if fresh.Extra == nil {
		fresh.Extra = current.Extra
	}

	if err := s.validate.Struct(fresh); err != nil {
		log.Error().Err(err).Msg("credentials: refreshed token failed validation")
		return false
	}

	if err := s.save(fresh); err != nil {
		log.Error().Err(err).Msg("credentials: failed to persist refreshed token")
		return false
	}
	return true
}

// Clear removes the stored token and its backup.
func (s *Store) Clear() error {
	lock := flock.New(s.lockPath())
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock token file: %w", err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn().Err(err).Msg("credentials: failed to release lock")
		}
	}()

	for _, p := range []string{s.tokenPath(), s.backupPath()} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", filepath.Base(p), err)
		}
	}
	return nil
}

func (s *Store) expired(tok *Token) bool {
	return s.clock.Now().Unix() >= tok.ExpiresAt-ExpiryBufferSeconds
}

// load reads and validates the token file under a shared lock, restoring
// from backup when the primary is corrupt.
func (s *Store) load() (*Token, error) {
	lock := flock.New(s.lockPath())
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("failed to lock token file: %w", err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn().Err(err).Msg("credentials: failed to release lock")
		}
	}()

	tok, err := s.readValid(s.tokenPath())
	if err == nil {
		return tok, nil
	}
	if os.IsNotExist(err) {
		return nil, errNoToken
	}

	log.Warn().Err(err).Msg("credentials: primary token file corrupt, trying backup")

	backup, backupErr := s.readValid(s.backupPath())
	if backupErr != nil {
		return nil, fmt.Errorf("token file corrupt and backup unusable: %w", err)
	}

	// Promote the backup so the next load succeeds directly.
	if restoreErr := s.writeAtomic(s.tokenPath(), backup); restoreErr != nil {
		log.Warn().Err(restoreErr).Msg("credentials: failed to restore backup")
	} else {
		log.Info().Msg("credentials: token restored from backup")
	}
	return backup, nil
}

func (s *Store) readValid(path string) (*Token, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is store-internal
	if err != nil {
		return nil, err
	}

	var tok Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	if err := s.validate.Struct(&tok); err != nil {
		return nil, fmt.Errorf("token failed structural validation: %w", err)
	}
	return &tok, nil
}

// save persists the token under an exclusive lock: back up the previous
// file, write to a temp sibling with fsync, rename into place, then tighten
// permissions.
func (s *Store) save(tok *Token) error {
	lock := flock.New(s.lockPath())
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock token file: %w", err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn().Err(err).Msg("credentials: failed to release lock")
		}
	}()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	if _, err := os.Stat(s.tokenPath()); err == nil {
		if err := copyFile(s.tokenPath(), s.backupPath()); err != nil {
			return fmt.Errorf("failed to back up token file: %w", err)
		}
	}

	return s.writeAtomic(s.tokenPath(), tok)
}

func (s *Store) writeAtomic(path string, tok *Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	tmpPath := path + ".tmp"
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp token file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp token file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to move token file into place: %w", err)
	}

	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("failed to set token file permissions: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src) // #nosec G304 - paths are store-internal
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(src), err)
	}
	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(dst), err)
	}
	return nil
}
