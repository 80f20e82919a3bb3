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

package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExchanger struct {
	exchangeTok *Token
	refreshTok  *Token
	refreshErr  error
	failFirstN  int
	refreshes   int
}

func (f *fakeExchanger) ExchangeCode(_ context.Context, _ string) (*Token, error) {
	if f.exchangeTok == nil {
		return nil, errors.New("exchange refused")
	}
	tok := *f.exchangeTok
	return &tok, nil
}

func (f *fakeExchanger) RefreshToken(_ context.Context, _ string) (*Token, error) {
	f.refreshes++
	if f.refreshes <= f.failFirstN {
		return nil, errors.New("transient refresh failure")
	}
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	tok := *f.refreshTok
	return &tok, nil
}

func validToken(expiresAt int64) *Token {
	return &Token{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
		ExpiresAt:    expiresAt,
	}
}

func writeTokenFile(t *testing.T, path string, tok *Token) {
	t.Helper()
	data, err := json.Marshal(tok)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func TestIsAuthenticatedNoToken(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir(), &fakeExchanger{})
	assert.False(t, store.IsAuthenticated(context.Background()))
}

func TestIsAuthenticatedValidToken(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	dir := t.TempDir()
	// 400 s out: beyond the 300 s buffer, no refresh needed.
	writeTokenFile(t, filepath.Join(dir, "token.json"),
		validToken(clock.Now().Unix()+400))

	ex := &fakeExchanger{}
	store := NewStore(dir, ex, WithClock(clock))

	assert.True(t, store.IsAuthenticated(context.Background()))
	assert.Zero(t, ex.refreshes)
}

func TestIsAuthenticatedInsideBufferRefreshes(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	dir := t.TempDir()
	// 200 s out: inside the 300 s buffer, must refresh.
	writeTokenFile(t, filepath.Join(dir, "token.json"),
		validToken(clock.Now().Unix()+200))

	ex := &fakeExchanger{
		refreshTok: validToken(clock.Now().Unix() + 3600),
	}
	store := NewStore(dir, ex, WithClock(clock), WithRetryInterval(time.Millisecond))

	assert.True(t, store.IsAuthenticated(context.Background()))
	assert.Equal(t, 1, ex.refreshes)
}

func TestRefreshRetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	dir := t.TempDir()
	writeTokenFile(t, filepath.Join(dir, "token.json"),
		validToken(clock.Now().Unix()+100))

	fresh := validToken(clock.Now().Unix() + 3600)
	fresh.AccessToken = "access-2"
	fresh.RefreshToken = "refresh-2"

	ex := &fakeExchanger{refreshTok: fresh, failFirstN: 2}
	store := NewStore(dir, ex, WithClock(clock), WithRetryInterval(time.Millisecond))

	require.True(t, store.Refresh(context.Background()))
	assert.Equal(t, 3, ex.refreshes)

	tok, err := store.Token()
	require.NoError(t, err)
	assert.Equal(t, "access-2", tok.AccessToken)
	// Rotation: the new refresh token replaced the old one.
	assert.Equal(t, "refresh-2", tok.RefreshToken)
	assert.Equal(t, 1, tok.RefreshCount)
}

func TestRefreshExhaustsRetries(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	dir := t.TempDir()
	writeTokenFile(t, filepath.Join(dir, "token.json"),
		validToken(clock.Now().Unix()+100))

	ex := &fakeExchanger{refreshErr: errors.New("endpoint down")}
	store := NewStore(dir, ex, WithClock(clock), WithRetryInterval(time.Millisecond))

	assert.False(t, store.Refresh(context.Background()))
	assert.Equal(t, 3, ex.refreshes)
}

func TestRefreshKeepsOldRefreshTokenWhenNotRotated(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	dir := t.TempDir()
	writeTokenFile(t, filepath.Join(dir, "token.json"),
		validToken(clock.Now().Unix()+100))

	fresh := validToken(clock.Now().Unix() + 3600)
	fresh.AccessToken = "access-2"
	fresh.RefreshToken = ""

	ex := &fakeExchanger{refreshTok: fresh}
	store := NewStore(dir, ex, WithClock(clock), WithRetryInterval(time.Millisecond))

	require.True(t, store.Refresh(context.Background()))

	tok, err := store.Token()
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", tok.RefreshToken)
}

func TestCompleteAuthWithCodePersistsAtomically(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ex := &fakeExchanger{exchangeTok: validToken(time.Now().Unix() + 3600)}
	store := NewStore(dir, ex)

	require.True(t, store.CompleteAuthWithCode(context.Background(), "auth-code"))

	path := filepath.Join(dir, "token.json")
	info, err := os.Stat(path)
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	// A second save backs up the first token.
	ex.exchangeTok.AccessToken = "access-2"
	require.True(t, store.CompleteAuthWithCode(context.Background(), "auth-code-2"))

	backup, err := os.ReadFile(path + ".backup")
	require.NoError(t, err)
	var old Token
	require.NoError(t, json.Unmarshal(backup, &old))
	assert.Equal(t, "access-1", old.AccessToken)
}

func TestCorruptTokenRestoredFromBackup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := validToken(time.Now().Unix() + 3600)
	writeTokenFile(t, filepath.Join(dir, "token.json.backup"), good)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "token.json"),
		[]byte("{not json"), 0o600))

	store := NewStore(dir, &fakeExchanger{})

	tok, err := store.Token()
	require.NoError(t, err)
	assert.Equal(t, good.AccessToken, tok.AccessToken)

	// The backup was promoted to the primary path.
	restored, err := os.ReadFile(filepath.Join(dir, "token.json"))
	require.NoError(t, err)
	var onDisk Token
	require.NoError(t, json.Unmarshal(restored, &onDisk))
	assert.Equal(t, good.AccessToken, onDisk.AccessToken)
}

func TestCorruptTokenAndBackupNotAuthenticated(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "token.json"),
		[]byte("{not json"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "token.json.backup"),
		[]byte(`{"access_token":"x"}`), 0o600))

	store := NewStore(dir, &fakeExchanger{})
	assert.False(t, store.IsAuthenticated(context.Background()))
}

func TestTokenMissingRequiredFieldRejected(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "token.json"),
		[]byte(`{"access_token":"x","token_type":"Bearer","expires_at":99}`), 0o600))

	store := NewStore(dir, &fakeExchanger{})
	assert.False(t, store.IsAuthenticated(context.Background()))
}

func TestClearRemovesTokenAndBackup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tok := validToken(time.Now().Unix() + 3600)
	writeTokenFile(t, filepath.Join(dir, "token.json"), tok)
	writeTokenFile(t, filepath.Join(dir, "token.json.backup"), tok)

	store := NewStore(dir, &fakeExchanger{})
	require.NoError(t, store.Clear())

	_, err := os.Stat(filepath.Join(dir, "token.json"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "token.json.backup"))
	assert.True(t, os.IsNotExist(err))
}
