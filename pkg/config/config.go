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

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/GameShelfProject/gameshelf-core/pkg/helpers/syncutil"
	"github.com/adrg/xdg"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

const (
	SchemaVersion = 1
	CfgEnv        = "GAMESHELF_CFG"
	CfgFile       = "config.toml"
	AppName       = "gameshelf"
)

type Values struct {
	Scanning     Scanning `toml:"scanning,omitempty"`
	Media        Media    `toml:"media,omitempty"`
	Metadata     Metadata `toml:"metadata,omitempty"`
	ConfigSchema int      `toml:"config_schema"`
	DebugLogging bool     `toml:"debug_logging"`
}

type Scanning struct {
	// AuthWaitSeconds bounds the interactive-login hand-off poll loop.
	AuthWaitSeconds int `toml:"auth_wait_seconds,omitempty"`
	// DownloadImages is the default for sources without their own setting.
	DownloadImages bool `toml:"download_images"`
}

type Media struct {
	// Dir is the content-addressed cover store root.
	Dir string `toml:"dir,omitempty"`
	// GamesDir holds per-game directories with cover.jpg links.
	GamesDir string `toml:"games_dir,omitempty"`
}

type Metadata struct {
	// DBPath points at the local metadata SQLite database.
	DBPath string `toml:"db_path,omitempty"`
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Scanning: Scanning{
		AuthWaitSeconds: 300,
		DownloadImages:  true,
	},
}

type Instance struct {
	cfgPath  string
	vals     Values
	defaults Values
	mu       syncutil.RWMutex
}

// DataDir returns the default base directory for catalog data, token
// storage and media.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// ConfigDir returns the default directory for the config file.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

//nolint:gocritic // config struct copied for immutability
func NewConfig(configDir string, defaults Values) (*Instance, error) {
	cfgPath := os.Getenv(CfgEnv)
	if cfgPath == "" {
		cfgPath = filepath.Join(configDir, CfgFile)
	}

	cfg := Instance{
		mu:       syncutil.RWMutex{},
		cfgPath:  cfgPath,
		vals:     defaults,
		defaults: defaults,
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		log.Info().Msg("saving new default config to disk")

		err := os.MkdirAll(filepath.Dir(cfgPath), 0o750)
		if err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		err = cfg.Save()
		if err != nil {
			return nil, err
		}
	}

	err := cfg.Load()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	if _, err := os.Stat(c.cfgPath); err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}

	data, err := os.ReadFile(c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then unmarshal file values on top.
	// This ensures fields not present in the file retain their default values.
	newVals := c.defaults
	err = toml.Unmarshal(data, &newVals)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema,
			SchemaVersion,
		)
		return errors.New("schema version mismatch")
	}

	c.vals = newVals

	return nil
}

func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	c.vals.ConfigSchema = SchemaVersion

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
}

func (c *Instance) AuthWaitSeconds() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Scanning.AuthWaitSeconds <= 0 {
		return BaseDefaults.Scanning.AuthWaitSeconds
	}
	return c.vals.Scanning.AuthWaitSeconds
}

func (c *Instance) DownloadImages() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Scanning.DownloadImages
}

func (c *Instance) MediaDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Media.Dir == "" {
		return filepath.Join(DataDir(), "media")
	}
	return c.vals.Media.Dir
}

func (c *Instance) GamesDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Media.GamesDir == "" {
		return filepath.Join(DataDir(), "games")
	}
	return c.vals.Media.GamesDir
}

func (c *Instance) MetadataDBPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Metadata.DBPath == "" {
		return filepath.Join(DataDir(), "metadata.db")
	}
	return c.vals.Metadata.DBPath
}
