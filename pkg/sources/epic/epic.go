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

// Package epic scans an Epic Games Store library. The assets list names
// every owned artifact; catalog details are fetched in batches of up to 40
// ids per namespace with a per-id JSON disk cache, and the playtime items
// endpoint annotates play time.
package epic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/GameShelfProject/gameshelf-core/pkg/auth"
	"github.com/GameShelfProject/gameshelf-core/pkg/covers"
	"github.com/GameShelfProject/gameshelf-core/pkg/credentials"
	"github.com/GameShelfProject/gameshelf-core/pkg/library"
	"github.com/GameShelfProject/gameshelf-core/pkg/progress"
	"github.com/GameShelfProject/gameshelf-core/pkg/shared/httpclient"
	"github.com/GameShelfProject/gameshelf-core/pkg/sources"
	"github.com/GameShelfProject/gameshelf-core/pkg/taxonomy"
	"github.com/rs/zerolog/log"
)

const (
	oauthURL    = "https://account-public-service-prod03.ol.epicgames.com/account/api/oauth/token"
	assetsURL   = "https://launcher-public-service-prod06.ol.epicgames.com/launcher/api/public/assets/Windows?label=Live"
	catalogURL  = "https://catalog-public-service-prod06.ol.epicgames.com/catalog/api/shared/namespace/%s/bulk/items"
	playtimeURL = "https://library-service.live.use1a.on.epicgames.com/library/api/public/playtime/account/%s/all"

	// launcherBasicAuth is the Epic Games Launcher's public client id and
	// secret pair.
	launcherBasicAuth = "MzRhMDJjZjhmNDQxNGUyOWIxNTkyMTg3NmRhMzZmOWE6ZGFhZmJjY2M3Mzc3NDUwMzlkZmZlNTNkOTRmYzc2Y2Y="

	// catalogBatchSize bounds ids per catalog request to keep URLs short.
	catalogBatchSize = 40

	// CatalogCacheDir holds one JSON file per catalog item under the
	// source's token directory.
	CatalogCacheDir = "catalogcache"

	extraAccountID = "account_id"
)

// Exchanger implements the launcher OAuth flow against the account service.
type Exchanger struct {
	client        *httpclient.Client
	tokenEndpoint string
}

// NewExchanger creates the Epic token exchanger.
func NewExchanger() *Exchanger {
	return &Exchanger{
		client:        httpclient.NewClient(),
		tokenEndpoint: oauthURL,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	AccountID    string `json:"account_id"`
}

func (e *Exchanger) exchange(ctx context.Context, form url.Values) (*credentials.Token, error) {
	headers := map[string]string{"Authorization": "basic " + launcherBasicAuth}
	var resp tokenResponse
	if err := e.client.PostForm(ctx, e.tokenEndpoint, headers, form, &resp); err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint returned no access token")
	}
	return &credentials.Token{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
		ExpiresAt:    time.Now().Unix() + resp.ExpiresIn,
		Extra:        map[string]string{extraAccountID: resp.AccountID},
	}, nil
}

// ExchangeCode exchanges a launcher authorization code for tokens.
func (e *Exchanger) ExchangeCode(ctx context.Context, code string) (*credentials.Token, error) {
	return e.exchange(ctx, url.Values{
		"grant_type": {"authorization_code"},
		"code":       {code},
		"token_type": {"eg1"},
	})
}

// RefreshToken renews the launcher tokens.
func (e *Exchanger) RefreshToken(ctx context.Context, refreshToken string) (*credentials.Token, error) {
	return e.exchange(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"token_type":    {"eg1"},
	})
}

// asset is one owned artifact from the launcher assets endpoint.
type asset struct {
	AppName       string `json:"appName"`
	Namespace     string `json:"namespace"`
	CatalogItemID string `json:"catalogItemId"`
	BuildVersion  string `json:"buildVersion"`
	DisplayName   string `json:"displayName"`
}

// catalogItem is the catalog detail record for one asset.
type catalogItem struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Developer    string          `json:"developer"`
	MainGameItem json.RawMessage `json:"mainGameItem"`
	Categories   []struct {
		Path string `json:"path"`
	} `json:"categories"`
	ReleaseInfo []struct {
		DateAdded string   `json:"dateAdded"`
		Platform  []string `json:"platform"`
	} `json:"releaseInfo"`
	KeyImages []struct {
		Type string `json:"type"`
		URL  string `json:"url"`
	} `json:"keyImages"`
}

type playtimeItem struct {
	ArtifactID string `json:"artifactId"`
	TotalTime  int64  `json:"totalTime"`
}

// Scanner imports Epic Games Store sources.
type Scanner struct {
	handler library.DataHandler
	store   *credentials.Store
	waiter  *auth.Waiter
	client  *httpclient.Client
	covers  *covers.Fetcher

	assetsEndpoint   string
	catalogEndpoint  string
	playtimeEndpoint string
}

// NewScanner creates an Epic scanner. The covers fetcher may be nil.
func NewScanner(handler library.DataHandler, store *credentials.Store, coverFetcher *covers.Fetcher) *Scanner {
	return &Scanner{
		handler:          handler,
		store:            store,
		waiter:           auth.NewWaiter(),
		client:           httpclient.NewClient(),
		covers:           coverFetcher,
		assetsEndpoint:   assetsURL,
		catalogEndpoint:  catalogURL,
		playtimeEndpoint: playtimeURL,
	}
}

func (*Scanner) Type() library.SourceType { return library.SourceEpic }

// Scan enumerates owned assets, resolves their catalog details in batches
// and imports the ones that are actual games.
func (s *Scanner) Scan(ctx context.Context, source *library.Source, cb *progress.Callback) (int, []string) {
	if !s.store.IsAuthenticated(ctx) {
		if cb != nil {
			cb.Message("Waiting for Epic Games sign-in")
		}
		err := s.waiter.Wait(ctx, func() bool { return s.store.IsAuthenticated(ctx) })
		if err != nil {
			return 0, []string{"Epic Games authentication required: " + err.Error()}
		}
	}

	tok, err := s.store.Token()
	if err != nil {
		return 0, []string{fmt.Sprintf("failed to load Epic token: %v", err)}
	}
	headers := map[string]string{
		"Authorization": tok.TokenType + " " + tok.AccessToken,
	}

	if cb != nil {
		cb.Message("Fetching Epic Games library")
	}
	var assets []asset
	if err := s.client.GetJSON(ctx, s.assetsEndpoint, headers, &assets); err != nil {
		return 0, []string{fmt.Sprintf("failed to fetch Epic assets: %v", err)}
	}
	assets = filterGameAssets(assets)

	playtime := s.fetchPlaytime(ctx, headers, tok.Extra[extraAccountID])
	catalog, errs := s.fetchCatalog(ctx, headers, assets)

	existing, err := s.handler.LoadGames()
	if err != nil {
		return 0, []string{fmt.Sprintf("failed to load catalog: %v", err)}
	}
	index := library.IndexBySource(existing, source.ID)

	added := 0

	for i, a := range assets {
		if cb != nil {
			if cb.Cancelled() {
				log.Info().Str("source", source.ID).Msg("epic scan cancelled")
				return added, errs
			}
			cb.Update(i+1, len(assets), fmt.Sprintf("Processing %s", a.AppName))
		}

		item, ok := catalog[a.Namespace+"/"+a.CatalogItemID]
		if !ok || !isGame(item) {
			continue
		}

		title := item.Title
		if title == "" {
			title = a.DisplayName
		}
		if title == "" {
			title = a.AppName
		}

		if _, found := index[library.LauncherKey("epic", a.AppName)]; found {
			continue
		}
		if _, found := index[library.TitleKey(title)]; found {
			continue
		}

		game := &library.Game{
			Title:        title,
			Source:       source.ID,
			LauncherType: "epic",
			LauncherID:   a.AppName,
			Description:  describeItem(item),
			Platforms:    platformsFromRelease(item),
		}

		stats := sources.Stats{}
		if minutes, played := playtime[a.AppName]; played && minutes > 0 {
			stats.PlayTime = minutes * 60
			stats.PlayCount = 1
			stats.Completion = taxonomy.CompletionPlayed
		}

		if !sources.SaveNew(s.handler, game, stats) {
			errs = append(errs, sources.SaveError(title))
			continue
		}
		added++

		if s.covers != nil && source.DownloadImages() {
			if coverURL := coverImageURL(item); coverURL != "" {
				if ok, msg := s.covers.FetchAndSaveForGame(ctx, game.ID, coverURL, "Epic"); !ok {
					errs = append(errs, msg)
				}
			}
		}
	}

	return added, errs
}

// filterGameAssets drops Unreal Engine content and obvious non-games before
// any catalog traffic is spent on them.
func filterGameAssets(assets []asset) []asset {
	var filtered []asset
	for _, a := range assets {
		if a.Namespace == "ue" {
			continue
		}
		if a.Namespace == "" || a.CatalogItemID == "" || a.AppName == "" {
			continue
		}
		if strings.HasPrefix(a.AppName, "UE_") {
			continue
		}
		if strings.Contains(a.AppName, "DLC") && a.BuildVersion == "" {
			continue
		}
		filtered = append(filtered, a)
	}
	return filtered
}

// fetchPlaytime maps artifact id to played minutes. Failure degrades to an
// import without play time.
func (s *Scanner) fetchPlaytime(ctx context.Context, headers map[string]string, accountID string) map[string]int64 {
	playtime := map[string]int64{}
	if accountID == "" {
		log.Warn().Msg("epic token has no account id, skipping playtime")
		return playtime
	}

	var items []playtimeItem
	endpoint := fmt.Sprintf(s.playtimeEndpoint, accountID)
	if err := s.client.GetJSON(ctx, endpoint, headers, &items); err != nil {
		log.Warn().Err(err).Msg("failed to fetch epic playtime")
		return playtime
	}
	for _, item := range items {
		if item.ArtifactID != "" {
			playtime[item.ArtifactID] = item.TotalTime
		}
	}
	return playtime
}

// fetchCatalog resolves catalog details for every asset, grouped by
// namespace and batched. Results are keyed "namespace/catalogItemId".
// Cached items are read from disk and only misses hit the API.
func (s *Scanner) fetchCatalog(ctx context.Context, headers map[string]string, assets []asset) (map[string]catalogItem, []string) {
	catalog := map[string]catalogItem{}
	var errs []string

	cacheDir := filepath.Join(s.store.Dir(), CatalogCacheDir)
	if err := os.MkdirAll(cacheDir, 0o700); err != nil {
		log.Warn().Err(err).Msg("failed to create catalog cache dir")
	}

	byNamespace := map[string][]string{}
	for _, a := range assets {
		key := a.Namespace + "/" + a.CatalogItemID
		if item, ok := readCachedItem(cacheDir, a.Namespace, a.CatalogItemID); ok {
			catalog[key] = item
			continue
		}
		byNamespace[a.Namespace] = append(byNamespace[a.Namespace], a.CatalogItemID)
	}

	for namespace, ids := range byNamespace {
		for start := 0; start < len(ids); start += catalogBatchSize {
			end := start + catalogBatchSize
			if end > len(ids) {
				end = len(ids)
			}
			batch := ids[start:end]

			endpoint := fmt.Sprintf(s.catalogEndpoint, namespace) +
				"?id=" + url.QueryEscape(strings.Join(batch, ",")) +
				"&country=US&locale=en-US&includeMainGameDetails=true"

			var items map[string]catalogItem
			if err := s.client.GetJSON(ctx, endpoint, headers, &items); err != nil {
				errs = append(errs, fmt.Sprintf("catalog batch for namespace %s failed: %v", namespace, err))
				continue
			}

			for id, item := range items {
				catalog[namespace+"/"+id] = item
				writeCachedItem(cacheDir, namespace, id, item)
			}
		}
	}

	return catalog, errs
}

func cachePath(cacheDir, namespace, id string) string {
	return filepath.Join(cacheDir, namespace+"_"+id+".json")
}

func readCachedItem(cacheDir, namespace, id string) (catalogItem, bool) {
	payload, err := os.ReadFile(cachePath(cacheDir, namespace, id)) // #nosec G304
	if err != nil {
		return catalogItem{}, false
	}
	var wrapped map[string]catalogItem
	if err := json.Unmarshal(payload, &wrapped); err != nil {
		return catalogItem{}, false
	}
	item, ok := wrapped[id]
	return item, ok
}

func writeCachedItem(cacheDir, namespace, id string, item catalogItem) {
	payload, err := json.Marshal(map[string]catalogItem{id: item})
	if err != nil {
		return
	}
	if err := os.WriteFile(cachePath(cacheDir, namespace, id), payload, 0o600); err != nil {
		log.Debug().Err(err).Str("id", id).Msg("failed to cache catalog item")
	}
}

// isGame filters catalog items down to launchable applications, dropping
// DLC, digital extras and engine plugins.
func isGame(item catalogItem) bool {
	if len(item.Categories) == 0 {
		return false
	}

	isApplication := false
	isLaunchableAddon := false
	for _, cat := range item.Categories {
		if cat.Path == "applications" {
			isApplication = true
		}
		if cat.Path == "addons/launchable" {
			isLaunchableAddon = true
		}
		for _, skip := range []string{"digitalextras", "plugins"} {
			if strings.Contains(cat.Path, skip) {
				return false
			}
		}
	}
	if !isApplication {
		return false
	}
	if len(item.MainGameItem) > 0 && string(item.MainGameItem) != "null" && !isLaunchableAddon {
		return false
	}
	return true
}

// describeItem folds the developer and release date into the description.
func describeItem(item catalogItem) string {
	description := item.Description
	if item.Developer != "" && !strings.Contains(description, "Developer:") {
		if description != "" {
			description = "Developer: " + item.Developer + "\n\n" + description
		} else {
			description = "Developer: " + item.Developer
		}
	}
	if len(item.ReleaseInfo) > 0 && item.ReleaseInfo[0].DateAdded != "" {
		if description != "" {
			description += "\n\nRelease Date: " + item.ReleaseInfo[0].DateAdded
		} else {
			description = "Release Date: " + item.ReleaseInfo[0].DateAdded
		}
	}
	return description
}

// platformsFromRelease maps the first release info's platform list; an item
// without release info defaults to Windows.
func platformsFromRelease(item catalogItem) []taxonomy.Platform {
	if len(item.ReleaseInfo) == 0 || len(item.ReleaseInfo[0].Platform) == 0 {
		return []taxonomy.Platform{taxonomy.PlatformPCWindows}
	}

	var platforms []taxonomy.Platform
	for _, raw := range item.ReleaseInfo[0].Platform {
		if platform, ok := taxonomy.TryResolvePlatform(raw); ok {
			platforms = append(platforms, platform)
		} else {
			log.Debug().Str("platform", raw).Msg("unmapped epic platform")
		}
	}
	if len(platforms) == 0 {
		platforms = []taxonomy.Platform{taxonomy.PlatformPCWindows}
	}
	return platforms
}

// coverImageURL picks the best key image, wide box art first.
func coverImageURL(item catalogItem) string {
	for _, preferred := range []string{"OfferImageWide", "DieselGameBoxTall", "Thumbnail", "DieselGameBox"} {
		for _, image := range item.KeyImages {
			if image.Type == preferred && image.URL != "" {
				return image.URL
			}
		}
	}
	return ""
}
