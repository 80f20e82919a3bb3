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

// Package psn scans a PlayStation Network library through the mobile API.
// Sign-in starts from an NPSSO cookie which is exchanged for a mobile OAuth
// token; the titles list is paginated via nextOffset cursors. Unlike other
// remote sources, existing entries are updated in place because play stats
// change server-side between scans.
package psn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
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
	authorizeURL = "https://ca.account.sony.com/api/authz/v3/oauth/authorize" +
		"?access_type=offline" +
		"&client_id=09515159-7237-4370-9b40-3806e67c0891" +
		"&redirect_uri=com.scee.psxandroid.scecompcall%3A%2F%2Fredirect" +
		"&response_type=code" +
		"&scope=psn%3Amobile.v2.core%20psn%3Aclientapp"
	tokenURL  = "https://ca.account.sony.com/api/authz/v3/oauth/token"
	titlesURL = "https://m.np.playstation.com/api/gamelist/v2/users/me/titles" +
		"?categories=ps4_game,ps5_native_game,ps3_game,psp_game,ps_vita_game,ps_now_game" +
		"&limit=200&offset=%d"

	redirectURI = "com.scee.psxandroid.scecompcall://redirect"

	// mobileBasicAuth is the PlayStation App's public client id and secret.
	mobileBasicAuth = "MDk1MTUxNTktNzIzNy00MzcwLTliNDAtMzgwNmU2N2MwODkxOnVjUGprYTV0bnRCMktxc1A="
	mobileUserAgent = "PlayStation App/5.43.0 (iPhone; iOS 14.2; Scale/3.00)"

	// SnapshotFile holds the raw titles payload from the last scan so the
	// library can be re-processed without hitting the API again.
	SnapshotFile = "psn_data.json"
)

// playDurationPattern matches the API's ISO-8601 durations, e.g. PT2H30M.
var playDurationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)(?:\.\d+)?S)?$`)

// Exchanger implements the NPSSO-to-mobile-token flow. The "code" handed to
// ExchangeCode is the NPSSO cookie value copied from the ssocookie endpoint.
type Exchanger struct {
	// authClient must not follow redirects: the authorization code arrives
	// in the Location header of a 302.
	authClient *http.Client
	client     *httpclient.Client

	authorizeEndpoint string
	tokenEndpoint     string
}

// NewExchanger creates the PSN token exchanger.
func NewExchanger() *Exchanger {
	return &Exchanger{
		authClient: &http.Client{
			Transport: httpclient.DefaultTransport,
			Timeout:   30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		client:            httpclient.NewClient(),
		authorizeEndpoint: authorizeURL,
		tokenEndpoint:     tokenURL,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (r *tokenResponse) toToken() *credentials.Token {
	return &credentials.Token{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    r.TokenType,
		ExpiresAt:    time.Now().Unix() + r.ExpiresIn,
	}
}

// ExchangeCode turns an NPSSO cookie into a mobile API token. The cookie is
// presented to the authorization endpoint; the code from the redirect is then
// exchanged at the token endpoint using the app's basic credentials.
func (e *Exchanger) ExchangeCode(ctx context.Context, npsso string) (*credentials.Token, error) {
	npsso = strings.Trim(strings.TrimSpace(npsso), `"'`)
	if len(npsso) < 10 {
		return nil, fmt.Errorf("npsso token is too short to be valid")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.authorizeEndpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("error creating authorize request: %w", err)
	}
	req.AddCookie(&http.Cookie{Name: "npsso", Value: npsso})

	resp, err := e.authClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authorize request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing authorize response")
		}
	}()

	if resp.StatusCode != http.StatusFound {
		return nil, fmt.Errorf("authorize returned status %d, npsso may be expired", resp.StatusCode)
	}

	location, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		return nil, fmt.Errorf("invalid redirect location: %w", err)
	}
	code := location.Query().Get("code")
	if code == "" {
		return nil, fmt.Errorf("redirect carried no authorization code")
	}

	return e.exchange(ctx, url.Values{
		"code":         {code},
		"redirect_uri": {redirectURI},
		"grant_type":   {"authorization_code"},
		"token_format": {"jwt"},
	})
}

// RefreshToken exchanges a refresh token for a fresh mobile token.
func (e *Exchanger) RefreshToken(ctx context.Context, refreshToken string) (*credentials.Token, error) {
	return e.exchange(ctx, url.Values{
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
		"token_format":  {"jwt"},
		"scope":         {"psn:mobile.v2.core psn:clientapp"},
	})
}

func (e *Exchanger) exchange(ctx context.Context, form url.Values) (*credentials.Token, error) {
	headers := map[string]string{"Authorization": "Basic " + mobileBasicAuth}
	var resp tokenResponse
	if err := e.client.PostForm(ctx, e.tokenEndpoint, headers, form, &resp); err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint returned no access token")
	}
	return resp.toToken(), nil
}

// title is one entry from the gamelist titles endpoint.
type title struct {
	TitleID             string `json:"titleId"`
	Name                string `json:"name"`
	Category            string `json:"category"`
	ImageURL            string `json:"imageUrl"`
	PlayCount           int    `json:"playCount"`
	PlayDuration        string `json:"playDuration"`
	FirstPlayedDateTime string `json:"firstPlayedDateTime"`
	LastPlayedDateTime  string `json:"lastPlayedDateTime"`
}

type titlesPage struct {
	Titles     []title `json:"titles"`
	NextOffset *int    `json:"nextOffset"`
}

// Scanner imports PlayStation Network sources.
type Scanner struct {
	handler library.DataHandler
	store   *credentials.Store
	waiter  *auth.Waiter
	client  *httpclient.Client
	covers  *covers.Fetcher

	titlesEndpoint string
}

// NewScanner creates a PSN scanner. The covers fetcher may be nil when
// image downloads are disabled globally.
func NewScanner(handler library.DataHandler, store *credentials.Store, coverFetcher *covers.Fetcher) *Scanner {
	return &Scanner{
		handler:        handler,
		store:          store,
		waiter:         auth.NewWaiter(),
		client:         httpclient.NewClient(),
		covers:         coverFetcher,
		titlesEndpoint: titlesURL,
	}
}

func (*Scanner) Type() library.SourceType { return library.SourcePSN }

// Scan fetches the PSN library and reconciles it into the catalog. Existing
// entries receive monotonic stat merges instead of being skipped.
func (s *Scanner) Scan(ctx context.Context, source *library.Source, cb *progress.Callback) (int, []string) {
	if !s.store.IsAuthenticated(ctx) {
		if cb != nil {
			cb.Message("Waiting for PlayStation Network sign-in")
		}
		err := s.waiter.Wait(ctx, func() bool { return s.store.IsAuthenticated(ctx) })
		if err != nil {
			return 0, []string{"PlayStation Network authentication required: " + err.Error()}
		}
	}

	tok, err := s.store.Token()
	if err != nil {
		return 0, []string{fmt.Sprintf("failed to load PlayStation token: %v", err)}
	}

	if cb != nil {
		cb.Message("Fetching PlayStation Network library")
	}
	titles, err := s.fetchTitles(ctx, tok.AccessToken)
	if err != nil {
		return 0, []string{fmt.Sprintf("failed to fetch PlayStation library: %v", err)}
	}

	s.saveSnapshot(titles)

	existing, err := s.handler.LoadGames()
	if err != nil {
		return 0, []string{fmt.Sprintf("failed to load catalog: %v", err)}
	}
	index := library.IndexBySource(existing, source.ID)

	added := 0
	var errs []string

	for i, t := range titles {
		if cb != nil {
			if cb.Cancelled() {
				log.Info().Str("source", source.ID).Msg("psn scan cancelled")
				return added, errs
			}
			cb.Update(i+1, len(titles), fmt.Sprintf("Processing %s", t.Name))
		}

		stats := statsFromTitle(t)

		if existingGame, ok := index[library.LauncherKey("psn", t.TitleID)]; ok {
			sources.ApplyStats(s.handler, existingGame, stats)
			continue
		}
		if existingGame, ok := index[library.TitleKey(t.Name)]; ok {
			sources.ApplyStats(s.handler, existingGame, stats)
			continue
		}

		game := &library.Game{
			Title:        t.Name,
			Source:       source.ID,
			LauncherType: "psn",
			LauncherID:   t.TitleID,
		}
		if platform, ok := platformFromCategory(t.Category); ok {
			game.AddPlatform(platform)
		} else if t.Category != "" {
			log.Debug().Str("category", t.Category).Str("title", t.Name).
				Msg("unmapped psn category")
		}

		if !sources.SaveNew(s.handler, game, stats) {
			errs = append(errs, sources.SaveError(t.Name))
			continue
		}
		added++

		if s.covers != nil && source.DownloadImages() && t.ImageURL != "" {
			if ok, msg := s.covers.FetchAndSaveForGame(ctx, game.ID, t.ImageURL, "PSN"); !ok {
				errs = append(errs, msg)
			}
		}
	}

	return added, errs
}

// fetchTitles walks the paginated titles endpoint until the server stops
// returning a nextOffset cursor.
func (s *Scanner) fetchTitles(ctx context.Context, accessToken string) ([]title, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + accessToken,
		"User-Agent":    mobileUserAgent,
	}

	var all []title
	offset := 0
	for {
		var page titlesPage
		err := s.client.GetJSON(ctx, fmt.Sprintf(s.titlesEndpoint, offset), headers, &page)
		if err != nil {
			return nil, fmt.Errorf("titles page at offset %d: %w", offset, err)
		}
		if len(page.Titles) == 0 {
			break
		}
		all = append(all, page.Titles...)
		if page.NextOffset == nil {
			break
		}
		offset = *page.NextOffset
	}
	return all, nil
}

// saveSnapshot writes the raw titles payload next to the source's token so
// a scan can be re-processed offline. Failure is logged, never fatal.
func (s *Scanner) saveSnapshot(titles []title) {
	payload, err := json.MarshalIndent(map[string]any{"titles": titles}, "", "  ")
	if err != nil {
		log.Warn().Err(err).Msg("failed to encode psn snapshot")
		return
	}
	path := filepath.Join(s.store.Dir(), SnapshotFile)
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to write psn snapshot")
	}
}

// statsFromTitle converts a title's play fields into catalog stats.
func statsFromTitle(t title) sources.Stats {
	stats := sources.Stats{
		PlayTime:  parsePlayDuration(t.PlayDuration),
		PlayCount: t.PlayCount,
	}
	if ts, ok := parseDateTime(t.FirstPlayedDateTime); ok {
		stats.FirstPlayed = ts
	}
	if ts, ok := parseDateTime(t.LastPlayedDateTime); ok {
		stats.LastPlayed = ts
	}
	if stats.PlayTime > 0 || stats.PlayCount > 0 {
		stats.Completion = taxonomy.CompletionPlayed
	}
	return stats
}

// parsePlayDuration converts the API's ISO-8601 play duration (PT2H30M) to
// seconds. Unparseable values yield zero.
func parsePlayDuration(raw string) int64 {
	if raw == "" {
		return 0
	}
	m := playDurationPattern.FindStringSubmatch(raw)
	if m == nil {
		log.Debug().Str("duration", raw).Msg("unparseable play duration")
		return 0
	}
	var total int64
	if m[1] != "" {
		h, _ := strconv.ParseInt(m[1], 10, 64)
		total += h * 3600
	}
	if m[2] != "" {
		min, _ := strconv.ParseInt(m[2], 10, 64)
		total += min * 60
	}
	if m[3] != "" {
		sec, _ := strconv.ParseInt(m[3], 10, 64)
		total += sec
	}
	return total
}

func parseDateTime(raw string) (int64, bool) {
	if raw == "" {
		return 0, false
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		log.Debug().Str("datetime", raw).Msg("unparseable played datetime")
		return 0, false
	}
	return ts.Unix(), true
}

// platformFromCategory maps the API's category strings to platforms.
func platformFromCategory(category string) (taxonomy.Platform, bool) {
	switch {
	case strings.Contains(category, "ps5"):
		return taxonomy.PlatformPlayStation5, true
	case strings.Contains(category, "ps4"):
		return taxonomy.PlatformPlayStation4, true
	case strings.Contains(category, "ps3"):
		return taxonomy.PlatformPlayStation3, true
	case strings.Contains(category, "ps_vita"), strings.Contains(category, "psvita"):
		return taxonomy.PlatformPlayStationVita, true
	case strings.Contains(category, "psp"):
		return taxonomy.PlatformPSP, true
	default:
		return "", false
	}
}
