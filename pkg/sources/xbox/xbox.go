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

// Package xbox scans an Xbox Live library. Authentication chains three
// exchanges: the Live OAuth code grant, the XASU user token, and the XSTS
// authorization whose userhash claim signs every API request.
package xbox

import (
	"context"
	"fmt"
	"net/url"
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
	clientID    = "38cd2fa8-66fd-4760-afb2-405eb65d5b0c"
	redirectURI = "https://login.live.com/oauth20_desktop.srf"
	oauthScope  = "Xboxlive.signin Xboxlive.offline_access"

	liveTokenURL = "https://login.live.com/oauth20_token.srf"
	userAuthURL  = "https://user.auth.xboxlive.com/user/authenticate"
	xstsAuthURL  = "https://xsts.auth.xboxlive.com/xsts/authorize"
	titlesURL    = "https://titlehub.xboxlive.com/users/xuid(%s)/titles/titlehistory/decoration/detail"
	userStatsURL = "https://userstats.xboxlive.com/batch"

	// extraUserhash and extraXUID are the XSTS claims kept alongside the
	// token; both are needed to build the XBL3.0 authorization header.
	extraUserhash = "userhash"
	extraXUID     = "xuid"
)

// Exchanger implements the Live OAuth code grant followed by the XASU and
// XSTS exchanges. The stored access token is the XSTS token; the Live
// refresh token drives renewal, which re-runs the full chain.
type Exchanger struct {
	client *httpclient.Client

	tokenEndpoint    string
	userAuthEndpoint string
	xstsEndpoint     string
}

// NewExchanger creates the Xbox token exchanger.
func NewExchanger() *Exchanger {
	return &Exchanger{
		client:           httpclient.NewClient(),
		tokenEndpoint:    liveTokenURL,
		userAuthEndpoint: userAuthURL,
		xstsEndpoint:     xstsAuthURL,
	}
}

type liveTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	UserID       string `json:"user_id"`
}

type xblTokenResponse struct {
	Token         string `json:"Token"`
	DisplayClaims struct {
		XUI []struct {
			UHS string `json:"uhs"`
			XID string `json:"xid"`
		} `json:"xui"`
	} `json:"DisplayClaims"`
}

// ExchangeCode exchanges a Live authorization code and chains through to an
// XSTS token.
func (e *Exchanger) ExchangeCode(ctx context.Context, code string) (*credentials.Token, error) {
	return e.liveThenXSTS(ctx, url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"scope":        {oauthScope},
		"client_id":    {clientID},
		"redirect_uri": {redirectURI},
	})
}

// RefreshToken renews the Live token and re-runs the XASU/XSTS chain, since
// XSTS tokens cannot be refreshed directly.
func (e *Exchanger) RefreshToken(ctx context.Context, refreshToken string) (*credentials.Token, error) {
	return e.liveThenXSTS(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"scope":         {oauthScope},
		"client_id":     {clientID},
		"redirect_uri":  {redirectURI},
	})
}

func (e *Exchanger) liveThenXSTS(ctx context.Context, form url.Values) (*credentials.Token, error) {
	var live liveTokenResponse
	if err := e.client.PostForm(ctx, e.tokenEndpoint, nil, form, &live); err != nil {
		return nil, fmt.Errorf("live token exchange failed: %w", err)
	}
	if live.AccessToken == "" {
		return nil, fmt.Errorf("live token endpoint returned no access token")
	}

	userToken, err := e.authenticateUser(ctx, live.AccessToken)
	if err != nil {
		return nil, err
	}
	xsts, err := e.authorizeXSTS(ctx, userToken)
	if err != nil {
		return nil, err
	}
	if len(xsts.DisplayClaims.XUI) == 0 {
		return nil, fmt.Errorf("xsts response carried no user claims")
	}

	return &credentials.Token{
		AccessToken:  xsts.Token,
		RefreshToken: live.RefreshToken,
		TokenType:    live.TokenType,
		ExpiresAt:    time.Now().Unix() + live.ExpiresIn,
		Extra: map[string]string{
			extraUserhash: xsts.DisplayClaims.XUI[0].UHS,
			extraXUID:     xsts.DisplayClaims.XUI[0].XID,
		},
	}, nil
}

func (e *Exchanger) authenticateUser(ctx context.Context, liveAccessToken string) (string, error) {
	body := map[string]any{
		"RelyingParty": "http://auth.xboxlive.com",
		"TokenType":    "JWT",
		"Properties": map[string]any{
			"AuthMethod": "RPS",
			"SiteName":   "user.auth.xboxlive.com",
			"RpsTicket":  "d=" + liveAccessToken,
		},
	}
	headers := map[string]string{"x-xbl-contract-version": "1"}

	var resp xblTokenResponse
	if err := e.client.PostJSON(ctx, e.userAuthEndpoint, headers, body, &resp); err != nil {
		return "", fmt.Errorf("user token exchange failed: %w", err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("user auth returned no token")
	}
	return resp.Token, nil
}

func (e *Exchanger) authorizeXSTS(ctx context.Context, userToken string) (*xblTokenResponse, error) {
	body := map[string]any{
		"RelyingParty": "http://xboxlive.com",
		"TokenType":    "JWT",
		"Properties": map[string]any{
			"SandboxId":  "RETAIL",
			"UserTokens": []string{userToken},
		},
	}
	headers := map[string]string{"x-xbl-contract-version": "1"}

	var resp xblTokenResponse
	if err := e.client.PostJSON(ctx, e.xstsEndpoint, headers, body, &resp); err != nil {
		return nil, fmt.Errorf("xsts authorization failed: %w", err)
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("xsts returned no token")
	}
	return &resp, nil
}

// xboxTitle is one entry from the titlehub history endpoint.
type xboxTitle struct {
	TitleID       string   `json:"titleId"`
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	Devices       []string `json:"devices"`
	DisplayImage  string   `json:"displayImage"`
	MinutesPlayed int64    `json:"minutesPlayed"`
	Detail        *struct {
		Description string   `json:"description"`
		Genres      []string `json:"genres"`
	} `json:"detail"`
	TitleHistory *struct {
		LastTimePlayed string `json:"lastTimePlayed"`
	} `json:"titleHistory"`
}

type titlesPage struct {
	Titles     []xboxTitle `json:"titles"`
	PagingInfo *struct {
		ContinuationToken string `json:"continuationToken"`
	} `json:"pagingInfo"`
}

type statsResponse struct {
	StatListsCollection []struct {
		Stats []struct {
			TitleID string `json:"titleid"`
			Value   string `json:"value"`
		} `json:"stats"`
	} `json:"statlistscollection"`
}

// Scanner imports Xbox Live sources.
type Scanner struct {
	handler library.DataHandler
	store   *credentials.Store
	waiter  *auth.Waiter
	client  *httpclient.Client
	covers  *covers.Fetcher

	titlesEndpoint string
	statsEndpoint  string
}

// NewScanner creates an Xbox scanner. The covers fetcher may be nil.
func NewScanner(handler library.DataHandler, store *credentials.Store, coverFetcher *covers.Fetcher) *Scanner {
	return &Scanner{
		handler:        handler,
		store:          store,
		waiter:         auth.NewWaiter(),
		client:         httpclient.NewClient(),
		covers:         coverFetcher,
		titlesEndpoint: titlesURL,
		statsEndpoint:  userStatsURL,
	}
}

func (*Scanner) Type() library.SourceType { return library.SourceXbox }

// Scan fetches the title history, annotates it with MinutesPlayed stats and
// imports titles not yet in the catalog.
func (s *Scanner) Scan(ctx context.Context, source *library.Source, cb *progress.Callback) (int, []string) {
	if !s.store.IsAuthenticated(ctx) {
		if cb != nil {
			cb.Message("Waiting for Xbox Live sign-in")
		}
		err := s.waiter.Wait(ctx, func() bool { return s.store.IsAuthenticated(ctx) })
		if err != nil {
			return 0, []string{"Xbox Live authentication required: " + err.Error()}
		}
	}

	tok, err := s.store.Token()
	if err != nil {
		return 0, []string{fmt.Sprintf("failed to load Xbox token: %v", err)}
	}
	userhash := tok.Extra[extraUserhash]
	xuid := tok.Extra[extraXUID]
	if userhash == "" || xuid == "" {
		return 0, []string{"Xbox token is missing XSTS claims, re-authentication required"}
	}
	headers := map[string]string{
		"x-xbl-contract-version": "2",
		"Authorization":          fmt.Sprintf("XBL3.0 x=%s;%s", userhash, tok.AccessToken),
		"Accept-Language":        "en-US",
	}

	if cb != nil {
		cb.Message("Fetching Xbox title history")
	}
	titles, err := s.fetchTitles(ctx, headers, xuid)
	if err != nil {
		return 0, []string{fmt.Sprintf("failed to fetch Xbox titles: %v", err)}
	}

	minutes := s.fetchMinutesPlayed(ctx, headers, xuid, titles)

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
				log.Info().Str("source", source.ID).Msg("xbox scan cancelled")
				return added, errs
			}
			cb.Update(i+1, len(titles), fmt.Sprintf("Processing %s", t.Name))
		}

		if t.Type != "Game" {
			continue
		}
		if _, ok := index[library.LauncherKey("xbox", t.TitleID)]; ok {
			continue
		}
		if _, ok := index[library.TitleKey(t.Name)]; ok {
			continue
		}

		game := &library.Game{
			Title:        t.Name,
			Source:       source.ID,
			LauncherType: "xbox",
			LauncherID:   t.TitleID,
			Platforms:    platformsFromDevices(t.Devices),
		}
		if t.Detail != nil {
			game.Description = t.Detail.Description
			for _, raw := range t.Detail.Genres {
				if genre, ok := genreFromKeyword(raw); ok {
					game.AddGenre(genre)
				} else {
					log.Debug().Str("genre", raw).Str("title", t.Name).
						Msg("unmapped xbox genre")
				}
			}
		}

		stats := sources.Stats{}
		if m, ok := minutes[t.TitleID]; ok && m > 0 {
			stats.PlayTime = m * 60
			stats.PlayCount = 1
			stats.Completion = taxonomy.CompletionPlayed
		}
		if t.TitleHistory != nil && t.TitleHistory.LastTimePlayed != "" {
			if ts, parseErr := time.Parse(time.RFC3339, t.TitleHistory.LastTimePlayed); parseErr == nil {
				stats.LastPlayed = ts.Unix()
			}
		}

		if !sources.SaveNew(s.handler, game, stats) {
			errs = append(errs, sources.SaveError(t.Name))
			continue
		}
		added++

		if s.covers != nil && source.DownloadImages() && t.DisplayImage != "" {
			if ok, msg := s.covers.FetchAndSaveForGame(ctx, game.ID, t.DisplayImage, "Xbox"); !ok {
				errs = append(errs, msg)
			}
		}
	}

	return added, errs
}

// fetchTitles walks the title history, following continuation tokens until
// the server stops returning one.
func (s *Scanner) fetchTitles(ctx context.Context, headers map[string]string, xuid string) ([]xboxTitle, error) {
	base := fmt.Sprintf(s.titlesEndpoint, xuid)

	var all []xboxTitle
	continuation := ""
	for {
		endpoint := base
		if continuation != "" {
			endpoint += "?continuationToken=" + url.QueryEscape(continuation)
		}

		var page titlesPage
		if err := s.client.GetJSON(ctx, endpoint, headers, &page); err != nil {
			return nil, fmt.Errorf("title history request failed: %w", err)
		}
		all = append(all, page.Titles...)

		if page.PagingInfo == nil || page.PagingInfo.ContinuationToken == "" {
			break
		}
		continuation = page.PagingInfo.ContinuationToken
	}
	return all, nil
}

// fetchMinutesPlayed batches a MinutesPlayed stat query for every title.
// Failure degrades to an import without play time.
func (s *Scanner) fetchMinutesPlayed(ctx context.Context, headers map[string]string, xuid string, titles []xboxTitle) map[string]int64 {
	minutes := map[string]int64{}
	if len(titles) == 0 {
		return minutes
	}

	statQueries := make([]map[string]string, 0, len(titles))
	for _, t := range titles {
		if t.TitleID == "" {
			continue
		}
		statQueries = append(statQueries, map[string]string{
			"name":    "MinutesPlayed",
			"titleid": t.TitleID,
		})
	}

	body := map[string]any{
		"arrangebyfield": "xuid",
		"stats":          statQueries,
		"xuids":          []string{xuid},
	}

	var resp statsResponse
	if err := s.client.PostJSON(ctx, s.statsEndpoint, headers, body, &resp); err != nil {
		log.Warn().Err(err).Msg("failed to fetch xbox playtime stats")
		return minutes
	}

	for _, collection := range resp.StatListsCollection {
		for _, stat := range collection.Stats {
			if stat.Value == "" {
				continue
			}
			var m int64
			if _, err := fmt.Sscanf(stat.Value, "%d", &m); err == nil {
				minutes[stat.TitleID] = m
			}
		}
	}
	return minutes
}

// platformsFromDevices maps titlehub device names to platforms.
func platformsFromDevices(devices []string) []taxonomy.Platform {
	var platforms []taxonomy.Platform
	for _, device := range devices {
		switch device {
		case "XboxOne":
			platforms = append(platforms, taxonomy.PlatformXboxOne)
		case "XboxSeries":
			platforms = append(platforms, taxonomy.PlatformXboxSeries)
		case "Xbox360":
			platforms = append(platforms, taxonomy.PlatformXbox360)
		case "Xbox":
			platforms = append(platforms, taxonomy.PlatformXbox)
		case "PC":
			platforms = append(platforms, taxonomy.PlatformPCWindows)
		}
	}
	return platforms
}

// genreKeywords maps substrings of Xbox genre labels to canonical genres.
// Order matters: "Role-Playing" must win over a bare "Action" prefix.
var genreKeywords = []struct {
	keyword string
	genre   taxonomy.Genre
}{
	{"RPG", taxonomy.GenreRolePlayingRPG},
	{"Role", taxonomy.GenreRolePlayingRPG},
	{"Platform", taxonomy.GenrePlatformer},
	{"Shooter", taxonomy.GenreShooter},
	{"Action", taxonomy.GenreAction},
	{"Adventure", taxonomy.GenreAdventure},
	{"Puzzle", taxonomy.GenrePuzzle},
	{"Strategy", taxonomy.GenreStrategy},
	{"Sports", taxonomy.GenreSports},
	{"Racing", taxonomy.GenreRacing},
	{"Simulation", taxonomy.GenreSimulator},
	{"Fighting", taxonomy.GenreFighting},
}

func genreFromKeyword(raw string) (taxonomy.Genre, bool) {
	for _, entry := range genreKeywords {
		if strings.Contains(raw, entry.keyword) {
			return entry.genre, true
		}
	}
	return "", false
}
