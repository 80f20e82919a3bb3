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

// Package gog scans a GOG.com library through the embed and v2 catalog
// APIs. Products missing from the v2 API are bonus content and are skipped.
// Play time comes from the per-game gameplay sessions endpoint, which is
// expensive, so it runs as a separate rate limited pass.
package gog

import (
	"context"
	"fmt"
	"net/url"
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
	"golang.org/x/time/rate"
)

const (
	tokenURL    = "https://auth.gog.com/token"
	productsURL = "https://embed.gog.com/account/getFilteredProducts"
	userDataURL = "https://embed.gog.com/userData.json"
	detailsURL  = "https://api.gog.com/v2/games/%s"
	sessionsURL = "https://gameplay.gog.com/games/%s/users/%s/sessions"

	// clientID and clientSecret are GOG Galaxy's public OAuth pair.
	clientID     = "46899977096215655"
	clientSecret = "9d85c43b1482497dbbce61f6e4aa173a433796eeae2ca8c5f6129f2dc4de46d9"
	redirectURI  = "https://embed.gog.com/on_login_success?origin=client"

	galaxyUserAgent = "GOGGalaxyClient/2.0.12.3 (Windows 10)"

	// maxGenreTags bounds how many catalog tags are mapped to genres.
	maxGenreTags = 5
)

// Exchanger implements the GOG Galaxy OAuth flow.
type Exchanger struct {
	client        *httpclient.Client
	tokenEndpoint string
}

// NewExchanger creates the GOG token exchanger.
func NewExchanger() *Exchanger {
	return &Exchanger{
		client:        httpclient.NewClient(),
		tokenEndpoint: tokenURL,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (e *Exchanger) exchange(ctx context.Context, form url.Values) (*credentials.Token, error) {
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	headers := map[string]string{"User-Agent": galaxyUserAgent}

	var resp tokenResponse
	if err := e.client.PostForm(ctx, e.tokenEndpoint, headers, form, &resp); err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint returned no access token")
	}

	tokenType := resp.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &credentials.Token{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    tokenType,
		ExpiresAt:    time.Now().Unix() + resp.ExpiresIn,
	}, nil
}

// ExchangeCode exchanges a login authorization code for tokens.
func (e *Exchanger) ExchangeCode(ctx context.Context, code string) (*credentials.Token, error) {
	return e.exchange(ctx, url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {redirectURI},
	})
}

// RefreshToken renews the tokens.
func (e *Exchanger) RefreshToken(ctx context.Context, refreshToken string) (*credentials.Token, error) {
	return e.exchange(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	})
}

type product struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type productsPage struct {
	Products   []product `json:"products"`
	TotalPages int       `json:"totalPages"`
}

// gameDetails is the v2 catalog record. Fetching it doubles as the
// is-it-a-game check: bonus content has no v2 entry.
type gameDetails struct {
	Description string `json:"description"`
	Embedded    struct {
		SupportedOperatingSystems []struct {
			OperatingSystem struct {
				Name string `json:"name"`
			} `json:"operatingSystem"`
		} `json:"supportedOperatingSystems"`
		Tags []struct {
			Name string `json:"name"`
		} `json:"tags"`
		Developers []struct {
			Name string `json:"name"`
		} `json:"developers"`
		Publisher struct {
			Name string `json:"name"`
		} `json:"publisher"`
	} `json:"_embedded"`
	Links struct {
		BoxArtImage struct {
			Href string `json:"href"`
		} `json:"boxArtImage"`
	} `json:"_links"`
}

type sessionsResponse struct {
	// TimeSum is total play time in minutes.
	TimeSum int64 `json:"time_sum"`
}

// Scanner imports GOG.com sources.
type Scanner struct {
	handler library.DataHandler
	store   *credentials.Store
	waiter  *auth.Waiter
	client  *httpclient.Client
	covers  *covers.Fetcher
	limiter *rate.Limiter

	productsEndpoint string
	detailsEndpoint  string
	userDataEndpoint string
	sessionsEndpoint string
}

// NewScanner creates a GOG scanner. The covers fetcher may be nil.
func NewScanner(handler library.DataHandler, store *credentials.Store, coverFetcher *covers.Fetcher) *Scanner {
	return &Scanner{
		handler: handler,
		store:   store,
		waiter:  auth.NewWaiter(),
		client:  httpclient.NewClient(),
		covers:  coverFetcher,
		// The sessions endpoint rate limits aggressively.
		limiter:          rate.NewLimiter(rate.Limit(5), 1),
		productsEndpoint: productsURL,
		detailsEndpoint:  detailsURL,
		userDataEndpoint: userDataURL,
		sessionsEndpoint: sessionsURL,
	}
}

func (*Scanner) Type() library.SourceType { return library.SourceGOG }

func (s *Scanner) authHeaders(ctx context.Context) (map[string]string, error) {
	if !s.store.IsAuthenticated(ctx) {
		err := s.waiter.Wait(ctx, func() bool { return s.store.IsAuthenticated(ctx) })
		if err != nil {
			return nil, fmt.Errorf("GOG authentication required: %w", err)
		}
	}
	tok, err := s.store.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to load GOG token: %w", err)
	}
	return map[string]string{
		"Authorization": tok.TokenType + " " + tok.AccessToken,
		"User-Agent":    galaxyUserAgent,
	}, nil
}

// Scan pages through the owned products list and imports every product the
// v2 catalog confirms is a game. Play time is not touched here, see
// UpdatePlaytimeForGames.
func (s *Scanner) Scan(ctx context.Context, source *library.Source, cb *progress.Callback) (int, []string) {
	headers, err := s.authHeaders(ctx)
	if err != nil {
		return 0, []string{err.Error()}
	}

	if cb != nil {
		cb.Message("Fetching GOG library")
	}
	products, err := s.fetchProducts(ctx, headers)
	if err != nil {
		return 0, []string{fmt.Sprintf("failed to fetch GOG library: %v", err)}
	}

	existing, err := s.handler.LoadGames()
	if err != nil {
		return 0, []string{fmt.Sprintf("failed to load catalog: %v", err)}
	}
	index := library.IndexBySource(existing, source.ID)

	added := 0
	var errs []string

	for i, p := range products {
		if cb != nil {
			if cb.Cancelled() {
				log.Info().Str("source", source.ID).Msg("gog scan cancelled")
				return added, errs
			}
			cb.Update(i+1, len(products), fmt.Sprintf("Processing %s", p.Title))
		}

		gameID := strconv.FormatInt(p.ID, 10)
		if _, found := index[library.LauncherKey("gog", gameID)]; found {
			continue
		}
		if _, found := index[library.TitleKey(p.Title)]; found {
			continue
		}

		var details gameDetails
		endpoint := fmt.Sprintf(s.detailsEndpoint, gameID)
		if err := s.client.GetJSON(ctx, endpoint, nil, &details); err != nil {
			log.Debug().Str("title", p.Title).Err(err).
				Msg("no v2 details, skipping as bonus content")
			continue
		}

		game := &library.Game{
			Title:        p.Title,
			Source:       source.ID,
			LauncherType: "gog",
			LauncherID:   gameID,
			Description:  describeDetails(details),
			Platforms:    platformsFromDetails(details),
			Genres:       genresFromTags(details),
		}

		if !sources.SaveNew(s.handler, game, sources.Stats{}) {
			errs = append(errs, sources.SaveError(p.Title))
			continue
		}
		added++

		if s.covers != nil && source.DownloadImages() && details.Links.BoxArtImage.Href != "" {
			if ok, msg := s.covers.FetchAndSaveForGame(ctx, game.ID, details.Links.BoxArtImage.Href, "GOG"); !ok {
				errs = append(errs, msg)
			}
		}
	}

	return added, errs
}

func (s *Scanner) fetchProducts(ctx context.Context, headers map[string]string) ([]product, error) {
	var all []product
	for page := 1; ; page++ {
		endpoint := s.productsEndpoint +
			"?hiddenFlag=0&mediaType=1&sortBy=title&page=" + strconv.Itoa(page)

		var resp productsPage
		if err := s.client.GetJSON(ctx, endpoint, headers, &resp); err != nil {
			return nil, fmt.Errorf("products page %d: %w", page, err)
		}
		all = append(all, resp.Products...)

		if page >= resp.TotalPages {
			return all, nil
		}
	}
}

// UpdatePlaytimeForGames refreshes play time for already imported GOG games.
// It makes one gameplay API call per game behind a rate limiter, so it runs
// separately from Scan.
func (s *Scanner) UpdatePlaytimeForGames(ctx context.Context, source *library.Source, cb *progress.Callback) (int, []string) {
	headers, err := s.authHeaders(ctx)
	if err != nil {
		return 0, []string{err.Error()}
	}

	games, err := s.handler.LoadGames()
	if err != nil {
		return 0, []string{fmt.Sprintf("failed to load catalog: %v", err)}
	}
	var owned []*library.Game
	for _, g := range games {
		if g.Source == source.ID && g.LauncherType == "gog" && g.LauncherID != "" {
			owned = append(owned, g)
		}
	}
	if len(owned) == 0 {
		return 0, nil
	}

	var userData struct {
		GalaxyUserID string `json:"galaxyUserId"`
	}
	if err := s.client.GetJSON(ctx, s.userDataEndpoint, headers, &userData); err != nil {
		return 0, []string{fmt.Sprintf("failed to fetch GOG user data: %v", err)}
	}
	if userData.GalaxyUserID == "" {
		return 0, []string{"GOG user data has no galaxy user id"}
	}

	updated := 0
	var errs []string

	for i, game := range owned {
		if cb != nil {
			if cb.Cancelled() {
				return updated, errs
			}
			cb.Update(i+1, len(owned), fmt.Sprintf("Updating playtime for %s", game.Title))
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return updated, append(errs, fmt.Sprintf("playtime update interrupted: %v", err))
		}

		endpoint := fmt.Sprintf(s.sessionsEndpoint, game.LauncherID, userData.GalaxyUserID)
		var sessions sessionsResponse
		if err := s.client.GetJSON(ctx, endpoint, headers, &sessions); err != nil {
			errs = append(errs, fmt.Sprintf("Failed to update playtime for %s: %v", game.Title, err))
			continue
		}
		if sessions.TimeSum <= 0 {
			continue
		}

		incoming := sources.Stats{
			PlayTime:   sessions.TimeSum * 60,
			Completion: taxonomy.CompletionPlayed,
		}
		if sources.ApplyStats(s.handler, game, incoming) {
			updated++
		}
	}

	return updated, errs
}

// describeDetails strips the embed API's br markup and folds the developer
// and publisher names into the description.
func describeDetails(details gameDetails) string {
	description := strings.ReplaceAll(details.Description, "<br><br>", "\n\n")
	description = strings.ReplaceAll(description, "<br>", "\n")

	var credits []string
	if len(details.Embedded.Developers) > 0 && details.Embedded.Developers[0].Name != "" {
		credits = append(credits, "Developer: "+details.Embedded.Developers[0].Name)
	}
	if details.Embedded.Publisher.Name != "" {
		credits = append(credits, "Publisher: "+details.Embedded.Publisher.Name)
	}
	if len(credits) == 0 {
		return description
	}
	if description == "" {
		return strings.Join(credits, "\n")
	}
	return strings.Join(credits, "\n") + "\n\n" + description
}

func platformsFromDetails(details gameDetails) []taxonomy.Platform {
	var platforms []taxonomy.Platform
	for _, entry := range details.Embedded.SupportedOperatingSystems {
		name := strings.ToLower(entry.OperatingSystem.Name)
		var platform taxonomy.Platform
		switch {
		case strings.Contains(name, "windows"):
			platform = taxonomy.PlatformPCWindows
		case strings.Contains(name, "mac"), strings.Contains(name, "osx"):
			platform = taxonomy.PlatformPCMac
		case strings.Contains(name, "linux"):
			platform = taxonomy.PlatformPCLinux
		default:
			continue
		}
		duplicate := false
		for _, existing := range platforms {
			if existing == platform {
				duplicate = true
				break
			}
		}
		if !duplicate {
			platforms = append(platforms, platform)
		}
	}
	if len(platforms) == 0 {
		platforms = []taxonomy.Platform{taxonomy.PlatformPCWindows}
	}
	return platforms
}

// genresFromTags maps the first few catalog tags onto the genre taxonomy.
func genresFromTags(details gameDetails) []taxonomy.Genre {
	var genres []taxonomy.Genre
	for i, tag := range details.Embedded.Tags {
		if i >= maxGenreTags {
			break
		}
		if genre, ok := taxonomy.TryResolveGenre(tag.Name); ok {
			duplicate := false
			for _, existing := range genres {
				if existing == genre {
					duplicate = true
					break
				}
			}
			if !duplicate {
				genres = append(genres, genre)
			}
		}
	}
	return genres
}
