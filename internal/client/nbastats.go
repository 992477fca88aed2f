package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"nbadata/ingestion/internal/metrics"
	"nbadata/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// DateParamLayout is the date format the stats endpoints accept in DateFrom/DateTo.
const DateParamLayout = "01/02/2006"

// Endpoint names
const (
	EndpointLeagueGameFinder      = "leaguegamefinder"
	EndpointLeagueDashPlayerStats = "leaguedashplayerstats"
	EndpointPlayerDashPtShots     = "playerdashptshots"
)

// StatusError is returned when the provider answers with a non-200 status
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth another attempt
func (e *StatusError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusRequestTimeout:
		return true
	}
	return e.StatusCode >= 500
}

// IsRetryable classifies an error from the client. Network, timeout and decode
// errors are transient; 4xx answers other than 408/429 and caller cancellation are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return true
}

// Client is the NBA stats API client
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter chan struct{} // Rate limiting semaphore
}

// NewClient creates a new stats client allowing at most maxConcurrent requests in flight
func NewClient(baseURL string, timeout time.Duration, maxConcurrent int) *Client {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	rateLimiter := make(chan struct{}, maxConcurrent)
	for i := 0; i < maxConcurrent; i++ {
		rateLimiter <- struct{}{}
	}

	return &Client{
		baseURL:     baseURL,
		rateLimiter: rateLimiter,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// get performs one GET request against an endpoint and decodes the result sets.
// Retrying is left to the caller.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (*Response, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.rateLimiter:
		defer func() { c.rateLimiter <- struct{}{} }()
	}

	start := time.Now()
	resp, err := c.do(ctx, endpoint, params)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordAPICall(endpoint, status, time.Since(start).Seconds())
	return resp, err
}

func (c *Client) do(ctx context.Context, endpoint string, params url.Values) (*Response, error) {
	reqURL := fmt.Sprintf("%s/%s", c.baseURL, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// stats.nba.com rejects requests without browser-like headers
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Referer", "https://www.nba.com/")
	req.Header.Set("Origin", "https://www.nba.com")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("x-nba-stats-origin", "stats")
	req.Header.Set("x-nba-stats-token", "true")
	req.URL.RawQuery = params.Encode()

	log.Debug().
		Str("endpoint", endpoint).
		Str("query", req.URL.RawQuery).
		Msg("Making API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: truncate(string(body), 256)}
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s response: %w", endpoint, err)
	}

	log.Debug().
		Str("endpoint", endpoint).
		Int("size", len(body)).
		Msg("API request successful")

	return &out, nil
}

// LeagueGameFinder fetches team game logs. A zero TeamID or DateFrom leaves that filter unset.
func (c *Client) LeagueGameFinder(ctx context.Context, q GameFinderQuery) ([]models.TeamGameRow, error) {
	params := url.Values{}
	params.Set("PlayerOrTeam", "T")
	params.Set("LeagueID", q.LeagueID)
	params.Set("Season", "")
	params.Set("SeasonType", "")
	params.Set("TeamID", "")
	params.Set("DateFrom", "")
	params.Set("DateTo", "")
	if q.TeamID != 0 {
		params.Set("TeamID", strconv.FormatInt(q.TeamID, 10))
	}
	if !q.DateFrom.IsZero() {
		params.Set("DateFrom", q.DateFrom.Format(DateParamLayout))
	}

	resp, err := c.get(ctx, EndpointLeagueGameFinder, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch game finder: %w", err)
	}

	rs, err := resp.Set(0)
	if err != nil {
		return nil, err
	}

	games := make([]models.TeamGameRow, 0, len(rs.RowSet))
	for i, r := range rs.Rows() {
		game, err := parseTeamGameRow(r)
		if err != nil {
			return nil, fmt.Errorf("game finder row %d: %w", i, err)
		}
		games = append(games, game)
	}

	return games, nil
}

// GamesForTeam fetches one team's full game history
func (c *Client) GamesForTeam(ctx context.Context, teamID int64) ([]models.TeamGameRow, error) {
	return c.LeagueGameFinder(ctx, GameFinderQuery{TeamID: teamID})
}

// GamesSince fetches every league game on or after date
func (c *Client) GamesSince(ctx context.Context, date time.Time, leagueID string) ([]models.TeamGameRow, error) {
	return c.LeagueGameFinder(ctx, GameFinderQuery{DateFrom: date, LeagueID: leagueID})
}

// LeagueDashPlayerStats fetches season totals for every player in a season ("YYYY-YY")
func (c *Client) LeagueDashPlayerStats(ctx context.Context, season string) ([]models.LeaguePlayerStat, error) {
	params := dashboardParams(season)
	params.Set("MeasureType", "Base")
	params.Set("PaceAdjust", "N")
	params.Set("PlusMinus", "N")
	params.Set("Rank", "N")

	resp, err := c.get(ctx, EndpointLeagueDashPlayerStats, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch league player stats: %w", err)
	}

	rs, err := resp.Set(0)
	if err != nil {
		return nil, err
	}

	stats := make([]models.LeaguePlayerStat, 0, len(rs.RowSet))
	for _, r := range rs.Rows() {
		stats = append(stats, models.LeaguePlayerStat{
			Season:           season,
			PlayerID:         r.Int64("PLAYER_ID"),
			PlayerName:       r.String("PLAYER_NAME"),
			TeamID:           r.Int64("TEAM_ID"),
			TeamAbbreviation: r.String("TEAM_ABBREVIATION"),
			Age:              r.NullFloat("AGE"),
			GP:               r.Int("GP"),
			W:                r.Int("W"),
			L:                r.Int("L"),
			WPct:             r.NullFloat("W_PCT"),
			Minutes:          r.Float("MIN"),
			FGM:              r.Int("FGM"),
			FGA:              r.Int("FGA"),
			FGPct:            r.NullFloat("FG_PCT"),
			FG3M:             r.Int("FG3M"),
			FG3A:             r.Int("FG3A"),
			FG3Pct:           r.NullFloat("FG3_PCT"),
			FTM:              r.Int("FTM"),
			FTA:              r.Int("FTA"),
			FTPct:            r.NullFloat("FT_PCT"),
			OREB:             r.Int("OREB"),
			DREB:             r.Int("DREB"),
			REB:              r.Int("REB"),
			AST:              r.Int("AST"),
			TOV:              r.Int("TOV"),
			STL:              r.Int("STL"),
			BLK:              r.Int("BLK"),
			PF:               r.Int("PF"),
			PTS:              r.Int("PTS"),
			PlusMinus:        r.Float("PLUS_MINUS"),
		})
	}

	return stats, nil
}

// PlayerDashPtShots fetches a player's shooting dashboards, one ShotProfile per dashboard row
func (c *Client) PlayerDashPtShots(ctx context.Context, teamID, playerID int64, season string) ([]models.ShotProfile, error) {
	params := dashboardParams(season)
	params.Set("TeamID", strconv.FormatInt(teamID, 10))
	params.Set("PlayerID", strconv.FormatInt(playerID, 10))

	resp, err := c.get(ctx, EndpointPlayerDashPtShots, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch player shot dashboard: %w", err)
	}

	var profiles []models.ShotProfile
	for i, rs := range resp.ResultSets {
		if i >= len(models.ShotCategories) {
			break
		}
		category := models.ShotCategories[i]
		rangeCol := rs.RangeColumn()
		for _, r := range rs.Rows() {
			rng := "Overall"
			if rangeCol != "" {
				rng = r.String(rangeCol)
			}
			profiles = append(profiles, models.ShotProfile{
				Season:        season,
				PlayerID:      playerID,
				TeamID:        teamID,
				Category:      category,
				Range:         rng,
				GP:            r.Int("GP"),
				FGAFrequency:  r.NullFloat("FGA_FREQUENCY"),
				FGM:           r.Float("FGM"),
				FGA:           r.Float("FGA"),
				FGPct:         r.NullFloat("FG_PCT"),
				EFGPct:        r.NullFloat("EFG_PCT"),
				FG2AFrequency: r.NullFloat("FG2A_FREQUENCY"),
				FG2M:          r.Float("FG2M"),
				FG2A:          r.Float("FG2A"),
				FG2Pct:        r.NullFloat("FG2_PCT"),
				FG3AFrequency: r.NullFloat("FG3A_FREQUENCY"),
				FG3M:          r.Float("FG3M"),
				FG3A:          r.Float("FG3A"),
				FG3Pct:        r.NullFloat("FG3_PCT"),
			})
		}
	}

	return profiles, nil
}

// GameFinderQuery filters a game finder request
type GameFinderQuery struct {
	TeamID   int64
	DateFrom time.Time
	LeagueID string
}

func parseTeamGameRow(r Row) (models.TeamGameRow, error) {
	date, err := time.Parse(models.GameDateLayout, r.String("GAME_DATE"))
	if err != nil {
		return models.TeamGameRow{}, fmt.Errorf("invalid GAME_DATE: %w", err)
	}
	teamID := r.Int64("TEAM_ID")
	if teamID == 0 {
		return models.TeamGameRow{}, fmt.Errorf("missing TEAM_ID")
	}

	return models.TeamGameRow{
		SeasonID: r.String("SEASON_ID"),
		GameID:   r.String("GAME_ID"),
		GameDate: date,
		TeamSide: models.TeamSide{
			TeamID:           teamID,
			TeamAbbreviation: r.String("TEAM_ABBREVIATION"),
			TeamName:         r.String("TEAM_NAME"),
			Matchup:          r.String("MATCHUP"),
			WinLoss:          r.String("WL"),
			BoxScore: models.BoxScore{
				Minutes:   r.Int("MIN"),
				Points:    r.Int("PTS"),
				FGM:       r.Int("FGM"),
				FGA:       r.Int("FGA"),
				FGPct:     r.NullFloat("FG_PCT"),
				FG3M:      r.Int("FG3M"),
				FG3A:      r.Int("FG3A"),
				FG3Pct:    r.NullFloat("FG3_PCT"),
				FTM:       r.Int("FTM"),
				FTA:       r.Int("FTA"),
				FTPct:     r.NullFloat("FT_PCT"),
				OREB:      r.Int("OREB"),
				DREB:      r.Int("DREB"),
				REB:       r.Int("REB"),
				AST:       r.Int("AST"),
				STL:       r.Int("STL"),
				BLK:       r.Int("BLK"),
				TOV:       r.Int("TOV"),
				PF:        r.Int("PF"),
				PlusMinus: r.NullFloat("PLUS_MINUS"),
			},
		},
	}, nil
}

// dashboardParams returns the filters every dashboard endpoint insists on receiving
func dashboardParams(season string) url.Values {
	params := url.Values{}
	params.Set("LeagueID", "00")
	params.Set("Season", season)
	params.Set("SeasonType", "Regular Season")
	params.Set("PerMode", "Totals")
	params.Set("LastNGames", "0")
	params.Set("Month", "0")
	params.Set("OpponentTeamID", "0")
	params.Set("Period", "0")
	params.Set("DateFrom", "")
	params.Set("DateTo", "")
	return params
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
