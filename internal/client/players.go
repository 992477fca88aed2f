package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"nbadata/ingestion/internal/models"
)

// Player endpoint names
const (
	EndpointCommonAllPlayers     = "commonallplayers"
	EndpointPlayerCareerStats    = "playercareerstats"
	EndpointAllTimeLeadersGrids  = "alltimeleadersgrids"
	allTimeLeadersTopX           = "10"
	allTimeLeadersSetNameSuffix  = "Leaders"
	allTimeLeadersRequiredFields = 5
)

// AllPlayers fetches every player who ever appeared in the league. ROSTERSTATUS
// marks the active ones.
func (c *Client) AllPlayers(ctx context.Context, season string) ([]models.Player, error) {
	params := url.Values{}
	params.Set("LeagueID", "00")
	params.Set("Season", season)
	params.Set("IsOnlyCurrentSeason", "0")

	resp, err := c.get(ctx, EndpointCommonAllPlayers, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch player list: %w", err)
	}

	rs, err := resp.Set(0)
	if err != nil {
		return nil, err
	}

	players := make([]models.Player, 0, len(rs.RowSet))
	for _, r := range rs.Rows() {
		id := r.Int64("PERSON_ID")
		if id == 0 {
			continue
		}
		first, last := splitLastCommaFirst(r.String("DISPLAY_LAST_COMMA_FIRST"))
		players = append(players, models.Player{
			ID:        id,
			FullName:  r.String("DISPLAY_FIRST_LAST"),
			FirstName: first,
			LastName:  last,
			IsActive:  r.Int("ROSTERSTATUS") == 1,
		})
	}

	return players, nil
}

// PlayerCareerStats fetches a player's regular season totals, one line per season and team
func (c *Client) PlayerCareerStats(ctx context.Context, playerID int64) ([]models.CareerSeason, error) {
	params := url.Values{}
	params.Set("PlayerID", strconv.FormatInt(playerID, 10))
	params.Set("PerMode", "Totals")
	params.Set("LeagueID", "00")

	resp, err := c.get(ctx, EndpointPlayerCareerStats, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch career stats of player %d: %w", playerID, err)
	}

	rs, err := resp.Set(0)
	if err != nil {
		return nil, err
	}

	seasons := make([]models.CareerSeason, 0, len(rs.RowSet))
	for _, r := range rs.Rows() {
		seasons = append(seasons, models.CareerSeason{
			PlayerID:         playerID,
			SeasonID:         r.String("SEASON_ID"),
			LeagueID:         r.String("LEAGUE_ID"),
			TeamID:           r.Int64("TEAM_ID"),
			TeamAbbreviation: r.String("TEAM_ABBREVIATION"),
			PlayerAge:        r.NullFloat("PLAYER_AGE"),
			GP:               r.Int("GP"),
			GS:               r.Int("GS"),
			Minutes:          r.NullFloat("MIN"),
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
			STL:              r.Int("STL"),
			BLK:              r.Int("BLK"),
			TOV:              r.Int("TOV"),
			PF:               r.Int("PF"),
			PTS:              r.Int("PTS"),
		})
	}

	return seasons, nil
}

// AllTimeLeaders fetches the regular season all-time leader grids. Each result
// set ranks one statistic with columns PLAYER_ID, PLAYER_NAME, value, rank and
// an active flag, in that order.
func (c *Client) AllTimeLeaders(ctx context.Context) ([]models.AllTimeLeader, error) {
	params := url.Values{}
	params.Set("LeagueID", "00")
	params.Set("PerMode", "Totals")
	params.Set("SeasonType", "Regular Season")
	params.Set("TopX", allTimeLeadersTopX)

	resp, err := c.get(ctx, EndpointAllTimeLeadersGrids, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch all-time leaders: %w", err)
	}

	var leaders []models.AllTimeLeader
	for _, rs := range resp.ResultSets {
		if len(rs.Headers) < allTimeLeadersRequiredFields {
			return nil, fmt.Errorf("leader grid %s has %d columns", rs.Name, len(rs.Headers))
		}
		stat := LeaderType(rs.Name)
		h := rs.Headers
		for _, r := range rs.Rows() {
			leaders = append(leaders, models.AllTimeLeader{
				PlayerID:   r.Int64(h[0]),
				PlayerName: r.String(h[1]),
				Value:      r.Float(h[2]),
				Rank:       r.Int(h[3]),
				IsActive:   r.String(h[4]) != "N",
				Type:       stat,
			})
		}
	}

	return leaders, nil
}

// LeaderType names the statistic a leader grid ranks: "FG_PCTLeaders" -> "FGPCT"
func LeaderType(setName string) string {
	return strings.ReplaceAll(strings.TrimSuffix(setName, allTimeLeadersSetNameSuffix), "_", "")
}

// splitLastCommaFirst splits "James, LeBron" into ("LeBron", "James").
// A single name is returned as the first name.
func splitLastCommaFirst(s string) (first, last string) {
	last, first, ok := strings.Cut(s, ",")
	if !ok {
		return strings.TrimSpace(s), ""
	}
	return strings.TrimSpace(first), strings.TrimSpace(last)
}
