// Package merge reshapes one-row-per-team game listings into one row per game.
package merge

import (
	"errors"
	"fmt"
	"strings"

	"nbadata/ingestion/internal/models"
)

// ErrInvalidKeepPolicy is returned for a keep policy outside the supported set.
// It is a configuration error and must never be retried.
var ErrInvalidKeepPolicy = errors.New("invalid keep policy")

// KeepPolicy selects which ordering of a self-joined team pair survives
type KeepPolicy int

const (
	// All keeps both (A,B) and (B,A); two rows per game.
	All KeepPolicy = iota
	// Home keeps pairs where side A is the home team.
	Home
	// Away keeps pairs where side A is the away team.
	Away
	// Winner keeps pairs where side A won.
	Winner
	// Loser keeps pairs where side A lost.
	Loser
)

// String returns the configuration name of the policy
func (p KeepPolicy) String() string {
	switch p {
	case All:
		return "all"
	case Home:
		return "home"
	case Away:
		return "away"
	case Winner:
		return "winner"
	case Loser:
		return "loser"
	default:
		return fmt.Sprintf("KeepPolicy(%d)", int(p))
	}
}

// ParseKeepPolicy parses a policy name case-insensitively. The empty string means All.
func ParseKeepPolicy(s string) (KeepPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return All, nil
	case "home":
		return Home, nil
	case "away":
		return Away, nil
	case "winner":
		return Winner, nil
	case "loser":
		return Loser, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidKeepPolicy, s)
	}
}

// keep reports whether the ordered pair with the given A side survives the policy
func (p KeepPolicy) keep(a models.TeamSide) (bool, error) {
	switch p {
	case All:
		return true, nil
	case Home:
		return a.IsHome(), nil
	case Away:
		return a.IsAway(), nil
	case Winner:
		return a.IsWinner(), nil
	case Loser:
		return a.IsLoser(), nil
	default:
		return false, fmt.Errorf("%w: %s", ErrInvalidKeepPolicy, p)
	}
}

// Merge self-joins rows on (SeasonID, GameID, GameDate), drops pairs of a row with
// itself and keeps the ordered pairs accepted by policy.
//
// Rows are grouped by key first so the cost stays linear in the number of rows;
// groups come out in first-seen order and pairs in input order within a group.
func Merge(rows []models.TeamGameRow, policy KeepPolicy) ([]models.MergedGameRow, error) {
	if _, err := policy.keep(models.TeamSide{}); err != nil {
		return nil, err
	}

	groups := make(map[models.GameKey][]int, len(rows)/2+1)
	order := make([]models.GameKey, 0, len(rows)/2+1)
	for i, r := range rows {
		k := r.Key()
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	merged := make([]models.MergedGameRow, 0, len(order))
	for _, k := range order {
		idx := groups[k]
		for _, i := range idx {
			a := rows[i]
			ok, err := policy.keep(a.TeamSide)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			for _, j := range idx {
				b := rows[j]
				if a.TeamID == b.TeamID {
					continue
				}
				merged = append(merged, models.MergedGameRow{
					SeasonID: a.SeasonID,
					GameID:   a.GameID,
					GameDate: a.GameDate,
					A:        a.TeamSide,
					B:        b.TeamSide,
				})
			}
		}
	}

	return merged, nil
}

// Split reflattens merged rows into team rows, skipping rows already emitted
// for the same (TeamID, GameID).
func Split(merged []models.MergedGameRow) []models.TeamGameRow {
	type teamGame struct {
		teamID int64
		gameID string
	}

	seen := make(map[teamGame]struct{}, 2*len(merged))
	rows := make([]models.TeamGameRow, 0, 2*len(merged))
	for _, m := range merged {
		a, b := m.Sides()
		for _, r := range []models.TeamGameRow{a, b} {
			k := teamGame{teamID: r.TeamID, gameID: r.GameID}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			rows = append(rows, r)
		}
	}
	return rows
}
