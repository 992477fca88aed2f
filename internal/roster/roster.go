// Package roster provides the static list of NBA franchises used to seed a
// full backfill and the TEAM_LIST table.
package roster

import (
	_ "embed"
	"fmt"

	"nbadata/ingestion/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed teams.yaml
var teamsYAML []byte

// Roster is an immutable team list
type Roster struct {
	teams []models.Team
}

type document struct {
	Teams []models.Team `yaml:"teams"`
}

// Load parses the embedded team list
func Load() (*Roster, error) {
	return Parse(teamsYAML)
}

// Parse builds a roster from a YAML document with a top-level "teams" list
func Parse(data []byte) (*Roster, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse team list: %w", err)
	}
	if len(doc.Teams) == 0 {
		return nil, fmt.Errorf("team list is empty")
	}

	r := &Roster{teams: doc.Teams}
	ids := make(map[int64]struct{}, len(doc.Teams))
	for _, t := range doc.Teams {
		if t.ID == 0 {
			return nil, fmt.Errorf("team %q has no id", t.FullName)
		}
		if _, dup := ids[t.ID]; dup {
			return nil, fmt.Errorf("duplicate team id %d", t.ID)
		}
		ids[t.ID] = struct{}{}
	}
	return r, nil
}

// Teams returns a copy of the team list
func (r *Roster) Teams() []models.Team {
	out := make([]models.Team, len(r.teams))
	copy(out, r.teams)
	return out
}

// TeamIDs returns every team id, in list order
func (r *Roster) TeamIDs() []int64 {
	ids := make([]int64, len(r.teams))
	for i, t := range r.teams {
		ids[i] = t.ID
	}
	return ids
}
