package models

// Team is one franchise from the static team list
type Team struct {
	ID           int64  `yaml:"id" json:"id"`
	FullName     string `yaml:"full_name" json:"full_name"`
	Abbreviation string `yaml:"abbreviation" json:"abbreviation"`
	Nickname     string `yaml:"nickname" json:"nickname"`
	City         string `yaml:"city" json:"city"`
	State        string `yaml:"state" json:"state"`
	YearFounded  int    `yaml:"year_founded" json:"year_founded"`
}

// TeamListColumns returns the column layout of TEAM_LIST
func TeamListColumns() []string {
	return []string{"id", "full_name", "abbreviation", "nickname", "city", "state", "year_founded"}
}

// Values returns the team's values in TeamListColumns order
func (t Team) Values() []any {
	return []any{t.ID, t.FullName, t.Abbreviation, t.Nickname, t.City, t.State, t.YearFounded}
}
