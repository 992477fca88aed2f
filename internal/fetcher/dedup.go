package fetcher

import (
	"sync"

	"nbadata/ingestion/internal/models"
)

// Index is the set of team ids already present in (or reserved for) the
// accumulated result of one run. Safe for concurrent use.
type Index struct {
	mu   sync.Mutex
	seen map[int64]struct{}
}

// NewIndex creates an empty index
func NewIndex() *Index {
	return &Index{seen: make(map[int64]struct{})}
}

// Claim reserves teamID and reports whether it was not present before
func (x *Index) Claim(teamID int64) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.seen[teamID]; ok {
		return false
	}
	x.seen[teamID] = struct{}{}
	return true
}

// Add indexes the team id of every row
func (x *Index) Add(rows []models.TeamGameRow) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, r := range rows {
		x.seen[r.TeamID] = struct{}{}
	}
}

// Len returns the number of indexed teams
func (x *Index) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.seen)
}
