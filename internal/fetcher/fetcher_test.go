package fetcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"nbadata/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errTransient = errors.New("connection reset")
	errFatal     = errors.New("bad request")
)

func testPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		AttemptTimeout: time.Second,
	}
}

func classify(err error) bool {
	return !errors.Is(err, errFatal) && !errors.Is(err, context.Canceled)
}

// fakeProvider serves one row per team and fails the first failures[team] calls.
type fakeProvider struct {
	mu       sync.Mutex
	calls    []int64
	failures map[int64]int
	failWith error
	block    map[int64]int // calls that wait for the attempt context to end

	sinceDate   time.Time
	sinceLeague string
	sinceRows   []models.TeamGameRow
}

func (p *fakeProvider) GamesForTeam(ctx context.Context, teamID int64) ([]models.TeamGameRow, error) {
	p.mu.Lock()
	p.calls = append(p.calls, teamID)
	fail := p.failures[teamID] > 0
	if fail {
		p.failures[teamID]--
	}
	block := p.block[teamID] > 0
	if block {
		p.block[teamID]--
	}
	p.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if fail {
		if p.failWith != nil {
			return nil, p.failWith
		}
		return nil, errTransient
	}
	return []models.TeamGameRow{{GameID: "g", TeamSide: models.TeamSide{TeamID: teamID}}}, nil
}

func (p *fakeProvider) GamesSince(ctx context.Context, date time.Time, leagueID string) ([]models.TeamGameRow, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, 0)
	p.sinceDate = date
	p.sinceLeague = leagueID
	if p.failures[0] > 0 {
		p.failures[0]--
		return nil, errTransient
	}
	return p.sinceRows, nil
}

func (p *fakeProvider) callCount(teamID int64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		if c == teamID {
			n++
		}
	}
	return n
}

func newProvider() *fakeProvider {
	return &fakeProvider{failures: map[int64]int{}, block: map[int64]int{}}
}

func TestFetchAllTeams_OneFetchPerTeamLIFO(t *testing.T) {
	p := newProvider()
	f := New(p, Config{Policy: testPolicy(3), Retryable: classify})

	rows, err := f.FetchAllTeams(context.Background(), []int64{1, 2, 3, 2, 3})
	require.NoError(t, err)

	assert.Equal(t, []int64{3, 2, 1}, p.calls, "work list is consumed from the end, duplicates skipped")
	assert.Len(t, rows, 3)
}

func TestFetchAllTeams_RetriesSameTeam(t *testing.T) {
	p := newProvider()
	p.failures[7] = 2
	f := New(p, Config{Policy: testPolicy(5), Retryable: classify})

	rows, err := f.FetchAllTeams(context.Background(), []int64{7, 8})
	require.NoError(t, err)

	assert.Equal(t, 3, p.callCount(7), "two failures then success")
	assert.Equal(t, 1, p.callCount(8))
	assert.Len(t, rows, 2)
}

func TestFetchAllTeams_ExhaustedFailsRun(t *testing.T) {
	p := newProvider()
	p.failures[7] = 100
	f := New(p, Config{Policy: testPolicy(4), Retryable: classify})

	rows, err := f.FetchAllTeams(context.Background(), []int64{7})
	require.Error(t, err)
	assert.Nil(t, rows)

	var exhausted *FetchExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, int64(7), exhausted.Team)
	assert.Equal(t, 4, exhausted.Attempts)
	assert.Equal(t, OpGamesForTeam, exhausted.Operation)
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 4, p.callCount(7))
}

func TestFetchAllTeams_NonRetryableStopsImmediately(t *testing.T) {
	p := newProvider()
	p.failures[7] = 1
	p.failWith = errFatal
	f := New(p, Config{Policy: testPolicy(5), Retryable: classify})

	_, err := f.FetchAllTeams(context.Background(), []int64{7})

	var exhausted *FetchExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 1, exhausted.Attempts)
	assert.ErrorIs(t, err, errFatal)
	assert.Equal(t, 1, p.callCount(7))
}

func TestFetchAllTeams_AttemptTimeoutIsRetried(t *testing.T) {
	p := newProvider()
	p.block[5] = 1
	policy := testPolicy(3)
	policy.AttemptTimeout = 20 * time.Millisecond
	f := New(p, Config{Policy: policy, Retryable: classify})

	rows, err := f.FetchAllTeams(context.Background(), []int64{5})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 2, p.callCount(5))
}

func TestFetchAllTeams_CanceledContext(t *testing.T) {
	p := newProvider()
	p.block[5] = 10
	f := New(p, Config{Policy: testPolicy(10), Retryable: classify})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := f.FetchAllTeams(ctx, []int64{5})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	var exhausted *FetchExhaustedError
	assert.False(t, errors.As(err, &exhausted), "cancellation is not exhaustion")
}

func TestFetchAllTeams_Concurrent(t *testing.T) {
	p := newProvider()
	var ids []int64
	for i := int64(1); i <= 30; i++ {
		ids = append(ids, i, i)
		if i%5 == 0 {
			p.failures[i] = 1
		}
	}
	f := New(p, Config{Policy: testPolicy(3), Concurrency: 4, Retryable: classify})

	rows, err := f.FetchAllTeams(context.Background(), ids)
	require.NoError(t, err)
	assert.Len(t, rows, 30)

	for i := int64(1); i <= 30; i++ {
		want := 1
		if i%5 == 0 {
			want = 2
		}
		assert.Equal(t, want, p.callCount(i), "team %d", i)
	}
}

func TestFetchAllTeams_EmptyList(t *testing.T) {
	f := New(newProvider(), Config{Policy: testPolicy(1)})

	rows, err := f.FetchAllTeams(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFetchSince(t *testing.T) {
	p := newProvider()
	p.failures[0] = 1
	p.sinceRows = []models.TeamGameRow{{GameID: "1"}, {GameID: "1"}}
	f := New(p, Config{Policy: testPolicy(2), LeagueID: "00", Retryable: classify})

	date := time.Date(2023, 4, 9, 0, 0, 0, 0, time.UTC)
	rows, err := f.FetchSince(context.Background(), date)
	require.NoError(t, err)

	assert.Len(t, rows, 2)
	assert.Equal(t, date, p.sinceDate)
	assert.Equal(t, "00", p.sinceLeague)
	assert.Equal(t, 2, p.callCount(0))
}

func TestFetchSince_Exhausted(t *testing.T) {
	p := newProvider()
	p.failures[0] = 5
	f := New(p, Config{Policy: testPolicy(2), Retryable: classify})

	_, err := f.FetchSince(context.Background(), time.Now())

	var exhausted *FetchExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, OpGamesSince, exhausted.Operation)
	assert.Equal(t, 2, exhausted.Attempts)
	assert.Zero(t, exhausted.Team)
}

func TestIndex(t *testing.T) {
	x := NewIndex()
	assert.True(t, x.Claim(1))
	assert.False(t, x.Claim(1))

	x.Add([]models.TeamGameRow{{TeamSide: models.TeamSide{TeamID: 2}}, {TeamSide: models.TeamSide{TeamID: 2}}})
	assert.False(t, x.Claim(2))
	assert.Equal(t, 2, x.Len())
	assert.True(t, x.Claim(3))
	assert.Equal(t, 3, x.Len())
}

func TestNewRetrier_ClampsAttempts(t *testing.T) {
	r := NewRetrier(Policy{MaxAttempts: 0}, nil)
	assert.Equal(t, 1, r.Policy().MaxAttempts)

	calls := 0
	_, err := Do(context.Background(), r, "op", 0, func(context.Context) (int, error) {
		calls++
		return 0, errTransient
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
