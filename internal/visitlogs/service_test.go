package visitlogs_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-hub/campus-hub/internal/shared"
	"github.com/campus-hub/campus-hub/internal/visitlogs"
)

type mockStore struct {
	mu     sync.Mutex
	visits []visitlogs.Visit
	nextID int64

	pageStatsErr error
	userStatsErr error
}

func newMockStore() *mockStore { return &mockStore{nextID: 1} }

func (m *mockStore) InsertVisit(_ context.Context, path string, userID *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visits = append(m.visits, visitlogs.Visit{ID: m.nextID, Path: path, UserID: userID, CreatedAt: time.Now()})
	m.nextID++
	return nil
}

func (m *mockStore) ListVisits(_ context.Context, page shared.Pagination, onlyUserID *int64) ([]visitlogs.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []visitlogs.Visit
	for _, v := range m.visits {
		if onlyUserID == nil || (v.UserID != nil && *v.UserID == *onlyUserID) {
			list = append(list, v)
		}
	}
	return list, nil
}

func (m *mockStore) CountVisits(_ context.Context, onlyUserID *int64) (int, error) {
	list, _ := m.ListVisits(context.Background(), shared.Pagination{}, onlyUserID)
	return len(list), nil
}

func (m *mockStore) PageStats(context.Context) ([]visitlogs.PageStat, error) {
	if m.pageStatsErr != nil {
		return nil, m.pageStatsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int{}
	for _, v := range m.visits {
		counts[v.Path]++
	}
	var stats []visitlogs.PageStat
	for path, count := range counts {
		stats = append(stats, visitlogs.PageStat{Path: path, Count: count})
	}
	return stats, nil
}

func (m *mockStore) UserStats(context.Context) ([]visitlogs.UserStat, error) {
	if m.userStatsErr != nil {
		return nil, m.userStatsErr
	}
	return nil, nil
}

func (m *mockStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []visitlogs.Visit
	var removed int64
	for _, v := range m.visits {
		if v.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, v)
	}
	m.visits = kept
	return removed, nil
}

func TestListFiltersByUser(t *testing.T) {
	store := newMockStore()
	svc := visitlogs.NewService(store)
	ctx := context.Background()

	alice, bob := int64(1), int64(2)
	require.NoError(t, svc.Record(ctx, "/courses", &alice))
	require.NoError(t, svc.Record(ctx, "/courses", &bob))
	require.NoError(t, svc.Record(ctx, "/events", nil))

	all, _, err := svc.List(ctx, 1, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	own, _, err := svc.List(ctx, 1, &alice)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "/courses", own[0].Path)
}

func TestCollectStatsAggregates(t *testing.T) {
	store := newMockStore()
	svc := visitlogs.NewService(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Record(ctx, "/courses", nil))
	}
	require.NoError(t, svc.Record(ctx, "/events", nil))

	stats, err := svc.CollectStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats.Pages, 2)
	byPath := map[string]int{}
	for _, s := range stats.Pages {
		byPath[s.Path] = s.Count
	}
	assert.Equal(t, 3, byPath["/courses"])
	assert.Equal(t, 1, byPath["/events"])
}

func TestCollectStatsPropagatesErrors(t *testing.T) {
	store := newMockStore()
	store.userStatsErr = errors.New("boom")
	svc := visitlogs.NewService(store)

	_, err := svc.CollectStats(context.Background())
	require.Error(t, err)
	var perr *shared.PersistenceError
	assert.ErrorAs(t, err, &perr)
}

func TestWritePageStatsCSV(t *testing.T) {
	var buf bytes.Buffer
	err := visitlogs.WritePageStatsCSV(&buf, []visitlogs.PageStat{
		{Path: "/courses", Count: 10},
		{Path: "/events", Count: 4},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "№,Страница,Количество посещений")
	assert.Contains(t, out, "1,/courses,10")
	assert.Contains(t, out, "2,/events,4")
}

func TestWriteUserStatsCSVAnonymous(t *testing.T) {
	var buf bytes.Buffer
	err := visitlogs.WriteUserStatsCSV(&buf, []visitlogs.UserStat{{Count: 7}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Неаутентифицированный пользователь")
}

func TestPruneRemovesOldRows(t *testing.T) {
	store := newMockStore()
	svc := visitlogs.NewService(store)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, "/old", nil))
	store.mu.Lock()
	store.visits[0].CreatedAt = time.Now().Add(-48 * time.Hour)
	store.mu.Unlock()
	require.NoError(t, svc.Record(ctx, "/fresh", nil))

	removed, err := svc.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	left, _, err := svc.List(ctx, 1, nil)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "/fresh", left[0].Path)
}
