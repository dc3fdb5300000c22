package visitlogs

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/campus-hub/campus-hub/internal/shared"
)

// Store is the persistence surface used by the service.
type Store interface {
	InsertVisit(ctx context.Context, path string, userID *int64) error
	ListVisits(ctx context.Context, page shared.Pagination, onlyUserID *int64) ([]Visit, error)
	CountVisits(ctx context.Context, onlyUserID *int64) (int, error)
	PageStats(ctx context.Context) ([]PageStat, error)
	UserStats(ctx context.Context) ([]UserStat, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service implements the visit journal.
type Service struct {
	store Store
}

// NewService constructs the service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Record stores one page view.
func (s *Service) Record(ctx context.Context, path string, userID *int64) error {
	if err := s.store.InsertVisit(ctx, path, userID); err != nil {
		return shared.NewPersistenceError("visitlogs: record", err)
	}
	return nil
}

// List returns one page of the journal. A non-nil onlyUserID narrows it to
// that user's visits.
func (s *Service) List(ctx context.Context, pageNum int, onlyUserID *int64) ([]Visit, shared.Pagination, error) {
	total, err := s.store.CountVisits(ctx, onlyUserID)
	if err != nil {
		return nil, shared.Pagination{}, shared.NewPersistenceError("visitlogs: count", err)
	}
	page := shared.NewPagination(pageNum, 15, total)
	list, err := s.store.ListVisits(ctx, page, onlyUserID)
	if err != nil {
		return nil, shared.Pagination{}, shared.NewPersistenceError("visitlogs: list", err)
	}
	return list, page, nil
}

// Stats bundles the per-page and per-user aggregates.
type Stats struct {
	Pages []PageStat
	Users []UserStat
}

// CollectStats loads both aggregates, the two queries run concurrently.
func (s *Service) CollectStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pages, err := s.store.PageStats(ctx)
		if err != nil {
			return err
		}
		stats.Pages = pages
		return nil
	})
	g.Go(func() error {
		users, err := s.store.UserStats(ctx)
		if err != nil {
			return err
		}
		stats.Users = users
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, shared.NewPersistenceError("visitlogs: stats", err)
	}
	return &stats, nil
}

// Prune drops journal rows older than the retention window.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	removed, err := s.store.DeleteOlderThan(ctx, time.Now().Add(-retention))
	if err != nil {
		return 0, shared.NewPersistenceError("visitlogs: prune", err)
	}
	return removed, nil
}
