package reviews

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-hub/campus-hub/internal/shared"
)

type mockCourse struct {
	ratingSum int
	ratingNum int
}

// mockRepository stages writes per transaction and only applies them when
// the transaction callback succeeds, mirroring rollback semantics.
type mockRepository struct {
	mu      sync.Mutex
	nextID  int64
	reviews []Review
	courses map[int64]*mockCourse

	insertErr    error
	incrementErr error
	txBegun      int
}

func newMockRepository(courseIDs ...int64) *mockRepository {
	repo := &mockRepository{nextID: 1, courses: make(map[int64]*mockCourse)}
	for _, id := range courseIDs {
		repo.courses[id] = &mockCourse{}
	}
	return repo
}

type mockTx struct {
	repo      *mockRepository
	staged    []Review
	increment map[int64][2]int
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txBegun++
	tx := &mockTx{repo: m, increment: make(map[int64][2]int)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	// Commit.
	m.reviews = append(m.reviews, tx.staged...)
	for id, delta := range tx.increment {
		course, ok := m.courses[id]
		if !ok {
			continue
		}
		course.ratingSum += delta[0]
		course.ratingNum += delta[1]
	}
	return nil
}

func (t *mockTx) InsertReview(ctx context.Context, review *Review) error {
	if t.repo.insertErr != nil {
		return t.repo.insertErr
	}
	for _, existing := range t.repo.reviews {
		if existing.CourseID == review.CourseID && existing.UserID == review.UserID {
			return ErrAlreadyReviewed
		}
	}
	review.ID = t.repo.nextID
	t.repo.nextID++
	review.CreatedAt = time.Now()
	t.staged = append(t.staged, *review)
	return nil
}

func (t *mockTx) AddCourseRating(ctx context.Context, courseID int64, rating int) error {
	if t.repo.incrementErr != nil {
		return t.repo.incrementErr
	}
	if _, ok := t.repo.courses[courseID]; !ok {
		return shared.ErrNotFound
	}
	delta := t.increment[courseID]
	delta[0] += rating
	delta[1]++
	t.increment[courseID] = delta
	return nil
}

func (m *mockRepository) ListByCourse(ctx context.Context, courseID int64, order SortOrder, page shared.Pagination) ([]Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []Review
	for _, review := range m.reviews {
		if review.CourseID == courseID {
			list = append(list, review)
		}
	}
	return list, nil
}

func (m *mockRepository) CountByCourse(ctx context.Context, courseID int64) (int, error) {
	list, _ := m.ListByCourse(ctx, courseID, SortNewest, shared.Pagination{})
	return len(list), nil
}

func (m *mockRepository) LatestByAuthor(ctx context.Context, courseID, userID int64) (*Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.reviews) - 1; i >= 0; i-- {
		if m.reviews[i].CourseID == courseID && m.reviews[i].UserID == userID {
			review := m.reviews[i]
			return &review, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepository) aggregate(courseID int64) (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	course := m.courses[courseID]
	return course.ratingSum, course.ratingNum
}

func TestRecordReviewRejectsOutOfRangeRating(t *testing.T) {
	repo := newMockRepository(1)
	service := NewService(repo)

	for _, rating := range []int{0, -1, 6, 100} {
		review, err := service.RecordReview(context.Background(), CreateReviewInput{CourseID: 1, AuthorID: 2, Rating: rating, Text: "so-so"})
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err), "rating %d must fail validation", rating)
		assert.Nil(t, review)
	}

	// Validation failures never reach storage.
	assert.Equal(t, 0, repo.txBegun)
	sum, num := repo.aggregate(1)
	assert.Zero(t, sum)
	assert.Zero(t, num)
}

func TestRecordReviewInsertsAndAggregates(t *testing.T) {
	repo := newMockRepository(1)
	service := NewService(repo)

	review, err := service.RecordReview(context.Background(), CreateReviewInput{CourseID: 1, AuthorID: 2, Rating: 4, Text: "  Отличный курс  "})
	require.NoError(t, err)
	require.NotNil(t, review)
	assert.NotZero(t, review.ID)
	assert.Equal(t, "Отличный курс", review.Text)

	sum, num := repo.aggregate(1)
	assert.Equal(t, 4, sum)
	assert.Equal(t, 1, num)
}

func TestRecordReviewExactAverage(t *testing.T) {
	repo := newMockRepository(1)
	service := NewService(repo)

	ratings := []int{5, 3, 4, 1, 5, 2}
	want := 0
	for i, rating := range ratings {
		_, err := service.RecordReview(context.Background(), CreateReviewInput{CourseID: 1, AuthorID: int64(10 + i), Rating: rating})
		require.NoError(t, err)
		want += rating
	}

	sum, num := repo.aggregate(1)
	require.Equal(t, len(ratings), num)
	require.Equal(t, want, sum)
	assert.InDelta(t, float64(want)/float64(len(ratings)), float64(sum)/float64(num), 1e-9)
}

func TestRecordReviewRollsBackOnIncrementFailure(t *testing.T) {
	repo := newMockRepository(1)
	repo.incrementErr = errors.New("connection reset")
	service := NewService(repo)

	review, err := service.RecordReview(context.Background(), CreateReviewInput{CourseID: 1, AuthorID: 2, Rating: 5, Text: "great"})
	require.Error(t, err)
	assert.Nil(t, review)

	var pe *shared.PersistenceError
	require.ErrorAs(t, err, &pe)

	// Full rollback: no review visible, aggregate untouched.
	count, err := repo.CountByCourse(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, count)
	sum, num := repo.aggregate(1)
	assert.Zero(t, sum)
	assert.Zero(t, num)
}

func TestRecordReviewDuplicateAuthor(t *testing.T) {
	repo := newMockRepository(1)
	service := NewService(repo)

	_, err := service.RecordReview(context.Background(), CreateReviewInput{CourseID: 1, AuthorID: 2, Rating: 5})
	require.NoError(t, err)

	_, err = service.RecordReview(context.Background(), CreateReviewInput{CourseID: 1, AuthorID: 2, Rating: 3})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))

	sum, num := repo.aggregate(1)
	assert.Equal(t, 5, sum)
	assert.Equal(t, 1, num)
}

func TestRecordReviewConcurrentNoLostUpdates(t *testing.T) {
	const n = 64
	repo := newMockRepository(1)
	service := NewService(repo)

	var wg sync.WaitGroup
	want := 0
	for i := 0; i < n; i++ {
		rating := i%5 + 1
		want += rating
		wg.Add(1)
		go func(author int64, rating int) {
			defer wg.Done()
			_, err := service.RecordReview(context.Background(), CreateReviewInput{CourseID: 1, AuthorID: author, Rating: rating})
			assert.NoError(t, err)
		}(int64(100+i), rating)
	}
	wg.Wait()

	sum, num := repo.aggregate(1)
	assert.Equal(t, n, num)
	assert.Equal(t, want, sum)
}

func TestOwnReviewAbsent(t *testing.T) {
	repo := newMockRepository(1)
	service := NewService(repo)

	review, err := service.OwnReview(context.Background(), 1, 99)
	require.NoError(t, err)
	assert.Nil(t, review)
}
