package courses_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-hub/campus-hub/internal/courses"
	"github.com/campus-hub/campus-hub/internal/shared"
)

type mockRepo struct {
	byID       map[int64]*courses.Course
	nextID     int64
	lastFilter courses.SearchFilter
	lastPage   shared.Pagination
}

func newMockRepo() *mockRepo {
	return &mockRepo{byID: map[int64]*courses.Course{}, nextID: 1}
}

func (m *mockRepo) List(_ context.Context, filter courses.SearchFilter, page shared.Pagination) ([]courses.Course, error) {
	m.lastFilter = filter
	m.lastPage = page
	var list []courses.Course
	for _, c := range m.byID {
		list = append(list, *c)
	}
	return list, nil
}

func (m *mockRepo) Count(_ context.Context, filter courses.SearchFilter) (int, error) {
	return len(m.byID), nil
}

func (m *mockRepo) Get(_ context.Context, id int64) (*courses.Course, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *mockRepo) Insert(_ context.Context, course *courses.Course) error {
	course.ID = m.nextID
	m.nextID++
	stored := *course
	m.byID[course.ID] = &stored
	return nil
}

func (m *mockRepo) Update(_ context.Context, course *courses.Course) error {
	if _, ok := m.byID[course.ID]; !ok {
		return shared.ErrNotFound
	}
	stored := *course
	m.byID[course.ID] = &stored
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id int64) error {
	delete(m.byID, id)
	return nil
}

func (m *mockRepo) ListCategories(context.Context) ([]courses.Category, error) {
	return []courses.Category{{ID: 1, Name: "Программирование"}}, nil
}

func TestCreateNormalizesName(t *testing.T) {
	repo := newMockRepo()
	svc := courses.NewService(repo)

	course, err := svc.Create(context.Background(), courses.CreateCourseInput{
		Name:       "  Базы данных  ",
		ShortDesc:  " Вводный курс ",
		CategoryID: 1,
		AuthorID:   7,
	})
	require.NoError(t, err)
	assert.Equal(t, "Базы данных", course.Name)
	assert.Equal(t, "Вводный курс", course.ShortDesc)
	assert.NotZero(t, course.ID)
}

func TestCreateRejectsEmptyName(t *testing.T) {
	svc := courses.NewService(newMockRepo())

	_, err := svc.Create(context.Background(), courses.CreateCourseInput{Name: "   "})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)
}

func TestUpdateKeepsRatingAggregate(t *testing.T) {
	repo := newMockRepo()
	svc := courses.NewService(repo)

	course, err := svc.Create(context.Background(), courses.CreateCourseInput{Name: "Сети"})
	require.NoError(t, err)

	// Simulate reviews having bumped the aggregate.
	repo.byID[course.ID].RatingSum = 9
	repo.byID[course.ID].RatingNum = 2

	updated, err := svc.Get(context.Background(), course.ID)
	require.NoError(t, err)
	updated.Name = "Компьютерные сети"
	require.NoError(t, svc.Update(context.Background(), updated))

	got, err := svc.Get(context.Background(), course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Компьютерные сети", got.Name)
	assert.Equal(t, 9, got.RatingSum)
	assert.Equal(t, 2, got.RatingNum)
}

func TestListPassesNormalizedFilter(t *testing.T) {
	repo := newMockRepo()
	svc := courses.NewService(repo)

	_, pagination, err := svc.List(context.Background(), courses.SearchFilter{Name: "  алгоритмы "}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "алгоритмы", repo.lastFilter.Name)
	assert.Equal(t, 1, pagination.Page)
}

func TestRatingAverage(t *testing.T) {
	c := courses.Course{RatingSum: 14, RatingNum: 4}
	assert.InDelta(t, 3.5, c.Rating(), 0.001)

	empty := courses.Course{}
	assert.Zero(t, empty.Rating())
}
