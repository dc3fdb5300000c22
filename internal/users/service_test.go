package users_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campus-hub/campus-hub/internal/shared"
	"github.com/campus-hub/campus-hub/internal/users"
)

type mockStore struct {
	byID       map[int64]*users.User
	hashes     map[int64]string
	nextID     int64
	takenLogin string
}

func newMockStore() *mockStore {
	return &mockStore{byID: map[int64]*users.User{}, hashes: map[int64]string{}, nextID: 1}
}

func (m *mockStore) ListUsers(_ context.Context, page shared.Pagination) ([]users.User, error) {
	var list []users.User
	for _, u := range m.byID {
		list = append(list, *u)
	}
	return list, nil
}

func (m *mockStore) CountUsers(context.Context) (int, error) { return len(m.byID), nil }

func (m *mockStore) GetUser(_ context.Context, id int64) (*users.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockStore) InsertUser(_ context.Context, user *users.User, passwordHash string) error {
	if user.Login == m.takenLogin {
		return users.ErrLoginTaken
	}
	user.ID = m.nextID
	m.nextID++
	copied := *user
	m.byID[user.ID] = &copied
	m.hashes[user.ID] = passwordHash
	return nil
}

func (m *mockStore) UpdateUser(_ context.Context, user *users.User) error {
	stored, ok := m.byID[user.ID]
	if !ok {
		return shared.ErrNotFound
	}
	stored.LastName = user.LastName
	stored.FirstName = user.FirstName
	stored.MiddleName = user.MiddleName
	return nil
}

func (m *mockStore) UpdateUserRole(_ context.Context, userID, roleID int64) error {
	stored, ok := m.byID[userID]
	if !ok {
		return shared.ErrNotFound
	}
	stored.RoleID = roleID
	return nil
}

func (m *mockStore) DeleteUser(_ context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func TestCreateHashesPasswordAndTrimsNames(t *testing.T) {
	store := newMockStore()
	svc := users.NewService(store)

	user, err := svc.Create(context.Background(), users.CreateUserInput{
		Login:     "newstudent",
		Password:  "Correct1pass",
		LastName:  "  Иванов ",
		FirstName: " Пётр",
		RoleID:    3,
	})
	require.NoError(t, err)
	assert.Equal(t, "Иванов", user.LastName)
	assert.Equal(t, "Пётр", user.FirstName)

	hash := store.hashes[user.ID]
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "Correct1pass", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("Correct1pass")))
}

func TestCreateRejectsBadCredentials(t *testing.T) {
	svc := users.NewService(newMockStore())

	_, err := svc.Create(context.Background(), users.CreateUserInput{
		Login: "ab", Password: "Correct1pass", LastName: "И", FirstName: "П", RoleID: 3,
	})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))

	_, err = svc.Create(context.Background(), users.CreateUserInput{
		Login: "validlogin", Password: "short", LastName: "И", FirstName: "П", RoleID: 3,
	})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestCreateDuplicateLogin(t *testing.T) {
	store := newMockStore()
	store.takenLogin = "duplicate1"
	svc := users.NewService(store)

	_, err := svc.Create(context.Background(), users.CreateUserInput{
		Login: "duplicate1", Password: "Correct1pass", LastName: "И", FirstName: "П", RoleID: 3,
	})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	assert.Contains(t, err.Error(), "уже существует")
}

func TestDeleteForbidsSelf(t *testing.T) {
	store := newMockStore()
	svc := users.NewService(store)

	user, err := svc.Create(context.Background(), users.CreateUserInput{
		Login: "victim123", Password: "Correct1pass", LastName: "И", FirstName: "П", RoleID: 3,
	})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), user.ID, user.ID)
	assert.ErrorIs(t, err, users.ErrSelfDelete)

	err = svc.Delete(context.Background(), user.ID, user.ID+1)
	assert.NoError(t, err)
	_, err = svc.Get(context.Background(), user.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSwitchRoleUnknownUser(t *testing.T) {
	svc := users.NewService(newMockStore())
	err := svc.SwitchRole(context.Background(), 404, 1)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
