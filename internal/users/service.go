package users

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/campus-hub/campus-hub/internal/auth"
	"github.com/campus-hub/campus-hub/internal/shared"
)

// ErrSelfDelete blocks an administrator from removing their own account.
var ErrSelfDelete = errors.New("users: cannot delete own account")

// Store is the persistence surface used by the service.
type Store interface {
	ListUsers(ctx context.Context, page shared.Pagination) ([]User, error)
	CountUsers(ctx context.Context) (int, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	InsertUser(ctx context.Context, user *User, passwordHash string) error
	UpdateUser(ctx context.Context, user *User) error
	UpdateUserRole(ctx context.Context, userID, roleID int64) error
	DeleteUser(ctx context.Context, id int64) error
}

// Service implements account management.
type Service struct {
	store Store
}

// NewService constructs the service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateUserInput carries the registration form payload.
type CreateUserInput struct {
	Login      string
	Password   string
	LastName   string
	FirstName  string
	MiddleName string
	RoleID     int64
}

// List returns one page of accounts with the total count.
func (s *Service) List(ctx context.Context, pageNum int) ([]User, shared.Pagination, error) {
	total, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, shared.Pagination{}, shared.NewPersistenceError("users: count", err)
	}
	page := shared.NewPagination(pageNum, 10, total)
	list, err := s.store.ListUsers(ctx, page)
	if err != nil {
		return nil, shared.Pagination{}, shared.NewPersistenceError("users: list", err)
	}
	return list, page, nil
}

// Get fetches a single account.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.store.GetUser(ctx, id)
}

// Create validates credentials and stores a new account.
func (s *Service) Create(ctx context.Context, in CreateUserInput) (*User, error) {
	in.Login = strings.TrimSpace(in.Login)
	if err := auth.CheckLogin(in.Login); err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(in.Password); err != nil {
		return nil, err
	}
	in.LastName = strings.TrimSpace(in.LastName)
	in.FirstName = strings.TrimSpace(in.FirstName)
	if in.LastName == "" || in.FirstName == "" {
		return nil, shared.NewValidationError("name", "Фамилия и имя не могут быть пустыми")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, shared.NewPersistenceError("users: hash password", err)
	}

	user := &User{
		Login:      in.Login,
		LastName:   in.LastName,
		FirstName:  in.FirstName,
		MiddleName: strings.TrimSpace(in.MiddleName),
		RoleID:     in.RoleID,
	}
	if err := s.store.InsertUser(ctx, user, string(hash)); err != nil {
		if errors.Is(err, ErrLoginTaken) {
			return nil, shared.NewValidationError("login", "Пользователь с таким логином уже существует")
		}
		return nil, shared.NewPersistenceError("users: insert", err)
	}
	return user, nil
}

// Update rewrites an account's name fields.
func (s *Service) Update(ctx context.Context, id int64, lastName, firstName, middleName string) error {
	lastName = strings.TrimSpace(lastName)
	firstName = strings.TrimSpace(firstName)
	if lastName == "" || firstName == "" {
		return shared.NewValidationError("name", "Фамилия и имя не могут быть пустыми")
	}
	user := &User{ID: id, LastName: lastName, FirstName: firstName, MiddleName: strings.TrimSpace(middleName)}
	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return err
		}
		return shared.NewPersistenceError("users: update", err)
	}
	return nil
}

// SwitchRole reassigns an account to a different role.
func (s *Service) SwitchRole(ctx context.Context, userID, roleID int64) error {
	if err := s.store.UpdateUserRole(ctx, userID, roleID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return err
		}
		return shared.NewPersistenceError("users: switch role", err)
	}
	return nil
}

// Delete removes an account. Actors cannot delete themselves.
func (s *Service) Delete(ctx context.Context, id, actorID int64) error {
	if id == actorID {
		return ErrSelfDelete
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return err
		}
		return shared.NewPersistenceError("users: delete", err)
	}
	return nil
}
