package roles

import "context"

// Store is the persistence surface used by the service.
type Store interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRoleByName(ctx context.Context, name string) (*Role, error)
}

// Service exposes the read-only role catalogue.
type Service struct {
	store Store
}

// NewService constructs the service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns every role.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.store.ListRoles(ctx)
}

// ByName resolves a role by its symbolic name.
func (s *Service) ByName(ctx context.Context, name string) (*Role, error) {
	return s.store.GetRoleByName(ctx, name)
}
