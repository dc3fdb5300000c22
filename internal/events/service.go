package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/campus-hub/campus-hub/internal/shared"
)

// ErrAlreadyRegistered marks a repeated volunteer application.
var ErrAlreadyRegistered = errors.New("events: already registered")

// ErrQuotaReached blocks accepting volunteers above the quota.
var ErrQuotaReached = errors.New("events: volunteer quota reached")

// Store is the persistence surface used by the service.
type Store interface {
	ListEvents(ctx context.Context, page shared.Pagination) ([]Event, error)
	CountEvents(ctx context.Context) (int, error)
	GetEvent(ctx context.Context, id int64) (*Event, error)
	InsertEvent(ctx context.Context, event *Event) error
	UpdateEvent(ctx context.Context, event *Event) error
	DeleteEvent(ctx context.Context, id int64) error

	InsertRegistration(ctx context.Context, reg *Registration) error
	ListRegistrations(ctx context.Context, eventID int64, status string) ([]Registration, error)
	GetRegistration(ctx context.Context, id int64) (*Registration, error)
	FindRegistration(ctx context.Context, eventID, userID int64) (*Registration, error)
	UpdateRegistrationStatus(ctx context.Context, id int64, status string) error
}

// Service implements event management and volunteer registration.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService constructs the service.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// EventInput carries the event form payload.
type EventInput struct {
	Title            string
	Description      string
	Date             time.Time
	Location         string
	VolunteersNeeded int
	ImageName        string
}

func (in *EventInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Location = strings.TrimSpace(in.Location)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return shared.NewValidationError("title", "Название мероприятия не может быть пустым")
	}
	if in.Date.IsZero() {
		return shared.NewValidationError("date", "Укажите дату проведения")
	}
	if in.VolunteersNeeded < 1 {
		return shared.NewValidationError("volunteers", "Требуемое число волонтёров должно быть положительным")
	}
	return nil
}

// List returns one page of events ordered by date.
func (s *Service) List(ctx context.Context, pageNum int) ([]Event, shared.Pagination, error) {
	total, err := s.store.CountEvents(ctx)
	if err != nil {
		return nil, shared.Pagination{}, shared.NewPersistenceError("events: count", err)
	}
	page := shared.NewPagination(pageNum, 10, total)
	list, err := s.store.ListEvents(ctx, page)
	if err != nil {
		return nil, shared.Pagination{}, shared.NewPersistenceError("events: list", err)
	}
	return list, page, nil
}

// Get fetches one event.
func (s *Service) Get(ctx context.Context, id int64) (*Event, error) {
	return s.store.GetEvent(ctx, id)
}

// Create stores a new event.
func (s *Service) Create(ctx context.Context, in EventInput) (*Event, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	event := &Event{
		Title:            in.Title,
		Description:      in.Description,
		Date:             in.Date,
		Location:         in.Location,
		VolunteersNeeded: in.VolunteersNeeded,
		ImageName:        in.ImageName,
	}
	if err := s.store.InsertEvent(ctx, event); err != nil {
		return nil, shared.NewPersistenceError("events: insert", err)
	}
	return event, nil
}

// Update rewrites an existing event.
func (s *Service) Update(ctx context.Context, id int64, in EventInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	event := &Event{
		ID:               id,
		Title:            in.Title,
		Description:      in.Description,
		Date:             in.Date,
		Location:         in.Location,
		VolunteersNeeded: in.VolunteersNeeded,
		ImageName:        in.ImageName,
	}
	if err := s.store.UpdateEvent(ctx, event); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return err
		}
		return shared.NewPersistenceError("events: update", err)
	}
	return nil
}

// Delete removes an event together with its registrations.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteEvent(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return err
		}
		return shared.NewPersistenceError("events: delete", err)
	}
	return nil
}

// Register files a pending volunteer application.
func (s *Service) Register(ctx context.Context, eventID, userID int64, contactInfo string) (*Registration, error) {
	contactInfo = strings.TrimSpace(contactInfo)
	if contactInfo == "" {
		return nil, shared.NewValidationError("contact_info", "Укажите контактные данные")
	}
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Date.Before(s.now()) {
		return nil, shared.NewValidationError("event", "Регистрация на прошедшее мероприятие невозможна")
	}
	reg := &Registration{
		EventID:     eventID,
		UserID:      userID,
		ContactInfo: contactInfo,
		Status:      StatusPending,
	}
	if err := s.store.InsertRegistration(ctx, reg); err != nil {
		if errors.Is(err, ErrAlreadyRegistered) {
			return nil, shared.NewValidationError("registration", "Вы уже зарегистрированы на это мероприятие")
		}
		return nil, shared.NewPersistenceError("events: register", err)
	}
	return reg, nil
}

// OwnRegistration returns the caller's application, nil when absent.
func (s *Service) OwnRegistration(ctx context.Context, eventID, userID int64) (*Registration, error) {
	reg, err := s.store.FindRegistration(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return reg, nil
}

// Registrations lists applications for an event, optionally by status.
func (s *Service) Registrations(ctx context.Context, eventID int64, status string) ([]Registration, error) {
	if status != "" && !ValidStatus(status) {
		return nil, shared.NewValidationError("status", "Неизвестный статус заявки")
	}
	return s.store.ListRegistrations(ctx, eventID, status)
}

// Moderate accepts or rejects a volunteer application. Accepting above the
// quota is refused.
func (s *Service) Moderate(ctx context.Context, regID int64, status string) error {
	if status != StatusAccepted && status != StatusRejected {
		return shared.NewValidationError("status", "Неизвестный статус заявки")
	}
	reg, err := s.store.GetRegistration(ctx, regID)
	if err != nil {
		return err
	}
	if status == StatusAccepted {
		event, err := s.store.GetEvent(ctx, reg.EventID)
		if err != nil {
			return err
		}
		if reg.Status != StatusAccepted && event.IsFull() {
			return ErrQuotaReached
		}
	}
	if err := s.store.UpdateRegistrationStatus(ctx, regID, status); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return err
		}
		return shared.NewPersistenceError("events: moderate", err)
	}
	return nil
}
