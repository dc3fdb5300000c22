package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-hub/campus-hub/internal/events"
	"github.com/campus-hub/campus-hub/internal/shared"
)

type mockStore struct {
	events    map[int64]*events.Event
	regs      map[int64]*events.Registration
	nextEvent int64
	nextReg   int64
}

func newMockStore() *mockStore {
	return &mockStore{
		events:    map[int64]*events.Event{},
		regs:      map[int64]*events.Registration{},
		nextEvent: 1,
		nextReg:   1,
	}
}

func (m *mockStore) acceptedCount(eventID int64) int {
	n := 0
	for _, reg := range m.regs {
		if reg.EventID == eventID && reg.Status == events.StatusAccepted {
			n++
		}
	}
	return n
}

func (m *mockStore) ListEvents(_ context.Context, _ shared.Pagination) ([]events.Event, error) {
	var list []events.Event
	for _, e := range m.events {
		copied := *e
		copied.AcceptedCount = m.acceptedCount(e.ID)
		list = append(list, copied)
	}
	return list, nil
}

func (m *mockStore) CountEvents(context.Context) (int, error) { return len(m.events), nil }

func (m *mockStore) GetEvent(_ context.Context, id int64) (*events.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *e
	copied.AcceptedCount = m.acceptedCount(id)
	return &copied, nil
}

func (m *mockStore) InsertEvent(_ context.Context, event *events.Event) error {
	event.ID = m.nextEvent
	m.nextEvent++
	event.CreatedAt = time.Now()
	copied := *event
	m.events[event.ID] = &copied
	return nil
}

func (m *mockStore) UpdateEvent(_ context.Context, event *events.Event) error {
	if _, ok := m.events[event.ID]; !ok {
		return shared.ErrNotFound
	}
	copied := *event
	m.events[event.ID] = &copied
	return nil
}

func (m *mockStore) DeleteEvent(_ context.Context, id int64) error {
	if _, ok := m.events[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.events, id)
	return nil
}

func (m *mockStore) InsertRegistration(_ context.Context, reg *events.Registration) error {
	for _, existing := range m.regs {
		if existing.EventID == reg.EventID && existing.UserID == reg.UserID {
			return events.ErrAlreadyRegistered
		}
	}
	reg.ID = m.nextReg
	m.nextReg++
	reg.CreatedAt = time.Now()
	copied := *reg
	m.regs[reg.ID] = &copied
	return nil
}

func (m *mockStore) ListRegistrations(_ context.Context, eventID int64, status string) ([]events.Registration, error) {
	var list []events.Registration
	for _, reg := range m.regs {
		if reg.EventID == eventID && (status == "" || reg.Status == status) {
			list = append(list, *reg)
		}
	}
	return list, nil
}

func (m *mockStore) GetRegistration(_ context.Context, id int64) (*events.Registration, error) {
	reg, ok := m.regs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *reg
	return &copied, nil
}

func (m *mockStore) FindRegistration(_ context.Context, eventID, userID int64) (*events.Registration, error) {
	for _, reg := range m.regs {
		if reg.EventID == eventID && reg.UserID == userID {
			copied := *reg
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockStore) UpdateRegistrationStatus(_ context.Context, id int64, status string) error {
	reg, ok := m.regs[id]
	if !ok {
		return shared.ErrNotFound
	}
	reg.Status = status
	return nil
}

func futureEvent(t *testing.T, store *mockStore, svc *events.Service, needed int) *events.Event {
	t.Helper()
	event, err := svc.Create(context.Background(), events.EventInput{
		Title:            "День открытых дверей",
		Description:      "Экскурсии по кафедрам.",
		Date:             time.Now().Add(48 * time.Hour),
		Location:         "Главный корпус",
		VolunteersNeeded: needed,
	})
	require.NoError(t, err)
	return event
}

func TestCreateValidatesInput(t *testing.T) {
	svc := events.NewService(newMockStore())

	_, err := svc.Create(context.Background(), events.EventInput{
		Title: "   ", Date: time.Now(), VolunteersNeeded: 3,
	})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))

	_, err = svc.Create(context.Background(), events.EventInput{
		Title: "Субботник", Date: time.Now(), VolunteersNeeded: 0,
	})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestRegisterOncePerEvent(t *testing.T) {
	store := newMockStore()
	svc := events.NewService(store)
	event := futureEvent(t, store, svc, 5)

	reg, err := svc.Register(context.Background(), event.ID, 42, "tel: 123")
	require.NoError(t, err)
	assert.Equal(t, events.StatusPending, reg.Status)

	_, err = svc.Register(context.Background(), event.ID, 42, "tel: 123")
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	assert.Contains(t, err.Error(), "уже зарегистрированы")
}

func TestRegisterPastEvent(t *testing.T) {
	store := newMockStore()
	svc := events.NewService(store)
	event := futureEvent(t, store, svc, 5)
	event.Date = time.Now().Add(-time.Hour)
	require.NoError(t, store.UpdateEvent(context.Background(), event))

	_, err := svc.Register(context.Background(), event.ID, 42, "tel: 123")
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestModerateEnforcesQuota(t *testing.T) {
	store := newMockStore()
	svc := events.NewService(store)
	event := futureEvent(t, store, svc, 1)

	first, err := svc.Register(context.Background(), event.ID, 1, "tel: 1")
	require.NoError(t, err)
	second, err := svc.Register(context.Background(), event.ID, 2, "tel: 2")
	require.NoError(t, err)

	require.NoError(t, svc.Moderate(context.Background(), first.ID, events.StatusAccepted))

	err = svc.Moderate(context.Background(), second.ID, events.StatusAccepted)
	assert.ErrorIs(t, err, events.ErrQuotaReached)

	// Rejection still works when the quota is filled.
	require.NoError(t, svc.Moderate(context.Background(), second.ID, events.StatusRejected))
}

func TestModerateUnknownStatus(t *testing.T) {
	store := newMockStore()
	svc := events.NewService(store)
	event := futureEvent(t, store, svc, 1)
	reg, err := svc.Register(context.Background(), event.ID, 1, "tel: 1")
	require.NoError(t, err)

	err = svc.Moderate(context.Background(), reg.ID, "approved")
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}
