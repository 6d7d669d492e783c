package events_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/citylink/citylink/internal/events"
	"github.com/citylink/citylink/internal/platform/httpx"
	"github.com/citylink/citylink/internal/policy"
)

type regKey struct {
	userID  int64
	eventID int64
}

type stubRepo struct {
	nextID     int64
	byID       map[int64]*events.Event
	businesses map[int64]int64 // business id -> owner id
	regs       map[regKey]bool // -> reserved flag
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		nextID:     1,
		byID:       map[int64]*events.Event{},
		businesses: map[int64]int64{},
		regs:       map[regKey]bool{},
	}
}

func (s *stubRepo) FindByID(_ context.Context, id int64) (*events.Event, error) {
	if e, ok := s.byID[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, httpx.ErrNotFound
}

func (s *stubRepo) List(_ context.Context, limit, offset int) ([]events.Event, error) {
	out := make([]events.Event, 0, len(s.byID))
	for _, e := range s.byID {
		out = append(out, *e)
	}
	return out, nil
}

func (s *stubRepo) BusinessOwner(_ context.Context, businessID int64) (int64, error) {
	if owner, ok := s.businesses[businessID]; ok {
		return owner, nil
	}
	return 0, httpx.ErrNotFound
}

func (s *stubRepo) Create(_ context.Context, in events.NewEvent) (int64, error) {
	e := &events.Event{
		ID:           s.nextID,
		Name:         in.Name,
		Description:  in.Description,
		EventDate:    in.EventDate,
		BusinessID:   in.BusinessID,
		IsReservable: in.IsReservable,
		OwnerID:      s.businesses[in.BusinessID],
	}
	s.nextID++
	s.byID[e.ID] = e
	return e.ID, nil
}

func (s *stubRepo) Update(_ context.Context, id int64, in events.NewEvent) error {
	e, ok := s.byID[id]
	if !ok {
		return httpx.ErrNotFound
	}
	e.Name = in.Name
	e.BusinessID = in.BusinessID
	e.IsReservable = in.IsReservable
	e.OwnerID = s.businesses[in.BusinessID]
	return nil
}

func (s *stubRepo) Delete(_ context.Context, id int64) error {
	if _, ok := s.byID[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *stubRepo) ListRegistrations(_ context.Context, userID int64) ([]events.Registration, error) {
	var out []events.Registration
	for key, reserved := range s.regs {
		if key.userID == userID {
			out = append(out, events.Registration{UserID: key.userID, EventID: key.eventID, Reserved: reserved})
		}
	}
	return out, nil
}

func (s *stubRepo) CreateRegistration(_ context.Context, userID, eventID int64, reserved bool) error {
	key := regKey{userID, eventID}
	if _, ok := s.regs[key]; ok {
		return httpx.ErrDuplicate
	}
	s.regs[key] = reserved
	return nil
}

func (s *stubRepo) UpdateRegistration(_ context.Context, userID, eventID int64, reserved bool) error {
	key := regKey{userID, eventID}
	if _, ok := s.regs[key]; !ok {
		return httpx.ErrNotFound
	}
	s.regs[key] = reserved
	return nil
}

func (s *stubRepo) DeleteRegistration(_ context.Context, userID, eventID int64) error {
	key := regKey{userID, eventID}
	if _, ok := s.regs[key]; !ok {
		return httpx.ErrNotFound
	}
	delete(s.regs, key)
	return nil
}

func (s *stubRepo) OptedInEmails(_ context.Context) ([]string, error) {
	return nil, nil
}

type recordingNotifier struct {
	enqueued []int64
}

func (n *recordingNotifier) EnqueueEventNotify(_ context.Context, eventID int64, _ string) error {
	n.enqueued = append(n.enqueued, eventID)
	return nil
}

var (
	owner    = policy.Identity{ID: 10, Role: policy.RoleBusiness}
	admin    = policy.Identity{ID: 1, Role: policy.RoleAdmin}
	resident = policy.Identity{ID: 20, Role: policy.RoleStandard}
)

func newService() (*events.Service, *stubRepo, *recordingNotifier) {
	repo := newStubRepo()
	repo.businesses[5] = owner.ID
	notifier := &recordingNotifier{}
	logger := slog.New(slog.DiscardHandler)
	return events.NewService(repo, notifier, logger), repo, notifier
}

func newEvent(reservable bool) events.NewEvent {
	return events.NewEvent{
		Name:         "Night market",
		Description:  "Food and music",
		EventDate:    time.Now().Add(48 * time.Hour),
		BusinessID:   5,
		IsReservable: reservable,
	}
}

func TestCreateRequiresBusinessOwnership(t *testing.T) {
	svc, _, notifier := newService()

	_, err := svc.Create(context.Background(), resident, newEvent(true))
	require.ErrorIs(t, err, httpx.ErrForbidden)
	require.Empty(t, notifier.enqueued)

	event, err := svc.Create(context.Background(), owner, newEvent(true))
	require.NoError(t, err)
	require.Equal(t, owner.ID, event.OwnerID)
	require.Equal(t, []int64{event.ID}, notifier.enqueued)

	_, err = svc.Create(context.Background(), admin, newEvent(true))
	require.NoError(t, err)
}

func TestCreateUnknownBusiness(t *testing.T) {
	svc, _, _ := newService()
	in := newEvent(true)
	in.BusinessID = 999
	_, err := svc.Create(context.Background(), owner, in)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateOwnership(t *testing.T) {
	svc, _, _ := newService()
	event, err := svc.Create(context.Background(), owner, newEvent(true))
	require.NoError(t, err)

	in := newEvent(false)
	in.Name = "Renamed"

	_, err = svc.Update(context.Background(), resident, event.ID, in)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	got, err := svc.Update(context.Background(), owner, event.ID, in)
	require.NoError(t, err)
	require.Equal(t, "Renamed", got.Name)

	_, err = svc.Update(context.Background(), owner, 9999, in)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestUpdateMoveToForeignBusiness(t *testing.T) {
	svc, repo, _ := newService()
	repo.businesses[6] = resident.ID

	event, err := svc.Create(context.Background(), owner, newEvent(true))
	require.NoError(t, err)

	in := newEvent(true)
	in.BusinessID = 6
	_, err = svc.Update(context.Background(), owner, event.ID, in)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	// Admins may move events between businesses.
	_, err = svc.Update(context.Background(), admin, event.ID, in)
	require.NoError(t, err)
}

func TestRegistrationLifecycle(t *testing.T) {
	svc, _, _ := newService()
	event, err := svc.Create(context.Background(), owner, newEvent(true))
	require.NoError(t, err)

	require.NoError(t, svc.Register(context.Background(), resident, event.ID, true))

	err = svc.Register(context.Background(), resident, event.ID, true)
	require.ErrorIs(t, err, httpx.ErrDuplicate)

	regs, err := svc.ListRegistrations(context.Background(), resident)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	require.True(t, regs[0].Reserved)

	require.NoError(t, svc.UpdateRegistration(context.Background(), resident, event.ID, false))
	require.NoError(t, svc.DeleteRegistration(context.Background(), resident, event.ID))

	err = svc.DeleteRegistration(context.Background(), resident, event.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestRegisterNotReservable(t *testing.T) {
	svc, _, _ := newService()
	event, err := svc.Create(context.Background(), owner, newEvent(false))
	require.NoError(t, err)

	err = svc.Register(context.Background(), resident, event.ID, true)
	require.ErrorIs(t, err, httpx.ErrValidation)

	err = svc.Register(context.Background(), resident, 9999, true)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
