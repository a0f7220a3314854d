package appointments

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/outreach-ai-platform/internal/crm/zoho"
	"github.com/wolfman30/outreach-ai-platform/internal/leads"
	"github.com/wolfman30/outreach-ai-platform/internal/notify"
)

type fakeCalendar struct {
	mu         sync.Mutex
	configured bool
	created    []zoho.Event
	updated    map[string]zoho.Event
	slots      []string
	slotsErr   error
}

func (f *fakeCalendar) Configured(context.Context) bool { return f.configured }

func (f *fakeCalendar) CreateEvent(_ context.Context, ev zoho.Event) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, ev)
	return "ev-1", nil
}

func (f *fakeCalendar) UpdateEvent(_ context.Context, id string, ev zoho.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updated == nil {
		f.updated = map[string]zoho.Event{}
	}
	f.updated[id] = ev
	return nil
}

func (f *fakeCalendar) FreeSlots(context.Context, string) ([]string, error) {
	return f.slots, f.slotsErr
}

type fakeNotifier struct {
	bookings []notify.Booking
	err      error
}

func (f *fakeNotifier) AppointmentBooked(_ context.Context, b notify.Booking) error {
	f.bookings = append(f.bookings, b)
	return f.err
}

type fixture struct {
	store    *MemoryStore
	leads    *leads.InMemoryRepository
	calendar *fakeCalendar
	notifier *fakeNotifier
	svc      *Service
	lead     *leads.Lead
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    NewMemoryStore(),
		leads:    leads.NewInMemoryRepository(),
		calendar: &fakeCalendar{configured: true},
		notifier: &fakeNotifier{},
	}
	lead, err := f.leads.Create(context.Background(), &leads.CreateLeadRequest{Name: "Reliable Plumbing", Phone: "555-4321"})
	require.NoError(t, err)
	require.NoError(t, f.leads.SetZohoID(context.Background(), lead.ID, "zl-7"))
	f.lead = lead
	f.svc = NewService(f.store, f.leads, nil,
		WithCalendar(f.calendar),
		WithBookingNotifier(f.notifier),
		WithAppointmentLink(func(context.Context) string { return "https://meet.example.com/demo" }),
	)
	return f
}

func TestBookUpdatesLeadSyncsAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.svc.Book(ctx, &CreateRequest{LeadID: f.lead.ID, Date: "2026-05-04", Time: "14:00"})
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, appt.Status)
	assert.Equal(t, MediumPhone, appt.Medium)
	assert.Equal(t, "ev-1", appt.ZohoEventID)

	lead, err := f.leads.GetByID(ctx, f.lead.ID)
	require.NoError(t, err)
	assert.Equal(t, leads.StatusAppointmentSet, lead.Status)
	assert.Equal(t, leads.QualificationQualified, lead.QualificationStatus)
	assert.Equal(t, "2026-05-04", lead.AppointmentDate)
	assert.Equal(t, "14:00", lead.AppointmentTime)

	require.Len(t, f.calendar.created, 1)
	assert.Equal(t, "zl-7", f.calendar.created[0].ZohoLeadID)
	assert.Equal(t, "Reliable Plumbing", f.calendar.created[0].LeadName)

	require.Len(t, f.notifier.bookings, 1)
	assert.Equal(t, "https://meet.example.com/demo", f.notifier.bookings[0].Link)
	assert.Equal(t, "555-4321", f.notifier.bookings[0].LeadPhone)

	stored, err := f.store.GetByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, "ev-1", stored.ZohoEventID)
}

func TestBookValidationAndUnknownLead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Book(ctx, &CreateRequest{LeadID: f.lead.ID, Date: "05/04/2026", Time: "14:00"})
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = f.svc.Book(ctx, &CreateRequest{LeadID: f.lead.ID, Date: "2026-05-04", Time: "2pm"})
	assert.ErrorIs(t, err, ErrInvalidTime)

	_, err = f.svc.Book(ctx, &CreateRequest{LeadID: f.lead.ID, Date: "2026-05-04", Time: "14:00", Medium: "Carrier Pigeon"})
	assert.ErrorIs(t, err, ErrInvalidMedium)

	_, err = f.svc.Book(ctx, &CreateRequest{LeadID: 999, Date: "2026-05-04", Time: "14:00"})
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

type failingLeadUpdates struct {
	*leads.InMemoryRepository
}

func (failingLeadUpdates) Update(context.Context, int64, *leads.UpdateLeadRequest) (*leads.Lead, error) {
	return nil, errors.New("db down")
}

func TestBookRemovesAppointmentWhenLeadUpdateFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewService(f.store, failingLeadUpdates{f.leads}, nil, WithCalendar(f.calendar), WithBookingNotifier(f.notifier))

	_, err := svc.Book(ctx, &CreateRequest{LeadID: f.lead.ID, Date: "2026-05-04", Time: "14:00"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")

	list, err := f.store.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.calendar.created)
	assert.Empty(t, f.notifier.bookings)

	booked, err := f.store.BookedTimes(ctx, "2026-05-04")
	require.NoError(t, err)
	assert.Empty(t, booked)
}

func TestBookSurvivesNotifierFailure(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("smtp down")
	f.calendar.configured = false

	appt, err := f.svc.Book(context.Background(), &CreateRequest{LeadID: f.lead.ID, Date: "2026-05-04", Time: "10:00"})
	require.NoError(t, err)
	assert.Empty(t, appt.ZohoEventID)
	assert.Empty(t, f.calendar.created)
}

func TestReschedulePropagatesToLeadAndCalendar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt, err := f.svc.Book(ctx, &CreateRequest{LeadID: f.lead.ID, Date: "2026-05-04", Time: "14:00"})
	require.NoError(t, err)

	newTime := "15:30"
	updated, err := f.svc.Reschedule(ctx, appt.ID, &UpdateRequest{Time: &newTime})
	require.NoError(t, err)
	assert.Equal(t, "15:30", updated.Time)

	lead, err := f.leads.GetByID(ctx, f.lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "15:30", lead.AppointmentTime)
	assert.Equal(t, "2026-05-04", lead.AppointmentDate)

	ev, ok := f.calendar.updated["ev-1"]
	require.True(t, ok)
	assert.Equal(t, "15:30", ev.Time)

	status := StatusConfirmed
	_, err = f.svc.Reschedule(ctx, appt.ID, &UpdateRequest{Status: &status})
	require.NoError(t, err)
	assert.Len(t, f.calendar.updated, 1)
}

func TestRescheduleErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Reschedule(ctx, 1, &UpdateRequest{})
	assert.ErrorIs(t, err, ErrNoFieldsToUpdate)

	d := "2026-06-01"
	_, err = f.svc.Reschedule(ctx, 42, &UpdateRequest{Date: &d})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.calendar.configured = false

	_, err := f.svc.Book(ctx, &CreateRequest{LeadID: f.lead.ID, Date: "2026-05-04", Time: "09:00"})
	require.NoError(t, err)
	canceled, err := f.svc.Book(ctx, &CreateRequest{LeadID: f.lead.ID, Date: "2026-05-04", Time: "13:30"})
	require.NoError(t, err)
	_, err = f.svc.Book(ctx, &CreateRequest{LeadID: f.lead.ID, Date: "2026-05-04", Time: "11:15"})
	require.NoError(t, err)
	status := StatusCanceled
	_, err = f.svc.Reschedule(ctx, canceled.ID, &UpdateRequest{Status: &status})
	require.NoError(t, err)

	slots, err := f.svc.Availability(ctx, "2026-05-04")
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00", "12:00", "13:00", "14:00", "15:00", "16:00"}, slots)

	all, err := f.svc.Availability(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 8)

	f.calendar.configured = true
	f.calendar.slots = []string{"09:30", "10:00"}
	slots, err = f.svc.Availability(ctx, "2026-05-04")
	require.NoError(t, err)
	assert.Equal(t, []string{"09:30", "10:00"}, slots)

	f.calendar.slots = nil
	f.calendar.slotsErr = errors.New("zoho down")
	slots, err = f.svc.Availability(ctx, "2026-05-04")
	require.NoError(t, err)
	assert.Len(t, slots, 6)

	_, err = f.svc.Availability(ctx, "tomorrow")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestListFillsLeadDetailsAndOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.calendar.configured = false

	_, err := f.svc.Book(ctx, &CreateRequest{LeadID: f.lead.ID, Date: "2026-05-05", Time: "09:00"})
	require.NoError(t, err)
	_, err = f.svc.Book(ctx, &CreateRequest{LeadID: f.lead.ID, Date: "2026-05-04", Time: "15:00"})
	require.NoError(t, err)
	_, err = f.svc.Book(ctx, &CreateRequest{LeadID: f.lead.ID, Date: "2026-05-04", Time: "10:00"})
	require.NoError(t, err)

	list, err := f.svc.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "10:00", list[0].Time)
	assert.Equal(t, "15:00", list[1].Time)
	assert.Equal(t, "2026-05-05", list[2].Date)
	assert.Equal(t, "Reliable Plumbing", list[0].LeadName)
	assert.Equal(t, "555-4321", list[0].LeadPhone)
}

func TestHourlySlots(t *testing.T) {
	assert.Equal(t, []string{"09:00", "11:00", "12:00", "13:00", "14:00", "15:00"},
		HourlySlots([]string{"10:00", "16:45", "bad", "18:00"}))
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	a, err := s.Create(ctx, &CreateRequest{LeadID: 1, Date: "2026-05-04", Time: "09:00"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, a.ID))
	assert.ErrorIs(t, s.Delete(ctx, a.ID), ErrNotFound)
}

func TestMemoryStoreDeleteByLead(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, err := s.Create(ctx, &CreateRequest{LeadID: 1, Date: "2026-05-04", Time: "09:00"})
	require.NoError(t, err)
	_, err = s.Create(ctx, &CreateRequest{LeadID: 2, Date: "2026-05-04", Time: "10:00"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteByLead(ctx, []int64{1}))
	list, err := s.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(2), list[0].LeadID)
}
