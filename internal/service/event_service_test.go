package service

import (
	"context"
	"errors"
	"testing"

	"Lee_Events/internal/model"
	"Lee_Events/internal/repository/mysql"
)

type fakeEventStore struct {
	events       map[uint64]*model.Event
	users        map[uint64]*model.User
	questions    map[uint64][]model.Question
	nextID       uint64
	archiveCalls int
	lastUpdate   map[string]any
	lastSearch   mysql.SearchFilter
	searchResult []model.Event
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{
		events:    map[uint64]*model.Event{},
		users:     map[uint64]*model.User{},
		questions: map[uint64][]model.Question{},
		nextID:    1,
	}
}

func (f *fakeEventStore) Create(e *model.Event, categories []string) error {
	e.ID = f.nextID
	f.nextID++
	for _, name := range categories {
		e.Categories = append(e.Categories, model.Category{Name: name})
	}
	f.events[e.ID] = e
	return nil
}

func (f *fakeEventStore) FindByID(id uint64) (*model.Event, error) {
	ev, ok := f.events[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *ev
	return &cp, nil
}

func (f *fakeEventStore) FindByIDWithCategories(id uint64) (*model.Event, error) {
	return f.FindByID(id)
}

func (f *fakeEventStore) UpdateFields(id uint64, fields map[string]any) error {
	f.lastUpdate = fields
	return nil
}

func (f *fakeEventStore) Archive(id uint64) error {
	f.archiveCalls++
	ev, ok := f.events[id]
	if !ok {
		return model.ErrNotFound
	}
	ev.Status = model.EventStatusArchived
	return nil
}

func (f *fakeEventStore) Questions(eventID uint64) ([]model.Question, error) {
	return f.questions[eventID], nil
}

func (f *fakeEventStore) Search(filter mysql.SearchFilter) ([]model.Event, error) {
	f.lastSearch = filter
	return f.searchResult, nil
}

func (f *fakeEventStore) FindUserByID(id uint64) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return u, nil
}

type fakeUserFinder struct{ store *fakeEventStore }

func (f *fakeUserFinder) FindByID(id uint64) (*model.User, error) {
	return f.store.FindUserByID(id)
}

func newTestEventService(store *fakeEventStore, now int64) *EventService {
	return &EventService{
		repo:   store,
		users:  &fakeUserFinder{store: store},
		ledger: newFakeLedger(store.events),
		now:    func() int64 { return now },
	}
}

func validCreateInput() CreateEventInput {
	return CreateEventInput{
		Name:              "Go Meetup",
		Description:       "talks and pizza",
		Location:          "Berlin",
		StartTime:         20_000,
		CloseRegistration: 10_000,
		MaxAttendees:      50,
		Categories:        []string{"tech", "networking"},
	}
}

func TestCreateEvent(t *testing.T) {
	store := newFakeEventStore()
	svc := newTestEventService(store, 5_000)

	ev, err := svc.CreateEvent(100, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ev.ID == 0 || ev.CreatorID != 100 {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Status != model.EventStatusActive {
		t.Fatal("new event must start active")
	}
	if len(ev.Categories) != 2 {
		t.Fatalf("categories = %d, want 2", len(ev.Categories))
	}
}

func TestCreateEventValidation(t *testing.T) {
	store := newFakeEventStore()
	svc := newTestEventService(store, 5_000)

	cases := []struct {
		name   string
		mutate func(*CreateEventInput)
	}{
		{"blank name", func(in *CreateEventInput) { in.Name = "   " }},
		{"zero capacity", func(in *CreateEventInput) { in.MaxAttendees = 0 }},
		{"negative capacity", func(in *CreateEventInput) { in.MaxAttendees = -3 }},
		{"missing start", func(in *CreateEventInput) { in.StartTime = 0 }},
		{"close after start", func(in *CreateEventInput) { in.CloseRegistration = in.StartTime + 1 }},
		{"close equals start", func(in *CreateEventInput) { in.CloseRegistration = in.StartTime }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validCreateInput()
			tc.mutate(&in)
			if _, err := svc.CreateEvent(100, in); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestUpdateEventPartial(t *testing.T) {
	store := newFakeEventStore()
	svc := newTestEventService(store, 5_000)
	ev, _ := svc.CreateEvent(100, validCreateInput())

	name := "Go Meetup v2"
	max := 80
	updated, err := svc.UpdateEvent(ev.ID, 100, UpdateEventInput{Name: &name, MaxAttendees: &max})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != name || updated.MaxAttendees != max {
		t.Fatalf("merge failed: %+v", updated)
	}
	// 未提供的字段不应出现在落库的字段表里
	if _, ok := store.lastUpdate["location"]; ok {
		t.Fatal("untouched field must not be written")
	}
	if store.lastUpdate["name"] != name {
		t.Fatalf("update fields = %v", store.lastUpdate)
	}
}

func TestUpdateEventForbidden(t *testing.T) {
	store := newFakeEventStore()
	svc := newTestEventService(store, 5_000)
	ev, _ := svc.CreateEvent(100, validCreateInput())

	name := "hijacked"
	if _, err := svc.UpdateEvent(ev.ID, 999, UpdateEventInput{Name: &name}); !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestUpdateEventWindowRevalidated(t *testing.T) {
	store := newFakeEventStore()
	svc := newTestEventService(store, 5_000)
	ev, _ := svc.CreateEvent(100, validCreateInput())

	// 只改 start，把它挪到现有截止时间之前，合并后的时间窗非法
	start := int64(9_000)
	if _, err := svc.UpdateEvent(ev.ID, 100, UpdateEventInput{StartTime: &start}); err == nil {
		t.Fatal("expected merged window validation to fail")
	}
}

func TestArchiveEventIdempotent(t *testing.T) {
	store := newFakeEventStore()
	svc := newTestEventService(store, 5_000)
	ev, _ := svc.CreateEvent(100, validCreateInput())

	if err := svc.ArchiveEvent(ev.ID, 100); err != nil {
		t.Fatalf("first archive: %v", err)
	}
	if store.events[ev.ID].Status != model.EventStatusArchived {
		t.Fatal("event not archived")
	}
	// 再归档一次仍然成功
	if err := svc.ArchiveEvent(ev.ID, 100); err != nil {
		t.Fatalf("second archive must succeed: %v", err)
	}
}

func TestArchiveEventForbidden(t *testing.T) {
	store := newFakeEventStore()
	svc := newTestEventService(store, 5_000)
	ev, _ := svc.CreateEvent(100, validCreateInput())

	if err := svc.ArchiveEvent(ev.ID, 999); !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if err := svc.ArchiveEvent(12345, 100); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSearchStatusValidation(t *testing.T) {
	store := newFakeEventStore()
	svc := newTestEventService(store, 5_000)

	if _, _, err := svc.Search(SearchParams{Status: "WHATEVER"}, 100); err == nil {
		t.Fatal("expected invalid status to be rejected")
	}
	// 归属类过滤必须登录
	for _, status := range []string{model.EventFilterMyEvents, model.EventFilterAttending} {
		if _, _, err := svc.Search(SearchParams{Status: status}, 0); !errors.Is(err, model.ErrUnauthorized) {
			t.Fatalf("status %s without actor: err = %v, want ErrUnauthorized", status, err)
		}
	}
	// OPEN/ARCHIVE 匿名可查
	if _, _, err := svc.Search(SearchParams{Status: model.EventFilterOpen}, 0); err != nil {
		t.Fatalf("anonymous OPEN search: %v", err)
	}
}

func TestSearchLimitClamping(t *testing.T) {
	store := newFakeEventStore()
	svc := newTestEventService(store, 5_000)

	cases := []struct {
		in, want int
	}{
		{0, SearchLimitDefault},
		{-5, SearchLimitDefault},
		{7, 7},
		{100, 100},
		{500, SearchLimitMax},
	}
	for _, tc := range cases {
		_, p, err := svc.Search(SearchParams{Status: model.EventFilterOpen, Limit: tc.in, Offset: -1}, 0)
		if err != nil {
			t.Fatalf("search limit=%d: %v", tc.in, err)
		}
		if p.Limit != tc.want {
			t.Fatalf("limit %d clamped to %d, want %d", tc.in, p.Limit, tc.want)
		}
		if p.Offset != 0 {
			t.Fatalf("negative offset must clamp to 0, got %d", p.Offset)
		}
		if store.lastSearch.Limit != tc.want {
			t.Fatalf("repo saw limit %d, want %d", store.lastSearch.Limit, tc.want)
		}
	}
}

func TestGetEventDetail(t *testing.T) {
	store := newFakeEventStore()
	store.users[100] = &model.User{ID: 100, FirstName: "Ada", Email: "ada@example.com"}
	svc := newTestEventService(store, 5_000)
	ev, _ := svc.CreateEvent(100, validCreateInput())
	store.events[ev.ID].AttendeeCount = 2
	store.questions[ev.ID] = []model.Question{{ID: 7, EventID: ev.ID, Question: "is there parking nearby?"}}

	detail, err := svc.GetEvent(context.Background(), ev.ID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if detail.Creator == nil || detail.Creator.ID != 100 {
		t.Fatal("expected creator embedded in detail")
	}
	if detail.NumberAttending != 3 {
		t.Fatalf("number_attending = %d, want 3 (2 rows + creator)", detail.NumberAttending)
	}
	if len(detail.Questions) != 1 {
		t.Fatalf("questions = %d, want 1", len(detail.Questions))
	}

	if _, err := svc.GetEvent(context.Background(), 424242); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
