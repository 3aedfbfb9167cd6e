package model

import "testing"

func TestIsRegistrationOpen(t *testing.T) {
	ev := &Event{CloseRegistration: 1000, Status: EventStatusActive}

	if !ev.IsRegistrationOpen(999) {
		t.Fatal("expected open before close_registration")
	}
	if ev.IsRegistrationOpen(1000) {
		t.Fatal("expected closed at exactly close_registration")
	}
	if ev.IsRegistrationOpen(1001) {
		t.Fatal("expected closed after close_registration")
	}
}

func TestIsRegistrationOpenArchived(t *testing.T) {
	// 归档永久关闭报名，即使截止时间还没到
	ev := &Event{CloseRegistration: 10_000, Status: EventStatusArchived}
	if ev.IsRegistrationOpen(1) {
		t.Fatal("archived event must never accept registrations")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		ev   Event
		now  int64
		want string
	}{
		{"open before deadline", Event{CloseRegistration: 1000}, 500, EventFilterOpen},
		{"archive after deadline", Event{CloseRegistration: 1000}, 2000, EventFilterArchive},
		{"archived flag wins", Event{CloseRegistration: 9000, Status: EventStatusArchived}, 500, EventFilterArchive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.ev.Classify(tc.now); got != tc.want {
				t.Fatalf("Classify() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNumberAttending(t *testing.T) {
	ev := &Event{AttendeeCount: 3}
	if got := ev.NumberAttending(); got != 4 {
		t.Fatalf("NumberAttending() = %d, want 4 (creator holds a seat)", got)
	}
}

func TestIsFull(t *testing.T) {
	cases := []struct {
		name  string
		count int64
		max   int
		full  bool
	}{
		{"capacity one is full from the start", 0, 1, true},
		{"one seat left", 0, 2, false},
		{"last seat taken", 1, 2, true},
		{"room remains", 3, 10, false},
		{"at max minus one ledger rows", 9, 10, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev := &Event{AttendeeCount: tc.count, MaxAttendees: tc.max}
			if got := ev.IsFull(); got != tc.full {
				t.Fatalf("IsFull() = %v, want %v", got, tc.full)
			}
		})
	}
}
