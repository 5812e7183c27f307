package system

import (
	"context"
	"errors"
	"testing"
)

type recordingService struct {
	name     string
	startErr error
	stopErr  error
	events   *[]string
}

func (s *recordingService) Name() string { return s.name }

func (s *recordingService) Start(context.Context) error {
	*s.events = append(*s.events, "start "+s.name)
	return s.startErr
}

func (s *recordingService) Stop(context.Context) error {
	*s.events = append(*s.events, "stop "+s.name)
	return s.stopErr
}

func TestManagerStartStopOrder(t *testing.T) {
	var events []string
	m := NewManager()
	for _, name := range []string{"a", "b", "c"} {
		if err := m.Register(&recordingService{name: name, events: &events}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	ctx := context.Background()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	want := []string{"start a", "start b", "start c", "stop c", "stop b", "stop a"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
}

func TestManagerRejectsDuplicateNames(t *testing.T) {
	m := NewManager()
	if err := m.Register(NoopService{ServiceName: "dup"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Register(NoopService{ServiceName: "dup"}); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

func TestManagerRejectsRegistrationAfterStart(t *testing.T) {
	m := NewManager()
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Register(NoopService{ServiceName: "late"}); err == nil {
		t.Fatalf("expected registration after start to fail")
	}
}

func TestManagerRollsBackOnStartFailure(t *testing.T) {
	var events []string
	m := NewManager()
	_ = m.Register(&recordingService{name: "a", events: &events})
	_ = m.Register(&recordingService{name: "b", events: &events, startErr: errors.New("boom")})
	_ = m.Register(&recordingService{name: "c", events: &events})

	if err := m.Start(context.Background()); err == nil {
		t.Fatalf("expected start failure")
	}

	want := []string{"start a", "start b", "stop a"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
}

func TestManagerStopReturnsFirstError(t *testing.T) {
	var events []string
	m := NewManager()
	_ = m.Register(&recordingService{name: "a", events: &events, stopErr: errors.New("a failed")})
	_ = m.Register(&recordingService{name: "b", events: &events, stopErr: errors.New("b failed")})

	ctx := context.Background()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	err := m.Stop(ctx)
	if err == nil || err.Error() != "stop b: b failed" {
		t.Fatalf("stop error = %v, want the first failure in stop order", err)
	}
	// Both services were still asked to stop.
	if events[len(events)-1] != "stop a" {
		t.Fatalf("events = %v", events)
	}
}
