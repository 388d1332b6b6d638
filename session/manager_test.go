package session

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/openclaw/qrform/render"
)

func newTestManager(ttl time.Duration, max int) (*Manager, *time.Time) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewManager(render.NewQREncoder(), render.DefaultOptions(), ttl, max, log)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestCreateGivesFreshState(t *testing.T) {
	m, _ := newTestManager(time.Minute, 0)

	a := m.Create()
	if err := a.Controller.Submit(context.Background(), "hello"); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	b := m.Create()
	if a.ID == b.ID {
		t.Fatal("two sessions share an id")
	}
	if st := b.Controller.State(); st.Ready || st.Error != "" || st.Text != "" {
		t.Fatalf("new session is not fresh: %+v", st)
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
}

func TestGetAndDelete(t *testing.T) {
	m, _ := newTestManager(time.Minute, 0)
	s := m.Create()

	if got, ok := m.Get(s.ID); !ok || got != s {
		t.Fatal("Get() did not return the created session")
	}
	m.Delete(s.ID)
	if _, ok := m.Get(s.ID); ok {
		t.Fatal("session still present after Delete()")
	}
	m.Delete("unknown")
}

func TestSweepExpiresIdleSessions(t *testing.T) {
	m, now := newTestManager(time.Minute, 0)
	idle := m.Create()
	*now = now.Add(45 * time.Second)
	active := m.Create()

	*now = now.Add(30 * time.Second)
	if n := m.Sweep(); n != 1 {
		t.Fatalf("Sweep() = %d, want 1", n)
	}
	if _, ok := m.Get(idle.ID); ok {
		t.Error("idle session survived the sweep")
	}
	if _, ok := m.Get(active.ID); !ok {
		t.Error("active session was swept")
	}
}

func TestSweepDisabledWithZeroTTL(t *testing.T) {
	m, now := newTestManager(0, 0)
	m.Create()
	*now = now.Add(24 * time.Hour)
	if n := m.Sweep(); n != 0 {
		t.Fatalf("Sweep() = %d, want 0", n)
	}
}

func TestCreateEvictsLeastRecentlyUsed(t *testing.T) {
	m, now := newTestManager(time.Hour, 2)
	first := m.Create()
	*now = now.Add(time.Second)
	second := m.Create()
	*now = now.Add(time.Second)
	m.Get(first.ID)
	*now = now.Add(time.Second)
	m.Create()

	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}
	if _, ok := m.Get(second.ID); ok {
		t.Error("least recently used session was not evicted")
	}
	if _, ok := m.Get(first.ID); !ok {
		t.Error("recently used session was evicted")
	}
}

func TestSweeperStopsOnCancel(t *testing.T) {
	m, _ := newTestManager(time.Minute, 0)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		sweepLoop(ctx, m, time.Second, log)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
