package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type memMirror struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemMirror() *memMirror {
	return &memMirror{data: make(map[string][]byte)}
}

func (m *memMirror) Save(_ context.Context, id string, data []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = append([]byte(nil), data...)
	return nil
}

func (m *memMirror) Load(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return data, nil
}

func (m *memMirror) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestSessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	m := NewManager(Options{TTL: time.Hour, CategoryCount: 12})

	a, err := m.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if a.ID == b.ID {
		t.Fatal("session ids collide")
	}
	if err := a.Store.SetSite(map[string]string{"name": "A 사업장"}); err != nil {
		t.Fatal(err)
	}
	if got := b.Store.Site().Name; got != "" {
		t.Errorf("session b sees session a's edit: %q", got)
	}

	got, err := m.Get(ctx, a.ID)
	if err != nil || got != a {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if m.Len() != 2 {
		t.Errorf("Len = %d", m.Len())
	}
}

func TestSweepExpiresIdleSessions(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	var counts []int
	m := NewManager(Options{TTL: time.Hour, CategoryCount: 12, OnCount: func(n int) { counts = append(counts, n) }})
	m.now = c.now

	idle, _ := m.Create(ctx)
	busy, _ := m.Create(ctx)

	c.advance(50 * time.Minute)
	if _, err := m.Get(ctx, busy.ID); err != nil {
		t.Fatal(err)
	}
	c.advance(20 * time.Minute)

	if removed := m.Sweep(); removed != 1 {
		t.Fatalf("Sweep removed %d, want 1", removed)
	}
	if _, err := m.Get(ctx, idle.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("idle session err = %v", err)
	}
	if _, err := m.Get(ctx, busy.ID); err != nil {
		t.Errorf("busy session err = %v", err)
	}
	if last := counts[len(counts)-1]; last != 1 {
		t.Errorf("reported count = %d, want 1", last)
	}
}

func TestGetExpiredWithoutSweep(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Now()}
	m := NewManager(Options{TTL: time.Minute, CategoryCount: 12})
	m.now = c.now

	sess, _ := m.Create(ctx)
	c.advance(2 * time.Minute)
	if _, err := m.Get(ctx, sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d", m.Len())
	}
}

func TestRestoreFromMirror(t *testing.T) {
	ctx := context.Background()
	mirror := newMemMirror()
	first := NewManager(Options{TTL: time.Hour, CategoryCount: 11, Mirror: mirror})

	sess, _ := first.Create(ctx)
	if err := sess.Store.SetSite(map[string]string{"name": "한빛정밀"}); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.Store.AddTask("조립"); err != nil {
		t.Fatal(err)
	}
	if err := first.Persist(ctx, sess); err != nil {
		t.Fatal(err)
	}

	// A fresh process only has the mirror.
	second := NewManager(Options{TTL: time.Hour, CategoryCount: 12, Mirror: mirror})
	restored, err := second.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if restored.Store.Site().Name != "한빛정밀" || len(restored.Store.Tasks()) != 1 {
		t.Errorf("restored state = %+v / %v", restored.Store.Site(), restored.Store.Tasks())
	}
	if restored.Store.CategoryCount() != 11 {
		t.Errorf("category count = %d, want the saved 11", restored.Store.CategoryCount())
	}

	if err := second.Delete(ctx, sess.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := second.Get(ctx, sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("after delete err = %v", err)
	}
}

func TestMalformedMirrorEntry(t *testing.T) {
	mirror := newMemMirror()
	mirror.data["broken"] = []byte(`{"schema_version": 1`)
	m := NewManager(Options{TTL: time.Hour, CategoryCount: 12, Mirror: mirror})
	if _, err := m.Get(context.Background(), "broken"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestDeleteUnknownWithoutMirror(t *testing.T) {
	m := NewManager(Options{CategoryCount: 12})
	if err := m.Delete(context.Background(), "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v", err)
	}
	if m.TTL() != 12*time.Hour {
		t.Errorf("default TTL = %v", m.TTL())
	}
}
