package memstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/haivivi/echomemo/pkg/kv"
	"github.com/haivivi/echomemo/pkg/memstore"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestStore(t *testing.T) (*memstore.Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	s := memstore.New(kv.NewMemory(nil), memstore.WithClock(clock.Now), memstore.WithLocation(time.UTC))
	t.Cleanup(func() { s.Close() })
	return s, clock
}

func mustAdd(t *testing.T, s *memstore.Store, content, mode string, tags ...string) uint64 {
	t.Helper()
	id, err := s.Add(context.Background(), content, mode, tags...)
	if err != nil {
		t.Fatalf("Add(%q): %v", content, err)
	}
	return id
}

func contents(entries []memstore.Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Content)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAddGet(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore(t)

	id1 := mustAdd(t, s, "walked the dog", memstore.ModeDaily)
	id2 := mustAdd(t, s, "User: hello", memstore.ModeChat, "greeting")
	if id1 != 1 || id2 != 2 {
		t.Fatalf("ids = %d, %d", id1, id2)
	}

	e, err := s.Get(ctx, id2)
	if err != nil {
		t.Fatal(err)
	}
	if e.Content != "User: hello" || e.Mode != memstore.ModeChat || len(e.Tags) != 1 {
		t.Errorf("entry = %+v", e)
	}
	if !e.Time().Equal(clock.t) {
		t.Errorf("time = %v", e.Time())
	}

	if _, err := s.Get(ctx, 99); !errors.Is(err, memstore.ErrNotFound) {
		t.Errorf("Get missing err = %v", err)
	}
	if _, err := s.Add(ctx, "   ", memstore.ModeDaily); err == nil {
		t.Error("expected error for empty content")
	}
}

func TestSequenceSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory(nil)
	s := memstore.New(store)
	s.Add(ctx, "one", memstore.ModeDaily)
	s.Add(ctx, "two", memstore.ModeDaily)

	s = memstore.New(store)
	id, err := s.Add(ctx, "three", memstore.ModeDaily)
	if err != nil || id != 3 {
		t.Fatalf("id=%d err=%v", id, err)
	}
}

func TestListAndRecent(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore(t)

	for i, c := range []string{"a", "b", "c", "d"} {
		clock.t = time.Date(2024, 5, 1+i*3, 10, 0, 0, 0, time.UTC)
		mustAdd(t, s, c, memstore.ModeDaily)
	}
	// now = May 10
	got, _ := s.List(ctx, 0)
	if !equal(contents(got), []string{"d", "c", "b", "a"}) {
		t.Errorf("List = %v", contents(got))
	}
	got, _ = s.List(ctx, 2)
	if !equal(contents(got), []string{"d", "c"}) {
		t.Errorf("List(2) = %v", contents(got))
	}

	clock.t = time.Date(2024, 5, 11, 12, 0, 0, 0, time.UTC)
	got, _ = s.Recent(ctx, 7*24*time.Hour, 5)
	if !equal(contents(got), []string{"d", "c"}) {
		t.Errorf("Recent = %v", contents(got))
	}
	got, _ = s.Recent(ctx, 7*24*time.Hour, 1)
	if !equal(contents(got), []string{"d"}) {
		t.Errorf("Recent limit = %v", contents(got))
	}
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	mustAdd(t, s, "Went hiking with Anna", memstore.ModeDaily)
	mustAdd(t, s, "cooked dinner", memstore.ModeDaily, "anna")
	mustAdd(t, s, "read a book", memstore.ModeDaily)
	mustAdd(t, s, "anna called", memstore.ModeChat)

	tests := []struct {
		keyword string
		limit   int
		want    []string
	}{
		{"anna", 3, []string{"anna called", "cooked dinner", "Went hiking with Anna"}},
		{"ANNA", 2, []string{"anna called", "cooked dinner"}},
		{"book", 3, []string{"read a book"}},
		{"piano", 3, nil},
		{"  ", 3, nil},
	}
	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			got, err := s.Search(ctx, tt.keyword, tt.limit)
			if err != nil {
				t.Fatal(err)
			}
			if !equal(contents(got), tt.want) {
				t.Errorf("got %v, want %v", contents(got), tt.want)
			}
		})
	}
}

func TestByDateAndDates(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore(t)
	add := func(day, hour int, c string) {
		clock.t = time.Date(2024, 5, day, hour, 0, 0, 0, time.UTC)
		mustAdd(t, s, c, memstore.ModeDaily)
	}
	add(1, 8, "first")
	add(2, 8, "morning")
	add(2, 20, "evening")
	add(3, 9, "latest")

	got, err := s.ByDate(ctx, time.Date(2024, 5, 2, 15, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if !equal(contents(got), []string{"evening", "morning"}) {
		t.Errorf("ByDate = %v", contents(got))
	}
	if got, _ := s.ByDate(ctx, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)); len(got) != 0 {
		t.Errorf("ByDate empty day = %v", contents(got))
	}

	days, err := s.Dates(ctx, 100)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"2024-05-03", "2024-05-02", "2024-05-01"}
	if len(days) != len(want) {
		t.Fatalf("Dates = %v", days)
	}
	for i, d := range days {
		if d.Format(time.DateOnly) != want[i] {
			t.Errorf("Dates[%d] = %v, want %s", i, d, want[i])
		}
	}

	days, _ = s.Dates(ctx, 2)
	if len(days) != 2 || days[1].Format(time.DateOnly) != "2024-05-02" {
		t.Errorf("Dates(2) = %v", days)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	id := mustAdd(t, s, "to forget", memstore.ModeDaily)
	mustAdd(t, s, "to keep", memstore.ModeDaily)

	if err := s.Delete(ctx, id); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	got, _ := s.ByDate(ctx, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	if !equal(contents(got), []string{"to keep"}) {
		t.Errorf("ByDate after delete = %v", contents(got))
	}
	if next := mustAdd(t, s, "new", memstore.ModeDaily); next != 3 {
		t.Errorf("ids must not be reused, got %d", next)
	}
}

func TestBadgerBackend(t *testing.T) {
	ctx := context.Background()
	store, err := kv.NewBadger(kv.BadgerOptions{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	s := memstore.New(store, memstore.WithLocation(time.UTC))
	defer s.Close()
	mustAdd(t, s, "one", memstore.ModeDaily)
	mustAdd(t, s, "two", memstore.ModeChat)
	got, err := s.List(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !equal(contents(got), []string{"two", "one"}) {
		t.Errorf("List = %v", contents(got))
	}
	got, _ = s.ByDate(ctx, time.Now())
	if len(got) != 2 {
		t.Errorf("ByDate today = %v", contents(got))
	}
}
