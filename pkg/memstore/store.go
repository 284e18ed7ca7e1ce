package memstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/echomemo/pkg/kv"
)

// Store is the memory store. Reads may run concurrently; writes are
// serialized so ID assignment stays gap-free.
type Store struct {
	kv  kv.Store
	now func() time.Time
	loc *time.Location

	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for new entries.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLocation sets the zone that defines calendar days. Defaults to
// time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) { s.loc = loc }
}

// New creates a Store over store.
func New(store kv.Store, opts ...Option) *Store {
	s := &Store{kv: store, now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the underlying kv store.
func (s *Store) Close() error {
	return s.kv.Close()
}

// Add appends a new entry and returns its ID.
func (s *Store) Add(ctx context.Context, content, mode string, tags ...string) (uint64, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return 0, errors.New("memstore: empty content")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	last, err := s.lastID(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now().In(s.loc)
	e := Entry{
		ID:        last + 1,
		Content:   content,
		Mode:      mode,
		Tags:      tags,
		Timestamp: now.UnixNano(),
	}
	data, err := msgpack.Marshal(&e)
	if err != nil {
		return 0, fmt.Errorf("memstore: encode entry: %w", err)
	}
	err = s.kv.BatchSet(ctx, []kv.Entry{
		{Key: entryKey(e.ID), Value: data},
		{Key: dayKey(now, e.ID), Value: nil},
		{Key: seqKey(), Value: []byte(strconv.FormatUint(e.ID, 10))},
	})
	if err != nil {
		return 0, fmt.Errorf("memstore: add entry: %w", err)
	}
	return e.ID, nil
}

func (s *Store) lastID(ctx context.Context) (uint64, error) {
	b, err := s.kv.Get(ctx, seqKey())
	if errors.Is(err, kv.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("memstore: read sequence: %w", err)
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("memstore: corrupt sequence %q: %w", b, err)
	}
	return id, nil
}

// Get returns the entry with the given ID.
func (s *Store) Get(ctx context.Context, id uint64) (Entry, error) {
	b, err := s.kv.Get(ctx, entryKey(id))
	if errors.Is(err, kv.ErrNotFound) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("memstore: get %d: %w", id, err)
	}
	return decode(b)
}

// Delete removes an entry and its day index. Missing entries are not an
// error.
func (s *Store) Delete(ctx context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.kv.BatchDelete(ctx, []kv.Key{
		entryKey(id),
		dayKey(e.Time().In(s.loc), id),
	})
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	return s.scan(ctx, limit, func(Entry) (keep, more bool) { return true, true })
}

// Recent returns up to limit entries created within window of now, newest
// first.
func (s *Store) Recent(ctx context.Context, window time.Duration, limit int) ([]Entry, error) {
	since := s.now().Add(-window).UnixNano()
	return s.scan(ctx, limit, func(e Entry) (keep, more bool) {
		if e.Timestamp < since {
			return false, false
		}
		return true, true
	})
}

// Search returns up to limit entries whose content or tags contain keyword,
// ignoring case, newest first.
func (s *Store) Search(ctx context.Context, keyword string, limit int) ([]Entry, error) {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return nil, nil
	}
	return s.scan(ctx, limit, func(e Entry) (keep, more bool) {
		if strings.Contains(strings.ToLower(e.Content), kw) {
			return true, true
		}
		for _, tag := range e.Tags {
			if strings.Contains(strings.ToLower(tag), kw) {
				return true, true
			}
		}
		return false, true
	})
}

// ByDate returns the entries created on day's calendar date, newest first.
func (s *Store) ByDate(ctx context.Context, day time.Time) ([]Entry, error) {
	var out []Entry
	for item, err := range s.kv.List(ctx, dayPrefix(day.In(s.loc)), kv.ListOptions{Reverse: true, KeysOnly: true}) {
		if err != nil {
			return nil, fmt.Errorf("memstore: list day: %w", err)
		}
		id, err := parseID(item.Key[len(item.Key)-1])
		if err != nil {
			continue
		}
		e, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Dates returns the distinct calendar dates among the newest limit entries,
// most recent first.
func (s *Store) Dates(ctx context.Context, limit int) ([]time.Time, error) {
	entries, err := s.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	var days []time.Time
	for _, e := range entries {
		d := Day(e.Time().In(s.loc))
		if !slices.ContainsFunc(days, d.Equal) {
			days = append(days, d)
		}
	}
	slices.SortFunc(days, func(a, b time.Time) int { return b.Compare(a) })
	return days, nil
}

// scan walks entries newest first. match decides whether to keep an entry
// and whether to continue.
func (s *Store) scan(ctx context.Context, limit int, match func(Entry) (keep, more bool)) ([]Entry, error) {
	var out []Entry
	for item, err := range s.kv.List(ctx, entryPrefix(), kv.ListOptions{Reverse: true}) {
		if err != nil {
			return nil, fmt.Errorf("memstore: scan: %w", err)
		}
		e, err := decode(item.Value)
		if err != nil {
			return nil, err
		}
		keep, more := match(e)
		if keep {
			out = append(out, e)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		if !more {
			break
		}
	}
	return out, nil
}

func decode(b []byte) (Entry, error) {
	var e Entry
	if err := msgpack.Unmarshal(b, &e); err != nil {
		return Entry{}, fmt.Errorf("memstore: decode entry: %w", err)
	}
	return e, nil
}
