package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kadewerk/tally/tally-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// State tracks where a cache entry is in its load lifecycle.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// FetchFunc loads the payload for one year from the backing provider.
type FetchFunc[T any] func(ctx context.Context, year int) (T, error)

// EntryInfo is a point-in-time description of one cache entry.
type EntryInfo struct {
	Year       int       `json:"year"`
	State      State     `json:"state"`
	HasPayload bool      `json:"hasPayload"`
	FetchedAt  time.Time `json:"fetchedAt"`
}

// flight is one in-flight fetch. Waiters may read payload and err only
// after done is closed.
type flight[T any] struct {
	done    chan struct{}
	payload T
	err     error
}

type entry[T any] struct {
	state      State
	payload    T
	hasPayload bool
	fetchedAt  time.Time
	lastErr    error
	gen        uint64
	flight     *flight[T]
}

// Store caches one dataset kind keyed by calendar year. All state lives
// behind a single mutex; fetches run outside it.
type Store[T any] struct {
	mu      sync.Mutex
	kind    domain.DataKind
	fetch   FetchFunc[T]
	entries map[int]*entry[T]
}

func NewStore[T any](kind domain.DataKind, fetch FetchFunc[T]) *Store[T] {
	return &Store[T]{
		kind:    kind,
		fetch:   fetch,
		entries: make(map[int]*entry[T]),
	}
}

func (s *Store[T]) Kind() domain.DataKind {
	return s.kind
}

// Get returns the payload for year, fetching it first when the entry is
// idle, failed, or force is set. Concurrent callers share one fetch per
// year: whoever arrives while a fetch is in flight waits for that result
// instead of starting another. Cancelling ctx releases the waiting caller
// only; the fetch itself keeps running so the remaining waiters and the
// store still receive its outcome.
func (s *Store[T]) Get(ctx context.Context, year int, force bool) (T, error) {
	s.mu.Lock()
	e := s.ensure(year)

	if e.flight != nil {
		fl := e.flight
		s.mu.Unlock()
		return await(ctx, fl)
	}

	if e.state == StateReady && !force {
		payload := e.payload
		s.mu.Unlock()
		return payload, nil
	}

	fl := &flight[T]{done: make(chan struct{})}
	e.flight = fl
	e.state = StateLoading
	gen := e.gen
	s.mu.Unlock()

	log.Debug().
		Str("kind", string(s.kind)).
		Int("year", year).
		Bool("forced", force).
		Msg("cache fetch started")

	go s.run(context.WithoutCancel(ctx), year, gen, fl)

	return await(ctx, fl)
}

func (s *Store[T]) run(ctx context.Context, year int, gen uint64, fl *flight[T]) {
	payload, err := s.fetch(ctx, year)
	fl.payload, fl.err = payload, err

	s.mu.Lock()
	e := s.entries[year]
	if e != nil && e.flight == fl {
		e.flight = nil
	}
	switch {
	case e == nil || e.gen != gen:
		// Invalidated while in flight. Waiters still receive the result,
		// the store does not keep it.
		log.Debug().
			Str("kind", string(s.kind)).
			Int("year", year).
			Msg("cache fetch result discarded after invalidation")
	case err != nil:
		e.state = StateFailed
		e.lastErr = err
		log.Error().
			Err(err).
			Str("kind", string(s.kind)).
			Int("year", year).
			Msg("cache fetch failed")
	default:
		e.state = StateReady
		e.payload = payload
		e.hasPayload = true
		e.fetchedAt = time.Now()
		e.lastErr = nil
	}
	s.mu.Unlock()

	close(fl.done)
}

func await[T any](ctx context.Context, fl *flight[T]) (T, error) {
	select {
	case <-fl.done:
		return fl.payload, fl.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Invalidate clears the entry for one year back to idle and drops its
// payload. A fetch already in flight keeps running, but its result will
// not be stored. No new fetch is started; the next Get loads fresh data.
func (s *Store[T]) Invalidate(year int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[year]
	if !ok {
		return
	}
	s.reset(e)
	log.Debug().
		Str("kind", string(s.kind)).
		Int("year", year).
		Msg("cache entry invalidated")
}

// InvalidateAll clears every cached year.
func (s *Store[T]) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		s.reset(e)
	}
	log.Debug().Str("kind", string(s.kind)).Msg("cache cleared")
}

// State reports the lifecycle state for one year, idle when the year has
// never been touched.
func (s *Store[T]) State(year int) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[year]; ok {
		return e.state
	}
	return StateIdle
}

// Cached returns the last stored payload without triggering a fetch. The
// payload survives a failed refresh, so callers can keep serving stale data
// alongside the error.
func (s *Store[T]) Cached(year int) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[year]; ok && e.hasPayload {
		return e.payload, true
	}
	var zero T
	return zero, false
}

// LastError returns the error of the most recent failed fetch, nil once a
// fetch succeeds or the entry is invalidated.
func (s *Store[T]) LastError(year int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[year]; ok {
		return e.lastErr
	}
	return nil
}

// Snapshot lists every entry ordered by year.
func (s *Store[T]) Snapshot() []EntryInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]EntryInfo, 0, len(s.entries))
	for year, e := range s.entries {
		infos = append(infos, EntryInfo{
			Year:       year,
			State:      e.state,
			HasPayload: e.hasPayload,
			FetchedAt:  e.fetchedAt,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Year < infos[j].Year })
	return infos
}

func (s *Store[T]) ensure(year int) *entry[T] {
	e, ok := s.entries[year]
	if !ok {
		e = &entry[T]{state: StateIdle}
		s.entries[year] = e
	}
	return e
}

func (s *Store[T]) reset(e *entry[T]) {
	var zero T
	e.gen++
	e.state = StateIdle
	e.payload = zero
	e.hasPayload = false
	e.fetchedAt = time.Time{}
	e.lastErr = nil
}
