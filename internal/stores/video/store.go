package video

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrNotFound is returned by update operations when no session exists for
// the given video ID
var ErrNotFound = errors.New("session not found")

// Default expiry windows for cached sessions
const (
	DefaultAbsoluteTTL = 24 * time.Hour
	DefaultSlidingTTL  = 4 * time.Hour
)

// entry wraps a stored session with its expiry bookkeeping
type entry struct {
	session    *Session
	createdAt  time.Time
	lastAccess time.Time
}

// Store is an in-memory, expiring cache of video sessions. Reads and writes
// on different video IDs never block each other; updates to the same video ID
// are serialized through a per-key mutex so read-modify-write sequences are
// never lost. Sessions expire when either the absolute TTL since creation or
// the sliding TTL since last access elapses, whichever comes first
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	// Per-key update locks, created on demand and removed on eviction
	lockMu sync.Mutex
	locks  map[string]*sync.Mutex

	absoluteTTL time.Duration
	slidingTTL  time.Duration

	cron *cron.Cron

	// now is replaceable in tests
	now func() time.Time
}

// NewStore creates a session store with the given expiry windows.
// Non-positive durations fall back to the defaults
func NewStore(absoluteTTL, slidingTTL time.Duration) *Store {
	if absoluteTTL <= 0 {
		absoluteTTL = DefaultAbsoluteTTL
	}
	if slidingTTL <= 0 {
		slidingTTL = DefaultSlidingTTL
	}

	return &Store{
		sessions:    make(map[string]*entry),
		locks:       make(map[string]*sync.Mutex),
		absoluteTTL: absoluteTTL,
		slidingTTL:  slidingTTL,
		now:         time.Now,
	}
}

// Get retrieves a session copy by video ID. A hit refreshes the sliding
// expiry window; a miss or an expired entry returns (nil, false)
func (s *Store) Get(videoID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.liveEntry(videoID)
	if !ok {
		return nil, false
	}

	e.lastAccess = s.now()
	return e.session.clone(), true
}

// Exists reports whether a live session is cached for the video ID. Like Get,
// a hit refreshes the sliding expiry window
func (s *Store) Exists(videoID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.liveEntry(videoID)
	if !ok {
		return false
	}

	e.lastAccess = s.now()
	return true
}

// Put inserts or fully replaces the session under its video ID, resetting
// both expiry windows
func (s *Store) Put(session *Session) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.VideoID] = &entry{
		session:    session.clone(),
		createdAt:  now,
		lastAccess: now,
	}
}

// UpdateSummary atomically replaces the stored session with a copy whose
// summary is set. Returns ErrNotFound if no live session exists
func (s *Store) UpdateSummary(videoID, summary string) error {
	return s.update(videoID, func(sess *Session) {
		sess.Summary = summary
	})
}

// AddMessage atomically appends a message to the stored session's
// conversation history. Returns ErrNotFound if no live session exists
func (s *Store) AddMessage(videoID string, msg Message) error {
	return s.update(videoID, func(sess *Session) {
		sess.History = append(sess.History, msg)
	})
}

// update serializes read-modify-write cycles per video ID. The per-key lock
// is held across the whole cycle so concurrent updates to the same session
// can never observe a stale value and a racing Put always wins cleanly; the
// map lock guards the map itself and is only held for the in-memory copy
func (s *Store) update(videoID string, mutate func(*Session)) error {
	lock := s.keyLock(videoID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.liveEntry(videoID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, videoID)
	}

	updated := e.session.clone()
	mutate(updated)

	e.session = updated
	e.lastAccess = s.now()
	return nil
}

// Sweep removes all expired sessions and their per-key locks, returning the
// number of sessions evicted
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, e := range s.sessions {
		if s.expired(e) {
			s.evict(id)
			evicted++
		}
	}
	return evicted
}

// StartSweeper schedules background eviction passes using the given cron
// spec (e.g. "@every 10m"). Lazy on-access expiry applies regardless
func (s *Store) StartSweeper(spec string) error {
	if s.cron != nil {
		return fmt.Errorf("sweeper already started")
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if n := s.Sweep(); n > 0 {
			log.Printf("[STORE]: Swept %d expired session(s)", n)
		}
	}); err != nil {
		return fmt.Errorf("invalid sweep spec %q: %w", spec, err)
	}

	c.Start()
	s.cron = c
	return nil
}

// Stop halts the background sweeper and clears all cached sessions
func (s *Store) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string]*entry)

	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	s.locks = make(map[string]*sync.Mutex)
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range s.sessions {
		if !s.expired(e) {
			n++
		}
	}
	return n
}

// liveEntry returns the entry for videoID, lazily evicting it if expired.
// Callers must hold s.mu
func (s *Store) liveEntry(videoID string) (*entry, bool) {
	e, ok := s.sessions[videoID]
	if !ok {
		return nil, false
	}
	if s.expired(e) {
		s.evict(videoID)
		return nil, false
	}
	return e, true
}

// evict removes a session and its per-key lock. Callers must hold s.mu
func (s *Store) evict(videoID string) {
	delete(s.sessions, videoID)

	s.lockMu.Lock()
	delete(s.locks, videoID)
	s.lockMu.Unlock()
}

func (s *Store) expired(e *entry) bool {
	now := s.now()
	return now.Sub(e.createdAt) > s.absoluteTTL || now.Sub(e.lastAccess) > s.slidingTTL
}

// keyLock returns the update lock for a video ID, creating it on demand
func (s *Store) keyLock(videoID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	lock, ok := s.locks[videoID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[videoID] = lock
	}
	return lock
}
