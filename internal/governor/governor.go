// Package governor wraps every query-tool invocation in a per-session
// budget: it counts novel (tool, normalized-target) pairs and total calls,
// memoizes responses by a stable cache key, and short-circuits exploration
// once a session has gone on long enough, per spec.md §4.10. The
// mutex-guarded per-session state idiom is grounded on the teacher's
// internal/mcp/auto_index.go AutoIndexingManager, narrowed from one global
// indexing run to many concurrent per-connection sessions.
package governor

import (
	"sync"

	"github.com/google/uuid"

	"github.com/ozekimasaki/lazyload/internal/config"
)

// State is a session's current exploration phase.
type State string

const (
	StateExplore    State = "explore"
	StateSynthesize State = "synthesize"
	StateFinalize   State = "finalize"
)

const cachedMarker = "\n\n[Cached call reused]"

const synthesizeNudge = "\n\n[You have explored broadly in this session — consider synthesizing your findings rather than continuing to explore.]"

const finalizeMessage = "Session exploration budget exhausted. No further tool calls will run in this session; synthesize an answer from what has already been gathered."

// cacheEntry is one memoized tool response.
type cacheEntry struct {
	response string
}

// Session tracks one MCP connection's call history: the set of novel
// targets seen so far, the running total call count, and a response cache.
type Session struct {
	mu           sync.Mutex
	cfg          config.GovernorConfig
	novelTargets map[string]bool
	novelCount   int
	total        int
	cache        map[string]cacheEntry
}

func newSession(cfg config.GovernorConfig) *Session {
	return &Session{
		cfg:          cfg,
		novelTargets: make(map[string]bool),
		cache:        make(map[string]cacheEntry),
	}
}

// currentStateLocked reports the session's state given its current counts.
// Callers must hold s.mu.
func (s *Session) currentStateLocked() State {
	if s.novelCount > s.cfg.NovelSynthesizeLimit || s.total > s.cfg.TotalHardCap {
		return StateFinalize
	}
	if s.novelCount > s.cfg.NovelExploreLimit {
		return StateSynthesize
	}
	return StateExplore
}

// Call runs handler under this session's governance: a cache hit short-
// circuits handler entirely and doesn't consume novelty or budget; a
// finalize-state call short-circuits with a terminal message and also
// never invokes handler; otherwise handler runs and, in the synthesize
// state, its response is augmented with a nudge.
func (s *Session) Call(tool, target, cacheKey string, handler func() (string, error)) (string, State, error) {
	s.mu.Lock()
	if entry, ok := s.cache[cacheKey]; ok {
		state := s.currentStateLocked()
		s.mu.Unlock()
		return entry.response + cachedMarker, state, nil
	}

	if s.novelCount > s.cfg.NovelSynthesizeLimit || s.total > s.cfg.TotalHardCap {
		s.mu.Unlock()
		return finalizeMessage, StateFinalize, nil
	}

	key := tool + "::" + target
	if !s.novelTargets[key] {
		s.novelTargets[key] = true
		s.novelCount++
	}
	s.total++
	state := s.currentStateLocked()
	s.mu.Unlock()

	resp, err := handler()
	if err != nil {
		return "", state, err
	}
	if state == StateSynthesize {
		resp += synthesizeNudge
	}

	s.mu.Lock()
	s.cache[cacheKey] = cacheEntry{response: resp}
	s.mu.Unlock()

	return resp, state, nil
}

// InvalidateCache drops every memoized response, per spec.md §4.10's
// "sync_index invalidates the entire cache" — it leaves novelty/total
// counters untouched, since re-indexing doesn't excuse further
// exploration from counting against the session budget.
func (s *Session) InvalidateCache() {
	s.mu.Lock()
	s.cache = make(map[string]cacheEntry)
	s.mu.Unlock()
}

// Manager owns every active session, keyed by a generated session ID.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      config.GovernorConfig
}

func NewManager(cfg config.GovernorConfig) *Manager {
	return &Manager{sessions: make(map[string]*Session), cfg: cfg}
}

// NewSession creates and registers a fresh session, returning its ID.
func (m *Manager) NewSession() (string, *Session) {
	id := uuid.NewString()
	sess := newSession(m.cfg)
	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()
	return id, sess
}

// Get returns the session registered under id, if any.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// Close drops a session, e.g. on MCP connection teardown.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}
