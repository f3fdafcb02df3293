package creator

import (
	"fmt"
	"sync"
)

// SessionStore keeps the active wizard projects in memory. A project
// exists only while its wizard session runs; nothing here is persisted.
type SessionStore struct {
	mu       sync.Mutex
	projects map[string]*Project
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		projects: make(map[string]*Project),
	}
}

// Create opens a new project for a user and returns it.
func (s *SessionStore) Create(userID string) *Project {
	project := NewProject(userID)

	s.mu.Lock()
	s.projects[project.ID] = project
	s.mu.Unlock()

	return project
}

// With runs fn while holding the project's field lock, keeping short
// transitions from handlers serialized against the worker's writes.
func (s *SessionStore) With(sessionID string, fn func(project *Project) error) error {
	project, ok := s.Get(sessionID)
	if !ok {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	return project.locked(func() error {
		return fn(project)
	})
}

// Get returns the live project pointer. The long pipeline stages lock
// the project's fields internally, so callers must not touch fields
// on the returned pointer directly.
func (s *SessionStore) Get(sessionID string) (*Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, ok := s.projects[sessionID]
	return project, ok
}

// Snapshot returns a copy of the project for read-only responses.
func (s *SessionStore) Snapshot(sessionID string) (Project, bool) {
	project, ok := s.Get(sessionID)
	if !ok {
		return Project{}, false
	}
	return project.snapshot(), true
}

// Drop removes a finished or abandoned session.
func (s *SessionStore) Drop(sessionID string) {
	s.mu.Lock()
	delete(s.projects, sessionID)
	s.mu.Unlock()
}
