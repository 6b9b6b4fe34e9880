package quiz

// Session registry helpers. All of them take the service mutex.

func (s *Service) registerSession(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session
}

func (s *Service) lookupSession(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	return session, ok
}

func (s *Service) removeSession(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	return session, ok
}

// staleSessions unregisters every session matching the predicate and
// returns them so the caller can close them outside the lock.
func (s *Service) staleSessions(isStale func(*Session) bool) []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stale []*Session
	for id, session := range s.sessions {
		if isStale(session) {
			stale = append(stale, session)
			delete(s.sessions, id)
		}
	}
	return stale
}
