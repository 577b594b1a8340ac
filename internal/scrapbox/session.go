package scrapbox

import "sync"

// Session carries the credentials for one save run: the connect.sid cookie
// and the CSRF token once it is known. A token stays valid for the life of
// the Session or until Invalidate is called. A nil *Session is an anonymous
// session with no cached token.
type Session struct {
	SID string

	mu   sync.Mutex
	csrf string
}

func NewSession(sid, csrf string) *Session {
	return &Session{SID: sid, csrf: csrf}
}

// CSRF returns the cached token, if any.
func (s *Session) CSRF() (string, bool) {
	if s == nil {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.csrf, s.csrf != ""
}

func (s *Session) SetCSRF(token string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.csrf = token
	s.mu.Unlock()
}

// Invalidate drops the cached token so the next request re-derives it.
func (s *Session) Invalidate() {
	s.SetCSRF("")
}

func (s *Session) cookie() string {
	if s == nil || s.SID == "" {
		return ""
	}
	return "connect.sid=" + s.SID
}
