package backend

import (
	"strconv"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

// Session holds the bearer token and actor identity for one authenticated
// actor. The token is replaced whole on every successful sign-in and
// cleared whole on credential rejection; it is never patched.
type Session struct {
	mu       sync.RWMutex
	username string
	password string
	token    string
	actorID  int64
}

// NewSession creates a session for the given actor credentials.
// No network call is made until Authenticate.
func NewSession(username, password string) *Session {
	return &Session{
		username: username,
		password: password,
	}
}

// Username returns the actor identity the session signs in as.
func (s *Session) Username() string {
	return s.username
}

// Token returns the held bearer token, or false when none is held.
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// ActorID returns the backend identifier of the authenticated actor.
// Zero until the first successful sign-in.
func (s *Session) ActorID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actorID
}

// establish stores a fresh token and actor id. Last successful write wins.
func (s *Session) establish(token string, actorID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.actorID = actorID
}

// invalidate drops the held token. The actor id is kept; only the
// credential is stale.
func (s *Session) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}

// actorIDFromToken extracts the actor id from the bearer token claims
// without verifying the signature. Used as a fallback when the sign-in
// payload does not carry the user object.
func actorIDFromToken(token string) (int64, bool) {
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return 0, false
	}

	for _, key := range []string{"id", "userId", "sub"} {
		v, ok := claims[key]
		if !ok {
			continue
		}
		switch id := v.(type) {
		case float64:
			return int64(id), true
		case string:
			n, parseErr := strconv.ParseInt(id, 10, 64)
			if parseErr == nil {
				return n, true
			}
		}
	}

	return 0, false
}
