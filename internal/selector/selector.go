// Package selector fetches candidate users and posts from the backend
// and picks action targets uniformly at random.
package selector

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"github.com/gosuda/ambler/internal/domain"
)

// searchTerms is the fixed vocabulary used to approximate browsing
// random users through the search endpoint. The backend requires terms
// of at least two characters.
var searchTerms = []string{
	"an", "ar", "el", "en", "er", "in", "le", "on", "or", "ra",
}

// API abstracts the subset of the backend client used by the Service.
// This allows testing without real HTTP calls.
type API interface {
	SearchUsers(ctx context.Context, term string) (json.RawMessage, error)
	ListPosts(ctx context.Context) (json.RawMessage, error)
	ActorID() int64
	ActorUsername() string
}

// Service selects candidate entities for actions, excluding anything
// owned by the acting identity.
type Service struct {
	api API
}

// NewService creates a Service over the given backend API.
func NewService(api API) *Service {
	return &Service{api: api}
}

// CandidateUsers searches with one randomly chosen vocabulary term and
// returns every matching user except the actor itself. A search that
// matches nobody yields an empty slice, not an error.
func (s *Service) CandidateUsers(ctx context.Context) ([]domain.User, error) {
	term := searchTerms[rand.IntN(len(searchTerms))]

	raw, err := s.api.SearchUsers(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("selector.Service.CandidateUsers: %w", err)
	}

	users, err := normalizeUsers(raw)
	if err != nil {
		return nil, fmt.Errorf("selector.Service.CandidateUsers: %w", err)
	}

	selfID := s.api.ActorID()
	selfName := s.api.ActorUsername()

	candidates := make([]domain.User, 0, len(users))
	for _, u := range users {
		if u.ID == selfID || u.Username == selfName {
			continue
		}
		candidates = append(candidates, u)
	}

	return candidates, nil
}

// CandidatePosts fetches the post listing and drops soft-deleted posts
// and posts authored by the actor. Exhaustion yields an empty slice.
func (s *Service) CandidatePosts(ctx context.Context) ([]domain.Post, error) {
	raw, err := s.api.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("selector.Service.CandidatePosts: %w", err)
	}

	posts, err := normalizePosts(raw)
	if err != nil {
		return nil, fmt.Errorf("selector.Service.CandidatePosts: %w", err)
	}

	selfID := s.api.ActorID()

	candidates := make([]domain.Post, 0, len(posts))
	for _, p := range posts {
		if p.IsDeleted || p.UserID == selfID {
			continue
		}
		candidates = append(candidates, p)
	}

	return candidates, nil
}

// FindUser resolves a username to a backend user through the same
// search primitive used for candidates. Returns domain.ErrNotFound
// when no exact match exists.
func (s *Service) FindUser(ctx context.Context, username string) (domain.User, error) {
	raw, err := s.api.SearchUsers(ctx, username)
	if err != nil {
		return domain.User{}, fmt.Errorf("selector.Service.FindUser: %w", err)
	}

	users, err := normalizeUsers(raw)
	if err != nil {
		return domain.User{}, fmt.Errorf("selector.Service.FindUser: %w", err)
	}

	for _, u := range users {
		if u.Username == username {
			return u, nil
		}
	}

	return domain.User{}, fmt.Errorf("selector.Service.FindUser: %q: %w", username, domain.ErrNotFound)
}

// PickRandom returns a uniformly random element of items, or false for
// an empty slice.
func PickRandom[T any](items []T) (T, bool) {
	if len(items) == 0 {
		var zero T
		return zero, false
	}
	return items[rand.IntN(len(items))], true
}
