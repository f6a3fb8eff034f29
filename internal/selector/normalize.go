package selector

import (
	"encoding/json"
	"fmt"

	"github.com/gosuda/ambler/internal/domain"
)

// The backend's list endpoints are not consistent about shape: some
// deployments return a bare array, others wrap it in an object under a
// handful of field names. Normalization happens here, at the selector
// boundary, so nothing past it sees the ambiguity.

func normalizeUsers(raw json.RawMessage) ([]domain.User, error) {
	var users []domain.User
	if err := unwrapList(raw, &users, "users", "results", "data"); err != nil {
		return nil, fmt.Errorf("normalize users: %w", err)
	}
	return users, nil
}

func normalizePosts(raw json.RawMessage) ([]domain.Post, error) {
	var posts []domain.Post
	if err := unwrapList(raw, &posts, "posts", "results", "data"); err != nil {
		return nil, fmt.Errorf("normalize posts: %w", err)
	}
	return posts, nil
}

// unwrapList decodes raw into out, accepting either a bare JSON array
// or an object wrapping the array under one of the given keys. A JSON
// null decodes to an empty list.
func unwrapList(raw json.RawMessage, out any, keys ...string) error {
	trimmed := trimLeadingSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}

	if trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return err
	}

	for _, key := range keys {
		inner, ok := wrapper[key]
		if !ok {
			continue
		}
		return json.Unmarshal(inner, out)
	}

	// Wrapped object with none of the known keys: treat as empty.
	return nil
}

func trimLeadingSpace(raw json.RawMessage) json.RawMessage {
	i := 0
	for i < len(raw) {
		switch raw[i] {
		case ' ', '\t', '\n', '\r':
			i++
		default:
			return raw[i:]
		}
	}
	return nil
}
