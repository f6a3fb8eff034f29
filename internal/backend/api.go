package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
)

// Typed wrappers over the backend endpoints the engine consumes.

// SearchUsers queries the user search endpoint. The response shape
// varies between deployments (bare list or wrapped object), so the raw
// JSON is returned for the caller to normalize. The backend requires
// terms of at least two characters.
func (c *Client) SearchUsers(ctx context.Context, term string) (json.RawMessage, error) {
	if len(term) < 2 {
		return nil, errors.New("backend.Client.SearchUsers: term must be at least 2 characters")
	}

	var raw json.RawMessage
	path := "/api/users/search?q=" + url.QueryEscape(term)
	if err := c.Get(ctx, path, &raw); err != nil {
		return nil, fmt.Errorf("backend.Client.SearchUsers: %w", err)
	}
	return raw, nil
}

// ListPosts fetches the full post listing as raw JSON.
func (c *Client) ListPosts(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, "/api/posts", &raw); err != nil {
		return nil, fmt.Errorf("backend.Client.ListPosts: %w", err)
	}
	return raw, nil
}

type openChatRequest struct {
	OtherUserID int64 `json:"otherUserId"`
}

type openChatResponse struct {
	ChatID json.Number `json:"chatId"`
}

// OpenDirectChat resolves or creates the direct conversation channel
// with the given user. The backend guarantees idempotency per user
// pair; the returned channel id is authoritative.
func (c *Client) OpenDirectChat(ctx context.Context, otherUserID int64) (string, error) {
	var resp openChatResponse
	if err := c.Post(ctx, "/api/chats/direct", openChatRequest{OtherUserID: otherUserID}, &resp); err != nil {
		return "", fmt.Errorf("backend.Client.OpenDirectChat: %w", err)
	}
	if resp.ChatID.String() == "" {
		return "", errors.New("backend.Client.OpenDirectChat: response missing chatId")
	}
	return resp.ChatID.String(), nil
}

type sendMessageRequest struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

// SendChatMessage submits one text message to a chat channel.
func (c *Client) SendChatMessage(ctx context.Context, chatID, content string) error {
	path := "/api/chats/" + url.PathEscape(chatID) + "/messages"
	if err := c.Post(ctx, path, sendMessageRequest{Content: content, Type: "text"}, nil); err != nil {
		return fmt.Errorf("backend.Client.SendChatMessage: %w", err)
	}
	return nil
}

type createCommentRequest struct {
	PostID  int64  `json:"post_id"`
	Content string `json:"content"`
}

// CreateComment attaches one comment to a post.
func (c *Client) CreateComment(ctx context.Context, postID int64, content string) error {
	if err := c.Post(ctx, "/api/comments", createCommentRequest{PostID: postID, Content: content}, nil); err != nil {
		return fmt.Errorf("backend.Client.CreateComment: %w", err)
	}
	return nil
}
