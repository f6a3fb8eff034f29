package domain

// User is a remote account as returned by the backend's user search.
// Read-only from this engine's perspective.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Post is a remote post as returned by the backend's post listing.
type Post struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	IsDeleted bool   `json:"is_deleted"`
}
