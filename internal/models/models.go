// Package models defines the client-side entity shapes mirrored from the
// backend. Author fields on Post and Reply are value snapshots taken at
// creation time; they are never re-synced when the author edits their profile.
package models

import "time"

// Post type discriminators. Immutable after creation.
const (
	PostTypeNote   = "note"
	PostTypeJob    = "job"
	PostTypeThread = "thread"
)

// User is the authenticated identity or a public profile.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Bio            string    `json:"bio"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
	PostsCount     int       `json:"posts_count,omitempty"`
}

// Post is a feed entry. The variant-specific fields (Tags/Document* for
// notes, Company/Location/JobLink for jobs) are only meaningful for the
// matching Type.
type Post struct {
	ID                   string    `json:"id"`
	AuthorID             string    `json:"author_id"`
	AuthorName           string    `json:"author_name"`
	AuthorUsername       string    `json:"author_username"`
	AuthorProfilePicture string    `json:"author_profile_picture,omitempty"`
	Type                 string    `json:"type"`
	Title                string    `json:"title"`
	Content              string    `json:"content"`
	Tags                 []string  `json:"tags,omitempty"`
	DocumentURL          string    `json:"document_url,omitempty"`
	DocumentName         string    `json:"document_name,omitempty"`
	JobLink              string    `json:"job_link,omitempty"`
	Company              string    `json:"company,omitempty"`
	Location             string    `json:"location,omitempty"`
	Replies              []Reply   `json:"replies"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Reply is embedded in its parent post. Append-only through this client.
type Reply struct {
	ID                   string    `json:"id"`
	AuthorID             string    `json:"author_id"`
	AuthorName           string    `json:"author_name"`
	AuthorUsername       string    `json:"author_username"`
	AuthorProfilePicture string    `json:"author_profile_picture,omitempty"`
	Content              string    `json:"content"`
	CreatedAt            time.Time `json:"created_at"`
}

// Participant is the counterpart identity shown on a conversation.
type Participant struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

// LastMessage is the preview summary on a conversation.
type LastMessage struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	SenderID  string    `json:"sender_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation is one row in the inbox. The list is replaced wholesale on
// every reload; unread counts are server-computed.
type Conversation struct {
	ID          string      `json:"conversation_id"`
	Participant Participant `json:"participant"`
	LastMessage LastMessage `json:"last_message"`
	UnreadCount int         `json:"unread_count"`
}

// Message is a single direct message within the active conversation.
type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	Read        bool      `json:"read"`
}
