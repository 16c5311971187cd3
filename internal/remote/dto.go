package remote

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/mannaz/internal/models"
)

// SignupParams is the request body for account creation.
type SignupParams struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Bio      string `json:"bio,omitempty"`
}

// Validate enforces the required signup fields before any network call.
func (p SignupParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required),
		validation.Field(&p.Username, validation.Required),
		validation.Field(&p.Email, validation.Required, is.EmailFormat),
		validation.Field(&p.Password, validation.Required, validation.Length(8, 0)),
	)
}

// ProfileUpdate carries only the fields being changed; nil fields are omitted
// from the request so the server leaves them untouched.
type ProfileUpdate struct {
	Name           *string `json:"name,omitempty"`
	Username       *string `json:"username,omitempty"`
	Email          *string `json:"email,omitempty"`
	Bio            *string `json:"bio,omitempty"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
}

// Empty reports whether the update carries no fields at all.
func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.Username == nil && p.Email == nil &&
		p.Bio == nil && p.ProfilePicture == nil
}

// PostDraft is the request body for creating a post.
type PostDraft struct {
	Type         string   `json:"type"`
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	Tags         []string `json:"tags,omitempty"`
	Company      string   `json:"company,omitempty"`
	Location     string   `json:"location,omitempty"`
	JobLink      string   `json:"job_link,omitempty"`
	DocumentName string   `json:"document_name,omitempty"`
	DocumentURL  string   `json:"document_url,omitempty"`
}

// Validate enforces the required draft fields. Job postings additionally need
// a company and a location; the store itself validates nothing.
func (d PostDraft) Validate() error {
	if err := validation.ValidateStruct(&d,
		validation.Field(&d.Type, validation.Required,
			validation.In(models.PostTypeNote, models.PostTypeJob, models.PostTypeThread)),
		validation.Field(&d.Title, validation.Required),
		validation.Field(&d.Content, validation.Required),
	); err != nil {
		return err
	}
	if d.Type == models.PostTypeJob {
		return validation.ValidateStruct(&d,
			validation.Field(&d.Company, validation.Required),
			validation.Field(&d.Location, validation.Required),
		)
	}
	return nil
}

// ListPostsParams are the server-side filter arguments for GET /posts.
type ListPostsParams struct {
	Skip     int
	Limit    int
	Search   string
	Category string
}

// wireTime tolerates both RFC 3339 timestamps and the zone-less microsecond
// format emitted for naive UTC datetimes.
type wireTime struct {
	time.Time
}

const naiveLayout = "2006-01-02T15:04:05.999999"

func (t *wireTime) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		t.Time = time.Time{}
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err := time.Parse(naiveLayout, raw)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	t.Time = parsed.UTC()
	return nil
}

type authResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	User        wireUser `json:"user"`
}

type wireUser struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Username       string   `json:"username"`
	Email          string   `json:"email"`
	Bio            string   `json:"bio"`
	ProfilePicture string   `json:"profile_picture"`
	CreatedAt      wireTime `json:"created_at"`
	PostsCount     int      `json:"posts_count"`
}

func (u wireUser) toModel() models.User {
	return models.User{
		ID:             u.ID,
		Name:           u.Name,
		Username:       u.Username,
		Email:          u.Email,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		CreatedAt:      u.CreatedAt.Time,
		PostsCount:     u.PostsCount,
	}
}

type wireReply struct {
	ID                   string   `json:"id"`
	AuthorID             string   `json:"author_id"`
	AuthorName           string   `json:"author_name"`
	AuthorUsername       string   `json:"author_username"`
	AuthorProfilePicture string   `json:"author_profile_picture"`
	Content              string   `json:"content"`
	CreatedAt            wireTime `json:"created_at"`
}

func (r wireReply) toModel() models.Reply {
	return models.Reply{
		ID:                   r.ID,
		AuthorID:             r.AuthorID,
		AuthorName:           r.AuthorName,
		AuthorUsername:       r.AuthorUsername,
		AuthorProfilePicture: r.AuthorProfilePicture,
		Content:              r.Content,
		CreatedAt:            r.CreatedAt.Time,
	}
}

type wirePost struct {
	ID                   string      `json:"id"`
	AuthorID             string      `json:"author_id"`
	AuthorName           string      `json:"author_name"`
	AuthorUsername       string      `json:"author_username"`
	AuthorProfilePicture string      `json:"author_profile_picture"`
	Type                 string      `json:"type"`
	Title                string      `json:"title"`
	Content              string      `json:"content"`
	Tags                 []string    `json:"tags"`
	Company              string      `json:"company"`
	Location             string      `json:"location"`
	JobLink              string      `json:"job_link"`
	DocumentName         string      `json:"document_name"`
	DocumentURL          string      `json:"document_url"`
	Replies              []wireReply `json:"replies"`
	CreatedAt            wireTime    `json:"created_at"`
	UpdatedAt            wireTime    `json:"updated_at"`
}

func (p wirePost) toModel() models.Post {
	replies := make([]models.Reply, len(p.Replies))
	for i, r := range p.Replies {
		replies[i] = r.toModel()
	}
	return models.Post{
		ID:                   p.ID,
		AuthorID:             p.AuthorID,
		AuthorName:           p.AuthorName,
		AuthorUsername:       p.AuthorUsername,
		AuthorProfilePicture: p.AuthorProfilePicture,
		Type:                 p.Type,
		Title:                p.Title,
		Content:              p.Content,
		Tags:                 p.Tags,
		Company:              p.Company,
		Location:             p.Location,
		JobLink:              p.JobLink,
		DocumentName:         p.DocumentName,
		DocumentURL:          p.DocumentURL,
		Replies:              replies,
		CreatedAt:            p.CreatedAt.Time,
		UpdatedAt:            p.UpdatedAt.Time,
	}
}

type wireConversation struct {
	ConversationID string `json:"conversation_id"`
	Participant    struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		Username       string `json:"username"`
		ProfilePicture string `json:"profile_picture"`
	} `json:"participant"`
	LastMessage struct {
		ID        string   `json:"id"`
		Content   string   `json:"content"`
		SenderID  string   `json:"sender_id"`
		CreatedAt wireTime `json:"created_at"`
	} `json:"last_message"`
	UnreadCount int `json:"unread_count"`
}

func (c wireConversation) toModel() models.Conversation {
	return models.Conversation{
		ID: c.ConversationID,
		Participant: models.Participant{
			ID:             c.Participant.ID,
			Name:           c.Participant.Name,
			Username:       c.Participant.Username,
			ProfilePicture: c.Participant.ProfilePicture,
		},
		LastMessage: models.LastMessage{
			ID:        c.LastMessage.ID,
			Content:   c.LastMessage.Content,
			SenderID:  c.LastMessage.SenderID,
			CreatedAt: c.LastMessage.CreatedAt.Time,
		},
		UnreadCount: c.UnreadCount,
	}
}

type wireMessage struct {
	ID          string   `json:"id"`
	SenderID    string   `json:"sender_id"`
	RecipientID string   `json:"recipient_id"`
	Content     string   `json:"content"`
	CreatedAt   wireTime `json:"created_at"`
	Read        bool     `json:"read"`
}

func (m wireMessage) toModel() models.Message {
	return models.Message{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Content:     m.Content,
		CreatedAt:   m.CreatedAt.Time,
		Read:        m.Read,
	}
}
