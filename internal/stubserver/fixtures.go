package stubserver

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/mannaz/internal/models"
	pkgconfig "github.com/starford/mannaz/pkg/config"
)

// Fixtures is the YAML seed data for the stub server. Posts and messages
// reference users by username; listed order is chronological, so later
// entries get later timestamps.
type Fixtures struct {
	Users    []FixtureUser    `yaml:"users"`
	Posts    []FixturePost    `yaml:"posts"`
	Messages []FixtureMessage `yaml:"messages"`
}

type FixtureUser struct {
	Name     string `yaml:"name"`
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Bio      string `yaml:"bio"`
}

type FixturePost struct {
	Author       string   `yaml:"author"`
	Type         string   `yaml:"type"`
	Title        string   `yaml:"title"`
	Content      string   `yaml:"content"`
	Tags         []string `yaml:"tags"`
	Company      string   `yaml:"company"`
	Location     string   `yaml:"location"`
	JobLink      string   `yaml:"job_link"`
	DocumentName string   `yaml:"document_name"`
	DocumentURL  string   `yaml:"document_url"`
	Replies      []struct {
		Author  string `yaml:"author"`
		Content string `yaml:"content"`
	} `yaml:"replies"`
}

type FixtureMessage struct {
	From    string `yaml:"from"`
	To      string `yaml:"to"`
	Content string `yaml:"content"`
	Read    bool   `yaml:"read"`
}

// Validate checks the seed before it replaces live state, so a bad edit during
// hot reload never wipes a working data set.
func (f Fixtures) Validate() error {
	usernames := map[string]bool{}
	for i, u := range f.Users {
		if err := validation.ValidateStruct(&u,
			validation.Field(&u.Name, validation.Required),
			validation.Field(&u.Username, validation.Required),
			validation.Field(&u.Email, validation.Required, is.EmailFormat),
			validation.Field(&u.Password, validation.Required, validation.Length(8, 0)),
		); err != nil {
			return fmt.Errorf("users[%d]: %w", i, err)
		}
		if usernames[u.Username] {
			return fmt.Errorf("users[%d]: duplicate username %q", i, u.Username)
		}
		usernames[u.Username] = true
	}
	for i, p := range f.Posts {
		if err := validation.ValidateStruct(&p,
			validation.Field(&p.Author, validation.Required),
			validation.Field(&p.Type, validation.Required,
				validation.In(models.PostTypeNote, models.PostTypeJob, models.PostTypeThread)),
			validation.Field(&p.Title, validation.Required),
			validation.Field(&p.Content, validation.Required),
		); err != nil {
			return fmt.Errorf("posts[%d]: %w", i, err)
		}
		if !usernames[p.Author] {
			return fmt.Errorf("posts[%d]: unknown author %q", i, p.Author)
		}
		for j, r := range p.Replies {
			if !usernames[r.Author] {
				return fmt.Errorf("posts[%d].replies[%d]: unknown author %q", i, j, r.Author)
			}
		}
	}
	for i, m := range f.Messages {
		if !usernames[m.From] || !usernames[m.To] {
			return fmt.Errorf("messages[%d]: unknown participant", i)
		}
		if m.Content == "" {
			return fmt.Errorf("messages[%d]: content is required", i)
		}
	}
	return nil
}

// LoadFixtures reads and validates a seed file.
func LoadFixtures(path string) (Fixtures, error) {
	var fx Fixtures
	if err := pkgconfig.Load(path, &fx); err != nil {
		return Fixtures{}, err
	}
	return fx, nil
}

// Seed replaces all live state with the given fixtures. Issued tokens stay
// valid as long as the subject username keeps its position-derived identity,
// which is why user IDs are derived from the username rather than random.
func (s *Server) Seed(fx Fixtures) {
	byUsername := map[string]*userRec{}
	users := make([]*userRec, 0, len(fx.Users))
	base := time.Now().UTC().Add(-24 * time.Hour)

	for i, u := range fx.Users {
		rec := &userRec{
			User: models.User{
				ID:        "user_" + u.Username,
				Name:      u.Name,
				Username:  u.Username,
				Email:     u.Email,
				Bio:       u.Bio,
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			},
			PasswordHash: hashPassword(u.Password),
		}
		users = append(users, rec)
		byUsername[u.Username] = rec
	}

	posts := make([]models.Post, 0, len(fx.Posts))
	for i, p := range fx.Posts {
		author := byUsername[p.Author]
		created := base.Add(time.Hour + time.Duration(i)*time.Minute)
		post := models.Post{
			ID:                   newID(),
			AuthorID:             author.ID,
			AuthorName:           author.Name,
			AuthorUsername:       author.Username,
			AuthorProfilePicture: author.ProfilePicture,
			Type:                 p.Type,
			Title:                p.Title,
			Content:              p.Content,
			Tags:                 p.Tags,
			Company:              p.Company,
			Location:             p.Location,
			JobLink:              p.JobLink,
			DocumentName:         p.DocumentName,
			DocumentURL:          p.DocumentURL,
			Replies:              []models.Reply{},
			CreatedAt:            created,
			UpdatedAt:            created,
		}
		for j, r := range p.Replies {
			ra := byUsername[r.Author]
			reply := models.Reply{
				ID:                   newID(),
				AuthorID:             ra.ID,
				AuthorName:           ra.Name,
				AuthorUsername:       ra.Username,
				AuthorProfilePicture: ra.ProfilePicture,
				Content:              r.Content,
				CreatedAt:            created.Add(time.Duration(j+1) * time.Minute),
			}
			post.Replies = append(post.Replies, reply)
			post.UpdatedAt = reply.CreatedAt
		}
		posts = append(posts, post)
	}

	messages := make([]models.Message, 0, len(fx.Messages))
	for i, m := range fx.Messages {
		messages = append(messages, models.Message{
			ID:          newID(),
			SenderID:    byUsername[m.From].ID,
			RecipientID: byUsername[m.To].ID,
			Content:     m.Content,
			CreatedAt:   base.Add(2*time.Hour + time.Duration(i)*time.Minute),
			Read:        m.Read,
		})
	}

	s.mu.Lock()
	s.users = users
	s.posts = posts
	s.messages = messages
	s.resets = map[string]resetRec{}
	s.mu.Unlock()
}
