package stubserver_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/starford/mannaz/internal/models"
	"github.com/starford/mannaz/internal/remote"
	"github.com/starford/mannaz/internal/storage"
	"github.com/starford/mannaz/internal/stubserver"
	"github.com/starford/mannaz/internal/testutil"
)

func login(t *testing.T, baseURL, email, password string) (models.User, *remote.Client) {
	t.Helper()
	anon := remote.New(baseURL, nil)
	user, token, err := anon.Login(context.Background(), email, password)
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return user, remote.New(baseURL, remote.StaticToken(token))
}

func TestLoginAndMe(t *testing.T) {
	baseURL, _ := testutil.StubBackend(t)
	user, c := login(t, baseURL, "ana@example.edu", "ana-password")
	if user.Username != "ana" {
		t.Errorf("username = %q", user.Username)
	}

	me, err := c.CurrentUser(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if me.ID != user.ID {
		t.Errorf("me.ID = %q, want %q", me.ID, user.ID)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	baseURL, _ := testutil.StubBackend(t)
	anon := remote.New(baseURL, nil)

	_, _, err := anon.Login(context.Background(), "ana@example.edu", "nope-nope-nope")
	var apiErr *remote.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
	if apiErr.Detail != "Incorrect email or password" {
		t.Errorf("detail = %q", apiErr.Detail)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	baseURL, _ := testutil.StubBackend(t)
	anon := remote.New(baseURL, nil)

	_, _, err := anon.Signup(context.Background(), remote.SignupParams{
		Name: "Other Ana", Username: "ana2", Email: "ana@example.edu", Password: "longenough",
	})
	var apiErr *remote.APIError
	if !errors.As(err, &apiErr) || apiErr.Detail != "Email already registered" {
		t.Errorf("err = %v", err)
	}
}

func TestSignupThenAuthenticated(t *testing.T) {
	baseURL, _ := testutil.StubBackend(t)
	anon := remote.New(baseURL, nil)

	user, token, err := anon.Signup(context.Background(), remote.SignupParams{
		Name: "Dana", Username: "dana", Email: "dana@example.edu", Password: "longenough",
	})
	if err != nil {
		t.Fatal(err)
	}
	c := remote.New(baseURL, remote.StaticToken(token))
	me, err := c.CurrentUser(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if me.ID != user.ID || me.Username != "dana" {
		t.Errorf("me = %+v", me)
	}
}

func TestUnauthenticatedWriteRejected(t *testing.T) {
	baseURL, _ := testutil.StubBackend(t)
	anon := remote.New(baseURL, nil)

	_, err := anon.CreatePost(context.Background(), remote.PostDraft{
		Type: "note", Title: "t", Content: "c",
	})
	var apiErr *remote.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("err = %v, want 401", err)
	}
}

func TestListPostsNewestFirst(t *testing.T) {
	baseURL, _ := testutil.StubBackend(t)
	anon := remote.New(baseURL, nil)

	posts, err := anon.ListPosts(context.Background(), remote.ListPostsParams{})
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 3 {
		t.Fatalf("len = %d, want 3 seeded posts", len(posts))
	}
	for i := 1; i < len(posts); i++ {
		if posts[i].CreatedAt.After(posts[i-1].CreatedAt) {
			t.Errorf("posts[%d] newer than posts[%d]", i, i-1)
		}
	}
}

func TestListPostsSearchAndCategory(t *testing.T) {
	baseURL, _ := testutil.StubBackend(t)
	anon := remote.New(baseURL, nil)
	ctx := context.Background()

	byText, err := anon.ListPosts(ctx, remote.ListPostsParams{Search: "GRAPH"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byText) != 1 || byText[0].Title != "Graph algorithms summary" {
		t.Errorf("search result = %+v", byText)
	}

	byTag, err := anon.ListPosts(ctx, remote.ListPostsParams{Search: "midterm"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byTag) != 1 {
		t.Errorf("tag search = %d results, want 1", len(byTag))
	}

	jobs, err := anon.ListPosts(ctx, remote.ListPostsParams{Category: "job"})
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 1 || jobs[0].Company != "Initech" {
		t.Errorf("jobs = %+v", jobs)
	}

	all, err := anon.ListPosts(ctx, remote.ListPostsParams{Category: "all"})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("category=all returned %d", len(all))
	}
}

func TestListPostsPaging(t *testing.T) {
	baseURL, _ := testutil.StubBackend(t)
	anon := remote.New(baseURL, nil)

	page, err := anon.ListPosts(context.Background(), remote.ListPostsParams{Skip: 1, Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 {
		t.Fatalf("page = %d posts, want 1", len(page))
	}

	beyond, err := anon.ListPosts(context.Background(), remote.ListPostsParams{Skip: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(beyond) != 0 {
		t.Errorf("skip beyond end = %d posts", len(beyond))
	}
}

func TestCreatePostSnapshotsAuthor(t *testing.T) {
	baseURL, _ := testutil.StubBackend(t)
	_, c := login(t, baseURL, "ana@example.edu", "ana-password")

	post, err := c.CreatePost(context.Background(), remote.PostDraft{
		Type: "note", Title: "New note", Content: "body", Tags: []string{"x"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if post.AuthorUsername != "ana" || post.AuthorName != "Ana Petrova" {
		t.Errorf("author snapshot = %q/%q", post.AuthorName, post.AuthorUsername)
	}
	if post.Replies == nil || len(post.Replies) != 0 {
		t.Errorf("replies = %+v, want empty non-nil", post.Replies)
	}

	// The author snapshot survives a later profile rename.
	name := "Ana Renamed"
	if _, err := c.UpdateProfile(context.Background(), remote.ProfileUpdate{Name: &name}); err != nil {
		t.Fatal(err)
	}
	posts, err := c.ListPosts(context.Background(), remote.ListPostsParams{Search: "New note"})
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 1 || posts[0].AuthorName != "Ana Petrova" {
		t.Errorf("snapshot after rename = %+v", posts)
	}
}

func TestAddReplyBumpsUpdatedAt(t *testing.T) {
	baseURL, _ := testutil.StubBackend(t)
	_, c := login(t, baseURL, "boris@example.edu", "boris-password")
	ctx := context.Background()

	posts, err := c.ListPosts(ctx, remote.ListPostsParams{Search: "graph"})
	if err != nil {
		t.Fatal(err)
	}
	target := posts[0]

	reply, err := c.AddReply(ctx, target.ID, "great summary")
	if err != nil {
		t.Fatal(err)
	}
	if reply.AuthorUsername != "boris" {
		t.Errorf("reply author = %q", reply.AuthorUsername)
	}

	after, err := c.ListPosts(ctx, remote.ListPostsParams{Search: "graph"})
	if err != nil {
		t.Fatal(err)
	}
	if len(after[0].Replies) != 1 {
		t.Fatalf("replies = %d", len(after[0].Replies))
	}
	if !after[0].UpdatedAt.After(target.UpdatedAt) {
		t.Error("updated_at should be bumped by a reply")
	}
}

func TestReplyToMissingPost(t *testing.T) {
	baseURL, _ := testutil.StubBackend(t)
	_, c := login(t, baseURL, "ana@example.edu", "ana-password")

	_, err := c.AddReply(context.Background(), "no-such-post", "hello")
	var apiErr *remote.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("err = %v, want 404", err)
	}
}

func TestUserProfilePostsCount(t *testing.T) {
	baseURL, _ := testutil.StubBackend(t)
	ana, c := login(t, baseURL, "ana@example.edu", "ana-password")

	profile, err := c.UserProfile(context.Background(), ana.ID)
	if err != nil {
		t.Fatal(err)
	}
	if profile.PostsCount != 1 {
		t.Errorf("posts_count = %d, want 1", profile.PostsCount)
	}
}

func TestSearchUsersExcludesSelf(t *testing.T) {
	baseURL, _ := testutil.StubBackend(t)
	_, c := login(t, baseURL, "ana@example.edu", "ana-password")

	users, err := c.SearchUsers(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	for _, u := range users {
		if u.Username == "ana" {
			t.Error("requester must be excluded from search results")
		}
	}
	if len(users) != 2 {
		t.Errorf("users = %+v, want boris and clara", users)
	}
}

func TestConversationFlow(t *testing.T) {
	baseURL, _ := testutil.StubBackend(t)
	ana, anaClient := login(t, baseURL, "ana@example.edu", "ana-password")
	boris, borisClient := login(t, baseURL, "boris@example.edu", "boris-password")
	ctx := context.Background()

	// Seed: boris -> ana unread, ana -> boris read.
	convs, err := anaClient.Conversations(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 1 {
		t.Fatalf("conversations = %d, want 1", len(convs))
	}
	if convs[0].Participant.ID != boris.ID {
		t.Errorf("participant = %+v", convs[0].Participant)
	}
	if convs[0].UnreadCount != 1 {
		t.Errorf("unread = %d, want 1", convs[0].UnreadCount)
	}
	if convs[0].LastMessage.Content != "Almost, sending it tonight" {
		t.Errorf("last message = %q", convs[0].LastMessage.Content)
	}

	// Opening the thread marks boris's message read.
	msgs, err := anaClient.MessagesWith(ctx, boris.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("messages = %d", len(msgs))
	}
	if !msgs[0].CreatedAt.Before(msgs[1].CreatedAt) {
		t.Error("messages should be oldest first")
	}

	convs, err = anaClient.Conversations(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if convs[0].UnreadCount != 0 {
		t.Errorf("unread after reading = %d, want 0", convs[0].UnreadCount)
	}

	// A new message becomes the preview on both sides.
	sent, err := borisClient.SendMessage(ctx, ana.ID, "See you at the library")
	if err != nil {
		t.Fatal(err)
	}
	if sent.Read {
		t.Error("fresh message should be unread")
	}
	convs, err = anaClient.Conversations(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if convs[0].LastMessage.Content != "See you at the library" || convs[0].UnreadCount != 1 {
		t.Errorf("conversation after send = %+v", convs[0])
	}
}

func TestSendMessageToMissingRecipient(t *testing.T) {
	baseURL, _ := testutil.StubBackend(t)
	_, c := login(t, baseURL, "ana@example.edu", "ana-password")

	_, err := c.SendMessage(context.Background(), "ghost", "hello?")
	var apiErr *remote.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("err = %v, want 404", err)
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	srv := stubserver.New(testutil.TestSecret, nil, nil)
	srv.Seed(testutil.SeedFixtures())
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	anon := remote.New(ts.URL, nil)
	ctx := context.Background()

	// Identical answer for known and unknown addresses.
	if err := anon.ForgotPassword(ctx, "ana@example.edu"); err != nil {
		t.Fatal(err)
	}
	if err := anon.ForgotPassword(ctx, "ghost@example.edu"); err != nil {
		t.Fatal(err)
	}

	if err := anon.ResetPassword(ctx, "bogus-token", "newpassword"); err == nil {
		t.Error("bogus token should be rejected")
	}
}

func TestUploadRoundTrip(t *testing.T) {
	uploads, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	srv := stubserver.New(testutil.TestSecret, uploads, nil)
	srv.Seed(testutil.SeedFixtures())
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	_, c := login(t, ts.URL, "ana@example.edu", "ana-password")

	url, err := c.UploadImage(context.Background(), "avatar.png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(url, "/uploads/") {
		t.Fatalf("url = %q", url)
	}

	res, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Errorf("serve status = %d", res.StatusCode)
	}

	doc, err := c.UploadDocument(context.Background(), "notes.pdf", strings.NewReader("pdf-bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Name != "notes.pdf" {
		t.Errorf("doc name = %q", doc.Name)
	}
}
