package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/starford/mannaz/internal/apperr"
)

func TestLogin(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "ana@example.edu", body["email"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"access_token": "tok-123",
			"token_type": "bearer",
			"user": {"id": "u1", "name": "Ana", "username": "ana", "email": "ana@example.edu"}
		}`))
	}))
	defer ts.Close()

	c := New(ts.URL, nil)
	user, token, err := c.Login(context.Background(), "ana@example.edu", "secret")
	require.NoError(t, err)
	require.Equal(t, "tok-123", token)
	require.Equal(t, "u1", user.ID)
	require.Equal(t, "ana", user.Username)
}

func TestBearerTokenAttached(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "u1"}`))
	}))
	defer ts.Close()

	c := New(ts.URL, StaticToken("tok-123"))
	_, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer tok-123", got)
}

func TestNoTokenNoHeader(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	c := New(ts.URL, StaticToken(""))
	_, err := c.ListPosts(context.Background(), ListPostsParams{})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestErrorDetailDecoded(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail": "Incorrect email or password"}`))
	}))
	defer ts.Close()

	c := New(ts.URL, nil)
	_, _, err := c.Login(context.Background(), "a@b.c", "wrong")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, "Incorrect email or password", apiErr.Detail)
	require.Contains(t, err.Error(), "Incorrect email or password")
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestErrorWithoutDetail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream broke"))
	}))
	defer ts.Close()

	c := New(ts.URL, nil)
	_, err := c.CurrentUser(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	require.Contains(t, apiErr.Error(), "unexpected status 502")
}

func TestListPostsQueryParams(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	c := New(ts.URL, nil)
	_, err := c.ListPosts(context.Background(), ListPostsParams{
		Skip:     10,
		Limit:    5,
		Search:   "graph theory",
		Category: "note",
	})
	require.NoError(t, err)
	require.Contains(t, got, "skip=10")
	require.Contains(t, got, "limit=5")
	require.Contains(t, got, "search=graph+theory")
	require.Contains(t, got, "category=note")
}

func TestNaiveTimestampParsed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{
			"id": "p1", "type": "note", "title": "t", "content": "c",
			"created_at": "2025-03-01T10:30:00.123456",
			"updated_at": "2025-03-01T10:30:00Z"
		}]`))
	}))
	defer ts.Close()

	c := New(ts.URL, nil)
	posts, err := c.ListPosts(context.Background(), ListPostsParams{})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, time.Date(2025, 3, 1, 10, 30, 0, 123456000, time.UTC), posts[0].CreatedAt)
	require.Equal(t, time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC), posts[0].UpdatedAt.UTC())
}

func TestUploadImageMultipart(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/upload/image", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		require.Equal(t, "avatar.png", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url": "http://cdn.example/avatar.png"}`))
	}))
	defer ts.Close()

	c := New(ts.URL, StaticToken("tok"))
	url, err := c.UploadImage(context.Background(), "avatar.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	require.Equal(t, "http://cdn.example/avatar.png", url)
}

func TestSendMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/messages/send", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "u2", body["recipient_id"])
		require.Equal(t, "hi", body["content"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "m1", "sender_id": "u1", "recipient_id": "u2", "content": "hi", "read": false}`))
	}))
	defer ts.Close()

	c := New(ts.URL, StaticToken("tok"))
	msg, err := c.SendMessage(context.Background(), "u2", "hi")
	require.NoError(t, err)
	require.Equal(t, "m1", msg.ID)
	require.False(t, msg.Read)
}

func TestSignupParamsValidate(t *testing.T) {
	valid := SignupParams{Name: "Ana", Username: "ana", Email: "ana@example.edu", Password: "longenough"}
	require.NoError(t, valid.Validate())

	short := valid
	short.Password = "short"
	require.Error(t, short.Validate())

	noEmail := valid
	noEmail.Email = "not-an-email"
	require.Error(t, noEmail.Validate())

	// Format checking only: a well-formed address on a domain that does not
	// resolve must still pass, and validation must never touch the network.
	unresolvable := valid
	unresolvable.Email = "ana@registrar.test"
	require.NoError(t, unresolvable.Validate())
}

func TestPostDraftValidate(t *testing.T) {
	note := PostDraft{Type: "note", Title: "t", Content: "c"}
	require.NoError(t, note.Validate())

	job := PostDraft{Type: "job", Title: "t", Content: "c"}
	require.Error(t, job.Validate(), "job without company/location must fail")

	job.Company = "Initech"
	job.Location = "Remote"
	require.NoError(t, job.Validate())

	bad := PostDraft{Type: "poll", Title: "t", Content: "c"}
	require.Error(t, bad.Validate())
}
