// Package remote wraps every outbound request to the backend. It attaches the
// bearer token, normalizes error responses into *APIError, and reshapes the
// snake_case wire payloads into the client entity shapes from models.
//
// There is deliberately no retry, no timeout, and no backoff: a failed call
// fails immediately and the error propagates to the caller.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/starford/mannaz/internal/apperr"
	"github.com/starford/mannaz/internal/models"
)

// TokenSource supplies the bearer token for authenticated calls. An empty
// token means the call proceeds unauthenticated and the server decides.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a TokenSource holding a fixed token. Useful for tests and
// for the stub tooling.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token() (string, error) { return string(t), nil }

// APIError is a non-2xx backend response. Detail carries the server-supplied
// message when the body parsed; otherwise Error falls back to a generic
// status-coded message.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server: %s (status %d)", e.Detail, e.StatusCode)
	}
	return fmt.Sprintf("server: unexpected status %d", e.StatusCode)
}

// Unwrap maps the status code onto a sentinel so callers can branch with
// errors.Is instead of inspecting codes.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperr.ErrUnauthenticated
	case http.StatusNotFound:
		return apperr.ErrNotFound
	case http.StatusConflict:
		return apperr.ErrAlreadyExists
	}
	return nil
}

// Client is the REST client for the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// Option is a functional option for configuring the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client for the given base URL. tokens may be nil for a client
// that only performs unauthenticated calls.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// No Timeout on purpose: the contract is fail-fast on transport
		// errors only, never a client-side deadline.
		httpClient: &http.Client{},
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges credentials for a bearer token and the signed-in profile.
func (c *Client) Login(ctx context.Context, email, password string) (models.User, string, error) {
	var resp authResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", nil,
		map[string]string{"email": email, "password": password}, &resp)
	if err != nil {
		return models.User{}, "", fmt.Errorf("login: %w", err)
	}
	return resp.User.toModel(), resp.AccessToken, nil
}

// Signup creates a new identity server-side and signs it in.
func (c *Client) Signup(ctx context.Context, params SignupParams) (models.User, string, error) {
	var resp authResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/signup", nil, params, &resp)
	if err != nil {
		return models.User{}, "", fmt.Errorf("signup: %w", err)
	}
	return resp.User.toModel(), resp.AccessToken, nil
}

// ForgotPassword requests a reset email. The server answers identically
// whether or not the address is registered.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	err := c.doJSON(ctx, http.MethodPost, "/auth/forgot-password", nil,
		map[string]string{"email": email}, nil)
	if err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	return nil
}

// ResetPassword redeems a reset token for a new password.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	err := c.doJSON(ctx, http.MethodPost, "/auth/reset-password", nil,
		map[string]string{"token": token, "new_password": newPassword}, nil)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// CurrentUser verifies the stored token and returns the identity behind it.
func (c *Client) CurrentUser(ctx context.Context) (models.User, error) {
	var resp wireUser
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, nil, &resp); err != nil {
		return models.User{}, fmt.Errorf("current user: %w", err)
	}
	return resp.toModel(), nil
}

// UpdateProfile sends only the provided fields and returns the merged profile.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (models.User, error) {
	var resp wireUser
	if err := c.doJSON(ctx, http.MethodPut, "/auth/profile", nil, update, &resp); err != nil {
		return models.User{}, fmt.Errorf("update profile: %w", err)
	}
	return resp.toModel(), nil
}

// CreatePost submits a draft and returns the stored post.
func (c *Client) CreatePost(ctx context.Context, draft PostDraft) (models.Post, error) {
	var resp wirePost
	if err := c.doJSON(ctx, http.MethodPost, "/posts", nil, draft, &resp); err != nil {
		return models.Post{}, fmt.Errorf("create post: %w", err)
	}
	return resp.toModel(), nil
}

// ListPosts fetches posts, optionally filtered server-side.
func (c *Client) ListPosts(ctx context.Context, params ListPostsParams) ([]models.Post, error) {
	q := url.Values{}
	if params.Skip > 0 {
		q.Set("skip", strconv.Itoa(params.Skip))
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Search != "" {
		q.Set("search", params.Search)
	}
	if params.Category != "" {
		q.Set("category", params.Category)
	}

	var resp []wirePost
	if err := c.doJSON(ctx, http.MethodGet, "/posts", q, nil, &resp); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	posts := make([]models.Post, len(resp))
	for i, p := range resp {
		posts[i] = p.toModel()
	}
	return posts, nil
}

// AddReply appends a reply to the given post and returns the stored reply.
func (c *Client) AddReply(ctx context.Context, postID, content string) (models.Reply, error) {
	var resp wireReply
	err := c.doJSON(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/replies", nil,
		map[string]string{"content": content}, &resp)
	if err != nil {
		return models.Reply{}, fmt.Errorf("add reply: %w", err)
	}
	return resp.toModel(), nil
}

// UserProfile fetches a user's public profile.
func (c *Client) UserProfile(ctx context.Context, userID string) (models.User, error) {
	var resp wireUser
	if err := c.doJSON(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), nil, nil, &resp); err != nil {
		return models.User{}, fmt.Errorf("user profile: %w", err)
	}
	return resp.toModel(), nil
}

// SearchUsers finds message recipients by name or username.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	q := url.Values{}
	q.Set("q", query)

	var resp []wireUser
	if err := c.doJSON(ctx, http.MethodGet, "/users/search", q, nil, &resp); err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	users := make([]models.User, len(resp))
	for i, u := range resp {
		users[i] = u.toModel()
	}
	return users, nil
}

// Conversations fetches the full inbox listing.
func (c *Client) Conversations(ctx context.Context) ([]models.Conversation, error) {
	var resp []wireConversation
	if err := c.doJSON(ctx, http.MethodGet, "/messages/conversations", nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("conversations: %w", err)
	}
	convs := make([]models.Conversation, len(resp))
	for i, w := range resp {
		convs[i] = w.toModel()
	}
	return convs, nil
}

// MessagesWith fetches the message history with the given counterpart.
func (c *Client) MessagesWith(ctx context.Context, userID string) ([]models.Message, error) {
	var resp []wireMessage
	err := c.doJSON(ctx, http.MethodGet, "/messages/with/"+url.PathEscape(userID), nil, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("messages with %s: %w", userID, err)
	}
	msgs := make([]models.Message, len(resp))
	for i, m := range resp {
		msgs[i] = m.toModel()
	}
	return msgs, nil
}

// SendMessage delivers a direct message and returns the stored message.
func (c *Client) SendMessage(ctx context.Context, recipientID, content string) (models.Message, error) {
	var resp wireMessage
	err := c.doJSON(ctx, http.MethodPost, "/messages/send", nil,
		map[string]string{"recipient_id": recipientID, "content": content}, &resp)
	if err != nil {
		return models.Message{}, fmt.Errorf("send message: %w", err)
	}
	return resp.toModel(), nil
}

// doJSON performs one request/response cycle: attach auth, send JSON, check
// status, decode into out (when non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.attachAuth(req)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return decodeError(res)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// attachAuth sets the Authorization header when a token is available.
func (c *Client) attachAuth(req *http.Request) {
	if c.tokens == nil {
		return
	}
	token, err := c.tokens.Token()
	if err != nil || token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
}

// decodeError converts a non-2xx response into *APIError, preferring the
// server's structured detail message.
func decodeError(res *http.Response) error {
	buf, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))

	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(buf, &payload); err == nil && payload.Detail != "" {
		return &APIError{StatusCode: res.StatusCode, Detail: payload.Detail}
	}
	return &APIError{StatusCode: res.StatusCode}
}
