// Package mcpserver exposes the client stores as MCP (Model Context Protocol)
// tools over stdio, so an LLM can browse the feed, post, and message on behalf
// of the signed-in user.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/mannaz/internal/feed"
	"github.com/starford/mannaz/internal/messaging"
	"github.com/starford/mannaz/internal/remote"
	"github.com/starford/mannaz/internal/session"
)

// Server wraps the MCP server with Mannaz tools.
type Server struct {
	mcp       *server.MCPServer
	session   *session.Store
	feed      *feed.Store
	messaging *messaging.Store
}

// New creates an MCP server with all Mannaz tools registered. Tool calls run
// against the same stores the CLI uses, so the session restored at startup
// carries over.
func New(sess *session.Store, feedStore *feed.Store, msgStore *messaging.Store) *Server {
	s := &Server{session: sess, feed: feedStore, messaging: msgStore}

	s.mcp = server.NewMCPServer(
		"Mannaz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("whoami",
		mcp.WithDescription("Returns the signed-in user profile, or the session state when not signed in."),
	), s.whoami)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("Fetch the current feed, newest first."),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("search_posts",
		mcp.WithDescription("Search posts server-side by text and/or category. "+
			"Category is one of: note, job, thread, all."),
		mcp.WithString("query", mcp.Description("Search text matched against title, content, author and tags")),
		mcp.WithString("category", mcp.Description("Post category filter (note, job, thread, all)")),
	), s.searchPosts)

	s.mcp.AddTool(mcp.NewTool("create_post",
		mcp.WithDescription("Create a post. Content MUST follow the post format contract: "+
			"read it first via the get_post_contract tool or the mannaz://post-format resource."),
		mcp.WithString("type", mcp.Required(), mcp.Description("Post type: note, job, or thread")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Post title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Post body text")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags (notes only)")),
		mcp.WithString("company", mcp.Description("Hiring company (jobs only, required for jobs)")),
		mcp.WithString("location", mcp.Description("Job location (jobs only, required for jobs)")),
		mcp.WithString("job_link", mcp.Description("Application link (jobs only)")),
	), s.createPost)

	s.mcp.AddTool(mcp.NewTool("add_reply",
		mcp.WithDescription("Reply to an existing post."),
		mcp.WithString("post_id", mcp.Required(), mcp.Description("ID of the post to reply to")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Reply text")),
	), s.addReply)

	s.mcp.AddTool(mcp.NewTool("get_post_contract",
		mcp.WithDescription("Returns the canonical post format contract. "+
			"Call this before creating posts to pick the right type and fields."),
	), s.getPostContract)

	s.mcp.AddTool(mcp.NewTool("list_conversations",
		mcp.WithDescription("List direct-message conversations, most recent first, with unread counts."),
	), s.listConversations)

	s.mcp.AddTool(mcp.NewTool("read_messages",
		mcp.WithDescription("Read the full message history with one user, oldest first. Marks their messages as read."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("ID of the conversation counterpart")),
	), s.readMessages)

	s.mcp.AddTool(mcp.NewTool("send_message",
		mcp.WithDescription("Send a direct message to a user."),
		mcp.WithString("recipient_id", mcp.Required(), mcp.Description("ID of the recipient")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Message text")),
	), s.sendMessage)

	s.mcp.AddTool(mcp.NewTool("search_users",
		mcp.WithDescription("Find users by name or username. Queries shorter than two characters return nothing."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Name or username fragment")),
	), s.searchUsers)

	// Resource: post format contract.
	s.mcp.AddResource(
		mcp.NewResource("mannaz://post-format", "Post Format Contract",
			mcp.WithResourceDescription("Canonical post structure for notes, job postings and discussion threads."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPostFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) whoami(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := s.session.Snapshot()
	if snap.User == nil {
		return mcp.NewToolResultText(fmt.Sprintf("session: %s", snap.State)), nil
	}
	out, _ := json.MarshalIndent(snap.User, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.feed.LoadPosts(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(s.feed.Snapshot().Visible, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	category := req.GetString("category", "")

	s.feed.Filter(ctx, query, category)
	snap := s.feed.Snapshot()
	if snap.FilterErr != nil {
		return mcp.NewToolResultError(snap.FilterErr.Error()), nil
	}
	out, _ := json.MarshalIndent(snap.Visible, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	postType, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	draft := remote.PostDraft{
		Type:     postType,
		Title:    title,
		Content:  content,
		Tags:     feed.SplitTags(req.GetString("tags", "")),
		Company:  req.GetString("company", ""),
		Location: req.GetString("location", ""),
		JobLink:  req.GetString("job_link", ""),
	}
	if err := draft.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	post, err := s.feed.CreatePost(ctx, draft)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created post %s", post.ID)), nil
}

func (s *Server) addReply(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	postID, err := req.RequireString("post_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	reply, err := s.feed.AddReply(ctx, postID, content)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created reply %s", reply.ID)), nil
}

func (s *Server) getPostContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PostFormatContract), nil
}

func (s *Server) readPostFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "mannaz://post-format",
			MIMEType: "text/markdown",
			Text:     PostFormatContract,
		},
	}, nil
}

func (s *Server) listConversations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.messaging.LoadConversations(ctx)
	snap := s.messaging.Snapshot()
	if snap.Err != nil {
		return mcp.NewToolResultError(snap.Err.Error()), nil
	}
	out, _ := json.MarshalIndent(snap.Conversations, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readMessages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.messaging.LoadMessages(ctx, userID)
	snap := s.messaging.Snapshot()
	if snap.Err != nil {
		return mcp.NewToolResultError(snap.Err.Error()), nil
	}
	out, _ := json.MarshalIndent(snap.Messages, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) sendMessage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recipientID, err := req.RequireString("recipient_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.messaging.SendMessage(ctx, recipientID, content); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("message sent"), nil
}

func (s *Server) searchUsers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	users := s.messaging.SearchUsers(ctx, query)
	if len(users) == 0 {
		return mcp.NewToolResultText("no users found"), nil
	}
	out, _ := json.MarshalIndent(users, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
