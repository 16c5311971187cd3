package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/mannaz/internal/feed"
	"github.com/starford/mannaz/internal/messaging"
	"github.com/starford/mannaz/internal/remote"
	"github.com/starford/mannaz/internal/session"
	"github.com/starford/mannaz/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	baseURL, _ := testutil.StubBackend(t)
	creds := testutil.TestCredStore(t)

	client := remote.New(baseURL, creds)
	sess := session.New(client, creds, nil)
	if err := sess.Login(context.Background(), "ana@example.edu", "ana-password"); err != nil {
		t.Fatal(err)
	}
	return New(sess, feed.New(client, nil), messaging.New(client, nil))
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper; call the handlers.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "whoami":
		result, err = srv.whoami(ctx, req)
	case "list_posts":
		result, err = srv.listPosts(ctx, req)
	case "search_posts":
		result, err = srv.searchPosts(ctx, req)
	case "create_post":
		result, err = srv.createPost(ctx, req)
	case "add_reply":
		result, err = srv.addReply(ctx, req)
	case "get_post_contract":
		result, err = srv.getPostContract(ctx, req)
	case "list_conversations":
		result, err = srv.listConversations(ctx, req)
	case "read_messages":
		result, err = srv.readMessages(ctx, req)
	case "send_message":
		result, err = srv.sendMessage(ctx, req)
	case "search_users":
		result, err = srv.searchUsers(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestWhoami(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "whoami", map[string]interface{}{})
	if text := resultText(r); !strings.Contains(text, `"username": "ana"`) {
		t.Errorf("whoami = %q", text)
	}
}

func TestListAndSearchPosts(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "list_posts", map[string]interface{}{})
	if text := resultText(r); !strings.Contains(text, "Graph algorithms summary") {
		t.Errorf("list_posts = %q", text)
	}

	r = callTool(t, srv, "search_posts", map[string]interface{}{
		"query": "graph", "category": "note",
	})
	text := resultText(r)
	if !strings.Contains(text, "Graph algorithms summary") || strings.Contains(text, "Backend intern") {
		t.Errorf("search_posts = %q", text)
	}
}

func TestCreatePostAndReply(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "create_post", map[string]interface{}{
		"type":    "note",
		"title":   "MCP note",
		"content": "written by a tool",
		"tags":    "mcp, tools",
	})
	text := resultText(r)
	if !strings.HasPrefix(text, "created post ") {
		t.Fatalf("create_post = %q", text)
	}
	postID := strings.TrimPrefix(text, "created post ")

	r = callTool(t, srv, "add_reply", map[string]interface{}{
		"post_id": postID,
		"content": "replying to myself",
	})
	if text := resultText(r); !strings.HasPrefix(text, "created reply ") {
		t.Errorf("add_reply = %q", text)
	}
}

func TestCreatePostJobRequiresCompany(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "create_post", map[string]interface{}{
		"type":    "job",
		"title":   "Intern",
		"content": "apply now",
	})
	if !r.IsError {
		t.Error("job post without company/location should fail validation")
	}
}

func TestPostContract(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_post_contract", map[string]interface{}{})
	if text := resultText(r); !strings.Contains(text, "Post Format Contract") {
		t.Errorf("contract = %q", text)
	}
}

func TestMessagingTools(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "list_conversations", map[string]interface{}{})
	if text := resultText(r); !strings.Contains(text, "boris") {
		t.Errorf("list_conversations = %q", text)
	}

	r = callTool(t, srv, "search_users", map[string]interface{}{"query": "boris"})
	if text := resultText(r); !strings.Contains(text, "user_boris") {
		t.Errorf("search_users = %q", text)
	}

	r = callTool(t, srv, "send_message", map[string]interface{}{
		"recipient_id": "user_boris",
		"content":      "hello from a tool",
	})
	if text := resultText(r); text != "message sent" {
		t.Errorf("send_message = %q", text)
	}

	r = callTool(t, srv, "read_messages", map[string]interface{}{"user_id": "user_boris"})
	if text := resultText(r); !strings.Contains(text, "hello from a tool") {
		t.Errorf("read_messages = %q", text)
	}
}

func TestSearchUsersShortQuery(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "search_users", map[string]interface{}{"query": "b"})
	if text := resultText(r); text != "no users found" {
		t.Errorf("short query = %q", text)
	}
}
