package collector

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testImpl = &mcp.Implementation{Name: "comsum-test", Version: "0.1.0"}

// mcpSession registers the coordinator's tools and returns a connected
// client session that can call them end-to-end.
func mcpSession(t *testing.T, co *Coordinator) *mcp.ClientSession {
	t.Helper()

	srv := mcp.NewServer(testImpl, nil)
	co.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()

	go func() {
		_ = srv.Run(ctx, serverT)
	}()

	client := mcp.NewClient(testImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })

	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string) *mcp.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: map[string]any{},
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	return result
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if err := result.GetError(); err != nil {
		t.Fatalf("tool error: %v", err)
	}
	if len(result.Content) == 0 {
		t.Fatal("empty tool content")
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func TestMCP_QuickReturnsResult(t *testing.T) {
	page := commentsPage("first comment here", "second comment here")
	co := newCoordinator(page, echoSummarizer("the gist"), &captureView{}, Config{})
	session := mcpSession(t, co)

	text := toolText(t, callTool(t, session, "comsum_quick"))

	var res Result
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if res.Mode != ModeQuick {
		t.Errorf("Mode = %q, want quick", res.Mode)
	}
	if res.CommentCount != 2 {
		t.Errorf("CommentCount = %d, want 2", res.CommentCount)
	}
	if res.Summary != "the gist" {
		t.Errorf("Summary = %q", res.Summary)
	}
}

func TestMCP_DeepOnEmptyPageIsToolError(t *testing.T) {
	page := commentsPage()
	co := newCoordinator(page, echoSummarizer("unused"), &captureView{}, Config{})
	session := mcpSession(t, co)

	result := callTool(t, session, "comsum_deep")
	err := result.GetError()
	if err == nil {
		t.Fatal("expected tool error for empty page")
	}
	if !strings.Contains(err.Error(), "no comments") {
		t.Errorf("tool error = %v, want mention of no comments", err)
	}
}

func TestMCP_StatusReportsIdle(t *testing.T) {
	page := commentsPage("a comment long enough")
	co := newCoordinator(page, echoSummarizer("ok"), &captureView{}, Config{})
	session := mcpSession(t, co)

	text := toolText(t, callTool(t, session, "comsum_status"))

	var status map[string]bool
	if err := json.Unmarshal([]byte(text), &status); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if status["busy"] {
		t.Error("idle coordinator reported busy")
	}
}

func TestMultiViewFansOut(t *testing.T) {
	a, b := &captureView{}, &captureView{}
	mv := MultiView{a, b}

	mv.SetBusy(true)
	mv.Loading(3)
	mv.Summary("text")
	mv.Error("oops")
	mv.SetBusy(false)
	mv.Clear()

	for i, v := range []*captureView{a, b} {
		busy, loading, summaries, errs := v.snapshot()
		if len(busy) != 2 || len(loading) != 1 || len(summaries) != 1 || len(errs) != 1 {
			t.Errorf("view %d missed calls: busy=%v loading=%v summaries=%v errs=%v",
				i, busy, loading, summaries, errs)
		}
		v.mu.Lock()
		clears := v.clears
		v.mu.Unlock()
		if clears != 1 {
			t.Errorf("view %d clears = %d, want 1", i, clears)
		}
	}
}
