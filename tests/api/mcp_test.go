package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// newMCPClient connects to the containerized server over streamable HTTP and
// runs the initialize handshake.
func newMCPClient(t *testing.T, env *ServerEnv) *client.Client {
	t.Helper()

	c, err := client.NewStreamableHttpClient(env.MCPURL())
	if err != nil {
		t.Fatalf("failed to create MCP client: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Start(ctx); err != nil {
		t.Fatalf("failed to start MCP client: %v", err)
	}

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{Name: "nestegg-smoke-test", Version: "1.0.0"}

	if _, err := c.Initialize(ctx, initRequest); err != nil {
		t.Fatalf("initialize handshake failed: %v", err)
	}
	return c
}

// callTool invokes a tool over the wire and returns its text content and
// error flag.
func callTool(t *testing.T, c *client.Client, name string, args map[string]any) (string, bool) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = args

	result, err := c.CallTool(ctx, request)
	if err != nil {
		t.Fatalf("tools/call %s failed: %v", name, err)
	}
	if len(result.Content) == 0 {
		t.Fatalf("tools/call %s returned no content", name)
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("tools/call %s returned non-text content: %T", name, result.Content[0])
	}
	return text.Text, result.IsError
}

func TestHealthAndVersionEndpoints(t *testing.T) {
	env := NewServerEnv(t)
	defer env.Cleanup()

	resp, err := http.Get(env.BaseURL() + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /health returned %d, expected 200", resp.StatusCode)
	}
	var health map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if health["status"] != "ok" {
		t.Errorf("expected status ok, got %q", health["status"])
	}

	resp, err = http.Get(env.BaseURL() + "/version")
	if err != nil {
		t.Fatalf("GET /version failed: %v", err)
	}
	defer resp.Body.Close()
	var version map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&version); err != nil {
		t.Fatalf("failed to decode version response: %v", err)
	}
	if version["version"] == "" {
		t.Error("expected non-empty version")
	}
}

func TestInitialize_ReportsServerInfo(t *testing.T) {
	env := NewServerEnv(t)
	defer env.Cleanup()

	c, err := client.NewStreamableHttpClient(env.MCPURL())
	if err != nil {
		t.Fatalf("failed to create MCP client: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Start(ctx); err != nil {
		t.Fatalf("failed to start MCP client: %v", err)
	}

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{Name: "nestegg-smoke-test", Version: "1.0.0"}

	result, err := c.Initialize(ctx, initRequest)
	if err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if result.ServerInfo.Name != "Nestegg-MCP" {
		t.Errorf("expected server name Nestegg-MCP, got %q", result.ServerInfo.Name)
	}
	if result.Capabilities.Tools == nil {
		t.Error("expected tool capabilities to be advertised")
	}
}

func TestToolsList_ExposesToolSurface(t *testing.T) {
	env := NewServerEnv(t)
	defer env.Cleanup()
	c := newMCPClient(t, env)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		t.Fatalf("tools/list failed: %v", err)
	}

	names := make(map[string]bool, len(result.Tools))
	for _, tool := range result.Tools {
		names[tool.Name] = true
	}

	// One representative tool per concern
	for _, want := range []string{
		"setup_owner",
		"list_owners",
		"add_position",
		"get_portfolio",
		"get_portfolio_valuation",
		"get_portfolio_history",
		"save_insight",
		"track_decision",
		"get_quote",
		"get_market_overview",
		"get_economic_indicators",
		"get_version",
	} {
		if !names[want] {
			t.Errorf("tools/list missing %s", want)
		}
	}
}

func TestOwnerPortfolioFlow(t *testing.T) {
	env := NewServerEnv(t)
	defer env.Cleanup()
	c := newMCPClient(t, env)

	text, isError := callTool(t, c, "setup_owner", map[string]any{
		"name":          "Jane Smith",
		"base_currency": "EUR",
	})
	if isError {
		t.Fatalf("setup_owner failed: %s", text)
	}
	if !strings.Contains(text, "jane_smith") {
		t.Errorf("expected slug jane_smith in response, got: %s", text)
	}

	text, isError = callTool(t, c, "add_position", map[string]any{
		"symbol":   "AAPL",
		"shares":   10.0,
		"price":    150.0,
		"currency": "USD",
		"sector":   "Technology",
	})
	if isError {
		t.Fatalf("add_position failed: %s", text)
	}

	text, isError = callTool(t, c, "update_cash", map[string]any{"amount": 2500.0})
	if isError {
		t.Fatalf("update_cash failed: %s", text)
	}
	if !strings.Contains(text, "€2,500.00") {
		t.Errorf("expected cash in base currency, got: %s", text)
	}

	text, isError = callTool(t, c, "get_portfolio", nil)
	if isError {
		t.Fatalf("get_portfolio failed: %s", text)
	}
	env.SaveResult("portfolio.md", []byte(text))
	for _, want := range []string{"Jane Smith", "AAPL", "Technology", "**Cash:** €2,500.00"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in portfolio summary, got: %s", want, text)
		}
	}
}

func TestDecisionAutoTracking(t *testing.T) {
	env := NewServerEnv(t)
	defer env.Cleanup()
	c := newMCPClient(t, env)

	if text, isError := callTool(t, c, "setup_owner", map[string]any{
		"name":          "John Doe",
		"base_currency": "USD",
	}); isError {
		t.Fatalf("setup_owner failed: %s", text)
	}

	if text, isError := callTool(t, c, "add_position", map[string]any{
		"symbol": "NVDA",
		"shares": 5.0,
		"price":  480.0,
		"notes":  "Starter position ahead of earnings",
	}); isError {
		t.Fatalf("add_position failed: %s", text)
	}

	text, isError := callTool(t, c, "get_decisions", map[string]any{"action": "buy"})
	if isError {
		t.Fatalf("get_decisions failed: %s", text)
	}
	if !strings.Contains(text, "BUY NVDA") || !strings.Contains(text, "Starter position ahead of earnings") {
		t.Errorf("expected auto-tracked buy decision, got: %s", text)
	}

	if text, isError := callTool(t, c, "remove_position", map[string]any{
		"symbol": "NVDA",
		"reason": "Rebalancing into index funds",
	}); isError {
		t.Fatalf("remove_position failed: %s", text)
	}

	text, isError = callTool(t, c, "get_decisions", map[string]any{"action": "sell"})
	if isError {
		t.Fatalf("get_decisions failed: %s", text)
	}
	if !strings.Contains(text, "SELL NVDA") || !strings.Contains(text, "Rebalancing into index funds") {
		t.Errorf("expected auto-tracked sell decision, got: %s", text)
	}
}

func TestInsightRoundTrip(t *testing.T) {
	env := NewServerEnv(t)
	defer env.Cleanup()
	c := newMCPClient(t, env)

	if text, isError := callTool(t, c, "setup_owner", map[string]any{
		"name":          "Jane Smith",
		"base_currency": "EUR",
	}); isError {
		t.Fatalf("setup_owner failed: %s", text)
	}

	text, isError := callTool(t, c, "save_insight", map[string]any{
		"category": "stock",
		"content":  "Services revenue growing 15% yearly",
		"symbol":   "AAPL",
		"tags":     []string{"earnings", "services"},
	})
	if isError {
		t.Fatalf("save_insight failed: %s", text)
	}

	text, isError = callTool(t, c, "get_insights", map[string]any{"symbol": "AAPL"})
	if isError {
		t.Fatalf("get_insights failed: %s", text)
	}
	if !strings.Contains(text, "Services revenue growing 15% yearly") {
		t.Errorf("expected saved insight in recall, got: %s", text)
	}
	if !strings.Contains(text, "earnings, services") {
		t.Errorf("expected tags in recall, got: %s", text)
	}
}

func TestToolError_UnknownOwner(t *testing.T) {
	env := NewServerEnv(t)
	defer env.Cleanup()
	c := newMCPClient(t, env)

	text, isError := callTool(t, c, "switch_owner", map[string]any{"owner": "ghost"})
	if !isError {
		t.Fatalf("expected tool error for unknown owner, got: %s", text)
	}
	if !strings.Contains(text, "Error:") {
		t.Errorf("expected Error: prefix, got: %s", text)
	}
}
