package shell

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/omnibrowser/redix/kit"
)

// RegisterMCP registers the shell's tools on an MCP server, giving agents
// the same surface the HTTP API exposes: tabs, snapshots, context,
// privacy, and the local page cache.
func (s *Shell) RegisterMCP(srv *mcp.Server) {
	s.registerSnapshotCapture(srv)
	s.registerSnapshotRestore(srv)
	s.registerSnapshotStats(srv)
	s.registerContextSave(srv)
	s.registerContextFetch(srv)
	s.registerTabList(srv)
	s.registerTabCreate(srv)
	s.registerPrivacyGet(srv)
	s.registerPrivacySet(srv)
	s.registerHistorySearch(srv)
	s.registerPageSearch(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// --- snapshot_capture ---

type captureReq struct {
	TabID   string          `json:"tabId"`
	Payload json.RawMessage `json:"payload"`
}

func (s *Shell) registerSnapshotCapture(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "snapshot_capture",
		Description: "Capture a tab's serialized state into the tiered snapshot store.",
		InputSchema: inputSchema(map[string]any{
			"tabId":   map[string]any{"type": "string", "description": "Tab identifier"},
			"payload": map[string]any{"type": "object", "description": "Snapshot payload with state and optional meta"},
		}, []string{"tabId", "payload"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*captureReq)
		return s.CaptureSnapshot(ctx, r.TabID, r.Payload)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r captureReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r, EnrichCtx: func(ctx context.Context) context.Context {
			return kit.WithTabID(ctx, r.TabID)
		}}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- snapshot_restore ---

type tabIDReq struct {
	TabID string `json:"tabId"`
}

func decodeTabID(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	var r tabIDReq
	if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
		return nil, err
	}
	return &kit.MCPDecodeResult{Request: &r, EnrichCtx: func(ctx context.Context) context.Context {
		return kit.WithTabID(ctx, r.TabID)
	}}, nil
}

func (s *Shell) registerSnapshotRestore(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "snapshot_restore",
		Description: "Restore a tab's snapshot. Returns null when no snapshot exists.",
		InputSchema: inputSchema(map[string]any{
			"tabId": map[string]any{"type": "string", "description": "Tab identifier"},
		}, []string{"tabId"}),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*tabIDReq)
		res := s.RestoreSnapshot(r.TabID)
		if res == nil {
			return map[string]any{"snapshot": nil}, nil
		}
		return res, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeTabID)
}

// --- snapshot_stats ---

func (s *Shell) registerSnapshotStats(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "snapshot_stats",
		Description: "Report snapshot tier occupancy: hot entries, cold entries, cold bytes, eviction count.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		return s.SnapshotStats(), nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- context_save / context_fetch ---

type contextSaveReq struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

func (s *Shell) registerContextSave(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "context_save",
		Description: "Store an opaque JSON value in the tab context map.",
		InputSchema: inputSchema(map[string]any{
			"key":   map[string]any{"type": "string", "description": "Context key"},
			"value": map[string]any{"description": "Arbitrary JSON value"},
		}, []string{"key", "value"}),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*contextSaveReq)
		if err := s.SaveTabContext(r.Key, r.Value); err != nil {
			return nil, err
		}
		return map[string]string{"status": "saved"}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r contextSaveReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

type contextFetchReq struct {
	Key string `json:"key"`
}

func (s *Shell) registerContextFetch(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "context_fetch",
		Description: "Fetch a value from the tab context map. Returns null when the key is unknown.",
		InputSchema: inputSchema(map[string]any{
			"key": map[string]any{"type": "string", "description": "Context key"},
		}, []string{"key"}),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*contextFetchReq)
		rec := s.TabContext(r.Key)
		if rec == nil {
			return map[string]any{"context": nil}, nil
		}
		return rec, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r contextFetchReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- tab_list / tab_create ---

func (s *Shell) registerTabList(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "tab_list",
		Description: "List all open tabs with their state.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		return s.ListTabs(), nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

type tabCreateReq struct {
	URL     string `json:"url"`
	AppMode string `json:"appMode"`
}

func (s *Shell) registerTabCreate(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "tab_create",
		Description: "Open a new tab in the current privacy mode.",
		InputSchema: inputSchema(map[string]any{
			"url":     map[string]any{"type": "string", "description": "Initial URL"},
			"appMode": map[string]any{"type": "string", "description": "App mode for the tab"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*tabCreateReq)
		return s.CreateTab(ctx, r.URL, r.AppMode)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r tabCreateReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- privacy_get / privacy_set ---

func (s *Shell) registerPrivacyGet(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "privacy_get",
		Description: "Return the active privacy policy.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		return s.PrivacyPolicy(), nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

type privacySetReq struct {
	Mode string `json:"mode"`
}

func (s *Shell) registerPrivacySet(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "privacy_set",
		Description: "Switch the privacy mode (normal, private, ghost).",
		InputSchema: inputSchema(map[string]any{
			"mode": map[string]any{"type": "string", "enum": []string{"normal", "private", "ghost"}},
		}, []string{"mode"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*privacySetReq)
		return s.SetPrivacyMode(ctx, r.Mode)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r privacySetReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- history_search / page_search ---

type searchReq struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func decodeSearch(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	var r searchReq
	if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
		return nil, err
	}
	return &kit.MCPDecodeResult{Request: &r}, nil
}

func (s *Shell) registerHistorySearch(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "history_search",
		Description: "Search browsing history by URL or title.",
		InputSchema: inputSchema(map[string]any{
			"query": map[string]any{"type": "string", "description": "Search terms"},
			"limit": map[string]any{"type": "integer", "description": "Max results, default 50"},
		}, []string{"query"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*searchReq)
		return s.SearchHistory(ctx, r.Query, r.Limit)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeSearch)
}

func (s *Shell) registerPageSearch(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "page_search",
		Description: "Search the local page cache by URL, title, or content.",
		InputSchema: inputSchema(map[string]any{
			"query": map[string]any{"type": "string", "description": "Search terms"},
			"limit": map[string]any{"type": "integer", "description": "Max results, default 50"},
		}, []string{"query"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*searchReq)
		return s.SearchPages(ctx, r.Query, r.Limit)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeSearch)
}
