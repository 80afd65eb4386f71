package api

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/termfix/pkg/kit"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ServerName is the MCP implementation name announced to clients.
const ServerName = "product-name-normalizer"

// NewMCPServer returns an MCP server with every tool registered.
func NewMCPServer(eps *Endpoints, version string) *server.MCPServer {
	srv := server.NewMCPServer(ServerName, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	RegisterMCPTools(srv, eps)
	return srv
}

// RegisterMCPTools registers the term tools on the server.
func RegisterMCPTools(srv *server.MCPServer, eps *Endpoints) {
	registerFixTerms(srv, eps)
	registerAddTerm(srv, eps)
	registerListTerms(srv, eps)
	registerHistory(srv, eps)
}

func registerFixTerms(srv *server.MCPServer, eps *Endpoints) {
	tool := mcp.NewTool("fix_terms",
		mcp.WithDescription("Correct product/tool names in the given text."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to normalize; content inside <...> markup is left alone")),
	)

	kit.RegisterMCPTool(srv, tool, eps.FixTerms, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		text, ok := args["text"].(string)
		if !ok {
			return nil, fmt.Errorf("text must be a string")
		}
		return &kit.MCPDecodeResult{Request: &fixTermsReq{Text: text}}, nil
	})
}

func registerAddTerm(srv *server.MCPServer, eps *Endpoints) {
	tool := mcp.NewTool("add_term",
		mcp.WithDescription("Add or extend a term mapping in the local terms dictionary."),
		mcp.WithString("correct", mcp.Required(), mcp.Description("Canonical spelling, e.g. Claude Code")),
		mcp.WithArray("wrong_variants", mcp.Required(),
			mcp.Description("Misspellings to rewrite to the canonical spelling"),
			mcp.WithStringItems(),
		),
	)

	kit.RegisterMCPTool(srv, tool, eps.AddTerm, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		correct, _ := args["correct"].(string)
		variants, err := stringList(args["wrong_variants"])
		if err != nil {
			return nil, fmt.Errorf("wrong_variants: %w", err)
		}
		return &kit.MCPDecodeResult{Request: &addTermReq{Correct: correct, WrongVariants: variants}}, nil
	})
}

func registerListTerms(srv *server.MCPServer, eps *Endpoints) {
	tool := mcp.NewTool("list_terms",
		mcp.WithDescription("List the canonical names and variants in the terms dictionary."),
	)

	kit.RegisterMCPTool(srv, tool, eps.ListTerms, func(_ mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	})
}

func registerHistory(srv *server.MCPServer, eps *Endpoints) {
	tool := mcp.NewTool("term_history",
		mcp.WithDescription("Show recently added variants, newest first."),
		mcp.WithString("canonical", mcp.Description("Only show additions for this canonical name")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of events (default 50)")),
	)

	kit.RegisterMCPTool(srv, tool, eps.History, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		canonical, _ := args["canonical"].(string)
		limit := 0
		if v, ok := args["limit"].(float64); ok {
			limit = int(v)
		}
		return &kit.MCPDecodeResult{Request: &historyReq{Canonical: canonical, Limit: limit}}, nil
	})
}

// stringList accepts a JSON array of strings or a comma-separated string.
func stringList(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		parts := strings.Split(t, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	case []string:
		return t, nil
	case []any:
		out := make([]string, 0, len(t))
		for i, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("item %d is %T, want string", i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("got %T, want array of strings", v)
	}
}
