package chassis

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hazyhaar/termfix/pkg/mcpquic"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func TestHeaders(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		addr   string
		altSvc string
	}{
		{":8443", `h3=":8443"; ma=86400`},
		{"127.0.0.1:9000", `h3=":9000"; ma=86400`},
		{"bogus", ""},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			rec := httptest.NewRecorder()
			securityHeaders(altSvc(tt.addr, ok)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			if got := rec.Header().Get("Alt-Svc"); got != tt.altSvc {
				t.Errorf("Alt-Svc = %q, want %q", got, tt.altSvc)
			}
			if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
				t.Error("missing nosniff")
			}
			if rec.Code != http.StatusNoContent {
				t.Errorf("status = %d", rec.Code)
			}
		})
	}
}

func TestNew(t *testing.T) {
	if _, err := New(Config{Addr: ":0"}); err == nil {
		t.Error("expected error for nil handler")
	}

	s, err := New(Config{Addr: ":0", Handler: http.NotFoundHandler()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.mcp != nil {
		t.Error("mcp handler set without an MCP server")
	}
	if got := s.tlsCfg.NextProtos; len(got) != 2 || got[0] != "h3" {
		t.Errorf("NextProtos = %v", got)
	}
}

func TestServe_Loopback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	mcpSrv := server.NewMCPServer("chassis-test", "0")
	mcpSrv.AddTool(mcp.NewTool("ping"), func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("pong"), nil
	})

	s, err := New(Config{
		Addr:      "127.0.0.1:0",
		Handler:   mux,
		MCPServer: mcpSrv,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	// HTTPS over TCP.
	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}},
	}
	resp, err := httpClient.Get("https://" + s.Addr() + "/v1/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	var body struct{ Status string }
	json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		t.Errorf("health = %d %+v", resp.StatusCode, body)
	}
	if resp.Header.Get("Alt-Svc") == "" {
		t.Error("missing Alt-Svc")
	}
	httpClient.CloseIdleConnections()

	// MCP over QUIC on the same port.
	dialCtx, dialCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer dialCancel()
	c, err := mcpquic.Dial(dialCtx, s.Addr(), mcpquic.ClientTLSConfig(true))
	if err != nil {
		t.Fatalf("mcpquic.Dial: %v", err)
	}
	got, err := c.CallTool(dialCtx, "ping", nil)
	c.Close()
	if err != nil || got != "pong" {
		t.Errorf("ping = %q, %v", got, err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServe_BeforeListen(t *testing.T) {
	s, err := New(Config{Addr: ":0", Handler: http.NotFoundHandler()})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Serve(context.Background()); err == nil {
		t.Error("expected error when serving before Listen")
	}
}
