package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hazyhaar/termfix/pkg/api"
	"github.com/hazyhaar/termfix/pkg/chassis"
	"github.com/mark3labs/mcp-go/server"
)

type serveCmd struct {
	Watch time.Duration `help:"Dictionary poll interval; 0 disables polling." default:"${watch_interval}"`
}

func (cmd *serveCmd) Run(a *app) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eps := api.NewEndpoints(a.norm, a.hist, a.logger)
	srv := api.NewMCPServer(eps, version)
	a.startWatch(ctx, cmd.Watch)

	stdio := server.NewStdioServer(srv)
	stdio.SetErrorLogger(slog.NewLogLogger(a.logger.Handler(), slog.LevelError))

	a.logger.Info("mcp stdio server started", "terms", a.norm.Path(), "history", a.hist != nil)
	err := stdio.Listen(ctx, os.Stdin, os.Stdout)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

type serveNetCmd struct {
	Addr  string        `help:"TCP and UDP listen address." default:"${addr}"`
	Cert  string        `help:"TLS certificate file; self-signed when empty." default:"${cert_file}"`
	Key   string        `help:"TLS key file." default:"${key_file}"`
	NoMCP bool          `name:"no-mcp" help:"Do not serve MCP over QUIC."`
	Watch time.Duration `help:"Dictionary poll interval; 0 disables polling." default:"${watch_interval}"`
}

func (cmd *serveNetCmd) Run(a *app) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eps := api.NewEndpoints(a.norm, a.hist, a.logger)
	cfg := chassis.Config{
		Addr:     cmd.Addr,
		CertFile: cmd.Cert,
		KeyFile:  cmd.Key,
		Handler:  api.NewRouter(eps),
		Logger:   a.logger,
	}
	if !cmd.NoMCP {
		cfg.MCPServer = api.NewMCPServer(eps, version)
	}
	srv, err := chassis.New(cfg)
	if err != nil {
		return err
	}
	a.startWatch(ctx, cmd.Watch)
	return srv.Run(ctx)
}

// startWatch keeps the compiled rules warm while ctx lives.
func (a *app) startWatch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go a.norm.Cache().Watch(ctx, a.norm.Path, interval)
}
