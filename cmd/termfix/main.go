// CLAUDE:SUMMARY termfix CLI: MCP server (stdio or QUIC/HTTPS) and dictionary management commands.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/hazyhaar/termfix/pkg/history"
	"github.com/hazyhaar/termfix/pkg/terms"
)

var version = "dev"

type cli struct {
	Terms     string `help:"Terms dictionary path. Without it: $TERM_FIXER_TERMS_PATH, then terms_path from the config, then ~/.claude/data/product-terms.json."`
	HistoryDB string `name:"history-db" help:"SQLite audit log of added variants; empty disables it." default:"${history_db}"`
	LogLevel  string `help:"debug, info, warn or error." default:"${log_level}" env:"TERMFIX_LOG_LEVEL"`

	Serve    serveCmd    `cmd:"" help:"Serve MCP tools over stdio." default:"1"`
	ServeNet serveNetCmd `cmd:"" name:"serve-net" help:"Serve the HTTP API and MCP over QUIC on one port."`
	Fix      fixCmd      `cmd:"" help:"Normalize text from arguments or stdin."`
	Add      addCmd      `cmd:"" help:"Add variants for a canonical name."`
	List     listCmd     `cmd:"" help:"List dictionary entries."`
	Init     initCmd     `cmd:"" help:"Create the dictionary with the default terms if it does not exist."`
	Import   importCmd   `cmd:"" help:"Merge a JSON dictionary from a URL or file."`
	History  historyCmd  `cmd:"" help:"Show recently added variants."`
	Version  versionCmd  `cmd:"" help:"Print the version."`
}

// app holds what every command needs, built once after flag parsing.
type app struct {
	cfg    config
	logger *slog.Logger
	norm   *terms.Normalizer
	hist   *history.DB
}

func (a *app) close() {
	if a.hist != nil {
		a.hist.Close()
	}
}

func newApp(c *cli, cfg config) (*app, error) {
	lvl, err := parseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	// stdout carries the MCP stdio stream; logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))

	a := &app{cfg: cfg, logger: logger}
	opts := []terms.Option{terms.WithLogger(logger)}
	if c.Terms != "" {
		opts = append(opts, terms.WithPath(terms.ExpandHome(c.Terms)))
	} else {
		opts = append(opts, terms.WithPathFunc(termsPathFunc(cfg.TermsPath)))
	}
	if c.HistoryDB != "" {
		hist, err := history.Open(terms.ExpandHome(c.HistoryDB))
		if err != nil {
			logger.Warn("history disabled", "path", c.HistoryDB, "error", err)
		} else {
			a.hist = hist
			opts = append(opts, terms.WithRecorder(hist))
		}
	}
	a.norm = terms.New(opts...)
	return a, nil
}

func main() {
	cfgPath := configPath()
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "termfix:", err)
		os.Exit(1)
	}

	var c cli
	kctx := kong.Parse(&c,
		kong.Name("termfix"),
		kong.Description("Normalize misspelled product and tool names using a JSON dictionary."),
		kong.UsageOnError(),
		cfg.vars(),
	)

	a, err := newApp(&c, cfg)
	kctx.FatalIfErrorf(err)
	defer a.close()
	a.logger.Debug("config", "path", cfgPath, "terms", a.norm.Path())

	kctx.FatalIfErrorf(kctx.Run(a))
}

type versionCmd struct{}

func (versionCmd) Run(_ *app) error {
	fmt.Println("termfix", version)
	return nil
}
