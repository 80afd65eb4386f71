package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/hazyhaar/termfix/pkg/importer"
	"github.com/hazyhaar/termfix/pkg/mcpquic"
	"github.com/hazyhaar/termfix/pkg/terms"
)

// remoteFlags send a command to a serve-net instance instead of the local file.
type remoteFlags struct {
	Remote   string `help:"host:port of a termfix serve-net instance (MCP over QUIC)."`
	Insecure bool   `help:"Skip TLS verification for --remote."`
}

func (r remoteFlags) call(tool string, args map[string]any) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := mcpquic.Dial(ctx, r.Remote, mcpquic.ClientTLSConfig(r.Insecure))
	if err != nil {
		return "", err
	}
	defer c.Close()
	return c.CallTool(ctx, tool, args)
}

type fixCmd struct {
	remoteFlags
	Text []string `arg:"" optional:"" help:"Text to normalize; read from stdin when omitted."`
}

func (cmd *fixCmd) Run(a *app) error {
	text := strings.Join(cmd.Text, " ")
	if len(cmd.Text) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}

	if cmd.Remote != "" {
		out, err := cmd.call("fix_terms", map[string]any{"text": text})
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}
	fmt.Print(a.norm.FixTerms(text))
	if len(cmd.Text) > 0 {
		fmt.Println()
	}
	return nil
}

type addCmd struct {
	remoteFlags
	Correct  string   `arg:"" help:"Canonical spelling."`
	Variants []string `arg:"" help:"Misspellings to rewrite."`
}

func (cmd *addCmd) Run(a *app) error {
	var (
		msg string
		err error
	)
	if cmd.Remote != "" {
		msg, err = cmd.call("add_term", map[string]any{"correct": cmd.Correct, "wrong_variants": cmd.Variants})
	} else {
		msg, err = a.norm.AddTerm(cmd.Correct, cmd.Variants)
	}
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

type listCmd struct {
	JSON bool `help:"Print the dictionary as JSON."`
}

func (cmd *listCmd) Run(a *app) error {
	d, err := a.norm.Terms()
	if err != nil {
		return err
	}
	if cmd.JSON {
		data, err := json.Marshal(d)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, e := range d.Entries() {
		fmt.Fprintf(tw, "%s\t%s\n", e.Canonical, strings.Join(e.Variants, ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%d entries, %d variants in %s\n", d.Len(), d.VariantCount(), a.norm.Path())
	return nil
}

type initCmd struct{}

func (initCmd) Run(a *app) error {
	path := a.norm.Path()
	created, err := terms.EnsureFile(path)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("created %s with %d default terms\n", path, terms.DefaultDictionary().Len())
	} else {
		fmt.Printf("%s already exists\n", path)
	}
	return nil
}

type importCmd struct {
	Source  string        `arg:"" help:"URL or file of a JSON dictionary."`
	Timeout time.Duration `help:"Overall timeout." default:"1m"`
}

func (cmd *importCmd) Run(a *app) error {
	ctx, cancel := context.WithTimeout(context.Background(), cmd.Timeout)
	defer cancel()

	sum, err := importer.New(importer.NewFetcher(), a.norm, a.logger).Import(ctx, cmd.Source)
	if err != nil {
		return err
	}
	fmt.Printf("imported %s: %d entries, %d new variant(s), %d entries changed\n",
		sum.Source, sum.Entries, sum.Added, len(sum.Changed))
	return nil
}

type historyCmd struct {
	Canonical string `help:"Only this canonical name."`
	Limit     int    `help:"Maximum number of events." default:"20"`
}

func (cmd *historyCmd) Run(a *app) error {
	if a.hist == nil {
		return errors.New("history is disabled (set --history-db)")
	}
	events, err := a.hist.List(cmd.Canonical, cmd.Limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, ev := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", time.Unix(ev.CreatedAt, 0).Format(time.DateTime), ev.Canonical, ev.Variant)
	}
	return tw.Flush()
}
