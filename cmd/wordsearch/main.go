// Command wordsearch searches word vocabularies from the terminal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"

	words "github.com/mkbabb/words-sub011"
)

func main() {
	app := &cli.App{
		Name:  "wordsearch",
		Usage: "multi-method word search over per-language vocabularies",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to TOML config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
				Usage: "log level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			searchCommand(),
			rebuildCommand(),
			healthCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// setup loads config and brings up the registry with every language built.
// Polling stays off: CLI invocations are one-shot.
func setup(ctx context.Context, c *cli.Context) (*words.Registry, error) {
	cfg, err := words.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	cfg.Registry.PollInterval.Duration = 0
	logger := words.NewLogger(c.String("log-level"))

	var embedder words.Embedder
	if cfg.Embedder.Model != "" {
		oe, err := words.NewOpenAIEmbedder(cfg.Embedder)
		if err != nil {
			return nil, fmt.Errorf("configuring embedder: %w", err)
		}
		embedder = oe
	} else {
		logger.Debug("no embedder configured, semantic search disabled")
	}

	provider := words.NewFileVocabularyProvider(cfg.Registry.DataDir)
	engine := words.NewEngine(cfg.Engine, logger)
	registry := words.NewRegistry(cfg.Registry, provider, embedder, engine, logger)
	if err := registry.Start(ctx); err != nil {
		return nil, err
	}
	return registry, nil
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "search for a word",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "lang",
				Aliases: []string{"l"},
				Usage:   "language(s) to search; default all loaded",
			},
			&cli.StringFlag{
				Name:  "mode",
				Value: "smart",
				Usage: "search mode: smart, exact, fuzzy, semantic",
			},
			&cli.IntFlag{
				Name:    "max",
				Aliases: []string{"n"},
				Usage:   "maximum results (0 = engine default)",
			},
			&cli.Float64Flag{
				Name:  "min-score",
				Usage: "drop results scoring below this",
			},
			&cli.BoolFlag{
				Name:  "best",
				Usage: "print only the single best match",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "emit results as JSON",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one query argument")
			}
			mode, err := words.ParseSearchMode(c.String("mode"))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			registry, err := setup(ctx, c)
			if err != nil {
				return err
			}
			defer registry.Close()

			langs := c.StringSlice("lang")
			if c.Bool("best") {
				best, ok, err := registry.FindBestMatch(ctx, c.Args().First(), langs...)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("no match")
				}
				return printResults(c.Bool("json"), []words.SearchResult{best})
			}

			results, err := registry.Search(ctx, words.SearchRequest{
				Query:      c.Args().First(),
				Mode:       mode,
				MaxResults: c.Int("max"),
				MinScore:   c.Float64("min-score"),
			}, langs...)
			if err != nil {
				return err
			}
			return printResults(c.Bool("json"), results)
		},
	}
}

func rebuildCommand() *cli.Command {
	return &cli.Command{
		Name:      "rebuild",
		Usage:     "force-rebuild snapshots for one language (or all)",
		ArgsUsage: "[language]",
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			registry, err := setup(ctx, c)
			if err != nil {
				return err
			}
			defer registry.Close()

			langs := registry.Languages()
			if c.NArg() == 1 {
				langs = []string{c.Args().First()}
			}
			for _, lang := range langs {
				snap, err := registry.Rebuild(ctx, lang, true)
				if err != nil {
					return fmt.Errorf("rebuilding %s: %w", lang, err)
				}
				fmt.Printf("%s: %d words, semantic=%t\n", lang, snap.Size(), snap.HasSemantic())
			}
			return nil
		},
	}
}

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "report per-language snapshot state",
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			registry, err := setup(ctx, c)
			if err != nil {
				return err
			}
			defer registry.Close()

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(registry.Health())
		},
	}
}

func printResults(asJSON bool, results []words.SearchResult) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	for _, r := range results {
		note := ""
		if reason, ok := r.Metadata["degraded"]; ok {
			note = "  (degraded: " + reason + ")"
		}
		fmt.Printf("%-24s %.3f  %-8s %s%s\n", r.Word, r.Score, r.Method, r.Language, note)
	}
	return nil
}
