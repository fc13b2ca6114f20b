// Command lazyload indexes a TypeScript/JavaScript/Python codebase into a
// SQLite-backed symbol index and serves it either as a one-shot CLI query
// or as an MCP stdio server for coding agents. Grounded on the teacher's
// cmd/lci/main.go: a single urfave/cli App whose commands each load
// config and wire shared dependencies through loadConfig/buildApp, and
// signal-driven graceful shutdown for the long-running serve/watch commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/ozekimasaki/lazyload/internal/config"
	"github.com/ozekimasaki/lazyload/internal/indexer"
	"github.com/ozekimasaki/lazyload/internal/markov"
	"github.com/ozekimasaki/lazyload/internal/mcpserver"
	"github.com/ozekimasaki/lazyload/internal/parser"
	"github.com/ozekimasaki/lazyload/internal/querytools"
	"github.com/ozekimasaki/lazyload/internal/storage"
	"github.com/ozekimasaki/lazyload/internal/synonym"
)

const version = "0.1.0"

// app is everything a command needs once config is loaded: the store, the
// indexer, and the query-tool dependencies layered on top of it.
type app struct {
	cfg   *config.Config
	store *storage.Store
	idx   *indexer.Indexer
	deps  *querytools.Deps
}

func buildApp(cfg *config.Config) (*app, error) {
	store, err := storage.Open(cfg.Output.Database)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	registry, err := parser.NewRegistry(parser.Options{IncludePrivate: true})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("build parser registry: %w", err)
	}

	builder := markov.NewBuilder(store, cfg.Markov)
	idx := indexer.New(store, registry, cfg, builder)
	engine := markov.NewEngine(store, cfg.Markov.ChainWeights)
	expander := synonym.NewExpander(cfg.Synonyms)

	deps := &querytools.Deps{
		Store:     store,
		Expander:  expander,
		Engine:    engine,
		Rebuilder: builder,
		Cfg:       cfg,
		Root:      cfg.Directories[0],
		Estimator: querytools.DefaultEstimator,
	}

	return &app{cfg: cfg, store: store, idx: idx, deps: deps}, nil
}

func (a *app) Close() {
	a.store.Close()
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if root := c.String("root"); root != "" {
		cfg.Directories = []string{root}
	}
	return cfg, nil
}

func main() {
	cliApp := &cli.App{
		Name:    "lazyload",
		Usage:   "A lazily-loaded code intelligence index for AI coding agents",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a JSON config file",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory to index (overrides config)",
			},
		},
		Commands: []*cli.Command{
			indexCommand(),
			serveCommand(),
			searchCommand(),
			syncCommand(),
			watchCommand(),
			versionCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "lazyload: %v\n", err)
		os.Exit(1)
	}
}

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Index the configured directories into the database",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := context.Background()
			result, err := a.idx.IndexDirectory(ctx, "")
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}

			fmt.Printf("indexed %d/%d files (%d skipped, %d errors) in %dms\n",
				result.IndexedFiles, result.TotalFiles, result.SkippedFiles, len(result.Errors), result.DurationMs)
			for _, fe := range result.Errors {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", fe.Path, fe.Message)
			}
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the MCP stdio server for coding agents",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithCancel(context.Background())
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				cancel()
			}()

			server := mcpserver.NewServer(a.deps, a.idx, cfg.Governor)
			defer server.Shutdown()

			if err := server.Start(ctx); err != nil && ctx.Err() == nil {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search indexed symbols by name",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 20},
			&cli.StringFlag{Name: "format", Value: "text"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("usage: lazyload search <query>")
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			results, err := a.deps.SearchSymbols(context.Background(), querytools.SearchSymbolsInput{
				Query:       c.Args().First(),
				Limit:       c.Int("limit"),
				ExpandQuery: true,
			})
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			format := querytools.ParseFormat(c.String("format"))
			fmt.Println(querytools.RenderSearchSymbols(results, format, 0))
			return nil
		},
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Re-index changed files and optionally force a Markov chain rebuild",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "rebuild-chains"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.deps.SyncIndex(context.Background(), a.idx, querytools.SyncIndexInput{
				Paths:        c.Args().Slice(),
				ForceRebuild: c.Bool("rebuild-chains"),
			})
			if err != nil {
				return fmt.Errorf("sync: %w", err)
			}
			fmt.Printf("indexed=%d failed=%d rebuilt=%v\n", len(out.Indexed), len(out.Failed), out.ChainsRebuilt)
			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the lazyload version",
		Action: func(c *cli.Context) error {
			fmt.Println(version)
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Watch the configured directories and index changes as they happen",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := context.Background()
			if _, err := a.idx.IndexDirectory(ctx, ""); err != nil {
				return fmt.Errorf("initial index: %w", err)
			}

			w, err := indexer.NewWatcher(a.idx, cfg.Directories)
			if err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}

			watchCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				cancel()
			}()

			fmt.Println("watching for changes, press Ctrl-C to stop")
			err = w.Start(watchCtx)
			if err == nil {
				<-watchCtx.Done()
			}
			_ = w.Stop()
			if err != nil && watchCtx.Err() == nil {
				return fmt.Errorf("watch: %w", err)
			}
			return nil
		},
	}
}
