package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/cardbeam/cardbeam/internal"
	"github.com/cardbeam/cardbeam/internal/deck"
	"github.com/cardbeam/cardbeam/internal/display"
	"github.com/cardbeam/cardbeam/internal/mcpserver"
	"github.com/cardbeam/cardbeam/internal/notestore"
	pkgconfig "github.com/cardbeam/cardbeam/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, string, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, configPath, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, configPath, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithConfigPath(configPath),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func pushOnce(ctx context.Context, cmd *cli.Command) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	report, err := internal.PushOnce(ctx, cfg)
	if err != nil {
		return err
	}

	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))
	return nil
}

func render(ctx context.Context, cmd *cli.Command) error {
	client := &http.Client{Timeout: 30 * time.Second}

	p, err := display.Fetch(ctx, client, cmd.String("url"))
	if err != nil {
		return fmt.Errorf("fetch payload: %w", err)
	}

	return display.Render(os.Stdout, p)
}

func importDecks(ctx context.Context, cmd *cli.Command) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Args().Len() == 0 {
		return fmt.Errorf("usage: cardbeam import <deck.yaml> [...]")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	store, err := notestore.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open note store: %w", err)
	}
	defer store.Close()

	for _, path := range cmd.Args().Slice() {
		d, err := deck.Load(path)
		if err != nil {
			return err
		}
		written, removed, err := deck.Sync(store, d, logger)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		fmt.Printf("%s: deck %q, %d notes written, %d removed\n", path, d.Name, written, removed)
	}
	return nil
}

// httpTrigger forwards MCP refresh requests to a running daemon.
type httpTrigger struct {
	url string
}

func (t *httpTrigger) Trigger() {
	resp, err := http.Post(t.url, "application/json", bytes.NewReader(nil))
	if err != nil {
		return
	}
	resp.Body.Close()
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := notestore.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open note store: %w", err)
	}
	defer store.Close()

	var trigger mcpserver.Trigger
	if daemonURL := cmd.String("daemon-url"); daemonURL != "" {
		trigger = &httpTrigger{url: daemonURL + "/api/refresh"}
	}

	// stdout belongs to the MCP stdio transport; nothing else may write there.
	return mcpserver.New(store, trigger).ServeStdio()
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:   "cardbeam",
		Usage:  "Push flashcard fields from a local note store to e-ink display webhooks",
		Action: serve,
		Flags:  []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the daemon: polling scheduler, HTTP API, config watcher",
				Action: serve,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:   "push",
				Usage:  "Run one push cycle and print the report",
				Action: pushOnce,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:   "render",
				Usage:  "Fetch the latest payload and render its fields in order",
				Action: render,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "url",
						Usage: "Endpoint serving the latest webhook envelope",
						Value: "http://localhost:8080/api/plugins/0/latest",
					},
				},
			},
			{
				Name:      "import",
				Usage:     "Import YAML deck files into the note store",
				ArgsUsage: "<deck.yaml> [...]",
				Action:    importDecks,
				Flags:     []cli.Flag{configFlag},
			},
			{
				Name:   "mcp",
				Usage:  "Serve cardbeam tools over MCP stdio",
				Action: serveMCP,
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:  "daemon-url",
						Usage: "Base URL of a running daemon for trigger_refresh",
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
