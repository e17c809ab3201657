// Command comsum summarizes the comment section of a watch page.
//
// Usage:
//
//	comsum -url https://youtube.com/watch?v=... -mode quick   # one-shot
//	comsum -url https://youtube.com/watch?v=... -serve        # HTTP API
//	comsum -url https://youtube.com/watch?v=... -mcp          # MCP on stdio
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/comsum/api"
	"github.com/hazyhaar/comsum/browser"
	"github.com/hazyhaar/comsum/collector"
	"github.com/hazyhaar/comsum/config"
	"github.com/hazyhaar/comsum/expander"
	"github.com/hazyhaar/comsum/loader"
	"github.com/hazyhaar/comsum/locator"
	"github.com/hazyhaar/comsum/navwatch"
	"github.com/hazyhaar/comsum/settings"
	"github.com/hazyhaar/comsum/summarize"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "path to comsum.yaml config file")
	pageURL := flag.String("url", "", "watch page URL to open")
	mode := flag.String("mode", "", "one-shot run: quick or deep")
	serve := flag.Bool("serve", false, "keep running and expose the HTTP API")
	mcpStdio := flag.Bool("mcp", false, "keep running and serve MCP tools on stdio")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *pageURL, *mode, *serve, *mcpStdio); err != nil {
		logger.Error("comsum: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, pageURL, mode string, serve, mcpStdio bool) error {
	if pageURL == "" {
		fmt.Fprintln(os.Stderr, "usage: comsum -url <watch page> [-mode quick|deep] [-serve] [-mcp]")
		os.Exit(1)
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	store, err := settings.Open(cfg.Settings.Path, settings.WithTimeout(cfg.Settings.Timeout))
	if err != nil {
		return fmt.Errorf("open settings: %w", err)
	}
	defer store.Close()

	sum, err := buildSummarizer(ctx, logger, cfg, store)
	if err != nil {
		return err
	}

	mgr := browser.NewManager(browser.Config{
		RemoteURL: cfg.Browser.Remote,
		Headless:  *cfg.Browser.Headless,
		Logger:    logger,
	})
	if _, err := mgr.Start(); err != nil {
		return err
	}
	defer mgr.Close()

	tab, err := browser.OpenTab(ctx, mgr, pageURL, cfg.Browser.NavTimeout)
	if err != nil {
		return err
	}
	defer tab.Close()

	loc := locator.New(locator.Config{
		ContainerSelectors: cfg.Collect.ContainerSelectors,
		Strategies:         strategiesFor(cfg),
		MaxComments:        cfg.Collect.DeepMax,
		MinLength:          cfg.Collect.MinLength,
		MaxLength:          cfg.Collect.MaxLength,
		CacheTTL:           cfg.Collect.CacheTTL,
		Logger:             logger,
	})
	exp := expander.New(expander.Config{
		Keywords:    cfg.Expand.Keywords,
		BatchSize:   cfg.Expand.BatchSize,
		ClickDelay:  cfg.Expand.ClickDelay,
		BatchDelay:  cfg.Expand.BatchDelay,
		SettleDelay: cfg.Expand.SettleDelay,
		MaxControls: cfg.Expand.MaxControls,
		Logger:      logger,
	})
	ldr := loader.New(loader.Config{
		MaxAttempts: cfg.Load.MaxAttempts,
		ScrollStep:  cfg.Load.ScrollStep,
		SettleDelay: cfg.Load.SettleDelay,
		Cap:         cfg.Collect.DeepMax,
		Logger:      logger,
	}, loc, exp)

	view := collector.MultiView{
		browser.NewPageView(tab, logger),
		&collector.LogView{Logger: logger},
	}
	co := collector.New(tab, loc, ldr, sum, view, collector.Config{
		QuickMax:     cfg.Collect.QuickMax,
		DeepMax:      cfg.Collect.DeepMax,
		MinLength:    cfg.Collect.MinLength,
		MaxLength:    cfg.Collect.MaxLength,
		QuickTimeout: cfg.Summarize.QuickTimeout,
		DeepTimeout:  cfg.Summarize.DeepTimeout,
		Logger:       logger,
	})

	// The registry is consumed on teardown, so the panel clear is
	// re-registered each time the new route is ready.
	registry := navwatch.NewRegistry(0, logger)
	registry.Add(view.Clear)
	monitor := navwatch.New(navwatch.Config{
		Throttle:          cfg.Nav.Throttle,
		ReinitDelay:       cfg.Nav.ReinitDelay,
		PollInterval:      cfg.Nav.PollInterval,
		PollTimeout:       cfg.Nav.PollTimeout,
		MaxReinitFailures: cfg.Nav.MaxReinitFailures,
		Logger:            logger,
	}, navwatch.Hooks{
		CurrentURL: tab.URL,
		ContainerPresent: func() bool {
			_, ok := loc.Container(tab)
			return ok
		},
		OnTeardown: loc.Reset,
		OnReady: func(ctx context.Context) error {
			registry.Add(view.Clear)
			return tab.ReapplyNavHooks()
		},
	}, registry)

	monitor.Start(ctx)
	defer monitor.Stop()
	if err := tab.HookNavigation(ctx, monitor.Signal); err != nil {
		logger.Warn("navigation hooks unavailable", "error", err)
	}

	if mode != "" {
		return runOnce(ctx, co, mode)
	}

	if mcpStdio {
		srv := mcp.NewServer(&mcp.Implementation{Name: "comsum", Version: version}, nil)
		co.RegisterMCP(srv)
		logger.Info("serving MCP on stdio")
		return srv.Run(ctx, &mcp.StdioTransport{})
	}

	if serve {
		if cfg.API.Addr == "" {
			cfg.API.Addr = "127.0.0.1:8747"
		}
		httpSrv := &http.Server{
			Addr:    cfg.API.Addr,
			Handler: api.NewServer(co, logger).Handler(),
		}
		go func() {
			<-ctx.Done()
			httpSrv.Close()
		}()
		logger.Info("serving HTTP API", "addr", cfg.API.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}

	// Returning the error (rather than exiting here) lets the deferred
	// browser, monitor and store shutdowns run.
	return errors.New("nothing to do: pass -mode, -serve or -mcp")
}

func runOnce(ctx context.Context, co *collector.Coordinator, mode string) error {
	var (
		res *collector.Result
		err error
	)
	switch mode {
	case string(collector.ModeQuick):
		res, err = co.Quick(ctx)
	case string(collector.ModeDeep):
		res, err = co.Deep(ctx)
	default:
		return fmt.Errorf("unknown mode %q: want quick or deep", mode)
	}
	if err != nil {
		return err
	}
	fmt.Println(res.Summary)
	return nil
}

// buildSummarizer resolves provider settings with precedence: settings
// store, then config file, then the provider's environment variable.
func buildSummarizer(ctx context.Context, logger *slog.Logger, cfg *config.Config, store *settings.Store) (summarize.Summarizer, error) {
	stored, err := store.Get(ctx, "summarize.provider", "summarize.model", "summarize.api_key")
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	provider := cfg.Summarize.Provider
	if v := stored["summarize.provider"]; v != "" {
		provider = v
	}
	model := cfg.Summarize.Model
	if v := stored["summarize.model"]; v != "" {
		model = v
	}
	apiKey := cfg.Summarize.APIKey
	if v := stored["summarize.api_key"]; v != "" {
		apiKey = v
	}
	if apiKey == "" {
		apiKey = os.Getenv(keyEnvFor(provider))
	}

	return summarize.New(ctx, summarize.Config{
		Provider:      summarize.Provider(provider),
		Model:         model,
		APIKey:        apiKey,
		MaxInputChars: cfg.Summarize.MaxInputChars,
		Logger:        logger,
	})
}

func keyEnvFor(provider string) string {
	switch summarize.Provider(provider) {
	case summarize.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case summarize.ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return "ANTHROPIC_API_KEY"
	}
}

// strategiesFor builds the locator strategy chain from configured
// selectors, falling back to the built-in chain.
func strategiesFor(cfg *config.Config) []locator.Strategy {
	if len(cfg.Collect.CommentSelectors) == 0 {
		return nil
	}
	return locator.Selectors(cfg.Collect.CommentSelectors...)
}
