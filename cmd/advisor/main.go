// Command advisor is the course-advising session server: it loads the
// module catalog, wires the transcript analysis pipeline, and serves the
// UI-facing REST and WebSocket API.
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
	"time"

	"github.com/studyvoice/advisor/internal/advisor"
	"github.com/studyvoice/advisor/internal/api"
	"github.com/studyvoice/advisor/internal/bookmark"
	"github.com/studyvoice/advisor/internal/catalog"
	"github.com/studyvoice/advisor/internal/config"
	"github.com/studyvoice/advisor/internal/extract"
	"github.com/studyvoice/advisor/internal/extract/llmextract"
	"github.com/studyvoice/advisor/internal/health"
	"github.com/studyvoice/advisor/internal/match"
	"github.com/studyvoice/advisor/internal/observe"
	"github.com/studyvoice/advisor/internal/planner"
	"github.com/studyvoice/advisor/internal/recommend"
	"github.com/studyvoice/advisor/internal/resilience"
)

// version is set at build time via -ldflags.
var version = "dev"

const defaultListenAddr = ":8080"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration (with hot reload) ──────────────────────────────────
	logLevel := new(slog.LevelVar)

	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		d := config.Diff(old, new)
		if d.LogLevelChanged {
			logLevel.Set(d.NewLogLevel.SlogLevel())
			slog.Info("log level updated", "level", d.NewLogLevel)
		}
		if d.MatchingChanged || d.ExtractionChanged {
			slog.Warn("matching/extraction changes take effect after restart")
		}
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "advisor: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "advisor: %v\n", err)
		}
		return 1
	}
	defer watcher.Stop()
	cfg := watcher.Current()

	// ── Logger ────────────────────────────────────────────────────────────────
	logLevel.Set(cfg.Server.LogLevel.SlogLevel())
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("advisor starting",
		"version", version,
		"config", *configPath,
		"listen_addr", listenAddr(cfg),
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "advisor",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Catalog ───────────────────────────────────────────────────────────────
	// A missing or unreadable source degrades to an empty catalog; the
	// session keeps running without page lookups or name resolution.
	cat := catalog.NewCachedClient(catalog.NewSource(cfg.Catalog.Source))

	// ── Remote extraction fallback ────────────────────────────────────────────
	analyzerOpts := []advisor.Option{}
	if fallback, err := buildFallbackExtractor(cfg); err != nil {
		slog.Error("failed to build extraction fallback", "err", err)
		return 1
	} else if fallback != nil {
		analyzerOpts = append(analyzerOpts, advisor.WithFallback(fallback))
	}

	// ── Pipeline, stores, planner ─────────────────────────────────────────────
	store := recommend.NewMemStore()
	plan := planner.New(planner.WithSeeds(plannerSeeds(cfg)))
	store.OnChange(plan.AutoAssign)

	analyzer := advisor.New(
		cat,
		match.NewResolver(match.WithPolicy(cfg.Matching.Policy())),
		extract.NewExtractor(extract.WithLimits(cfg.Extraction.Limits())),
		store,
		analyzerOpts...,
	)

	// ── HTTP server ───────────────────────────────────────────────────────────
	server := api.New(api.Deps{
		Catalog:   cat,
		Courses:   store,
		Planner:   plan,
		Bookmarks: bookmark.NewMemStore(),
		Analyzer:  analyzer,
		Health:    health.New(health.CatalogChecker(cat)),
	})

	httpSrv := &http.Server{
		Addr:              listenAddr(cfg),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	printStartupSummary(cfg)

	errCh := make(chan error, 1)
	go func() {
		if tls := cfg.Server.TLS; tls != nil {
			errCh <- httpSrv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			errCh <- httpSrv.ListenAndServe()
		}
	}()

	slog.Info("server ready — press Ctrl+C to shut down")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			return 1
		}
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	slog.Info("shutdown signal received, stopping…")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// buildFallbackExtractor assembles the LLM failover chain and wraps it in
// the remote extraction stage. Returns nil when no primary is configured;
// the pipeline then runs on pattern extraction alone.
func buildFallbackExtractor(cfg *config.Config) (advisor.FallbackExtractor, error) {
	primary := cfg.LLM.Primary
	if primary.Name == "" {
		return nil, nil
	}

	reg := config.DefaultRegistry()

	p, err := reg.CreateLLM(primary)
	if err != nil {
		return nil, fmt.Errorf("create llm provider %q: %w", primary.Name, err)
	}
	slog.Info("provider created", "kind", "llm", "name", primary.Name, "model", primary.Model)

	failover := resilience.NewLLMFallback(p, primary.Name, resilience.FallbackConfig{})
	for _, entry := range cfg.LLM.Fallbacks {
		fb, err := reg.CreateLLM(entry)
		if err != nil {
			return nil, fmt.Errorf("create fallback llm provider %q: %w", entry.Name, err)
		}
		failover.AddFallback(entry.Name, fb)
		slog.Info("provider created", "kind", "llm-fallback", "name", entry.Name, "model", entry.Model)
	}

	opts := []llmextract.Option{}
	if cfg.LLM.Temperature > 0 {
		opts = append(opts, llmextract.WithTemperature(cfg.LLM.Temperature))
	}
	if d := cfg.LLM.Timeout(); d > 0 {
		opts = append(opts, llmextract.WithTimeout(d))
	}
	return llmextract.New(failover, opts...), nil
}

// plannerSeeds maps the configured semester buckets to planner seeds. An
// empty config keeps the planner's built-in pair.
func plannerSeeds(cfg *config.Config) []planner.Seed {
	seeds := make([]planner.Seed, 0, len(cfg.Planner.Semesters))
	for _, s := range cfg.Planner.Semesters {
		seeds = append(seeds, planner.Seed{Name: s.Name, Color: s.Color, Goal: s.ECTSGoal})
	}
	return seeds
}

// listenAddr returns the configured listen address or the default.
func listenAddr(cfg *config.Config) string {
	if cfg.Server.ListenAddr != "" {
		return cfg.Server.ListenAddr
	}
	return defaultListenAddr
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║         Advisor — startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printEntry("LLM", providerLabel(cfg.LLM.Primary))
	printEntry("LLM fallbacks", fmt.Sprintf("%d", len(cfg.LLM.Fallbacks)))
	printEntry("Catalog", catalogLabel(cfg.Catalog.Source))
	printEntry("Semesters", fmt.Sprintf("%d", plannerCount(cfg)))
	printEntry("Listen addr", listenAddr(cfg))
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printEntry(kind, value string) {
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-14s  : %-19s ║\n", kind, value)
}

func providerLabel(entry config.ProviderEntry) string {
	if entry.Name == "" {
		return "(not configured)"
	}
	if entry.Model != "" {
		return entry.Name + " / " + entry.Model
	}
	return entry.Name
}

func catalogLabel(source string) string {
	if source == "" {
		return "(not configured)"
	}
	return source
}

func plannerCount(cfg *config.Config) int {
	if n := len(cfg.Planner.Semesters); n > 0 {
		return n
	}
	return 2
}
