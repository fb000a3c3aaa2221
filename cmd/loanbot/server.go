package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/loanbot/internal/api"
	"github.com/kalambet/loanbot/internal/catalog"
	"github.com/kalambet/loanbot/internal/chat"
	"github.com/kalambet/loanbot/internal/config"
	"github.com/kalambet/loanbot/internal/eligibility"
	"github.com/kalambet/loanbot/internal/engine"
	"github.com/kalambet/loanbot/internal/profile"
	"github.com/kalambet/loanbot/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the loanbot HTTP server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		withMCP, _ := cmd.Flags().GetBool("mcp")
		return runServer(withMCP)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show loanbot system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func init() {
	serveCmd.Flags().Bool("mcp", false, "also serve MCP tools over stdio")
}

func runServer(withMCP bool) error {
	fmt.Fprintf(os.Stderr, "loanbot version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat := catalog.Load(cfg.Catalog.Path)

	store, closeStore, err := openSessionStore(cfg.Session.Backend)
	if err != nil {
		return err
	}
	defer closeStore()

	responder := buildResponder(ctx, cfg, cat)
	chatMgr := chat.NewManager(store, responder, chat.Options{
		HistoryWindow: cfg.Chat.HistoryWindow,
		Timeout:       config.Duration("chat.timeout", cfg.Chat.Timeout, 30*time.Second),
	})

	var dna api.DNAService
	if cfg.DNA.Enabled {
		dna = buildSynthesizer(ctx, cfg)
	}

	evaluator := eligibility.NewEvaluator(cat)
	handler := api.NewHandler(api.Deps{
		Catalog:     cat,
		Evaluator:   evaluator,
		Chat:        chatMgr,
		DNA:         dna,
		CORSOrigins: cfg.Server.Origins(),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fmt.Fprintf(os.Stderr, "loanbot listening on %s\n", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if withMCP {
		mcpSrv := api.NewMCPServer(api.MCPDeps{
			Catalog:   cat,
			Evaluator: evaluator,
			Chat:      chatMgr,
			DNA:       dna,
			Version:   version,
		})
		stdioSrv := server.NewStdioServer(mcpSrv)
		g.Go(func() error {
			if err := stdioSrv.Listen(gctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
			return nil
		})
		slog.Info("MCP server started (stdio transport)")
	}

	return g.Wait()
}

func openSessionStore(backend string) (chat.SessionStore, func(), error) {
	if backend != "sqlite" {
		return chat.NewMemoryStore(), func() {}, nil
	}

	db, err := storage.Open(":memory:")
	if err != nil {
		return nil, nil, fmt.Errorf("opening session store: %w", err)
	}
	closeFn := func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing session store: %v\n", err)
		}
	}
	return chat.NewSQLStore(db), closeFn, nil
}

// buildResponder returns the LLM responder, or the rule responder when
// configured or when the LLM backend cannot be set up.
func buildResponder(ctx context.Context, cfg config.Config, cat *catalog.Catalog) chat.Responder {
	rules := chat.NewRuleResponder(cat)
	if cfg.Chat.Mode == "rules" {
		slog.Info("chat running in rules mode")
		return rules
	}

	eng, err := newEngine(ctx, cfg, cfg.Chat.Backend, cfg.Chat.BaseURL, cfg.Chat.Model)
	if err != nil {
		slog.Warn("chat LLM unavailable, falling back to rules mode", "backend", cfg.Chat.Backend, "error", err)
		return rules
	}

	prompt, err := chat.BuildSystemPrompt(cat)
	if err != nil {
		slog.Warn("building chat system prompt, falling back to rules mode", "error", err)
		return rules
	}

	slog.Info("chat running in LLM mode", "backend", cfg.Chat.Backend, "model", cfg.Chat.Model)
	return chat.NewLLMResponder(eng, cfg.Chat.Model, prompt)
}

// buildSynthesizer never fails: without a usable backend every report is
// the fallback.
func buildSynthesizer(ctx context.Context, cfg config.Config) *profile.Synthesizer {
	eng, err := newEngine(ctx, cfg, cfg.DNA.Backend, cfg.DNA.BaseURL, cfg.DNA.Model)
	if err != nil {
		slog.Warn("Loan DNA backend unavailable, reports will use the fallback", "backend", cfg.DNA.Backend, "error", err)
		eng = engine.Unavailable{Reason: err}
	}

	return profile.NewSynthesizer(profile.NewEngineGenerator(eng, cfg.DNA.Model), profile.Options{
		Timeout:  config.Duration("dna.timeout", cfg.DNA.Timeout, profile.DefaultTimeout),
		CacheTTL: config.Duration("dna.cache_ttl", cfg.DNA.CacheTTL, 10*time.Minute),
	})
}

func newEngine(ctx context.Context, cfg config.Config, backend, baseURL, model string) (engine.Engine, error) {
	eng, err := engine.New(engine.Config{
		Backend:       backend,
		BaseURL:       baseURL,
		APIKey:        cfg.Secrets.KeyFor(backend),
		OllamaBaseURL: cfg.Ollama.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	if p, ok := eng.(engine.Provisioner); ok {
		if err := engine.EnsureReady(ctx, p, []string{model}, os.Stderr); err != nil {
			return nil, err
		}
	}
	return eng, nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		// Still show partial status even if config fails.
		printError("config error: %v", err)
		return nil
	}

	client := &http.Client{Timeout: 2 * time.Second}
	serverURL := "http://" + localAddr(cfg.Server)

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			printStatus("Server", "running on %s", cfg.Server.Addr())
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("Catalog", "%s (%d policies)", cfg.Catalog.Path, catalog.Load(cfg.Catalog.Path).Len())
	printStatus("Chat", "%s mode, %s backend, model %s", cfg.Chat.Mode, cfg.Chat.Backend, cfg.Chat.Model)
	printStatus("Chat API key", "%s", keyStatus(cfg, cfg.Chat.Backend))
	printStatus("Sessions", "%s, window %d turns", cfg.Session.Backend, cfg.Chat.HistoryWindow)

	if cfg.DNA.Enabled {
		printStatus("Loan DNA", "%s backend, model %s", cfg.DNA.Backend, cfg.DNA.Model)
		printStatus("DNA API key", "%s", keyStatus(cfg, cfg.DNA.Backend))
	} else {
		printStatus("Loan DNA", "disabled")
	}

	if cfg.Chat.Backend == "ollama" || cfg.DNA.Backend == "ollama" {
		ollamaResp, err := client.Get(cfg.Ollama.BaseURL + "/api/version")
		if err != nil {
			printStatus("Ollama", "not running")
		} else {
			ollamaResp.Body.Close()
			printStatus("Ollama", "running at %s", cfg.Ollama.BaseURL)
		}
	}
	return nil
}

func keyStatus(cfg config.Config, backend string) string {
	if !config.NeedsKey(backend) {
		return "not required"
	}
	if cfg.Secrets.KeyFor(backend) == "" {
		return colorize(colorYellow, "missing")
	}
	return colorize(colorGreen, "set")
}
