package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/config"
	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/contacts"
	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/correction"
	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/history"
	httpapi "github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/http"
	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/pipeline"
	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/providers"
	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/telegram"
	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/telemetry"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the assistant API server",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
}

// correctionFixer builds the correction adapter from the configured
// provider credentials: Groq preferred, Gemini fallback.
func correctionFixer(cfg *config.Config) *correction.Fixer {
	var candidates []providers.Provider
	if cfg.Providers.Groq.APIKey != "" {
		candidates = append(candidates, providers.NewGroqProvider(cfg.Providers.Groq.APIKey, cfg.Providers.Groq.APIBase))
	}
	if cfg.Providers.Gemini.APIKey != "" {
		candidates = append(candidates, providers.NewGeminiProvider(cfg.Providers.Gemini.APIKey, cfg.Providers.Gemini.APIBase))
	}
	return correction.NewFixer(candidates...)
}

func runServe() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry, Version)
	if err != nil {
		slog.Warn("telemetry setup failed, continuing without", "error", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	// Contact directory
	store := contacts.NewFileStore(cfg.ContactsPath())
	directory, err := contacts.Open(store)
	if err != nil {
		slog.Error("failed to open contact directory", "path", cfg.ContactsPath(), "error", err)
		os.Exit(1)
	}
	slog.Info("contact directory loaded", "contacts", directory.Len())

	fixer := correctionFixer(cfg)
	slog.Info("grammar correction ready", "provider", fixer.ActiveProvider())

	// Delivery history
	hist, err := history.Open(cfg.HistoryPath())
	if err != nil {
		slog.Error("failed to open history store", "path", cfg.HistoryPath(), "error", err)
		os.Exit(1)
	}
	defer hist.Close()

	// Telegram client
	var deliverer pipeline.Deliverer
	var tg *telegram.Client
	if cfg.Telegram.Token != "" {
		tg, err = telegram.New(cfg.Telegram.Token, cfg.SessionPath())
		if err != nil {
			slog.Error("failed to create telegram client", "error", err)
			os.Exit(1)
		}
		if err := tg.Connect(ctx); err != nil {
			slog.Warn("telegram connect failed, messages cannot be delivered", "error", err)
		}
		deliverer = tg
	} else {
		slog.Warn("no telegram token configured, running in preview-only mode")
	}

	pl := pipeline.New(fixer, directory, deliverer, hist)
	server := httpapi.NewServer(cfg, pl, directory, hist, deliverer)

	// Reload config on file change: the API token is read per request and
	// changed provider keys rebuild the correction adapter. The listen
	// address and already-open stores need a restart.
	watcher, err := config.NewWatcher(cfgPath, func(old, next *config.Config) {
		cfg.Update(next)
		pl.ReplaceFixer(correctionFixer(next))
	})
	if err != nil {
		slog.Debug("config watcher disabled", "error", err)
	} else {
		defer watcher.Stop()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("graceful shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("server shutdown error", "error", err)
		}
		if tg != nil {
			tg.Disconnect()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}
