package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/PabloGalante/farum-panel/internal/adapters/auth"
	"github.com/PabloGalante/farum-panel/internal/adapters/editor"
	httpadapter "github.com/PabloGalante/farum-panel/internal/adapters/http"
	"github.com/PabloGalante/farum-panel/internal/adapters/llm"
	firestorestore "github.com/PabloGalante/farum-panel/internal/adapters/storage/firestore"
	"github.com/PabloGalante/farum-panel/internal/adapters/storage/memory"
	"github.com/PabloGalante/farum-panel/internal/adapters/telemetry"
	"github.com/PabloGalante/farum-panel/internal/app/chat"
	"github.com/PabloGalante/farum-panel/internal/app/prompt"
	"github.com/PabloGalante/farum-panel/internal/config"
	"github.com/PabloGalante/farum-panel/internal/domain"
	"github.com/PabloGalante/farum-panel/internal/observability"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the panel server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, *configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := observability.Init(cfg.Debug)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	backend, err := newBackend(ctx, cfg)
	if err != nil {
		return err
	}

	hub := httpadapter.NewHub()
	snap := editor.NewSnapshotter(hub)

	recorders := telemetry.Multi{telemetry.NewLogRecorder()}
	var reader httpadapter.TelemetryReader
	if cfg.FirestoreTelemetry {
		logger.Info("[TELEMETRY] Using Firestore", zap.String("project", cfg.GCPProjectID))
		store, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			return fmt.Errorf("initializing Firestore store: %w", err)
		}
		defer store.Close()

		async := telemetry.NewAsyncRecorder(store, cfg.TelemetryBuffer)
		defer async.Close()

		recorders = append(recorders, async)
		reader = store
	}

	ctrl := chat.NewController(chat.Deps{
		Extractor: snap,
		Editor:    snap,
		Auth:      auth.NewConfigProvider(cfg.Credential(), cfg.CredentialExpiresAt),
		Prompts:   prompt.NewGenerator(),
		Intents:   prompt.NewRecognizer(),
		Messenger: hub,
		Telemetry: recorders,
		Triggers:  memory.NewTriggerEventStore(),
		Sessions:  chat.NewSessionStore(backend),
	}, chat.WithRetryDelay(cfg.RetryDelay))
	hub.SetDispatcher(ctrl)

	handler := httpadapter.NewServer(httpadapter.ServerDeps{
		Hub:            hub,
		Editor:         snap,
		Dispatcher:     ctrl,
		Telemetry:      reader,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	ln, err := httpadapter.Listen(ctx, cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Addr, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Farum panel listening", zap.String("addr", ln.Addr().String()), zap.String("backend", string(cfg.Backend)))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		hub.Close()
		ctrl.Close()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newBackend(ctx context.Context, cfg *config.Config) (domain.BackendClient, error) {
	switch cfg.Backend {
	case config.BackendGenAI:
		observability.Logger().Info("[LLM] Using genai client", zap.String("model", cfg.ModelName))
		client, err := llm.NewGenAIClient(ctx, llm.GenAIConfig{
			Project:   cfg.GCPProjectID,
			Location:  cfg.GCPLocation,
			APIKey:    cfg.APIKey,
			ModelName: cfg.ModelName,
		})
		if err != nil {
			return nil, fmt.Errorf("initializing genai client: %w", err)
		}
		return client, nil
	case config.BackendHTTP:
		observability.Logger().Info("[LLM] Using HTTP assistant", zap.String("url", cfg.BackendURL))
		return llm.NewHTTPClient(cfg.BackendURL, cfg.APIKey, cfg.BackendTimeout), nil
	default:
		observability.Logger().Info("[LLM] Using MOCK LLM client")
		return llm.NewMockLLM(cfg.MockDelay), nil
	}
}
