// Command server runs the lecture notes API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jdcastano06/FlowNote/internal/audio"
	"github.com/jdcastano06/FlowNote/internal/auth"
	"github.com/jdcastano06/FlowNote/internal/blob"
	"github.com/jdcastano06/FlowNote/internal/classify"
	"github.com/jdcastano06/FlowNote/internal/config"
	"github.com/jdcastano06/FlowNote/internal/insight"
	"github.com/jdcastano06/FlowNote/internal/llm"
	"github.com/jdcastano06/FlowNote/internal/pipeline"
	"github.com/jdcastano06/FlowNote/internal/server"
	"github.com/jdcastano06/FlowNote/internal/speech"
	"github.com/jdcastano06/FlowNote/internal/store"
	"github.com/jdcastano06/FlowNote/internal/summarize"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := store.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(shutdownCtx)
	}()

	st := store.New(client.Database(cfg.MongoDatabase))
	if err := st.EnsureIndexes(ctx); err != nil {
		return err
	}

	chat := llm.NewClient(cfg)
	manager := pipeline.NewManager(
		cfg,
		speech.NewClient(cfg),
		classify.New(chat),
		summarize.New(chat),
		st,
		blob.New(cfg),
	)
	manager.StartJanitor(ctx)

	srv := server.New(
		cfg,
		st,
		manager,
		speech.NewClient(cfg),
		auth.NewVerifier(cfg.IdentityURL),
		func() pipeline.Recorder { return audio.NewCapturer(cfg.SampleRate) },
		func() pipeline.InsightSource { return insight.New(chat, cfg) },
	)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.HTTPAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
