package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	router "github.com/dkeye/Consult/internal/adapters/http"
	"github.com/dkeye/Consult/internal/adapters/audit"
	"github.com/dkeye/Consult/internal/adapters/auth"
	"github.com/dkeye/Consult/internal/adapters/llm"
	"github.com/dkeye/Consult/internal/adapters/stt"
	"github.com/dkeye/Consult/internal/app"
	"github.com/dkeye/Consult/internal/app/orch"
	"github.com/dkeye/Consult/internal/config"
	"github.com/dkeye/Consult/internal/core"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(loadConfig func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the signaling and control-plane server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, cfg)
		},
	}
}

func summarizerFor(cfg *config.Config) core.Summarizer {
	if cfg.LLM.APIKey == "" {
		log.Info().Str("module", "main").Msg("no llm api key, using extractive summaries")
		return app.ExtractiveSummarizer{}
	}
	s, err := llm.NewSummarizer(llm.Config{
		BaseURL:    cfg.LLM.BaseURL,
		APIKey:     cfg.LLM.APIKey,
		Model:      cfg.LLM.Model,
		Timeout:    cfg.LLM.Timeout,
		MaxRetries: cfg.LLM.MaxRetries,
	})
	if err != nil {
		log.Warn().Err(err).Str("module", "main").Msg("llm summarizer disabled")
		return app.ExtractiveSummarizer{}
	}
	return s
}

func transcriberFor(cfg *config.Config) core.Transcriber {
	if cfg.STT.URL == "" {
		log.Info().Str("module", "main").Msg("no stt url, audio upload disabled")
		return nil
	}
	return stt.NewWhisperClient(cfg.STT.URL, cfg.STT.Timeout)
}

func serve(ctx context.Context, cfg *config.Config) error {
	tokens, err := auth.NewTokenCodec(cfg.Secret, cfg.TokenTTL)
	if err != nil {
		return err
	}
	store, err := audit.Open(cfg.Audit.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	o := orch.New(summarizerFor(cfg), transcriberFor(cfg))
	o.Audit = store
	o.Archive = store

	r := router.SetupRouter(ctx, cfg, router.Deps{
		Orch:    o,
		Tokens:  tokens,
		Audit:   store,
		Archive: store,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("Consult server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}
