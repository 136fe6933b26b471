package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"creative-engine/internal/api"
	"creative-engine/internal/config"
	"creative-engine/internal/creativetypes"
	"creative-engine/internal/engine"
	"creative-engine/internal/generators"
	"creative-engine/internal/renderer"
	"creative-engine/internal/storage"
)

func Run(cfg config.Config) {
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Batch history: Postgres when configured, in-memory otherwise.
	var history storage.History
	if cfg.HistoryEnabled() {
		store, err := storage.New(rootCtx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("init storage")
		}
		defer store.Close()
		history = store
	} else {
		log.Info().Msg("no database configured, keeping batch history in memory")
		history = storage.NewMemoryHistory(100)
	}

	// Renderer client + generator registry.
	rend := renderer.New(cfg.Renderer.BaseURL, cfg.Renderer.Token, cfg.RendererTimeout())

	registry := engine.NewRegistry()
	if err := generators.RegisterBuiltins(registry, clusterComposer(rend)); err != nil {
		log.Fatal().Err(err).Msg("register generators")
	}

	eng := engine.New(registry, rend, engine.Options{
		PollInterval: cfg.PollInterval(),
		PollTimeout:  cfg.PollTimeout(),
	})

	catalog := creativetypes.BuiltIn()
	log.Info().Strs("creative_types", catalog.List()).Strs("sources", registry.Sources()).Msg("engine ready")

	h := api.NewGenerateHandler(eng, catalog, history, cfg.Delivery.GroupSize, cfg.Delivery.DefaultCount)
	// The request budget must outlast the slowest batch: every job gets the
	// full poll timeout, plus slack for submission and resolution.
	r := api.Router(h, cfg.PollTimeout()+30*time.Second)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.PollTimeout() + 60*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server crashed")
		}
	}()

	waitForSignal()
	log.Info().Msg("shutdown...")

	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	cancel() // stop background work; in-flight remote render jobs keep running
	_ = srv.Shutdown(shCtx)
}

// clusterComposer builds the image.cluster boundary on top of the renderer's
// media hosting: the lead product image is fetched and re-hosted so the
// template receives a stable URL. A real compositing backend plugs in by
// returning a different generators.ClusterFunc here.
func clusterComposer(rend *renderer.Client) generators.ClusterFunc {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	return func(ctx context.Context, urls []string, aspectRatio string, peopleMode bool) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urls[0], nil)
		if err != nil {
			return "", err
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("fetch product image: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("fetch product image: status %d", resp.StatusCode)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, 20<<20))
		if err != nil {
			return "", fmt.Errorf("read product image: %w", err)
		}
		return rend.UploadMedia(ctx, data, "cluster.png")
	}
}

func waitForSignal() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}
