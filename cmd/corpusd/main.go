// Copyright 2026 Tutorstack Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	corpus "github.com/tutorstack/corpus"
	"github.com/tutorstack/corpus/ai"
	"github.com/tutorstack/corpus/chunk"
	"github.com/tutorstack/corpus/config"
	"github.com/tutorstack/corpus/convert"
	"github.com/tutorstack/corpus/ingest"
	"github.com/tutorstack/corpus/server"
)

func main() {
	app := &cli.App{
		Name:  "corpusd",
		Usage: "Document ingestion and retrieval backend for tutoring content",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to YAML config file",
						Value:   "config.yaml",
					},
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides config)",
					},
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Path to BadgerDB database directory (overrides config)",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL (overrides config)",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name (overrides config)",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if addr := c.String("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if db := c.String("db"); db != "" {
		cfg.Storage.Path = db
	}
	if host := c.String("embedding-host"); host != "" {
		cfg.Embedding.Host = host
	}
	if model := c.String("embedding-model"); model != "" {
		cfg.Embedding.Model = model
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(cfg.Embedding.Host),
		ai.WithEmbeddingModel(cfg.Embedding.Model),
		ai.WithAPIKey(cfg.APIKey()),
		ai.WithDimension(cfg.Embedding.Dimension),
		ai.WithRequestsPerSecond(cfg.Embedding.RequestsPerSecond),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid embedding configuration: %w", err)
	}

	storeOpts := []corpus.StoreOption{corpus.WithAIConfig(aiConfig)}
	if cfg.Storage.InMemory {
		storeOpts = append(storeOpts, corpus.WithInMemoryStorage())
	}
	store, err := corpus.NewStore(cfg.Storage.Path, storeOpts...)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	converterOpts := []convert.Option{}
	if cfg.Ingest.WhisperModel != "" {
		converterOpts = append(converterOpts, convert.WithWhisperModel(cfg.Ingest.WhisperModel))
	}
	if cfg.Ingest.VADModel != "" {
		converterOpts = append(converterOpts, convert.WithVADModel(cfg.Ingest.VADModel))
	}

	pipelineOpts := []ingest.Option{
		ingest.WithConverter(convert.NewService(converterOpts...)),
		ingest.WithChunker(chunk.New(
			chunk.WithChunkSize(cfg.Ingest.ChunkSize),
			chunk.WithChunkOverlap(cfg.Ingest.ChunkOverlap),
		)),
		ingest.WithBatchSize(cfg.Ingest.BatchSize),
		ingest.WithEmbedConcurrency(cfg.Ingest.EmbedConcurrency),
		ingest.WithRetry(cfg.Ingest.MaxAttempts, cfg.Ingest.RetryBaseDelay.Std()),
	}
	if cfg.Ingest.PoolSize > 0 {
		pipelineOpts = append(pipelineOpts, ingest.WithPoolSize(cfg.Ingest.PoolSize))
	}

	pipeline, err := store.NewIngestionPipeline(pipelineOpts...)
	if err != nil {
		return fmt.Errorf("creating ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	searcher, err := store.NewSearcher()
	if err != nil {
		return fmt.Errorf("creating searcher: %w", err)
	}

	verifier, err := store.NewVerifier()
	if err != nil {
		return fmt.Errorf("creating verifier: %w", err)
	}

	srv := server.NewServer(
		pipeline, searcher, verifier,
		store.VectorRepository(), store.DocumentRepository(),
		server.WithMaxUploadBytes(cfg.Server.MaxUploadBytes),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting corpusd", "addr", cfg.Server.Addr, "db", cfg.Storage.Path,
		"embedding_model", cfg.Embedding.Model)
	return srv.Run(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout.Std())
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
