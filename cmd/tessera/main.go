package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tessera-labs/tessera-cli/internal/adapters/driven/config/file"
	github "github.com/tessera-labs/tessera-cli/internal/adapters/driven/connectors/github"
	openaiembed "github.com/tessera-labs/tessera-cli/internal/adapters/driven/embedding/openai"
	openaillm "github.com/tessera-labs/tessera-cli/internal/adapters/driven/llm/openai"
	"github.com/tessera-labs/tessera-cli/internal/adapters/driven/reranker/cohere"
	"github.com/tessera-labs/tessera-cli/internal/adapters/driven/scraper/web"
	"github.com/tessera-labs/tessera-cli/internal/adapters/driven/storage/sqlite"
	openaitranscribe "github.com/tessera-labs/tessera-cli/internal/adapters/driven/transcription/openai"
	"github.com/tessera-labs/tessera-cli/internal/adapters/driven/vectorstore/memory"
	"github.com/tessera-labs/tessera-cli/internal/adapters/driven/vectorstore/qdrant"
	"github.com/tessera-labs/tessera-cli/internal/adapters/driving/cli"
	"github.com/tessera-labs/tessera-cli/internal/chunker"
	"github.com/tessera-labs/tessera-cli/internal/core/domain"
	"github.com/tessera-labs/tessera-cli/internal/core/ports/driven"
	"github.com/tessera-labs/tessera-cli/internal/core/services"
	"github.com/tessera-labs/tessera-cli/internal/logger"
	"github.com/tessera-labs/tessera-cli/internal/tokenizer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := file.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	chatModel := cfg.OpenAI.ChatModel
	if chatModel == "" {
		chatModel = services.DefaultChatModel
	}

	embeddings, err := openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     cfg.OpenAI.APIKey,
		Model:      cfg.OpenAI.EmbeddingModel,
		Dimensions: cfg.OpenAI.Dimensions,
	})
	if err != nil {
		return err
	}

	llm, err := openaillm.NewLLMService(openaillm.Config{
		APIKey: cfg.OpenAI.APIKey,
		Model:  chatModel,
	})
	if err != nil {
		return err
	}

	transcriber, err := openaitranscribe.NewTranscriber(openaitranscribe.Config{
		APIKey: cfg.OpenAI.APIKey,
	})
	if err != nil {
		return err
	}

	// Without a Qdrant endpoint everything runs against an in-process
	// index. Useful for trying the tool out; nothing survives exit.
	var index driven.VectorIndex
	if cfg.Qdrant.URL != "" {
		index = qdrant.NewIndex(qdrant.Config{
			BaseURL: cfg.Qdrant.URL,
			APIKey:  cfg.Qdrant.APIKey,
		})
	} else {
		logger.Warn("qdrant.url is not set, using a non-persistent in-memory index")
		index = memory.NewIndex()
	}

	vectors, err := services.NewVectorService(index, cfg.Qdrant.Index)
	if err != nil {
		return err
	}
	if err := ensureIndex(vectors, embeddings.Dimensions()); err != nil {
		return err
	}

	var reranker driven.Reranker
	if cfg.Retrieval.UseReranker && cfg.Cohere.APIKey != "" {
		reranker, err = cohere.NewReranker(cohere.Config{
			APIKey: cfg.Cohere.APIKey,
			Model:  cfg.Cohere.Model,
		})
		if err != nil {
			return err
		}
	}

	counter, err := tokenizer.New("")
	if err != nil {
		return err
	}
	ch := chunker.New(counter, chunker.WithMaxTokens(cfg.Ingestion.MaxChunkTokens))

	registry, err := services.DefaultAgentRegistry(chatModel, services.DefaultLinkedInModel)
	if err != nil {
		return err
	}

	router, err := services.NewRouterService(llm, registry, chatModel)
	if err != nil {
		return err
	}

	dispatcher, err := services.NewDispatcherService(llm, embeddings, vectors, registry, reranker, cfg.Retrieval.TopK)
	if err != nil {
		return err
	}

	answers, err := services.NewAnswerService(router, dispatcher, transcriber)
	if err != nil {
		return err
	}

	store, err := sqlite.NewStore(cfg.Ingestion.DataDir)
	if err != nil {
		return fmt.Errorf("opening ingest log: %w", err)
	}
	defer store.Close()

	scraper := web.NewScraper(web.Config{})
	repos := github.NewConnector(context.Background(), cfg.GitHub.Token)

	ingest, err := services.NewIngestService(ch, embeddings, vectors, scraper, repos, store)
	if err != nil {
		return err
	}

	cli.Configure(cli.Services{
		Ingest:    ingest,
		Answer:    answers,
		IngestLog: store,
	})
	return cli.Execute()
}

// ensureIndex reconciles the index before any command runs. A dimension
// mismatch is fatal; an unreachable index only warns, so that commands
// that never touch it still work offline.
func ensureIndex(vectors *services.VectorService, dimension int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := vectors.EnsureIndex(ctx, dimension, driven.MetricCosine)
	if err == nil {
		return nil
	}
	var mismatch *domain.DimensionMismatchError
	if errors.As(err, &mismatch) {
		return err
	}
	logger.Warn("index unavailable: %v", err)
	return nil
}
