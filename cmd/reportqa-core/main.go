package main

// @title           ReportQA Core API
// @version         1.0
// @description     Retrieval-augmented question answering over yearly financial reports.

// @host      localhost:8080
// @BasePath  /

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/finsight-labs/reportqa-core/internal/adapters/driven/ai"
	"github.com/finsight-labs/reportqa-core/internal/adapters/driven/fsindex"
	"github.com/finsight-labs/reportqa-core/internal/adapters/driven/loader"
	"github.com/finsight-labs/reportqa-core/internal/adapters/driven/postgres"
	redisadapter "github.com/finsight-labs/reportqa-core/internal/adapters/driven/redis"
	httpadapter "github.com/finsight-labs/reportqa-core/internal/adapters/driving/http"
	"github.com/finsight-labs/reportqa-core/internal/config"
	"github.com/finsight-labs/reportqa-core/internal/core/ports/driven"
	"github.com/finsight-labs/reportqa-core/internal/core/services"
	"github.com/finsight-labs/reportqa-core/internal/files"
	"github.com/finsight-labs/reportqa-core/internal/runtime"
)

var version = "dev"

func main() {
	log.Printf("reportqa-core %s starting", version)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ===== Initialize Redis (optional) =====
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		log.Println("Connecting to Redis...")
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("Redis connected")
	}

	// ===== Initialize PostgreSQL (optional) =====
	var db *postgres.DB
	var archive driven.ArchiveStore
	if cfg.DatabaseURL != "" {
		log.Println("Connecting to PostgreSQL...")
		db, err = postgres.Connect(ctx, postgres.DefaultConfig(cfg.DatabaseURL))
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		// Initialize schema (idempotent)
		if err := db.InitSchema(ctx); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		archive = postgres.NewArchiveStore(db)
		log.Println("PostgreSQL connected and schema initialized")
	}

	// ===== AI capability providers =====
	embedding, err := ai.NewOpenAIEmbedding(cfg.OpenAIAPIKey, cfg.EmbeddingModel, "")
	if err != nil {
		log.Fatalf("Failed to create embedding service: %v", err)
	}
	defer embedding.Close()

	llm, err := ai.NewOpenAILLM(ai.LLMConfig{
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.LLMModel,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		log.Fatalf("Failed to create LLM service: %v", err)
	}
	defer llm.Close()

	// ===== Storage =====
	indexStore, err := fsindex.NewStore(cfg.IndexDir)
	if err != nil {
		log.Fatalf("Failed to open index store: %v", err)
	}
	fileStore, err := files.NewStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to open upload directory: %v", err)
	}

	// ===== Answer cache (Redis if available) =====
	var answerCache driven.AnswerCache
	if redisClient != nil {
		answerCache = redisadapter.NewAnswerCache(redisClient)
		log.Println("Using Redis answer cache")
	}

	// ===== Core services =====
	registry := runtime.NewRegistry()

	chunker, err := services.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		log.Fatalf("Invalid chunking configuration: %v", err)
	}

	retriever := services.NewRetriever(registry, embedding)
	synthesizer := services.NewAnswerSynthesizer(llm, logger)

	ingestService := services.NewIngestService(
		chunker, embedding, indexStore, loader.NewFileLoader(), archive, registry, logger)

	queryService := services.NewQueryService(
		registry, retriever, synthesizer, answerCache,
		cfg.MaxChunksPerQuery, time.Duration(cfg.AnswerCacheTTL)*time.Second, logger)

	// Best-effort startup loading: a missing or corrupt year must not
	// prevent the process from starting.
	if err := ingestService.LoadPersisted(ctx); err != nil {
		log.Printf("Warning: could not load persisted indices: %v", err)
	}
	log.Printf("Years available: %v", ingestService.Years())

	// ===== HTTP server =====
	serverCfg := httpadapter.Config{
		Host:    cfg.Host,
		Port:    cfg.Port,
		Version: version,
	}

	var redisPing httpadapter.Pinger
	if redisClient != nil {
		redisPing = redisPinger{client: redisClient}
	}
	var dbPing httpadapter.Pinger
	if db != nil {
		dbPing = db
	}

	server := httpadapter.NewServer(serverCfg, queryService, ingestService, fileStore, redisPing, dbPing)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// redisPinger adapts the go-redis client to the health check interface
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
