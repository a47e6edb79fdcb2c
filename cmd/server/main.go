package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"handbook-rag/internal/config"
	"handbook-rag/internal/index"
	"handbook-rag/internal/llm"
	"handbook-rag/internal/resolver"
	"handbook-rag/internal/server"
	"handbook-rag/internal/session"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Configuration invalid")
	}

	prompt, err := llm.LoadPromptTemplate(cfg.PromptPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading prompt template")
	}

	embedder, err := llm.NewEmbedder(cfg.OpenAIKey, cfg.EmbeddingModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	chat, err := llm.NewChatModel(cfg.OpenAIKey, cfg.ChatModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing chat model")
	}

	// All components are built up front; a missing index fails startup
	// instead of the first request.
	ix, err := index.Open(cfg.IndexPath, llm.EmbeddingFunc(embedder))
	if err != nil {
		log.Fatal().Err(err).Msg("Vector index missing or empty; run cmd/ingest first")
	}

	res := resolver.NewResolver(
		llm.NewQAChain(chat, ix, prompt),
		llm.NewFallbackChain(chat),
		resolver.NewContextStore(),
	)
	res.Enhancer = llm.NewAnswerEnhancer(chat)

	if cfg.SessionDSN != "" {
		store := session.Connect(cfg.SessionDSN, cfg.SessionDebug)
		if err := store.Init(context.Background()); err != nil {
			log.Warn().Err(err).Msg("Session store unavailable, continuing without persistence")
		} else {
			defer store.Close()
			res.Sessions = store
			res.Telemetry = store
			log.Info().Msg("Session store connected")
		}
	} else {
		log.Info().Msg("No session DSN configured, running without persistence")
	}

	srv := server.New(res, cfg.CORSOrigins)
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	log.Info().Str("addr", addr).Int("documents", ix.Count()).Msg("Serving handbook QA API")
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
