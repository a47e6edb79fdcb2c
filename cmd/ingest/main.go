package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"handbook-rag/internal/analyze"
	"handbook-rag/internal/chunker"
	"handbook-rag/internal/config"
	"handbook-rag/internal/corpus"
	"handbook-rag/internal/index"
	"handbook-rag/internal/llm"
	"handbook-rag/internal/ocr"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	pdfPath := flag.String("pdf", "", "Path to the handbook PDF")
	maxPages := flag.Int("max-pages", 0, "Maximum pages to process (0 = config default)")
	supplements := flag.String("supplements", "", "Comma-separated supplementary documents (.txt, .md, .docx, .xlsx, .ods)")
	dryRun := flag.Bool("dry-run", false, "Extract, analyze and chunk without embedding or storing")
	flag.Parse()

	if *pdfPath == "" {
		log.Fatal().Msg("Please provide the handbook PDF using the -pdf flag")
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	if *maxPages <= 0 {
		*maxPages = cfg.MaxPages
	}

	ctx := context.Background()

	var engine ocr.Engine
	if tess := ocr.NewTesseract(); tess.Available() {
		engine = tess
	} else {
		log.Warn().Msg("tesseract not found on PATH, falling back to PDF text layer")
	}

	extractor := ocr.NewExtractor(engine, cfg.OCRDPI)
	text, err := extractor.Extract(ctx, *pdfPath, *maxPages)
	if err != nil {
		log.Fatal().Err(err).Msg("Error extracting handbook text")
	}
	if strings.TrimSpace(text) == "" {
		log.Fatal().Msg("No readable text could be extracted from the PDF")
	}
	log.Info().Int("chars", len(text)).Msg("Extracted handbook text")

	if *supplements != "" {
		extra := corpus.LoadSupplements(strings.Split(*supplements, ","))
		if extra != "" {
			text = text + "\n\n" + extra
		}
	}

	organized, terms := analyze.Analyze(text)

	chunks, err := chunker.Chunk(organized, terms, chunker.Config{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Error chunking text")
	}
	if len(chunks) == 0 {
		log.Fatal().Msg("Chunking produced no chunks")
	}

	for i := 0; i < len(chunks) && i < 5; i++ {
		preview := chunks[i].Content
		if len(preview) > 200 {
			preview = preview[:200]
		}
		log.Debug().
			Int("score", chunks[i].ImportanceScore).
			Str("preview", strings.ReplaceAll(preview, "\n", " ")).
			Msgf("Top chunk %d", i+1)
	}

	if *dryRun {
		log.Info().Int("chunks", len(chunks)).Msg("Dry run complete, nothing stored")
		return
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Configuration invalid")
	}
	embedder, err := llm.NewEmbedder(cfg.OpenAIKey, cfg.EmbeddingModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	ix, err := index.Create(cfg.IndexPath, llm.EmbeddingFunc(embedder))
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening vector index")
	}
	if err := ix.Rebuild(ctx, chunks); err != nil {
		log.Fatal().Err(err).Msg("Error rebuilding vector index")
	}

	log.Info().Int("documents", ix.Count()).Str("path", cfg.IndexPath).Msg("Vector index rebuilt")
}
