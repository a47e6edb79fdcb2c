// Package chunker splits analyzed corpus text into overlapping chunks
// and scores each one by importance-term density.
package chunker

import (
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/textsplitter"

	"handbook-rag/internal/models"
)

const (
	DefaultChunkSize    = 1200
	DefaultChunkOverlap = 200

	// scoringTermCount caps how many ranked importance terms count
	// toward a chunk's score.
	scoringTermCount = 20

	domainKeywordBoost = 2
)

// DomainKeywords boost chunks about licensing and road-test material.
var DomainKeywords = []string{
	"license", "licence", "g1", "g2", "test", "drive", "permit",
	"ontario", "ministry", "transport",
}

// flagTerms set the HasDomainTerms metadata flag.
var flagTerms = []string{"license", "licence", "g1", "g2"}

// separators cascade from paragraph breaks down to bare whitespace.
var separators = []string{"\n\n", "\n", ". ", "? ", "! ", "; ", " "}

type Config struct {
	ChunkSize    int
	ChunkOverlap int
}

// Chunk splits text into overlapping spans and attaches importance
// metadata. The returned slice is ordered by score descending; that
// order is advisory only, since the index retrieves by similarity.
func Chunk(text string, importantTerms []string, cfg Config) ([]models.Chunk, error) {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = DefaultChunkOverlap
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(cfg.ChunkSize),
		textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
		textsplitter.WithSeparators(separators),
	)
	pieces, err := splitter.SplitText(text)
	if err != nil {
		return nil, err
	}

	if len(importantTerms) > scoringTermCount {
		importantTerms = importantTerms[:scoringTermCount]
	}

	var chunks []models.Chunk
	for _, piece := range pieces {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		lower := strings.ToLower(piece)

		score := 0
		for _, term := range importantTerms {
			if strings.Contains(lower, strings.ToLower(term)) {
				score++
			}
		}
		for _, keyword := range DomainKeywords {
			if strings.Contains(lower, keyword) {
				score += domainKeywordBoost
			}
		}

		chunks = append(chunks, models.Chunk{
			Content:         piece,
			ImportanceScore: score,
			HasDomainTerms:  containsAny(lower, flagTerms),
		})
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].ImportanceScore > chunks[j].ImportanceScore
	})
	for i := range chunks {
		chunks[i].Index = i
	}

	log.Info().Int("chunks", len(chunks)).Msg("created scored chunks")
	return chunks, nil
}

func containsAny(lower string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
