// Package analyze scores corpus text with TF-IDF and reorders it by
// topic so that related sentences end up contiguous before chunking.
package analyze

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	// minSentences below which analysis is skipped entirely.
	minSentences = 10
	// TopTermCount is how many ranked terms are handed to the chunker.
	TopTermCount = 50

	clusterCount   = 10
	clusterSeed    = 42
	clusterRestart = 10
)

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+`)

// Analyze segments text into sentences, ranks unigram/bigram terms by
// TF-IDF and reorders sentences cluster by cluster. It degrades to the
// original text with no terms whenever analysis is infeasible; it
// never fails ingestion.
func Analyze(text string) (string, []string) {
	sentences := SplitSentences(text)
	if len(sentences) < minSentences {
		log.Info().Int("sentences", len(sentences)).Msg("too few sentences for term analysis, keeping original order")
		return text, nil
	}

	vec, err := fitVectorizer(sentences)
	if err != nil {
		log.Warn().Err(err).Msg("term analysis failed, keeping original order")
		return text, nil
	}
	terms := vec.TopTerms(TopTermCount)
	log.Info().Strs("top_terms", head(terms, 20)).Msg("ranked importance terms")

	if len(sentences) < clusterCount {
		return text, terms
	}
	assign := kmeans(vec.rows, clusterCount, clusterSeed, clusterRestart)
	return reorderByCluster(sentences, assign, clusterCount), terms
}

// SplitSentences segments text on sentence-ending punctuation. A
// trailing fragment without terminal punctuation is kept as its own
// sentence.
func SplitSentences(text string) []string {
	locs := sentencePattern.FindAllStringIndex(text, -1)
	var sentences []string
	end := 0
	for _, loc := range locs {
		if s := strings.TrimSpace(text[loc[0]:loc[1]]); s != "" {
			sentences = append(sentences, s)
		}
		end = loc[1]
	}
	if tail := strings.TrimSpace(text[end:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// reorderByCluster concatenates sentences cluster by cluster, with a
// blank line between clusters. Within a cluster the original sentence
// order is preserved.
func reorderByCluster(sentences []string, assign []int, k int) string {
	var lines []string
	for c := 0; c < k; c++ {
		var any bool
		for i, sentence := range sentences {
			if assign[i] == c {
				lines = append(lines, sentence)
				any = true
			}
		}
		if any {
			lines = append(lines, "")
		}
	}
	return strings.Join(lines, "\n")
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
