package analyze

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

const (
	maxFeatures = 1000
	minDocFreq  = 2
	maxDocRatio = 0.8
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// vectorizer holds per-sentence TF-IDF vectors over a unigram+bigram
// vocabulary.
type vectorizer struct {
	terms []string
	rows  [][]float64
	means []float64
}

// fitVectorizer builds the vocabulary, IDF values and L2-normalized
// sentence vectors from the corpus sentences.
func fitVectorizer(sentences []string) (*vectorizer, error) {
	stop := stopwordSet()

	features := make([][]string, len(sentences))
	df := make(map[string]int)
	totalFreq := make(map[string]int)
	for i, sentence := range sentences {
		feats := extractFeatures(sentence, stop)
		features[i] = feats
		seen := make(map[string]struct{}, len(feats))
		for _, f := range feats {
			totalFreq[f]++
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			df[f]++
		}
	}

	// Document-frequency filtering mirrors min_df=2 / max_df=0.8.
	n := len(sentences)
	maxDF := int(maxDocRatio * float64(n))
	var candidates []string
	for term, freq := range df {
		if freq >= minDocFreq && freq <= maxDF {
			candidates = append(candidates, term)
		}
	}
	if len(candidates) == 0 {
		return nil, errors.New("no terms survive document-frequency filtering")
	}
	if len(candidates) > maxFeatures {
		sort.Slice(candidates, func(i, j int) bool {
			if totalFreq[candidates[i]] != totalFreq[candidates[j]] {
				return totalFreq[candidates[i]] > totalFreq[candidates[j]]
			}
			return candidates[i] < candidates[j]
		})
		candidates = candidates[:maxFeatures]
	}
	sort.Strings(candidates)

	vocab := make(map[string]int, len(candidates))
	for i, term := range candidates {
		vocab[term] = i
	}

	idf := make([]float64, len(candidates))
	for term, i := range vocab {
		idf[i] = math.Log(float64(1+n)/float64(1+df[term])) + 1.0
	}

	v := &vectorizer{
		terms: candidates,
		rows:  make([][]float64, n),
		means: make([]float64, len(candidates)),
	}
	for i, feats := range features {
		row := make([]float64, len(candidates))
		for _, f := range feats {
			if idx, ok := vocab[f]; ok {
				row[idx]++
			}
		}
		var norm float64
		for idx := range row {
			row[idx] *= idf[idx]
			norm += row[idx] * row[idx]
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for idx := range row {
				row[idx] /= norm
			}
		}
		v.rows[i] = row
		for idx, val := range row {
			v.means[idx] += val
		}
	}
	for idx := range v.means {
		v.means[idx] /= float64(n)
	}
	return v, nil
}

// TopTerms returns up to n vocabulary terms ranked by mean TF-IDF
// score descending. Ties break alphabetically so runs are stable.
func (v *vectorizer) TopTerms(n int) []string {
	order := make([]int, len(v.terms))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		i, j := order[a], order[b]
		if v.means[i] != v.means[j] {
			return v.means[i] > v.means[j]
		}
		return v.terms[i] < v.terms[j]
	})
	if n > len(order) {
		n = len(order)
	}
	terms := make([]string, n)
	for i := 0; i < n; i++ {
		terms[i] = v.terms[order[i]]
	}
	return terms
}

// extractFeatures tokenizes a sentence and emits stopword-filtered
// unigrams plus bigrams over the kept tokens.
func extractFeatures(sentence string, stop map[string]struct{}) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(sentence), -1)
	tokens := raw[:0]
	for _, tok := range raw {
		if _, isStop := stop[tok]; isStop {
			continue
		}
		tokens = append(tokens, tok)
	}

	features := make([]string, 0, 2*len(tokens))
	features = append(features, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		features = append(features, tokens[i]+" "+tokens[i+1])
	}
	return features
}

func stopwordSet() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for",
		"to", "of", "in", "on", "at", "by", "with", "as", "is", "are",
		"was", "were", "be", "been", "being", "it", "this", "that",
		"these", "those", "from", "up", "down", "over", "under", "again",
		"further", "than", "so", "such", "into", "about", "between",
		"through", "during", "before", "after", "above", "below", "out",
		"off", "own", "same", "too", "very", "can", "will", "just",
		"should", "now", "you", "your", "they", "their", "when", "while",
		"do", "does", "did", "have", "has", "had", "not", "no", "must",
		// document-structure terms that dominate handbook scans
		"page", "section", "chapter", "figure", "table", "see", "also",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
