package ocr

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrExtraction marks a corpus that cannot be opened or rendered at
// all. Per-page failures never produce it; they are logged and the
// page is skipped.
var ErrExtraction = errors.New("handbook extraction failed")

// DefaultMinTextLen is the minimum number of cleaned characters a page
// must yield to be kept. Shorter pages are treated as unreadable scan
// artifacts.
const DefaultMinTextLen = 100

var (
	nonLinguistic = regexp.MustCompile(`[^\w\s.,!?()\[\]{}:;]`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// CleanText strips non-linguistic characters and collapses whitespace
// runs, matching what the chunker and analyzer expect downstream.
func CleanText(s string) string {
	s = nonLinguistic.ReplaceAllString(s, " ")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Extractor turns a PDF into cleaned corpus text. With an Engine set it
// renders and recognizes each page; without one it falls back to the
// PDF's embedded text layer.
type Extractor struct {
	Engine     Engine
	DPI        int
	MinTextLen int
}

func NewExtractor(engine Engine, dpi int) *Extractor {
	return &Extractor{Engine: engine, DPI: dpi, MinTextLen: DefaultMinTextLen}
}

// Extract returns the concatenation of all retained page texts, joined
// by blank lines. It fails only when the PDF cannot be rendered or
// opened; losing individual pages is tolerated.
func (e *Extractor) Extract(ctx context.Context, pdfPath string, maxPages int) (string, error) {
	if e.Engine == nil {
		log.Info().Str("pdf", pdfPath).Msg("no OCR engine configured, using PDF text layer")
		pages, err := textLayerPages(pdfPath, maxPages)
		if err != nil {
			return "", err
		}
		return e.retainPages(pages), nil
	}

	images, err := renderPages(ctx, pdfPath, e.DPI, maxPages)
	if err != nil {
		return "", err
	}
	log.Info().Int("pages", len(images)).Str("pdf", pdfPath).Msg("rendered pages for OCR")

	pages := make([]string, 0, len(images))
	for i, img := range images {
		text, err := e.Engine.Recognize(ctx, EnhanceForOCR(img))
		if err != nil {
			log.Warn().Err(err).Int("page", i+1).Msg("OCR failed, skipping page")
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return e.retainPages(pages), nil
}

// retainPages cleans each page and drops the ones below the minimum
// readable length.
func (e *Extractor) retainPages(pages []string) string {
	minLen := e.MinTextLen
	if minLen <= 0 {
		minLen = DefaultMinTextLen
	}

	var kept []string
	for i, page := range pages {
		text := CleanText(page)
		if len(text) < minLen {
			log.Debug().Int("page", i+1).Int("chars", len(text)).Msg("page below minimum readable length, dropped")
			continue
		}
		kept = append(kept, text)
	}
	log.Info().Int("kept", len(kept)).Int("total", len(pages)).Msg("page extraction finished")
	return strings.Join(kept, "\n\n")
}
