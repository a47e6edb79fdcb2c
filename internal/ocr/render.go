package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
)

// renderPages rasterizes up to maxPages pages of the PDF to images via
// pdftoppm. A failure here means the document itself is unreadable.
func renderPages(ctx context.Context, pdfPath string, dpi, maxPages int) ([]image.Image, error) {
	dir, err := os.MkdirTemp("", "handbook-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	defer os.RemoveAll(dir)

	prefix := filepath.Join(dir, "page")
	args := []string{"-png", "-r", strconv.Itoa(dpi), "-f", "1"}
	if maxPages > 0 {
		args = append(args, "-l", strconv.Itoa(maxPages))
	}
	args = append(args, pdfPath, prefix)

	cmd := exec.CommandContext(ctx, "pdftoppm", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%w: pdftoppm: %v: %s", ErrExtraction, err, bytes.TrimSpace(out))
	}

	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	sort.Strings(matches)

	var pages []image.Image
	for _, path := range matches {
		img, err := decodePNG(path)
		if err != nil {
			log.Warn().Err(err).Str("file", filepath.Base(path)).Msg("skipping undecodable page image")
			continue
		}
		pages = append(pages, img)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no pages rendered from %s", ErrExtraction, pdfPath)
	}
	return pages, nil
}

func decodePNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}

// textLayerPages reads the embedded text layer page by page. Used when
// no OCR engine is configured; pages without a text layer come back
// empty and get dropped by the minimum-length rule.
func textLayerPages(pdfPath string, maxPages int) ([]string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	n := reader.NumPage()
	if maxPages > 0 && n > maxPages {
		n = maxPages
	}
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		text, err := reader.Page(i).GetPlainText(nil)
		if err != nil {
			log.Warn().Err(err).Int("page", i).Msg("text layer extraction failed, skipping page")
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}
