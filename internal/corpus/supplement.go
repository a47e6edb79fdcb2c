// Package corpus loads supplementary reference documents whose plain
// text is appended to the OCR output before analysis.
package corpus

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// LoadSupplements loads every listed document, skipping the ones that
// fail with a warning; a lost supplement is tolerated the same way a
// lost page is.
func LoadSupplements(paths []string) string {
	var texts []string
	for _, path := range paths {
		text, err := LoadSupplement(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("skipping unreadable supplement")
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		texts = append(texts, text)
		log.Info().Str("file", path).Int("chars", len(text)).Msg("loaded supplement")
	}
	return strings.Join(texts, "\n\n")
}

// LoadSupplement reads one supplementary document and returns its
// plain text.
func LoadSupplement(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case ".md", ".markdown":
		return loadMarkdown(path)
	case ".docx":
		return loadDOCX(path)
	case ".xlsx":
		return loadXLSX(path)
	case ".ods":
		return loadODS(path)
	default:
		return "", fmt.Errorf("unsupported supplement format: %s", ext)
	}
}

// loadMarkdown renders the markdown and strips the markup, leaving the
// prose for analysis.
func loadMarkdown(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert(data, &buf); err != nil {
		return "", err
	}
	return stripTags(buf.String()), nil
}

func loadDOCX(path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", err
	}
	defer r.Close()
	return stripTags(r.Editable().GetContent()), nil
}

func loadXLSX(path string) (string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return "", err
	}
	var text strings.Builder
	for _, sheet := range f.Sheets {
		text.WriteString(sheet.Name + "\n")
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
	}
	return text.String(), nil
}

func loadODS(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var text strings.Builder
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		text.WriteString(sheetName + "\n")
		for _, row := range rows {
			text.WriteString(strings.Join(row, "\t") + "\n")
		}
	}
	return text.String(), nil
}

func stripTags(s string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(s, " "))
}
