package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"
)

// Engine recognizes text in a single page image.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// Tesseract shells out to the tesseract binary, feeding it PNG data on
// stdin and reading recognized text from stdout.
type Tesseract struct {
	Binary string
	Args   []string
}

func NewTesseract() *Tesseract {
	return &Tesseract{
		Binary: "tesseract",
		Args:   []string{"--oem", "3", "--psm", "6"},
	}
}

// Available reports whether the tesseract binary can be found on PATH.
func (t *Tesseract) Available() bool {
	_, err := exec.LookPath(t.Binary)
	return err == nil
}

func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	var in bytes.Buffer
	if err := png.Encode(&in, img); err != nil {
		return "", fmt.Errorf("encoding page image: %w", err)
	}

	args := append([]string{"stdin", "stdout"}, t.Args...)
	cmd := exec.CommandContext(ctx, t.Binary, args...)
	cmd.Stdin = &in

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil
}

var _ Engine = (*Tesseract)(nil)
