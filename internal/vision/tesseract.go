package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strconv"
	"strings"
)

// TesseractOCR shells out to the tesseract binary for text recognition.
// The image is streamed over stdin as PNG; no temp files.
type TesseractOCR struct {
	// Binary overrides the executable name (default "tesseract").
	Binary string
}

func (t *TesseractOCR) binary() string {
	if t.Binary != "" {
		return t.Binary
	}
	return "tesseract"
}

func (t *TesseractOCR) ExtractText(img image.Image) (string, error) {
	out, err := t.run(img, "txt")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (t *TesseractOCR) ExtractTextWithConfidence(img image.Image) (string, float64, error) {
	out, err := t.run(img, "tsv")
	if err != nil {
		return "", 0, err
	}
	text, conf := parseTSV(out)
	return text, conf, nil
}

func (t *TesseractOCR) run(img image.Image, format string) (string, error) {
	var in bytes.Buffer
	if err := png.Encode(&in, img); err != nil {
		return "", fmt.Errorf("encode image for ocr: %w", err)
	}

	cmd := exec.Command(t.binary(), "stdin", "stdout", format)
	cmd.Stdin = &in
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract: %s (%w)", strings.TrimSpace(stderr.String()), err)
	}
	return stdout.String(), nil
}

// parseTSV extracts recognized words and their mean confidence from
// tesseract's tsv output. Column 11 is conf, column 12 is text; conf -1
// marks structural rows without text.
func parseTSV(tsv string) (string, float64) {
	var words []string
	var confSum float64
	var confCount int

	for i, line := range strings.Split(tsv, "\n") {
		if i == 0 {
			continue // header
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 12 {
			continue
		}
		conf, err := strconv.ParseFloat(cols[10], 64)
		if err != nil || conf < 0 {
			continue
		}
		word := strings.TrimSpace(cols[11])
		if word == "" {
			continue
		}
		words = append(words, word)
		confSum += conf
		confCount++
	}

	if confCount == 0 {
		return "", 0
	}
	return strings.Join(words, " "), confSum / float64(confCount)
}
