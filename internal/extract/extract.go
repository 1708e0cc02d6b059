// Package extract turns uploaded company documents into the plain text that
// the tag-match pipeline searches and injects into prompts.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// ErrUnsupportedType is returned for file types the parser cannot handle.
var ErrUnsupportedType = errors.New("unsupported file type")

// Text extracts plain text from an uploaded file. The true type is sniffed
// from the bytes first; the declared mime type and extension are fallbacks.
// Supported: PDF, plain text, markdown.
func Text(originalName, mimeType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty file: %s", originalName)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	mt := strings.ToLower(strings.TrimSpace(mimeType))

	if isPDF(data) {
		return pdfText(data)
	}
	if mt == "application/pdf" || ext == ".pdf" {
		// Claims PDF but the %PDF header is missing.
		return "", fmt.Errorf("%w: %s is not a valid pdf", ErrUnsupportedType, originalName)
	}

	if isProbablyText(data) || mt == "text/plain" || mt == "text/markdown" || ext == ".txt" || ext == ".md" {
		return collapseWhitespace(string(data)), nil
	}

	return "", fmt.Errorf("%w: name=%s mime=%s", ErrUnsupportedType, originalName, mimeType)
}

func isPDF(b []byte) bool {
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

func isProbablyText(b []byte) bool {
	sample := b
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	printable := 0
	for _, c := range sample {
		if c == 0x00 {
			return false
		}
		if c == '\n' || c == '\r' || c == '\t' || (c >= 0x20 && c <= 0x7E) || c >= 0x80 {
			printable++
		}
	}
	return float64(printable)/float64(len(sample)) > 0.9
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plaintext: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return collapseWhitespace(string(b)), nil
}

func collapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}
