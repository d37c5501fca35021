// Package extractor recovers plain text from stored documents. Extraction is
// best effort: an unsupported or unreadable file yields an error and the
// pipeline falls back to the placeholder text.
package extractor

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/mpetrenko/doc-enrichment/internal/core/domain"
	"github.com/mpetrenko/doc-enrichment/internal/core/ports"
)

type Extractor struct {
	storage ports.ObjectStorage
}

func New(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	reader, err := e.storage.Open(ctx, doc.StoredPath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}

	switch classifyFormat(doc.Filename, doc.FileType) {
	case formatPDF:
		return extractPDF(raw)
	case formatXLSX:
		return extractXLSX(raw)
	default:
		return extractPlaintext(raw, doc.Filename)
	}
}

type fileFormat int

const (
	formatPlain fileFormat = iota
	formatPDF
	formatXLSX
)

func classifyFormat(filename, mimeType string) fileFormat {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return formatPDF
	case ".xlsx", ".xlsm", ".xltx":
		return formatXLSX
	}
	switch strings.ToLower(mimeType) {
	case "application/pdf":
		return formatPDF
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return formatXLSX
	}
	return formatPlain
}
