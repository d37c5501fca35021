package ports

import (
	"context"
	"io"

	"github.com/mpetrenko/doc-enrichment/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context) ([]domain.Document, error)
	// SaveEnrichment writes all enrichment fields and the Processed status in
	// one statement, but only while the current status is in allowedFrom.
	// A non-matching status yields domain.ErrConflict and no mutation.
	SaveEnrichment(ctx context.Context, id string, enr domain.Enrichment, allowedFrom ...domain.DocumentStatus) error
	UpdateFields(ctx context.Context, id string, patch domain.DocumentPatch) (*domain.Document, error)
	Delete(ctx context.Context, id string) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// MessageQueue publishes/consumes enrichment triggers.
type MessageQueue interface {
	PublishEnrichmentRequested(ctx context.Context, documentID string) error
	SubscribeEnrichmentRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Completer issues one completion request to the language model and returns
// the raw text. No retries, no parsing.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error)
}
