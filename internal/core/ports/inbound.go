package ports

import (
	"context"
	"io"

	"github.com/mpetrenko/doc-enrichment/internal/core/domain"
)

// UploadHints are optional classification defaults supplied at ingestion.
type UploadHints struct {
	DocumentType       string
	AssignedDepartment string
}

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, size int64, hints UploadHints, body io.Reader) (*domain.Document, error)
}

// DocumentEnricher is the inbound contract for the enrichment pipeline.
//
// ProcessByID is the synchronous path used by manual re-process requests; it
// returns the updated document or a typed error. ScheduleByID is the
// fire-and-forget path used by the queue consumer; its error exists for
// observability only and is never propagated back to the trigger. A skipped
// attempt (concurrent run in flight, document already terminal) reports nil.
type DocumentEnricher interface {
	ProcessByID(ctx context.Context, documentID string) (*domain.Document, error)
	ScheduleByID(ctx context.Context, documentID string) error
}

// DocumentManager is the inbound contract for the manual CRUD surface.
type DocumentManager interface {
	Get(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context) ([]domain.Document, error)
	Update(ctx context.Context, id string, patch domain.DocumentPatch) (*domain.Document, error)
	Delete(ctx context.Context, id string) error
}
