package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mpetrenko/doc-enrichment/internal/core/domain"
	"github.com/mpetrenko/doc-enrichment/internal/core/ports"
)

const (
	defaultDocumentType = "General"
	defaultDepartment   = "Archives"
)

type IngestDocumentUseCase struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

// Upload persists the file and its record, then schedules one enrichment
// attempt for the new id. The call returns as soon as persistence and the
// publish succeed; it never waits for enrichment.
func (uc *IngestDocumentUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	size int64,
	hints ports.UploadHints,
	body io.Reader,
) (*domain.Document, error) {
	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.Document{
		ID:                 id,
		Filename:           filename,
		StoredPath:         storageKey,
		FileType:           mimeType,
		FileSize:           size,
		DocumentType:       orDefault(hints.DocumentType, defaultDocumentType),
		AssignedDepartment: orDefault(hints.AssignedDepartment, defaultDepartment),
		Status:             domain.StatusProcessing,
		Reviewed:           false,
		AIKeyPoints:        []string{},
		Metadata:           map[string]any{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		// No record references the file; don't leave it behind.
		_ = uc.storage.Delete(ctx, storageKey)
		return nil, fmt.Errorf("create document record: %w", err)
	}

	if err := uc.queue.PublishEnrichmentRequested(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish enrichment event: %w", err)
	}

	return doc, nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
