package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mpetrenko/doc-enrichment/internal/core/domain"
	"github.com/mpetrenko/doc-enrichment/internal/core/ports"
)

// ManageDocumentUseCase is the manual surface: reads, field overrides and
// deletion. Manual updates are the only path that may set Rejected or move a
// document back to Processing.
type ManageDocumentUseCase struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	logger  *slog.Logger
}

func NewManageDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	logger *slog.Logger,
) *ManageDocumentUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ManageDocumentUseCase{repo: repo, storage: storage, logger: logger}
}

func (uc *ManageDocumentUseCase) Get(ctx context.Context, id string) (*domain.Document, error) {
	return uc.repo.GetByID(ctx, id)
}

func (uc *ManageDocumentUseCase) List(ctx context.Context) ([]domain.Document, error) {
	return uc.repo.List(ctx)
}

func (uc *ManageDocumentUseCase) Update(ctx context.Context, id string, patch domain.DocumentPatch) (*domain.Document, error) {
	if patch.Empty() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "update document",
			errors.New("no updatable fields in request"))
	}
	if patch.Status != nil && !domain.ValidStatus(*patch.Status) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "update document",
			fmt.Errorf("unknown status %q", string(*patch.Status)))
	}
	return uc.repo.UpdateFields(ctx, id, patch)
}

func (uc *ManageDocumentUseCase) Delete(ctx context.Context, id string) error {
	doc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	if doc.StoredPath != "" {
		if err := uc.storage.Delete(ctx, doc.StoredPath); err != nil {
			uc.logger.Warn("stored_file_delete_failed", "document_id", id, "error", err)
		}
	}
	return nil
}
