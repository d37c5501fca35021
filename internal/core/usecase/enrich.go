package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mpetrenko/doc-enrichment/internal/core/domain"
	"github.com/mpetrenko/doc-enrichment/internal/core/ports"
)

// EnrichConfig bounds the two model calls of one cycle.
type EnrichConfig struct {
	ClassifyMaxTokens  int
	SummaryMaxTokens   int
	SummaryTemperature float64
}

func (c EnrichConfig) normalize() EnrichConfig {
	out := c
	if out.ClassifyMaxTokens <= 0 {
		out.ClassifyMaxTokens = 100
	}
	if out.SummaryMaxTokens <= 0 {
		out.SummaryMaxTokens = 200
	}
	if out.SummaryTemperature <= 0 {
		out.SummaryTemperature = 0.3
	}
	return out
}

// EnrichDocumentUseCase runs one classify-then-summarize cycle per document.
// An attempt either persists the complete enrichment result in a single write
// or leaves the document untouched.
type EnrichDocumentUseCase struct {
	repo      ports.DocumentRepository
	extractor ports.TextExtractor
	completer ports.Completer
	cfg       EnrichConfig
	guard     *keyedGuard
	logger    *slog.Logger
}

func NewEnrichDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	completer ports.Completer,
	cfg EnrichConfig,
	logger *slog.Logger,
) *EnrichDocumentUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrichDocumentUseCase{
		repo:      repo,
		extractor: extractor,
		completer: completer,
		cfg:       cfg.normalize(),
		guard:     newKeyedGuard(),
		logger:    logger,
	}
}

// ProcessByID is the synchronous manual re-process path. Concurrent calls on
// the same id serialize. A Rejected document is refused; a Processed one may
// be re-run and re-confirms Processed on success.
func (uc *EnrichDocumentUseCase) ProcessByID(ctx context.Context, documentID string) (*domain.Document, error) {
	uc.guard.Acquire(documentID)
	defer uc.guard.Release(documentID)

	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status == domain.StatusRejected {
		return nil, domain.WrapError(domain.ErrConflict, "enrich document",
			errors.New("document is rejected; re-open it before re-processing"))
	}

	enrichment, err := uc.runCycle(ctx, doc)
	if err != nil {
		return nil, err
	}

	err = uc.repo.SaveEnrichment(ctx, documentID, enrichment,
		domain.StatusProcessing, domain.StatusProcessed)
	if err != nil {
		return nil, err
	}
	return uc.repo.GetByID(ctx, documentID)
}

// ScheduleByID is the fire-and-forget path. The returned error feeds worker
// metrics and logs; it is never propagated back to the trigger. A document
// that already left Processing is skipped before any model call, and a
// concurrent attempt on the same id drops this one; both skips report nil.
func (uc *EnrichDocumentUseCase) ScheduleByID(ctx context.Context, documentID string) error {
	if !uc.guard.TryAcquire(documentID) {
		uc.logger.Info("enrichment_skipped_in_flight", "document_id", documentID)
		return nil
	}
	defer uc.guard.Release(documentID)

	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		uc.logger.Warn("enrichment_load_failed", "document_id", documentID, "error", err)
		return err
	}
	if doc.Status != domain.StatusProcessing {
		uc.logger.Info("enrichment_skipped_terminal_status",
			"document_id", documentID, "status", string(doc.Status))
		return nil
	}

	enrichment, err := uc.runCycle(ctx, doc)
	if err != nil {
		uc.logger.Warn("enrichment_cycle_failed", "document_id", documentID, "error", err)
		return err
	}

	err = uc.repo.SaveEnrichment(ctx, documentID, enrichment, domain.StatusProcessing)
	if err != nil {
		uc.logger.Warn("enrichment_save_failed", "document_id", documentID, "error", err)
		return err
	}
	uc.logger.Info("enrichment_completed", "document_id", documentID,
		"document_type", enrichment.DocumentType)
	return nil
}

// runCycle performs both model calls and parses both responses. Nothing is
// persisted here; the document stays untouched on any failure.
func (uc *EnrichDocumentUseCase) runCycle(ctx context.Context, doc *domain.Document) (domain.Enrichment, error) {
	text, freshlyExtracted := uc.resolveText(ctx, doc)

	clsRaw, err := uc.completer.Complete(ctx, buildClassificationPrompt(text), 0, uc.cfg.ClassifyMaxTokens)
	if err != nil {
		return domain.Enrichment{}, fmt.Errorf("classify document: %w", err)
	}
	cls, ok := ParseClassification(clsRaw)
	if !ok {
		return domain.Enrichment{}, domain.WrapError(domain.ErrUpstream, "classify document",
			errors.New("no valid classification object in model output"))
	}

	sumRaw, err := uc.completer.Complete(ctx, buildSummaryPrompt(text), uc.cfg.SummaryTemperature, uc.cfg.SummaryMaxTokens)
	if err != nil {
		return domain.Enrichment{}, fmt.Errorf("summarize document: %w", err)
	}
	sum, ok := ParseSummary(sumRaw)
	if !ok {
		return domain.Enrichment{}, domain.WrapError(domain.ErrUpstream, "summarize document",
			errors.New("no valid summary object in model output"))
	}

	enrichment := domain.Enrichment{
		DocumentType: strings.TrimSpace(cls.Label),
		Summary:      strings.TrimSpace(sum.Summary),
		KeyPoints:    sum.KeyPoints,
		Confidence:   cls.Confidence,
		ProcessedAt:  time.Now().UTC(),
	}
	if freshlyExtracted {
		enrichment.ExtractedText = text
	}
	return enrichment, nil
}

// resolveText picks the text to enrich: existing extracted text, a fresh
// best-effort extraction from the stored file, or the placeholder.
func (uc *EnrichDocumentUseCase) resolveText(ctx context.Context, doc *domain.Document) (string, bool) {
	if strings.TrimSpace(doc.ExtractedText) != "" {
		return doc.ExtractedText, false
	}

	if uc.extractor != nil && doc.StoredPath != "" {
		text, err := uc.extractor.Extract(ctx, doc)
		if err != nil {
			uc.logger.Warn("text_extraction_failed", "document_id", doc.ID, "error", err)
		} else if strings.TrimSpace(text) != "" {
			return text, true
		}
	}

	return domain.PlaceholderText, false
}
