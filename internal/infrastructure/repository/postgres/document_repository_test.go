package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/mpetrenko/doc-enrichment/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DocumentRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, filename, stored_path").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveEnrichmentConflictWhenStatusNotAllowed(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	enr := domain.Enrichment{
		DocumentType: "Invoice",
		Summary:      "sum",
		KeyPoints:    []string{"a"},
		Confidence:   0.9,
		ProcessedAt:  time.Now().UTC(),
	}

	mock.ExpectExec("UPDATE documents").
		WithArgs("doc-1", "Invoice", "sum", sqlmock.AnyArg(), 0.9,
			sqlmock.AnyArg(), "", string(domain.StatusProcessed), sqlmock.AnyArg(),
			string(domain.StatusProcessing)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	// The document exists but left Processing, so the predicate matched nothing.
	rows := documentRows("doc-1", string(domain.StatusRejected))
	mock.ExpectQuery("SELECT id, filename, stored_path").
		WithArgs("doc-1").
		WillReturnRows(rows)

	err := repo.SaveEnrichment(context.Background(), "doc-1", enr, domain.StatusProcessing)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveEnrichmentNotFoundWhenDocumentMissing(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	enr := domain.Enrichment{DocumentType: "Invoice", Summary: "sum", KeyPoints: []string{}, ProcessedAt: time.Now().UTC()}

	mock.ExpectExec("UPDATE documents").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, filename, stored_path").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	err := repo.SaveEnrichment(context.Background(), "missing", enr)
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveEnrichmentSucceedsOnMatchedRow(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	enr := domain.Enrichment{
		DocumentType: "Contract",
		Summary:      "sum",
		KeyPoints:    []string{"a", "b"},
		Confidence:   0.8,
		ProcessedAt:  time.Now().UTC(),
	}

	mock.ExpectExec("UPDATE documents").
		WithArgs("doc-1", "Contract", "sum", sqlmock.AnyArg(), 0.8,
			sqlmock.AnyArg(), "", string(domain.StatusProcessed), sqlmock.AnyArg(),
			string(domain.StatusProcessing), string(domain.StatusProcessed)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveEnrichment(context.Background(), "doc-1", enr,
		domain.StatusProcessing, domain.StatusProcessed)
	if err != nil {
		t.Fatalf("SaveEnrichment() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("DELETE FROM documents").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateFieldsRejectsEmptyPatch(t *testing.T) {
	repo, _, done := newRepoWithMock(t)
	defer done()

	_, err := repo.UpdateFields(context.Background(), "doc-1", domain.DocumentPatch{})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestListScansDocuments(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	rows := documentRows("doc-1", string(domain.StatusProcessing))
	mock.ExpectQuery("SELECT id, filename, stored_path").
		WillReturnRows(rows)

	docs, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].ID != "doc-1" || docs[0].Status != domain.StatusProcessing {
		t.Fatalf("unexpected document: %+v", docs[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func documentRows(id, status string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "filename", "stored_path", "file_type", "file_size", "content", "extracted_text",
		"document_type", "assigned_department", "status", "reviewed", "summary",
		"ai_confidence", "ai_key_points", "ai_processed_at", "metadata", "created_at", "updated_at",
	}).AddRow(
		id, "a.txt", id+"_a.txt", "text/plain", int64(1), "", "text",
		"General", "Archives", status, false, "",
		0.0, []byte(`[]`), nil, []byte(`{}`), now, now,
	)
}
