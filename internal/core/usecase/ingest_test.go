package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/mpetrenko/doc-enrichment/internal/core/domain"
	"github.com/mpetrenko/doc-enrichment/internal/core/ports"
)

type ingestRepoFake struct {
	created   []*domain.Document
	createErr error
}

func (f *ingestRepoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, doc)
	return nil
}

func (f *ingestRepoFake) GetByID(context.Context, string) (*domain.Document, error) {
	return nil, errors.New("not implemented")
}

func (f *ingestRepoFake) List(context.Context) ([]domain.Document, error) {
	return nil, errors.New("not implemented")
}

func (f *ingestRepoFake) SaveEnrichment(context.Context, string, domain.Enrichment, ...domain.DocumentStatus) error {
	return errors.New("not implemented")
}

func (f *ingestRepoFake) UpdateFields(context.Context, string, domain.DocumentPatch) (*domain.Document, error) {
	return nil, errors.New("not implemented")
}

func (f *ingestRepoFake) Delete(context.Context, string) error { return errors.New("not implemented") }

type storageFake struct {
	saved   map[string][]byte
	deleted []string
	saveErr error
}

func newStorageFake() *storageFake {
	return &storageFake{saved: map[string][]byte{}}
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.saved[key] = buf
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	buf, ok := f.saved[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(buf)), nil
}

func (f *storageFake) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	delete(f.saved, key)
	return nil
}

type queueFake struct {
	published  []string
	publishErr error
}

func (f *queueFake) PublishEnrichmentRequested(_ context.Context, documentID string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, documentID)
	return nil
}

func (f *queueFake) SubscribeEnrichmentRequested(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

func TestUploadDefaultsAndPublishes(t *testing.T) {
	repo := &ingestRepoFake{}
	storage := newStorageFake()
	queue := &queueFake{}
	uc := NewIngestDocumentUseCase(repo, storage, queue)

	doc, err := uc.Upload(context.Background(), "report Q1.pdf", "application/pdf", 42,
		ports.UploadHints{}, strings.NewReader("pdf bytes"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if doc.ID == "" {
		t.Fatalf("expected generated id")
	}
	if doc.Status != domain.StatusProcessing {
		t.Fatalf("expected initial status Processing, got %s", doc.Status)
	}
	if doc.DocumentType != "General" {
		t.Fatalf("expected default document type General, got %q", doc.DocumentType)
	}
	if doc.AssignedDepartment != "Archives" {
		t.Fatalf("expected default department Archives, got %q", doc.AssignedDepartment)
	}
	if doc.Reviewed {
		t.Fatalf("new documents must not be reviewed")
	}
	if doc.Filename != "report Q1.pdf" {
		t.Fatalf("original filename must be preserved, got %q", doc.Filename)
	}
	if strings.Contains(doc.StoredPath, " ") {
		t.Fatalf("storage key must be sanitized, got %q", doc.StoredPath)
	}
	if !strings.HasPrefix(doc.StoredPath, doc.ID+"_") {
		t.Fatalf("storage key must be prefixed with the id, got %q", doc.StoredPath)
	}

	if _, ok := storage.saved[doc.StoredPath]; !ok {
		t.Fatalf("file was not written under %q", doc.StoredPath)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one created record, got %d", len(repo.created))
	}
	if len(queue.published) != 1 || queue.published[0] != doc.ID {
		t.Fatalf("expected one publish for %s, got %v", doc.ID, queue.published)
	}
}

func TestUploadKeepsCallerHints(t *testing.T) {
	uc := NewIngestDocumentUseCase(&ingestRepoFake{}, newStorageFake(), &queueFake{})

	doc, err := uc.Upload(context.Background(), "contract.pdf", "application/pdf", 10,
		ports.UploadHints{DocumentType: "Contract", AssignedDepartment: "Legal"},
		strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.DocumentType != "Contract" || doc.AssignedDepartment != "Legal" {
		t.Fatalf("hints were not kept: %q / %q", doc.DocumentType, doc.AssignedDepartment)
	}
}

func TestUploadFailsWhenStorageFails(t *testing.T) {
	repo := &ingestRepoFake{}
	storage := newStorageFake()
	storage.saveErr = errors.New("disk full")
	uc := NewIngestDocumentUseCase(repo, storage, &queueFake{})

	_, err := uc.Upload(context.Background(), "a.txt", "text/plain", 1,
		ports.UploadHints{}, strings.NewReader("x"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(repo.created) != 0 {
		t.Fatalf("no record should exist without a stored file")
	}
}

func TestUploadRemovesStoredFileWhenCreateFails(t *testing.T) {
	repo := &ingestRepoFake{createErr: errors.New("db down")}
	storage := newStorageFake()
	uc := NewIngestDocumentUseCase(repo, storage, &queueFake{})

	_, err := uc.Upload(context.Background(), "a.txt", "text/plain", 1,
		ports.UploadHints{}, strings.NewReader("x"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(storage.saved) != 0 {
		t.Fatalf("orphaned file left in storage: %v", storage.saved)
	}
	if len(storage.deleted) != 1 {
		t.Fatalf("expected one cleanup delete, got %v", storage.deleted)
	}
}

func TestUploadSurfacesPublishFailure(t *testing.T) {
	queue := &queueFake{publishErr: errors.New("nats down")}
	uc := NewIngestDocumentUseCase(&ingestRepoFake{}, newStorageFake(), queue)

	_, err := uc.Upload(context.Background(), "a.txt", "text/plain", 1,
		ports.UploadHints{}, strings.NewReader("x"))
	if err == nil {
		t.Fatalf("expected error when publish fails")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"report Q1.pdf", "report_Q1.pdf"},
		{"../../etc/passwd", "passwd"},
		{"résumé.pdf", "r_sum_.pdf"},
		{"", "document.bin"},
		{"ok-name_1.txt", "ok-name_1.txt"},
	}
	for _, tc := range cases {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
