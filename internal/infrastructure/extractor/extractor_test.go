package extractor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/mpetrenko/doc-enrichment/internal/core/domain"
)

type storageStub struct {
	files map[string][]byte
}

func (s *storageStub) Save(context.Context, string, io.Reader) error {
	return errors.New("not implemented")
}

func (s *storageStub) Open(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.files[key]
	if !ok {
		return nil, errors.New("no such file")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *storageStub) Delete(context.Context, string) error { return errors.New("not implemented") }

func TestExtractPlaintext(t *testing.T) {
	ext := New(&storageStub{files: map[string][]byte{
		"doc-1_notes.txt": []byte("  hello world\n"),
	}})

	text, err := ext.Extract(context.Background(), &domain.Document{
		ID:         "doc-1",
		Filename:   "notes.txt",
		StoredPath: "doc-1_notes.txt",
		FileType:   "text/plain",
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "hello world" {
		t.Fatalf("expected trimmed text, got %q", text)
	}
}

func TestExtractRejectsBinaryAsPlaintext(t *testing.T) {
	ext := New(&storageStub{files: map[string][]byte{
		"doc-1_blob.bin": {0xff, 0xfe, 0x00, 0x81},
	}})

	_, err := ext.Extract(context.Background(), &domain.Document{
		ID:         "doc-1",
		Filename:   "blob.bin",
		StoredPath: "doc-1_blob.bin",
	})
	if err == nil {
		t.Fatalf("expected error for non-utf8 content")
	}
}

func TestExtractFailsWhenFileMissing(t *testing.T) {
	ext := New(&storageStub{files: map[string][]byte{}})

	_, err := ext.Extract(context.Background(), &domain.Document{
		ID:         "doc-1",
		Filename:   "gone.txt",
		StoredPath: "doc-1_gone.txt",
	})
	if err == nil {
		t.Fatalf("expected error for missing stored file")
	}
}

func TestClassifyFormat(t *testing.T) {
	cases := []struct {
		filename string
		mimeType string
		want     fileFormat
	}{
		{"report.pdf", "", formatPDF},
		{"REPORT.PDF", "", formatPDF},
		{"sheet.xlsx", "", formatXLSX},
		{"macros.xlsm", "", formatXLSX},
		{"download", "application/pdf", formatPDF},
		{"download", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", formatXLSX},
		{"notes.txt", "text/plain", formatPlain},
		{"unknown", "", formatPlain},
	}
	for _, tc := range cases {
		if got := classifyFormat(tc.filename, tc.mimeType); got != tc.want {
			t.Errorf("classifyFormat(%q, %q) = %v, want %v", tc.filename, tc.mimeType, got, tc.want)
		}
	}
}
