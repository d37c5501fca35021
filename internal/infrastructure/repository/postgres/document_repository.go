package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mpetrenko/doc-enrichment/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	stored_path TEXT NOT NULL DEFAULT '',
	file_type TEXT NOT NULL DEFAULT '',
	file_size BIGINT NOT NULL DEFAULT 0,
	content TEXT NOT NULL DEFAULT '',
	extracted_text TEXT NOT NULL DEFAULT '',
	document_type TEXT NOT NULL DEFAULT 'General',
	assigned_department TEXT NOT NULL DEFAULT 'Archives',
	status TEXT NOT NULL,
	reviewed BOOLEAN NOT NULL DEFAULT FALSE,
	summary TEXT NOT NULL DEFAULT '',
	ai_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	ai_key_points JSONB NOT NULL DEFAULT '[]'::jsonb,
	ai_processed_at TIMESTAMPTZ,
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const documentColumns = `id, filename, stored_path, file_type, file_size, content, extracted_text,
document_type, assigned_department, status, reviewed, summary,
ai_confidence, ai_key_points, ai_processed_at, metadata, created_at, updated_at`

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	keyPointsJSON, err := json.Marshal(doc.AIKeyPoints)
	if err != nil {
		return fmt.Errorf("marshal key points: %w", err)
	}
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, filename, stored_path, file_type, file_size, content, extracted_text,
	document_type, assigned_department, status, reviewed, summary,
	ai_confidence, ai_key_points, ai_processed_at, metadata, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
`,
		doc.ID, doc.Filename, doc.StoredPath, doc.FileType, doc.FileSize, doc.Content, doc.ExtractedText,
		doc.DocumentType, doc.AssignedDepartment, string(doc.Status), doc.Reviewed, doc.Summary,
		doc.AIConfidence, keyPointsJSON, doc.AIProcessedAt, metadataJSON, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) List(ctx context.Context) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+documentColumns+`
FROM documents
ORDER BY created_at DESC
`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return docs, nil
}

// SaveEnrichment commits a full enrichment result in one statement. The
// status predicate makes a concurrent manual override (e.g. Rejected) win
// over a cycle that was still in flight when the override landed.
func (r *DocumentRepository) SaveEnrichment(ctx context.Context, id string, enr domain.Enrichment, allowedFrom ...domain.DocumentStatus) error {
	if len(allowedFrom) == 0 {
		allowedFrom = []domain.DocumentStatus{domain.StatusProcessing}
	}

	keyPointsJSON, err := json.Marshal(enr.KeyPoints)
	if err != nil {
		return fmt.Errorf("marshal key points: %w", err)
	}

	args := []any{
		id, enr.DocumentType, enr.Summary, keyPointsJSON, enr.Confidence,
		enr.ProcessedAt, enr.ExtractedText, string(domain.StatusProcessed), time.Now().UTC(),
	}
	placeholders := make([]string, 0, len(allowedFrom))
	for _, status := range allowedFrom {
		args = append(args, string(status))
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET document_type = CASE WHEN $2 <> '' THEN $2 ELSE document_type END,
	summary = $3,
	ai_key_points = $4,
	ai_confidence = $5,
	ai_processed_at = $6,
	extracted_text = CASE WHEN $7 <> '' THEN $7 ELSE extracted_text END,
	status = $8,
	updated_at = $9
WHERE id = $1 AND status IN (`+strings.Join(placeholders, ",")+`)
`, args...)
	if err != nil {
		return fmt.Errorf("save enrichment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save enrichment rows affected: %w", err)
	}
	if affected == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return domain.WrapError(domain.ErrConflict, "save enrichment",
			fmt.Errorf("document %s is not in an allowed status", id))
	}
	return nil
}

func (r *DocumentRepository) UpdateFields(ctx context.Context, id string, patch domain.DocumentPatch) (*domain.Document, error) {
	set := []string{}
	args := []any{id}

	addSet := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.DocumentType != nil {
		addSet("document_type", *patch.DocumentType)
	}
	if patch.AssignedDepartment != nil {
		addSet("assigned_department", *patch.AssignedDepartment)
	}
	if patch.Status != nil {
		addSet("status", string(*patch.Status))
	}
	if patch.Reviewed != nil {
		addSet("reviewed", *patch.Reviewed)
	}
	if patch.ExtractedText != nil {
		addSet("extracted_text", *patch.ExtractedText)
	}
	if patch.Metadata != nil {
		metadataJSON, err := json.Marshal(patch.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshal metadata: %w", err)
		}
		addSet("metadata", metadataJSON)
	}
	if len(set) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "update document", errors.New("empty patch"))
	}
	addSet("updated_at", time.Now().UTC())

	row := r.db.QueryRowContext(ctx, `
UPDATE documents
SET `+strings.Join(set, ", ")+`
WHERE id = $1
RETURNING `+documentColumns+`
`, args...)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "update document", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("update document: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "delete document", fmt.Errorf("id %s", id))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var status string
	var keyPointsRaw, metadataRaw []byte
	var processedAt sql.NullTime

	err := row.Scan(
		&doc.ID, &doc.Filename, &doc.StoredPath, &doc.FileType, &doc.FileSize,
		&doc.Content, &doc.ExtractedText,
		&doc.DocumentType, &doc.AssignedDepartment, &status, &doc.Reviewed, &doc.Summary,
		&doc.AIConfidence, &keyPointsRaw, &processedAt, &metadataRaw, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(keyPointsRaw, &doc.AIKeyPoints); err != nil {
		return nil, fmt.Errorf("unmarshal key points: %w", err)
	}
	if err := json.Unmarshal(metadataRaw, &doc.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	if processedAt.Valid {
		ts := processedAt.Time
		doc.AIProcessedAt = &ts
	}
	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}
