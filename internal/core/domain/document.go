package domain

import "time"

type DocumentStatus string

const (
	StatusProcessing DocumentStatus = "Processing"
	StatusProcessed  DocumentStatus = "Processed"
	StatusRejected   DocumentStatus = "Rejected"
)

// PlaceholderText is enriched when a document has no extracted text yet.
const PlaceholderText = "Text not extracted yet."

type Document struct {
	ID                 string         `json:"id"`
	Filename           string         `json:"filename"`
	StoredPath         string         `json:"stored_path"`
	FileType           string         `json:"file_type"`
	FileSize           int64          `json:"file_size"`
	Content            string         `json:"content,omitempty"`
	ExtractedText      string         `json:"extracted_text,omitempty"`
	DocumentType       string         `json:"document_type"`
	AssignedDepartment string         `json:"assigned_department"`
	Status             DocumentStatus `json:"status"`
	Reviewed           bool           `json:"reviewed"`
	Summary            string         `json:"summary,omitempty"`
	AIConfidence       float64        `json:"ai_confidence"`
	AIKeyPoints        []string       `json:"ai_key_points"`
	AIProcessedAt      *time.Time     `json:"ai_processed_at,omitempty"`
	Metadata           map[string]any `json:"metadata"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// Classification is the structured result of the labeling call.
type Classification struct {
	Label      string   `json:"label"`
	Confidence float64  `json:"confidence"`
	Tags       []string `json:"tags"`
}

// SummaryResult is the structured result of the summarization call.
type SummaryResult struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"keyPoints"`
}

// Enrichment is the unit persisted after a fully successful cycle.
// All fields land in a single repository write.
type Enrichment struct {
	DocumentType  string
	Summary       string
	KeyPoints     []string
	Confidence    float64
	ProcessedAt   time.Time
	ExtractedText string
}

// Terminal reports whether the status ends the automatic lifecycle.
func (s DocumentStatus) Terminal() bool {
	return s == StatusProcessed || s == StatusRejected
}

func ValidStatus(s DocumentStatus) bool {
	switch s {
	case StatusProcessing, StatusProcessed, StatusRejected:
		return true
	default:
		return false
	}
}
