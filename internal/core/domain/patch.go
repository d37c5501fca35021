package domain

// DocumentPatch is a partial manual update. Nil fields are left untouched.
// This is the only path allowed to move a document into or out of Rejected.
type DocumentPatch struct {
	DocumentType       *string         `json:"document_type,omitempty"`
	AssignedDepartment *string         `json:"assigned_department,omitempty"`
	Status             *DocumentStatus `json:"status,omitempty"`
	Reviewed           *bool           `json:"reviewed,omitempty"`
	ExtractedText      *string         `json:"extracted_text,omitempty"`
	Metadata           map[string]any  `json:"metadata,omitempty"`
}

func (p DocumentPatch) Empty() bool {
	return p.DocumentType == nil &&
		p.AssignedDepartment == nil &&
		p.Status == nil &&
		p.Reviewed == nil &&
		p.ExtractedText == nil &&
		p.Metadata == nil
}
