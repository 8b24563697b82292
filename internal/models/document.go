package models

import "encoding/json"

// Block types emitted by the extractor.
const (
	BlockText             = "text"
	BlockImageDescription = "image_description"
)

// Document structure tags.
const (
	StructurePDF  = "pdf"
	StructureDocx = "docx"
)

// ImageDescription is the analysis of one non-recurring document image.
type ImageDescription struct {
	GeneralDescription string   `json:"general_description"`
	Tables             []string `json:"tables"`
	Figures            []string `json:"figures"`
	TextElements       []string `json:"text_elements"`
}

// ContentBlock is one block on a page: plain text or an image description.
// Exactly one of Text/Image is meaningful, selected by Type.
type ContentBlock struct {
	Type  string
	Text  string
	Image *ImageDescription
}

func (b ContentBlock) MarshalJSON() ([]byte, error) {
	if b.Type == BlockImageDescription {
		return json.Marshal(struct {
			Type    string            `json:"type"`
			Content *ImageDescription `json:"content"`
		}{b.Type, b.Image})
	}
	return json.Marshal(struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	}{BlockText, b.Text})
}

func (b *ContentBlock) UnmarshalJSON(data []byte) error {
	var head struct {
		Type    string          `json:"type"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	b.Type = head.Type
	if head.Type == BlockImageDescription {
		b.Image = &ImageDescription{}
		return json.Unmarshal(head.Content, b.Image)
	}
	return json.Unmarshal(head.Content, &b.Text)
}

// Page is one page of an analyzed document. Page numbers are 1-based.
type Page struct {
	PageNumber int            `json:"page_number"`
	Content    []ContentBlock `json:"content"`
}

// DocumentAnalysis is the full result of one document extraction, plus the
// Q&A pairs generated from its text. It lives only for the duration of one
// ingestion call.
type DocumentAnalysis struct {
	DocumentStructure string   `json:"document_structure"`
	TotalPages        int      `json:"total_pages"`
	Pages             []Page   `json:"pages"`
	QAPairs           []QAPair `json:"qa_pairs,omitempty"`
}

// QAPair is one generated question/answer pair. Both fields are non-empty;
// the parser drops incomplete pairs.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
