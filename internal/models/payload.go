package models

import (
	"encoding/json"
	"fmt"
)

// Payload type tags as stored in the vector store.
const (
	PayloadTypeQAPair           = "qa_pair"
	PayloadTypeDocumentChunk    = "document_chunk"
	PayloadTypeImageDescription = "image_description"
	PayloadTypeEmailContent     = "email_content"
	PayloadTypeAttachmentText   = "attachment_text"
)

// Payload is the tagged record attached to a vector-store point. It is a
// closed set: the retriever type-switches over the variants below.
type Payload interface {
	PayloadType() string
}

type QAPairPayload struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Filename string `json:"filename"`
}

func (QAPairPayload) PayloadType() string { return PayloadTypeQAPair }

type DocumentChunkPayload struct {
	Content    string `json:"content"`
	PageNumber int    `json:"page_number"`
	Filename   string `json:"filename"`
}

func (DocumentChunkPayload) PayloadType() string { return PayloadTypeDocumentChunk }

type ImageDescriptionPayload struct {
	Content    ImageDescription `json:"content"`
	PageNumber int              `json:"page_number"`
	Filename   string           `json:"filename"`
}

func (ImageDescriptionPayload) PayloadType() string { return PayloadTypeImageDescription }

type EmailContentPayload struct {
	Content    string `json:"content"`
	ChunkIndex int    `json:"chunk_index"`
	Filename   string `json:"filename"`
	Source     string `json:"source"`
}

func (EmailContentPayload) PayloadType() string { return PayloadTypeEmailContent }

type AttachmentTextPayload struct {
	Content    string `json:"content"`
	ChunkIndex int    `json:"chunk_index"`
	Filename   string `json:"filename"`
	Source     string `json:"source"`
}

func (AttachmentTextPayload) PayloadType() string { return PayloadTypeAttachmentText }

// EncodePayload serializes a payload with its type tag merged into the same
// JSON object, matching the flat payload shape the store keeps.
func EncodePayload(p Payload) (json.RawMessage, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	fields["type"] = json.RawMessage(fmt.Sprintf("%q", p.PayloadType()))
	return json.Marshal(fields)
}

// DecodePayload reads a flat payload object back into its variant.
// Unrecognized type tags return an error; callers skip those hits.
func DecodePayload(data []byte) (Payload, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	switch head.Type {
	case PayloadTypeQAPair:
		var p QAPairPayload
		err := json.Unmarshal(data, &p)
		return p, err
	case PayloadTypeDocumentChunk:
		var p DocumentChunkPayload
		err := json.Unmarshal(data, &p)
		return p, err
	case PayloadTypeImageDescription:
		var p ImageDescriptionPayload
		err := json.Unmarshal(data, &p)
		return p, err
	case PayloadTypeEmailContent:
		var p EmailContentPayload
		err := json.Unmarshal(data, &p)
		return p, err
	case PayloadTypeAttachmentText:
		var p AttachmentTextPayload
		err := json.Unmarshal(data, &p)
		return p, err
	default:
		return nil, fmt.Errorf("unknown payload type: %q", head.Type)
	}
}
