package models

import (
	"encoding/json"
	"testing"
)

func TestEncodePayloadMergesTypeTag(t *testing.T) {
	raw, err := EncodePayload(QAPairPayload{Question: "q?", Answer: "a", Filename: "doc.pdf"})
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatal(err)
	}
	if fields["type"] != "qa_pair" {
		t.Fatalf("type tag missing or wrong: %v", fields["type"])
	}
	if fields["question"] != "q?" || fields["filename"] != "doc.pdf" {
		t.Fatalf("payload fields not flat: %v", fields)
	}
}

func TestDecodePayloadRoundTrip(t *testing.T) {
	payloads := []Payload{
		QAPairPayload{Question: "q?", Answer: "a", Filename: "f.pdf"},
		DocumentChunkPayload{Content: "text", PageNumber: 3, Filename: "f.pdf"},
		ImageDescriptionPayload{
			Content:    ImageDescription{GeneralDescription: "a chart", Tables: []string{"t1"}},
			PageNumber: 2,
			Filename:   "f.pdf",
		},
		EmailContentPayload{Content: "body", ChunkIndex: 1, Filename: "email_1.txt", Source: EmailSource},
		AttachmentTextPayload{Content: "att", ChunkIndex: 0, Filename: "cv.docx", Source: EmailSource},
	}
	for _, p := range payloads {
		raw, err := EncodePayload(p)
		if err != nil {
			t.Fatalf("%s: %v", p.PayloadType(), err)
		}
		got, err := DecodePayload(raw)
		if err != nil {
			t.Fatalf("%s: %v", p.PayloadType(), err)
		}
		if got.PayloadType() != p.PayloadType() {
			t.Fatalf("round trip changed type: %s -> %s", p.PayloadType(), got.PayloadType())
		}
	}
}

func TestDecodePayloadUnknownType(t *testing.T) {
	if _, err := DecodePayload([]byte(`{"type":"mystery","content":"x"}`)); err == nil {
		t.Fatal("expected error for unknown type tag")
	}
}
