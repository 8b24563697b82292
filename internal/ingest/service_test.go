package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"customgpt/internal/index"
	"customgpt/internal/llm"
	"customgpt/internal/models"
	"customgpt/internal/qa"
	"customgpt/internal/settings"
	"customgpt/internal/vectorstore/memory"
)

type fakeCompleter struct{ output string }

func (f fakeCompleter) Complete(context.Context, []llm.Message, llm.ModelParams) (string, error) {
	return f.output, nil
}

type staticEmbedder struct{}

func (staticEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{1}, nil
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

// writeDocx assembles a minimal .docx around the given paragraph text.
func writeDocx(t *testing.T, path, text string) {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml":          contentTypesXML,
		"_rels/.rels":                  relsXML,
		"word/_rels/document.xml.rels": documentRelsXML,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
			`<w:body><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`,
	}
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestService(output string) (*Service, *memory.Store) {
	store := memory.NewStore()
	ix := index.NewIndexer(store, staticEmbedder{})
	ix.PauseFor = 0
	source := settings.Static{Snapshot: settings.Defaults()}
	svc := NewService(store, ix, qa.NewGenerator(fakeCompleter{output: output}), source, "c", Options{
		Expressions: []string{"acme corp"},
	})
	return svc, store
}

func TestProcessDocumentGeneratesAnonymizedPairs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.docx")
	writeDocx(t, path, "Acme Corp billed 500 units. Contact john@example.com for details")

	svc, _ := newTestService("Q: who billed?\nA: a client")
	analysis, err := svc.ProcessDocument(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if analysis.DocumentStructure != models.StructureDocx || analysis.TotalPages != 1 {
		t.Fatalf("unexpected analysis shape: %+v", analysis)
	}
	if len(analysis.QAPairs) != 1 || analysis.QAPairs[0].Question != "who billed?" {
		t.Fatalf("unexpected pairs: %v", analysis.QAPairs)
	}
	// The extracted page text stays raw; only the Q&A input is anonymized.
	if !strings.Contains(analysis.Pages[0].Content[0].Text, "john@example.com") {
		t.Fatalf("page text was mutated: %q", analysis.Pages[0].Content[0].Text)
	}
}

func TestSaveIndexesRawChunks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.docx")
	writeDocx(t, path, "Contact john@example.com about the invoice")

	svc, store := newTestService("Q: q?\nA: a")
	analysis, err := svc.ProcessDocument(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	res, err := svc.Save(context.Background(), analysis, "report.docx")
	if err != nil {
		t.Fatal(err)
	}
	if res.PointsAdded < 2 {
		t.Fatalf("expected qa and chunk points, got %d", res.PointsAdded)
	}

	hits, err := store.Search(context.Background(), "c", []float32{1}, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	var sawRawChunk bool
	for _, h := range hits {
		if p, ok := h.Payload.(models.DocumentChunkPayload); ok {
			if strings.Contains(p.Content, "john@example.com") {
				sawRawChunk = true
			}
			if p.Filename != "report.docx" {
				t.Fatalf("unexpected filename: %q", p.Filename)
			}
		}
	}
	if !sawRawChunk {
		t.Fatal("stored chunks must keep the original text")
	}
}

func TestProcessDirectorySkipsUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	writeDocx(t, filepath.Join(dir, "good.docx"), "Plain paragraph of text")
	if err := os.WriteFile(filepath.Join(dir, "data.xlsx"), []byte("a,b"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc, _ := newTestService("Q: q?\nA: a")
	res, err := svc.ProcessDirectory(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if res.FilesProcessed != 1 || res.FilesFailed != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.FinalCount != res.InitialCount+res.PointsAdded {
		t.Fatalf("counts inconsistent: %+v", res)
	}
}

func TestProcessDocumentMissingFile(t *testing.T) {
	svc, _ := newTestService("")
	if _, err := svc.ProcessDocument(context.Background(), "/does/not/exist.pdf"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
