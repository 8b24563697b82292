package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/nguyenthenguyen/docx"

	"customgpt/internal/models"
)

// wordExtractor degrades a Word document to a single synthetic page of text.
// Image extraction from Word is not supported; the image set stays empty.
type wordExtractor struct{}

func (wordExtractor) Extract(_ context.Context, data []byte, _ *ImageDedup) (*models.DocumentAnalysis, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open word document: %w", err)
	}
	defer r.Close()

	text := wordText(r.Editable().GetContent())
	return &models.DocumentAnalysis{
		DocumentStructure: models.StructureDocx,
		TotalPages:        1,
		Pages: []models.Page{{
			PageNumber: 1,
			Content:    []models.ContentBlock{{Type: models.BlockText, Text: text}},
		}},
	}, nil
}

var xmlEntities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
)

// wordText pulls the run text out of the document XML, one line per
// paragraph.
func wordText(xmlContent string) string {
	var text strings.Builder
	for _, para := range strings.Split(xmlContent, "</w:p>") {
		runs := strings.Split(para, "<w:t")
		for i, run := range runs {
			if i == 0 {
				continue
			}
			gt := strings.Index(run, ">")
			if gt < 0 {
				continue
			}
			run = run[gt+1:]
			if end := strings.Index(run, "</w:t>"); end >= 0 {
				text.WriteString(xmlEntities.Replace(run[:end]))
			}
		}
		if len(runs) > 1 {
			text.WriteString("\n")
		}
	}
	return text.String()
}
