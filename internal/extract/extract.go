// Package extract pulls text and embedded images out of uploaded documents,
// page by page, filtering recurring images through a per-document dedup
// arena.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"customgpt/internal/models"
)

// UnsupportedFormatError is returned for extensions the extractor does not
// dispatch on. It is fatal for that document and never retried.
type UnsupportedFormatError struct {
	Filename string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format: %s", e.Filename)
}

// ImageDescriber turns one kept (non-recurring) image, base64-encoded PNG,
// into an image description block.
type ImageDescriber interface {
	DescribeImage(ctx context.Context, imageBase64 string) (models.ImageDescription, error)
}

// Extractor is the per-format extraction capability. Implementations receive
// the dedup arena for the current document; formats without image support
// ignore it.
type Extractor interface {
	Extract(ctx context.Context, data []byte, dedup *ImageDedup) (*models.DocumentAnalysis, error)
}

// Analyze dispatches on the file extension and runs the matching extractor
// with a caller-provided dedup arena. The describer may be nil; kept images
// then carry the placeholder description.
func Analyze(ctx context.Context, data []byte, filename string, dedup *ImageDedup, describer ImageDescriber) (*models.DocumentAnalysis, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		e := &pdfExtractor{describer: describer}
		return e.Extract(ctx, data, dedup)
	case ".doc", ".docx":
		e := &wordExtractor{}
		return e.Extract(ctx, data, dedup)
	default:
		return nil, &UnsupportedFormatError{Filename: filename}
	}
}

// placeholderDescription matches the analysis emitted when no vision model
// is configured.
func placeholderDescription() models.ImageDescription {
	return models.ImageDescription{
		GeneralDescription: "Not implemented",
		Tables:             []string{},
		Figures:            []string{},
		TextElements:       []string{},
	}
}
