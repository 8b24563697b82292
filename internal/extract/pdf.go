package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	"github.com/ledongthuc/pdf"
	pdfcpuapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog/log"

	"customgpt/internal/models"
)

type pdfExtractor struct {
	describer ImageDescriber
}

func (e *pdfExtractor) Extract(ctx context.Context, data []byte, dedup *ImageDedup) (*models.DocumentAnalysis, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	pageImages := extractPageImages(data)

	// First pass over every page's images, so recurrence is judged against
	// the whole document before any keep/drop decision is made.
	for _, imgs := range pageImages {
		for _, img := range imgs {
			dedup.Seed(img)
		}
	}

	analysis := &models.DocumentAnalysis{DocumentStructure: models.StructurePDF}
	for i := 1; i <= reader.NumPage(); i++ {
		var text string
		page := reader.Page(i)
		if !page.V.IsNull() {
			text, err = page.GetPlainText(nil)
			if err != nil {
				log.Error().Err(err).Int("page", i).Msg("pdf text extraction failed")
				text = ""
			}
		}
		blocks := []models.ContentBlock{{Type: models.BlockText, Text: text}}
		blocks = append(blocks, describeKeptImages(ctx, dedup, e.describer, pageImages[i])...)
		analysis.Pages = append(analysis.Pages, models.Page{PageNumber: i, Content: blocks})
	}
	analysis.TotalPages = len(analysis.Pages)
	return analysis, nil
}

// extractPageImages decodes every embedded image in the document, keyed by
// 1-based page number. Extraction or decode failures drop the affected image
// only.
func extractPageImages(data []byte) map[int][]image.Image {
	out := make(map[int][]image.Image)
	raw, err := pdfcpuapi.ExtractImagesRaw(bytes.NewReader(data), nil, model.NewDefaultConfiguration())
	if err != nil {
		log.Warn().Err(err).Msg("pdf image extraction failed, continuing with text only")
		return out
	}
	for _, pageImgs := range raw {
		for _, pi := range pageImgs {
			b, err := io.ReadAll(pi)
			if err != nil {
				log.Debug().Err(err).Int("page", pi.PageNr).Msg("reading embedded image failed")
				continue
			}
			img, _, err := image.Decode(bytes.NewReader(b))
			if err != nil {
				log.Debug().Err(err).Int("page", pi.PageNr).Msg("decoding embedded image failed")
				continue
			}
			out[pi.PageNr] = append(out[pi.PageNr], img)
		}
	}
	return out
}

// describeKeptImages runs the second pass for one page: recurring images are
// dropped, the rest are re-encoded and described.
func describeKeptImages(ctx context.Context, dedup *ImageDedup, describer ImageDescriber, imgs []image.Image) []models.ContentBlock {
	var blocks []models.ContentBlock
	for _, img := range imgs {
		if dedup.IsRecurring(img) {
			continue
		}
		encoded, err := encodePNGBase64(img)
		if err != nil {
			log.Error().Err(err).Msg("re-encoding image failed")
			continue
		}
		desc := placeholderDescription()
		if describer != nil {
			d, err := describer.DescribeImage(ctx, encoded)
			if err != nil {
				log.Error().Err(err).Msg("image description failed, keeping placeholder")
			} else {
				desc = d
			}
		}
		blocks = append(blocks, models.ContentBlock{Type: models.BlockImageDescription, Image: &desc})
	}
	return blocks
}

func encodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
