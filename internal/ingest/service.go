// Package ingest orchestrates the document pipeline: extraction,
// anonymization, chunking, Q&A generation and embedding indexing.
package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"customgpt/internal/anonymize"
	"customgpt/internal/chunker"
	"customgpt/internal/extract"
	"customgpt/internal/index"
	"customgpt/internal/models"
	"customgpt/internal/qa"
	"customgpt/internal/settings"
	"customgpt/internal/vectorstore"
)

// Service wires the pipeline stages together for one collection.
type Service struct {
	store       vectorstore.Store
	indexer     *index.Indexer
	generator   *qa.Generator
	anonymizer  *anonymize.Anonymizer
	expressions []string
	describer   extract.ImageDescriber
	settings    settings.Source
	collection  string
}

// Options carries the optional pieces of a Service.
type Options struct {
	Describer   extract.ImageDescriber // nil disables vision descriptions
	Expressions []string               // confidential expressions to redact
	Countries   string                 // comma-separated name allow-list
}

func NewService(store vectorstore.Store, indexer *index.Indexer, generator *qa.Generator, source settings.Source, collection string, opts Options) *Service {
	return &Service{
		store:       store,
		indexer:     indexer,
		generator:   generator,
		anonymizer:  anonymize.New(opts.Countries),
		expressions: opts.Expressions,
		describer:   opts.Describer,
		settings:    source,
		collection:  collection,
	}
}

// ProcessDocument runs extraction, anonymization, chunking and Q&A
// generation for one file. Image dedup state is scoped to this call, so
// recurring-image counts never leak between documents. The returned
// analysis carries the generated pairs; nothing is indexed yet.
func (s *Service) ProcessDocument(ctx context.Context, path string) (*models.DocumentAnalysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	snap, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	filename := filepath.Base(path)
	log.Info().Str("file", filename).Msg("processing document")

	dedup := extract.NewImageDedup()
	analysis, err := extract.Analyze(ctx, data, filename, dedup, s.describer)
	if err != nil {
		return nil, err
	}

	text := collectText(analysis)
	anonymized := s.anonymizer.Anonymize(text, s.expressions)
	chunks := chunker.Split(anonymized, snap.ChunkSize, snap.ChunkOverlap)
	log.Info().Int("chunks", len(chunks)).Msg("generating Q&A pairs")

	analysis.QAPairs = s.generator.Generate(ctx, chunks, snap.ModelParams())
	log.Info().Int("pairs", len(analysis.QAPairs)).Msg("document processed")
	return analysis, nil
}

// Save indexes a processed analysis into the vector store.
func (s *Service) Save(ctx context.Context, analysis *models.DocumentAnalysis, filename string) (index.Result, error) {
	return s.indexer.Index(ctx, analysis, filename, s.collection)
}

// DirectoryResult aggregates a directory ingestion run.
type DirectoryResult struct {
	FilesProcessed int `json:"files_processed"`
	FilesFailed    int `json:"files_failed"`
	PointsAdded    int `json:"points_added"`
	InitialCount   int `json:"initial_count"`
	FinalCount     int `json:"final_count"`
}

// ProcessDirectory ingests every regular file in dir, non-recursively.
// A failing or unsupported file is logged and skipped; the rest of the
// directory is still processed.
func (s *Service) ProcessDirectory(ctx context.Context, dir string) (DirectoryResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return DirectoryResult{}, err
	}
	var res DirectoryResult
	if n, err := s.store.Count(ctx, s.collection); err == nil {
		res.InitialCount = n
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		analysis, err := s.ProcessDocument(ctx, path)
		if err != nil {
			var unsupported *extract.UnsupportedFormatError
			if errors.As(err, &unsupported) {
				log.Warn().Str("file", entry.Name()).Msg("unsupported format, skipping")
			} else {
				log.Error().Err(err).Str("file", entry.Name()).Msg("processing failed, skipping")
			}
			res.FilesFailed++
			continue
		}
		r, err := s.Save(ctx, analysis, entry.Name())
		if err != nil {
			log.Error().Err(err).Str("file", entry.Name()).Msg("indexing failed, skipping")
			res.FilesFailed++
			continue
		}
		res.FilesProcessed++
		res.PointsAdded += r.PointsAdded
	}
	if n, err := s.store.Count(ctx, s.collection); err == nil {
		res.FinalCount = n
	}
	log.Info().
		Int("processed", res.FilesProcessed).
		Int("failed", res.FilesFailed).
		Int("points", res.PointsAdded).
		Msg("directory ingestion finished")
	return res, nil
}

// collectText joins the text blocks of every page in order.
func collectText(analysis *models.DocumentAnalysis) string {
	var parts []string
	for _, page := range analysis.Pages {
		for _, block := range page.Content {
			if block.Type == models.BlockText && strings.TrimSpace(block.Text) != "" {
				parts = append(parts, block.Text)
			}
		}
	}
	return strings.Join(parts, "\n")
}
