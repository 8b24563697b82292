// Package mailwatch polls a mailbox and feeds new mail into the index:
// bodies as email content, attachments through the document extractors.
package mailwatch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"customgpt/internal/extract"
	"customgpt/internal/helper"
	"customgpt/internal/index"
	"customgpt/internal/models"
	"customgpt/internal/settings"
)

// Monitor runs the poll loop.
type Monitor struct {
	fetcher    Fetcher
	indexer    *index.Indexer
	settings   settings.Source
	collection string
	interval   time.Duration
	tempDir    string
	describer  extract.ImageDescriber
}

func NewMonitor(fetcher Fetcher, indexer *index.Indexer, source settings.Source, collection string, interval time.Duration, tempDir string, describer extract.ImageDescriber) *Monitor {
	return &Monitor{
		fetcher:    fetcher,
		indexer:    indexer,
		settings:   source,
		collection: collection,
		interval:   interval,
		tempDir:    tempDir,
		describer:  describer,
	}
}

// Run polls until the context is cancelled. The first poll happens
// immediately, then every interval. Errors in one poll are logged and do
// not stop the loop.
func (m *Monitor) Run(ctx context.Context) error {
	log.Info().Dur("interval", m.interval).Msg("starting mailbox monitor")
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("mailbox monitor stopped")
			return ctx.Err()
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

func (m *Monitor) poll(ctx context.Context) {
	messages, err := m.fetcher.FetchNew(ctx)
	if err != nil {
		log.Error().Err(err).Msg("fetching mail failed")
		return
	}
	if len(messages) == 0 {
		return
	}
	log.Info().Int("messages", len(messages)).Msg("new mail")

	snap, err := m.settings.Current(ctx)
	if err != nil {
		log.Error().Err(err).Msg("reading settings failed, skipping poll")
		return
	}
	for _, msg := range messages {
		m.process(ctx, msg, snap)
	}
}

func (m *Monitor) process(ctx context.Context, msg Message, snap settings.Snapshot) {
	if strings.TrimSpace(msg.Body) != "" {
		filename := "email_" + time.Now().Format("20060102_150405") + ".txt"
		added, err := m.indexer.IndexEmailContent(ctx, msg.Body, filename, m.collection, snap)
		if err != nil {
			log.Error().Err(err).Msg("indexing email body failed")
		} else {
			log.Info().Int("points", added).Str("file", filename).Msg("email body indexed")
		}
	}
	for _, att := range msg.Attachments {
		m.processAttachment(ctx, att)
	}
}

// processAttachment saves a copy under a collision-free name, runs the
// document extractors over the bytes and indexes the extracted text.
func (m *Monitor) processAttachment(ctx context.Context, att Attachment) {
	saved := filepath.Join(m.tempDir, helper.GenerateUUID()+"_"+att.Name)
	if err := os.WriteFile(saved, att.Data, 0o600); err != nil {
		log.Error().Err(err).Str("attachment", att.Name).Msg("saving attachment failed")
	} else {
		defer os.Remove(saved)
	}

	dedup := extract.NewImageDedup()
	analysis, err := extract.Analyze(ctx, att.Data, att.Name, dedup, m.describer)
	if err != nil {
		log.Warn().Err(err).Str("attachment", att.Name).Msg("extracting attachment failed, skipping")
		return
	}
	var parts []string
	for _, page := range analysis.Pages {
		for _, block := range page.Content {
			if block.Type == models.BlockText && strings.TrimSpace(block.Text) != "" {
				parts = append(parts, block.Text)
			}
		}
	}
	if len(parts) == 0 {
		return
	}
	added, err := m.indexer.IndexAttachmentText(ctx, strings.Join(parts, "\n"), att.Name, m.collection)
	if err != nil {
		log.Error().Err(err).Str("attachment", att.Name).Msg("indexing attachment failed")
		return
	}
	log.Info().Int("points", added).Str("attachment", att.Name).Msg("attachment indexed")
}
