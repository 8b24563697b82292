package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"customgpt/internal/anonymize"
	"customgpt/internal/chat"
	"customgpt/internal/config"
	"customgpt/internal/extract"
	"customgpt/internal/helper"
	"customgpt/internal/index"
	"customgpt/internal/ingest"
	"customgpt/internal/llm"
	"customgpt/internal/mailwatch"
	"customgpt/internal/qa"
	"customgpt/internal/settings"
	"customgpt/internal/vectorstore"
	"customgpt/internal/vectorstore/chromem"
	"customgpt/internal/vectorstore/memory"
	"customgpt/internal/vectorstore/qdrant"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	filePath := flag.String("file", "", "Path to a document file to ingest")
	dirPath := flag.String("dir", "", "Path to a directory of documents to ingest")
	query := flag.String("query", "", "Query to be answered")
	monitor := flag.Bool("monitor", false, "Watch the configured mailbox and index new mail")
	dryRun := flag.Bool("dry-run", false, "Process the document but do not index it")
	collection := flag.String("collection", "", "Override the configured collection name")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	if *collection != "" {
		cfg.VectorStore.Collection = *collection
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := buildApp(ctx, cfg)
	defer app.close()

	switch {
	case *filePath != "":
		ingestFile(ctx, app, *filePath, *dryRun)
	case *dirPath != "":
		ingestDirectory(ctx, app, *dirPath)
	case *query != "":
		answerQuery(ctx, app, *query)
	case *monitor:
		watchMailbox(ctx, app, cfg)
	default:
		log.Fatal().Msg("Please provide one of -file, -dir, -query or -monitor")
	}
}

// app holds the wired services for one invocation.
type app struct {
	store    vectorstore.Store
	client   *llm.Client
	source   settings.Source
	indexer  *index.Indexer
	ingester *ingest.Service
	chat     *chat.Service
	closers  []func() error
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			log.Warn().Err(err).Msg("Error during shutdown")
		}
	}
}

func buildApp(ctx context.Context, cfg *config.Config) *app {
	a := &app{}

	switch cfg.VectorStore.Type {
	case "qdrant":
		a.store = qdrant.NewStore(qdrant.Config{
			URL:     cfg.VectorStore.Qdrant.URL,
			APIKey:  cfg.VectorStore.Qdrant.APIKey,
			Timeout: cfg.QdrantTimeout(),
		})
	case "chromem":
		store, err := chromem.NewStore(cfg.VectorStore.ChromemDir)
		if err != nil {
			log.Fatal().Err(err).Msg("Error opening chromem store")
		}
		a.store = store
	case "memory":
		a.store = memory.NewStore()
	default:
		log.Fatal().Str("type", cfg.VectorStore.Type).Msg("Unknown vector store type")
	}

	client, err := llm.NewClient(&cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing LLM client")
	}
	a.client = client

	if cfg.Database.DSN != "" {
		db := settings.Connect(cfg.Database.DSN, cfg.Database.Password, cfg.Database.Debug)
		store := settings.NewStore(db)
		if err := store.Init(ctx); err != nil {
			log.Fatal().Err(err).Msg("Error initializing settings store")
		}
		a.source = store
		a.closers = append(a.closers, store.Close)
	} else {
		a.source = settings.Static{Snapshot: settings.Defaults()}
	}

	var describer extract.ImageDescriber
	if client.HasVision() {
		describer = client
	}

	a.indexer = index.NewIndexer(a.store, client)
	a.ingester = ingest.NewService(a.store, a.indexer, qa.NewGenerator(client), a.source, cfg.VectorStore.Collection, ingest.Options{
		Describer:   describer,
		Expressions: anonymize.LoadExpressions(cfg.Anonymize.ExpressionsFile),
		Countries:   cfg.Anonymize.Countries,
	})
	a.chat = chat.NewService(a.store, client, a.source, cfg.VectorStore.Collection)
	return a
}

func ingestFile(ctx context.Context, a *app, path string, dryRun bool) {
	analysis, err := a.ingester.ProcessDocument(ctx, path)
	if err != nil {
		log.Fatal().Err(err).Msg("Error processing document")
	}
	helper.PrettyPrint(analysis)
	if dryRun {
		return
	}
	result, err := a.ingester.Save(ctx, analysis, filepath.Base(path))
	if err != nil {
		log.Fatal().Err(err).Msg("Error indexing document")
	}
	log.Info().
		Int("points", result.PointsAdded).
		Int("qa_pairs", result.QAPairsCount).
		Msg("Document indexed")
}

func ingestDirectory(ctx context.Context, a *app, dir string) {
	result, err := a.ingester.ProcessDirectory(ctx, dir)
	if err != nil {
		log.Fatal().Err(err).Msg("Error processing directory")
	}
	helper.PrettyPrint(result)
}

func answerQuery(ctx context.Context, a *app, query string) {
	answer, sources, err := a.chat.Answer(ctx, query, nil, true)
	if err != nil {
		log.Fatal().Err(err).Msg("Error answering query")
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", query)

	log.Info().Msg("Sources: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	for _, s := range sources {
		fmt.Printf("%s\n", s)
	}
	fmt.Println()

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", answer)
}

func watchMailbox(ctx context.Context, a *app, cfg *config.Config) {
	if cfg.Email.Address == "" || cfg.Email.IMAPServer == "" {
		log.Fatal().Msg("Mailbox monitoring requires email address and imap_server in the config")
	}
	fetcher := &mailwatch.IMAPFetcher{
		Server:   cfg.Email.IMAPServer,
		Address:  cfg.Email.Address,
		Password: cfg.Email.Password,
	}
	var describer extract.ImageDescriber
	if a.client.HasVision() {
		describer = a.client
	}
	m := mailwatch.NewMonitor(fetcher, a.indexer, a.source, cfg.VectorStore.Collection, cfg.CheckInterval(), cfg.Email.AttachmentTempDir, describer)
	if err := m.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("Mailbox monitor failed")
	}
}
