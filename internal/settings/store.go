package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

// record is the single global_settings row (id=1).
type record struct {
	bun.BaseModel `bun:"table:global_settings,alias:gs"`

	ID                  int64   `bun:"id,pk"`
	ChunkSize           int     `bun:"chunk_size"`
	ChunkOverlap        int     `bun:"chunk_overlap"`
	Temperature         float64 `bun:"temperature"`
	SimilarityThreshold float64 `bun:"similarity_threshold"`
	RAGLimit            int     `bun:"rag_limit"`
	ModelName           string  `bun:"model_name"`
	TopP                float64 `bun:"top_p"`
	PresencePenalty     float64 `bun:"presence_penalty"`
	FrequencyPenalty    float64 `bun:"frequency_penalty"`
	MaxTokens           int     `bun:"max_tokens"`
	SystemMessage       string  `bun:"system_message"`
	Expressions         string  `bun:"expressions"`
}

// Store reads and updates the settings row in Postgres.
type Store struct {
	db *bun.DB
}

func Connect(dsn, password string, debug bool) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(password)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// Init creates the settings table if it does not exist yet.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*record)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Current returns the settings row, creating it with defaults on first use.
func (s *Store) Current(ctx context.Context) (Snapshot, error) {
	var rec record
	err := s.db.NewSelect().Model(&rec).Where("id = 1").Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		rec = toRecord(Defaults())
		rec.ID = 1
		if _, err := s.db.NewInsert().Model(&rec).Exec(ctx); err != nil {
			return Snapshot{}, fmt.Errorf("creating default settings: %w", err)
		}
		return toSnapshot(rec), nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading settings: %w", err)
	}
	return toSnapshot(rec), nil
}

// Update overwrites the settings row with the given values.
func (s *Store) Update(ctx context.Context, snap Snapshot) error {
	rec := toRecord(snap)
	rec.ID = 1
	_, err := s.db.NewUpdate().Model(&rec).Where("id = 1").Exec(ctx)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func toSnapshot(r record) Snapshot {
	return Snapshot{
		ChunkSize:           r.ChunkSize,
		ChunkOverlap:        r.ChunkOverlap,
		Temperature:         r.Temperature,
		SimilarityThreshold: r.SimilarityThreshold,
		RAGLimit:            r.RAGLimit,
		ModelName:           r.ModelName,
		TopP:                r.TopP,
		PresencePenalty:     r.PresencePenalty,
		FrequencyPenalty:    r.FrequencyPenalty,
		MaxTokens:           r.MaxTokens,
		SystemMessage:       r.SystemMessage,
		Expressions:         r.Expressions,
	}
}

func toRecord(s Snapshot) record {
	return record{
		ChunkSize:           s.ChunkSize,
		ChunkOverlap:        s.ChunkOverlap,
		Temperature:         s.Temperature,
		SimilarityThreshold: s.SimilarityThreshold,
		RAGLimit:            s.RAGLimit,
		ModelName:           s.ModelName,
		TopP:                s.TopP,
		PresencePenalty:     s.PresencePenalty,
		FrequencyPenalty:    s.FrequencyPenalty,
		MaxTokens:           s.MaxTokens,
		SystemMessage:       s.SystemMessage,
		Expressions:         s.Expressions,
	}
}
