// Copyright 2025 Quorial Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package pgvector implements the vector index on PostgreSQL with the
// pgvector extension. Records live in a single table with a jsonb
// metadata column; similarity uses cosine distance.
package pgvector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvec "github.com/pgvector/pgvector-go"

	"github.com/quorial/grounddesk/core"
	"github.com/quorial/grounddesk/vectorstore"
)

const (
	defaultTable      = "chunk_embeddings"
	defaultDimensions = 1536
	defaultIndexLists = 100
)

// Index implements vectorstore.Index on a pgx connection pool.
type Index struct {
	pool       *pgxpool.Pool
	table      string
	dimensions int
	logger     *slog.Logger
}

var _ vectorstore.Index = (*Index)(nil)

// Option configures an Index.
type Option func(*Index)

// WithTable overrides the table name.
func WithTable(table string) Option {
	return func(i *Index) {
		i.table = table
	}
}

// WithDimensions sets the embedding dimensionality of the table.
func WithDimensions(dimensions int) Option {
	return func(i *Index) {
		i.dimensions = dimensions
	}
}

// WithLogger sets the index's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Index) {
		i.logger = logger
	}
}

// New connects to PostgreSQL, ensures the schema exists, and returns
// the index.
func New(ctx context.Context, dsn string, opts ...Option) (vectorstore.Index, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	index := &Index{
		pool:       pool,
		table:      defaultTable,
		dimensions: defaultDimensions,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(index)
	}

	if err := index.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return index, nil
}

func (i *Index) ensureSchema(ctx context.Context) error {
	statements := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id uuid PRIMARY KEY,
				content text NOT NULL,
				metadata jsonb NOT NULL,
				embedding vector(%d) NOT NULL
			)`, i.table, i.dimensions),
		fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s_embedding_idx
			ON %s USING ivfflat (embedding vector_cosine_ops)
			WITH (lists = %d)`, i.table, i.table, defaultIndexLists),
		fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s_metadata_idx
			ON %s USING gin (metadata)`, i.table, i.table),
	}

	for _, stmt := range statements {
		if _, err := i.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure vector schema: %w", err)
		}
	}
	return nil
}

// Upsert stores a chunk under a key derived from its document and
// chunk index, overwriting any previous record for the same chunk.
func (i *Index) Upsert(ctx context.Context, content string, meta vectorstore.Metadata, vector []float32) (string, error) {
	if len(vector) == 0 {
		return "", vectorstore.ErrEmptyVector
	}

	id := core.DerivedID(meta.DocumentID.String(), strconv.Itoa(meta.ChunkIndex))

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, content, metadata, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET content = EXCLUDED.content,
		    metadata = EXCLUDED.metadata,
		    embedding = EXCLUDED.embedding`, i.table)

	if _, err := i.pool.Exec(ctx, query, id, content, metaJSON, pgvec.NewVector(vector)); err != nil {
		return "", fmt.Errorf("failed to upsert embedding: %w", err)
	}
	return id.String(), nil
}

// Search returns the nearest records by cosine distance.
func (i *Index) Search(ctx context.Context, vector []float32, limit int, filter vectorstore.Filter) ([]vectorstore.Result, error) {
	if len(vector) == 0 {
		return nil, vectorstore.ErrEmptyVector
	}

	query := fmt.Sprintf(`
		SELECT id, content, metadata, embedding <=> $1 AS distance
		FROM %s`, i.table)
	args := []any{pgvec.NewVector(vector)}

	where, args := filterClause(filter, args)
	query += where
	query += fmt.Sprintf(" ORDER BY distance LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := i.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search embeddings: %w", err)
	}
	defer rows.Close()

	var results []vectorstore.Result
	for rows.Next() {
		var (
			result   vectorstore.Result
			metaJSON []byte
		)
		if err := rows.Scan(&result.ID, &result.Content, &metaJSON, &result.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		if err := json.Unmarshal(metaJSON, &result.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read search results: %w", err)
	}
	return results, nil
}

// DeleteByFilter removes every record whose metadata matches the
// filter.
func (i *Index) DeleteByFilter(ctx context.Context, filter vectorstore.Filter) error {
	if filter.IsZero() {
		return vectorstore.ErrEmptyFilter
	}

	query := fmt.Sprintf("DELETE FROM %s", i.table)
	where, args := filterClause(filter, nil)
	query += where

	tag, err := i.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete embeddings: %w", err)
	}

	i.logger.Debug("deleted embeddings",
		"project_id", filter.ProjectID,
		"document_id", filter.DocumentID,
		"rows", tag.RowsAffected())
	return nil
}

// DeleteByIDs removes the records with the given keys.
func (i *Index) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = ANY($1)", i.table)
	if _, err := i.pool.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("failed to delete embeddings by id: %w", err)
	}
	return nil
}

// DeleteAll wipes the table.
func (i *Index) DeleteAll(ctx context.Context) error {
	query := fmt.Sprintf("TRUNCATE %s", i.table)
	if _, err := i.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to truncate embeddings: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (i *Index) Close() error {
	i.pool.Close()
	return nil
}

// filterClause builds a WHERE clause matching the filter against the
// jsonb metadata column, appending to args.
func filterClause(filter vectorstore.Filter, args []any) (string, []any) {
	clause := ""
	connective := " WHERE "

	if filter.ProjectID != uuid.Nil {
		args = append(args, filter.ProjectID.String())
		clause += fmt.Sprintf("%smetadata->>'project_id' = $%d", connective, len(args))
		connective = " AND "
	}
	if filter.DocumentID != uuid.Nil {
		args = append(args, filter.DocumentID.String())
		clause += fmt.Sprintf("%smetadata->>'document_id' = $%d", connective, len(args))
	}
	return clause, args
}
