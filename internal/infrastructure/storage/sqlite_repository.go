package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"NewsreelAgent/internal/domain"
	"NewsreelAgent/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS pipeline_runs (
    id                TEXT PRIMARY KEY,
    script            TEXT NOT NULL,
    word_count        INTEGER NOT NULL,
    estimated_seconds REAL NOT NULL,
    video_url         TEXT NOT NULL,
    articles_json     TEXT NOT NULL,
    generated_at      TIMESTAMP NOT NULL,
    created_at        TIMESTAMP NOT NULL
)`

// Open prepares a SQLite database at path, creating the schema when absent.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return db, nil
}

// SQLiteRepository persists completed pipeline runs into SQLite.
type SQLiteRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.RunRepository = (*SQLiteRepository)(nil)

// NewSQLiteRepository wires a sql.DB implementation.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

// SaveRun inserts one completed run snapshot.
func (r *SQLiteRepository) SaveRun(ctx context.Context, run domain.PipelineRun) error {
	if r == nil || r.db == nil {
		return nil
	}

	articles, err := json.Marshal(run.Result.Articles)
	if err != nil {
		return fmt.Errorf("marshal articles: %w", err)
	}

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query, args, err := r.builder.
		Insert("pipeline_runs").
		Columns("id", "script", "word_count", "estimated_seconds", "video_url", "articles_json", "generated_at", "created_at").
		Values(run.ID, run.Result.Script, run.Result.WordCount, run.Result.EstimatedSeconds,
			run.Result.VideoURL, string(articles), run.Result.GeneratedAt, createdAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (r *SQLiteRepository) RecentRuns(ctx context.Context, limit int) ([]domain.PipelineRun, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	query, args, err := r.builder.
		Select("id", "script", "word_count", "estimated_seconds", "video_url", "articles_json", "generated_at", "created_at").
		From("pipeline_runs").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.PipelineRun
	for rows.Next() {
		var (
			run          domain.PipelineRun
			articlesJSON string
		)
		if err := rows.Scan(&run.ID, &run.Result.Script, &run.Result.WordCount,
			&run.Result.EstimatedSeconds, &run.Result.VideoURL, &articlesJSON,
			&run.Result.GeneratedAt, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(articlesJSON), &run.Result.Articles); err != nil {
			return nil, fmt.Errorf("unmarshal articles: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return runs, nil
}
