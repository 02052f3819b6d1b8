package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/kairos/internal/domain"
)

const sessionRecordSchema = `CREATE TABLE IF NOT EXISTS session_records (
	id          UUID PRIMARY KEY,
	session_id  UUID NOT NULL UNIQUE,
	topic       TEXT NOT NULL DEFAULT '',
	language    TEXT NOT NULL DEFAULT '',
	analytics   JSONB NOT NULL,
	usage       JSONB NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	ended_at    TIMESTAMPTZ NOT NULL
)`

type SessionRecordRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRecordRepo(pool *pgxpool.Pool) *SessionRecordRepo {
	return &SessionRecordRepo{pool: pool}
}

func (r *SessionRecordRepo) Save(ctx context.Context, rec *domain.SessionRecord) error {
	analytics, err := json.Marshal(rec.Analytics)
	if err != nil {
		return fmt.Errorf("sessionRecordRepo.Save: marshal analytics: %w", err)
	}
	usage, err := json.Marshal(rec.Usage)
	if err != nil {
		return fmt.Errorf("sessionRecordRepo.Save: marshal usage: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO session_records (id, session_id, topic, language, analytics, usage, started_at, ended_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (session_id) DO UPDATE
		 SET topic = EXCLUDED.topic, language = EXCLUDED.language, analytics = EXCLUDED.analytics,
		     usage = EXCLUDED.usage, ended_at = EXCLUDED.ended_at`,
		rec.ID, rec.SessionID, rec.Topic, rec.Language, analytics, usage, rec.StartedAt, rec.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("sessionRecordRepo.Save: %w", err)
	}

	return nil
}

func (r *SessionRecordRepo) GetBySession(ctx context.Context, sessionID uuid.UUID) (*domain.SessionRecord, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, session_id, topic, language, analytics, usage, started_at, ended_at
		 FROM session_records WHERE session_id = $1`,
		sessionID,
	)

	rec, err := scanSessionRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("sessionRecordRepo.GetBySession: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sessionRecordRepo.GetBySession: %w", err)
	}

	return rec, nil
}

func (r *SessionRecordRepo) List(ctx context.Context, limit, offset int) ([]*domain.SessionRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, topic, language, analytics, usage, started_at, ended_at
		 FROM session_records
		 ORDER BY ended_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sessionRecordRepo.List: %w", err)
	}
	defer rows.Close()

	var records []*domain.SessionRecord
	for rows.Next() {
		rec, scanErr := scanSessionRecord(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("sessionRecordRepo.List: scan: %w", scanErr)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("sessionRecordRepo.List: rows: %w", err)
	}

	return records, nil
}

func scanSessionRecord(row pgx.Row) (*domain.SessionRecord, error) {
	var (
		rec       domain.SessionRecord
		analytics []byte
		usage     []byte
	)
	err := row.Scan(&rec.ID, &rec.SessionID, &rec.Topic, &rec.Language, &analytics, &usage, &rec.StartedAt, &rec.EndedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(analytics, &rec.Analytics); err != nil {
		return nil, fmt.Errorf("unmarshal analytics: %w", err)
	}
	if err := json.Unmarshal(usage, &rec.Usage); err != nil {
		return nil, fmt.Errorf("unmarshal usage: %w", err)
	}
	return &rec, nil
}
