package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studyspots/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS locations (
	id         BIGINT PRIMARY KEY,
	name       TEXT NOT NULL,
	doc        JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS reviews (
	id            TEXT PRIMARY KEY,
	location_id   BIGINT,
	location_name TEXT NOT NULL,
	doc           JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS reviews_location_id_idx ON reviews (location_id);
`

// Postgres stores each record as a JSONB document next to the columns the
// map needs for ordering and joins.
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (p *Postgres) ListLocations(ctx context.Context) ([]model.Location, error) {
	rows, err := p.db.Query(ctx, `SELECT doc FROM locations ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	out := make([]model.Location, 0, 64)
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("list locations: %w", err)
		}
		var loc model.Location
		if err := json.Unmarshal(doc, &loc); err != nil {
			return nil, fmt.Errorf("decode location: %w", err)
		}
		out = append(out, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return out, nil
}

func (p *Postgres) InsertLocation(ctx context.Context, loc model.Location) (string, error) {
	assignID(&loc)
	doc, err := json.Marshal(loc)
	if err != nil {
		return "", fmt.Errorf("encode location: %w", err)
	}

	var id int64
	err = p.db.QueryRow(ctx, `
		INSERT INTO locations (id, name, doc)
		VALUES ($1, $2, $3)
		RETURNING id
	`, loc.ID, loc.Name, doc).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert location: %w", err)
	}
	return strconv.FormatInt(id, 10), nil
}

func (p *Postgres) ListReviews(ctx context.Context) ([]model.Review, error) {
	rows, err := p.db.Query(ctx, `SELECT doc FROM reviews ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	out := make([]model.Review, 0, 128)
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("list reviews: %w", err)
		}
		var r model.Review
		if err := json.Unmarshal(doc, &r); err != nil {
			return nil, fmt.Errorf("decode review: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return out, nil
}

// InsertReviews writes all reviews in one transaction. Reviews whose id is
// already stored are skipped and not counted.
func (p *Postgres) InsertReviews(ctx context.Context, reviews []model.Review) (int, error) {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("insert reviews: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, r := range reviews {
		if r.ID == "" {
			r.ID = newReviewID()
		}
		doc, err := json.Marshal(r)
		if err != nil {
			return 0, fmt.Errorf("encode review: %w", err)
		}
		var locID *int64
		if r.LocationID != 0 {
			locID = &r.LocationID
		}
		batch.Queue(`
			INSERT INTO reviews (id, location_id, location_name, doc)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO NOTHING
		`, r.ID, locID, r.LocationName, doc)
	}

	br := tx.SendBatch(ctx, batch)
	n := 0
	for range reviews {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return 0, fmt.Errorf("insert reviews: %w", err)
		}
		n += int(tag.RowsAffected())
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("insert reviews: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("insert reviews: %w", err)
	}
	return n, nil
}

func (p *Postgres) Close() {
	p.db.Close()
}
