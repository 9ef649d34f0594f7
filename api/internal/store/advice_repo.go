package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"farm-advisor/api/internal/advisory/extract"
	"farm-advisor/api/internal/advisory/types"
	"farm-advisor/api/internal/metrics"
)

var ErrNotFound = sql.ErrNoRows

// Record is one stored advisory result.
type Record struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UserID    string
	UseCase   types.UseCase
	Language  string
	Provider  string
	Model     string
	// InputType is "image", "pdf" or "params".
	InputType string
	Result    any
}

type AdviceRepo struct{ DB *sql.DB }

func NewAdviceRepo(db *sql.DB) *AdviceRepo { return &AdviceRepo{DB: db} }

// Open connects through the pgx driver and pings once.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const schema = `
create table if not exists advisory_results (
    id          uuid primary key,
    user_id     text not null,
    use_case    text not null,
    language    text not null,
    provider    text not null,
    model       text not null,
    input_type  text not null,
    result_json jsonb not null,
    created_at  timestamptz not null default now()
);
create index if not exists advisory_results_user_idx on advisory_results(user_id, use_case, created_at desc)`

func (r *AdviceRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, schema)
	return err
}

// Insert stores rec and returns it with ID and CreatedAt filled in.
func (r *AdviceRepo) Insert(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	js, err := extract.Compact(rec.Result)
	if err != nil {
		return Record{}, err
	}
	const q = `
insert into advisory_results(id, user_id, use_case, language, provider, model, input_type, result_json)
values ($1,$2,$3,$4,$5,$6,$7,$8)
returning created_at`
	if err := r.DB.QueryRowContext(ctx, q, rec.ID, rec.UserID, string(rec.UseCase), rec.Language,
		rec.Provider, rec.Model, rec.InputType, js).Scan(&rec.CreatedAt); err != nil {
		metrics.ResultsStoredTotal.WithLabelValues("error").Inc()
		return Record{}, err
	}
	metrics.ResultsStoredTotal.WithLabelValues("ok").Inc()
	return rec, nil
}

// ListByUser returns the newest results first. An empty useCase lists all.
func (r *AdviceRepo) ListByUser(ctx context.Context, userID string, useCase types.UseCase, limit int) ([]Record, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const q = `
select id, created_at, user_id, use_case, language, provider, model, input_type, result_json
from advisory_results
where user_id = $1 and ($2::text = '' or use_case = $2)
order by created_at desc
limit $3`
	rows, err := r.DB.QueryContext(ctx, q, userID, string(useCase), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec Record
			uc  string
			js  []byte
		)
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.UserID, &uc, &rec.Language,
			&rec.Provider, &rec.Model, &rec.InputType, &js); err != nil {
			return nil, err
		}
		rec.UseCase = types.UseCase(uc)
		// broken row: keep the listing usable
		rec.Result, _ = extract.ParseValue(string(js))
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Get returns one result owned by userID.
func (r *AdviceRepo) Get(ctx context.Context, userID string, id uuid.UUID) (Record, error) {
	const q = `
select id, created_at, user_id, use_case, language, provider, model, input_type, result_json
from advisory_results
where id = $1 and user_id = $2`
	var (
		rec Record
		uc  string
		js  []byte
	)
	err := r.DB.QueryRowContext(ctx, q, id, userID).Scan(&rec.ID, &rec.CreatedAt, &rec.UserID, &uc,
		&rec.Language, &rec.Provider, &rec.Model, &rec.InputType, &js)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	rec.UseCase = types.UseCase(uc)
	if rec.Result, err = extract.ParseValue(string(js)); err != nil {
		return Record{}, err
	}
	return rec, nil
}
