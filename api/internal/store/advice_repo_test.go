package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farm-advisor/api/internal/advisory/types"
)

func newMock(t *testing.T) (*AdviceRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAdviceRepo(db), mock
}

func TestEnsureSchema(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec("create table if not exists advisory_results").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert(t *testing.T) {
	repo, mock := newMock(t)
	created := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("insert into advisory_results").
		WithArgs(sqlmock.AnyArg(), "user-1", "fertilizer_plan", "hi", "gemini", "gemini-2.0-flash", "params",
			[]byte(`{"fertilizerPlan":{"crop":"Wheat"}}`)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	rec, err := repo.Insert(context.Background(), Record{
		UserID:    "user-1",
		UseCase:   types.FertilizerPlan,
		Language:  "hi",
		Provider:  "gemini",
		Model:     "gemini-2.0-flash",
		InputType: "params",
		Result:    map[string]any{"fertilizerPlan": map[string]any{"crop": "Wheat"}},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, created, rec.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUser(t *testing.T) {
	repo, mock := newMock(t)
	id1, id2 := uuid.New(), uuid.New()
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "created_at", "user_id", "use_case", "language", "provider", "model", "input_type", "result_json"}).
		AddRow(id1.String(), now, "user-1", "diagnosis", "en", "gpt", "gpt-4o-mini", "image", []byte(`{"diagnosis":{}}`)).
		AddRow(id2.String(), now.Add(-time.Hour), "user-1", "diagnosis", "en", "gpt", "gpt-4o-mini", "pdf", []byte(`not json`))
	mock.ExpectQuery("select id, created_at").WithArgs("user-1", "diagnosis", 20).WillReturnRows(rows)

	got, err := repo.ListByUser(context.Background(), "user-1", types.Diagnosis, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, id1, got[0].ID)
	assert.Equal(t, types.Diagnosis, got[0].UseCase)
	assert.Equal(t, map[string]any{"diagnosis": map[string]any{}}, got[0].Result)
	assert.Nil(t, got[1].Result)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_NotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("from advisory_results").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "user-1", uuid.New())
	assert.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_KeepsLargeIntegers(t *testing.T) {
	repo, mock := newMock(t)
	id := uuid.New()
	rows := sqlmock.NewRows([]string{"id", "created_at", "user_id", "use_case", "language", "provider", "model", "input_type", "result_json"}).
		AddRow(id.String(), time.Now(), "user-1", "project_plan", "en", "gemini", "gemini-2.0-flash", "params",
			[]byte(`{"cropPlan":{"plotId":9007199254740993,"acres":4}}`))
	mock.ExpectQuery("from advisory_results").WithArgs(id.String(), "user-1").WillReturnRows(rows)

	rec, err := repo.Get(context.Background(), "user-1", id)
	require.NoError(t, err)
	assert.Equal(t, types.ProjectPlan, rec.UseCase)
	plan := rec.Result.(map[string]any)["cropPlan"].(map[string]any)
	assert.Equal(t, json.Number("9007199254740993"), plan["plotId"])
	assert.Equal(t, 4.0, plan["acres"])
	require.NoError(t, mock.ExpectationsWereMet())
}
