package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/youscore-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestScoreRepositoryListByUser(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScoreRepository(db)
	rows := sqlmock.NewRows([]string{"id", "user_id", "subject", "exam_type", "score", "max_score", "timestamp", "original_text", "created_at"}).
		AddRow("entry-2", "user-1", "Toán", "Học kỳ", 9.0, 10.0, int64(1700000200000), "Toán 9 điểm", time.Now()).
		AddRow("entry-1", "user-1", "Văn", "Khác", 8.0, 10.0, int64(1700000100000), "Văn 8", time.Now())
	mock.ExpectQuery("SELECT id, user_id, subject").
		WithArgs("user-1").
		WillReturnRows(rows)

	entries, err := repo.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "entry-2", entries[0].ID)
	assert.Equal(t, "Toán", entries[0].Subject)
}

func TestScoreRepositoryInsertAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScoreRepository(db)
	mock.ExpectExec("INSERT INTO score_entries").
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.ScoreEntry{
		UserID:       "user-1",
		Subject:      "Toán",
		ExamType:     "Học kỳ",
		Score:        9,
		MaxScore:     10,
		Timestamp:    1700000200000,
		OriginalText: "Toán 9 điểm",
	}
	require.NoError(t, repo.Insert(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestScoreRepositoryBulkInsertTransaction(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScoreRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO score_entries").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO score_entries").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	entries := []models.ScoreEntry{
		{UserID: "user-1", Subject: "Toán", ExamType: "Khác", Score: 9, MaxScore: 10, Timestamp: 1},
		{UserID: "user-1", Subject: "Văn", ExamType: "Khác", Score: 8, MaxScore: 10, Timestamp: 2},
	}
	require.NoError(t, repo.BulkInsert(context.Background(), entries))
	assert.NotEmpty(t, entries[0].ID)
	assert.NotEmpty(t, entries[1].ID)
}

func TestScoreRepositoryUpdatePartial(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScoreRepository(db)
	mock.ExpectExec("UPDATE score_entries SET").
		WithArgs(9.5, "entry-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	score := 9.5
	require.NoError(t, repo.Update(context.Background(), "user-1", "entry-1", models.ScoreUpdate{Score: &score}))
}

func TestScoreRepositoryUpdateNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScoreRepository(db)
	mock.ExpectExec("UPDATE score_entries SET").
		WithArgs(9.5, "missing", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	score := 9.5
	err := repo.Update(context.Background(), "user-1", "missing", models.ScoreUpdate{Score: &score})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestScoreRepositoryUpdateNoFields(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScoreRepository(db)
	require.NoError(t, repo.Update(context.Background(), "user-1", "entry-1", models.ScoreUpdate{}))
}

func TestScoreRepositoryDeleteByIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScoreRepository(db)
	mock.ExpectExec("DELETE FROM score_entries WHERE user_id").
		WithArgs("user-1", pq.Array([]string{"entry-1", "entry-2", "foreign"})).
		WillReturnResult(sqlmock.NewResult(0, 2))

	deleted, err := repo.DeleteByIDs(context.Background(), "user-1", []string{"entry-1", "entry-2", "foreign"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)
}

func TestScoreRepositoryDeleteByIDsEmpty(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScoreRepository(db)
	deleted, err := repo.DeleteByIDs(context.Background(), "user-1", nil)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestScoreRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScoreRepository(db)
	mock.ExpectExec("DELETE FROM score_entries WHERE id").
		WithArgs("entry-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "user-1", "entry-1"))
}

func TestScoreRepositoryDeleteNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScoreRepository(db)
	mock.ExpectExec("DELETE FROM score_entries WHERE id").
		WithArgs("missing", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "user-1", "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
