package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/youscore-api/internal/models"
)

func TestSettingsRepositoryGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSettingsRepository(db)
	stored := models.DefaultSettings()
	stored.Rounding = 2
	document, err := json.Marshal(stored)
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"user_id", "document", "updated_at"}).
		AddRow("user-1", document, time.Now())
	mock.ExpectQuery("SELECT user_id, document").
		WithArgs("user-1").
		WillReturnRows(rows)

	settings, err := repo.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, settings.Rounding)
	assert.Equal(t, stored.DefaultMaxScore, settings.DefaultMaxScore)
	assert.Equal(t, stored.CustomFactors, settings.CustomFactors)
}

func TestSettingsRepositoryGetNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSettingsRepository(db)
	mock.ExpectQuery("SELECT user_id, document").
		WithArgs("user-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "user-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSettingsRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSettingsRepository(db)
	mock.ExpectExec("INSERT INTO user_settings").
		WillReturnResult(sqlmock.NewResult(1, 1))

	settings := models.DefaultSettings()
	require.NoError(t, repo.Upsert(context.Background(), "user-1", &settings))
}
