package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/youscore-api/internal/models"
)

// ScoreRepository handles score entry persistence.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository creates a new score repository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// ListByUser returns all entries for a user, newest first.
func (r *ScoreRepository) ListByUser(ctx context.Context, userID string) ([]models.ScoreEntry, error) {
	const query = `SELECT id, user_id, subject, exam_type, score, max_score, timestamp, original_text, created_at
        FROM score_entries
        WHERE user_id = $1
        ORDER BY timestamp DESC, created_at DESC`
	var entries []models.ScoreEntry
	if err := r.db.SelectContext(ctx, &entries, query, userID); err != nil {
		return nil, fmt.Errorf("list score entries: %w", err)
	}
	return entries, nil
}

// GetByID returns a single entry owned by the user.
func (r *ScoreRepository) GetByID(ctx context.Context, userID, id string) (*models.ScoreEntry, error) {
	const query = `SELECT id, user_id, subject, exam_type, score, max_score, timestamp, original_text, created_at
        FROM score_entries
        WHERE id = $1 AND user_id = $2`
	var entry models.ScoreEntry
	if err := r.db.GetContext(ctx, &entry, query, id, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get score entry: %w", err)
	}
	return &entry, nil
}

// Insert stores a new entry, assigning its ID and creation time.
func (r *ScoreRepository) Insert(ctx context.Context, entry *models.ScoreEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO score_entries (id, user_id, subject, exam_type, score, max_score, timestamp, original_text, created_at)
        VALUES (:id, :user_id, :subject, :exam_type, :score, :max_score, :timestamp, :original_text, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("insert score entry: %w", err)
	}
	return nil
}

// BulkInsert stores multiple entries in a single transaction.
func (r *ScoreRepository) BulkInsert(ctx context.Context, entries []models.ScoreEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		if entries[i].CreatedAt.IsZero() {
			entries[i].CreatedAt = now
		}
		const query = `INSERT INTO score_entries (id, user_id, subject, exam_type, score, max_score, timestamp, original_text, created_at)
            VALUES (:id, :user_id, :subject, :exam_type, :score, :max_score, :timestamp, :original_text, :created_at)`
		if _, err := tx.NamedExecContext(ctx, query, entries[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("bulk insert score entry: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit score entries: %w", err)
	}
	return nil
}

// Update applies a partial edit to an existing entry owned by the user.
func (r *ScoreRepository) Update(ctx context.Context, userID, id string, update models.ScoreUpdate) error {
	sets := []string{}
	args := []interface{}{}
	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, value)
	}
	if update.Subject != nil {
		add("subject", *update.Subject)
	}
	if update.ExamType != nil {
		add("exam_type", *update.ExamType)
	}
	if update.Score != nil {
		add("score", *update.Score)
	}
	if update.MaxScore != nil {
		add("max_score", *update.MaxScore)
	}
	if update.Timestamp != nil {
		add("timestamp", *update.Timestamp)
	}
	if len(sets) == 0 {
		return nil
	}
	query := fmt.Sprintf("UPDATE score_entries SET %s WHERE id = $%d AND user_id = $%d",
		strings.Join(sets, ", "), len(args)+1, len(args)+2)
	args = append(args, id, userID)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update score entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update score entry: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a single entry owned by the user.
func (r *ScoreRepository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM score_entries WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("delete score entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete score entry: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteByIDs removes the selected entries owned by the user and reports
// how many were actually deleted.
func (r *ScoreRepository) DeleteByIDs(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM score_entries WHERE user_id = $1 AND id = ANY($2)", userID, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete selected score entries: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete selected score entries: %w", err)
	}
	return affected, nil
}

// DeleteAllByUser removes every entry belonging to the user.
func (r *ScoreRepository) DeleteAllByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM score_entries WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("delete score entries: %w", err)
	}
	return nil
}
