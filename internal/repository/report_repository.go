package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/youscore-api/internal/models"
)

// ReportRepository persists report export jobs.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a new report job in QUEUED state.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if job.Status == "" {
		job.Status = models.ReportStatusQueued
	}
	const query = `INSERT INTO report_jobs (id, user_id, format, semester, status, file_path, error_text, created_at, completed_at)
        VALUES (:id, :user_id, :format, :semester, :status, :file_path, :error_text, :created_at, :completed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

// GetByID returns a report job owned by the user.
func (r *ReportRepository) GetByID(ctx context.Context, userID, id string) (*models.ReportJob, error) {
	const query = `SELECT id, user_id, format, semester, status, file_path, error_text, created_at, completed_at
        FROM report_jobs WHERE id = $1 AND user_id = $2 LIMIT 1`
	var job models.ReportJob
	if err := r.db.GetContext(ctx, &job, query, id, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get report job: %w", err)
	}
	return &job, nil
}

// ListByUser returns the user's report jobs, newest first.
func (r *ReportRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.ReportJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const query = `SELECT id, user_id, format, semester, status, file_path, error_text, created_at, completed_at
        FROM report_jobs WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	var jobs []models.ReportJob
	if err := r.db.SelectContext(ctx, &jobs, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list report jobs: %w", err)
	}
	return jobs, nil
}

// UpdateStatus transitions a job and records its outcome.
func (r *ReportRepository) UpdateStatus(ctx context.Context, id string, status models.ReportStatus, filePath, errorText string, completedAt *time.Time) error {
	const query = `UPDATE report_jobs SET status = $2, file_path = $3, error_text = $4, completed_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, filePath, errorText, completedAt); err != nil {
		return fmt.Errorf("update report job: %w", err)
	}
	return nil
}
