package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/youscore-api/internal/models"
	appErrors "github.com/noah-isme/youscore-api/pkg/errors"
	"github.com/noah-isme/youscore-api/pkg/export"
	"github.com/noah-isme/youscore-api/pkg/jobs"
	"github.com/noah-isme/youscore-api/pkg/storage"
)

type reportRepository interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, userID, id string) (*models.ReportJob, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.ReportJob, error)
	UpdateStatus(ctx context.Context, id string, status models.ReportStatus, filePath, errorText string, completedAt *time.Time) error
}

type summaryProvider interface {
	Get(ctx context.Context, userID, semesterSel string) (*SummaryResponse, error)
}

// ReportLink is a time-limited download handle for a finished report.
type ReportLink struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type reportPayload struct {
	JobID    string
	UserID   string
	Format   models.ReportFormat
	Semester string
}

// ReportService exports a user's scores asynchronously as CSV or PDF files.
type ReportService struct {
	repo    reportRepository
	summary summaryProvider
	store   *storage.LocalStorage
	signer  *storage.SignedURLSigner
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	queue   *jobs.Queue
	logger  *zap.Logger
}

// ReportQueueConfig sizes the background worker pool.
type ReportQueueConfig struct {
	Workers    int
	MaxRetries int
}

// NewReportService constructs a ReportService with its worker queue. Call
// Start before enqueuing and Stop on shutdown.
func NewReportService(repo reportRepository, summary summaryProvider, store *storage.LocalStorage, signer *storage.SignedURLSigner, cfg ReportQueueConfig, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ReportService{
		repo:    repo,
		summary: summary,
		store:   store,
		signer:  signer,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
	s.queue = jobs.NewQueue("reports", s.process, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the background workers.
func (s *ReportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue and stops the workers.
func (s *ReportService) Stop() {
	s.queue.Stop()
}

// Enqueue creates a QUEUED job and hands it to the worker pool.
func (s *ReportService) Enqueue(ctx context.Context, userID string, format models.ReportFormat, semesterSel string) (*models.ReportJob, error) {
	if format != models.ReportFormatCSV && format != models.ReportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if semesterSel == "" {
		semesterSel = SemesterAll
	}
	if semesterSel != SemesterAll {
		if n, err := strconv.Atoi(semesterSel); err != nil || n < 1 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "semester must be 'all' or a positive number")
		}
	}

	job := &models.ReportJob{UserID: userID, Format: format, Semester: semesterSel, Status: models.ReportStatusQueued}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}

	if err := s.queue.Enqueue(jobs.Job{
		ID:      job.ID,
		Type:    "report",
		Payload: reportPayload{JobID: job.ID, UserID: userID, Format: format, Semester: semesterSel},
	}); err != nil {
		now := time.Now().UTC()
		if updateErr := s.repo.UpdateStatus(ctx, job.ID, models.ReportStatusFailed, "", "queue is full", &now); updateErr != nil {
			s.logger.Warn("failed to mark report job as failed", zap.Error(updateErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "report queue is full")
	}
	return job, nil
}

// Get returns a report job owned by the user.
func (s *ReportService) Get(ctx context.Context, userID, id string) (*models.ReportJob, error) {
	job, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	return job, nil
}

// List returns the user's recent report jobs.
func (s *ReportService) List(ctx context.Context, userID string, limit int) ([]models.ReportJob, error) {
	jobsList, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list report jobs")
	}
	return jobsList, nil
}

// Link issues a signed download token for a completed job.
func (s *ReportService) Link(ctx context.Context, userID, id string) (*ReportLink, error) {
	job, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if job.Status != models.ReportStatusCompleted || job.FilePath == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "report is not ready for download")
	}
	token, expiresAt, err := s.signer.Generate(job.ID, job.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return &ReportLink{Token: token, ExpiresAt: expiresAt}, nil
}

// OpenSigned validates a download token and opens the referenced file.
func (s *ReportService) OpenSigned(token string) (*os.File, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired download token")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "report file not found")
	}
	return file, nil
}

func (s *ReportService) process(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(reportPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}

	if err := s.repo.UpdateStatus(ctx, payload.JobID, models.ReportStatusRunning, "", "", nil); err != nil {
		s.logger.Warn("failed to mark report job running", zap.Error(err))
	}

	data, err := s.render(ctx, payload)
	now := time.Now().UTC()
	if err != nil {
		if updateErr := s.repo.UpdateStatus(ctx, payload.JobID, models.ReportStatusFailed, "", err.Error(), &now); updateErr != nil {
			s.logger.Warn("failed to mark report job failed", zap.Error(updateErr))
		}
		return err
	}

	filename := fmt.Sprintf("%s.%s", payload.JobID, payload.Format)
	if _, err := s.store.Save(filename, data); err != nil {
		if updateErr := s.repo.UpdateStatus(ctx, payload.JobID, models.ReportStatusFailed, "", err.Error(), &now); updateErr != nil {
			s.logger.Warn("failed to mark report job failed", zap.Error(updateErr))
		}
		return err
	}

	if err := s.repo.UpdateStatus(ctx, payload.JobID, models.ReportStatusCompleted, filename, "", &now); err != nil {
		return err
	}
	s.logger.Info("report generated",
		zap.String("job_id", payload.JobID),
		zap.String("format", string(payload.Format)))
	return nil
}

func (s *ReportService) render(ctx context.Context, payload reportPayload) ([]byte, error) {
	summary, err := s.summary.Get(ctx, payload.UserID, payload.Semester)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Columns: []string{"Subject", "Exam Type", "Score", "Max Score", "Date"},
	}
	for _, subject := range summary.Subjects {
		for _, entry := range subject.Entries {
			dataset.AddRow(
				entry.Subject,
				entry.ExamType,
				strconv.FormatFloat(entry.Score, 'f', -1, 64),
				strconv.FormatFloat(entry.MaxScore, 'f', -1, 64),
				entry.Time().Format("2006-01-02"),
			)
		}
	}
	dataset.AddRow("Overall Average", "", strconv.FormatFloat(summary.Average, 'f', -1, 64))

	switch payload.Format {
	case models.ReportFormatPDF:
		title := "Score Report"
		if payload.Semester != SemesterAll {
			title = fmt.Sprintf("Score Report - Semester %s", payload.Semester)
		}
		return s.pdf.Render(dataset, title)
	default:
		return s.csv.Render(dataset)
	}
}
