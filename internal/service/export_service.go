package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vetcare/clinic-api/internal/models"
	appErrors "github.com/vetcare/clinic-api/pkg/errors"
	"github.com/vetcare/clinic-api/pkg/export"
	"github.com/vetcare/clinic-api/pkg/jobs"
	"github.com/vetcare/clinic-api/pkg/storage"
)

type exportAppointmentReader interface {
	ListByVetAndDate(ctx context.Context, vetID int64, date string) ([]models.Appointment, error)
}

type exportVetReader interface {
	FindByID(ctx context.Context, id int64) (*models.Vet, error)
}

type exportPetReader interface {
	FindByID(ctx context.Context, id int64) (*models.Pet, error)
}

// ExportService renders a vet's daily agenda to CSV or PDF asynchronously.
// Jobs live in memory; artifacts land on local disk and are served through
// signed download links.
type ExportService struct {
	appointments exportAppointmentReader
	vets         exportVetReader
	pets         exportPetReader
	csv          *export.CSVExporter
	pdf          *export.PDFExporter
	store        *storage.LocalStorage
	signer       *storage.SignedURLSigner
	queue        *jobs.Queue
	logger       *zap.Logger

	mu      sync.RWMutex
	entries map[string]*models.ExportJob
}

// ExportQueueConfig tunes the background rendering pool.
type ExportQueueConfig struct {
	Workers   int
	QueueSize int
}

// NewExportService constructs the service and its worker queue. Call Start
// before enqueueing and Stop on shutdown.
func NewExportService(appointments exportAppointmentReader, vets exportVetReader, pets exportPetReader, store *storage.LocalStorage, signer *storage.SignedURLSigner, cfg ExportQueueConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExportService{
		appointments: appointments,
		vets:         vets,
		pets:         pets,
		csv:          export.NewCSVExporter(),
		pdf:          export.NewPDFExporter(),
		store:        store,
		signer:       signer,
		logger:       logger,
		entries:      map[string]*models.ExportJob{},
	}
	s.queue = jobs.NewQueue("agenda-export", s.process, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.QueueSize,
		Logger:     logger,
	})
	return s
}

// Start launches the rendering workers.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue and stops the workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Enqueue registers an export job and hands it to the worker pool.
func (s *ExportService) Enqueue(ctx context.Context, vetID int64, date string, format models.ExportFormat) (*models.ExportJob, error) {
	if format != models.ExportFormatCSV && format != models.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}
	if !validDate(date) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date")
	}
	if _, err := s.vets.FindByID(ctx, vetID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "vet not found")
	}

	now := time.Now().UTC()
	job := &models.ExportJob{
		ID:        uuid.NewString(),
		VetID:     vetID,
		Date:      date,
		Format:    format,
		Status:    models.ExportStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.entries[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(format)}); err != nil {
		s.fail(job.ID, "queue is full")
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "export queue is full")
	}
	return job, nil
}

// GetJob returns the current state of one export job.
func (s *ExportService) GetJob(id string) (*models.ExportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.entries[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	copied := *job
	return &copied, nil
}

// DownloadURL returns a signed token for a finished job's artifact.
func (s *ExportService) DownloadURL(id string) (string, time.Time, error) {
	job, err := s.GetJob(id)
	if err != nil {
		return "", time.Time{}, err
	}
	if job.Status != models.ExportStatusDone {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrConflict, "export is not finished")
	}
	token, expires, err := s.signer.Generate(job.ID, job.FilePath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return token, expires, nil
}

// ResolveDownload validates a signed token and returns the artifact path.
func (s *ExportService) ResolveDownload(token string) (string, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download link")
	}
	job, err := s.GetJob(jobID)
	if err != nil {
		return "", err
	}
	if job.FilePath != relPath {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "download link does not match job")
	}
	return s.store.Path(relPath), nil
}

// CleanupArtifacts removes export files older than ttl.
func (s *ExportService) CleanupArtifacts(ttl time.Duration) {
	removed, err := s.store.CleanupOlderThan(ttl)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("removed expired export artifacts", zap.Int("count", len(removed)))
	}
}

func (s *ExportService) process(ctx context.Context, job jobs.Job) error {
	entry, err := s.GetJob(job.ID)
	if err != nil {
		return err
	}
	dataset, title, err := s.buildAgenda(ctx, entry.VetID, entry.Date)
	if err != nil {
		s.fail(job.ID, "failed to load agenda")
		return err
	}

	var payload []byte
	var filename string
	switch entry.Format {
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(*dataset, title)
		filename = fmt.Sprintf("agenda-%d-%s-%s.pdf", entry.VetID, entry.Date, job.ID)
	default:
		payload, err = s.csv.Render(*dataset)
		filename = fmt.Sprintf("agenda-%d-%s-%s.csv", entry.VetID, entry.Date, job.ID)
	}
	if err != nil {
		s.fail(job.ID, "failed to render export")
		return err
	}

	relPath, err := s.store.Save(filename, payload)
	if err != nil {
		s.fail(job.ID, "failed to store export")
		return err
	}

	s.mu.Lock()
	if stored, ok := s.entries[job.ID]; ok {
		stored.Status = models.ExportStatusDone
		stored.FilePath = relPath
		stored.UpdatedAt = time.Now().UTC()
	}
	s.mu.Unlock()
	return nil
}

func (s *ExportService) buildAgenda(ctx context.Context, vetID int64, date string) (*export.Dataset, string, error) {
	vet, err := s.vets.FindByID(ctx, vetID)
	if err != nil {
		return nil, "", err
	}
	appts, err := s.appointments.ListByVetAndDate(ctx, vetID, date)
	if err != nil {
		return nil, "", err
	}

	dataset := &export.Dataset{
		Headers: []string{"hour", "duration_minutes", "pet", "status", "notes"},
		Rows:    make([]map[string]string, 0, len(appts)),
	}
	for _, a := range appts {
		petName := fmt.Sprintf("#%d", a.PetID)
		if s.pets != nil {
			if pet, err := s.pets.FindByID(ctx, a.PetID); err == nil {
				petName = pet.Name
			}
		}
		notes := ""
		if a.Notes != nil {
			notes = *a.Notes
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"hour":             a.Hour,
			"duration_minutes": fmt.Sprintf("%d", a.DurationMinutes),
			"pet":              petName,
			"status":           string(a.Status),
			"notes":            notes,
		})
	}
	title := fmt.Sprintf("Agenda %s, %s", vet.Name, date)
	return dataset, title, nil
}

func (s *ExportService) fail(id, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.entries[id]; ok {
		job.Status = models.ExportStatusFailed
		job.Error = reason
		job.UpdatedAt = time.Now().UTC()
	}
}
