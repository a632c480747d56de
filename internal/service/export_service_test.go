package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vetcare/clinic-api/internal/models"
	appErrors "github.com/vetcare/clinic-api/pkg/errors"
	"github.com/vetcare/clinic-api/pkg/storage"
)

type agendaApptStub struct {
	appts []models.Appointment
}

func (s *agendaApptStub) ListByVetAndDate(_ context.Context, vetID int64, date string) ([]models.Appointment, error) {
	return s.appts, nil
}

func newExportTestService(t *testing.T) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("export-secret", time.Hour)

	notes := "bring vaccination card"
	appts := &agendaApptStub{appts: []models.Appointment{
		{ID: 1, VetID: 1, PetID: 3, Date: "2026-09-14", Hour: "09:00", DurationMinutes: 30, Status: models.StatusConfirmada, Notes: &notes},
		{ID: 2, VetID: 1, PetID: 3, Date: "2026-09-14", Hour: "10:00", DurationMinutes: 45, Status: models.StatusProgramada},
	}}
	vets := &mockVetReader{vets: map[int64]*models.Vet{1: {ID: 1, Name: "Dr. Rivas"}}}
	pets := &mockPetReader{pets: map[int64]*models.Pet{3: {ID: 3, Name: "Firulais"}}}

	return NewExportService(appts, vets, pets, store, signer, ExportQueueConfig{Workers: 1, QueueSize: 4}, zap.NewNop())
}

func waitForJob(t *testing.T, svc *ExportService, id string) *models.ExportJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := svc.GetJob(id)
		require.NoError(t, err)
		if job.Status != models.ExportStatusQueued {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("export job never left the queue")
	return nil
}

func TestExportEnqueueRendersCSV(t *testing.T) {
	svc := newExportTestService(t)
	svc.Start(context.Background())
	defer svc.Stop()

	job, err := svc.Enqueue(context.Background(), 1, "2026-09-14", models.ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, job.Status)

	done := waitForJob(t, svc, job.ID)
	require.Equal(t, models.ExportStatusDone, done.Status)
	require.NotEmpty(t, done.FilePath)

	token, expiresAt, err := svc.DownloadURL(job.ID)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	path, err := svc.ResolveDownload(token)
	require.NoError(t, err)
	payload, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(payload)
	assert.Contains(t, content, "hour")
	assert.Contains(t, content, "Firulais")
	assert.Contains(t, content, "09:00")
}

func TestExportEnqueueRendersPDF(t *testing.T) {
	svc := newExportTestService(t)
	svc.Start(context.Background())
	defer svc.Stop()

	job, err := svc.Enqueue(context.Background(), 1, "2026-09-14", models.ExportFormatPDF)
	require.NoError(t, err)

	done := waitForJob(t, svc, job.ID)
	require.Equal(t, models.ExportStatusDone, done.Status)

	path, err := svc.ResolveDownload(mustToken(t, svc, job.ID))
	require.NoError(t, err)
	payload, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, len(payload) > 0)
	assert.Equal(t, "%PDF", string(payload[:4]))
}

func mustToken(t *testing.T, svc *ExportService, jobID string) string {
	t.Helper()
	token, _, err := svc.DownloadURL(jobID)
	require.NoError(t, err)
	return token
}

func TestExportEnqueueValidation(t *testing.T) {
	svc := newExportTestService(t)
	svc.Start(context.Background())
	defer svc.Stop()

	_, err := svc.Enqueue(context.Background(), 1, "2026-09-14", "xlsx")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Enqueue(context.Background(), 1, "14/09/2026", models.ExportFormatCSV)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Enqueue(context.Background(), 99, "2026-09-14", models.ExportFormatCSV)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportDownloadURLRequiresFinishedJob(t *testing.T) {
	svc := newExportTestService(t)
	// queue never started, so the job stays queued
	svc.mu.Lock()
	svc.entries["job-1"] = &models.ExportJob{ID: "job-1", Status: models.ExportStatusQueued}
	svc.mu.Unlock()

	_, _, err := svc.DownloadURL("job-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	_, _, err = svc.DownloadURL("missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportResolveDownloadRejectsTamperedToken(t *testing.T) {
	svc := newExportTestService(t)

	_, err := svc.ResolveDownload("bogus.token.abc.def")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
