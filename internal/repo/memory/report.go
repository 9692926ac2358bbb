package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/physiohome/chat-service/internal/models"
	"github.com/physiohome/chat-service/internal/repository"
)

type ReportRepo struct {
	mu      sync.Mutex
	reports map[string]*models.Report
	seq     int
}

var _ repository.ReportRepository = (*ReportRepo)(nil)

func NewReportRepository() *ReportRepo {
	return &ReportRepo{
		reports: make(map[string]*models.Report),
	}
}

func (r *ReportRepo) Create(_ context.Context, report *models.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	if report.ID == "" {
		report.ID = fmt.Sprintf("RPT%03d", r.seq)
	}
	if report.ReportedAt.IsZero() {
		report.ReportedAt = time.Now()
	}
	stored := cloneReport(report)
	r.reports[report.ID] = stored
	return nil
}

func (r *ReportRepo) GetByID(_ context.Context, reportID string) (*models.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	report, ok := r.reports[reportID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return cloneReport(report), nil
}

func (r *ReportRepo) ListByRoom(_ context.Context, roomID string) ([]*models.Report, error) {
	return r.list(func(report *models.Report) bool {
		return report.RoomID == roomID
	})
}

func (r *ReportRepo) List(_ context.Context, status models.ReportStatus) ([]*models.Report, error) {
	return r.list(func(report *models.Report) bool {
		return status == "" || report.Status == status
	})
}

func (r *ReportRepo) list(match func(*models.Report) bool) ([]*models.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var reports []*models.Report
	for _, report := range r.reports {
		if match(report) {
			reports = append(reports, cloneReport(report))
		}
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].ReportedAt.After(reports[j].ReportedAt)
	})
	return reports, nil
}

func (r *ReportRepo) TransitionFromPending(_ context.Context, reportID string, to models.ReportStatus, reviewedBy, resolution string) (*models.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	report, ok := r.reports[reportID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if report.Status != models.ReportStatusPending {
		return nil, models.ErrInvalidTransition
	}

	now := time.Now()
	report.Status = to
	report.ReviewedAt = &now
	report.ReviewedBy = reviewedBy
	report.Resolution = resolution
	return cloneReport(report), nil
}

func (r *ReportRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.reports)), nil
}

func (r *ReportRepo) CountByStatus(_ context.Context, status models.ReportStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, report := range r.reports {
		if report.Status == status {
			count++
		}
	}
	return count, nil
}

func cloneReport(report *models.Report) *models.Report {
	clone := *report
	clone.Participants = append([]models.Participant(nil), report.Participants...)
	if report.ReviewedAt != nil {
		reviewed := *report.ReviewedAt
		clone.ReviewedAt = &reviewed
	}
	return &clone
}
