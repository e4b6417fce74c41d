package file

import (
	"context"
	"sort"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
)

// ScheduleRepository keeps one file per enrollment with a pending resume.
type ScheduleRepository struct {
	store *store
}

func (sr *ScheduleRepository) Upsert(_ context.Context, schedule *models.ResumeSchedule) error {
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = time.Now().UTC()
	}

	sr.store.mu.Lock()
	defer sr.store.mu.Unlock()

	err := sr.store.write(schedulesDir, schedule.EnrollmentID, schedule)
	if err != nil {
		return persistence.NewEnrollmentError("UpsertSchedule", schedule.EnrollmentID, err)
	}

	return nil
}

func (sr *ScheduleRepository) Get(_ context.Context, enrollmentID string) (*models.ResumeSchedule, error) {
	sr.store.mu.RLock()
	defer sr.store.mu.RUnlock()

	var schedule models.ResumeSchedule

	found, err := sr.store.read(schedulesDir, enrollmentID, &schedule)
	if err != nil {
		return nil, persistence.NewEnrollmentError("GetSchedule", enrollmentID, err)
	}

	if !found {
		return nil, persistence.NewEnrollmentError("GetSchedule", enrollmentID, persistence.ErrScheduleNotFound)
	}

	return &schedule, nil
}

func (sr *ScheduleRepository) Delete(_ context.Context, enrollmentID string) error {
	sr.store.mu.Lock()
	defer sr.store.mu.Unlock()

	_, err := sr.store.remove(schedulesDir, enrollmentID)
	if err != nil {
		return persistence.NewEnrollmentError("DeleteSchedule", enrollmentID, err)
	}

	return nil
}

func (sr *ScheduleRepository) List(_ context.Context) ([]*models.ResumeSchedule, error) {
	sr.store.mu.RLock()
	defer sr.store.mu.RUnlock()

	ids, err := sr.store.ids(schedulesDir)
	if err != nil {
		return nil, err
	}

	schedules := make([]*models.ResumeSchedule, 0, len(ids))

	for _, id := range ids {
		var schedule models.ResumeSchedule

		found, err := sr.store.read(schedulesDir, id, &schedule)
		if err != nil {
			return nil, persistence.NewEnrollmentError("ListSchedules", id, err)
		}

		if found {
			schedules = append(schedules, &schedule)
		}
	}

	sort.SliceStable(schedules, func(i, j int) bool {
		return schedules[i].DueAt.Before(schedules[j].DueAt)
	})

	return schedules, nil
}

func (sr *ScheduleRepository) Due(ctx context.Context, now time.Time) ([]*models.ResumeSchedule, error) {
	schedules, err := sr.List(ctx)
	if err != nil {
		return nil, err
	}

	due := make([]*models.ResumeSchedule, 0, len(schedules))

	for _, schedule := range schedules {
		if schedule.IsDue(now) {
			due = append(due, schedule)
		}
	}

	return due, nil
}
