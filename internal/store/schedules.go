package store

import (
	"context"

	"github.com/voyagen/mythvault/internal/models"
)

// ListRecordingSchedules returns the recording rules matching filter.
func (p *Postgres) ListRecordingSchedules(ctx context.Context, filter ScheduleFilter) ([]models.RecordingSchedule, error) {
	sql, args := buildScheduleQuery(filter)
	return collect(ctx, p, "ListRecordingSchedules", sql, rowToSchedule, args...)
}

// ListJobs returns the queued jobs matching filter.
func (p *Postgres) ListJobs(ctx context.Context, filter JobFilter) ([]models.Job, error) {
	sql, args := buildJobQuery(filter)
	return collect(ctx, p, "ListJobs", sql, rowToJob, args...)
}
