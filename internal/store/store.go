package store

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/voyagen/mythvault/internal/models"
)

// ErrNoMasterBackend is returned when no backend matches the master settings.
var ErrNoMasterBackend = errors.New("no master backend configured")

// Store is the read-only query surface over the PVR database.
// Absence is never an error: lookups return nil and filtered lists return
// empty slices.
type Store interface {
	// ListBackends returns every backend (master and slaves) ordered by hostname.
	ListBackends(ctx context.Context) ([]models.Backend, error)
	// MasterBackend returns the single master backend.
	MasterBackend(ctx context.Context) (*models.Backend, error)
	// ListSlaveBackends returns the non-master backends.
	ListSlaveBackends(ctx context.Context) ([]models.Backend, error)
	// ResolveBackend matches a hostname or IP address, case-insensitively.
	// It returns nil when nothing matches.
	ResolveBackend(ctx context.Context, token string) (*models.Backend, error)

	// ListChannels returns visible channels in channel-number order.
	ListChannels(ctx context.Context) ([]models.Channel, error)
	// ListTuners returns every capture card.
	ListTuners(ctx context.Context) ([]models.Tuner, error)

	// ListRecordingGroups returns the recording group names; "Default" is always present.
	ListRecordingGroups(ctx context.Context) ([]string, error)
	// ListRecordingTitles returns ("All Shows", total) followed by per-title counts for group.
	ListRecordingTitles(ctx context.Context, group string) ([]models.TitleCount, error)

	// GetSetting returns the global setting for key, or the hostname-scoped one
	// when hostname is non-nil. It returns nil when the setting does not exist.
	GetSetting(ctx context.Context, key string, hostname *string) (*string, error)

	// ListRecordingSchedules returns recording rules matching every set filter field.
	ListRecordingSchedules(ctx context.Context, filter ScheduleFilter) ([]models.RecordingSchedule, error)
	// ListJobs returns queued jobs matching every set filter field.
	ListJobs(ctx context.Context, filter JobFilter) ([]models.Job, error)

	// GuideEntries streams guide entries for channels overlapping [start, end).
	GuideEntries(ctx context.Context, start, end time.Time, channels []models.Channel) iter.Seq2[models.GuideEntry, error]
	// ListGuideEntries collects GuideEntries.
	ListGuideEntries(ctx context.Context, start, end time.Time, channels []models.Channel) ([]models.GuideEntry, error)

	// Ping checks the connection to the database.
	Ping(ctx context.Context) error
}

// ScheduleFilter holds optional filters for listing recording schedules.
// Pointer fields: nil = unconstrained.
type ScheduleFilter struct {
	ScheduleID *int
	ChannelID  *int
}

// JobFilter holds optional filters for listing jobs.
// Program constrains the channel id and start time of the recording.
type JobFilter struct {
	Program *models.RecordedProgram
	JobType *models.JobType
}
