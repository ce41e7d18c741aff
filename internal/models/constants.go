package models

import (
	"fmt"
	"strconv"
	"strings"
)

// JobType identifies the kind of background task in the job queue.
type JobType int

const (
	JobTypeNone      JobType = 0x0000
	JobTypeTranscode JobType = 0x0001
	JobTypeCommFlag  JobType = 0x0002
	JobTypeUserJob1  JobType = 0x0100
	JobTypeUserJob2  JobType = 0x0200
	JobTypeUserJob3  JobType = 0x0400
	JobTypeUserJob4  JobType = 0x0800
)

func (t JobType) String() string {
	switch t {
	case JobTypeNone:
		return "none"
	case JobTypeTranscode:
		return "transcode"
	case JobTypeCommFlag:
		return "commflag"
	case JobTypeUserJob1:
		return "userjob1"
	case JobTypeUserJob2:
		return "userjob2"
	case JobTypeUserJob3:
		return "userjob3"
	case JobTypeUserJob4:
		return "userjob4"
	}
	return "unknown"
}

// ParseJobType accepts a job type name such as "commflag" or its numeric code.
func ParseJobType(s string) (JobType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range []JobType{JobTypeNone, JobTypeTranscode, JobTypeCommFlag,
		JobTypeUserJob1, JobTypeUserJob2, JobTypeUserJob3, JobTypeUserJob4} {
		if s == t.String() {
			return t, nil
		}
	}
	n, err := strconv.ParseInt(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("unknown job type %q", s)
	}
	return JobType(n), nil
}

// JobStatus is the state of a queued job.
type JobStatus int

const (
	JobStatusUnknown   JobStatus = 0x0000
	JobStatusQueued    JobStatus = 0x0001
	JobStatusPending   JobStatus = 0x0002
	JobStatusStarting  JobStatus = 0x0003
	JobStatusRunning   JobStatus = 0x0004
	JobStatusStopping  JobStatus = 0x0005
	JobStatusPaused    JobStatus = 0x0006
	JobStatusRetry     JobStatus = 0x0007
	JobStatusErroring  JobStatus = 0x0008
	JobStatusAborting  JobStatus = 0x0009
	JobStatusDone      JobStatus = 0x0100
	JobStatusFinished  JobStatus = 0x0110
	JobStatusAborted   JobStatus = 0x0120
	JobStatusErrored   JobStatus = 0x0130
	JobStatusCancelled JobStatus = 0x0140
)

var jobStatusNames = map[JobStatus]string{
	JobStatusUnknown:   "unknown",
	JobStatusQueued:    "queued",
	JobStatusPending:   "pending",
	JobStatusStarting:  "starting",
	JobStatusRunning:   "running",
	JobStatusStopping:  "stopping",
	JobStatusPaused:    "paused",
	JobStatusRetry:     "retry",
	JobStatusErroring:  "erroring",
	JobStatusAborting:  "aborting",
	JobStatusDone:      "done",
	JobStatusFinished:  "finished",
	JobStatusAborted:   "aborted",
	JobStatusErrored:   "errored",
	JobStatusCancelled: "cancelled",
}

func (s JobStatus) String() string {
	if n, ok := jobStatusNames[s]; ok {
		return n
	}
	return "unknown"
}

// Done reports whether the job has left the active states.
func (s JobStatus) Done() bool {
	return s&JobStatusDone != 0
}

// Schedule (recording rule) type constants.
const (
	ScheduleNotRecording = 0
	ScheduleSingle       = 1
	ScheduleTimeslot     = 2
	ScheduleChannel      = 3
	ScheduleAll          = 4
	ScheduleWeekslot     = 5
	ScheduleFindOne      = 6
	ScheduleOverride     = 7
	ScheduleDontRecord   = 8
	ScheduleFindDaily    = 9
	ScheduleFindWeekly   = 10
)
