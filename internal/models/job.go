package models

import (
	"fmt"
	"time"
)

// Job is an entry of the backend job queue. Jobs relate to a recording through
// (ChannelID, StartTime).
type Job struct {
	ID         int       `json:"id"`
	ChannelID  int       `json:"channel_id"`
	StartTime  time.Time `json:"start_time"`
	InsertTime time.Time `json:"insert_time"`
	JobType    JobType   `json:"job_type"`
	Cmds       int       `json:"cmds"`
	Flags      int       `json:"flags"`
	Status     JobStatus `json:"status"`
	StatusTime time.Time `json:"status_time"`
	Hostname   string    `json:"hostname,omitempty"`
	Args       string    `json:"args,omitempty"`
	Comment    string    `json:"comment,omitempty"`
}

func (j Job) String() string {
	return fmt.Sprintf("job %d: %s chan=%d start=%s status=%s",
		j.ID, j.JobType, j.ChannelID, j.StartTime.Format(time.RFC3339), j.Status)
}
