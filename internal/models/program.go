package models

import "time"

// RecordedProgram is a recording as described by the backend's positional
// program record. Only protocol.DecodeProgram builds it from wire fields.
type RecordedProgram struct {
	Title          string    `json:"title"`
	Subtitle       string    `json:"subtitle,omitempty"`
	Description    string    `json:"description,omitempty"`
	Category       string    `json:"category,omitempty"`
	ChannelID      int       `json:"channel_id"`
	ChannelNumber  string    `json:"channel_number,omitempty"`
	CallSign       string    `json:"call_sign,omitempty"`
	ChannelName    string    `json:"channel_name,omitempty"`
	Filename       string    `json:"filename,omitempty"`
	FileSize       int64     `json:"file_size,omitempty"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Hostname       string    `json:"hostname,omitempty"`
	RecordingStart time.Time `json:"recording_start"`
	RecordingEnd   time.Time `json:"recording_end"`
	RecGroup       string    `json:"rec_group,omitempty"`
}
