package models

import "time"

// RecordingSchedule is a persisted recording rule.
type RecordingSchedule struct {
	ScheduleID    int       `json:"schedule_id"`
	Type          int       `json:"type"`
	ChannelID     int       `json:"channel_id"`
	CallSign      string    `json:"call_sign"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Title         string    `json:"title"`
	Subtitle      string    `json:"subtitle,omitempty"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category,omitempty"`
	Profile       string    `json:"profile"`
	Priority      int       `json:"priority"`
	RecGroup      string    `json:"rec_group"`
	StartOffset   int       `json:"start_offset"`
	EndOffset     int       `json:"end_offset"`
	MaxEpisodes   int       `json:"max_episodes"`
	MaxNewest     bool      `json:"max_newest"`
	AutoExpire    bool      `json:"auto_expire"`
	AutoTranscode bool      `json:"auto_transcode"`
	AutoCommFlag  bool      `json:"auto_commflag"`
	Inactive      bool      `json:"inactive"`
	SeriesID      string    `json:"series_id,omitempty"`
	ProgramID     string    `json:"program_id,omitempty"`
}

var scheduleTypeNames = map[int]string{
	ScheduleNotRecording: "Not Recording",
	ScheduleSingle:       "Single Record",
	ScheduleTimeslot:     "Record Daily",
	ScheduleChannel:      "Channel Record",
	ScheduleAll:          "Record All",
	ScheduleWeekslot:     "Record Weekly",
	ScheduleFindOne:      "Find One",
	ScheduleOverride:     "Override Recording",
	ScheduleDontRecord:   "Do not Record",
	ScheduleFindDaily:    "Find Daily",
	ScheduleFindWeekly:   "Find Weekly",
}

// TypeName returns a human readable name for the rule type.
func (s RecordingSchedule) TypeName() string {
	if n, ok := scheduleTypeNames[s.Type]; ok {
		return n
	}
	return "Unknown"
}
