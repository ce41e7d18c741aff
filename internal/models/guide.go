package models

import "time"

// GuideEntry is one airing on one channel, flattened with the identity of its
// source channel.
type GuideEntry struct {
	ChannelID       int        `json:"channel_id"`
	ChannelNumber   string     `json:"channel_number"`
	CallSign        string     `json:"call_sign"`
	ChannelName     string     `json:"channel_name"`
	IconPath        string     `json:"icon_path,omitempty"`
	Start           time.Time  `json:"start"`
	End             time.Time  `json:"end"`
	Title           string     `json:"title"`
	Subtitle        string     `json:"subtitle,omitempty"`
	Description     string     `json:"description,omitempty"`
	Category        string     `json:"category,omitempty"`
	CategoryType    string     `json:"category_type,omitempty"`
	OriginalAirDate *time.Time `json:"original_air_date,omitempty"`
	Stars           float64    `json:"stars"`
	Repeat          bool       `json:"repeat"`
	SeriesID        string     `json:"series_id,omitempty"`
	ProgramID       string     `json:"program_id,omitempty"`
}

