package models

// Channel is one visible entry of the channel lineup.
// ChannelNumber may carry sub-channel notation such as "5_1" or "10.2".
type Channel struct {
	ChannelID     int    `json:"channel_id"`
	ChannelNumber string `json:"channel_number"`
	CallSign      string `json:"call_sign"`
	ChannelName   string `json:"channel_name"`
	IconPath      string `json:"icon_path"`
	TunerID       int    `json:"tuner_id"`
}
