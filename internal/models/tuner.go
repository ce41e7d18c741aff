package models

// Tuner is a capture card attached to a backend (Hostname).
// Timeouts are in milliseconds.
type Tuner struct {
	TunerID        int    `json:"tuner_id"`
	Hostname       string `json:"hostname"`
	SignalTimeout  int    `json:"signal_timeout"`
	ChannelTimeout int    `json:"channel_timeout"`
}
