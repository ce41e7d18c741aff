package store

import (
	"context"

	"github.com/voyagen/mythvault/internal/models"
)

// A channel reachable through several cards is reported once, on its lowest card id.
const channelsQuery = `
SELECT c.chanid, c.channum, c.callsign, c.name, c.icon, MIN(ci.cardid)
FROM channel c
JOIN cardinput ci ON ci.sourceid = c.sourceid
WHERE c.visible <> 0
GROUP BY c.chanid, c.channum, c.callsign, c.name, c.icon`

const tunersQuery = `
SELECT cardid, hostname, signal_timeout, channel_timeout
FROM capturecard
ORDER BY cardid`

// ListChannels returns visible channels in channel-number order.
func (p *Postgres) ListChannels(ctx context.Context) ([]models.Channel, error) {
	channels, err := collect(ctx, p, "ListChannels", channelsQuery, rowToChannel)
	if err != nil {
		return nil, err
	}
	sortChannels(channels)
	return channels, nil
}

// ListTuners returns every capture card ordered by id.
func (p *Postgres) ListTuners(ctx context.Context) ([]models.Tuner, error) {
	return collect(ctx, p, "ListTuners", tunersQuery, rowToTuner)
}
