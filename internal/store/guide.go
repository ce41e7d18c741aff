package store

import (
	"context"
	"iter"
	"slices"
	"time"

	"github.com/voyagen/mythvault/internal/models"
)

// GuideBatchSize is the number of channels fetched per guide query.
const GuideBatchSize = 32

const guideQuery = `
SELECT p.chanid, c.channum, c.callsign, c.name, c.icon,
  p.starttime, p.endtime, p.title, p.subtitle, p.description, p.category,
  p.category_type, p.originalairdate, COALESCE(p.stars, 0)::float8,
  COALESCE(p.previouslyshown, 0) <> 0, p.seriesid, p.programid
FROM program p
JOIN channel c ON c.chanid = p.chanid
WHERE p.chanid = ANY($1::int[]) AND p.starttime < $3 AND p.endtime > $2
ORDER BY array_position($1::int[], p.chanid), p.starttime`

// GuideEntries streams the airings of channels that overlap [start, end),
// ordered by the given channel order and then start time. The sequence runs
// one query per GuideBatchSize channels and can be consumed once.
func (p *Postgres) GuideEntries(ctx context.Context, start, end time.Time, channels []models.Channel) iter.Seq2[models.GuideEntry, error] {
	return func(yield func(models.GuideEntry, error) bool) {
		ids := guideChannelIDs(channels)
		if len(ids) == 0 || !end.After(start) {
			return
		}
		for batch := range slices.Chunk(ids, GuideBatchSize) {
			stopped := false
			err := p.do(ctx, "GuideEntries", func(ctx context.Context) error {
				rows, err := p.db.Query(ctx, guideQuery, batch, start, end)
				if err != nil {
					return err
				}
				defer rows.Close()
				for rows.Next() {
					g, err := rowToGuideEntry(rows)
					if err != nil {
						return err
					}
					if !yield(g, nil) {
						stopped = true
						return nil
					}
				}
				return rows.Err()
			})
			if err != nil {
				yield(models.GuideEntry{}, err)
				return
			}
			if stopped {
				return
			}
		}
	}
}

// ListGuideEntries collects GuideEntries into a slice.
func (p *Postgres) ListGuideEntries(ctx context.Context, start, end time.Time, channels []models.Channel) ([]models.GuideEntry, error) {
	var entries []models.GuideEntry
	for g, err := range p.GuideEntries(ctx, start, end, channels) {
		if err != nil {
			return nil, err
		}
		entries = append(entries, g)
	}
	return entries, nil
}

// guideChannelIDs returns the channel ids in caller order without duplicates.
func guideChannelIDs(channels []models.Channel) []int {
	seen := make(map[int]struct{}, len(channels))
	ids := make([]int, 0, len(channels))
	for _, ch := range channels {
		if _, ok := seen[ch.ChannelID]; ok {
			continue
		}
		seen[ch.ChannelID] = struct{}{}
		ids = append(ids, ch.ChannelID)
	}
	return ids
}
