package store

import (
	"context"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/voyagen/mythvault/internal/models"
)

const recordingGroupsQuery = `
SELECT DISTINCT recgroup
FROM recorded
WHERE recgroup IS NOT NULL
ORDER BY recgroup`

const allTitlesQuery = `
SELECT title, COUNT(*)
FROM recorded
GROUP BY title
ORDER BY COUNT(*) DESC, title`

const groupTitlesQuery = `
SELECT title, COUNT(*)
FROM recorded
WHERE recgroup = $1
GROUP BY title
ORDER BY COUNT(*) DESC, title`

// ListRecordingGroups returns the distinct recording groups. "Default" is
// always included, even before anything has been recorded into it.
func (p *Postgres) ListRecordingGroups(ctx context.Context) ([]string, error) {
	groups, err := collect(ctx, p, "ListRecordingGroups", recordingGroupsQuery, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	return withDefaultGroup(groups), nil
}

// ListRecordingTitles returns ("All Shows", total) followed by each title and
// its recording count, most recorded first. "All Groups" spans every recording; any other name
// selects that recording group. A group without recordings yields only
// ("All Shows", 0).
func (p *Postgres) ListRecordingTitles(ctx context.Context, group string) ([]models.TitleCount, error) {
	var (
		titles []models.TitleCount
		err    error
	)
	if isAllGroups(group) {
		titles, err = collect(ctx, p, "ListRecordingTitles", allTitlesQuery, rowToTitleCount)
	} else {
		titles, err = collect(ctx, p, "ListRecordingTitles", groupTitlesQuery, rowToTitleCount, group)
	}
	if err != nil {
		return nil, err
	}
	return withAllShows(titles), nil
}

func isAllGroups(group string) bool {
	return strings.EqualFold(strings.TrimSpace(group), models.GroupAllGroups)
}

func withDefaultGroup(groups []string) []string {
	if slices.Contains(groups, models.GroupDefault) {
		return groups
	}
	groups = append(groups, models.GroupDefault)
	slices.Sort(groups)
	return groups
}

// withAllShows prepends the aggregate entry. Its count is the sum of every
// title count, so it is never smaller than any of them.
func withAllShows(titles []models.TitleCount) []models.TitleCount {
	total := 0
	for _, t := range titles {
		total += t.Count
	}
	out := make([]models.TitleCount, 0, len(titles)+1)
	out = append(out, models.TitleCount{Title: models.AllShows, Count: total})
	return append(out, titles...)
}
