package store

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/voyagen/mythvault/internal/models"
)

// text maps a nullable text column to a string ("" for NULL).
func text(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return strings.TrimSpace(t.String)
}

// datePtr maps a nullable date column to a pointer (nil for NULL or infinity).
func datePtr(d pgtype.Date) *time.Time {
	if !d.Valid || d.InfinityModifier != pgtype.Finite {
		return nil
	}
	t := d.Time
	return &t
}

// backendRow is a BackendServerIP settings row joined with the host's port.
type backendRow struct {
	hostname string
	ip       string
	port     pgtype.Text
}

func rowToBackendRow(row pgx.CollectableRow) (backendRow, error) {
	var r backendRow
	err := row.Scan(&r.hostname, &r.ip, &r.port)
	return r, err
}

func (r backendRow) backend() models.Backend {
	port, err := strconv.Atoi(text(r.port))
	if err != nil || port <= 0 {
		port = models.DefaultBackendPort
	}
	return models.Backend{
		Hostname:  strings.TrimSpace(r.hostname),
		IPAddress: strings.TrimSpace(r.ip),
		Port:      port,
		Slave:     true,
	}
}

// settingPair is a (key, value) settings row.
type settingPair struct {
	key   string
	value pgtype.Text
}

func rowToSettingPair(row pgx.CollectableRow) (settingPair, error) {
	var s settingPair
	err := row.Scan(&s.key, &s.value)
	return s, err
}

func rowToChannel(row pgx.CollectableRow) (models.Channel, error) {
	var (
		ch                           models.Channel
		number, callSign, name, icon pgtype.Text
	)
	if err := row.Scan(&ch.ChannelID, &number, &callSign, &name, &icon, &ch.TunerID); err != nil {
		return models.Channel{}, err
	}
	ch.ChannelNumber = text(number)
	ch.CallSign = text(callSign)
	ch.ChannelName = text(name)
	ch.IconPath = text(icon)
	return ch, nil
}

func rowToTuner(row pgx.CollectableRow) (models.Tuner, error) {
	var t models.Tuner
	err := row.Scan(&t.TunerID, &t.Hostname, &t.SignalTimeout, &t.ChannelTimeout)
	return t, err
}

func rowToTitleCount(row pgx.CollectableRow) (models.TitleCount, error) {
	var tc models.TitleCount
	err := row.Scan(&tc.Title, &tc.Count)
	return tc, err
}

func rowToSchedule(row pgx.CollectableRow) (models.RecordingSchedule, error) {
	var (
		s                                         models.RecordingSchedule
		callSign, subtitle, description, category pgtype.Text
		profile, recGroup, seriesID, programID    pgtype.Text
	)
	err := row.Scan(
		&s.ScheduleID, &s.Type, &s.ChannelID, &callSign, &s.StartTime, &s.EndTime,
		&s.Title, &subtitle, &description, &category, &profile, &s.Priority, &recGroup,
		&s.StartOffset, &s.EndOffset, &s.MaxEpisodes, &s.MaxNewest, &s.AutoExpire,
		&s.AutoTranscode, &s.AutoCommFlag, &s.Inactive, &seriesID, &programID,
	)
	if err != nil {
		return models.RecordingSchedule{}, err
	}
	s.CallSign = text(callSign)
	s.Subtitle = text(subtitle)
	s.Description = text(description)
	s.Category = text(category)
	s.Profile = cmp.Or(text(profile), "Default")
	s.RecGroup = cmp.Or(text(recGroup), models.GroupDefault)
	s.SeriesID = text(seriesID)
	s.ProgramID = text(programID)
	return s, nil
}

func rowToJob(row pgx.CollectableRow) (models.Job, error) {
	var (
		j                       models.Job
		jobType, status         int
		hostname, args, comment pgtype.Text
	)
	err := row.Scan(
		&j.ID, &j.ChannelID, &j.StartTime, &j.InsertTime, &jobType, &j.Cmds, &j.Flags,
		&status, &j.StatusTime, &hostname, &args, &comment,
	)
	if err != nil {
		return models.Job{}, err
	}
	j.JobType = models.JobType(jobType)
	j.Status = models.JobStatus(status)
	j.Hostname = text(hostname)
	j.Args = text(args)
	j.Comment = text(comment)
	return j, nil
}

func rowToGuideEntry(row pgx.CollectableRow) (models.GuideEntry, error) {
	var (
		g                                        models.GuideEntry
		number, callSign, name, icon             pgtype.Text
		subtitle, description, category, catType pgtype.Text
		seriesID, programID                      pgtype.Text
		airDate                                  pgtype.Date
	)
	err := row.Scan(
		&g.ChannelID, &number, &callSign, &name, &icon,
		&g.Start, &g.End, &g.Title, &subtitle, &description, &category, &catType,
		&airDate, &g.Stars, &g.Repeat, &seriesID, &programID,
	)
	if err != nil {
		return models.GuideEntry{}, err
	}
	g.ChannelNumber = text(number)
	g.CallSign = text(callSign)
	g.ChannelName = text(name)
	g.IconPath = text(icon)
	g.Subtitle = text(subtitle)
	g.Description = text(description)
	g.Category = text(category)
	g.CategoryType = text(catType)
	g.OriginalAirDate = datePtr(airDate)
	g.SeriesID = text(seriesID)
	g.ProgramID = text(programID)
	return g, nil
}

// channelNumberParts extracts the numeric runs of a channel number without
// leading zeros: "10_2" -> ["10" "2"], "5.007" -> ["5" "7"]. Runs stay
// strings so arbitrarily long ones cannot overflow.
func channelNumberParts(num string) []string {
	var (
		parts []string
		start = -1
	)
	flush := func(end int) {
		run := strings.TrimLeft(num[start:end], "0")
		if run == "" {
			run = "0"
		}
		parts = append(parts, run)
		start = -1
	}
	for i := 0; i < len(num); i++ {
		c := num[i]
		if c >= '0' && c <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			flush(i)
		}
	}
	if start >= 0 {
		flush(len(num))
	}
	return parts
}

// compareDigitRuns orders zero-trimmed digit runs numerically.
func compareDigitRuns(a, b string) int {
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// compareChannelNumbers orders channel numbers naturally. Numbers without
// any digits sort last.
func compareChannelNumbers(a, b string) int {
	pa, pb := channelNumberParts(a), channelNumberParts(b)
	if (len(pa) == 0) != (len(pb) == 0) {
		if len(pa) == 0 {
			return 1
		}
		return -1
	}
	if c := slices.CompareFunc(pa, pb, compareDigitRuns); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func sortChannels(channels []models.Channel) {
	slices.SortStableFunc(channels, func(a, b models.Channel) int {
		if c := compareChannelNumbers(a.ChannelNumber, b.ChannelNumber); c != 0 {
			return c
		}
		return cmp.Compare(a.ChannelID, b.ChannelID)
	})
}
