package store

import (
	"fmt"
	"strconv"
	"strings"
)

// where accumulates AND-ed conditions with numbered placeholders.
type where struct {
	conds []string
	args  []any
}

// add appends cond, replacing its single %s with the next placeholder.
func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, "$"+strconv.Itoa(len(w.args))))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "\nWHERE " + strings.Join(w.conds, " AND ")
}

const scheduleColumns = `recordid, type, chanid, station, starttime, endtime,
  title, subtitle, description, category, profile, recpriority, recgroup,
  startoffset, endoffset, maxepisodes, maxnewest <> 0, autoexpire <> 0,
  autotranscode <> 0, autocommflag <> 0, inactive <> 0, seriesid, programid`

func buildScheduleQuery(f ScheduleFilter) (string, []any) {
	var w where
	if f.ScheduleID != nil {
		w.add("recordid = %s", *f.ScheduleID)
	}
	if f.ChannelID != nil {
		w.add("chanid = %s", *f.ChannelID)
	}
	return "SELECT " + scheduleColumns + "\nFROM record" + w.String() + "\nORDER BY recordid", w.args
}

const jobColumns = `id, chanid, starttime, inserttime, type, cmds, flags, status,
  statustime, hostname, args, comment`

func buildJobQuery(f JobFilter) (string, []any) {
	var w where
	if f.Program != nil {
		w.add("chanid = %s", f.Program.ChannelID)
		w.add("starttime = %s", f.Program.StartTime)
	}
	if f.JobType != nil {
		w.add("type = %s", int(*f.JobType))
	}
	return "SELECT " + jobColumns + "\nFROM jobqueue" + w.String() + "\nORDER BY id", w.args
}
