package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/voyagen/mythvault/api"
	"github.com/voyagen/mythvault/internal/models"
	"github.com/voyagen/mythvault/internal/store"
)

// defaultGuideSpan is the guide window when the request gives no end time.
const defaultGuideSpan = 4 * time.Hour

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.log.Warn().Err(err).Msg("health check failed")
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- backend handlers ---

func (s *Server) handleListBackends(w http.ResponseWriter, r *http.Request) {
	backends, err := s.store.ListBackends(r.Context())
	writeList(s, w, backends, err)
}

func (s *Server) handleMasterBackend(w http.ResponseWriter, r *http.Request) {
	master, err := s.store.MasterBackend(r.Context())
	if err != nil {
		if isNotFound(err) {
			s.writeErr(w, http.StatusNotFound, err)
			return
		}
		s.writeStoreErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, master)
}

func (s *Server) handleListSlaveBackends(w http.ResponseWriter, r *http.Request) {
	slaves, err := s.store.ListSlaveBackends(r.Context())
	writeList(s, w, slaves, err)
}

func (s *Server) handleResolveBackend(w http.ResponseWriter, r *http.Request) {
	token := pathParam(r, "token")
	b, err := s.store.ResolveBackend(r.Context(), token)
	if err != nil {
		s.writeStoreErr(w, err)
		return
	}
	if b == nil {
		s.writeErr(w, http.StatusNotFound, fmt.Errorf("no backend known as %q", token))
		return
	}
	s.writeJSON(w, http.StatusOK, b)
}

// --- lineup handlers ---

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.store.ListChannels(r.Context())
	writeList(s, w, channels, err)
}

func (s *Server) handleListTuners(w http.ResponseWriter, r *http.Request) {
	tuners, err := s.store.ListTuners(r.Context())
	writeList(s, w, tuners, err)
}

// --- recording handlers ---

func (s *Server) handleListRecordingGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.store.ListRecordingGroups(r.Context())
	writeList(s, w, groups, err)
}

func (s *Server) handleListRecordingTitles(w http.ResponseWriter, r *http.Request) {
	titles, err := s.store.ListRecordingTitles(r.Context(), pathParam(r, "group"))
	writeList(s, w, titles, err)
}

type settingResponse struct {
	Key      string  `json:"key"`
	Hostname *string `json:"hostname,omitempty"`
	Value    string  `json:"value"`
}

func (s *Server) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	key := pathParam(r, "key")
	var hostname *string
	if q := r.URL.Query(); q.Has("hostname") {
		h := q.Get("hostname")
		hostname = &h
	}

	v, err := s.store.GetSetting(r.Context(), key, hostname)
	if err != nil {
		s.writeStoreErr(w, err)
		return
	}
	if v == nil {
		s.writeErr(w, http.StatusNotFound, fmt.Errorf("setting %q not found", key))
		return
	}
	s.writeJSON(w, http.StatusOK, settingResponse{Key: key, Hostname: hostname, Value: *v})
}

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter store.ScheduleFilter
	var err error
	if filter.ScheduleID, err = optionalInt(q, "schedule_id"); err != nil {
		s.writeErr(w, http.StatusBadRequest, err)
		return
	}
	if filter.ChannelID, err = optionalInt(q, "chanid"); err != nil {
		s.writeErr(w, http.StatusBadRequest, err)
		return
	}

	schedules, err := s.store.ListRecordingSchedules(r.Context(), filter)
	writeList(s, w, schedules, err)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter store.JobFilter

	chanID, err := optionalInt(q, "chanid")
	if err != nil {
		s.writeErr(w, http.StatusBadRequest, err)
		return
	}
	start, err := optionalTime(q, "starttime")
	if err != nil {
		s.writeErr(w, http.StatusBadRequest, err)
		return
	}
	switch {
	case chanID != nil && start != nil:
		filter.Program = &models.RecordedProgram{ChannelID: *chanID, StartTime: *start}
	case chanID != nil || start != nil:
		s.writeErr(w, http.StatusBadRequest, errors.New("chanid and starttime must be given together"))
		return
	}
	if v := q.Get("type"); v != "" {
		jt, err := models.ParseJobType(v)
		if err != nil {
			s.writeErr(w, http.StatusBadRequest, err)
			return
		}
		filter.JobType = &jt
	}

	jobs, err := s.store.ListJobs(r.Context(), filter)
	writeList(s, w, jobs, err)
}

// --- guide handler ---

// handleGuide streams guide entries as a JSON array. Once the first entry
// has been written a later failure can only truncate the body.
func (s *Server) handleGuide(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := optionalTime(q, "start")
	if err != nil {
		s.writeErr(w, http.StatusBadRequest, err)
		return
	}
	if start == nil {
		now := time.Now().Truncate(time.Minute)
		start = &now
	}
	end, err := optionalTime(q, "end")
	if err != nil {
		s.writeErr(w, http.StatusBadRequest, err)
		return
	}
	if end == nil {
		e := start.Add(defaultGuideSpan)
		end = &e
	}
	if !end.After(*start) {
		s.writeErr(w, http.StatusBadRequest, errors.New("end must be after start"))
		return
	}
	var ids []int
	for _, v := range q["chanid"] {
		id, err := strconv.Atoi(v)
		if err != nil {
			s.writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid chanid: %s", v))
			return
		}
		ids = append(ids, id)
	}

	lineup, err := s.store.ListChannels(r.Context())
	if err != nil {
		s.writeStoreErr(w, err)
		return
	}
	channels := selectChannels(lineup, ids)

	enc := json.NewEncoder(w)
	started := false
	for entry, err := range s.store.GuideEntries(r.Context(), *start, *end, channels) {
		if err != nil {
			if !started {
				s.writeStoreErr(w, err)
				return
			}
			s.log.Error().Err(err).Msg("guide stream aborted")
			return
		}
		if !started {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("["))
			started = true
		} else {
			_, _ = w.Write([]byte(","))
		}
		if err := enc.Encode(entry); err != nil {
			s.log.Warn().Err(err).Msg("guide stream write")
			return
		}
	}
	if !started {
		s.writeJSON(w, http.StatusOK, []models.GuideEntry{})
		return
	}
	_, _ = w.Write([]byte("]\n"))
}

// selectChannels returns the lineup, or the channels named by ids in ids
// order. Unknown ids are skipped.
func selectChannels(lineup []models.Channel, ids []int) []models.Channel {
	if len(ids) == 0 {
		return lineup
	}
	byID := make(map[int]models.Channel, len(lineup))
	for _, ch := range lineup {
		byID[ch.ChannelID] = ch
	}
	out := make([]models.Channel, 0, len(ids))
	for _, id := range ids {
		if ch, ok := byID[id]; ok {
			out = append(out, ch)
		}
	}
	return out
}

// --- helpers ---

// pathParam returns a decoded chi URL parameter.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func optionalInt(q url.Values, name string) (*int, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %s", name, v)
	}
	return &n, nil
}

// optionalTime parses an RFC 3339 timestamp or Unix epoch seconds.
func optionalTime(q url.Values, name string) (*time.Time, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		t := time.Unix(n, 0).UTC()
		return &t, nil
	}
	return nil, fmt.Errorf("invalid %s: %s (use RFC 3339 or epoch seconds)", name, v)
}

// --- docs handlers ---

func handleOpenAPISpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(api.OpenAPISpec)
}

func handleSwaggerUI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, swaggerUIHTML)
}

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>MythVault API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({url: "/api/docs/openapi.yaml", dom_id: "#swagger-ui"});
  </script>
</body>
</html>`
