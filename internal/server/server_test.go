package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"iter"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/legacy"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/voyagen/mythvault/api"
	"github.com/voyagen/mythvault/internal/config"
	"github.com/voyagen/mythvault/internal/metrics"
	"github.com/voyagen/mythvault/internal/models"
	"github.com/voyagen/mythvault/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var t0 = time.Date(2010, 3, 14, 20, 0, 0, 0, time.UTC)

// fakeStore serves fixed data. err, when set, fails every call.
type fakeStore struct {
	err error

	mu          sync.Mutex
	jobFilter   store.JobFilter
	schedFilter store.ScheduleFilter
	hostname    *string
	guideChans  []models.Channel
}

var (
	fakeMaster = models.Backend{Hostname: "mythbox", IPAddress: "192.168.1.10", Port: 6543, Master: true}
	fakeSlave  = models.Backend{Hostname: "slave1", IPAddress: "192.168.1.11", Port: 6543, Slave: true}
	fakeChans  = []models.Channel{
		{ChannelID: 1002, ChannelNumber: "2", CallSign: "KTVU", ChannelName: "Fox 2", TunerID: 1},
		{ChannelID: 1009, ChannelNumber: "9", CallSign: "KQED", ChannelName: "KQED", TunerID: 1},
	}
)

func (f *fakeStore) ListBackends(context.Context) ([]models.Backend, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []models.Backend{fakeMaster, fakeSlave}, nil
}

func (f *fakeStore) MasterBackend(context.Context) (*models.Backend, error) {
	if f.err != nil {
		return nil, f.err
	}
	m := fakeMaster
	return &m, nil
}

func (f *fakeStore) ListSlaveBackends(context.Context) ([]models.Backend, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []models.Backend{fakeSlave}, nil
}

func (f *fakeStore) ResolveBackend(_ context.Context, token string) (*models.Backend, error) {
	if f.err != nil {
		return nil, f.err
	}
	if strings.EqualFold(token, fakeMaster.Hostname) || token == fakeMaster.IPAddress {
		m := fakeMaster
		return &m, nil
	}
	return nil, nil
}

func (f *fakeStore) ListChannels(context.Context) ([]models.Channel, error) {
	if f.err != nil {
		return nil, f.err
	}
	return fakeChans, nil
}

func (f *fakeStore) ListTuners(context.Context) ([]models.Tuner, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []models.Tuner{{TunerID: 1, Hostname: "mythbox", SignalTimeout: 1000, ChannelTimeout: 3000}}, nil
}

func (f *fakeStore) ListRecordingGroups(context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []string{"Default", "Deleted"}, nil
}

func (f *fakeStore) ListRecordingTitles(_ context.Context, group string) ([]models.TitleCount, error) {
	if f.err != nil {
		return nil, f.err
	}
	if group == "All Groups" {
		return []models.TitleCount{{Title: "All Shows", Count: 3}, {Title: "Nova", Count: 2}, {Title: "Cosmos", Count: 1}}, nil
	}
	return []models.TitleCount{{Title: "All Shows", Count: 0}}, nil
}

func (f *fakeStore) GetSetting(_ context.Context, key string, hostname *string) (*string, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	f.hostname = hostname
	f.mu.Unlock()
	if key == "MasterServerIP" && hostname == nil {
		v := "192.168.1.10"
		return &v, nil
	}
	return nil, nil
}

func (f *fakeStore) ListRecordingSchedules(_ context.Context, filter store.ScheduleFilter) ([]models.RecordingSchedule, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	f.schedFilter = filter
	f.mu.Unlock()
	return []models.RecordingSchedule{{ScheduleID: 7, Type: models.ScheduleAll, ChannelID: 1002, StartTime: t0, EndTime: t0.Add(time.Hour), Title: "Nova", Profile: "Default", RecGroup: "Default"}}, nil
}

func (f *fakeStore) ListJobs(_ context.Context, filter store.JobFilter) ([]models.Job, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	f.jobFilter = filter
	f.mu.Unlock()
	return nil, nil
}

func (f *fakeStore) GuideEntries(_ context.Context, start, _ time.Time, channels []models.Channel) iter.Seq2[models.GuideEntry, error] {
	f.mu.Lock()
	f.guideChans = channels
	f.mu.Unlock()
	return func(yield func(models.GuideEntry, error) bool) {
		if f.err != nil {
			yield(models.GuideEntry{}, f.err)
			return
		}
		for _, ch := range channels {
			g := models.GuideEntry{ChannelID: ch.ChannelID, ChannelNumber: ch.ChannelNumber, CallSign: ch.CallSign,
				ChannelName: ch.ChannelName, Start: start, End: start.Add(time.Hour), Title: "Show " + ch.CallSign}
			if !yield(g, nil) {
				return
			}
		}
	}
}

func (f *fakeStore) ListGuideEntries(ctx context.Context, start, end time.Time, channels []models.Channel) ([]models.GuideEntry, error) {
	var out []models.GuideEntry
	for g, err := range f.GuideEntries(ctx, start, end, channels) {
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (f *fakeStore) Ping(context.Context) error {
	return f.err
}

func loadOpenAPI(t *testing.T) *openapi3.T {
	t.Helper()
	doc, err := openapi3.NewLoader().LoadFromData(api.OpenAPISpec)
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))
	return doc
}

// get serves path and checks the response against the OpenAPI document.
func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	doc := loadOpenAPI(t)
	router, err := legacy.NewRouter(doc)
	require.NoError(t, err)
	route, params, err := router.FindRoute(req)
	require.NoError(t, err, path)

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{Request: req, PathParams: params, Route: route},
		Status:                 rr.Code,
		Header:                 rr.Header(),
	}
	input.SetBodyBytes(rr.Body.Bytes())
	require.NoError(t, openapi3filter.ValidateResponse(context.Background(), input), "%s: %s", path, rr.Body.String())
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func newTestServer(st store.Store) *Server {
	return New(st, config.Server{Port: "0"}, zerolog.Nop(), nil, nil)
}

func TestOpenAPIDocument(t *testing.T) {
	doc := loadOpenAPI(t)
	assert.NotNil(t, doc.Paths.Find("/api/guide"))
}

func TestHealth(t *testing.T) {
	rr := get(t, newTestServer(&fakeStore{}), "/api/health")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = get(t, newTestServer(&fakeStore{err: &store.ConnectionError{Op: "Ping", Err: errors.New("refused")}}), "/api/health")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestBackends(t *testing.T) {
	srv := newTestServer(&fakeStore{})

	rr := get(t, srv, "/api/backends")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]models.Backend](t, rr), 2)

	rr = get(t, srv, "/api/backends/master")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[models.Backend](t, rr).Master)

	rr = get(t, srv, "/api/backends/slaves")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []models.Backend{fakeSlave}, decode[[]models.Backend](t, rr))

	rr = get(t, srv, "/api/backends/resolve/MYTHBOX")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, fakeMaster, decode[models.Backend](t, rr))

	rr = get(t, srv, "/api/backends/resolve/bogus")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMasterBackend_NotConfigured(t *testing.T) {
	rr := get(t, newTestServer(&fakeStore{err: store.ErrNoMasterBackend}), "/api/backends/master")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLineupAndRecordings(t *testing.T) {
	srv := newTestServer(&fakeStore{})

	rr := get(t, srv, "/api/channels")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, fakeChans, decode[[]models.Channel](t, rr))

	rr = get(t, srv, "/api/tuners")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = get(t, srv, "/api/recording-groups")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, decode[[]string](t, rr), "Default")

	rr = get(t, srv, "/api/recording-groups/All%20Groups/titles")
	require.Equal(t, http.StatusOK, rr.Code)
	titles := decode[[]models.TitleCount](t, rr)
	require.Len(t, titles, 3)
	assert.Equal(t, "All Shows", titles[0].Title)

	rr = get(t, srv, "/api/recording-groups/bogus%20group/titles")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []models.TitleCount{{Title: "All Shows", Count: 0}}, decode[[]models.TitleCount](t, rr))
}

func TestSettings(t *testing.T) {
	st := &fakeStore{}
	srv := newTestServer(st)

	rr := get(t, srv, "/api/settings/MasterServerIP")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "192.168.1.10", decode[settingResponse](t, rr).Value)
	assert.Nil(t, st.hostname)

	rr = get(t, srv, "/api/settings/MasterServerIP?hostname=mythbox")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	require.NotNil(t, st.hostname)
	assert.Equal(t, "mythbox", *st.hostname)
}

func TestSchedules(t *testing.T) {
	st := &fakeStore{}
	srv := newTestServer(st)

	rr := get(t, srv, "/api/schedules?schedule_id=7&chanid=1002")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, st.schedFilter.ScheduleID)
	assert.Equal(t, 7, *st.schedFilter.ScheduleID)
	assert.Equal(t, 1002, *st.schedFilter.ChannelID)

	rr = get(t, srv, "/api/schedules?schedule_id=seven")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestJobs(t *testing.T) {
	st := &fakeStore{}
	srv := newTestServer(st)

	rr := get(t, srv, "/api/jobs")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]\n", rr.Body.String())
	assert.Nil(t, st.jobFilter.Program)
	assert.Nil(t, st.jobFilter.JobType)

	rr = get(t, srv, "/api/jobs?chanid=1002&starttime=2010-03-14T20:00:00Z&type=commflag")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, st.jobFilter.Program)
	assert.Equal(t, 1002, st.jobFilter.Program.ChannelID)
	assert.True(t, t0.Equal(st.jobFilter.Program.StartTime))
	assert.Equal(t, models.JobTypeCommFlag, *st.jobFilter.JobType)

	rr = get(t, srv, "/api/jobs?chanid=1002&starttime=1268596800")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, t0.Equal(st.jobFilter.Program.StartTime))

	for _, path := range []string{
		"/api/jobs?chanid=1002",
		"/api/jobs?starttime=2010-03-14T20:00:00Z",
		"/api/jobs?type=defrag",
		"/api/jobs?chanid=x&starttime=2010-03-14T20:00:00Z",
	} {
		rr = get(t, srv, path)
		assert.Equal(t, http.StatusBadRequest, rr.Code, path)
	}
}

func TestGuide(t *testing.T) {
	st := &fakeStore{}
	srv := newTestServer(st)

	rr := get(t, srv, "/api/guide?start=2010-03-14T20:00:00Z&end=2010-03-15T00:00:00Z")
	require.Equal(t, http.StatusOK, rr.Code)
	entries := decode[[]models.GuideEntry](t, rr)
	require.Len(t, entries, 2)
	assert.Equal(t, 1002, entries[0].ChannelID)
	assert.True(t, t0.Equal(entries[0].Start))

	rr = get(t, srv, "/api/guide?start=2010-03-14T20:00:00Z&chanid=1009&chanid=4242&chanid=1002")
	require.Equal(t, http.StatusOK, rr.Code)
	entries = decode[[]models.GuideEntry](t, rr)
	require.Len(t, entries, 2)
	assert.Equal(t, 1009, entries[0].ChannelID)
	assert.Equal(t, 1002, entries[1].ChannelID)

	rr = get(t, srv, "/api/guide?start=2010-03-14T20:00:00Z&chanid=4242")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]\n", rr.Body.String())

	for _, path := range []string{
		"/api/guide?start=yesterday",
		"/api/guide?start=2010-03-14T20:00:00Z&end=2010-03-14T19:00:00Z",
		"/api/guide?chanid=abc",
	} {
		rr = get(t, srv, path)
		assert.Equal(t, http.StatusBadRequest, rr.Code, path)
	}
}

func TestStoreErrors(t *testing.T) {
	connErr := &store.ConnectionError{Op: "ListChannels", Err: &net.OpError{Op: "dial", Err: errors.New("refused")}}
	for _, path := range []string{"/api/channels", "/api/backends", "/api/jobs", "/api/guide"} {
		rr := get(t, newTestServer(&fakeStore{err: connErr}), path)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code, path)
		assert.Equal(t, "Service Unavailable", decode[APIError](t, rr).Error)
	}

	rr := get(t, newTestServer(&fakeStore{err: errors.New("relation \"channel\" does not exist")}), "/api/channels")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestStoreErrors_LoggedByServer(t *testing.T) {
	var buf bytes.Buffer
	srv := New(&fakeStore{err: errors.New("relation \"channel\" does not exist")}, config.Server{}, zerolog.New(&buf), nil, nil)

	rr := get(t, srv, "/api/channels")
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decode[APIError](t, rr)
	assert.Equal(t, http.StatusInternalServerError, body.Status)
	assert.Contains(t, body.Detail, "does not exist")
	assert.Contains(t, buf.String(), "request failed")

	buf.Reset()
	rr = get(t, srv, "/api/schedules?chanid=abc")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.NotContains(t, buf.String(), "request failed")
}

func TestGuide_StreamErrorBeforeFirstEntry(t *testing.T) {
	st := &guideFailStore{fakeStore: &fakeStore{}}
	rr := get(t, newTestServer(st), "/api/guide?start=2010-03-14T20:00:00Z")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

// guideFailStore lists channels but fails the guide query.
type guideFailStore struct {
	*fakeStore
}

func (g *guideFailStore) GuideEntries(context.Context, time.Time, time.Time, []models.Channel) iter.Seq2[models.GuideEntry, error] {
	return func(yield func(models.GuideEntry, error) bool) {
		yield(models.GuideEntry{}, errors.New("canceling statement due to statement timeout"))
	}
}

func TestRateLimit(t *testing.T) {
	srv := New(&fakeStore{}, config.Server{RateLimit: 2}, zerolog.Nop(), nil, nil)

	var last *httptest.ResponseRecorder
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/api/tuners", nil)
		last = httptest.NewRecorder()
		srv.ServeHTTP(last, req)
	}
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	srv := New(&fakeStore{}, config.Server{}, zerolog.Nop(), metrics.New(reg), reg)

	srv.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/channels", nil))

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `mythvault_http_requests_total{route="/api/channels",status="2xx"} 1`)
}

func TestListenAndServe_Shutdown(t *testing.T) {
	srv := newTestServer(&fakeStore{})
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe did not return after cancel")
	}
}

func TestDocs(t *testing.T) {
	srv := newTestServer(&fakeStore{})
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/docs/openapi.yaml", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.Equal(t, api.OpenAPISpec, body)
}
