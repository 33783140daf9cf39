package poll

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"engagement-watch/internal/domain/entity"
	"engagement-watch/internal/infra/notifier"
	"engagement-watch/internal/infra/youtube"
	"engagement-watch/internal/observability/logging"
	"engagement-watch/internal/usecase/catalog"
	"engagement-watch/internal/usecase/fetch"
	"engagement-watch/internal/usecase/notify"
	"engagement-watch/internal/usecase/quiethours"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeCatalog struct {
	ids       []string
	err       error
	refreshes int
}

func (c *fakeCatalog) Refresh(context.Context) error {
	c.refreshes++
	return c.err
}

func (c *fakeCatalog) IDs() []string { return c.ids }

type fakeFetcher struct {
	likes       []map[string]int64
	subscribers []int64
	hidden      bool
	panicOnLike bool
	calls       int
	subCalls    int
}

func (f *fakeFetcher) FetchVideoLikes(_ context.Context, _ []string) map[string]int64 {
	if f.panicOnLike {
		panic("boom")
	}
	i := f.calls
	f.calls++
	if i >= len(f.likes) {
		return map[string]int64{}
	}
	return f.likes[i]
}

func (f *fakeFetcher) FetchSubscriberCount(context.Context, string) (int64, bool) {
	if f.hidden {
		return 0, false
	}
	i := f.subCalls
	f.subCalls++
	if i >= len(f.subscribers) {
		return 0, false
	}
	return f.subscribers[i], true
}

type dispatchCall struct {
	Kind  entity.TriggerKind
	Count int64
}

type fakeDispatcher struct {
	calls []dispatchCall
}

func (d *fakeDispatcher) Dispatch(_ context.Context, kind entity.TriggerKind, count int64) notify.Result {
	d.calls = append(d.calls, dispatchCall{Kind: kind, Count: count})
	if count <= 0 {
		return notify.Result{Kind: kind, Count: count, Status: notify.StatusSkipped}
	}
	return notify.Result{Kind: kind, Count: count, Status: notify.StatusSent}
}

// fired returns the calls that carried a positive count.
func (d *fakeDispatcher) fired() []dispatchCall {
	var out []dispatchCall
	for _, c := range d.calls {
		if c.Count > 0 {
			out = append(out, c)
		}
	}
	return out
}

type fakeMetrics struct {
	statuses []string
	deltas   map[string]int64
}

func (m *fakeMetrics) RecordCycle(status string, _ float64) {
	m.statuses = append(m.statuses, status)
}

func (m *fakeMetrics) RecordDelta(kind string, delta int64) {
	if m.deltas == nil {
		m.deltas = make(map[string]int64)
	}
	m.deltas[kind] += delta
}

type fakeReadiness struct {
	marks  int
	videos int
}

func (r *fakeReadiness) MarkCycle(_ time.Time, n int) {
	r.marks++
	r.videos = n
}

type harness struct {
	poller     *Poller
	catalog    *fakeCatalog
	fetcher    *fakeFetcher
	dispatcher *fakeDispatcher
	metrics    *fakeMetrics
	readiness  *fakeReadiness
	clock      time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		catalog:    &fakeCatalog{ids: []string{"v1", "v2"}},
		fetcher:    &fakeFetcher{},
		dispatcher: &fakeDispatcher{},
		metrics:    &fakeMetrics{},
		readiness:  &fakeReadiness{},
		clock:      time.Date(2026, 1, 10, 5, 0, 0, 0, time.UTC),
	}
	h.poller = New(Config{
		ChannelID:       "UC123",
		PollInterval:    time.Minute,
		CatalogSchedule: cron.Every(6 * time.Hour),
	}, Deps{
		Catalog:    h.catalog,
		Fetcher:    h.fetcher,
		Dispatcher: h.dispatcher,
		Metrics:    h.metrics,
		Readiness:  h.readiness,
	}, discardLogger())
	h.poller.now = func() time.Time { return h.clock }
	return h
}

func TestRunCycle_LikeDeltaDispatched(t *testing.T) {
	h := newHarness(t)
	h.fetcher.likes = []map[string]int64{
		{"A": 10, "B": 3},
		{"A": 15, "B": 3},
	}

	first := h.poller.RunCycle(context.Background())
	assert.Equal(t, int64(0), first.NewLikes)
	assert.Equal(t, notify.StatusSkipped, first.Likes.Status)
	assert.Empty(t, h.dispatcher.fired())

	second := h.poller.RunCycle(context.Background())
	assert.Equal(t, int64(5), second.NewLikes)
	assert.Equal(t, notify.StatusSent, second.Likes.Status)

	want := []dispatchCall{{Kind: entity.TriggerLikes, Count: 5}}
	if diff := cmp.Diff(want, h.dispatcher.fired()); diff != "" {
		t.Errorf("dispatch calls mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, int64(5), h.metrics.deltas["likes"])
	assert.Equal(t, 2, h.poller.likes.Len())
}

func TestRunCycle_SubscriberSequence(t *testing.T) {
	h := newHarness(t)
	h.fetcher.subscribers = []int64{100, 105, 105, 103}

	var got []int64
	for range 4 {
		got = append(got, h.poller.RunCycle(context.Background()).NewSubscribers)
	}

	if diff := cmp.Diff([]int64{0, 5, 0, 0}, got); diff != "" {
		t.Errorf("subscriber deltas mismatch (-want +got):\n%s", diff)
	}
	want := []dispatchCall{{Kind: entity.TriggerSubscribers, Count: 5}}
	if diff := cmp.Diff(want, h.dispatcher.fired()); diff != "" {
		t.Errorf("dispatch calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRunCycle_HiddenSubscribersSkipped(t *testing.T) {
	h := newHarness(t)
	h.fetcher.hidden = true

	report := h.poller.RunCycle(context.Background())

	assert.False(t, report.SubscribersFetched)
	assert.Equal(t, notify.StatusSkipped, report.Subscribers.Status)
	assert.Zero(t, h.poller.subscribers.Observe(100), "no baseline was stored while hidden")
	for _, c := range h.dispatcher.calls {
		assert.NotEqual(t, entity.TriggerSubscribers, c.Kind)
	}
}

func TestRunCycle_ZeroDeltaGoesToDispatcher(t *testing.T) {
	h := newHarness(t)
	h.fetcher.likes = []map[string]int64{{"A": 10}}
	h.fetcher.subscribers = []int64{100}

	report := h.poller.RunCycle(context.Background())

	want := []dispatchCall{
		{Kind: entity.TriggerLikes, Count: 0},
		{Kind: entity.TriggerSubscribers, Count: 0},
	}
	if diff := cmp.Diff(want, h.dispatcher.calls); diff != "" {
		t.Errorf("dispatch calls mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, notify.StatusSkipped, report.Likes.Status)
	assert.Equal(t, notify.StatusSkipped, report.Subscribers.Status)
}

func TestRunCycle_CatalogRefreshFollowsSchedule(t *testing.T) {
	h := newHarness(t)
	start := h.clock

	r := h.poller.RunCycle(context.Background())
	assert.True(t, r.CatalogRefreshed)

	h.clock = start.Add(time.Hour)
	r = h.poller.RunCycle(context.Background())
	assert.False(t, r.CatalogRefreshed)

	h.clock = start.Add(6*time.Hour + time.Second)
	r = h.poller.RunCycle(context.Background())
	assert.True(t, r.CatalogRefreshed)

	assert.Equal(t, 2, h.catalog.refreshes)
}

func TestRunCycle_FailedRefreshWithEmptyCatalogRetries(t *testing.T) {
	h := newHarness(t)
	h.catalog.ids = nil
	h.catalog.err = errors.New("quota exceeded")

	r := h.poller.RunCycle(context.Background())
	require.Error(t, r.CatalogErr)
	assert.Equal(t, 0, r.Videos)

	h.clock = h.clock.Add(time.Minute)
	r = h.poller.RunCycle(context.Background())
	assert.True(t, r.CatalogRefreshed)
	assert.Equal(t, 2, h.catalog.refreshes)
}

func TestRunCycle_FailedRefreshWithPreviousCatalogWaitsForSchedule(t *testing.T) {
	h := newHarness(t)
	h.catalog.err = errors.New("quota exceeded")

	h.poller.RunCycle(context.Background())
	h.clock = h.clock.Add(time.Minute)
	r := h.poller.RunCycle(context.Background())

	assert.False(t, r.CatalogRefreshed)
	assert.Equal(t, 2, r.Videos)
	assert.Equal(t, 1, h.catalog.refreshes)
}

func TestRunCycle_PanicRecovered(t *testing.T) {
	h := newHarness(t)
	h.fetcher.panicOnLike = true

	var report CycleReport
	require.NotPanics(t, func() {
		report = h.poller.RunCycle(context.Background())
	})

	assert.Equal(t, "boom", report.Panic)
	assert.Equal(t, []string{"panic"}, h.metrics.statuses)
	assert.Equal(t, 0, h.readiness.marks)
}

func TestRunCycle_MarksReadiness(t *testing.T) {
	h := newHarness(t)
	h.fetcher.subscribers = []int64{100}

	report := h.poller.RunCycle(context.Background())

	assert.NotEmpty(t, report.CycleID)
	assert.True(t, report.Succeeded())
	assert.Equal(t, []string{"success"}, h.metrics.statuses)
	assert.Equal(t, 1, h.readiness.marks)
	assert.Equal(t, 2, h.readiness.videos)
}

func TestRunCycle_NothingFetchedIsFailure(t *testing.T) {
	tests := []struct {
		name        string
		likes       []map[string]int64
		subscribers []int64
		wantStatus  string
		wantMarks   int
	}{
		{name: "all requests failed", wantStatus: "failure", wantMarks: 0},
		{name: "only likes returned", likes: []map[string]int64{{"A": 1}}, wantStatus: "success", wantMarks: 1},
		{name: "only subscribers returned", subscribers: []int64{100}, wantStatus: "success", wantMarks: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.fetcher.likes = tt.likes
			h.fetcher.subscribers = tt.subscribers

			h.poller.RunCycle(context.Background())

			assert.Equal(t, []string{tt.wantStatus}, h.metrics.statuses)
			assert.Equal(t, tt.wantMarks, h.readiness.marks)
		})
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	h := newHarness(t)
	h.poller.cfg.PollInterval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.poller.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNew_NilOptionalDeps(t *testing.T) {
	p := New(Config{ChannelID: "UC123", PollInterval: time.Minute}, Deps{
		Catalog:    &fakeCatalog{},
		Fetcher:    &fakeFetcher{},
		Dispatcher: &fakeDispatcher{},
	}, nil)

	require.NotPanics(t, func() { p.RunCycle(context.Background()) })
}

type failingLister struct{}

func (failingLister) LatestVideoIDs(context.Context, string) ([]string, error) {
	return nil, errors.New("quota exceeded")
}

type failingSource struct{}

func (failingSource) VideoStats(context.Context, []string) ([]entity.VideoStat, error) {
	return nil, errors.New("quota exceeded")
}

func (failingSource) ChannelStats(context.Context, string) (entity.ChannelStat, error) {
	return entity.ChannelStat{}, errors.New("quota exceeded")
}

func TestRunCycle_ComponentLogsCarryCycleID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLoggerTo(&buf, slog.LevelInfo)

	p := New(Config{ChannelID: "UC123", PollInterval: time.Minute}, Deps{
		Catalog:    catalog.New("UC123", failingLister{}, nil, logger),
		Fetcher:    fetch.NewService(failingSource{}, nil, logger),
		Dispatcher: &fakeDispatcher{},
	}, logger)

	report := p.RunCycle(context.Background())

	var messages []string
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		assert.Equal(t, report.CycleID, entry["cycle_id"], "line: %s", line)
		messages = append(messages, entry["msg"].(string))
	}
	assert.Contains(t, messages, "catalog refresh failed, keeping previous video set")
	assert.Contains(t, messages, "subscriber count fetch failed")
}

// youtubeStub serves search, videos and channels. Each videos call returns
// the next like count for the single video "A".
type youtubeStub struct {
	mu    sync.Mutex
	likes []int64
	calls int
}

func (s *youtubeStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/youtube/v3/search":
		fmt.Fprint(w, `{"items":[{"id":{"kind":"youtube#video","videoId":"v1"}}]}`)
	case "/youtube/v3/videos":
		s.mu.Lock()
		i := min(s.calls, len(s.likes)-1)
		s.calls++
		likes := s.likes[i]
		s.mu.Unlock()
		fmt.Fprintf(w, `{"items":[{"id":"v1","snippet":{"title":"A"},"statistics":{"likeCount":"%d"}}]}`, likes)
	case "/youtube/v3/channels":
		fmt.Fprint(w, `{"items":[{"id":"UC123","statistics":{"subscriberCount":"100","hiddenSubscriberCount":false}}]}`)
	default:
		http.NotFound(w, r)
	}
}

// gateAt evaluates the real gate at a fixed instant.
type gateAt struct {
	gate *quiethours.Gate
	at   time.Time
}

func (g gateAt) IsSilent(time.Time) bool { return g.gate.IsSilent(g.at) }

func TestPoller_EndToEnd_LikeTriggerOutsideSilentHours(t *testing.T) {
	yt := httptest.NewServer(&youtubeStub{likes: []int64{10, 15}})
	t.Cleanup(yt.Close)

	var likeHits, subHits atomic.Int32
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		switch r.URL.Path {
		case "/likes":
			likeHits.Add(1)
		case "/subscribers":
			subHits.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(hook.Close)

	ctx := context.Background()
	logger := discardLogger()

	ytCfg := youtube.DefaultConfig("test-key")
	ytCfg.BaseURL = yt.URL + "/"
	ytCfg.RequestsPerSecond = 1000
	ytCfg.Burst = 100
	client, err := youtube.NewClient(ctx, ytCfg)
	require.NoError(t, err)

	gate, err := quiethours.New("Asia/Tokyo", 8, 20)
	require.NoError(t, err)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	limiter := notifier.NewHostLimiter(100, 10)
	triggers := map[entity.TriggerKind]notifier.Trigger{
		entity.TriggerLikes: notifier.NewWebhookTrigger(notifier.WebhookConfig{
			URL: hook.URL + "/likes", Timeout: 5 * time.Second,
		}, limiter, logger),
		entity.TriggerSubscribers: notifier.NewWebhookTrigger(notifier.WebhookConfig{
			URL: hook.URL + "/subscribers", Timeout: 5 * time.Second,
		}, limiter, logger),
	}
	at14 := time.Date(2026, 1, 10, 14, 0, 0, 0, tokyo)
	dispatcher := notify.NewDispatcher(triggers, gateAt{gate: gate, at: at14}, logger)

	p := New(Config{
		ChannelID:       "UC123",
		PollInterval:    time.Minute,
		CatalogSchedule: cron.Every(6 * time.Hour),
	}, Deps{
		Catalog:    catalog.New("UC123", client, nil, logger),
		Fetcher:    fetch.NewService(client, nil, logger),
		Dispatcher: dispatcher,
	}, logger)

	first := p.RunCycle(ctx)
	require.NoError(t, first.CatalogErr)
	assert.Equal(t, 1, first.Videos)
	assert.Equal(t, int64(0), first.NewLikes)

	second := p.RunCycle(ctx)
	assert.Equal(t, int64(5), second.NewLikes)
	assert.Equal(t, notify.StatusSent, second.Likes.Status)
	assert.Equal(t, http.StatusOK, second.Likes.StatusCode)

	assert.Equal(t, int32(1), likeHits.Load())
	assert.Equal(t, int32(0), subHits.Load())
}
