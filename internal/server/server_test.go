package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/alarmd/internal/alarm"
	"github.com/manav03panchal/alarmd/internal/announce"
	"github.com/manav03panchal/alarmd/internal/scheduler"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	clock     *clock
	sched     *scheduler.Scheduler
	svc       *alarm.Service
	announced []announce.Briefing
	handler   http.Handler
}

func newFixture(t *testing.T, cooperative bool) *fixture {
	t.Helper()
	f := &fixture{clock: &clock{now: time.Date(2030, 1, 1, 6, 0, 0, 0, time.Local)}}
	f.sched = scheduler.New(scheduler.Options{Now: f.clock.Now})
	f.svc = alarm.NewService(alarm.Config{
		Timers: f.sched,
		Now:    f.clock.Now,
		Announcer: announce.Func(func(_ context.Context, b announce.Briefing) error {
			f.announced = append(f.announced, b)
			return nil
		}),
	})
	cfg := Config{
		Alarms:  f.svc,
		Health:  func() any { return map[string]string{"status": "healthy"} },
		Metrics: func() any { return f.svc.Stats() },
	}
	if cooperative {
		cfg.Ticker = f.sched
	}
	f.handler = New(cfg).Handler()
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestSetAlarm(t *testing.T) {
	t.Run("scheduled", func(t *testing.T) {
		f := newFixture(t, false)
		rec := f.do(t, http.MethodPost, "/alarms", `{"time_spec":"2030-01-01T07:30","label":"wake","news":true}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		res := decode[alarm.Result](t, rec)
		assert.Equal(t, alarm.StatusScheduled, res.Status)
		require.NotNil(t, res.Alarm)
		assert.Equal(t, "wake", res.Alarm.Label)
		assert.True(t, res.Alarm.News)
		assert.Equal(t, 1, f.svc.Len())
	})

	t.Run("duplicate", func(t *testing.T) {
		f := newFixture(t, false)
		f.do(t, http.MethodPost, "/alarms", `{"time_spec":"2030-01-01T07:30","label":"first"}`)
		rec := f.do(t, http.MethodPost, "/alarms", `{"time_spec":"2030-01-01T07:30","label":"second"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		res := decode[alarm.Result](t, rec)
		assert.Equal(t, alarm.StatusDuplicate, res.Status)
		assert.Equal(t, "first", res.Alarm.Label)
		assert.Equal(t, 1, f.svc.Len())
	})

	t.Run("past", func(t *testing.T) {
		f := newFixture(t, false)
		rec := f.do(t, http.MethodPost, "/alarms", `{"time_spec":"2029-12-31T23:00","label":"late"}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, alarm.StatusPast, decode[alarm.Result](t, rec).Status)
		assert.Zero(t, f.svc.Len())
	})

	t.Run("malformed", func(t *testing.T) {
		f := newFixture(t, false)
		rec := f.do(t, http.MethodPost, "/alarms", `{"time_spec":"tomorrow","label":"x"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decode[ErrorResponse](t, rec)
		assert.Equal(t, "user", body.Category)
		assert.NotEmpty(t, body.Suggestion)
	})

	t.Run("label_with_separator", func(t *testing.T) {
		f := newFixture(t, false)
		rec := f.do(t, http.MethodPost, "/alarms", `{"time_spec":"2030-01-01T07:30","label":"a&b"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, f.svc.Len())
	})

	t.Run("bad_json", func(t *testing.T) {
		f := newFixture(t, false)
		rec := f.do(t, http.MethodPost, "/alarms", `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListAlarms(t *testing.T) {
	f := newFixture(t, false)
	f.do(t, http.MethodPost, "/alarms", `{"time_spec":"2030-01-01T09:00","label":"b"}`)
	f.do(t, http.MethodPost, "/alarms", `{"time_spec":"2030-01-01T08:00","label":"a"}`)

	rec := f.do(t, http.MethodGet, "/alarms", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[ListResponse](t, rec)
	require.Equal(t, 2, list.Count)
	// Insertion order, not due order.
	assert.Equal(t, "b", list.Alarms[0].Label)
	assert.Equal(t, "a", list.Alarms[1].Label)
}

func TestCancel(t *testing.T) {
	t.Run("by_label", func(t *testing.T) {
		f := newFixture(t, false)
		f.do(t, http.MethodPost, "/alarms", `{"time_spec":"2030-01-01T07:30","label":"wake up/now"}`)

		rec := f.do(t, http.MethodDelete, "/alarms/"+url.PathEscape("wake up/now"), "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2030-01-01T07:30", decode[CancelResponse](t, rec).Cancelled.TimeSpec)
		assert.Zero(t, f.svc.Len())
	})

	t.Run("empty_label", func(t *testing.T) {
		f := newFixture(t, false)
		f.do(t, http.MethodPost, "/alarms", `{"time_spec":"2030-01-01T07:30","label":""}`)

		rec := f.do(t, http.MethodDelete, "/alarms/", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Zero(t, f.svc.Len())
	})

	t.Run("by_time_spec", func(t *testing.T) {
		f := newFixture(t, false)
		f.do(t, http.MethodPost, "/alarms", `{"time_spec":"2030-01-01T07:30","label":"x"}`)

		rec := f.do(t, http.MethodDelete, "/alarms/at/2030-01-01T07:30", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Zero(t, f.svc.Len())
	})

	t.Run("label_shaped_like_time_spec_route", func(t *testing.T) {
		f := newFixture(t, false)
		f.do(t, http.MethodPost, "/alarms", `{"time_spec":"2030-01-01T07:30","label":"at/home"}`)

		rec := f.do(t, http.MethodDelete, "/alarms/"+url.PathEscape("at/home"), "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "at/home", decode[CancelResponse](t, rec).Cancelled.Label)
		assert.Zero(t, f.svc.Len())
	})

	t.Run("bad_escape", func(t *testing.T) {
		f := newFixture(t, false)
		req := httptest.NewRequest(http.MethodDelete, "/alarms/x", nil)
		req.URL.Path = "/alarms/%zz"
		req.URL.RawPath = "/alarms/%zz"
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown", func(t *testing.T) {
		f := newFixture(t, false)
		rec := f.do(t, http.MethodDelete, "/alarms/nothing", "")
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", decode[ErrorResponse](t, rec).Category)
	})
}

func TestCooperativeFiring(t *testing.T) {
	f := newFixture(t, true)
	f.do(t, http.MethodPost, "/alarms", `{"time_spec":"2030-01-01T06:01","label":"soon"}`)
	require.Equal(t, 1, f.svc.Len())

	f.clock.Advance(2 * time.Minute)
	rec := f.do(t, http.MethodGet, "/alarms", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Zero(t, decode[ListResponse](t, rec).Count)
	require.Len(t, f.announced, 1)
	assert.Equal(t, "soon", f.announced[0].Label)
}

func TestCooperativeFiringOutlivesRequest(t *testing.T) {
	now := time.Date(2030, 1, 1, 6, 0, 0, 0, time.Local)
	clk := &clock{now: now}
	sched := scheduler.New(scheduler.Options{Now: clk.Now})

	var announceErr error
	announced := 0
	svc := alarm.NewService(alarm.Config{
		Timers: sched,
		Now:    clk.Now,
		Announcer: announce.Func(func(ctx context.Context, _ announce.Briefing) error {
			announced++
			announceErr = ctx.Err()
			return nil
		}),
	})
	handler := New(Config{Alarms: svc, Ticker: sched}).Handler()

	_, err := svc.Set(context.Background(), alarm.Request{TimeSpec: "2030-01-01T06:01", Label: "soon"})
	require.NoError(t, err)
	clk.Advance(2 * time.Minute)

	// The client has already gone away.
	reqCtx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/alarms", nil).WithContext(reqCtx)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 1, announced)
	assert.NoError(t, announceErr)
	assert.Zero(t, svc.Len())
}

func TestNonCooperativeDoesNotFire(t *testing.T) {
	f := newFixture(t, false)
	f.do(t, http.MethodPost, "/alarms", `{"time_spec":"2030-01-01T06:01","label":"soon"}`)
	f.clock.Advance(2 * time.Minute)

	rec := f.do(t, http.MethodGet, "/alarms", "")
	assert.Equal(t, 1, decode[ListResponse](t, rec).Count)
	assert.Empty(t, f.announced)
}

func TestRequestID(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Len(t, rec.Header().Get(RequestIDHeader), 8)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc123")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc123", rec.Header().Get(RequestIDHeader))
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t, false)
	f.do(t, http.MethodPost, "/alarms", `{"time_spec":"2030-01-01T07:30","label":"x"}`)

	rec := f.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, rec)["status"])

	rec = f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[alarm.Stats](t, rec)
	assert.Equal(t, uint64(1), stats.Scheduled)
	assert.Equal(t, 1, stats.Pending)
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodPut, "/alarms", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	f := newFixture(t, false)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(Config{Alarms: f.svc})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout):
		t.Fatal("server did not stop")
	}
}
