package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-manager/internal/api/dto"
	"github.com/oshokin/alarm-manager/internal/clock"
	"github.com/oshokin/alarm-manager/internal/escalation"
	"github.com/oshokin/alarm-manager/internal/observability/metrics"
	"github.com/oshokin/alarm-manager/internal/repository/registry"
	"github.com/oshokin/alarm-manager/internal/repository/store"
	"github.com/oshokin/alarm-manager/internal/service/scheduler"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	metrics.Init()

	os.Exit(m.Run())
}

// newTestRouter runs a scheduler over an in-memory store and routes to it.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())

	reg := registry.New(store.NewMemoryStore())
	require.NoError(t, reg.Load(ctx))

	sched := scheduler.New(reg, clock.System{}, escalation.Actions{})
	done := make(chan struct{})

	go func() {
		defer close(done)

		_ = sched.Run(ctx) //nolint:errcheck // Always nil.
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})

	h := &handlers{
		service: sched,
		now:     func() time.Time { return time.Date(2024, time.March, 4, 10, 0, 0, 0, time.Local) },
	}

	return h.router(ctx)
}

// call sends a JSON request and decodes the JSON reply into out when provided.
func call(t *testing.T, router http.Handler, method, path string, body, out any) int {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequestWithContext(context.Background(), method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}

	return rec.Code
}

// TestAlarmLifecycle exercises create, list, start, stop, move and delete over HTTP.
func TestAlarmLifecycle(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	var tea dto.Status
	require.Equal(t, http.StatusOK, call(t, router, http.MethodPost, "/api/alarms",
		dto.Alarm{Type: "timer", Name: "Tea", Time: "180"}, &tea))
	require.NotEmpty(t, tea.Alarm.ID)
	require.False(t, tea.Armed)

	var wake dto.Status
	require.Equal(t, http.StatusOK, call(t, router, http.MethodPost, "/api/alarms",
		dto.Alarm{Type: "clock", Name: "Wake", Time: "07:30"}, &wake))

	var list dto.StatusList
	require.Equal(t, http.StatusOK, call(t, router, http.MethodGet, "/api/alarms", nil, &list))
	require.Len(t, list.Alarms, 2)
	require.Equal(t, "Tea", list.Alarms[0].Alarm.Name)

	var started dto.Status
	require.Equal(t, http.StatusOK, call(t, router, http.MethodPost, "/api/alarms/"+tea.Alarm.ID+"/start", nil, &started))
	require.True(t, started.Armed)
	require.NotNil(t, started.NextFire)

	var stopped dto.Status
	require.Equal(t, http.StatusOK, call(t, router, http.MethodPost, "/api/alarms/"+tea.Alarm.ID+"/stop", nil, &stopped))
	require.False(t, stopped.Armed)

	require.Equal(t, http.StatusOK, call(t, router, http.MethodPost, "/api/alarms/"+wake.Alarm.ID+"/move",
		dto.MoveRequest{Index: 0}, nil))
	require.Equal(t, http.StatusOK, call(t, router, http.MethodGet, "/api/alarms", nil, &list))
	require.Equal(t, "Wake", list.Alarms[0].Alarm.Name)

	var renamed dto.Status
	update := dto.Alarm{Type: "timer", Name: "Green tea", Time: "2m"}
	require.Equal(t, http.StatusOK, call(t, router, http.MethodPut, "/api/alarms/"+tea.Alarm.ID, update, &renamed))
	require.Equal(t, tea.Alarm.ID, renamed.Alarm.ID)
	require.Equal(t, "Green tea", renamed.Alarm.Name)

	require.Equal(t, http.StatusOK, call(t, router, http.MethodDelete, "/api/alarms/"+tea.Alarm.ID, nil, nil))
	require.Equal(t, http.StatusNotFound, call(t, router, http.MethodGet, "/api/alarms/"+tea.Alarm.ID, nil, nil))
}

// TestErrorStatuses verifies domain errors map onto HTTP statuses.
func TestErrorStatuses(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	var source dto.Status
	require.Equal(t, http.StatusOK, call(t, router, http.MethodPost, "/api/alarms",
		dto.Alarm{Type: "timer", Name: "Source", Time: "60"}, &source))

	dependant := dto.Alarm{
		Type:       "timer",
		Name:       "Next",
		Time:       "60",
		Recurrence: &dto.Recurrence{Kind: "triggered-by", TriggeredBy: source.Alarm.ID},
	}
	require.Equal(t, http.StatusOK, call(t, router, http.MethodPost, "/api/alarms", dependant, nil))

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{name: "referenced delete", method: http.MethodDelete, path: "/api/alarms/" + source.Alarm.ID, want: http.StatusConflict},
		{name: "bad id", method: http.MethodGet, path: "/api/alarms/nope", want: http.StatusBadRequest},
		{name: "bad time", method: http.MethodPost, path: "/api/alarms", body: dto.Alarm{Type: "clock", Time: "25:00"}, want: http.StatusBadRequest},
		{name: "bad move", method: http.MethodPost, path: "/api/alarms/" + source.Alarm.ID + "/move", body: dto.MoveRequest{Index: 9}, want: http.StatusBadRequest},
		{name: "missing body", method: http.MethodPost, path: "/api/alarms", want: http.StatusBadRequest},
		{name: "unknown trigger", method: http.MethodPost, path: "/api/alarms", body: dto.Alarm{
			Type:       "timer",
			Time:       "60",
			Recurrence: &dto.Recurrence{Kind: "triggered-by", TriggeredBy: "5f1b2c3d-0000-4000-8000-000000000000"},
		}, want: http.StatusBadRequest},
		{name: "bad count", method: http.MethodGet, path: "/api/alarms/" + source.Alarm.ID + "/upcoming?count=0", want: http.StatusBadRequest},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, call(t, router, tc.method, tc.path, tc.body, nil), tc.name)
	}
}

// TestPowerAndAcknowledge verifies suspend, resume and acknowledge counters.
func TestPowerAndAcknowledge(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	var created dto.Status
	require.Equal(t, http.StatusOK, call(t, router, http.MethodPost, "/api/alarms",
		dto.Alarm{Type: "timer", Time: "600", AutoStartOnResume: true, AutoStopOnSuspend: true}, &created))

	var count dto.CountResult
	require.Equal(t, http.StatusOK, call(t, router, http.MethodPost, "/api/power/resume", nil, &count))
	require.Equal(t, 1, count.Count)

	require.Equal(t, http.StatusOK, call(t, router, http.MethodPost, "/api/power/suspend", nil, &count))
	require.Equal(t, 1, count.Count)

	require.Equal(t, http.StatusOK, call(t, router, http.MethodPost, "/api/ack", nil, &count))
	require.Equal(t, 0, count.Count)

	require.Equal(t, http.StatusOK, call(t, router, http.MethodPost, "/api/alarms/"+created.Alarm.ID+"/ack", nil, &count))
	require.Equal(t, 0, count.Count)
}

// TestDefaultAlertEndpoints verifies reading and replacing the default alert.
func TestDefaultAlertEndpoints(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	var alert dto.Alert
	require.Equal(t, http.StatusOK, call(t, router, http.MethodGet, "/api/default-alert", nil, &alert))
	require.True(t, alert.Notification)

	alert.RepeatCount = 2
	alert.RepeatIntervalSeconds = 30

	require.Equal(t, http.StatusOK, call(t, router, http.MethodPut, "/api/default-alert", alert, nil))

	var stored dto.Alert
	require.Equal(t, http.StatusOK, call(t, router, http.MethodGet, "/api/default-alert", nil, &stored))
	require.Equal(t, alert, stored)

	alert.SoundLoops = -1
	require.Equal(t, http.StatusBadRequest, call(t, router, http.MethodPut, "/api/default-alert", alert, nil))
}

// TestCalendarAndUpcoming verifies the iCalendar feed and upcoming fire times.
func TestCalendarAndUpcoming(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	var weekly dto.Status
	require.Equal(t, http.StatusOK, call(t, router, http.MethodPost, "/api/alarms", dto.Alarm{
		Type:       "clock",
		Name:       "Standup",
		Time:       "09:30",
		Recurrence: &dto.Recurrence{Kind: "days-of-week", Days: "Mon,Wed"},
	}, &weekly))

	var upcoming dto.Occurrences
	require.Equal(t, http.StatusOK, call(t, router, http.MethodGet, "/api/alarms/"+weekly.Alarm.ID+"/upcoming?count=3", nil, &upcoming))
	require.Len(t, upcoming.Times, 3)

	want := []time.Time{
		time.Date(2024, time.March, 4, 9, 30, 0, 0, time.Local).AddDate(0, 0, 2),
		time.Date(2024, time.March, 11, 9, 30, 0, 0, time.Local),
		time.Date(2024, time.March, 13, 9, 30, 0, 0, time.Local),
	}

	for i := range want {
		require.Truef(t, want[i].Equal(upcoming.Times[i]), "occurrence %d: want %s, got %s", i, want[i], upcoming.Times[i])
	}

	req := httptest.NewRequestWithContext(context.Background(), http.MethodGet, "/api/calendar.ics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/calendar"))
	require.Contains(t, rec.Body.String(), "SUMMARY:Standup")
	require.Contains(t, rec.Body.String(), "RRULE:FREQ=WEEKLY")
}

// TestEmptyCalendar verifies that a calendar without events is served when no alarm has a known fire.
func TestEmptyCalendar(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	fetch := func() string {
		req := httptest.NewRequestWithContext(context.Background(), http.MethodGet, "/api/calendar.ics", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		return rec.Body.String()
	}

	body := fetch()
	require.True(t, strings.HasPrefix(body, "BEGIN:VCALENDAR\r\n"))
	require.NotContains(t, body, "BEGIN:VEVENT")

	require.Equal(t, http.StatusOK, call(t, router, http.MethodPost, "/api/alarms", dto.Alarm{Type: "timer", Name: "Tea", Time: "4m"}, nil))

	body = fetch()
	require.Contains(t, body, "END:VCALENDAR")
	require.NotContains(t, body, "BEGIN:VEVENT")
}

// TestMetricsEndpoint verifies the prometheus collectors are served.
func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	require.Equal(t, http.StatusOK, call(t, router, http.MethodGet, "/api/alarms", nil, nil))

	req := httptest.NewRequestWithContext(context.Background(), http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "alarm_manager_requests_total")
}
