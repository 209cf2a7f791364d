package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/animecal/metrics"
)

type stubBuilder struct {
	body  []byte
	err   error
	panic bool
	calls int
}

func (b *stubBuilder) Build(context.Context) ([]byte, error) {
	b.calls++
	if b.panic {
		panic("boom")
	}
	return b.body, b.err
}

const sampleCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nEND:VCALENDAR\r\n"

func serve(t *testing.T, s *Server, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestCalendarRoutes(t *testing.T) {
	for _, path := range []string{"/", "/calendar.ics"} {
		t.Run(path, func(t *testing.T) {
			builder := &stubBuilder{body: []byte(sampleCalendar)}
			s := New(Config{Addr: ":0"}, builder, nil, zerolog.Nop())

			rec := serve(t, s, path, nil)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.Equal(t, sampleCalendar, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
			assert.Equal(t, 1, builder.calls)
		})
	}
}

func TestCalendarBuildFailure(t *testing.T) {
	var logs bytes.Buffer
	builder := &stubBuilder{err: errors.New("upstream unavailable")}
	s := New(Config{}, builder, nil, zerolog.New(&logs))

	rec := serve(t, s, "/calendar.ics", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "An error occurred", rec.Body.String())
	assert.Contains(t, logs.String(), "upstream unavailable")
}

func TestRecoversFromPanics(t *testing.T) {
	s := New(Config{}, &stubBuilder{panic: true}, nil, zerolog.Nop())

	rec := serve(t, s, "/calendar.ics", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequestIDPropagation(t *testing.T) {
	var logs bytes.Buffer
	s := New(Config{}, &stubBuilder{body: []byte(sampleCalendar)}, nil, zerolog.New(&logs))

	rec := serve(t, s, "/", http.Header{RequestIDHeader: []string{"abc-123"}})

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	assert.Contains(t, logs.String(), `"request_id":"abc-123"`)
	assert.Contains(t, logs.String(), `"message":"request done"`)
	assert.Contains(t, logs.String(), `"status":200`)
}

func TestHealthz(t *testing.T) {
	builder := &stubBuilder{}
	s := New(Config{}, builder, nil, zerolog.Nop())

	rec := serve(t, s, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, 0, builder.calls)
}

func TestMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ObserveLookup("hit")

	s := New(Config{}, &stubBuilder{}, reg, zerolog.Nop())
	rec := serve(t, s, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `animecal_cache_lookups_total{result="hit"} 1`)

	without := New(Config{}, &stubBuilder{}, nil, zerolog.Nop())
	assert.Equal(t, http.StatusNotFound, serve(t, without, "/metrics", nil).Code)
}
