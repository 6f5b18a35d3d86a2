package codeforces

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cf_finder/internal/app/engine"
	"cf_finder/internal/domain/model"
	"cf_finder/internal/platform/telemetry"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const statusBody = `{
  "status": "OK",
  "result": [
    {"id": 3, "contestId": 1, "creationTimeSeconds": 1700000800,
     "problem": {"contestId": 1, "index": "B", "name": "Spreadsheets", "rating": 1600, "tags": ["implementation", "math"]},
     "verdict": "OK"},
    {"id": 2, "contestId": 4, "creationTimeSeconds": 1700000400,
     "problem": {"contestId": 4, "index": "A", "name": "Watermelon", "tags": []},
     "verdict": "WRONG_ANSWER"},
    {"id": 1, "contestId": 100001, "creationTimeSeconds": 1700000000,
     "problem": {"index": "C", "name": "Gym problem"},
     "verdict": "OK"}
  ]
}`

func newServer(t *testing.T, handler http.HandlerFunc) (*Client, *telemetry.Metrics) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	metrics := telemetry.NewMetrics(nil)
	return NewClient(srv.URL+"/", 2*time.Second, metrics, nil), metrics
}

func TestFetchSubmissions(t *testing.T) {
	client, metrics := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user.status", r.URL.Path)
		assert.Equal(t, "tourist", r.URL.Query().Get("handle"))
		w.Write([]byte(statusBody))
	})

	subs, err := client.FetchSubmissions(context.Background(), "tourist")
	require.NoError(t, err)
	require.Len(t, subs, 3)

	assert.Equal(t, model.ProblemID{ContestID: 1, Index: "B"}, subs[0].ProblemID())
	assert.True(t, subs[0].Accepted())
	assert.Equal(t, model.Rated(1600), subs[0].Rating)
	assert.Equal(t, []string{"implementation", "math"}, subs[0].Tags)
	assert.Equal(t, time.Unix(1700000800, 0).UTC(), subs[0].CreationTime)

	assert.False(t, subs[1].Accepted())
	assert.False(t, subs[1].Rating.IsRated())

	assert.Equal(t, 100001, subs[2].ContestID, "falls back to the submission's contest")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.UpstreamRequests.WithLabelValues("user.status", "ok")))
}

func TestFetchSubmissionsJudgeFailure(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		comment string
	}{
		{"with comment", `{"status":"FAILED","comment":"handle: User with handle nobody not found"}`, "handle: User with handle nobody not found"},
		{"blank comment", `{"status":"FAILED"}`, engine.UnknownHandleComment},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(tc.body))
			})

			_, err := client.FetchSubmissions(context.Background(), "nobody")
			var ferr *engine.FetchError
			require.ErrorAs(t, err, &ferr)
			assert.Equal(t, tc.comment, ferr.Comment)
			assert.Equal(t, "nobody", ferr.Handle)
			assert.False(t, ferr.Network)
		})
	}
}

func TestFetchSubmissionsNetworkFailure(t *testing.T) {
	t.Run("non json body", func(t *testing.T) {
		client, metrics := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("<html>Codeforces is temporarily unavailable</html>"))
		})
		_, err := client.FetchSubmissions(context.Background(), "tourist")
		var ferr *engine.FetchError
		require.ErrorAs(t, err, &ferr)
		assert.True(t, ferr.Network)
		assert.Contains(t, ferr.Comment, "HTTP 503")
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.UpstreamRequests.WithLabelValues("user.status", "network_error")))
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		client := NewClient(srv.URL, time.Second, nil, nil)

		_, err := client.FetchSubmissions(context.Background(), "tourist")
		var ferr *engine.FetchError
		require.ErrorAs(t, err, &ferr)
		assert.True(t, ferr.Network)
		assert.Contains(t, ferr.Comment, "network error")
	})
}

func TestFetchProfile(t *testing.T) {
	client, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user.info", r.URL.Path)
		switch r.URL.Query().Get("handles") {
		case "tourist":
			w.Write([]byte(`{"status":"OK","result":[{"handle":"tourist","firstName":"Gennady","lastName":"Korotkevich"}]}`))
		default:
			w.Write([]byte(`{"status":"OK","result":[]}`))
		}
	})

	p, err := client.FetchProfile(context.Background(), "tourist")
	require.NoError(t, err)
	assert.Equal(t, "Gennady Korotkevich", p.DisplayName())

	_, err = client.FetchProfile(context.Background(), "ghost")
	assert.Error(t, err)
}

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := telemetry.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		tp.Shutdown(context.Background())
	})
	return sr
}

func TestCallRecordsSpan(t *testing.T) {
	sr := recordSpans(t)
	client, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("handle") {
		case "tourist":
			w.Write([]byte(statusBody))
		default:
			w.Write([]byte(`{"status":"FAILED","comment":"handle: User with handle nobody not found"}`))
		}
	})

	_, err := client.FetchSubmissions(context.Background(), "tourist")
	require.NoError(t, err)
	_, err = client.FetchSubmissions(context.Background(), "nobody")
	require.Error(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 2)

	ok, failed := spans[0], spans[1]
	assert.Equal(t, "codeforces.user.status", ok.Name())
	assert.Equal(t, codes.Unset, ok.Status().Code)
	assert.Contains(t, ok.Attributes(), attribute.String("cf.handle", "tourist"))

	assert.Equal(t, "codeforces.user.status", failed.Name())
	assert.Equal(t, codes.Error, failed.Status().Code)
	assert.Contains(t, failed.Status().Description, "not found")
	require.NotEmpty(t, failed.Events(), "the error is recorded as a span event")
	assert.Equal(t, "exception", failed.Events()[0].Name)
}
