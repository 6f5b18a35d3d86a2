package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cf_finder/internal/api/middleware"
	"cf_finder/internal/app/engine"
	"cf_finder/internal/app/service"
	"cf_finder/internal/domain/model"
	"cf_finder/internal/domain/repository"
	"cf_finder/internal/platform/config"
	"cf_finder/internal/platform/database"
	"cf_finder/internal/platform/telemetry"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type mapFetcher map[string][]model.RawSubmission

func (f mapFetcher) FetchSubmissions(_ context.Context, handle string) ([]model.RawSubmission, error) {
	subs, ok := f[handle]
	if !ok {
		return nil, &engine.FetchError{Handle: handle, Comment: "handle: User with handle " + handle + " not found"}
	}
	return subs, nil
}

func (f mapFetcher) FetchProfile(_ context.Context, handle string) (model.Profile, error) {
	return model.Profile{Handle: handle, FirstName: "Tourist"}, nil
}

func ac(contest int, index string, rating int, at time.Time, tags ...string) model.RawSubmission {
	return model.RawSubmission{
		ContestID: contest, Index: index, Verdict: model.VerdictAccepted,
		Rating: model.Rated(rating), Name: "Problem " + index, Tags: tags, CreationTime: at,
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := database.Open(context.Background(), &config.Config{StoreDriver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	require.NoError(t, database.Migrate(context.Background(), db))

	fetcher := mapFetcher{
		"alice": {
			ac(1000, "A", 800, t0, "math"),
			ac(1001, "B", 1200, t0.Add(time.Hour), "dp", "greedy"),
			ac(1002, "C", 1600, t0.Add(2*time.Hour), "graphs"),
		},
		"bob": {
			ac(1001, "B", 1200, t0, "dp", "greedy"),
		},
	}

	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)
	svc := service.NewFinderService(
		fetcher,
		repository.NewSQLSavedQueryRepository(db, repository.DefaultSavedQueryLimit),
		service.NewSequencer(service.DefaultMaxSessions),
		metrics,
		nil,
		engine.DefaultFinderPolicy,
	)

	srv := httptest.NewServer(NewRouter(svc, metrics, reg))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, session, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if session != "" {
		req.Header.Set(middleware.SessionHeader, session)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp := do(t, srv, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFinderEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/api/v1/finder", "s1", `{"targets":["alice"],"practices":["bob"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "s1", resp.Header.Get(middleware.SessionHeader))

	out := decode[service.FindResponse](t, resp)
	assert.False(t, out.Superseded)
	require.Len(t, out.Result.Problems, 2)
	ids := []string{out.Result.Problems[0].ID.String(), out.Result.Problems[1].ID.String()}
	assert.ElementsMatch(t, []string{"1000/A", "1002/C"}, ids)
	require.NotNil(t, out.Result.Profile)
	assert.Equal(t, "alice", out.Result.Profile.Handle)
}

func TestFinderEndpointGeneratesSession(t *testing.T) {
	srv := newTestServer(t)
	resp := do(t, srv, http.MethodPost, "/api/v1/finder", "", `{"targets":["alice"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.SessionHeader))
}

func TestFinderEndpointValidation(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/api/v1/finder", "s1", `{"targets":["  "],"practices":["bob"]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/api/v1/finder", "s1", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFinderEndpointReportsEveryFailure(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/api/v1/finder", "s1", `{"targets":["ghost","alice"],"practices":["phantom"]}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body struct {
		Error    string               `json:"error"`
		Failures []engine.FetchError `json:"failures"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Failures, 2)
	assert.Equal(t, "ghost", body.Failures[0].Handle)
	assert.Equal(t, "phantom", body.Failures[1].Handle)
	assert.Contains(t, body.Error, "ghost")
}

func TestRevisionEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/api/v1/revision", "s2", `{"handle":"alice","minRating":1000,"maxRating":1600}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[service.ReviseResponse](t, resp)
	require.Len(t, out.Result.Entries, 2)
	assert.Equal(t, "1001/B", out.Result.Entries[0].ID.String())
	assert.Equal(t, "1002/C", out.Result.Entries[1].ID.String())

	resp = do(t, srv, http.MethodPost, "/api/v1/revision", "s2", `{"handle":"alice","minRating":1600,"maxRating":1000}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionView(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/api/v1/sessions/none/view", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/api/v1/finder", "s3", `{"targets":["alice"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/v1/sessions/s3/view?tags=dp,graphs&sort=contest_asc", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[service.SessionView](t, resp)
	require.NotNil(t, view.Finder)
	require.Len(t, view.Finder.Problems, 2)
	assert.Equal(t, "1001/B", view.Finder.Problems[0].ID.String())
	assert.Equal(t, "1002/C", view.Finder.Problems[1].ID.String())
	assert.Len(t, view.Finder.AllTags, 4)

	resp = do(t, srv, http.MethodGet, "/api/v1/sessions/s3/view?groupBy=rating", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = decode[service.SessionView](t, resp)
	require.Len(t, view.Finder.Buckets, 3)
	assert.Equal(t, "800", view.Finder.Buckets[0].Key)

	resp = do(t, srv, http.MethodGet, "/api/v1/sessions/s3/view?sort=sideways", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHistoryEndpoints(t *testing.T) {
	srv := newTestServer(t)

	do(t, srv, http.MethodPost, "/api/v1/finder", "s4", `{"targets":["alice"],"practices":["bob"]}`)
	do(t, srv, http.MethodPost, "/api/v1/finder", "s4", `{"targets":["bob"]}`)

	resp := do(t, srv, http.MethodGet, "/api/v1/history", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decode[[]model.SavedQuery](t, resp)
	require.Len(t, history, 2)
	assert.Equal(t, []string{"bob"}, history[0].Targets)

	resp = do(t, srv, http.MethodDelete, "/api/v1/history/"+history[0].ID, "", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, srv, http.MethodDelete, "/api/v1/history/"+history[0].ID, "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, srv, http.MethodDelete, "/api/v1/history", "", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/v1/history", "", "")
	assert.Empty(t, decode[[]model.SavedQuery](t, resp))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	do(t, srv, http.MethodGet, "/health", "", "")

	resp := do(t, srv, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
