// Package codeforces is the HTTP client for the judge's public API.
package codeforces

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cf_finder/internal/app/engine"
	"cf_finder/internal/domain/model"
	"cf_finder/internal/platform/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	statusOK = "OK"

	methodUserStatus = "user.status"
	methodUserInfo   = "user.info"

	maxBodyBytes = 64 << 20
)

// envelope is the wrapper every API method responds with.
type envelope struct {
	Status  string          `json:"status"`
	Comment string          `json:"comment"`
	Result  json.RawMessage `json:"result"`
}

type apiProblem struct {
	ContestID *int     `json:"contestId"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Rating    *int     `json:"rating"`
	Tags      []string `json:"tags"`
}

type apiSubmission struct {
	ID                  int64      `json:"id"`
	ContestID           int        `json:"contestId"`
	CreationTimeSeconds int64      `json:"creationTimeSeconds"`
	Problem             apiProblem `json:"problem"`
	Verdict             string     `json:"verdict"`
}

type apiUser struct {
	Handle    string `json:"handle"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Client implements engine.Fetcher against the judge API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *telemetry.Metrics
	logger     *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, metrics *telemetry.Metrics, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

// FetchSubmissions returns every submission of handle, newest first as the
// judge reports them.
func (c *Client) FetchSubmissions(ctx context.Context, handle string) ([]model.RawSubmission, error) {
	var subs []apiSubmission
	if err := c.call(ctx, methodUserStatus, handle, url.Values{"handle": {handle}}, &subs); err != nil {
		return nil, err
	}

	out := make([]model.RawSubmission, 0, len(subs))
	for _, s := range subs {
		out = append(out, toRawSubmission(s))
	}
	return out, nil
}

// FetchProfile returns the name fields of handle.
func (c *Client) FetchProfile(ctx context.Context, handle string) (model.Profile, error) {
	var users []apiUser
	if err := c.call(ctx, methodUserInfo, handle, url.Values{"handles": {handle}}, &users); err != nil {
		return model.Profile{}, err
	}
	if len(users) == 0 {
		return model.Profile{}, &engine.FetchError{Handle: handle, Comment: engine.UnknownHandleComment}
	}
	u := users[0]
	return model.Profile{Handle: u.Handle, FirstName: u.FirstName, LastName: u.LastName}, nil
}

func toRawSubmission(s apiSubmission) model.RawSubmission {
	contestID := s.ContestID
	if s.Problem.ContestID != nil {
		contestID = *s.Problem.ContestID
	}
	rating := model.Unrated
	if s.Problem.Rating != nil {
		rating = model.Rated(*s.Problem.Rating)
	}
	return model.RawSubmission{
		ContestID:    contestID,
		Index:        s.Problem.Index,
		Verdict:      model.Verdict(s.Verdict),
		Rating:       rating,
		Name:         s.Problem.Name,
		Tags:         s.Problem.Tags,
		CreationTime: time.Unix(s.CreationTimeSeconds, 0).UTC(),
	}
}

// call performs one API request and decodes its result into out. Judge-side
// failures become *engine.FetchError with the judge's comment; transport and
// decoding failures become network FetchErrors.
func (c *Client) call(ctx context.Context, method, handle string, params url.Values, out any) (err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "codeforces."+method)
	span.SetAttributes(attribute.String("cf.handle", handle))
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "judge_error"
			if fe, ok := err.(*engine.FetchError); ok && fe.Network {
				outcome = "network_error"
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		c.metrics.ObserveUpstream(method, outcome, time.Since(start))
		span.End()
	}()

	endpoint := c.baseURL + "/" + method + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("codeforces.%s: build request: %w", method, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "judge request failed", "method", method, "handle", handle, "error", err)
		return &engine.FetchError{Handle: handle, Comment: "network error: " + err.Error(), Network: true}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &engine.FetchError{Handle: handle, Comment: "network error: " + err.Error(), Network: true}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &engine.FetchError{
			Handle:  handle,
			Comment: fmt.Sprintf("network error: unexpected response (HTTP %d)", resp.StatusCode),
			Network: true,
		}
	}
	if env.Status != statusOK {
		comment := env.Comment
		if comment == "" {
			comment = engine.UnknownHandleComment
		}
		return &engine.FetchError{Handle: handle, Comment: comment}
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return &engine.FetchError{Handle: handle, Comment: "network error: malformed result: " + err.Error(), Network: true}
	}
	return nil
}
