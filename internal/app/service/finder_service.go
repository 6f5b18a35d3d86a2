package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cf_finder/internal/app/engine"
	"cf_finder/internal/common"
	"cf_finder/internal/domain/model"
	"cf_finder/internal/domain/repository"
	"cf_finder/internal/platform/telemetry"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

const (
	modeFinder   = "finder"
	modeRevision = "revision"
)

type FinderService struct {
	aggregator    *engine.Aggregator
	ranker        *engine.Ranker
	savedRepo     repository.SavedQueryRepository
	sequencer     *Sequencer
	metrics       *telemetry.Metrics
	logger        *slog.Logger
	defaultPolicy engine.SelectorPolicy
}

func NewFinderService(
	fetcher engine.Fetcher,
	savedRepo repository.SavedQueryRepository,
	sequencer *Sequencer,
	metrics *telemetry.Metrics,
	logger *slog.Logger,
	defaultPolicy engine.SelectorPolicy,
) *FinderService {
	if logger == nil {
		logger = slog.Default()
	}
	if !defaultPolicy.Valid() {
		defaultPolicy = engine.DefaultFinderPolicy
	}
	if sequencer == nil {
		sequencer = NewSequencer(DefaultMaxSessions)
	}
	return &FinderService{
		aggregator:    engine.NewAggregator(fetcher, logger),
		ranker:        engine.NewRanker(fetcher, logger),
		savedRepo:     savedRepo,
		sequencer:     sequencer,
		metrics:       metrics,
		logger:        logger,
		defaultPolicy: defaultPolicy,
	}
}

type FindRequest struct {
	SessionID string   `json:"-"`
	Targets   []string `json:"targets" validate:"max=50,dive,max=64"`
	Practices []string `json:"practices" validate:"max=50,dive,max=64"`
	Policy    string   `json:"policy,omitempty"`
}

type FindResponse struct {
	Seq        uint64                 `json:"seq"`
	Superseded bool                   `json:"superseded"`
	Result     *model.AggregateResult `json:"result"`
}

type ReviseRequest struct {
	SessionID string `json:"-"`
	Handle    string `json:"handle" validate:"max=64"`
	MinRating *int   `json:"minRating,omitempty" validate:"omitempty,min=0"`
	MaxRating *int   `json:"maxRating,omitempty" validate:"omitempty,min=0"`
}

type ReviseResponse struct {
	Seq        uint64                `json:"seq"`
	Superseded bool                  `json:"superseded"`
	Result     *model.RevisionResult `json:"result"`
}

// CleanHandles trims handles, drops blanks and repeats, and keeps the
// first-seen order.
func CleanHandles(handles []string) []string {
	out := make([]string, 0, len(handles))
	seen := make(map[string]struct{}, len(handles))
	for _, h := range handles {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}

// Find runs a finder query. Validation failures are returned before any
// fetch. The result is recorded on the session only if no newer request was
// issued meanwhile; the caller still receives it, marked Superseded.
func (s *FinderService) Find(ctx context.Context, req FindRequest) (*FindResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	targets := CleanHandles(req.Targets)
	practices := CleanHandles(req.Practices)
	if len(targets) == 0 {
		return nil, &engine.ValidationError{Field: "targets", Reason: "there should be at least 1 target user"}
	}
	policy, err := engine.ParseSelectorPolicy(req.Policy, s.defaultPolicy)
	if err != nil {
		return nil, err
	}

	ticket := s.sequencer.Begin(req.SessionID)
	res, err := s.aggregator.Aggregate(ctx, engine.FinderQuery{
		Targets:   targets,
		Practices: practices,
		Policy:    policy,
	})
	if err != nil {
		s.metrics.ObserveQuery(modeFinder, "error")
		return nil, err
	}
	s.metrics.ObserveQuery(modeFinder, "ok")

	if s.savedRepo != nil {
		if _, err := s.savedRepo.Save(ctx, targets, practices); err != nil {
			s.logger.ErrorContext(ctx, "failed to save query", "error", err)
		}
	}

	committed := s.sequencer.CommitFinder(ticket, res)
	if !committed {
		s.logger.InfoContext(ctx, "discarding superseded finder result", "session", req.SessionID, "seq", ticket.Seq)
	}
	return &FindResponse{Seq: ticket.Seq, Superseded: !committed, Result: res}, nil
}

// Revise runs a revision query for one handle.
func (s *FinderService) Revise(ctx context.Context, req ReviseRequest) (*ReviseResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	handle := strings.TrimSpace(req.Handle)
	if handle == "" {
		return nil, &engine.ValidationError{Field: "handle", Reason: "please enter a handle"}
	}
	if req.MinRating != nil && req.MaxRating != nil && *req.MinRating > *req.MaxRating {
		return nil, &engine.ValidationError{Field: "minRating", Reason: "must not exceed maxRating"}
	}

	ticket := s.sequencer.Begin(req.SessionID)
	res, err := s.ranker.Rank(ctx, engine.RevisionQuery{
		Handle: handle,
		Bounds: engine.RatingBounds{Min: req.MinRating, Max: req.MaxRating},
		Policy: engine.DefaultRevisionPolicy,
	})
	if err != nil {
		s.metrics.ObserveQuery(modeRevision, "error")
		return nil, err
	}
	s.metrics.ObserveQuery(modeRevision, "ok")

	committed := s.sequencer.CommitRevision(ticket, res)
	if !committed {
		s.logger.InfoContext(ctx, "discarding superseded revision result", "session", req.SessionID, "seq", ticket.Seq)
	}
	return &ReviseResponse{Seq: ticket.Seq, Superseded: !committed, Result: res}, nil
}

// SessionView is the re-rendered latest result of a session.
type SessionView struct {
	Seq      uint64        `json:"seq"`
	Mode     string        `json:"mode"`
	Finder   *FinderView   `json:"finder,omitempty"`
	Revision *RevisionView `json:"revision,omitempty"`
}

// View re-applies filtering, sorting and grouping to the session's latest
// result without fetching again.
func (s *FinderService) View(sessionID string, opts ViewOptions) (*SessionView, error) {
	snap, ok := s.sequencer.Latest(sessionID)
	if !ok {
		return nil, fmt.Errorf("no result for session %q: %w", sessionID, common.ErrNotFound)
	}
	if snap.Revision != nil {
		return &SessionView{Seq: snap.Seq, Mode: modeRevision, Revision: BuildRevisionView(snap.Revision, opts)}, nil
	}
	return &SessionView{Seq: snap.Seq, Mode: modeFinder, Finder: BuildFinderView(snap.Finder, opts)}, nil
}

func (s *FinderService) History(ctx context.Context) ([]model.SavedQuery, error) {
	if s.savedRepo == nil {
		return []model.SavedQuery{}, nil
	}
	return s.savedRepo.List(ctx)
}

func (s *FinderService) DeleteHistory(ctx context.Context, id string) error {
	if s.savedRepo == nil {
		return common.ErrNotFound
	}
	return s.savedRepo.Delete(ctx, id)
}

func (s *FinderService) ClearHistory(ctx context.Context) error {
	if s.savedRepo == nil {
		return nil
	}
	return s.savedRepo.Clear(ctx)
}

// FailureDetails extracts per-handle failures from an error returned by Find
// or Revise, for presenting them all together.
func FailureDetails(err error) []*engine.FetchError {
	var aerr *engine.AggregateError
	if errors.As(err, &aerr) {
		return aerr.Failures
	}
	var ferr *engine.FetchError
	if errors.As(err, &ferr) {
		return []*engine.FetchError{ferr}
	}
	return nil
}
