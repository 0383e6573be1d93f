package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"garden-care/internal/logging"
	"garden-care/internal/recurrence"
)

// CycleEngine runs one recurrence cycle.
type CycleEngine interface {
	RunCycle(ctx context.Context, asOf time.Time) (recurrence.CycleReport, error)
	Today() time.Time
}

// CycleListener is told about every cycle that committed work.
type CycleListener interface {
	CycleFinished(ctx context.Context, run CycleRun)
}

// CycleRun is the outcome of one triggered cycle.
type CycleRun struct {
	ID     uuid.UUID
	Report recurrence.CycleReport
	Err    error
}

// CycleService triggers recurrence cycles and fans their results out.
type CycleService struct {
	engine  CycleEngine
	timeout time.Duration
	log     zerolog.Logger

	mu        sync.RWMutex
	listeners []CycleListener
	last      *CycleRun
}

func NewCycleService(engine CycleEngine, timeout time.Duration, log zerolog.Logger) *CycleService {
	return &CycleService{
		engine:  engine,
		timeout: timeout,
		log:     logging.Component(log, "cycle"),
	}
}

// Subscribe registers a listener for finished cycles.
func (s *CycleService) Subscribe(l CycleListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// RunToday runs a cycle for the engine's current date.
func (s *CycleService) RunToday(ctx context.Context) (CycleRun, error) {
	return s.Run(ctx, s.engine.Today())
}

// Run executes one cycle as of the given date. A cycle refused because
// another one is running is returned as is and not recorded.
func (s *CycleService) Run(ctx context.Context, asOf time.Time) (CycleRun, error) {
	run := CycleRun{ID: uuid.New()}
	log := s.log.With().Str("run_id", run.ID.String()).Logger()

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	report, err := s.engine.RunCycle(runCtx, asOf)
	if errors.Is(err, recurrence.ErrCycleInProgress) {
		log.Warn().Msg("cycle already running, skipped")
		return run, err
	}
	run.Report = report
	run.Err = err

	event := log.Info()
	if err != nil || report.Partial() {
		event = log.Warn()
	}
	event.Err(err).
		Str("as_of", report.AsOf.Format(recurrence.DateLayout)).
		Int("evaluated", report.Evaluated).
		Int("created", report.Created).
		Int("skipped", report.Skipped).
		Int("invalid", len(report.Invalid)).
		Int("failed", len(report.Failures)).
		Dur("took", report.Duration()).
		Msg("cycle finished")
	for _, f := range report.Failures {
		log.Warn().Uint("rule_id", f.RuleID).Err(f.Err).Msg("rule failed")
	}

	s.mu.Lock()
	s.last = &run
	listeners := append([]CycleListener(nil), s.listeners...)
	s.mu.Unlock()

	if report.Created > 0 {
		for _, l := range listeners {
			l.CycleFinished(ctx, run)
		}
	}
	return run, err
}

// Last returns the most recent recorded cycle.
func (s *CycleService) Last() (CycleRun, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return CycleRun{}, false
	}
	return *s.last, true
}
