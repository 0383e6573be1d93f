package recurrence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"garden-care/internal/logging"
	"garden-care/internal/model"
)

// RuleSource streams the active care rules. fn is called once per rule; a
// non-nil error from fn stops the iteration and is returned as is.
type RuleSource interface {
	EachActive(ctx context.Context, batchSize int, fn func(model.CareRule) error) error
}

// TaskStore holds task instances.
type TaskStore interface {
	// LatestForRule returns the instance with the latest due date generated
	// from ruleID, or nil when the rule has none yet.
	LatestForRule(ctx context.Context, ruleID uint) (*model.TaskInstance, error)
	// CreateInstance persists task and fills its ID. It returns an error
	// wrapping ErrDuplicateInstance if the rule already has an instance due
	// on the same date.
	CreateInstance(ctx context.Context, task *model.TaskInstance) error
}

// CatchUpPolicy decides how many overdue periods one cycle may fill.
type CatchUpPolicy string

const (
	// CatchUpSingle creates at most one instance per rule per cycle.
	CatchUpSingle CatchUpPolicy = "single"
	// CatchUpAll creates one instance per elapsed period, up to asOf.
	CatchUpAll CatchUpPolicy = "all"
)

// ParseCatchUpPolicy accepts "single" and "all". Empty means single.
func ParseCatchUpPolicy(raw string) (CatchUpPolicy, error) {
	switch CatchUpPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", CatchUpSingle:
		return CatchUpSingle, nil
	case CatchUpAll:
		return CatchUpAll, nil
	default:
		return "", fmt.Errorf("unknown catch-up policy %q", raw)
	}
}

// maxCatchUp caps CatchUpAll so a daily rule dormant for years cannot flood
// the store in a single cycle.
const maxCatchUp = 366

const defaultBatchSize = 200

// Options configures an Engine. The zero value is usable.
type Options struct {
	CatchUp CatchUpPolicy
	// BatchSize is the number of rules requested from the RuleSource at once.
	BatchSize int
	// Workers is the number of rules evaluated concurrently. Defaults to 1.
	Workers int
	// Location is the zone whose calendar date Today reports.
	Location *time.Location
	Logger   zerolog.Logger
}

// Engine generates due task instances from care rules.
type Engine struct {
	rules   RuleSource
	tasks   TaskStore
	catchUp CatchUpPolicy
	batch   int
	workers int
	loc     *time.Location
	log     zerolog.Logger

	running atomic.Bool
}

// NewEngine wires an engine to its stores.
func NewEngine(rules RuleSource, tasks TaskStore, opts Options) *Engine {
	e := &Engine{
		rules:   rules,
		tasks:   tasks,
		catchUp: opts.CatchUp,
		batch:   opts.BatchSize,
		workers: opts.Workers,
		loc:     opts.Location,
		log:     logging.Component(opts.Logger, "recurrence"),
	}
	if e.catchUp == "" {
		e.catchUp = CatchUpSingle
	}
	if e.batch <= 0 {
		e.batch = defaultBatchSize
	}
	if e.workers <= 0 {
		e.workers = 1
	}
	if e.loc == nil {
		e.loc = time.Local
	}
	return e
}

// Today is the engine's current calendar date.
func (e *Engine) Today() time.Time {
	return Day(time.Now().In(e.loc))
}

// RunCycle makes sure every active recurring rule has an instance for its
// current due cycle as of the given date. asOf is a calendar date: only its
// year, month and day are used, never its zone. Use Today for the current
// date in the engine's location.
//
// Per-rule problems are recorded in the report and never returned as an
// error. The returned error is non-nil only when the rule listing fails
// (wrapping ErrStoreRead), when ctx is done, or with ErrCycleInProgress.
// Rules are streamed, so a listing failure can happen after some rules were
// already processed: the report then counts that committed work instead of
// being empty.
func (e *Engine) RunCycle(ctx context.Context, asOf time.Time) (CycleReport, error) {
	if !e.running.CompareAndSwap(false, true) {
		return CycleReport{}, ErrCycleInProgress
	}
	defer e.running.Store(false)

	day := Day(asOf)
	rec := &recorder{report: CycleReport{AsOf: day, StartedAt: time.Now()}}

	var err error
	if e.workers == 1 {
		err = e.rules.EachActive(ctx, e.batch, func(rule model.CareRule) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			e.evaluate(ctx, rule, day, rec)
			return nil
		})
	} else {
		err = e.runParallel(ctx, day, rec)
	}

	report := rec.snapshot()
	report.FinishedAt = time.Now()

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, ctxErr
		}
		return report, fmt.Errorf("%w: list active rules: %w", ErrStoreRead, err)
	}
	return report, nil
}

func (e *Engine) runParallel(ctx context.Context, day time.Time, rec *recorder) error {
	queue := make(chan model.CareRule)
	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rule := range queue {
				e.evaluate(ctx, rule, day, rec)
			}
		}()
	}

	err := e.rules.EachActive(ctx, e.batch, func(rule model.CareRule) error {
		select {
		case queue <- rule:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	close(queue)
	wg.Wait()
	return err
}

func (e *Engine) evaluate(ctx context.Context, rule model.CareRule, asOf time.Time, rec *recorder) {
	rec.evaluated()
	period, recurring, err := PeriodOf(rule)
	switch {
	case err != nil:
		e.log.Warn().Uint("rule_id", rule.ID).Err(err).Msg("skipping malformed rule")
		rec.invalid(rule.ID)
		return
	case !recurring:
		rec.skipped()
		return
	}

	created, err := e.materialize(ctx, rule, period, asOf)
	rec.created(created)
	if err != nil {
		e.log.Error().Uint("rule_id", rule.ID).Err(err).Msg("rule failed")
		rec.failed(rule.ID, err)
		return
	}
	if len(created) == 0 {
		rec.skipped()
		return
	}
	for _, t := range created {
		e.log.Debug().Uint("rule_id", rule.ID).Uint("task_id", t.ID).
			Str("due", t.Due.Format(DateLayout)).Msg("task generated")
	}
}

// materialize creates the instances due for one rule and returns the ones
// committed, even when a later write fails.
func (e *Engine) materialize(ctx context.Context, rule model.CareRule, period Period, asOf time.Time) ([]model.TaskInstance, error) {
	latest, err := e.tasks.LatestForRule(ctx, rule.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: latest instance of rule %d: %w", ErrStoreRead, rule.ID, err)
	}

	last := LastOccurrence(rule, latest)

	limit := 1
	if e.catchUp == CatchUpAll {
		limit = maxCatchUp
	}

	var created []model.TaskInstance
	for i := 0; i < limit; i++ {
		next := Advance(last, period)
		if next.After(asOf) {
			break
		}
		task := instanceFor(rule, next)
		if err := e.tasks.CreateInstance(ctx, &task); err != nil {
			if errors.Is(err, ErrDuplicateInstance) {
				break
			}
			return created, fmt.Errorf("%w: rule %d due %s: %w", ErrStoreWrite, rule.ID, next.Format(DateLayout), err)
		}
		created = append(created, task)
		last = next
	}
	return created, nil
}

func instanceFor(rule model.CareRule, due time.Time) model.TaskInstance {
	ruleID := rule.ID
	return model.TaskInstance{
		UserID:  rule.UserID,
		PlantID: rule.PlantID,
		RuleID:  &ruleID,
		Kind:    rule.Kind,
		Title:   rule.Note,
		Due:     due,
		Status:  model.StatusPending,
	}
}

// recorder accumulates a report from concurrent workers.
type recorder struct {
	mu     sync.Mutex
	report CycleReport
}

func (r *recorder) evaluated() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Evaluated++
}

func (r *recorder) skipped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Skipped++
}

func (r *recorder) invalid(ruleID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Skipped++
	r.report.Invalid = append(r.report.Invalid, ruleID)
}

func (r *recorder) created(tasks []model.TaskInstance) {
	if len(tasks) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Created += len(tasks)
	r.report.Generated = append(r.report.Generated, tasks...)
}

func (r *recorder) failed(ruleID uint, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Failures = append(r.report.Failures, RuleFailure{RuleID: ruleID, Err: err})
}

func (r *recorder) snapshot() CycleReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.report
}
