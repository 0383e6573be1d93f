package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garden-care/internal/model"
	"garden-care/internal/recurrence"
)

type fakeEngine struct {
	report   recurrence.CycleReport
	err      error
	today    time.Time
	asOf     time.Time
	deadline bool
}

func (f *fakeEngine) RunCycle(ctx context.Context, asOf time.Time) (recurrence.CycleReport, error) {
	f.asOf = asOf
	_, f.deadline = ctx.Deadline()
	report := f.report
	report.AsOf = asOf
	return report, f.err
}

func (f *fakeEngine) Today() time.Time { return f.today }

type recordingListener struct {
	mu   sync.Mutex
	runs []CycleRun
}

func (l *recordingListener) CycleFinished(_ context.Context, run CycleRun) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs = append(l.runs, run)
}

func TestCycleServiceNotifiesListenersOnlyWhenWorkWasCreated(t *testing.T) {
	engine := &fakeEngine{today: date("2024-01-10")}
	svc := NewCycleService(engine, time.Minute, zerolog.Nop())
	listener := &recordingListener{}
	svc.Subscribe(listener)

	run, err := svc.RunToday(context.Background())
	require.NoError(t, err)
	assert.Equal(t, date("2024-01-10"), engine.asOf)
	assert.True(t, engine.deadline)
	assert.Empty(t, listener.runs)

	engine.report = recurrence.CycleReport{Created: 1, Generated: []model.TaskInstance{{ID: 3}}}
	second, err := svc.Run(context.Background(), date("2024-01-11"))
	require.NoError(t, err)
	require.Len(t, listener.runs, 1)
	assert.Equal(t, second.ID, listener.runs[0].ID)
	assert.NotEqual(t, run.ID, second.ID)

	last, ok := svc.Last()
	require.True(t, ok)
	assert.Equal(t, second.ID, last.ID)
}

func TestCycleServiceKeepsPartialReports(t *testing.T) {
	engine := &fakeEngine{
		err:    recurrence.ErrStoreRead,
		report: recurrence.CycleReport{Evaluated: 2, Created: 1, Failures: []recurrence.RuleFailure{{RuleID: 9, Err: errors.New("boom")}}},
	}
	svc := NewCycleService(engine, 0, zerolog.Nop())
	listener := &recordingListener{}
	svc.Subscribe(listener)

	run, err := svc.Run(context.Background(), date("2024-01-10"))
	require.ErrorIs(t, err, recurrence.ErrStoreRead)
	assert.False(t, engine.deadline)
	assert.Equal(t, []uint{9}, run.Report.FailedRuleIDs())
	assert.ErrorIs(t, run.Err, recurrence.ErrStoreRead)
	assert.Len(t, listener.runs, 1)
}

func TestCycleServiceDoesNotRecordRefusedCycles(t *testing.T) {
	engine := &fakeEngine{err: recurrence.ErrCycleInProgress}
	svc := NewCycleService(engine, time.Minute, zerolog.Nop())

	_, err := svc.Run(context.Background(), date("2024-01-10"))
	require.ErrorIs(t, err, recurrence.ErrCycleInProgress)
	_, ok := svc.Last()
	assert.False(t, ok)
}
