package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/multierr"

	"github.com/angelmondragon/wholesale-backend/pkg/logger"
	"github.com/angelmondragon/wholesale-backend/pkg/metrics"
)

type testJob struct {
	name string
	rows int64
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) (int64, error) {
	t.runs++
	return t.rows, t.err
}

func newTestService(t *testing.T, schedule *Schedule, lock Lock, jm *metrics.JobMetrics) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Schedule: schedule,
		Lock:     lock,
		Metrics:  jm,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return svc
}

func TestRunDueRunsEveryJobEvenOnFailure(t *testing.T) {
	ok := &testJob{name: "ok", rows: 4}
	failA := &testJob{name: "fail-a", err: errors.New("boom")}
	failB := &testJob{name: "fail-b", err: errors.New("bang")}
	reg := prometheus.NewRegistry()
	schedule := NewSchedule().
		Every(time.Hour, failA).
		Every(time.Hour, ok).
		Every(time.Hour, failB)
	svc := newTestService(t, schedule, NewLocalLock(), metrics.NewJobMetrics(reg))

	err := svc.RunDue(context.Background())
	if err == nil {
		t.Fatal("expected combined job error")
	}
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected 2 job errors, got %d", got)
	}
	for _, job := range []*testJob{ok, failA, failB} {
		if job.runs != 1 {
			t.Fatalf("expected %s to run once, ran %d", job.name, job.runs)
		}
	}
	if got := testutil.CollectAndCount(reg, "cron_job_runs_total"); got != 3 {
		t.Fatalf("expected a run series per job, got %d", got)
	}
	if got := rowsRecorded(t, reg); got != 4 {
		t.Fatalf("expected 4 rows recorded, got %v", got)
	}
}

func TestRunDueHonoursIntervals(t *testing.T) {
	job := &testJob{name: "job"}
	svc := newTestService(t, NewSchedule().Every(time.Hour, job), NewLocalLock(), nil)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	ctx := context.Background()
	for _, step := range []time.Duration{0, 30 * time.Minute, 31 * time.Minute} {
		now = now.Add(step)
		if err := svc.RunDue(ctx); err != nil {
			t.Fatalf("run due: %v", err)
		}
	}
	if job.runs != 2 {
		t.Fatalf("expected 2 runs across 61 minutes, got %d", job.runs)
	}
}

func TestRunDueSkipsWhenLocked(t *testing.T) {
	job := &testJob{name: "job"}
	lock := NewLocalLock()
	release, ok, err := lock.TryAcquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("pre-acquire: ok=%v err=%v", ok, err)
	}
	defer release(context.Background())

	svc := newTestService(t, NewSchedule().Every(time.Minute, job), lock, nil)
	if err := svc.RunDue(context.Background()); err != nil {
		t.Fatalf("run due: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected job to be skipped, ran %d", job.runs)
	}
}

func TestRunReturnsOnCancel(t *testing.T) {
	job := &testJob{name: "job"}
	svc := newTestService(t, NewSchedule().Every(time.Minute, job), NewLocalLock(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if job.runs != 1 {
		t.Fatalf("expected the first check to run before exit, ran %d", job.runs)
	}
}

func TestNewServiceRequiresLock(t *testing.T) {
	if _, err := NewService(ServiceParams{Logger: logger.Nop()}); err == nil {
		t.Fatal("expected missing lock to fail")
	}
}

func rowsRecorded(t *testing.T, reg *prometheus.Registry) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var total float64
	for _, mf := range families {
		if mf.GetName() != "cron_job_rows_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}
