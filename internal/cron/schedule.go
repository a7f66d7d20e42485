package cron

import (
	"context"
	"time"
)

// Job is one maintenance task. Run returns the number of rows it touched or
// inspected, which ends up in the job metrics.
type Job interface {
	Name() string
	Run(ctx context.Context) (int64, error)
}

type slot struct {
	job   Job
	every time.Duration
	next  time.Time
}

// Schedule tracks when each job is due. A new job is due on the first tick.
type Schedule struct {
	slots []*slot
}

func NewSchedule() *Schedule {
	return &Schedule{}
}

// Every registers job to run at most once per interval. Nil jobs and
// non-positive intervals are ignored.
func (s *Schedule) Every(interval time.Duration, job Job) *Schedule {
	if job == nil || interval <= 0 {
		return s
	}
	s.slots = append(s.slots, &slot{job: job, every: interval})
	return s
}

// Due returns the jobs whose time has come, in registration order, and
// books their next run one interval after now. A worker that was down for
// several intervals runs a job once, not once per missed interval.
func (s *Schedule) Due(now time.Time) []Job {
	var due []Job
	for _, sl := range s.slots {
		if sl.next.After(now) {
			continue
		}
		due = append(due, sl.job)
		sl.next = now.Add(sl.every)
	}
	return due
}

// Len is the number of registered jobs.
func (s *Schedule) Len() int { return len(s.slots) }
