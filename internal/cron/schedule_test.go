package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type namedJob string

func (n namedJob) Name() string                      { return string(n) }
func (n namedJob) Run(context.Context) (int64, error) { return 0, nil }

func names(jobs []Job) []string {
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Name())
	}
	return out
}

func TestScheduleDue(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewSchedule().
		Every(24*time.Hour, namedJob("retention")).
		Every(5*time.Minute, namedJob("backlog")).
		Every(0, namedJob("ignored")).
		Every(time.Minute, nil)
	assert.Equal(t, 2, s.Len())

	assert.Equal(t, []string{"retention", "backlog"}, names(s.Due(start)))
	assert.Empty(t, s.Due(start.Add(time.Minute)))
	assert.Equal(t, []string{"backlog"}, names(s.Due(start.Add(5*time.Minute))))

	// three hours of downtime: the backlog check runs once
	later := start.Add(3 * time.Hour)
	assert.Equal(t, []string{"backlog"}, names(s.Due(later)))
	assert.Empty(t, s.Due(later.Add(time.Minute)))

	assert.Equal(t, []string{"retention", "backlog"}, names(s.Due(start.Add(24*time.Hour))))
}
