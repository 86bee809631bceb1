package jobs

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name     string
	schedule string
	runs     atomic.Int32
	block    chan struct{}
	once     sync.Once
	started  chan struct{}
}

func (c *countingJob) Name() string     { return c.name }
func (c *countingJob) Schedule() string { return c.schedule }

func (c *countingJob) Run() {
	c.runs.Add(1)
	if c.block != nil {
		c.once.Do(func() { close(c.started) })
		<-c.block
	}
}

func TestTaskExecutor_InvalidSchedule(t *testing.T) {
	executor := NewTaskExecutor(nil, []CronJob{&countingJob{name: "bad", schedule: "not a schedule"}})
	assert.Error(t, executor.Run())
}

func TestTaskExecutor_RunsCronJobs(t *testing.T) {
	job := &countingJob{name: "tick", schedule: "@every 1s"}
	executor := NewTaskExecutor(nil, []CronJob{job})
	require.NoError(t, executor.Run())
	defer executor.Stop()

	assert.Eventually(t, func() bool { return job.runs.Load() > 0 }, 5*time.Second, 50*time.Millisecond)
}

func TestTaskExecutor_SkipsOverlappingRuns(t *testing.T) {
	job := &countingJob{name: "slow", schedule: "@every 1s", block: make(chan struct{}), started: make(chan struct{})}
	executor := NewTaskExecutor(nil, []CronJob{job})

	run := executor.guard(job, &executor.muCronJobs, executor.runningCronJobs)
	done := make(chan struct{})
	go func() {
		run()
		close(done)
	}()
	<-job.started

	// a second tick while the first run is in progress is dropped
	run()
	assert.Equal(t, int32(1), job.runs.Load())

	close(job.block)
	<-done

	assert.False(t, executor.runningCronJobs.Contains("slow"))
}
