package systems

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/anima/engine/containers"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")
var ErrJobSystemClosed = errors.New("job system is shut down")
var ErrJobTimeout = errors.New("timed out waiting for jobs")

type JobSystemConfig struct {
	WorkerCount int
	// QueueSize is the buffer of each priority queue.
	QueueSize int
	// MaxCompleted bounds the number of finished jobs awaiting Update.
	MaxCompleted int
}

type completedJob struct {
	task   metadata.JobTask
	result interface{}
	err    error
}

/**
 * @brief Runs OnStart on a pool of worker goroutines. OnComplete and
 * OnFailure are deferred to Update so they run on the calling thread,
 * which is where backend uploads must happen.
 */
type JobSystem struct {
	numWorkers int
	queues     [3]chan metadata.JobTask
	completed  *containers.RingQueue[completedJob]
	pending    atomic.Int64
	quit       chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

func NewJobSystem(config *JobSystemConfig) (*JobSystem, error) {
	if config.WorkerCount <= 0 {
		return nil, ErrNoWorkers
	}
	if config.QueueSize < 0 {
		return nil, ErrNegativeChannelSize
	}
	maxCompleted := config.MaxCompleted
	if maxCompleted <= 0 {
		maxCompleted = 256
	}

	js := &JobSystem{
		numWorkers: config.WorkerCount,
		completed:  containers.NewRingQueue[completedJob](maxCompleted),
		quit:       make(chan struct{}),
	}
	for i := range js.queues {
		js.queues[i] = make(chan metadata.JobTask, config.QueueSize)
	}

	js.start()
	core.LogDebug("job system started with %d workers", js.numWorkers)

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for {
				job, ok := js.next()
				if !ok {
					return
				}
				if !js.run(job) {
					return
				}
			}
		}()
	}
}

// next picks the highest priority job available.
func (js *JobSystem) next() (metadata.JobTask, bool) {
	high := js.queues[metadata.JOB_PRIORITY_HIGH]
	normal := js.queues[metadata.JOB_PRIORITY_NORMAL]
	low := js.queues[metadata.JOB_PRIORITY_LOW]

	select {
	case job := <-high:
		return job, true
	default:
	}
	select {
	case job := <-high:
		return job, true
	case job := <-normal:
		return job, true
	default:
	}
	select {
	case job := <-high:
		return job, true
	case job := <-normal:
		return job, true
	case job := <-low:
		return job, true
	case <-js.quit:
		return metadata.JobTask{}, false
	}
}

func (js *JobSystem) run(job metadata.JobTask) bool {
	out := make(chan interface{}, 1)
	err := job.OnStart(job.InputParams, out)
	var result interface{}
	select {
	case result = <-out:
	default:
	}
	if err != nil {
		core.LogError("job failed: %s", err)
	}

	done := completedJob{task: job, result: result, err: err}
	for {
		err := js.completed.Enqueue(done)
		if err == nil {
			return true
		}
		if !errors.Is(err, containers.ErrQueueFull) {
			core.LogError("job system: %s", err)
			return true
		}
		// Wait for Update to make room.
		select {
		case <-js.quit:
			return false
		case <-time.After(time.Millisecond):
		}
	}
}

/**
 * @brief Shuts the job system down. Queued jobs that have not started are dropped.
 */
func (js *JobSystem) Shutdown() error {
	js.closeOnce.Do(func() {
		close(js.quit)
	})
	js.wg.Wait()
	return nil
}

/**
 * @brief Updates the job system. Should happen once an update cycle.
 * Runs the callbacks of every finished job and returns how many ran.
 */
func (js *JobSystem) Update() int {
	count := 0
	for {
		done, err := js.completed.Dequeue()
		if err != nil {
			return count
		}
		if done.err != nil {
			if done.task.OnFailure != nil {
				done.task.OnFailure(done.err)
			}
		} else if done.task.OnComplete != nil {
			done.task.OnComplete(done.result)
		}
		js.pending.Add(-1)
		count++
	}
}

// Pending is the number of submitted jobs whose callbacks have not run yet.
func (js *JobSystem) Pending() int {
	return int(js.pending.Load())
}

// Wait calls Update until every submitted job has been handled.
func (js *JobSystem) Wait(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		js.Update()
		if js.Pending() == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%d jobs outstanding: %w", js.Pending(), ErrJobTimeout)
		}
		time.Sleep(time.Millisecond)
	}
}

/**
 * @brief Submits the provided job to be queued for execution. Blocks while
 * the priority queue is full.
 * @param jt The description of the job to be executed.
 */
func (js *JobSystem) Submit(jt metadata.JobTask) error {
	if jt.OnStart == nil {
		return fmt.Errorf("job without OnStart: %w", core.ErrInvalidArgument)
	}
	if jt.Priority < metadata.JOB_PRIORITY_LOW || jt.Priority > metadata.JOB_PRIORITY_HIGH {
		return fmt.Errorf("job priority %d: %w", jt.Priority, core.ErrInvalidArgument)
	}
	select {
	case <-js.quit:
		return ErrJobSystemClosed
	default:
	}

	js.pending.Add(1)
	select {
	case js.queues[jt.Priority] <- jt:
		return nil
	case <-js.quit:
		js.pending.Add(-1)
		return ErrJobSystemClosed
	}
}
