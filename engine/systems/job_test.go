package systems

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

func TestNewJobSystemValidation(t *testing.T) {
	tests := []struct {
		name   string
		config JobSystemConfig
		want   error
	}{
		{"no workers", JobSystemConfig{WorkerCount: 0}, ErrNoWorkers},
		{"negative queue", JobSystemConfig{WorkerCount: 1, QueueSize: -1}, ErrNegativeChannelSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewJobSystem(&tt.config); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestJobSystemCallbacksRunOnUpdate(t *testing.T) {
	js := newTestJobSystem(t, 2)

	var results []int
	var failures []error
	boom := errors.New("boom")
	for i := 0; i < 4; i++ {
		err := js.Submit(metadata.JobTask{
			Priority:    metadata.JOB_PRIORITY_NORMAL,
			InputParams: i,
			OnStart: func(params interface{}, out chan<- interface{}) error {
				n := params.(int)
				if n == 3 {
					return boom
				}
				out <- n * 10
				return nil
			},
			OnComplete: func(result interface{}) {
				results = append(results, result.(int))
			},
			OnFailure: func(err error) {
				failures = append(failures, err)
			},
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	if err := js.Wait(5 * time.Second); err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %v", results)
	}
	sum := 0
	for _, r := range results {
		sum += r
	}
	if sum != 30 {
		t.Errorf("unexpected results %v", results)
	}
	if len(failures) != 1 || !errors.Is(failures[0], boom) {
		t.Errorf("unexpected failures %v", failures)
	}
	if js.Pending() != 0 {
		t.Errorf("pending = %d", js.Pending())
	}
}

func TestJobSystemPriorityOrder(t *testing.T) {
	js := newTestJobSystem(t, 1)

	gate := make(chan struct{})
	started := make(chan struct{})
	var mu sync.Mutex
	var order []metadata.JobPriority

	err := js.Submit(metadata.JobTask{
		Priority: metadata.JOB_PRIORITY_HIGH,
		OnStart: func(params interface{}, out chan<- interface{}) error {
			close(started)
			<-gate
			return nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	<-started

	record := func(p metadata.JobPriority) metadata.JobTask {
		return metadata.JobTask{
			Priority: p,
			OnStart: func(params interface{}, out chan<- interface{}) error {
				mu.Lock()
				order = append(order, p)
				mu.Unlock()
				return nil
			},
		}
	}
	for _, p := range []metadata.JobPriority{metadata.JOB_PRIORITY_LOW, metadata.JOB_PRIORITY_NORMAL, metadata.JOB_PRIORITY_HIGH} {
		if err := js.Submit(record(p)); err != nil {
			t.Fatal(err)
		}
	}
	close(gate)

	if err := js.Wait(5 * time.Second); err != nil {
		t.Fatal(err)
	}
	want := []metadata.JobPriority{metadata.JOB_PRIORITY_HIGH, metadata.JOB_PRIORITY_NORMAL, metadata.JOB_PRIORITY_LOW}
	mu.Lock()
	defer mu.Unlock()
	for i := range want {
		if i >= len(order) || order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestJobSystemSubmitErrors(t *testing.T) {
	js, err := NewJobSystem(&JobSystemConfig{WorkerCount: 1})
	if err != nil {
		t.Fatal(err)
	}
	noop := func(params interface{}, out chan<- interface{}) error { return nil }

	if err := js.Submit(metadata.JobTask{}); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("missing OnStart: got %v", err)
	}
	if err := js.Submit(metadata.JobTask{Priority: 7, OnStart: noop}); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("bad priority: got %v", err)
	}
	if err := js.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := js.Shutdown(); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}
	if err := js.Submit(metadata.JobTask{OnStart: noop}); !errors.Is(err, ErrJobSystemClosed) {
		t.Errorf("after shutdown: got %v", err)
	}
}

func TestJobSystemWaitTimeout(t *testing.T) {
	js := newTestJobSystem(t, 1)
	gate := make(chan struct{})
	defer close(gate)

	err := js.Submit(metadata.JobTask{
		OnStart: func(params interface{}, out chan<- interface{}) error {
			<-gate
			return nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := js.Wait(10 * time.Millisecond); !errors.Is(err, ErrJobTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}
