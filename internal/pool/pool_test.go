package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/corerun/orchestrator/internal/chatclient/chatclienttest"
	"github.com/corerun/orchestrator/internal/orchtypes"
)

func tasks(n int) []orchtypes.AssistantTask {
	out := make([]orchtypes.AssistantTask, n)
	for i := range out {
		out[i] = orchtypes.AssistantTask{ID: orchtypes.NewTaskID(), Title: "t", Prompt: "p", Priority: i, Status: orchtypes.TaskQueued}
	}
	return out
}

func TestExecuteTasksPreservesSubmissionOrder(t *testing.T) {
	fake := chatclienttest.New()
	// Higher priority number completes "faster" by scripting distinct delays
	// implicitly via differing response sizes; order must still match input.
	ts := []orchtypes.AssistantTask{
		{ID: "a", Title: "A", Prompt: "p", Priority: 2},
		{ID: "b", Title: "B", Prompt: "p", Priority: 0},
		{ID: "c", Title: "C", Prompt: "p", Priority: 1},
	}
	fake.Responder = func(sessionID, prompt string) (string, error) { return "ok", nil }

	p := New(fake, nil)
	results := p.ExecuteTasks(context.Background(), ts, Config{MaxAssistants: 3, AssistantTimeoutSecs: 5})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	want := []string{"a", "b", "c"}
	for i, r := range results {
		if r.TaskID != want[i] {
			t.Fatalf("result %d: expected task id %s, got %s", i, want[i], r.TaskID)
		}
	}
}

func TestExecuteTasksRespectsConcurrencyBound(t *testing.T) {
	fake := chatclienttest.New()
	ts := tasks(6)

	var current int32
	var maxSeen int32
	fake.Responder = func(sessionID, prompt string) (string, error) {
		n := atomic.AddInt32(&current, 1)
		for {
			old := atomic.LoadInt32(&maxSeen)
			if n <= old || atomic.CompareAndSwapInt32(&maxSeen, old, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&current, -1)
		return "ok", nil
	}

	p := New(fake, nil)
	p.ExecuteTasks(context.Background(), ts, Config{MaxAssistants: 2, AssistantTimeoutSecs: 5})

	if atomic.LoadInt32(&maxSeen) > 2 {
		t.Fatalf("observed more than 2 concurrent workers: %d", maxSeen)
	}
}

func TestExecuteTasksCancellation(t *testing.T) {
	fake := chatclienttest.New()
	ts := tasks(3)
	fake.Responder = func(sessionID, prompt string) (string, error) {
		time.Sleep(500 * time.Millisecond)
		return "ok", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := New(fake, nil)

	var wg sync.WaitGroup
	var results []orchtypes.AssistantResult
	wg.Add(1)
	go func() {
		defer wg.Done()
		results = p.ExecuteTasks(ctx, ts, Config{MaxAssistants: 1, AssistantTimeoutSecs: 60})
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()
	wg.Wait()

	for _, r := range results {
		if r.Success {
			t.Fatalf("expected all results to fail after cancellation, got success for %s", r.TaskID)
		}
		if r.ErrorMessage != "Task was cancelled" {
			t.Fatalf("expected 'Task was cancelled', got %q", r.ErrorMessage)
		}
	}
	if fake.ActiveSessionCount() != 0 {
		t.Fatalf("expected no active sessions after cancellation, got %d", fake.ActiveSessionCount())
	}
}

