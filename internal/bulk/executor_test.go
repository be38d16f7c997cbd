package bulk

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/onwhisper/guild-pulse/internal/logging"
	"github.com/onwhisper/guild-pulse/internal/metrics"
	"github.com/onwhisper/guild-pulse/internal/remote"
	"github.com/onwhisper/guild-pulse/pkg/config"
)

type fakeRemote struct {
	mu          sync.Mutex
	batchCalls  [][]string
	deleteCalls []string
	batchErrs   []error            // consumed one per BatchDelete call; nil entry = success
	deleteErrs  map[string][]error // consumed one per Delete call for that id
}

func (f *fakeRemote) Snapshot(ctx context.Context, guildID string) (remote.Population, error) {
	return remote.Population{}, nil
}

func (f *fakeRemote) BatchDelete(ctx context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls = append(f.batchCalls, append([]string(nil), ids...))
	if len(f.batchErrs) > 0 {
		err := f.batchErrs[0]
		f.batchErrs = f.batchErrs[1:]
		return err
	}
	return nil
}

func (f *fakeRemote) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, id)
	if errs := f.deleteErrs[id]; len(errs) > 0 {
		err := errs[0]
		f.deleteErrs[id] = errs[1:]
		return err
	}
	return nil
}

func testExecutor(client remote.Client) (*Executor, *metrics.Pipeline) {
	stats := &metrics.Pipeline{}
	cfg := config.BulkConfig{
		GroupSize:  50,
		GroupPause: time.Millisecond,
		BaseDelay:  time.Millisecond,
		DelayCap:   5 * time.Millisecond,
	}
	logger := logging.NewLogger(logging.ErrorLevel, io.Discard)
	return NewExecutor(client, cfg, logger, stats), stats
}

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("m%d", i)
	}
	return out
}

func TestRunAllBatched(t *testing.T) {
	client := &fakeRemote{}
	exec, stats := testExecutor(client)

	count, err := exec.Run(context.Background(), ids(120))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if count != 120 {
		t.Fatalf("count = %d, want 120", count)
	}
	if len(client.batchCalls) != 3 {
		t.Fatalf("batch calls = %d, want 3", len(client.batchCalls))
	}
	sizes := []int{len(client.batchCalls[0]), len(client.batchCalls[1]), len(client.batchCalls[2])}
	if sizes[0] != 50 || sizes[1] != 50 || sizes[2] != 20 {
		t.Errorf("group sizes = %v, want [50 50 20]", sizes)
	}
	if len(client.deleteCalls) != 0 {
		t.Errorf("individual calls = %d, want 0", len(client.deleteCalls))
	}
	if stats.Purged.Load() != 120 {
		t.Errorf("purged counter = %d, want 120", stats.Purged.Load())
	}
}

func TestRunStaleBatchFallsThrough(t *testing.T) {
	client := &fakeRemote{batchErrs: []error{remote.StaleBatch()}}
	exec, _ := testExecutor(client)

	count, err := exec.Run(context.Background(), ids(10))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if count != 10 {
		t.Fatalf("count = %d, want 10", count)
	}
	if len(client.batchCalls) != 1 {
		t.Errorf("batch calls = %d, want 1", len(client.batchCalls))
	}
	if len(client.deleteCalls) != 10 {
		t.Errorf("individual calls = %d, want 10", len(client.deleteCalls))
	}
}

func TestRunStaleBatchMidway(t *testing.T) {
	// first group succeeds, second is no longer batch-eligible
	client := &fakeRemote{batchErrs: []error{nil, remote.StaleBatch()}}
	exec, _ := testExecutor(client)

	count, err := exec.Run(context.Background(), ids(120))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if count != 120 {
		t.Fatalf("count = %d, want 120", count)
	}
	if len(client.batchCalls) != 2 {
		t.Errorf("batch calls = %d, want 2", len(client.batchCalls))
	}
	if len(client.deleteCalls) != 70 {
		t.Errorf("individual calls = %d, want 70", len(client.deleteCalls))
	}
}

func TestRunThrottledGroupDeferred(t *testing.T) {
	// group 1 is throttled, group 2 succeeds; group 1's items are
	// retried individually, never double-counted
	client := &fakeRemote{batchErrs: []error{remote.Throttled(time.Millisecond), nil}}
	exec, _ := testExecutor(client)

	count, err := exec.Run(context.Background(), ids(100))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if count != 100 {
		t.Fatalf("count = %d, want 100", count)
	}
	if len(client.batchCalls) != 2 {
		t.Errorf("batch calls = %d, want 2", len(client.batchCalls))
	}
	if len(client.deleteCalls) != 50 {
		t.Errorf("individual calls = %d, want 50", len(client.deleteCalls))
	}
}

func TestRunPermissionDeniedAborts(t *testing.T) {
	client := &fakeRemote{
		batchErrs:  []error{remote.StaleBatch()},
		deleteErrs: map[string][]error{"m7": {remote.PermissionDenied()}},
	}
	exec, _ := testExecutor(client)

	count, err := exec.Run(context.Background(), ids(20))
	if err == nil {
		t.Fatal("Run should surface the permission error")
	}
	if !remote.IsPermissionDenied(err) {
		t.Errorf("error not classified as permission denial: %v", err)
	}
	if count != 7 {
		t.Fatalf("count = %d, want 7 successes before the abort", count)
	}
}

func TestRunNotFoundSkipped(t *testing.T) {
	client := &fakeRemote{
		batchErrs:  []error{remote.StaleBatch()},
		deleteErrs: map[string][]error{"m2": {remote.NotFound("m2")}},
	}
	exec, _ := testExecutor(client)

	count, err := exec.Run(context.Background(), ids(5))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if count != 4 {
		t.Fatalf("count = %d, want 4 (already-gone item not counted)", count)
	}
}

func TestRunThrottledItemRetried(t *testing.T) {
	client := &fakeRemote{
		batchErrs:  []error{remote.StaleBatch()},
		deleteErrs: map[string][]error{"m1": {remote.Throttled(time.Millisecond)}},
	}
	exec, _ := testExecutor(client)

	count, err := exec.Run(context.Background(), ids(3))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
	if len(client.deleteCalls) != 4 {
		t.Errorf("individual calls = %d, want 4 (one retry)", len(client.deleteCalls))
	}
}

func TestRunFatalBatchErrorPropagates(t *testing.T) {
	client := &fakeRemote{batchErrs: []error{nil, fmt.Errorf("gateway exploded")}}
	exec, _ := testExecutor(client)

	count, err := exec.Run(context.Background(), ids(100))
	if err == nil {
		t.Fatal("Run should propagate the fatal error")
	}
	if count != 50 {
		t.Fatalf("count = %d, want 50 confirmed before the failure", count)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &fakeRemote{}
	exec, _ := testExecutor(client)

	_, err := exec.Run(ctx, ids(100))
	if err == nil {
		t.Fatal("Run should report cancellation")
	}
}
