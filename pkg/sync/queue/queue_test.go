package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/entrhq/scribe/pkg/docs"
	"github.com/entrhq/scribe/pkg/types"
)

// fakeTransport records submitted calls and fails the first failTimes of
// them with a transient error.
type fakeTransport struct {
	mu        sync.Mutex
	failTimes int
	failAll   bool
	delay     time.Duration
	calls     []recordedCall
}

type recordedCall struct {
	documentID string
	payloads   []docs.Request
}

var errTransport = errors.New("transport down")

func (f *fakeTransport) BatchUpdate(ctx context.Context, documentID string, requests []docs.Request) ([]docs.Reply, error) {
	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{documentID: documentID, payloads: requests})
	fail := f.failAll || f.failTimes > 0
	if f.failTimes > 0 {
		f.failTimes--
	}
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if fail {
		return nil, errTransport
	}
	return make([]docs.Reply, len(requests)), nil
}

func (f *fakeTransport) Get(ctx context.Context, documentID string) (*docs.Document, error) {
	return &docs.Document{DocumentID: documentID}, nil
}

func (f *fakeTransport) recordedCalls() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall{}, f.calls...)
}

func (f *fakeTransport) setFailAll(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAll = v
}

func newTestQueue(t *testing.T, transport docs.Service, opts Options) *Queue {
	t.Helper()
	t.Setenv("SCRIBE_LOG_DIR", t.TempDir())
	if opts.TickInterval == 0 {
		opts.TickInterval = 5 * time.Millisecond
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = 2 * time.Millisecond
	}
	return New(transport, opts)
}

func drain(t *testing.T, q *Queue) {
	t.Helper()
	if err := q.WaitForCompletion(context.Background(), 5*time.Second); err != nil {
		t.Fatalf("queue did not drain: %v", err)
	}
}

func TestEnqueueProcessesRequest(t *testing.T) {
	transport := &fakeTransport{}
	q := newTestQueue(t, transport, Options{})
	defer q.Stop()

	id := q.Enqueue(&MutationRequest{
		DocumentID: "doc-1",
		Payload:    docs.NewInsertText(0, "hello\n"),
	})
	if id == "" {
		t.Fatal("expected a generated request id")
	}

	drain(t, q)

	stats := q.Stats()
	if stats.Completed != 1 {
		t.Errorf("Completed = %d, want 1", stats.Completed)
	}
	if stats.Failed != 0 || stats.Pending != 0 || stats.InFlight != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestSameDocumentPayloadsSubmitAsOneOrderedCall(t *testing.T) {
	transport := &fakeTransport{}
	q := newTestQueue(t, transport, Options{})
	defer q.Stop()

	q.EnqueueBatch([]*MutationRequest{
		{DocumentID: "doc-1", Payload: docs.NewDeleteRange(7, 13)},
		{DocumentID: "doc-1", Payload: docs.NewInsertText(7, "Line C")},
		{DocumentID: "doc-1", Payload: docs.NewInsertText(14, "tail\n")},
	})

	drain(t, q)

	calls := transport.recordedCalls()
	if len(calls) != 1 {
		t.Fatalf("expected a single grouped call, got %d", len(calls))
	}
	if len(calls[0].payloads) != 3 {
		t.Fatalf("expected 3 payloads in the call, got %d", len(calls[0].payloads))
	}
	if calls[0].payloads[0].DeleteContentRange == nil {
		t.Error("expected the delete payload to stay first")
	}
	if calls[0].payloads[2].InsertText == nil || calls[0].payloads[2].InsertText.Text != "tail\n" {
		t.Error("expected insertion order preserved within the call")
	}
}

func TestDifferentDocumentsGroupSeparately(t *testing.T) {
	transport := &fakeTransport{}
	q := newTestQueue(t, transport, Options{})
	defer q.Stop()

	q.EnqueueBatch([]*MutationRequest{
		{DocumentID: "doc-a", Payload: docs.NewInsertText(0, "a")},
		{DocumentID: "doc-b", Payload: docs.NewInsertText(0, "b")},
		{DocumentID: "doc-a", Payload: docs.NewInsertText(1, "a2")},
	})

	drain(t, q)

	for _, call := range transport.recordedCalls() {
		if call.documentID != "doc-a" && call.documentID != "doc-b" {
			t.Errorf("unexpected document id %q", call.documentID)
		}
	}

	stats := q.Stats()
	if stats.Completed != 3 {
		t.Errorf("Completed = %d, want 3", stats.Completed)
	}
}

func TestBatchSizeCeilingSplitsCalls(t *testing.T) {
	transport := &fakeTransport{}
	q := newTestQueue(t, transport, Options{BatchSize: 2})
	defer q.Stop()

	reqs := make([]*MutationRequest, 5)
	for i := range reqs {
		reqs[i] = &MutationRequest{DocumentID: "doc-1", Payload: docs.NewInsertText(i, "x")}
	}
	q.EnqueueBatch(reqs)

	drain(t, q)

	calls := transport.recordedCalls()
	if len(calls) != 3 {
		t.Fatalf("expected 3 calls for 5 payloads at ceiling 2, got %d", len(calls))
	}
	for _, call := range calls {
		if len(call.payloads) > 2 {
			t.Errorf("call exceeded batch ceiling: %d payloads", len(call.payloads))
		}
	}
}

func TestFailingTransportExhaustsRetries(t *testing.T) {
	transport := &fakeTransport{failAll: true}
	q := newTestQueue(t, transport, Options{BatchSize: 1, MaxConcurrency: 1})
	defer q.Stop()

	const n = 3
	reqs := make([]*MutationRequest, n)
	for i := range reqs {
		reqs[i] = &MutationRequest{DocumentID: "doc-1", Payload: docs.NewInsertText(i, "x")}
	}
	q.EnqueueBatch(reqs)

	drain(t, q)

	stats := q.Stats()
	if stats.Failed != n {
		t.Fatalf("Failed = %d, want %d", stats.Failed, n)
	}
	if stats.Completed != 0 {
		t.Errorf("Completed = %d, want 0", stats.Completed)
	}

	q.mu.Lock()
	for _, r := range q.failed {
		if r.RetryCount != r.MaxRetries {
			t.Errorf("RetryCount = %d, want %d", r.RetryCount, r.MaxRetries)
		}
		if !errors.Is(r.Err, errTransport) {
			t.Errorf("Err = %v, want transport error", r.Err)
		}
	}
	q.mu.Unlock()
}

func TestRetryFailedAfterTransportRecovers(t *testing.T) {
	transport := &fakeTransport{failAll: true}
	q := newTestQueue(t, transport, Options{BatchSize: 1, MaxConcurrency: 1})
	defer q.Stop()

	q.Enqueue(&MutationRequest{DocumentID: "doc-1", Payload: docs.NewInsertText(0, "x")})
	drain(t, q)

	if stats := q.Stats(); stats.Failed != 1 {
		t.Fatalf("Failed = %d, want 1", stats.Failed)
	}

	transport.setFailAll(false)
	if moved := q.RetryFailed(); moved != 1 {
		t.Fatalf("RetryFailed moved %d, want 1", moved)
	}

	drain(t, q)

	stats := q.Stats()
	if stats.Completed != 1 || stats.Failed != 0 {
		t.Fatalf("unexpected stats after recovery: %+v", stats)
	}

	q.mu.Lock()
	if got := q.completed[0].RetryCount; got != 0 {
		t.Errorf("RetryCount = %d, want 0 after reset and clean retry", got)
	}
	q.mu.Unlock()
}

func TestTransientFailureRetriesThenCompletes(t *testing.T) {
	transport := &fakeTransport{failTimes: 1}
	q := newTestQueue(t, transport, Options{})
	defer q.Stop()

	q.Enqueue(&MutationRequest{DocumentID: "doc-1", Payload: docs.NewInsertText(0, "x")})
	drain(t, q)

	stats := q.Stats()
	if stats.Completed != 1 {
		t.Fatalf("Completed = %d, want 1", stats.Completed)
	}

	q.mu.Lock()
	r := q.completed[0]
	q.mu.Unlock()
	if r.RetryCount != 1 {
		t.Errorf("RetryCount = %d, want 1", r.RetryCount)
	}
	if r.Priority != -1 {
		t.Errorf("Priority = %d, want -1 after one retry penalty", r.Priority)
	}
}

func TestPrioritizeDequeuesFirst(t *testing.T) {
	transport := &fakeTransport{}
	q := newTestQueue(t, transport, Options{
		BatchSize:      1,
		MaxConcurrency: 1,
		TickInterval:   25 * time.Millisecond,
	})
	defer q.Stop()

	ids := q.EnqueueBatch([]*MutationRequest{
		{DocumentID: "doc-1", Payload: docs.NewInsertText(0, "a")},
		{DocumentID: "doc-1", Payload: docs.NewInsertText(1, "b")},
		{DocumentID: "doc-1", Payload: docs.NewInsertText(2, "c")},
	})

	if !q.Prioritize(ids[2]) {
		t.Fatal("Prioritize should succeed for a pending request")
	}

	drain(t, q)

	calls := transport.recordedCalls()
	if len(calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(calls))
	}
	want := []string{"c", "a", "b"}
	for i, call := range calls {
		if got := call.payloads[0].InsertText.Text; got != want[i] {
			t.Errorf("call %d submitted %q, want %q", i, got, want[i])
		}
	}
}

func TestCancelPendingRequest(t *testing.T) {
	transport := &fakeTransport{}
	// An hour-long tick keeps requests pending for the duration of the test.
	q := newTestQueue(t, transport, Options{TickInterval: time.Hour})
	defer q.Stop()

	ids := q.EnqueueBatch([]*MutationRequest{
		{DocumentID: "doc-1", Payload: docs.NewInsertText(0, "a")},
		{DocumentID: "doc-1", Payload: docs.NewInsertText(1, "b")},
	})

	if !q.Cancel(ids[0]) {
		t.Error("Cancel should succeed for a pending request")
	}
	if q.Cancel("no-such-id") {
		t.Error("Cancel should fail for an unknown id")
	}
	if q.Cancel(ids[0]) {
		t.Error("Cancel should fail the second time")
	}

	if stats := q.Stats(); stats.Pending != 1 {
		t.Errorf("Pending = %d, want 1", stats.Pending)
	}
}

func TestPrioritizeLeftPendingSetReturnsFalse(t *testing.T) {
	transport := &fakeTransport{}
	q := newTestQueue(t, transport, Options{})
	defer q.Stop()

	id := q.Enqueue(&MutationRequest{DocumentID: "doc-1", Payload: docs.NewInsertText(0, "x")})
	drain(t, q)

	if q.Prioritize(id) {
		t.Error("Prioritize should fail once the request left the pending set")
	}
	if q.Cancel(id) {
		t.Error("Cancel should fail once the request left the pending set")
	}
}

func TestExecuteBatchReturnsOrderedResults(t *testing.T) {
	transport := &fakeTransport{}
	q := newTestQueue(t, transport, Options{})
	defer q.Stop()

	results, err := q.ExecuteBatch(context.Background(), "doc-1", []docs.Request{
		docs.NewInsertText(0, "first"),
		docs.NewInsertText(5, "second"),
	})
	if err != nil {
		t.Fatalf("ExecuteBatch failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for i, res := range results {
		if res.Err != nil {
			t.Errorf("result %d has error: %v", i, res.Err)
		}
		if res.Reply == nil {
			t.Errorf("result %d missing reply", i)
		}
	}
}

func TestExecuteBatchReportsPerPayloadFailures(t *testing.T) {
	transport := &fakeTransport{failAll: true}
	q := newTestQueue(t, transport, Options{})
	defer q.Stop()

	results, err := q.ExecuteBatch(context.Background(), "doc-1", []docs.Request{
		docs.NewInsertText(0, "x"),
	})
	if err != nil {
		t.Fatalf("ExecuteBatch itself should not fail: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if !errors.Is(results[0].Err, errTransport) {
		t.Errorf("result error = %v, want transport error", results[0].Err)
	}
}

func TestExecuteBatchHonorsContextWhenStopped(t *testing.T) {
	transport := &fakeTransport{}
	q := newTestQueue(t, transport, Options{TickInterval: time.Hour})

	q.Stop() // loop idle; the enqueued work will never run

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := q.ExecuteBatch(ctx, "doc-1", []docs.Request{docs.NewInsertText(0, "x")})
	if err == nil {
		t.Fatal("expected a context error when the queue cannot make progress")
	}
	q.Stop()
}

func TestExecuteBatchReturnsErrStoppedWithoutDeadline(t *testing.T) {
	transport := &fakeTransport{}
	// A huge tick keeps the batch pending until Stop strands it.
	q := newTestQueue(t, transport, Options{TickInterval: time.Hour})

	errCh := make(chan error, 1)
	go func() {
		_, err := q.ExecuteBatch(context.Background(), "doc-1", []docs.Request{docs.NewInsertText(0, "x")})
		errCh <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for q.Stats().Pending == 0 {
		if time.Now().After(deadline) {
			t.Fatal("batch never reached the pending queue")
		}
		time.Sleep(time.Millisecond)
	}
	q.Stop()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrStopped) {
			t.Fatalf("err = %v, want ErrStopped", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ExecuteBatch kept waiting after the queue stopped")
	}
}

func TestWaitForCompletionTimeout(t *testing.T) {
	transport := &fakeTransport{delay: 300 * time.Millisecond}
	q := newTestQueue(t, transport, Options{})
	defer func() {
		drain(t, q)
		q.Stop()
	}()

	q.Enqueue(&MutationRequest{DocumentID: "doc-1", Payload: docs.NewInsertText(0, "x")})

	err := q.WaitForCompletion(context.Background(), 20*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestClearCompletedResetsReporting(t *testing.T) {
	transport := &fakeTransport{}
	q := newTestQueue(t, transport, Options{})
	defer q.Stop()

	q.Enqueue(&MutationRequest{DocumentID: "doc-1", Payload: docs.NewInsertText(0, "x")})
	drain(t, q)

	q.ClearCompleted()
	if stats := q.Stats(); stats.Completed != 0 || stats.TotalProcessed != 0 {
		t.Errorf("unexpected stats after clear: %+v", stats)
	}
}

func TestQueueEmitsLifecycleEvents(t *testing.T) {
	transport := &fakeTransport{failTimes: 1}
	q := newTestQueue(t, transport, Options{})
	defer q.Stop()

	var mu sync.Mutex
	seen := map[types.SyncEventType]int{}
	q.Subscribe(func(ev *types.SyncEvent) {
		mu.Lock()
		seen[ev.Type]++
		mu.Unlock()
	})

	q.Enqueue(&MutationRequest{DocumentID: "doc-1", Payload: docs.NewInsertText(0, "x")})
	drain(t, q)

	mu.Lock()
	defer mu.Unlock()
	if seen[types.EventTypeRequestEnqueued] != 1 {
		t.Errorf("enqueued events = %d, want 1", seen[types.EventTypeRequestEnqueued])
	}
	if seen[types.EventTypeRequestRetried] != 1 {
		t.Errorf("retried events = %d, want 1", seen[types.EventTypeRequestRetried])
	}
	if seen[types.EventTypeRequestCompleted] != 1 {
		t.Errorf("completed events = %d, want 1", seen[types.EventTypeRequestCompleted])
	}
	if seen[types.EventTypeBatchStarted] != 2 {
		t.Errorf("batch started events = %d, want 2", seen[types.EventTypeBatchStarted])
	}
	if seen[types.EventTypeBatchCompleted] != 2 {
		t.Errorf("batch completed events = %d, want 2", seen[types.EventTypeBatchCompleted])
	}
}
