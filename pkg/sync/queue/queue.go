// Package queue turns a stream of individually-submitted mutation intents
// into correctly-ordered, size-bounded, concurrency-bounded calls against the
// remote document service, with automatic retry and observable progress.
//
// The executor is driven by a recurring ticker owned by the queue instance,
// so the submission cadence is decoupled from remote call latency and
// multiple queues never interfere through shared process-wide timers.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/scribe/pkg/docs"
	"github.com/entrhq/scribe/pkg/logging"
	"github.com/entrhq/scribe/pkg/types"
)

const (
	// DefaultBatchSize is the per-call payload ceiling imposed by the
	// document service.
	DefaultBatchSize = 500

	// DefaultMaxConcurrency bounds concurrent in-flight calls. Raising it
	// trades remote-side rate-limit risk for throughput.
	DefaultMaxConcurrency = 10

	// DefaultMaxRetries is how many times a request is re-enqueued after a
	// transient failure before it becomes terminal-failed.
	DefaultMaxRetries = 3

	// DefaultTickInterval drives the executor loop.
	DefaultTickInterval = 100 * time.Millisecond

	// DefaultPollInterval bounds the completion polling in ExecuteBatch and
	// WaitForCompletion.
	DefaultPollInterval = 25 * time.Millisecond
)

// ErrTimeout is returned by WaitForCompletion when the queue does not drain
// within the allotted time. Queue state is left untouched.
var ErrTimeout = errors.New("timed out waiting for queue to drain")

// ErrStopped is returned by ExecuteBatch when the queue was stopped while
// batch members were still pending, so they can never reach a terminal state.
var ErrStopped = errors.New("queue stopped")

// MutationRequest is one pending primitive edit against a document. The
// queue exclusively owns the lifecycle of a request once accepted; producers
// may only request cancellation by id.
type MutationRequest struct {
	// ID uniquely identifies the request. Generated when left empty.
	ID string

	// DocumentID is the target document.
	DocumentID string

	// Payload is the primitive edit operation submitted to the service.
	Payload docs.Request

	// Priority orders dequeuing: higher runs sooner. Defaults to 0.
	Priority int

	// RetryCount is how many times the request has been re-enqueued.
	RetryCount int

	// MaxRetries caps RetryCount before the request fails terminally.
	// Defaults to DefaultMaxRetries.
	MaxRetries int

	// Reply holds the per-payload response once the request completes.
	Reply *docs.Reply

	// Err holds the last error for retried or terminally failed requests.
	Err error
}

// Stats is a consistent snapshot of the queue's partitions.
type Stats struct {
	Pending        int
	InFlight       int
	Completed      int
	Failed         int
	TotalProcessed int
}

// BatchResult reports the terminal fate of one payload submitted through
// ExecuteBatch, in the original payload order.
type BatchResult struct {
	RequestID string
	Reply     *docs.Reply
	Err       error
}

// Options configures a Queue.
type Options struct {
	// BatchSize caps payloads per call. Default: DefaultBatchSize.
	BatchSize int
	// MaxConcurrency caps concurrent in-flight calls. Default: DefaultMaxConcurrency.
	MaxConcurrency int
	// TickInterval drives the executor loop. Default: DefaultTickInterval.
	TickInterval time.Duration
	// PollInterval bounds completion polling. Default: DefaultPollInterval.
	PollInterval time.Duration
	// Logger overrides the component logger.
	Logger *logging.Logger
}

func (o *Options) defaults() {
	if o.BatchSize <= 0 || o.BatchSize > DefaultBatchSize {
		o.BatchSize = DefaultBatchSize
	}
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = DefaultMaxConcurrency
	}
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Logger == nil {
		o.Logger, _ = logging.NewLogger("queue")
	}
}

// Queue is the mutation queue and executor.
type Queue struct {
	mu            sync.Mutex
	opts          Options
	transport     docs.Service
	pending       []*MutationRequest
	inFlight      map[string]*MutationRequest
	completed     []*MutationRequest
	failed        []*MutationRequest
	inFlightCalls int
	running       bool
	stopCh        chan struct{}
	subscribers   []types.Subscriber
	wg            sync.WaitGroup
}

// New creates a queue submitting through the given transport.
func New(transport docs.Service, opts Options) *Queue {
	opts.defaults()
	return &Queue{
		opts:      opts,
		transport: transport,
		inFlight:  make(map[string]*MutationRequest),
	}
}

// Subscribe registers a callback for queue events. Callbacks are invoked
// inline and must not block.
func (q *Queue) Subscribe(sub types.Subscriber) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.subscribers = append(q.subscribers, sub)
}

func (q *Queue) emit(events ...*types.SyncEvent) {
	q.mu.Lock()
	subs := append([]types.Subscriber{}, q.subscribers...)
	q.mu.Unlock()

	for _, ev := range events {
		for _, sub := range subs {
			sub(ev)
		}
	}
}

// Enqueue accepts a request into the pending partition, applying defaults,
// and starts the executor loop if it is idle. Returns the request id.
func (q *Queue) Enqueue(req *MutationRequest) string {
	q.mu.Lock()
	q.acceptLocked(req)
	q.startLocked()
	q.mu.Unlock()

	q.emit(types.NewRequestEnqueuedEvent(req.DocumentID, req.ID))
	return req.ID
}

// EnqueueBatch accepts multiple requests, preserving their order as the
// insertion-order tie-break within equal priorities.
func (q *Queue) EnqueueBatch(reqs []*MutationRequest) []string {
	ids := make([]string, 0, len(reqs))
	events := make([]*types.SyncEvent, 0, len(reqs))

	q.mu.Lock()
	for _, req := range reqs {
		q.acceptLocked(req)
		ids = append(ids, req.ID)
		events = append(events, types.NewRequestEnqueuedEvent(req.DocumentID, req.ID))
	}
	if len(reqs) > 0 {
		q.startLocked()
	}
	q.mu.Unlock()

	q.emit(events...)
	return ids
}

func (q *Queue) acceptLocked(req *MutationRequest) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.MaxRetries <= 0 {
		req.MaxRetries = DefaultMaxRetries
	}
	q.pending = append(q.pending, req)
}

// ExecuteBatch wraps each payload in a generated request, enqueues them all,
// and returns once every member has reached a terminal state, reporting one
// result per payload in the original order. Cancelling ctx abandons the wait
// (the queue keeps working). If the queue is stopped while members are still
// pending the wait ends with ErrStopped instead of blocking forever.
func (q *Queue) ExecuteBatch(ctx context.Context, documentID string, payloads []docs.Request) ([]BatchResult, error) {
	if documentID == "" {
		return nil, fmt.Errorf("document id is required")
	}
	if len(payloads) == 0 {
		return []BatchResult{}, nil
	}

	reqs := make([]*MutationRequest, len(payloads))
	for i, p := range payloads {
		reqs[i] = &MutationRequest{DocumentID: documentID, Payload: p}
	}
	ids := q.EnqueueBatch(reqs)

	ticker := time.NewTicker(q.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("abandoned waiting for batch: %w", ctx.Err())
		case <-ticker.C:
			results, done := q.collectResults(ids)
			if done {
				return results, nil
			}
			if q.stalled(ids) {
				return nil, fmt.Errorf("abandoned waiting for batch: %w", ErrStopped)
			}
		}
	}
}

// stalled reports whether any of the given ids is stuck pending with no
// dispatch loop left to drain it. The loop only exits on its own once pending
// and in-flight are both empty, so a stopped loop with a pending member means
// an external Stop.
func (q *Queue) stalled(ids []string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return false
	}
	for _, id := range ids {
		for _, r := range q.pending {
			if r.ID == id {
				return true
			}
		}
	}
	return false
}

func (q *Queue) collectResults(ids []string) ([]BatchResult, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	terminal := make(map[string]*MutationRequest, len(q.completed)+len(q.failed))
	for _, r := range q.completed {
		terminal[r.ID] = r
	}
	for _, r := range q.failed {
		terminal[r.ID] = r
	}

	results := make([]BatchResult, len(ids))
	for i, id := range ids {
		r, ok := terminal[id]
		if !ok {
			return nil, false
		}
		results[i] = BatchResult{RequestID: id, Reply: r.Reply, Err: r.Err}
	}
	return results, true
}

// WaitForCompletion returns once pending and in-flight are both empty, or
// ErrTimeout after the given duration. The timeout is cooperative: it stops
// the caller from waiting but leaves the queue working.
func (q *Queue) WaitForCompletion(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(q.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			stats := q.Stats()
			if stats.Pending == 0 && stats.InFlight == 0 {
				return nil
			}
			if time.Now().After(deadline) {
				return fmt.Errorf("%w after %s (pending=%d in-flight=%d)",
					ErrTimeout, timeout, stats.Pending, stats.InFlight)
			}
		}
	}
}

// Cancel removes a still-pending request. It reports false when the request
// has already left the pending partition; in-flight work cannot be cancelled.
func (q *Queue) Cancel(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, r := range q.pending {
		if r.ID == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Prioritize raises a still-pending request above every other pending
// request. It reports false when the request is no longer pending.
func (q *Queue) Prioritize(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	var target *MutationRequest
	highest := 0
	for _, r := range q.pending {
		if r.ID == id {
			target = r
			continue
		}
		if r.Priority > highest {
			highest = r.Priority
		}
	}
	if target == nil {
		return false
	}
	target.Priority = highest + 1
	return true
}

// Stats returns a snapshot consistent with the queue state at call time.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	return Stats{
		Pending:        len(q.pending),
		InFlight:       len(q.inFlight),
		Completed:      len(q.completed),
		Failed:         len(q.failed),
		TotalProcessed: len(q.completed) + len(q.failed),
	}
}

// RetryFailed moves every terminal-failed request back to pending with its
// retry count reset, and restarts the executor. Returns how many requests
// were re-enqueued.
func (q *Queue) RetryFailed() int {
	q.mu.Lock()
	moved := q.failed
	q.failed = nil
	for _, r := range moved {
		r.RetryCount = 0
		r.Err = nil
		q.pending = append(q.pending, r)
	}
	if len(moved) > 0 {
		q.startLocked()
	}
	q.mu.Unlock()
	return len(moved)
}

// ClearCompleted discards retained completed requests.
func (q *Queue) ClearCompleted() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.completed = nil
}

// ClearFailed discards retained terminal-failed requests.
func (q *Queue) ClearFailed() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.failed = nil
}

// Stop halts the executor loop. Pending work is kept, not flushed; a later
// Enqueue restarts the loop.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.running {
		close(q.stopCh)
		q.running = false
	}
	q.mu.Unlock()
	q.wg.Wait()
}

// startLocked starts the executor loop when idle. Callers hold q.mu.
func (q *Queue) startLocked() {
	if q.running {
		return
	}
	q.running = true
	q.stopCh = make(chan struct{})
	go q.run(q.stopCh)
}

func (q *Queue) run(stop chan struct{}) {
	ticker := time.NewTicker(q.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if q.tick() {
				return
			}
		}
	}
}

// tick performs one executor pass. It reports true when the queue has fully
// drained and the loop should go idle until the next enqueue.
func (q *Queue) tick() (idle bool) {
	q.mu.Lock()

	if len(q.pending) == 0 && len(q.inFlight) == 0 {
		q.running = false
		q.mu.Unlock()
		return true
	}
	if q.inFlightCalls >= q.opts.MaxConcurrency {
		q.mu.Unlock()
		return false
	}

	// Stable sort: priority descending, ties keep insertion order. The
	// determinism matters because later edits' offsets assume earlier edits
	// of the same diff already applied.
	sort.SliceStable(q.pending, func(i, j int) bool {
		return q.pending[i].Priority > q.pending[j].Priority
	})

	// Documents with an outstanding call are skipped this tick: interleaving
	// a second call against the same document would corrupt offsets.
	busy := make(map[string]bool, len(q.inFlight))
	for _, r := range q.inFlight {
		busy[r.DocumentID] = true
	}

	var (
		order  []string
		groups = make(map[string][]*MutationRequest)
	)
	for _, r := range q.pending {
		if _, seen := groups[r.DocumentID]; !seen {
			order = append(order, r.DocumentID)
		}
		groups[r.DocumentID] = append(groups[r.DocumentID], r)
	}

	type callBatch struct {
		documentID string
		requests   []*MutationRequest
	}
	var batches []callBatch
	taken := make(map[string]bool)

	for _, documentID := range order {
		if q.inFlightCalls >= q.opts.MaxConcurrency {
			break
		}
		if busy[documentID] {
			continue
		}
		group := groups[documentID]
		if len(group) > q.opts.BatchSize {
			group = group[:q.opts.BatchSize]
		}
		for _, r := range group {
			q.inFlight[r.ID] = r
			taken[r.ID] = true
		}
		q.inFlightCalls++
		batches = append(batches, callBatch{documentID: documentID, requests: group})
	}

	if len(taken) > 0 {
		remaining := q.pending[:0]
		for _, r := range q.pending {
			if !taken[r.ID] {
				remaining = append(remaining, r)
			}
		}
		q.pending = remaining
	}
	q.mu.Unlock()

	for _, b := range batches {
		q.wg.Add(1)
		go q.submit(b.documentID, b.requests)
	}
	return false
}

// submit performs one call against one document and settles every request in
// it: completed on success, degraded to retry or terminal-failed on error.
func (q *Queue) submit(documentID string, batch []*MutationRequest) {
	defer q.wg.Done()

	q.emit(types.NewBatchStartedEvent(documentID, len(batch)))

	payloads := make([]docs.Request, len(batch))
	for i, r := range batch {
		payloads[i] = r.Payload
	}

	replies, err := q.transport.BatchUpdate(context.Background(), documentID, payloads)

	var events []*types.SyncEvent

	q.mu.Lock()
	q.inFlightCalls--
	for i, r := range batch {
		delete(q.inFlight, r.ID)

		if err == nil {
			if i < len(replies) {
				r.Reply = &replies[i]
			}
			q.completed = append(q.completed, r)
			events = append(events, types.NewRequestCompletedEvent(documentID, r.ID))
			continue
		}

		r.RetryCount++
		r.Err = err
		if r.RetryCount < r.MaxRetries {
			// Retries sink below fresh work of their former priority but can
			// still overtake long-idle low-priority requests.
			r.Priority--
			q.pending = append(q.pending, r)
			events = append(events, types.NewRequestRetriedEvent(documentID, r.ID, r.RetryCount, err))
		} else {
			q.failed = append(q.failed, r)
			events = append(events, types.NewRequestFailedEvent(documentID, r.ID, r.RetryCount, err))
		}
	}
	q.mu.Unlock()

	if err != nil {
		q.opts.Logger.Warnf("batch of %d against %s failed: %v", len(batch), documentID, err)
	} else {
		q.opts.Logger.Debugf("batch of %d against %s completed", len(batch), documentID)
	}

	events = append(events, types.NewBatchCompletedEvent(documentID, len(batch), err))
	q.emit(events...)
}
