package types

// SyncEventType defines the type of event emitted by the synchronization engine.
type SyncEventType string

const (
	EventTypeRequestEnqueued    SyncEventType = "request_enqueued"     // EventTypeRequestEnqueued indicates a mutation request was accepted into the queue.
	EventTypeRequestRetried     SyncEventType = "request_retried"      // EventTypeRequestRetried indicates a mutation request was re-enqueued after a transient failure.
	EventTypeRequestCompleted   SyncEventType = "request_completed"    // EventTypeRequestCompleted indicates a mutation request reached the completed state.
	EventTypeRequestFailed      SyncEventType = "request_failed"       // EventTypeRequestFailed indicates a mutation request exhausted its retries.
	EventTypeBatchStarted       SyncEventType = "batch_started"        // EventTypeBatchStarted indicates a batch call against one document has been submitted.
	EventTypeBatchCompleted     SyncEventType = "batch_completed"      // EventTypeBatchCompleted indicates a batch call has returned, successfully or not.
	EventTypeComparisonComplete SyncEventType = "comparison_complete"  // EventTypeComparisonComplete indicates a diff run between old and new text finished.
	EventTypeSuggestionsApplied SyncEventType = "suggestions_applied"  // EventTypeSuggestionsApplied indicates suggested edits were written to the document.
	EventTypeSuggestionsAccept  SyncEventType = "suggestions_accepted" // EventTypeSuggestionsAccept indicates pending suggestions were materialized.
	EventTypeSuggestionsReject  SyncEventType = "suggestions_rejected" // EventTypeSuggestionsReject indicates pending suggestions were rolled back.
	EventTypeHighlightsApplied  SyncEventType = "highlights_applied"   // EventTypeHighlightsApplied indicates review markers were applied to changed spans.
	EventTypeHighlightsCleared  SyncEventType = "highlights_cleared"   // EventTypeHighlightsCleared indicates review markers were removed from the document.
)

// SyncEvent represents an event emitted by a synchronization component.
// Components each own their own subscriber list; there is no global bus.
type SyncEvent struct {
	// Type indicates the kind of event.
	Type SyncEventType

	// DocumentID is the target document the event relates to, when applicable.
	DocumentID string

	// RequestID identifies the mutation request for request-scoped events.
	RequestID string

	// BatchSize is the number of payloads involved, for batch-scoped events.
	BatchSize int

	// RetryCount is the request's retry count at the time of the event.
	RetryCount int

	// Error contains error information for failure events.
	Error error

	// Metadata holds optional additional information about the event.
	Metadata map[string]interface{}
}

// Subscriber receives synchronization events. Callbacks are invoked inline
// from the emitting component and must not block.
type Subscriber func(*SyncEvent)

// NewRequestEnqueuedEvent creates a request enqueued event.
func NewRequestEnqueuedEvent(documentID, requestID string) *SyncEvent {
	return &SyncEvent{
		Type:       EventTypeRequestEnqueued,
		DocumentID: documentID,
		RequestID:  requestID,
	}
}

// NewRequestRetriedEvent creates a request retried event.
func NewRequestRetriedEvent(documentID, requestID string, retryCount int, err error) *SyncEvent {
	return &SyncEvent{
		Type:       EventTypeRequestRetried,
		DocumentID: documentID,
		RequestID:  requestID,
		RetryCount: retryCount,
		Error:      err,
	}
}

// NewRequestCompletedEvent creates a request completed event.
func NewRequestCompletedEvent(documentID, requestID string) *SyncEvent {
	return &SyncEvent{
		Type:       EventTypeRequestCompleted,
		DocumentID: documentID,
		RequestID:  requestID,
	}
}

// NewRequestFailedEvent creates a terminal request failure event.
func NewRequestFailedEvent(documentID, requestID string, retryCount int, err error) *SyncEvent {
	return &SyncEvent{
		Type:       EventTypeRequestFailed,
		DocumentID: documentID,
		RequestID:  requestID,
		RetryCount: retryCount,
		Error:      err,
	}
}

// NewBatchStartedEvent creates a batch started event.
func NewBatchStartedEvent(documentID string, batchSize int) *SyncEvent {
	return &SyncEvent{
		Type:       EventTypeBatchStarted,
		DocumentID: documentID,
		BatchSize:  batchSize,
	}
}

// NewBatchCompletedEvent creates a batch completed event.
func NewBatchCompletedEvent(documentID string, batchSize int, err error) *SyncEvent {
	return &SyncEvent{
		Type:       EventTypeBatchCompleted,
		DocumentID: documentID,
		BatchSize:  batchSize,
		Error:      err,
	}
}

// NewComparisonCompleteEvent creates a comparison complete event.
// Similarity and change counts travel in Metadata so the event struct stays
// independent of the diff package.
func NewComparisonCompleteEvent(documentID string, metadata map[string]interface{}) *SyncEvent {
	return &SyncEvent{
		Type:       EventTypeComparisonComplete,
		DocumentID: documentID,
		Metadata:   metadata,
	}
}

// NewSuggestionsAppliedEvent creates a suggestions applied event.
func NewSuggestionsAppliedEvent(documentID string, count int) *SyncEvent {
	return &SyncEvent{
		Type:       EventTypeSuggestionsApplied,
		DocumentID: documentID,
		BatchSize:  count,
	}
}

// NewSuggestionsAcceptedEvent creates a suggestions accepted event.
func NewSuggestionsAcceptedEvent(documentID string, count int) *SyncEvent {
	return &SyncEvent{
		Type:       EventTypeSuggestionsAccept,
		DocumentID: documentID,
		BatchSize:  count,
	}
}

// NewSuggestionsRejectedEvent creates a suggestions rejected event.
func NewSuggestionsRejectedEvent(documentID string, count int) *SyncEvent {
	return &SyncEvent{
		Type:       EventTypeSuggestionsReject,
		DocumentID: documentID,
		BatchSize:  count,
	}
}

// NewHighlightsAppliedEvent creates a highlights applied event.
func NewHighlightsAppliedEvent(documentID string, count int) *SyncEvent {
	return &SyncEvent{
		Type:       EventTypeHighlightsApplied,
		DocumentID: documentID,
		BatchSize:  count,
	}
}

// NewHighlightsClearedEvent creates a highlights cleared event.
func NewHighlightsClearedEvent(documentID string) *SyncEvent {
	return &SyncEvent{
		Type:       EventTypeHighlightsCleared,
		DocumentID: documentID,
	}
}
