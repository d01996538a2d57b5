package eventstream

import "context"

// Publisher publishes indexing events to an event stream backend.
type Publisher interface {
	PublishBatchIndexed(ctx context.Context, event *BatchIndexedEvent) error
	PublishIndexCompleted(ctx context.Context, event *IndexCompletedEvent) error
	Close() error
}
