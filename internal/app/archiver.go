package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"live-poll-service/internal/domain"
)

// ResultStore persists the tallies of superseded questions (in-memory, Postgres, etc).
type ResultStore interface {
	Save(ctx context.Context, record domain.PollRecord) error
	Recent(ctx context.Context, limit int) ([]domain.PollRecord, error)
}

const saveTimeout = 5 * time.Second

// Archiver moves poll records off the command path: Enqueue never blocks and
// a single worker writes them to the store.
type Archiver struct {
	store  ResultStore
	queue  chan domain.PollRecord
	logger *zap.Logger
}

func NewArchiver(store ResultStore, buffer int, logger *zap.Logger) *Archiver {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{
		store:  store,
		queue:  make(chan domain.PollRecord, buffer),
		logger: logger,
	}
}

// Enqueue drops the record when the queue is full.
func (a *Archiver) Enqueue(record domain.PollRecord) {
	select {
	case a.queue <- record:
	default:
		a.logger.Warn("archive queue full, dropping poll record", zap.String("poll_id", record.PollID))
	}
}

// Run writes queued records until ctx is done, then flushes what is left.
func (a *Archiver) Run(ctx context.Context) error {
	for {
		select {
		case record := <-a.queue:
			a.save(ctx, record)
		case <-ctx.Done():
			for {
				select {
				case record := <-a.queue:
					a.save(context.Background(), record)
				default:
					return nil
				}
			}
		}
	}
}

// Recent reads back archived records, newest first.
func (a *Archiver) Recent(ctx context.Context, limit int) ([]domain.PollRecord, error) {
	return a.store.Recent(ctx, limit)
}

func (a *Archiver) save(ctx context.Context, record domain.PollRecord) {
	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()
	if err := a.store.Save(ctx, record); err != nil {
		a.logger.Error("archive poll record", zap.String("poll_id", record.PollID), zap.Error(err))
		return
	}
	a.logger.Debug("poll archived", zap.String("poll_id", record.PollID))
}
