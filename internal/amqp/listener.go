package amqp

import (
	"context"
	"sync"
	"time"

	"github.com/kadewerk/tally/tally-backend/internal/domain"
	"github.com/kadewerk/tally/tally-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// CacheInvalidator is the slice of the report service the listener needs
type CacheInvalidator interface {
	InvalidateYear(year int)
	InvalidateAll()
}

// ReportRefreshEvent is the payload broadcast per invalidated report year
type ReportRefreshEvent struct {
	Year  int    `json:"year,omitempty"`
	RunID string `json:"runId"`
}

// SyncRunEvent is the payload for the run-level completion broadcast
type SyncRunEvent struct {
	RunID      string    `json:"runId"`
	Years      []int     `json:"years,omitempty"`
	FinishedAt time.Time `json:"finishedAt"`
}

// SyncListener consumes sync-completed notifications and drops the affected
// cached years so the next report read refetches from the provider. Besides
// operator edits this is the only path that invalidates cached data.
type SyncListener struct {
	client    *Client
	reports   CacheInvalidator
	publisher websocket.EventPublisher
	logger    zerolog.Logger
	stopCh    chan struct{}
	doneCh    chan struct{}
	mu        sync.Mutex
	running   bool
}

// NewSyncListener creates a new SyncListener
func NewSyncListener(client *Client, reports CacheInvalidator, publisher websocket.EventPublisher, logger zerolog.Logger) *SyncListener {
	if publisher == nil {
		publisher = &websocket.NoOpPublisher{}
	}
	return &SyncListener{
		client:    client,
		reports:   reports,
		publisher: publisher,
		logger:    logger.With().Str("component", "sync_listener").Logger(),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins consuming sync notifications in the background
func (l *SyncListener) Start(ctx context.Context) {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.mu.Unlock()

	l.logger.Info().Msg("Starting sync listener")
	go l.run(ctx)
}

// Stop gracefully stops the listener
func (l *SyncListener) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	l.logger.Info().Msg("Stopping sync listener")
	close(l.stopCh)
	<-l.doneCh
	l.logger.Info().Msg("Sync listener stopped")
}

func (l *SyncListener) run(ctx context.Context) {
	defer close(l.doneCh)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-l.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := l.client.ConsumeSyncCompleted(ctx, l.HandleSyncCompleted); err != nil && ctx.Err() == nil {
		l.logger.Error().Err(err).Msg("Sync consumption ended unexpectedly")
	}

	l.mu.Lock()
	l.running = false
	l.mu.Unlock()
}

// HandleSyncCompleted drops the cached years named in the message and tells
// subscribed clients to reload. An empty year list clears the whole cache.
// Years outside the supported range are skipped, not requeued: the payload
// decoded fine and redelivery cannot make a bad year valid.
func (l *SyncListener) HandleSyncCompleted(msg *SyncCompletedMessage) error {
	if len(msg.Years) == 0 {
		l.reports.InvalidateAll()
		l.publisher.PublishAll(websocket.ReportRefreshed(ReportRefreshEvent{RunID: msg.RunID}))
	} else {
		for _, year := range msg.Years {
			if err := domain.ValidateReportYear(year); err != nil {
				l.logger.Warn().
					Int("year", year).
					Str("run_id", msg.RunID).
					Msg("Skipping out-of-range year in sync message")
				continue
			}
			l.reports.InvalidateYear(year)
			l.publisher.Publish(year, websocket.ReportRefreshed(ReportRefreshEvent{
				Year:  year,
				RunID: msg.RunID,
			}))
		}
	}

	l.publisher.PublishAll(websocket.SyncCompleted(SyncRunEvent{
		RunID:      msg.RunID,
		Years:      msg.Years,
		FinishedAt: msg.FinishedAt,
	}))

	l.logger.Info().
		Str("run_id", msg.RunID).
		Ints("years", msg.Years).
		Msg("Sync completed, cached years dropped")

	return nil
}

// IsRunning returns whether the listener is currently consuming
func (l *SyncListener) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}
