// Package logger records one structured entry per completion call without
// blocking the caller. Entries go to a buffered channel and a background
// goroutine writes them through slog in batches. When the channel is full
// new entries are dropped and counted.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	channelBuffer        = 10_000
	batchSize            = 100
	defaultFlushInterval = time.Second
)

// CompletionLog describes one completion call.
type CompletionLog struct {
	ID           uuid.UUID
	Operation    string // chat, response, compare, agent
	Provider     string
	Model        string
	InputTokens  int
	OutputTokens int
	Latency      time.Duration
	Status       string
	Cached       bool
	Error        string
	CreatedAt    time.Time
}

type Logger struct {
	ch        chan CompletionLog
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	flushInterval time.Duration
	droppedLogs   int64

	baseCtx context.Context
	log     *slog.Logger
}

// Option configures a Logger.
type Option func(*Logger)

// WithFlushInterval sets how often buffered entries are written.
func WithFlushInterval(d time.Duration) Option {
	return func(l *Logger) {
		if d > 0 {
			l.flushInterval = d
		}
	}
}

func New(ctx context.Context, slogger *slog.Logger, opts ...Option) (*Logger, error) {
	if ctx == nil {
		return nil, fmt.Errorf("logger: context must not be nil")
	}
	if slogger == nil {
		slogger = slog.Default()
	}

	l := &Logger{
		ch:            make(chan CompletionLog, channelBuffer),
		done:          make(chan struct{}),
		flushInterval: defaultFlushInterval,
		baseCtx:       ctx,
		log:           slogger,
	}
	for _, o := range opts {
		o(l)
	}

	l.wg.Add(1)
	go l.run()

	return l, nil
}

// Log enqueues entry. A zero ID gets a fresh UUID. Log never blocks; it
// drops the entry when the buffer is full.
func (l *Logger) Log(entry CompletionLog) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	select {
	case l.ch <- entry:
	default:
		atomic.AddInt64(&l.droppedLogs, 1)
	}
}

func (l *Logger) DroppedLogs() int64 {
	return atomic.LoadInt64(&l.droppedLogs)
}

// Close flushes pending entries and stops the writer. Safe to call more than once.
func (l *Logger) Close() error {
	l.closeOnce.Do(func() {
		close(l.done)
	})
	l.wg.Wait()
	return nil
}

func (l *Logger) run() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.flushInterval)
	defer ticker.Stop()

	batch := make([]CompletionLog, 0, batchSize)

	flush := func() {
		for _, e := range batch {
			l.write(e)
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-l.ch:
			batch = append(batch, entry)
			if len(batch) >= batchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-l.done:
			for {
				select {
				case entry := <-l.ch:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (l *Logger) write(e CompletionLog) {
	attrs := []slog.Attr{
		slog.String("id", e.ID.String()),
		slog.String("operation", e.Operation),
		slog.String("provider", e.Provider),
		slog.String("model", e.Model),
		slog.Int("input_tokens", e.InputTokens),
		slog.Int("output_tokens", e.OutputTokens),
		slog.Int64("latency_ms", e.Latency.Milliseconds()),
		slog.String("status", e.Status),
		slog.Bool("cached", e.Cached),
		slog.Time("created_at", e.CreatedAt.UTC()),
	}
	level := slog.LevelInfo
	if e.Error != "" {
		attrs = append(attrs, slog.String("error", e.Error))
		level = slog.LevelWarn
	}
	l.log.LogAttrs(l.baseCtx, level, "completion", attrs...)
}
