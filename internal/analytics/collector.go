package analytics

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/metrics"
)

// Publisher sends one event to the analytics topic.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// Collector buffers events in a channel and publishes them one at a time
// from a background goroutine. Track never blocks; events are dropped when
// the buffer is full or the collector is closed.
type Collector struct {
	producer Publisher
	eventCh  chan any
	metrics  *metrics.Metrics
	logger   *slog.Logger
	done     chan struct{}
	mu       sync.RWMutex
	closed   bool
}

func NewCollector(producer Publisher, bufferSize int, m *metrics.Metrics) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		producer: producer,
		eventCh:  make(chan any, bufferSize),
		metrics:  m,
		logger:   slog.Default().With("component", "analytics-collector"),
		done:     make(chan struct{}),
	}
}

func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					return
				}
				c.publish(ctx, event)
			case <-ctx.Done():
				c.drainRemaining()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started", "buffer_size", cap(c.eventCh))
}

func (c *Collector) Track(event any) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		c.count("dropped")
		return
	}
	select {
	case c.eventCh <- event:
	default:
		c.count("dropped")
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// Close stops accepting events and waits for the buffer to drain. Start must
// have been called.
func (c *Collector) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.eventCh)
	}
	c.mu.Unlock()
	<-c.done
}

func (c *Collector) publish(ctx context.Context, event any) {
	if err := c.producer.Publish(ctx, kafka.Event{Key: KeyOf(event), Value: event}); err != nil {
		c.count("failed")
		c.logger.Error("failed to publish analytics event", "error", err)
		return
	}
	c.count("published")
}

func (c *Collector) drainRemaining() {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			c.publish(context.Background(), event)
		default:
			return
		}
	}
}

func (c *Collector) count(outcome string) {
	if c.metrics != nil {
		c.metrics.AnalyticsEvents.WithLabelValues(outcome).Inc()
	}
}
