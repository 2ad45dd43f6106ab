package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/chat-system/internal/core/domain"
	"github.com/sirpyerre/chat-system/internal/core/ports"
	"github.com/sirpyerre/chat-system/internal/pkg/metrics"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes persisted messages to a fixed set of workers using
// consistent hashing on the receiver id, guaranteeing per-receiver push
// ordering.
type Dispatcher struct {
	workers []chan *domain.Message
	pusher  ports.LivePusher
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, pusher ports.LivePusher, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan *domain.Message, numWorkers),
		pusher:  pusher,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan *domain.Message, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Notify hands msg to the worker responsible for its receiver. It never
// blocks: when that worker is saturated the push is dropped and counted. The
// message itself is already stored.
func (d *Dispatcher) Notify(msg *domain.Message) {
	idx := d.shardIndex(msg.ReceiverID)
	select {
	case d.workers[idx] <- msg:
		metrics.DeliveryQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.LivePushTotal.WithLabelValues("queue_full").Inc()
		d.log.Warn().
			Str("message_id", msg.ID).
			Str("receiver_id", msg.ReceiverID).
			Int("worker_id", idx).
			Msg("delivery queue full, live push dropped")
	}
}

// shardIndex maps a receiver id deterministically to a worker index.
func (d *Dispatcher) shardIndex(receiverID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(receiverID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan *domain.Message) {
	depth := metrics.DeliveryQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			depth.Set(float64(len(ch)))
			d.push(ctx, id, msg)
		}
	}
}

func (d *Dispatcher) push(ctx context.Context, workerID int, msg *domain.Message) {
	err := d.pusher.Push(ctx, msg.ReceiverID, msg)
	switch {
	case err == nil:
		return
	case errors.Is(err, domain.ErrReceiverOffline):
		d.log.Debug().
			Str("message_id", msg.ID).
			Str("receiver_id", msg.ReceiverID).
			Msg("receiver offline, message stored only")
	default:
		d.log.Warn().Err(err).
			Str("message_id", msg.ID).
			Str("receiver_id", msg.ReceiverID).
			Int("worker_id", workerID).
			Msg("live push failed")
	}
}
