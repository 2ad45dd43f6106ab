package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirpyerre/chat-system/internal/core/domain"
)

// recordingPusher stores pushed message ids per receiver.
type recordingPusher struct {
	mu      sync.Mutex
	pushed  map[string][]string
	offline map[string]bool
	block   chan struct{}
}

func newRecordingPusher() *recordingPusher {
	return &recordingPusher{pushed: make(map[string][]string), offline: make(map[string]bool)}
}

func (p *recordingPusher) Push(_ context.Context, receiverID string, msg *domain.Message) error {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.offline[receiverID] {
		return domain.ErrReceiverOffline
	}
	p.pushed[receiverID] = append(p.pushed[receiverID], msg.ID)
	return nil
}

func (p *recordingPusher) count(receiverID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pushed[receiverID])
}

func (p *recordingPusher) ids(receiverID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.pushed[receiverID]...)
}

func TestNewDispatcher_DefaultWorkers(t *testing.T) {
	d := NewDispatcher(0, newRecordingPusher(), zerolog.Nop())
	assert.Len(t, d.workers, defaultWorkers)
}

func TestDispatcher_ShardIndexStable(t *testing.T) {
	d := NewDispatcher(4, newRecordingPusher(), zerolog.Nop())
	for _, id := range []string{"alice", "bob", "665f1c2e9b1d4a0012345678"} {
		idx := d.shardIndex(id)
		assert.Equal(t, idx, d.shardIndex(id))
		assert.True(t, idx >= 0 && idx < 4)
	}
}

func TestDispatcher_PreservesPerReceiverOrder(t *testing.T) {
	pusher := newRecordingPusher()
	d := NewDispatcher(4, pusher, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	var want []string
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("m%02d", i)
		want = append(want, id)
		d.Notify(&domain.Message{ID: id, SenderID: "alice", ReceiverID: "bob"})
		d.Notify(&domain.Message{ID: "other-" + id, SenderID: "alice", ReceiverID: "carol"})
	}

	require.Eventually(t, func() bool { return pusher.count("bob") == len(want) }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, want, pusher.ids("bob"))
	require.Eventually(t, func() bool { return pusher.count("carol") == len(want) }, 2*time.Second, 5*time.Millisecond)
}

func TestDispatcher_OfflineReceiverIsSwallowed(t *testing.T) {
	pusher := newRecordingPusher()
	pusher.offline["bob"] = true
	d := NewDispatcher(1, pusher, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Notify(&domain.Message{ID: "m1", ReceiverID: "bob"})
	d.Notify(&domain.Message{ID: "m2", ReceiverID: "carol"})

	require.Eventually(t, func() bool { return pusher.count("carol") == 1 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, pusher.count("bob"))
}

func TestDispatcher_NotifyNeverBlocks(t *testing.T) {
	pusher := newRecordingPusher()
	pusher.block = make(chan struct{})
	d := NewDispatcher(1, pusher, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	done := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer*2; i++ {
			d.Notify(&domain.Message{ID: fmt.Sprintf("m%d", i), ReceiverID: "bob"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a saturated worker")
	}
	close(pusher.block)
}
