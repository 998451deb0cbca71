package bus

import (
	"testing"
	"time"

	"github.com/audiocontrol/acrd/internal/model"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToMatchingSubscription(t *testing.T) {
	b := New(4)
	sub := b.Subscribe(Filter{
		EventTypes: map[model.EventType]struct{}{model.EventStateChanged: {}},
	})
	defer sub.Close()

	b.Publish("p1", model.PlayerEvent{Type: model.EventStateChanged, State: model.StatePlaying})
	b.Publish("p1", model.PlayerEvent{Type: model.EventShuffleChanged})

	select {
	case v := <-sub.C():
		env, ok := v.(Envelope)
		require.True(t, ok)
		require.Equal(t, model.EventStateChanged, env.Event.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	select {
	case v := <-sub.C():
		t.Fatalf("unexpected second delivery: %#v", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPlayerIDFilter(t *testing.T) {
	b := New(4)
	sub := b.Subscribe(Filter{PlayerIDs: map[string]struct{}{"only-me": {}}})
	defer sub.Close()

	b.Publish("someone-else", model.PlayerEvent{Type: model.EventStateChanged})
	b.Publish("only-me", model.PlayerEvent{Type: model.EventStateChanged})

	select {
	case v := <-sub.C():
		env := v.(Envelope)
		require.Equal(t, "only-me", env.PlayerID)
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestOverflowProducesLaggedMarker(t *testing.T) {
	b := New(2)
	sub := b.Subscribe(Filter{})
	defer sub.Close()

	for i := 0; i < 5; i++ {
		b.Publish("p1", model.PlayerEvent{Type: model.EventPositionChanged})
	}

	sawLagged := false
	for i := 0; i < 2; i++ {
		v := <-sub.C()
		if _, ok := LaggedCount(v); ok {
			sawLagged = true
		}
	}
	require.True(t, sawLagged, "expected a lagged marker after overflow")
}

// TestOverflowDoesNotPermanentlyStallDelivery guards against a regression
// where the overflow path required two free queue slots to deliver one
// event: once a subscriber's queue first filled, every later real event
// was silently dropped forever. A queued envelope from before the overflow
// must still reach the consumer, and the bus must keep delivering normally
// once the subscriber has caught up.
func TestOverflowDoesNotPermanentlyStallDelivery(t *testing.T) {
	b := New(2)
	sub := b.Subscribe(Filter{})
	defer sub.Close()

	for i := 0; i < 5; i++ {
		b.Publish("p1", model.PlayerEvent{Type: model.EventPositionChanged, Position: floatPtr(float64(i))})
	}

	var gotEnvelope bool
	for i := 0; i < 2; i++ {
		v := <-sub.C()
		if env, ok := v.(Envelope); ok {
			gotEnvelope = true
			require.Equal(t, model.EventPositionChanged, env.Event.Type)
		}
	}
	require.True(t, gotEnvelope, "at least one envelope queued before the overflow must still be delivered")

	b.Publish("p1", model.PlayerEvent{Type: model.EventStateChanged, State: model.StatePlaying})
	select {
	case v := <-sub.C():
		env, ok := v.(Envelope)
		require.True(t, ok, "expected a fresh envelope once the subscriber caught up, got %#v", v)
		require.Equal(t, model.EventStateChanged, env.Event.Type)
	case <-time.After(time.Second):
		t.Fatal("bus stopped delivering after the subscriber caught up")
	}
}

func floatPtr(v float64) *float64 { return &v }

func TestCloseStopsDelivery(t *testing.T) {
	b := New(4)
	sub := b.Subscribe(Filter{})
	sub.Close()

	b.Publish("p1", model.PlayerEvent{Type: model.EventStateChanged})

	_, ok := <-sub.C()
	require.False(t, ok, "channel should be closed")
}
