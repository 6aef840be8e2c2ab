package marketdata

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rishav/exchange-sim-kernel/internal/events"
)

type fakeEvent struct{ seq uint64 }

func (f fakeEvent) Kind() events.EventType { return events.EventTypeDepthUpdate }
func (f fakeEvent) Seq() uint64            { return f.seq }
func (f fakeEvent) When() int64            { return 0 }

func TestPublisher_SubscribeReceivesSymbolEvents(t *testing.T) {
	p := NewPublisher(4)
	defer p.Close()

	ch, unsubscribe := p.Subscribe("BTC-USD")
	defer unsubscribe()

	p.Publish("BTC-USD", fakeEvent{seq: 1})
	p.Publish("ETH-USD", fakeEvent{seq: 2})

	env := <-ch
	require.NoError(t, env.Err())
	require.Equal(t, uint64(1), env.Event.Seq())

	select {
	case env := <-ch:
		t.Fatalf("unexpected event delivered for unsubscribed symbol: %+v", env)
	default:
	}
}

func TestPublisher_SubscribeAllReceivesEveryEvent(t *testing.T) {
	p := NewPublisher(4)
	defer p.Close()

	ch, unsubscribe := p.SubscribeAll()
	defer unsubscribe()

	p.Publish("BTC-USD", fakeEvent{seq: 1})
	p.Publish("ETH-USD", fakeEvent{seq: 2})

	first := <-ch
	second := <-ch
	require.Equal(t, uint64(1), first.Event.Seq())
	require.Equal(t, uint64(2), second.Event.Seq())
}

func TestPublisher_SlowSubscriberLagsInsteadOfBlocking(t *testing.T) {
	p := NewPublisher(1)
	defer p.Close()

	ch, unsubscribe := p.Subscribe("BTC-USD")
	defer unsubscribe()

	p.Publish("BTC-USD", fakeEvent{seq: 1}) // fills the buffer of 1
	p.Publish("BTC-USD", fakeEvent{seq: 2}) // channel full, subscriber marked lagged

	first := <-ch
	require.Equal(t, uint64(1), first.Event.Seq())

	p.Publish("BTC-USD", fakeEvent{seq: 3})

	lagMarker := <-ch
	require.ErrorIs(t, lagMarker.Err(), ErrLagged, "the pending lag flag is flushed before the next event")
}

func TestPublisher_UnsubscribeClosesChannel(t *testing.T) {
	p := NewPublisher(4)
	defer p.Close()

	ch, unsubscribe := p.Subscribe("BTC-USD")
	unsubscribe()

	_, ok := <-ch
	require.False(t, ok, "the channel is closed on unsubscribe")
}

func TestPublisher_Close_ClosesAllChannels(t *testing.T) {
	p := NewPublisher(4)
	symCh, _ := p.Subscribe("BTC-USD")
	allCh, _ := p.SubscribeAll()

	p.Close()

	_, ok := <-symCh
	require.False(t, ok)
	_, ok = <-allCh
	require.False(t, ok)
}
