package bus

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()
	var got Event
	sub, err := b.Subscribe("checkpoint.crossed", func(e Event) error {
		got = e
		return nil
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID())
	assert.Equal(t, "checkpoint.crossed", sub.EventType())

	require.NoError(t, b.Publish(NewEvent("checkpoint.crossed", "car-1", 42, 3)))
	require.NotNil(t, got)
	assert.Equal(t, "car-1", got.Source())
	assert.EqualValues(t, 42, got.Tick())
	assert.Equal(t, 3, got.Data())
	assert.False(t, got.Timestamp().IsZero())
}

func TestDeliveryOrderAndWildcard(t *testing.T) {
	b := New()
	var order []string
	record := func(name string) EventHandler {
		return func(Event) error { order = append(order, name); return nil }
	}
	_, _ = b.Subscribe(Wildcard, record("all"))
	for _, name := range []string{"a", "b", "c"} {
		_, _ = b.Subscribe("ev", record(name))
	}
	_, _ = b.Subscribe("other", record("other"))

	require.NoError(t, b.Publish(NewEvent("ev", "", 0, nil)))
	assert.Equal(t, []string{"a", "b", "c", "all"}, order)
}

func TestErrorsAreJoined(t *testing.T) {
	b := New()
	errA, errB := errors.New("a"), errors.New("b")
	_, _ = b.Subscribe("x", func(Event) error { return errA })
	_, _ = b.Subscribe("x", func(Event) error { return nil })
	_, _ = b.Subscribe("x", func(Event) error { return errB })

	err := b.Publish(NewEvent("x", "", 0, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)

	st := b.Stats()
	assert.EqualValues(t, 1, st.Published)
	assert.EqualValues(t, 3, st.Delivered)
	assert.EqualValues(t, 2, st.Errors)
	assert.Equal(t, 3, st.Subscribers)
}

func TestCancel(t *testing.T) {
	b := New()
	calls := 0
	sub, err := b.Subscribe("x", func(Event) error { calls++; return nil })
	require.NoError(t, err)

	require.NoError(t, b.Unsubscribe(sub))
	require.NoError(t, sub.Cancel())
	assert.False(t, sub.IsActive())
	require.NoError(t, b.Unsubscribe(nil))

	require.NoError(t, b.Publish(NewEvent("x", "", 0, nil)))
	assert.Zero(t, calls)
	assert.Zero(t, b.Stats().Subscribers)

	_, err = b.Subscribe("x", nil)
	assert.ErrorIs(t, err, ErrNilHandler)
}

func TestConcurrentPublish(t *testing.T) {
	b := New()
	var mu sync.Mutex
	count := 0
	_, _ = b.Subscribe("tick", func(Event) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = b.Publish(NewEvent("tick", "", uint64(j), nil))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, count)
}

func BenchmarkPublish(b *testing.B) {
	bus := New()
	for i := 0; i < 4; i++ {
		_, _ = bus.Subscribe("tick", func(Event) error { return nil })
	}
	ev := NewEvent("tick", "bench", 0, nil)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bus.Publish(ev)
	}
}
