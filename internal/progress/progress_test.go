package progress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitWithoutSubscribers(t *testing.T) {
	n := NewNotifier()
	assert.NotPanics(t, func() { n.Emit(0, 0, 0) })
	assert.NotPanics(t, func() { n.Emit(100, 3, 3) })

	var zero Notifier
	assert.NotPanics(t, func() { zero.Emit(50, 1, 2) })
}

func TestEmitRejectsOutOfRangePercent(t *testing.T) {
	tests := []struct {
		name    string
		percent int
	}{
		{name: "negative", percent: -1},
		{name: "above hundred", percent: 101},
		{name: "far above", percent: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNotifier()
			called := false
			n.Subscribe(func(Event) { called = true })
			assert.Panics(t, func() { n.Emit(tt.percent, 0, 0) })
			assert.False(t, called)
		})
	}
}

func TestEmitDeliversToAllSubscribersInOrder(t *testing.T) {
	n := NewNotifier()
	var got []string
	n.Subscribe(func(e Event) { got = append(got, "a") })
	n.Subscribe(func(e Event) { got = append(got, "b") })

	n.Emit(40, 2, 5)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestEmitPassesEventFields(t *testing.T) {
	n := NewNotifier()
	var got Event
	n.Subscribe(func(e Event) { got = e })

	n.Emit(60, 3, 5)
	assert.Equal(t, Event{Percent: 60, FilesChecked: 3, TotalFiles: 5}, got)
}

func TestUnsubscribe(t *testing.T) {
	n := NewNotifier()
	calls := 0
	s := n.Subscribe(func(Event) { calls++ })

	n.Emit(10, 0, 0)
	n.Unsubscribe(s)
	n.Emit(20, 0, 0)
	n.Unsubscribe(s)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, n.Len())
}

func TestUnsubscribeDuringEmit(t *testing.T) {
	n := NewNotifier()
	var (
		firstCalls, secondCalls, thirdCalls int
		second                              Subscription
	)
	n.Subscribe(func(Event) {
		firstCalls++
		n.Unsubscribe(second)
	})
	second = n.Subscribe(func(Event) { secondCalls++ })
	n.Subscribe(func(Event) { thirdCalls++ })

	require.NotPanics(t, func() { n.Emit(50, 0, 0) })
	assert.Equal(t, 1, firstCalls)
	assert.Equal(t, 1, secondCalls, "snapshot taken before the removal still includes the handler")
	assert.Equal(t, 1, thirdCalls)

	n.Emit(60, 0, 0)
	assert.Equal(t, 2, firstCalls)
	assert.Equal(t, 1, secondCalls)
	assert.Equal(t, 2, thirdCalls)
}

func TestConcurrentEmitAndSubscribe(t *testing.T) {
	n := NewNotifier()
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		calls int
	)

	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s := n.Subscribe(func(Event) {
				mu.Lock()
				calls++
				mu.Unlock()
			})
			n.Unsubscribe(s)
		}()
		go func(p int) {
			defer wg.Done()
			n.Emit(p*10, p, 8)
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, calls, 64)
	assert.Equal(t, 0, n.Len())
}
