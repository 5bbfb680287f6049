package events

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_EmitOrder(t *testing.T) {
	b := NewBus()
	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		b.Subscribe(KindGesture, func(map[string]any) error {
			order = append(order, i)
			return nil
		})
	}

	errs := b.Emit(KindGesture, map[string]any{"label": "fist"})

	assert.Empty(t, errs)
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestBus_PayloadAndKinds(t *testing.T) {
	b := NewBus()
	var got map[string]any
	b.Subscribe(KindGesture, func(data map[string]any) error {
		got = data
		return nil
	})

	b.Emit(KindCursor, map[string]any{"x": 1})
	assert.Nil(t, got, "handler for another kind must not run")

	b.Emit(KindGesture, map[string]any{"label": "click"})
	assert.Equal(t, "click", got["label"])

	assert.Empty(t, b.Emit("unknown", nil))
}

func TestBus_IsolatesFailures(t *testing.T) {
	b := NewBus()
	boom := errors.New("boom")
	ran := 0

	b.Subscribe(KindGesture, func(map[string]any) error { return boom })
	b.Subscribe(KindGesture, func(map[string]any) error { panic("handler bug") })
	b.Subscribe(KindGesture, func(map[string]any) error {
		ran++
		return nil
	})

	errs := b.Emit(KindGesture, nil)

	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], boom)
	assert.Contains(t, errs[1].Error(), "handler bug")
	assert.Equal(t, 1, ran, "later handlers still run")
}

func TestBus_Unsubscribe(t *testing.T) {
	b := NewBus()
	calls := 0
	unsub := b.Subscribe(KindState, func(map[string]any) error {
		calls++
		return nil
	})
	b.Subscribe(KindState, func(map[string]any) error { return nil })

	b.Emit(KindState, nil)
	unsub()
	unsub()
	b.Emit(KindState, nil)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, b.Count(KindState))
}

func TestBus_Concurrent(t *testing.T) {
	b := NewBus()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				unsub := b.Subscribe(KindGesture, func(map[string]any) error { return nil })
				b.Emit(KindGesture, nil)
				unsub()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, b.Count(KindGesture))
}
