package dropgraph

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignal_FiresOnce(t *testing.T) {
	s := NewSignal()
	first := newFake("first", RolePlain)

	select {
	case <-s.Done():
		t.Fatal("signal fired before Consume")
	default:
	}
	assert.Nil(t, s.Drop())

	var wg sync.WaitGroup
	s.Consume(first)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Consume(newFake("late", RolePlain))
		}()
	}
	wg.Wait()

	require.NoError(t, s.Wait(context.Background()))
	assert.Same(t, first, s.Drop())
}

func TestSignal_WaitHonoursContext(t *testing.T) {
	s := NewSignal()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, s.Wait(ctx), context.DeadlineExceeded)
}

func TestSignal_AsConsumeFunc(t *testing.T) {
	s := NewSignal()
	var fn ConsumeFunc = s.Consume

	go fn(newFake("x", RolePlain))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
	assert.Equal(t, "x", s.Drop().UID())
}
