package eventloop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoopRunsTasksInPostOrder(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	loop := New(4)
	go loop.Run(ctx)

	var got []int
	for i := range 10 {
		loop.Post(func() { got = append(got, i) })
	}

	var snapshot []int
	require.NoError(t, loop.Do(ctx, func() { snapshot = append(snapshot, got...) }))
	require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, snapshot)
}

func TestLoopDoAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loop := New(1)
	go loop.Run(ctx)
	cancel()
	<-loop.Done()

	err := loop.Do(context.Background(), func() {})
	require.True(t, errors.Is(err, ErrStopped))

	// Post on a stopped loop must not block.
	loop.Post(func() {})
	loop.Post(func() {})
}
