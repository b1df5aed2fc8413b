package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDeferredRunnerRunsTasks(t *testing.T) {
	r := NewDeferredRunner(zap.NewNop())

	var count atomic.Int32
	for i := 0; i < 10; i++ {
		r.Go("count", "req", func(ctx context.Context) {
			assert.NotNil(t, ctx)
			count.Add(1)
		})
	}

	require.NoError(t, r.Wait(context.Background()))
	assert.Equal(t, int32(10), count.Load())
}

func TestDeferredRunnerRecoversPanics(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	r := NewDeferredRunner(zap.New(core))

	r.Go("explode", "req-42", func(context.Context) { panic("boom") })
	require.NoError(t, r.Wait(context.Background()))

	entries := logs.FilterMessage("deferred task panicked").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
	assert.Equal(t, "explode", entries[0].ContextMap()["task"])
}

func TestDeferredRunnerWaitHonoursContext(t *testing.T) {
	r := NewDeferredRunner(zap.NewNop())

	release := make(chan struct{})
	r.Go("slow", "req", func(context.Context) { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Wait(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, r.Wait(context.Background()))
}
