package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/mcasconvert/internal/config"
	"github.com/JonMunkholm/mcasconvert/internal/core"
)

func TestConversionLimiter_AcquireRelease(t *testing.T) {
	l := NewConversionLimiter(2, time.Second)
	ctx := context.Background()

	assert.Equal(t, LimiterStatus{Active: 0, Available: 2, MaxConcurrent: 2}, l.Status())

	require.NoError(t, l.Acquire(ctx))
	require.NoError(t, l.Acquire(ctx))
	assert.Equal(t, LimiterStatus{Active: 2, Available: 0, MaxConcurrent: 2}, l.Status())

	l.Release()
	assert.Equal(t, 1, l.ActiveCount())

	l.Release()
	assert.Equal(t, 0, l.ActiveCount())
}

func TestConversionLimiter_TimesOutWhenFull(t *testing.T) {
	l := NewConversionLimiter(1, 50*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))
	defer l.Release()

	start := time.Now()
	err := l.Acquire(ctx)
	assert.ErrorIs(t, err, ErrTooManyConversions)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestConversionLimiter_ContextCancelled(t *testing.T) {
	l := NewConversionLimiter(1, time.Minute)
	require.NoError(t, l.Acquire(context.Background()))
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Acquire(ctx), context.Canceled)
}

func TestConversionLimiter_WaitsForSlot(t *testing.T) {
	l := NewConversionLimiter(1, time.Second)
	ctx := context.Background()
	require.NoError(t, l.Acquire(ctx))

	var wg sync.WaitGroup
	wg.Add(1)
	var err error
	go func() {
		defer wg.Done()
		err = l.Acquire(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	l.Release()
	wg.Wait()

	require.NoError(t, err)
	assert.Equal(t, 1, l.ActiveCount())
	l.Release()
}

func TestConversionLimiter_Defaults(t *testing.T) {
	l := NewConversionLimiter(0, 0)
	assert.Equal(t, DefaultMaxConcurrentConversions, l.Status().MaxConcurrent)
	assert.Equal(t, DefaultQueueWait, l.maxWait)
}

func TestHandleConvert_Busy(t *testing.T) {
	p, err := core.NewPipeline(core.DefaultConfig())
	require.NoError(t, err)
	s := NewServer(config.ServerConfig{
		MaxUploadSize: 1 << 20,
		MaxConcurrent: 1,
		QueueWait:     10 * time.Millisecond,
	}, p)

	require.NoError(t, s.limiter.Acquire(context.Background()))
	defer s.limiter.Release()

	req := httptest.NewRequest(http.MethodPost, "/api/convert", strings.NewReader(exportCSV))
	rec := do(t, s, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"code":"SRV001"`)
}
