package roster

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roster-search/internal/models"
)

type countingProvider struct {
	loads int32
	err   error
}

func (p *countingProvider) Load(context.Context) ([]models.Creator, error) {
	atomic.AddInt32(&p.loads, 1)
	if p.err != nil {
		return nil, p.err
	}
	return []models.Creator{{ID: 1, Name: "Ram Thapa"}}, nil
}

func TestCachedProvider_LoadsOnceUntilInvalidated(t *testing.T) {
	inner := &countingProvider{}
	p := NewCachedProvider[models.Creator](inner, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := p.Load(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&inner.loads))

	p.Invalidate()
	_, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&inner.loads))
}

func TestCachedProvider_Expires(t *testing.T) {
	inner := &countingProvider{}
	p := NewCachedProvider[models.Creator](inner, 20*time.Millisecond)
	ctx := context.Background()

	_, err := p.Load(ctx)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := p.Load(ctx)
		return err == nil && atomic.LoadInt32(&inner.loads) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestCachedProvider_ErrorsAreNotCached(t *testing.T) {
	inner := &countingProvider{err: errors.New("source down")}
	p := NewCachedProvider[models.Creator](inner, 0)

	_, err := p.Load(context.Background())
	require.Error(t, err)
	_, err = p.Load(context.Background())
	require.Error(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&inner.loads))
}

func TestCachedProvider_ConcurrentMissesLoadOnce(t *testing.T) {
	inner := &countingProvider{}
	p := NewCachedProvider[models.Creator](inner, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.Load(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&inner.loads))
}
