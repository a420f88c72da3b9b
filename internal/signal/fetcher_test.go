package signal

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swinglab/swingscan/internal/contracts"
	"github.com/swinglab/swingscan/pkg/logger"
)

type fakeTickSource struct {
	mu      sync.Mutex
	series  map[string][]contracts.TickPoint
	failing map[string]error
	delay   time.Duration

	inFlight    int32
	maxInFlight int32
}

func (f *fakeTickSource) MinuteChart(ctx context.Context, code, scope string) ([]contracts.TickPoint, error) {
	cur := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		max := atomic.LoadInt32(&f.maxInFlight)
		if cur <= max || atomic.CompareAndSwapInt32(&f.maxInFlight, max, cur) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failing[code]; ok {
		return nil, err
	}
	return f.series[code], nil
}

func candidatesFromCodes(codes ...string) []contracts.Candidate {
	out := make([]contracts.Candidate, len(codes))
	for i, code := range codes {
		out[i] = contracts.Candidate{Quote: contracts.Quote{Code: code}}
	}
	return out
}

func TestFetcher_FetchAll_IndexAligned(t *testing.T) {
	source := &fakeTickSource{
		series: map[string][]contracts.TickPoint{
			"111111": ticksFromPrices(100, 101),
			"222222": ticksFromPrices(200, 201, 202),
			"333333": ticksFromPrices(300),
		},
	}
	fetcher := NewFetcher(DefaultFetcherConfig(), source, logger.NewNop())

	series, err := fetcher.FetchAll(context.Background(), candidatesFromCodes("111111", "222222", "333333"))
	require.NoError(t, err)
	require.Len(t, series, 3)

	assert.Len(t, series[0], 2)
	assert.Len(t, series[1], 3)
	assert.Len(t, series[2], 1)
	assert.Equal(t, 200.0, series[1][0].Price)
}

func TestFetcher_FetchAll_FailedFetchLeavesNil(t *testing.T) {
	source := &fakeTickSource{
		series: map[string][]contracts.TickPoint{
			"111111": ticksFromPrices(100, 101),
			"333333": ticksFromPrices(300),
		},
		failing: map[string]error{"222222": errors.New("chart request failed")},
	}
	fetcher := NewFetcher(DefaultFetcherConfig(), source, logger.NewNop())

	series, err := fetcher.FetchAll(context.Background(), candidatesFromCodes("111111", "222222", "333333"))
	require.NoError(t, err, "one failed candidate must not fail the batch")
	require.Len(t, series, 3)

	assert.NotNil(t, series[0])
	assert.Nil(t, series[1])
	assert.NotNil(t, series[2])
}

func TestFetcher_FetchAll_InvalidWorkers(t *testing.T) {
	fetcher := NewFetcher(FetcherConfig{Workers: 0, ChartScope: "1"}, &fakeTickSource{}, logger.NewNop())

	_, err := fetcher.FetchAll(context.Background(), candidatesFromCodes("111111"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrInvalidParameter))
}

func TestFetcher_FetchAll_BoundedConcurrency(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping sleepy concurrency test")
	}

	source := &fakeTickSource{
		series: map[string][]contracts.TickPoint{},
		delay:  20 * time.Millisecond,
	}
	fetcher := NewFetcher(FetcherConfig{Workers: 2, ChartScope: "1"}, source, logger.NewNop())

	codes := make([]string, 10)
	for i := range codes {
		codes[i] = "00000" + string(rune('0'+i))
	}
	_, err := fetcher.FetchAll(context.Background(), candidatesFromCodes(codes...))
	require.NoError(t, err)

	assert.LessOrEqual(t, atomic.LoadInt32(&source.maxInFlight), int32(2),
		"no more than Workers fetches may run at once")
}

func TestFetcher_FetchAll_ContextCancelled(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping sleepy cancellation test")
	}

	source := &fakeTickSource{
		series: map[string][]contracts.TickPoint{},
		delay:  50 * time.Millisecond,
	}
	fetcher := NewFetcher(FetcherConfig{Workers: 1, ChartScope: "1"}, source, logger.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := fetcher.FetchAll(ctx, candidatesFromCodes("111111", "222222", "333333", "444444"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestFetcher_FetchAll_Empty(t *testing.T) {
	fetcher := NewFetcher(DefaultFetcherConfig(), &fakeTickSource{}, logger.NewNop())

	series, err := fetcher.FetchAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, series)
}
