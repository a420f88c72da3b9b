package signal

import (
	"context"
	"fmt"
	"sync"

	"github.com/swinglab/swingscan/internal/contracts"
	"github.com/swinglab/swingscan/pkg/logger"
)

// TickSource provides the intraday series for one code.
type TickSource interface {
	MinuteChart(ctx context.Context, code, scope string) ([]contracts.TickPoint, error)
}

// Fetcher fans tick-series fetches out over a bounded worker pool. Fetches
// are independent reads; results land in an index-aligned slice so output
// order never depends on completion order.
type Fetcher struct {
	config FetcherConfig
	source TickSource
	logger *logger.Logger
}

// FetcherConfig controls pool width and the chart granularity.
type FetcherConfig struct {
	Workers    int
	ChartScope string // 분봉 단위 (1/3/5/10...)
}

// NewFetcher creates a new fetcher
func NewFetcher(config FetcherConfig, source TickSource, logger *logger.Logger) *Fetcher {
	return &Fetcher{
		config: config,
		source: source,
		logger: logger,
	}
}

// FetchAll returns one series per candidate, index-aligned with the input.
// A failed fetch leaves a nil series at its index and is logged; the caller
// records that candidate as missing data rather than aborting the batch.
func (f *Fetcher) FetchAll(ctx context.Context, candidates []contracts.Candidate) ([][]contracts.TickPoint, error) {
	if f.config.Workers <= 0 {
		return nil, fmt.Errorf("%w: workers must be positive, got %d", contracts.ErrInvalidParameter, f.config.Workers)
	}

	series := make([][]contracts.TickPoint, len(candidates))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < f.config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				ticks, err := f.source.MinuteChart(ctx, candidates[idx].Code, f.config.ChartScope)
				if err != nil {
					err = fmt.Errorf("%w: %v", contracts.ErrTickDataMissing, err)
					f.logger.WithError(err).WithFields(map[string]interface{}{
						"code":  candidates[idx].Code,
						"scope": f.config.ChartScope,
					}).Warn("Tick series fetch failed")
					continue
				}
				// distinct indices per job, no shared element
				series[idx] = ticks
			}
		}()
	}

feed:
	for i := range candidates {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return series, nil
}

// DefaultFetcherConfig returns default configuration
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		Workers:    4,
		ChartScope: "1",
	}
}
