package signal

import "github.com/swinglab/swingscan/internal/contracts"

// SMA is a simple moving average over a rolling window. Value stays 0 until
// the window has filled, so short series report 0 rather than a partial mean.
type SMA struct {
	period  int
	buf     []float64 // circular buffer
	idx     int
	count   int
	sum     float64
	current float64
}

// NewSMA creates an SMA indicator with the given period.
func NewSMA(period int) *SMA {
	return &SMA{
		period: period,
		buf:    make([]float64, period),
	}
}

func (s *SMA) Update(v float64) {
	if s.count >= s.period {
		s.sum -= s.buf[s.idx]
	}

	s.buf[s.idx] = v
	s.sum += v
	s.idx = (s.idx + 1) % s.period
	s.count++

	if s.count >= s.period {
		s.current = s.sum / float64(s.period)
	}
}

func (s *SMA) Value() float64 { return s.current }
func (s *SMA) Ready() bool    { return s.count >= s.period }

// volumeRatio compares mean volume over the last `recent` ticks against the
// `prior` ticks before them. Returns 0 when the prior window is empty, so a
// short series never divides by zero.
func volumeRatio(ticks []contracts.TickPoint, recent, prior int) float64 {
	n := len(ticks)

	lo := n - recent
	if lo < 0 {
		lo = 0
	}
	recentMean := meanVolume(ticks[lo:])

	plo := lo - prior
	if plo < 0 {
		plo = 0
	}
	priorMean := meanVolume(ticks[plo:lo])

	if priorMean <= 0 {
		return 0
	}
	return recentMean / priorMean
}

func meanVolume(ticks []contracts.TickPoint) float64 {
	if len(ticks) == 0 {
		return 0
	}
	var sum int64
	for _, tk := range ticks {
		sum += tk.Volume
	}
	return float64(sum) / float64(len(ticks))
}
