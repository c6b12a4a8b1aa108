// internal/domain/retention/threshold.go
package retention

import "sync"

const (
	MinThreshold     = 0.0
	MaxThreshold     = 100.0
	DefaultThreshold = 40.0
)

// Threshold is the runtime-adjustable retention bound, in percent.
type Threshold struct {
	mu    sync.RWMutex
	value float64
}

func NewThreshold(v float64) *Threshold {
	t := &Threshold{}
	t.Set(v)
	return t
}

// Set clamps v to [0,100] and returns the stored value.
func (t *Threshold) Set(v float64) float64 {
	v = Clamp(v)
	t.mu.Lock()
	t.value = v
	t.mu.Unlock()
	return v
}

func (t *Threshold) Value() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.value
}

func Clamp(v float64) float64 {
	if v != v { // NaN
		return DefaultThreshold
	}
	if v < MinThreshold {
		return MinThreshold
	}
	if v > MaxThreshold {
		return MaxThreshold
	}
	return v
}

// Breached fires strictly below the threshold.
func Breached(rate, threshold float64) bool {
	return rate < threshold
}
