package tracing

import (
	"math/rand/v2"
)

// Sampler decides which requests get a root span.
type Sampler struct {
	enabled bool
	rate    float64
}

func NewSampler(enabled bool, rate float64) Sampler {
	return Sampler{enabled: enabled, rate: rate}
}

func (s Sampler) Sample() bool {
	if !s.enabled || s.rate <= 0 {
		return false
	}
	if s.rate >= 1 {
		return true
	}
	return rand.Float64() < s.rate
}
