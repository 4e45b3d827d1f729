package keytone

import (
	"time"
)

type numeric interface {
	int | float32 | float64
}

func clamp[T numeric](v, min, max T) T {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// samplesInDuration converts d to a number of samples, rounding down.
func samplesInDuration(d time.Duration, sampleRate int) int {
	return int(d.Seconds() * float64(sampleRate))
}

// frameDuration returns the playback time of n samples.
func frameDuration(n, sampleRate int) time.Duration {
	return time.Duration(n) * time.Second / time.Duration(sampleRate)
}
