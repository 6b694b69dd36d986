// Package beep plays short feedback tones for recording start, stop and
// error. Playback is fire-and-forget; failures are silent since the tones
// are purely cosmetic.
package beep

import (
	"math"
	"sync"
)

var disabled bool

// Disable turns all tones off.
func Disable() { disabled = true }

const (
	sampleRate = 44100

	// Start: high pitch, short
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	// Stop: medium pitch, slightly longer
	endFreq   = 900
	endVolume = 0.5
	endDecay  = 40

	// Error: low pitch double-beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)

var (
	startSamples []int16
	endSamples   []int16
	errorSamples []int16
	soundOnce    sync.Once
)

func initSound() {
	startSamples = tone(startFreq, 0.15, startVolume, startDecay)
	endSamples = tone(endFreq, 0.2, endVolume, endDecay)
	errorSamples = doubleTone(errorFreq, 0.08, 0.05, errorVolume, errorDecay)
	initPlayback()
}

// tone generates a mono sine burst with exponential decay.
func tone(freq float64, duration float64, volume float64, decay float64) []int16 {
	n := int(sampleRate * duration)
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / sampleRate
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

func doubleTone(freq float64, beepDur float64, gapDur float64, volume float64, decay float64) []int16 {
	burst := tone(freq, beepDur, volume, decay)
	gap := make([]int16, int(sampleRate*gapDur))
	result := make([]int16, 0, len(burst)*2+len(gap))
	result = append(result, burst...)
	result = append(result, gap...)
	result = append(result, burst...)
	return result
}

// Init warms up the playback device so the first tone is not late.
func Init() {
	if disabled {
		return
	}
	soundOnce.Do(initSound)
}

func PlayStart() {
	if disabled {
		return
	}
	soundOnce.Do(initSound)
	play(startSamples)
}

func PlayEnd() {
	if disabled {
		return
	}
	soundOnce.Do(initSound)
	play(endSamples)
}

func PlayError() {
	if disabled {
		return
	}
	soundOnce.Do(initSound)
	play(errorSamples)
}
