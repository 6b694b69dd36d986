package audio

import (
	"encoding/binary"
	"math"
	"sync"
	"time"
)

// MinClipDuration is the shortest recording worth transcribing. Anything
// shorter is almost always an accidental tap on the hotkey.
const MinClipDuration = 500 * time.Millisecond

// amplitudeGain scales raw RMS into a usable meter range. Speech into a
// typical microphone peaks well below full scale.
const amplitudeGain = 10

// Clip is a finished recording.
type Clip struct {
	Samples    []int16
	SampleRate int
}

func (c *Clip) Duration() time.Duration {
	if c.SampleRate == 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// Recorder accumulates PCM from a capture device into a clip. One
// recording session at a time: Start arms the device, Stop disarms it and
// returns the clip, Abort disarms and discards. The data callback only
// appends under a short lock; device Start/Stop never run with the buffer
// lock held.
type Recorder struct {
	device CaptureDevice
	rate   int

	// OnAmplitude, if set before Start, receives the level of each PCM
	// chunk: RMS of the samples scaled by the meter gain, clamped to
	// [0, 1]. Called from the audio thread.
	OnAmplitude func(float64)

	mu        sync.Mutex
	recording bool
	chunks    [][]int16
	frames    uint64
}

func NewRecorder(device CaptureDevice, config CaptureConfig) *Recorder {
	return &Recorder{
		device: device,
		rate:   int(config.SampleRate),
	}
}

// Start begins a new recording session. Starting while already recording
// is a no-op.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return nil
	}
	r.recording = true
	r.chunks = nil
	r.frames = 0
	r.mu.Unlock()

	r.device.SetCallback(r.onData)
	if err := r.device.Start(); err != nil {
		r.device.ClearCallback()
		r.mu.Lock()
		r.recording = false
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *Recorder) onData(data []byte, frameCount uint32) {
	if len(data) < 2 {
		return
	}
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}

	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return
	}
	r.chunks = append(r.chunks, samples)
	r.frames += uint64(frameCount)
	cb := r.OnAmplitude
	r.mu.Unlock()

	if cb != nil {
		cb(Amplitude(samples))
	}
}

// Stop ends the session and returns the recorded clip, or nil when the
// recording is shorter than MinClipDuration or nothing was captured.
func (r *Recorder) Stop() *Clip {
	chunks, frames := r.disarm()
	if chunks == nil {
		return nil
	}

	if time.Duration(frames)*time.Second/time.Duration(r.rate) < MinClipDuration {
		return nil
	}

	samples := make([]int16, 0, frames)
	for _, c := range chunks {
		samples = append(samples, c...)
	}
	return &Clip{Samples: samples, SampleRate: r.rate}
}

// Abort ends the session and discards whatever was captured.
func (r *Recorder) Abort() {
	r.disarm()
}

func (r *Recorder) disarm() ([][]int16, uint64) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return nil, 0
	}
	r.recording = false
	r.mu.Unlock()

	r.device.Stop()
	r.device.ClearCallback()

	r.mu.Lock()
	chunks, frames := r.chunks, r.frames
	r.chunks, r.frames = nil, 0
	r.mu.Unlock()
	return chunks, frames
}

func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Duration reports how much audio the current session has captured so far.
func (r *Recorder) Duration() time.Duration {
	r.mu.Lock()
	frames := r.frames
	r.mu.Unlock()
	if r.rate == 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(r.rate)
}

// Amplitude computes the meter level of a chunk of samples: RMS relative
// to full scale, scaled by the meter gain and clamped to [0, 1]. Silence
// maps to 0, sustained loud speech saturates at 1.
func Amplitude(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		f := float64(s) / 32768.0
		sum += f * f
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	level := rms * amplitudeGain
	if level > 1 {
		level = 1
	}
	return level
}
