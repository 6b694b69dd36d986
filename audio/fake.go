package audio

import (
	"encoding/binary"
	"sync"
)

const (
	fakeFrameSize     = 1024
	fakeBytesPerFrame = 2 // 16-bit mono
)

// FakeContext serves canned PCM to tests. The capture it hands out feeds
// the whole buffer synchronously on Start, in device-sized chunks.
type FakeContext struct {
	pcm []byte
}

// NewFakeContext builds a context around raw samples.
func NewFakeContext(samples []int16) *FakeContext {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	return &FakeContext{pcm: pcm}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake"}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	return &FakeCapture{pcm: f.pcm}, nil
}

type FakeCapture struct {
	pcm []byte

	// StartErr, when set, makes Start fail. Models a device that
	// disappeared between enumeration and use.
	StartErr error

	mu     sync.Mutex
	cb     DataCallback
	starts int
	stops  int
}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

func (f *FakeCapture) Stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

func (f *FakeCapture) Start() error {
	if f.StartErr != nil {
		return f.StartErr
	}

	f.mu.Lock()
	f.starts++
	cb := f.cb
	f.mu.Unlock()

	if cb == nil {
		return nil
	}

	chunkBytes := fakeFrameSize * fakeBytesPerFrame
	for pos := 0; pos < len(f.pcm); {
		end := min(pos+chunkBytes, len(f.pcm))
		chunk := make([]byte, end-pos)
		copy(chunk, f.pcm[pos:end])
		cb(chunk, uint32(len(chunk)/fakeBytesPerFrame))
		pos = end
	}
	return nil
}

// Feed delivers extra samples to the active callback, as if the device
// produced them mid-session.
func (f *FakeCapture) Feed(samples []int16) {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	if cb == nil {
		return
	}
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	cb(data, uint32(len(samples)))
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	f.stops++
	f.mu.Unlock()
}

func (f *FakeCapture) Close() {}
