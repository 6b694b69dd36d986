//go:build !linux

package beep

import (
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

// One persistent playback device fed from an atomic cursor. The data
// callback emits silence when nothing is queued.

var (
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device

	current atomic.Pointer[[]int16]
	playPos atomic.Uint32
	playMu  sync.Mutex
)

func initPlayback() {
	var err error
	malgoCtx, err = malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return
	}
	if err := initDevice(); err != nil {
		malgoCtx.Uninit()
		malgoCtx = nil
	}
}

func initDevice() error {
	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = 1
	config.SampleRate = sampleRate

	callbacks := malgo.DeviceCallbacks{
		Data: dataCallback,
	}

	var err error
	device, err = malgo.InitDevice(malgoCtx.Context, config, callbacks)
	return err
}

func dataCallback(pOutput, _ []byte, frameCount uint32) {
	samples := current.Load()
	if samples == nil {
		zero(pOutput)
		return
	}

	pos := playPos.Load()
	total := uint32(len(*samples))
	if pos >= total {
		current.Store(nil)
		zero(pOutput)
		return
	}

	frames := frameCount
	if remaining := total - pos; frames > remaining {
		frames = remaining
	}
	for i := uint32(0); i < frames; i++ {
		s := (*samples)[pos+i]
		pOutput[i*2] = byte(s)
		pOutput[i*2+1] = byte(s >> 8)
	}
	playPos.Store(pos + frames)

	for i := frames * 2; i < frameCount*2; i++ {
		pOutput[i] = 0
	}
}

func zero(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}

func play(samples []int16) {
	if malgoCtx == nil || len(samples) == 0 {
		return
	}

	playMu.Lock()
	defer playMu.Unlock()

	if device == nil {
		return
	}

	device.Stop()
	playPos.Store(0)
	current.Store(&samples)

	if err := device.Start(); err != nil {
		// Recreate once; the device handle goes stale across sleep/wake.
		device.Uninit()
		if err := initDevice(); err != nil {
			current.Store(nil)
			return
		}
		if err := device.Start(); err != nil {
			current.Store(nil)
		}
	}
}
