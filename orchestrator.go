package main

import (
	"context"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/whatiskadudoing/koe/audio"
	"github.com/whatiskadudoing/koe/beep"
	"github.com/whatiskadudoing/koe/history"
	"github.com/whatiskadudoing/koe/insert"
	"github.com/whatiskadudoing/koe/log"
	"github.com/whatiskadudoing/koe/transcriber"
)

type AppState int32

const (
	StateReady AppState = iota
	StateRecording
	StateTranscribing
	StateError
)

func (s AppState) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRecording:
		return "recording"
	case StateTranscribing:
		return "transcribing"
	case StateError:
		return "error"
	}
	return "unknown"
}

const (
	transcribeTimeout = 60 * time.Second
	errMsgMax         = 120
)

// Orchestrator drives one recording/transcription cycle at a time.
// Activate and Deactivate are called from the main event loop; the
// transcription itself runs on a worker goroutine and only one worker
// is ever in flight, enforced by the Transcribing state.
type Orchestrator struct {
	rec      *audio.Recorder
	trans    transcriber.Transcriber
	store    *history.Store
	injector insert.Injector
	sink     EventSink
	format   string

	// IsToggle reports whether the hotkey runs in toggle mode; the
	// silence monitor only auto-closes toggle sessions.
	IsToggle func() bool
	// OnAutoClose runs when a toggled recording is closed for
	// sustained silence, before Deactivate is invoked.
	OnAutoClose func()

	timeout time.Duration // transcription deadline

	mu       sync.Mutex
	state    AppState
	lastErr  string
	tickDone chan struct{}
	worker   chan struct{}

	level uint64 // atomic float64 bits, latest amplitude
}

func NewOrchestrator(rec *audio.Recorder, trans transcriber.Transcriber, store *history.Store, injector insert.Injector, sink EventSink, format string) *Orchestrator {
	o := &Orchestrator{
		rec:      rec,
		trans:    trans,
		store:    store,
		injector: injector,
		sink:     sink,
		format:   format,
		timeout:  transcribeTimeout,
	}
	rec.OnAmplitude = o.onAmplitude
	return o
}

func (o *Orchestrator) State() AppState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// LastError returns the message of the most recent failure, if any.
func (o *Orchestrator) LastError() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// onAmplitude runs on the audio driver's delivery goroutine; it must
// not block, so it only stores the level and forwards it to the sink.
func (o *Orchestrator) onAmplitude(level float64) {
	atomic.StoreUint64(&o.level, math.Float64bits(level))
	o.sink.AudioLevel(level)
}

// Activate begins a recording. Edges arriving while a transcription is
// still in flight are dropped; edges during an active recording are
// no-ops.
func (o *Orchestrator) Activate() {
	o.mu.Lock()
	switch o.state {
	case StateRecording:
		o.mu.Unlock()
		return
	case StateTranscribing:
		o.mu.Unlock()
		log.Info("activate_dropped: transcription in flight")
		return
	}
	if err := o.rec.Start(); err != nil {
		o.mu.Unlock()
		log.Errorf("recording start error: %v", err)
		o.fail("microphone: " + truncateErr(err.Error()))
		return
	}
	o.state = StateRecording
	o.tickDone = make(chan struct{})
	done := o.tickDone
	o.mu.Unlock()

	log.Info("recording_start")
	o.sink.RecordingStart()
	go beep.PlayStart()
	go o.tickLoop(done)
}

// Deactivate ends the recording and hands the clip to the worker.
// Ignored unless a recording is active.
func (o *Orchestrator) Deactivate() {
	o.mu.Lock()
	if o.state != StateRecording {
		o.mu.Unlock()
		return
	}
	close(o.tickDone)
	o.tickDone = nil
	clip := o.rec.Stop()
	if clip == nil {
		o.state = StateReady
		o.mu.Unlock()
		log.Info("recording_stop: no audio")
		o.sink.RecordingStop()
		o.sink.SilenceWarning(false)
		go beep.PlayEnd()
		o.sink.Status("no audio")
		return
	}
	o.state = StateTranscribing
	o.worker = make(chan struct{})
	done := o.worker
	o.mu.Unlock()

	log.Info("recording_stop")
	o.sink.RecordingStop()
	o.sink.SilenceWarning(false)
	go beep.PlayEnd()
	o.sink.Transcribing()

	go func() {
		defer close(done)
		o.transcribe(clip)
	}()
}

// DeviceError abandons any active recording after a capture failure.
// The session is discarded; nothing is transcribed.
func (o *Orchestrator) DeviceError(err error) {
	o.mu.Lock()
	if o.state == StateRecording {
		close(o.tickDone)
		o.tickDone = nil
		o.state = StateReady
		o.mu.Unlock()
		o.rec.Abort()
		o.sink.RecordingStop()
		o.sink.SilenceWarning(false)
	} else {
		o.mu.Unlock()
	}
	log.Errorf("device error: %v", err)
	o.fail("microphone: " + truncateErr(err.Error()))
}

// Wait blocks until the in-flight transcription worker, if any, exits.
func (o *Orchestrator) Wait() {
	o.mu.Lock()
	done := o.worker
	o.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (o *Orchestrator) transcribe(clip *audio.Clip) {
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	result, err := o.trans.Transcribe(ctx, clip, o.format)
	if err != nil {
		log.Errorf("transcription error: %v", err)
		o.fail(truncateErr(err.Error()))
		return
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		log.Info("no_speech")
		o.sink.Transcription("", true)
		o.setReady("no speech detected")
		return
	}

	// Injection is best-effort; a failed paste never blocks Ready.
	o.injector.Insert(text)

	// The history write gets its own context; the transcription deadline
	// may already be spent by the time the API responds.
	if o.store != nil {
		if _, err := o.store.Add(context.Background(), text, clip.Duration().Seconds(), result.Language); err != nil {
			log.Warnf("history write failed: %v", err)
		}
	}

	log.TranscriptionText(text)
	log.Language(result.Language, result.LanguageConfidence)
	if result.Metrics != nil {
		log.TranscriptionMetrics(log.Metrics{
			AudioLengthS: clip.Duration().Seconds(),
			UploadKB:     result.Metrics.UploadKB,
			EncodeTimeMs: float64(result.Metrics.Encode.Milliseconds()),
			DNSTimeMs:    float64(result.Metrics.DNS.Milliseconds()),
			TLSTimeMs:    float64(result.Metrics.TLS.Milliseconds()),
			TTFBMs:       float64(result.Metrics.TTFB.Milliseconds()),
			TotalTimeMs:  float64(result.Metrics.Total.Milliseconds()),
		}, o.modeLabel(), o.format, o.trans.Name(), result.Metrics.ConnReused)
	}

	o.sink.Transcription(text, false)
	o.setReady("")
}

// fail reports an error through the sink, passes through the Error
// state and settles back on Ready.
func (o *Orchestrator) fail(msg string) {
	o.mu.Lock()
	o.state = StateError
	o.lastErr = msg
	o.mu.Unlock()
	o.sink.Status("error: " + msg)
	go beep.PlayError()
	o.mu.Lock()
	o.state = StateReady
	o.mu.Unlock()
}

func (o *Orchestrator) setReady(status string) {
	o.mu.Lock()
	o.state = StateReady
	o.mu.Unlock()
	if status != "" {
		o.sink.Status(status)
	}
}

func (o *Orchestrator) modeLabel() string {
	if o.IsToggle != nil && o.IsToggle() {
		return "toggle"
	}
	return "hold"
}

// tickLoop emits duration updates and feeds the silence monitor while
// a recording is active.
func (o *Orchestrator) tickLoop(done <-chan struct{}) {
	isToggle := func() bool { return o.IsToggle != nil && o.IsToggle() }
	mon := newSilenceMonitor(isToggle)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			o.sink.RecordingTick(o.rec.Duration().Seconds())
			level := math.Float64frombits(atomic.LoadUint64(&o.level))
			switch mon.Tick(level) {
			case SilenceWarn:
				log.Info("no_voice_warning")
				o.sink.SilenceWarning(true)
				go beep.PlayError()
			case SilenceWarnClear:
				o.sink.SilenceWarning(false)
			case SilenceRepeat:
				log.Info("silence_during_warning")
				go beep.PlayError()
			case SilenceAutoClose:
				log.Info("silence_auto_close")
				if o.OnAutoClose != nil {
					o.OnAutoClose()
				}
				o.Deactivate()
				return
			}
		}
	}
}

func truncateErr(msg string) string {
	if len(msg) > errMsgMax {
		return msg[:errMsgMax] + "..."
	}
	return msg
}
