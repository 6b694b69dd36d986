package main

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/whatiskadudoing/koe/audio"
	"github.com/whatiskadudoing/koe/beep"
	"github.com/whatiskadudoing/koe/history"
	"github.com/whatiskadudoing/koe/insert"
	"github.com/whatiskadudoing/koe/transcriber"
)

func init() {
	beep.Disable()
}

type fakeSink struct {
	mu            sync.Mutex
	starts, stops int
	transcribing  int
	statuses      []string
	texts         []string
	noSpeech      int
	levels        int
	silenceWarns  int
}

func (s *fakeSink) RecordingStart() {
	s.mu.Lock()
	s.starts++
	s.mu.Unlock()
}

func (s *fakeSink) RecordingStop() {
	s.mu.Lock()
	s.stops++
	s.mu.Unlock()
}

func (s *fakeSink) RecordingTick(float64) {}

func (s *fakeSink) AudioLevel(float64) {
	s.mu.Lock()
	s.levels++
	s.mu.Unlock()
}

func (s *fakeSink) Transcribing() {
	s.mu.Lock()
	s.transcribing++
	s.mu.Unlock()
}

func (s *fakeSink) SilenceWarning(on bool) {
	s.mu.Lock()
	if on {
		s.silenceWarns++
	}
	s.mu.Unlock()
}

func (s *fakeSink) Transcription(text string, noSpeech bool) {
	s.mu.Lock()
	if noSpeech {
		s.noSpeech++
	} else {
		s.texts = append(s.texts, text)
	}
	s.mu.Unlock()
}

func (s *fakeSink) Status(text string) {
	s.mu.Lock()
	s.statuses = append(s.statuses, text)
	s.mu.Unlock()
}

func (s *fakeSink) lastStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.statuses) == 0 {
		return ""
	}
	return s.statuses[len(s.statuses)-1]
}

const testRate = 16000

// longAudio gives a second of nonzero samples, enough to clear the
// minimum clip length.
func longAudio() []int16 {
	samples := make([]int16, testRate)
	for i := range samples {
		samples[i] = 1000
	}
	return samples
}

func shortAudio() []int16 {
	return make([]int16, testRate/10) // 100ms
}

func newTestOrchestrator(t *testing.T, samples []int16, trans transcriber.Transcriber) (*Orchestrator, *audio.FakeCapture, *insert.Fake, *fakeSink) {
	t.Helper()
	ctx := audio.NewFakeContext(samples)
	dev, err := ctx.NewCapture(nil, audio.CaptureConfig{SampleRate: testRate, Channels: 1})
	if err != nil {
		t.Fatalf("NewCapture: %v", err)
	}
	cap := dev.(*audio.FakeCapture)
	rec := audio.NewRecorder(cap, audio.CaptureConfig{SampleRate: testRate, Channels: 1})
	inj := insert.NewFake()
	sink := &fakeSink{}
	o := NewOrchestrator(rec, trans, nil, inj, sink, "flac")
	return o, cap, inj, sink
}

func TestFullCycle(t *testing.T) {
	trans := transcriber.NewFake("hello world", nil)
	o, cap, inj, sink := newTestOrchestrator(t, longAudio(), trans)

	o.Activate()
	if got := o.State(); got != StateRecording {
		t.Fatalf("state after Activate = %v, want recording", got)
	}
	if cap.Starts() != 1 {
		t.Fatalf("device starts = %d, want 1", cap.Starts())
	}

	o.Deactivate()
	o.Wait()

	if got := o.State(); got != StateReady {
		t.Fatalf("state after cycle = %v, want ready", got)
	}
	if trans.Calls() != 1 {
		t.Fatalf("transcriber calls = %d, want 1", trans.Calls())
	}
	if texts := inj.Texts(); len(texts) != 1 || texts[0] != "hello world" {
		t.Fatalf("injected = %v, want [hello world]", texts)
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.starts != 1 || sink.stops != 1 || sink.transcribing != 1 {
		t.Fatalf("sink events start=%d stop=%d transcribing=%d", sink.starts, sink.stops, sink.transcribing)
	}
	if len(sink.texts) != 1 || sink.texts[0] != "hello world" {
		t.Fatalf("sink texts = %v", sink.texts)
	}
}

func TestHistoryRecorded(t *testing.T) {
	store, err := history.Open(context.Background(), history.Options{
		Path:          filepath.Join(t.TempDir(), "history.db"),
		MaxItems:      10,
		RetentionDays: 7,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	trans := transcriber.NewFake("stored text", nil)
	trans.SetLanguage("en")
	o, _, _, _ := newTestOrchestrator(t, longAudio(), trans)
	o.store = store

	o.Activate()
	o.Deactivate()
	o.Wait()

	entries, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 || entries[0].Text != "stored text" {
		t.Fatalf("entries = %+v, want one 'stored text'", entries)
	}
	if entries[0].Language != "en" {
		t.Fatalf("language = %q, want en", entries[0].Language)
	}
	if entries[0].Duration < 0.9 || entries[0].Duration > 1.1 {
		t.Fatalf("duration = %v, want ~1s", entries[0].Duration)
	}
}

// deadlineOblivious returns text after its delay without checking ctx,
// like a provider that only notices cancellation on the next read.
type deadlineOblivious struct {
	transcriber.Fake
	delay time.Duration
}

func (d *deadlineOblivious) Transcribe(_ context.Context, clip *audio.Clip, _ string) (*transcriber.Result, error) {
	time.Sleep(d.delay)
	return &transcriber.Result{Text: "late but fine", Duration: clip.Duration().Seconds()}, nil
}

func TestHistoryWrittenAfterDeadlineSpent(t *testing.T) {
	store, err := history.Open(context.Background(), history.Options{
		Path:          filepath.Join(t.TempDir(), "history.db"),
		MaxItems:      10,
		RetentionDays: 7,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	// The transcription outlives its own deadline; the result must still
	// reach history instead of being cancelled by the spent context.
	trans := &deadlineOblivious{delay: 30 * time.Millisecond}
	o, _, _, _ := newTestOrchestrator(t, longAudio(), trans)
	o.store = store
	o.timeout = 10 * time.Millisecond

	o.Activate()
	o.Deactivate()
	o.Wait()

	if got := o.State(); got != StateReady {
		t.Fatalf("state after cycle = %v, want ready", got)
	}
	entries, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 || entries[0].Text != "late but fine" {
		t.Fatalf("entries = %+v, want one 'late but fine'", entries)
	}
}

func TestActivateDroppedWhileTranscribing(t *testing.T) {
	trans := transcriber.NewFake("slow", nil)
	trans.Delay = 200 * time.Millisecond
	o, cap, _, _ := newTestOrchestrator(t, longAudio(), trans)

	o.Activate()
	o.Deactivate()
	if got := o.State(); got != StateTranscribing {
		t.Fatalf("state = %v, want transcribing", got)
	}

	o.Activate() // must be dropped
	if got := o.State(); got != StateTranscribing {
		t.Fatalf("state after dropped edge = %v, want transcribing", got)
	}
	if cap.Starts() != 1 {
		t.Fatalf("device starts = %d, want 1 (dropped edge must not start)", cap.Starts())
	}

	o.Wait()
	if got := o.State(); got != StateReady {
		t.Fatalf("state after worker = %v, want ready", got)
	}
}

func TestActivateWhileRecordingIsNoop(t *testing.T) {
	o, cap, _, sink := newTestOrchestrator(t, longAudio(), transcriber.NewFake("x", nil))

	o.Activate()
	o.Activate()
	if cap.Starts() != 1 {
		t.Fatalf("device starts = %d, want 1", cap.Starts())
	}
	sink.mu.Lock()
	starts := sink.starts
	sink.mu.Unlock()
	if starts != 1 {
		t.Fatalf("sink starts = %d, want 1", starts)
	}
	o.Deactivate()
	o.Wait()
}

func TestDeactivateWhileReadyIsNoop(t *testing.T) {
	trans := transcriber.NewFake("x", nil)
	o, cap, _, _ := newTestOrchestrator(t, longAudio(), trans)

	o.Deactivate()
	if trans.Calls() != 0 || cap.Stops() != 0 {
		t.Fatal("deactivate without recording touched the device or API")
	}
	if got := o.State(); got != StateReady {
		t.Fatalf("state = %v, want ready", got)
	}
}

func TestShortClipYieldsNoAudio(t *testing.T) {
	trans := transcriber.NewFake("x", nil)
	o, _, inj, sink := newTestOrchestrator(t, shortAudio(), trans)

	o.Activate()
	o.Deactivate()
	o.Wait()

	if trans.Calls() != 0 {
		t.Fatalf("transcriber calls = %d, want 0", trans.Calls())
	}
	if len(inj.Texts()) != 0 {
		t.Fatalf("injected = %v, want none", inj.Texts())
	}
	if got := sink.lastStatus(); got != "no audio" {
		t.Fatalf("status = %q, want 'no audio'", got)
	}
	if got := o.State(); got != StateReady {
		t.Fatalf("state = %v, want ready", got)
	}
}

func TestTranscriptionErrorReturnsToReady(t *testing.T) {
	trans := transcriber.NewFake("", errors.New("api exploded"))
	o, _, inj, sink := newTestOrchestrator(t, longAudio(), trans)

	o.Activate()
	o.Deactivate()
	o.Wait()

	if got := o.State(); got != StateReady {
		t.Fatalf("state = %v, want ready", got)
	}
	if got := o.LastError(); !strings.Contains(got, "api exploded") {
		t.Fatalf("LastError = %q, want message", got)
	}
	if got := sink.lastStatus(); !strings.HasPrefix(got, "error:") {
		t.Fatalf("status = %q, want error prefix", got)
	}
	if len(inj.Texts()) != 0 {
		t.Fatalf("injected after error = %v, want none", inj.Texts())
	}
}

func TestErrorMessageTruncated(t *testing.T) {
	long := strings.Repeat("x", 500)
	trans := transcriber.NewFake("", errors.New(long))
	o, _, _, _ := newTestOrchestrator(t, longAudio(), trans)

	o.Activate()
	o.Deactivate()
	o.Wait()

	got := o.LastError()
	if len(got) > errMsgMax+3 {
		t.Fatalf("LastError length = %d, want <= %d", len(got), errMsgMax+3)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("LastError = %q, want truncation marker", got)
	}
}

func TestEmptyTextIsNoSpeech(t *testing.T) {
	trans := transcriber.NewFake("   \n ", nil)
	o, _, inj, sink := newTestOrchestrator(t, longAudio(), trans)

	o.Activate()
	o.Deactivate()
	o.Wait()

	if got := sink.lastStatus(); got != "no speech detected" {
		t.Fatalf("status = %q, want 'no speech detected'", got)
	}
	sink.mu.Lock()
	noSpeech := sink.noSpeech
	sink.mu.Unlock()
	if noSpeech != 1 {
		t.Fatalf("noSpeech events = %d, want 1", noSpeech)
	}
	if len(inj.Texts()) != 0 {
		t.Fatalf("injected = %v, want none", inj.Texts())
	}
	if got := o.State(); got != StateReady {
		t.Fatalf("state = %v, want ready", got)
	}
}

func TestStartErrorFails(t *testing.T) {
	trans := transcriber.NewFake("x", nil)
	o, cap, _, sink := newTestOrchestrator(t, longAudio(), trans)
	cap.StartErr = errors.New("device gone")

	o.Activate()

	if got := o.State(); got != StateReady {
		t.Fatalf("state = %v, want ready", got)
	}
	if got := o.LastError(); !strings.Contains(got, "device gone") {
		t.Fatalf("LastError = %q", got)
	}
	if got := sink.lastStatus(); !strings.HasPrefix(got, "error:") {
		t.Fatalf("status = %q, want error prefix", got)
	}

	// Recovery: a later Activate works once the device is back
	cap.StartErr = nil
	o.Activate()
	if got := o.State(); got != StateRecording {
		t.Fatalf("state after recovery = %v, want recording", got)
	}
	o.Deactivate()
	o.Wait()
}

func TestDeviceErrorAbandonsSession(t *testing.T) {
	trans := transcriber.NewFake("x", nil)
	o, _, _, sink := newTestOrchestrator(t, longAudio(), trans)

	o.Activate()
	o.DeviceError(errors.New("unplugged"))

	if got := o.State(); got != StateReady {
		t.Fatalf("state = %v, want ready", got)
	}
	if trans.Calls() != 0 {
		t.Fatalf("transcriber calls = %d, want 0 (session abandoned)", trans.Calls())
	}
	if got := o.LastError(); !strings.Contains(got, "unplugged") {
		t.Fatalf("LastError = %q", got)
	}
	sink.mu.Lock()
	stops := sink.stops
	sink.mu.Unlock()
	if stops != 1 {
		t.Fatalf("sink stops = %d, want 1", stops)
	}
}

func TestAmplitudeForwarded(t *testing.T) {
	o, _, _, sink := newTestOrchestrator(t, longAudio(), transcriber.NewFake("x", nil))

	o.Activate()
	o.Deactivate()
	o.Wait()

	sink.mu.Lock()
	levels := sink.levels
	sink.mu.Unlock()
	if levels == 0 {
		t.Fatal("expected amplitude events during recording")
	}
}

func TestHistoryFailureDoesNotBlockReady(t *testing.T) {
	store, err := history.Open(context.Background(), history.Options{
		Path:          filepath.Join(t.TempDir(), "history.db"),
		MaxItems:      10,
		RetentionDays: 7,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store.Close() // writes will now fail

	trans := transcriber.NewFake("still works", nil)
	o, _, inj, _ := newTestOrchestrator(t, longAudio(), trans)
	o.store = store

	o.Activate()
	o.Deactivate()
	o.Wait()

	if got := o.State(); got != StateReady {
		t.Fatalf("state = %v, want ready", got)
	}
	if texts := inj.Texts(); len(texts) != 1 {
		t.Fatalf("injected = %v, want the text despite store failure", texts)
	}
}
