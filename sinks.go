package main

import (
	"fmt"

	"github.com/whatiskadudoing/koe/tray"
)

// traySink mirrors the recording state onto the tray icon. The history
// menu is refreshed by main after each stored transcription.
type traySink struct {
	onTranscription func(text string)
}

func (s *traySink) RecordingStart() {
	tray.SetRecording(true)
	tray.SetTooltip("recording")
}

func (s *traySink) RecordingStop() {
	tray.SetRecording(false)
}

func (s *traySink) RecordingTick(float64) {}
func (s *traySink) AudioLevel(float64)    {}

func (s *traySink) Transcribing() {
	tray.SetTooltip("transcribing")
}

func (s *traySink) SilenceWarning(bool) {}

func (s *traySink) Transcription(text string, noSpeech bool) {
	tray.SetTooltip("ready")
	if !noSpeech && s.onTranscription != nil {
		s.onTranscription(text)
	}
}

func (s *traySink) Status(text string) {
	tray.SetTooltip(text)
}

// consoleSink is the headless fallback when the TUI is disabled.
type consoleSink struct{}

func (consoleSink) RecordingStart()       { fmt.Println("recording...") }
func (consoleSink) RecordingStop()        {}
func (consoleSink) RecordingTick(float64) {}
func (consoleSink) AudioLevel(float64)    {}
func (consoleSink) Transcribing()         { fmt.Println("transcribing...") }
func (consoleSink) SilenceWarning(on bool) {
	if on {
		fmt.Println("warning: no speech detected")
	}
}

func (consoleSink) Transcription(text string, noSpeech bool) {
	if noSpeech {
		fmt.Println("(no speech detected)")
		return
	}
	fmt.Println(text)
}

func (consoleSink) Status(text string) { fmt.Println(text) }
