package main

// EventSink abstracts the display layer so the Bubble Tea TUI and the
// plain-console fallback receive the same lifecycle events.
type EventSink interface {
	RecordingStart()
	RecordingStop()
	RecordingTick(seconds float64)
	AudioLevel(level float64)
	Transcribing()
	SilenceWarning(on bool)
	Transcription(text string, noSpeech bool)
	Status(text string)
}

// multiSink fans every event out to several sinks.
type multiSink []EventSink

func (m multiSink) RecordingStart() {
	for _, s := range m {
		s.RecordingStart()
	}
}

func (m multiSink) RecordingStop() {
	for _, s := range m {
		s.RecordingStop()
	}
}

func (m multiSink) RecordingTick(seconds float64) {
	for _, s := range m {
		s.RecordingTick(seconds)
	}
}

func (m multiSink) AudioLevel(level float64) {
	for _, s := range m {
		s.AudioLevel(level)
	}
}

func (m multiSink) Transcribing() {
	for _, s := range m {
		s.Transcribing()
	}
}

func (m multiSink) SilenceWarning(on bool) {
	for _, s := range m {
		s.SilenceWarning(on)
	}
}

func (m multiSink) Transcription(text string, noSpeech bool) {
	for _, s := range m {
		s.Transcription(text, noSpeech)
	}
}

func (m multiSink) Status(text string) {
	for _, s := range m {
		s.Status(text)
	}
}
