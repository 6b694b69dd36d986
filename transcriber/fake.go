package transcriber

import (
	"context"
	"sync"
	"time"

	"github.com/whatiskadudoing/koe/audio"
)

// Fake returns canned results for tests. Delay, when set, simulates a
// slow API; Transcribe still honors ctx cancellation during the wait.
type Fake struct {
	Text  string
	Err   error
	Delay time.Duration

	mu    sync.Mutex
	lang  string
	calls int
}

func NewFake(text string, err error) *Fake {
	return &Fake{Text: text, Err: err}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) SetLanguage(lang string) {
	f.mu.Lock()
	f.lang = lang
	f.mu.Unlock()
}

func (f *Fake) Language() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lang
}

func (f *Fake) Warm() {}

func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *Fake) Transcribe(ctx context.Context, clip *audio.Clip, _ string) (*Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return &Result{
		Text:     f.Text,
		Language: f.Language(),
		Duration: clip.Duration().Seconds(),
		Metrics:  &NetworkMetrics{Total: 10 * time.Millisecond},
	}, nil
}
