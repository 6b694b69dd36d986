package insert

import "sync"

// Fake records inserted texts for tests.
type Fake struct {
	mu    sync.Mutex
	texts []string
}

func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) Insert(text string) {
	if text == "" {
		return
	}
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
}

func (f *Fake) Texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.texts))
	copy(out, f.texts)
	return out
}
