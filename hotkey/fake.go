package hotkey

import "sync"

// FakeSource drives the engine from tests. Events are delivered
// synchronously on the caller's goroutine.
type FakeSource struct {
	mu      sync.Mutex
	handler func(Event)
	started bool
}

func NewFakeSource() *FakeSource {
	return &FakeSource{}
}

func (f *FakeSource) Start(handler func(Event)) error {
	f.mu.Lock()
	f.handler = handler
	f.started = true
	f.mu.Unlock()
	return nil
}

func (f *FakeSource) Stop() {
	f.mu.Lock()
	f.started = false
	f.mu.Unlock()
}

func (f *FakeSource) Started() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

func (f *FakeSource) Press(k Key) { f.emit(Event{Key: k, Down: true}) }

func (f *FakeSource) Release(k Key) { f.emit(Event{Key: k, Down: false}) }

func (f *FakeSource) emit(ev Event) {
	f.mu.Lock()
	h := f.handler
	started := f.started
	f.mu.Unlock()
	if started && h != nil {
		h(ev)
	}
}
