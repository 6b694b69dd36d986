// Package tray shows a status icon with a small menu: start/stop
// recording, copy a recent transcription, clear history, quit. On
// platforms without a tray backend every call is a no-op.
package tray

import (
	"sync"
)

// Item is one history row shown in the menu.
type Item struct {
	ID   int64
	Text string
}

var (
	quitCh    = make(chan struct{})
	closeOnce sync.Once

	mu        sync.Mutex
	recording bool
	tooltip   string
	items     []Item

	recordFn  func()
	stopFn    func()
	copyFn    func(id int64)
	clearFn   func()
	refreshFn func() []Item
)

// OnRecord registers the callbacks fired from the menu's record controls.
func OnRecord(start, stop func()) {
	mu.Lock()
	recordFn, stopFn = start, stop
	mu.Unlock()
}

// OnHistory registers the history callbacks: refresh lists recent
// entries, copy puts one on the clipboard, clear wipes the store.
func OnHistory(refresh func() []Item, copy func(id int64), clear func()) {
	mu.Lock()
	refreshFn, copyFn, clearFn = refresh, copy, clear
	mu.Unlock()
}

// SetRecording flips the icon and the record menu title.
func SetRecording(rec bool) {
	mu.Lock()
	recording = rec
	mu.Unlock()
	updateRecordingIcon(rec)
}

// SetTooltip shows short status text on the icon.
func SetTooltip(text string) {
	mu.Lock()
	tooltip = text
	mu.Unlock()
	updateTooltip(text)
}

// SetHistory replaces the menu's history rows.
func SetHistory(entries []Item) {
	mu.Lock()
	items = entries
	mu.Unlock()
	updateHistoryMenu(entries)
}

// Quit closes the channel returned by Init. Safe to call twice.
func Quit() {
	closeOnce.Do(func() { close(quitCh) })
}

func menuLabel(text string) string {
	const max = 40
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-1]) + "…"
}
