//go:build linux

package tray

import (
	"sync"
	"time"

	"fyne.io/systray"
)

const historySlots = 10

var (
	mRecord   *systray.MenuItem
	mHistory  *systray.MenuItem
	mClear    *systray.MenuItem
	histItems []*systray.MenuItem
	histIDs   []int64
	histMu    sync.Mutex

	ready = make(chan struct{})
)

// Init starts the tray in its own goroutine and returns a channel closed
// when Quit is chosen. Waits briefly for the menu; a desktop without a
// status notifier host just leaves the tray dormant.
func Init() <-chan struct{} {
	go systray.Run(onReady, func() {})
	select {
	case <-ready:
	case <-time.After(5 * time.Second):
	}
	return quitCh
}

func onReady() {
	systray.SetIcon(iconIdle)
	systray.SetTitle("koe")
	systray.SetTooltip("koe: ready")

	mRecord = systray.AddMenuItem("Start Recording", "Toggle recording")
	systray.AddSeparator()

	mHistory = systray.AddMenuItem("History", "Recent transcriptions")
	histItems = make([]*systray.MenuItem, historySlots)
	histIDs = make([]int64, historySlots)
	for i := range histItems {
		histItems[i] = mHistory.AddSubMenuItem("", "Copy to clipboard")
		histItems[i].Hide()
		go watchHistoryItem(i)
	}
	mClear = systray.AddMenuItem("Clear History", "Delete all stored transcriptions")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Exit")

	go func() {
		for {
			select {
			case <-mRecord.ClickedCh:
				onRecordClicked()
			case <-mHistory.ClickedCh:
				refreshHistory()
			case <-mClear.ClickedCh:
				mu.Lock()
				fn := clearFn
				mu.Unlock()
				if fn != nil {
					fn()
				}
				updateHistoryMenu(nil)
			case <-mQuit.ClickedCh:
				Quit()
				return
			}
		}
	}()

	close(ready)
}

func onRecordClicked() {
	mu.Lock()
	rec := recording
	start, stop := recordFn, stopFn
	mu.Unlock()
	if rec {
		if stop != nil {
			stop()
		}
	} else if start != nil {
		start()
	}
}

func refreshHistory() {
	mu.Lock()
	fn := refreshFn
	mu.Unlock()
	if fn == nil {
		return
	}
	updateHistoryMenu(fn())
}

func watchHistoryItem(i int) {
	for range histItems[i].ClickedCh {
		histMu.Lock()
		id := histIDs[i]
		histMu.Unlock()
		mu.Lock()
		fn := copyFn
		mu.Unlock()
		if fn != nil && id != 0 {
			fn(id)
		}
	}
}

func updateRecordingIcon(rec bool) {
	if mRecord == nil {
		return
	}
	if rec {
		systray.SetIcon(iconRec)
		mRecord.SetTitle("Stop Recording")
	} else {
		systray.SetIcon(iconIdle)
		mRecord.SetTitle("Start Recording")
	}
}

func updateTooltip(text string) {
	if mRecord == nil {
		return
	}
	systray.SetTooltip("koe: " + text)
}

func updateHistoryMenu(entries []Item) {
	if histItems == nil {
		return
	}
	histMu.Lock()
	defer histMu.Unlock()
	for i, item := range histItems {
		if i < len(entries) {
			histIDs[i] = entries[i].ID
			item.SetTitle(menuLabel(entries[i].Text))
			item.Show()
		} else {
			histIDs[i] = 0
			item.Hide()
		}
	}
}
