// Package insert places transcribed text into the focused application.
// Injection is best effort: the text is already on the clipboard, so a
// failed paste still leaves it one keystroke away.
package insert

import (
	"time"

	"github.com/atotto/clipboard"

	"github.com/whatiskadudoing/koe/log"
)

// Injector delivers text to the focused application.
type Injector interface {
	Insert(text string)
}

// CopyOnly writes the text to the clipboard without sending a paste
// chord. Used when auto-paste is disabled.
type CopyOnly struct{}

func (CopyOnly) Insert(text string) {
	if text == "" {
		return
	}
	if err := clipboard.WriteAll(text); err != nil {
		log.Warnf("clipboard write failed: %v", err)
	}
}

// Clipboard injects via copy-then-paste: save the clipboard, write the
// text, send the platform paste chord, and restore the old contents
// shortly after.
type Clipboard struct {
	// Restore puts the previous clipboard contents back after pasting.
	Restore bool
	// RestoreDelay is how long the restore waits for the target app to
	// read the clipboard.
	RestoreDelay time.Duration
}

func NewClipboard(restore bool) *Clipboard {
	return &Clipboard{Restore: restore, RestoreDelay: 600 * time.Millisecond}
}

func (c *Clipboard) Insert(text string) {
	if text == "" {
		return
	}

	var previous string
	if c.Restore {
		previous, _ = clipboard.ReadAll()
	}

	if err := clipboard.WriteAll(text); err != nil {
		log.Warnf("clipboard write failed: %v", err)
		return
	}

	// Give the clipboard a moment to settle before the paste chord.
	time.Sleep(50 * time.Millisecond)

	if err := pasteChord(); err != nil {
		log.Warnf("paste keystroke failed: %v", err)
	}

	if c.Restore && previous != "" && previous != text {
		go func() {
			time.Sleep(c.RestoreDelay)
			if err := clipboard.WriteAll(previous); err != nil {
				log.Warnf("clipboard restore failed: %v", err)
			}
		}()
	}
}
