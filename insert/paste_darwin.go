//go:build darwin

package insert

import (
	"sync"

	"github.com/micmonay/keybd_event"
)

var (
	kb     keybd_event.KeyBonding
	kbOnce sync.Once
	kbErr  error
)

func initBonding() error {
	kbOnce.Do(func() {
		kb, kbErr = keybd_event.NewKeyBonding()
	})
	return kbErr
}

func pasteChord() error {
	if err := initBonding(); err != nil {
		return err
	}
	kb.SetKeys(keybd_event.VK_V)
	kb.HasSuper(true) // Cmd+V
	return kb.Launching()
}

// Verify checks that the keyboard event binding is usable.
func Verify() (string, error) {
	if err := initBonding(); err != nil {
		return "", err
	}
	return "keyboard event binding OK (Cmd+V)", nil
}
