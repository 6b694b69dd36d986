//go:build !linux

package hotkey

import (
	"fmt"
	"sync"

	xhotkey "golang.design/x/hotkey"
)

// Bridges golang.design/x/hotkey, which registers the whole combo with the
// OS, onto the per-key Source contract. The OS only reports press and
// release of the registered combo, so a combo keydown is expanded into
// synthetic Down events for each key and keyup into the matching Ups.
type xSource struct {
	combo Combo
	hk    *xhotkey.Hotkey
	stop  chan struct{}
	once  sync.Once
}

// NewSource returns a key event source backed by an OS hotkey registration.
func NewSource(combo Combo) Source {
	return &xSource{combo: combo}
}

func (s *xSource) Start(handler func(Event)) error {
	mods := make([]xhotkey.Modifier, 0, len(s.combo.Modifiers))
	for _, m := range s.combo.Modifiers {
		xm, err := lookupModifier(m)
		if err != nil {
			return err
		}
		mods = append(mods, xm)
	}
	trig, err := lookupKey(s.combo.Trigger)
	if err != nil {
		return err
	}

	s.hk = xhotkey.New(mods, trig)
	if err := s.hk.Register(); err != nil {
		return fmt.Errorf("registering %s: %w", s.combo, err)
	}
	s.stop = make(chan struct{})

	go func() {
		for {
			select {
			case <-s.hk.Keydown():
				for _, m := range s.combo.Modifiers {
					handler(Event{Key: m, Down: true})
				}
				handler(Event{Key: s.combo.Trigger, Down: true})
			case <-s.hk.Keyup():
				handler(Event{Key: s.combo.Trigger, Down: false})
				for _, m := range s.combo.Modifiers {
					handler(Event{Key: m, Down: false})
				}
			case <-s.stop:
				return
			}
		}
	}()
	return nil
}

func (s *xSource) Stop() {
	s.once.Do(func() {
		if s.stop != nil {
			close(s.stop)
		}
		if s.hk != nil {
			s.hk.Unregister()
		}
	})
}

// Diagnose reports whether the OS hotkey backend is usable.
func Diagnose() (string, error) {
	return "OS hotkey registration available", nil
}
