//go:build linux

package hotkey

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Reads raw evdev key events from every keyboard under /dev/input. Global
// key state without a display server dependency, but requires membership
// in the 'input' group.

const (
	evKey      = 1
	keyRelease = 0
	keyPress   = 1
	keyRepeat  = 2
)

const inputEventSize = 24

// Kernel KEY_* codes for every key the engine can be configured with.
var evdevKeys = map[uint16]Key{
	29:  KeyCtrl, // left
	97:  KeyCtrl, // right
	42:  KeyShift,
	54:  KeyShift,
	56:  KeyAlt,
	100: KeyAlt,
	125: KeyCmd,
	126: KeyCmd,

	57: KeySpace,
	28: KeyEnter,
	15: KeyTab,
	1:  KeyEscape,

	16: "q", 17: "w", 18: "e", 19: "r", 20: "t", 21: "y", 22: "u", 23: "i", 24: "o", 25: "p",
	30: "a", 31: "s", 32: "d", 33: "f", 34: "g", 35: "h", 36: "j", 37: "k", 38: "l",
	44: "z", 45: "x", 46: "c", 47: "v", 48: "b", 49: "n", 50: "m",

	11: "0", 2: "1", 3: "2", 4: "3", 5: "4", 6: "5", 7: "6", 8: "7", 9: "8", 10: "9",
}

type evdevSource struct {
	files []*os.File
	stop  chan struct{}
	once  sync.Once
}

// NewSource returns the evdev-backed key event source.
func NewSource(Combo) Source {
	return &evdevSource{}
}

func (s *evdevSource) Start(handler func(Event)) error {
	keyboards, err := findKeyboards()
	if err != nil {
		return fmt.Errorf("finding keyboards: %w", err)
	}
	if len(keyboards) == 0 {
		return fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	s.stop = make(chan struct{})

	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		s.files = append(s.files, f)
		go s.readEvents(f, handler)
	}

	if len(s.files) == 0 {
		return fmt.Errorf("could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}

	return nil
}

func (s *evdevSource) readEvents(f *os.File, handler func(Event)) {
	buf := make([]byte, inputEventSize*16)

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		n, err := f.Read(buf)
		if err != nil {
			return
		}

		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[i+16:])
			evCode := binary.LittleEndian.Uint16(buf[i+18:])
			evValue := int32(binary.LittleEndian.Uint32(buf[i+20:]))

			if evType != evKey {
				continue
			}
			key, ok := evdevKeys[evCode]
			if !ok {
				continue
			}

			// Repeat is delivered as another Down; the engine dedupes.
			switch evValue {
			case keyPress, keyRepeat:
				handler(Event{Key: key, Down: true})
			case keyRelease:
				handler(Event{Key: key, Down: false})
			}
		}
	}
}

func (s *evdevSource) Stop() {
	s.once.Do(func() {
		if s.stop != nil {
			close(s.stop)
		}
		for _, f := range s.files {
			f.Close()
		}
	})
}

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		if isKeyboard(e.Name()) {
			keyboards = append(keyboards, filepath.Join("/dev/input", e.Name()))
		}
	}
	return keyboards, nil
}

func isKeyboard(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	caps := strings.TrimSpace(string(data))
	return len(caps) > 10
}

// Diagnose checks that keyboard devices exist and at least one is readable.
func Diagnose() (string, error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return "", fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	var opened string
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err == nil {
			f.Close()
			opened = path
			break
		}
	}
	if opened == "" {
		return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(keyboards))
	}

	return fmt.Sprintf("%d keyboard(s) found, opened %s", len(keyboards), opened), nil
}
