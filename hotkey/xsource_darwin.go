//go:build darwin

package hotkey

import (
	"fmt"

	xhotkey "golang.design/x/hotkey"
)

func lookupModifier(k Key) (xhotkey.Modifier, error) {
	switch k {
	case KeyCtrl:
		return xhotkey.ModCtrl, nil
	case KeyShift:
		return xhotkey.ModShift, nil
	case KeyAlt:
		return xhotkey.ModOption, nil
	case KeyCmd:
		return xhotkey.ModCmd, nil
	}
	return 0, fmt.Errorf("unsupported modifier %q", k)
}

func lookupKey(k Key) (xhotkey.Key, error) {
	switch k {
	case KeySpace:
		return xhotkey.KeySpace, nil
	case KeyEnter:
		return xhotkey.KeyReturn, nil
	case KeyTab:
		return xhotkey.KeyTab, nil
	case KeyEscape:
		return xhotkey.KeyEscape, nil
	}
	if len(k) == 1 {
		if hk, ok := charKeys[k[0]]; ok {
			return hk, nil
		}
	}
	return 0, fmt.Errorf("unsupported trigger key %q", k)
}

var charKeys = map[byte]xhotkey.Key{
	'a': xhotkey.KeyA, 'b': xhotkey.KeyB, 'c': xhotkey.KeyC, 'd': xhotkey.KeyD,
	'e': xhotkey.KeyE, 'f': xhotkey.KeyF, 'g': xhotkey.KeyG, 'h': xhotkey.KeyH,
	'i': xhotkey.KeyI, 'j': xhotkey.KeyJ, 'k': xhotkey.KeyK, 'l': xhotkey.KeyL,
	'm': xhotkey.KeyM, 'n': xhotkey.KeyN, 'o': xhotkey.KeyO, 'p': xhotkey.KeyP,
	'q': xhotkey.KeyQ, 'r': xhotkey.KeyR, 's': xhotkey.KeyS, 't': xhotkey.KeyT,
	'u': xhotkey.KeyU, 'v': xhotkey.KeyV, 'w': xhotkey.KeyW, 'x': xhotkey.KeyX,
	'y': xhotkey.KeyY, 'z': xhotkey.KeyZ,
	'0': xhotkey.Key0, '1': xhotkey.Key1, '2': xhotkey.Key2, '3': xhotkey.Key3,
	'4': xhotkey.Key4, '5': xhotkey.Key5, '6': xhotkey.Key6, '7': xhotkey.Key7,
	'8': xhotkey.Key8, '9': xhotkey.Key9,
}
