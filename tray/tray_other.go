//go:build !linux

package tray

// The menu bar item is linux-only for now. On darwin the main thread is
// owned by the hotkey run loop, which the systray library also wants.

func Init() <-chan struct{} { return quitCh }

func updateRecordingIcon(bool) {}
func updateTooltip(string)     {}
func updateHistoryMenu([]Item) {}
