package hotkey

import "testing"

func mustCombo(t *testing.T, spec string) Combo {
	t.Helper()
	c, err := ParseCombo(spec)
	if err != nil {
		t.Fatalf("ParseCombo(%q): %v", spec, err)
	}
	return c
}

// drain returns how many edges of each kind are pending. Edges fire
// synchronously from FakeSource events, so no waiting is needed.
func drain(e *Engine) (activates, deactivates int) {
	for {
		select {
		case edge := <-e.Edges():
			if edge == EdgeActivate {
				activates++
			} else {
				deactivates++
			}
		default:
			return
		}
	}
}

func startEngine(t *testing.T, spec string, mode Mode) (*Engine, *FakeSource) {
	t.Helper()
	src := NewFakeSource()
	e := NewEngine(src, mustCombo(t, spec), mode)
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return e, src
}

func TestHoldPressRelease(t *testing.T) {
	e, src := startEngine(t, "ctrl+shift+space", ModeHold)
	defer e.Stop()

	src.Press(KeyCtrl)
	src.Press(KeyShift)
	src.Press(KeySpace)
	if a, d := drain(e); a != 1 || d != 0 {
		t.Fatalf("after press: activates=%d deactivates=%d, want 1/0", a, d)
	}

	src.Release(KeySpace)
	if a, d := drain(e); a != 0 || d != 1 {
		t.Fatalf("after release: activates=%d deactivates=%d, want 0/1", a, d)
	}
}

func TestHoldModifierReleaseDeactivates(t *testing.T) {
	e, src := startEngine(t, "ctrl+shift+space", ModeHold)
	defer e.Stop()

	src.Press(KeyCtrl)
	src.Press(KeyShift)
	src.Press(KeySpace)
	drain(e)

	// Releasing any combo key ends the hold, not just the trigger.
	src.Release(KeyShift)
	if a, d := drain(e); a != 0 || d != 1 {
		t.Fatalf("after shift release: activates=%d deactivates=%d, want 0/1", a, d)
	}

	// Remaining releases produce nothing further.
	src.Release(KeySpace)
	src.Release(KeyCtrl)
	if a, d := drain(e); a != 0 || d != 0 {
		t.Fatalf("after remaining releases: activates=%d deactivates=%d, want 0/0", a, d)
	}
}

func TestKeyRepeatFiresOnce(t *testing.T) {
	e, src := startEngine(t, "ctrl+shift+space", ModeHold)
	defer e.Stop()

	src.Press(KeyCtrl)
	src.Press(KeyShift)
	src.Press(KeySpace)
	for i := 0; i < 10; i++ {
		src.Press(KeySpace) // OS key repeat
	}
	if a, d := drain(e); a != 1 || d != 0 {
		t.Fatalf("with key repeat: activates=%d deactivates=%d, want 1/0", a, d)
	}
}

func TestLeftRightModifiersEquivalent(t *testing.T) {
	// Sources normalize left/right before the engine sees the key, so a
	// single KeyCtrl stands for either physical key.
	e, src := startEngine(t, "ctrl+space", ModeHold)
	defer e.Stop()

	src.Press(KeyCtrl)
	src.Press(KeySpace)
	if a, _ := drain(e); a != 1 {
		t.Fatalf("activates = %d, want 1", a)
	}
}

func TestUnrelatedKeysIgnored(t *testing.T) {
	e, src := startEngine(t, "ctrl+shift+space", ModeHold)
	defer e.Stop()

	src.Press(KeyCtrl)
	src.Press(KeyShift)
	src.Press(KeySpace)
	drain(e)

	// Typing other keys while holding must not break the combo.
	src.Press("x")
	src.Release("x")
	src.Press(KeyAlt)
	src.Release(KeyAlt)
	if a, d := drain(e); a != 0 || d != 0 {
		t.Fatalf("unrelated keys: activates=%d deactivates=%d, want 0/0", a, d)
	}

	src.Release(KeySpace)
	if _, d := drain(e); d != 1 {
		t.Fatalf("deactivates = %d, want 1", d)
	}
}

func TestPartialComboNoEdge(t *testing.T) {
	e, src := startEngine(t, "ctrl+shift+space", ModeHold)
	defer e.Stop()

	src.Press(KeyCtrl)
	src.Press(KeySpace)
	if a, d := drain(e); a != 0 || d != 0 {
		t.Fatalf("partial combo: activates=%d deactivates=%d, want 0/0", a, d)
	}

	// Completing the combo afterwards fires.
	src.Press(KeyShift)
	if a, _ := drain(e); a != 1 {
		t.Fatalf("activates = %d, want 1", a)
	}
}

func TestEdgesDeliveredInPressOrder(t *testing.T) {
	e, src := startEngine(t, "ctrl+space", ModeHold)
	defer e.Stop()

	// A quick tap lands both edges before the consumer gets scheduled;
	// the activate must still come out first or the consumer would drop
	// the deactivate as a no-op and then start a recording with the keys
	// already up.
	src.Press(KeyCtrl)
	src.Press(KeySpace)
	src.Release(KeySpace)

	if edge := <-e.Edges(); edge != EdgeActivate {
		t.Fatalf("first edge = %v, want activate", edge)
	}
	if edge := <-e.Edges(); edge != EdgeDeactivate {
		t.Fatalf("second edge = %v, want deactivate", edge)
	}
}

func TestToggleLatch(t *testing.T) {
	e, src := startEngine(t, "ctrl+shift+space", ModeToggle)
	defer e.Stop()

	press := func() {
		src.Press(KeyCtrl)
		src.Press(KeyShift)
		src.Press(KeySpace)
		src.Release(KeySpace)
		src.Release(KeyShift)
		src.Release(KeyCtrl)
	}

	press()
	if a, d := drain(e); a != 1 || d != 0 {
		t.Fatalf("first press: activates=%d deactivates=%d, want 1/0", a, d)
	}

	press()
	if a, d := drain(e); a != 0 || d != 1 {
		t.Fatalf("second press: activates=%d deactivates=%d, want 0/1", a, d)
	}

	press()
	if a, d := drain(e); a != 1 || d != 0 {
		t.Fatalf("third press: activates=%d deactivates=%d, want 1/0", a, d)
	}
}

func TestToggleIgnoresRelease(t *testing.T) {
	e, src := startEngine(t, "ctrl+shift+space", ModeToggle)
	defer e.Stop()

	src.Press(KeyCtrl)
	src.Press(KeyShift)
	src.Press(KeySpace)
	drain(e)

	src.Release(KeySpace)
	src.Release(KeyShift)
	src.Release(KeyCtrl)
	if a, d := drain(e); a != 0 || d != 0 {
		t.Fatalf("toggle release: activates=%d deactivates=%d, want 0/0", a, d)
	}
}

func TestCancelToggle(t *testing.T) {
	e, src := startEngine(t, "ctrl+space", ModeToggle)
	defer e.Stop()

	src.Press(KeyCtrl)
	src.Press(KeySpace)
	src.Release(KeySpace)
	drain(e)

	// Recording ended elsewhere; the next press starts a new one.
	e.CancelToggle()

	src.Press(KeySpace)
	if a, d := drain(e); a != 1 || d != 0 {
		t.Fatalf("after cancel: activates=%d deactivates=%d, want 1/0", a, d)
	}
}

func TestStopClearsState(t *testing.T) {
	e, src := startEngine(t, "ctrl+space", ModeHold)

	src.Press(KeyCtrl)
	e.Stop()
	if src.Started() {
		t.Fatal("source still running after Stop")
	}

	if err := e.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer e.Stop()

	// Ctrl held across the restart was forgotten; space alone must not fire.
	src.Press(KeySpace)
	if a, _ := drain(e); a != 0 {
		t.Fatalf("activates = %d after restart, want 0", a)
	}
}
