package hotkey

import "sync"

// Mode selects how combo edges map to recording edges.
type Mode string

const (
	// ModeHold records while the combo is held. Press starts, release stops.
	ModeHold Mode = "hold"
	// ModeToggle flips recording on each full combo press. Release is ignored.
	ModeToggle Mode = "toggle"
)

// Edge is one recording transition emitted by the Engine.
type Edge int

const (
	EdgeActivate Edge = iota
	EdgeDeactivate
)

func (e Edge) String() string {
	if e == EdgeActivate {
		return "activate"
	}
	return "deactivate"
}

// Engine turns raw key events from a Source into activate/deactivate
// edges for one configured combo. A single channel carries both edge
// kinds so they reach the consumer in press order; it holds one rising
// and one falling edge, and further edges are dropped rather than
// blocking the source callback.
type Engine struct {
	src   Source
	combo Combo
	mode  Mode

	edges chan Edge

	mu          sync.Mutex
	pressed     map[Key]bool
	triggerDown bool
	satisfied   bool
	latched     bool // toggle mode: recording currently on
}

func NewEngine(src Source, combo Combo, mode Mode) *Engine {
	return &Engine{
		src:     src,
		combo:   combo,
		mode:    mode,
		edges:   make(chan Edge, 2),
		pressed: make(map[Key]bool),
	}
}

func (e *Engine) Start() error {
	return e.src.Start(e.handle)
}

// Stop stops the source and clears tracked key state. Stale pressed keys
// from before a restart must not satisfy the combo afterwards.
func (e *Engine) Stop() {
	e.src.Stop()
	e.mu.Lock()
	e.pressed = make(map[Key]bool)
	e.triggerDown = false
	e.satisfied = false
	e.latched = false
	e.mu.Unlock()
}

// Edges delivers recording transitions in the order they happened.
func (e *Engine) Edges() <-chan Edge { return e.edges }

// CancelToggle clears the toggle latch without emitting an edge. Used when
// recording is closed from outside the keyboard, e.g. silence auto-stop,
// so the next combo press starts a fresh recording instead of stopping a
// finished one.
func (e *Engine) CancelToggle() {
	e.mu.Lock()
	e.latched = false
	e.mu.Unlock()
}

func (e *Engine) Mode() Mode   { return e.mode }
func (e *Engine) Combo() Combo { return e.combo }

func (e *Engine) handle(ev Event) {
	e.mu.Lock()

	switch {
	case ev.Key == e.combo.Trigger:
		e.triggerDown = ev.Down
	case IsModifier(ev.Key):
		if ev.Down {
			e.pressed[ev.Key] = true
		} else {
			delete(e.pressed, ev.Key)
		}
	default:
		// Unrelated key, combo state unchanged.
		e.mu.Unlock()
		return
	}

	sat := e.triggerDown
	for _, m := range e.combo.Modifiers {
		if !e.pressed[m] {
			sat = false
			break
		}
	}

	// Key repeat and extra modifier churn re-report the same satisfied
	// state; only genuine transitions produce edges.
	rising := sat && !e.satisfied
	falling := !sat && e.satisfied
	e.satisfied = sat

	var fire Edge
	var fired bool
	switch e.mode {
	case ModeToggle:
		if rising {
			e.latched = !e.latched
			fired = true
			fire = EdgeDeactivate
			if e.latched {
				fire = EdgeActivate
			}
		}
	default: // ModeHold
		if rising {
			fired, fire = true, EdgeActivate
		} else if falling {
			fired, fire = true, EdgeDeactivate
		}
	}

	// Sent under e.mu so two racing events cannot enqueue out of order.
	if fired {
		select {
		case e.edges <- fire:
		default:
		}
	}
	e.mu.Unlock()
}
