package hotkey

import "testing"

func TestParseCombo(t *testing.T) {
	tests := []struct {
		spec string
		want string
	}{
		{"ctrl+shift+space", "ctrl+shift+space"},
		{"Ctrl+Shift+Space", "ctrl+shift+space"},
		{"CTRL + SHIFT + SPACE", "ctrl+shift+space"},
		{"control+shift+space", "ctrl+shift+space"},
		{"cmd+d", "cmd+d"},
		{"super+d", "cmd+d"},
		{"command+option+r", "cmd+alt+r"},
		{"alt+enter", "alt+enter"},
		{"alt+return", "alt+enter"},
		{"ctrl+ctrl+space", "ctrl+space"},
		{"ctrl+5", "ctrl+5"},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			c, err := ParseCombo(tt.spec)
			if err != nil {
				t.Fatalf("ParseCombo(%q): %v", tt.spec, err)
			}
			if got := c.String(); got != tt.want {
				t.Errorf("ParseCombo(%q) = %q, want %q", tt.spec, got, tt.want)
			}
		})
	}
}

func TestParseComboRejects(t *testing.T) {
	specs := []string{
		"",
		"space",
		"ctrl",
		"ctrl+shift",
		"ctrl++space",
		"space+ctrl",
		"ctrl+foo",
		"q+space",
	}

	for _, spec := range specs {
		t.Run(spec, func(t *testing.T) {
			if _, err := ParseCombo(spec); err == nil {
				t.Errorf("ParseCombo(%q) succeeded, want error", spec)
			}
		})
	}
}

func TestParseComboNormalizesAliases(t *testing.T) {
	a, err := ParseCombo("control+option+super+space")
	if err != nil {
		t.Fatalf("ParseCombo: %v", err)
	}
	b, err := ParseCombo("ctrl+alt+cmd+space")
	if err != nil {
		t.Fatalf("ParseCombo: %v", err)
	}
	if a.String() != b.String() {
		t.Errorf("alias forms differ: %q vs %q", a, b)
	}
}
