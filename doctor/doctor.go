// Package doctor walks the user through interactive checks of every
// moving part: hotkey input, microphone capture, the transcription API,
// keystroke injection and the history database.
package doctor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/whatiskadudoing/koe/audio"
	"github.com/whatiskadudoing/koe/config"
	"github.com/whatiskadudoing/koe/history"
	"github.com/whatiskadudoing/koe/hotkey"
	"github.com/whatiskadudoing/koe/insert"
	"github.com/whatiskadudoing/koe/transcriber"
)

// Run executes the checks and returns an exit code (0=all pass, 1=any fail).
func Run(cfg *config.Config) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("koe doctor - interactive system diagnostics")
	fmt.Println("===========================================")

	allPass := true

	if !checkHotkey(cfg) {
		allPass = false
	}
	var clip *audio.Clip
	if allPass {
		var ok bool
		clip, ok = checkMicrophone(cfg)
		if !ok {
			allPass = false
		}
	}
	if allPass && !checkTranscription(cfg, clip) {
		allPass = false
	}
	if allPass && !checkInjection() {
		allPass = false
	}
	if allPass && !checkHistory(cfg) {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkHotkey(cfg *config.Config) bool {
	fmt.Println()
	fmt.Println("[1/5] Hotkey detection")

	if msg, err := hotkey.Diagnose(); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	} else if msg != "" {
		fmt.Printf("  %s\n", msg)
	}

	combo, err := hotkey.ParseCombo(cfg.Hotkey.Combo)
	if err != nil {
		fmt.Printf("  FAIL: bad combo %q: %v\n", cfg.Hotkey.Combo, err)
		return false
	}
	fmt.Printf("Press %s...\n", combo)

	eng := hotkey.NewEngine(hotkey.NewSource(combo), combo, hotkey.ModeHold)
	if err := eng.Start(); err != nil {
		fmt.Printf("  FAIL: could not start listener: %v\n", err)
		return false
	}
	defer eng.Stop()

	select {
	case edge := <-eng.Edges():
		if edge != hotkey.EdgeActivate {
			fmt.Printf("  FAIL: unexpected %s edge before a press\n", edge)
			return false
		}
		fmt.Println("  PASS: hotkey detected")
		// Wait for release so the next check doesn't trip on it
		select {
		case <-eng.Edges():
		case <-time.After(5 * time.Second):
		}
		resetTerminal()
		return true
	case <-time.After(10 * time.Second):
		fmt.Println("  FAIL: timeout waiting for hotkey")
		return false
	}
}

func checkMicrophone(cfg *config.Config) (*audio.Clip, bool) {
	fmt.Println()
	fmt.Println("[2/5] Microphone capture")

	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return nil, false
	}
	defer ctx.Close()

	devices, err := ctx.Devices()
	if err != nil {
		fmt.Printf("  FAIL: cannot list devices: %v\n", err)
		return nil, false
	}
	if len(devices) == 0 {
		fmt.Println("  FAIL: no capture devices found")
		return nil, false
	}
	for _, d := range devices {
		marker := " "
		if audio.IsBluetooth(d.Name) {
			marker = "!"
		}
		fmt.Printf("  %s %s\n", marker, d.Name)
	}

	var device *audio.DeviceInfo
	if cfg.Audio.Device != "" {
		device, err = audio.FindDevice(ctx, cfg.Audio.Device)
		if err != nil {
			fmt.Printf("  FAIL: %v\n", err)
			return nil, false
		}
		fmt.Printf("Using configured device: %s\n", device.Name)
	}

	capture, err := ctx.NewCapture(device, audio.CaptureConfig{
		SampleRate: uint32(cfg.Audio.SampleRate),
		Channels:   1,
	})
	if err != nil {
		fmt.Printf("  FAIL: cannot open capture device: %v\n", err)
		return nil, false
	}
	defer capture.Close()

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Press Enter and speak for 3 seconds...")
	reader.ReadString('\n')

	rec := audio.NewRecorder(capture, audio.CaptureConfig{
		SampleRate: uint32(cfg.Audio.SampleRate),
		Channels:   1,
	})
	if err := rec.Start(); err != nil {
		fmt.Printf("  FAIL: recording error: %v\n", err)
		return nil, false
	}

	fmt.Print("  Recording")
	for i := 0; i < 6; i++ {
		time.Sleep(500 * time.Millisecond)
		fmt.Print(".")
	}
	fmt.Println(" done")

	clip := rec.Stop()
	if clip == nil {
		fmt.Println("  FAIL: no audio captured")
		return nil, false
	}
	level := audio.Amplitude(clip.Samples)
	fmt.Printf("  PASS: captured %.1fs, level %.2f\n", clip.Duration().Seconds(), level)
	if level < 0.02 {
		fmt.Println("  Warning: audio is very quiet, check the microphone")
	}
	return clip, true
}

func checkTranscription(cfg *config.Config, clip *audio.Clip) bool {
	fmt.Println()
	fmt.Println("[3/5] Transcription")

	trans, err := transcriber.New(cfg.Transcriber.Provider)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	if cfg.Transcriber.Language != "" {
		trans.SetLanguage(cfg.Transcriber.Language)
	}
	fmt.Printf("Using provider: %s\n", trans.Name())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	result, err := trans.Transcribe(ctx, clip, cfg.Transcriber.Format)
	if err != nil {
		fmt.Printf("  FAIL: transcription error: %v\n", err)
		return false
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		text = "(no speech detected)"
	}
	fmt.Printf("\n  Transcribed text: %s\n\n", text)

	confirmReader := bufio.NewReader(os.Stdin)
	fmt.Print("Is this correct? [y/n]: ")
	confirm, _ := confirmReader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))

	if confirm == "y" || confirm == "yes" {
		fmt.Println("  PASS: transcription verified by user")
		return true
	}
	fmt.Println("  FAIL: transcription not confirmed")
	return false
}

func checkInjection() bool {
	fmt.Println()
	fmt.Println("[4/5] Keystroke injection")

	msg, err := insert.Verify()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		printInjectionHint()
		return false
	}
	fmt.Printf("  PASS: %s\n", msg)
	return true
}

func checkHistory(cfg *config.Config) bool {
	fmt.Println()
	fmt.Println("[5/5] History database")

	ctx := context.Background()
	store, err := history.Open(ctx, history.Options{
		Path:          cfg.History.Path,
		MaxItems:      cfg.History.MaxItems,
		RetentionDays: cfg.History.RetentionDays,
	})
	if err != nil {
		fmt.Printf("  FAIL: cannot open %s: %v\n", cfg.History.Path, err)
		return false
	}
	defer store.Close()

	id, err := store.Add(ctx, "koe doctor check", 0.1, "")
	if err != nil {
		fmt.Printf("  FAIL: cannot write: %v\n", err)
		return false
	}
	if _, err := store.Delete(ctx, id); err != nil {
		fmt.Printf("  FAIL: cannot delete: %v\n", err)
		return false
	}
	count, err := store.Count(ctx)
	if err != nil {
		fmt.Printf("  FAIL: cannot count: %v\n", err)
		return false
	}
	fmt.Printf("  PASS: %s writable, %d entries\n", cfg.History.Path, count)
	return true
}
