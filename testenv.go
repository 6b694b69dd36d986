package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/whatiskadudoing/koe/audio"
	"github.com/whatiskadudoing/koe/beep"
	"github.com/whatiskadudoing/koe/config"
	"github.com/whatiskadudoing/koe/hotkey"
	"github.com/whatiskadudoing/koe/insert"
	"github.com/whatiskadudoing/koe/log"
	"github.com/whatiskadudoing/koe/transcriber"
)

// runTestMode drives a full recording cycle headlessly from stdin
// commands, with canned audio instead of a microphone. Used by
// integration scripts.
//
// Commands: KEYDOWN, KEYUP, WAIT (block until the cycle finishes),
// SLEEP <ms>, QUIT.
func runTestMode(cfg *config.Config, trans transcriber.Transcriber, wavPath string) {
	beep.Disable()

	samples, err := loadWAV(wavPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		os.Exit(1)
	}

	captureConfig := audio.CaptureConfig{
		SampleRate: uint32(cfg.Audio.SampleRate),
		Channels:   1,
	}
	fakeCtx := audio.NewFakeContext(samples)
	capture, err := fakeCtx.NewCapture(nil, captureConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating capture: %v\n", err)
		os.Exit(1)
	}
	defer capture.Close()

	combo, err := hotkey.ParseCombo(cfg.Hotkey.Combo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	src := hotkey.NewFakeSource()
	eng := hotkey.NewEngine(src, combo, hotkey.Mode(cfg.Hotkey.Mode))
	if err := eng.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer eng.Stop()

	rec := audio.NewRecorder(capture, captureConfig)
	orch := NewOrchestrator(rec, trans, nil, insert.NewFake(), consoleSink{}, cfg.Transcriber.Format)

	cycleDone := make(chan struct{}, 1)

	comboKeys := append(append([]hotkey.Key{}, combo.Modifiers...), combo.Trigger)

	// Stdin driver in background: presses keys, waits, quits
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			cmd := strings.TrimSpace(scanner.Text())
			switch cmd {
			case "KEYDOWN":
				for _, k := range comboKeys {
					src.Press(k)
				}
			case "KEYUP":
				for i := len(comboKeys) - 1; i >= 0; i-- {
					src.Release(comboKeys[i])
				}
			case "WAIT":
				<-cycleDone
			case "QUIT":
				log.Close()
				os.Exit(0)
			default:
				if strings.HasPrefix(cmd, "SLEEP ") {
					if ms, err := strconv.Atoi(cmd[6:]); err == nil {
						time.Sleep(time.Duration(ms) * time.Millisecond)
					}
				}
			}
		}
		os.Exit(0)
	}()

	for edge := range eng.Edges() {
		switch edge {
		case hotkey.EdgeActivate:
			orch.Activate()
		case hotkey.EdgeDeactivate:
			orch.Deactivate()
			orch.Wait()
			select {
			case cycleDone <- struct{}{}:
			default:
			}
		}
	}
}

// loadWAV reads 16-bit mono PCM from a canned test file, skipping the
// header without parsing it.
func loadWAV(path string) ([]int16, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < audio.WAVHeaderSize {
		return nil, fmt.Errorf("file too short for a WAV header")
	}
	pcm := data[audio.WAVHeaderSize:]
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return samples, nil
}
