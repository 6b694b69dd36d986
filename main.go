package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/whatiskadudoing/koe/audio"
	"github.com/whatiskadudoing/koe/beep"
	"github.com/whatiskadudoing/koe/config"
	"github.com/whatiskadudoing/koe/doctor"
	"github.com/whatiskadudoing/koe/history"
	"github.com/whatiskadudoing/koe/hotkey"
	"github.com/whatiskadudoing/koe/insert"
	"github.com/whatiskadudoing/koe/log"
	"github.com/whatiskadudoing/koe/shutdown"
	"github.com/whatiskadudoing/koe/transcriber"
	"github.com/whatiskadudoing/koe/tray"
)

var version = "dev"

var (
	tuiProgram   *tea.Program
	shutdownOnce sync.Once
	sessionCount int
	sessionMu    sync.Mutex
)

func gracefulShutdown() {
	shutdownOnce.Do(func() {
		sessionMu.Lock()
		n := sessionCount
		sessionMu.Unlock()
		if n > 0 {
			log.SessionEnd(n)
		}
		log.Close()
		tray.Quit()
		if tuiProgram != nil {
			tuiProgram.Quit()
		}
		os.Exit(0)
	})
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (BT!)"
		}
	}
	return "mic: " + name + suffix
}

func modeLineText(cfg *config.Config, trans transcriber.Transcriber) string {
	providerLabel := trans.Name()
	if lang := trans.Language(); lang != "" {
		providerLabel += " (" + lang + ")"
	}
	return fmt.Sprintf("[%s | %s | %s]", cfg.Hotkey.Mode, cfg.Transcriber.Format, providerLabel)
}

func run() {
	configFlag := flag.String("config", "", "Config file path (default: OS config dir)")
	comboFlag := flag.String("combo", "", "Hotkey combo, e.g. ctrl+shift+space")
	modeFlag := flag.String("mode", "", "Hotkey mode: hold or toggle")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	setupFlag := flag.Bool("setup", false, "Select microphone device interactively")
	langFlag := flag.String("lang", "", "Language hint for transcription (e.g. en, es). Empty = auto-detect")
	providerFlag := flag.String("provider", "", "Transcription provider: groq, openai, deepgram or auto")
	formatFlag := flag.String("format", "", "Upload format: flac or wav")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	logPathFlag := flag.String("logpath", "", "Log directory path (default: OS-specific location, use ./ for current dir)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven, canned WAV)")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("koe %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	applyOverride(&cfg.Hotkey.Combo, *comboFlag)
	applyOverride(&cfg.Hotkey.Mode, *modeFlag)
	applyOverride(&cfg.Audio.Device, *deviceFlag)
	applyOverride(&cfg.Transcriber.Language, *langFlag)
	applyOverride(&cfg.Transcriber.Provider, *providerFlag)
	applyOverride(&cfg.Transcriber.Format, *formatFlag)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	if *doctorFlag {
		os.Exit(doctor.Run(&cfg))
	}

	if !cfg.Sound.Enabled {
		beep.Disable()
	}

	trans, err := transcriber.New(cfg.Transcriber.Provider)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Transcriber.Language != "" {
		trans.SetLanguage(cfg.Transcriber.Language)
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	} else {
		log.SessionStart(trans.Name(), cfg.Hotkey.Mode, cfg.Transcriber.Format)
	}

	if *testFlag {
		args := flag.Args()
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "Usage: koe -test <wav-file>")
			os.Exit(1)
		}
		runTestMode(&cfg, trans, args[0])
		return
	}

	// Resolve -setup into a device name early (before daemonization)
	if *setupFlag && cfg.Audio.Device == "" {
		actx, err := audio.NewContext()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing audio: %v\n", err)
			os.Exit(1)
		}
		if dev, err := audio.SelectDevice(actx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: device selection failed: %v\n", err)
		} else if dev != nil {
			cfg.Audio.Device = dev.Name
		}
		actx.Close()
	}

	// Daemonize in non-TUI mode: re-exec in background, return shell prompt
	if !*tuiFlag && os.Getenv("_KOE_BG") == "" {
		args := os.Args[1:]
		if cfg.Audio.Device != "" {
			args = append(args, "-device", cfg.Audio.Device)
		}
		exe, _ := os.Executable()
		cmd := exec.Command(exe, args...)
		cmd.Env = append(os.Environ(), "_KOE_BG=1")
		devnull, _ := os.Open(os.DevNull)
		cmd.Stdin, cmd.Stdout, cmd.Stderr = devnull, devnull, devnull
		if err := cmd.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	trans.Warm()

	actx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer actx.Close()

	var selectedDevice *audio.DeviceInfo
	if cfg.Audio.Device != "" {
		selectedDevice, err = audio.FindDevice(actx, cfg.Audio.Device)
		if err != nil {
			log.Warnf("device lookup failed: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: %v, falling back to default device\n", err)
		}
	}

	captureConfig := audio.CaptureConfig{
		SampleRate: uint32(cfg.Audio.SampleRate),
		Channels:   1,
	}
	capture, err := actx.NewCapture(selectedDevice, captureConfig)
	if err != nil {
		log.Errorf("capture device init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing capture device: %v\n", err)
		os.Exit(1)
	}
	defer capture.Close()

	store, err := history.Open(context.Background(), history.Options{
		Path:          cfg.History.Path,
		MaxItems:      cfg.History.MaxItems,
		RetentionDays: cfg.History.RetentionDays,
	})
	if err != nil {
		log.Errorf("history open error: %v", err)
		fmt.Fprintf(os.Stderr, "Error opening history: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	combo, err := hotkey.ParseCombo(cfg.Hotkey.Combo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	eng := hotkey.NewEngine(hotkey.NewSource(combo), combo, hotkey.Mode(cfg.Hotkey.Mode))

	var injector insert.Injector = insert.CopyOnly{}
	if cfg.Paste.Enabled {
		injector = insert.NewClipboard(cfg.Paste.RestoreClipboard)
	}

	rec := audio.NewRecorder(capture, captureConfig)

	refreshTrayHistory := func() []tray.Item {
		entries, err := store.Recent(context.Background(), 10)
		if err != nil {
			log.Warnf("history read failed: %v", err)
			return nil
		}
		items := make([]tray.Item, len(entries))
		for i, e := range entries {
			items[i] = tray.Item{ID: e.ID, Text: e.Text}
		}
		return items
	}

	sinks := multiSink{&traySink{
		onTranscription: func(string) {
			sessionMu.Lock()
			sessionCount++
			sessionMu.Unlock()
			tray.SetHistory(refreshTrayHistory())
		},
	}}
	if *tuiFlag {
		tuiProgram = NewTUIProgram(combo.String())
		sinks = append(sinks, &tuiSink{p: tuiProgram})
		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
				os.Exit(1)
			}
			gracefulShutdown()
		}()
	} else {
		sinks = append(sinks, consoleSink{})
	}

	orch := NewOrchestrator(rec, trans, store, injector, sinks, cfg.Transcriber.Format)
	orch.IsToggle = func() bool { return eng.Mode() == hotkey.ModeToggle }
	orch.OnAutoClose = eng.CancelToggle

	tray.OnRecord(
		orch.Activate,
		func() {
			eng.CancelToggle()
			orch.Deactivate()
		},
	)
	tray.OnHistory(refreshTrayHistory,
		func(id int64) {
			entry, err := store.Get(context.Background(), id)
			if err != nil {
				log.Warnf("history lookup failed: %v", err)
				return
			}
			if err := clipboard.WriteAll(entry.Text); err != nil {
				log.Warnf("clipboard write failed: %v", err)
			}
		},
		func() {
			if err := store.Clear(context.Background()); err != nil {
				log.Warnf("history clear failed: %v", err)
			}
		},
	)
	trayQuit := tray.Init()
	tray.SetHistory(refreshTrayHistory())
	tray.SetTooltip("ready")

	// Poll for device changes (hotplug). A vanished selected device
	// abandons the active recording.
	go func() {
		var last []string
		ticker := time.NewTicker(3 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			devices, err := actx.Devices()
			if err != nil {
				continue
			}
			names := make([]string, len(devices))
			for i := range devices {
				names[i] = devices[i].Name
			}
			if slices.Equal(last, names) {
				continue
			}
			last = names
			if selectedDevice != nil && !slices.Contains(names, selectedDevice.Name) {
				log.Info("device_disconnected: " + selectedDevice.Name)
				if rec.Recording() {
					eng.CancelToggle()
					orch.DeviceError(fmt.Errorf("device disconnected: %s", selectedDevice.Name))
				}
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		select {
		case <-sigChan:
		case <-trayQuit:
		}
		gracefulShutdown()
	}()

	go beep.Init()

	if err := eng.Start(); err != nil {
		log.Errorf("hotkey start error: %v", err)
		fmt.Fprintf(os.Stderr, "Error starting hotkey listener: %v\n", err)
		os.Exit(1)
	}
	defer eng.Stop()

	tuiSend(ModeLineMsg{Text: modeLineText(&cfg, trans)})
	tuiSend(DeviceLineMsg{Text: deviceLineText(selectedDevice)})

	for edge := range eng.Edges() {
		switch edge {
		case hotkey.EdgeActivate:
			orch.Activate()
		case hotkey.EdgeDeactivate:
			orch.Deactivate()
		}
	}
}

func applyOverride(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func tuiSend(msg tea.Msg) {
	if tuiProgram != nil {
		tuiProgram.Send(msg)
	}
}
