package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupLogDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	SetDir(tmp)
	t.Cleanup(func() { Close(); SetDir("") })
	return tmp
}

func TestResolveDirFlag(t *testing.T) {
	got, err := ResolveDir("/tmp/mylog")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/mylog" {
		t.Errorf("got %q, want /tmp/mylog", got)
	}
}

func TestResolveDirFlagRelative(t *testing.T) {
	got, err := ResolveDir("logs")
	if err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(wd, "logs")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveDirEnv(t *testing.T) {
	t.Setenv("KOE_LOG_PATH", "/tmp/koe-env-log")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/koe-env-log" {
		t.Errorf("got %q, want /tmp/koe-env-log", got)
	}
}

func TestResolveDirFlagBeatsEnv(t *testing.T) {
	t.Setenv("KOE_LOG_PATH", "/tmp/koe-env-log")
	got, err := ResolveDir("/tmp/flag-log")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/flag-log" {
		t.Errorf("got %q, want /tmp/flag-log", got)
	}
}

func TestResolveDirDefault(t *testing.T) {
	t.Setenv("KOE_LOG_PATH", "")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got == "" {
		t.Fatal("default log dir is empty")
	}
	if !strings.Contains(got, "koe") {
		t.Errorf("default dir %q does not mention the app", got)
	}
}

func TestInitCreatesFiles(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	Info("hello from test")
	TranscriptionText("the quick brown fox")
	Close()

	diag, err := os.ReadFile(filepath.Join(tmp, "diagnostics_log.txt"))
	if err != nil {
		t.Fatalf("reading diag log: %v", err)
	}
	if !strings.Contains(string(diag), "hello from test") {
		t.Error("diag log missing info line")
	}

	trans, err := os.ReadFile(filepath.Join(tmp, "transcribe_log.txt"))
	if err != nil {
		t.Fatalf("reading transcribe log: %v", err)
	}
	if !strings.Contains(string(trans), "the quick brown fox") {
		t.Error("transcribe log missing text")
	}
}

func TestLoggingBeforeInitIsNoop(t *testing.T) {
	setupLogDir(t)

	// Must not panic or create files.
	Info("early")
	Warnf("early %d", 1)
	Errorf("early %s", "x")
	TranscriptionText("early")
	SessionEnd(0)
}
