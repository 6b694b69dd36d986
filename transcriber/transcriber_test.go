package transcriber

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/whatiskadudoing/koe/audio"
)

func testClip(d time.Duration) *audio.Clip {
	rate := 16000
	return &audio.Clip{
		Samples:    make([]int16, int(float64(rate)*d.Seconds())),
		SampleRate: rate,
	}
}

func TestNewProviderSelection(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DEEPGRAM_API_KEY", "")

	if _, err := New(""); err == nil {
		t.Fatal("New with no keys succeeded, want error")
	}
	if _, err := New("groq"); err == nil {
		t.Fatal("New(groq) without GROQ_API_KEY succeeded, want error")
	}
	if _, err := New("whisperx"); err == nil {
		t.Fatal("New with unknown provider succeeded, want error")
	}

	t.Setenv("DEEPGRAM_API_KEY", "dg")
	tr, err := New("auto")
	if err != nil {
		t.Fatalf("New(auto): %v", err)
	}
	if tr.Name() != "deepgram" {
		t.Errorf("auto picked %q, want deepgram", tr.Name())
	}

	// groq outranks deepgram in auto order.
	t.Setenv("GROQ_API_KEY", "gq")
	tr, err = New("auto")
	if err != nil {
		t.Fatalf("New(auto): %v", err)
	}
	if tr.Name() != "groq" {
		t.Errorf("auto picked %q, want groq", tr.Name())
	}
}

func TestGroqTranscribe(t *testing.T) {
	var gotAuth, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parsing multipart: %v", err)
		}
		if model := r.FormValue("model"); model != "whisper-large-v3-turbo" {
			t.Errorf("model = %q", model)
		}
		if lang := r.FormValue("language"); lang != "de" {
			t.Errorf("language = %q, want de", lang)
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("file part: %v", err)
		} else {
			head := make([]byte, 4)
			io.ReadFull(f, head)
			if string(head) != "fLaC" {
				t.Errorf("upload is not flac, starts with %q", head)
			}
			f.Close()
		}
		w.Header().Set("x-ratelimit-remaining-requests", "99")
		w.Header().Set("x-ratelimit-limit-requests", "100")
		w.Write([]byte(`{"text":" hallo welt ","language":"german","duration":1.0}`))
	}))
	defer srv.Close()

	g := NewGroq("test-key")
	g.apiURL = srv.URL
	g.client = NewTracedClient(srv.URL)
	g.SetLanguage("de")

	res, err := g.Transcribe(context.Background(), testClip(time.Second), "flac")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Text != " hallo welt " {
		t.Errorf("Text = %q", res.Text)
	}
	if res.Language != "german" {
		t.Errorf("Language = %q", res.Language)
	}
	if res.RateLimit != "99/100" {
		t.Errorf("RateLimit = %q", res.RateLimit)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotContentType == "" {
		t.Error("missing multipart content type")
	}
	if res.Metrics == nil || res.Metrics.Encode <= 0 {
		t.Error("encode time not recorded")
	}
}

func TestGroqAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(429)
		w.Write([]byte(`{"error":{"message":"rate limit exceeded"}}`))
	}))
	defer srv.Close()

	g := NewGroq("test-key")
	g.apiURL = srv.URL
	g.client = NewTracedClient(srv.URL)

	_, err := g.Transcribe(context.Background(), testClip(time.Second), "flac")
	if err == nil {
		t.Fatal("Transcribe succeeded on 429, want error")
	}
}

func TestDeepgramTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Token dg-key" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "audio/wav" {
			t.Errorf("Content-Type = %q, want audio/wav", got)
		}
		if got := r.URL.Query().Get("detect_language"); got != "true" {
			t.Errorf("detect_language = %q, want true (no hint set)", got)
		}
		w.Write([]byte(`{
			"metadata": {"duration": 1.5},
			"results": {"channels": [{
				"detected_language": "en",
				"alternatives": [{"transcript": "hello", "confidence": 0.97}]
			}]}
		}`))
	}))
	defer srv.Close()

	d := NewDeepgram("dg-key")
	d.apiURL = srv.URL
	d.client = NewTracedClient(srv.URL)

	res, err := d.Transcribe(context.Background(), testClip(time.Second), "wav")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Text != "hello" {
		t.Errorf("Text = %q", res.Text)
	}
	if res.Language != "en" || res.LanguageConfidence != 0.97 {
		t.Errorf("Language = %q/%v", res.Language, res.LanguageConfidence)
	}
	if res.Duration != 1.5 {
		t.Errorf("Duration = %v", res.Duration)
	}
}

func TestTranscribeContextCancel(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		// Drain the body so the server can detect the client disconnect
		// and cancel the request context; otherwise Close deadlocks.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	g := NewGroq("test-key")
	g.apiURL = srv.URL
	g.client = NewTracedClient(srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := g.Transcribe(ctx, testClip(time.Second), "flac")
		done <- err
	}()

	<-started
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("Transcribe returned nil after cancel")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Transcribe did not return after cancel")
	}
}

func TestFakeTranscriber(t *testing.T) {
	f := NewFake("hello", nil)
	res, err := f.Transcribe(context.Background(), testClip(2*time.Second), "flac")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Text != "hello" {
		t.Errorf("Text = %q", res.Text)
	}
	if res.Duration != 2 {
		t.Errorf("Duration = %v, want 2", res.Duration)
	}
	if f.Calls() != 1 {
		t.Errorf("Calls = %d", f.Calls())
	}
}
