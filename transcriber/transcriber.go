package transcriber

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/whatiskadudoing/koe/audio"
	"github.com/whatiskadudoing/koe/encoder"
)

type NetworkMetrics struct {
	DNS        time.Duration
	ConnWait   time.Duration
	TCP        time.Duration
	TLS        time.Duration
	ReqHeaders time.Duration
	ReqBody    time.Duration
	TTFB       time.Duration
	Download   time.Duration
	Total      time.Duration
	ConnReused bool

	Encode   time.Duration // clip -> upload bytes, measured locally
	UploadKB float64
}

func firstNonEmpty(h http.Header, keys ...string) string {
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return "?"
}

// Result is one finished transcription. Text is the raw API text; callers
// trim and decide whether anything was actually said.
type Result struct {
	Text               string
	Language           string  // detected or hinted, provider dependent
	LanguageConfidence float64 // 0 when the provider does not report one
	Duration           float64 // seconds of audio the API saw
	Metrics            *NetworkMetrics
	RateLimit          string
}

// Transcriber turns a recorded clip into text via a speech-to-text API.
type Transcriber interface {
	Name() string
	SetLanguage(lang string)
	Language() string
	// Transcribe encodes the clip in the given format and uploads it.
	// Blocks until the API responds or ctx is done.
	Transcribe(ctx context.Context, clip *audio.Clip, format string) (*Result, error)
	// Warm opens a connection to the API ahead of the first upload.
	Warm()
}

type baseTranscriber struct {
	client *TracedClient
	apiURL string
	lang   string
}

func (b *baseTranscriber) SetLanguage(lang string) { b.lang = lang }

func (b *baseTranscriber) Language() string { return b.lang }

func (b *baseTranscriber) Warm() { go b.client.Warm() }

// encodeClip compresses the clip for upload and records how long that took.
func encodeClip(clip *audio.Clip, format string) ([]byte, time.Duration, error) {
	start := time.Now()
	data, err := encoder.Encode(format, clip.SampleRate, clip.Samples)
	if err != nil {
		return nil, 0, fmt.Errorf("encoding %s: %w", format, err)
	}
	return data, time.Since(start), nil
}

// New picks a provider. An explicit name requires its key; with "" or
// "auto" the first provider whose key is set wins, in the order groq,
// openai, deepgram.
func New(provider string) (Transcriber, error) {
	groqKey := os.Getenv("GROQ_API_KEY")
	openaiKey := os.Getenv("OPENAI_API_KEY")
	dgKey := os.Getenv("DEEPGRAM_API_KEY")

	switch provider {
	case "groq":
		if groqKey == "" {
			return nil, fmt.Errorf("provider groq selected but GROQ_API_KEY is not set")
		}
		return NewGroq(groqKey), nil
	case "openai":
		if openaiKey == "" {
			return nil, fmt.Errorf("provider openai selected but OPENAI_API_KEY is not set")
		}
		return NewOpenAI(openaiKey), nil
	case "deepgram":
		if dgKey == "" {
			return nil, fmt.Errorf("provider deepgram selected but DEEPGRAM_API_KEY is not set")
		}
		return NewDeepgram(dgKey), nil
	case "", "auto":
		if groqKey != "" {
			return NewGroq(groqKey), nil
		}
		if openaiKey != "" {
			return NewOpenAI(openaiKey), nil
		}
		if dgKey != "" {
			return NewDeepgram(dgKey), nil
		}
		return nil, fmt.Errorf("set GROQ_API_KEY, OPENAI_API_KEY or DEEPGRAM_API_KEY environment variable")
	}
	return nil, fmt.Errorf("unknown provider %q", provider)
}
