package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/whatiskadudoing/koe/audio"
)

const deepgramAPIURL = "https://api.deepgram.com/v1/listen"

type Deepgram struct {
	baseTranscriber
	apiKey string
}

func NewDeepgram(apiKey string) *Deepgram {
	return &Deepgram{
		baseTranscriber: baseTranscriber{
			client: NewTracedClient(deepgramAPIURL),
			apiURL: deepgramAPIURL,
		},
		apiKey: apiKey,
	}
}

func (d *Deepgram) Name() string { return "deepgram" }

type deepgramResponse struct {
	Metadata struct {
		Duration float64 `json:"duration"`
	} `json:"metadata"`
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
			DetectedLanguage string `json:"detected_language"`
		} `json:"channels"`
	} `json:"results"`
}

func (d *Deepgram) Transcribe(ctx context.Context, clip *audio.Clip, format string) (*Result, error) {
	audioData, encodeTime, err := encodeClip(clip, format)
	if err != nil {
		return nil, err
	}

	contentType := "audio/flac"
	if format == "wav" {
		contentType = "audio/wav"
	}

	q := url.Values{"model": {"nova-3"}}
	if d.lang != "" {
		q.Set("language", d.lang)
	} else {
		q.Set("detect_language", "true")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", d.apiURL+"?"+q.Encode(), bytes.NewReader(audioData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deepgram request: %w", err)
	}

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("deepgram API error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var dResp deepgramResponse
	if err := json.Unmarshal(resp.Body, &dResp); err != nil {
		return nil, fmt.Errorf("deepgram response parse error: %w", err)
	}

	resp.Metrics.Encode = encodeTime
	resp.Metrics.UploadKB = float64(len(audioData)) / 1024

	result := &Result{
		Duration: dResp.Metadata.Duration,
		Metrics:  resp.Metrics,
	}
	if len(dResp.Results.Channels) > 0 {
		ch := dResp.Results.Channels[0]
		result.Language = ch.DetectedLanguage
		if len(ch.Alternatives) > 0 {
			result.Text = ch.Alternatives[0].Transcript
			result.LanguageConfidence = ch.Alternatives[0].Confidence
		}
	}
	return result, nil
}
