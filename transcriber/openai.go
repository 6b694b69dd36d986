package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/whatiskadudoing/koe/audio"
)

type OpenAI struct {
	baseTranscriber
	apiKey string
}

func NewOpenAI(apiKey string) *OpenAI {
	apiURL := "https://api.openai.com/v1/audio/transcriptions"
	return &OpenAI{
		baseTranscriber: baseTranscriber{
			client: NewTracedClient(apiURL),
			apiURL: apiURL,
		},
		apiKey: apiKey,
	}
}

func (o *OpenAI) Name() string { return "openai" }

type openaiResponse struct {
	Text string `json:"text"`
}

func (o *OpenAI) Transcribe(ctx context.Context, clip *audio.Clip, format string) (*Result, error) {
	audioData, encodeTime, err := encodeClip(clip, format)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio."+format)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(audioData); err != nil {
		return nil, err
	}

	writer.WriteField("model", "gpt-4o-transcribe")
	writer.WriteField("response_format", "json")
	if o.lang != "" {
		writer.WriteField("language", o.lang)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", o.apiURL, &body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai request: %w", err)
	}

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("openai API error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var oResp openaiResponse
	if err := json.Unmarshal(resp.Body, &oResp); err != nil {
		return nil, fmt.Errorf("openai response parse error: %w", err)
	}

	resp.Metrics.Encode = encodeTime
	resp.Metrics.UploadKB = float64(len(audioData)) / 1024

	// The json response format carries no language or duration; report
	// the hint and the clip's own length.
	return &Result{
		Text:     oResp.Text,
		Language: o.lang,
		Duration: clip.Duration().Seconds(),
		Metrics:  resp.Metrics,
	}, nil
}
