package encoder

import "fmt"

const (
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// Formats accepted by the upload path.
const (
	FormatFlac = "flac"
	FormatWav  = "wav"
)

// Encoder compresses 16-bit mono PCM a block at a time.
type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
}

// New returns an encoder for the named format.
func New(format string, sampleRate int) (Encoder, error) {
	switch format {
	case FormatFlac:
		return NewFlac(sampleRate)
	case FormatWav:
		return NewWav(sampleRate), nil
	}
	return nil, fmt.Errorf("unknown audio format %q", format)
}

// Encode compresses a whole buffer of samples in one call.
func Encode(format string, sampleRate int, samples []int16) ([]byte, error) {
	enc, err := New(format, sampleRate)
	if err != nil {
		return nil, err
	}
	for pos := 0; pos < len(samples); pos += BlockSize {
		end := pos + BlockSize
		if end > len(samples) {
			end = len(samples)
		}
		if err := enc.EncodeBlock(samples[pos:end]); err != nil {
			return nil, err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return enc.Bytes(), nil
}
