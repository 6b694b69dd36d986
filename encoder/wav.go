package encoder

import (
	"bytes"
	"encoding/binary"
)

// WavEncoder writes uncompressed PCM. The RIFF header is patched with
// final sizes on Close.
type WavEncoder struct {
	buf         bytes.Buffer
	rate        int
	totalFrames uint64
}

func NewWav(sampleRate int) *WavEncoder {
	e := &WavEncoder{rate: sampleRate}
	e.writeHeader(0)
	return e
}

func (e *WavEncoder) writeHeader(dataLen uint32) {
	byteRate := uint32(e.rate) * Channels * BitsPerSample / 8
	blockAlign := uint16(Channels * BitsPerSample / 8)

	e.buf.WriteString("RIFF")
	binary.Write(&e.buf, binary.LittleEndian, uint32(36+dataLen))
	e.buf.WriteString("WAVE")
	e.buf.WriteString("fmt ")
	binary.Write(&e.buf, binary.LittleEndian, uint32(16))
	binary.Write(&e.buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&e.buf, binary.LittleEndian, uint16(Channels))
	binary.Write(&e.buf, binary.LittleEndian, uint32(e.rate))
	binary.Write(&e.buf, binary.LittleEndian, byteRate)
	binary.Write(&e.buf, binary.LittleEndian, blockAlign)
	binary.Write(&e.buf, binary.LittleEndian, uint16(BitsPerSample))
	e.buf.WriteString("data")
	binary.Write(&e.buf, binary.LittleEndian, dataLen)
}

func (e *WavEncoder) EncodeBlock(block []int16) error {
	data := make([]byte, len(block)*2)
	for i, s := range block {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	e.buf.Write(data)
	e.totalFrames += uint64(len(block))
	return nil
}

func (e *WavEncoder) Close() error {
	b := e.buf.Bytes()
	dataLen := uint32(len(b) - 44)
	binary.LittleEndian.PutUint32(b[4:], 36+dataLen)
	binary.LittleEndian.PutUint32(b[40:], dataLen)
	return nil
}

func (e *WavEncoder) Bytes() []byte {
	return e.buf.Bytes()
}

func (e *WavEncoder) TotalFrames() uint64 {
	return e.totalFrames
}
