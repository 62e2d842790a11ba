package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// WriteWAV serializes the buffer as canonical 16-bit PCM WAV, the handoff
// format the encoder muxes with the captured video.
func WriteWAV(w io.Writer, b *Buffer) error {
	dataLen := len(b.Samples) * 2 // int16 payload
	byteRate := b.SampleRate * Channels * 2

	var header [44]byte
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataLen))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], Channels)
	binary.LittleEndian.PutUint32(header[24:28], uint32(b.SampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], Channels*2)
	binary.LittleEndian.PutUint16(header[34:36], 16)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataLen))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("failed to write wav header: %w", err)
	}

	pcm := make([]byte, dataLen)
	for i, s := range b.Samples {
		v := int16(math.Round(clip(s) * 32767))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(v))
	}
	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("failed to write wav data: %w", err)
	}
	return nil
}
