package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/keshon/jukebox/internal/music/parsers"
	"layeh.com/gopus"
)

// StreamToDiscord encodes PCM frames to opus and sends them until the stream
// ends (nil) or stop is closed (nil). Volume is applied in software.
func StreamToDiscord(stream io.Reader, stop <-chan struct{}, volume float64, out chan<- []byte) error {
	encoder, err := gopus.NewEncoder(parsers.SampleRate, parsers.Channels, gopus.Audio)
	if err != nil {
		return fmt.Errorf("encoder error: %w", err)
	}

	pcmBuf := make([]byte, parsers.FrameSize*parsers.Channels*2)
	intBuf := make([]int16, parsers.FrameSize*parsers.Channels)

	for {
		select {
		case <-stop:
			return nil
		default:
		}

		n, err := io.ReadFull(stream, pcmBuf)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			// pad the last partial frame with silence
			clear(pcmBuf[n:])
		} else if err != nil {
			return fmt.Errorf("read error: %w", err)
		}

		DecodePCM(pcmBuf, intBuf)
		ApplyVolume(intBuf, volume)

		opus, encErr := encoder.Encode(intBuf, parsers.FrameSize, len(pcmBuf))
		if encErr != nil {
			return fmt.Errorf("encode error: %w", encErr)
		}

		select {
		case out <- opus:
		case <-stop:
			return nil
		}

		if err != nil {
			return nil
		}
	}
}

// DecodePCM converts little-endian s16 bytes into samples.
func DecodePCM(src []byte, dst []int16) {
	for i := range dst {
		dst[i] = int16(binary.LittleEndian.Uint16(src[i*2 : i*2+2]))
	}
}

// ApplyVolume scales samples in place, clipping at the int16 range.
func ApplyVolume(samples []int16, volume float64) {
	if volume == 1 {
		return
	}
	for i, s := range samples {
		v := math.Round(float64(s) * volume)
		samples[i] = int16(max(min(v, math.MaxInt16), math.MinInt16))
	}
}
