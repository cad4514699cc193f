package audio

import (
	"bytes"
	"encoding/binary"
	"sync"
	"time"
)

// ConditionFrame converts an interleaved s16le PCM frame to mono s16le at
// dstRate: channels are averaged down to one, then linearly resampled.
// Frames arrive every ~100ms from the capture device, so this runs on the
// hot path and stays allocation-light.
func ConditionFrame(frame []byte, srcRate, channels, dstRate int) []byte {
	if srcRate <= 0 || channels <= 0 || dstRate <= 0 {
		return nil
	}
	frameCount := len(frame) / (2 * channels)
	if frameCount == 0 {
		return nil
	}

	// Downmix to mono.
	mono := make([]int16, frameCount)
	for i := 0; i < frameCount; i++ {
		sum := 0
		for ch := 0; ch < channels; ch++ {
			off := (i*channels + ch) * 2
			sum += int(int16(binary.LittleEndian.Uint16(frame[off : off+2])))
		}
		mono[i] = int16(sum / channels)
	}

	if srcRate == dstRate {
		return s16leBytes(mono)
	}

	// Linear resample.
	outCount := frameCount * dstRate / srcRate
	if outCount == 0 {
		return nil
	}
	out := make([]int16, outCount)
	for i := 0; i < outCount; i++ {
		srcPos := float64(i) * float64(srcRate) / float64(dstRate)
		idx := int(srcPos)
		if idx >= frameCount-1 {
			out[i] = mono[frameCount-1]
			continue
		}
		frac := srcPos - float64(idx)
		a := float64(mono[idx])
		b := float64(mono[idx+1])
		out[i] = int16(a + (b-a)*frac)
	}
	return s16leBytes(out)
}

func s16leBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// FrameBuffer accumulates conditioned mono s16le frames for the dictation
// fallback recording. It is safe for concurrent append and snapshot.
type FrameBuffer struct {
	mu         sync.Mutex
	sampleRate int
	buf        bytes.Buffer
}

// NewFrameBuffer creates a buffer for mono 16-bit PCM at the given rate.
func NewFrameBuffer(sampleRate int) *FrameBuffer {
	return &FrameBuffer{sampleRate: sampleRate}
}

// Append adds a conditioned frame to the recording.
func (b *FrameBuffer) Append(pcm []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Write(pcm)
}

// Len returns the number of buffered PCM bytes.
func (b *FrameBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

// Duration returns the buffered audio length.
func (b *FrameBuffer) Duration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	bps := b.sampleRate * 2
	if bps == 0 {
		return 0
	}
	return time.Duration(b.buf.Len()) * time.Second / time.Duration(bps)
}

// WAV returns the buffered audio as a self-contained WAV file.
func (b *FrameBuffer) WAV() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	format := WAVFormat{SampleRate: b.sampleRate, Channels: 1, BitsPerSample: 16}
	return EncodeWAV(format, b.buf.Bytes())
}
