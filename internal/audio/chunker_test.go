package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"
	"time"
)

// makeWAV builds a mono 16-bit PCM WAV of the given duration with non-zero
// samples, optionally ending in trailingSilence of zero samples.
func makeWAV(t *testing.T, sampleRate int, duration, trailingSilence time.Duration) []byte {
	t.Helper()
	format := WAVFormat{SampleRate: sampleRate, Channels: 1, BitsPerSample: 16}
	total := int(duration.Seconds() * float64(sampleRate))
	silent := int(trailingSilence.Seconds() * float64(sampleRate))
	pcm := make([]byte, total*2)
	for i := 0; i < total-silent; i++ {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(i%251+1)))
	}
	return EncodeWAV(format, pcm)
}

func TestSplit_ShortCaptureReturnsOriginalUnmodified(t *testing.T) {
	capture := makeWAV(t, 8000, 10*time.Second, 0)

	chunks := NewChunker(nil).Split(context.Background(), capture, "audio/wav", 25*time.Second)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if !bytes.Equal(chunks[0].Data, capture) {
		t.Fatal("short capture must be passed through unmodified")
	}
	if chunks[0].MIMEType != "audio/wav" {
		t.Fatalf("unexpected mime type %q", chunks[0].MIMEType)
	}
	if chunks[0].DurationMs < 9900 || chunks[0].DurationMs > 10100 {
		t.Fatalf("unexpected duration estimate %dms", chunks[0].DurationMs)
	}
}

func TestSplit_LongCaptureProducesOrderedDecodableChunks(t *testing.T) {
	capture := makeWAV(t, 8000, 70*time.Second, 0)

	chunks := NewChunker(nil).Split(context.Background(), capture, "audio/wav", 25*time.Second)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks for 70s capture with 25s limit, got %d", len(chunks))
	}

	wantDurations := []int{25000, 25000, 20000}
	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Fatalf("chunk %d has index %d", i, chunk.Index)
		}
		format, pcm, err := DecodeWAV(chunk.Data)
		if err != nil {
			t.Fatalf("chunk %d is not independently decodable: %v", i, err)
		}
		if format.SampleRate != 8000 || format.Channels != 1 {
			t.Fatalf("chunk %d lost format metadata: %+v", i, format)
		}
		if len(pcm) == 0 {
			t.Fatalf("chunk %d has no samples", i)
		}
		if chunk.DurationMs != wantDurations[i] {
			t.Fatalf("chunk %d duration = %dms, want %dms", i, chunk.DurationMs, wantDurations[i])
		}
	}
}

func TestSplit_ChunksReassembleToOriginalSamples(t *testing.T) {
	capture := makeWAV(t, 8000, 60*time.Second, 0)
	_, wantPCM, err := DecodeWAV(capture)
	if err != nil {
		t.Fatal(err)
	}

	chunks := NewChunker(nil).Split(context.Background(), capture, "audio/wav", 25*time.Second)

	var got bytes.Buffer
	for _, chunk := range chunks {
		_, pcm, err := DecodeWAV(chunk.Data)
		if err != nil {
			t.Fatal(err)
		}
		got.Write(pcm)
	}
	if !bytes.Equal(got.Bytes(), wantPCM) {
		t.Fatal("concatenated chunk samples differ from original capture")
	}
}

func TestSplit_SilentTrailingChunkDropped(t *testing.T) {
	// 50s capture whose final 10s is pure silence, 20s limit: the third
	// slice would contain only zero samples and must not be submitted.
	capture := makeWAV(t, 8000, 50*time.Second, 10*time.Second)

	chunks := NewChunker(nil).Split(context.Background(), capture, "audio/wav", 20*time.Second)

	if len(chunks) != 2 {
		t.Fatalf("expected silent trailing chunk to be dropped, got %d chunks", len(chunks))
	}
}

func TestSplit_UndecodableCaptureFallsBackToSingleChunk(t *testing.T) {
	// Large enough that the conservative estimate exceeds the limit, but not
	// decodable by any path.
	capture := bytes.Repeat([]byte{0xde, 0xad, 0xbe, 0xef}, 200000)

	chunks := NewChunker(nil).Split(context.Background(), capture, "audio/webm", 25*time.Second)

	if len(chunks) != 1 {
		t.Fatalf("expected single-chunk fallback, got %d chunks", len(chunks))
	}
	if !bytes.Equal(chunks[0].Data, capture) {
		t.Fatal("fallback chunk must carry the original capture bytes")
	}
}

func TestConditionFrame_DownmixAndResample(t *testing.T) {
	// Two-channel frame: left=100, right=300 for every sample.
	const frames = 480
	src := make([]byte, frames*2*2)
	for i := 0; i < frames; i++ {
		binary.LittleEndian.PutUint16(src[i*4:], uint16(int16(100)))
		binary.LittleEndian.PutUint16(src[i*4+2:], uint16(int16(300)))
	}

	out := ConditionFrame(src, 48000, 2, 16000)

	wantSamples := frames * 16000 / 48000
	if len(out) != wantSamples*2 {
		t.Fatalf("expected %d samples, got %d", wantSamples, len(out)/2)
	}
	for i := 0; i < len(out); i += 2 {
		s := int16(binary.LittleEndian.Uint16(out[i:]))
		if s != 200 {
			t.Fatalf("sample %d = %d, want downmixed average 200", i/2, s)
		}
	}
}

func TestFrameBuffer_WAVSnapshot(t *testing.T) {
	buf := NewFrameBuffer(16000)
	frame := make([]byte, 3200) // 100ms at 16kHz mono s16le
	for i := range frame {
		frame[i] = byte(i)
	}
	for i := 0; i < 10; i++ {
		buf.Append(frame)
	}

	if got := buf.Duration(); got != time.Second {
		t.Fatalf("expected 1s buffered, got %v", got)
	}

	format, pcm, err := DecodeWAV(buf.WAV())
	if err != nil {
		t.Fatalf("snapshot not decodable: %v", err)
	}
	if format.SampleRate != 16000 || format.Channels != 1 || format.BitsPerSample != 16 {
		t.Fatalf("unexpected snapshot format %+v", format)
	}
	if len(pcm) != 32000 {
		t.Fatalf("expected 32000 PCM bytes, got %d", len(pcm))
	}
}
