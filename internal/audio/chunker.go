package audio

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Chunk is a bounded-duration, independently submittable slice of a capture.
// Chunks are never mutated after creation.
type Chunk struct {
	Index      int
	Data       []byte
	MIMEType   string
	DurationMs int
}

// assumedByteRate is the conservative PCM-equivalent data rate (128 kbps)
// used to estimate duration for compressed captures without decoding them.
const assumedByteRate = 16000

// Chunker splits captures that exceed a provider's per-request duration
// limit into ordered, independently decodable WAV segments.
type Chunker struct {
	logger *zap.Logger
}

// NewChunker creates a Chunker.
func NewChunker(logger *zap.Logger) *Chunker {
	return &Chunker{logger: logger}
}

// Split returns ordered chunks for the capture. Chunking is an optimization,
// not a correctness requirement: any capture this code cannot decode is
// returned unmodified as a single chunk and left to the provider.
func (c *Chunker) Split(ctx context.Context, capture []byte, mimeType string, maxChunkDuration time.Duration) []Chunk {
	estimated := c.estimateDuration(capture)
	if estimated <= maxChunkDuration {
		return []Chunk{c.singleChunk(capture, mimeType, estimated)}
	}

	wavData := capture
	if !IsWAV(capture) {
		normalized, err := transcodeToWAV(ctx, capture)
		if err != nil {
			if c.logger != nil {
				c.logger.Warn("capture normalization failed, submitting as single chunk",
					zap.String("mime_type", mimeType),
					zap.Error(err),
				)
			}
			return []Chunk{c.singleChunk(capture, mimeType, estimated)}
		}
		wavData = normalized
	}

	format, pcm, err := DecodeWAV(wavData)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("capture decode failed, submitting as single chunk", zap.Error(err))
		}
		return []Chunk{c.singleChunk(capture, mimeType, estimated)}
	}

	// Slice by sample count, not byte offset: captures are block-based and a
	// naive byte split can cut mid-sample.
	bytesPerChunk := format.BytesPerSecond() * int(maxChunkDuration.Milliseconds()) / 1000
	blockAlign := format.BlockAlign()
	bytesPerChunk -= bytesPerChunk % blockAlign
	if bytesPerChunk < blockAlign {
		bytesPerChunk = blockAlign
	}

	var chunks []Chunk
	for offset := 0; offset < len(pcm); offset += bytesPerChunk {
		end := offset + bytesPerChunk
		if end > len(pcm) {
			end = len(pcm)
		}
		slice := pcm[offset:end]
		if end == len(pcm) && isSilent(slice) {
			// Trailing silent/empty remainder is dropped, not submitted.
			break
		}
		durationMs := len(slice) * 1000 / format.BytesPerSecond()
		chunks = append(chunks, Chunk{
			Index:      len(chunks),
			Data:       EncodeWAV(format, slice),
			MIMEType:   "audio/wav",
			DurationMs: durationMs,
		})
	}

	if len(chunks) == 0 {
		return []Chunk{c.singleChunk(capture, mimeType, estimated)}
	}

	if c.logger != nil {
		c.logger.Info("capture split into chunks",
			zap.Int("chunk_count", len(chunks)),
			zap.Duration("max_chunk_duration", maxChunkDuration),
			zap.Int("capture_bytes", len(capture)),
		)
	}
	return chunks
}

// estimateDuration estimates a capture's duration from a byte-size/data-rate
// calculation, not exact decoding. WAV headers give the real byte rate;
// anything else uses a conservative assumed rate.
func (c *Chunker) estimateDuration(capture []byte) time.Duration {
	if format, pcm, err := DecodeWAV(capture); err == nil && format.BytesPerSecond() > 0 {
		return time.Duration(len(pcm)) * time.Second / time.Duration(format.BytesPerSecond())
	}
	return time.Duration(len(capture)) * time.Second / time.Duration(assumedByteRate)
}

func (c *Chunker) singleChunk(capture []byte, mimeType string, estimated time.Duration) Chunk {
	return Chunk{
		Index:      0,
		Data:       capture,
		MIMEType:   mimeType,
		DurationMs: int(estimated.Milliseconds()),
	}
}

// isSilent reports whether a PCM slice is empty or contains only zero
// samples.
func isSilent(pcm []byte) bool {
	for _, b := range pcm {
		if b != 0 {
			return false
		}
	}
	return true
}
