package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// WAVFormat describes the PCM layout of a WAV payload.
type WAVFormat struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// BlockAlign returns the size in bytes of one sample frame across channels.
func (f WAVFormat) BlockAlign() int {
	return f.Channels * f.BitsPerSample / 8
}

// BytesPerSecond returns the PCM data rate.
func (f WAVFormat) BytesPerSecond() int {
	return f.SampleRate * f.BlockAlign()
}

// IsWAV reports whether data starts with a RIFF/WAVE header.
func IsWAV(data []byte) bool {
	return len(data) >= 12 &&
		bytes.Equal(data[0:4], []byte("RIFF")) &&
		bytes.Equal(data[8:12], []byte("WAVE"))
}

// DecodeWAV parses a PCM WAV container and returns its format and raw sample
// payload. Declared chunk sizes are clamped to the available bytes, so
// streams written with unknown length (ffmpeg pipes) decode too.
func DecodeWAV(data []byte) (WAVFormat, []byte, error) {
	var format WAVFormat
	if !IsWAV(data) {
		return format, nil, fmt.Errorf("not a RIFF/WAVE container")
	}

	var pcm []byte
	haveFmt := false
	pos := 12
	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		end := body + chunkSize
		if end > len(data) || chunkSize < 0 {
			end = len(data)
		}

		switch chunkID {
		case "fmt ":
			if end-body < 16 {
				return format, nil, fmt.Errorf("fmt chunk too short: %d bytes", end-body)
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			if audioFormat != 1 {
				return format, nil, fmt.Errorf("unsupported WAV encoding %d (only PCM)", audioFormat)
			}
			format.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			format.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			format.BitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			haveFmt = true
		case "data":
			pcm = data[body:end]
		}

		pos = body + chunkSize
		if chunkSize%2 == 1 {
			pos++ // RIFF chunks are word-aligned
		}
		if pos <= body {
			break
		}
	}

	if !haveFmt {
		return format, nil, fmt.Errorf("missing fmt chunk")
	}
	if pcm == nil {
		return format, nil, fmt.Errorf("missing data chunk")
	}
	if format.Channels == 0 || format.SampleRate == 0 || format.BitsPerSample == 0 {
		return format, nil, fmt.Errorf("invalid format: %+v", format)
	}
	return format, pcm, nil
}

// EncodeWAV wraps raw PCM samples in a self-contained WAV container with its
// own header, so each encoded chunk can be submitted as a standalone file.
func EncodeWAV(format WAVFormat, pcm []byte) []byte {
	var buf bytes.Buffer
	dataSize := uint32(len(pcm))

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(format.Channels))
	binary.Write(&buf, binary.LittleEndian, uint32(format.SampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(format.BytesPerSecond()))
	binary.Write(&buf, binary.LittleEndian, uint16(format.BlockAlign()))
	binary.Write(&buf, binary.LittleEndian, uint16(format.BitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataSize)
	buf.Write(pcm)

	return buf.Bytes()
}
