package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// transcodeToWAV decodes a non-WAV capture (webm, ogg, m4a, ...) to mono
// 16kHz PCM WAV via ffmpeg. The output length is unknown to ffmpeg when
// writing to a pipe, so DecodeWAV's size clamping handles the result.
func transcodeToWAV(ctx context.Context, data []byte) ([]byte, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not available: %w", err)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", "pipe:0",
		"-ac", "1", "-ar", "16000",
		"-f", "wav",
		"pipe:1",
	)

	var out, errOut bytes.Buffer
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = &out
	cmd.Stderr = &errOut

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, errOut.String())
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output")
	}
	return out.Bytes(), nil
}
