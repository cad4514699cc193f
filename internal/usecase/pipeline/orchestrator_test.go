package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/echoscribe-team/echoscribe/internal/audio"
	"github.com/echoscribe-team/echoscribe/internal/domain/entities"
	"github.com/echoscribe-team/echoscribe/pkg/retry"
)

type fakeEngine struct {
	name string
	fn   func(ctx context.Context, data []byte, mimeType string) (string, error)
}

func (e *fakeEngine) Name() string { return e.name }
func (e *fakeEngine) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	return e.fn(ctx, data, mimeType)
}

func testChunks(n int) []audio.Chunk {
	chunks := make([]audio.Chunk, n)
	for i := range chunks {
		chunks[i] = audio.Chunk{Index: i, Data: []byte{byte(i)}, MIMEType: "audio/wav"}
	}
	return chunks
}

func testExecutor(maxRetries int) *retry.Executor {
	return retry.NewExecutor(maxRetries, time.Millisecond, nil)
}

func TestTranscribe_ReassemblesByIndexNotCompletionOrder(t *testing.T) {
	engine := &fakeEngine{name: "primary", fn: func(ctx context.Context, data []byte, _ string) (string, error) {
		// Random latency so completion order differs from submit order.
		time.Sleep(time.Duration(rand.Intn(20)) * time.Millisecond)
		return fmt.Sprintf("part%d", data[0]), nil
	}}

	o := NewOrchestrator([]Engine{engine}, testExecutor(1), 3, nil)

	got, err := o.Transcribe(context.Background(), testChunks(6))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "part0 part1 part2 part3 part4 part5"
	if got != want {
		t.Errorf("transcript = %q, want %q", got, want)
	}
}

func TestTranscribe_BoundsConcurrency(t *testing.T) {
	var current, max int64
	var mu sync.Mutex

	engine := &fakeEngine{name: "primary", fn: func(ctx context.Context, data []byte, _ string) (string, error) {
		n := atomic.AddInt64(&current, 1)
		mu.Lock()
		if n > max {
			max = n
		}
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt64(&current, -1)
		return "x", nil
	}}

	o := NewOrchestrator([]Engine{engine}, testExecutor(1), 2, nil)

	if _, err := o.Transcribe(context.Background(), testChunks(8)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if max > 2 {
		t.Errorf("observed %d concurrent transcriptions, batch size is 2", max)
	}
}

func TestTranscribe_FallsBackToSecondaryEngine(t *testing.T) {
	primary := &fakeEngine{name: "primary", fn: func(ctx context.Context, data []byte, _ string) (string, error) {
		return "", &retry.HTTPError{StatusCode: 400, Body: "unsupported format"}
	}}
	secondary := &fakeEngine{name: "secondary", fn: func(ctx context.Context, data []byte, _ string) (string, error) {
		return fmt.Sprintf("fb%d", data[0]), nil
	}}

	o := NewOrchestrator([]Engine{primary, secondary}, testExecutor(1), 2, nil)

	var fallbacks []string
	o.OnFallback = func(chunkIndex int, from, to string) {
		fallbacks = append(fallbacks, fmt.Sprintf("%d:%s->%s", chunkIndex, from, to))
	}

	got, err := o.Transcribe(context.Background(), testChunks(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "fb0 fb1" {
		t.Errorf("transcript = %q", got)
	}
	if len(fallbacks) != 2 {
		t.Errorf("expected 2 fallback notifications, got %v", fallbacks)
	}
}

func TestTranscribe_ChunkFailingAllEnginesFailsWholeOperation(t *testing.T) {
	primary := &fakeEngine{name: "primary", fn: func(ctx context.Context, data []byte, _ string) (string, error) {
		if data[0] == 1 {
			return "", &retry.HTTPError{StatusCode: 400, Body: "bad chunk"}
		}
		return "ok", nil
	}}
	secondary := &fakeEngine{name: "secondary", fn: func(ctx context.Context, data []byte, _ string) (string, error) {
		if data[0] == 1 {
			return "", &retry.HTTPError{StatusCode: 422, Body: "bad chunk"}
		}
		return "ok", nil
	}}

	o := NewOrchestrator([]Engine{primary, secondary}, testExecutor(1), 3, nil)

	_, err := o.Transcribe(context.Background(), testChunks(3))
	if !errors.Is(err, entities.ErrTranscriptionFailed) {
		t.Fatalf("got %v, want ErrTranscriptionFailed", err)
	}
}

func TestTranscribe_SkipsEmptyChunkText(t *testing.T) {
	engine := &fakeEngine{name: "primary", fn: func(ctx context.Context, data []byte, _ string) (string, error) {
		if data[0] == 1 {
			return "", nil
		}
		return fmt.Sprintf("part%d", data[0]), nil
	}}

	o := NewOrchestrator([]Engine{engine}, testExecutor(1), 3, nil)

	got, err := o.Transcribe(context.Background(), testChunks(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "part0 part2" {
		t.Errorf("transcript = %q", got)
	}
}

func TestTranscribe_NoChunks(t *testing.T) {
	o := NewOrchestrator([]Engine{&fakeEngine{name: "primary"}}, testExecutor(1), 3, nil)

	_, err := o.Transcribe(context.Background(), nil)
	if !errors.Is(err, entities.ErrMissingAudio) {
		t.Fatalf("got %v, want ErrMissingAudio", err)
	}
}
