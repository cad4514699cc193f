package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/echoscribe-team/echoscribe/pkg/config"
	"github.com/echoscribe-team/echoscribe/pkg/retry"
)

func TestWhisperTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("not a multipart request: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file part: %v", err)
		}
		file.Close()
		if header.Filename != "audio.wav" {
			t.Errorf("filename = %q", header.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"  hello world  "}`))
	}))
	defer srv.Close()

	engine := NewWhisperEngine(&config.WhisperConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "whisper-1",
	})

	text, err := engine.Transcribe(context.Background(), []byte("fake audio"), "audio/wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello world" {
		t.Errorf("text = %q, want trimmed %q", text, "hello world")
	}
}

func TestWhisperTranscribe_HTTPErrorClassifiable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limit exceeded"}`))
	}))
	defer srv.Close()

	engine := NewWhisperEngine(&config.WhisperConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "whisper-1",
	})

	_, err := engine.Transcribe(context.Background(), []byte("fake audio"), "audio/wav")
	if err == nil {
		t.Fatal("expected error")
	}
	var httpErr *retry.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *retry.HTTPError, got %T", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d", httpErr.StatusCode)
	}
	if !retry.IsTransient(err) {
		t.Error("429 must classify as transient")
	}
}
