package entities

import (
	"errors"
	"testing"
)

func TestSessionStepProgression(t *testing.T) {
	s := NewRecordingSession("local", "standup", SourceInPerson, 120)

	if s.Status != SessionStatusProcessing {
		t.Fatalf("new session status = %q", s.Status)
	}
	if s.Step == nil || *s.Step != StepTranscribing {
		t.Fatalf("new session step = %v", s.Step)
	}

	if err := s.AdvanceStep(StepAnalyzing); err != nil {
		t.Fatalf("transcribing -> analyzing: %v", err)
	}
	if err := s.AdvanceStep(StepFinalizing); err != nil {
		t.Fatalf("analyzing -> finalizing: %v", err)
	}

	// Steps never move backwards.
	if err := s.AdvanceStep(StepTranscribing); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("backward step: got %v, want ErrInvalidStateTransition", err)
	}
}

func TestSessionComplete(t *testing.T) {
	s := NewRecordingSession("local", "standup", SourceVirtualMeeting, 0)
	analysis := &MeetingAnalysis{Transcript: "hello", Summary: "greeting", ActionPoints: []string{"say hi back"}}

	if err := s.Complete(analysis); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if s.Status != SessionStatusCompleted {
		t.Errorf("status = %q", s.Status)
	}
	if s.Step != nil {
		t.Errorf("step should clear on completion, got %v", *s.Step)
	}

	// Terminal states reject further transitions.
	if err := s.Fail("late failure", nil); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("fail after complete: got %v", err)
	}
	if err := s.AdvanceStep(StepAnalyzing); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("step after complete: got %v", err)
	}
}

func TestSessionFailKeepsDegradedAnalysis(t *testing.T) {
	s := NewRecordingSession("local", "standup", SourcePhoneCall, 0)
	s.AttachTranscript("the verbatim text")

	degraded := NewDegradedAnalysis("the verbatim text")
	if err := s.Fail("analysis provider unavailable", degraded); err != nil {
		t.Fatalf("fail: %v", err)
	}

	if s.Status != SessionStatusError {
		t.Errorf("status = %q", s.Status)
	}
	if s.ErrorMessage == nil || *s.ErrorMessage != "analysis provider unavailable" {
		t.Errorf("error message = %v", s.ErrorMessage)
	}
	if s.Analysis == nil || s.Analysis.Transcript != "the verbatim text" {
		t.Fatal("transcript must survive analysis failure")
	}
	if s.Analysis.Summary != "the verbatim text" {
		t.Error("degraded analysis must reuse the transcript as summary")
	}
	if len(s.Analysis.ActionPoints) != 0 {
		t.Error("degraded analysis must carry an empty action list")
	}
}

func TestSessionRestart(t *testing.T) {
	s := NewRecordingSession("local", "standup", SourceInPerson, 60)

	if err := s.Restart(); err == nil {
		t.Fatal("processing session must not restart")
	}

	if err := s.Fail("provider outage", nil); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if err := s.Restart(); err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if s.Status != SessionStatusProcessing {
		t.Errorf("status = %q, want processing", s.Status)
	}
	if s.Step == nil || *s.Step != StepTranscribing {
		t.Errorf("step = %v, want transcribing", s.Step)
	}
	if s.ErrorMessage != nil {
		t.Error("error message must be cleared")
	}

	completed := NewRecordingSession("local", "standup", SourceInPerson, 60)
	completed.Complete(&MeetingAnalysis{Summary: "s", ActionPoints: []string{}})
	if err := completed.Restart(); err == nil {
		t.Fatal("completed session must not restart")
	}
}

func TestValidSource(t *testing.T) {
	for _, src := range []SessionSource{SourceInPerson, SourceVirtualMeeting, SourcePhoneCall, SourceDictation} {
		if !ValidSource(src) {
			t.Errorf("%q should be valid", src)
		}
	}
	if ValidSource("webinar") {
		t.Error("unknown source accepted")
	}
}
