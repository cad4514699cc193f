package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/echoscribe-team/echoscribe/internal/audio"
	"github.com/echoscribe-team/echoscribe/internal/domain/entities"
	"github.com/echoscribe-team/echoscribe/internal/domain/repositories"
	"github.com/echoscribe-team/echoscribe/pkg/ai"
	"github.com/echoscribe-team/echoscribe/pkg/retry"
)

// checkpoint is one persisted (status, step) pair, in save order.
type checkpoint struct {
	status entities.SessionStatus
	step   string
}

type fakeSessionRepo struct {
	mu          sync.Mutex
	checkpoints []checkpoint
	sessions    map[uuid.UUID]*entities.RecordingSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[uuid.UUID]*entities.RecordingSession{}}
}

func (r *fakeSessionRepo) Save(_ context.Context, session *entities.RecordingSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := checkpoint{status: session.Status}
	if session.Step != nil {
		cp.step = string(*session.Step)
	}
	r.checkpoints = append(r.checkpoints, cp)
	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

func (r *fakeSessionRepo) FindByID(_ context.Context, ownerID string, id uuid.UUID) (*entities.RecordingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok || session.OwnerID != ownerID {
		return nil, entities.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (r *fakeSessionRepo) List(context.Context, string, repositories.SessionFilters) ([]*entities.RecordingSession, int64, error) {
	return nil, 0, nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, ownerID string, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

type fakeActionItemRepo struct {
	mu     sync.Mutex
	states []*entities.ActionItemState
}

func (r *fakeActionItemRepo) SetDone(_ context.Context, state *entities.ActionItemState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
	return nil
}

func (r *fakeActionItemRepo) FindBySession(context.Context, string, uuid.UUID) ([]*entities.ActionItemState, error) {
	return nil, nil
}

func (r *fakeActionItemRepo) DeleteBySession(context.Context, uuid.UUID) error { return nil }

type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}}
}

func (s *fakeObjectStore) Put(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *fakeObjectStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("no such object")
	}
	return data, nil
}

func (s *fakeObjectStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func newTestService(repo *fakeSessionRepo, items *fakeActionItemRepo, engine Engine, provider AnalysisProvider) *Service {
	return newTestServiceWithStore(repo, items, engine, provider, nil)
}

func newTestServiceWithStore(repo *fakeSessionRepo, items *fakeActionItemRepo, engine Engine, provider AnalysisProvider, store ObjectStore) *Service {
	executor := retry.NewExecutor(1, time.Millisecond, nil)
	return NewService(
		repo,
		items,
		audio.NewChunker(nil),
		NewOrchestrator([]Engine{engine}, executor, 3, nil),
		NewAnalysisStage(provider, executor, 8000, 0.2, nil),
		store,
		25*time.Second,
		2,
		nil,
	)
}

// waitForStatus polls the repo until the session reaches the wanted status.
func waitForStatus(t *testing.T, repo *fakeSessionRepo, id uuid.UUID, want entities.SessionStatus) *entities.RecordingSession {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		repo.mu.Lock()
		session := repo.sessions[id]
		repo.mu.Unlock()
		if session != nil && session.Status == want {
			return session
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("session %s never reached status %q", id, want)
	return nil
}

func okEngine() Engine {
	return &fakeEngine{name: "primary", fn: func(context.Context, []byte, string) (string, error) {
		return "hello from the meeting", nil
	}}
}

func okProvider() AnalysisProvider {
	return &fakeProvider{fn: func(context.Context, string, int, float64) (*ai.Completion, error) {
		return &ai.Completion{
			Text:         "SUMMARY\nA short meeting.\nACTION POINTS\n- follow up",
			FinishReason: "stop",
		}, nil
	}}
}

func TestRunPipeline_CheckpointsEveryStage(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := newTestService(repo, &fakeActionItemRepo{}, okEngine(), okProvider())

	session := entities.NewRecordingSession("local", "standup", entities.SourceInPerson, 60)
	svc.runPipeline(context.Background(), session, []byte("fake audio"), "audio/wav")

	want := []checkpoint{
		{status: entities.SessionStatusProcessing, step: "analyzing"},
		{status: entities.SessionStatusProcessing, step: "finalizing"},
		{status: entities.SessionStatusCompleted, step: ""},
	}
	repo.mu.Lock()
	got := repo.checkpoints
	repo.mu.Unlock()
	if len(got) != len(want) {
		t.Fatalf("checkpoints = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("checkpoint %d = %v, want %v", i, got[i], want[i])
		}
	}

	final := repo.sessions[session.ID]
	if final.Analysis == nil || final.Analysis.Transcript != "hello from the meeting" {
		t.Fatalf("final analysis = %+v", final.Analysis)
	}
	if final.Analysis.Summary != "A short meeting." {
		t.Errorf("summary = %q", final.Analysis.Summary)
	}
}

func TestRunPipeline_TranscriptionFailureEndsInError(t *testing.T) {
	repo := newFakeSessionRepo()
	badEngine := &fakeEngine{name: "primary", fn: func(context.Context, []byte, string) (string, error) {
		return "", &retry.HTTPError{StatusCode: 400, Body: "unsupported"}
	}}
	svc := newTestService(repo, &fakeActionItemRepo{}, badEngine, okProvider())

	session := entities.NewRecordingSession("local", "standup", entities.SourceInPerson, 60)
	svc.runPipeline(context.Background(), session, []byte("fake audio"), "audio/wav")

	final := repo.sessions[session.ID]
	if final.Status != entities.SessionStatusError {
		t.Fatalf("status = %q", final.Status)
	}
	if final.ErrorMessage == nil {
		t.Fatal("error message must be recorded")
	}
	if final.Analysis != nil {
		t.Errorf("no transcript was obtained, analysis should be nil: %+v", final.Analysis)
	}
}

func TestRunPipeline_AnalysisFailureKeepsTranscript(t *testing.T) {
	repo := newFakeSessionRepo()
	badProvider := &fakeProvider{fn: func(context.Context, string, int, float64) (*ai.Completion, error) {
		return nil, &retry.HTTPError{StatusCode: 401, Body: "invalid key"}
	}}
	svc := newTestService(repo, &fakeActionItemRepo{}, okEngine(), badProvider)

	session := entities.NewRecordingSession("local", "standup", entities.SourceVirtualMeeting, 60)
	svc.runPipeline(context.Background(), session, []byte("fake audio"), "audio/wav")

	final := repo.sessions[session.ID]
	if final.Status != entities.SessionStatusError {
		t.Fatalf("status = %q, want error", final.Status)
	}
	if final.Analysis == nil {
		t.Fatal("degraded analysis must be persisted")
	}
	if final.Analysis.Transcript != "hello from the meeting" {
		t.Errorf("transcript = %q, must survive analysis failure", final.Analysis.Transcript)
	}
	if final.Analysis.Summary != "hello from the meeting" {
		t.Errorf("summary = %q, degraded summary must equal the transcript", final.Analysis.Summary)
	}
}

func TestStart_RejectsMissingAudioAndUnknownSource(t *testing.T) {
	svc := newTestService(newFakeSessionRepo(), &fakeActionItemRepo{}, okEngine(), okProvider())

	_, err := svc.Start(context.Background(), ProcessInput{OwnerID: "local", Source: entities.SourceInPerson})
	if !errors.Is(err, entities.ErrMissingAudio) {
		t.Fatalf("got %v, want ErrMissingAudio", err)
	}

	_, err = svc.Start(context.Background(), ProcessInput{
		OwnerID: "local",
		Source:  "webinar",
		Audio:   []byte("x"),
	})
	if err == nil {
		t.Fatal("unknown source must be rejected")
	}
}

func TestProcessTranscript_EntersAtAnalysis(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := newTestService(repo, &fakeActionItemRepo{}, okEngine(), okProvider())

	session, err := svc.ProcessTranscript(context.Background(), "local", "", entities.SourceInPerson, "typed meeting notes", 0)
	if err != nil {
		t.Fatalf("ProcessTranscript: %v", err)
	}
	if session.Status != entities.SessionStatusCompleted {
		t.Fatalf("status = %q, want completed", session.Status)
	}
	if session.Analysis == nil || session.Analysis.Transcript != "typed meeting notes" {
		t.Fatalf("analysis = %+v", session.Analysis)
	}

	if _, err := svc.ProcessTranscript(context.Background(), "local", "", entities.SourceInPerson, "   ", 0); !errors.Is(err, entities.ErrEmptyTranscript) {
		t.Fatalf("blank transcript: got %v, want ErrEmptyTranscript", err)
	}
}

func TestRetry_RerunsFromStoredCapture(t *testing.T) {
	repo := newFakeSessionRepo()
	store := newFakeObjectStore()
	svc := newTestServiceWithStore(repo, &fakeActionItemRepo{}, okEngine(), okProvider(), store)

	session := entities.NewRecordingSession("local", "standup", entities.SourceInPerson, 60)
	session.AudioObjectKey = "captures/local/" + session.ID.String() + ".wav"
	session.AudioMIMEType = "audio/wav"
	session.Fail("provider outage", nil)
	repo.Save(context.Background(), session)
	store.Put(context.Background(), session.AudioObjectKey, []byte("fake audio"), "audio/wav")

	restarted, err := svc.Retry(context.Background(), "local", session.ID)
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if restarted.Status != entities.SessionStatusProcessing {
		t.Fatalf("status after retry = %q, want processing", restarted.Status)
	}

	final := waitForStatus(t, repo, session.ID, entities.SessionStatusCompleted)
	if final.Analysis == nil || final.Analysis.Transcript != "hello from the meeting" {
		t.Fatalf("final analysis = %+v", final.Analysis)
	}
	if final.ErrorMessage != nil {
		t.Errorf("error message must be cleared, got %q", *final.ErrorMessage)
	}
}

func TestRetry_RejectsNonRetriableSessions(t *testing.T) {
	repo := newFakeSessionRepo()
	store := newFakeObjectStore()
	svc := newTestServiceWithStore(repo, &fakeActionItemRepo{}, okEngine(), okProvider(), store)

	// Still processing: not retriable.
	inFlight := entities.NewRecordingSession("local", "standup", entities.SourceInPerson, 0)
	inFlight.AudioObjectKey = "captures/local/in-flight.wav"
	repo.Save(context.Background(), inFlight)
	store.Put(context.Background(), inFlight.AudioObjectKey, []byte("x"), "audio/wav")
	if _, err := svc.Retry(context.Background(), "local", inFlight.ID); !errors.Is(err, entities.ErrInvalidStateTransition) {
		t.Fatalf("processing session: got %v, want ErrInvalidStateTransition", err)
	}

	// Errored but no retained capture.
	noCapture := entities.NewRecordingSession("local", "standup", entities.SourceInPerson, 0)
	noCapture.Fail("boom", nil)
	repo.Save(context.Background(), noCapture)
	if _, err := svc.Retry(context.Background(), "local", noCapture.ID); !errors.Is(err, entities.ErrMissingAudio) {
		t.Fatalf("no capture: got %v, want ErrMissingAudio", err)
	}
}

func TestSetActionItemDone_ValidatesIndex(t *testing.T) {
	repo := newFakeSessionRepo()
	items := &fakeActionItemRepo{}
	svc := newTestService(repo, items, okEngine(), okProvider())

	session := entities.NewRecordingSession("local", "standup", entities.SourceInPerson, 0)
	session.Complete(&entities.MeetingAnalysis{
		Transcript:   "t",
		Summary:      "s",
		ActionPoints: []string{"first", "second"},
	})
	repo.Save(context.Background(), session)

	if err := svc.SetActionItemDone(context.Background(), "local", session.ID, 1, true); err != nil {
		t.Fatalf("valid index: %v", err)
	}
	if len(items.states) != 1 || items.states[0].ItemIndex != 1 || !items.states[0].Done {
		t.Errorf("recorded state = %+v", items.states)
	}

	if err := svc.SetActionItemDone(context.Background(), "local", session.ID, 2, true); !errors.Is(err, entities.ErrActionItemOutOfRange) {
		t.Fatalf("out of range: got %v", err)
	}
	if err := svc.SetActionItemDone(context.Background(), "other", session.ID, 0, true); !errors.Is(err, entities.ErrSessionNotFound) {
		t.Fatalf("wrong owner: got %v", err)
	}
}
