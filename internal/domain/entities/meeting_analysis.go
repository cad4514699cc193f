package entities

// MeetingAnalysis is the structured insight extracted from a recording. It is
// stored as a single JSONB document on the session.
type MeetingAnalysis struct {
	Transcript        string   `json:"transcript"`
	Summary           string   `json:"summary"`
	ActionPoints      []string `json:"action_points"`
	OpenQuestions     []string `json:"open_questions,omitempty"`
	DetectedLanguages []string `json:"detected_languages,omitempty"`
	IsTruncated       bool     `json:"is_truncated,omitempty"`
	MeetingType       string   `json:"meeting_type,omitempty"`
}

// NewDegradedAnalysis builds the fallback analysis used when structuring
// fails permanently: the raw transcript doubles as the summary so the user
// keeps the verbatim text.
func NewDegradedAnalysis(transcript string) *MeetingAnalysis {
	return &MeetingAnalysis{
		Transcript:   transcript,
		Summary:      transcript,
		ActionPoints: []string{},
	}
}

// HasContent reports whether the analysis carries any usable text.
func (a *MeetingAnalysis) HasContent() bool {
	return a != nil && (a.Transcript != "" || a.Summary != "")
}
