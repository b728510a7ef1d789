package domain

type AnswerSource string

const (
	SourceCache    AnswerSource = "cache"
	SourceFAQ      AnswerSource = "faq"
	SourceLLM      AnswerSource = "llm"
	SourceFallback AnswerSource = "fallback"
)

// Resolution is the caller-facing outcome of resolving one question. Every
// path through the engine, including every failure path, yields one.
type Resolution struct {
	Text        string       `json:"text"`
	Source      AnswerSource `json:"source"`
	Suggestions []string     `json:"suggestions,omitempty"`
}

type FeedbackKind string

const (
	FeedbackHelpful    FeedbackKind = "helpful"
	FeedbackUnhelpful  FeedbackKind = "unhelpful"
	FeedbackCorrection FeedbackKind = "correction"
)

type Feedback struct {
	Query   string       `json:"query"`
	EntryID string       `json:"entry_id,omitempty"`
	Kind    FeedbackKind `json:"kind"`
	Comment string       `json:"comment,omitempty"`
}
