package entity

// Passage is a retrieved chunk of source material. Passages are ephemeral:
// they ground a single turn and are never persisted with the transcript.
type Passage struct {
	Text   string
	Source string
	Score  float32
	Scope  ScopeKey
}
