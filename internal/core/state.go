package core

import "strings"

const (
	// ContextTurns is how many turns a matched company context survives
	// without a fresh tag match before it expires.
	ContextTurns = 5

	// TurnWindow is how many exchanges the conversation summary covers.
	TurnWindow = 5
)

// Turn is one query/answer exchange, kept only within the bounded window.
type Turn struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
}

// ContextState is the rolling company-context state for one chat session.
// The dashboard frontend holds its own copy; the widget flow keeps it in the
// session store. Either way the server never persists it durably.
type ContextState struct {
	Context   string `json:"context"`
	Remaining int    `json:"remaining"`
}

func (s ContextState) Active() bool {
	return s.Remaining > 0 && s.Context != ""
}

// Advance applies the counter law for one turn:
//   - a fresh tag match resets to the new context with a full counter,
//     overwriting whatever was held before;
//   - otherwise an active context decrements, expiring at zero;
//   - an inactive state stays empty.
func (s ContextState) Advance(freshMatch bool, newContext string) ContextState {
	if freshMatch {
		return ContextState{Context: newContext, Remaining: ContextTurns}
	}
	if s.Remaining > 1 {
		return ContextState{Context: s.Context, Remaining: s.Remaining - 1}
	}
	return ContextState{}
}

// AppendTurn adds a turn and drops the oldest beyond the window.
func AppendTurn(turns []Turn, turn Turn) []Turn {
	turns = append(turns, turn)
	if len(turns) > TurnWindow {
		turns = turns[len(turns)-TurnWindow:]
	}
	return turns
}

// SummarizeTurns renders the window as the "conversation so far" text block.
func SummarizeTurns(turns []Turn) string {
	if len(turns) > TurnWindow {
		turns = turns[len(turns)-TurnWindow:]
	}
	parts := make([]string, 0, len(turns))
	for _, t := range turns {
		parts = append(parts, "User: "+t.Query+"\nAI: "+t.Answer)
	}
	return strings.Join(parts, "\n\n")
}
