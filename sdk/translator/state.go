package translator

import (
	"sort"
	"strings"
)

// BlockKind is the type of an indexed content block in event-stream protocols.
type BlockKind int

const (
	BlockText BlockKind = iota
	BlockThinking
	BlockToolUse
)

// ToolCallState accumulates one tool invocation across deltas.
type ToolCallState struct {
	// BlockIndex is the content block assigned to the call, -1 while none is assigned.
	BlockIndex int
	// Position is the canonical tool_calls index assigned on ingest.
	Position  int
	ID        string
	Name      string
	Arguments strings.Builder
}

// State is the mutable record of one in-flight stream. It is created by InitState,
// threaded through every Translate call and discarded after the flush. A State must
// not be shared between streams or used from concurrent goroutines.
type State struct {
	From Format
	To   Format

	Model     string
	MessageID string
	CreatedAt int64

	// NextBlockIndex is the next content block index to hand out. It only grows.
	NextBlockIndex int
	// OpenBlocks holds the indexes whose block has been started and not yet stopped.
	OpenBlocks map[int]BlockKind
	// TextBlockIndex and ThinkingBlockIndex are -1 when no such block is open.
	TextBlockIndex     int
	ThinkingBlockIndex int
	// ToolCalls is keyed by the source-side tool index.
	ToolCalls map[int]*ToolCallState
	// ToolCallCount numbers tool calls discovered on ingest.
	ToolCallCount int

	// TextLength counts text runes emitted so far.
	TextLength int
	// FinishReason is the last finish reason seen, in canonical vocabulary.
	FinishReason string
	Usage        *Usage

	// Started is set once stream-start framing has been emitted.
	Started bool
	// AwaitingUsage is set when a finish reason arrived without usage. Emitters hold the
	// terminal framing until a usage-only delta or the flush.
	AwaitingUsage bool
	// Terminated is set once termination framing has been emitted.
	Terminated bool
	// Flushed is set by the flush call; the state is dead afterwards.
	Flushed bool

	// Dropped counts malformed deltas skipped on this stream.
	Dropped    int
	dropReason string
}

func newState(from, to Format, model string) *State {
	return &State{
		From:               from,
		To:                 to,
		Model:              model,
		OpenBlocks:         make(map[int]BlockKind),
		TextBlockIndex:     -1,
		ThinkingBlockIndex: -1,
		ToolCalls:          make(map[int]*ToolCallState),
	}
}

// OpenBlock allocates the next block index and marks it open.
func (s *State) OpenBlock(kind BlockKind) int {
	idx := s.NextBlockIndex
	s.NextBlockIndex++
	s.OpenBlocks[idx] = kind
	switch kind {
	case BlockText:
		s.TextBlockIndex = idx
	case BlockThinking:
		s.ThinkingBlockIndex = idx
	}
	return idx
}

// CloseBlock marks idx closed and reports whether it was open.
func (s *State) CloseBlock(idx int) bool {
	kind, ok := s.OpenBlocks[idx]
	if !ok {
		return false
	}
	delete(s.OpenBlocks, idx)
	switch {
	case kind == BlockText && s.TextBlockIndex == idx:
		s.TextBlockIndex = -1
	case kind == BlockThinking && s.ThinkingBlockIndex == idx:
		s.ThinkingBlockIndex = -1
	}
	return true
}

// OpenIndexes returns the open block indexes in ascending order.
func (s *State) OpenIndexes() []int {
	out := make([]int, 0, len(s.OpenBlocks))
	for idx := range s.OpenBlocks {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// ToolCall returns the accumulator for a source tool index, creating it on first use.
func (s *State) ToolCall(index int) (*ToolCallState, bool) {
	if tc, ok := s.ToolCalls[index]; ok {
		return tc, false
	}
	tc := &ToolCallState{BlockIndex: -1}
	s.ToolCalls[index] = tc
	return tc, true
}

// ToolIndexes returns the source tool indexes in ascending order.
func (s *State) ToolIndexes() []int {
	out := make([]int, 0, len(s.ToolCalls))
	for idx := range s.ToolCalls {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// RecordUsage replaces the accumulated usage, keeping non-zero counts the update lacks.
func (s *State) RecordUsage(u Usage) {
	if s.Usage == nil {
		s.Usage = &u
		return
	}
	merged := *s.Usage
	if u.PromptTokens > 0 {
		merged.PromptTokens = u.PromptTokens
	}
	if u.CompletionTokens > 0 {
		merged.CompletionTokens = u.CompletionTokens
	}
	if u.TotalTokens > 0 {
		merged.TotalTokens = u.TotalTokens
	}
	if u.CachedTokens > 0 {
		merged.CachedTokens = u.CachedTokens
	}
	if u.ReasoningTokens > 0 {
		merged.ReasoningTokens = u.ReasoningTokens
	}
	s.Usage = &merged
}

// Drop records that the current delta was malformed and skipped.
func (s *State) Drop(reason string) {
	s.Dropped++
	s.dropReason = reason
}

// FinishOrDefault returns the last finish reason, or "stop" when none was observed.
func (s *State) FinishOrDefault() string {
	if s.FinishReason == "" {
		return "stop"
	}
	return s.FinishReason
}
