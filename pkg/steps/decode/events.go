package decode

import (
	"strings"

	"github.com/papercomputeco/relay/pkg/llm"
	"github.com/papercomputeco/relay/pkg/sse"
	"github.com/papercomputeco/relay/pkg/steps"
)

// pendingStep is a tool step collected while walking the stream. Tool calls
// stay open until the end so that argument fragments can be appended.
type pendingStep struct {
	step  steps.RawStep
	index *int
	args  strings.Builder
	call  bool
}

type streamState struct {
	text    strings.Builder
	pending []*pendingStep
}

// decodeEvents walks chat completion deltas in event order. Content fragments
// accumulate into one text step that is emitted ahead of every tool step.
func decodeEvents(events []sse.Event) []steps.RawStep {
	st := &streamState{}

	for _, ev := range events {
		if _, ok := ev.Object(); !ok {
			continue
		}

		chunk, err := chat.ParseStreamChunk([]byte(ev.Data))
		if err != nil || chunk == nil {
			continue
		}

		for _, block := range chunk.Message.Content {
			st.add(block)
		}
	}

	return st.collect()
}

func (st *streamState) add(block llm.ContentBlock) {
	switch block.Type {
	case llm.BlockText:
		st.text.WriteString(block.Text)
	case llm.BlockToolUse:
		if block.ToolName == "" {
			if open := st.openCall(block.ToolCallIndex); open != nil {
				open.args.WriteString(block.ToolInputRaw)
			}
			return
		}
		p := &pendingStep{
			step:  steps.ToolCallStep(block.ToolName, nil),
			index: block.ToolCallIndex,
			call:  true,
		}
		p.args.WriteString(block.ToolInputRaw)
		st.pending = append(st.pending, p)
	case llm.BlockToolResult:
		st.pending = append(st.pending, &pendingStep{
			step: steps.ToolResultStep(block.ToolName, block.ToolOutput),
		})
	}
}

// openCall finds the call a nameless fragment continues: the latest call with
// the same index, or the latest call when the fragment has no index.
func (st *streamState) openCall(index *int) *pendingStep {
	for i := len(st.pending) - 1; i >= 0; i-- {
		p := st.pending[i]
		if !p.call {
			continue
		}
		if index == nil || p.index == nil || *p.index == *index {
			return p
		}
	}
	return nil
}

func (st *streamState) collect() []steps.RawStep {
	out := make([]steps.RawStep, 0, len(st.pending)+1)

	if text := st.text.String(); strings.TrimSpace(text) != "" {
		out = append(out, steps.TextStep(text))
	}

	for _, p := range st.pending {
		step := p.step
		if p.call {
			step.Args = parseArgs(p.args.String())
		}
		out = append(out, step)
	}

	return out
}
