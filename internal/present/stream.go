package present

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lawdesk/matterflow/internal/matter"
)

// FinalEvent terminates a presentation stream. It carries the full text,
// the stage, and the case summary when one was generated.
type FinalEvent struct {
	Text    string       `json:"text"`
	Stage   matter.Stage `json:"stage"`
	Summary string       `json:"summary,omitempty"`
}

// StreamSSE writes the presentation as server-sent events: one "chunk"
// event per word, then a single "done" event with the FinalEvent payload.
func StreamSSE(w http.ResponseWriter, stage matter.Stage, brief *matter.CaseBrief) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("response writer does not support streaming")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	text := Present(stage, brief)

	for _, chunk := range Chunks(text) {
		data, err := json.Marshal(chunk)
		if err != nil {
			return fmt.Errorf("marshalling chunk: %w", err)
		}
		fmt.Fprintf(w, "event: chunk\ndata: %s\n\n", data)
		flusher.Flush()
	}

	final := FinalEvent{Text: text, Stage: stage}
	if summaryStages[stage] && brief != nil {
		final.Summary = Summary(brief)
	}
	data, err := json.Marshal(final)
	if err != nil {
		return fmt.Errorf("marshalling final event: %w", err)
	}
	fmt.Fprintf(w, "event: done\ndata: %s\n\n", data)
	flusher.Flush()

	return nil
}
