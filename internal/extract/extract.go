// Package extract derives structured case information from unstructured
// conversation text. Two passes run over the same text: a deterministic
// keyword/regex pass and an optional smart pass backed by a TextExtractor.
// The merge favors the smart pass for scalar and narrative fields and
// unions the passes for evidence and witnesses.
package extract

import (
	"context"
	"log"
	"time"
)

// Extractor combines the deterministic pass with an optional smart pass.
type Extractor struct {
	smart   TextExtractor
	timeout time.Duration
}

// New creates an Extractor. smart may be nil, in which case the
// deterministic pass is the sole source. A non-positive timeout uses
// DefaultSmartTimeout.
func New(smart TextExtractor, timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = DefaultSmartTimeout
	}
	return &Extractor{smart: smart, timeout: timeout}
}

// Extract runs both passes and merges their results. It never fails: a
// smart pass that errors, times out, or returns garbage degrades to the
// deterministic result.
func (e *Extractor) Extract(ctx context.Context, conversationText string) *PartialCaseInformation {
	det := ExtractDeterministic(conversationText)

	if e.smart == nil {
		return det
	}

	smartCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	smart, err := e.smart.Extract(smartCtx, conversationText)
	if err != nil {
		log.Printf("extract: smart pass (%s) failed, using deterministic only: %v", e.smart.Name(), err)
		return det
	}

	return merge(det, smart)
}

// merge reconciles the two passes. The smart result wins outright for
// legal issue type, key facts, timeline, legal issues, communications and
// damages when present; evidence and witnesses are unioned, deterministic
// results first, deduplicated by exact string match. Disagreements on the
// union fields are logged as an extraction-quality signal, never an error.
func merge(det, smart *PartialCaseInformation) *PartialCaseInformation {
	out := &PartialCaseInformation{}

	out.LegalIssueType = det.LegalIssueType
	if smart.LegalIssueType != "" {
		out.LegalIssueType = smart.LegalIssueType
	}

	out.KeyFacts = pickList(det.KeyFacts, smart.KeyFacts)
	out.LegalIssues = pickList(det.LegalIssues, smart.LegalIssues)
	out.Communications = pickList(det.Communications, smart.Communications)
	out.Damages = pickList(det.Damages, smart.Damages)

	out.Timeline = det.Timeline
	if len(smart.Timeline) > 0 {
		out.Timeline = smart.Timeline
	}

	out.Evidence = dedupe(append(append([]string(nil), det.Evidence...), smart.Evidence...))
	out.Witnesses = dedupe(append(append([]string(nil), det.Witnesses...), smart.Witnesses...))

	if disagrees(det.Evidence, smart.Evidence) {
		log.Printf("extract: passes disagree on evidence: deterministic=%v smart=%v", det.Evidence, smart.Evidence)
	}
	if disagrees(det.Witnesses, smart.Witnesses) {
		log.Printf("extract: passes disagree on witnesses: deterministic=%v smart=%v", det.Witnesses, smart.Witnesses)
	}

	out.applyCaps()
	return out
}

func pickList(det, smart []string) []string {
	if len(smart) > 0 {
		return smart
	}
	return det
}

// disagrees reports whether both passes produced results and either pass
// found an item the other did not.
func disagrees(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		if !set[s] {
			return true
		}
	}
	if len(a) != len(b) {
		return true
	}
	return false
}
