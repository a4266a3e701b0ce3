// Package present maps matter state to the text shown to the client. It is
// a one-way transformation with no side effects and no state of its own:
// a fixed prompt per stage, a generated case-summary document for the
// stages adjacent to completion, and a word-level chunk stream contract.
package present

import (
	"strings"

	"github.com/lawdesk/matterflow/internal/matter"
)

// stagePrompts is the fixed prompt lookup table, one entry per stage.
var stagePrompts = map[matter.Stage]string{
	matter.StageCollectParties:  "To get started, please share your full name and contact details, the name of the opposing party, and a short description of your legal issue.",
	matter.StageConflictsCheck:  "Thank you. We are running a conflicts check against our records to confirm we can represent you. This usually completes quickly.",
	matter.StageDocumentsNeeded: "We need a few documents from you: a government-issued ID and any contracts, agreements, or correspondence related to your matter. You can upload them here.",
	matter.StageFeeScope:        "Here is our proposed scope of work and fee estimate. Once you approve and the retainer payment is received, we can move forward.",
	matter.StageEngagement:      "Your engagement letter is ready for signature. Please review and sign it so we can formally begin representation.",
	matter.StageFilingPrep:      "We are preparing your case for filing: drafting pleadings, verifying jurisdiction, and calendaring deadlines. Here is your current case summary.",
	matter.StageCompleted:       "Your matter formation is complete. Your case summary is below; an attorney will follow up with next steps.",
}

// summaryStages emit the generated case-summary document instead of a bare
// prompt.
var summaryStages = map[matter.Stage]bool{
	matter.StageFilingPrep: true,
	matter.StageCompleted:  true,
}

// Present returns the client-facing text for the stage. For the stages
// adjacent to completion the stage prompt is followed by the case summary
// document.
func Present(stage matter.Stage, brief *matter.CaseBrief) string {
	prompt, ok := stagePrompts[stage]
	if !ok {
		prompt = stagePrompts[matter.StageCollectParties]
	}
	if summaryStages[stage] && brief != nil {
		return prompt + "\n\n" + Summary(brief)
	}
	return prompt
}

// Summary renders the sectioned Markdown case-summary document.
func Summary(brief *matter.CaseBrief) string {
	var b strings.Builder

	b.WriteString("# Case Summary\n\n")
	if brief.MatterType != "" {
		b.WriteString("**Matter type:** " + brief.MatterType + "\n\n")
	}
	if brief.Jurisdiction != "" {
		b.WriteString("**Jurisdiction:** " + brief.Jurisdiction + "\n\n")
	}
	if brief.Summary != "" {
		b.WriteString(brief.Summary + "\n\n")
	}

	writeListSection(&b, "Key Facts", brief.KeyFacts)

	if len(brief.Timeline) > 0 {
		b.WriteString("## Timeline\n\n")
		for _, entry := range brief.Timeline {
			b.WriteString("- **" + entry.Date + "** — " + entry.Event + "\n")
		}
		b.WriteString("\n")
	}

	writeListSection(&b, "Evidence", brief.Evidence)
	writeListSection(&b, "Witnesses", brief.Witnesses)
	writeListSection(&b, "Legal Issues", brief.Issues)
	writeListSection(&b, "Damages", brief.Damages)
	writeListSection(&b, "Strengths", strengths(brief))
	writeListSection(&b, "Next Steps", brief.NextStepsAI)

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeListSection(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("## " + title + "\n\n")
	for _, item := range items {
		b.WriteString("- " + item + "\n")
	}
	b.WriteString("\n")
}

// strengths derives talking points from what the client can already show.
func strengths(brief *matter.CaseBrief) []string {
	var out []string
	if len(brief.Evidence) > 0 {
		out = append(out, "Documentary evidence is available to support the claims")
	}
	if len(brief.Witnesses) > 0 {
		out = append(out, "Witnesses can corroborate the client's account")
	}
	if len(brief.Timeline) > 2 {
		out = append(out, "A detailed timeline of events has been established")
	}
	return out
}

// Chunks splits text into word-level chunks for streaming. Whitespace is
// normalized to single spaces; the terminal stream event carries the exact
// full text so receivers never need to reconstruct it from chunks.
func Chunks(text string) []string {
	if text == "" {
		return nil
	}
	words := strings.Fields(text)
	chunks := make([]string, 0, len(words))
	for i, w := range words {
		if i < len(words)-1 {
			chunks = append(chunks, w+" ")
		} else {
			chunks = append(chunks, w)
		}
	}
	return chunks
}
