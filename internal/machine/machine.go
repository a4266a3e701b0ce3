// Package machine implements the matter formation state machine: a pure
// transition function from (state, event) to the next state. It owns stage
// exit rules, checklist lifecycle, case brief rebuilding, and risk/handoff
// recomputation. No I/O happens here.
package machine

import (
	"fmt"
	"time"

	"github.com/lawdesk/matterflow/internal/extract"
	"github.com/lawdesk/matterflow/internal/matter"
	"github.com/lawdesk/matterflow/internal/risk"
)

// Advance applies one event to the state and returns the successor state.
// The input state is never mutated. facts, when non-nil, carries the output
// of the extraction passes over the conversation and is merged into the
// brief whether or not a stage transition occurs.
//
// Stages only move forward. An event that does not satisfy the current
// stage's exit condition leaves the stage untouched but still updates the
// brief, timeline, risk assessment, and handoff decision.
func Advance(s matter.State, ev matter.Event, facts *extract.PartialCaseInformation, now time.Time) matter.State {
	next := s.Clone()

	mergeMetadata(&next, ev)
	ensureBrief(&next)
	mergeEvent(&next, ev)
	mergeFacts(next.CaseBrief, facts)
	applyChecklistUpdates(&next, ev)

	if !next.Stage.Terminal() && exitSatisfied(next, ev) {
		completeChecklist(next.Checklist)
		next.Stage = next.Stage.Next()
		next.Checklist = matter.ChecklistFor(next.Stage)
	}

	refreshDocsNeeded(&next)

	next.CaseBrief.Timeline = append(next.CaseBrief.Timeline, matter.TimelineEntry{
		Date:  now.UTC().Format("2006-01-02"),
		Event: fmt.Sprintf("%s: Advanced to %s stage", ev.Type, next.Stage),
	})

	rebuildSummary(next.CaseBrief)

	r := risk.Assess(next.CaseBrief)
	next.CaseBrief.Risk = r
	h := risk.DecideHandoff(next.CaseBrief, r)
	next.Handoff = &h

	next.CaseBrief.NextStepsAI = nextSteps(next)
	next.UpdatedAt = now

	return next
}

// exitSatisfied evaluates the stage exit condition against the state after
// the event's payload has been merged, so identifiers supplied across
// multiple events accumulate.
func exitSatisfied(s matter.State, ev matter.Event) bool {
	switch s.Stage {
	case matter.StageCollectParties:
		md := s.Metadata
		hasClient := md.ClientInfo != nil && md.ClientInfo.Name != ""
		return hasClient && (md.OpposingParty != "" || md.MatterType != "")
	case matter.StageConflictsCheck:
		return ev.Type == matter.EventConflictCheckComplete
	case matter.StageDocumentsNeeded:
		// The explicit event is the primary path; the checklist-based
		// path is a legacy condition satisfiable only when doc items
		// were completed by pattern matches on earlier events.
		return ev.Type == matter.EventDocumentsReceived || requiredDocItemsDone(s.Checklist)
	case matter.StageFeeScope:
		return ev.Type == matter.EventPaymentComplete ||
			(ev.UserInput != nil && ev.UserInput.FeeApproved)
	case matter.StageEngagement:
		return ev.Type == matter.EventLetterSigned ||
			(ev.UserInput != nil && ev.UserInput.LetterSigned)
	case matter.StageFilingPrep:
		return allRequiredDone(s.Checklist)
	default:
		return false
	}
}

func mergeMetadata(s *matter.State, ev matter.Event) {
	if ev.OrganizationID != "" {
		s.Metadata.OrganizationID = ev.OrganizationID
	}
	if ev.MatterID != "" {
		s.Metadata.MatterID = ev.MatterID
	}
	if ev.UserInput == nil {
		return
	}
	p := ev.UserInput
	if p.ClientInfo != nil && p.ClientInfo.Name != "" {
		s.Metadata.ClientInfo = p.ClientInfo
	}
	if p.OpposingParty != "" {
		s.Metadata.OpposingParty = p.OpposingParty
	}
	if p.MatterType != "" {
		s.Metadata.MatterType = p.MatterType
	}
}

func ensureBrief(s *matter.State) {
	if s.CaseBrief == nil {
		s.CaseBrief = &matter.CaseBrief{
			OrganizationID: s.Metadata.OrganizationID,
			MatterID:       s.Metadata.MatterID,
			Risk:           matter.Risk{Level: matter.RiskLow},
		}
	}
}

// mergeEvent folds the event payload into the brief. Opposing parties and
// received documents are deduplicated by exact match; nothing already in
// the brief is dropped.
func mergeEvent(s *matter.State, ev matter.Event) {
	brief := s.CaseBrief

	switch ev.Type {
	case matter.EventUserInput:
		p := ev.UserInput
		if p == nil {
			return
		}
		if p.ClientInfo != nil && p.ClientInfo.Name != "" {
			brief.Parties.Client = p.ClientInfo.Name
		}
		if p.OpposingParty != "" {
			brief.Parties.Opposing = appendUnique(brief.Parties.Opposing, p.OpposingParty)
		}
		if p.MatterType != "" {
			brief.MatterType = p.MatterType
		}
		if p.Jurisdiction != "" {
			brief.Jurisdiction = p.Jurisdiction
		}
	case matter.EventConflictCheckComplete:
		if ev.ConflictCheck != nil && !ev.ConflictCheck.Cleared {
			note := "Conflicts check flagged for review"
			if ev.ConflictCheck.Notes != "" {
				note += ": " + ev.ConflictCheck.Notes
			}
			brief.Issues = appendUnique(brief.Issues, note)
		}
	case matter.EventDocumentsReceived:
		if ev.Documents == nil {
			return
		}
		for _, doc := range ev.Documents.Documents {
			if doc.Name != "" {
				brief.DocsReceived = appendUnique(brief.DocsReceived, doc.Name)
			}
		}
	}
}

// mergeFacts folds an extraction result into the brief. Evidence and
// witness lists dedupe by exact match; existing entries are kept.
func mergeFacts(brief *matter.CaseBrief, facts *extract.PartialCaseInformation) {
	if facts.Empty() {
		return
	}

	if brief.MatterType == "" && facts.LegalIssueType != "" {
		brief.MatterType = facts.LegalIssueType
	}
	for _, f := range facts.KeyFacts {
		brief.KeyFacts = appendUnique(brief.KeyFacts, f)
	}
	for _, e := range facts.Evidence {
		brief.Evidence = appendUnique(brief.Evidence, e)
	}
	for _, w := range facts.Witnesses {
		brief.Witnesses = appendUnique(brief.Witnesses, w)
	}
	for _, i := range facts.LegalIssues {
		brief.Issues = appendUnique(brief.Issues, i)
	}
	for _, d := range facts.Damages {
		brief.Damages = appendUnique(brief.Damages, d)
	}
	for _, c := range facts.Communications {
		brief.Communications = appendUnique(brief.Communications, c)
	}
	for _, t := range facts.Timeline {
		entry := matter.TimelineEntry{Date: t.Date, Event: t.Event}
		if !containsTimeline(brief.Timeline, entry) {
			brief.Timeline = append(brief.Timeline, entry)
		}
	}
}

// applyChecklistUpdates marks items completed from the event: explicit item
// ids from user input and document pattern matches from received documents.
func applyChecklistUpdates(s *matter.State, ev matter.Event) {
	if ev.UserInput != nil {
		for _, id := range ev.UserInput.CompletedItems {
			for i := range s.Checklist {
				if s.Checklist[i].ID == id {
					s.Checklist[i].Status = matter.ItemCompleted
				}
			}
		}
	}
	if ev.Documents != nil {
		completeDocItems(s.Checklist, ev.Documents.Documents)
	}
}

// completeDocItems marks checklist doc items completed when a received
// document matches their pattern or declared kind.
func completeDocItems(checklist []matter.ChecklistItem, docs []matter.ReceivedDocument) {
	for i := range checklist {
		if checklist[i].DocPattern == "" || checklist[i].Status == matter.ItemCompleted {
			continue
		}
		for _, doc := range docs {
			if matter.MatchesDocument(checklist[i].DocPattern, doc.Name) || doc.Kind == checklist[i].ID {
				checklist[i].Status = matter.ItemCompleted
				break
			}
		}
	}
}

// completeChecklist marks every item of the outgoing stage completed.
func completeChecklist(checklist []matter.ChecklistItem) {
	for i := range checklist {
		checklist[i].Status = matter.ItemCompleted
	}
}

func requiredDocItemsDone(checklist []matter.ChecklistItem) bool {
	sawDocItem := false
	for _, item := range checklist {
		if item.DocPattern == "" || !item.Required {
			continue
		}
		sawDocItem = true
		if item.Status != matter.ItemCompleted {
			return false
		}
	}
	return sawDocItem
}

func allRequiredDone(checklist []matter.ChecklistItem) bool {
	for _, item := range checklist {
		if item.Required && item.Status != matter.ItemCompleted {
			return false
		}
	}
	return true
}

// refreshDocsNeeded recomputes the outstanding document list from the
// current checklist.
func refreshDocsNeeded(s *matter.State) {
	var needed []string
	for _, item := range s.Checklist {
		if item.DocPattern != "" && item.Status != matter.ItemCompleted {
			needed = append(needed, item.Title)
		}
	}
	s.CaseBrief.DocsNeeded = needed
}

// rebuildSummary regenerates the one-paragraph summary from the brief's
// merged facts. Derived, so safe to overwrite on every call.
func rebuildSummary(brief *matter.CaseBrief) {
	var summary string
	if brief.MatterType != "" {
		summary = brief.MatterType + " matter"
		if brief.Parties.Client != "" {
			summary += " for " + brief.Parties.Client
		}
		summary += "."
	}
	for i, fact := range brief.KeyFacts {
		if i >= 3 {
			break
		}
		if summary != "" {
			summary += " "
		}
		summary += fact
	}
	if summary != "" {
		brief.Summary = summary
	}
}

// nextSteps lists the actions that unblock the current stage.
func nextSteps(s matter.State) []string {
	if s.Stage.Terminal() {
		return []string{"Matter formation is complete"}
	}
	var steps []string
	for _, title := range s.MissingRequired() {
		steps = append(steps, "Complete checklist item: "+title)
		if len(steps) == 3 {
			break
		}
	}
	if s.Handoff != nil && s.Handoff.Recommended {
		steps = append(steps, "Route to a human attorney for review")
	}
	return steps
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}

func containsTimeline(list []matter.TimelineEntry, e matter.TimelineEntry) bool {
	for _, existing := range list {
		if existing.Date == e.Date && existing.Event == e.Event {
			return true
		}
	}
	return false
}
