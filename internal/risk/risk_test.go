package risk

import (
	"testing"

	"github.com/lawdesk/matterflow/internal/matter"
)

func TestAssessCriminalSubjectMatterIsHigh(t *testing.T) {
	brief := &matter.CaseBrief{Summary: "Client has criminal charges pending after an arrest."}

	r := Assess(brief)
	if r.Level != matter.RiskHigh {
		t.Fatalf("level = %s, want high", r.Level)
	}
	if len(r.Notes) == 0 {
		t.Error("expected an explanatory note")
	}
}

func TestAssessUrgentTimelineIsHigh(t *testing.T) {
	brief := &matter.CaseBrief{
		Summary:  "Contract dispute over unpaid invoices.",
		Timeline: []matter.TimelineEntry{{Date: "2024-05-01", Event: "Hearing scheduled for next month"}},
	}

	r := Assess(brief)
	if r.Level != matter.RiskHigh {
		t.Fatalf("level = %s, want high", r.Level)
	}
}

func TestAssessSensitiveIssuesAreMedium(t *testing.T) {
	brief := &matter.CaseBrief{Summary: "Dispute over custody of the children."}

	r := Assess(brief)
	if r.Level != matter.RiskMedium {
		t.Fatalf("level = %s, want med", r.Level)
	}
}

func TestAssessRulesAreCumulativeAndNeverDowngrade(t *testing.T) {
	brief := &matter.CaseBrief{
		Summary:  "Criminal matter with a custody dispute over shared property.",
		Timeline: []matter.TimelineEntry{{Date: "2024-05-01", Event: "Trial date set"}},
	}

	r := Assess(brief)
	if r.Level != matter.RiskHigh {
		t.Fatalf("level = %s, want high despite medium rules also firing", r.Level)
	}
	if len(r.Notes) < 3 {
		t.Errorf("notes = %v, want every triggered rule recorded", r.Notes)
	}
}

func TestAssessPlainMatterIsLow(t *testing.T) {
	brief := &matter.CaseBrief{Summary: "Disagreement about the quality of a kitchen renovation."}

	r := Assess(brief)
	if r.Level != matter.RiskLow {
		t.Fatalf("level = %s, want low", r.Level)
	}
	if len(r.Notes) != 0 {
		t.Errorf("notes = %v, want none", r.Notes)
	}
}

func TestDecideHandoffHardTrigger(t *testing.T) {
	brief := &matter.CaseBrief{Summary: "Client has criminal charges pending."}
	r := Assess(brief)

	h := DecideHandoff(brief, r)
	if !h.Recommended {
		t.Fatal("expected a handoff recommendation")
	}
	if h.Reason != "hard_trigger" {
		t.Errorf("reason = %q, want hard_trigger", h.Reason)
	}
	if h.Message == "" {
		t.Error("expected a human-readable message")
	}
}

func TestDecideHandoffHardTriggerOutranksHighRisk(t *testing.T) {
	brief := &matter.CaseBrief{
		Summary:  "Immigration matter with urgent issues.",
		Timeline: []matter.TimelineEntry{{Date: "2024-05-01", Event: "Deadline approaching"}},
	}
	r := Assess(brief)
	if r.Level != matter.RiskHigh {
		t.Fatalf("setup: level = %s, want high", r.Level)
	}

	h := DecideHandoff(brief, r)
	if h.Reason != "hard_trigger" {
		t.Errorf("reason = %q, want hard_trigger to win over high_risk", h.Reason)
	}
}

func TestDecideHandoffDocumentGaps(t *testing.T) {
	brief := &matter.CaseBrief{
		Summary:    "Custody dispute between the parents.",
		DocsNeeded: []string{"Copy of the court petition"},
	}
	r := Assess(brief)
	if r.Level != matter.RiskMedium {
		t.Fatalf("setup: level = %s, want med", r.Level)
	}

	h := DecideHandoff(brief, r)
	if !h.Recommended || h.Reason != "document_gaps" {
		t.Errorf("handoff = %+v, want document_gaps", h)
	}
}

func TestDecideHandoffNone(t *testing.T) {
	brief := &matter.CaseBrief{Summary: "Disagreement about the quality of a kitchen renovation."}
	r := Assess(brief)

	h := DecideHandoff(brief, r)
	if h.Recommended {
		t.Errorf("handoff = %+v, want no recommendation", h)
	}
}
