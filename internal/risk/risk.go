// Package risk scores a case brief and decides whether a matter should be
// handed off to a human attorney. Rules are independent and cumulative;
// handoff rules are evaluated in strict priority order.
package risk

import (
	"strings"

	"github.com/lawdesk/matterflow/internal/matter"
)

// hardTriggerWords force a handoff recommendation regardless of stage.
var hardTriggerWords = []string{
	"criminal",
	"immigration",
	"trial",
	"hearing",
	"served",
	"deadline",
	"court appearance",
}

// urgentTimelineWords raise risk to high when found in timeline entries.
var urgentTimelineWords = []string{"deadline", "hearing", "trial"}

// sensitiveWords raise risk to at least medium.
var sensitiveWords = []string{"custody", "support", "property"}

// courtDocWords flag document gaps that warrant attorney review.
var courtDocWords = []string{"court", "petition", "summons"}

// Assess scores the brief. Each triggered rule appends a note; rules never
// downgrade a level set by an earlier rule.
func Assess(brief *matter.CaseBrief) matter.Risk {
	r := matter.Risk{Level: matter.RiskLow}
	if brief == nil {
		return r
	}

	text := briefText(brief)

	if strings.Contains(text, "criminal") || strings.Contains(text, "immigration") {
		raise(&r, matter.RiskHigh)
		r.Notes = append(r.Notes, "Criminal or immigration subject matter detected")
	}

	for _, entry := range brief.Timeline {
		if containsAny(strings.ToLower(entry.Event), urgentTimelineWords) {
			raise(&r, matter.RiskHigh)
			r.Notes = append(r.Notes, "Timeline references an imminent deadline, hearing, or trial")
			break
		}
	}

	if containsAny(text, sensitiveWords) {
		raise(&r, matter.RiskMedium)
		r.Notes = append(r.Notes, "Custody, support, or property issues present")
	}

	if len(brief.DocsNeeded) > 5 {
		raise(&r, matter.RiskMedium)
		r.Notes = append(r.Notes, "Large number of outstanding documents")
	}

	return r
}

// DecideHandoff derives the handoff decision from the brief and its risk
// assessment. First matching rule wins.
func DecideHandoff(brief *matter.CaseBrief, r matter.Risk) matter.HandoffDecision {
	if brief == nil {
		return matter.HandoffDecision{}
	}

	text := briefText(brief)

	if word, ok := firstMatch(text, hardTriggerWords); ok {
		return matter.HandoffDecision{
			Recommended: true,
			Reason:      "hard_trigger",
			Message:     "This matter mentions \"" + word + "\" and needs attorney review before intake continues.",
		}
	}

	if r.Level == matter.RiskHigh {
		return matter.HandoffDecision{
			Recommended: true,
			Reason:      "high_risk",
			Message:     "This matter was assessed as high risk and should be reviewed by an attorney.",
		}
	}

	if r.Level == matter.RiskMedium {
		for _, doc := range brief.DocsNeeded {
			if containsAny(strings.ToLower(doc), courtDocWords) {
				return matter.HandoffDecision{
					Recommended: true,
					Reason:      "document_gaps",
					Message:     "Court filings are outstanding on a medium-risk matter; an attorney should review the document list.",
				}
			}
		}
	}

	return matter.HandoffDecision{}
}

// briefText is the lowercased search corpus for substring rules: the
// summary plus all timeline events.
func briefText(brief *matter.CaseBrief) string {
	var b strings.Builder
	b.WriteString(brief.Summary)
	for _, entry := range brief.Timeline {
		b.WriteString("\n")
		b.WriteString(entry.Event)
	}
	return strings.ToLower(b.String())
}

// raise bumps the level, never lowering it.
func raise(r *matter.Risk, level matter.RiskLevel) {
	if rank(level) > rank(r.Level) {
		r.Level = level
	}
}

func rank(l matter.RiskLevel) int {
	switch l {
	case matter.RiskHigh:
		return 2
	case matter.RiskMedium:
		return 1
	default:
		return 0
	}
}

func containsAny(text string, words []string) bool {
	_, ok := firstMatch(text, words)
	return ok
}

func firstMatch(text string, words []string) (string, bool) {
	for _, w := range words {
		if strings.Contains(text, w) {
			return w, true
		}
	}
	return "", false
}
