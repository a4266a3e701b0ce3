package extract

// List caps bound brief growth. The caps are a design choice: callers must
// not assume completeness beyond them.
const (
	maxKeyFacts       = 5
	maxEvidence       = 3
	maxWitnesses      = 3
	maxTimeline       = 3
	maxCommunications = 3
	maxDamages        = 3
)

// TimelineFact is a dated occurrence extracted from conversation.
type TimelineFact struct {
	Date  string `json:"date"`
	Event string `json:"event"`
}

// PartialCaseInformation is the structured output of an extraction pass over
// conversation text. Every field may be empty; extraction never fails hard.
type PartialCaseInformation struct {
	LegalIssueType string         `json:"legal_issue_type,omitempty"`
	KeyFacts       []string       `json:"key_facts,omitempty"`
	Evidence       []string       `json:"evidence,omitempty"`
	Witnesses      []string       `json:"witnesses,omitempty"`
	Timeline       []TimelineFact `json:"timeline,omitempty"`
	LegalIssues    []string       `json:"legal_issues,omitempty"`
	Communications []string       `json:"communications,omitempty"`
	Damages        []string       `json:"damages,omitempty"`
}

// Empty reports whether the pass produced nothing at all.
func (p *PartialCaseInformation) Empty() bool {
	if p == nil {
		return true
	}
	return p.LegalIssueType == "" &&
		len(p.KeyFacts) == 0 &&
		len(p.Evidence) == 0 &&
		len(p.Witnesses) == 0 &&
		len(p.Timeline) == 0 &&
		len(p.LegalIssues) == 0 &&
		len(p.Communications) == 0 &&
		len(p.Damages) == 0
}

func (p *PartialCaseInformation) applyCaps() {
	p.KeyFacts = capList(p.KeyFacts, maxKeyFacts)
	p.Evidence = capList(p.Evidence, maxEvidence)
	p.Witnesses = capList(p.Witnesses, maxWitnesses)
	p.LegalIssues = capList(p.LegalIssues, maxKeyFacts)
	p.Communications = capList(p.Communications, maxCommunications)
	p.Damages = capList(p.Damages, maxDamages)
	if len(p.Timeline) > maxTimeline {
		p.Timeline = p.Timeline[:maxTimeline]
	}
}

func capList(list []string, max int) []string {
	if len(list) > max {
		return list[:max]
	}
	return list
}

// dedupe removes exact duplicates preserving first-seen order.
func dedupe(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := list[:0]
	for _, s := range list {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
