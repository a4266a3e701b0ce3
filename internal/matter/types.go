package matter

import "time"

// Stage is a step in the matter formation sequence. Stages advance in one
// direction only; completed is terminal.
type Stage string

const (
	StageCollectParties  Stage = "collect_parties"
	StageConflictsCheck  Stage = "conflicts_check"
	StageDocumentsNeeded Stage = "documents_needed"
	StageFeeScope        Stage = "fee_scope"
	StageEngagement      Stage = "engagement"
	StageFilingPrep      Stage = "filing_prep"
	StageCompleted       Stage = "completed"
)

// stageOrder fixes the progression. Index into this slice defines ordering.
var stageOrder = []Stage{
	StageCollectParties,
	StageConflictsCheck,
	StageDocumentsNeeded,
	StageFeeScope,
	StageEngagement,
	StageFilingPrep,
	StageCompleted,
}

// Index returns the position of the stage in the formation sequence,
// or -1 for an unknown stage.
func (s Stage) Index() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the stage that follows s. Completed returns itself.
func (s Stage) Next() Stage {
	i := s.Index()
	if i < 0 || i >= len(stageOrder)-1 {
		return StageCompleted
	}
	return stageOrder[i+1]
}

// Terminal reports whether the stage accepts no further transitions.
func (s Stage) Terminal() bool { return s == StageCompleted }

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool { return s.Index() >= 0 }

// ItemStatus is the completion status of a checklist item.
type ItemStatus string

const (
	ItemPending    ItemStatus = "pending"
	ItemInProgress ItemStatus = "in_progress"
	ItemCompleted  ItemStatus = "completed"
)

// ChecklistItem is a task gating progress out of a stage. DocPattern, when
// set, lets received document names complete the item automatically.
type ChecklistItem struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Status     ItemStatus `json:"status"`
	Required   bool       `json:"required"`
	AssignedTo string     `json:"assigned_to,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	DocPattern string     `json:"doc_pattern,omitempty"`
}

// TimelineEntry is a dated event in the case history.
type TimelineEntry struct {
	Date  string `json:"date"`
	Event string `json:"event"`
}

// Parties holds the people and organizations involved in a matter.
type Parties struct {
	Client   string   `json:"client,omitempty"`
	Opposing []string `json:"opposing,omitempty"`
	Orgs     []string `json:"orgs,omitempty"`
}

// RiskLevel grades a case brief.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "med"
	RiskHigh   RiskLevel = "high"
)

// Risk is the current risk assessment of a brief.
type Risk struct {
	Level RiskLevel `json:"level"`
	Notes []string  `json:"notes,omitempty"`
}

// HandoffDecision recommends routing the matter to a human attorney.
// It is derived from the brief on every transition, never stored stale.
type HandoffDecision struct {
	Recommended bool   `json:"recommended"`
	Reason      string `json:"reason,omitempty"`
	Message     string `json:"message,omitempty"`
}

// CaseBrief is the structured, continuously updated summary of a matter.
// Prior facts are merged on rebuild, never silently dropped; opposing
// parties, evidence and witnesses are deduplicated by exact string match.
type CaseBrief struct {
	OrganizationID string          `json:"organization_id"`
	MatterID       string          `json:"matter_id"`
	MatterType     string          `json:"matter_type,omitempty"`
	Summary        string          `json:"summary,omitempty"`
	Timeline       []TimelineEntry `json:"timeline,omitempty"`
	Parties        Parties         `json:"parties"`
	Issues         []string        `json:"issues,omitempty"`
	Jurisdiction   string          `json:"jurisdiction,omitempty"`
	KeyFacts       []string        `json:"key_facts,omitempty"`
	Evidence       []string        `json:"evidence,omitempty"`
	Witnesses      []string        `json:"witnesses,omitempty"`
	Damages        []string        `json:"damages,omitempty"`
	Communications []string        `json:"communications,omitempty"`
	DocsNeeded     []string        `json:"docs_needed,omitempty"`
	DocsReceived   []string        `json:"docs_received,omitempty"`
	Risk           Risk            `json:"risk"`
	NextStepsAI    []string        `json:"next_steps_ai,omitempty"`
}

// ClientInfo identifies the prospective client.
type ClientInfo struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Metadata accumulates routing and party identifiers across events.
type Metadata struct {
	OrganizationID string      `json:"organization_id,omitempty"`
	MatterID       string      `json:"matter_id,omitempty"`
	ClientInfo     *ClientInfo `json:"client_info,omitempty"`
	OpposingParty  string      `json:"opposing_party,omitempty"`
	MatterType     string      `json:"matter_type,omitempty"`
}

// State is the durable per-matter record. It is created lazily on the first
// event for a matter and mutated only by Advance.
type State struct {
	Stage     Stage            `json:"stage"`
	Checklist []ChecklistItem  `json:"checklist"`
	CaseBrief *CaseBrief       `json:"case_brief,omitempty"`
	Handoff   *HandoffDecision `json:"handoff,omitempty"`
	Metadata  Metadata         `json:"metadata"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// NewState returns the initial state for a matter.
func NewState(organizationID, matterID string, now time.Time) State {
	return State{
		Stage:     StageCollectParties,
		Checklist: ChecklistFor(StageCollectParties),
		Metadata: Metadata{
			OrganizationID: organizationID,
			MatterID:       matterID,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy of the state so Advance never aliases the
// caller's slices.
func (s State) Clone() State {
	out := s
	out.Checklist = append([]ChecklistItem(nil), s.Checklist...)
	if s.CaseBrief != nil {
		b := *s.CaseBrief
		b.Timeline = append([]TimelineEntry(nil), s.CaseBrief.Timeline...)
		b.Parties.Opposing = append([]string(nil), s.CaseBrief.Parties.Opposing...)
		b.Parties.Orgs = append([]string(nil), s.CaseBrief.Parties.Orgs...)
		b.Issues = append([]string(nil), s.CaseBrief.Issues...)
		b.KeyFacts = append([]string(nil), s.CaseBrief.KeyFacts...)
		b.Evidence = append([]string(nil), s.CaseBrief.Evidence...)
		b.Witnesses = append([]string(nil), s.CaseBrief.Witnesses...)
		b.Damages = append([]string(nil), s.CaseBrief.Damages...)
		b.Communications = append([]string(nil), s.CaseBrief.Communications...)
		b.DocsNeeded = append([]string(nil), s.CaseBrief.DocsNeeded...)
		b.DocsReceived = append([]string(nil), s.CaseBrief.DocsReceived...)
		b.Risk.Notes = append([]string(nil), s.CaseBrief.Risk.Notes...)
		b.NextStepsAI = append([]string(nil), s.CaseBrief.NextStepsAI...)
		out.CaseBrief = &b
	}
	if s.Handoff != nil {
		h := *s.Handoff
		out.Handoff = &h
	}
	if s.Metadata.ClientInfo != nil {
		c := *s.Metadata.ClientInfo
		out.Metadata.ClientInfo = &c
	}
	return out
}

// MissingRequired returns the titles of pending required checklist items.
func (s State) MissingRequired() []string {
	var missing []string
	for _, item := range s.Checklist {
		if item.Required && item.Status != ItemCompleted {
			missing = append(missing, item.Title)
		}
	}
	return missing
}
