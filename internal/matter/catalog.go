package matter

// catalog is the static stage checklist definition. Entering a stage
// re-initializes its checklist from here; leaving a stage marks the
// outgoing items completed.
var catalog = map[Stage][]ChecklistItem{
	StageCollectParties: {
		{ID: "client_identity", Title: "Collect client name and contact details", Required: true},
		{ID: "opposing_party", Title: "Identify opposing party or matter type", Required: true},
		{ID: "matter_summary", Title: "Record initial description of the dispute", Required: false},
	},
	StageConflictsCheck: {
		{ID: "conflict_search", Title: "Run conflicts search against firm records", Required: true},
		{ID: "conflict_review", Title: "Review potential conflicts with supervising attorney", Required: false},
	},
	StageDocumentsNeeded: {
		{ID: "doc_identification", Title: "Government-issued identification", Required: true, DocPattern: "*id*"},
		{ID: "doc_contracts", Title: "Relevant contracts and agreements", Required: true, DocPattern: "*{contract,agreement}*"},
		{ID: "doc_correspondence", Title: "Correspondence with opposing party", Required: false, DocPattern: "*{email,letter,correspondence}*"},
	},
	StageFeeScope: {
		{ID: "fee_quote", Title: "Present fee estimate and scope of work", Required: true},
		{ID: "fee_payment", Title: "Collect retainer or initial payment", Required: true},
	},
	StageEngagement: {
		{ID: "engagement_letter", Title: "Send engagement letter for signature", Required: true},
		{ID: "letter_signed", Title: "Receive signed engagement letter", Required: true},
	},
	StageFilingPrep: {
		{ID: "draft_pleadings", Title: "Draft initial pleadings", Required: true},
		{ID: "verify_jurisdiction", Title: "Verify jurisdiction and venue", Required: true},
		{ID: "calendar_deadlines", Title: "Calendar filing deadlines", Required: false},
	},
	StageCompleted: {},
}

// ChecklistFor returns a fresh pending checklist for the stage.
func ChecklistFor(stage Stage) []ChecklistItem {
	items := catalog[stage]
	out := make([]ChecklistItem, len(items))
	for i, item := range items {
		item.Status = ItemPending
		out[i] = item
	}
	return out
}

// RequiredTitles returns the titles of the required items for a stage.
func RequiredTitles(stage Stage) []string {
	var titles []string
	for _, item := range catalog[stage] {
		if item.Required {
			titles = append(titles, item.Title)
		}
	}
	return titles
}
