package extract

import (
	"regexp"
	"strings"
)

// issuePattern maps conversation keywords to a legal issue type.
type issuePattern struct {
	issueType string
	re        *regexp.Regexp
}

var issuePatterns = []issuePattern{
	{issueType: "Employment Law", re: regexp.MustCompile(`(?i)\b(fired|terminated|wrongful termination|discriminat\w*|harass\w*|lost wages|severance)\b`)},
	{issueType: "Family Law", re: regexp.MustCompile(`(?i)\b(divorce|custody|child support|alimony|separation)\b`)},
	{issueType: "Personal Injury", re: regexp.MustCompile(`(?i)\b(injur\w*|accident|negligen\w*|slip and fall|whiplash)\b`)},
	{issueType: "Criminal Defense", re: regexp.MustCompile(`(?i)\b(criminal|arrest\w*|charge[sd]?|dui|misdemeanor|felony)\b`)},
	{issueType: "Immigration", re: regexp.MustCompile(`(?i)\b(immigration|visa|green card|deport\w*|asylum)\b`)},
	{issueType: "Landlord-Tenant", re: regexp.MustCompile(`(?i)\b(landlord|tenant|evict\w*|lease|security deposit)\b`)},
	{issueType: "Contract Dispute", re: regexp.MustCompile(`(?i)\b(contract|breach|agreement|refund|non-payment)\b`)},
}

var (
	evidenceRe = regexp.MustCompile(`(?i)\b(emails?|texts?|text messages?|contracts?|photos?|pictures?|receipts?|documents?|recordings?|invoices?|pay stubs?|screenshots?)\b`)
	witnessRe  = regexp.MustCompile(`(?i)\b(witness\w*|coworkers?|colleagues?|neighbors?|bystanders?)\b|\bsaw (it|what|everything|the)\b`)
	damagesRe  = regexp.MustCompile(`(?i)\$[\d,]+(\.\d+)?|\b(owed?s? me|damages|lost wages|out of pocket|unpaid|medical bills)\b`)
	commsRe    = regexp.MustCompile(`(?i)\b(emailed|called|texted|wrote to|told|sent a letter|left a voicemail|spoke with)\b`)
	dateRe     = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}(,?\s*\d{4})?\b|\b\d{1,2}/\d{1,2}(/\d{2,4})?\b|\b(yesterday|last (week|month|year))\b`)
)

// interrogativeRe flags sentences that are questions or prompts rather than
// statements of fact. Assistant questions leaking into the transcript must
// not become key facts.
var interrogativeRe = regexp.MustCompile(`(?i)^\s*(what|when|where|how|why|who|can you|could you|do you|did you|would you|are you|is there)\b|\btell me\b|\bplease\b|\?\s*$`)

// assistantLineRe matches transcript lines attributable to the intake
// assistant rather than the end user.
var assistantLineRe = regexp.MustCompile(`(?i)^\s*(assistant|paralegal|agent|bot)\s*:`)

// userLineRe strips an explicit user speaker label when present.
var userLineRe = regexp.MustCompile(`(?i)^\s*(user|client)\s*:\s*`)

// ExtractDeterministic runs the keyword/regex pass over conversation text.
// Only statements attributable to the end user are treated as facts.
func ExtractDeterministic(text string) *PartialCaseInformation {
	info := &PartialCaseInformation{}
	if strings.TrimSpace(text) == "" {
		return info
	}

	userText := userStatements(text)

	for _, p := range issuePatterns {
		if p.re.MatchString(userText) {
			info.LegalIssueType = p.issueType
			break
		}
	}

	for _, sentence := range splitSentences(userText) {
		trimmed := strings.TrimSpace(sentence)
		if trimmed == "" {
			continue
		}

		isQuestion := interrogativeRe.MatchString(trimmed)

		if !isQuestion && len(trimmed) > 15 {
			info.KeyFacts = append(info.KeyFacts, trimmed)
		}
		if m := evidenceRe.FindAllString(trimmed, -1); m != nil {
			for _, e := range m {
				info.Evidence = append(info.Evidence, strings.ToLower(e))
			}
		}
		if witnessRe.MatchString(trimmed) {
			info.Witnesses = append(info.Witnesses, trimmed)
		}
		if !isQuestion && damagesRe.MatchString(trimmed) {
			info.Damages = append(info.Damages, trimmed)
		}
		if !isQuestion && commsRe.MatchString(trimmed) {
			info.Communications = append(info.Communications, trimmed)
		}
		if date := dateRe.FindString(trimmed); date != "" && !isQuestion {
			info.Timeline = append(info.Timeline, TimelineFact{Date: date, Event: trimmed})
		}
	}

	if info.LegalIssueType != "" {
		info.LegalIssues = append(info.LegalIssues, info.LegalIssueType)
	}

	info.KeyFacts = dedupe(info.KeyFacts)
	info.Evidence = dedupe(info.Evidence)
	info.Witnesses = dedupe(info.Witnesses)
	info.Damages = dedupe(info.Damages)
	info.Communications = dedupe(info.Communications)
	info.applyCaps()

	return info
}

// userStatements drops transcript lines spoken by the assistant and strips
// user speaker labels.
func userStatements(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if assistantLineRe.MatchString(line) {
			continue
		}
		kept = append(kept, userLineRe.ReplaceAllString(line, ""))
	}
	return strings.Join(kept, "\n")
}

// splitSentences keeps the terminating punctuation so the interrogative
// check can still see trailing question marks.
func splitSentences(text string) []string {
	var out []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}
