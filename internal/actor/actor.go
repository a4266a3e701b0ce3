// Package actor orchestrates one matter formation advance end to end:
// idempotency replay, authorization, state load, extraction, transition,
// persistence, audit, and handoff dispatch. Requests for the same matter
// are serialized; requests for different matters run concurrently.
package actor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lawdesk/matterflow/internal/audit"
	"github.com/lawdesk/matterflow/internal/authz"
	"github.com/lawdesk/matterflow/internal/conflicts"
	"github.com/lawdesk/matterflow/internal/extract"
	"github.com/lawdesk/matterflow/internal/handoff"
	"github.com/lawdesk/matterflow/internal/machine"
	"github.com/lawdesk/matterflow/internal/matter"
	"github.com/lawdesk/matterflow/internal/present"
)

// ErrNotFound means the matter has no recorded state yet.
var ErrNotFound = errors.New("matter state not found")

// Response is the API-facing result of an advance or a status read.
type Response struct {
	Stage          matter.Stage           `json:"stage"`
	Checklist      []matter.ChecklistItem `json:"checklist"`
	Message        string                 `json:"message,omitempty"`
	NextActions    []string               `json:"next_actions,omitempty"`
	Missing        []string               `json:"missing,omitempty"`
	Completed      bool                   `json:"completed"`
	Metadata       matter.Metadata        `json:"metadata"`
	CaseBrief      *matter.CaseBrief      `json:"case_brief,omitempty"`
	Directive      string                 `json:"directive,omitempty"`
	HandoffReason  string                 `json:"handoff_reason,omitempty"`
	HandoffMessage string                 `json:"handoff_message,omitempty"`
	Idempotent     bool                   `json:"idempotent,omitempty"`
}

// Actor coordinates stores and services around the transition function.
// Extractor, conflicts index, and handoff dispatcher are optional; the
// actor degrades gracefully without them.
type Actor struct {
	states    StateStore
	idem      IdempotencyStore
	auditor   audit.Sink
	directory authz.Directory
	extractor *extract.Extractor
	conflicts *conflicts.Index
	handoffs  *handoff.Dispatcher
	now       func() time.Time

	mu    sync.Mutex
	locks map[string]*matterLock
}

// matterLock serializes advances for one (organization, matter) pair. The
// refcount lets the registry drop entries once no request holds or waits
// on them.
type matterLock struct {
	mu   sync.Mutex
	refs int
}

// Options carries the optional collaborators.
type Options struct {
	Extractor *extract.Extractor
	Conflicts *conflicts.Index
	Handoffs  *handoff.Dispatcher
	Now       func() time.Time
}

// New creates an Actor.
func New(states StateStore, idem IdempotencyStore, auditor audit.Sink, directory authz.Directory, opts Options) *Actor {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Actor{
		states:    states,
		idem:      idem,
		auditor:   auditor,
		directory: directory,
		extractor: opts.Extractor,
		conflicts: opts.Conflicts,
		handoffs:  opts.Handoffs,
		now:       now,
		locks:     make(map[string]*matterLock),
	}
}

// acquire takes the per-matter lock, creating the registry entry on first
// use.
func (a *Actor) acquire(orgID, matterID string) *matterLock {
	key := orgID + "/" + matterID
	a.mu.Lock()
	l, ok := a.locks[key]
	if !ok {
		l = &matterLock{}
		a.locks[key] = l
	}
	l.refs++
	a.mu.Unlock()

	l.mu.Lock()
	return l
}

// release unlocks the per-matter lock and removes the registry entry once
// nobody else holds or waits on it.
func (a *Actor) release(orgID, matterID string, l *matterLock) {
	l.mu.Unlock()

	key := orgID + "/" + matterID
	a.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(a.locks, key)
	}
	a.mu.Unlock()
}

// Advance applies one event to a matter. The sequence is fixed: replay a
// cached idempotent response first, then authorize, then load or lazily
// create state, run extraction, transition, persist, audit, dispatch any
// handoff, and finally cache the response under the idempotency key.
//
// Persistence failure is fatal to the request. Audit, conflicts, and
// handoff failures are logged and never fail an otherwise successful
// advance.
func (a *Actor) Advance(ctx context.Context, id *authz.Identity, orgID, matterID string, ev matter.Event) (*Response, error) {
	l := a.acquire(orgID, matterID)
	defer a.release(orgID, matterID, l)

	if ev.IdempotencyKey != "" {
		cached, ok, err := a.idem.Lookup(ctx, orgID, matterID, ev.IdempotencyKey)
		if err != nil {
			log.Printf("actor: idempotency lookup failed for %s/%s: %v", orgID, matterID, err)
		} else if ok {
			var resp Response
			if err := json.Unmarshal(cached, &resp); err != nil {
				log.Printf("actor: discarding unreadable cached response for %s/%s: %v", orgID, matterID, err)
			} else {
				resp.Idempotent = true
				return &resp, nil
			}
		}
	}

	if err := authz.Authorize(id, orgID, true); err != nil {
		return nil, err
	}
	exists, err := a.directory.OrgExists(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("checking organization: %w", err)
	}
	if !exists {
		return nil, authz.ErrForbidden
	}
	if err := a.directory.EnsureMatter(ctx, orgID, matterID); err != nil {
		return nil, fmt.Errorf("registering matter: %w", err)
	}

	now := a.now().UTC()

	state, err := a.states.Get(ctx, orgID, matterID)
	if err != nil {
		return nil, fmt.Errorf("loading matter state: %w", err)
	}
	if state == nil {
		s := matter.NewState(orgID, matterID, now)
		state = &s
	}

	var facts *extract.PartialCaseInformation
	if a.extractor != nil && ev.Type == matter.EventUserInput && ev.UserInput != nil && ev.UserInput.Message != "" {
		facts = a.extractor.Extract(ctx, ev.UserInput.Message)
	}

	next := machine.Advance(*state, ev, facts, now)

	if next.Stage == matter.StageConflictsCheck && state.Stage != matter.StageConflictsCheck {
		a.runConflictsCheck(ctx, orgID, matterID, &next)
	}

	if err := a.states.Put(ctx, orgID, matterID, next); err != nil {
		return nil, fmt.Errorf("persisting matter state: %w", err)
	}

	a.logAudit(ctx, id, orgID, matterID, *state, next, ev)

	resp := a.buildResponse(next)

	if resp.Directive == handoff.DirectiveHandoffToIntake && a.handoffs != nil {
		n := handoff.Notification{
			OrganizationID: orgID,
			MatterID:       matterID,
			Reason:         resp.HandoffReason,
			Message:        resp.HandoffMessage,
			RiskLevel:      string(next.CaseBrief.Risk.Level),
		}
		if err := a.handoffs.Dispatch(ctx, n); err != nil {
			log.Printf("actor: handoff dispatch for %s/%s: %v", orgID, matterID, err)
		}
	}

	if ev.IdempotencyKey != "" {
		body, err := json.Marshal(resp)
		if err == nil {
			err = a.idem.Save(ctx, orgID, matterID, ev.IdempotencyKey, body)
		}
		if err != nil {
			log.Printf("actor: caching idempotent response for %s/%s: %v", orgID, matterID, err)
		}
	}

	return resp, nil
}

// runConflictsCheck seeds the conflicts index with the matter's parties and
// flags resemblances to parties from other matters. Advisory only.
func (a *Actor) runConflictsCheck(ctx context.Context, orgID, matterID string, s *matter.State) {
	if a.conflicts == nil || s.CaseBrief == nil {
		return
	}

	for _, party := range s.CaseBrief.Parties.Opposing {
		matches, err := a.conflicts.Search(ctx, orgID, matterID, party, 3)
		if err != nil {
			log.Printf("actor: conflicts search for %q: %v", party, err)
			continue
		}
		for _, m := range matches {
			issue := fmt.Sprintf("Potential conflict: %q resembles party %q on matter %s", party, m.Party, m.MatterID)
			s.CaseBrief.Issues = appendUnique(s.CaseBrief.Issues, issue)
		}
	}

	parties := append([]string(nil), s.CaseBrief.Parties.Opposing...)
	if s.CaseBrief.Parties.Client != "" {
		parties = append(parties, s.CaseBrief.Parties.Client)
	}
	if err := a.conflicts.AddParties(ctx, orgID, matterID, parties); err != nil {
		log.Printf("actor: indexing parties for %s/%s: %v", orgID, matterID, err)
	}
}

// logAudit records the transition. An audit write failure is logged, never
// surfaced; the state change has already been persisted.
func (a *Actor) logAudit(ctx context.Context, id *authz.Identity, orgID, matterID string, prev, next matter.State, ev matter.Event) {
	if a.auditor == nil {
		return
	}
	actorName := "unknown"
	if id != nil {
		actorName = id.Name
		if actorName == "" {
			actorName = id.TokenID
		}
	}
	entry := audit.Entry{
		Timestamp:      a.now().UTC(),
		OrganizationID: orgID,
		MatterID:       matterID,
		Actor:          actorName,
		Action:         audit.ActionStageAdvance,
		OldValues:      map[string]string{"stage": string(prev.Stage)},
		NewValues:      map[string]string{"stage": string(next.Stage)},
		Metadata:       map[string]string{"event_type": string(ev.Type)},
	}
	if next.CaseBrief != nil {
		entry.Metadata["risk_level"] = string(next.CaseBrief.Risk.Level)
	}
	if err := a.auditor.Log(ctx, entry); err != nil {
		log.Printf("actor: audit write for %s/%s: %v", orgID, matterID, err)
	}
}

// Status returns the current response view of a matter without mutating it.
func (a *Actor) Status(ctx context.Context, id *authz.Identity, orgID, matterID string) (*Response, error) {
	state, err := a.loadForRead(ctx, id, orgID, matterID)
	if err != nil {
		return nil, err
	}
	return a.buildResponse(*state), nil
}

// Checklist returns the current checklist of a matter.
func (a *Actor) Checklist(ctx context.Context, id *authz.Identity, orgID, matterID string) ([]matter.ChecklistItem, error) {
	state, err := a.loadForRead(ctx, id, orgID, matterID)
	if err != nil {
		return nil, err
	}
	return state.Checklist, nil
}

// State returns the raw persisted state for read endpoints that need the
// full record, such as summary rendering.
func (a *Actor) State(ctx context.Context, id *authz.Identity, orgID, matterID string) (*matter.State, error) {
	return a.loadForRead(ctx, id, orgID, matterID)
}

func (a *Actor) loadForRead(ctx context.Context, id *authz.Identity, orgID, matterID string) (*matter.State, error) {
	if err := authz.Authorize(id, orgID, false); err != nil {
		return nil, err
	}
	state, err := a.states.Get(ctx, orgID, matterID)
	if err != nil {
		return nil, fmt.Errorf("loading matter state: %w", err)
	}
	if state == nil {
		return nil, ErrNotFound
	}
	return state, nil
}

func (a *Actor) buildResponse(s matter.State) *Response {
	resp := &Response{
		Stage:     s.Stage,
		Checklist: s.Checklist,
		Message:   present.Present(s.Stage, s.CaseBrief),
		Missing:   s.MissingRequired(),
		Completed: s.Stage.Terminal(),
		Metadata:  s.Metadata,
		CaseBrief: s.CaseBrief,
	}
	if s.CaseBrief != nil {
		resp.NextActions = s.CaseBrief.NextStepsAI
	}
	if s.Handoff != nil && s.Handoff.Recommended {
		resp.Directive = handoff.DirectiveHandoffToIntake
		resp.HandoffReason = s.Handoff.Reason
		resp.HandoffMessage = s.Handoff.Message
	}
	return resp
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
