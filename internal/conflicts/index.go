// Package conflicts maintains a per-organization index of party names used
// to surface potential conflicts of interest during the conflicts_check
// stage. With an embedder configured the index does similarity search via
// chromem-go; without one it degrades to exact substring matching. Lookups
// are advisory: failures are logged by callers and never block intake.
package conflicts

import (
	"context"
	"fmt"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/lawdesk/matterflow/internal/embeddings"
)

// Match is a previously indexed party that resembles the query.
type Match struct {
	MatterID   string  `json:"matter_id"`
	Party      string  `json:"party"`
	Similarity float32 `json:"similarity"`
}

// record backs the exact-match fallback.
type record struct {
	matterID string
	party    string
}

// Index stores party names per organization.
type Index struct {
	mu       sync.Mutex
	db       *chromem.DB
	embedder embeddings.Embedder
	fallback map[string][]record
}

// NewIndex creates an Index. embedder may be nil, in which case searches
// use exact substring matching only.
func NewIndex(embedder embeddings.Embedder) *Index {
	idx := &Index{
		embedder: embedder,
		fallback: make(map[string][]record),
	}
	if embedder != nil {
		idx.db = chromem.NewDB()
	}
	return idx
}

func (x *Index) collection(orgID string) (*chromem.Collection, error) {
	return x.db.GetOrCreateCollection("conflicts_"+orgID, nil, embeddings.ToChromemFunc(x.embedder))
}

// AddParties indexes party names for a matter.
func (x *Index) AddParties(ctx context.Context, orgID, matterID string, parties []string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, party := range parties {
		if strings.TrimSpace(party) == "" {
			continue
		}
		x.fallback[orgID] = append(x.fallback[orgID], record{matterID: matterID, party: party})
	}

	if x.db == nil {
		return nil
	}

	col, err := x.collection(orgID)
	if err != nil {
		return fmt.Errorf("conflicts collection: %w", err)
	}

	var docs []chromem.Document
	for _, party := range parties {
		if strings.TrimSpace(party) == "" {
			continue
		}
		docs = append(docs, chromem.Document{
			ID:       matterID + "|" + party,
			Content:  party,
			Metadata: map[string]string{"matter_id": matterID, "party": party},
		})
	}
	if len(docs) == 0 {
		return nil
	}
	return col.AddDocuments(ctx, docs, 1)
}

// Search returns indexed parties resembling the query, excluding entries
// from the querying matter itself.
func (x *Index) Search(ctx context.Context, orgID, matterID, party string, limit int) ([]Match, error) {
	if strings.TrimSpace(party) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	if x.db == nil {
		return x.searchExact(orgID, matterID, party, limit), nil
	}

	x.mu.Lock()
	col, err := x.collection(orgID)
	x.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("conflicts collection: %w", err)
	}

	// chromem-go requires nResults <= collection size.
	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	results, err := col.Query(ctx, party, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("conflicts query: %w", err)
	}

	var matches []Match
	for _, r := range results {
		if r.Metadata["matter_id"] == matterID {
			continue
		}
		matches = append(matches, Match{
			MatterID:   r.Metadata["matter_id"],
			Party:      r.Metadata["party"],
			Similarity: r.Similarity,
		})
	}
	return matches, nil
}

func (x *Index) searchExact(orgID, matterID, party string, limit int) []Match {
	x.mu.Lock()
	defer x.mu.Unlock()

	needle := strings.ToLower(party)
	var matches []Match
	for _, rec := range x.fallback[orgID] {
		if rec.matterID == matterID {
			continue
		}
		indexed := strings.ToLower(rec.party)
		if strings.Contains(indexed, needle) || strings.Contains(needle, indexed) {
			matches = append(matches, Match{MatterID: rec.matterID, Party: rec.party, Similarity: 1})
			if len(matches) == limit {
				break
			}
		}
	}
	return matches
}
