package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/lawdesk/matterflow/internal/actor"
	"github.com/lawdesk/matterflow/internal/audit"
	"github.com/lawdesk/matterflow/internal/authz"
	"github.com/lawdesk/matterflow/internal/config"
	"github.com/lawdesk/matterflow/internal/conflicts"
	"github.com/lawdesk/matterflow/internal/db"
	"github.com/lawdesk/matterflow/internal/embeddings"
	"github.com/lawdesk/matterflow/internal/extract"
	"github.com/lawdesk/matterflow/internal/handoff"
	"github.com/lawdesk/matterflow/internal/llm"
	"github.com/lawdesk/matterflow/internal/matter"
)

// createExtractorFromConfig builds the two-pass extractor. Without a
// configured provider the deterministic pass runs alone.
func createExtractorFromConfig(cfg *config.Config) (*extract.Extractor, error) {
	timeout := time.Duration(cfg.ExtractTimeoutMS) * time.Millisecond

	if cfg.Provider == "" {
		return extract.New(nil, timeout), nil
	}

	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	return extract.New(extract.NewLLMExtractor(provider, cfg.Model), timeout), nil
}

// createEmbedderFromConfig builds the embedder for the conflicts index.
// A nil return with nil error means similarity search is unavailable and
// the index falls back to exact matching.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "":
		return nil, nil
	case config.ProviderOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(cfg.EmbeddingModel)), nil
	default:
		fmt.Fprintf(os.Stderr, "Warning: embedding provider %q is not supported; conflicts index will use exact matching\n", cfg.EmbeddingProvider)
		return nil, nil
	}
}

// components bundles everything the serve, mcp, and reindex commands need.
type components struct {
	db        *db.DB
	store     *actor.Store
	actor     *actor.Actor
	auth      *authz.Store
	audit     *audit.Store
	handoffs  *handoff.Store
	conflicts *conflicts.Index
}

// buildComponents opens the database and wires the feature packages
// together.
func buildComponents(cfg *config.Config) (*components, error) {
	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	extractor, err := createExtractorFromConfig(cfg)
	if err != nil {
		database.Close()
		return nil, err
	}

	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		database.Close()
		return nil, err
	}

	conflictsIndex := conflicts.NewIndex(embedder)
	if err := seedConflictsIndex(context.Background(), database, conflictsIndex); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: seeding conflicts index: %v\n", err)
	}

	authStore := authz.NewStore(database)
	auditStore := audit.NewStore(database)
	actorStore := actor.NewStore(database)
	handoffStore := handoff.NewStore(database)
	dispatcher := handoff.NewDispatcher(handoffStore, cfg.HandoffWebhookURL)

	a := actor.New(actorStore, actorStore, auditStore, authStore, actor.Options{
		Extractor: extractor,
		Conflicts: conflictsIndex,
		Handoffs:  dispatcher,
	})

	return &components{
		db:        database,
		store:     actorStore,
		actor:     a,
		auth:      authStore,
		audit:     auditStore,
		handoffs:  handoffStore,
		conflicts: conflictsIndex,
	}, nil
}

// seedConflictsIndex loads parties from every stored matter state into the
// in-memory conflicts index at startup.
func seedConflictsIndex(ctx context.Context, database *db.DB, index *conflicts.Index) error {
	rows, err := database.QueryContext(ctx,
		"SELECT organization_id, matter_id, state FROM matter_states")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var orgID, matterID, raw string
		if err := rows.Scan(&orgID, &matterID, &raw); err != nil {
			return err
		}
		var state matter.State
		if err := json.Unmarshal([]byte(raw), &state); err != nil || state.CaseBrief == nil {
			continue
		}
		parties := append([]string(nil), state.CaseBrief.Parties.Opposing...)
		if state.CaseBrief.Parties.Client != "" {
			parties = append(parties, state.CaseBrief.Parties.Client)
		}
		if len(parties) == 0 {
			continue
		}
		if err := index.AddParties(ctx, orgID, matterID, parties); err != nil {
			return err
		}
	}
	return rows.Err()
}

// countMatterStates returns the number of stored matter states.
func countMatterStates(ctx context.Context, database *db.DB) (int, error) {
	var n int
	err := database.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM matter_states").Scan(&n)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	return n, nil
}
