package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/lawdesk/matterflow/internal/config"
	"github.com/lawdesk/matterflow/internal/matter"
	"github.com/lawdesk/matterflow/internal/risk"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Recompute derived fields on stored matters",
	Long: `Walks every stored matter state, re-runs risk assessment and the
handoff decision against the current rules, rewrites the state, and
purges expired idempotency keys. Run after upgrading to pick up rule
changes on existing matters.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		comps, err := buildComponents(cfg)
		if err != nil {
			return err
		}
		defer comps.db.Close()

		ctx := context.Background()

		total, err := countMatterStates(ctx, comps.db)
		if err != nil {
			return fmt.Errorf("counting matters: %w", err)
		}

		rows, err := comps.db.QueryContext(ctx,
			"SELECT organization_id, matter_id, state FROM matter_states")
		if err != nil {
			return fmt.Errorf("querying matter states: %w", err)
		}

		type pending struct {
			orgID    string
			matterID string
			state    matter.State
		}
		var updates []pending
		for rows.Next() {
			var orgID, matterID, raw string
			if err := rows.Scan(&orgID, &matterID, &raw); err != nil {
				rows.Close()
				return err
			}
			var state matter.State
			if err := json.Unmarshal([]byte(raw), &state); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: skipping unreadable state for %s/%s: %v\n", orgID, matterID, err)
				continue
			}
			updates = append(updates, pending{orgID: orgID, matterID: matterID, state: state})
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		bar := progressbar.Default(int64(total), "reindexing matters")

		var changed int
		for _, u := range updates {
			if u.state.CaseBrief != nil {
				before := u.state.CaseBrief.Risk.Level
				r := risk.Assess(u.state.CaseBrief)
				u.state.CaseBrief.Risk = r
				h := risk.DecideHandoff(u.state.CaseBrief, r)
				u.state.Handoff = &h
				if r.Level != before {
					changed++
				}
				if err := comps.store.Put(ctx, u.orgID, u.matterID, u.state); err != nil {
					return fmt.Errorf("rewriting state for %s/%s: %w", u.orgID, u.matterID, err)
				}
			}
			bar.Add(1)
		}

		purged, err := comps.store.Purge(ctx)
		if err != nil {
			return fmt.Errorf("purging idempotency keys: %w", err)
		}

		fmt.Printf("\nReindexed %d matters (%d risk levels changed), purged %d expired idempotency keys\n",
			len(updates), changed, purged)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}
