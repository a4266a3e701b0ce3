package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lawdesk/matterflow/internal/authz"
	"github.com/lawdesk/matterflow/internal/config"
)

var (
	tokenOrg   string
	tokenName  string
	tokenScope string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage API tokens",
	Long: `Create and list API tokens. Tokens are bound to one organization and
carry a scope of read, readwrite, or admin. The plaintext token is
printed exactly once at creation; only its hash is stored.`,
}

var tokenCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new API token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenOrg == "" {
			return fmt.Errorf("--org is required")
		}
		if tokenName == "" {
			return fmt.Errorf("--name is required")
		}
		scope := authz.Scope(tokenScope)
		if scope != authz.ScopeRead && scope != authz.ScopeReadWrite && scope != authz.ScopeAdmin {
			return fmt.Errorf("invalid scope %q: must be read, readwrite, or admin", tokenScope)
		}

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
		if err := comps.auth.CreateOrganization(ctx, tokenOrg, tokenOrg); err != nil {
			return err
		}

		plaintext, err := comps.auth.CreateToken(ctx, tokenName, tokenOrg, scope)
		if err != nil {
			return err
		}

		fmt.Printf("Token created for organization %s (scope %s):\n\n  %s\n\nStore it now; it cannot be recovered.\n", tokenOrg, scope, plaintext)
		return nil
	},
}

var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List API tokens for an organization",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenOrg == "" {
			return fmt.Errorf("--org is required")
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		comps, err := buildComponents(cfg)
		if err != nil {
			return err
		}
		defer comps.db.Close()

		tokens, err := comps.auth.ListTokens(context.Background(), tokenOrg)
		if err != nil {
			return err
		}
		if len(tokens) == 0 {
			fmt.Printf("No tokens for organization %s\n", tokenOrg)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSCOPE")
		for _, t := range tokens {
			fmt.Fprintf(w, "%s\t%s\t%s\n", t.TokenID, t.Name, t.Scope)
		}
		return w.Flush()
	},
}

func init() {
	tokenCmd.PersistentFlags().StringVar(&tokenOrg, "org", "", "organization id")
	tokenCreateCmd.Flags().StringVar(&tokenName, "name", "", "token name")
	tokenCreateCmd.Flags().StringVar(&tokenScope, "scope", "readwrite", "token scope (read, readwrite, admin)")

	tokenCmd.AddCommand(tokenCreateCmd)
	tokenCmd.AddCommand(tokenListCmd)
	rootCmd.AddCommand(tokenCmd)
}
