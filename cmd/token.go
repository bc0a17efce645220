package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var tokenShowExpiry bool

// tokenCmd represents the token command
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Fetch an access token with the configured client credentials",
	Long: `Request an OAuth access token using the client-credentials grant and print it.
Useful for checking credentials and for passing --access-token to other tools.`,
	PreRunE:  initializeApp,
	RunE:     runToken,
	PostRunE: shutdownApp,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().BoolVar(&tokenShowExpiry, "expiry", false, "also print when the token expires")
}

func runToken(cmd *cobra.Command, args []string) error {
	manager, err := newTokenManager()
	if err != nil {
		return err
	}

	tok, err := manager.Token(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, tok.Value)
	if tokenShowExpiry {
		fmt.Fprintf(out, "expires %s (in %s)\n",
			tok.ExpiresAt.Format(time.RFC3339),
			time.Until(tok.ExpiresAt).Round(time.Second))
	}
	return nil
}
