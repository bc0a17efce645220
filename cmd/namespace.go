package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/blizzapi/namespace"
)

var (
	nsRegion  string
	nsClassic bool
	nsAll     bool
)

// namespaceCmd represents the namespace command
var namespaceCmd = &cobra.Command{
	Use:   "namespace [scope]",
	Short: "Print the namespace sent for a scope and region",
	Long: `Resolve a namespace scope (dynamic, static, profile) to the namespace
parameter the API expects, e.g. "dynamic" in eu resolves to dynamic-eu.
With --all every scope is printed for every region.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNamespace,
}

func init() {
	rootCmd.AddCommand(namespaceCmd)

	namespaceCmd.Flags().StringVarP(&nsRegion, "region", "r", string(namespace.RegionUS), "region (us, eu, kr, tw)")
	namespaceCmd.Flags().BoolVar(&nsClassic, "classic", false, "resolve the classic variant")
	namespaceCmd.Flags().BoolVar(&nsAll, "all", false, "print every scope for every region")
}

func runNamespace(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if nsAll {
		return printNamespaceTable(out, nsClassic)
	}
	if len(args) == 0 {
		return fmt.Errorf("a scope is required unless --all is set")
	}

	region, err := namespace.ParseRegion(nsRegion)
	if err != nil {
		return err
	}
	ns, err := namespace.Resolve(namespace.Scope(args[0]), region, nsClassic)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, ns)
	return err
}

func printNamespaceTable(w io.Writer, classic bool) error {
	scopes := []namespace.Scope{namespace.ScopeDynamic, namespace.ScopeStatic, namespace.ScopeProfile}

	fmt.Fprintf(w, "%-8s %-22s %-22s %s\n", "REGION", "DYNAMIC", "STATIC", "PROFILE")
	fmt.Fprintln(w, strings.Repeat("━", 72))
	for _, region := range namespace.Regions {
		row := make([]any, 0, len(scopes)+1)
		row = append(row, region)
		for _, scope := range scopes {
			ns, err := namespace.Resolve(scope, region, classic)
			if err != nil {
				return err
			}
			row = append(row, ns)
		}
		fmt.Fprintf(w, "%-8s %-22s %-22s %s\n", row...)
	}
	return nil
}
