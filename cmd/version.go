package cmd

import (
	"fmt"
	"runtime"

	"github.com/blang/semver"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// repository hosts the release binaries used by update
const repository = "s0up4200/blizzapi"

var updateCheckOnly bool

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "blizzapi %s\nbuilt %s\n%s %s/%s\n",
			version, buildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		return nil
	},
}

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update blizzapi to the latest release",
	RunE:  runUpdate,
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().BoolVar(&updateCheckOnly, "check", false, "only report whether an update is available")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(repository))
	if err != nil {
		return fmt.Errorf("failed to detect latest release: %w", err)
	}
	if !found {
		return fmt.Errorf("no release found for %s/%s", runtime.GOOS, runtime.GOARCH)
	}

	newer, err := isNewer(version, latest.Version())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !newer {
		fmt.Fprintf(out, "blizzapi %s is up to date\n", version)
		return nil
	}
	if updateCheckOnly {
		fmt.Fprintf(out, "blizzapi %s is available (current %s)\n", latest.Version(), version)
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}
	if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
		return fmt.Errorf("failed to update binary: %w", err)
	}

	logger.Info().Str("version", latest.Version()).Str("path", exe).Msg("Updated")
	fmt.Fprintf(out, "Updated to blizzapi %s\n", latest.Version())
	return nil
}

// isNewer reports whether latest is a higher version than current. Dev
// builds always update.
func isNewer(current, latest string) (bool, error) {
	latestVersion, err := semver.ParseTolerant(latest)
	if err != nil {
		return false, fmt.Errorf("invalid release version %q: %w", latest, err)
	}
	currentVersion, err := semver.ParseTolerant(current)
	if err != nil {
		logger.Debug().Str("current", current).Msg("Current build is not a release")
		return true, nil
	}
	return latestVersion.GT(currentVersion), nil
}
