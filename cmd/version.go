package cmd

import (
	"runtime"

	"github.com/spf13/cobra"
)

// versionCmd shows the build details of the binary.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of popilot.",
	Long: `Display the release version, commit, build time and Go runtime of this binary.
Please include the output when reporting a bug.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("popilot %s\n", version)
		cmd.Printf("  Commit:   %s\n", commit)
		cmd.Printf("  Built:    %s\n", date)
		cmd.Printf("  Runtime:  %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}
