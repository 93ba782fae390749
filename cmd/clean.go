package cmd

import (
	"github.com/spf13/cobra"

	"jvmget/logging"
)

var cleanArchives bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove interrupted downloads and abandoned unpack directories",
	Long: `Remove what interrupted installs leave behind:
1. partial downloads in the download root
2. staging directories of failed unpacks in the install root
3. downloaded archives, with --archives`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := manager.Clean(cleanArchives)
		if err != nil {
			return err
		}
		if jsonOutput {
			return OutputJSON(report)
		}
		logging.LogOutput("🧹 Removed %d partial download(s), %d archive(s) and %d staging director(ies), freed %s",
			report.Partials, report.Archives, report.Staging, formatSize(report.Freed))
		return nil
	},
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanArchives, "archives", false, "Also remove downloaded archives")
}
