package cmd

import (
	"github.com/spf13/cobra"

	"jvmget/downloader"
	"jvmget/logging"
)

// ListOutput is the JSON shape of list
type ListOutput struct {
	InstallRoot   string                    `json:"install_root"`
	Installations []downloader.Installation `json:"installations"`
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed Java runtimes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res := manager.Installed()
		if !res.OK() {
			return res.Cause()
		}

		if jsonOutput {
			return OutputJSON(ListOutput{InstallRoot: cfg.General.InstallRoot, Installations: res.Data()})
		}

		if len(res.Data()) == 0 {
			logging.LogOutput("ℹ️  No runtime installed in %s", cfg.General.InstallRoot)
			return nil
		}

		logging.LogOutput("🔹 Installed runtimes in %s:", cfg.General.InstallRoot)
		for _, inst := range res.Data() {
			if inst.Metadata != nil && inst.Metadata.ReleaseName != "" {
				logging.LogOutput("  ✅ %d  %s  (%s)", inst.Version, inst.Path, inst.Metadata.ReleaseName)
			} else {
				logging.LogOutput("  ✅ %d  %s", inst.Version, inst.Path)
			}
		}
		return nil
	},
}
