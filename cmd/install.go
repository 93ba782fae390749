package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"jvmget/installer"
	"jvmget/locator"
	"jvmget/logging"
	"jvmget/repository/version"
)

// InstallOutput is the JSON shape of install
type InstallOutput struct {
	locator.Record
}

var installCmd = &cobra.Command{
	Use:   "install [version]",
	Short: "Ensure a Java feature version is installed",
	Long: `Ensure a Java feature version is installed under the install root.
Nothing is downloaded when the version is already present.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("\n❌ Invalid number of arguments\n\n" +
				"Usage:\n" +
				"  jvmget install [version]\n\n" +
				"Example:\n" +
				"  jvmget install 17\n\n" +
				"To see available versions:\n" +
				"  jvmget available")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		feature, ok := version.ParseFeature(args[0])
		if !ok {
			return fmt.Errorf("invalid version %q, expected a feature version such as 17", args[0])
		}
		return handleInstall(cmd, feature)
	},
	Example: `  # Install Java 17
  jvmget install 17

  # Install Java 21 and print the result as JSON
  jvmget install 21 --json`,
}

func handleInstall(cmd *cobra.Command, feature int) error {
	logging.LogDebug("🔧 Ensuring version %d is installed in %s", feature, cfg.General.InstallRoot)

	res := manager.Install(cmd.Context(), feature)
	if !res.OK() {
		if errors.Is(res.Cause(), installer.ErrSelection) {
			logging.LogInfo("💡 Use 'jvmget available' to see available versions")
		}
		return res.Cause()
	}

	if jsonOutput {
		return OutputJSON(InstallOutput{Record: res.Data()})
	}
	logging.LogOutput("✅ Java %d is installed at %s", feature, res.Data().Path)
	return nil
}
