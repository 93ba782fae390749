package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"jvmget/logging"
	"jvmget/repository/version"
)

// UseOutput is the JSON shape of use
type UseOutput struct {
	Version  int    `json:"version"`
	JavaHome string `json:"java_home"`
	Bin      string `json:"bin"`
}

var useCmd = &cobra.Command{
	Use:   "use [version]",
	Short: "Print shell commands that activate an installed runtime",
	Long: `Print shell commands that point JAVA_HOME and PATH at an installed runtime.
Evaluate the output in your shell:
  eval "$(jvmget use 17)"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		feature, ok := version.ParseFeature(args[0])
		if !ok {
			return fmt.Errorf("invalid version %q", args[0])
		}

		res := manager.Find(feature)
		if !res.OK() {
			return res.Cause()
		}
		if !res.Data().Found {
			return fmt.Errorf("version %d is not installed, run 'jvmget install %d' first", feature, feature)
		}

		home := javaHome(res.Data().Path)
		bin := filepath.Join(home, "bin")
		if jsonOutput {
			return OutputJSON(UseOutput{Version: feature, JavaHome: home, Bin: bin})
		}

		if runtime.GOOS == "windows" {
			logging.LogOutput("set JAVA_HOME=%s", home)
			logging.LogOutput("set PATH=%s;%%PATH%%", bin)
			return nil
		}
		logging.LogOutput("export JAVA_HOME=%q", home)
		logging.LogOutput("export PATH=\"$JAVA_HOME/bin:$PATH\"")
		return nil
	},
}

// javaHome returns the directory JAVA_HOME should point at. macOS bundles
// keep the runtime under Contents/Home.
func javaHome(installPath string) string {
	bundled := filepath.Join(installPath, "Contents", "Home")
	if info, err := os.Stat(bundled); err == nil && info.IsDir() {
		return bundled
	}
	return installPath
}
