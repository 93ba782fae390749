package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"jvmget/logging"
	"jvmget/repository"
	"jvmget/repository/version"
)

// AvailableOutput is the JSON shape of available
type AvailableOutput struct {
	Platform string                `json:"platform"`
	Releases repository.ReleaseSet `json:"releases"`
}

var availableCmd = &cobra.Command{
	Use:   "available [version]",
	Short: "List releases the catalog offers for this platform",
	Long: `List releases the catalog offers for this platform.
Examples:
  jvmget available      # List every feature version
  jvmget available 21   # Only show Java 21`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := 0
		if len(args) == 1 {
			n, ok := version.ParseFeature(args[0])
			if !ok {
				return fmt.Errorf("invalid version %q", args[0])
			}
			filter = n
		}
		return handleAvailable(cmd, filter)
	},
}

func handleAvailable(cmd *cobra.Command, filter int) error {
	res := manager.Available(cmd.Context())
	if !res.OK() {
		return res.Cause()
	}

	releases := res.Data()
	features := featureVersions(releases)
	if filter != 0 {
		filtered := repository.ReleaseSet{}
		for _, r := range releases {
			if r.FeatureVersion == filter {
				filtered = append(filtered, r)
			}
		}
		releases = filtered
	}

	if jsonOutput {
		return OutputJSON(AvailableOutput{Platform: manager.Platform().String(), Releases: releases})
	}

	if len(releases) == 0 {
		logging.LogOutput("❌ No release found for %s", manager.Platform())
		if len(features) > 0 {
			logging.LogOutput("")
			logging.LogOutput("💡 Available feature versions are: %s", joinInts(features))
		}
		return nil
	}

	displayReleases(releases)
	return nil
}

func featureVersions(releases repository.ReleaseSet) []int {
	seen := make(map[int]bool)
	var out []int
	for _, r := range releases {
		if !seen[r.FeatureVersion] {
			seen[r.FeatureVersion] = true
			out = append(out, r.FeatureVersion)
		}
	}
	sort.Ints(out)
	return out
}

// joinInts converts a slice of integers to a string
func joinInts(numbers []int) string {
	strNumbers := make([]string, 0, len(numbers))
	for _, num := range numbers {
		strNumbers = append(strNumbers, strconv.Itoa(num))
	}
	return strings.Join(strNumbers, ", ")
}

func displayReleases(releases repository.ReleaseSet) {
	groups := make(map[int][]repository.Release)
	for _, r := range releases {
		groups[r.FeatureVersion] = append(groups[r.FeatureVersion], r)
	}

	logging.LogOutput("🔹 Available versions for %s:", manager.Platform())
	logging.LogOutput("─────────────────────────")
	for _, feature := range featureVersions(releases) {
		logging.LogOutput("-%d :", feature)
		for _, r := range groups[feature] {
			name := r.ReleaseName
			if name == "" {
				name = r.Version
			}
			logging.LogOutput("    ✅ %s (%s, %s)", name, r.ArchiveType, formatSize(r.Size))
		}
		logging.LogOutput("")
	}

	logging.LogOutput("💡 To install a version:")
	logging.LogOutput("   jvmget install [version]")
}

func formatSize(n int64) string {
	const mib = 1 << 20
	if n <= 0 {
		return "size unknown"
	}
	return fmt.Sprintf("%.1f MiB", float64(n)/mib)
}
