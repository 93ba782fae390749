package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"jvmget/logging"
)

// Global variables for JSON mode
var (
	jsonOutput bool // Flag for JSON output
	jsonLogs   bool // Flag for JSON logs
)

// ErrorOutput is printed in JSON mode when a command fails
type ErrorOutput struct {
	Error string `json:"error"`
}

// OutputJSON handles JSON output for all commands
func OutputJSON(data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	logging.LogOutput(string(jsonData))
	return nil
}

// reportError logs err and, in JSON mode, prints it as an ErrorOutput
func reportError(err error) {
	logging.LogError("❌ %v", err)
	if jsonOutput {
		_ = OutputJSON(ErrorOutput{Error: err.Error()})
	}
}

// ExitWithError reports err, flushes the logs and exits
func ExitWithError(err error) {
	reportError(err)
	logging.Sync()
	os.Exit(1)
}
