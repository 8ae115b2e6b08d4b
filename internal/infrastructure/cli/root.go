package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Global flag values.
var (
	configPath string
	apiURL     string
	socketURL  string
	logLevel   string
	jsonOutput bool
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "carwash",
	Version: Version,
	Short:   "Book and track mobile car washes",
	Long: `carwash is a client for the mobile car wash booking platform.
Customers can book a wash, follow it live and look up past orders.
Operators can log in to manage orders and the fleet of mobile units.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and prints a mapped error with its hint.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() error {
	err := MapError(RootCmd.Execute())
	if err == nil {
		return nil
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var cliErr *CLIError
	if errors.As(err, &cliErr) && cliErr.Hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", cliErr.Hint)
	}
	return err
}

// ExitCode returns the process exit code for an error returned by Execute.
func ExitCode(err error) int {
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.ExitCode
	}
	return 1
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (default ~/.carwash/config.yaml)")
	flags.StringVar(&apiURL, "api-url", "", "Backend REST base URL")
	flags.StringVar(&socketURL, "socket-url", "", "Backend real-time endpoint")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}
