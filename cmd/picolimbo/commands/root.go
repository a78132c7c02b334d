// Package commands implements the picolimbo CLI.
package commands

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

// Process exit codes. Main maps the returned error back to one of these
// so supervisors can distinguish a bad config from a bad bind.
const (
	ExitConfig = 1
	ExitBind   = 2
	ExitAssets = 3
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "picolimbo",
	Short: "PicoLimbo - Lightweight Minecraft limbo server",
	Long: `PicoLimbo is a lightweight Minecraft limbo server. It holds players in
a void world across every protocol version from 1.7.2 through 1.21.7,
with optional Velocity and BungeeCord proxy forwarding.

Use "picolimbo [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./picolimbo.toml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(initCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}

// codedError carries the exit code main should use for an error.
type codedError struct {
	code int
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

// exitWith wraps err with an exit code. A nil err passes through.
func exitWith(code int, err error) error {
	if err == nil {
		return nil
	}
	return &codedError{code: code, err: err}
}

// ExitCode extracts the exit code from an error returned by Execute.
// Untagged errors map to the generic failure code.
func ExitCode(err error) int {
	var coded *codedError
	if errors.As(err, &coded) {
		return coded.code
	}
	return 1
}
