package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joelkoen/picolimbo/pkg/config"
)

var initForce bool

// defaultConfigPath is where init writes when --config is not given.
const defaultConfigPath = "picolimbo.toml"

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample PicoLimbo configuration file.

By default, the configuration file is created at ./picolimbo.toml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  picolimbo init

  # Initialize with custom path
  picolimbo init --config /etc/picolimbo/picolimbo.toml

  # Force overwrite existing config
  picolimbo init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = defaultConfigPath
	}

	if !initForce {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
		}
	}

	if err := config.Save(config.GetDefaultConfig(), configPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Start the server with: picolimbo start")
	fmt.Printf("  3. Or specify custom config: picolimbo start --config %s\n", configPath)

	return nil
}
