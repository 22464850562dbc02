package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/idlanyor/kachina-go/internal/config"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize kachina configuration and data directories",
	RunE:  runOnboard,
}

func init() {
	rootCmd.AddCommand(onboardCmd)
}

func runOnboard(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.GetConfigPath()
	}

	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config already exists at %s\n", path)
	} else {
		if err := config.Save(config.DefaultConfig(), path); err != nil {
			return fmt.Errorf("creating config: %w", err)
		}
		fmt.Printf("✓ Created config at %s\n", path)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	for _, dir := range []string{cfg.PluginsDir, cfg.DatabasePath} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		fmt.Printf("✓ Directory %s\n", dir)
	}

	fmt.Println("\nEdit the config to set owners, prefix and the bridge URL, then run: kachina run")
	return nil
}
