package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "kachina",
	Short: "kachina — WhatsApp bot framework",
	Long:  "kachina-go runs a plugin-driven WhatsApp bot on top of an external protocol bridge.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (default ~/.kachina/config.json)")
}
